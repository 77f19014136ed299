package notify

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestWhatsAppLinkFormat(t *testing.T) {
	got := WhatsAppLink("911234567890", "John Doe", "ANADI-INV-000007")
	want := "https://wa.me/911234567890?text=Hello%20John%20Doe%2C%0AYour%20invoice%20(ANADI-INV-000007)%20is%20ready.%0AThank%20you."
	if got != want {
		t.Fatalf("link mismatch:\nwant %s\ngot  %s", want, got)
	}
}

func TestWhatsAppLinkIsPure(t *testing.T) {
	a := WhatsAppLink("1", "A", "N")
	b := WhatsAppLink("1", "A", "N")
	if a != b {
		t.Fatalf("link construction must be deterministic")
	}
}

func TestMailerWithoutCredentialsIsNoOp(t *testing.T) {
	m := NewMailer("smtp.example.com", 465, "", "", time.Second, zerolog.Nop())
	if m.Enabled() {
		t.Fatalf("mailer without credentials must report disabled")
	}
	if err := m.SendInvoice(context.Background(), "a@b.c", "Bob", "/nonexistent.pdf"); err != nil {
		t.Fatalf("absent credentials must not be an error, got %v", err)
	}
}

func TestMailerPartialCredentialsIsNoOp(t *testing.T) {
	m := NewMailer("smtp.example.com", 465, "user@example.com", "", time.Second, zerolog.Nop())
	if m.Enabled() {
		t.Fatalf("mailer with missing password must report disabled")
	}
	if err := m.SendInvoice(context.Background(), "a@b.c", "Bob", "/nonexistent.pdf"); err != nil {
		t.Fatalf("absent credentials must not be an error, got %v", err)
	}
}
