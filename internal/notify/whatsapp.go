package notify

import (
	"fmt"
	"net/url"
	"strings"
)

// WhatsAppLink builds the prefilled chat deep-link for an invoice. Pure
// string construction; the phone number is passed through untouched.
func WhatsAppLink(phone, customer, invoiceNo string) string {
	text := fmt.Sprintf("Hello %s,\nYour invoice (%s) is ready.\nThank you.", customer, invoiceNo)
	// wa.me expects %20 for spaces, not '+'; parentheses stay literal.
	escaped := strings.NewReplacer("+", "%20", "%28", "(", "%29", ")").Replace(url.QueryEscape(text))
	return "https://wa.me/" + phone + "?text=" + escaped
}
