package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	mail "github.com/wneessen/go-mail"
)

const (
	emailSubject = "Your Invoice from Anadi Me Edsolutions"
	emailBody    = "Dear %s,\n\nPlease find attached your invoice.\n\nRegards,\nAnadi Me Edsolutions"
)

// Mailer sends invoice PDFs over SMTP. An unconfigured mailer (missing
// address or password) is valid and silently skips every send; absence of
// credentials is a deployment choice, not an error.
type Mailer struct {
	Host     string
	Port     int
	Address  string
	Password string
	Timeout  time.Duration

	log zerolog.Logger
}

func NewMailer(host string, port int, address, password string, timeout time.Duration, log zerolog.Logger) *Mailer {
	return &Mailer{Host: host, Port: port, Address: address, Password: password, Timeout: timeout, log: log}
}

// Enabled reports whether transport credentials are present.
func (m *Mailer) Enabled() bool { return m.Address != "" && m.Password != "" }

// SendInvoice emails the PDF as an attachment. The SMTP dial-and-send runs
// under a bounded context because it blocks on the request path.
func (m *Mailer) SendInvoice(ctx context.Context, to, customer, pdfPath string) error {
	if !m.Enabled() {
		m.log.Debug().Str("to", to).Msg("email credentials absent; skipping send")
		return nil
	}
	msg := mail.NewMsg()
	if err := msg.From(m.Address); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(emailSubject)
	msg.SetBodyString(mail.TypeTextPlain, fmt.Sprintf(emailBody, customer))
	msg.AttachFile(pdfPath)

	client, err := mail.NewClient(m.Host,
		mail.WithPort(m.Port),
		mail.WithSSL(),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.Address),
		mail.WithPassword(m.Password),
		mail.WithTimeout(m.Timeout),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	timeout := m.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	sendCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.DialAndSendWithContext(sendCtx, msg); err != nil {
		return fmt.Errorf("send invoice email: %w", err)
	}
	m.log.Info().Str("to", to).Str("pdf", pdfPath).Msg("invoice email sent")
	return nil
}
