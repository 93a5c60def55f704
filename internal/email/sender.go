package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

// MailTransport delivers one rendered email. Implementations must be
// safe for concurrent use by the delivery workers.
type MailTransport interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// Sender is the SMTP MailTransport.
type Sender struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Send builds the MIME message and delivers it over SMTP. The body is
// already rendered at planning time; nothing is re-rendered here.
func (s *Sender) Send(ctx context.Context, to, subject, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	d := gomail.NewDialer(s.Host, s.Port, s.Username, s.Password)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp send error: %w", err)
	}

	return nil
}
