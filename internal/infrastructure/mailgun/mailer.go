package mailgun

import (
	"context"
	"fmt"
	"time"

	mg "github.com/mailgun/mailgun-go/v4"

	"github.com/bike-resale-api/internal/domain"
)

// Mailer delivers email through the Mailgun HTTP API.
type Mailer struct {
	client *mg.MailgunImpl
	sender string
}

func NewMailer(domainName, apiKey, sender string) *Mailer {
	return &Mailer{client: mg.NewMailgun(domainName, apiKey), sender: sender}
}

func (m *Mailer) Send(ctx context.Context, e domain.Email) error {
	msg := m.client.NewMessage(m.sender, e.Subject, e.Text, e.To)
	if e.HTML != "" {
		msg.SetHtml(e.HTML)
	}
	c, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if _, _, err := m.client.Send(c, msg); err != nil {
		return fmt.Errorf("mailgun send: %w", err)
	}
	return nil
}
