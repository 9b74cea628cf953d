package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/jhoicas/retail-kpi-api/internal/application/notification"
	"github.com/jhoicas/retail-kpi-api/pkg/config"
)

var _ notification.Mailer = (*SMTPMailer)(nil)

const fromName = "Retail KPI System"

// SMTPMailer envía con gomail. Cada Send abre su propia conexión.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPMailer construye el transporte SMTP desde la configuración.
func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:   cfg.From,
	}
}

// Send renderiza y entrega un correo. Respeta la cancelación de ctx aunque gomail no la soporte.
func (m *SMTPMailer) Send(ctx context.Context, d notification.Delivery) error {
	msg, err := Render(d)
	if err != nil {
		return err
	}
	gm := gomail.NewMessage()
	gm.SetAddressHeader("From", m.from, fromName)
	gm.SetHeader("To", d.To)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/plain", msg.Text)
	gm.AddAlternative("text/html", msg.HTML)

	done := make(chan error, 1)
	go func() { done <- m.dialer.DialAndSend(gm) }()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send %s to %s: %w", d.Kind, d.To, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("smtp send %s to %s: %w", d.Kind, d.To, ctx.Err())
	}
}
