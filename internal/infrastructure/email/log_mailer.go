package email

import (
	"context"

	"github.com/jhoicas/retail-kpi-api/internal/application/notification"
	"github.com/jhoicas/retail-kpi-api/pkg/config"
	"github.com/jhoicas/retail-kpi-api/pkg/logger"
)

var _ notification.Mailer = (*LogMailer)(nil)

// LogMailer transporte sin SMTP: registra el correo y reporta éxito.
type LogMailer struct {
	log *logger.Logger
}

// NewLogMailer construye el transporte de solo log.
func NewLogMailer(log *logger.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(_ context.Context, d notification.Delivery) error {
	msg, err := Render(d)
	if err != nil {
		return err
	}
	m.log.Info().
		Str("kind", string(d.Kind)).
		Str("to", d.To).
		Str("subject", msg.Subject).
		Str("body", msg.Text).
		Msg("correo registrado (SMTP no configurado)")
	return nil
}

// NewMailer elige SMTP si hay credenciales; si no, solo log.
func NewMailer(smtp config.SMTPConfig, log *logger.Logger) notification.Mailer {
	if smtp.Enabled() {
		return NewSMTPMailer(smtp)
	}
	return NewLogMailer(log)
}
