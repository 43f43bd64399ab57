// Package email delivers plain-text messages over SMTP.
package email

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"

	"github.com/vbruno96/tabnews-clone/internal/apierror"
)

// Envelope is one plain-text message.
type Envelope struct {
	From    string
	To      string
	Subject string
	Text    string
}

type Sender interface {
	Send(ctx context.Context, env Envelope) error
}

type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	// Secure dials with implicit TLS. Otherwise STARTTLS is used when the
	// server offers it, so local mail catchers still work in plain text.
	Secure bool
}

// SMTPSender holds one process-wide client; each Send dials with the given context.
type SMTPSender struct {
	client *mail.Client
}

func NewSMTPSender(cfg Config) (*SMTPSender, error) {
	opts := []mail.Option{mail.WithPort(cfg.Port)}
	if cfg.Secure {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}
	if cfg.User != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.User),
			mail.WithPassword(cfg.Password),
		)
	}
	c, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("email client: %w", err)
	}
	return &SMTPSender{client: c}, nil
}

// Message renders env as a go-mail message.
func Message(env Envelope) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(env.From); err != nil {
		return nil, fmt.Errorf("from: %w", err)
	}
	if err := m.To(env.To); err != nil {
		return nil, fmt.Errorf("to: %w", err)
	}
	m.Subject(env.Subject)
	m.SetBodyString(mail.TypeTextPlain, env.Text)
	return m, nil
}

// Send delivers env. Any failure is reported as ServiceError.
func (s *SMTPSender) Send(ctx context.Context, env Envelope) error {
	m, err := Message(env)
	if err == nil {
		err = s.client.DialAndSendWithContext(ctx, m)
	}
	if err != nil {
		return apierror.NewServiceError(apierror.Options{
			Message: "Não foi possível enviar o email.",
			Action:  "Verifique se o serviço de email está disponível.",
			Cause:   err,
			Context: env,
		})
	}
	return nil
}
