// Package mailer sends account e-mails.
package mailer

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/trackshare/internal/logging"
	"github.com/wneessen/go-mail"
)

// Sender delivers verification codes to users.
type Sender interface {
	SendVerificationEmail(ctx context.Context, address, code string) error
}

const verificationSubject = "Verify your trackshare account"

func verificationBody(code string) string {
	return fmt.Sprintf("Welcome to trackshare!\n\nYour verification code is %s.\nIt expires in 24 hours.\n", code)
}

type SMTPOptions struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type SMTPSender struct {
	from string
	send func(ctx context.Context, msgs ...*mail.Msg) error
}

func NewSMTPSender(opts SMTPOptions) (*SMTPSender, error) {
	if opts.Host == "" {
		return nil, errors.New("mailer: SMTP host is required")
	}
	if opts.From == "" {
		return nil, errors.New("mailer: sender address is required")
	}

	clientOpts := []mail.Option{
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
		mail.WithPort(opts.Port),
	}
	if opts.Username != "" {
		clientOpts = append(clientOpts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(opts.Username),
			mail.WithPassword(opts.Password),
		)
	}

	client, err := mail.NewClient(opts.Host, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("mailer: %w", err)
	}

	return &SMTPSender{from: opts.From, send: client.DialAndSendWithContext}, nil
}

func (s *SMTPSender) message(address, code string) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(s.from); err != nil {
		return nil, fmt.Errorf("invalid sender: %w", err)
	}
	if err := m.To(address); err != nil {
		return nil, fmt.Errorf("invalid recipient: %w", err)
	}
	m.Subject(verificationSubject)
	m.SetBodyString(mail.TypeTextPlain, verificationBody(code))
	return m, nil
}

func (s *SMTPSender) SendVerificationEmail(ctx context.Context, address, code string) error {
	m, err := s.message(address, code)
	if err != nil {
		return err
	}
	if err := s.send(ctx, m); err != nil {
		return fmt.Errorf("send verification email: %w", err)
	}
	return nil
}

// LogSender writes codes to the log instead of mailing them. Meant for local
// development without an SMTP relay.
type LogSender struct {
	log logging.Logger
}

func NewLogSender(l logging.Logger) *LogSender {
	return &LogSender{log: l}
}

func (s *LogSender) SendVerificationEmail(ctx context.Context, address, code string) error {
	s.log.Info(ctx, "verification email", "to", address, "code", code)
	return nil
}
