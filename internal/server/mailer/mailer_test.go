package mailer

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/trackshare/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"
)

func TestNewSMTPSender_Validation(t *testing.T) {
	_, err := NewSMTPSender(SMTPOptions{From: "a@x.com"})
	require.Error(t, err)

	_, err = NewSMTPSender(SMTPOptions{Host: "smtp.example.com"})
	require.Error(t, err)

	s, err := NewSMTPSender(SMTPOptions{Host: "smtp.example.com", Port: 587, Username: "u", Password: "p", From: "no-reply@x.com"})
	require.NoError(t, err)
	assert.NotNil(t, s.send)
}

func TestSendVerificationEmail_ComposesMessage(t *testing.T) {
	var sent []*mail.Msg
	s := &SMTPSender{
		from: "no-reply@trackshare.local",
		send: func(ctx context.Context, msgs ...*mail.Msg) error {
			sent = append(sent, msgs...)
			return nil
		},
	}

	require.NoError(t, s.SendVerificationEmail(context.Background(), "alice@x.com", "123456"))
	require.Len(t, sent, 1)

	var buf bytes.Buffer
	_, err := sent[0].WriteTo(&buf)
	require.NoError(t, err)
	raw := buf.String()

	assert.Contains(t, raw, "alice@x.com")
	assert.Contains(t, raw, "no-reply@trackshare.local")
	assert.Contains(t, raw, "Subject: "+verificationSubject)
	assert.Contains(t, raw, "123456")
}

func TestSendVerificationEmail_Errors(t *testing.T) {
	boom := errors.New("relay down")
	s := &SMTPSender{
		from: "no-reply@trackshare.local",
		send: func(context.Context, ...*mail.Msg) error { return boom },
	}
	require.ErrorIs(t, s.SendVerificationEmail(context.Background(), "alice@x.com", "1"), boom)

	called := false
	s.send = func(context.Context, ...*mail.Msg) error { called = true; return nil }
	require.Error(t, s.SendVerificationEmail(context.Background(), "not an address", "1"))
	assert.False(t, called)
}

func TestLogSender(t *testing.T) {
	var buf bytes.Buffer
	l, err := logging.New(&buf, logging.FormatJSON, "info")
	require.NoError(t, err)

	require.NoError(t, NewLogSender(l).SendVerificationEmail(context.Background(), "a@x.com", "654321"))
	assert.Contains(t, buf.String(), "654321")
	assert.Contains(t, buf.String(), "a@x.com")
}
