package mailer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

func TestSend_Disabled(t *testing.T) {
	c := New(Config{Enabled: false, From: "a@b.c"})
	err := c.Send(context.Background(), "x@y.z", "Hi", "<p>hi</p>")
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestSend_InvalidMessage(t *testing.T) {
	c := New(Config{Enabled: true, From: "shop@example.com"})

	for name, args := range map[string][3]string{
		"no recipient": {"", "Subject", "<p>x</p>"},
		"no subject":   {"to@example.com", " ", "<p>x</p>"},
		"no body":      {"to@example.com", "Subject", ""},
	} {
		t.Run(name, func(t *testing.T) {
			err := c.Send(context.Background(), args[0], args[1], args[2])
			assert.ErrorIs(t, err, ErrInvalidMessage)
		})
	}
}

func TestSend_UsesDialer(t *testing.T) {
	c := New(Config{Enabled: true, Host: "smtp.example.com", Port: 2525, From: "shop@example.com"})

	var gotHost string
	var gotTo []string
	c.send = func(d *gomail.Dialer, m *gomail.Message) error {
		gotHost = d.Host
		gotTo = m.GetHeader("To")
		return nil
	}

	require.NoError(t, c.Send(context.Background(), "ram@example.com", "Booking confirmed", "<p>ok</p>"))
	assert.Equal(t, "smtp.example.com", gotHost)
	assert.Equal(t, []string{"ram@example.com"}, gotTo)
}

func TestSend_WrapsTransportError(t *testing.T) {
	c := New(Config{Enabled: true, Host: "smtp.example.com", From: "shop@example.com"})
	boom := errors.New("connection refused")
	c.send = func(*gomail.Dialer, *gomail.Message) error { return boom }

	err := c.Send(context.Background(), "ram@example.com", "Subject", "<p>x</p>")
	assert.ErrorIs(t, err, boom)
}

func TestSend_Timeout(t *testing.T) {
	c := New(Config{Enabled: true, Host: "smtp.example.com", From: "shop@example.com", Timeout: 20 * time.Millisecond})
	release := make(chan struct{})
	defer close(release)
	c.send = func(*gomail.Dialer, *gomail.Message) error {
		<-release
		return nil
	}

	err := c.Send(context.Background(), "ram@example.com", "Subject", "<p>x</p>")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
