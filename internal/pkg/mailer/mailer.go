// Package mailer sends HTML email over SMTP.
package mailer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"
	"time"

	"gopkg.in/gomail.v2"
)

var (
	ErrDisabled       = errors.New("mailer: email is disabled")
	ErrInvalidMessage = errors.New("mailer: invalid message")
)

type Config struct {
	Enabled  bool
	Host     string
	Port     int
	Username string
	Password string
	From     string
	UseSSL   bool
	Timeout  time.Duration
}

// sendFunc is swapped in tests.
type sendFunc func(d *gomail.Dialer, m *gomail.Message) error

type Client struct {
	cfg  Config
	send sendFunc
}

func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		cfg:  cfg,
		send: func(d *gomail.Dialer, m *gomail.Message) error { return d.DialAndSend(m) },
	}
}

// Send delivers one HTML message. It returns when the SMTP exchange ends, the
// context is done or the configured timeout passes, whichever comes first.
func (c *Client) Send(ctx context.Context, to, subject, html string) error {
	if !c.cfg.Enabled {
		return ErrDisabled
	}

	msg, err := buildMessage(c.cfg.From, to, subject, html)
	if err != nil {
		return err
	}

	d := gomail.NewDialer(c.cfg.Host, c.cfg.Port, c.cfg.Username, c.cfg.Password)
	d.SSL = c.cfg.UseSSL
	if c.cfg.UseSSL {
		d.TLSConfig = &tls.Config{ServerName: c.cfg.Host}
	}

	done := make(chan error, 1)
	go func() { done <- c.send(d, msg) }()

	wait := c.cfg.Timeout
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); left > 0 && left < wait {
			wait = left
		}
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("mailer: smtp send: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return context.DeadlineExceeded
	}
}

func buildMessage(from, to, subject, html string) (*gomail.Message, error) {
	from = strings.TrimSpace(from)
	to = strings.TrimSpace(to)
	subject = strings.TrimSpace(subject)

	switch {
	case from == "":
		return nil, fmt.Errorf("%w: from is required", ErrInvalidMessage)
	case to == "":
		return nil, fmt.Errorf("%w: recipient is required", ErrInvalidMessage)
	case subject == "":
		return nil, fmt.Errorf("%w: subject is required", ErrInvalidMessage)
	case strings.TrimSpace(html) == "":
		return nil, fmt.Errorf("%w: body is required", ErrInvalidMessage)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", html)
	return m, nil
}
