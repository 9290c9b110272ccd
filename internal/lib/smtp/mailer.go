// Package smtp отправляет письма пользователям через SMTP-сервер с STARTTLS.
package smtp

import (
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/magabrotheeeer/medical-education/internal/config"
)

// Client — часть *smtp.Client, нужная для отправки письма.
type Client interface {
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}

// Dialer открывает авторизованное соединение с SMTP-сервером.
type Dialer interface {
	Dial() (Client, error)
}

// Message — письмо одному получателю.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer отправляет письма через Dialer.
type Mailer struct {
	dialer Dialer
	from   string
}

// NewMailer создаёт Mailer.
func NewMailer(dialer Dialer, from string) *Mailer {
	return &Mailer{dialer: dialer, from: from}
}

// Send отправляет msg.
func (m *Mailer) Send(msg Message) error {
	const op = "smtp.Send"
	if msg.To == "" {
		return fmt.Errorf("%s: empty recipient", op)
	}
	c, err := m.dialer.Dial()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = c.Close() }()

	if err := c.Mail(m.from); err != nil {
		return fmt.Errorf("%s: mail from: %w", op, err)
	}
	if err := c.Rcpt(msg.To); err != nil {
		return fmt.Errorf("%s: rcpt: %w", op, err)
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("%s: data: %w", op, err)
	}
	if _, err := io.WriteString(w, m.compose(msg)); err != nil {
		return fmt.Errorf("%s: write: %w", op, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("%s: close data: %w", op, err)
	}
	return c.Quit()
}

func (m *Mailer) compose(msg Message) string {
	var b strings.Builder
	b.WriteString("From: " + m.from + "\r\n")
	b.WriteString("To: " + msg.To + "\r\n")
	b.WriteString("Subject: " + msg.Subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
	b.WriteString(msg.Body)
	return b.String()
}

// TLSDialer подключается к серверу из конфига, включает STARTTLS и
// авторизуется PLAIN.
type TLSDialer struct {
	cfg config.SMTP
}

// NewTLSDialer создаёт TLSDialer.
func NewTLSDialer(cfg config.SMTP) *TLSDialer {
	return &TLSDialer{cfg: cfg}
}

// Dial реализует Dialer.
func (d *TLSDialer) Dial() (Client, error) {
	const op = "smtp.Dial"
	addr := net.JoinHostPort(d.cfg.Host, strconv.Itoa(d.cfg.Port))
	client, err := smtp.Dial(addr)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if ok, _ := client.Extension("STARTTLS"); !ok {
		_ = client.Close()
		return nil, fmt.Errorf("%s: server does not support STARTTLS", op)
	}
	if err := client.StartTLS(&tls.Config{ServerName: d.cfg.Host, MinVersion: tls.VersionTLS12}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%s: starttls: %w", op, err)
	}
	if d.cfg.Username != "" {
		auth := smtp.PlainAuth("", d.cfg.Username, d.cfg.Password, d.cfg.Host)
		if err := client.Auth(auth); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("%s: auth: %w", op, err)
		}
	}
	return client, nil
}
