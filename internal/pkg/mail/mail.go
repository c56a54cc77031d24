package mail

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"gopkg.in/gomail.v2"

	"github.com/ManuelReschke/Marktplatz/internal/pkg/env"
)

// ErrNotConfigured is returned when SMTP_HOST is empty
var ErrNotConfigured = errors.New("smtp is not configured")

// Sender delivers one message with an HTML and a plain text part
type Sender interface {
	Send(to, subject, htmlBody, plainBody string) error
}

type SMTPConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	FromAddress string
}

// SMTPSender sends emails via SMTP
type SMTPSender struct {
	config SMTPConfig
	dialer *gomail.Dialer
}

func NewSMTPSender(config SMTPConfig) *SMTPSender {
	return &SMTPSender{
		config: config,
		dialer: gomail.NewDialer(config.Host, config.Port, config.Username, config.Password),
	}
}

func (s *SMTPSender) Send(to, subject, htmlBody, plainBody string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.config.FromAddress)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", plainBody)
	if htmlBody != "" {
		m.AddAlternative("text/html", htmlBody)
	}

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	log.Printf("Email sent to %s via %s:%d", to, s.config.Host, s.config.Port)
	return nil
}

type noopSender struct{}

func (noopSender) Send(string, string, string, string) error { return ErrNotConfigured }

var (
	defaultSender Sender
	senderOnce    sync.Once
	senderMu      sync.RWMutex
)

// Default returns the SMTP sender built from the environment
func Default() Sender {
	senderOnce.Do(func() {
		senderMu.Lock()
		defer senderMu.Unlock()
		if defaultSender != nil {
			return
		}
		host := env.GetEnv("SMTP_HOST", "")
		if host == "" {
			defaultSender = noopSender{}
			return
		}
		sender := env.GetEnv("SMTP_SENDER", "")
		if sender == "" {
			sender = "no-reply@localhost"
			log.Printf("SMTP_SENDER not set, using default sender: %s", sender)
		}
		defaultSender = NewSMTPSender(SMTPConfig{
			Host:        host,
			Port:        env.GetEnvInt("SMTP_PORT", 587),
			Username:    env.GetEnv("SMTP_USERNAME", ""),
			Password:    env.GetEnv("SMTP_PASSWORD", ""),
			FromAddress: sender,
		})
	})
	senderMu.RLock()
	defer senderMu.RUnlock()
	return defaultSender
}

// SetDefault replaces the sender, used by tests
func SetDefault(s Sender) {
	senderOnce.Do(func() {})
	senderMu.Lock()
	defer senderMu.Unlock()
	defaultSender = s
}
