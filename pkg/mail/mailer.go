package mail

import (
	"fmt"

	"github.com/sirupsen/logrus"
	gomail "gopkg.in/gomail.v2"
)

// Mailer sends transactional email
type Mailer interface {
	Send(to, subject, htmlBody string) error
}

// Config holds SMTP configuration for the mailer
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer sends email through an SMTP relay via gomail
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
	logger *logrus.Logger
}

// NewSMTPMailer creates a new SMTP mailer
func NewSMTPMailer(cfg Config, logger *logrus.Logger) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
		logger: logger,
	}
}

// Send delivers a single HTML email
func (m *SMTPMailer) Send(to, subject, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}

	m.logger.WithFields(logrus.Fields{
		"to":      to,
		"subject": subject,
	}).Info("Email sent")

	return nil
}

// DevMailer logs emails instead of sending them (development mode)
type DevMailer struct {
	logger *logrus.Logger
}

// NewDevMailer creates a mailer that only logs
func NewDevMailer(logger *logrus.Logger) *DevMailer {
	return &DevMailer{logger: logger}
}

// Send logs the email without delivering it
func (m *DevMailer) Send(to, subject, htmlBody string) error {
	m.logger.WithFields(logrus.Fields{
		"to":      to,
		"subject": subject,
		"body":    htmlBody,
	}).Info("DEV MODE: email not sent")

	return nil
}
