package services

import (
	"errors"
	"fmt"
	"net/smtp"
	"strings"
	"time"
)

// ErrMailerNotConfigured is returned when SMTP settings are incomplete
var ErrMailerNotConfigured = errors.New("SMTP credentials not fully configured")

// Mailer sends plain-text email
type Mailer interface {
	SendEmail(to []string, subject, body string) error
}

// EmailConfig holds the SMTP settings
type EmailConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	From     string
}

type EmailService struct {
	cfg EmailConfig
}

func NewEmailService(cfg EmailConfig) *EmailService {
	return &EmailService{cfg: cfg}
}

// Configured reports whether every SMTP setting is present
func (s *EmailService) Configured() bool {
	return s.cfg.Host != "" && s.cfg.Port != "" && s.cfg.User != "" && s.cfg.Password != ""
}

func (s *EmailService) SendEmail(to []string, subject, body string) error {
	if !s.Configured() {
		return ErrMailerNotConfigured
	}
	if len(to) == 0 {
		return errors.New("no recipients")
	}

	auth := smtp.PlainAuth("", s.cfg.User, s.cfg.Password, s.cfg.Host)

	message := []byte(fmt.Sprintf("From: %s\r\n"+
		"To: %s\r\n"+
		"Subject: %s\r\n"+
		"Content-Type: text/plain; charset=UTF-8\r\n"+
		"\r\n"+
		"%s\r\n", s.cfg.From, strings.Join(to, ", "), subject, body))

	addr := fmt.Sprintf("%s:%s", s.cfg.Host, s.cfg.Port)

	if err := smtp.SendMail(addr, auth, s.cfg.From, to, message); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// CreditReceipt is the content of a purchase confirmation email
type CreditReceipt struct {
	Name      string
	SessionID string
	Credits   int64
	Balance   int64
	GrantedAt time.Time
}

// Subject is the receipt email subject line
func (r CreditReceipt) Subject() string {
	return fmt.Sprintf("Rez AI: %d credits added to your account", r.Credits)
}

// Body renders the receipt as plain text
func (r CreditReceipt) Body() string {
	name := r.Name
	if name == "" {
		name = "there"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", name)
	fmt.Fprintf(&b, "Thank you for your purchase. %d credits were added to your Rez AI account.\n\n", r.Credits)
	fmt.Fprintf(&b, "Current balance: %d credits\n", r.Balance)
	fmt.Fprintf(&b, "Reference: %s\n", r.SessionID)
	fmt.Fprintf(&b, "Date: %s\n\n", r.GrantedAt.UTC().Format("2006-01-02 15:04 MST"))
	b.WriteString("Credits never expire and can be used anytime.\n")
	return b.String()
}
