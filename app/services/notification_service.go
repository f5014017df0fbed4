// Package services provides external service integrations and technical concerns like notifications and tokens
package services

import (
	"context"
	"fmt"
	"net"
	"net/mail"
	"net/smtp"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// NotificationService sends account lifecycle mail
type NotificationService interface {
	SendVerificationEmail(ctx context.Context, email, name, token string) error
	SendWelcomeEmail(ctx context.Context, email, name string) error
}

// EmailProvider interface for email sending
type EmailProvider interface {
	SendEmail(ctx context.Context, email, subject, message string) error
}

// NotificationServiceImpl implements NotificationService
type NotificationServiceImpl struct {
	emailProvider   EmailProvider
	verificationURL string
}

// NewNotificationService creates a new notification service
func NewNotificationService(emailProvider EmailProvider, verificationURL string) NotificationService {
	return &NotificationServiceImpl{
		emailProvider:   emailProvider,
		verificationURL: verificationURL,
	}
}

func (s *NotificationServiceImpl) SendVerificationEmail(ctx context.Context, email, name, token string) error {
	link := s.verificationURL
	if u, err := url.Parse(s.verificationURL); err == nil {
		q := u.Query()
		q.Set("token", token)
		u.RawQuery = q.Encode()
		link = u.String()
	}

	body := fmt.Sprintf("Hello %s,\n\nConfirm your Ejare email address by opening the link below:\n\n%s\n\nThe link expires in 24 hours.\n", name, link)
	return s.send(ctx, email, "Confirm your email address", body)
}

func (s *NotificationServiceImpl) SendWelcomeEmail(ctx context.Context, email, name string) error {
	body := fmt.Sprintf("Hello %s,\n\nWelcome back to Ejare.\n", name)
	return s.send(ctx, email, "Welcome to Ejare", body)
}

func (s *NotificationServiceImpl) send(ctx context.Context, email, subject, message string) error {
	if s.emailProvider == nil {
		return fmt.Errorf("email provider not configured")
	}

	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("invalid email address: %s", email)
	}

	return s.emailProvider.SendEmail(ctx, email, subject, message)
}

// MockEmailProvider logs mail instead of sending it
type MockEmailProvider struct {
	logger *zap.Logger
}

func NewMockEmailProvider(logger *zap.Logger) EmailProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MockEmailProvider{logger: logger}
}

func (p *MockEmailProvider) SendEmail(ctx context.Context, email, subject, message string) error {
	p.logger.Info("email sent", zap.String("to", email), zap.String("subject", subject))
	return nil
}

type SMTPEmailProvider struct {
	host      string
	port      int
	username  string
	password  string
	fromEmail string
	fromName  string
}

func NewSMTPEmailProvider(host string, port int, username, password, fromEmail, fromName string) EmailProvider {
	return &SMTPEmailProvider{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

func (p *SMTPEmailProvider) SendEmail(ctx context.Context, email, subject, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	from := mail.Address{Name: p.fromName, Address: p.fromEmail}
	var msg strings.Builder
	msg.WriteString("From: " + from.String() + "\r\n")
	msg.WriteString("To: " + email + "\r\n")
	msg.WriteString("Subject: " + subject + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	msg.WriteString(message)

	var auth smtp.Auth
	if p.username != "" {
		auth = smtp.PlainAuth("", p.username, p.password, p.host)
	}

	addr := net.JoinHostPort(p.host, strconv.Itoa(p.port))
	if err := smtp.SendMail(addr, auth, p.fromEmail, []string{email}, []byte(msg.String())); err != nil {
		return fmt.Errorf("smtp send to %s: %w", email, err)
	}
	return nil
}
