// Package notification delivers password reset links.
package notification

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"net/url"
	"strings"
)

// EmailConfig holds SMTP settings.
type EmailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	FromName string
}

// sendFunc matches smtp.SendMail.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailService sends reset links over SMTP.
type EmailService struct {
	config     EmailConfig
	appBaseURL string
	send       sendFunc
}

// NewEmailService creates an SMTP mailer. Reset links point at appBaseURL.
func NewEmailService(config EmailConfig, appBaseURL string) *EmailService {
	return &EmailService{config: config, appBaseURL: appBaseURL, send: smtp.SendMail}
}

// SendPasswordReset mails the reset link for token to the given address.
func (s *EmailService) SendPasswordReset(_ context.Context, to, token string) error {
	resetURL := ResetURL(s.appBaseURL, token)
	subject := "Reset Your Password"
	body := fmt.Sprintf(`<html><body>
		<h2>Reset Your Password</h2>
		<p>A password reset has been requested for your account.</p>
		<p><a href="%s">Click here to reset your password</a></p>
		<p>Or copy this link to your browser: %s</p>
		<p>This link will expire in 1 hour.</p>
		<p>If you did not request this password reset, please ignore this email.</p>
	</body></html>`, resetURL, resetURL)
	return s.sendEmail(to, subject, body)
}

func (s *EmailService) sendEmail(to, subject, body string) error {
	from := s.config.From
	if s.config.FromName != "" {
		from = fmt.Sprintf("%s <%s>", s.config.FromName, s.config.From)
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		from, to, subject, body)

	var auth smtp.Auth
	if s.config.User != "" {
		auth = smtp.PlainAuth("", s.config.User, s.config.Password, s.config.Host)
	}
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	if err := s.send(addr, auth, s.config.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send reset email: %w", err)
	}
	return nil
}

// LogDispatcher writes reset links to the log instead of mailing them.
// It is used when no SMTP server is configured.
type LogDispatcher struct {
	logger     *slog.Logger
	appBaseURL string
}

// NewLogDispatcher creates a dispatcher that only logs reset links.
func NewLogDispatcher(logger *slog.Logger, appBaseURL string) *LogDispatcher {
	return &LogDispatcher{logger: logger, appBaseURL: appBaseURL}
}

// SendPasswordReset logs the reset link for email.
func (d *LogDispatcher) SendPasswordReset(_ context.Context, email, token string) error {
	d.logger.Info("password reset requested",
		"email", email,
		"reset_url", ResetURL(d.appBaseURL, token),
		"expires_in", "1h",
	)
	return nil
}

// ResetURL builds the storefront link that carries a reset token.
func ResetURL(baseURL, token string) string {
	return strings.TrimRight(baseURL, "/") + "/reset-password?token=" + url.QueryEscape(token)
}
