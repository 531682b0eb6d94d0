package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"strings"

	"github.com/redmonkez12/go-contacts-api/internal/config"
	"github.com/redmonkez12/go-contacts-api/internal/logging"
)

//go:embed templates/*.html
var templatesFS embed.FS

var templates = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

// SendFunc matches smtp.SendMail.
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Service renders and delivers transactional email over SMTP.
// With no SMTP host configured messages are logged instead of sent.
type Service struct {
	smtpHost     string
	smtpPort     string
	smtpUser     string
	smtpPassword string
	from         mail.Address
	linkTTL      string
	send         SendFunc
}

func NewService(cfg config.EmailConfig, linkTTL string) *Service {
	from := cfg.FromEmail
	if from == "" {
		from = cfg.SMTPUser
	}

	return &Service{
		smtpHost:     cfg.SMTPHost,
		smtpPort:     cfg.SMTPPort,
		smtpUser:     cfg.SMTPUser,
		smtpPassword: cfg.SMTPPassword,
		from:         mail.Address{Name: cfg.FromName, Address: from},
		linkTTL:      linkTTL,
		send:         smtp.SendMail,
	}
}

// WithSendFunc replaces the SMTP transport, e.g. with a recorder in tests.
func (s *Service) WithSendFunc(fn SendFunc) *Service {
	s.send = fn
	return s
}

// ConfirmationLink is the URL a user opens to confirm their email address.
func ConfirmationLink(baseURL, token string) string {
	return strings.TrimRight(baseURL, "/") + "/auth/confirmed_email/" + token
}

// SendConfirmationEmail sends the email confirmation link to a new or unconfirmed user
func (s *Service) SendConfirmationEmail(ctx context.Context, toEmail, username, link string) error {
	logger := logging.GetLoggerFromContext(ctx)

	body, err := s.render("confirm_email.html", map[string]string{
		"AppName":   s.from.Name,
		"Username":  username,
		"Link":      link,
		"ExpiresIn": s.linkTTL,
	})
	if err != nil {
		return fmt.Errorf("render template: %w", err)
	}

	if s.smtpHost == "" {
		logger.Info("smtp not configured, confirmation email not sent", "email", toEmail, "link", link)
		return nil
	}

	if err := s.sendEmail(toEmail, "Confirm your email", body); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	logger.Info("confirmation email sent", "email", toEmail)
	return nil
}

func (s *Service) render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (s *Service) sendEmail(to, subject, body string) error {
	var auth smtp.Auth
	if s.smtpUser != "" {
		auth = smtp.PlainAuth("", s.smtpUser, s.smtpPassword, s.smtpHost)
	}

	// Build message
	msg := []byte(fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n"+
			"%s\r\n",
		s.from.String(), to, mime.QEncoding.Encode("utf-8", subject), body,
	))

	addr := net.JoinHostPort(s.smtpHost, s.smtpPort)
	return s.send(addr, auth, s.from.Address, []string{to}, msg)
}
