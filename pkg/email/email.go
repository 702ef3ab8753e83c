package email

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"mime"
	"net/smtp"
)

// ErrNotConfigured is returned when no SMTP host is set
var ErrNotConfigured = errors.New("email: SMTP is not configured")

// EmailConfig holds SMTP configuration
type EmailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromName     string
	FromEmail    string
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailService handles email sending
type EmailService struct {
	config EmailConfig
	send   sendFunc
}

// NewEmailService creates a new email service
func NewEmailService(config EmailConfig) *EmailService {
	return &EmailService{config: config, send: smtp.SendMail}
}

// Enabled reports whether receipts can be mailed from the desk itself
func (s *EmailService) Enabled() bool {
	return s != nil && s.config.SMTPHost != "" && s.config.FromEmail != ""
}

// ReceiptEmail is one receipt to deliver
type ReceiptEmail struct {
	To           string
	CustomerName string
	StoreName    string
	BillNumber   string
	// ReceiptHTML is the rendered receipt document, embedded as-is.
	ReceiptHTML template.HTML
}

// SendReceiptEmail mails a rendered receipt to the customer
func (s *EmailService) SendReceiptEmail(r ReceiptEmail) error {
	if !s.Enabled() {
		return ErrNotConfigured
	}
	if r.To == "" {
		return errors.New("email: recipient is required")
	}

	body, err := s.renderReceiptEmail(r)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	subject := fmt.Sprintf("Your bill %s from %s", r.BillNumber, r.StoreName)
	return s.sendEmail(r.To, s.buildHTMLEmail(r.To, subject, body))
}

// sendEmail sends an email using SMTP
func (s *EmailService) sendEmail(to string, message []byte) error {
	addr := fmt.Sprintf("%s:%d", s.config.SMTPHost, s.config.SMTPPort)

	var auth smtp.Auth
	if s.config.SMTPUsername != "" {
		auth = smtp.PlainAuth("", s.config.SMTPUsername, s.config.SMTPPassword, s.config.SMTPHost)
	}

	if err := s.send(addr, auth, s.config.FromEmail, []string{to}, message); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// buildHTMLEmail builds an HTML email message
func (s *EmailService) buildHTMLEmail(to, subject, htmlBody string) []byte {
	headers := fmt.Sprintf(
		"From: %s <%s>\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=\"UTF-8\"\r\n"+
			"\r\n",
		mime.QEncoding.Encode("utf-8", s.config.FromName),
		s.config.FromEmail,
		to,
		mime.QEncoding.Encode("utf-8", subject),
	)

	return []byte(headers + htmlBody)
}

var receiptEmailTmpl = template.Must(template.New("receipt_email").Parse(receiptEmailTemplate))

func (s *EmailService) renderReceiptEmail(r ReceiptEmail) (string, error) {
	var buf bytes.Buffer
	if err := receiptEmailTmpl.Execute(&buf, r); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const receiptEmailTemplate = `<!DOCTYPE html>
<html lang="en">
<head><meta charset="UTF-8"><title>{{.StoreName}} bill {{.BillNumber}}</title></head>
<body style="margin: 0; padding: 24px; font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; background-color: #f4f7fa;">
  <div style="max-width: 420px; margin: 0 auto; background-color: #ffffff; border-radius: 8px; padding: 24px;">
    <p style="color: #4a5568; font-size: 15px; margin: 0 0 16px 0;">Hello{{if .CustomerName}} {{.CustomerName}}{{end}},</p>
    <p style="color: #4a5568; font-size: 15px; margin: 0 0 24px 0;">Thank you for shopping at {{.StoreName}}. Your bill <strong>{{.BillNumber}}</strong> is below.</p>
    {{.ReceiptHTML}}
  </div>
</body>
</html>
`
