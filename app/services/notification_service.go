// Package services provides external service integrations and technical concerns like notifications and tokens
package services

import (
	"context"
	"fmt"
	"html"
	"log"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/clearwater-medical/outreach-portal/models"
	"github.com/clearwater-medical/outreach-portal/utils"
)

// EmailMessage is the provider-independent send contract
type EmailMessage struct {
	From     string
	To       []string
	ReplyTo  string
	Subject  string
	HTMLBody string
}

// EmailProvider interface for email sending
type EmailProvider interface {
	SendEmail(ctx context.Context, msg *EmailMessage) error
}

// BrokerHandoff carries everything the handoff email needs. RecentAttempts
// must already be ordered newest-first.
type BrokerHandoff struct {
	BrokerEmail    string
	ProjectName    string
	Patient        *models.Patient
	Notes          *string
	RecentAttempts []*models.OutreachLog
}

// NotificationService handles outbound email for the portal
type NotificationService interface {
	SendBrokerHandoff(ctx context.Context, handoff *BrokerHandoff) error
	SendEmail(ctx context.Context, msg *EmailMessage) error
}

// NotificationServiceImpl implements NotificationService
type NotificationServiceImpl struct {
	provider  EmailProvider
	fromEmail string
	timeout   time.Duration
}

// NewNotificationService creates a new notification service
func NewNotificationService(provider EmailProvider, fromEmail string) NotificationService {
	return &NotificationServiceImpl{
		provider:  provider,
		fromEmail: fromEmail,
		timeout:   utils.NotificationTimeout,
	}
}

// SendEmail sends one message through the configured provider with a bounded timeout
func (s *NotificationServiceImpl) SendEmail(ctx context.Context, msg *EmailMessage) error {
	if s.provider == nil {
		return fmt.Errorf("email provider not configured")
	}
	if len(msg.To) == 0 {
		return fmt.Errorf("no recipients")
	}
	for _, to := range msg.To {
		if !strings.Contains(to, "@") {
			return fmt.Errorf("invalid email address: %s", to)
		}
	}
	if msg.From == "" {
		msg.From = s.fromEmail
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return s.provider.SendEmail(ctx, msg)
}

// SendBrokerHandoff renders and sends the templated handoff announcement
func (s *NotificationServiceImpl) SendBrokerHandoff(ctx context.Context, handoff *BrokerHandoff) error {
	subject := fmt.Sprintf("Patient forwarded: %s (%s)", handoff.Patient.FullName(), handoff.ProjectName)
	return s.SendEmail(ctx, &EmailMessage{
		To:       []string{handoff.BrokerEmail},
		Subject:  subject,
		HTMLBody: renderBrokerHandoff(handoff),
	})
}

// renderBrokerHandoff builds the handoff email body: patient identity, phone,
// insurance fields, and the recent call attempts newest-first.
func renderBrokerHandoff(h *BrokerHandoff) string {
	var b strings.Builder

	esc := html.EscapeString
	optional := func(v *string) string {
		if v == nil || *v == "" {
			return "&mdash;"
		}
		return esc(*v)
	}

	b.WriteString(fmt.Sprintf("<h2>Patient handoff: %s</h2>", esc(h.Patient.FullName())))
	b.WriteString(fmt.Sprintf("<p>Campaign: <strong>%s</strong></p>", esc(h.ProjectName)))

	b.WriteString("<table border=\"0\" cellpadding=\"4\">")
	b.WriteString(fmt.Sprintf("<tr><td>Primary phone</td><td>%s</td></tr>", esc(h.Patient.PrimaryPhone)))
	b.WriteString(fmt.Sprintf("<tr><td>Secondary phone</td><td>%s</td></tr>", optional(h.Patient.SecondaryPhone)))
	b.WriteString(fmt.Sprintf("<tr><td>Current insurance</td><td>%s</td></tr>", optional(h.Patient.CurrentInsurance)))
	b.WriteString(fmt.Sprintf("<tr><td>Target insurance</td><td>%s</td></tr>", optional(h.Patient.TargetInsurance)))
	b.WriteString(fmt.Sprintf("<tr><td>Member ID</td><td>%s</td></tr>", optional(h.Patient.MemberID)))
	b.WriteString("</table>")

	if h.Notes != nil && *h.Notes != "" {
		b.WriteString(fmt.Sprintf("<p>Handoff notes: %s</p>", esc(*h.Notes)))
	}

	if len(h.RecentAttempts) > 0 {
		b.WriteString("<h3>Recent call attempts</h3><ul>")
		for _, a := range h.RecentAttempts {
			note := ""
			if a.Notes != nil && *a.Notes != "" {
				note = " &mdash; " + esc(*a.Notes)
			}
			b.WriteString(fmt.Sprintf("<li>%s: %s%s</li>",
				a.CallTimestamp.Format("Jan 2, 2006 3:04 PM MST"), esc(a.Disposition.String()), note))
		}
		b.WriteString("</ul>")
	}

	return b.String()
}

// SMTPEmailProvider sends mail through a plain SMTP relay
type SMTPEmailProvider struct {
	host     string
	port     int
	username string
	password string
}

func NewSMTPEmailProvider(host string, port int, username, password string) EmailProvider {
	return &SMTPEmailProvider{
		host:     host,
		port:     port,
		username: username,
		password: password,
	}
}

// SendEmail delivers the message over SMTP. net/smtp has no context support,
// so the send runs in a goroutine and the context deadline abandons it.
func (p *SMTPEmailProvider) SendEmail(ctx context.Context, msg *EmailMessage) error {
	body := p.buildMIME(msg)
	addr := net.JoinHostPort(p.host, fmt.Sprintf("%d", p.port))

	var auth smtp.Auth
	if p.username != "" {
		auth = smtp.PlainAuth("", p.username, p.password, p.host)
	}

	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(addr, auth, msg.From, msg.To, body)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *SMTPEmailProvider) buildMIME(msg *EmailMessage) []byte {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("From: %s\r\n", msg.From))
	b.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(msg.To, ", ")))
	if msg.ReplyTo != "" {
		b.WriteString(fmt.Sprintf("Reply-To: %s\r\n", msg.ReplyTo))
	}
	b.WriteString(fmt.Sprintf("Subject: %s\r\n", msg.Subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.HTMLBody)
	return []byte(b.String())
}

// MockEmailProvider logs sends instead of delivering them
type MockEmailProvider struct {
	Sent []*EmailMessage
	Fail bool
}

func NewMockEmailProvider() *MockEmailProvider {
	return &MockEmailProvider{}
}

func (p *MockEmailProvider) SendEmail(ctx context.Context, msg *EmailMessage) error {
	if p.Fail {
		return fmt.Errorf("mock email provider failure")
	}
	p.Sent = append(p.Sent, msg)
	log.Printf("Email sent to %s [%s]", strings.Join(msg.To, ", "), msg.Subject)
	return nil
}
