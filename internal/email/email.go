// Package email provides email sending functionality
package email

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"html/template"
	"log"
	"net/smtp"
	"strings"
)

// Config holds email configuration
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	FromName string
	UseTLS   bool
}

// Service handles email sending
type Service struct {
	config    *Config
	templates map[string]*template.Template
}

// NewService creates a new email service
func NewService(config *Config) *Service {
	s := &Service{
		config:    config,
		templates: make(map[string]*template.Template),
	}
	s.loadTemplates()
	return s
}

// Email represents an email message
type Email struct {
	To       []string
	CC       []string
	BCC      []string
	Subject  string
	Body     string
	HTMLBody string
}

// loadTemplates loads all email templates
func (s *Service) loadTemplates() {

	// Client invitation, with any pending proofs bundled in
	s.templates["invitation"] = template.Must(template.New("invitation").Parse(`
<!DOCTYPE html>
<html>
<head>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Helvetica, Arial, sans-serif; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #0ea5e9; color: white; padding: 24px; border-radius: 8px 8px 0 0; }
        .content { background: #f9fafb; padding: 24px; border-radius: 0 0 8px 8px; }
        .proof-card { background: white; border-radius: 8px; padding: 14px; margin: 10px 0; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        .btn { display: inline-block; background: #0ea5e9; color: white; padding: 12px 20px; text-decoration: none; border-radius: 6px; margin-top: 16px; }
        .footer { margin-top: 24px; font-size: 12px; color: #6b7280; text-align: center; }
    </style>
</head>
<body>
<div class="container">
    <div class="header">
        <h2>You're Invited to ProofDesk</h2>
    </div>
    <div class="content">
        <p>Hello{{if .DisplayName}} {{.DisplayName}}{{end}},</p>
        <p><strong>{{.InvitedBy}}</strong> invited you to review print proofs on ProofDesk.</p>

        {{if .Proofs}}
        <p>The following proof{{if gt .ProofCount 1}}s are{{else}} is{{end}} already waiting for your approval:</p>
        {{range .Proofs}}
        <div class="proof-card">
            <strong>{{.Title}}</strong><br/>
            {{.FileName}} &middot; uploaded {{.UploadedAt}}
        </div>
        {{end}}
        {{if gt .RemainderCount 0}}<p>&hellip;and {{.RemainderCount}} more.</p>{{end}}
        {{end}}

        <a href="{{.InviteURL}}" class="btn">Activate Your Account</a>

        <p style="margin-top: 16px; font-size: 14px; color: #6b7280;">
            If you were not expecting this email, you can ignore it.
        </p>
    </div>
    <div class="footer">
        ProofDesk • Print Proof Approval
    </div>
</div>
</body>
</html>
`))

	// Direct client notification for a new proof
	s.templates["proof_ready"] = template.Must(template.New("proof_ready").Parse(`
<!DOCTYPE html>
<html>
<head>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Helvetica, Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: linear-gradient(135deg, #0ea5e9 0%, #0369a1 100%); color: white; padding: 30px; border-radius: 10px 10px 0 0; }
        .content { background: #f9fafb; padding: 30px; border-radius: 0 0 10px 10px; }
        .proof-card { background: white; border-radius: 8px; padding: 20px; margin: 20px 0; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        .btn { display: inline-block; background: #0ea5e9; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; margin-top: 15px; }
        .footer { text-align: center; color: #6b7280; font-size: 12px; margin-top: 20px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>🖨️ Proof Ready for Review</h1>
        </div>
        <div class="content">
            <p>Hi {{.ClientName}},</p>
            <p>A new proof is ready for your approval.</p>

            <div class="proof-card">
                <h2>{{.Title}}</h2>
                <p><strong>File:</strong> {{.FileName}}</p>
                {{if .RevisionNumber}}<p><strong>Revision:</strong> {{.RevisionNumber}}</p>{{end}}
            </div>

            <a href="{{.ReviewURL}}" class="btn">Review Proof</a>
        </div>
        <div class="footer">
            <p>This email was sent from ProofDesk</p>
        </div>
    </div>
</body>
</html>
`))

	// Operator fallback wrapper: same content, tagged with the intended
	// recipient so it can be forwarded by hand.
	s.templates["fallback_forward"] = template.Must(template.New("fallback_forward").Parse(`
<!DOCTYPE html>
<html>
<head>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Helvetica, Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .banner { background: #fef3c7; border: 1px solid #f59e0b; border-radius: 8px; padding: 16px; margin-bottom: 16px; }
        .proof-card { background: white; border: 1px solid #e5e7eb; border-radius: 8px; padding: 20px; margin: 20px 0; }
    </style>
</head>
<body>
    <div class="container">
        <div class="banner">
            <strong>⚠️ Delivery to {{.IntendedRecipient}} failed.</strong><br/>
            Please forward this proof notification manually.
        </div>
        <div class="proof-card">
            <h2>{{.Title}}</h2>
            <p><strong>File:</strong> {{.FileName}}</p>
            <p><strong>Client:</strong> {{.ClientName}} &lt;{{.IntendedRecipient}}&gt;</p>
        </div>
        <p><a href="{{.ReviewURL}}">Open proof</a></p>
    </div>
</body>
</html>
`))

	// Admin audit message
	s.templates["admin_audit"] = template.Must(template.New("admin_audit").Parse(`
<!DOCTYPE html>
<html>
<head>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Helvetica, Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #111827; color: white; padding: 20px; border-radius: 8px 8px 0 0; }
        .content { background: #f9fafb; padding: 20px; border-radius: 0 0 8px 8px; }
        .row { padding: 8px 0; border-bottom: 1px solid #e5e7eb; }
        .row:last-child { border-bottom: none; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h2>{{.Event}}</h2>
        </div>
        <div class="content">
            {{range .Lines}}
            <div class="row">{{.}}</div>
            {{end}}
        </div>
    </div>
</body>
</html>
`))
}

// Send sends an email
func (s *Service) Send(email *Email) error {
	if s.config.Host == "" {
		log.Println("Email not configured, skipping send")
		return nil
	}

	// Build message
	var msg bytes.Buffer

	// Headers
	msg.WriteString(fmt.Sprintf("From: %s <%s>\r\n", s.config.FromName, s.config.From))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(email.To, ", ")))
	if len(email.CC) > 0 {
		msg.WriteString(fmt.Sprintf("Cc: %s\r\n", strings.Join(email.CC, ", ")))
	}
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", email.Subject))
	msg.WriteString("MIME-Version: 1.0\r\n")

	if email.HTMLBody != "" {
		msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
		msg.WriteString("\r\n")
		msg.WriteString(email.HTMLBody)
	} else {
		msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
		msg.WriteString("\r\n")
		msg.WriteString(email.Body)
	}

	// Build recipient list
	recipients := append(email.To, email.CC...)
	recipients = append(recipients, email.BCC...)

	// Create auth
	auth := smtp.PlainAuth("", s.config.User, s.config.Password, s.config.Host)

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	if s.config.UseTLS {
		// TLS connection
		tlsConfig := &tls.Config{
			ServerName: s.config.Host,
		}

		conn, err := tls.Dial("tcp", addr, tlsConfig)
		if err != nil {
			return fmt.Errorf("TLS dial error: %w", err)
		}
		defer conn.Close()

		client, err := smtp.NewClient(conn, s.config.Host)
		if err != nil {
			return fmt.Errorf("SMTP client error: %w", err)
		}
		defer client.Close()

		if err = client.Auth(auth); err != nil {
			return fmt.Errorf("auth error: %w", err)
		}

		if err = client.Mail(s.config.From); err != nil {
			return fmt.Errorf("mail error: %w", err)
		}

		for _, rcpt := range recipients {
			if err = client.Rcpt(rcpt); err != nil {
				return fmt.Errorf("rcpt error: %w", err)
			}
		}

		w, err := client.Data()
		if err != nil {
			return fmt.Errorf("data error: %w", err)
		}

		_, err = w.Write(msg.Bytes())
		if err != nil {
			return fmt.Errorf("write error: %w", err)
		}

		err = w.Close()
		if err != nil {
			return fmt.Errorf("close error: %w", err)
		}

		return client.Quit()
	}

	// Non-TLS
	return smtp.SendMail(addr, auth, s.config.From, recipients, msg.Bytes())
}

// SendWithTemplate sends an email using a template
func (s *Service) SendWithTemplate(to []string, subject, templateName string, data interface{}) error {
	tmpl, ok := s.templates[templateName]
	if !ok {
		return fmt.Errorf("template not found: %s", templateName)
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("template execution error: %w", err)
	}

	return s.Send(&Email{
		To:       to,
		Subject:  subject,
		HTMLBody: body.String(),
	})
}

// ============================================
// Convenience Methods
// ============================================

// BundledProof is one pending proof enumerated inside an invitation email.
type BundledProof struct {
	Title      string
	FileName   string
	UploadedAt string
}

// InvitationData holds data for the invitation email
type InvitationData struct {
	DisplayName    string
	InvitedBy      string
	InviteURL      string
	Proofs         []BundledProof
	ProofCount     int
	RemainderCount int
}

// InvitationSubject builds the invitation subject line, reflecting how many
// proofs are already waiting.
func InvitationSubject(proofCount int) string {
	switch {
	case proofCount == 0:
		return "[ProofDesk] You're invited to review print proofs"
	case proofCount == 1:
		return "[ProofDesk] Invitation: 1 proof awaiting your approval"
	default:
		return fmt.Sprintf("[ProofDesk] Invitation: %d proofs awaiting your approval", proofCount)
	}
}

// SendInvitation sends an invitation email with any pending proofs bundled in
func (s *Service) SendInvitation(to string, data InvitationData) error {
	return s.SendWithTemplate(
		[]string{to},
		InvitationSubject(data.ProofCount),
		"invitation",
		data,
	)
}

// ProofReadyData holds data for the direct proof notification
type ProofReadyData struct {
	ClientName     string
	Title          string
	FileName       string
	RevisionNumber int
	ReviewURL      string
}

// SendProofReady sends the direct client notification for a new proof
func (s *Service) SendProofReady(to string, data ProofReadyData) error {
	return s.SendWithTemplate(
		[]string{to},
		fmt.Sprintf("[ProofDesk] Proof ready for review: %s", data.Title),
		"proof_ready",
		data,
	)
}

// FallbackForwardData holds data for the operator fallback message
type FallbackForwardData struct {
	IntendedRecipient string
	ClientName        string
	Title             string
	FileName          string
	ReviewURL         string
}

// SendFallbackForward reroutes a failed client notification to the operator
// mailbox, tagged with the intended recipient.
func (s *Service) SendFallbackForward(to string, data FallbackForwardData) error {
	return s.SendWithTemplate(
		[]string{to},
		fmt.Sprintf("[ProofDesk] ⚠️ Undeliverable to %s: %s", data.IntendedRecipient, data.Title),
		"fallback_forward",
		data,
	)
}

// AdminAuditData holds data for admin audit messages
type AdminAuditData struct {
	Event string
	Lines []string
}

// SendAdminAudit sends the unconditional admin audit message
func (s *Service) SendAdminAudit(to string, data AdminAuditData) error {
	return s.SendWithTemplate(
		[]string{to},
		fmt.Sprintf("[ProofDesk Audit] %s", data.Event),
		"admin_audit",
		data,
	)
}
