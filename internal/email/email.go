// Package email sends transactional mail over SMTP.
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

// Config holds SMTP configuration.
type Config struct {
	Host        string
	Port        int
	User        string
	Password    string
	From        string
	FromName    string
	UseTLS      bool
	FrontendURL string
}

// EmailService renders templates and delivers mail. When no SMTP host is
// configured, sends are logged and skipped so development works offline.
type EmailService struct {
	config    *Config
	templates map[string]*template.Template
}

func NewEmailService(config *Config) *EmailService {
	s := &EmailService{
		config:    config,
		templates: make(map[string]*template.Template),
	}
	s.loadTemplates()
	return s
}

// Email represents a message to deliver.
type Email struct {
	To       []string
	Subject  string
	Body     string
	HTMLBody string
}

// InvitationEmailData holds data for workspace invitation emails.
type InvitationEmailData struct {
	WorkspaceName string
	InviterName   string
	InviteURL     string
}

func (s *EmailService) loadTemplates() {
	s.templates["invitation"] = template.Must(template.New("invitation").Parse(`
<!DOCTYPE html>
<html>
<head>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Helvetica, Arial, sans-serif; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #6366f1; color: white; padding: 24px; border-radius: 8px 8px 0 0; }
        .content { background: #f9fafb; padding: 24px; border-radius: 0 0 8px 8px; }
        .btn { display: inline-block; background: #6366f1; color: white; padding: 12px 20px; text-decoration: none; border-radius: 6px; margin-top: 16px; }
        .footer { margin-top: 24px; font-size: 12px; color: #6b7280; text-align: center; }
    </style>
</head>
<body>
<div class="container">
    <div class="header">
        <h2>You're Invited to an Event Workspace</h2>
    </div>
    <div class="content">
        <p>Hello,</p>
        <p><strong>{{.InviterName}}</strong> invited you to join the <strong>{{.WorkspaceName}}</strong> team.</p>

        <a href="{{.InviteURL}}" class="btn">Accept Invitation</a>

        <p style="margin-top: 16px; font-size: 14px; color: #6b7280;">
            This invitation expires in 7 days. If you were not expecting this email, you can ignore it.
        </p>
    </div>
    <div class="footer">
        Eventra • Event Collaboration Platform
    </div>
</div>
</body>
</html>
`))

	s.templates["due_date_reminder"] = template.Must(template.New("due_date_reminder").Parse(`
<!DOCTYPE html>
<html>
<head>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Helvetica, Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #ef4444; color: white; padding: 24px; border-radius: 8px 8px 0 0; }
        .content { background: #f9fafb; padding: 24px; border-radius: 0 0 8px 8px; }
        .task-item { padding: 12px; border-bottom: 1px solid #e5e7eb; }
        .task-item:last-child { border-bottom: none; }
        .footer { margin-top: 24px; font-size: 12px; color: #6b7280; text-align: center; }
    </style>
</head>
<body>
<div class="container">
    <div class="header">
        <h2>Tasks Due Soon</h2>
    </div>
    <div class="content">
        <p>Hi {{.UserName}},</p>
        <p>These tasks in <strong>{{.WorkspaceName}}</strong> are coming up:</p>
        {{range .Tasks}}
        <div class="task-item">
            <strong>{{.Title}}</strong> — due {{.DueDate}}
        </div>
        {{end}}
    </div>
    <div class="footer">
        Eventra • Event Collaboration Platform
    </div>
</div>
</body>
</html>
`))
}

// SendInvitation sends a workspace invitation email.
func (s *EmailService) SendInvitation(to, inviterName, workspaceName, token string) error {
	if inviterName == "" {
		inviterName = "Someone"
	}

	inviteURL := fmt.Sprintf("%s/invitations/accept?token=%s", strings.TrimRight(s.config.FrontendURL, "/"), token)

	data := InvitationEmailData{
		WorkspaceName: workspaceName,
		InviterName:   inviterName,
		InviteURL:     inviteURL,
	}

	return s.SendWithTemplate(
		[]string{to},
		fmt.Sprintf("[Eventra] Invitation to join %s", workspaceName),
		"invitation",
		data,
	)
}

// DueDateReminderTask holds one task row for the reminder email.
type DueDateReminderTask struct {
	Title   string
	DueDate string
}

// DueDateReminderData holds data for the due-date reminder email.
type DueDateReminderData struct {
	UserName      string
	WorkspaceName string
	Tasks         []DueDateReminderTask
}

// SendDueDateReminder sends an upcoming-due-date email.
func (s *EmailService) SendDueDateReminder(to string, data DueDateReminderData) error {
	return s.SendWithTemplate(
		[]string{to},
		"[Eventra] Tasks due soon",
		"due_date_reminder",
		data,
	)
}

// Send delivers an email over SMTP.
func (s *EmailService) Send(email *Email) error {
	if s.config.Host == "" {
		log.Println("[Email] Not configured, skipping send")
		return nil
	}

	var msg bytes.Buffer
	msg.WriteString(fmt.Sprintf("From: %s <%s>\r\n", s.config.FromName, s.config.From))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(email.To, ", ")))
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

	auth := smtp.PlainAuth("", s.config.User, s.config.Password, s.config.Host)
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	if s.config.UseTLS {
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
		for _, rcpt := range email.To {
			if err = client.Rcpt(rcpt); err != nil {
				return fmt.Errorf("rcpt error: %w", err)
			}
		}

		w, err := client.Data()
		if err != nil {
			return fmt.Errorf("data error: %w", err)
		}
		if _, err = w.Write(msg.Bytes()); err != nil {
			return fmt.Errorf("write error: %w", err)
		}
		if err = w.Close(); err != nil {
			return fmt.Errorf("close error: %w", err)
		}

		return client.Quit()
	}

	return smtp.SendMail(addr, auth, s.config.From, email.To, msg.Bytes())
}

// SendWithTemplate renders a template and sends the result as HTML mail.
func (s *EmailService) SendWithTemplate(to []string, subject, templateName string, data interface{}) error {
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
