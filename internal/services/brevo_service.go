package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"membership-api/internal/config"
	"net/http"

	brevo "github.com/getbrevo/brevo-go/lib"
)

// BrevoService provides Brevo email service
type BrevoService struct {
	client      *brevo.APIClient
	fromEmail   string
	fromName    string
	serviceName string
}

// NewBrevoService creates a new Brevo service instance
func NewBrevoService(cfg *config.Config) *BrevoService {
	brevoCfg := brevo.NewConfiguration()
	brevoCfg.AddDefaultHeader("api-key", cfg.BrevoAPIKey)

	return &BrevoService{
		client:      brevo.NewAPIClient(brevoCfg),
		fromEmail:   cfg.BrevoFromEmail,
		fromName:    cfg.BrevoFromName,
		serviceName: cfg.ServiceName,
	}
}

type emailContent struct {
	ServiceName string
	Link        string
}

var accessEmailTemplate = template.Must(template.New("access").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>{{.ServiceName}}</title></head>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
	<h1 style="color: #333;">Welcome to {{.ServiceName}}</h1>
	<p style="color: #666; font-size: 16px;">Your membership is active. Join live classes with the link below.</p>
	<p><a href="{{.Link}}" style="background-color: #2f6f5e; color: white; padding: 12px 20px; border-radius: 6px; text-decoration: none;">Join class</a></p>
	<p style="color: #999; font-size: 12px;">Keep this link private.</p>
</body>
</html>`))

var loginEmailTemplate = template.Must(template.New("login").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>{{.ServiceName}}</title></head>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
	<h1 style="color: #333;">Sign in to {{.ServiceName}}</h1>
	<p><a href="{{.Link}}" style="background-color: #2f6f5e; color: white; padding: 12px 20px; border-radius: 6px; text-decoration: none;">Sign in</a></p>
	<p style="color: #999; font-size: 12px;">If you did not ask for this email, ignore it.</p>
</body>
</html>`))

// SendAccessEmail sends the member access link
func (s *BrevoService) SendAccessEmail(ctx context.Context, to, accessLink string) error {
	html, err := render(accessEmailTemplate, emailContent{ServiceName: s.serviceName, Link: accessLink})
	if err != nil {
		return err
	}
	text := fmt.Sprintf("Welcome to %s.\n\nYour membership is active. Join live classes here:\n%s\n", s.serviceName, accessLink)
	return s.sendEmail(ctx, to, fmt.Sprintf("Your %s class link", s.serviceName), html, text)
}

// SendLoginLinkEmail sends a one-time sign-in link
func (s *BrevoService) SendLoginLinkEmail(ctx context.Context, to, loginLink string) error {
	html, err := render(loginEmailTemplate, emailContent{ServiceName: s.serviceName, Link: loginLink})
	if err != nil {
		return err
	}
	text := fmt.Sprintf("Sign in to %s:\n%s\n\nIf you did not ask for this email, ignore it.\n", s.serviceName, loginLink)
	return s.sendEmail(ctx, to, fmt.Sprintf("Sign in to %s", s.serviceName), html, text)
}

func render(tmpl *template.Template, data emailContent) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render email: %w", err)
	}
	return buf.String(), nil
}

// sendEmail sends email via Brevo API
func (s *BrevoService) sendEmail(ctx context.Context, to, subject, html, text string) error {
	if s.fromEmail == "" {
		return &config.ConfigError{Key: "BREVO_FROM_EMAIL"}
	}

	_, resp, err := s.client.TransactionalEmailsApi.SendTransacEmail(ctx, brevo.SendSmtpEmail{
		Sender: &brevo.SendSmtpEmailSender{
			Name:  s.fromName,
			Email: s.fromEmail,
		},
		To: []brevo.SendSmtpEmailTo{
			{Email: to},
		},
		Subject:     subject,
		HtmlContent: html,
		TextContent: text,
	})
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if resp != nil && resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("brevo API error: status %d", resp.StatusCode)
	}
	return nil
}
