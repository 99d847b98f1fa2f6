package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/maskoff-app/maskoffgo/internal/config"
)

const apiURL = "https://api.mailersend.com/v1/email"

// Mailer sends transactional mail through the MailerSend API. When no API key
// is configured it degrades to a logged no-op so local development never needs
// mail credentials.
type Mailer struct {
	cfg    config.MailerConfig
	client *http.Client
}

// New creates a Mailer from configuration
func New(cfg config.MailerConfig) *Mailer {
	return &Mailer{
		cfg:    cfg,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

type recipient struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type personalization struct {
	Email string         `json:"email"`
	Data  map[string]any `json:"data"`
}

type sendRequest struct {
	From            recipient         `json:"from"`
	To              []recipient       `json:"to"`
	Subject         string            `json:"subject"`
	TemplateID      string            `json:"template_id,omitempty"`
	Personalization []personalization `json:"personalization,omitempty"`
}

// SendVerificationEmail sends the verify-your-address mail for a new account
func (m *Mailer) SendVerificationEmail(ctx context.Context, to, toName, username, verifyURL string) error {
	return m.send(ctx, to, toName, "Verify your email address", m.cfg.VerifyTemplateID, map[string]any{
		"username":      username,
		"verifyUrl":     verifyURL,
		"support_email": m.cfg.SupportEmail,
	})
}

// SendForgotPasswordEmail sends the password-reset mail
func (m *Mailer) SendForgotPasswordEmail(ctx context.Context, to, toName, username, resetURL string) error {
	return m.send(ctx, to, toName, "Reset your password", m.cfg.ForgotTemplateID, map[string]any{
		"username":      username,
		"resetUrl":      resetURL,
		"support_email": m.cfg.SupportEmail,
	})
}

func (m *Mailer) send(ctx context.Context, to, toName, subject, templateID string, data map[string]any) error {
	if m.cfg.APIKey == "" {
		log.Printf("Mailer disabled (no MAILER_SEND_API); skipping %q to %s", subject, to)
		return nil
	}

	body, err := json.Marshal(sendRequest{
		From:            recipient{Email: m.cfg.FromEmail, Name: m.cfg.FromName},
		To:              []recipient{{Email: to, Name: toName}},
		Subject:         subject,
		TemplateID:      templateID,
		Personalization: []personalization{{Email: to, Data: data}},
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.cfg.APIKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("mailersend request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("mailersend returned %d: %s", resp.StatusCode, msg)
	}
	return nil
}
