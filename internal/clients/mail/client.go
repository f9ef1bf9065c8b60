package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"storefront/internal/logger"
)

// Client sends transactional mail through an HTTP mail API.
type Client interface {
	Send(ctx context.Context, msg Message) error
	SendRegistrationEmail(ctx context.Context, to, username string) error
	SendPasswordResetEmail(ctx context.Context, to, username, resetURL string) error
}

type Config struct {
	APIKey     string
	BaseURL    string
	FromEmail  string
	FromName   string
	Timeout    time.Duration
	MaxRetries int
}

type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

type client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing mail API key")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://api.sendgrid.com"
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 4
	}
	return &client{
		log:        log.With("client", "MailClient"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type wireAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type wireContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type wirePersonalization struct {
	To []wireAddress `json:"to"`
}

type wireSendRequest struct {
	Personalizations []wirePersonalization `json:"personalizations"`
	From             wireAddress           `json:"from"`
	Subject          string                `json:"subject"`
	Content          []wireContent         `json:"content"`
}

func (c *client) Send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return fmt.Errorf("mail: To required")
	}
	if strings.TrimSpace(msg.Subject) == "" {
		return fmt.Errorf("mail: Subject required")
	}

	contents := []wireContent{}
	if t := strings.TrimSpace(msg.Text); t != "" {
		contents = append(contents, wireContent{Type: "text/plain", Value: t})
	}
	if h := strings.TrimSpace(msg.HTML); h != "" {
		contents = append(contents, wireContent{Type: "text/html", Value: h})
	}
	if len(contents) == 0 {
		return fmt.Errorf("mail: Text or HTML content required")
	}

	wire := wireSendRequest{
		Personalizations: []wirePersonalization{{To: []wireAddress{{Email: msg.To}}}},
		From:             wireAddress{Email: c.cfg.FromEmail, Name: c.cfg.FromName},
		Subject:          msg.Subject,
		Content:          contents,
	}
	body, err := json.Marshal(wire)
	if err != nil {
		return err
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff(attempt)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v3/mail/send", bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			c.log.Warn("Mail send attempt failed", "attempt", attempt, "error", err)
			continue
		}
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()

		if resp.StatusCode < 300 {
			return nil
		}
		lastErr = fmt.Errorf("mail: status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
		if !retryableStatus(resp.StatusCode) {
			return lastErr
		}
		if ra := retryAfter(resp); ra > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(ra):
			}
		}
		c.log.Warn("Mail send attempt rejected, retrying", "attempt", attempt, "status", resp.StatusCode)
	}
	return fmt.Errorf("mail: send failed after %d attempts: %w", c.cfg.MaxRetries+1, lastErr)
}

func (c *client) SendRegistrationEmail(ctx context.Context, to, username string) error {
	return c.Send(ctx, Message{
		To:      to,
		Subject: "Welcome!",
		Text: fmt.Sprintf("Hello %s,\n\nYour account has been successfully created.\n\nBest regards,\nThe Team", username),
		HTML: fmt.Sprintf("<html><body><h1>Welcome %s!</h1><p>Your account has been successfully created.</p><p>Best regards,<br>The Team</p></body></html>", username),
	})
}

func (c *client) SendPasswordResetEmail(ctx context.Context, to, username, resetURL string) error {
	return c.Send(ctx, Message{
		To:      to,
		Subject: "Password Reset Request",
		Text: fmt.Sprintf("Hello %s,\n\nYou requested a password reset. Open the link below to choose a new password:\n\n%s\n\nIf you didn't request this, please ignore this email.", username, resetURL),
		HTML: fmt.Sprintf(`<html><body><h1>Password Reset Request</h1><p>Hello %s,</p><p><a href="%s">Reset Password</a></p><p>If you didn't request this, please ignore this email.</p></body></html>`, username, resetURL),
	})
}

// Disabled returns a client that logs instead of sending; used when no
// API key is configured (local development).
func Disabled(log *logger.Logger) Client {
	return &disabledClient{log: log.With("client", "MailClient", "mode", "disabled")}
}

type disabledClient struct {
	log *logger.Logger
}

func (d *disabledClient) Send(_ context.Context, msg Message) error {
	d.log.Info("Mail sending disabled, dropping message", "to", msg.To, "subject", msg.Subject)
	return nil
}

func (d *disabledClient) SendRegistrationEmail(ctx context.Context, to, _ string) error {
	return d.Send(ctx, Message{To: to, Subject: "Welcome!"})
}

func (d *disabledClient) SendPasswordResetEmail(ctx context.Context, to, _, _ string) error {
	return d.Send(ctx, Message{To: to, Subject: "Password Reset Request"})
}

func retryableStatus(code int) bool {
	if code == http.StatusRequestTimeout || code == http.StatusTooManyRequests {
		return true
	}
	return code >= 500 && code <= 599
}

func retryAfter(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}
	ra := strings.TrimSpace(resp.Header.Get("Retry-After"))
	if ra == "" {
		return 0
	}
	secs, err := strconv.Atoi(ra)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func backoff(attempt int) time.Duration {
	d := time.Duration(1<<uint(attempt-1)) * 500 * time.Millisecond
	if d > 8*time.Second {
		d = 8 * time.Second
	}
	return d
}
