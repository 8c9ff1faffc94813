package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"git.home.luguber.info/inful/presencewatch/internal/config"
	ferrors "git.home.luguber.info/inful/presencewatch/internal/foundation/errors"
)

// WebhookSender posts Discord-compatible embeds.
type WebhookSender struct {
	url      string
	username string
	client   *http.Client
	limiter  *rate.Limiter
}

// NewWebhookSender creates a webhook sender paced by the configured rate.
func NewWebhookSender(cfg config.WebhookConfig, client *http.Client) *WebhookSender {
	if client == nil {
		client = &http.Client{Timeout: cfg.TimeoutDuration()}
	}
	rps := cfg.RatePerSecond
	if rps <= 0 {
		rps = 1
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &WebhookSender{
		url:      cfg.URL,
		username: cfg.Username,
		client:   client,
		limiter:  rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (w *WebhookSender) Name() string { return "webhook" }

type webhookAuthor struct {
	Name    string `json:"name"`
	IconURL string `json:"icon_url,omitempty"`
}

type webhookEmbed struct {
	Author      webhookAuthor `json:"author"`
	Description string        `json:"description"`
	Color       int           `json:"color"`
	Timestamp   string        `json:"timestamp"`
}

type webhookPayload struct {
	Username string         `json:"username,omitempty"`
	Embeds   []webhookEmbed `json:"embeds"`
}

// Send waits for the limiter and posts one embed.
func (w *WebhookSender) Send(ctx context.Context, alert Alert) error {
	if err := w.limiter.Wait(ctx); err != nil {
		return err
	}

	body, err := json.Marshal(webhookPayload{
		Username: w.username,
		Embeds: []webhookEmbed{{
			Author:      webhookAuthor{Name: alert.DisplayName, IconURL: alert.AvatarURL},
			Description: alert.Description(),
			Color:       alert.Color,
			Timestamp:   alert.Timestamp.Format(time.RFC3339),
		}},
	})
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return ferrors.NetworkError("webhook request failed").WithCause(err).Build()
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		limited, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return ferrors.NotifyError(fmt.Sprintf("webhook returned %s", resp.Status)).
			WithContext("code", resp.StatusCode).
			WithContext("response", strings.ReplaceAll(string(limited), "\n", " ")).
			Build()
	}
	return nil
}
