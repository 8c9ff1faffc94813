package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"git.home.luguber.info/inful/presencewatch/internal/config"
	ferrors "git.home.luguber.info/inful/presencewatch/internal/foundation/errors"
	"git.home.luguber.info/inful/presencewatch/internal/logfields"
	"git.home.luguber.info/inful/presencewatch/internal/metrics"
	"git.home.luguber.info/inful/presencewatch/internal/retry"
	"git.home.luguber.info/inful/presencewatch/internal/version"
)

// Kind names an upstream resource.
type Kind string

const (
	KindAccounts Kind = "accounts"
	KindPresence Kind = "presence"
)

const maxBodyBytes = 16 << 20

// Request is one logical fetch of a resource for a batch of identities.
type Request struct {
	Kind       Kind
	Identities []string
}

// Client talks to the account and presence endpoints.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	userAgent  string
	policy     retry.Policy
	sleeper    retry.Sleeper
	pacingGap  time.Duration
	recorder   metrics.Recorder
	logger     *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client. Its Timeout is the per-call timeout.
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.httpClient = h } }

// WithSleeper replaces the clock used for backoff and pacing waits.
func WithSleeper(s retry.Sleeper) Option { return func(c *Client) { c.sleeper = s } }

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option { return func(c *Client) { c.recorder = metrics.OrNoop(r) } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(c *Client) { c.logger = l } }

// New creates a client for the configured upstream.
func New(api config.APIConfig, policy retry.Policy, opts ...Option) *Client {
	ua := api.UserAgent
	if ua == "" {
		ua = "presencewatch/" + version.Version
	}
	c := &Client{
		httpClient: &http.Client{Timeout: api.TimeoutDuration()},
		baseURL:    strings.TrimSuffix(api.BaseURL, "/"),
		apiKey:     api.Key,
		userAgent:  ua,
		policy:     policy,
		sleeper:    retry.ClockSleeper,
		pacingGap:  api.PacingGapDuration(),
		recorder:   metrics.NoopRecorder{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the URL for a request.
func (c *Client) Endpoint(req Request) string {
	escaped := make([]string, len(req.Identities))
	for i, id := range req.Identities {
		escaped[i] = url.PathEscape(id)
	}
	ids := strings.Join(escaped, ",")
	if req.Kind == KindAccounts {
		return c.baseURL + "/account/" + ids
	}
	return c.baseURL + "/" + ids + "/presence"
}

// Fetch performs one logical GET with retries and returns the body of the first 2xx
// response. When every attempt fails it returns a fatal fetch error carrying the endpoint
// and the last status or transport reason.
func (c *Client) Fetch(ctx context.Context, req Request) ([]byte, error) {
	endpoint := c.Endpoint(req)
	resource := string(req.Kind)
	start := time.Now()
	defer func() { c.recorder.ObserveFetchDuration(resource, time.Since(start)) }()

	var body []byte
	runner := retry.Runner{
		Policy:  c.policy,
		Sleeper: c.sleeper,
		OnFailure: func(a retry.Attempt) {
			c.logger.Warn("Fetch attempt failed",
				logfields.Resource(resource),
				logfields.Attempt(a.Number),
				slog.Int("max_attempts", c.policy.MaxAttempts),
				logfields.Status(outcome(a.Err)),
				logfields.Delay(a.Delay),
				logfields.Error(a.Err))
		},
	}
	err := runner.Do(ctx, func(ctx context.Context, _ int) error {
		b, err := c.get(ctx, endpoint)
		c.recorder.IncFetchAttempt(resource, outcome(err))
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	if err == nil {
		c.logger.Debug("Fetched resource", logfields.Resource(resource), logfields.Count(len(req.Identities)))
		return body, nil
	}

	var exhausted *retry.ExhaustedError
	if !errors.As(err, &exhausted) {
		// Cancelled or deadline exceeded while waiting.
		return nil, fmt.Errorf("fetch %s: %w", resource, err)
	}
	c.recorder.IncFetchExhausted(resource)
	b := ferrors.FetchError(fmt.Sprintf("%s fetch failed after %d attempts", resource, exhausted.Attempts)).
		WithCause(exhausted).
		WithContext("stage", "fetch").
		WithContext("endpoint", resource).
		WithContext("attempts", exhausted.Attempts)
	var se *StatusError
	if errors.As(exhausted.Last, &se) {
		b = b.WithContext("status", se.Code)
	}
	return nil, b.Build()
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, ferrors.InternalError("failed to create request").
			WithCause(err).
			WithContext("url", endpoint).
			Build()
	}
	req.Header.Set("x-authorization", c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, ferrors.NetworkError("request failed").
			WithCause(err).
			WithContext("url", endpoint).
			Build()
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Read limited body for diagnostics
		limited, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{
			Code:   resp.StatusCode,
			Status: resp.Status,
			Body:   strings.ReplaceAll(string(limited), "\n", " "),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, ferrors.NetworkError("failed to read response body").
			WithCause(err).
			WithContext("url", endpoint).
			Build()
	}
	return body, nil
}

// Result holds both sequences of one successful FetchAll.
type Result struct {
	Accounts []json.RawMessage
	Presence []json.RawMessage
}

// FetchAll fetches accounts, waits the pacing gap, then fetches presence. A failure of
// either call aborts with no partial result.
func (c *Client) FetchAll(ctx context.Context, identities []string) (*Result, error) {
	accounts, err := c.FetchAccounts(ctx, identities)
	if err != nil {
		return nil, err
	}
	if err := c.sleeper.Sleep(ctx, c.pacingGap); err != nil {
		return nil, fmt.Errorf("pacing wait: %w", err)
	}
	presence, err := c.FetchPresence(ctx, identities)
	if err != nil {
		return nil, err
	}
	return &Result{Accounts: accounts, Presence: presence}, nil
}

// FetchAccounts returns the items of the account response's people array. A 2xx body
// without that array fails like an exhausted fetch.
func (c *Client) FetchAccounts(ctx context.Context, identities []string) ([]json.RawMessage, error) {
	body, err := c.Fetch(ctx, Request{Kind: KindAccounts, Identities: identities})
	if err != nil {
		return nil, err
	}
	return NormalizeAccounts(body)
}

// FetchPresence returns the presence items in response order.
func (c *Client) FetchPresence(ctx context.Context, identities []string) ([]json.RawMessage, error) {
	body, err := c.Fetch(ctx, Request{Kind: KindPresence, Identities: identities})
	if err != nil {
		return nil, err
	}
	return NormalizePresence(body, c.logger), nil
}
