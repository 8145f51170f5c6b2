package etl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/roth-mh/nyt-comp/internal/domain"
)

// Extractor fetches raw score events from the games provider.
type Extractor interface {
	Extract(ctx context.Context) ([]domain.ScoreEvent, error)
}

// StaticExtractor returns a fixed set of events. Useful for tests and manual
// backfills.
type StaticExtractor []domain.ScoreEvent

// Extract returns the configured events.
func (s StaticExtractor) Extract(context.Context) ([]domain.ScoreEvent, error) {
	return []domain.ScoreEvent(s), nil
}

// ProviderConfig tunes the provider HTTP client.
type ProviderConfig struct {
	BaseURL     string
	Cookie      string
	MaxAttempts int
	BaseDelay   time.Duration
	Timeout     time.Duration
}

// ProviderExtractor pulls current score state from the provider, authenticated
// by an opaque session cookie. An empty cookie is an expected deployment
// state: Extract then warns and returns no events rather than failing.
type ProviderExtractor struct {
	cfg    ProviderConfig
	client *http.Client
	logger *log.Logger
	sleep  func(context.Context, time.Duration) error
}

// ProviderOption configures optional ProviderExtractor behaviour.
type ProviderOption func(*ProviderExtractor)

// WithProviderLogger overrides the extractor's logger.
func WithProviderLogger(logger *log.Logger) ProviderOption {
	return func(e *ProviderExtractor) {
		e.logger = logger
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) ProviderOption {
	return func(e *ProviderExtractor) {
		e.client = client
	}
}

// NewProviderExtractor constructs a ProviderExtractor.
func NewProviderExtractor(cfg ProviderConfig, opts ...ProviderOption) *ProviderExtractor {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	e := &ProviderExtractor{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: log.New(log.Writer(), "[etl] ", log.LstdFlags),
		sleep:  sleepContext,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract GETs the provider's state endpoint and parses the response into
// score events. Transient failures (network errors, 5xx) are retried with
// exponential backoff before surfacing a fetch error.
func (e *ProviderExtractor) Extract(ctx context.Context) ([]domain.ScoreEvent, error) {
	if e.cfg.Cookie == "" {
		e.logger.Printf("warning: provider cookie not set, skipping extraction")
		return []domain.ScoreEvent{}, nil
	}

	body, err := e.fetchState(ctx)
	if err != nil {
		return nil, err
	}
	return decodeState(body)
}

func (e *ProviderExtractor) fetchState(ctx context.Context) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= e.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			recordExtractRetry()
			delay := e.cfg.BaseDelay * time.Duration(1<<(attempt-2))
			e.logger.Printf("retrying provider fetch in %s (attempt %d/%d): %v", delay, attempt, e.cfg.MaxAttempts, lastErr)
			if err := e.sleep(ctx, delay); err != nil {
				return nil, err
			}
		}

		body, retryable, err := e.fetchOnce(ctx)
		if err == nil {
			return body, nil
		}
		if !retryable {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("provider fetch failed after %d attempts: %w", e.cfg.MaxAttempts, lastErr)
}

func (e *ProviderExtractor) fetchOnce(ctx context.Context) (body []byte, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.cfg.BaseURL, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Cookie", e.cfg.Cookie)
	req.Header.Set("Accept", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, false, err
		}
		return nil, true, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= 500:
		io.Copy(io.Discard, resp.Body)
		return nil, true, fmt.Errorf("provider returned status %d", resp.StatusCode)
	default:
		io.Copy(io.Discard, resp.Body)
		return nil, false, fmt.Errorf("provider returned status %d", resp.StatusCode)
	}

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, err
	}
	return body, false, nil
}

// providerState is the provider's documented state payload. The real wire
// format lives entirely behind decodeState so a format change touches one
// function.
type providerState struct {
	States []struct {
		UserID int    `json:"user_id"`
		Game   string `json:"game"`
		Score  int    `json:"score"`
		Date   string `json:"date"`
	} `json:"states"`
}

func decodeState(body []byte) ([]domain.ScoreEvent, error) {
	var state providerState
	if err := json.Unmarshal(body, &state); err != nil {
		return nil, fmt.Errorf("decode provider state: %w", err)
	}

	scoreEvents := make([]domain.ScoreEvent, 0, len(state.States))
	for _, s := range state.States {
		date, err := time.Parse("2006-01-02", s.Date)
		if err != nil {
			return nil, fmt.Errorf("decode provider state: bad date %q: %w", s.Date, err)
		}
		scoreEvents = append(scoreEvents, domain.ScoreEvent{
			UserID: s.UserID,
			GameID: s.Game,
			Score:  s.Score,
			Date:   date,
		})
	}
	return scoreEvents, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
