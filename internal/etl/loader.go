package etl

import (
	"context"
	"errors"
	"log"

	"github.com/roth-mh/nyt-comp/internal/domain"
	"github.com/roth-mh/nyt-comp/internal/events"
)

// ScoreStore is the write side of the score table. UpsertScore must be a
// single atomic statement whose created flag reflects whether a new row was
// made, so classification never needs a separate existence check.
type ScoreStore interface {
	UpsertScore(ctx context.Context, record domain.ScoreRecord) (created bool, err error)
}

// Summary reports the outcome of one load.
type Summary struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Skipped  int `json:"skipped"`
}

// ScorePublisher receives upserted scores after they land in the store.
type ScorePublisher interface {
	PublishScoreUpserted(ctx context.Context, scores ...events.ScoreUpserted) error
}

// Loader idempotently upserts transformed records one at a time, in input
// order. Per-record failures are logged and skipped; they never abort the
// batch.
type Loader struct {
	store     ScoreStore
	publisher ScorePublisher
	logger    *log.Logger
}

// LoaderOption configures optional Loader behaviour.
type LoaderOption func(*Loader)

// WithLoaderLogger overrides the logger used to report skipped records.
func WithLoaderLogger(logger *log.Logger) LoaderOption {
	return func(l *Loader) {
		l.logger = logger
	}
}

// WithScorePublisher emits a score.upserted event for every applied record.
func WithScorePublisher(publisher ScorePublisher) LoaderOption {
	return func(l *Loader) {
		l.publisher = publisher
	}
}

// NewLoader constructs a Loader over the given store.
func NewLoader(store ScoreStore, opts ...LoaderOption) *Loader {
	l := &Loader{
		store:     store,
		publisher: events.NopPublisher{},
		logger:    log.New(log.Writer(), "[etl] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load applies the records against the store and reports how many rows were
// newly inserted versus overwritten. Empty input short-circuits without
// touching the store. The returned counts cover only records that were
// successfully applied.
func (l *Loader) Load(ctx context.Context, runID string, records []domain.ScoreRecord) (Summary, error) {
	var summary Summary
	if len(records) == 0 {
		return summary, nil
	}

	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		created, err := l.store.UpsertScore(ctx, record)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return summary, err
			}
			l.logger.Printf("skipping score (user=%d, game=%s, completed=%s): %v",
				record.UserID, record.GameID, record.CompletedAt.Format("2006-01-02"), err)
			summary.Skipped++
			recordSkipped()
			continue
		}

		if created {
			summary.Inserted++
			recordInserted()
		} else {
			summary.Updated++
			recordUpdated()
		}

		event := events.ScoreUpserted{
			RunID:       runID,
			UserID:      record.UserID,
			GameID:      record.GameID,
			Score:       record.Score,
			CompletedAt: record.CompletedAt,
			Created:     created,
		}
		if err := l.publisher.PublishScoreUpserted(ctx, event); err != nil {
			l.logger.Printf("publish score.upserted failed (user=%d, game=%s): %v", record.UserID, record.GameID, err)
		}
	}

	return summary, nil
}
