package etl

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/roth-mh/nyt-comp/internal/events"
)

// RunPublisher receives the summary of a completed run.
type RunPublisher interface {
	PublishRunCompleted(ctx context.Context, run events.RunCompleted) error
}

// Runner orchestrates one Extract -> Transform -> Load pass. It holds no
// scheduling state; overlapping runs coordinate only through the store's
// atomic upsert.
type Runner struct {
	extractor Extractor
	loader    *Loader
	publisher RunPublisher
	logger    *log.Logger
}

// RunnerOption configures optional Runner behaviour.
type RunnerOption func(*Runner)

// WithRunnerLogger overrides the runner's logger.
func WithRunnerLogger(logger *log.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithRunPublisher emits a score.run_completed event after each run.
func WithRunPublisher(publisher RunPublisher) RunnerOption {
	return func(r *Runner) {
		r.publisher = publisher
	}
}

// NewRunner constructs a Runner.
func NewRunner(extractor Extractor, loader *Loader, opts ...RunnerOption) *Runner {
	r := &Runner{
		extractor: extractor,
		loader:    loader,
		publisher: events.NopPublisher{},
		logger:    log.New(log.Writer(), "[etl] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the pipeline once. Extract failures abort before any load and
// propagate; a completed load is a successful run even when some records were
// skipped.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	runID := uuid.NewString()
	start := time.Now()
	defer func() {
		observeRunDuration(time.Since(start))
	}()

	r.logger.Printf("run %s: extracting", runID)
	rawEvents, err := r.extractor.Extract(ctx)
	if err != nil {
		recordRunFailed()
		return Summary{}, fmt.Errorf("extract: %w", err)
	}

	records := Transform(rawEvents)

	summary, err := r.loader.Load(ctx, runID, records)
	if err != nil {
		recordRunFailed()
		return summary, fmt.Errorf("load: %w", err)
	}

	r.logger.Printf("run %s: %d inserted, %d updated, %d skipped", runID, summary.Inserted, summary.Updated, summary.Skipped)

	if err := r.publisher.PublishRunCompleted(ctx, events.RunCompleted{
		RunID:       runID,
		Inserted:    summary.Inserted,
		Updated:     summary.Updated,
		Skipped:     summary.Skipped,
		CompletedAt: time.Now().UTC(),
	}); err != nil {
		r.logger.Printf("run %s: publish run_completed failed: %v", runID, err)
	}

	return summary, nil
}
