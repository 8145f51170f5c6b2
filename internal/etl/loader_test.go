package etl

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roth-mh/nyt-comp/internal/domain"
	"github.com/roth-mh/nyt-comp/internal/events"
)

type fakeStore struct {
	rows    map[string]int
	calls   int
	failFor map[string]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: make(map[string]int), failFor: make(map[string]error)}
}

func storeKey(r domain.ScoreRecord) string {
	return r.GameID + "|" + r.CompletedAt.Format(time.RFC3339)
}

func (f *fakeStore) UpsertScore(ctx context.Context, record domain.ScoreRecord) (bool, error) {
	f.calls++
	key := storeKey(record)
	if err, ok := f.failFor[key]; ok {
		return false, err
	}
	_, existed := f.rows[key]
	f.rows[key] = record.Score
	return !existed, nil
}

func quietLoader(store ScoreStore, opts ...LoaderOption) *Loader {
	opts = append(opts, WithLoaderLogger(log.New(io.Discard, "", 0)))
	return NewLoader(store, opts...)
}

func sampleRecords(n int) []domain.ScoreRecord {
	records := make([]domain.ScoreRecord, 0, n)
	base := time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		records = append(records, domain.ScoreRecord{
			UserID:      1,
			GameID:      "wordle",
			Score:       i + 1,
			CompletedAt: base.AddDate(0, 0, i),
			WeekNumber:  10,
			Year:        2024,
		})
	}
	return records
}

func TestLoadIsIdempotent(t *testing.T) {
	store := newFakeStore()
	loader := quietLoader(store)
	records := sampleRecords(3)

	first, err := loader.Load(context.Background(), "run-1", records)
	require.NoError(t, err)
	require.Equal(t, Summary{Inserted: 3}, first)

	second, err := loader.Load(context.Background(), "run-2", records)
	require.NoError(t, err)
	require.Equal(t, Summary{Updated: 3}, second)

	require.Len(t, store.rows, 3)
}

func TestLoadEmptyInputSkipsStore(t *testing.T) {
	store := newFakeStore()
	loader := quietLoader(store)

	summary, err := loader.Load(context.Background(), "run-1", nil)
	require.NoError(t, err)
	require.Equal(t, Summary{}, summary)
	require.Zero(t, store.calls)
}

func TestLoadSkipsFailedRecordsAndContinues(t *testing.T) {
	store := newFakeStore()
	records := sampleRecords(3)
	store.failFor[storeKey(records[1])] = errors.New("constraint violation")

	loader := quietLoader(store)
	summary, err := loader.Load(context.Background(), "run-1", records)
	require.NoError(t, err)
	require.Equal(t, Summary{Inserted: 2, Skipped: 1}, summary)
	require.Equal(t, 3, store.calls, "batch must continue past the failure")
}

func TestLoadStopsOnCancelledContext(t *testing.T) {
	store := newFakeStore()
	loader := quietLoader(store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := loader.Load(ctx, "run-1", sampleRecords(2))
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, store.calls)
}

func TestLoadPublishesUpsertedScores(t *testing.T) {
	store := newFakeStore()
	publisher := &capturingPublisher{}
	loader := quietLoader(store, WithScorePublisher(publisher))

	records := sampleRecords(2)
	_, err := loader.Load(context.Background(), "run-1", records)
	require.NoError(t, err)

	require.Len(t, publisher.scores, 2)
	require.Equal(t, "run-1", publisher.scores[0].RunID)
	require.True(t, publisher.scores[0].Created)
	require.Equal(t, records[0].GameID, publisher.scores[0].GameID)
}

type capturingPublisher struct {
	scores []events.ScoreUpserted
	runs   []events.RunCompleted
}

func (c *capturingPublisher) PublishScoreUpserted(ctx context.Context, scores ...events.ScoreUpserted) error {
	c.scores = append(c.scores, scores...)
	return nil
}

func (c *capturingPublisher) PublishRunCompleted(ctx context.Context, run events.RunCompleted) error {
	c.runs = append(c.runs, run)
	return nil
}

func (c *capturingPublisher) Close() error { return nil }
