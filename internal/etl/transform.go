// Package etl implements the extract-transform-load pipeline that pulls game
// scores from the provider and upserts them into the score store.
package etl

import "github.com/roth-mh/nyt-comp/internal/domain"

// Transform maps raw score events into storage-ready records, attaching the
// ISO week and year derived from each event's date. It is pure,
// order-preserving, and one-to-one.
func Transform(events []domain.ScoreEvent) []domain.ScoreRecord {
	records := make([]domain.ScoreRecord, 0, len(events))
	for _, event := range events {
		year, week := domain.WeekOf(event.Date)
		records = append(records, domain.ScoreRecord{
			UserID:      event.UserID,
			GameID:      event.GameID,
			Score:       event.Score,
			CompletedAt: event.Date,
			WeekNumber:  week,
			Year:        year,
		})
	}
	return records
}
