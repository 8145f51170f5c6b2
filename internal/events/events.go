// Package events publishes pipeline outcomes to Kafka for downstream
// consumers. Publishing is best-effort: a missing broker list degrades to a
// no-op, mirroring how the extractor treats a missing credential.
package events

import "time"

// Topic names.
const (
	TopicScoreEvents = "score_events"
	TopicScoreRuns   = "score_runs"
)

// Event type names carried in the event_type message header.
const (
	TypeScoreUpserted = "score.upserted"
	TypeRunCompleted  = "score.run_completed"
)

// ScoreUpserted is emitted once per record applied by the loader.
type ScoreUpserted struct {
	RunID       string    `json:"run_id"`
	UserID      int       `json:"user_id"`
	GameID      string    `json:"game_id"`
	Score       int       `json:"score"`
	CompletedAt time.Time `json:"completed_at"`
	Created     bool      `json:"created"`
}

// RunCompleted summarises one pipeline run.
type RunCompleted struct {
	RunID       string    `json:"run_id"`
	Inserted    int       `json:"inserted"`
	Updated     int       `json:"updated"`
	Skipped     int       `json:"skipped"`
	CompletedAt time.Time `json:"completed_at"`
}
