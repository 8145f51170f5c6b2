// Package domain defines the business types and logic for the competition tracker.
package domain

import (
	"errors"
	"time"
)

var (
	// ErrUserNotFound is returned when a user cannot be located.
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateUser indicates the unique name constraint was violated.
	ErrDuplicateUser = errors.New("user with this name already exists")
)

// ScoreEvent is a raw score pulled from the games provider. It is ephemeral
// and never persisted as-is.
type ScoreEvent struct {
	UserID int
	GameID string
	Score  int
	Date   time.Time
}

// ScoreRecord is the persisted score row. At most one record exists per
// (UserID, GameID, CompletedAt); re-ingestion overwrites Score in place.
type ScoreRecord struct {
	UserID      int
	GameID      string
	Score       int
	CompletedAt time.Time
	WeekNumber  int
	Year        int
}

// GameDetail is one game's contribution inside a leaderboard entry.
type GameDetail struct {
	Game  string    `json:"game"`
	Score int       `json:"score"`
	Date  time.Time `json:"date"`
}

// WeeklyLeaderboardEntry is a derived, read-only row of the weekly standings.
type WeeklyLeaderboardEntry struct {
	UserID      int
	UserName    string
	Year        int
	WeekNumber  int
	TotalScore  int
	GamesPlayed int
	GameDetails []GameDetail
}

// User is a competition participant.
type User struct {
	ID        int
	Name      string
	Email     string
	Active    bool
	CreatedAt time.Time
}

// UserUpdate carries a partial user mutation; nil fields are left unchanged.
type UserUpdate struct {
	Name   *string
	Email  *string
	Active *bool
}

// Week identifies one ISO week of standings.
type Week struct {
	Year       int
	WeekNumber int
}
