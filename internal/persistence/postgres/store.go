// Package postgres provides Postgres-backed persistence for scores, users,
// and the weekly leaderboard view.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/roth-mh/nyt-comp/internal/domain"
	"github.com/roth-mh/nyt-comp/internal/observability"
)

const uniqueViolation = "23505"

// Store wraps a pgx pool with the queries the tracker needs.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore constructs a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// UpsertScore atomically inserts the record or overwrites the score of an
// existing row sharing the same (user_id, game_id, completed_at) key. The
// returned created flag comes from the same statement that performs the
// write, so concurrent loaders racing on one key cannot misclassify.
func (s *Store) UpsertScore(ctx context.Context, record domain.ScoreRecord) (created bool, err error) {
	const stmt = `INSERT INTO scores (user_id, game_id, score, completed_at, week_number, year)
        VALUES ($1,$2,$3,$4,$5,$6)
        ON CONFLICT (user_id, game_id, completed_at)
        DO UPDATE SET score = EXCLUDED.score
        RETURNING (xmax = 0) AS inserted`

	row := s.pool.QueryRow(ctx, stmt,
		record.UserID,
		record.GameID,
		record.Score,
		record.CompletedAt,
		record.WeekNumber,
		record.Year,
	)
	if err := row.Scan(&created); err != nil {
		return false, err
	}
	observability.RecordScoreLoaded(record.CompletedAt)
	return created, nil
}

// Leaderboard reads the weekly_leaderboard view for one ISO week, ordered by
// total score descending with null totals last. Users without scores for the
// week are absent from the result.
func (s *Store) Leaderboard(ctx context.Context, week domain.Week) ([]domain.WeeklyLeaderboardEntry, error) {
	const query = `SELECT user_id, user_name, year, week_number, total_score, games_played, game_details
        FROM weekly_leaderboard
        WHERE year = $1 AND week_number = $2
        ORDER BY total_score DESC NULLS LAST, user_id`

	rows, err := s.pool.Query(ctx, query, week.Year, week.WeekNumber)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]domain.WeeklyLeaderboardEntry, 0)
	for rows.Next() {
		var entry domain.WeeklyLeaderboardEntry
		if err := rows.Scan(&entry.UserID, &entry.UserName, &entry.Year, &entry.WeekNumber, &entry.TotalScore, &entry.GamesPlayed, &entry.GameDetails); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// DistinctWeeks lists the (year, week) pairs with recorded scores, newest
// first, capped at limit.
func (s *Store) DistinctWeeks(ctx context.Context, limit int) ([]domain.Week, error) {
	const query = `SELECT DISTINCT year, week_number
        FROM scores
        ORDER BY year DESC, week_number DESC
        LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	weeks := make([]domain.Week, 0, limit)
	for rows.Next() {
		var week domain.Week
		if err := rows.Scan(&week.Year, &week.WeekNumber); err != nil {
			return nil, err
		}
		weeks = append(weeks, week)
	}
	return weeks, rows.Err()
}

// List returns all users ordered by name.
func (s *Store) List(ctx context.Context) ([]domain.User, error) {
	const query = `SELECT id, name, COALESCE(email, ''), active, created_at
        FROM users ORDER BY name ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(&user.ID, &user.Name, &user.Email, &user.Active, &user.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// Get fetches one user by ID, returning nil when no row exists.
func (s *Store) Get(ctx context.Context, id int) (*domain.User, error) {
	const query = `SELECT id, name, COALESCE(email, ''), active, created_at
        FROM users WHERE id = $1`

	var user domain.User
	err := s.pool.QueryRow(ctx, query, id).Scan(&user.ID, &user.Name, &user.Email, &user.Active, &user.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Create inserts a new active user.
func (s *Store) Create(ctx context.Context, name, email string) (*domain.User, error) {
	const stmt = `INSERT INTO users (name, email, active)
        VALUES ($1, $2, true)
        RETURNING id, name, COALESCE(email, ''), active, created_at`

	var user domain.User
	err := s.pool.QueryRow(ctx, stmt, name, nullIfEmpty(email)).Scan(&user.ID, &user.Name, &user.Email, &user.Active, &user.CreatedAt)
	if err != nil {
		return nil, mapUserError(err)
	}
	return &user, nil
}

// Update applies the provided fields to an existing user, returning nil when
// no row matches the ID.
func (s *Store) Update(ctx context.Context, id int, update domain.UserUpdate) (*domain.User, error) {
	assignments := make([]string, 0, 3)
	args := make([]interface{}, 0, 4)

	if update.Name != nil {
		args = append(args, *update.Name)
		assignments = append(assignments, fmt.Sprintf("name = $%d", len(args)))
	}
	if update.Email != nil {
		args = append(args, nullIfEmpty(*update.Email))
		assignments = append(assignments, fmt.Sprintf("email = $%d", len(args)))
	}
	if update.Active != nil {
		args = append(args, *update.Active)
		assignments = append(assignments, fmt.Sprintf("active = $%d", len(args)))
	}
	if len(assignments) == 0 {
		return s.Get(ctx, id)
	}

	args = append(args, id)
	stmt := fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d
        RETURNING id, name, COALESCE(email, ''), active, created_at`,
		strings.Join(assignments, ", "), len(args))

	var user domain.User
	err := s.pool.QueryRow(ctx, stmt, args...).Scan(&user.ID, &user.Name, &user.Email, &user.Active, &user.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapUserError(err)
	}
	return &user, nil
}

// Delete removes a user by ID.
func (s *Store) Delete(ctx context.Context, id int) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func mapUserError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.ErrDuplicateUser
	}
	return err
}

func nullIfEmpty(value string) interface{} {
	if value == "" {
		return nil
	}
	return value
}
