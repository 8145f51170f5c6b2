package domain

import (
	"context"
	"strings"
	"time"
)

// UserRepository captures user persistence operations.
type UserRepository interface {
	List(ctx context.Context) ([]User, error)
	Get(ctx context.Context, id int) (*User, error)
	Create(ctx context.Context, name, email string) (*User, error)
	Update(ctx context.Context, id int, update UserUpdate) (*User, error)
	Delete(ctx context.Context, id int) error
}

// LeaderboardRepository captures read access to the weekly standings view.
type LeaderboardRepository interface {
	Leaderboard(ctx context.Context, week Week) ([]WeeklyLeaderboardEntry, error)
	DistinctWeeks(ctx context.Context, limit int) ([]Week, error)
}

// Service orchestrates user and leaderboard workflows for the API layer.
type Service struct {
	users       UserRepository
	leaderboard LeaderboardRepository
	now         func() time.Time
}

// NewService constructs a Service.
func NewService(users UserRepository, leaderboard LeaderboardRepository) *Service {
	return &Service{users: users, leaderboard: leaderboard, now: time.Now}
}

// ListUsers returns all users ordered by name.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.users.List(ctx)
}

// GetUser fetches a user by ID.
func (s *Service) GetUser(ctx context.Context, id int) (*User, error) {
	user, err := s.users.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// CreateUser registers a new participant. Names are unique.
func (s *Service) CreateUser(ctx context.Context, name, email string) (*User, error) {
	return s.users.Create(ctx, strings.TrimSpace(name), strings.TrimSpace(email))
}

// UpdateUser applies a partial mutation to an existing user.
func (s *Service) UpdateUser(ctx context.Context, id int, update UserUpdate) (*User, error) {
	user, err := s.users.Update(ctx, id, update)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// DeleteUser removes a user.
func (s *Service) DeleteUser(ctx context.Context, id int) error {
	return s.users.Delete(ctx, id)
}

// Leaderboard returns the standings for the requested week, or for the
// current ISO week when week is nil.
func (s *Service) Leaderboard(ctx context.Context, week *Week) ([]WeeklyLeaderboardEntry, Week, error) {
	resolved := CurrentWeek(s.now())
	if week != nil {
		resolved = *week
	}
	entries, err := s.leaderboard.Leaderboard(ctx, resolved)
	if err != nil {
		return nil, resolved, err
	}
	return entries, resolved, nil
}

// LeaderboardHistory lists the weeks that have recorded scores, newest first.
func (s *Service) LeaderboardHistory(ctx context.Context, limit int) ([]Week, error) {
	return s.leaderboard.DistinctWeeks(ctx, limit)
}
