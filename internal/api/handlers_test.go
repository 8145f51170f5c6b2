package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roth-mh/nyt-comp/internal/domain"
)

func newTestHandler(users *mockUserRepo, leaderboard *mockLeaderboardRepo) *Handler {
	if users == nil {
		users = &mockUserRepo{}
	}
	if leaderboard == nil {
		leaderboard = &mockLeaderboardRepo{}
	}
	return NewHandler(domain.NewService(users, leaderboard), 20)
}

func TestLeaderboardExplicitWeek(t *testing.T) {
	leaderboard := &mockLeaderboardRepo{
		entries: []domain.WeeklyLeaderboardEntry{
			{UserID: 1, UserName: "maya", Year: 2024, WeekNumber: 10, TotalScore: 8, GamesPlayed: 2},
			{UserID: 2, UserName: "sam", Year: 2024, WeekNumber: 10, TotalScore: 5, GamesPlayed: 1},
		},
	}
	handler := newTestHandler(nil, leaderboard)

	req := httptest.NewRequest(http.MethodGet, "/leaderboard?year=2024&week=10", nil)
	rr := httptest.NewRecorder()
	handler.leaderboard(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, domain.Week{Year: 2024, WeekNumber: 10}, leaderboard.requested)

	var resp LeaderboardResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, 10, resp.Week)
	require.Equal(t, 2024, resp.Year)
	require.Len(t, resp.Leaderboard, 2)
	require.Equal(t, "maya", resp.Leaderboard[0].UserName)
	require.Equal(t, 8, resp.Leaderboard[0].TotalScore)
	require.GreaterOrEqual(t, resp.Leaderboard[0].TotalScore, resp.Leaderboard[1].TotalScore)
}

func TestLeaderboardRejectsPartialWeekParams(t *testing.T) {
	handler := newTestHandler(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/leaderboard?week=10", nil)
	rr := httptest.NewRecorder()
	handler.leaderboard(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	requireErrorBody(t, rr)
}

func TestLeaderboardRejectsWeekOutOfRange(t *testing.T) {
	handler := newTestHandler(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/leaderboard?year=2024&week=54", nil)
	rr := httptest.NewRecorder()
	handler.leaderboard(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestLeaderboardHistory(t *testing.T) {
	leaderboard := &mockLeaderboardRepo{
		weeks: []domain.Week{{Year: 2024, WeekNumber: 10}, {Year: 2024, WeekNumber: 9}},
	}
	handler := newTestHandler(nil, leaderboard)

	req := httptest.NewRequest(http.MethodGet, "/leaderboard/history", nil)
	rr := httptest.NewRecorder()
	handler.leaderboardHistory(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, 20, leaderboard.requestedLimit)

	var resp HistoryResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Weeks, 2)
	require.Equal(t, 10, resp.Weeks[0].WeekNumber)
}

func TestLeaderboardHistoryCapsLimit(t *testing.T) {
	leaderboard := &mockLeaderboardRepo{}
	handler := newTestHandler(nil, leaderboard)

	req := httptest.NewRequest(http.MethodGet, "/leaderboard/history?limit=999", nil)
	rr := httptest.NewRecorder()
	handler.leaderboardHistory(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, maxHistoryLimit, leaderboard.requestedLimit)
}

func TestCreateUserValidation(t *testing.T) {
	handler := newTestHandler(nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(`{"email":"x@example.com"}`))
	rr := httptest.NewRecorder()
	handler.users(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	requireErrorBody(t, rr)
}

func TestCreateUserConflict(t *testing.T) {
	users := &mockUserRepo{createErr: domain.ErrDuplicateUser}
	handler := newTestHandler(users, nil)

	req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(`{"name":"maya"}`))
	rr := httptest.NewRecorder()
	handler.users(rr, req)

	require.Equal(t, http.StatusConflict, rr.Code)
	requireErrorBody(t, rr)
}

func TestCreateUserSuccess(t *testing.T) {
	users := &mockUserRepo{}
	handler := newTestHandler(users, nil)

	req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(`{"name":"maya","email":"maya@example.com"}`))
	rr := httptest.NewRecorder()
	handler.users(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)

	var resp UserView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, "maya", resp.Name)
	require.True(t, resp.Active)
}

func TestGetUserNotFound(t *testing.T) {
	handler := newTestHandler(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/users/7", nil)
	rr := httptest.NewRecorder()
	handler.userByID(rr, req)

	require.Equal(t, http.StatusNotFound, rr.Code)
	requireErrorBody(t, rr)
}

func TestUserInvalidID(t *testing.T) {
	handler := newTestHandler(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/users/abc", nil)
	rr := httptest.NewRecorder()
	handler.userByID(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUpdateUserRequiresFields(t *testing.T) {
	handler := newTestHandler(nil, nil)

	req := httptest.NewRequest(http.MethodPut, "/users/1", strings.NewReader(`{}`))
	rr := httptest.NewRecorder()
	handler.userByID(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDeleteUser(t *testing.T) {
	users := &mockUserRepo{users: []domain.User{{ID: 3, Name: "sam", Active: true}}}
	handler := newTestHandler(users, nil)

	req := httptest.NewRequest(http.MethodDelete, "/users/3", nil)
	rr := httptest.NewRecorder()
	handler.userByID(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp DeleteUserResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, 3, resp.ID)
}

func requireErrorBody(t *testing.T, rr *httptest.ResponseRecorder) {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.NotEmpty(t, body["error"])
}

type mockLeaderboardRepo struct {
	entries        []domain.WeeklyLeaderboardEntry
	weeks          []domain.Week
	requested      domain.Week
	requestedLimit int
}

func (m *mockLeaderboardRepo) Leaderboard(ctx context.Context, week domain.Week) ([]domain.WeeklyLeaderboardEntry, error) {
	m.requested = week
	return m.entries, nil
}

func (m *mockLeaderboardRepo) DistinctWeeks(ctx context.Context, limit int) ([]domain.Week, error) {
	m.requestedLimit = limit
	return m.weeks, nil
}

type mockUserRepo struct {
	users     []domain.User
	createErr error
}

func (m *mockUserRepo) List(ctx context.Context) ([]domain.User, error) {
	return m.users, nil
}

func (m *mockUserRepo) Get(ctx context.Context, id int) (*domain.User, error) {
	for i := range m.users {
		if m.users[i].ID == id {
			return &m.users[i], nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) Create(ctx context.Context, name, email string) (*domain.User, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	user := domain.User{ID: len(m.users) + 1, Name: name, Email: email, Active: true, CreatedAt: time.Now().UTC()}
	m.users = append(m.users, user)
	return &user, nil
}

func (m *mockUserRepo) Update(ctx context.Context, id int, update domain.UserUpdate) (*domain.User, error) {
	for i := range m.users {
		if m.users[i].ID == id {
			if update.Name != nil {
				m.users[i].Name = *update.Name
			}
			if update.Email != nil {
				m.users[i].Email = *update.Email
			}
			if update.Active != nil {
				m.users[i].Active = *update.Active
			}
			return &m.users[i], nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id int) error {
	for i := range m.users {
		if m.users[i].ID == id {
			m.users = append(m.users[:i], m.users[i+1:]...)
			return nil
		}
	}
	return domain.ErrUserNotFound
}
