// Package api exposes HTTP handlers for the competition tracker.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/roth-mh/nyt-comp/internal/domain"
)

const maxHistoryLimit = 52

// Handler coordinates HTTP requests with the domain service.
type Handler struct {
	service      *domain.Service
	historyLimit int
}

// NewHandler builds a Handler. historyLimit is the default page size for the
// leaderboard history listing.
func NewHandler(service *domain.Service, historyLimit int) *Handler {
	if historyLimit <= 0 {
		historyLimit = 20
	}
	return &Handler{service: service, historyLimit: historyLimit}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/leaderboard", h.leaderboard)
	mux.HandleFunc("/leaderboard/history", h.leaderboardHistory)
	mux.HandleFunc("/users", h.users)
	mux.HandleFunc("/users/", h.userByID)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) leaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "unsupported method")
		return
	}

	week, err := parseWeekQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	entries, resolved, err := h.service.Leaderboard(r.Context(), week)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch leaderboard")
		return
	}

	items := make([]LeaderboardEntryView, 0, len(entries))
	for _, entry := range entries {
		items = append(items, toEntryView(entry))
	}

	writeJSON(w, http.StatusOK, LeaderboardResponse{
		Leaderboard: items,
		Week:        resolved.WeekNumber,
		Year:        resolved.Year,
	})
}

func (h *Handler) leaderboardHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "unsupported method")
		return
	}

	limit := h.historyLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if parsed > maxHistoryLimit {
			parsed = maxHistoryLimit
		}
		limit = parsed
	}

	weeks, err := h.service.LeaderboardHistory(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch history")
		return
	}

	items := make([]WeekView, 0, len(weeks))
	for _, week := range weeks {
		items = append(items, WeekView{Year: week.Year, WeekNumber: week.WeekNumber})
	}
	writeJSON(w, http.StatusOK, HistoryResponse{Weeks: items})
}

func (h *Handler) users(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listUsers(w, r)
	case http.MethodPost:
		h.createUser(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "unsupported method")
	}
}

func (h *Handler) userByID(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimPrefix(r.URL.Path, "/users/")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.getUser(w, r, id)
	case http.MethodPut:
		h.updateUser(w, r, id)
	case http.MethodDelete:
		h.deleteUser(w, r, id)
	default:
		writeError(w, http.StatusMethodNotAllowed, "unsupported method")
	}
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch users")
		return
	}

	items := make([]UserView, 0, len(users))
	for _, user := range users {
		items = append(items, toUserView(user))
	}
	writeJSON(w, http.StatusOK, UsersResponse{Users: items})
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request, id int) {
	user, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch user")
		return
	}
	writeJSON(w, http.StatusOK, toUserView(*user))
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "unable to parse body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.service.CreateUser(r.Context(), req.Name, req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateUser) {
			writeError(w, http.StatusConflict, domain.ErrDuplicateUser.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}
	writeJSON(w, http.StatusCreated, toUserView(*user))
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request, id int) {
	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "unable to parse body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.service.UpdateUser(r.Context(), id, domain.UserUpdate{
		Name:   req.Name,
		Email:  req.Email,
		Active: req.Active,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserNotFound):
			writeError(w, http.StatusNotFound, "user not found")
		case errors.Is(err, domain.ErrDuplicateUser):
			writeError(w, http.StatusConflict, domain.ErrDuplicateUser.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to update user")
		}
		return
	}
	writeJSON(w, http.StatusOK, toUserView(*user))
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request, id int) {
	if err := h.service.DeleteUser(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete user")
		return
	}
	writeJSON(w, http.StatusOK, DeleteUserResponse{Message: "user deleted", ID: id})
}

// parseWeekQuery reads optional week and year parameters. Both must be
// provided together; absent means "current week".
func parseWeekQuery(r *http.Request) (*domain.Week, error) {
	rawWeek := r.URL.Query().Get("week")
	rawYear := r.URL.Query().Get("year")
	if rawWeek == "" && rawYear == "" {
		return nil, nil
	}
	if rawWeek == "" || rawYear == "" {
		return nil, errors.New("week and year must be provided together")
	}

	week, err := strconv.Atoi(rawWeek)
	if err != nil || week < 1 || week > 53 {
		return nil, errors.New("week must be an integer in [1, 53]")
	}
	year, err := strconv.Atoi(rawYear)
	if err != nil || year < 1 {
		return nil, errors.New("year must be a positive integer")
	}
	return &domain.Week{Year: year, WeekNumber: week}, nil
}

// CreateUserRequest is the payload for POST /users.
type CreateUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Validate ensures request correctness.
func (r CreateUserRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("name is required")
	}
	return nil
}

// UpdateUserRequest is the payload for PUT /users/{id}. Absent fields are
// left unchanged.
type UpdateUserRequest struct {
	Name   *string `json:"name"`
	Email  *string `json:"email"`
	Active *bool   `json:"active"`
}

// Validate ensures at least one mutation was requested.
func (r UpdateUserRequest) Validate() error {
	if r.Name == nil && r.Email == nil && r.Active == nil {
		return errors.New("no fields to update")
	}
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return errors.New("name must not be empty")
	}
	return nil
}

// UserView is the JSON shape of a user.
type UserView struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// UsersResponse packages the user listing.
type UsersResponse struct {
	Users []UserView `json:"users"`
}

// DeleteUserResponse confirms a deletion.
type DeleteUserResponse struct {
	Message string `json:"message"`
	ID      int    `json:"id"`
}

// LeaderboardEntryView is the JSON shape of one standings row.
type LeaderboardEntryView struct {
	UserID      int                 `json:"user_id"`
	UserName    string              `json:"user_name"`
	Year        int                 `json:"year"`
	WeekNumber  int                 `json:"week_number"`
	TotalScore  int                 `json:"total_score"`
	GamesPlayed int                 `json:"games_played"`
	GameDetails []domain.GameDetail `json:"game_details"`
}

// LeaderboardResponse packages the standings with the resolved week.
type LeaderboardResponse struct {
	Leaderboard []LeaderboardEntryView `json:"leaderboard"`
	Week        int                    `json:"week"`
	Year        int                    `json:"year"`
}

// WeekView is one (year, week) pair in the history listing.
type WeekView struct {
	Year       int `json:"year"`
	WeekNumber int `json:"week_number"`
}

// HistoryResponse packages the history listing.
type HistoryResponse struct {
	Weeks []WeekView `json:"weeks"`
}

func toUserView(user domain.User) UserView {
	return UserView{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Active:    user.Active,
		CreatedAt: user.CreatedAt,
	}
}

func toEntryView(entry domain.WeeklyLeaderboardEntry) LeaderboardEntryView {
	return LeaderboardEntryView{
		UserID:      entry.UserID,
		UserName:    entry.UserName,
		Year:        entry.Year,
		WeekNumber:  entry.WeekNumber,
		TotalScore:  entry.TotalScore,
		GamesPlayed: entry.GamesPlayed,
		GameDetails: entry.GameDetails,
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"error": detail})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
