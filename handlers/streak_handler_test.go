package handlers_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"

	"habitgarden-api/handlers"
	"habitgarden-api/internal/apperr"
	"habitgarden-api/internal/progress"
	"habitgarden-api/internal/streak"
)

type stubStreakService struct {
	streak   *streak.Streak
	checkErr error
	getErr   error
	resetErr error
	histErr  error

	lastDays int
}

func (s *stubStreakService) current() *streak.Streak {
	if s.streak != nil {
		return s.streak
	}
	lastChecked := "2025-06-15"
	return &streak.Streak{
		ID:            uuid.New(),
		HabitID:       uuid.New(),
		UserID:        testUserID,
		CurrentStreak: 3,
		LongestStreak: 7,
		LastChecked:   &lastChecked,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
}

func (s *stubStreakService) Check(ctx context.Context, habitID, userID string) (*streak.Streak, error) {
	if s.checkErr != nil {
		return nil, s.checkErr
	}
	return s.current(), nil
}

func (s *stubStreakService) Get(ctx context.Context, habitID, userID string) (*streak.Streak, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.current(), nil
}

func (s *stubStreakService) Reset(ctx context.Context, habitID, userID string) (*streak.Streak, error) {
	if s.resetErr != nil {
		return nil, s.resetErr
	}
	st := s.current()
	st.CurrentStreak = 0
	return st, nil
}

func (s *stubStreakService) History(ctx context.Context, habitID, userID string, days int) (*streak.History, error) {
	if s.histErr != nil {
		return nil, s.histErr
	}
	s.lastDays = days
	return &streak.History{
		CurrentStreak: 3,
		LongestStreak: 7,
		History:       []progress.Record{},
	}, nil
}

func streakRouter(svc handlers.StreakService) *mux.Router {
	h := handlers.NewStreakHandler(svc)
	r := mux.NewRouter()
	r.HandleFunc("/streaks/{habitId}/check", h.CheckStreak).Methods("POST")
	r.HandleFunc("/streaks/{habitId}/history", h.GetStreakHistory).Methods("GET")
	r.HandleFunc("/streaks/{habitId}", h.GetStreak).Methods("GET")
	r.HandleFunc("/streaks/{habitId}", h.ResetStreak).Methods("PUT")
	return r
}

func TestCheckStreak(t *testing.T) {
	svc := &stubStreakService{}
	router := streakRouter(svc)

	rr, env := doRequest(t, router, http.MethodPost, "/streaks/"+uuid.NewString()+"/check", nil)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Streak updated successfully", env.Message)

	var st streak.Streak
	unmarshalData(t, env, &st)
	assert.Equal(t, 3, st.CurrentStreak)
	assert.Equal(t, 7, st.LongestStreak)
}

func TestCheckStreak_MissingHabitIs400(t *testing.T) {
	svc := &stubStreakService{checkErr: fmt.Errorf("habit: %w", apperr.ErrNotFound)}
	router := streakRouter(svc)

	rr, env := doRequest(t, router, http.MethodPost, "/streaks/"+uuid.NewString()+"/check", nil)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.False(t, env.Success)
	assert.Equal(t, http.StatusBadRequest, env.StatusCode)
}

func TestGetStreak(t *testing.T) {
	svc := &stubStreakService{}
	router := streakRouter(svc)

	rr, env := doRequest(t, router, http.MethodGet, "/streaks/"+uuid.NewString(), nil)

	assert.Equal(t, http.StatusOK, rr.Code)

	var st streak.Streak
	unmarshalData(t, env, &st)
	assert.Equal(t, 3, st.CurrentStreak)
}

func TestGetStreak_NotFound(t *testing.T) {
	svc := &stubStreakService{getErr: fmt.Errorf("streak: %w", apperr.ErrNotFound)}
	router := streakRouter(svc)

	rr, env := doRequest(t, router, http.MethodGet, "/streaks/"+uuid.NewString(), nil)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Streak not found", env.Message)
}

func TestResetStreak(t *testing.T) {
	svc := &stubStreakService{}
	router := streakRouter(svc)

	rr, env := doRequest(t, router, http.MethodPut, "/streaks/"+uuid.NewString(), nil)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Streak reset successfully", env.Message)

	var st streak.Streak
	unmarshalData(t, env, &st)
	assert.Equal(t, 0, st.CurrentStreak)
	assert.Equal(t, 7, st.LongestStreak, "longest survives a reset")
}

func TestResetStreak_NotFound(t *testing.T) {
	svc := &stubStreakService{resetErr: fmt.Errorf("streak: %w", apperr.ErrNotFound)}
	router := streakRouter(svc)

	rr, env := doRequest(t, router, http.MethodPut, "/streaks/"+uuid.NewString(), nil)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Streak not found", env.Message)
}

func TestGetStreakHistory(t *testing.T) {
	svc := &stubStreakService{}
	router := streakRouter(svc)

	rr, env := doRequest(t, router, http.MethodGet, "/streaks/"+uuid.NewString()+"/history", nil)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 30, svc.lastDays, "window defaults to a month")

	var hist streak.History
	unmarshalData(t, env, &hist)
	assert.Equal(t, 3, hist.CurrentStreak)
	assert.NotNil(t, hist.History)
}

func TestGetStreakHistory_DaysOverride(t *testing.T) {
	svc := &stubStreakService{}
	router := streakRouter(svc)

	rr, _ := doRequest(t, router, http.MethodGet, "/streaks/"+uuid.NewString()+"/history?days=90", nil)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 90, svc.lastDays)
}

func TestGetStreakHistory_MissingHabitIs500(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	svc := &stubStreakService{histErr: fmt.Errorf("habit: %w", apperr.ErrNotFound)}
	router := streakRouter(svc)

	rr, env := doRequest(t, router, http.MethodGet, "/streaks/"+uuid.NewString()+"/history", nil)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "Internal Server Error", env.Message)
}

func TestStreakRoutes_Unauthenticated(t *testing.T) {
	router := streakRouter(&stubStreakService{})

	rr := doAnonymous(t, router, http.MethodPost, "/streaks/"+uuid.NewString()+"/check")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
