package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"habitgarden-api/internal/apperr"
	"habitgarden-api/internal/streak"
	"habitgarden-api/middleware"
)

const defaultHistoryDays = 30

// StreakService is the calculator surface the handler consumes.
type StreakService interface {
	Check(ctx context.Context, habitID, userID string) (*streak.Streak, error)
	Get(ctx context.Context, habitID, userID string) (*streak.Streak, error)
	Reset(ctx context.Context, habitID, userID string) (*streak.Streak, error)
	History(ctx context.Context, habitID, userID string, days int) (*streak.History, error)
}

type StreakHandler struct {
	streakService StreakService
}

func NewStreakHandler(streakService StreakService) *StreakHandler {
	return &StreakHandler{streakService: streakService}
}

// CheckStreak serves POST /streaks/{habitId}/check. Checking always
// implies a check-in for today.
func (h *StreakHandler) CheckStreak(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	st, err := h.streakService.Check(ctx, mux.Vars(r)["habitId"], userID)
	if err != nil {
		log.Printf("CheckStreak: %v", err)
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondSuccess(w, http.StatusOK, "Streak updated successfully", st)
}

func (h *StreakHandler) GetStreak(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	st, err := h.streakService.Get(ctx, mux.Vars(r)["habitId"], userID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Streak not found")
			return
		}
		log.Printf("GetStreak: %v", err)
		respondError(w, http.StatusInternalServerError, internalMessage(err))
		return
	}

	respondSuccess(w, http.StatusOK, "", st)
}

func (h *StreakHandler) ResetStreak(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	st, err := h.streakService.Reset(ctx, mux.Vars(r)["habitId"], userID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Streak not found")
			return
		}
		log.Printf("ResetStreak: %v", err)
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondSuccess(w, http.StatusOK, "Streak reset successfully", st)
}

// GetStreakHistory serves GET /streaks/{habitId}/history. A habit that
// was never checked returns zeros and an empty history; failures, a
// missing habit included, surface as 500 on this route.
func (h *StreakHandler) GetStreakHistory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	days := queryDays(r, defaultHistoryDays)

	hist, err := h.streakService.History(ctx, mux.Vars(r)["habitId"], userID, days)
	if err != nil {
		log.Printf("GetStreakHistory: %v", err)
		respondError(w, http.StatusInternalServerError, internalMessage(err))
		return
	}

	respondSuccess(w, http.StatusOK, "", hist)
}
