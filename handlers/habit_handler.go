package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"habitgarden-api/internal/apperr"
	"habitgarden-api/internal/habit"
	"habitgarden-api/middleware"
)

// HabitService is the registry surface the handler consumes.
type HabitService interface {
	CreateHabit(ctx context.Context, userID string, req *habit.CreateHabitRequest) (*habit.Habit, error)
	GetHabits(ctx context.Context, userID string) ([]*habit.Habit, error)
	GetHabitByID(ctx context.Context, habitID, userID string) (*habit.Habit, error)
	UpdateHabit(ctx context.Context, habitID, userID string, req *habit.UpdateHabitRequest) (*habit.Habit, error)
	DeleteHabit(ctx context.Context, habitID, userID string) error
}

type HabitHandler struct {
	habitService HabitService
}

func NewHabitHandler(habitService HabitService) *HabitHandler {
	return &HabitHandler{habitService: habitService}
}

func (h *HabitHandler) CreateHabit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req habit.CreateHabitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	created, err := h.habitService.CreateHabit(ctx, userID, &req)
	if err != nil {
		log.Printf("CreateHabit: %v", err)
		respondError(w, http.StatusBadRequest, "Failed to create habit")
		return
	}

	respondSuccess(w, http.StatusCreated, "Habit created successfully", created)
}

func (h *HabitHandler) GetHabits(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	habits, err := h.habitService.GetHabits(ctx, userID)
	if err != nil {
		log.Printf("GetHabits: %v", err)
		respondError(w, http.StatusInternalServerError, internalMessage(err))
		return
	}

	respondSuccess(w, http.StatusOK, "", habits)
}

func (h *HabitHandler) GetHabitByID(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	found, err := h.habitService.GetHabitByID(ctx, mux.Vars(r)["id"], userID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Habit not found")
			return
		}
		log.Printf("GetHabitByID: %v", err)
		respondError(w, http.StatusInternalServerError, internalMessage(err))
		return
	}

	respondSuccess(w, http.StatusOK, "", found)
}

func (h *HabitHandler) UpdateHabit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req habit.UpdateHabitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	updated, err := h.habitService.UpdateHabit(ctx, mux.Vars(r)["id"], userID, &req)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Habit not found")
			return
		}
		log.Printf("UpdateHabit: %v", err)
		respondError(w, http.StatusBadRequest, "Failed to update habit")
		return
	}

	respondSuccess(w, http.StatusOK, "Habit updated successfully", updated)
}

func (h *HabitHandler) DeleteHabit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	if err := h.habitService.DeleteHabit(ctx, mux.Vars(r)["id"], userID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Habit not found")
			return
		}
		log.Printf("DeleteHabit: %v", err)
		respondError(w, http.StatusInternalServerError, internalMessage(err))
		return
	}

	respondSuccess(w, http.StatusOK, "Habit deleted successfully", nil)
}
