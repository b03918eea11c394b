package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"habitgarden-api/internal/dateutil"
	"habitgarden-api/internal/progress"
	"habitgarden-api/middleware"
)

const defaultHeatmapDays = 365

// ProgressService is the ledger surface the handler consumes.
type ProgressService interface {
	Mark(ctx context.Context, habitID, date, userID string) (*progress.Record, error)
	Unmark(ctx context.Context, habitID, date, userID string) (*progress.Record, error)
	GetHeatmap(ctx context.Context, habitID, userID string, windowDays int) (progress.Heatmap, error)
	GetRange(ctx context.Context, habitID, userID, startDate, endDate string) ([]progress.Record, error)
}

type ProgressHandler struct {
	progressService ProgressService
}

func NewProgressHandler(progressService ProgressService) *ProgressHandler {
	return &ProgressHandler{progressService: progressService}
}

// GetHeatmap serves GET /progress/{habitId}. Every failure, a missing
// habit included, surfaces as 500 on this route.
func (h *ProgressHandler) GetHeatmap(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	days := queryDays(r, defaultHeatmapDays)

	heatmap, err := h.progressService.GetHeatmap(ctx, mux.Vars(r)["habitId"], userID, days)
	if err != nil {
		log.Printf("GetHeatmap: %v", err)
		respondError(w, http.StatusInternalServerError, internalMessage(err))
		return
	}

	respondSuccess(w, http.StatusOK, "", heatmap)
}

func (h *ProgressHandler) GetRange(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	startDate := r.URL.Query().Get("startDate")
	endDate := r.URL.Query().Get("endDate")
	if startDate == "" || endDate == "" {
		respondError(w, http.StatusBadRequest, "startDate and endDate are required")
		return
	}

	records, err := h.progressService.GetRange(ctx, mux.Vars(r)["habitId"], userID, startDate, endDate)
	if err != nil {
		log.Printf("GetRange: %v", err)
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondSuccess(w, http.StatusOK, "", records)
}

func (h *ProgressHandler) MarkProgress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	// The body is optional; an absent date means today.
	var req progress.MarkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	date := req.Date
	if date == "" {
		date = dateutil.Today(time.Now())
	}

	record, err := h.progressService.Mark(ctx, mux.Vars(r)["habitId"], date, userID)
	if err != nil {
		log.Printf("MarkProgress: %v", err)
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondSuccess(w, http.StatusOK, "Progress marked successfully", record)
}

// UnmarkProgress serves DELETE /progress/{habitId}/{date}. Unmarking a
// day that was never marked is still a 200; the data field stays empty.
func (h *ProgressHandler) UnmarkProgress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	vars := mux.Vars(r)
	record, err := h.progressService.Unmark(ctx, vars["habitId"], vars["date"], userID)
	if err != nil {
		log.Printf("UnmarkProgress: %v", err)
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondSuccess(w, http.StatusOK, "Progress unmarked successfully", record)
}

// queryDays reads the ?days=N parameter, falling back to the route's
// default window on junk or absence.
func queryDays(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("days")
	if raw == "" {
		return fallback
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days <= 0 {
		return fallback
	}
	return days
}
