package progress

import (
	"time"

	"github.com/google/uuid"
)

// Record is one calendar day's completion flag for a habit. At most one
// record exists per (habit, user, date); marking a day is an upsert.
type Record struct {
	ID        uuid.UUID `json:"id"`
	HabitID   uuid.UUID `json:"habitId"`
	UserID    string    `json:"userId"`
	Date      string    `json:"date"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Heatmap maps canonical day strings to their completion flag, the shape
// the calendar visualization consumes.
type Heatmap map[string]bool

type MarkRequest struct {
	Date string `json:"date,omitempty"`
}
