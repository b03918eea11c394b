package streak

import (
	"time"

	"github.com/google/uuid"

	"habitgarden-api/internal/progress"
)

// Streak is the per-(habit,user) counter row. LongestStreak only ever
// grows; LastChecked is nil until the first check.
type Streak struct {
	ID            uuid.UUID `json:"id"`
	HabitID       uuid.UUID `json:"habitId"`
	UserID        string    `json:"userId"`
	CurrentStreak int       `json:"currentStreak"`
	LongestStreak int       `json:"longestStreak"`
	LastChecked   *string   `json:"lastChecked,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// History is the GET /streaks/{habitId}/history payload: the counters
// plus the trailing window of progress records.
type History struct {
	CurrentStreak int               `json:"currentStreak"`
	LongestStreak int               `json:"longestStreak"`
	History       []progress.Record `json:"history"`
}
