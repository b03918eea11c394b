package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCurrentStreak(t *testing.T) {
	tests := []struct {
		name      string
		completed map[string]bool
		today     string
		want      int
	}{
		{
			name:      "no history",
			completed: map[string]bool{},
			today:     "2025-03-14",
			want:      0,
		},
		{
			name:      "today only",
			completed: map[string]bool{"2025-03-14": true},
			today:     "2025-03-14",
			want:      1,
		},
		{
			name: "four consecutive days",
			completed: map[string]bool{
				"2025-03-11": true,
				"2025-03-12": true,
				"2025-03-13": true,
				"2025-03-14": true,
			},
			today: "2025-03-14",
			want:  4,
		},
		{
			name: "gap resets the count",
			completed: map[string]bool{
				"2025-03-10": true,
				"2025-03-11": true,
				// nothing on the 12th
				"2025-03-13": true,
				"2025-03-14": true,
			},
			today: "2025-03-14",
			want:  2,
		},
		{
			name: "history without today counts zero",
			completed: map[string]bool{
				"2025-03-12": true,
				"2025-03-13": true,
			},
			today: "2025-03-14",
			want:  0,
		},
		{
			name: "future marks are ignored by the backward walk",
			completed: map[string]bool{
				"2025-03-14": true,
				"2025-03-20": true,
			},
			today: "2025-03-14",
			want:  1,
		},
		{
			name: "streak crosses a month boundary",
			completed: map[string]bool{
				"2025-02-27": true,
				"2025-02-28": true,
				"2025-03-01": true,
				"2025-03-02": true,
			},
			today: "2025-03-02",
			want:  4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, currentStreak(tt.completed, tt.today))
		})
	}
}
