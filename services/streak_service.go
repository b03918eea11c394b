package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"habitgarden-api/internal/apperr"
	"habitgarden-api/internal/dateutil"
	"habitgarden-api/internal/progress"
	"habitgarden-api/internal/streak"
)

const streakColumns = `id, habit_id, user_id, current_streak, longest_streak, to_char(last_checked, 'YYYY-MM-DD'), created_at, updated_at`

type StreakService struct {
	db  *pgxpool.Pool
	now func() time.Time
}

func NewStreakService(db *pgxpool.Pool) *StreakService {
	return &StreakService{db: db, now: time.Now}
}

// Check is the check-in operation: it forces today's progress record to
// completed, recomputes the current streak from the full completed-day
// history, raises the longest-streak high-water mark if needed and
// persists the result. There is no read-only variant of this; Get is the
// side-effect-free accessor.
//
// The read-recompute-write sequence is not serialized against concurrent
// checks for the same habit. The uniqueness constraints keep the rows
// consistent; two simultaneous calls may compute from the same snapshot
// and briefly disagree on the counter, converging on the next check.
func (s *StreakService) Check(ctx context.Context, habitID, userID string) (*streak.Streak, error) {
	id, err := verifyHabitOwnership(ctx, s.db, habitID, userID)
	if err != nil {
		return nil, err
	}

	if err := s.ensureStreakRow(ctx, id, userID); err != nil {
		return nil, err
	}

	today := dateutil.Today(s.now())

	// Checking a streak implies a check-in: synthesize or repair today's
	// record before counting.
	markQuery := `
	INSERT INTO progress (id, habit_id, user_id, date, completed, created_at, updated_at)
	VALUES ($1, $2, $3, $4, true, NOW(), NOW())
	ON CONFLICT (habit_id, user_id, date)
	DO UPDATE SET completed = true, updated_at = NOW()
	`
	if _, err := s.db.Exec(ctx, markQuery, uuid.New(), id, userID, today); err != nil {
		return nil, fmt.Errorf("failed to record today's check-in: %w", err)
	}

	completed, err := s.completedDates(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	newStreak := currentStreak(completed, today)

	updateQuery := `
	UPDATE streaks
	SET
		current_streak = $3,
		longest_streak = GREATEST(longest_streak, $3),
		last_checked = $4,
		updated_at = NOW()
	WHERE habit_id = $1 AND user_id = $2
	RETURNING ` + streakColumns

	st := &streak.Streak{}
	err = s.db.QueryRow(ctx, updateQuery, id, userID, newStreak, today).Scan(
		&st.ID,
		&st.HabitID,
		&st.UserID,
		&st.CurrentStreak,
		&st.LongestStreak,
		&st.LastChecked,
		&st.CreatedAt,
		&st.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update streak: %w", err)
	}

	return st, nil
}

// Get is a pure read. A habit that has never been checked has no streak
// row; that is reported as ErrNotFound for the handler to map.
func (s *StreakService) Get(ctx context.Context, habitID, userID string) (*streak.Streak, error) {
	id, err := parseHabitID(habitID)
	if err != nil {
		return nil, err
	}

	query := `
	SELECT ` + streakColumns + `
	FROM streaks
	WHERE habit_id = $1 AND user_id = $2
	`

	st := &streak.Streak{}
	err = s.db.QueryRow(ctx, query, id, userID).Scan(
		&st.ID,
		&st.HabitID,
		&st.UserID,
		&st.CurrentStreak,
		&st.LongestStreak,
		&st.LastChecked,
		&st.CreatedAt,
		&st.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("streak for habit %s: %w", habitID, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get streak: %w", err)
	}

	return st, nil
}

// Reset zeroes the current streak. The longest streak is a high-water
// mark and stays where it is.
func (s *StreakService) Reset(ctx context.Context, habitID, userID string) (*streak.Streak, error) {
	id, err := parseHabitID(habitID)
	if err != nil {
		return nil, err
	}

	query := `
	UPDATE streaks
	SET current_streak = 0, updated_at = NOW()
	WHERE habit_id = $1 AND user_id = $2
	RETURNING ` + streakColumns

	st := &streak.Streak{}
	err = s.db.QueryRow(ctx, query, id, userID).Scan(
		&st.ID,
		&st.HabitID,
		&st.UserID,
		&st.CurrentStreak,
		&st.LongestStreak,
		&st.LastChecked,
		&st.CreatedAt,
		&st.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("streak for habit %s: %w", habitID, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to reset streak: %w", err)
	}

	return st, nil
}

// History returns the counters plus the trailing window of progress
// records. A habit that was never checked yields zeros and an empty
// history, which is not an error; ErrNotFound is reserved for a habit
// the caller does not own.
func (s *StreakService) History(ctx context.Context, habitID, userID string, days int) (*streak.History, error) {
	id, err := verifyHabitOwnership(ctx, s.db, habitID, userID)
	if err != nil {
		return nil, err
	}

	hist := &streak.History{History: []progress.Record{}}

	err = s.db.QueryRow(
		ctx,
		`SELECT current_streak, longest_streak FROM streaks WHERE habit_id = $1 AND user_id = $2`,
		id, userID,
	).Scan(&hist.CurrentStreak, &hist.LongestStreak)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return hist, nil
		}
		return nil, fmt.Errorf("failed to get streak: %w", err)
	}

	query := `
	SELECT ` + progressColumns + `
	FROM progress
	WHERE habit_id = $1 AND user_id = $2 AND date >= $3
	ORDER BY date
	`

	rows, err := s.db.Query(ctx, query, id, userID, dateutil.WindowStart(s.now(), days))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch streak history: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		rec := progress.Record{}
		err := rows.Scan(
			&rec.ID,
			&rec.HabitID,
			&rec.UserID,
			&rec.Date,
			&rec.Completed,
			&rec.CreatedAt,
			&rec.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan progress row: %w", err)
		}
		hist.History = append(hist.History, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating progress rows: %w", err)
	}

	return hist, nil
}

func (s *StreakService) ensureStreakRow(ctx context.Context, habitID uuid.UUID, userID string) error {
	query := `
	INSERT INTO streaks (id, habit_id, user_id, current_streak, longest_streak, created_at, updated_at)
	VALUES ($1, $2, $3, 0, 0, NOW(), NOW())
	ON CONFLICT (habit_id, user_id) DO NOTHING
	`
	if _, err := s.db.Exec(ctx, query, uuid.New(), habitID, userID); err != nil {
		return fmt.Errorf("failed to create streak record: %w", err)
	}
	return nil
}

func (s *StreakService) completedDates(ctx context.Context, habitID uuid.UUID, userID string) (map[string]bool, error) {
	query := `
	SELECT to_char(date, 'YYYY-MM-DD')
	FROM progress
	WHERE habit_id = $1 AND user_id = $2 AND completed = true
	`

	rows, err := s.db.Query(ctx, query, habitID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch completed dates: %w", err)
	}
	defer rows.Close()

	completed := map[string]bool{}
	for rows.Next() {
		var day string
		if err := rows.Scan(&day); err != nil {
			return nil, fmt.Errorf("failed to scan completed date: %w", err)
		}
		completed[day] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating completed dates: %w", err)
	}

	return completed, nil
}
