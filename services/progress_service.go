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
)

const progressColumns = `id, habit_id, user_id, to_char(date, 'YYYY-MM-DD'), completed, created_at, updated_at`

type ProgressService struct {
	db  *pgxpool.Pool
	now func() time.Time
}

func NewProgressService(db *pgxpool.Pool) *ProgressService {
	return &ProgressService{db: db, now: time.Now}
}

// Mark upserts the completion record for one day. Repeated marks of the
// same day collapse onto the single row guarded by the
// (habit_id, user_id, date) uniqueness constraint.
func (s *ProgressService) Mark(ctx context.Context, habitID, date, userID string) (*progress.Record, error) {
	id, err := verifyHabitOwnership(ctx, s.db, habitID, userID)
	if err != nil {
		return nil, err
	}

	day, err := dateutil.Normalize(date)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, apperr.ErrInvalidInput)
	}

	query := `
	INSERT INTO progress (id, habit_id, user_id, date, completed, created_at, updated_at)
	VALUES ($1, $2, $3, $4, true, NOW(), NOW())
	ON CONFLICT (habit_id, user_id, date)
	DO UPDATE SET completed = true, updated_at = NOW()
	RETURNING ` + progressColumns

	rec := &progress.Record{}
	err = s.db.QueryRow(ctx, query, uuid.New(), id, userID, day).Scan(
		&rec.ID,
		&rec.HabitID,
		&rec.UserID,
		&rec.Date,
		&rec.Completed,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to mark progress: %w", err)
	}

	return rec, nil
}

// Unmark flips an existing record to completed=false. Unlike Mark it
// never creates a row; unmarking a day that was never marked is a no-op
// and returns a nil record.
func (s *ProgressService) Unmark(ctx context.Context, habitID, date, userID string) (*progress.Record, error) {
	id, err := verifyHabitOwnership(ctx, s.db, habitID, userID)
	if err != nil {
		return nil, err
	}

	day, err := dateutil.Normalize(date)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, apperr.ErrInvalidInput)
	}

	query := `
	UPDATE progress
	SET completed = false, updated_at = NOW()
	WHERE habit_id = $1 AND user_id = $2 AND date = $3
	RETURNING ` + progressColumns

	rec := &progress.Record{}
	err = s.db.QueryRow(ctx, query, id, userID, day).Scan(
		&rec.ID,
		&rec.HabitID,
		&rec.UserID,
		&rec.Date,
		&rec.Completed,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to unmark progress: %w", err)
	}

	return rec, nil
}

// GetHeatmap returns date->completed for every record inside the
// trailing window. Always a map, never nil, so empty windows marshal
// as {}.
func (s *ProgressService) GetHeatmap(ctx context.Context, habitID, userID string, windowDays int) (progress.Heatmap, error) {
	id, err := verifyHabitOwnership(ctx, s.db, habitID, userID)
	if err != nil {
		return nil, err
	}

	query := `
	SELECT to_char(date, 'YYYY-MM-DD'), completed
	FROM progress
	WHERE habit_id = $1 AND user_id = $2 AND date >= $3
	`

	rows, err := s.db.Query(ctx, query, id, userID, dateutil.WindowStart(s.now(), windowDays))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch progress: %w", err)
	}
	defer rows.Close()

	heatmap := progress.Heatmap{}
	for rows.Next() {
		var day string
		var completed bool
		if err := rows.Scan(&day, &completed); err != nil {
			return nil, fmt.Errorf("failed to scan progress row: %w", err)
		}
		heatmap[day] = completed
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating progress rows: %w", err)
	}

	return heatmap, nil
}

// GetRange fetches records between two days, both endpoints included. A
// range with no records yields an empty slice, not an error.
func (s *ProgressService) GetRange(ctx context.Context, habitID, userID, startDate, endDate string) ([]progress.Record, error) {
	id, err := verifyHabitOwnership(ctx, s.db, habitID, userID)
	if err != nil {
		return nil, err
	}

	start, err := dateutil.Normalize(startDate)
	if err != nil {
		return nil, fmt.Errorf("start date %v: %w", err, apperr.ErrInvalidInput)
	}
	end, err := dateutil.Normalize(endDate)
	if err != nil {
		return nil, fmt.Errorf("end date %v: %w", err, apperr.ErrInvalidInput)
	}

	query := `
	SELECT ` + progressColumns + `
	FROM progress
	WHERE habit_id = $1 AND user_id = $2 AND date >= $3 AND date <= $4
	ORDER BY date
	`

	rows, err := s.db.Query(ctx, query, id, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch progress range: %w", err)
	}
	defer rows.Close()

	records := []progress.Record{}
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
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating progress rows: %w", err)
	}

	return records, nil
}
