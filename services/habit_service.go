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
	"habitgarden-api/internal/habit"
)

const habitColumns = `id, user_id, title, description, category, color, frequency, is_active, created_at, updated_at`

type HabitService struct {
	db *pgxpool.Pool
}

func NewHabitService(db *pgxpool.Pool) *HabitService {
	return &HabitService{db: db}
}

func (s *HabitService) CreateHabit(ctx context.Context, userID string, req *habit.CreateHabitRequest) (*habit.Habit, error) {
	h := &habit.Habit{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     req.Title,
		Category:  "general",
		Color:     "#16a34a",
		Frequency: habit.Weekdays,
		IsActive:  true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if req.Description != nil {
		h.Description = *req.Description
	}
	if req.Category != nil {
		h.Category = *req.Category
	}
	if req.Color != nil {
		h.Color = *req.Color
	}
	if len(req.Frequency) > 0 {
		h.Frequency = req.Frequency
	}

	query := `
	INSERT INTO habits (id, user_id, title, description, category, color, frequency, is_active, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	RETURNING ` + habitColumns

	err := s.db.QueryRow(
		ctx,
		query,
		h.ID,
		h.UserID,
		h.Title,
		h.Description,
		h.Category,
		h.Color,
		h.Frequency,
		h.IsActive,
		h.CreatedAt,
		h.UpdatedAt,
	).Scan(
		&h.ID,
		&h.UserID,
		&h.Title,
		&h.Description,
		&h.Category,
		&h.Color,
		&h.Frequency,
		&h.IsActive,
		&h.CreatedAt,
		&h.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create habit: %w", err)
	}

	return h, nil
}

func (s *HabitService) GetHabits(ctx context.Context, userID string) ([]*habit.Habit, error) {
	query := `
	SELECT ` + habitColumns + `
	FROM habits
	WHERE user_id = $1
	ORDER BY created_at
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch habits: %w", err)
	}
	defer rows.Close()

	habits := []*habit.Habit{}
	for rows.Next() {
		h := &habit.Habit{}
		err := rows.Scan(
			&h.ID,
			&h.UserID,
			&h.Title,
			&h.Description,
			&h.Category,
			&h.Color,
			&h.Frequency,
			&h.IsActive,
			&h.CreatedAt,
			&h.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan habit: %w", err)
		}
		habits = append(habits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating habits: %w", err)
	}

	return habits, nil
}

func (s *HabitService) GetHabitByID(ctx context.Context, habitID, userID string) (*habit.Habit, error) {
	id, err := parseHabitID(habitID)
	if err != nil {
		return nil, err
	}

	query := `
	SELECT ` + habitColumns + `
	FROM habits
	WHERE id = $1 AND user_id = $2
	`

	h := &habit.Habit{}
	err = s.db.QueryRow(ctx, query, id, userID).Scan(
		&h.ID,
		&h.UserID,
		&h.Title,
		&h.Description,
		&h.Category,
		&h.Color,
		&h.Frequency,
		&h.IsActive,
		&h.CreatedAt,
		&h.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("habit %s: %w", habitID, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get habit: %w", err)
	}

	return h, nil
}

func (s *HabitService) UpdateHabit(ctx context.Context, habitID, userID string, req *habit.UpdateHabitRequest) (*habit.Habit, error) {
	id, err := parseHabitID(habitID)
	if err != nil {
		return nil, err
	}

	// NULL parameters leave the stored column untouched; only frequency
	// needs an explicit flag because an empty array is not NULL.
	query := `
	UPDATE habits
	SET
		title = COALESCE($3, title),
		description = COALESCE($4, description),
		category = COALESCE($5, category),
		color = COALESCE($6, color),
		frequency = CASE WHEN $7::boolean THEN $8::text[] ELSE frequency END,
		updated_at = NOW()
	WHERE id = $1 AND user_id = $2
	RETURNING ` + habitColumns

	h := &habit.Habit{}
	err = s.db.QueryRow(
		ctx,
		query,
		id,
		userID,
		req.Title,
		req.Description,
		req.Category,
		req.Color,
		len(req.Frequency) > 0,
		req.Frequency,
	).Scan(
		&h.ID,
		&h.UserID,
		&h.Title,
		&h.Description,
		&h.Category,
		&h.Color,
		&h.Frequency,
		&h.IsActive,
		&h.CreatedAt,
		&h.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("habit %s: %w", habitID, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update habit: %w", err)
	}

	return h, nil
}

// DeleteHabit removes the habit; progress and streak rows cascade.
func (s *HabitService) DeleteHabit(ctx context.Context, habitID, userID string) error {
	id, err := parseHabitID(habitID)
	if err != nil {
		return err
	}

	result, err := s.db.Exec(ctx, `DELETE FROM habits WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete habit: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("habit %s: %w", habitID, apperr.ErrNotFound)
	}

	return nil
}

// parseHabitID folds malformed ids into ErrNotFound: a habit id that
// cannot exist is indistinguishable from one that does not.
func parseHabitID(habitID string) (uuid.UUID, error) {
	id, err := uuid.Parse(habitID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("habit %s: %w", habitID, apperr.ErrNotFound)
	}
	return id, nil
}

// verifyHabitOwnership is the shared gate for ledger and streak
// operations: the habit must exist and belong to the caller.
func verifyHabitOwnership(ctx context.Context, db *pgxpool.Pool, habitID, userID string) (uuid.UUID, error) {
	id, err := parseHabitID(habitID)
	if err != nil {
		return uuid.Nil, err
	}

	var exists bool
	err = db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM habits WHERE id = $1 AND user_id = $2)`, id, userID).Scan(&exists)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to verify habit ownership: %w", err)
	}
	if !exists {
		return uuid.Nil, fmt.Errorf("habit %s: %w", habitID, apperr.ErrNotFound)
	}

	return id, nil
}
