package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	clerkuser "github.com/clerk/clerk-sdk-go/v2/user"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"habitgarden-api/internal/apperr"
	"habitgarden-api/internal/user"
)

type UserService struct {
	db *pgxpool.Pool

	// fetchProfile pulls the provider's profile for a subject id. Swapped
	// out in tests; the default goes through the Clerk user API.
	fetchProfile func(ctx context.Context, id string) (email, username string, avatarURL *string, err error)
}

func NewUserService(db *pgxpool.Pool) *UserService {
	s := &UserService{db: db}
	s.fetchProfile = s.fetchClerkProfile
	return s
}

// EnsureUser guarantees a local mirror row exists for the provider
// subject id and returns it. Found-or-created, idempotent; concurrent
// callers race harmlessly into ON CONFLICT DO NOTHING.
func (s *UserService) EnsureUser(ctx context.Context, id string) (*user.User, error) {
	if u, err := s.GetUserByID(ctx, id); err == nil {
		return u, nil
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}

	email, username, avatarURL, err := s.fetchProfile(ctx, id)
	if err != nil {
		// The token already proved the subject exists; mirror a placeholder
		// rather than failing the request.
		log.Printf("EnsureUser: provider profile lookup failed for %s: %v", id, err)
		email = ""
		username = placeholderUsername(id)
		avatarURL = nil
	}

	query := `
	INSERT INTO users (id, email, username, avatar_url, created_at, updated_at)
	VALUES ($1, $2, $3, $4, NOW(), NOW())
	ON CONFLICT (id) DO NOTHING
	`

	if _, err := s.db.Exec(ctx, query, id, email, username, avatarURL); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.GetUserByID(ctx, id)
}

func (s *UserService) GetUserByID(ctx context.Context, id string) (*user.User, error) {
	query := `
	SELECT id, email, username, avatar_url, created_at, updated_at
	FROM users
	WHERE id = $1
	`

	u := &user.User{}
	err := s.db.QueryRow(ctx, query, id).Scan(
		&u.ID,
		&u.Email,
		&u.Username,
		&u.AvatarURL,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", id, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return u, nil
}

// UpsertUser applies a provider webhook snapshot to the mirror row.
func (s *UserService) UpsertUser(ctx context.Context, id, email, username string, avatarURL *string) error {
	if username == "" {
		username = placeholderUsername(id)
	}

	query := `
	INSERT INTO users (id, email, username, avatar_url, created_at, updated_at)
	VALUES ($1, $2, $3, $4, NOW(), NOW())
	ON CONFLICT (id) DO UPDATE SET
		email = EXCLUDED.email,
		username = EXCLUDED.username,
		avatar_url = EXCLUDED.avatar_url,
		updated_at = NOW()
	`

	if _, err := s.db.Exec(ctx, query, id, email, username, avatarURL); err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// DeleteUser removes the mirror row. Habits and their progress/streak
// rows go with it through the cascades.
func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	result, err := s.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}

func (s *UserService) fetchClerkProfile(ctx context.Context, id string) (string, string, *string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	u, err := clerkuser.Get(ctx, id)
	if err != nil {
		return "", "", nil, err
	}

	var email string
	for _, addr := range u.EmailAddresses {
		if u.PrimaryEmailAddressID != nil && addr.ID == *u.PrimaryEmailAddressID {
			email = addr.EmailAddress
			break
		}
	}
	if email == "" && len(u.EmailAddresses) > 0 {
		email = u.EmailAddresses[0].EmailAddress
	}

	username := ""
	if u.Username != nil {
		username = *u.Username
	}
	if username == "" && email != "" {
		username = strings.SplitN(email, "@", 2)[0]
	}
	if username == "" {
		username = placeholderUsername(id)
	}

	return email, username, u.ImageURL, nil
}

func placeholderUsername(id string) string {
	short := id
	if len(short) > 8 {
		short = short[:8]
	}
	return "user_" + short
}
