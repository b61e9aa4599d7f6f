package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/salonkit/salon-api/internal/model"
	"github.com/salonkit/salon-api/internal/repository"
)

func (r *userRepository) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	query := `
		SELECT id, organization_id, branch_id, first_name, last_name,
			   email, role, created_at, updated_at, deleted_at
		FROM users
		WHERE id = $1 AND deleted_at IS NULL
	`
	var user model.User
	err := r.db.GetContext(ctx, &user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (r *userRepository) ListArtists(ctx context.Context, organizationID, branchID uuid.UUID) ([]*model.User, error) {
	query := `
		SELECT id, organization_id, branch_id, first_name, last_name,
			   email, role, created_at, updated_at, deleted_at
		FROM users
		WHERE organization_id = $1
		AND branch_id = $2
		AND role = $3
		AND deleted_at IS NULL
		ORDER BY created_at ASC
	`
	var users []*model.User
	err := r.db.SelectContext(ctx, &users, query, organizationID, branchID, model.UserRoleArtist)
	if err != nil {
		return nil, fmt.Errorf("failed to list artists: %w", err)
	}
	return users, nil
}

// SetClockedIn upserts the staff profile so clock-in works even for
// staff created before profiles existed.
func (r *userRepository) SetClockedIn(ctx context.Context, userID uuid.UUID, clockedIn bool) error {
	query := `
		INSERT INTO staff_profiles (id, user_id, is_clocked_in, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (user_id)
		DO UPDATE SET is_clocked_in = EXCLUDED.is_clocked_in, updated_at = EXCLUDED.updated_at
	`
	_, err := r.db.ExecContext(ctx, query, uuid.New(), userID, clockedIn, time.Now())
	if err != nil {
		return fmt.Errorf("failed to set clock status: %w", err)
	}
	return nil
}
