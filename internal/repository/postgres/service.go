package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/salonkit/salon-api/internal/model"
	"github.com/salonkit/salon-api/internal/repository"
)

func (r *serviceRepository) Get(ctx context.Context, id uuid.UUID) (*model.Service, error) {
	query := `
		SELECT id, organization_id, branch_id, name, description,
			   duration, base_price, status,
			   created_at, updated_at, deleted_at
		FROM services
		WHERE id = $1 AND deleted_at IS NULL
	`
	var service model.Service
	err := r.db.GetContext(ctx, &service, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get service: %w", err)
	}
	return &service, nil
}
