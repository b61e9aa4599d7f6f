package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/salonkit/salon-api/internal/model"
	"github.com/salonkit/salon-api/internal/repository"
)

// ReplaceSchedule deletes and recreates the artist's weekly schedule in
// one transaction, so a concurrent reader never observes a half-empty
// schedule.
func (r *availabilityRepository) ReplaceSchedule(ctx context.Context, artistID uuid.UUID, slots []*model.AvailabilitySlot) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM availability_slots WHERE artist_id = $1`, artistID); err != nil {
		return fmt.Errorf("failed to clear schedule: %w", err)
	}

	insert := `
		INSERT INTO availability_slots (
			id, organization_id, artist_id, day_of_week,
			start_minute, end_minute, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
	`
	now := time.Now()
	for _, slot := range slots {
		slot.ID = uuid.New()
		slot.CreatedAt = now
		slot.UpdatedAt = now
		if _, err := tx.ExecContext(ctx, insert,
			slot.ID,
			slot.OrganizationID,
			slot.ArtistID,
			slot.DayOfWeek,
			slot.StartMinute,
			slot.EndMinute,
			now,
		); err != nil {
			return fmt.Errorf("failed to insert schedule slot: %w", err)
		}
	}

	return tx.Commit()
}

// GetSchedule orders by day then insertion time so duplicate days
// resolve deterministically to the earliest inserted row.
func (r *availabilityRepository) GetSchedule(ctx context.Context, artistID uuid.UUID) ([]*model.AvailabilitySlot, error) {
	query := `
		SELECT id, organization_id, artist_id, day_of_week,
			   start_minute, end_minute, created_at, updated_at, deleted_at
		FROM availability_slots
		WHERE artist_id = $1
		ORDER BY day_of_week ASC, created_at ASC, id ASC
	`
	var slots []*model.AvailabilitySlot
	err := r.db.SelectContext(ctx, &slots, query, artistID)
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}
	return slots, nil
}

func (r *availabilityRepository) CreateBlockout(ctx context.Context, blockout *model.Blockout) error {
	query := `
		INSERT INTO blockouts (
			id, organization_id, artist_id, start_time, end_time,
			reason, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
	`
	blockout.ID = uuid.New()
	blockout.CreatedAt = time.Now()
	blockout.UpdatedAt = blockout.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		blockout.ID,
		blockout.OrganizationID,
		blockout.ArtistID,
		blockout.StartTime,
		blockout.EndTime,
		blockout.Reason,
		blockout.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create blockout: %w", err)
	}
	return nil
}

func (r *availabilityRepository) GetFutureBlockouts(ctx context.Context, artistID uuid.UUID, now time.Time) ([]*model.Blockout, error) {
	query := `
		SELECT id, organization_id, artist_id, start_time, end_time,
			   reason, created_at, updated_at, deleted_at
		FROM blockouts
		WHERE artist_id = $1 AND start_time >= $2
		ORDER BY start_time ASC
	`
	var blockouts []*model.Blockout
	err := r.db.SelectContext(ctx, &blockouts, query, artistID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to get blockouts: %w", err)
	}
	return blockouts, nil
}

func (r *availabilityRepository) GetBlockoutsInRange(ctx context.Context, artistID uuid.UUID, start, end time.Time) ([]*model.Blockout, error) {
	query := `
		SELECT id, organization_id, artist_id, start_time, end_time,
			   reason, created_at, updated_at, deleted_at
		FROM blockouts
		WHERE artist_id = $1
		AND start_time <= $2
		AND end_time >= $3
		ORDER BY start_time ASC
	`
	var blockouts []*model.Blockout
	err := r.db.SelectContext(ctx, &blockouts, query, artistID, end, start)
	if err != nil {
		return nil, fmt.Errorf("failed to get blockouts in range: %w", err)
	}
	return blockouts, nil
}

func (r *availabilityRepository) DeleteBlockout(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM blockouts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete blockout: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}
