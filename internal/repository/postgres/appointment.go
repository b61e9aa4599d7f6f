package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/salonkit/salon-api/internal/model"
	"github.com/salonkit/salon-api/internal/repository"
)

// Book holds a transaction-scoped advisory lock on the artist while it
// re-checks conflicts and inserts, so two concurrent bookings for the
// same artist serialize and at most one can win an overlapping slot.
// The conflict test is the strict half-open overlap
// (existing.start < new.end AND new.start < existing.end); a booking
// that exactly abuts an existing one is allowed here even though the
// slot generator never offers such a slot.
func (r *appointmentRepository) Book(ctx context.Context, appointment *model.Appointment, event *model.OutboxEvent) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`SELECT pg_advisory_xact_lock(hashtext($1))`,
			appointment.ArtistID.String(),
		); err != nil {
			return fmt.Errorf("failed to lock artist calendar: %w", err)
		}

		conflictQuery := `
			SELECT EXISTS (
				SELECT 1 FROM appointments
				WHERE artist_id = $1
				AND status IN ('confirmed', 'completed')
				AND start_time < $3
				AND end_time > $2
			) OR EXISTS (
				SELECT 1 FROM blockouts
				WHERE artist_id = $1
				AND start_time < $3
				AND end_time > $2
			)
		`
		var hasConflict bool
		if err := tx.GetContext(ctx, &hasConflict, conflictQuery,
			appointment.ArtistID, appointment.StartTime, appointment.EndTime,
		); err != nil {
			return fmt.Errorf("failed to check conflicts: %w", err)
		}
		if hasConflict {
			return repository.ErrConflict
		}

		insert := `
			INSERT INTO appointments (
				id, organization_id, branch_id, artist_id, customer_id,
				service_id, start_time, end_time, status, price, notes,
				created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
		`
		appointment.ID = uuid.New()
		appointment.CreatedAt = time.Now()
		appointment.UpdatedAt = appointment.CreatedAt

		if _, err := tx.ExecContext(ctx, insert,
			appointment.ID,
			appointment.OrganizationID,
			appointment.BranchID,
			appointment.ArtistID,
			appointment.CustomerID,
			appointment.ServiceID,
			appointment.StartTime,
			appointment.EndTime,
			appointment.Status,
			appointment.Price,
			appointment.Notes,
			appointment.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to create appointment: %w", err)
		}

		if event != nil {
			if err := insertOutboxEvent(ctx, tx, event); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *appointmentRepository) Get(ctx context.Context, id, organizationID uuid.UUID) (*model.Appointment, error) {
	query := `
		SELECT id, organization_id, branch_id, artist_id, customer_id,
			   service_id, start_time, end_time, status, price, notes,
			   created_at, updated_at, deleted_at
		FROM appointments
		WHERE id = $1 AND organization_id = $2
	`
	var appointment model.Appointment
	err := r.db.GetContext(ctx, &appointment, query, id, organizationID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &appointment, nil
}

func (r *appointmentRepository) Update(ctx context.Context, appointment *model.Appointment, event *model.OutboxEvent) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			UPDATE appointments
			SET status = $1, notes = $2, updated_at = $3
			WHERE id = $4 AND organization_id = $5
		`
		appointment.UpdatedAt = time.Now()

		result, err := tx.ExecContext(ctx, query,
			appointment.Status,
			appointment.Notes,
			appointment.UpdatedAt,
			appointment.ID,
			appointment.OrganizationID,
		)
		if err != nil {
			return fmt.Errorf("failed to update appointment: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return repository.ErrNotFound
		}

		if event != nil {
			return insertOutboxEvent(ctx, tx, event)
		}
		return nil
	})
}

func (r *appointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	query := `
		SELECT id, organization_id, branch_id, artist_id, customer_id,
			   service_id, start_time, end_time, status, price, notes,
			   created_at, updated_at, deleted_at
		FROM appointments
		WHERE organization_id = $1
	`
	args := []interface{}{filters.OrganizationID}
	argCount := 2

	if filters.BranchID != nil {
		query += fmt.Sprintf(" AND branch_id = $%d", argCount)
		args = append(args, *filters.BranchID)
		argCount++
	}
	if filters.ArtistID != nil {
		query += fmt.Sprintf(" AND artist_id = $%d", argCount)
		args = append(args, *filters.ArtistID)
		argCount++
	}
	if filters.CustomerID != nil {
		query += fmt.Sprintf(" AND customer_id = $%d", argCount)
		args = append(args, *filters.CustomerID)
		argCount++
	}
	if filters.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argCount)
		args = append(args, *filters.Status)
		argCount++
	}
	if filters.StartDate != nil {
		query += fmt.Sprintf(" AND start_time >= $%d", argCount)
		args = append(args, *filters.StartDate)
		argCount++
	}
	if filters.EndDate != nil {
		query += fmt.Sprintf(" AND end_time <= $%d", argCount)
		args = append(args, *filters.EndDate)
		argCount++
	}

	query += " ORDER BY start_time ASC"

	var appointments []*model.Appointment
	err := r.db.SelectContext(ctx, &appointments, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

// GetBlockingInRange uses inclusive boundary comparison to match the
// slot generator's window query.
func (r *appointmentRepository) GetBlockingInRange(ctx context.Context, artistID uuid.UUID, start, end time.Time) ([]*model.Appointment, error) {
	query := `
		SELECT id, organization_id, branch_id, artist_id, customer_id,
			   service_id, start_time, end_time, status, price, notes,
			   created_at, updated_at, deleted_at
		FROM appointments
		WHERE artist_id = $1
		AND status IN ('confirmed', 'completed')
		AND start_time <= $2
		AND end_time >= $3
		ORDER BY start_time ASC
	`
	var appointments []*model.Appointment
	err := r.db.SelectContext(ctx, &appointments, query, artistID, end, start)
	if err != nil {
		return nil, fmt.Errorf("failed to get artist appointments: %w", err)
	}
	return appointments, nil
}
