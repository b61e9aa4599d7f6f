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

const settingsColumns = `
	id, organization_id, work_start_minute, work_end_minute,
	grace_period_minutes, overtime_threshold, require_location,
	auto_clock_out_hours, created_at, updated_at, deleted_at
`

// GetOrCreate inserts the defaults when the organization has no row
// yet. ON CONFLICT DO NOTHING keeps concurrent first reads safe; the
// re-select below always returns the winning row.
func (r *attendanceSettingsRepository) GetOrCreate(ctx context.Context, organizationID uuid.UUID) (*model.AttendanceSettings, error) {
	settings, err := r.get(ctx, organizationID)
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	defaults := model.DefaultAttendanceSettings(organizationID)
	insert := `
		INSERT INTO attendance_settings (
			id, organization_id, work_start_minute, work_end_minute,
			grace_period_minutes, overtime_threshold, require_location,
			auto_clock_out_hours, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		ON CONFLICT (organization_id) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, insert,
		uuid.New(),
		defaults.OrganizationID,
		defaults.WorkStartMinute,
		defaults.WorkEndMinute,
		defaults.GracePeriodMinutes,
		defaults.OvertimeThreshold,
		defaults.RequireLocation,
		defaults.AutoClockOutHours,
		time.Now(),
	); err != nil {
		return nil, fmt.Errorf("failed to create default settings: %w", err)
	}

	return r.get(ctx, organizationID)
}

func (r *attendanceSettingsRepository) get(ctx context.Context, organizationID uuid.UUID) (*model.AttendanceSettings, error) {
	query := `
		SELECT ` + settingsColumns + `
		FROM attendance_settings
		WHERE organization_id = $1
	`
	var settings model.AttendanceSettings
	err := r.db.GetContext(ctx, &settings, query, organizationID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get attendance settings: %w", err)
	}
	return &settings, nil
}

func (r *attendanceSettingsRepository) Update(ctx context.Context, settings *model.AttendanceSettings) error {
	query := `
		UPDATE attendance_settings
		SET work_start_minute = $1, work_end_minute = $2,
			grace_period_minutes = $3, overtime_threshold = $4,
			require_location = $5, auto_clock_out_hours = $6, updated_at = $7
		WHERE organization_id = $8
	`
	settings.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		settings.WorkStartMinute,
		settings.WorkEndMinute,
		settings.GracePeriodMinutes,
		settings.OvertimeThreshold,
		settings.RequireLocation,
		settings.AutoClockOutHours,
		settings.UpdatedAt,
		settings.OrganizationID,
	)
	if err != nil {
		return fmt.Errorf("failed to update attendance settings: %w", err)
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
