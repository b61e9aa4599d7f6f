package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/salonkit/salon-api/internal/model"
	"github.com/salonkit/salon-api/internal/repository"
)

const pqUniqueViolation = "23505"

// CreateSession relies on the partial unique index on
// (employee_id) WHERE status = 'clocked_in' to enforce the single
// open session invariant at write time.
func (r *attendanceRepository) CreateSession(ctx context.Context, attendance *model.Attendance) error {
	query := `
		INSERT INTO attendance (
			id, organization_id, branch_id, employee_id, clock_in_time,
			status, location, notes, is_late, late_minutes, overtime_hours,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 0, $11, $11)
	`
	attendance.ID = uuid.New()
	attendance.CreatedAt = time.Now()
	attendance.UpdatedAt = attendance.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		attendance.ID,
		attendance.OrganizationID,
		attendance.BranchID,
		attendance.EmployeeID,
		attendance.ClockInTime,
		attendance.Status,
		attendance.Location,
		attendance.Notes,
		attendance.IsLate,
		attendance.LateMinutes,
		attendance.CreatedAt,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
		return repository.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("failed to create attendance: %w", err)
	}
	return nil
}

const attendanceColumns = `
	id, organization_id, branch_id, employee_id, clock_in_time,
	clock_out_time, total_hours, overtime_hours, status, location,
	notes, is_late, late_minutes, created_at, updated_at, deleted_at
`

func (r *attendanceRepository) GetOpenSessionByEmployee(ctx context.Context, employeeID uuid.UUID) (*model.Attendance, error) {
	query := `
		SELECT ` + attendanceColumns + `
		FROM attendance
		WHERE employee_id = $1 AND status = $2
	`
	var attendance model.Attendance
	err := r.db.GetContext(ctx, &attendance, query, employeeID, model.AttendanceStatusClockedIn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get open attendance: %w", err)
	}
	return &attendance, nil
}

func (r *attendanceRepository) GetOpenSession(ctx context.Context, id, employeeID uuid.UUID) (*model.Attendance, error) {
	query := `
		SELECT ` + attendanceColumns + `
		FROM attendance
		WHERE id = $1 AND employee_id = $2 AND status = $3
	`
	var attendance model.Attendance
	err := r.db.GetContext(ctx, &attendance, query, id, employeeID, model.AttendanceStatusClockedIn)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get open attendance: %w", err)
	}
	return &attendance, nil
}

func (r *attendanceRepository) CloseSession(ctx context.Context, attendance *model.Attendance) error {
	query := `
		UPDATE attendance
		SET clock_out_time = $1, total_hours = $2, overtime_hours = $3,
			status = $4, notes = $5, updated_at = $6
		WHERE id = $7 AND status = $8
	`
	attendance.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		attendance.ClockOutTime,
		attendance.TotalHours,
		attendance.OvertimeHours,
		model.AttendanceStatusClockedOut,
		attendance.Notes,
		attendance.UpdatedAt,
		attendance.ID,
		model.AttendanceStatusClockedIn,
	)
	if err != nil {
		return fmt.Errorf("failed to close attendance: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	attendance.Status = model.AttendanceStatusClockedOut
	return nil
}

func (r *attendanceRepository) ListStaleSessions(ctx context.Context, employeeID, organizationID uuid.UUID, cutoff time.Time) ([]*model.Attendance, error) {
	query := `
		SELECT ` + attendanceColumns + `
		FROM attendance
		WHERE employee_id = $1
		AND organization_id = $2
		AND status = $3
		AND clock_in_time < $4
	`
	var sessions []*model.Attendance
	err := r.db.SelectContext(ctx, &sessions, query, employeeID, organizationID, model.AttendanceStatusClockedIn, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale sessions: %w", err)
	}

	for _, session := range sessions {
		breaks, err := r.GetBreaks(ctx, session.ID)
		if err != nil {
			return nil, err
		}
		session.Breaks = breaks
	}
	return sessions, nil
}

func (r *attendanceRepository) Get(ctx context.Context, id, organizationID uuid.UUID) (*model.Attendance, error) {
	query := `
		SELECT ` + attendanceColumns + `
		FROM attendance
		WHERE id = $1 AND organization_id = $2
	`
	var attendance model.Attendance
	err := r.db.GetContext(ctx, &attendance, query, id, organizationID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get attendance: %w", err)
	}

	breaks, err := r.GetBreaks(ctx, attendance.ID)
	if err != nil {
		return nil, err
	}
	attendance.Breaks = breaks
	return &attendance, nil
}

func (r *attendanceRepository) List(ctx context.Context, filters *model.AttendanceFilters) ([]*model.Attendance, error) {
	query := `
		SELECT ` + attendanceColumns + `
		FROM attendance
		WHERE organization_id = $1
	`
	args := []interface{}{filters.OrganizationID}
	argCount := 2

	if filters.BranchID != nil {
		query += fmt.Sprintf(" AND branch_id = $%d", argCount)
		args = append(args, *filters.BranchID)
		argCount++
	}
	if filters.EmployeeID != nil {
		query += fmt.Sprintf(" AND employee_id = $%d", argCount)
		args = append(args, *filters.EmployeeID)
		argCount++
	}
	if filters.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argCount)
		args = append(args, *filters.Status)
		argCount++
	}
	if filters.StartDate != nil {
		query += fmt.Sprintf(" AND clock_in_time >= $%d", argCount)
		args = append(args, *filters.StartDate)
		argCount++
	}
	if filters.EndDate != nil {
		query += fmt.Sprintf(" AND clock_in_time <= $%d", argCount)
		args = append(args, *filters.EndDate)
		argCount++
	}

	query += " ORDER BY clock_in_time DESC"

	var sessions []*model.Attendance
	err := r.db.SelectContext(ctx, &sessions, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	return sessions, nil
}

func (r *attendanceRepository) GetBreaks(ctx context.Context, attendanceID uuid.UUID) ([]*model.Break, error) {
	query := `
		SELECT id, attendance_id, type, start_time, end_time,
			   duration_minutes, created_at, updated_at, deleted_at
		FROM breaks
		WHERE attendance_id = $1
		ORDER BY start_time ASC
	`
	var breaks []*model.Break
	err := r.db.SelectContext(ctx, &breaks, query, attendanceID)
	if err != nil {
		return nil, fmt.Errorf("failed to get breaks: %w", err)
	}
	return breaks, nil
}

func (r *attendanceRepository) GetOpenBreak(ctx context.Context, attendanceID uuid.UUID) (*model.Break, error) {
	query := `
		SELECT id, attendance_id, type, start_time, end_time,
			   duration_minutes, created_at, updated_at, deleted_at
		FROM breaks
		WHERE attendance_id = $1 AND end_time IS NULL
	`
	var brk model.Break
	err := r.db.GetContext(ctx, &brk, query, attendanceID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get open break: %w", err)
	}
	return &brk, nil
}

func (r *attendanceRepository) CreateBreak(ctx context.Context, brk *model.Break) error {
	query := `
		INSERT INTO breaks (
			id, attendance_id, type, start_time, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $5)
	`
	brk.ID = uuid.New()
	brk.CreatedAt = time.Now()
	brk.UpdatedAt = brk.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		brk.ID,
		brk.AttendanceID,
		brk.Type,
		brk.StartTime,
		brk.CreatedAt,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
		return repository.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("failed to create break: %w", err)
	}
	return nil
}

func (r *attendanceRepository) CloseBreak(ctx context.Context, brk *model.Break) error {
	query := `
		UPDATE breaks
		SET end_time = $1, duration_minutes = $2, updated_at = $3
		WHERE id = $4 AND end_time IS NULL
	`
	brk.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		brk.EndTime,
		brk.DurationMinutes,
		brk.UpdatedAt,
		brk.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to close break: %w", err)
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
