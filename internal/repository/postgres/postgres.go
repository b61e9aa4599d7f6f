package postgres

import (
	"github.com/jmoiron/sqlx"

	"github.com/salonkit/salon-api/internal/repository"
)

type serviceRepository struct {
	db *sqlx.DB
}

type userRepository struct {
	db *sqlx.DB
}

type availabilityRepository struct {
	db *sqlx.DB
}

type appointmentRepository struct {
	BaseRepository
}

type attendanceRepository struct {
	db *sqlx.DB
}

type attendanceSettingsRepository struct {
	db *sqlx.DB
}

type outboxRepository struct {
	db *sqlx.DB
}

func NewServiceRepository(db *sqlx.DB) repository.ServiceRepository {
	return &serviceRepository{db: db}
}

func NewUserRepository(db *sqlx.DB) repository.UserRepository {
	return &userRepository{db: db}
}

func NewAvailabilityRepository(db *sqlx.DB) repository.AvailabilityRepository {
	return &availabilityRepository{db: db}
}

func NewAppointmentRepository(db *sqlx.DB) repository.AppointmentRepository {
	return &appointmentRepository{BaseRepository: NewBaseRepository(db)}
}

func NewAttendanceRepository(db *sqlx.DB) repository.AttendanceRepository {
	return &attendanceRepository{db: db}
}

func NewAttendanceSettingsRepository(db *sqlx.DB) repository.AttendanceSettingsRepository {
	return &attendanceSettingsRepository{db: db}
}

func NewOutboxRepository(db *sqlx.DB) repository.OutboxRepository {
	return &outboxRepository{db: db}
}
