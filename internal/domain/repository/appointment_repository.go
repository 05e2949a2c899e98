package repository

import (
	"time"

	"dental-clinic-api/internal/domain/entity"

	"gorm.io/gorm"
)

type AppointmentRepository interface {
	Create(db *gorm.DB, appointment *entity.Appointment) error
	FindByID(db *gorm.DB, id uint) (*entity.Appointment, error)
	List(db *gorm.DB, filter entity.AppointmentFilter) ([]entity.Appointment, int64, error)
	// FindActiveBetween returns the dentist's scheduled or confirmed appointments strictly
	// inside (from, to), skipping excludeID when it is non-zero.
	FindActiveBetween(db *gorm.DB, dentistID uint, from, to time.Time, excludeID uint) ([]entity.Appointment, error)
	// CountActiveInRange counts the dentist's scheduled or confirmed appointments starting in [from, to).
	CountActiveInRange(db *gorm.DB, dentistID uint, from, to time.Time) (int64, error)
	// UpdateStatus moves the appointment to next only while it is still in current.
	// Returns affected rows: 0 means another request changed it first.
	UpdateStatus(db *gorm.DB, id uint, current, next entity.AppointmentStatus) (int64, error)
	Reschedule(db *gorm.DB, id uint, current entity.AppointmentStatus, scheduledAt time.Time) (int64, error)
}
