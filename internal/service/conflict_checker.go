package service

import (
	"time"

	"dental-clinic-api/internal/domain/repository"

	"gorm.io/gorm"
)

// ConflictWindow is the exclusion zone around an appointment start.
// An existing start t conflicts with candidate c iff c-Radius < t < c+Radius.
type ConflictWindow struct {
	Radius time.Duration
}

// Bounds returns the open interval (from, to) around candidate.
func (w ConflictWindow) Bounds(candidate time.Time) (time.Time, time.Time) {
	return candidate.Add(-w.Radius), candidate.Add(w.Radius)
}

func (w ConflictWindow) Overlaps(existing, candidate time.Time) bool {
	from, to := w.Bounds(candidate)
	return existing.After(from) && existing.Before(to)
}

type ConflictChecker struct {
	window          ConflictWindow
	appointmentRepo repository.AppointmentRepository
}

func NewConflictChecker(radius time.Duration, appointmentRepo repository.AppointmentRepository) *ConflictChecker {
	return &ConflictChecker{
		window:          ConflictWindow{Radius: radius},
		appointmentRepo: appointmentRepo,
	}
}

// HasConflict reports whether the dentist has an active appointment inside the window
// around candidate. excludeID skips the appointment being moved; pass 0 for new bookings.
func (c *ConflictChecker) HasConflict(db *gorm.DB, dentistID uint, candidate time.Time, excludeID uint) (bool, error) {
	from, to := c.window.Bounds(candidate)
	existing, err := c.appointmentRepo.FindActiveBetween(db, dentistID, from, to, excludeID)
	if err != nil {
		return false, err
	}

	for _, apt := range existing {
		if apt.ID == excludeID || !apt.Status.IsActive() {
			continue
		}
		if c.window.Overlaps(apt.ScheduledAt, candidate) {
			return true, nil
		}
	}
	return false, nil
}
