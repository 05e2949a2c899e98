package service

import (
	"errors"
	"testing"
	"time"

	"dental-clinic-api/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubAppointmentRepo struct {
	appointments []entity.Appointment
	err          error
}

func (r *stubAppointmentRepo) Create(_ *gorm.DB, a *entity.Appointment) error {
	r.appointments = append(r.appointments, *a)
	return nil
}

func (r *stubAppointmentRepo) FindByID(_ *gorm.DB, id uint) (*entity.Appointment, error) {
	for i := range r.appointments {
		if r.appointments[i].ID == id {
			return &r.appointments[i], nil
		}
	}
	return nil, nil
}

func (r *stubAppointmentRepo) List(_ *gorm.DB, _ entity.AppointmentFilter) ([]entity.Appointment, int64, error) {
	return r.appointments, int64(len(r.appointments)), nil
}

// FindActiveBetween ignores the bounds; the checker filters on its own.
func (r *stubAppointmentRepo) FindActiveBetween(_ *gorm.DB, dentistID uint, _, _ time.Time, _ uint) ([]entity.Appointment, error) {
	if r.err != nil {
		return nil, r.err
	}
	var out []entity.Appointment
	for _, a := range r.appointments {
		if a.DentistID == dentistID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *stubAppointmentRepo) CountActiveInRange(_ *gorm.DB, dentistID uint, from, to time.Time) (int64, error) {
	if r.err != nil {
		return 0, r.err
	}
	var count int64
	for _, a := range r.appointments {
		if a.DentistID == dentistID && a.IsActive() && !a.ScheduledAt.Before(from) && a.ScheduledAt.Before(to) {
			count++
		}
	}
	return count, nil
}

func (r *stubAppointmentRepo) UpdateStatus(_ *gorm.DB, _ uint, _, _ entity.AppointmentStatus) (int64, error) {
	return 0, nil
}

func (r *stubAppointmentRepo) Reschedule(_ *gorm.DB, _ uint, _ entity.AppointmentStatus, _ time.Time) (int64, error) {
	return 0, nil
}

func at(hour, minute int) time.Time {
	return time.Date(2030, 5, 10, hour, minute, 0, 0, time.UTC)
}

func TestConflictWindow_Bounds(t *testing.T) {
	w := ConflictWindow{Radius: 30 * time.Minute}

	from, to := w.Bounds(at(10, 0))
	assert.Equal(t, at(9, 30), from)
	assert.Equal(t, at(10, 30), to)

	tests := []struct {
		name     string
		existing time.Time
		want     bool
	}{
		{"same instant", at(10, 0), true},
		{"inside after", at(10, 29), true},
		{"inside before", at(9, 31), true},
		{"exact upper bound", at(10, 30), false},
		{"exact lower bound", at(9, 30), false},
		{"far away", at(12, 0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, w.Overlaps(tt.existing, at(10, 0)))
		})
	}
}

func TestConflictChecker_HasConflict(t *testing.T) {
	repo := &stubAppointmentRepo{appointments: []entity.Appointment{
		{ID: 1, DentistID: 7, ScheduledAt: at(10, 0), Status: entity.AppointmentStatusScheduled},
		{ID: 2, DentistID: 7, ScheduledAt: at(14, 0), Status: entity.AppointmentStatusCancelled},
		{ID: 3, DentistID: 8, ScheduledAt: at(16, 0), Status: entity.AppointmentStatusConfirmed},
	}}
	checker := NewConflictChecker(30*time.Minute, repo)

	conflict, err := checker.HasConflict(nil, 7, at(10, 20), 0)
	require.NoError(t, err)
	assert.True(t, conflict, "10:20 is within 30 minutes of 10:00")

	conflict, err = checker.HasConflict(nil, 7, at(11, 30), 0)
	require.NoError(t, err)
	assert.False(t, conflict, "11:30 is clear of 10:00")

	conflict, err = checker.HasConflict(nil, 7, at(10, 30), 0)
	require.NoError(t, err)
	assert.False(t, conflict, "bounds are exclusive")

	conflict, err = checker.HasConflict(nil, 7, at(14, 0), 0)
	require.NoError(t, err)
	assert.False(t, conflict, "cancelled appointments free the slot")

	conflict, err = checker.HasConflict(nil, 7, at(16, 0), 0)
	require.NoError(t, err)
	assert.False(t, conflict, "other dentists do not conflict")

	conflict, err = checker.HasConflict(nil, 7, at(10, 10), 1)
	require.NoError(t, err)
	assert.False(t, conflict, "an appointment never conflicts with itself")
}

func TestConflictChecker_RepositoryError(t *testing.T) {
	boom := errors.New("db down")
	checker := NewConflictChecker(30*time.Minute, &stubAppointmentRepo{err: boom})

	_, err := checker.HasConflict(nil, 1, at(10, 0), 0)
	assert.ErrorIs(t, err, boom)
}
