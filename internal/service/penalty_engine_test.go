package service

import (
	"testing"
	"time"

	"dental-clinic-api/config"
	"dental-clinic-api/internal/domain/entity"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchedulingConfig() config.SchedulingConfig {
	return config.SchedulingConfig{
		OverlapWindow:              30 * time.Minute,
		LateCancellationWindow:     24 * time.Hour,
		RescheduleCutoff:           48 * time.Hour,
		LateCancellationPercentage: decimal.NewFromInt(20),
		MaxAdvanceMonths:           3,
		StrictCompletion:           true,
	}
}

func TestEvaluateCancellation(t *testing.T) {
	engine := NewPenaltyEngine(testSchedulingConfig())
	now := time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		status      entity.AppointmentStatus
		until       time.Duration
		role        entity.Role
		allowed     bool
		wantPenalty bool
	}{
		{"patient late", entity.AppointmentStatusScheduled, 23 * time.Hour, entity.RolePatient, true, true},
		{"patient on time", entity.AppointmentStatusScheduled, 25 * time.Hour, entity.RolePatient, true, false},
		{"patient exactly 24h", entity.AppointmentStatusScheduled, 24 * time.Hour, entity.RolePatient, true, false},
		{"patient confirmed late", entity.AppointmentStatusConfirmed, time.Hour, entity.RolePatient, true, true},
		{"dentist late", entity.AppointmentStatusScheduled, time.Hour, entity.RoleDentist, true, false},
		{"admin late", entity.AppointmentStatusScheduled, time.Hour, entity.RoleAdmin, true, false},
		{"already cancelled", entity.AppointmentStatusCancelled, 72 * time.Hour, entity.RolePatient, false, false},
		{"completed", entity.AppointmentStatusCompleted, -time.Hour, entity.RoleAdmin, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apt := &entity.Appointment{ID: 5, PatientID: 9, Status: tt.status, ScheduledAt: now.Add(tt.until)}
			d := engine.EvaluateCancellation(apt, tt.role, now)

			assert.Equal(t, tt.allowed, d.Allowed)
			if !tt.wantPenalty {
				assert.Nil(t, d.Penalty)
				return
			}
			require.NotNil(t, d.Penalty)
			assert.Equal(t, uint(9), d.Penalty.PatientID)
			assert.Equal(t, uint(5), *d.Penalty.AppointmentID)
			assert.Equal(t, entity.PenaltyReasonLateCancellation, d.Penalty.Reason)
			assert.Equal(t, entity.PenaltyStatusActive, d.Penalty.Status)
			assert.True(t, d.Penalty.Percentage.Equal(decimal.NewFromInt(20)))
		})
	}
}

func TestEvaluateReschedule(t *testing.T) {
	engine := NewPenaltyEngine(testSchedulingConfig())
	now := time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)

	assert.ErrorIs(t, engine.EvaluateReschedule(&entity.Appointment{ScheduledAt: now.Add(47 * time.Hour)}, now), ErrRescheduleTooLate)
	assert.NoError(t, engine.EvaluateReschedule(&entity.Appointment{ScheduledAt: now.Add(48 * time.Hour)}, now))
	assert.NoError(t, engine.EvaluateReschedule(&entity.Appointment{ScheduledAt: now.Add(72 * time.Hour)}, now))
}

func TestNoShowPenalty(t *testing.T) {
	engine := NewPenaltyEngine(testSchedulingConfig())
	p := engine.NoShowPenalty(&entity.Appointment{ID: 3, PatientID: 4})

	assert.Equal(t, entity.PenaltyReasonNoShow, p.Reason)
	assert.Equal(t, uint(4), p.PatientID)
	assert.Equal(t, uint(3), *p.AppointmentID)
}
