package service

import (
	"errors"
	"time"

	"dental-clinic-api/config"
	"dental-clinic-api/internal/domain/entity"

	"github.com/shopspring/decimal"
)

var ErrRescheduleTooLate = errors.New("appointments can only be rescheduled at least 48 hours in advance")

// CancellationDecision is the outcome of evaluating a cancellation request.
type CancellationDecision struct {
	Allowed bool
	Penalty *entity.Penalty
}

type PenaltyEngine struct {
	lateCancellationWindow time.Duration
	rescheduleCutoff       time.Duration
	percentage             decimal.Decimal
}

func NewPenaltyEngine(cfg config.SchedulingConfig) *PenaltyEngine {
	return &PenaltyEngine{
		lateCancellationWindow: cfg.LateCancellationWindow,
		rescheduleCutoff:       cfg.RescheduleCutoff,
		percentage:             cfg.LateCancellationPercentage,
	}
}

// EvaluateCancellation decides whether apt may be cancelled by a caller with actorRole
// and which penalty, if any, the patient incurs. Only patients are ever penalized.
func (e *PenaltyEngine) EvaluateCancellation(apt *entity.Appointment, actorRole entity.Role, now time.Time) CancellationDecision {
	// Cancellation does not depend on the completion policy.
	if _, err := entity.Transition(apt.Status, entity.ActionCancel, entity.TransitionContext{}); err != nil {
		return CancellationDecision{Allowed: false}
	}

	decision := CancellationDecision{Allowed: true}
	if actorRole == entity.RolePatient && apt.TimeUntil(now) < e.lateCancellationWindow {
		decision.Penalty = e.newPenalty(apt, entity.PenaltyReasonLateCancellation)
	}
	return decision
}

// EvaluateReschedule rejects moves requested less than the cutoff before the current slot.
func (e *PenaltyEngine) EvaluateReschedule(apt *entity.Appointment, now time.Time) error {
	if apt.TimeUntil(now) < e.rescheduleCutoff {
		return ErrRescheduleTooLate
	}
	return nil
}

// NoShowPenalty is charged when a dentist marks the patient as absent.
func (e *PenaltyEngine) NoShowPenalty(apt *entity.Appointment) *entity.Penalty {
	return e.newPenalty(apt, entity.PenaltyReasonNoShow)
}

func (e *PenaltyEngine) newPenalty(apt *entity.Appointment, reason entity.PenaltyReason) *entity.Penalty {
	appointmentID := apt.ID
	return &entity.Penalty{
		PatientID:     apt.PatientID,
		AppointmentID: &appointmentID,
		Reason:        reason,
		Percentage:    e.percentage,
		Status:        entity.PenaltyStatusActive,
	}
}
