package entity

import (
	"errors"
	"fmt"
)

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	AppointmentStatusScheduled   AppointmentStatus = "scheduled"
	AppointmentStatusConfirmed   AppointmentStatus = "confirmed"
	AppointmentStatusCancelled   AppointmentStatus = "cancelled"
	AppointmentStatusCompleted   AppointmentStatus = "completed"
	AppointmentStatusNoShow      AppointmentStatus = "no_show"
	AppointmentStatusRescheduled AppointmentStatus = "rescheduled"
)

// ActiveAppointmentStatuses are the statuses that block a dentist's time slot.
var ActiveAppointmentStatuses = []AppointmentStatus{
	AppointmentStatusScheduled,
	AppointmentStatusConfirmed,
}

func (s AppointmentStatus) IsValid() bool {
	switch s {
	case AppointmentStatusScheduled, AppointmentStatusConfirmed, AppointmentStatusCancelled,
		AppointmentStatusCompleted, AppointmentStatusNoShow, AppointmentStatusRescheduled:
		return true
	}
	return false
}

// IsActive reports whether the status occupies the dentist's slot.
func (s AppointmentStatus) IsActive() bool {
	return s == AppointmentStatusScheduled || s == AppointmentStatusConfirmed
}

// IsTerminal reports whether no further action is accepted.
func (s AppointmentStatus) IsTerminal() bool {
	return s == AppointmentStatusCancelled || s == AppointmentStatusCompleted || s == AppointmentStatusNoShow
}

// AppointmentAction is an operation that moves an appointment between statuses.
type AppointmentAction string

const (
	ActionConfirm    AppointmentAction = "confirm"
	ActionCancel     AppointmentAction = "cancel"
	ActionReschedule AppointmentAction = "reschedule"
	ActionComplete   AppointmentAction = "complete"
	ActionMarkNoShow AppointmentAction = "mark_no_show"
)

// TransitionContext carries the policy switches the transition table depends on.
type TransitionContext struct {
	// StrictCompletion allows "complete" only from "scheduled".
	StrictCompletion bool
}

var ErrInvalidTransition = errors.New("invalid appointment status transition")

// TransitionError explains why a transition was rejected.
type TransitionError struct {
	From   AppointmentStatus
	Action AppointmentAction
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s an appointment that is %s", e.Action, e.From)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

var transitions = map[AppointmentStatus]map[AppointmentAction]AppointmentStatus{
	AppointmentStatusScheduled: {
		ActionConfirm:    AppointmentStatusConfirmed,
		ActionCancel:     AppointmentStatusCancelled,
		ActionReschedule: AppointmentStatusRescheduled,
		ActionComplete:   AppointmentStatusCompleted,
		ActionMarkNoShow: AppointmentStatusNoShow,
	},
	AppointmentStatusConfirmed: {
		ActionCancel:     AppointmentStatusCancelled,
		ActionComplete:   AppointmentStatusCompleted,
		ActionMarkNoShow: AppointmentStatusNoShow,
	},
}

// Transition returns the status reached by applying action to current.
// A reschedule passes through "rescheduled" and lands back on "scheduled".
func Transition(current AppointmentStatus, action AppointmentAction, tc TransitionContext) (AppointmentStatus, error) {
	if current.IsTerminal() {
		return current, &TransitionError{From: current, Action: action}
	}

	next, ok := transitions[current][action]
	if !ok {
		return current, &TransitionError{From: current, Action: action}
	}

	if action == ActionComplete && tc.StrictCompletion && current != AppointmentStatusScheduled {
		return current, &TransitionError{From: current, Action: action}
	}

	if next == AppointmentStatusRescheduled {
		return AppointmentStatusScheduled, nil
	}
	return next, nil
}
