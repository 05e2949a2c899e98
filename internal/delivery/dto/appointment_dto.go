package dto

import "time"

// Request DTOs

type CreateAppointmentRequest struct {
	DentistID uint   `json:"dentistId" validate:"required,min=1"`
	Date      string `json:"date" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	Type      string `json:"type" validate:"omitempty,oneof=first_visit follow_up emergency cleaning treatment"`
	Notes     string `json:"notes" validate:"omitempty,max=500"`
}

type RescheduleAppointmentRequest struct {
	NewDate string `json:"newDate" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
}

// AppointmentListRequest is bound from the query string.
type AppointmentListRequest struct {
	Status    string `json:"status" validate:"omitempty,oneof=scheduled confirmed cancelled completed no_show rescheduled"`
	DentistID uint   `json:"dentistId"`
	From      string `json:"from" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	To        string `json:"to" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	Page      int    `json:"page" validate:"gte=0"`
	Limit     int    `json:"limit" validate:"gte=0,lte=100"`
}

// Response DTOs

type AppointmentResponse struct {
	ID              uint          `json:"id"`
	Folio           string        `json:"folio"`
	PatientID       uint          `json:"patientId"`
	DentistID       uint          `json:"dentistId"`
	ScheduledAt     time.Time     `json:"date"`
	DurationMinutes int           `json:"durationMinutes"`
	Status          string        `json:"status"`
	Type            string        `json:"type"`
	Notes           string        `json:"notes,omitempty"`
	Patient         *UserResponse `json:"patient,omitempty"`
	Dentist         *UserResponse `json:"dentist,omitempty"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

type AppointmentListResponse struct {
	Appointments []AppointmentResponse `json:"appointments"`
	Total        int64                 `json:"total"`
	Page         int                   `json:"page"`
	Limit        int                   `json:"limit"`
	TotalPages   int                   `json:"totalPages"`
}

type CancelAppointmentResponse struct {
	Appointment    *AppointmentResponse `json:"appointment"`
	PenaltyApplied bool                 `json:"penaltyApplied"`
	Penalty        *PenaltyResponse     `json:"penalty,omitempty"`
}
