package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// Request DTOs

type CreatePenaltyRequest struct {
	PatientID     uint             `json:"patientId" validate:"required,min=1"`
	AppointmentID *uint            `json:"appointmentId" validate:"omitempty,min=1"`
	Reason        string           `json:"reason" validate:"required,oneof=no_show other"`
	Percentage    *decimal.Decimal `json:"percentage"`
	Amount        *decimal.Decimal `json:"amount"`
	ExpiresAt     *time.Time       `json:"expiresAt"`
}

type UpdatePenaltyStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=paid waived"`
}

// Response DTOs

type PenaltyResponse struct {
	ID            uint             `json:"id"`
	PatientID     uint             `json:"patientId"`
	AppointmentID *uint            `json:"appointmentId,omitempty"`
	Reason        string           `json:"reason"`
	Percentage    decimal.Decimal  `json:"percentage"`
	Amount        *decimal.Decimal `json:"amount,omitempty"`
	Status        string           `json:"status"`
	ExpiresAt     *time.Time       `json:"expiresAt,omitempty"`
	CreatedAt     time.Time        `json:"createdAt"`
}

type PenaltyListResponse struct {
	Penalties []PenaltyResponse `json:"penalties"`
	Total     int               `json:"total"`
}
