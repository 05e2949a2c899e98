package dto

import "time"

// Request DTOs

type CreateAvailabilityRequest struct {
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime string `json:"startTime" validate:"required,datetime=15:04"`
	EndTime   string `json:"endTime" validate:"required,datetime=15:04"`
}

// UpdateAvailabilityRequest only changes the fields that are present.
type UpdateAvailabilityRequest struct {
	Date      string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	StartTime string `json:"startTime" validate:"omitempty,datetime=15:04"`
	EndTime   string `json:"endTime" validate:"omitempty,datetime=15:04"`
}

type AvailabilityListRequest struct {
	DentistID uint   `json:"dentistId"`
	From      string `json:"from"`
	To        string `json:"to"`
}

// Response DTOs

type AvailabilityResponse struct {
	ID        uint      `json:"id"`
	DentistID uint      `json:"dentistId"`
	Date      string    `json:"date"`
	StartTime string    `json:"startTime"`
	EndTime   string    `json:"endTime"`
	Occupied  bool      `json:"occupied"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type AvailabilityListResponse struct {
	Slots []AvailabilityResponse `json:"slots"`
	Total int                    `json:"total"`
}
