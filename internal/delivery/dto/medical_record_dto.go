package dto

import "time"

// Request DTOs

type CreateMedicalRecordRequest struct {
	PatientID     uint     `json:"patientId" validate:"required,min=1"`
	AppointmentID *uint    `json:"appointmentId" validate:"omitempty,min=1"`
	Diagnosis     string   `json:"diagnosis" validate:"required,max=5000"`
	Treatment     string   `json:"treatment" validate:"omitempty,max=5000"`
	Prescriptions string   `json:"prescriptions" validate:"omitempty,max=5000"`
	Notes         string   `json:"notes" validate:"omitempty,max=5000"`
	XrayImages    []string `json:"xrayImages" validate:"omitempty,dive,url"`
}

// UpdateMedicalRecordRequest only changes the fields that are present.
type UpdateMedicalRecordRequest struct {
	Diagnosis     *string  `json:"diagnosis" validate:"omitempty,min=1,max=5000"`
	Treatment     *string  `json:"treatment" validate:"omitempty,max=5000"`
	Prescriptions *string  `json:"prescriptions" validate:"omitempty,max=5000"`
	Notes         *string  `json:"notes" validate:"omitempty,max=5000"`
	XrayImages    []string `json:"xrayImages" validate:"omitempty,dive,url"`
}

// Response DTOs

type MedicalRecordResponse struct {
	ID            uint          `json:"id"`
	PatientID     uint          `json:"patientId"`
	DentistID     uint          `json:"dentistId"`
	AppointmentID *uint         `json:"appointmentId,omitempty"`
	Diagnosis     string        `json:"diagnosis"`
	Treatment     string        `json:"treatment,omitempty"`
	Prescriptions string        `json:"prescriptions,omitempty"`
	Notes         string        `json:"notes,omitempty"`
	XrayImages    []string      `json:"xrayImages"`
	Dentist       *UserResponse `json:"dentist,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

type MedicalRecordListResponse struct {
	Records []MedicalRecordResponse `json:"records"`
	Total   int                     `json:"total"`
}
