package entity

import (
	"time"

	"gorm.io/datatypes"
)

// MedicalRecord is a clinical note written by a dentist about a patient.
// A patient may have many records, each optionally linked to an appointment.
type MedicalRecord struct {
	ID            uint                        `gorm:"primaryKey;autoIncrement" json:"id"`
	PatientID     uint                        `gorm:"not null;index" json:"patient_id"`
	DentistID     uint                        `gorm:"not null;index" json:"dentist_id"`
	AppointmentID *uint                       `gorm:"index" json:"appointment_id,omitempty"`
	Diagnosis     string                      `gorm:"type:text;not null" json:"diagnosis"`
	Treatment     string                      `gorm:"type:text" json:"treatment,omitempty"`
	Prescriptions string                      `gorm:"type:text" json:"prescriptions,omitempty"`
	Notes         string                      `gorm:"type:text" json:"notes,omitempty"`
	XrayImages    datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"xray_images,omitempty"`
	CreatedAt     time.Time                   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time                   `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Patient *User `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
	Dentist *User `gorm:"foreignKey:DentistID" json:"dentist,omitempty"`
}

func (MedicalRecord) TableName() string {
	return "medical_records"
}
