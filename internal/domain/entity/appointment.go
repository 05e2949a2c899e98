package entity

import "time"

// AppointmentType is the kind of visit requested by the patient
type AppointmentType string

const (
	AppointmentTypeFirstVisit AppointmentType = "first_visit"
	AppointmentTypeFollowUp   AppointmentType = "follow_up"
	AppointmentTypeEmergency  AppointmentType = "emergency"
	AppointmentTypeCleaning   AppointmentType = "cleaning"
	AppointmentTypeTreatment  AppointmentType = "treatment"
)

// Appointment is a single entry of the appointment ledger
type Appointment struct {
	ID              uint              `gorm:"primaryKey;autoIncrement" json:"id"`
	Folio           string            `gorm:"type:varchar(40);uniqueIndex;not null" json:"folio"`
	PatientID       uint              `gorm:"not null;index" json:"patient_id"`
	DentistID       uint              `gorm:"not null;index:idx_appointments_dentist_time" json:"dentist_id"`
	ScheduledAt     time.Time         `gorm:"not null;index:idx_appointments_dentist_time" json:"scheduled_at"`
	DurationMinutes int               `gorm:"not null;default:60" json:"duration_minutes"`
	Status          AppointmentStatus `gorm:"type:varchar(20);not null;default:'scheduled';index" json:"status"`
	Type            AppointmentType   `gorm:"type:varchar(20);not null;default:'first_visit'" json:"type"`
	Notes           string            `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt       time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time         `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Patient *User `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
	Dentist *User `gorm:"foreignKey:DentistID" json:"dentist,omitempty"`
}

func (Appointment) TableName() string {
	return "appointments"
}

// IsActive reports whether the appointment still occupies the dentist's time.
func (a *Appointment) IsActive() bool {
	return a.Status.IsActive()
}

// IsOwnedBy reports whether the principal is the patient or the assigned dentist.
func (a *Appointment) IsOwnedBy(p *Principal) bool {
	if p == nil {
		return false
	}
	switch p.Role {
	case RolePatient:
		return a.PatientID == p.UserID
	case RoleDentist:
		return a.DentistID == p.UserID
	}
	return false
}

// TimeUntil returns how long until the appointment starts, measured from now.
func (a *Appointment) TimeUntil(now time.Time) time.Duration {
	return a.ScheduledAt.Sub(now)
}

// AppointmentFilter is a domain-level filter for listing appointments.
// Used by repository layer to avoid coupling with delivery DTOs.
type AppointmentFilter struct {
	PatientID *uint
	DentistID *uint
	Status    AppointmentStatus
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}
