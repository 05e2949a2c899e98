package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

type PenaltyReason string

const (
	PenaltyReasonLateCancellation PenaltyReason = "late_cancellation"
	PenaltyReasonNoShow           PenaltyReason = "no_show"
	PenaltyReasonOther            PenaltyReason = "other"
)

func (r PenaltyReason) IsValid() bool {
	switch r {
	case PenaltyReasonLateCancellation, PenaltyReasonNoShow, PenaltyReasonOther:
		return true
	}
	return false
}

type PenaltyStatus string

const (
	PenaltyStatusActive PenaltyStatus = "active"
	PenaltyStatusPaid   PenaltyStatus = "paid"
	PenaltyStatusWaived PenaltyStatus = "waived"
)

func (s PenaltyStatus) IsValid() bool {
	switch s {
	case PenaltyStatusActive, PenaltyStatusPaid, PenaltyStatusWaived:
		return true
	}
	return false
}

// Penalty is a charge recorded against a patient. An active penalty blocks new bookings
// until its status changes; ExpiresAt is informational only.
type Penalty struct {
	ID            uint             `gorm:"primaryKey;autoIncrement" json:"id"`
	PatientID     uint             `gorm:"not null;index" json:"patient_id"`
	AppointmentID *uint            `gorm:"index" json:"appointment_id,omitempty"`
	Reason        PenaltyReason    `gorm:"type:varchar(30);not null" json:"reason"`
	Percentage    decimal.Decimal  `gorm:"type:numeric(5,2);not null" json:"percentage"`
	Amount        *decimal.Decimal `gorm:"type:numeric(12,2)" json:"amount,omitempty"`
	Status        PenaltyStatus    `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	ExpiresAt     *time.Time       `json:"expires_at,omitempty"`
	CreatedAt     time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time        `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Patient     *User        `gorm:"foreignKey:PatientID" json:"-"`
	Appointment *Appointment `gorm:"foreignKey:AppointmentID" json:"appointment,omitempty"`
}

func (Penalty) TableName() string {
	return "penalties"
}
