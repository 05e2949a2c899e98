package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// AuditLog represents a system audit trail entry
type AuditLog struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    *uint     `gorm:"index" json:"user_id,omitempty"`
	Action    string    `gorm:"type:varchar(100);not null;index" json:"action"`
	Metadata  JSON      `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

// JSON type for GORM JSONB support
type JSON map[string]interface{}

// Value returns json value, implement driver.Valuer interface
func (j JSON) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan scan value into Jsonb, implements sql.Scanner interface
func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("unsupported JSONB value type %T", value)
	}

	result := map[string]interface{}{}
	err := json.Unmarshal(bytes, &result)
	*j = JSON(result)
	return err
}

// Audit actions
const (
	AuditActionUserRegister        = "user.register"
	AuditActionUserStatusChange    = "user.status_change"
	AuditActionUserRoleChange      = "user.role_change"
	AuditActionUserDelete          = "user.delete"
	AuditActionAppointmentCreate   = "appointment.create"
	AuditActionAppointmentCancel   = "appointment.cancel"
	AuditActionAppointmentMove     = "appointment.reschedule"
	AuditActionAppointmentConfirm  = "appointment.confirm"
	AuditActionAppointmentComplete = "appointment.complete"
	AuditActionAppointmentNoShow   = "appointment.no_show"
	AuditActionPenaltyCreate       = "penalty.create"
	AuditActionPenaltyStatus       = "penalty.status_change"
	AuditActionRecordCreate        = "medical_record.create"
	AuditActionRecordUpdate        = "medical_record.update"
	AuditActionSlotCreate          = "availability.create"
	AuditActionSlotUpdate          = "availability.update"
	AuditActionSlotDelete          = "availability.delete"
)
