package repository

import (
	"dental-clinic-api/internal/domain/entity"

	"gorm.io/gorm"
)

type AuditLogRepository interface {
	Create(db *gorm.DB, log *entity.AuditLog) error
	List(db *gorm.DB, action string, limit int) ([]entity.AuditLog, error)
}
