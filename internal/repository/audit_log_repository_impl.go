package repository

import (
	"dental-clinic-api/internal/domain/entity"
	domainRepo "dental-clinic-api/internal/domain/repository"

	"gorm.io/gorm"
)

type auditLogRepository struct{}

func NewAuditLogRepository() domainRepo.AuditLogRepository {
	return &auditLogRepository{}
}

func (r *auditLogRepository) Create(db *gorm.DB, log *entity.AuditLog) error {
	return db.Create(log).Error
}

// List returns the newest entries, optionally narrowed to one action.
func (r *auditLogRepository) List(db *gorm.DB, action string, limit int) ([]entity.AuditLog, error) {
	var logs []entity.AuditLog
	query := db.Model(&entity.AuditLog{})
	if action != "" {
		query = query.Where("action = ?", action)
	}
	err := query.Order("created_at DESC").Limit(limit).Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}
