package repository

import (
	"dental-clinic-api/internal/domain/entity"

	"gorm.io/gorm"
)

type PenaltyRepository interface {
	Create(db *gorm.DB, penalty *entity.Penalty) error
	FindByID(db *gorm.DB, id uint) (*entity.Penalty, error)
	FindByPatientID(db *gorm.DB, patientID uint) ([]entity.Penalty, error)
	HasActive(db *gorm.DB, patientID uint) (bool, error)
	UpdateStatus(db *gorm.DB, id uint, status entity.PenaltyStatus) (int64, error)
}
