package repository

import (
	"dental-clinic-api/internal/domain/entity"

	"gorm.io/gorm"
)

type MedicalRecordRepository interface {
	Create(db *gorm.DB, record *entity.MedicalRecord) error
	FindByID(db *gorm.DB, id uint) (*entity.MedicalRecord, error)
	FindByPatientID(db *gorm.DB, patientID uint) ([]entity.MedicalRecord, error)
	Update(db *gorm.DB, record *entity.MedicalRecord) error
}
