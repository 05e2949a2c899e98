package repository

import (
	"errors"

	"dental-clinic-api/internal/domain/entity"
	domainRepo "dental-clinic-api/internal/domain/repository"

	"gorm.io/gorm"
)

type penaltyRepository struct{}

func NewPenaltyRepository() domainRepo.PenaltyRepository {
	return &penaltyRepository{}
}

func (r *penaltyRepository) Create(db *gorm.DB, penalty *entity.Penalty) error {
	return db.Create(penalty).Error
}

func (r *penaltyRepository) FindByID(db *gorm.DB, id uint) (*entity.Penalty, error) {
	var penalty entity.Penalty
	err := db.Where("id = ?", id).First(&penalty).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &penalty, nil
}

func (r *penaltyRepository) FindByPatientID(db *gorm.DB, patientID uint) ([]entity.Penalty, error) {
	var penalties []entity.Penalty
	err := db.Preload("Appointment").
		Where("patient_id = ?", patientID).
		Order("created_at DESC").
		Find(&penalties).Error
	if err != nil {
		return nil, err
	}
	return penalties, nil
}

// HasActive keys on status alone; expires_at is informational and never lifts a block.
func (r *penaltyRepository) HasActive(db *gorm.DB, patientID uint) (bool, error) {
	var count int64
	err := db.Model(&entity.Penalty{}).
		Where("patient_id = ? AND status = ?", patientID, entity.PenaltyStatusActive).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *penaltyRepository) UpdateStatus(db *gorm.DB, id uint, status entity.PenaltyStatus) (int64, error) {
	result := db.Model(&entity.Penalty{}).
		Where("id = ? AND status = ?", id, entity.PenaltyStatusActive).
		Update("status", status)
	return result.RowsAffected, result.Error
}
