package repository

import (
	"errors"

	"dental-clinic-api/internal/domain/entity"
	domainRepo "dental-clinic-api/internal/domain/repository"

	"gorm.io/gorm"
)

type availabilityRepository struct{}

func NewAvailabilityRepository() domainRepo.AvailabilityRepository {
	return &availabilityRepository{}
}

func (r *availabilityRepository) Create(db *gorm.DB, slot *entity.AvailabilitySlot) error {
	return db.Omit("Dentist").Create(slot).Error
}

func (r *availabilityRepository) FindByID(db *gorm.DB, id uint) (*entity.AvailabilitySlot, error) {
	var slot entity.AvailabilitySlot
	err := db.Where("id = ?", id).First(&slot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &slot, nil
}

func (r *availabilityRepository) List(db *gorm.DB, filter entity.AvailabilityFilter) ([]entity.AvailabilitySlot, error) {
	var slots []entity.AvailabilitySlot
	query := db.Where("dentist_id = ?", filter.DentistID)
	if filter.From != nil {
		query = query.Where("date >= ?", filter.From.Format(entity.SlotDateLayout))
	}
	if filter.To != nil {
		query = query.Where("date <= ?", filter.To.Format(entity.SlotDateLayout))
	}

	err := query.Order("date ASC, start_time ASC").Find(&slots).Error
	if err != nil {
		return nil, err
	}
	return slots, nil
}

func (r *availabilityRepository) FindOverlapping(db *gorm.DB, slot *entity.AvailabilitySlot) ([]entity.AvailabilitySlot, error) {
	var slots []entity.AvailabilitySlot
	query := db.Where("dentist_id = ? AND date = ? AND start_time < ? AND end_time > ?",
		slot.DentistID, slot.Date.Format(entity.SlotDateLayout), slot.EndTime, slot.StartTime)
	if slot.ID != 0 {
		query = query.Where("id <> ?", slot.ID)
	}
	if err := query.Find(&slots).Error; err != nil {
		return nil, err
	}
	return slots, nil
}

func (r *availabilityRepository) Update(db *gorm.DB, slot *entity.AvailabilitySlot) error {
	return db.Omit("Dentist").Save(slot).Error
}

func (r *availabilityRepository) Delete(db *gorm.DB, id uint) (int64, error) {
	result := db.Where("id = ?", id).Delete(&entity.AvailabilitySlot{})
	return result.RowsAffected, result.Error
}
