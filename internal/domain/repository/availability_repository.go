package repository

import (
	"dental-clinic-api/internal/domain/entity"

	"gorm.io/gorm"
)

type AvailabilityRepository interface {
	Create(db *gorm.DB, slot *entity.AvailabilitySlot) error
	FindByID(db *gorm.DB, id uint) (*entity.AvailabilitySlot, error)
	List(db *gorm.DB, filter entity.AvailabilityFilter) ([]entity.AvailabilitySlot, error)
	// FindOverlapping returns the dentist's slots on the same date that share time with slot,
	// skipping slot.ID when it is non-zero.
	FindOverlapping(db *gorm.DB, slot *entity.AvailabilitySlot) ([]entity.AvailabilitySlot, error)
	Update(db *gorm.DB, slot *entity.AvailabilitySlot) error
	Delete(db *gorm.DB, id uint) (int64, error)
}
