package repository

import (
	"dental-clinic-api/internal/domain/entity"

	"gorm.io/gorm"
)

type UserRepository interface {
	Create(db *gorm.DB, user *entity.User) error
	FindByID(db *gorm.DB, id uint) (*entity.User, error)
	FindByEmail(db *gorm.DB, email string) (*entity.User, error)
	// LockByID reads the user row with SELECT ... FOR UPDATE.
	LockByID(db *gorm.DB, id uint) (*entity.User, error)
	Search(db *gorm.DB, filter entity.UserFilter) ([]entity.User, error)
	FindActiveDentists(db *gorm.DB) ([]entity.User, error)
	UpdateStatus(db *gorm.DB, id uint, isActive bool) (int64, error)
	UpdateRole(db *gorm.DB, id uint, role entity.Role, specialty *string) (int64, error)
	Delete(db *gorm.DB, id uint) (int64, error)
}
