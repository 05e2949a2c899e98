package repository

import (
	"errors"
	"strconv"
	"strings"

	"dental-clinic-api/internal/domain/entity"
	domainRepo "dental-clinic-api/internal/domain/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type userRepository struct{}

func NewUserRepository() domainRepo.UserRepository {
	return &userRepository{}
}

func (r *userRepository) Create(db *gorm.DB, user *entity.User) error {
	return db.Create(user).Error
}

func (r *userRepository) FindByID(db *gorm.DB, id uint) (*entity.User, error) {
	var user entity.User
	err := db.Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(db *gorm.DB, email string) (*entity.User, error) {
	var user entity.User
	err := db.Where("email = ?", entity.NormalizeEmail(email)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) LockByID(db *gorm.DB, id uint) (*entity.User, error) {
	var user entity.User
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// Search matches q against the id when q is numeric, otherwise against name and email.
func (r *userRepository) Search(db *gorm.DB, filter entity.UserFilter) ([]entity.User, error) {
	var users []entity.User
	query := db.Model(&entity.User{})

	q := strings.TrimSpace(filter.Query)
	if q != "" {
		pattern := "%" + q + "%"
		if id, err := strconv.ParseUint(q, 10, 64); err == nil {
			query = query.Where("id = ? OR name ILIKE ? OR email ILIKE ?", id, pattern, pattern)
		} else {
			query = query.Where("name ILIKE ? OR email ILIKE ?", pattern, pattern)
		}
	}

	if err := query.Order("id ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) FindActiveDentists(db *gorm.DB) ([]entity.User, error) {
	var users []entity.User
	err := db.Where("role = ? AND is_active = ?", entity.RoleDentist, true).
		Order("name ASC").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) UpdateStatus(db *gorm.DB, id uint, isActive bool) (int64, error) {
	result := db.Model(&entity.User{}).Where("id = ?", id).Update("is_active", isActive)
	return result.RowsAffected, result.Error
}

func (r *userRepository) UpdateRole(db *gorm.DB, id uint, role entity.Role, specialty *string) (int64, error) {
	result := db.Model(&entity.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"role":      role,
		"specialty": specialty,
	})
	return result.RowsAffected, result.Error
}

// Delete hard-deletes the user; dependent rows are removed by ON DELETE CASCADE.
func (r *userRepository) Delete(db *gorm.DB, id uint) (int64, error) {
	result := db.Where("id = ?", id).Delete(&entity.User{})
	return result.RowsAffected, result.Error
}
