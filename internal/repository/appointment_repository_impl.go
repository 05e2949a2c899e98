package repository

import (
	"errors"
	"time"

	"dental-clinic-api/internal/domain/entity"
	domainRepo "dental-clinic-api/internal/domain/repository"

	"gorm.io/gorm"
)

type appointmentRepository struct{}

func NewAppointmentRepository() domainRepo.AppointmentRepository {
	return &appointmentRepository{}
}

func (r *appointmentRepository) Create(db *gorm.DB, appointment *entity.Appointment) error {
	return db.Create(appointment).Error
}

func (r *appointmentRepository) FindByID(db *gorm.DB, id uint) (*entity.Appointment, error) {
	var appointment entity.Appointment
	err := db.Preload("Patient").Preload("Dentist").Where("id = ?", id).First(&appointment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &appointment, nil
}

func (r *appointmentRepository) List(db *gorm.DB, filter entity.AppointmentFilter) ([]entity.Appointment, int64, error) {
	var appointments []entity.Appointment
	var total int64

	query := db.Model(&entity.Appointment{})
	if filter.PatientID != nil {
		query = query.Where("patient_id = ?", *filter.PatientID)
	}
	if filter.DentistID != nil {
		query = query.Where("dentist_id = ?", *filter.DentistID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.From != nil {
		query = query.Where("scheduled_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("scheduled_at <= ?", *filter.To)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Preload("Patient").Preload("Dentist").
		Order("scheduled_at ASC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&appointments).Error
	if err != nil {
		return nil, 0, err
	}
	return appointments, total, nil
}

func (r *appointmentRepository) FindActiveBetween(db *gorm.DB, dentistID uint, from, to time.Time, excludeID uint) ([]entity.Appointment, error) {
	var appointments []entity.Appointment
	query := db.Where("dentist_id = ? AND status IN ? AND scheduled_at > ? AND scheduled_at < ?",
		dentistID, entity.ActiveAppointmentStatuses, from, to)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Order("scheduled_at ASC").Find(&appointments).Error; err != nil {
		return nil, err
	}
	return appointments, nil
}

func (r *appointmentRepository) CountActiveInRange(db *gorm.DB, dentistID uint, from, to time.Time) (int64, error) {
	var count int64
	err := db.Model(&entity.Appointment{}).
		Where("dentist_id = ? AND status IN ? AND scheduled_at >= ? AND scheduled_at < ?",
			dentistID, entity.ActiveAppointmentStatuses, from, to).
		Count(&count).Error
	return count, err
}

func (r *appointmentRepository) UpdateStatus(db *gorm.DB, id uint, current, next entity.AppointmentStatus) (int64, error) {
	result := db.Model(&entity.Appointment{}).
		Where("id = ? AND status = ?", id, current).
		Update("status", next)
	return result.RowsAffected, result.Error
}

func (r *appointmentRepository) Reschedule(db *gorm.DB, id uint, current entity.AppointmentStatus, scheduledAt time.Time) (int64, error) {
	result := db.Model(&entity.Appointment{}).
		Where("id = ? AND status = ?", id, current).
		Updates(map[string]interface{}{
			"scheduled_at": scheduledAt,
			"status":       entity.AppointmentStatusScheduled,
		})
	return result.RowsAffected, result.Error
}
