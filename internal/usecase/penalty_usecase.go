package usecase

import (
	"context"
	"errors"
	"time"

	"dental-clinic-api/config"
	"dental-clinic-api/internal/converter"
	"dental-clinic-api/internal/delivery/dto"
	"dental-clinic-api/internal/domain/entity"
	"dental-clinic-api/internal/domain/repository"
	"dental-clinic-api/internal/service"
	"dental-clinic-api/pkg/metrics"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrPenaltyNotFound      = errors.New("penalty not found")
	ErrPenaltyNotActive     = errors.New("penalty is no longer active")
	ErrInvalidPenaltyAmount = errors.New("percentage must be greater than 0 and at most 100, amount must not be negative")
	ErrPenaltyExpiresInPast = errors.New("penalty expiration must be in the future")
	ErrInvalidPenaltyStatus = errors.New("penalty status must be paid or waived")
)

var hundred = decimal.NewFromInt(100)

type PenaltyUsecase interface {
	Create(ctx context.Context, actor *entity.Principal, req *dto.CreatePenaltyRequest) (*dto.PenaltyResponse, error)
	ListByPatient(ctx context.Context, actor *entity.Principal, patientID uint) (*dto.PenaltyListResponse, error)
	UpdateStatus(ctx context.Context, actor *entity.Principal, id uint, req *dto.UpdatePenaltyStatusRequest) (*dto.PenaltyResponse, error)
}

type penaltyUsecase struct {
	tx                repository.Transactor
	log               *logrus.Logger
	penaltyRepo       repository.PenaltyRepository
	userRepo          repository.UserRepository
	auditService      service.AuditService
	metrics           *metrics.Metrics
	defaultPercentage decimal.Decimal
	now               func() time.Time
}

func NewPenaltyUsecase(
	tx repository.Transactor,
	log *logrus.Logger,
	cfg config.SchedulingConfig,
	penaltyRepo repository.PenaltyRepository,
	userRepo repository.UserRepository,
	auditService service.AuditService,
	m *metrics.Metrics,
) PenaltyUsecase {
	return &penaltyUsecase{
		tx:                tx,
		log:               log,
		penaltyRepo:       penaltyRepo,
		userRepo:          userRepo,
		auditService:      auditService,
		metrics:           m,
		defaultPercentage: cfg.LateCancellationPercentage,
		now:               time.Now,
	}
}

// Create records a manual penalty against a patient. Dentists and admins only.
func (u *penaltyUsecase) Create(ctx context.Context, actor *entity.Principal, req *dto.CreatePenaltyRequest) (*dto.PenaltyResponse, error) {
	if !actor.HasRole(entity.RoleDentist, entity.RoleAdmin) {
		return nil, ErrForbidden
	}

	percentage := u.defaultPercentage
	if req.Percentage != nil {
		percentage = *req.Percentage
	}
	if !percentage.IsPositive() || percentage.GreaterThan(hundred) {
		return nil, ErrInvalidPenaltyAmount
	}
	if req.Amount != nil && req.Amount.IsNegative() {
		return nil, ErrInvalidPenaltyAmount
	}
	if req.ExpiresAt != nil && !req.ExpiresAt.After(u.now()) {
		return nil, ErrPenaltyExpiresInPast
	}

	penalty := &entity.Penalty{
		PatientID:     req.PatientID,
		AppointmentID: req.AppointmentID,
		Reason:        entity.PenaltyReason(req.Reason),
		Percentage:    percentage,
		Amount:        req.Amount,
		Status:        entity.PenaltyStatusActive,
		ExpiresAt:     req.ExpiresAt,
	}

	err := u.tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		patient, err := u.userRepo.FindByID(tx, req.PatientID)
		if err != nil {
			u.log.Warnf("Failed to find patient %d: %+v", req.PatientID, err)
			return err
		}
		if patient == nil || !patient.IsPatient() {
			return ErrPatientNotFound
		}

		if err := u.penaltyRepo.Create(tx, penalty); err != nil {
			if isForeignKeyError(err, "appointment_id") {
				return ErrAppointmentNotFound
			}
			u.log.Warnf("Failed to create penalty: %+v", err)
			return err
		}

		return u.auditService.LogCreate(ctx, tx, &actor.UserID, entity.AuditActionPenaltyCreate, "penalty", penalty.ID, converter.PenaltyToResponse(penalty))
	})
	if err != nil {
		return nil, err
	}

	u.metrics.PenaltyCreated(string(penalty.Reason))
	u.log.Infof("Penalty %d (%s) applied to patient %d by user %d", penalty.ID, penalty.Reason, penalty.PatientID, actor.UserID)
	return converter.PenaltyToResponse(penalty), nil
}

func (u *penaltyUsecase) ListByPatient(ctx context.Context, actor *entity.Principal, patientID uint) (*dto.PenaltyListResponse, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	if actor.Role == entity.RolePatient && actor.UserID != patientID {
		return nil, ErrForbidden
	}

	penalties, err := u.penaltyRepo.FindByPatientID(u.tx.Reader(ctx), patientID)
	if err != nil {
		u.log.Warnf("Failed to list penalties of patient %d: %+v", patientID, err)
		return nil, err
	}

	return &dto.PenaltyListResponse{
		Penalties: converter.PenaltiesToResponses(penalties),
		Total:     len(penalties),
	}, nil
}

// UpdateStatus settles or waives an active penalty, lifting the booking block.
func (u *penaltyUsecase) UpdateStatus(ctx context.Context, actor *entity.Principal, id uint, req *dto.UpdatePenaltyStatusRequest) (*dto.PenaltyResponse, error) {
	if !actor.HasRole(entity.RoleAdmin) {
		return nil, ErrForbidden
	}

	status := entity.PenaltyStatus(req.Status)
	if status != entity.PenaltyStatusPaid && status != entity.PenaltyStatusWaived {
		return nil, ErrInvalidPenaltyStatus
	}

	var penalty *entity.Penalty
	err := u.tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		var err error
		penalty, err = u.penaltyRepo.FindByID(tx, id)
		if err != nil {
			u.log.Warnf("Failed to find penalty %d: %+v", id, err)
			return err
		}
		if penalty == nil {
			return ErrPenaltyNotFound
		}

		affected, err := u.penaltyRepo.UpdateStatus(tx, id, status)
		if err != nil {
			u.log.Warnf("Failed to update penalty %d: %+v", id, err)
			return err
		}
		if affected == 0 {
			return ErrPenaltyNotActive
		}

		previous := penalty.Status
		penalty.Status = status
		return u.auditService.LogUpdate(ctx, tx, &actor.UserID, entity.AuditActionPenaltyStatus, "penalty", id, previous, status)
	})
	if err != nil {
		return nil, err
	}

	u.log.Infof("Penalty %d marked %s by admin %d", id, status, actor.UserID)
	return converter.PenaltyToResponse(penalty), nil
}
