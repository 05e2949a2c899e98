package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"dental-clinic-api/internal/converter"
	"dental-clinic-api/internal/delivery/dto"
	"dental-clinic-api/internal/domain/entity"
	"dental-clinic-api/internal/domain/repository"
	"dental-clinic-api/internal/service"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrSlotNotFound    = errors.New("availability slot not found")
	ErrSlotOverlap     = errors.New("the slot overlaps another availability window")
	ErrSlotOccupied    = errors.New("the slot already has an appointment and cannot be changed")
	ErrSlotTimeOrder   = errors.New("start time must be before end time")
	ErrSlotInPast      = errors.New("availability slots must start in the future")
	ErrInvalidSlotDate = errors.New("invalid date format, use YYYY-MM-DD")
	ErrDentistRequired = errors.New("dentistId is required")
)

type AvailabilityUsecase interface {
	Create(ctx context.Context, actor *entity.Principal, req *dto.CreateAvailabilityRequest) (*dto.AvailabilityResponse, error)
	List(ctx context.Context, actor *entity.Principal, req *dto.AvailabilityListRequest) (*dto.AvailabilityListResponse, error)
	Update(ctx context.Context, actor *entity.Principal, id uint, req *dto.UpdateAvailabilityRequest) (*dto.AvailabilityResponse, error)
	Delete(ctx context.Context, actor *entity.Principal, id uint) error
}

type availabilityUsecase struct {
	tx              repository.Transactor
	log             *logrus.Logger
	slotRepo        repository.AvailabilityRepository
	userRepo        repository.UserRepository
	appointmentRepo repository.AppointmentRepository
	auditService    service.AuditService
	now             func() time.Time
}

func NewAvailabilityUsecase(
	tx repository.Transactor,
	log *logrus.Logger,
	slotRepo repository.AvailabilityRepository,
	userRepo repository.UserRepository,
	appointmentRepo repository.AppointmentRepository,
	auditService service.AuditService,
) AvailabilityUsecase {
	return &availabilityUsecase{
		tx:              tx,
		log:             log,
		slotRepo:        slotRepo,
		userRepo:        userRepo,
		appointmentRepo: appointmentRepo,
		auditService:    auditService,
		now:             time.Now,
	}
}

// Create opens a slot for the calling dentist. Slots of the same dentist may not overlap.
func (u *availabilityUsecase) Create(ctx context.Context, actor *entity.Principal, req *dto.CreateAvailabilityRequest) (*dto.AvailabilityResponse, error) {
	if !actor.HasRole(entity.RoleDentist) {
		return nil, ErrForbidden
	}

	date, err := parseSlotDate(req.Date)
	if err != nil {
		return nil, err
	}
	slot := &entity.AvailabilitySlot{
		DentistID: actor.UserID,
		Date:      date,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	}
	if err := u.checkWindow(slot); err != nil {
		return nil, err
	}

	err = u.tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		if err := u.ensureNoOverlap(tx, slot); err != nil {
			return err
		}

		if err := u.slotRepo.Create(tx, slot); err != nil {
			u.log.Warnf("Failed to create availability slot: %+v", err)
			return err
		}

		return u.auditService.LogCreate(ctx, tx, &actor.UserID, entity.AuditActionSlotCreate, "availability_slot", slot.ID,
			converter.AvailabilityToResponse(slot, false))
	})
	if err != nil {
		return nil, err
	}

	u.log.Infof("Availability slot %d created for dentist %d on %s %s-%s",
		slot.ID, slot.DentistID, req.Date, slot.StartTime, slot.EndTime)
	return converter.AvailabilityToResponse(slot, false), nil
}

// List returns a dentist's slots with their occupancy. Dentists default to their own
// calendar; everyone else must name the dentist.
func (u *availabilityUsecase) List(ctx context.Context, actor *entity.Principal, req *dto.AvailabilityListRequest) (*dto.AvailabilityListResponse, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}

	filter := entity.AvailabilityFilter{DentistID: req.DentistID}
	if filter.DentistID == 0 {
		if !actor.HasRole(entity.RoleDentist) {
			return nil, ErrDentistRequired
		}
		filter.DentistID = actor.UserID
	}
	if req.From != "" {
		from, err := parseSlotDate(req.From)
		if err != nil {
			return nil, err
		}
		filter.From = &from
	}
	if req.To != "" {
		to, err := parseSlotDate(req.To)
		if err != nil {
			return nil, err
		}
		filter.To = &to
	}

	db := u.tx.Reader(ctx)
	dentist, err := u.userRepo.FindByID(db, filter.DentistID)
	if err != nil {
		u.log.Warnf("Failed to find dentist %d: %+v", filter.DentistID, err)
		return nil, err
	}
	if dentist == nil || !dentist.IsDentist() {
		return nil, ErrDentistNotAvailable
	}

	slots, err := u.slotRepo.List(db, filter)
	if err != nil {
		u.log.Warnf("Failed to list availability of dentist %d: %+v", filter.DentistID, err)
		return nil, err
	}

	responses := make([]dto.AvailabilityResponse, len(slots))
	for i := range slots {
		occupied, err := u.isOccupied(db, &slots[i])
		if err != nil {
			return nil, err
		}
		responses[i] = *converter.AvailabilityToResponse(&slots[i], occupied)
	}

	return &dto.AvailabilityListResponse{
		Slots: responses,
		Total: len(responses),
	}, nil
}

// Update moves a free slot. Only the owning dentist or an admin may edit it.
func (u *availabilityUsecase) Update(ctx context.Context, actor *entity.Principal, id uint, req *dto.UpdateAvailabilityRequest) (*dto.AvailabilityResponse, error) {
	var slot *entity.AvailabilitySlot
	err := u.tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		var err error
		slot, err = u.findEditable(tx, actor, id)
		if err != nil {
			return err
		}
		previous := converter.AvailabilityToResponse(slot, false)

		if req.Date != "" {
			date, err := parseSlotDate(req.Date)
			if err != nil {
				return err
			}
			slot.Date = date
		}
		if req.StartTime != "" {
			slot.StartTime = req.StartTime
		}
		if req.EndTime != "" {
			slot.EndTime = req.EndTime
		}
		if err := u.checkWindow(slot); err != nil {
			return err
		}
		if err := u.ensureNoOverlap(tx, slot); err != nil {
			return err
		}

		if err := u.slotRepo.Update(tx, slot); err != nil {
			u.log.Warnf("Failed to update availability slot %d: %+v", id, err)
			return err
		}

		return u.auditService.LogUpdate(ctx, tx, &actor.UserID, entity.AuditActionSlotUpdate, "availability_slot", id,
			previous, converter.AvailabilityToResponse(slot, false))
	})
	if err != nil {
		return nil, err
	}

	return converter.AvailabilityToResponse(slot, false), nil
}

func (u *availabilityUsecase) Delete(ctx context.Context, actor *entity.Principal, id uint) error {
	return u.tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		slot, err := u.findEditable(tx, actor, id)
		if err != nil {
			return err
		}

		affected, err := u.slotRepo.Delete(tx, id)
		if err != nil {
			u.log.Warnf("Failed to delete availability slot %d: %+v", id, err)
			return err
		}
		if affected == 0 {
			return ErrSlotNotFound
		}

		return u.auditService.LogDelete(ctx, tx, &actor.UserID, entity.AuditActionSlotDelete, "availability_slot", id,
			converter.AvailabilityToResponse(slot, false))
	})
}

// findEditable loads a slot the actor may change and that no appointment occupies.
func (u *availabilityUsecase) findEditable(tx *gorm.DB, actor *entity.Principal, id uint) (*entity.AvailabilitySlot, error) {
	slot, err := u.slotRepo.FindByID(tx, id)
	if err != nil {
		u.log.Warnf("Failed to find availability slot %d: %+v", id, err)
		return nil, err
	}
	if slot == nil {
		return nil, ErrSlotNotFound
	}

	isOwner := actor.HasRole(entity.RoleDentist) && slot.DentistID == actor.UserID
	if !isOwner && !actor.HasRole(entity.RoleAdmin) {
		return nil, ErrForbidden
	}

	occupied, err := u.isOccupied(tx, slot)
	if err != nil {
		return nil, err
	}
	if occupied {
		return nil, ErrSlotOccupied
	}
	return slot, nil
}

// checkWindow validates the clock times and requires the slot to start in the future.
func (u *availabilityUsecase) checkWindow(slot *entity.AvailabilitySlot) error {
	start, end, err := slot.Bounds()
	if err != nil {
		return err
	}
	if !start.Before(end) {
		return ErrSlotTimeOrder
	}
	if !start.After(u.now().UTC()) {
		return ErrSlotInPast
	}
	return nil
}

// ensureNoOverlap locks the dentist row so concurrent writers for the same dentist
// queue behind each other, then rejects overlapping windows.
func (u *availabilityUsecase) ensureNoOverlap(tx *gorm.DB, slot *entity.AvailabilitySlot) error {
	if _, err := u.userRepo.LockByID(tx, slot.DentistID); err != nil {
		u.log.Warnf("Failed to lock dentist %d: %+v", slot.DentistID, err)
		return err
	}

	overlapping, err := u.slotRepo.FindOverlapping(tx, slot)
	if err != nil {
		u.log.Warnf("Failed to check overlapping slots of dentist %d: %+v", slot.DentistID, err)
		return err
	}
	if len(overlapping) > 0 {
		return ErrSlotOverlap
	}
	return nil
}

// isOccupied reports whether an active appointment of the dentist starts inside the slot.
func (u *availabilityUsecase) isOccupied(db *gorm.DB, slot *entity.AvailabilitySlot) (bool, error) {
	start, end, err := slot.Bounds()
	if err != nil {
		return false, err
	}
	count, err := u.appointmentRepo.CountActiveInRange(db, slot.DentistID, start, end)
	if err != nil {
		u.log.Warnf("Failed to check occupancy of slot %d: %+v", slot.ID, err)
		return false, err
	}
	return count > 0, nil
}

func parseSlotDate(value string) (time.Time, error) {
	date, err := time.Parse(entity.SlotDateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, ErrInvalidSlotDate
	}
	return date, nil
}
