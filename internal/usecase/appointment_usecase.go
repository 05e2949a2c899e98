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

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrAppointmentConflict = errors.New("the dentist already has an appointment close to that time")
	ErrActivePenalty       = errors.New("you have an active penalty and cannot book new appointments")
	ErrDentistNotAvailable = errors.New("dentist not found or not accepting appointments")
	ErrDateInPast          = errors.New("appointment date must be in the future")
	ErrDateTooFar          = errors.New("appointments can be booked at most 3 months in advance")
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// Labels for the rejected-bookings metric.
const (
	rejectConflict      = "conflict"
	rejectActivePenalty = "active_penalty"
	rejectInvalidDate   = "invalid_date"
	rejectTooLate       = "reschedule_too_late"
)

type AppointmentUsecase interface {
	Create(ctx context.Context, actor *entity.Principal, req *dto.CreateAppointmentRequest) (*dto.AppointmentResponse, error)
	List(ctx context.Context, actor *entity.Principal, req *dto.AppointmentListRequest) (*dto.AppointmentListResponse, error)
	Get(ctx context.Context, actor *entity.Principal, id uint) (*dto.AppointmentResponse, error)
	Cancel(ctx context.Context, actor *entity.Principal, id uint) (*dto.CancelAppointmentResponse, error)
	Reschedule(ctx context.Context, actor *entity.Principal, id uint, req *dto.RescheduleAppointmentRequest) (*dto.AppointmentResponse, error)
	Confirm(ctx context.Context, actor *entity.Principal, id uint) (*dto.AppointmentResponse, error)
	Complete(ctx context.Context, actor *entity.Principal, id uint) (*dto.AppointmentResponse, error)
	MarkNoShow(ctx context.Context, actor *entity.Principal, id uint) (*dto.AppointmentResponse, error)
}

type appointmentUsecase struct {
	tx              repository.Transactor
	log             *logrus.Logger
	appointmentRepo repository.AppointmentRepository
	userRepo        repository.UserRepository
	penaltyRepo     repository.PenaltyRepository
	conflicts       *service.ConflictChecker
	penalties       *service.PenaltyEngine
	locker          *service.DentistLocker
	notifier        service.NotificationService
	auditService    service.AuditService
	metrics         *metrics.Metrics
	cfg             config.SchedulingConfig
	transitions     entity.TransitionContext
	now             func() time.Time
}

func NewAppointmentUsecase(
	tx repository.Transactor,
	log *logrus.Logger,
	cfg config.SchedulingConfig,
	appointmentRepo repository.AppointmentRepository,
	userRepo repository.UserRepository,
	penaltyRepo repository.PenaltyRepository,
	conflicts *service.ConflictChecker,
	penalties *service.PenaltyEngine,
	locker *service.DentistLocker,
	notifier service.NotificationService,
	auditService service.AuditService,
	m *metrics.Metrics,
) AppointmentUsecase {
	return &appointmentUsecase{
		tx:              tx,
		log:             log,
		appointmentRepo: appointmentRepo,
		userRepo:        userRepo,
		penaltyRepo:     penaltyRepo,
		conflicts:       conflicts,
		penalties:       penalties,
		locker:          locker,
		notifier:        notifier,
		auditService:    auditService,
		metrics:         m,
		cfg:             cfg,
		transitions:     entity.TransitionContext{StrictCompletion: cfg.StrictCompletion},
		now:             time.Now,
	}
}

// Create books an appointment for the calling patient.
//
// Flow:
// 1. Validate the requested instant (future, within the booking horizon)
// 2. Acquire the per-dentist lock
// 3. In one transaction: lock the dentist row, reject active penalties and
//    conflicts, insert the appointment
// 4. Notify patient and dentist
func (u *appointmentUsecase) Create(ctx context.Context, actor *entity.Principal, req *dto.CreateAppointmentRequest) (*dto.AppointmentResponse, error) {
	if !actor.HasRole(entity.RolePatient) {
		return nil, ErrForbidden
	}

	now := u.now().UTC()
	scheduledAt, err := u.parseSlot(req.Date, now)
	if err != nil {
		u.metrics.BookingRejected(rejectInvalidDate)
		return nil, err
	}

	aptType := entity.AppointmentType(req.Type)
	if aptType == "" {
		aptType = entity.AppointmentTypeFirstVisit
	}

	unlock := u.locker.Lock(req.DentistID)
	defer unlock()

	var apt *entity.Appointment
	err = u.tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		dentist, err := u.userRepo.LockByID(tx, req.DentistID)
		if err != nil {
			u.log.Warnf("Failed to lock dentist %d: %+v", req.DentistID, err)
			return err
		}
		if dentist == nil || !dentist.IsDentist() || !dentist.IsActive {
			return ErrDentistNotAvailable
		}

		blocked, err := u.penaltyRepo.HasActive(tx, actor.UserID)
		if err != nil {
			u.log.Warnf("Failed to check penalties of patient %d: %+v", actor.UserID, err)
			return err
		}
		if blocked {
			u.metrics.BookingRejected(rejectActivePenalty)
			return ErrActivePenalty
		}

		conflict, err := u.conflicts.HasConflict(tx, dentist.ID, scheduledAt, 0)
		if err != nil {
			u.log.Warnf("Failed to check conflicts for dentist %d: %+v", dentist.ID, err)
			return err
		}
		if conflict {
			u.metrics.BookingRejected(rejectConflict)
			return ErrAppointmentConflict
		}

		apt = &entity.Appointment{
			Folio:           service.GenerateFolio(now),
			PatientID:       actor.UserID,
			DentistID:       dentist.ID,
			ScheduledAt:     scheduledAt,
			DurationMinutes: u.cfg.DefaultDurationMinutes,
			Status:          entity.AppointmentStatusScheduled,
			Type:            aptType,
			Notes:           req.Notes,
		}
		if err := u.appointmentRepo.Create(tx, apt); err != nil {
			if isDuplicateKeyError(err, "uniq_active_dentist_slot") {
				u.metrics.BookingRejected(rejectConflict)
				return ErrAppointmentConflict
			}
			if isForeignKeyError(err, "patient_id") {
				return ErrPatientNotFound
			}
			u.log.Warnf("Failed to insert appointment: %+v", err)
			return err
		}
		apt.Dentist = dentist

		return u.auditService.LogCreate(ctx, tx, &actor.UserID, entity.AuditActionAppointmentCreate, "appointment", apt.ID, converter.AppointmentToResponse(apt))
	})
	if err != nil {
		return nil, err
	}

	u.metrics.Booked()
	u.log.Infof("Appointment booked: id=%d, folio=%s, dentist=%d, at=%s", apt.ID, apt.Folio, apt.DentistID, apt.ScheduledAt.Format(time.RFC3339))

	patient := u.findUserQuietly(ctx, actor.UserID)
	apt.Patient = patient
	u.notifier.NotifyAppointment(ctx, service.NotificationBooked, apt, patient, apt.Dentist)

	return converter.AppointmentToResponse(apt), nil
}

// List returns appointments visible to the caller: patients see their own,
// dentists see those assigned to them, admins see everything.
func (u *appointmentUsecase) List(ctx context.Context, actor *entity.Principal, req *dto.AppointmentListRequest) (*dto.AppointmentListResponse, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}

	page := req.Page
	if page < 1 {
		page = 1
	}
	limit := req.Limit
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	filter := entity.AppointmentFilter{
		Status: entity.AppointmentStatus(req.Status),
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
	if req.DentistID != 0 {
		dentistID := req.DentistID
		filter.DentistID = &dentistID
	}

	switch actor.Role {
	case entity.RolePatient:
		filter.PatientID = &actor.UserID
	case entity.RoleDentist:
		filter.DentistID = &actor.UserID
	case entity.RoleAdmin:
	default:
		return nil, ErrForbidden
	}

	if req.From != "" {
		from, err := parseInstant(req.From)
		if err != nil {
			return nil, err
		}
		filter.From = &from
	}
	if req.To != "" {
		to, err := parseInstant(req.To)
		if err != nil {
			return nil, err
		}
		filter.To = &to
	}

	appointments, total, err := u.appointmentRepo.List(u.tx.Reader(ctx), filter)
	if err != nil {
		u.log.Warnf("Failed to list appointments: %+v", err)
		return nil, err
	}

	totalPages := 0
	if total > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}

	return &dto.AppointmentListResponse{
		Appointments: converter.AppointmentsToResponses(appointments),
		Total:        total,
		Page:         page,
		Limit:        limit,
		TotalPages:   totalPages,
	}, nil
}

func (u *appointmentUsecase) Get(ctx context.Context, actor *entity.Principal, id uint) (*dto.AppointmentResponse, error) {
	apt, err := u.findAppointment(u.tx.Reader(ctx), id)
	if err != nil {
		return nil, err
	}
	if !actor.HasRole(entity.RoleAdmin) && !apt.IsOwnedBy(actor) {
		return nil, ErrForbidden
	}
	return converter.AppointmentToResponse(apt), nil
}

// Cancel is allowed to the owning patient, the assigned dentist and admins.
// A patient cancelling inside the late-cancellation window is penalized in the
// same transaction; the cancellation itself still goes through.
func (u *appointmentUsecase) Cancel(ctx context.Context, actor *entity.Principal, id uint) (*dto.CancelAppointmentResponse, error) {
	apt, err := u.findAppointment(u.tx.Reader(ctx), id)
	if err != nil {
		return nil, err
	}
	if !actor.HasRole(entity.RoleAdmin) && !apt.IsOwnedBy(actor) {
		return nil, ErrForbidden
	}

	decision := u.penalties.EvaluateCancellation(apt, actor.Role, u.now().UTC())
	if !decision.Allowed {
		return nil, &entity.TransitionError{From: apt.Status, Action: entity.ActionCancel}
	}

	previous := apt.Status
	err = u.tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		affected, err := u.appointmentRepo.UpdateStatus(tx, apt.ID, previous, entity.AppointmentStatusCancelled)
		if err != nil {
			u.log.Warnf("Failed to cancel appointment %d: %+v", apt.ID, err)
			return err
		}
		if affected == 0 {
			return ErrConcurrentUpdate
		}

		if decision.Penalty != nil {
			if err := u.penaltyRepo.Create(tx, decision.Penalty); err != nil {
				u.log.Warnf("Failed to create penalty for appointment %d: %+v", apt.ID, err)
				return err
			}
			if err := u.auditService.LogCreate(ctx, tx, &actor.UserID, entity.AuditActionPenaltyCreate, "penalty", decision.Penalty.ID, converter.PenaltyToResponse(decision.Penalty)); err != nil {
				return err
			}
		}

		return u.auditService.LogUpdate(ctx, tx, &actor.UserID, entity.AuditActionAppointmentCancel, "appointment", apt.ID, previous, entity.AppointmentStatusCancelled)
	})
	if err != nil {
		return nil, err
	}

	apt.Status = entity.AppointmentStatusCancelled
	result := &dto.CancelAppointmentResponse{
		Appointment:    converter.AppointmentToResponse(apt),
		PenaltyApplied: decision.Penalty != nil,
	}
	if decision.Penalty != nil {
		u.metrics.PenaltyCreated(string(decision.Penalty.Reason))
		result.Penalty = converter.PenaltyToResponse(decision.Penalty)
		u.log.Infof("Late cancellation penalty applied: patient=%d, appointment=%d", apt.PatientID, apt.ID)
	}
	u.log.Infof("Appointment cancelled: id=%d, by user=%d (%s)", apt.ID, actor.UserID, actor.Role)

	u.notifier.NotifyAppointment(ctx, service.NotificationCancelled, apt, apt.Patient, apt.Dentist)
	return result, nil
}

// Reschedule moves the owning patient's appointment to a new instant. The move must be
// requested before the reschedule cutoff and the new slot must be free.
func (u *appointmentUsecase) Reschedule(ctx context.Context, actor *entity.Principal, id uint, req *dto.RescheduleAppointmentRequest) (*dto.AppointmentResponse, error) {
	apt, err := u.findAppointment(u.tx.Reader(ctx), id)
	if err != nil {
		return nil, err
	}
	if !actor.HasRole(entity.RolePatient) || apt.PatientID != actor.UserID {
		return nil, ErrForbidden
	}

	now := u.now().UTC()
	newDate, err := u.parseSlot(req.NewDate, now)
	if err != nil {
		u.metrics.BookingRejected(rejectInvalidDate)
		return nil, err
	}

	if _, err := entity.Transition(apt.Status, entity.ActionReschedule, u.transitions); err != nil {
		return nil, err
	}
	if err := u.penalties.EvaluateReschedule(apt, now); err != nil {
		u.metrics.BookingRejected(rejectTooLate)
		return nil, err
	}

	unlock := u.locker.Lock(apt.DentistID)
	defer unlock()

	previous := apt.ScheduledAt
	err = u.tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		if _, err := u.userRepo.LockByID(tx, apt.DentistID); err != nil {
			u.log.Warnf("Failed to lock dentist %d: %+v", apt.DentistID, err)
			return err
		}

		conflict, err := u.conflicts.HasConflict(tx, apt.DentistID, newDate, apt.ID)
		if err != nil {
			u.log.Warnf("Failed to check conflicts for dentist %d: %+v", apt.DentistID, err)
			return err
		}
		if conflict {
			u.metrics.BookingRejected(rejectConflict)
			return ErrAppointmentConflict
		}

		affected, err := u.appointmentRepo.Reschedule(tx, apt.ID, apt.Status, newDate)
		if err != nil {
			if isDuplicateKeyError(err, "uniq_active_dentist_slot") {
				u.metrics.BookingRejected(rejectConflict)
				return ErrAppointmentConflict
			}
			u.log.Warnf("Failed to reschedule appointment %d: %+v", apt.ID, err)
			return err
		}
		if affected == 0 {
			return ErrConcurrentUpdate
		}

		return u.auditService.LogUpdate(ctx, tx, &actor.UserID, entity.AuditActionAppointmentMove, "appointment", apt.ID,
			previous.Format(time.RFC3339), newDate.Format(time.RFC3339))
	})
	if err != nil {
		return nil, err
	}

	apt.ScheduledAt = newDate
	apt.Status = entity.AppointmentStatusScheduled
	u.log.Infof("Appointment rescheduled: id=%d, from=%s, to=%s", apt.ID, previous.Format(time.RFC3339), newDate.Format(time.RFC3339))

	u.notifier.NotifyAppointment(ctx, service.NotificationRescheduled, apt, apt.Patient, apt.Dentist)
	return converter.AppointmentToResponse(apt), nil
}

func (u *appointmentUsecase) Confirm(ctx context.Context, actor *entity.Principal, id uint) (*dto.AppointmentResponse, error) {
	apt, err := u.advance(ctx, actor, id, entity.ActionConfirm, entity.AuditActionAppointmentConfirm, nil)
	if err != nil {
		return nil, err
	}
	u.notifier.NotifyAppointment(ctx, service.NotificationConfirmed, apt, apt.Patient, apt.Dentist)
	return converter.AppointmentToResponse(apt), nil
}

func (u *appointmentUsecase) Complete(ctx context.Context, actor *entity.Principal, id uint) (*dto.AppointmentResponse, error) {
	apt, err := u.advance(ctx, actor, id, entity.ActionComplete, entity.AuditActionAppointmentComplete, nil)
	if err != nil {
		return nil, err
	}
	return converter.AppointmentToResponse(apt), nil
}

// MarkNoShow records that the patient did not attend and charges a no-show penalty.
func (u *appointmentUsecase) MarkNoShow(ctx context.Context, actor *entity.Principal, id uint) (*dto.AppointmentResponse, error) {
	var penalty *entity.Penalty
	apt, err := u.advance(ctx, actor, id, entity.ActionMarkNoShow, entity.AuditActionAppointmentNoShow, func(tx *gorm.DB, apt *entity.Appointment) error {
		penalty = u.penalties.NoShowPenalty(apt)
		if err := u.penaltyRepo.Create(tx, penalty); err != nil {
			u.log.Warnf("Failed to create no-show penalty for appointment %d: %+v", apt.ID, err)
			return err
		}
		return u.auditService.LogCreate(ctx, tx, &actor.UserID, entity.AuditActionPenaltyCreate, "penalty", penalty.ID, converter.PenaltyToResponse(penalty))
	})
	if err != nil {
		return nil, err
	}
	u.metrics.PenaltyCreated(string(penalty.Reason))
	return converter.AppointmentToResponse(apt), nil
}

// advance applies a dentist-side action (confirm, complete, no-show). Only the assigned
// dentist or an admin may do so. after runs inside the same transaction.
func (u *appointmentUsecase) advance(
	ctx context.Context,
	actor *entity.Principal,
	id uint,
	action entity.AppointmentAction,
	auditAction string,
	after func(tx *gorm.DB, apt *entity.Appointment) error,
) (*entity.Appointment, error) {
	apt, err := u.findAppointment(u.tx.Reader(ctx), id)
	if err != nil {
		return nil, err
	}

	isAssignedDentist := actor.HasRole(entity.RoleDentist) && apt.DentistID == actor.UserID
	if !isAssignedDentist && !actor.HasRole(entity.RoleAdmin) {
		return nil, ErrForbidden
	}

	next, err := entity.Transition(apt.Status, action, u.transitions)
	if err != nil {
		return nil, err
	}

	previous := apt.Status
	err = u.tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		affected, err := u.appointmentRepo.UpdateStatus(tx, apt.ID, previous, next)
		if err != nil {
			u.log.Warnf("Failed to %s appointment %d: %+v", action, apt.ID, err)
			return err
		}
		if affected == 0 {
			return ErrConcurrentUpdate
		}

		if after != nil {
			if err := after(tx, apt); err != nil {
				return err
			}
		}

		return u.auditService.LogUpdate(ctx, tx, &actor.UserID, auditAction, "appointment", apt.ID, previous, next)
	})
	if err != nil {
		return nil, err
	}

	apt.Status = next
	u.log.Infof("Appointment %d: %s -> %s by user %d", apt.ID, previous, next, actor.UserID)
	return apt, nil
}

// parseSlot parses an ISO-8601 instant that must lie in the future and within the booking horizon.
func (u *appointmentUsecase) parseSlot(value string, now time.Time) (time.Time, error) {
	t, err := parseInstant(value)
	if err != nil {
		return time.Time{}, err
	}
	if !t.After(now) {
		return time.Time{}, ErrDateInPast
	}
	if t.After(now.AddDate(0, u.cfg.MaxAdvanceMonths, 0)) {
		return time.Time{}, ErrDateTooFar
	}
	return t, nil
}

func (u *appointmentUsecase) findAppointment(db *gorm.DB, id uint) (*entity.Appointment, error) {
	apt, err := u.appointmentRepo.FindByID(db, id)
	if err != nil {
		u.log.Warnf("Failed to find appointment %d: %+v", id, err)
		return nil, err
	}
	if apt == nil {
		return nil, ErrAppointmentNotFound
	}
	return apt, nil
}

func (u *appointmentUsecase) findUserQuietly(ctx context.Context, id uint) *entity.User {
	user, err := u.userRepo.FindByID(u.tx.Reader(ctx), id)
	if err != nil {
		u.log.Warnf("Failed to load user %d for notification: %+v", id, err)
		return nil
	}
	return user
}
