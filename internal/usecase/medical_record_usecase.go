package usecase

import (
	"context"
	"errors"
	"strings"

	"dental-clinic-api/internal/converter"
	"dental-clinic-api/internal/delivery/dto"
	"dental-clinic-api/internal/domain/entity"
	"dental-clinic-api/internal/domain/repository"
	"dental-clinic-api/internal/service"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrMedicalRecordNotFound     = errors.New("medical record not found")
	ErrDiagnosisRequired         = errors.New("diagnosis is required")
	ErrRecordAppointmentMismatch = errors.New("the appointment does not belong to this patient")
)

type MedicalRecordUsecase interface {
	Create(ctx context.Context, actor *entity.Principal, req *dto.CreateMedicalRecordRequest) (*dto.MedicalRecordResponse, error)
	ListByPatient(ctx context.Context, actor *entity.Principal, patientID uint) (*dto.MedicalRecordListResponse, error)
	Get(ctx context.Context, actor *entity.Principal, id uint) (*dto.MedicalRecordResponse, error)
	Update(ctx context.Context, actor *entity.Principal, id uint, req *dto.UpdateMedicalRecordRequest) (*dto.MedicalRecordResponse, error)
}

type medicalRecordUsecase struct {
	tx              repository.Transactor
	log             *logrus.Logger
	recordRepo      repository.MedicalRecordRepository
	userRepo        repository.UserRepository
	appointmentRepo repository.AppointmentRepository
	auditService    service.AuditService
}

func NewMedicalRecordUsecase(
	tx repository.Transactor,
	log *logrus.Logger,
	recordRepo repository.MedicalRecordRepository,
	userRepo repository.UserRepository,
	appointmentRepo repository.AppointmentRepository,
	auditService service.AuditService,
) MedicalRecordUsecase {
	return &medicalRecordUsecase{
		tx:              tx,
		log:             log,
		recordRepo:      recordRepo,
		userRepo:        userRepo,
		appointmentRepo: appointmentRepo,
		auditService:    auditService,
	}
}

// Create stores a record authored by the calling dentist (or admin).
func (u *medicalRecordUsecase) Create(ctx context.Context, actor *entity.Principal, req *dto.CreateMedicalRecordRequest) (*dto.MedicalRecordResponse, error) {
	if !actor.HasRole(entity.RoleDentist, entity.RoleAdmin) {
		return nil, ErrForbidden
	}

	diagnosis := strings.TrimSpace(req.Diagnosis)
	if diagnosis == "" {
		return nil, ErrDiagnosisRequired
	}

	record := &entity.MedicalRecord{
		PatientID:     req.PatientID,
		DentistID:     actor.UserID,
		AppointmentID: req.AppointmentID,
		Diagnosis:     diagnosis,
		Treatment:     req.Treatment,
		Prescriptions: req.Prescriptions,
		Notes:         req.Notes,
		XrayImages:    datatypes.JSONSlice[string](req.XrayImages),
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

		if req.AppointmentID != nil {
			apt, err := u.appointmentRepo.FindByID(tx, *req.AppointmentID)
			if err != nil {
				u.log.Warnf("Failed to find appointment %d: %+v", *req.AppointmentID, err)
				return err
			}
			if apt == nil {
				return ErrAppointmentNotFound
			}
			if apt.PatientID != req.PatientID {
				return ErrRecordAppointmentMismatch
			}
		}

		if err := u.recordRepo.Create(tx, record); err != nil {
			if isForeignKeyError(err, "appointment_id") {
				return ErrAppointmentNotFound
			}
			u.log.Warnf("Failed to create medical record: %+v", err)
			return err
		}

		return u.auditService.LogCreate(ctx, tx, &actor.UserID, entity.AuditActionRecordCreate, "medical_record", record.ID,
			map[string]uint{"patient_id": record.PatientID})
	})
	if err != nil {
		return nil, err
	}

	u.log.Infof("Medical record %d created for patient %d by user %d", record.ID, record.PatientID, actor.UserID)
	return converter.MedicalRecordToResponse(record), nil
}

// ListByPatient returns the patient's records, newest first.
func (u *medicalRecordUsecase) ListByPatient(ctx context.Context, actor *entity.Principal, patientID uint) (*dto.MedicalRecordListResponse, error) {
	if err := u.authorizeRead(actor, patientID); err != nil {
		return nil, err
	}

	records, err := u.recordRepo.FindByPatientID(u.tx.Reader(ctx), patientID)
	if err != nil {
		u.log.Warnf("Failed to list medical records of patient %d: %+v", patientID, err)
		return nil, err
	}

	return &dto.MedicalRecordListResponse{
		Records: converter.MedicalRecordsToResponses(records),
		Total:   len(records),
	}, nil
}

func (u *medicalRecordUsecase) Get(ctx context.Context, actor *entity.Principal, id uint) (*dto.MedicalRecordResponse, error) {
	record, err := u.findRecord(u.tx.Reader(ctx), id)
	if err != nil {
		return nil, err
	}
	if err := u.authorizeRead(actor, record.PatientID); err != nil {
		return nil, err
	}
	return converter.MedicalRecordToResponse(record), nil
}

// Update applies the fields present in req. Only the authoring dentist or an admin may edit.
func (u *medicalRecordUsecase) Update(ctx context.Context, actor *entity.Principal, id uint, req *dto.UpdateMedicalRecordRequest) (*dto.MedicalRecordResponse, error) {
	if !actor.HasRole(entity.RoleDentist, entity.RoleAdmin) {
		return nil, ErrForbidden
	}

	var record *entity.MedicalRecord
	err := u.tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		var err error
		record, err = u.findRecord(tx, id)
		if err != nil {
			return err
		}
		if actor.Role == entity.RoleDentist && record.DentistID != actor.UserID {
			return ErrForbidden
		}

		if req.Diagnosis != nil {
			diagnosis := strings.TrimSpace(*req.Diagnosis)
			if diagnosis == "" {
				return ErrDiagnosisRequired
			}
			record.Diagnosis = diagnosis
		}
		if req.Treatment != nil {
			record.Treatment = *req.Treatment
		}
		if req.Prescriptions != nil {
			record.Prescriptions = *req.Prescriptions
		}
		if req.Notes != nil {
			record.Notes = *req.Notes
		}
		if req.XrayImages != nil {
			record.XrayImages = datatypes.JSONSlice[string](req.XrayImages)
		}

		if err := u.recordRepo.Update(tx, record); err != nil {
			u.log.Warnf("Failed to update medical record %d: %+v", id, err)
			return err
		}

		return u.auditService.LogUpdate(ctx, tx, &actor.UserID, entity.AuditActionRecordUpdate, "medical_record", id, nil, req)
	})
	if err != nil {
		return nil, err
	}

	return converter.MedicalRecordToResponse(record), nil
}

func (u *medicalRecordUsecase) authorizeRead(actor *entity.Principal, patientID uint) error {
	switch {
	case actor == nil:
		return ErrUnauthenticated
	case actor.HasRole(entity.RoleDentist, entity.RoleAdmin):
		return nil
	case actor.Role == entity.RolePatient && actor.UserID == patientID:
		return nil
	}
	return ErrForbidden
}

func (u *medicalRecordUsecase) findRecord(db *gorm.DB, id uint) (*entity.MedicalRecord, error) {
	record, err := u.recordRepo.FindByID(db, id)
	if err != nil {
		u.log.Warnf("Failed to find medical record %d: %+v", id, err)
		return nil, err
	}
	if record == nil {
		return nil, ErrMedicalRecordNotFound
	}
	return record, nil
}
