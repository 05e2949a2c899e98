package usecase

import (
	"context"
	"testing"

	"dental-clinic-api/internal/delivery/dto"
	"dental-clinic-api/internal/domain/entity"
	"dental-clinic-api/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordFixture struct {
	uc           MedicalRecordUsecase
	users        *memUserRepo
	appointments *memAppointmentRepo
	records      *memRecordRepo
	audit        *memAuditRepo
	patient      *entity.User
	other        *entity.User
	dentist      *entity.User
	otherDentist *entity.User
	admin        *entity.User
}

func newRecordFixture() *recordFixture {
	log := quietLogger()
	f := &recordFixture{
		users:        newMemUserRepo(),
		appointments: newMemAppointmentRepo(),
		records:      newMemRecordRepo(),
		audit:        &memAuditRepo{},
	}
	specialty := "Orthodontics"
	f.patient = f.users.add(entity.User{Name: "Ana Patient", Email: "ana@example.com", Role: entity.RolePatient, IsActive: true})
	f.other = f.users.add(entity.User{Name: "Luis Patient", Email: "luis@example.com", Role: entity.RolePatient, IsActive: true})
	f.dentist = f.users.add(entity.User{Name: "Dr. Molar", Email: "molar@example.com", Role: entity.RoleDentist, Specialty: &specialty, IsActive: true})
	f.otherDentist = f.users.add(entity.User{Name: "Dr. Canine", Email: "canine@example.com", Role: entity.RoleDentist, Specialty: &specialty, IsActive: true})
	f.admin = f.users.add(entity.User{Name: "Root Admin", Email: "admin@example.com", Role: entity.RoleAdmin, IsActive: true})
	f.uc = NewMedicalRecordUsecase(fakeTransactor{}, log, f.records, f.users, f.appointments, service.NewAuditService(log, f.audit))
	return f
}

func (f *recordFixture) create(t *testing.T) *dto.MedicalRecordResponse {
	t.Helper()
	res, err := f.uc.Create(context.Background(), principal(f.dentist), &dto.CreateMedicalRecordRequest{
		PatientID:  f.patient.ID,
		Diagnosis:  "  Caries in 36 ",
		Treatment:  "Composite filling",
		XrayImages: []string{"https://cdn.example.com/xray/1.png"},
	})
	require.NoError(t, err)
	return res
}

func TestMedicalRecordCreate(t *testing.T) {
	f := newRecordFixture()
	res := f.create(t)

	assert.Equal(t, "Caries in 36", res.Diagnosis)
	assert.Equal(t, f.dentist.ID, res.DentistID)
	assert.Equal(t, []string{"https://cdn.example.com/xray/1.png"}, res.XrayImages)
	assert.Contains(t, f.audit.actions(), entity.AuditActionRecordCreate)
}

func TestMedicalRecordCreate_Rejections(t *testing.T) {
	f := newRecordFixture()

	_, err := f.uc.Create(context.Background(), principal(f.patient), &dto.CreateMedicalRecordRequest{PatientID: f.patient.ID, Diagnosis: "x"})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.uc.Create(context.Background(), principal(f.dentist), &dto.CreateMedicalRecordRequest{PatientID: f.patient.ID, Diagnosis: "   "})
	assert.ErrorIs(t, err, ErrDiagnosisRequired)

	_, err = f.uc.Create(context.Background(), principal(f.dentist), &dto.CreateMedicalRecordRequest{PatientID: f.otherDentist.ID, Diagnosis: "x"})
	assert.ErrorIs(t, err, ErrPatientNotFound)
}

func TestMedicalRecordCreate_AppointmentMustBelongToPatient(t *testing.T) {
	f := newRecordFixture()
	own := f.appointments.add(entity.Appointment{PatientID: f.patient.ID, DentistID: f.dentist.ID, ScheduledAt: testNow, Status: entity.AppointmentStatusCompleted})
	foreign := f.appointments.add(entity.Appointment{PatientID: f.other.ID, DentistID: f.dentist.ID, ScheduledAt: testNow, Status: entity.AppointmentStatusCompleted})
	missing := uint(999)

	request := func(appointmentID *uint) *dto.CreateMedicalRecordRequest {
		return &dto.CreateMedicalRecordRequest{PatientID: f.patient.ID, AppointmentID: appointmentID, Diagnosis: "Gingivitis"}
	}

	_, err := f.uc.Create(context.Background(), principal(f.dentist), request(&foreign.ID))
	assert.ErrorIs(t, err, ErrRecordAppointmentMismatch)

	_, err = f.uc.Create(context.Background(), principal(f.dentist), request(&missing))
	assert.ErrorIs(t, err, ErrAppointmentNotFound)

	list, err := f.uc.ListByPatient(context.Background(), principal(f.admin), f.patient.ID)
	require.NoError(t, err)
	assert.Zero(t, list.Total)

	res, err := f.uc.Create(context.Background(), principal(f.dentist), request(&own.ID))
	require.NoError(t, err)
	require.NotNil(t, res.AppointmentID)
	assert.Equal(t, own.ID, *res.AppointmentID)
}

func TestMedicalRecordRead_Permissions(t *testing.T) {
	f := newRecordFixture()
	created := f.create(t)

	_, err := f.uc.Get(context.Background(), principal(f.patient), created.ID)
	assert.NoError(t, err)
	_, err = f.uc.Get(context.Background(), principal(f.otherDentist), created.ID)
	assert.NoError(t, err)
	_, err = f.uc.Get(context.Background(), principal(f.other), created.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = f.uc.Get(context.Background(), principal(f.admin), 999)
	assert.ErrorIs(t, err, ErrMedicalRecordNotFound)

	list, err := f.uc.ListByPatient(context.Background(), principal(f.patient), f.patient.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, list.Total)

	_, err = f.uc.ListByPatient(context.Background(), principal(f.other), f.patient.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestMedicalRecordUpdate(t *testing.T) {
	f := newRecordFixture()
	created := f.create(t)
	notes := "Follow-up in 6 months"

	_, err := f.uc.Update(context.Background(), principal(f.otherDentist), created.ID, &dto.UpdateMedicalRecordRequest{Notes: &notes})
	assert.ErrorIs(t, err, ErrForbidden)

	res, err := f.uc.Update(context.Background(), principal(f.dentist), created.ID, &dto.UpdateMedicalRecordRequest{Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, notes, res.Notes)
	assert.Equal(t, "Caries in 36", res.Diagnosis)
	assert.Equal(t, "Composite filling", res.Treatment)

	blank := " "
	_, err = f.uc.Update(context.Background(), principal(f.admin), created.ID, &dto.UpdateMedicalRecordRequest{Diagnosis: &blank})
	assert.ErrorIs(t, err, ErrDiagnosisRequired)
	assert.Contains(t, f.audit.actions(), entity.AuditActionRecordUpdate)
}
