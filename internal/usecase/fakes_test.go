package usecase

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"dental-clinic-api/internal/domain/entity"
	"dental-clinic-api/internal/service"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func duplicateKey(constraint string) error {
	return &pgconn.PgError{Code: pgUniqueViolation, ConstraintName: constraint}
}

type fakeTransactor struct{}

func (fakeTransactor) Reader(context.Context) *gorm.DB { return nil }

func (fakeTransactor) WithinTransaction(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

// memUserRepo

type memUserRepo struct {
	mu     sync.Mutex
	nextID uint
	users  map[uint]*entity.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[uint]*entity.User{}}
}

func (r *memUserRepo) add(u entity.User) *entity.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	u.ID = r.nextID
	stored := u
	r.users[u.ID] = &stored
	return &u
}

func (r *memUserRepo) Create(_ *gorm.DB, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return duplicateKey("uni_users_email")
		}
		if existing.Phone == user.Phone {
			return duplicateKey("uni_users_phone")
		}
	}
	r.nextID++
	user.ID = r.nextID
	stored := *user
	r.users[user.ID] = &stored
	return nil
}

func (r *memUserRepo) FindByID(_ *gorm.DB, id uint) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		c := *u
		return &c, nil
	}
	return nil, nil
}

func (r *memUserRepo) FindByEmail(_ *gorm.DB, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) LockByID(db *gorm.DB, id uint) (*entity.User, error) {
	return r.FindByID(db, id)
}

func (r *memUserRepo) Search(_ *gorm.DB, filter entity.UserFilter) ([]entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q := strings.ToLower(filter.Query)
	var out []entity.User
	for _, u := range r.users {
		if q == "" || strings.Contains(strings.ToLower(u.Name), q) || strings.Contains(u.Email, q) {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memUserRepo) FindActiveDentists(_ *gorm.DB) ([]entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.User
	for _, u := range r.users {
		if u.IsDentist() && u.IsActive {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *memUserRepo) UpdateStatus(_ *gorm.DB, id uint, isActive bool) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return 0, nil
	}
	u.IsActive = isActive
	return 1, nil
}

func (r *memUserRepo) UpdateRole(_ *gorm.DB, id uint, role entity.Role, specialty *string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return 0, nil
	}
	u.Role = role
	u.Specialty = specialty
	return 1, nil
}

func (r *memUserRepo) Delete(_ *gorm.DB, id uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return 0, nil
	}
	delete(r.users, id)
	return 1, nil
}

// memAppointmentRepo

type memAppointmentRepo struct {
	mu           sync.Mutex
	nextID       uint
	appointments map[uint]*entity.Appointment
}

func newMemAppointmentRepo() *memAppointmentRepo {
	return &memAppointmentRepo{appointments: map[uint]*entity.Appointment{}}
}

func (r *memAppointmentRepo) add(a entity.Appointment) *entity.Appointment {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	a.ID = r.nextID
	r.appointments[a.ID] = &a
	c := a
	return &c
}

func (r *memAppointmentRepo) get(id uint) entity.Appointment {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.appointments[id]
}

func (r *memAppointmentRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.appointments)
}

func (r *memAppointmentRepo) Create(_ *gorm.DB, apt *entity.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.appointments {
		if existing.DentistID == apt.DentistID && existing.IsActive() && existing.ScheduledAt.Equal(apt.ScheduledAt) {
			return duplicateKey("uniq_active_dentist_slot")
		}
	}
	r.nextID++
	apt.ID = r.nextID
	stored := *apt
	r.appointments[apt.ID] = &stored
	return nil
}

func (r *memAppointmentRepo) FindByID(_ *gorm.DB, id uint) (*entity.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.appointments[id]; ok {
		c := *a
		return &c, nil
	}
	return nil, nil
}

func (r *memAppointmentRepo) List(_ *gorm.DB, filter entity.AppointmentFilter) ([]entity.Appointment, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []entity.Appointment
	for _, a := range r.appointments {
		if filter.PatientID != nil && a.PatientID != *filter.PatientID {
			continue
		}
		if filter.DentistID != nil && a.DentistID != *filter.DentistID {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		matched = append(matched, *a)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ScheduledAt.Before(matched[j].ScheduledAt) })

	total := int64(len(matched))
	if filter.Offset >= len(matched) {
		return []entity.Appointment{}, total, nil
	}
	end := filter.Offset + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[filter.Offset:end], total, nil
}

func (r *memAppointmentRepo) FindActiveBetween(_ *gorm.DB, dentistID uint, from, to time.Time, excludeID uint) ([]entity.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Appointment
	for _, a := range r.appointments {
		if a.DentistID != dentistID || a.ID == excludeID || !a.IsActive() {
			continue
		}
		if a.ScheduledAt.After(from) && a.ScheduledAt.Before(to) {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *memAppointmentRepo) CountActiveInRange(_ *gorm.DB, dentistID uint, from, to time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, a := range r.appointments {
		if a.DentistID == dentistID && a.IsActive() && !a.ScheduledAt.Before(from) && a.ScheduledAt.Before(to) {
			count++
		}
	}
	return count, nil
}

func (r *memAppointmentRepo) UpdateStatus(_ *gorm.DB, id uint, current, next entity.AppointmentStatus) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appointments[id]
	if !ok || a.Status != current {
		return 0, nil
	}
	a.Status = next
	return 1, nil
}

func (r *memAppointmentRepo) Reschedule(_ *gorm.DB, id uint, current entity.AppointmentStatus, scheduledAt time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appointments[id]
	if !ok || a.Status != current {
		return 0, nil
	}
	a.ScheduledAt = scheduledAt
	a.Status = entity.AppointmentStatusScheduled
	return 1, nil
}

// memPenaltyRepo

type memPenaltyRepo struct {
	mu        sync.Mutex
	nextID    uint
	penalties map[uint]*entity.Penalty
}

func newMemPenaltyRepo() *memPenaltyRepo {
	return &memPenaltyRepo{penalties: map[uint]*entity.Penalty{}}
}

func (r *memPenaltyRepo) all() []entity.Penalty {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Penalty
	for _, p := range r.penalties {
		out = append(out, *p)
	}
	return out
}

func (r *memPenaltyRepo) Create(_ *gorm.DB, p *entity.Penalty) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	p.ID = r.nextID
	stored := *p
	r.penalties[p.ID] = &stored
	return nil
}

func (r *memPenaltyRepo) FindByID(_ *gorm.DB, id uint) (*entity.Penalty, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.penalties[id]; ok {
		c := *p
		return &c, nil
	}
	return nil, nil
}

func (r *memPenaltyRepo) FindByPatientID(_ *gorm.DB, patientID uint) ([]entity.Penalty, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Penalty
	for _, p := range r.penalties {
		if p.PatientID == patientID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *memPenaltyRepo) HasActive(_ *gorm.DB, patientID uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.penalties {
		if p.PatientID == patientID && p.Status == entity.PenaltyStatusActive {
			return true, nil
		}
	}
	return false, nil
}

func (r *memPenaltyRepo) UpdateStatus(_ *gorm.DB, id uint, status entity.PenaltyStatus) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.penalties[id]
	if !ok || p.Status != entity.PenaltyStatusActive {
		return 0, nil
	}
	p.Status = status
	return 1, nil
}

// memRecordRepo

type memRecordRepo struct {
	mu      sync.Mutex
	nextID  uint
	records map[uint]*entity.MedicalRecord
}

func newMemRecordRepo() *memRecordRepo {
	return &memRecordRepo{records: map[uint]*entity.MedicalRecord{}}
}

func (r *memRecordRepo) Create(_ *gorm.DB, record *entity.MedicalRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	record.ID = r.nextID
	stored := *record
	r.records[record.ID] = &stored
	return nil
}

func (r *memRecordRepo) FindByID(_ *gorm.DB, id uint) (*entity.MedicalRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.records[id]; ok {
		c := *rec
		return &c, nil
	}
	return nil, nil
}

func (r *memRecordRepo) FindByPatientID(_ *gorm.DB, patientID uint) ([]entity.MedicalRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.MedicalRecord
	for _, rec := range r.records {
		if rec.PatientID == patientID {
			out = append(out, *rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *memRecordRepo) Update(_ *gorm.DB, record *entity.MedicalRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *record
	r.records[record.ID] = &stored
	return nil
}

// memAvailabilityRepo

type memAvailabilityRepo struct {
	mu     sync.Mutex
	nextID uint
	slots  map[uint]*entity.AvailabilitySlot
}

func newMemAvailabilityRepo() *memAvailabilityRepo {
	return &memAvailabilityRepo{slots: map[uint]*entity.AvailabilitySlot{}}
}

func (r *memAvailabilityRepo) Create(_ *gorm.DB, slot *entity.AvailabilitySlot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	slot.ID = r.nextID
	stored := *slot
	r.slots[slot.ID] = &stored
	return nil
}

func (r *memAvailabilityRepo) FindByID(_ *gorm.DB, id uint) (*entity.AvailabilitySlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.slots[id]; ok {
		c := *s
		return &c, nil
	}
	return nil, nil
}

func (r *memAvailabilityRepo) List(_ *gorm.DB, filter entity.AvailabilityFilter) ([]entity.AvailabilitySlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.AvailabilitySlot
	for _, s := range r.slots {
		if s.DentistID != filter.DentistID {
			continue
		}
		if filter.From != nil && s.Date.Before(*filter.From) {
			continue
		}
		if filter.To != nil && s.Date.After(*filter.To) {
			continue
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out, nil
}

func (r *memAvailabilityRepo) FindOverlapping(_ *gorm.DB, slot *entity.AvailabilitySlot) ([]entity.AvailabilitySlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.AvailabilitySlot
	for _, s := range r.slots {
		if s.ID != slot.ID && s.Overlaps(slot) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *memAvailabilityRepo) Update(_ *gorm.DB, slot *entity.AvailabilitySlot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *slot
	r.slots[slot.ID] = &stored
	return nil
}

func (r *memAvailabilityRepo) Delete(_ *gorm.DB, id uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.slots[id]; !ok {
		return 0, nil
	}
	delete(r.slots, id)
	return 1, nil
}

// memAuditRepo

type memAuditRepo struct {
	mu   sync.Mutex
	logs []entity.AuditLog
}

func (r *memAuditRepo) Create(_ *gorm.DB, log *entity.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	log.ID = int64(len(r.logs) + 1)
	r.logs = append(r.logs, *log)
	return nil
}

func (r *memAuditRepo) List(_ *gorm.DB, action string, limit int) ([]entity.AuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.AuditLog
	for i := len(r.logs) - 1; i >= 0 && len(out) < limit; i-- {
		if action == "" || r.logs[i].Action == action {
			out = append(out, r.logs[i])
		}
	}
	return out, nil
}

func (r *memAuditRepo) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.logs))
	for _, l := range r.logs {
		out = append(out, l.Action)
	}
	return out
}

// memSessionStore

type memSessionStore struct {
	mu     sync.Mutex
	tokens map[uint]map[string]bool
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{tokens: map[uint]map[string]bool{}}
}

func (s *memSessionStore) Save(_ context.Context, userID uint, tokenID string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tokens[userID] == nil {
		s.tokens[userID] = map[string]bool{}
	}
	s.tokens[userID][tokenID] = true
	return nil
}

func (s *memSessionStore) Exists(_ context.Context, userID uint, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens[userID][tokenID], nil
}

func (s *memSessionStore) Revoke(_ context.Context, userID uint, tokenID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens[userID], tokenID)
	return nil
}

func (s *memSessionStore) RevokeAll(_ context.Context, userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, userID)
	return nil
}

// recordingNotifier

type recordingNotifier struct {
	mu     sync.Mutex
	events []service.NotificationEvent
}

func (n *recordingNotifier) NotifyAppointment(_ context.Context, event service.NotificationEvent, _ *entity.Appointment, _, _ *entity.User) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) Close() {}

func (n *recordingNotifier) received() []service.NotificationEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]service.NotificationEvent(nil), n.events...)
}

func newLocker(t *testing.T) *service.DentistLocker {
	l := service.NewDentistLocker(quietLogger())
	t.Cleanup(l.Stop)
	return l
}
