package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"dental-clinic-api/config"
	"dental-clinic-api/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMailer struct {
	mu   sync.Mutex
	to   []string
	fail bool
}

func (m *recordingMailer) Send(_ context.Context, to, _, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.to = append(m.to, to)
	if m.fail {
		return errors.New("smtp unavailable")
	}
	return nil
}

type panickingSMS struct{}

func (panickingSMS) Send(context.Context, string, string) error {
	panic("sms gateway exploded")
}

func testAppointment() *entity.Appointment {
	return &entity.Appointment{ID: 1, Folio: "CITA-1-ABCDEF", ScheduledAt: time.Date(2030, 1, 1, 10, 0, 0, 0, time.UTC)}
}

// blockingMailer holds every send until release is closed or ctx ends.
type blockingMailer struct {
	release chan struct{}
	mu      sync.Mutex
	errs    []error
}

func (m *blockingMailer) Send(ctx context.Context, _, _, _ string) error {
	var err error
	select {
	case <-m.release:
	case <-ctx.Done():
		err = ctx.Err()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs = append(m.errs, err)
	return err
}

func TestNotifyAppointment_SendsToBoth(t *testing.T) {
	mailer := &recordingMailer{}
	svc := NewNotificationService(quietLogger(), mailer, NewSMSSender(config.SMSConfig{}, quietLogger()), time.Second)

	svc.NotifyAppointment(context.Background(), NotificationBooked, testAppointment(),
		&entity.User{ID: 1, Email: "patient@example.com"},
		&entity.User{ID: 2, Email: "dentist@example.com"})
	svc.Close()

	assert.ElementsMatch(t, []string{"patient@example.com", "dentist@example.com"}, mailer.to)
}

func TestNotifyAppointment_FailuresAreSwallowed(t *testing.T) {
	mailer := &recordingMailer{fail: true}
	svc := NewNotificationService(quietLogger(), mailer, panickingSMS{}, time.Second)

	assert.NotPanics(t, func() {
		svc.NotifyAppointment(context.Background(), NotificationCancelled, testAppointment(),
			&entity.User{ID: 1, Email: "patient@example.com", Phone: "5512345678"}, nil)
		svc.Close()
	})
	assert.Equal(t, []string{"patient@example.com"}, mailer.to)
}

func TestNotifyAppointment_DoesNotWaitForSlowMailServer(t *testing.T) {
	mailer := &blockingMailer{release: make(chan struct{})}
	svc := NewNotificationService(quietLogger(), mailer, NewSMSSender(config.SMSConfig{}, quietLogger()), time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	returned := make(chan struct{})
	go func() {
		svc.NotifyAppointment(ctx, NotificationBooked, testAppointment(), &entity.User{ID: 1, Email: "patient@example.com"}, nil)
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("NotifyAppointment blocked on the mailer")
	}

	// The finished request must not abort delivery.
	cancel()
	close(mailer.release)
	svc.Close()

	assert.Equal(t, []error{nil}, mailer.errs)
}

func TestNotifyAppointment_SendTimeout(t *testing.T) {
	mailer := &blockingMailer{release: make(chan struct{})}
	svc := NewNotificationService(quietLogger(), mailer, NewSMSSender(config.SMSConfig{}, quietLogger()), 20*time.Millisecond)

	svc.NotifyAppointment(context.Background(), NotificationBooked, testAppointment(), &entity.User{ID: 1, Email: "patient@example.com"}, nil)
	svc.Close()

	require.Len(t, mailer.errs, 1)
	assert.ErrorIs(t, mailer.errs[0], context.DeadlineExceeded)
}

func TestNewMailer_SimulatedWithoutSMTP(t *testing.T) {
	m := NewMailer(config.MailConfig{}, quietLogger())
	_, ok := m.(*logMailer)
	assert.True(t, ok)
	assert.NoError(t, m.Send(context.Background(), "a@b.c", "s", "b"))
}

func TestRenderAppointmentMessage(t *testing.T) {
	subject, body := renderAppointmentMessage(NotificationRescheduled, testAppointment())
	assert.Equal(t, "Appointment rescheduled", subject)
	assert.Contains(t, body, "CITA-1-ABCDEF")
}
