package service

import (
	"context"
	"fmt"
	"time"

	"dental-clinic-api/config"
	"dental-clinic-api/internal/domain/entity"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/pool"
	"gopkg.in/gomail.v2"
)

type NotificationEvent string

const (
	NotificationBooked      NotificationEvent = "booked"
	NotificationCancelled   NotificationEvent = "cancelled"
	NotificationRescheduled NotificationEvent = "rescheduled"
	NotificationConfirmed   NotificationEvent = "confirmed"
)

// NotificationService tells patients and dentists about appointment changes.
// Delivery runs in the background and failures are logged, never returned.
type NotificationService interface {
	NotifyAppointment(ctx context.Context, event NotificationEvent, apt *entity.Appointment, patient, dentist *entity.User)
	// Close waits for queued deliveries to finish.
	Close()
}

// Mailer sends a single plain-text email.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMSSender sends a single text message.
type SMSSender interface {
	Send(ctx context.Context, phone, body string) error
}

type notificationService struct {
	log     *logrus.Logger
	mailer  Mailer
	sms     SMSSender
	timeout time.Duration
	pool    *pool.Pool
}

const defaultSendTimeout = 15 * time.Second

func NewNotificationService(log *logrus.Logger, mailer Mailer, sms SMSSender, sendTimeout time.Duration) NotificationService {
	if sendTimeout <= 0 {
		sendTimeout = defaultSendTimeout
	}
	return &notificationService{
		log:     log,
		mailer:  mailer,
		sms:     sms,
		timeout: sendTimeout,
		pool:    pool.New(),
	}
}

// NotifyAppointment queues the messages and returns immediately. Delivery is detached
// from the request context so it survives the response, and bounded by the send timeout.
func (s *notificationService) NotifyAppointment(ctx context.Context, event NotificationEvent, apt *entity.Appointment, patient, dentist *entity.User) {
	if apt == nil {
		return
	}
	snapshot := *apt
	ctx = context.WithoutCancel(ctx)

	s.pool.Go(func() {
		ctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		s.deliver(ctx, event, &snapshot, patient, dentist)
	})
}

func (s *notificationService) Close() {
	s.pool.Wait()
}

func (s *notificationService) deliver(ctx context.Context, event NotificationEvent, apt *entity.Appointment, patient, dentist *entity.User) {
	subject, body := renderAppointmentMessage(event, apt)

	var wg conc.WaitGroup
	if patient != nil {
		wg.Go(func() {
			if err := s.mailer.Send(ctx, patient.Email, subject, body); err != nil {
				s.log.Warnf("Failed to email patient %d about appointment %s: %+v", patient.ID, apt.Folio, err)
			}
		})
		wg.Go(func() {
			if err := s.sms.Send(ctx, patient.Phone, body); err != nil {
				s.log.Warnf("Failed to text patient %d about appointment %s: %+v", patient.ID, apt.Folio, err)
			}
		})
	}
	if dentist != nil {
		wg.Go(func() {
			if err := s.mailer.Send(ctx, dentist.Email, subject, body); err != nil {
				s.log.Warnf("Failed to email dentist %d about appointment %s: %+v", dentist.ID, apt.Folio, err)
			}
		})
	}

	if recovered := wg.WaitAndRecover(); recovered != nil {
		s.log.Errorf("Notification sender panicked for appointment %s: %v", apt.Folio, recovered.Value)
	}
}

func renderAppointmentMessage(event NotificationEvent, apt *entity.Appointment) (string, string) {
	when := apt.ScheduledAt.UTC().Format(time.RFC1123)
	switch event {
	case NotificationCancelled:
		return "Appointment cancelled", fmt.Sprintf("Appointment %s on %s has been cancelled.", apt.Folio, when)
	case NotificationRescheduled:
		return "Appointment rescheduled", fmt.Sprintf("Appointment %s has been moved to %s.", apt.Folio, when)
	case NotificationConfirmed:
		return "Appointment confirmed", fmt.Sprintf("Appointment %s on %s is confirmed.", apt.Folio, when)
	default:
		return "Appointment booked", fmt.Sprintf("Appointment %s is booked for %s.", apt.Folio, when)
	}
}

// smtpMailer delivers through an SMTP server with gomail.
type smtpMailer struct {
	dialer *gomail.Dialer
	from   string
}

// logMailer only logs the message; used when no SMTP server is configured.
type logMailer struct {
	log *logrus.Logger
}

// NewMailer returns an SMTP mailer when cfg is complete and a logging mailer otherwise.
func NewMailer(cfg config.MailConfig, log *logrus.Logger) Mailer {
	if !cfg.Enabled() {
		log.Info("SMTP not configured, email notifications will be simulated")
		return &logMailer{log: log}
	}
	return &smtpMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

// Send gives up when ctx is done; gomail itself has no dial or write deadline.
func (m *smtpMailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	done := make(chan error, 1)
	go func() {
		done <- m.dialer.DialAndSend(msg)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *logMailer) Send(_ context.Context, to, subject, body string) error {
	m.log.WithFields(logrus.Fields{
		"to":      to,
		"subject": subject,
	}).Infof("Simulated email: %s", body)
	return nil
}

// logSMSSender simulates SMS delivery.
type logSMSSender struct {
	log     *logrus.Logger
	enabled bool
	sender  string
}

func NewSMSSender(cfg config.SMSConfig, log *logrus.Logger) SMSSender {
	return &logSMSSender{log: log, enabled: cfg.Enabled, sender: cfg.Sender}
}

func (s *logSMSSender) Send(_ context.Context, phone, body string) error {
	if !s.enabled {
		return nil
	}
	s.log.WithFields(logrus.Fields{
		"from": s.sender,
		"to":   phone,
	}).Infof("Simulated SMS: %s", body)
	return nil
}
