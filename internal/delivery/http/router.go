package http

import (
	"net/http"

	"dental-clinic-api/internal/delivery/http/handler"
	"dental-clinic-api/internal/delivery/http/middleware"
	"dental-clinic-api/internal/domain/entity"
	"dental-clinic-api/pkg/response"

	"github.com/gorilla/mux"
)

type Router struct {
	router               *mux.Router
	authHandler          *handler.AuthHandler
	appointmentHandler   *handler.AppointmentHandler
	medicalRecordHandler *handler.MedicalRecordHandler
	penaltyHandler       *handler.PenaltyHandler
	availabilityHandler  *handler.AvailabilityHandler
	auditLogHandler      *handler.AuditLogHandler
	healthHandler        *handler.HealthHandler
	authMiddleware       *middleware.AuthMiddleware
	corsMiddleware       *middleware.CORSMiddleware
	loggingMiddleware    *middleware.LoggingMiddleware
	recoveryMiddleware   *middleware.RecoveryMiddleware
	metricsMiddleware    *middleware.MetricsMiddleware
	rateLimiter          *middleware.RateLimiter
	metricsHandler       http.Handler
}

// Handlers groups the endpoint handlers mounted by the router.
type Handlers struct {
	Auth          *handler.AuthHandler
	Appointment   *handler.AppointmentHandler
	MedicalRecord *handler.MedicalRecordHandler
	Penalty       *handler.PenaltyHandler
	Availability  *handler.AvailabilityHandler
	AuditLog      *handler.AuditLogHandler
	Health        *handler.HealthHandler
}

// Middlewares groups the cross-cutting HTTP middleware.
type Middlewares struct {
	Auth        *middleware.AuthMiddleware
	CORS        *middleware.CORSMiddleware
	Logging     *middleware.LoggingMiddleware
	Recovery    *middleware.RecoveryMiddleware
	Metrics     *middleware.MetricsMiddleware
	RateLimiter *middleware.RateLimiter
}

func NewRouter(handlers Handlers, middlewares Middlewares, metricsHandler http.Handler) *Router {
	return &Router{
		router:               mux.NewRouter(),
		authHandler:          handlers.Auth,
		appointmentHandler:   handlers.Appointment,
		medicalRecordHandler: handlers.MedicalRecord,
		penaltyHandler:       handlers.Penalty,
		availabilityHandler:  handlers.Availability,
		auditLogHandler:      handlers.AuditLog,
		healthHandler:        handlers.Health,
		authMiddleware:       middlewares.Auth,
		corsMiddleware:       middlewares.CORS,
		loggingMiddleware:    middlewares.Logging,
		recoveryMiddleware:   middlewares.Recovery,
		metricsMiddleware:    middlewares.Metrics,
		rateLimiter:          middlewares.RateLimiter,
		metricsHandler:       metricsHandler,
	}
}

// Setup registers every route and returns the fully wrapped handler.
// The outer middleware wraps mux itself so preflight requests for
// unregistered methods still get answered.
func (r *Router) Setup() http.Handler {
	r.router.Use(r.metricsMiddleware.Handle)
	r.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		response.NotFound(w, "Route not found")
	})
	r.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed", nil)
	})

	r.router.HandleFunc("/health", r.healthHandler.Check).Methods(http.MethodGet)
	if r.metricsHandler != nil {
		r.router.Handle("/metrics", r.metricsHandler).Methods(http.MethodGet)
	}

	// API versioning
	api := r.router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/health", r.healthHandler.Check).Methods(http.MethodGet)

	r.setupAuthRoutes(api)
	r.setupAppointmentRoutes(api)
	r.setupMedicalRecordRoutes(api)
	r.setupPenaltyRoutes(api)
	r.setupAvailabilityRoutes(api)
	r.setupAuditLogRoutes(api)

	var h http.Handler = r.router
	h = r.recoveryMiddleware.Handle(h)
	h = r.corsMiddleware.Handle(h)
	h = r.loggingMiddleware.Handle(h)
	return h
}

func (r *Router) setupAuthRoutes(api *mux.Router) {
	// Auth routes (public)
	auth := api.PathPrefix("/auth").Subrouter()
	auth.Handle("/login", r.rateLimiter.Handle(http.HandlerFunc(r.authHandler.Login))).Methods(http.MethodPost)
	auth.HandleFunc("/active-dentists", r.authHandler.ActiveDentists).Methods(http.MethodGet)

	// Registration reads an optional admin bearer for privileged roles.
	auth.Handle("/register", r.rateLimiter.Handle(
		r.authMiddleware.OptionalAuthenticate(http.HandlerFunc(r.authHandler.Register)),
	)).Methods(http.MethodPost)

	// Auth routes (protected)
	authProtected := api.PathPrefix("/auth").Subrouter()
	authProtected.Use(r.authMiddleware.Authenticate)
	authProtected.HandleFunc("/logout", r.authHandler.Logout).Methods(http.MethodPost)
	authProtected.HandleFunc("/profile", r.authHandler.Profile).Methods(http.MethodGet)

	// User administration (admin only)
	admin := api.PathPrefix("/auth").Subrouter()
	admin.Use(r.authMiddleware.Authenticate)
	admin.Use(middleware.RequireAdmin)
	admin.HandleFunc("/users", r.authHandler.SearchUsers).Methods(http.MethodGet)
	admin.HandleFunc("/user/{userId:[0-9]+}/deactivate", r.authHandler.SetActive).Methods(http.MethodPatch)
	admin.HandleFunc("/user/{userId:[0-9]+}/role", r.authHandler.ChangeRole).Methods(http.MethodPatch)
	admin.HandleFunc("/user/{userId:[0-9]+}", r.authHandler.DeleteUser).Methods(http.MethodDelete)
}

func (r *Router) setupAppointmentRoutes(api *mux.Router) {
	appointments := api.PathPrefix("/appointments").Subrouter()
	appointments.Use(r.authMiddleware.Authenticate)

	appointments.Handle("", middleware.RequirePatient(http.HandlerFunc(r.appointmentHandler.Create))).Methods(http.MethodPost)
	appointments.HandleFunc("", r.appointmentHandler.List).Methods(http.MethodGet)
	appointments.HandleFunc("/{id:[0-9]+}", r.appointmentHandler.Get).Methods(http.MethodGet)

	// Ownership and assignment are checked by the usecase.
	appointments.HandleFunc("/{id:[0-9]+}/cancel", r.appointmentHandler.Cancel).Methods(http.MethodPatch)
	appointments.Handle("/{id:[0-9]+}/reschedule", middleware.RequirePatient(http.HandlerFunc(r.appointmentHandler.Reschedule))).Methods(http.MethodPatch)

	staff := middleware.RequireRole(entity.RoleDentist, entity.RoleAdmin)
	appointments.Handle("/{id:[0-9]+}/confirm", staff(http.HandlerFunc(r.appointmentHandler.Confirm))).Methods(http.MethodPatch)
	appointments.Handle("/{id:[0-9]+}/complete", staff(http.HandlerFunc(r.appointmentHandler.Complete))).Methods(http.MethodPatch)
	appointments.Handle("/{id:[0-9]+}/no-show", staff(http.HandlerFunc(r.appointmentHandler.MarkNoShow))).Methods(http.MethodPatch)
}

func (r *Router) setupMedicalRecordRoutes(api *mux.Router) {
	records := api.PathPrefix("/medical-records").Subrouter()
	records.Use(r.authMiddleware.Authenticate)

	records.Handle("", middleware.RequireDentistOrAdmin(http.HandlerFunc(r.medicalRecordHandler.Create))).Methods(http.MethodPost)
	records.HandleFunc("/patient/{patientId:[0-9]+}", r.medicalRecordHandler.ListByPatient).Methods(http.MethodGet)
	records.HandleFunc("/{id:[0-9]+}", r.medicalRecordHandler.Get).Methods(http.MethodGet)
	records.Handle("/{id:[0-9]+}", middleware.RequireDentistOrAdmin(http.HandlerFunc(r.medicalRecordHandler.Update))).Methods(http.MethodPut)
}

func (r *Router) setupPenaltyRoutes(api *mux.Router) {
	penalties := api.PathPrefix("/penalties").Subrouter()
	penalties.Use(r.authMiddleware.Authenticate)

	penalties.Handle("", middleware.RequireDentistOrAdmin(http.HandlerFunc(r.penaltyHandler.Create))).Methods(http.MethodPost)
	penalties.HandleFunc("/patient/{patientId:[0-9]+}", r.penaltyHandler.ListByPatient).Methods(http.MethodGet)
	penalties.Handle("/{id:[0-9]+}/status", middleware.RequireAdmin(http.HandlerFunc(r.penaltyHandler.UpdateStatus))).Methods(http.MethodPatch)
}

func (r *Router) setupAvailabilityRoutes(api *mux.Router) {
	availability := api.PathPrefix("/availability").Subrouter()
	availability.Use(r.authMiddleware.Authenticate)

	availability.Handle("", middleware.RequireRole(entity.RoleDentist)(http.HandlerFunc(r.availabilityHandler.Create))).Methods(http.MethodPost)
	availability.HandleFunc("", r.availabilityHandler.List).Methods(http.MethodGet)

	// Ownership and occupancy are checked by the usecase.
	availability.Handle("/{id:[0-9]+}", middleware.RequireDentistOrAdmin(http.HandlerFunc(r.availabilityHandler.Update))).Methods(http.MethodPut)
	availability.Handle("/{id:[0-9]+}", middleware.RequireDentistOrAdmin(http.HandlerFunc(r.availabilityHandler.Delete))).Methods(http.MethodDelete)
}

func (r *Router) setupAuditLogRoutes(api *mux.Router) {
	auditLogs := api.PathPrefix("/audit-logs").Subrouter()
	auditLogs.Use(r.authMiddleware.Authenticate)
	auditLogs.Use(middleware.RequireAdmin)

	auditLogs.HandleFunc("", r.auditLogHandler.List).Methods(http.MethodGet)
}
