package handler

import (
	"context"
	"net/http"
	"strconv"

	"dental-clinic-api/internal/delivery/dto"
	"dental-clinic-api/internal/domain/entity"
	"dental-clinic-api/internal/usecase"
	"dental-clinic-api/pkg/response"
	"dental-clinic-api/pkg/validator"
)

type AppointmentHandler struct {
	appointmentUsecase usecase.AppointmentUsecase
	validator          *validator.CustomValidator
	errors             errorWriter
}

func NewAppointmentHandler(appointmentUsecase usecase.AppointmentUsecase, validator *validator.CustomValidator, exposeInternal bool) *AppointmentHandler {
	return &AppointmentHandler{
		appointmentUsecase: appointmentUsecase,
		validator:          validator,
		errors:             errorWriter{exposeInternal: exposeInternal},
	}
}

// Create books a new appointment for the calling patient
// @Summary Book appointment
// @Tags Appointments
// @Accept json
// @Produce json
// @Param request body dto.CreateAppointmentRequest true "Create Appointment Request"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /appointments [post]
func (h *AppointmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := principalFrom(w, r)
	if !ok {
		return
	}

	var req dto.CreateAppointmentRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	appointment, err := h.appointmentUsecase.Create(r.Context(), actor, &req)
	if err != nil {
		h.errors.write(w, err, "Failed to create appointment")
		return
	}

	response.Success(w, http.StatusCreated, "Appointment created successfully", appointment)
}

// List returns appointments visible to the caller
// @Summary List appointments
// @Tags Appointments
// @Produce json
// @Param status query string false "Status filter"
// @Param dentistId query int false "Dentist filter"
// @Param from query string false "Start of range (RFC3339)"
// @Param to query string false "End of range (RFC3339)"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Response
// @Router /appointments [get]
func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := principalFrom(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	req := dto.AppointmentListRequest{
		Status: query.Get("status"),
		From:   query.Get("from"),
		To:     query.Get("to"),
	}

	for name, dst := range map[string]*int{"page": &req.Page, "limit": &req.Limit} {
		if raw := query.Get(name); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				response.BadRequest(w, "Invalid "+name+" parameter")
				return
			}
			*dst = n
		}
	}

	if raw := query.Get("dentistId"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			response.BadRequest(w, "Invalid dentistId parameter")
			return
		}
		req.DentistID = uint(id)
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	result, err := h.appointmentUsecase.List(r.Context(), actor, &req)
	if err != nil {
		h.errors.write(w, err, "Failed to get appointments")
		return
	}

	response.SuccessWithMeta(w, http.StatusOK, "Appointments retrieved successfully", result.Appointments, &response.Meta{
		Page:       result.Page,
		Limit:      result.Limit,
		Total:      result.Total,
		TotalPages: result.TotalPages,
	})
}

func (h *AppointmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := principalFrom(w, r)
	if !ok {
		return
	}

	id, ok := pathID(r, "id")
	if !ok {
		response.BadRequest(w, "Invalid appointment ID")
		return
	}

	appointment, err := h.appointmentUsecase.Get(r.Context(), actor, id)
	if err != nil {
		h.errors.write(w, err, "Failed to get appointment")
		return
	}

	response.Success(w, http.StatusOK, "Appointment retrieved successfully", appointment)
}

// Cancel cancels an appointment and reports whether a late-cancellation penalty was issued.
func (h *AppointmentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	actor, ok := principalFrom(w, r)
	if !ok {
		return
	}

	id, ok := pathID(r, "id")
	if !ok {
		response.BadRequest(w, "Invalid appointment ID")
		return
	}

	result, err := h.appointmentUsecase.Cancel(r.Context(), actor, id)
	if err != nil {
		h.errors.write(w, err, "Failed to cancel appointment")
		return
	}

	message := "Appointment cancelled successfully"
	if result.PenaltyApplied {
		message = "Appointment cancelled. A late cancellation penalty has been applied"
	}
	response.Success(w, http.StatusOK, message, result)
}

func (h *AppointmentHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	actor, ok := principalFrom(w, r)
	if !ok {
		return
	}

	id, ok := pathID(r, "id")
	if !ok {
		response.BadRequest(w, "Invalid appointment ID")
		return
	}

	var req dto.RescheduleAppointmentRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	appointment, err := h.appointmentUsecase.Reschedule(r.Context(), actor, id, &req)
	if err != nil {
		h.errors.write(w, err, "Failed to reschedule appointment")
		return
	}

	response.Success(w, http.StatusOK, "Appointment rescheduled successfully", appointment)
}

func (h *AppointmentHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.advance(w, r, h.appointmentUsecase.Confirm, "confirm", "Appointment confirmed successfully")
}

func (h *AppointmentHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.advance(w, r, h.appointmentUsecase.Complete, "complete", "Appointment completed successfully")
}

func (h *AppointmentHandler) MarkNoShow(w http.ResponseWriter, r *http.Request) {
	h.advance(w, r, h.appointmentUsecase.MarkNoShow, "mark no-show for", "Appointment marked as no-show")
}

type appointmentAction func(ctx context.Context, actor *entity.Principal, id uint) (*dto.AppointmentResponse, error)

func (h *AppointmentHandler) advance(w http.ResponseWriter, r *http.Request, action appointmentAction, verb, message string) {
	actor, ok := principalFrom(w, r)
	if !ok {
		return
	}

	id, ok := pathID(r, "id")
	if !ok {
		response.BadRequest(w, "Invalid appointment ID")
		return
	}

	appointment, err := action(r.Context(), actor, id)
	if err != nil {
		h.errors.write(w, err, "Failed to "+verb+" appointment")
		return
	}

	response.Success(w, http.StatusOK, message, appointment)
}
