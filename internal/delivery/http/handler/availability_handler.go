package handler

import (
	"net/http"
	"strconv"

	"dental-clinic-api/internal/delivery/dto"
	"dental-clinic-api/internal/usecase"
	"dental-clinic-api/pkg/response"
	"dental-clinic-api/pkg/validator"
)

type AvailabilityHandler struct {
	availabilityUsecase usecase.AvailabilityUsecase
	validator           *validator.CustomValidator
	errors              errorWriter
}

func NewAvailabilityHandler(availabilityUsecase usecase.AvailabilityUsecase, validator *validator.CustomValidator, exposeInternal bool) *AvailabilityHandler {
	return &AvailabilityHandler{
		availabilityUsecase: availabilityUsecase,
		validator:           validator,
		errors:              errorWriter{exposeInternal: exposeInternal},
	}
}

// Create handles availability slot creation
// @Summary Open an availability slot
// @Tags Availability
// @Accept json
// @Produce json
// @Param request body dto.CreateAvailabilityRequest true "Create Availability Request"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /availability [post]
func (h *AvailabilityHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := principalFrom(w, r)
	if !ok {
		return
	}

	var req dto.CreateAvailabilityRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	slot, err := h.availabilityUsecase.Create(r.Context(), actor, &req)
	if err != nil {
		h.errors.write(w, err, "Failed to create availability slot")
		return
	}

	response.Success(w, http.StatusCreated, "Availability slot created successfully", slot)
}

// List handles availability listing
// @Summary List a dentist's availability
// @Tags Availability
// @Produce json
// @Param dentistId query int false "Dentist (defaults to the calling dentist)"
// @Param from query string false "First day (YYYY-MM-DD)"
// @Param to query string false "Last day (YYYY-MM-DD)"
// @Success 200 {object} response.Response
// @Router /availability [get]
func (h *AvailabilityHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := principalFrom(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	req := dto.AvailabilityListRequest{
		From: query.Get("from"),
		To:   query.Get("to"),
	}
	if raw := query.Get("dentistId"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			response.BadRequest(w, "Invalid dentistId parameter")
			return
		}
		req.DentistID = uint(id)
	}

	result, err := h.availabilityUsecase.List(r.Context(), actor, &req)
	if err != nil {
		h.errors.write(w, err, "Failed to get availability")
		return
	}

	response.Success(w, http.StatusOK, "Availability retrieved successfully", result)
}

// Update moves a free slot; omitted fields keep their value.
func (h *AvailabilityHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := principalFrom(w, r)
	if !ok {
		return
	}

	id, ok := pathID(r, "id")
	if !ok {
		response.BadRequest(w, "Invalid availability slot ID")
		return
	}

	var req dto.UpdateAvailabilityRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	slot, err := h.availabilityUsecase.Update(r.Context(), actor, id, &req)
	if err != nil {
		h.errors.write(w, err, "Failed to update availability slot")
		return
	}

	response.Success(w, http.StatusOK, "Availability slot updated successfully", slot)
}

func (h *AvailabilityHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := principalFrom(w, r)
	if !ok {
		return
	}

	id, ok := pathID(r, "id")
	if !ok {
		response.BadRequest(w, "Invalid availability slot ID")
		return
	}

	if err := h.availabilityUsecase.Delete(r.Context(), actor, id); err != nil {
		h.errors.write(w, err, "Failed to delete availability slot")
		return
	}

	response.Success(w, http.StatusOK, "Availability slot deleted successfully", nil)
}
