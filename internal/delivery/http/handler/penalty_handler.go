package handler

import (
	"net/http"

	"dental-clinic-api/internal/delivery/dto"
	"dental-clinic-api/internal/usecase"
	"dental-clinic-api/pkg/response"
	"dental-clinic-api/pkg/validator"
)

type PenaltyHandler struct {
	penaltyUsecase usecase.PenaltyUsecase
	validator      *validator.CustomValidator
	errors         errorWriter
}

func NewPenaltyHandler(penaltyUsecase usecase.PenaltyUsecase, validator *validator.CustomValidator, exposeInternal bool) *PenaltyHandler {
	return &PenaltyHandler{
		penaltyUsecase: penaltyUsecase,
		validator:      validator,
		errors:         errorWriter{exposeInternal: exposeInternal},
	}
}

// Create issues a manual penalty
// @Summary Create penalty
// @Tags Penalties
// @Accept json
// @Produce json
// @Param request body dto.CreatePenaltyRequest true "Create Penalty Request"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /penalties [post]
func (h *PenaltyHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := principalFrom(w, r)
	if !ok {
		return
	}

	var req dto.CreatePenaltyRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	penalty, err := h.penaltyUsecase.Create(r.Context(), actor, &req)
	if err != nil {
		h.errors.write(w, err, "Failed to create penalty")
		return
	}

	response.Success(w, http.StatusCreated, "Penalty created successfully", penalty)
}

func (h *PenaltyHandler) ListByPatient(w http.ResponseWriter, r *http.Request) {
	actor, ok := principalFrom(w, r)
	if !ok {
		return
	}

	patientID, ok := pathID(r, "patientId")
	if !ok {
		response.BadRequest(w, "Invalid patient ID")
		return
	}

	result, err := h.penaltyUsecase.ListByPatient(r.Context(), actor, patientID)
	if err != nil {
		h.errors.write(w, err, "Failed to get penalties")
		return
	}

	response.Success(w, http.StatusOK, "Penalties retrieved successfully", result)
}

// UpdateStatus settles or waives an active penalty.
func (h *PenaltyHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := principalFrom(w, r)
	if !ok {
		return
	}

	id, ok := pathID(r, "id")
	if !ok {
		response.BadRequest(w, "Invalid penalty ID")
		return
	}

	var req dto.UpdatePenaltyStatusRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	penalty, err := h.penaltyUsecase.UpdateStatus(r.Context(), actor, id, &req)
	if err != nil {
		h.errors.write(w, err, "Failed to update penalty")
		return
	}

	response.Success(w, http.StatusOK, "Penalty updated successfully", penalty)
}
