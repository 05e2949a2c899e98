package handler

import (
	"net/http"

	"dental-clinic-api/internal/delivery/dto"
	"dental-clinic-api/internal/usecase"
	"dental-clinic-api/pkg/response"
	"dental-clinic-api/pkg/validator"
)

type MedicalRecordHandler struct {
	recordUsecase usecase.MedicalRecordUsecase
	validator     *validator.CustomValidator
	errors        errorWriter
}

func NewMedicalRecordHandler(recordUsecase usecase.MedicalRecordUsecase, validator *validator.CustomValidator, exposeInternal bool) *MedicalRecordHandler {
	return &MedicalRecordHandler{
		recordUsecase: recordUsecase,
		validator:     validator,
		errors:        errorWriter{exposeInternal: exposeInternal},
	}
}

// Create handles medical record creation
// @Summary Create medical record
// @Tags MedicalRecords
// @Accept json
// @Produce json
// @Param request body dto.CreateMedicalRecordRequest true "Create Medical Record Request"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /medical-records [post]
func (h *MedicalRecordHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := principalFrom(w, r)
	if !ok {
		return
	}

	var req dto.CreateMedicalRecordRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	record, err := h.recordUsecase.Create(r.Context(), actor, &req)
	if err != nil {
		h.errors.write(w, err, "Failed to create medical record")
		return
	}

	response.Success(w, http.StatusCreated, "Medical record created successfully", record)
}

func (h *MedicalRecordHandler) ListByPatient(w http.ResponseWriter, r *http.Request) {
	actor, ok := principalFrom(w, r)
	if !ok {
		return
	}

	patientID, ok := pathID(r, "patientId")
	if !ok {
		response.BadRequest(w, "Invalid patient ID")
		return
	}

	result, err := h.recordUsecase.ListByPatient(r.Context(), actor, patientID)
	if err != nil {
		h.errors.write(w, err, "Failed to get medical records")
		return
	}

	response.Success(w, http.StatusOK, "Medical records retrieved successfully", result)
}

func (h *MedicalRecordHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := principalFrom(w, r)
	if !ok {
		return
	}

	id, ok := pathID(r, "id")
	if !ok {
		response.BadRequest(w, "Invalid medical record ID")
		return
	}

	record, err := h.recordUsecase.Get(r.Context(), actor, id)
	if err != nil {
		h.errors.write(w, err, "Failed to get medical record")
		return
	}

	response.Success(w, http.StatusOK, "Medical record retrieved successfully", record)
}

// Update applies a partial update; omitted fields keep their value.
func (h *MedicalRecordHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := principalFrom(w, r)
	if !ok {
		return
	}

	id, ok := pathID(r, "id")
	if !ok {
		response.BadRequest(w, "Invalid medical record ID")
		return
	}

	var req dto.UpdateMedicalRecordRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	record, err := h.recordUsecase.Update(r.Context(), actor, id, &req)
	if err != nil {
		h.errors.write(w, err, "Failed to update medical record")
		return
	}

	response.Success(w, http.StatusOK, "Medical record updated successfully", record)
}
