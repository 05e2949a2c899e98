package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"dental-clinic-api/internal/delivery/http/middleware"
	"dental-clinic-api/internal/domain/entity"
	"dental-clinic-api/internal/service"
	"dental-clinic-api/internal/usecase"
	"dental-clinic-api/pkg/response"
	"dental-clinic-api/pkg/validator"

	"github.com/gorilla/mux"
)

var badRequestErrors = []error{
	usecase.ErrActivePenalty,
	usecase.ErrAppointmentConflict,
	usecase.ErrDateInPast,
	usecase.ErrDateTooFar,
	usecase.ErrInvalidDate,
	usecase.ErrDentistNotAvailable,
	usecase.ErrConcurrentUpdate,
	usecase.ErrEmailAlreadyExists,
	usecase.ErrPhoneAlreadyExists,
	usecase.ErrSpecialtyRequired,
	usecase.ErrCannotModifySelf,
	usecase.ErrDiagnosisRequired,
	usecase.ErrRecordAppointmentMismatch,
	usecase.ErrInvalidPenaltyAmount,
	usecase.ErrPenaltyExpiresInPast,
	usecase.ErrInvalidPenaltyStatus,
	usecase.ErrPenaltyNotActive,
	usecase.ErrSlotOverlap,
	usecase.ErrSlotOccupied,
	usecase.ErrSlotTimeOrder,
	usecase.ErrSlotInPast,
	usecase.ErrInvalidSlotDate,
	usecase.ErrDentistRequired,
	entity.ErrInvalidClock,
	service.ErrRescheduleTooLate,
	entity.ErrInvalidTransition,
}

var unauthorizedErrors = []error{
	usecase.ErrInvalidCredentials,
	usecase.ErrAccountInactive,
	usecase.ErrInvalidToken,
	usecase.ErrTokenRevoked,
	usecase.ErrUnauthenticated,
}

var forbiddenErrors = []error{
	usecase.ErrForbidden,
	usecase.ErrPrivilegedRole,
}

var notFoundErrors = []error{
	usecase.ErrUserNotFound,
	usecase.ErrPatientNotFound,
	usecase.ErrAppointmentNotFound,
	usecase.ErrMedicalRecordNotFound,
	usecase.ErrPenaltyNotFound,
	usecase.ErrSlotNotFound,
}

// statusFor maps a usecase error onto the HTTP status of its category.
// Conflicts (double booking, duplicate email or phone) are reported as 400.
func statusFor(err error) int {
	switch {
	case matchesAny(err, badRequestErrors):
		return http.StatusBadRequest
	case matchesAny(err, unauthorizedErrors):
		return http.StatusUnauthorized
	case matchesAny(err, forbiddenErrors):
		return http.StatusForbidden
	case matchesAny(err, notFoundErrors):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func matchesAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// errorWriter renders usecase errors. Internal error details are only exposed in development.
type errorWriter struct {
	exposeInternal bool
}

func (e errorWriter) write(w http.ResponseWriter, err error, fallback string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		response.InternalServerErrorWithDetail(w, fallback, err, e.exposeInternal)
		return
	}
	response.Error(w, status, err.Error(), nil)
}

// decodeAndValidate reads a JSON body into dst and runs the struct validator.
// It writes the 400 response itself and reports whether the handler may continue.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v *validator.CustomValidator, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return false
	}

	if err := v.Validate(dst); err != nil {
		response.ValidationError(w, v.FormatValidationErrors(err))
		return false
	}
	return true
}

// pathID parses a positive numeric route variable.
func pathID(r *http.Request, name string) (uint, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)[name], 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func principalFrom(w http.ResponseWriter, r *http.Request) (*entity.Principal, bool) {
	p, ok := middleware.GetPrincipal(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return nil, false
	}
	return p, true
}
