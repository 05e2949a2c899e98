package handler

import (
	"net/http"
	"strconv"

	"dental-clinic-api/internal/usecase"
	"dental-clinic-api/pkg/response"
)

type AuditLogHandler struct {
	auditLogUsecase usecase.AuditLogUsecase
	errors          errorWriter
}

func NewAuditLogHandler(auditLogUsecase usecase.AuditLogUsecase, exposeInternal bool) *AuditLogHandler {
	return &AuditLogHandler{
		auditLogUsecase: auditLogUsecase,
		errors:          errorWriter{exposeInternal: exposeInternal},
	}
}

// List returns the newest audit entries, optionally filtered by ?action=.
func (h *AuditLogHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := principalFrom(w, r)
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			response.Error(w, http.StatusBadRequest, "Invalid limit parameter", nil)
			return
		}
		limit = n
	}

	auditLogs, err := h.auditLogUsecase.List(r.Context(), actor, r.URL.Query().Get("action"), limit)
	if err != nil {
		h.errors.write(w, err, "Failed to get audit logs")
		return
	}

	response.Success(w, http.StatusOK, "Audit logs retrieved successfully", auditLogs)
}
