package middleware

import (
	"net/http"

	"dental-clinic-api/internal/domain/entity"
	"dental-clinic-api/pkg/response"
)

// RequireRole creates a middleware that checks if the user has any of the required roles.
// Roles are not hierarchical: admin-gated routes list RoleAdmin explicitly.
func RequireRole(allowed ...entity.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := GetPrincipal(r.Context())
			if !ok {
				response.Unauthorized(w, "Authentication required")
				return
			}

			if !principal.HasRole(allowed...) {
				response.Forbidden(w, "You don't have permission to access this resource")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin is a convenience middleware for admin-only endpoints
func RequireAdmin(next http.Handler) http.Handler {
	return RequireRole(entity.RoleAdmin)(next)
}

// RequirePatient is a convenience middleware for patient-only endpoints
func RequirePatient(next http.Handler) http.Handler {
	return RequireRole(entity.RolePatient)(next)
}

// RequireDentistOrAdmin is a convenience middleware for clinical staff endpoints
func RequireDentistOrAdmin(next http.Handler) http.Handler {
	return RequireRole(entity.RoleDentist, entity.RoleAdmin)(next)
}
