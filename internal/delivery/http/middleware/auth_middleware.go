package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"dental-clinic-api/internal/domain/entity"
	"dental-clinic-api/internal/usecase"
	"dental-clinic-api/pkg/response"

	"github.com/sirupsen/logrus"
)

type contextKey string

const (
	PrincipalKey contextKey = "principal"
	RequestIDKey contextKey = "request_id"
)

// Authenticator resolves a bearer token into the calling principal.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*entity.Principal, error)
}

type AuthMiddleware struct {
	authenticator Authenticator
	log           *logrus.Logger
}

func NewAuthMiddleware(authenticator Authenticator, log *logrus.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		authenticator: authenticator,
		log:           log,
	}
}

// Authenticate rejects requests without a valid, non-revoked token of an active user.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			response.Unauthorized(w, "Authorization header is required")
			return
		}

		m.serveWithPrincipal(w, r, authHeader, next)
	})
}

// OptionalAuthenticate lets anonymous requests through. A request that does send a
// token must still present a valid one.
func (m *AuthMiddleware) OptionalAuthenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			next.ServeHTTP(w, r)
			return
		}

		m.serveWithPrincipal(w, r, authHeader, next)
	})
}

func (m *AuthMiddleware) serveWithPrincipal(w http.ResponseWriter, r *http.Request, authHeader string, next http.Handler) {
	// Extract token from "Bearer <token>"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		response.Unauthorized(w, "Invalid authorization header format")
		return
	}

	principal, err := m.authenticator.Authenticate(r.Context(), parts[1])
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrTokenRevoked):
			response.Unauthorized(w, "Token has been revoked")
		case errors.Is(err, usecase.ErrAccountInactive):
			response.Unauthorized(w, "Account is inactive")
		case errors.Is(err, usecase.ErrInvalidToken):
			response.Unauthorized(w, "Invalid or expired token")
		default:
			m.log.Errorf("Failed to validate token: %+v", err)
			response.InternalServerError(w, "Failed to validate token")
		}
		return
	}

	next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
}

// WithPrincipal stores the authenticated caller in ctx.
func WithPrincipal(ctx context.Context, p *entity.Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, p)
}

// GetPrincipal extracts the authenticated caller from context
func GetPrincipal(ctx context.Context) (*entity.Principal, bool) {
	p, ok := ctx.Value(PrincipalKey).(*entity.Principal)
	return p, ok && p != nil
}

// GetRequestID extracts the request id set by the logging middleware
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}
