package middleware

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"dental-clinic-api/config"
	"dental-clinic-api/internal/domain/entity"
	"dental-clinic-api/internal/usecase"
	"dental-clinic-api/pkg/metrics"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAuthenticator map[string]error

func (s stubAuthenticator) Authenticate(_ context.Context, token string) (*entity.Principal, error) {
	if err, ok := s[token]; ok {
		return nil, err
	}
	return &entity.Principal{UserID: 42, Role: entity.RoleDentist, TokenID: token}, nil
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func principalEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p, ok := GetPrincipal(r.Context()); ok {
			w.Header().Set("X-User", string(p.Role))
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAuthenticate(t *testing.T) {
	m := NewAuthMiddleware(stubAuthenticator{
		"revoked":  usecase.ErrTokenRevoked,
		"inactive": usecase.ErrAccountInactive,
		"garbage":  usecase.ErrInvalidToken,
		"db-down":  errors.New("redis: connection refused"),
	}, quietLogger())
	h := m.Authenticate(principalEcho())

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"revoked token", "Bearer revoked", http.StatusUnauthorized},
		{"inactive account", "Bearer inactive", http.StatusUnauthorized},
		{"invalid token", "Bearer garbage", http.StatusUnauthorized},
		{"store failure", "Bearer db-down", http.StatusInternalServerError},
		{"valid token", "Bearer good", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestOptionalAuthenticate(t *testing.T) {
	m := NewAuthMiddleware(stubAuthenticator{"garbage": usecase.ErrInvalidToken}, quietLogger())
	h := m.OptionalAuthenticate(principalEcho())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Header().Get("X-User"))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "dentist", rec.Header().Get("X-User"))

	req = httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	h := RequireDentistOrAdmin(principalEcho())

	tests := []struct {
		name      string
		principal *entity.Principal
		status    int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"patient", &entity.Principal{UserID: 1, Role: entity.RolePatient}, http.StatusForbidden},
		{"dentist", &entity.Principal{UserID: 2, Role: entity.RoleDentist}, http.StatusNoContent},
		{"admin", &entity.Principal{UserID: 3, Role: entity.RoleAdmin}, http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.principal != nil {
				req = req.WithContext(WithPrincipal(req.Context(), tt.principal))
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	h := NewCORSMiddleware("https://clinic.example").Handle(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("preflight must not reach the handler")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/v1/appointments", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://clinic.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "PATCH")
}

func TestLoggingMiddleware_PropagatesRequestID(t *testing.T) {
	var seen string
	h := NewLoggingMiddleware(quietLogger()).Handle(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "req-123", seen)
	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRecoveryMiddleware(t *testing.T) {
	h := NewRecoveryMiddleware(quietLogger()).Handle(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	require.NotPanics(t, func() {
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(config.RateLimitConfig{RequestsPerSecond: 1, Burst: 2})
	now := time.Date(2030, 1, 1, 9, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.2"), "clients are limited independently")

	now = now.Add(time.Second)
	assert.True(t, rl.Allow("10.0.0.1"))

	now = now.Add(limiterIdleTimeout + time.Minute)
	rl.Allow("10.0.0.3")
	rl.mu.Lock()
	_, kept := rl.clients["10.0.0.1"]
	rl.mu.Unlock()
	assert.False(t, kept, "idle clients are swept")
}

func TestRateLimiter_Handle(t *testing.T) {
	rl := NewRateLimiter(config.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 1})
	h := rl.Handle(principalEcho())

	send := func(remoteAddr string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		req.RemoteAddr = remoteAddr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusNoContent, send("203.0.113.7:40000"))
	assert.Equal(t, http.StatusTooManyRequests, send("203.0.113.7:40001"))
	assert.Equal(t, http.StatusNoContent, send("198.51.100.4:40000"))
}

func TestRateLimiter_IgnoresForwardedForFromUntrustedPeers(t *testing.T) {
	rl := NewRateLimiter(config.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 2})
	h := rl.Handle(principalEcho())

	passed := 0
	for i := 0; i < 50; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		req.RemoteAddr = "203.0.113.7:40000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code == http.StatusNoContent {
			passed++
		}
	}
	assert.Equal(t, 2, passed)
}

func TestClientIP(t *testing.T) {
	rl := NewRateLimiter(config.RateLimitConfig{
		RequestsPerSecond: 1,
		Burst:             1,
		TrustedProxies:    []string{"10.0.0.0/8", "192.0.2.1", "not-an-ip"},
	})

	tests := []struct {
		name      string
		remote    string
		forwarded string
		want      string
	}{
		{"direct client", "198.51.100.4:51234", "", "198.51.100.4"},
		{"spoofed header from client", "198.51.100.4:51234", "203.0.113.7", "198.51.100.4"},
		{"trusted proxy", "192.0.2.1:443", "203.0.113.7", "203.0.113.7"},
		{"client prepends a fake hop", "192.0.2.1:443", "1.2.3.4, 203.0.113.7", "203.0.113.7"},
		{"chain of trusted proxies", "10.1.2.3:443", "203.0.113.7, 10.0.0.5", "203.0.113.7"},
		{"trusted proxy without header", "10.1.2.3:443", "", "10.1.2.3"},
		{"garbage hop", "10.1.2.3:443", "bogus", "10.1.2.3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			assert.Equal(t, tt.want, rl.clientIP(req))
		})
	}
}

func TestMetricsMiddleware_UsesRouteTemplate(t *testing.T) {
	m := metrics.New()
	router := mux.NewRouter()
	router.Use(NewMetricsMiddleware(m).Handle)
	router.HandleFunc("/appointments/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	for _, path := range []string{"/appointments/1", "/appointments/2"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	families, err := m.Registry().Gather()
	require.NoError(t, err)

	var count float64
	for _, family := range families {
		if family.GetName() != "http_requests_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "route" {
					assert.Equal(t, "/appointments/{id}", label.GetValue())
				}
			}
			count += metric.GetCounter().GetValue()
		}
	}
	assert.Equal(t, float64(2), count)
}
