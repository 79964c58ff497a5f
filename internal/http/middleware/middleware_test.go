package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/miniforvaltaren/api/internal/auth"
	"github.com/miniforvaltaren/api/internal/config"
	"github.com/miniforvaltaren/api/internal/http/middleware"
	"github.com/miniforvaltaren/api/internal/metrics"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestSecurityHeaders(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.SecurityConfig
		headers map[string]string
	}{
		{
			name: "defaults without HSTS",
			cfg: config.SecurityConfig{
				ContentTypeNosniff:    true,
				FrameOptions:          "DENY",
				ContentSecurityPolicy: "default-src 'self'",
				ReferrerPolicy:        "strict-origin-when-cross-origin",
				PermissionsPolicy:     "camera=()",
			},
			headers: map[string]string{
				"X-Content-Type-Options":    "nosniff",
				"X-Frame-Options":           "DENY",
				"Content-Security-Policy":   "default-src 'self'",
				"Referrer-Policy":           "strict-origin-when-cross-origin",
				"Permissions-Policy":        "camera=()",
				"Strict-Transport-Security": "",
			},
		},
		{
			name:    "HSTS with subdomains and preload",
			cfg:     config.SecurityConfig{EnableHSTS: true, HSTSMaxAge: 31536000, HSTSIncludeSubdomains: true, HSTSPreload: true},
			headers: map[string]string{"Strict-Transport-Security": "max-age=31536000; includeSubDomains; preload"},
		},
		{
			name:    "HSTS max-age only",
			cfg:     config.SecurityConfig{EnableHSTS: true, HSTSMaxAge: 600},
			headers: map[string]string{"Strict-Transport-Security": "max-age=600", "X-Content-Type-Options": ""},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(middleware.SecurityHeaders(&tt.cfg)(okHandler), httptest.NewRequest(http.MethodGet, "/", nil))
			for name, want := range tt.headers {
				assert.Equal(t, want, w.Header().Get(name), name)
			}
		})
	}
}

func TestCORS(t *testing.T) {
	preflight := func(origin string) *http.Request {
		req := httptest.NewRequest(http.MethodOptions, "/api/v1/properties", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodGet)
		return req
	}
	base := config.CORSConfig{AllowedMethods: []string{"GET", "POST"}, AllowCredentials: true}

	tests := []struct {
		name        string
		origins     []string
		environment string
		origin      string
		allowed     bool
	}{
		{"explicit origin allowed", []string{"https://app.example.se"}, "production", "https://app.example.se", true},
		{"explicit origin rejects others", []string{"https://app.example.se"}, "production", "https://evil.example", false},
		{"wildcard echoes origin", []string{"*"}, "production", "https://any.example", true},
		{"development allows all", nil, "development", "http://localhost:3000", true},
		{"production without origins denies", nil, "production", "https://app.example.se", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			cfg.AllowedOrigins = tt.origins
			w := serve(middleware.CORS(&cfg, tt.environment, zap.NewNop())(okHandler), preflight(tt.origin))
			if tt.allowed {
				assert.Equal(t, tt.origin, w.Header().Get("Access-Control-Allow-Origin"))
			} else {
				assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
			}
		})
	}
}

func newRequest(path, remoteAddr string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = remoteAddr
	return req
}

func TestRateLimiter_LimitByIP(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		rl := middleware.NewRateLimiter(&config.RateLimitConfig{Enabled: false, RequestsPerMinute: 1}, zap.NewNop())
		h := rl.LimitByIP(okHandler)
		for i := 0; i < 10; i++ {
			assert.Equal(t, http.StatusOK, serve(h, newRequest("/x", "10.0.0.1:1234")).Code)
		}
	})

	t.Run("limit exceeded", func(t *testing.T) {
		rl := middleware.NewRateLimiter(&config.RateLimitConfig{Enabled: true, RequestsPerMinute: 2}, zap.NewNop())
		h := rl.LimitByIP(okHandler)
		assert.Equal(t, http.StatusOK, serve(h, newRequest("/x", "10.0.0.1:1234")).Code)
		assert.Equal(t, http.StatusOK, serve(h, newRequest("/x", "10.0.0.1:1234")).Code)

		w := serve(h, newRequest("/x", "10.0.0.1:1234"))
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, "60", w.Header().Get("Retry-After"))
		assert.Contains(t, w.Body.String(), "rate_limited")

		assert.Equal(t, http.StatusOK, serve(h, newRequest("/x", "10.0.0.2:1234")).Code, "other IPs have their own budget")
	})

	t.Run("whitelisted IP and path", func(t *testing.T) {
		rl := middleware.NewRateLimiter(&config.RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: 1,
			WhitelistIPs:      []string{"127.0.0.1"},
			WhitelistPaths:    []string{"/health", "/swagger/*"},
		}, zap.NewNop())
		h := rl.LimitByIP(okHandler)
		for i := 0; i < 5; i++ {
			assert.Equal(t, http.StatusOK, serve(h, newRequest("/x", "127.0.0.1:1")).Code)
			assert.Equal(t, http.StatusOK, serve(h, newRequest("/health", "10.0.0.9:1")).Code)
			assert.Equal(t, http.StatusOK, serve(h, newRequest("/swagger/index.html", "10.0.0.9:1")).Code)
		}
	})

	t.Run("forwarded for header is the client", func(t *testing.T) {
		rl := middleware.NewRateLimiter(&config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1}, zap.NewNop())
		h := rl.LimitByIP(okHandler)
		first := newRequest("/x", "10.0.0.1:1")
		first.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
		assert.Equal(t, http.StatusOK, serve(h, first).Code)

		second := newRequest("/x", "10.0.0.1:1")
		second.Header.Set("X-Forwarded-For", "203.0.113.8")
		assert.Equal(t, http.StatusOK, serve(h, second).Code)
	})
}

func TestRateLimiter_LimitByUser(t *testing.T) {
	rl := middleware.NewRateLimiter(&config.RateLimitConfig{Enabled: true, RequestsPerMinuteAuth: 1}, zap.NewNop())
	h := rl.LimitByUser(okHandler)
	asUser := func(id uuid.UUID) *http.Request {
		req := newRequest("/api/v1/me", "10.0.0.1:1")
		return req.WithContext(auth.WithUserContext(req.Context(), &auth.UserContext{UserID: id}))
	}
	anna, bo := uuid.New(), uuid.New()

	assert.Equal(t, http.StatusOK, serve(h, asUser(anna)).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(h, asUser(anna)).Code)
	assert.Equal(t, http.StatusOK, serve(h, asUser(bo)).Code, "same IP, different user")
}

func TestRateLimiter_LimitIntake(t *testing.T) {
	rl := middleware.NewRateLimiter(&config.RateLimitConfig{
		Enabled:           true,
		RequestsPerMinute: 100,
		IntakePerMinute:   1,
		WhitelistPaths:    []string{"/report/*"},
	}, zap.NewNop())
	h := rl.LimitIntake(okHandler)

	assert.Equal(t, http.StatusOK, serve(h, newRequest("/report/abc", "10.0.0.1:1")).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(h, newRequest("/report/abc", "10.0.0.1:1")).Code,
		"path whitelist does not bypass the intake limit")
}

func TestLogging_RequestID(t *testing.T) {
	var seen string
	h := middleware.Logging(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = middleware.RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusCreated)
	}))

	w := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusCreated, w.Code)
	require.NotEmpty(t, seen)
	assert.Equal(t, seen, w.Header().Get(middleware.RequestIDHeader))
	_, err := uuid.Parse(seen)
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.RequestIDHeader, "upstream-42")
	w = serve(h, req)
	assert.Equal(t, "upstream-42", seen)
	assert.Equal(t, "upstream-42", w.Header().Get(middleware.RequestIDHeader))
}

func TestRecovery(t *testing.T) {
	h := middleware.Logging(zap.NewNop())(middleware.Recovery(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})))

	w := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "Operation failed")
	assert.NotContains(t, w.Body.String(), "boom")
}

func TestMetrics_LabelsByRoutePattern(t *testing.T) {
	m := metrics.NewForTest()
	r := chi.NewRouter()
	r.Use(middleware.Metrics(m))
	r.Get("/api/v1/properties/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	serve(r, httptest.NewRequest(http.MethodGet, "/api/v1/properties/"+uuid.NewString(), nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/api/v1/properties/"+uuid.NewString(), nil))

	assert.Equal(t, float64(2), promtest.ToFloat64(m.Requests.WithLabelValues(http.MethodGet, "/api/v1/properties/{id}", "404")))
	assert.Equal(t, float64(0), promtest.ToFloat64(m.InFlight))
}

func TestMetrics_NilIsPassthrough(t *testing.T) {
	w := serve(middleware.Metrics(nil)(okHandler), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
