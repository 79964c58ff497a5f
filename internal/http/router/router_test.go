package router_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/miniforvaltaren/api/internal/auth"
	"github.com/miniforvaltaren/api/internal/config"
	"github.com/miniforvaltaren/api/internal/domain"
	"github.com/miniforvaltaren/api/internal/http/handler"
	"github.com/miniforvaltaren/api/internal/http/middleware"
	"github.com/miniforvaltaren/api/internal/http/router"
	"github.com/miniforvaltaren/api/internal/metrics"
	"github.com/miniforvaltaren/api/internal/repository"
	"github.com/miniforvaltaren/api/internal/service"
	"github.com/miniforvaltaren/api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testSecret = "router-test-secret-with-enough-bytes"

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name:        "miniforvaltaren-api",
			Environment: "test",
			BaseURL:     "https://app.example.se",
			Timezone:    domain.DefaultTimezone,
		},
		Auth: config.AuthConfig{
			JWTSecret: testSecret,
			Issuer:    "miniforvaltaren",
		},
		Server: config.ServerConfig{EnableMetrics: true},
		Security: config.SecurityConfig{
			ContentTypeNosniff: true,
			FrameOptions:       "DENY",
		},
		RateLimit: config.RateLimitConfig{Enabled: false},
	}
}

func newTestRouter(t *testing.T) (http.Handler, *gorm.DB) {
	t.Helper()

	cfg := testConfig()
	db := testutil.NewTestDB(t)
	loc := testutil.Stockholm(t)
	logger := zap.NewNop()
	m := metrics.NewForTest()

	userRepo := repository.NewUserRepository(db)
	landlordRepo := repository.NewLandlordRepository(db)
	memberRepo := repository.NewLandlordMemberRepository(db)
	orgRepo := repository.NewOrganizationRepository(db)
	propertyRepo := repository.NewPropertyRepository(db)
	unitRepo := repository.NewUnitRepository(db)
	tenantRepo := repository.NewTenantRepository(db)
	leaseRepo := repository.NewLeaseRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	ticketRepo := repository.NewTicketRepository(db)

	landlords := service.NewLandlordService(db, landlordRepo, memberRepo, propertyRepo, logger)
	quota := service.NewQuotaService(propertyRepo, unitRepo, memberRepo, logger)
	members := service.NewMemberService(db, landlords, quota, landlordRepo, memberRepo, userRepo, logger)
	organizations := service.NewOrganizationService(db, orgRepo, userRepo, logger)
	properties := service.NewPropertyService(db, landlords, quota, propertyRepo, unitRepo, leaseRepo, cfg.App.BaseURL, loc, logger)
	units := service.NewUnitService(db, landlords, quota, propertyRepo, unitRepo, loc, logger)
	tenants := service.NewTenantService(db, landlords, tenantRepo, loc, logger)
	leases := service.NewLeaseService(landlords, leaseRepo, unitRepo, tenantRepo, loc, logger)
	invoices := service.NewInvoiceService(db, landlords, invoiceRepo, paymentRepo, leaseRepo, m, loc, logger)
	tickets := service.NewTicketService(landlords, ticketRepo, propertyRepo, unitRepo, tenantRepo, logger)
	intake := service.NewIntakeService(propertyRepo, leaseRepo, ticketRepo, m, logger)
	dashboard := service.NewDashboardService(landlords, propertyRepo, unitRepo, tenantRepo, leaseRepo, invoiceRepo, paymentRepo, ticketRepo, loc, logger)
	billingService := service.NewBillingService(landlords, quota, landlordRepo, nil, &cfg.Billing, logger)
	qrService := service.NewQRService(properties, nil, logger)
	onboarding := service.NewOnboardingService(db, landlords, properties, units, leases, tenantRepo, loc, logger)

	rt := router.NewRouter(cfg, logger, db, m,
		auth.NewMiddleware(&cfg.Auth, userRepo, logger),
		middleware.NewRateLimiter(&cfg.RateLimit, logger),
		router.Handlers{
			Auth:         handler.NewAuthHandler(landlords, billingService, logger),
			Dashboard:    handler.NewDashboardHandler(dashboard, logger),
			Property:     handler.NewPropertyHandler(properties, qrService, logger),
			Unit:         handler.NewUnitHandler(units, logger),
			Tenant:       handler.NewTenantHandler(tenants, logger),
			Lease:        handler.NewLeaseHandler(leases, logger),
			Invoice:      handler.NewInvoiceHandler(invoices, logger),
			Ticket:       handler.NewTicketHandler(tickets, logger),
			Member:       handler.NewMemberHandler(members, logger),
			Organization: handler.NewOrganizationHandler(organizations, logger),
			Billing:      handler.NewBillingHandler(billingService, logger),
			Onboarding:   handler.NewOnboardingHandler(onboarding, logger),
			Report:       handler.NewReportHandler(intake, logger),
		},
	)
	return rt.Setup(), db
}

func get(h http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Health(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := get(h, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	for _, path := range []string{"/health/db", "/health/ready"} {
		t.Run(path, func(t *testing.T) {
			rec := get(h, path, "")
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "healthy", body["status"])
		})
	}
}

func TestRouter_Metrics(t *testing.T) {
	h, _ := newTestRouter(t)
	get(h, "/health", "")

	rec := get(h, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `miniforvaltaren_http_requests_total{method="GET",path="/health",status="200"} 1`)
}

func TestRouter_Authentication(t *testing.T) {
	h, db := newTestRouter(t)

	t.Run("missing token", func(t *testing.T) {
		rec := get(h, "/api/v1/me", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("public report flow needs no session", func(t *testing.T) {
		rec := get(h, "/report/sent", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		user := &auth.UserContext{UserID: uuid.New(), Email: "Anna@Example.se", Name: "Anna"}
		token, err := auth.IssueToken(testSecret, user, "miniforvaltaren", "", time.Hour)
		require.NoError(t, err)

		rec := get(h, "/api/v1/me", token)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var me domain.MeDTO
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
		assert.Equal(t, user.UserID, me.User.ID)
		assert.True(t, me.OnboardingRequired)

		var stored domain.User
		require.NoError(t, db.First(&stored, "id = ?", user.UserID).Error)
		assert.Equal(t, "anna@example.se", stored.Email)
	})

	t.Run("dashboard provisions a landlord", func(t *testing.T) {
		user := &auth.UserContext{UserID: uuid.New(), Email: "bo@example.se"}
		token, err := auth.IssueToken(testSecret, user, "miniforvaltaren", "", time.Hour)
		require.NoError(t, err)

		rec := get(h, "/api/v1/dashboard", token)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var landlords int64
		require.NoError(t, db.Model(&domain.Landlord{}).Where("user_id = ?", user.UserID).Count(&landlords).Error)
		assert.Equal(t, int64(1), landlords)
	})
}
