package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/miniforvaltaren/api/internal/auth"
	"github.com/miniforvaltaren/api/internal/config"
	"github.com/miniforvaltaren/api/internal/database"
	"github.com/miniforvaltaren/api/internal/http/handler"
	"github.com/miniforvaltaren/api/internal/http/middleware"
	"github.com/miniforvaltaren/api/internal/metrics"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/miniforvaltaren/api/docs" // registers the swagger spec
)

// Handlers groups the HTTP handlers mounted by the router
type Handlers struct {
	Auth         *handler.AuthHandler
	Dashboard    *handler.DashboardHandler
	Property     *handler.PropertyHandler
	Unit         *handler.UnitHandler
	Tenant       *handler.TenantHandler
	Lease        *handler.LeaseHandler
	Invoice      *handler.InvoiceHandler
	Ticket       *handler.TicketHandler
	Member       *handler.MemberHandler
	Organization *handler.OrganizationHandler
	Billing      *handler.BillingHandler
	Onboarding   *handler.OnboardingHandler
	Report       *handler.ReportHandler
}

type Router struct {
	cfg            *config.Config
	logger         *zap.Logger
	db             *gorm.DB
	metrics        *metrics.Metrics
	authMiddleware *auth.Middleware
	rateLimiter    *middleware.RateLimiter
	handlers       Handlers
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	m *metrics.Metrics,
	authMiddleware *auth.Middleware,
	rateLimiter *middleware.RateLimiter,
	handlers Handlers,
) *Router {
	return &Router{
		cfg:            cfg,
		logger:         logger,
		db:             db,
		metrics:        m,
		authMiddleware: authMiddleware,
		rateLimiter:    rateLimiter,
		handlers:       handlers,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()
	h := rt.handlers

	// Global middleware
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Metrics(rt.metrics))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP)

	// Liveness probe
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Get("/health/db", rt.databaseHealth)
	r.Get("/health/ready", rt.readiness)

	if rt.cfg.Server.EnableMetrics {
		r.Method(http.MethodGet, "/metrics", rt.metrics.Handler())
	}

	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	// Public intake flow, reached through the QR code on site
	r.Route("/report", func(r chi.Router) {
		r.Get("/sent", h.Report.Sent)
		r.Get("/invalid", h.Report.Invalid)
		r.Get("/{token}", h.Report.Form)
		r.With(rt.rateLimiter.LimitIntake).Post("/{token}", h.Report.Submit)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rt.authMiddleware.Authenticate)
		r.Use(middleware.CaptureUser)
		r.Use(rt.rateLimiter.LimitByUser)

		r.Get("/me", h.Auth.Me)
		r.Put("/me/profile", h.Auth.UpdateProfile)
		r.Get("/usage", h.Auth.Usage)
		r.Get("/dashboard", h.Dashboard.Get)

		r.Route("/onboarding", func(r chi.Router) {
			r.Post("/profile", h.Onboarding.SaveProfile)
			r.Post("/property", h.Onboarding.CreateProperty)
			r.Post("/units", h.Onboarding.CreateUnits)
			r.Post("/tenant-lease", h.Onboarding.CreateTenantAndLease)
		})

		r.Route("/properties", func(r chi.Router) {
			r.Get("/", h.Property.List)
			r.Post("/", h.Property.Create)
			r.Get("/{id}", h.Property.Get)
			r.Put("/{id}", h.Property.Update)
			r.Delete("/{id}", h.Property.Delete)
			r.Get("/{id}/qr", h.Property.QR)
		})

		r.Route("/units", func(r chi.Router) {
			r.Get("/", h.Unit.List)
			r.Post("/", h.Unit.Create)
			r.Post("/bulk", h.Unit.BulkCreate)
		})

		r.Route("/tenants", func(r chi.Router) {
			r.Get("/", h.Tenant.List)
			r.Post("/", h.Tenant.Create)
			r.Get("/{id}", h.Tenant.Get)
			r.Put("/{id}", h.Tenant.Update)
			r.Delete("/{id}", h.Tenant.Delete)
		})

		r.Route("/leases", func(r chi.Router) {
			r.Get("/", h.Lease.List)
			r.Post("/", h.Lease.Create)
			r.Get("/{id}", h.Lease.Get)
			r.Put("/{id}", h.Lease.Update)
		})

		r.Route("/invoices", func(r chi.Router) {
			r.Get("/", h.Invoice.List)
			r.Post("/", h.Invoice.Create)
			r.Get("/{id}", h.Invoice.Get)
			r.Post("/{id}/mark-paid", h.Invoice.MarkPaid)
		})

		r.Route("/tickets", func(r chi.Router) {
			r.Get("/", h.Ticket.List)
			r.Post("/", h.Ticket.Create)
			r.Get("/{id}", h.Ticket.Get)
			r.Put("/{id}", h.Ticket.Update)
			r.Put("/{id}/status", h.Ticket.UpdateStatus)
			r.Delete("/{id}", h.Ticket.Delete)
		})

		r.Route("/members", func(r chi.Router) {
			r.Get("/", h.Member.List)
			r.Post("/", h.Member.Add)
			r.Put("/{userId}", h.Member.UpdateRole)
			r.Delete("/{userId}", h.Member.Remove)
		})

		r.Route("/organizations", func(r chi.Router) {
			r.Get("/", h.Organization.List)
			r.Post("/personal", h.Organization.EnsurePersonal)
			r.Get("/{orgId}", h.Organization.Get)
			r.Post("/{orgId}/members", h.Organization.AddMember)
			r.Put("/{orgId}/members/{userId}", h.Organization.UpdateMemberRole)
			r.Delete("/{orgId}/members/{userId}", h.Organization.RemoveMember)
		})

		r.Route("/billing", func(r chi.Router) {
			r.Get("/subscription", h.Billing.Subscription)
			r.Post("/checkout", h.Billing.Checkout)
			r.Post("/portal", h.Billing.Portal)
		})
	})

	return r
}

// databaseHealth is the readiness probe with connection pool stats
func (rt *Router) databaseHealth(w http.ResponseWriter, r *http.Request) {
	stats, err := database.HealthCheckWithStats(r.Context(), rt.db)
	if err != nil {
		rt.logger.Error("database health check failed", zap.Error(err))
		writeHealth(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":  "unhealthy",
			"error":   err.Error(),
			"service": "database",
		})
		return
	}

	writeHealth(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"service": "database",
		"stats": map[string]interface{}{
			"max_open_connections": stats.MaxOpenConnections,
			"open_connections":     stats.OpenConnections,
			"in_use":               stats.InUse,
			"idle":                 stats.Idle,
			"wait_count":           stats.WaitCount,
			"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
		},
	})
}

// readiness checks every dependency the API needs to serve traffic
func (rt *Router) readiness(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]interface{})
	status := http.StatusOK

	if err := database.HealthCheck(r.Context(), rt.db); err != nil {
		rt.logger.Error("database health check failed", zap.Error(err))
		checks["database"] = map[string]interface{}{"status": "unhealthy", "error": err.Error()}
		status = http.StatusServiceUnavailable
	} else {
		checks["database"] = map[string]interface{}{"status": "healthy"}
	}

	overall := "healthy"
	if status != http.StatusOK {
		overall = "unhealthy"
	}
	writeHealth(w, status, map[string]interface{}{
		"status": overall,
		"checks": checks,
	})
}

func writeHealth(w http.ResponseWriter, status int, body map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
