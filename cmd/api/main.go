package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/miniforvaltaren/api/docs"
	"github.com/miniforvaltaren/api/internal/auth"
	"github.com/miniforvaltaren/api/internal/billing"
	"github.com/miniforvaltaren/api/internal/config"
	"github.com/miniforvaltaren/api/internal/database"
	"github.com/miniforvaltaren/api/internal/http/handler"
	"github.com/miniforvaltaren/api/internal/http/middleware"
	"github.com/miniforvaltaren/api/internal/http/router"
	"github.com/miniforvaltaren/api/internal/jobs"
	"github.com/miniforvaltaren/api/internal/logger"
	"github.com/miniforvaltaren/api/internal/metrics"
	"github.com/miniforvaltaren/api/internal/repository"
	"github.com/miniforvaltaren/api/internal/service"
	"github.com/miniforvaltaren/api/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// @title MiniFörvaltaren API
// @version 1.0
// @description Property management for small landlords: properties, units, tenants, leases, rent invoices and maintenance tickets.

// @contact.name MiniFörvaltaren
// @contact.email support@miniforvaltaren.se

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Session JWT as "Bearer <token>". Browsers may send the session cookie instead.

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Load basic configuration first (for logging setup)
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.Int("port", basicCfg.App.Port),
	)

	docs.SwaggerInfo.Host = swaggerHost(basicCfg)

	// Secrets come from Key Vault in staging and production, env otherwise
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	loc, err := cfg.App.Location()
	if err != nil {
		return fmt.Errorf("failed to load timezone: %w", err)
	}

	db, err := database.NewDatabase(&cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	assetStorage, err := storage.NewStorage(&cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	log.Info("Storage initialized", zap.String("mode", cfg.Storage.Mode))

	m := metrics.New(prometheus.DefaultRegisterer)

	// A nil interface disables billing; a typed nil pointer would not
	var billingProvider billing.Provider
	if cfg.Billing.Enabled {
		billingProvider = billing.NewStripeProvider(&cfg.Billing, log)
		log.Info("Billing enabled")
	} else {
		log.Info("Billing disabled, plans are managed manually")
	}

	// Initialize repositories
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

	// Initialize services. The landlord service resolves the viewer for all others.
	landlordService := service.NewLandlordService(db, landlordRepo, memberRepo, propertyRepo, log)
	quotaService := service.NewQuotaService(propertyRepo, unitRepo, memberRepo, log)
	memberService := service.NewMemberService(db, landlordService, quotaService, landlordRepo, memberRepo, userRepo, log)
	organizationService := service.NewOrganizationService(db, orgRepo, userRepo, log)
	propertyService := service.NewPropertyService(db, landlordService, quotaService, propertyRepo, unitRepo, leaseRepo, cfg.App.BaseURL, loc, log)
	unitService := service.NewUnitService(db, landlordService, quotaService, propertyRepo, unitRepo, loc, log)
	tenantService := service.NewTenantService(db, landlordService, tenantRepo, loc, log)
	leaseService := service.NewLeaseService(landlordService, leaseRepo, unitRepo, tenantRepo, loc, log)
	invoiceService := service.NewInvoiceService(db, landlordService, invoiceRepo, paymentRepo, leaseRepo, m, loc, log)
	ticketService := service.NewTicketService(landlordService, ticketRepo, propertyRepo, unitRepo, tenantRepo, log)
	intakeService := service.NewIntakeService(propertyRepo, leaseRepo, ticketRepo, m, log)
	dashboardService := service.NewDashboardService(landlordService, propertyRepo, unitRepo, tenantRepo, leaseRepo, invoiceRepo, paymentRepo, ticketRepo, loc, log)
	billingService := service.NewBillingService(landlordService, quotaService, landlordRepo, billingProvider, &cfg.Billing, log)
	qrService := service.NewQRService(propertyService, assetStorage, log)
	onboardingService := service.NewOnboardingService(db, landlordService, propertyService, unitService, leaseService, tenantRepo, loc, log)

	// Initialize middleware
	authMiddleware := auth.NewMiddleware(&cfg.Auth, userRepo, log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	rt := router.NewRouter(cfg, log, db, m, authMiddleware, rateLimiter, router.Handlers{
		Auth:         handler.NewAuthHandler(landlordService, billingService, log),
		Dashboard:    handler.NewDashboardHandler(dashboardService, log),
		Property:     handler.NewPropertyHandler(propertyService, qrService, log),
		Unit:         handler.NewUnitHandler(unitService, log),
		Tenant:       handler.NewTenantHandler(tenantService, log),
		Lease:        handler.NewLeaseHandler(leaseService, log),
		Invoice:      handler.NewInvoiceHandler(invoiceService, log),
		Ticket:       handler.NewTicketHandler(ticketService, log),
		Member:       handler.NewMemberHandler(memberService, log),
		Organization: handler.NewOrganizationHandler(organizationService, log),
		Billing:      handler.NewBillingHandler(billingService, log),
		Onboarding:   handler.NewOnboardingHandler(onboardingService, log),
		Report:       handler.NewReportHandler(intakeService, log),
	})

	// Background jobs: overdue sweep and the monthly invoice run
	var scheduler *jobs.Scheduler
	if cfg.Jobs.Enabled {
		scheduler = jobs.NewScheduler(log, loc, cfg.Jobs.TimeoutDuration())
		if err := jobs.RegisterInvoiceJobs(scheduler, invoiceService, &cfg.Jobs, log); err != nil {
			return fmt.Errorf("failed to register invoice jobs: %w", err)
		}
		scheduler.Start()
		log.Info("Scheduler started",
			zap.String("overdue_cron", cfg.Jobs.OverdueCron),
			zap.String("monthly_invoice_cron", cfg.Jobs.MonthlyInvoiceCron),
			zap.String("timezone", loc.String()),
		)
	} else {
		log.Info("Background jobs disabled")
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           rt.Setup(),
		ReadTimeout:       cfg.Server.ReadTimeoutDuration(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeoutDuration(),
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		if scheduler != nil {
			<-scheduler.Stop().Done()
			log.Info("Scheduler stopped")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
		log.Info("Server stopped gracefully")
	}

	return nil
}

// swaggerHost points the swagger UI at the API origin
func swaggerHost(cfg *config.Config) string {
	if u, err := url.Parse(cfg.App.BaseURL); err == nil && u.Host != "" && cfg.App.Environment != "development" {
		return u.Host
	}
	return fmt.Sprintf("localhost:%d", cfg.App.Port)
}
