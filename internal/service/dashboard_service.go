package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/miniforvaltaren/api/internal/domain"
	"github.com/miniforvaltaren/api/internal/mapper"
	"github.com/miniforvaltaren/api/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	dashboardUpcomingLimit = 6
	dashboardPaymentsLimit = 6
)

type DashboardService struct {
	clock
	viewers      *LandlordService
	propertyRepo *repository.PropertyRepository
	unitRepo     *repository.UnitRepository
	tenantRepo   *repository.TenantRepository
	leaseRepo    *repository.LeaseRepository
	invoiceRepo  *repository.InvoiceRepository
	paymentRepo  *repository.PaymentRepository
	ticketRepo   *repository.TicketRepository
	loc          *time.Location
	logger       *zap.Logger
}

func NewDashboardService(
	viewers *LandlordService,
	propertyRepo *repository.PropertyRepository,
	unitRepo *repository.UnitRepository,
	tenantRepo *repository.TenantRepository,
	leaseRepo *repository.LeaseRepository,
	invoiceRepo *repository.InvoiceRepository,
	paymentRepo *repository.PaymentRepository,
	ticketRepo *repository.TicketRepository,
	loc *time.Location,
	logger *zap.Logger,
) *DashboardService {
	return &DashboardService{
		viewers:      viewers,
		propertyRepo: propertyRepo,
		unitRepo:     unitRepo,
		tenantRepo:   tenantRepo,
		leaseRepo:    leaseRepo,
		invoiceRepo:  invoiceRepo,
		paymentRepo:  paymentRepo,
		ticketRepo:   ticketRepo,
		loc:          loc,
		logger:       logger,
	}
}

// Get computes the landlord overview. Every figure is taken against one
// captured instant and the calendar month containing it.
func (s *DashboardService) Get(ctx context.Context) (*domain.DashboardDTO, error) {
	viewer, err := s.viewers.Require(ctx)
	if err != nil {
		return nil, err
	}
	landlordID := viewer.LandlordID()

	now := s.current()
	monthStart, monthEnd := domain.MonthWindow(now, s.loc)
	dash := &domain.DashboardDTO{
		GeneratedAt:    now,
		MonthStart:     monthStart,
		MonthEnd:       monthEnd,
		UpcomingDue:    []domain.InvoiceDTO{},
		RecentPayments: []domain.PaymentDTO{},
	}

	counts := &dash.Counts
	g, gctx := errgroup.WithContext(ctx)
	count := func(dst *int64, name string, fn func(context.Context, uuid.UUID) (int64, error)) {
		g.Go(func() error {
			n, err := fn(gctx, landlordID)
			if err != nil {
				return fmt.Errorf("failed to count %s: %w", name, err)
			}
			*dst = n
			return nil
		})
	}

	count(&counts.Properties, "properties", s.propertyRepo.Count)
	count(&counts.Units, "units", func(ctx context.Context, id uuid.UUID) (int64, error) {
		return s.unitRepo.CountByLandlord(ctx, nil, id)
	})
	count(&counts.Tenants, "tenants", s.tenantRepo.Count)
	count(&counts.ActiveLeases, "active leases", func(ctx context.Context, id uuid.UUID) (int64, error) {
		return s.leaseRepo.CountActive(ctx, id, now)
	})
	count(&counts.OpenTickets, "open tickets", s.ticketRepo.CountOpen)
	count(&counts.Overdue, "overdue invoices", func(ctx context.Context, id uuid.UUID) (int64, error) {
		return s.invoiceRepo.CountByStatus(ctx, id, domain.InvoiceStatusOverdue)
	})
	count(&counts.DueThisMonth, "invoices due", func(ctx context.Context, id uuid.UUID) (int64, error) {
		return s.invoiceRepo.CountDueBetween(ctx, id, monthStart, monthEnd)
	})
	count(&counts.PaidThisMonth, "invoices paid", func(ctx context.Context, id uuid.UUID) (int64, error) {
		return s.invoiceRepo.CountPaidBetween(ctx, id, monthStart, monthEnd)
	})

	g.Go(func() error {
		invoices, err := s.invoiceRepo.ListUpcoming(gctx, landlordID, dashboardUpcomingLimit)
		if err != nil {
			return fmt.Errorf("failed to list upcoming invoices: %w", err)
		}
		for i := range invoices {
			dash.UpcomingDue = append(dash.UpcomingDue, mapper.ToInvoiceDTO(&invoices[i], s.loc))
		}
		return nil
	})
	g.Go(func() error {
		payments, err := s.paymentRepo.ListRecent(gctx, landlordID, dashboardPaymentsLimit)
		if err != nil {
			return fmt.Errorf("failed to list recent payments: %w", err)
		}
		for i := range payments {
			dash.RecentPayments = append(dash.RecentPayments, mapper.ToPaymentDTO(&payments[i]))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return dash, nil
}
