package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/miniforvaltaren/api/internal/domain"
	"github.com/miniforvaltaren/api/internal/mapper"
	"github.com/miniforvaltaren/api/internal/metrics"
	"github.com/miniforvaltaren/api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MonthlyRunResult summarizes one pass of monthly invoice generation
type MonthlyRunResult struct {
	Year    int
	Month   time.Month
	Created int
	Skipped int
	Failed  int
}

type InvoiceService struct {
	clock
	db          *gorm.DB
	viewers     *LandlordService
	invoiceRepo *repository.InvoiceRepository
	paymentRepo *repository.PaymentRepository
	leaseRepo   *repository.LeaseRepository
	metrics     *metrics.Metrics
	loc         *time.Location
	logger      *zap.Logger
}

func NewInvoiceService(
	db *gorm.DB,
	viewers *LandlordService,
	invoiceRepo *repository.InvoiceRepository,
	paymentRepo *repository.PaymentRepository,
	leaseRepo *repository.LeaseRepository,
	m *metrics.Metrics,
	loc *time.Location,
	logger *zap.Logger,
) *InvoiceService {
	return &InvoiceService{
		db:          db,
		viewers:     viewers,
		invoiceRepo: invoiceRepo,
		paymentRepo: paymentRepo,
		leaseRepo:   leaseRepo,
		metrics:     m,
		loc:         loc,
		logger:      logger,
	}
}

// Create bills a lease for the month its due date falls in
func (s *InvoiceService) Create(ctx context.Context, req *domain.CreateInvoiceRequest) (*domain.InvoiceDTO, error) {
	if req.Amount <= 0 {
		return nil, NewValidationError("amount", "Ogiltigt belopp")
	}
	dueDate, err := parseDate("dueDate", req.DueDate, s.loc)
	if err != nil {
		return nil, err
	}
	viewer, err := s.viewers.Authorize(ctx, domain.PermInvoiceCreate)
	if err != nil {
		return nil, err
	}

	invoice, err := s.CreateForLease(ctx, viewer.LandlordID(), req.LeaseID, req.Amount, dueDate)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToInvoiceDTO(invoice, s.loc)
	return &dto, nil
}

// CreateForLease inserts a PENDING invoice. The period is derived from dueDate
// in the reference timezone, and a second invoice for the same lease and
// period fails with ErrDuplicatePeriod.
func (s *InvoiceService) CreateForLease(ctx context.Context, landlordID, leaseID uuid.UUID, amount int64, dueDate time.Time) (*domain.RentInvoice, error) {
	lease, err := s.leaseRepo.GetByID(ctx, nil, landlordID, leaseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLeaseNotAllowed
		}
		return nil, fmt.Errorf("failed to get lease: %w", err)
	}

	year, month := domain.PeriodOf(dueDate, s.loc)
	invoice := &domain.RentInvoice{
		LandlordID:  landlordID,
		LeaseID:     lease.ID,
		Amount:      amount,
		DueDate:     dueDate,
		Status:      domain.InvoiceStatusPending,
		PeriodYear:  year,
		PeriodMonth: month,
	}
	if err := s.invoiceRepo.Create(ctx, nil, invoice); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicatePeriod
		}
		return nil, fmt.Errorf("failed to create invoice: %w", err)
	}
	invoice.Lease = lease
	return invoice, nil
}

// Get returns the invoice with its payments
func (s *InvoiceService) Get(ctx context.Context, id uuid.UUID) (*domain.InvoiceDTO, error) {
	viewer, err := s.viewers.Require(ctx)
	if err != nil {
		return nil, err
	}
	invoice, err := s.invoiceRepo.GetByID(ctx, nil, viewer.LandlordID(), id)
	if err != nil {
		return nil, notFoundOr(err, "get invoice")
	}
	dto := mapper.ToInvoiceDTO(invoice, s.loc)
	return &dto, nil
}

// List filters by status ("pending", "paid", "overdue"), property and lease
func (s *InvoiceService) List(ctx context.Context, status string, propertyID, leaseID *uuid.UUID) ([]domain.InvoiceDTO, error) {
	viewer, err := s.viewers.Require(ctx)
	if err != nil {
		return nil, err
	}
	filter := repository.InvoiceFilter{PropertyID: propertyID, LeaseID: leaseID}
	if status != "" {
		st, ok := domain.ParseInvoiceStatus(status)
		if !ok {
			return nil, NewValidationError("status", "Ogiltig status")
		}
		filter.Status = &st
	}

	invoices, err := s.invoiceRepo.List(ctx, viewer.LandlordID(), filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	dtos := make([]domain.InvoiceDTO, len(invoices))
	for i := range invoices {
		dtos[i] = mapper.ToInvoiceDTO(&invoices[i], s.loc)
	}
	return dtos, nil
}

// MarkPaid records one full payment and flips the invoice to PAID atomically.
// A second call returns ErrInvoiceAlreadyPaid and writes nothing.
func (s *InvoiceService) MarkPaid(ctx context.Context, id uuid.UUID) (*domain.InvoiceDTO, error) {
	viewer, err := s.viewers.Authorize(ctx, domain.PermInvoiceMarkPaid)
	if err != nil {
		return nil, err
	}
	landlordID := viewer.LandlordID()
	now := s.current()

	var invoice *domain.RentInvoice
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.invoiceRepo.GetByID(ctx, tx, landlordID, id)
		if err != nil {
			return notFoundOr(err, "get invoice")
		}
		if !existing.Status.CanTransitionTo(domain.InvoiceStatusPaid) {
			return ErrInvoiceAlreadyPaid
		}
		from := domain.InvoiceStatusesInto(domain.InvoiceStatusPaid)
		if err := s.invoiceRepo.MarkPaid(ctx, tx, landlordID, id, from, now); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvoiceAlreadyPaid
			}
			return fmt.Errorf("failed to mark invoice paid: %w", err)
		}

		current, err := s.invoiceRepo.GetByID(ctx, tx, landlordID, id)
		if err != nil {
			return fmt.Errorf("failed to reload invoice: %w", err)
		}
		payment := &domain.Payment{RentInvoiceID: current.ID, Amount: current.Amount, PaidDate: now}
		if err := s.paymentRepo.Create(ctx, tx, payment); err != nil {
			return fmt.Errorf("failed to record payment: %w", err)
		}
		current.Payments = append(current.Payments, *payment)
		invoice = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.InvoicePaid()
	s.logger.Info("invoice marked paid",
		zap.String("landlord_id", landlordID.String()),
		zap.String("invoice_id", id.String()),
		zap.Int64("amount", invoice.Amount))

	dto := mapper.ToInvoiceDTO(invoice, s.loc)
	return &dto, nil
}

// SweepOverdue moves PENDING invoices due before today's local midnight to OVERDUE
func (s *InvoiceService) SweepOverdue(ctx context.Context) (int64, error) {
	cutoff := domain.StartOfDay(s.current(), s.loc)
	n, err := s.invoiceRepo.MarkOverdue(ctx, domain.InvoiceStatusesInto(domain.InvoiceStatusOverdue), cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to mark overdue invoices: %w", err)
	}
	s.metrics.Overdue(n)
	if n > 0 {
		s.logger.Info("invoices marked overdue", zap.Int64("count", n), zap.Time("cutoff", cutoff))
	}
	return n, nil
}

// GenerateMonthly creates this month's invoice for every active lease.
// Leases already billed for the month are skipped, so reruns are safe.
func (s *InvoiceService) GenerateMonthly(ctx context.Context) (*MonthlyRunResult, error) {
	now := s.current()
	local := now.In(s.loc)
	result := &MonthlyRunResult{Year: local.Year(), Month: local.Month()}

	leases, err := s.leaseRepo.ListActive(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list active leases: %w", err)
	}

	for i := range leases {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		lease := &leases[i]
		dueDate, err := domain.DueDateFor(result.Year, result.Month, lease.DueDay, s.loc)
		if err != nil {
			result.Failed++
			s.logger.Warn("lease has invalid due day",
				zap.String("lease_id", lease.ID.String()),
				zap.Int("due_day", lease.DueDay))
			continue
		}
		_, err = s.CreateForLease(ctx, lease.LandlordID, lease.ID, lease.RentAmount, dueDate)
		switch {
		case err == nil:
			result.Created++
		case errors.Is(err, ErrDuplicatePeriod):
			result.Skipped++
		default:
			result.Failed++
			s.logger.Error("failed to generate invoice",
				zap.String("lease_id", lease.ID.String()),
				zap.Error(err))
		}
	}

	s.logger.Info("monthly invoices generated",
		zap.Int("year", result.Year),
		zap.Int("month", int(result.Month)),
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed))
	return result, nil
}
