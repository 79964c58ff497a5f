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
	"gorm.io/gorm"
)

// leaseTerms is the validated, typed form of the rent fields shared by lease
// creation, lease edits and onboarding
type leaseTerms struct {
	rent      int64
	dueDay    int
	startDate time.Time
	endDate   *time.Time
}

func parseLeaseTerms(rentKr string, dueDay int, start string, end *string, loc *time.Location) (*leaseTerms, error) {
	rent, err := domain.ParseKronor(rentKr)
	if err != nil || rent <= 0 {
		return nil, NewValidationError("rentAmountKr", "Ange en månadshyra större än 0")
	}
	if dueDay < domain.MinDueDay || dueDay > domain.MaxDueDay {
		return nil, NewValidationError("dueDay", "Förfallodag måste vara mellan 1 och 28")
	}
	startDate, err := parseDate("startDate", start, loc)
	if err != nil {
		return nil, err
	}
	terms := &leaseTerms{rent: rent, dueDay: dueDay, startDate: startDate}
	if end != nil && *end != "" {
		endDate, err := parseDate("endDate", *end, loc)
		if err != nil {
			return nil, err
		}
		if !endDate.After(startDate) {
			return nil, NewValidationError("endDate", "Slutdatum måste vara efter startdatum")
		}
		terms.endDate = &endDate
	}
	return terms, nil
}

type LeaseService struct {
	clock
	viewers    *LandlordService
	leaseRepo  *repository.LeaseRepository
	unitRepo   *repository.UnitRepository
	tenantRepo *repository.TenantRepository
	loc        *time.Location
	logger     *zap.Logger
}

func NewLeaseService(
	viewers *LandlordService,
	leaseRepo *repository.LeaseRepository,
	unitRepo *repository.UnitRepository,
	tenantRepo *repository.TenantRepository,
	loc *time.Location,
	logger *zap.Logger,
) *LeaseService {
	return &LeaseService{
		viewers:    viewers,
		leaseRepo:  leaseRepo,
		unitRepo:   unitRepo,
		tenantRepo: tenantRepo,
		loc:        loc,
		logger:     logger,
	}
}

// Create links a tenant to a unit. Both must belong to the caller's landlord.
func (s *LeaseService) Create(ctx context.Context, req *domain.CreateLeaseRequest) (*domain.LeaseDTO, error) {
	terms, err := parseLeaseTerms(req.RentAmountKr, req.DueDay, req.StartDate, req.EndDate, s.loc)
	if err != nil {
		return nil, err
	}
	viewer, err := s.viewers.Authorize(ctx, domain.PermLeaseCreate)
	if err != nil {
		return nil, err
	}

	lease, err := s.createLease(ctx, nil, viewer.LandlordID(), req.UnitID, req.TenantID, terms)
	if err != nil {
		return nil, err
	}

	dto := mapper.ToLeaseDTO(lease, s.current(), s.loc)
	return &dto, nil
}

// createLease checks scope and inserts. With tx set, every read joins the transaction.
func (s *LeaseService) createLease(ctx context.Context, tx *gorm.DB, landlordID, unitID, tenantID uuid.UUID, terms *leaseTerms) (*domain.Lease, error) {
	unit, err := s.unitRepo.GetByID(ctx, tx, landlordID, unitID)
	if err != nil {
		return nil, notFoundOr(err, "get unit")
	}
	tenant, err := s.tenantRepo.GetByID(ctx, tx, landlordID, tenantID)
	if err != nil {
		return nil, notFoundOr(err, "get tenant")
	}

	lease := &domain.Lease{
		LandlordID: landlordID,
		UnitID:     unit.ID,
		TenantID:   tenant.ID,
		RentAmount: terms.rent,
		DueDay:     terms.dueDay,
		StartDate:  terms.startDate.UTC(),
		EndDate:    terms.endDate,
	}
	if lease.EndDate != nil {
		end := lease.EndDate.UTC()
		lease.EndDate = &end
	}
	if err := s.leaseRepo.Create(ctx, tx, lease); err != nil {
		return nil, fmt.Errorf("failed to create lease: %w", err)
	}
	lease.Unit = unit
	lease.Tenant = tenant

	s.logger.Info("lease created",
		zap.String("landlord_id", landlordID.String()),
		zap.String("lease_id", lease.ID.String()),
		zap.String("unit_id", unit.ID.String()))
	return lease, nil
}

// Update rewrites the lease terms. The tenant cannot be changed.
func (s *LeaseService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateLeaseRequest) (*domain.LeaseDTO, error) {
	terms, err := parseLeaseTerms(req.RentAmountKr, req.DueDay, req.StartDate, req.EndDate, s.loc)
	if err != nil {
		return nil, err
	}
	viewer, err := s.viewers.Authorize(ctx, domain.PermLeaseUpdate)
	if err != nil {
		return nil, err
	}
	landlordID := viewer.LandlordID()

	lease, err := s.leaseRepo.GetByID(ctx, nil, landlordID, id)
	if err != nil {
		return nil, notFoundOr(err, "get lease")
	}
	if req.UnitID != lease.UnitID {
		unit, err := s.unitRepo.GetByID(ctx, nil, landlordID, req.UnitID)
		if err != nil {
			return nil, notFoundOr(err, "get unit")
		}
		lease.UnitID = unit.ID
		lease.Unit = unit
	}
	lease.RentAmount = terms.rent
	lease.DueDay = terms.dueDay
	lease.StartDate = terms.startDate
	lease.EndDate = terms.endDate

	if err := s.leaseRepo.Update(ctx, lease); err != nil {
		return nil, notFoundOr(err, "update lease")
	}

	dto := mapper.ToLeaseDTO(lease, s.current(), s.loc)
	return &dto, nil
}

// Get returns the lease with its invoices
func (s *LeaseService) Get(ctx context.Context, id uuid.UUID) (*domain.LeaseDetailDTO, error) {
	viewer, err := s.viewers.Require(ctx)
	if err != nil {
		return nil, err
	}
	lease, err := s.leaseRepo.GetWithInvoices(ctx, viewer.LandlordID(), id)
	if err != nil {
		return nil, notFoundOr(err, "get lease")
	}

	detail := &domain.LeaseDetailDTO{
		LeaseDTO: mapper.ToLeaseDTO(lease, s.current(), s.loc),
		Invoices: make([]domain.InvoiceDTO, len(lease.Invoices)),
	}
	for i := range lease.Invoices {
		detail.Invoices[i] = mapper.ToInvoiceDTO(&lease.Invoices[i], s.loc)
	}
	return detail, nil
}

// List filters by property, unit and state ("active", "ended" or all)
func (s *LeaseService) List(ctx context.Context, propertyID, unitID *uuid.UUID, state string) ([]domain.LeaseDTO, error) {
	viewer, err := s.viewers.Require(ctx)
	if err != nil {
		return nil, err
	}
	leaseState := repository.LeaseState(state)
	switch leaseState {
	case repository.LeaseStateAny, repository.LeaseStateActive, repository.LeaseStateEnded:
	default:
		return nil, NewValidationError("state", "Ogiltigt filter")
	}

	now := s.current()
	leases, err := s.leaseRepo.List(ctx, viewer.LandlordID(), repository.LeaseFilter{
		PropertyID: propertyID,
		UnitID:     unitID,
		State:      leaseState,
		Now:        now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list leases: %w", err)
	}

	dtos := make([]domain.LeaseDTO, len(leases))
	for i := range leases {
		dtos[i] = mapper.ToLeaseDTO(&leases[i], now, s.loc)
	}
	return dtos, nil
}
