package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/miniforvaltaren/api/internal/domain"
	"github.com/miniforvaltaren/api/internal/mapper"
	"github.com/miniforvaltaren/api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type TenantService struct {
	clock
	db         *gorm.DB
	viewers    *LandlordService
	tenantRepo *repository.TenantRepository
	loc        *time.Location
	logger     *zap.Logger
}

func NewTenantService(
	db *gorm.DB,
	viewers *LandlordService,
	tenantRepo *repository.TenantRepository,
	loc *time.Location,
	logger *zap.Logger,
) *TenantService {
	return &TenantService{
		db:         db,
		viewers:    viewers,
		tenantRepo: tenantRepo,
		loc:        loc,
		logger:     logger,
	}
}

func (s *TenantService) Create(ctx context.Context, req *domain.CreateTenantRequest) (*domain.TenantDTO, error) {
	viewer, err := s.viewers.Authorize(ctx, domain.PermTenantCreate)
	if err != nil {
		return nil, err
	}
	tenant := &domain.Tenant{
		LandlordID: viewer.LandlordID(),
		Name:       strings.TrimSpace(req.Name),
		Email:      optionalString(req.Email),
		Phone:      optionalString(req.Phone),
	}
	if err := s.tenantRepo.Create(ctx, nil, tenant); err != nil {
		return nil, fmt.Errorf("failed to create tenant: %w", err)
	}

	dto := mapper.ToTenantDTO(tenant)
	return &dto, nil
}

// Get returns the tenant with every lease it has held
func (s *TenantService) Get(ctx context.Context, id uuid.UUID) (*domain.TenantDetailDTO, error) {
	viewer, err := s.viewers.Require(ctx)
	if err != nil {
		return nil, err
	}
	tenant, err := s.tenantRepo.GetWithLeases(ctx, viewer.LandlordID(), id)
	if err != nil {
		return nil, notFoundOr(err, "get tenant")
	}

	now := s.current()
	detail := &domain.TenantDetailDTO{
		TenantDTO: mapper.ToTenantDTO(tenant),
		Leases:    make([]domain.LeaseDTO, len(tenant.Leases)),
	}
	for i := range tenant.Leases {
		detail.Leases[i] = mapper.ToLeaseDTO(&tenant.Leases[i], now, s.loc)
		detail.Leases[i].TenantName = tenant.Name
	}
	return detail, nil
}

func (s *TenantService) List(ctx context.Context) ([]domain.TenantDTO, error) {
	viewer, err := s.viewers.Require(ctx)
	if err != nil {
		return nil, err
	}
	tenants, err := s.tenantRepo.List(ctx, viewer.LandlordID())
	if err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	dtos := make([]domain.TenantDTO, len(tenants))
	for i := range tenants {
		dtos[i] = mapper.ToTenantDTO(&tenants[i])
	}
	return dtos, nil
}

func (s *TenantService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateTenantRequest) (*domain.TenantDTO, error) {
	viewer, err := s.viewers.Authorize(ctx, domain.PermTenantCreate)
	if err != nil {
		return nil, err
	}
	tenant, err := s.tenantRepo.GetByID(ctx, nil, viewer.LandlordID(), id)
	if err != nil {
		return nil, notFoundOr(err, "get tenant")
	}

	tenant.Name = strings.TrimSpace(req.Name)
	tenant.Email = optionalString(req.Email)
	tenant.Phone = optionalString(req.Phone)
	if err := s.tenantRepo.Update(ctx, tenant); err != nil {
		return nil, notFoundOr(err, "update tenant")
	}

	dto := mapper.ToTenantDTO(tenant)
	return &dto, nil
}

// Delete removes the tenant with its leases, invoices and payments.
// Tickets that referenced the tenant keep their history.
func (s *TenantService) Delete(ctx context.Context, id uuid.UUID) error {
	viewer, err := s.viewers.Authorize(ctx, domain.PermTenantDelete)
	if err != nil {
		return err
	}
	landlordID := viewer.LandlordID()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.tenantRepo.Delete(ctx, tx, landlordID, id)
	})
	if err != nil {
		return notFoundOr(err, "delete tenant")
	}

	s.logger.Info("tenant deleted",
		zap.String("landlord_id", landlordID.String()),
		zap.String("tenant_id", id.String()))
	return nil
}
