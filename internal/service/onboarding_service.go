package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/miniforvaltaren/api/internal/domain"
	"github.com/miniforvaltaren/api/internal/mapper"
	"github.com/miniforvaltaren/api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// FirstTenantLeaseResult is what the last onboarding step creates
type FirstTenantLeaseResult struct {
	Tenant domain.TenantDTO `json:"tenant"`
	Lease  domain.LeaseDTO  `json:"lease"`
}

// OnboardingService runs the first-time setup steps. Each step provisions the
// landlord when needed and reuses the regular creation paths.
type OnboardingService struct {
	clock
	db         *gorm.DB
	landlords  *LandlordService
	properties *PropertyService
	units      *UnitService
	leases     *LeaseService
	tenantRepo *repository.TenantRepository
	loc        *time.Location
	logger     *zap.Logger
}

func NewOnboardingService(
	db *gorm.DB,
	landlords *LandlordService,
	properties *PropertyService,
	units *UnitService,
	leases *LeaseService,
	tenantRepo *repository.TenantRepository,
	loc *time.Location,
	logger *zap.Logger,
) *OnboardingService {
	return &OnboardingService{
		db:         db,
		landlords:  landlords,
		properties: properties,
		units:      units,
		leases:     leases,
		tenantRepo: tenantRepo,
		loc:        loc,
		logger:     logger,
	}
}

func (s *OnboardingService) SaveProfile(ctx context.Context, req *domain.UpdateProfileRequest) (*domain.LandlordDTO, error) {
	return s.landlords.UpdateProfile(ctx, req.OrgName)
}

func (s *OnboardingService) CreateFirstProperty(ctx context.Context, req *domain.CreatePropertyRequest) (*domain.PropertyDTO, error) {
	return s.properties.Create(ctx, req)
}

func (s *OnboardingService) BulkCreateUnits(ctx context.Context, req *domain.BulkCreateUnitsRequest) (*domain.BulkUnitsResultDTO, error) {
	return s.units.BulkCreate(ctx, req)
}

// CreateFirstTenantAndLease creates the tenant and its lease in one transaction,
// so a rejected lease leaves no orphan tenant
func (s *OnboardingService) CreateFirstTenantAndLease(ctx context.Context, req *domain.FirstTenantLeaseRequest) (*FirstTenantLeaseResult, error) {
	terms, err := parseLeaseTerms(req.RentAmountKr, req.DueDay, req.StartDate, nil, s.loc)
	if err != nil {
		return nil, err
	}
	viewer, err := s.landlords.Authorize(ctx, domain.PermLeaseCreate)
	if err != nil {
		return nil, err
	}
	if !viewer.Can(domain.PermTenantCreate) {
		return nil, ErrForbidden
	}
	landlordID := viewer.LandlordID()

	var (
		tenant *domain.Tenant
		lease  *domain.Lease
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tenant = &domain.Tenant{
			LandlordID: landlordID,
			Name:       strings.TrimSpace(req.TenantName),
			Email:      optionalString(req.TenantEmail),
			Phone:      optionalString(req.TenantPhone),
		}
		if err := s.tenantRepo.Create(ctx, tx, tenant); err != nil {
			return fmt.Errorf("failed to create tenant: %w", err)
		}
		created, err := s.leases.createLease(ctx, tx, landlordID, req.UnitID, tenant.ID, terms)
		if err != nil {
			return err
		}
		lease = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("onboarding completed",
		zap.String("landlord_id", landlordID.String()),
		zap.String("tenant_id", tenant.ID.String()),
		zap.String("lease_id", lease.ID.String()))

	return &FirstTenantLeaseResult{
		Tenant: mapper.ToTenantDTO(tenant),
		Lease:  mapper.ToLeaseDTO(lease, s.current(), s.loc),
	}, nil
}
