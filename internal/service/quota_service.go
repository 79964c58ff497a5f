package service

import (
	"context"
	"fmt"

	"github.com/miniforvaltaren/api/internal/domain"
	"github.com/miniforvaltaren/api/internal/mapper"
	"github.com/miniforvaltaren/api/internal/repository"
	"go.uber.org/zap"
)

// QuotaService is the single plan-limit guard for every gated creation path.
// Checks are soft: two racing creations may overshoot a ceiling by one.
type QuotaService struct {
	propertyRepo *repository.PropertyRepository
	unitRepo     *repository.UnitRepository
	memberRepo   *repository.LandlordMemberRepository
	logger       *zap.Logger
}

func NewQuotaService(
	propertyRepo *repository.PropertyRepository,
	unitRepo *repository.UnitRepository,
	memberRepo *repository.LandlordMemberRepository,
	logger *zap.Logger,
) *QuotaService {
	return &QuotaService{
		propertyRepo: propertyRepo,
		unitRepo:     unitRepo,
		memberRepo:   memberRepo,
		logger:       logger,
	}
}

// Check returns usage, limit and remaining headroom for one resource kind
func (s *QuotaService) Check(ctx context.Context, landlord *domain.Landlord, kind domain.ResourceKind) (domain.QuotaDTO, error) {
	used, err := s.count(ctx, landlord, kind)
	if err != nil {
		return domain.QuotaDTO{}, err
	}
	return mapper.ToQuotaDTO(used, domain.LimitsFor(landlord.Plan).Max(kind)), nil
}

// Guard fails with a *QuotaError when adding n more of kind would pass the plan ceiling
func (s *QuotaService) Guard(ctx context.Context, landlord *domain.Landlord, kind domain.ResourceKind, n int) error {
	quota, err := s.Check(ctx, landlord, kind)
	if err != nil {
		return err
	}
	if quota.Used+int64(n) > int64(quota.Limit) {
		s.logger.Info("quota exceeded",
			zap.String("landlord_id", landlord.ID.String()),
			zap.String("kind", string(kind)),
			zap.Int64("used", quota.Used),
			zap.Int("adding", n),
			zap.Int("limit", quota.Limit))
		return &QuotaError{Kind: kind, Plan: landlord.Plan, Used: quota.Used, Limit: quota.Limit}
	}
	return nil
}

// Usage reports all ceilings of the landlord's plan
func (s *QuotaService) Usage(ctx context.Context, landlord *domain.Landlord) (*domain.UsageDTO, error) {
	usage := &domain.UsageDTO{Plan: landlord.Plan}
	for _, item := range []struct {
		kind domain.ResourceKind
		dst  *domain.QuotaDTO
	}{
		{domain.ResourceProperties, &usage.Properties},
		{domain.ResourceUnits, &usage.Units},
		{domain.ResourceAgents, &usage.Agents},
	} {
		quota, err := s.Check(ctx, landlord, item.kind)
		if err != nil {
			return nil, err
		}
		*item.dst = quota
	}
	return usage, nil
}

func (s *QuotaService) count(ctx context.Context, landlord *domain.Landlord, kind domain.ResourceKind) (int64, error) {
	var (
		n   int64
		err error
	)
	switch kind {
	case domain.ResourceProperties:
		n, err = s.propertyRepo.Count(ctx, landlord.ID)
	case domain.ResourceUnits:
		n, err = s.unitRepo.CountByLandlord(ctx, nil, landlord.ID)
	case domain.ResourceAgents:
		n, err = s.memberRepo.Count(ctx, landlord.ID)
	default:
		return 0, fmt.Errorf("unknown resource kind %q", kind)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", kind, err)
	}
	return n, nil
}
