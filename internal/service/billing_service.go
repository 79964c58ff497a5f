package service

import (
	"context"
	"fmt"

	"github.com/miniforvaltaren/api/internal/billing"
	"github.com/miniforvaltaren/api/internal/config"
	"github.com/miniforvaltaren/api/internal/domain"
	"github.com/miniforvaltaren/api/internal/repository"
	"go.uber.org/zap"
)

// BillingService bridges the landlord's stored plan and the billing provider.
// With no provider configured the stored plan is authoritative.
type BillingService struct {
	viewers      *LandlordService
	quota        *QuotaService
	landlordRepo *repository.LandlordRepository
	provider     billing.Provider
	cfg          *config.BillingConfig
	logger       *zap.Logger
}

func NewBillingService(
	viewers *LandlordService,
	quota *QuotaService,
	landlordRepo *repository.LandlordRepository,
	provider billing.Provider,
	cfg *config.BillingConfig,
	logger *zap.Logger,
) *BillingService {
	return &BillingService{
		viewers:      viewers,
		quota:        quota,
		landlordRepo: landlordRepo,
		provider:     provider,
		cfg:          cfg,
		logger:       logger,
	}
}

// Subscription reports the current plan, syncing it from the provider when
// the landlord has a billing customer
func (s *BillingService) Subscription(ctx context.Context) (*domain.SubscriptionDTO, error) {
	viewer, err := s.viewers.Require(ctx)
	if err != nil {
		return nil, err
	}
	landlord := viewer.Landlord
	dto := &domain.SubscriptionDTO{Plan: landlord.Plan, Status: "none"}
	if s.provider == nil || landlord.BillingCustomerID == nil {
		return dto, nil
	}

	sub, err := s.provider.Subscription(ctx, *landlord.BillingCustomerID)
	if err != nil {
		return nil, fmt.Errorf("failed to read subscription: %w", err)
	}
	if sub.Plan != landlord.Plan {
		if err := s.landlordRepo.UpdatePlan(ctx, landlord.ID, sub.Plan); err != nil {
			return nil, fmt.Errorf("failed to sync plan: %w", err)
		}
		s.logger.Info("plan synced from billing",
			zap.String("landlord_id", landlord.ID.String()),
			zap.String("from", string(landlord.Plan)),
			zap.String("to", string(sub.Plan)))
		landlord.Plan = sub.Plan
	}

	dto.Plan = sub.Plan
	dto.Status = sub.Status
	dto.CurrentPeriodEnd = sub.CurrentPeriodEnd
	dto.Managed = true
	return dto, nil
}

// Checkout starts a hosted checkout for the plan named by slug ("basic", "pro")
func (s *BillingService) Checkout(ctx context.Context, slug string) (string, error) {
	plan, ok := domain.PlanFromSlug(slug)
	if !ok {
		return "", NewValidationError("plan", "Okänd plan")
	}
	if s.provider == nil {
		return "", ErrBillingDisabled
	}
	viewer, err := s.viewers.Authorize(ctx, domain.PermSettings)
	if err != nil {
		return "", err
	}
	landlord := viewer.Landlord

	existing := ""
	if landlord.BillingCustomerID != nil {
		existing = *landlord.BillingCustomerID
	}
	customerID, err := s.provider.EnsureCustomer(ctx, existing, viewer.User.Email, landlord.ID)
	if err != nil {
		return "", err
	}
	if customerID != existing {
		if err := s.landlordRepo.SetBillingCustomerID(ctx, landlord.ID, customerID); err != nil {
			return "", fmt.Errorf("failed to save billing customer: %w", err)
		}
		landlord.BillingCustomerID = &customerID
	}

	return s.provider.CheckoutURL(ctx, billing.CheckoutParams{
		LandlordID: landlord.ID,
		CustomerID: customerID,
		Plan:       plan,
		SuccessURL: s.cfg.SuccessURL,
		CancelURL:  s.cfg.CancelURL,
	})
}

// Portal opens the provider's self-service portal
func (s *BillingService) Portal(ctx context.Context) (string, error) {
	if s.provider == nil {
		return "", ErrBillingDisabled
	}
	viewer, err := s.viewers.Authorize(ctx, domain.PermSettings)
	if err != nil {
		return "", err
	}
	if viewer.Landlord.BillingCustomerID == nil {
		return "", ErrNoBillingCustomer
	}
	return s.provider.PortalURL(ctx, *viewer.Landlord.BillingCustomerID, s.cfg.PortalReturnURL)
}

// Usage reports plan ceilings against current counts
func (s *BillingService) Usage(ctx context.Context) (*domain.UsageDTO, error) {
	viewer, err := s.viewers.Require(ctx)
	if err != nil {
		return nil, err
	}
	return s.quota.Usage(ctx, viewer.Landlord)
}
