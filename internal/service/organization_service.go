package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/miniforvaltaren/api/internal/auth"
	"github.com/miniforvaltaren/api/internal/domain"
	"github.com/miniforvaltaren/api/internal/mapper"
	"github.com/miniforvaltaren/api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultOrganizationName names the organization created for a new user
const DefaultOrganizationName = "Min organisation"

// OrganizationService manages collaborative organizations and their memberships
type OrganizationService struct {
	db       *gorm.DB
	orgRepo  *repository.OrganizationRepository
	userRepo *repository.UserRepository
	logger   *zap.Logger
}

func NewOrganizationService(
	db *gorm.DB,
	orgRepo *repository.OrganizationRepository,
	userRepo *repository.UserRepository,
	logger *zap.Logger,
) *OrganizationService {
	return &OrganizationService{
		db:       db,
		orgRepo:  orgRepo,
		userRepo: userRepo,
		logger:   logger,
	}
}

// EnsurePersonal returns the user's first organization, creating one with an
// OWNER membership when the user has none
func (s *OrganizationService) EnsurePersonal(ctx context.Context, name string) (*domain.OrganizationDTO, error) {
	user, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultOrganizationName
	}

	var org *domain.Organization
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.orgRepo.FirstForUser(ctx, tx, user.UserID)
		if err == nil {
			org = existing
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to get organization: %w", err)
		}

		org = &domain.Organization{Name: name, CreatedByID: user.UserID}
		if err := s.orgRepo.Create(ctx, tx, org); err != nil {
			return fmt.Errorf("failed to create organization: %w", err)
		}
		owner := &domain.Membership{OrganizationID: org.ID, UserID: user.UserID, Role: domain.OrgRoleOwner}
		if err := s.orgRepo.UpsertMembership(ctx, tx, owner); err != nil {
			return fmt.Errorf("failed to create owner membership: %w", err)
		}
		s.logger.Info("organization created",
			zap.String("organization_id", org.ID.String()),
			zap.String("user_id", user.UserID.String()))
		return nil
	})
	if err != nil {
		return nil, err
	}

	dto := mapper.ToOrganizationDTO(org)
	return &dto, nil
}

func (s *OrganizationService) List(ctx context.Context) ([]domain.OrganizationDTO, error) {
	user, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	orgs, err := s.orgRepo.ListForUser(ctx, user.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	dtos := make([]domain.OrganizationDTO, len(orgs))
	for i := range orgs {
		dtos[i] = mapper.ToOrganizationDTO(&orgs[i])
	}
	return dtos, nil
}

// Get returns an organization with its members. Non-members get ErrNotFound.
func (s *OrganizationService) Get(ctx context.Context, orgID uuid.UUID) (*domain.OrganizationDTO, error) {
	user, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	if _, err := s.orgRepo.GetMembership(ctx, nil, orgID, user.UserID); err != nil {
		return nil, notFoundOr(err, "get membership")
	}
	org, err := s.orgRepo.GetWithMembers(ctx, orgID)
	if err != nil {
		return nil, notFoundOr(err, "get organization")
	}
	dto := mapper.ToOrganizationDTO(org)
	return &dto, nil
}

// RequireRole checks the user's membership in an organization against allowed roles
func (s *OrganizationService) RequireRole(ctx context.Context, tx *gorm.DB, orgID, userID uuid.UUID, allowed ...domain.OrgRole) (domain.OrgRole, error) {
	if userID == uuid.Nil {
		return "", ErrUnauthorized
	}
	m, err := s.orgRepo.GetMembership(ctx, tx, orgID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrForbidden
		}
		return "", fmt.Errorf("failed to get membership: %w", err)
	}
	for _, role := range allowed {
		if m.Role == role {
			return m.Role, nil
		}
	}
	return "", ErrForbidden
}

// AddMember upserts a membership by email. OWNER or ADMIN only; granting OWNER needs OWNER.
func (s *OrganizationService) AddMember(ctx context.Context, orgID uuid.UUID, email, roleName string) (*domain.MembershipDTO, error) {
	user, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}
	role, err := parseOrgRole(roleName)
	if err != nil {
		return nil, err
	}
	callerRole, err := s.RequireRole(ctx, nil, orgID, user.UserID, domain.OrgRoleOwner, domain.OrgRoleAdmin)
	if err != nil {
		return nil, err
	}
	if role == domain.OrgRoleOwner && callerRole != domain.OrgRoleOwner {
		return nil, ErrForbidden
	}

	target, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.orgRepo.LockByID(ctx, tx, orgID); err != nil {
			return notFoundOr(err, "lock organization")
		}
		existing, err := s.orgRepo.GetMembership(ctx, tx, orgID, target.ID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to get membership: %w", err)
		}
		if existing != nil {
			if err := s.guardOwnerLoss(ctx, tx, orgID, existing.Role, role); err != nil {
				return err
			}
		}
		m := &domain.Membership{OrganizationID: orgID, UserID: target.ID, Role: role}
		if err := s.orgRepo.UpsertMembership(ctx, tx, m); err != nil {
			return fmt.Errorf("failed to save membership: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &domain.MembershipDTO{UserID: target.ID, Email: target.Email, Name: target.Name, Role: role}, nil
}

// UpdateMemberRole changes a role. OWNER only.
func (s *OrganizationService) UpdateMemberRole(ctx context.Context, orgID, userID uuid.UUID, roleName string) error {
	user, ok := auth.FromContext(ctx)
	if !ok {
		return ErrUnauthorized
	}
	role, err := parseOrgRole(roleName)
	if err != nil {
		return err
	}
	if _, err := s.RequireRole(ctx, nil, orgID, user.UserID, domain.OrgRoleOwner); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.orgRepo.LockByID(ctx, tx, orgID); err != nil {
			return notFoundOr(err, "lock organization")
		}
		target, err := s.orgRepo.GetMembership(ctx, tx, orgID, userID)
		if err != nil {
			return notFoundOr(err, "get membership")
		}
		if err := s.guardOwnerLoss(ctx, tx, orgID, target.Role, role); err != nil {
			return err
		}
		if err := s.orgRepo.UpdateMembershipRole(ctx, tx, orgID, userID, role); err != nil {
			return fmt.Errorf("failed to update role: %w", err)
		}
		return nil
	})
}

// RemoveMember deletes a membership. OWNER or ADMIN; removing an absent member is a no-op.
func (s *OrganizationService) RemoveMember(ctx context.Context, orgID, userID uuid.UUID) error {
	user, ok := auth.FromContext(ctx)
	if !ok {
		return ErrUnauthorized
	}
	if _, err := s.RequireRole(ctx, nil, orgID, user.UserID, domain.OrgRoleOwner, domain.OrgRoleAdmin); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.orgRepo.LockByID(ctx, tx, orgID); err != nil {
			return notFoundOr(err, "lock organization")
		}
		target, err := s.orgRepo.GetMembership(ctx, tx, orgID, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return fmt.Errorf("failed to get membership: %w", err)
		}
		if err := s.guardOwnerLoss(ctx, tx, orgID, target.Role, ""); err != nil {
			return err
		}
		if _, err := s.orgRepo.DeleteMembership(ctx, tx, orgID, userID); err != nil {
			return fmt.Errorf("failed to delete membership: %w", err)
		}
		return nil
	})
}

func (s *OrganizationService) guardOwnerLoss(ctx context.Context, tx *gorm.DB, orgID uuid.UUID, from, to domain.OrgRole) error {
	if from != domain.OrgRoleOwner || to == domain.OrgRoleOwner {
		return nil
	}
	owners, err := s.orgRepo.CountOwners(ctx, tx, orgID)
	if err != nil {
		return fmt.Errorf("failed to count owners: %w", err)
	}
	if owners <= 1 {
		return ErrCannotRemoveLastOwner
	}
	return nil
}

func parseOrgRole(s string) (domain.OrgRole, error) {
	role := domain.OrgRole(strings.ToUpper(strings.TrimSpace(s)))
	if !role.IsValid() {
		return "", NewValidationError("role", "Ogiltig roll")
	}
	return role, nil
}
