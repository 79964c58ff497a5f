package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/miniforvaltaren/api/internal/domain"
	"github.com/miniforvaltaren/api/internal/mapper"
	"github.com/miniforvaltaren/api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MemberService manages the agents of a landlord and their roles
type MemberService struct {
	db           *gorm.DB
	viewers      *LandlordService
	quota        *QuotaService
	landlordRepo *repository.LandlordRepository
	memberRepo   *repository.LandlordMemberRepository
	userRepo     *repository.UserRepository
	logger       *zap.Logger
}

func NewMemberService(
	db *gorm.DB,
	viewers *LandlordService,
	quota *QuotaService,
	landlordRepo *repository.LandlordRepository,
	memberRepo *repository.LandlordMemberRepository,
	userRepo *repository.UserRepository,
	logger *zap.Logger,
) *MemberService {
	return &MemberService{
		db:           db,
		viewers:      viewers,
		quota:        quota,
		landlordRepo: landlordRepo,
		memberRepo:   memberRepo,
		userRepo:     userRepo,
		logger:       logger,
	}
}

// RequirePermission checks a user's membership in a landlord scope and returns the role
func (s *MemberService) RequirePermission(ctx context.Context, landlordID, userID uuid.UUID, permission domain.Permission) (domain.Role, error) {
	if userID == uuid.Nil {
		return "", ErrUnauthorized
	}
	member, err := s.memberRepo.Get(ctx, nil, landlordID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrForbidden
		}
		return "", fmt.Errorf("failed to get membership: %w", err)
	}
	if !domain.HasPermission(member.Role, permission) {
		return "", ErrForbidden
	}
	return member.Role, nil
}

func (s *MemberService) List(ctx context.Context) ([]domain.MemberDTO, error) {
	viewer, err := s.viewers.Require(ctx)
	if err != nil {
		return nil, err
	}
	members, err := s.memberRepo.List(ctx, viewer.LandlordID())
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	dtos := make([]domain.MemberDTO, len(members))
	for i := range members {
		dtos[i] = mapper.ToMemberDTO(&members[i])
	}
	return dtos, nil
}

// Add grants an existing user a role, or changes the role of a current member.
// New members count against the agent quota. Changing an existing role takes
// an OWNER, as in UpdateRole.
func (s *MemberService) Add(ctx context.Context, req *domain.AddMemberRequest) (*domain.MemberDTO, error) {
	role, err := parseRole(req.Role)
	if err != nil {
		return nil, err
	}
	viewer, err := s.viewers.Authorize(ctx, domain.PermMemberManage)
	if err != nil {
		return nil, err
	}
	landlordID := viewer.LandlordID()
	if role == domain.RoleOwner && viewer.Role != domain.RoleOwner {
		return nil, ErrForbidden
	}

	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if _, err := s.memberRepo.Get(ctx, nil, landlordID, user.ID); err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to get membership: %w", err)
		}
		if err := s.quota.Guard(ctx, viewer.Landlord, domain.ResourceAgents, 1); err != nil {
			return nil, err
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.landlordRepo.LockByID(ctx, tx, landlordID); err != nil {
			return fmt.Errorf("failed to lock landlord: %w", err)
		}
		existing, err := s.memberRepo.Get(ctx, tx, landlordID, user.ID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to get membership: %w", err)
		}
		if existing != nil && existing.Role != role {
			if viewer.Role != domain.RoleOwner {
				return ErrForbidden
			}
			if err := s.guardOwnerLoss(ctx, tx, landlordID, existing.Role, role); err != nil {
				return err
			}
		}
		member := &domain.LandlordMember{LandlordID: landlordID, UserID: user.ID, Role: role}
		if err := s.memberRepo.Upsert(ctx, tx, member); err != nil {
			return fmt.Errorf("failed to save membership: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("member saved",
		zap.String("landlord_id", landlordID.String()),
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(role)))

	return &domain.MemberDTO{UserID: user.ID, Email: user.Email, Name: user.Name, Role: role}, nil
}

// UpdateRole changes a member's role. Only an OWNER may do this.
func (s *MemberService) UpdateRole(ctx context.Context, userID uuid.UUID, roleName string) error {
	role, err := parseRole(roleName)
	if err != nil {
		return err
	}
	viewer, err := s.viewers.Require(ctx)
	if err != nil {
		return err
	}
	if viewer.Role != domain.RoleOwner {
		return ErrForbidden
	}
	landlordID := viewer.LandlordID()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.landlordRepo.LockByID(ctx, tx, landlordID); err != nil {
			return fmt.Errorf("failed to lock landlord: %w", err)
		}
		target, err := s.memberRepo.Get(ctx, tx, landlordID, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to get membership: %w", err)
		}
		if err := s.guardOwnerLoss(ctx, tx, landlordID, target.Role, role); err != nil {
			return err
		}
		if err := s.memberRepo.UpdateRole(ctx, tx, landlordID, userID, role); err != nil {
			return fmt.Errorf("failed to update role: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if userID == viewer.User.UserID {
		invalidateViewer(ctx)
	}
	return nil
}

// Remove deletes a membership. Removing an absent member is a no-op. The
// account holder stays a member of their own landlord.
func (s *MemberService) Remove(ctx context.Context, userID uuid.UUID) error {
	viewer, err := s.viewers.Authorize(ctx, domain.PermMemberManage)
	if err != nil {
		return err
	}
	landlordID := viewer.LandlordID()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.landlordRepo.LockByID(ctx, tx, landlordID); err != nil {
			return fmt.Errorf("failed to lock landlord: %w", err)
		}
		target, err := s.memberRepo.Get(ctx, tx, landlordID, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return fmt.Errorf("failed to get membership: %w", err)
		}
		if target.Role == domain.RoleOwner {
			if viewer.Role != domain.RoleOwner {
				return ErrForbidden
			}
			if err := s.guardOwnerLoss(ctx, tx, landlordID, target.Role, ""); err != nil {
				return err
			}
		}
		if userID == viewer.Landlord.UserID {
			return ErrCannotRemoveAccountHolder
		}
		if _, err := s.memberRepo.Delete(ctx, tx, landlordID, userID); err != nil {
			return fmt.Errorf("failed to delete membership: %w", err)
		}
		return nil
	})
}

// guardOwnerLoss rejects a change that takes the role away from the sole OWNER
func (s *MemberService) guardOwnerLoss(ctx context.Context, tx *gorm.DB, landlordID uuid.UUID, from, to domain.Role) error {
	if from != domain.RoleOwner || to == domain.RoleOwner {
		return nil
	}
	owners, err := s.memberRepo.CountByRole(ctx, tx, landlordID, domain.RoleOwner)
	if err != nil {
		return fmt.Errorf("failed to count owners: %w", err)
	}
	if owners <= 1 {
		return ErrCannotRemoveLastOwner
	}
	return nil
}

func parseRole(s string) (domain.Role, error) {
	role := domain.Role(strings.ToUpper(strings.TrimSpace(s)))
	if !role.IsValid() {
		return "", NewValidationError("role", "Ogiltig roll")
	}
	return role, nil
}
