package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/miniforvaltaren/api/internal/auth"
	"github.com/miniforvaltaren/api/internal/domain"
	"github.com/miniforvaltaren/api/internal/logger"
	"github.com/miniforvaltaren/api/internal/mapper"
	"github.com/miniforvaltaren/api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Viewer is the authenticated user resolved against a landlord scope.
// Landlord is nil when the user has none and none was provisioned.
type Viewer struct {
	User     *auth.UserContext
	Landlord *domain.Landlord
	Role     domain.Role
}

// LandlordID returns the scope every lookup is filtered by
func (v *Viewer) LandlordID() uuid.UUID {
	if v.Landlord == nil {
		return uuid.Nil
	}
	return v.Landlord.ID
}

// Can reports whether the viewer's role grants permission
func (v *Viewer) Can(permission domain.Permission) bool {
	return v.Landlord != nil && domain.HasPermission(v.Role, permission)
}

// LandlordService resolves the acting landlord and owns its profile
type LandlordService struct {
	db           *gorm.DB
	landlordRepo *repository.LandlordRepository
	memberRepo   *repository.LandlordMemberRepository
	propertyRepo *repository.PropertyRepository
	logger       *zap.Logger
}

func NewLandlordService(
	db *gorm.DB,
	landlordRepo *repository.LandlordRepository,
	memberRepo *repository.LandlordMemberRepository,
	propertyRepo *repository.PropertyRepository,
	logger *zap.Logger,
) *LandlordService {
	return &LandlordService{
		db:           db,
		landlordRepo: landlordRepo,
		memberRepo:   memberRepo,
		propertyRepo: propertyRepo,
		logger:       logger,
	}
}

// Resolve returns the viewer for the request. The landlord is the one the user
// owns, else the first one the user is a member of. With ensure, a user with
// neither gets a FREE landlord of their own. The result is memoized on the
// request context.
func (s *LandlordService) Resolve(ctx context.Context, ensure bool) (*Viewer, error) {
	user, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	cache := auth.ViewerCacheFromContext(ctx)
	if landlord, role, ok := cache.Get(); ok {
		return &Viewer{User: user, Landlord: landlord, Role: role}, nil
	}

	landlord, role, err := s.lookup(ctx, user.UserID)
	if err != nil {
		return nil, err
	}
	if landlord == nil {
		if !ensure {
			return &Viewer{User: user}, nil
		}
		landlord, err = s.provision(ctx, user)
		if err != nil {
			return nil, err
		}
		role = domain.RoleOwner
	}

	cache.Store(landlord, role)
	return &Viewer{User: user, Landlord: landlord, Role: role}, nil
}

// Require resolves the viewer, provisioning a landlord when needed
func (s *LandlordService) Require(ctx context.Context) (*Viewer, error) {
	return s.Resolve(ctx, true)
}

// Authorize requires a landlord and a role holding permission
func (s *LandlordService) Authorize(ctx context.Context, permission domain.Permission) (*Viewer, error) {
	viewer, err := s.Require(ctx)
	if err != nil {
		return nil, err
	}
	if !viewer.Can(permission) {
		s.logger.Info("permission denied",
			zap.String("user_id", viewer.User.UserID.String()),
			zap.String("landlord_id", viewer.LandlordID().String()),
			zap.String("role", string(viewer.Role)),
			zap.String("permission", string(permission)))
		return nil, ErrForbidden
	}
	return viewer, nil
}

func (s *LandlordService) lookup(ctx context.Context, userID uuid.UUID) (*domain.Landlord, domain.Role, error) {
	landlord, err := s.landlordRepo.GetByUserID(ctx, nil, userID)
	switch {
	case err == nil:
		role, err := s.memberRole(ctx, landlord.ID, userID)
		return landlord, role, err
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, "", fmt.Errorf("failed to get landlord: %w", err)
	}

	landlord, err = s.landlordRepo.GetByMember(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", nil
		}
		return nil, "", fmt.Errorf("failed to get landlord by membership: %w", err)
	}
	role, err := s.memberRole(ctx, landlord.ID, userID)
	return landlord, role, err
}

// memberRole reads the membership role. Without a row the user holds no role,
// even on the landlord they created.
func (s *LandlordService) memberRole(ctx context.Context, landlordID, userID uuid.UUID) (domain.Role, error) {
	member, err := s.memberRepo.Get(ctx, nil, landlordID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get membership: %w", err)
	}
	return member.Role, nil
}

// provision creates the landlord and its OWNER membership. Concurrent callers
// for the same user converge on one row through the unique user_id.
func (s *LandlordService) provision(ctx context.Context, user *auth.UserContext) (*domain.Landlord, error) {
	var landlord *domain.Landlord
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		candidate := &domain.Landlord{UserID: user.UserID, Plan: domain.PlanFree}
		if err := s.landlordRepo.CreateIfAbsent(ctx, tx, candidate); err != nil {
			return fmt.Errorf("failed to create landlord: %w", err)
		}
		winner, err := s.landlordRepo.GetByUserID(ctx, tx, user.UserID)
		if err != nil {
			return fmt.Errorf("failed to read landlord: %w", err)
		}
		owner := &domain.LandlordMember{LandlordID: winner.ID, UserID: user.UserID, Role: domain.RoleOwner}
		if err := s.memberRepo.CreateIfAbsent(ctx, tx, owner); err != nil {
			return fmt.Errorf("failed to create owner membership: %w", err)
		}
		landlord = winner
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.WithLandlord(logger.WithUser(s.logger, user.UserID.String(), user.Email), landlord.ID.String()).
		Info("landlord provisioned")
	return landlord, nil
}

// UpdateProfile sets the organization display name
func (s *LandlordService) UpdateProfile(ctx context.Context, orgName string) (*domain.LandlordDTO, error) {
	orgName = strings.TrimSpace(orgName)
	if len([]rune(orgName)) < 2 {
		return nil, NewValidationError("orgName", "Namnet måste vara minst 2 tecken")
	}

	viewer, err := s.Authorize(ctx, domain.PermSettings)
	if err != nil {
		return nil, err
	}
	if err := s.landlordRepo.UpdateOrgName(ctx, viewer.LandlordID(), orgName); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	viewer.Landlord.OrgName = orgName

	dto := mapper.ToLandlordDTO(viewer.Landlord)
	return &dto, nil
}

// Me describes the caller without provisioning anything
func (s *LandlordService) Me(ctx context.Context) (*domain.MeDTO, error) {
	viewer, err := s.Resolve(ctx, false)
	if err != nil {
		return nil, err
	}

	me := &domain.MeDTO{
		User: domain.UserDTO{
			ID:    viewer.User.UserID,
			Email: viewer.User.Email,
			Name:  viewer.User.DisplayName(),
		},
		OnboardingRequired: true,
	}
	if viewer.Landlord == nil {
		return me, nil
	}

	landlord := mapper.ToLandlordDTO(viewer.Landlord)
	me.Landlord = &landlord
	if role := viewer.Role; role != "" {
		me.Role = &role
		me.Permissions = domain.PermissionsFor(role)
	}

	properties, err := s.propertyRepo.Count(ctx, viewer.LandlordID())
	if err != nil {
		return nil, fmt.Errorf("failed to count properties: %w", err)
	}
	me.OnboardingRequired = viewer.Landlord.OrgName == "" || properties == 0
	return me, nil
}
