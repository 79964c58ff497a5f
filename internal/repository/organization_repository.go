package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/miniforvaltaren/api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrganizationRepository struct {
	db *gorm.DB
}

func NewOrganizationRepository(db *gorm.DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

func (r *OrganizationRepository) Create(ctx context.Context, tx *gorm.DB, org *domain.Organization) error {
	return conn(r.db, tx).WithContext(ctx).Omit(clause.Associations).Create(org).Error
}

// FirstForUser returns the organization the user joined first
func (r *OrganizationRepository) FirstForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*domain.Organization, error) {
	var org domain.Organization
	err := conn(r.db, tx).WithContext(ctx).
		Joins("JOIN memberships ON memberships.organization_id = organizations.id").
		Where("memberships.user_id = ?", userID).
		Order("memberships.created_at ASC").
		First(&org).Error
	if err != nil {
		return nil, err
	}
	return &org, nil
}

func (r *OrganizationRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]domain.Organization, error) {
	var orgs []domain.Organization
	err := r.db.WithContext(ctx).
		Joins("JOIN memberships ON memberships.organization_id = organizations.id").
		Where("memberships.user_id = ?", userID).
		Order("organizations.name ASC").
		Find(&orgs).Error
	return orgs, err
}

// GetWithMembers loads an organization and its memberships with users
func (r *OrganizationRepository) GetWithMembers(ctx context.Context, orgID uuid.UUID) (*domain.Organization, error) {
	var org domain.Organization
	err := r.db.WithContext(ctx).
		Preload("Memberships", func(db *gorm.DB) *gorm.DB { return db.Order("memberships.created_at ASC") }).
		Preload("Memberships.User").
		First(&org, "id = ?", orgID).Error
	if err != nil {
		return nil, err
	}
	return &org, nil
}

// LockByID serialises membership changes on one organization (no-op on sqlite)
func (r *OrganizationRepository) LockByID(ctx context.Context, tx *gorm.DB, orgID uuid.UUID) error {
	var org domain.Organization
	return tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&org, "id = ?", orgID).Error
}

func (r *OrganizationRepository) GetMembership(ctx context.Context, tx *gorm.DB, orgID, userID uuid.UUID) (*domain.Membership, error) {
	var m domain.Membership
	err := conn(r.db, tx).WithContext(ctx).
		Where("organization_id = ? AND user_id = ?", orgID, userID).
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// UpsertMembership inserts the membership or overwrites its role
func (r *OrganizationRepository) UpsertMembership(ctx context.Context, tx *gorm.DB, m *domain.Membership) error {
	return conn(r.db, tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "organization_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"role", "updated_at"}),
		}).
		Create(m).Error
}

func (r *OrganizationRepository) UpdateMembershipRole(ctx context.Context, tx *gorm.DB, orgID, userID uuid.UUID, role domain.OrgRole) error {
	result := conn(r.db, tx).WithContext(ctx).Model(&domain.Membership{}).
		Where("organization_id = ? AND user_id = ?", orgID, userID).
		Update("role", role)
	return requireAffected(result)
}

func (r *OrganizationRepository) DeleteMembership(ctx context.Context, tx *gorm.DB, orgID, userID uuid.UUID) (int64, error) {
	result := conn(r.db, tx).WithContext(ctx).
		Where("organization_id = ? AND user_id = ?", orgID, userID).
		Delete(&domain.Membership{})
	return result.RowsAffected, result.Error
}

func (r *OrganizationRepository) CountOwners(ctx context.Context, tx *gorm.DB, orgID uuid.UUID) (int64, error) {
	var count int64
	err := conn(r.db, tx).WithContext(ctx).Model(&domain.Membership{}).
		Where("organization_id = ? AND role = ?", orgID, domain.OrgRoleOwner).
		Count(&count).Error
	return count, err
}
