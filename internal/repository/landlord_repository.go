package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/miniforvaltaren/api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LandlordRepository struct {
	db *gorm.DB
}

func NewLandlordRepository(db *gorm.DB) *LandlordRepository {
	return &LandlordRepository{db: db}
}

func (r *LandlordRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Landlord, error) {
	var landlord domain.Landlord
	if err := r.db.WithContext(ctx).First(&landlord, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &landlord, nil
}

// GetByUserID returns the landlord owned by userID
func (r *LandlordRepository) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*domain.Landlord, error) {
	var landlord domain.Landlord
	err := conn(r.db, tx).WithContext(ctx).First(&landlord, "user_id = ?", userID).Error
	if err != nil {
		return nil, err
	}
	return &landlord, nil
}

// GetByMember returns the earliest landlord in which userID holds a membership
func (r *LandlordRepository) GetByMember(ctx context.Context, userID uuid.UUID) (*domain.Landlord, error) {
	var landlord domain.Landlord
	err := r.db.WithContext(ctx).
		Joins("JOIN landlord_members ON landlord_members.landlord_id = landlords.id").
		Where("landlord_members.user_id = ?", userID).
		Order("landlord_members.created_at ASC").
		First(&landlord).Error
	if err != nil {
		return nil, err
	}
	return &landlord, nil
}

// CreateIfAbsent inserts landlord unless a row for its user already exists.
// Callers re-read by user id afterwards to get the winning row.
func (r *LandlordRepository) CreateIfAbsent(ctx context.Context, tx *gorm.DB, landlord *domain.Landlord) error {
	return conn(r.db, tx).WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(landlord).Error
}

// LockByID takes a row lock on the landlord for the rest of tx (no-op on sqlite)
func (r *LandlordRepository) LockByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	var landlord domain.Landlord
	return tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&landlord, "id = ?", id).Error
}

func (r *LandlordRepository) UpdateOrgName(ctx context.Context, id uuid.UUID, orgName string) error {
	result := r.db.WithContext(ctx).Model(&domain.Landlord{}).
		Where("id = ?", id).
		Update("org_name", orgName)
	return requireAffected(result)
}

func (r *LandlordRepository) UpdatePlan(ctx context.Context, id uuid.UUID, plan domain.Plan) error {
	result := r.db.WithContext(ctx).Model(&domain.Landlord{}).
		Where("id = ?", id).
		Update("plan", plan)
	return requireAffected(result)
}

func (r *LandlordRepository) SetBillingCustomerID(ctx context.Context, id uuid.UUID, customerID string) error {
	result := r.db.WithContext(ctx).Model(&domain.Landlord{}).
		Where("id = ?", id).
		Update("billing_customer_id", customerID)
	return requireAffected(result)
}
