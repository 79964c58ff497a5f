package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/miniforvaltaren/api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LandlordMemberRepository struct {
	db *gorm.DB
}

func NewLandlordMemberRepository(db *gorm.DB) *LandlordMemberRepository {
	return &LandlordMemberRepository{db: db}
}

func (r *LandlordMemberRepository) Get(ctx context.Context, tx *gorm.DB, landlordID, userID uuid.UUID) (*domain.LandlordMember, error) {
	var member domain.LandlordMember
	err := conn(r.db, tx).WithContext(ctx).
		Where("landlord_id = ? AND user_id = ?", landlordID, userID).
		First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *LandlordMemberRepository) List(ctx context.Context, landlordID uuid.UUID) ([]domain.LandlordMember, error) {
	var members []domain.LandlordMember
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("landlord_id = ?", landlordID).
		Order("created_at ASC").
		Find(&members).Error
	return members, err
}

// CreateIfAbsent inserts member unless (landlord, user) already exists
func (r *LandlordMemberRepository) CreateIfAbsent(ctx context.Context, tx *gorm.DB, member *domain.LandlordMember) error {
	return conn(r.db, tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "landlord_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).
		Create(member).Error
}

// Upsert inserts member or overwrites the role of the existing row
func (r *LandlordMemberRepository) Upsert(ctx context.Context, tx *gorm.DB, member *domain.LandlordMember) error {
	return conn(r.db, tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "landlord_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"role", "updated_at"}),
		}).
		Create(member).Error
}

func (r *LandlordMemberRepository) UpdateRole(ctx context.Context, tx *gorm.DB, landlordID, userID uuid.UUID, role domain.Role) error {
	result := conn(r.db, tx).WithContext(ctx).Model(&domain.LandlordMember{}).
		Where("landlord_id = ? AND user_id = ?", landlordID, userID).
		Update("role", role)
	return requireAffected(result)
}

// Delete removes the membership and reports how many rows went
func (r *LandlordMemberRepository) Delete(ctx context.Context, tx *gorm.DB, landlordID, userID uuid.UUID) (int64, error) {
	result := conn(r.db, tx).WithContext(ctx).
		Where("landlord_id = ? AND user_id = ?", landlordID, userID).
		Delete(&domain.LandlordMember{})
	return result.RowsAffected, result.Error
}

func (r *LandlordMemberRepository) CountByRole(ctx context.Context, tx *gorm.DB, landlordID uuid.UUID, role domain.Role) (int64, error) {
	var count int64
	err := conn(r.db, tx).WithContext(ctx).Model(&domain.LandlordMember{}).
		Where("landlord_id = ? AND role = ?", landlordID, role).
		Count(&count).Error
	return count, err
}

func (r *LandlordMemberRepository) Count(ctx context.Context, landlordID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.LandlordMember{}).
		Where("landlord_id = ?", landlordID).
		Count(&count).Error
	return count, err
}
