package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/miniforvaltaren/api/internal/domain"
	"gorm.io/gorm"
)

type PropertyRepository struct {
	db *gorm.DB
}

func NewPropertyRepository(db *gorm.DB) *PropertyRepository {
	return &PropertyRepository{db: db}
}

func (r *PropertyRepository) Create(ctx context.Context, property *domain.Property) error {
	return r.db.WithContext(ctx).Create(property).Error
}

func (r *PropertyRepository) GetByID(ctx context.Context, landlordID, id uuid.UUID) (*domain.Property, error) {
	var property domain.Property
	err := r.db.WithContext(ctx).
		Scopes(ScopeLandlord(landlordID)).
		First(&property, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &property, nil
}

// GetWithUnits loads a scoped property with its units ordered by label
func (r *PropertyRepository) GetWithUnits(ctx context.Context, landlordID, id uuid.UUID) (*domain.Property, error) {
	var property domain.Property
	err := r.db.WithContext(ctx).
		Preload("Units", func(db *gorm.DB) *gorm.DB { return db.Order("units.label ASC") }).
		Scopes(ScopeLandlord(landlordID)).
		First(&property, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &property, nil
}

// GetByIntakeToken resolves the public report link; not landlord scoped
func (r *PropertyRepository) GetByIntakeToken(ctx context.Context, token string) (*domain.Property, error) {
	var property domain.Property
	err := r.db.WithContext(ctx).
		Preload("Units", func(db *gorm.DB) *gorm.DB { return db.Order("units.label ASC") }).
		First(&property, "intake_token = ?", token).Error
	if err != nil {
		return nil, err
	}
	return &property, nil
}

// List returns a page of properties, newest first
func (r *PropertyRepository) List(ctx context.Context, landlordID uuid.UUID, page, pageSize int) ([]domain.Property, int64, error) {
	var properties []domain.Property
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Property{}).Scopes(ScopeLandlord(landlordID))
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, pageSize = NormalizePage(page, pageSize)
	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Order("created_at DESC").Find(&properties).Error
	return properties, total, err
}

// Update writes name and address; the intake token is never touched
func (r *PropertyRepository) Update(ctx context.Context, landlordID, id uuid.UUID, name, address string) error {
	result := r.db.WithContext(ctx).Model(&domain.Property{}).
		Scopes(ScopeLandlord(landlordID)).
		Where("id = ?", id).
		Updates(map[string]interface{}{"name": name, "address": address})
	return requireAffected(result)
}

// Delete removes the property and everything hanging off it, children first
func (r *PropertyRepository) Delete(ctx context.Context, tx *gorm.DB, landlordID, id uuid.UUID) error {
	db := conn(r.db, tx).WithContext(ctx)

	var unitIDs []uuid.UUID
	if err := db.Model(&domain.Unit{}).Where("property_id = ?", id).Pluck("id", &unitIDs).Error; err != nil {
		return err
	}
	var leaseIDs []uuid.UUID
	if len(unitIDs) > 0 {
		if err := db.Model(&domain.Lease{}).Where("unit_id IN ?", unitIDs).Pluck("id", &leaseIDs).Error; err != nil {
			return err
		}
	}
	if err := deleteLeases(db, leaseIDs); err != nil {
		return err
	}
	if err := db.Where("property_id = ?", id).Delete(&domain.Ticket{}).Error; err != nil {
		return err
	}
	if err := db.Where("property_id = ?", id).Delete(&domain.Unit{}).Error; err != nil {
		return err
	}
	result := db.Scopes(ScopeLandlord(landlordID)).Where("id = ?", id).Delete(&domain.Property{})
	return requireAffected(result)
}

func (r *PropertyRepository) Count(ctx context.Context, landlordID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Property{}).Scopes(ScopeLandlord(landlordID)).Count(&count).Error
	return count, err
}

// deleteLeases removes leases with their invoices and payments, in that order
func deleteLeases(db *gorm.DB, leaseIDs []uuid.UUID) error {
	if len(leaseIDs) == 0 {
		return nil
	}
	var invoiceIDs []uuid.UUID
	if err := db.Model(&domain.RentInvoice{}).Where("lease_id IN ?", leaseIDs).Pluck("id", &invoiceIDs).Error; err != nil {
		return err
	}
	if len(invoiceIDs) > 0 {
		if err := db.Where("rent_invoice_id IN ?", invoiceIDs).Delete(&domain.Payment{}).Error; err != nil {
			return err
		}
		if err := db.Where("id IN ?", invoiceIDs).Delete(&domain.RentInvoice{}).Error; err != nil {
			return err
		}
	}
	return db.Where("id IN ?", leaseIDs).Delete(&domain.Lease{}).Error
}
