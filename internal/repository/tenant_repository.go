package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/miniforvaltaren/api/internal/domain"
	"gorm.io/gorm"
)

type TenantRepository struct {
	db *gorm.DB
}

func NewTenantRepository(db *gorm.DB) *TenantRepository {
	return &TenantRepository{db: db}
}

func (r *TenantRepository) Create(ctx context.Context, tx *gorm.DB, tenant *domain.Tenant) error {
	return conn(r.db, tx).WithContext(ctx).Omit("Leases").Create(tenant).Error
}

func (r *TenantRepository) GetByID(ctx context.Context, tx *gorm.DB, landlordID, id uuid.UUID) (*domain.Tenant, error) {
	var tenant domain.Tenant
	err := conn(r.db, tx).WithContext(ctx).
		Scopes(ScopeLandlord(landlordID)).
		First(&tenant, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

// GetWithLeases loads a tenant with leases, their units and properties
func (r *TenantRepository) GetWithLeases(ctx context.Context, landlordID, id uuid.UUID) (*domain.Tenant, error) {
	var tenant domain.Tenant
	err := r.db.WithContext(ctx).
		Preload("Leases", func(db *gorm.DB) *gorm.DB { return db.Order("leases.start_date DESC") }).
		Preload("Leases.Unit.Property").
		Scopes(ScopeLandlord(landlordID)).
		First(&tenant, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

// List returns tenants ordered by name, capped at TenantListCap
func (r *TenantRepository) List(ctx context.Context, landlordID uuid.UUID) ([]domain.Tenant, error) {
	var tenants []domain.Tenant
	err := r.db.WithContext(ctx).
		Scopes(ScopeLandlord(landlordID)).
		Order("name ASC").
		Limit(TenantListCap).
		Find(&tenants).Error
	return tenants, err
}

func (r *TenantRepository) Update(ctx context.Context, tenant *domain.Tenant) error {
	result := r.db.WithContext(ctx).Model(&domain.Tenant{}).
		Scopes(ScopeLandlord(tenant.LandlordID)).
		Where("id = ?", tenant.ID).
		Updates(map[string]interface{}{
			"name":  tenant.Name,
			"email": tenant.Email,
			"phone": tenant.Phone,
		})
	return requireAffected(result)
}

// Delete removes the tenant after its payments, invoices and leases.
// Tickets keep their history with the tenant reference cleared.
func (r *TenantRepository) Delete(ctx context.Context, tx *gorm.DB, landlordID, id uuid.UUID) error {
	db := conn(r.db, tx).WithContext(ctx)

	var leaseIDs []uuid.UUID
	if err := db.Model(&domain.Lease{}).
		Scopes(ScopeLandlord(landlordID)).
		Where("tenant_id = ?", id).
		Pluck("id", &leaseIDs).Error; err != nil {
		return err
	}
	if err := deleteLeases(db, leaseIDs); err != nil {
		return err
	}
	if err := db.Model(&domain.Ticket{}).
		Scopes(ScopeLandlord(landlordID)).
		Where("tenant_id = ?", id).
		Update("tenant_id", nil).Error; err != nil {
		return err
	}
	result := db.Scopes(ScopeLandlord(landlordID)).Where("id = ?", id).Delete(&domain.Tenant{})
	return requireAffected(result)
}

func (r *TenantRepository) Count(ctx context.Context, landlordID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Tenant{}).Scopes(ScopeLandlord(landlordID)).Count(&count).Error
	return count, err
}
