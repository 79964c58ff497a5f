package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/miniforvaltaren/api/internal/domain"
	"gorm.io/gorm"
)

// LeaseState filters leases by whether they are in force
type LeaseState string

const (
	LeaseStateAny    LeaseState = ""
	LeaseStateActive LeaseState = "active"
	LeaseStateEnded  LeaseState = "ended"
)

// LeaseFilter narrows a lease listing. Now anchors the active/ended split.
type LeaseFilter struct {
	PropertyID *uuid.UUID
	UnitID     *uuid.UUID
	State      LeaseState
	Now        time.Time
}

type LeaseRepository struct {
	db *gorm.DB
}

func NewLeaseRepository(db *gorm.DB) *LeaseRepository {
	return &LeaseRepository{db: db}
}

func (r *LeaseRepository) Create(ctx context.Context, tx *gorm.DB, lease *domain.Lease) error {
	return conn(r.db, tx).WithContext(ctx).Omit("Unit", "Tenant", "Invoices").Create(lease).Error
}

// GetByID loads a scoped lease with unit, property and tenant
func (r *LeaseRepository) GetByID(ctx context.Context, tx *gorm.DB, landlordID, id uuid.UUID) (*domain.Lease, error) {
	var lease domain.Lease
	err := conn(r.db, tx).WithContext(ctx).
		Preload("Unit.Property").
		Preload("Tenant").
		Scopes(ScopeLandlord(landlordID)).
		First(&lease, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &lease, nil
}

// GetWithInvoices also loads the lease's invoices, latest due first
func (r *LeaseRepository) GetWithInvoices(ctx context.Context, landlordID, id uuid.UUID) (*domain.Lease, error) {
	var lease domain.Lease
	err := r.db.WithContext(ctx).
		Preload("Unit.Property").
		Preload("Tenant").
		Preload("Invoices", func(db *gorm.DB) *gorm.DB { return db.Order("rent_invoices.due_date DESC") }).
		Scopes(ScopeLandlord(landlordID)).
		First(&lease, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &lease, nil
}

// List returns leases newest start first, capped at LeaseListCap
func (r *LeaseRepository) List(ctx context.Context, landlordID uuid.UUID, filter LeaseFilter) ([]domain.Lease, error) {
	var leases []domain.Lease
	query := r.db.WithContext(ctx).
		Preload("Unit.Property").
		Preload("Tenant").
		Scopes(ScopeLandlordColumn("leases.landlord_id", landlordID))

	if filter.PropertyID != nil {
		query = query.Joins("JOIN units ON units.id = leases.unit_id").
			Where("units.property_id = ?", *filter.PropertyID)
	}
	if filter.UnitID != nil {
		query = query.Where("leases.unit_id = ?", *filter.UnitID)
	}
	now := filter.Now.UTC()
	switch filter.State {
	case LeaseStateActive:
		query = query.Scopes(activeAt(now))
	case LeaseStateEnded:
		query = query.Where("leases.end_date IS NOT NULL AND leases.end_date <= ?", now)
	}

	err := query.Order("leases.start_date DESC").Limit(LeaseListCap).Find(&leases).Error
	return leases, err
}

// Update writes the mutable lease terms
func (r *LeaseRepository) Update(ctx context.Context, lease *domain.Lease) error {
	result := r.db.WithContext(ctx).Model(&domain.Lease{}).
		Scopes(ScopeLandlord(lease.LandlordID)).
		Where("id = ?", lease.ID).
		Updates(map[string]interface{}{
			"unit_id":     lease.UnitID,
			"rent_amount": lease.RentAmount,
			"due_day":     lease.DueDay,
			"start_date":  lease.StartDate.UTC(),
			"end_date":    utcPtr(lease.EndDate),
		})
	return requireAffected(result)
}

// ListActive returns every lease in force at now across all landlords
func (r *LeaseRepository) ListActive(ctx context.Context, now time.Time) ([]domain.Lease, error) {
	var leases []domain.Lease
	err := r.db.WithContext(ctx).
		Scopes(activeAt(now.UTC())).
		Order("leases.landlord_id, leases.start_date").
		Find(&leases).Error
	return leases, err
}

func (r *LeaseRepository) CountActive(ctx context.Context, landlordID uuid.UUID, now time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Lease{}).
		Scopes(ScopeLandlordColumn("leases.landlord_id", landlordID), activeAt(now.UTC())).
		Count(&count).Error
	return count, err
}

// FindActiveForUnit returns the lease in force on unitID at now
func (r *LeaseRepository) FindActiveForUnit(ctx context.Context, landlordID, unitID uuid.UUID, now time.Time) (*domain.Lease, error) {
	var lease domain.Lease
	err := r.db.WithContext(ctx).
		Scopes(ScopeLandlordColumn("leases.landlord_id", landlordID), activeAt(now.UTC())).
		Where("leases.unit_id = ?", unitID).
		Order("leases.start_date DESC").
		First(&lease).Error
	if err != nil {
		return nil, err
	}
	return &lease, nil
}

func activeAt(now time.Time) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("leases.start_date <= ? AND (leases.end_date IS NULL OR leases.end_date > ?)", now, now)
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
