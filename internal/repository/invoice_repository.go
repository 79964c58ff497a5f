package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/miniforvaltaren/api/internal/domain"
	"gorm.io/gorm"
)

// InvoiceFilter narrows an invoice listing
type InvoiceFilter struct {
	Status     *domain.InvoiceStatus
	PropertyID *uuid.UUID
	LeaseID    *uuid.UUID
}

type InvoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

// Create inserts the invoice. A clash on (lease, period) surfaces as gorm.ErrDuplicatedKey.
func (r *InvoiceRepository) Create(ctx context.Context, tx *gorm.DB, invoice *domain.RentInvoice) error {
	invoice.DueDate = invoice.DueDate.UTC()
	return conn(r.db, tx).WithContext(ctx).Omit("Lease", "Payments").Create(invoice).Error
}

// GetByID loads a scoped invoice with lease, tenant, unit and payments
func (r *InvoiceRepository) GetByID(ctx context.Context, tx *gorm.DB, landlordID, id uuid.UUID) (*domain.RentInvoice, error) {
	var invoice domain.RentInvoice
	err := conn(r.db, tx).WithContext(ctx).
		Preload("Lease.Tenant").
		Preload("Lease.Unit.Property").
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("payments.paid_date ASC") }).
		Scopes(ScopeLandlord(landlordID)).
		First(&invoice, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

// List returns invoices latest due first, capped at InvoiceListCap
func (r *InvoiceRepository) List(ctx context.Context, landlordID uuid.UUID, filter InvoiceFilter) ([]domain.RentInvoice, error) {
	var invoices []domain.RentInvoice
	query := r.db.WithContext(ctx).
		Preload("Lease.Tenant").
		Preload("Lease.Unit").
		Scopes(ScopeLandlordColumn("rent_invoices.landlord_id", landlordID))

	if filter.Status != nil {
		query = query.Where("rent_invoices.status = ?", *filter.Status)
	}
	if filter.LeaseID != nil {
		query = query.Where("rent_invoices.lease_id = ?", *filter.LeaseID)
	}
	if filter.PropertyID != nil {
		query = query.
			Joins("JOIN leases ON leases.id = rent_invoices.lease_id").
			Joins("JOIN units ON units.id = leases.unit_id").
			Where("units.property_id = ?", *filter.PropertyID)
	}

	err := query.Order("rent_invoices.due_date DESC").Limit(InvoiceListCap).Find(&invoices).Error
	return invoices, err
}

// MarkPaid flips a not-yet-paid invoice to PAID. It returns gorm.ErrRecordNotFound
// when no row changed, which callers read as "missing or already paid".
func (r *InvoiceRepository) MarkPaid(ctx context.Context, tx *gorm.DB, landlordID, id uuid.UUID, from []domain.InvoiceStatus, paidAt time.Time) error {
	result := conn(r.db, tx).WithContext(ctx).Model(&domain.RentInvoice{}).
		Scopes(ScopeLandlord(landlordID)).
		Where("id = ? AND status IN ?", id, from).
		Updates(map[string]interface{}{
			"status":  domain.InvoiceStatusPaid,
			"paid_at": paidAt.UTC(),
		})
	return requireAffected(result)
}

// MarkOverdue moves invoices in one of the from statuses and due before cutoff
// to OVERDUE, across all landlords
func (r *InvoiceRepository) MarkOverdue(ctx context.Context, from []domain.InvoiceStatus, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&domain.RentInvoice{}).
		Where("status IN ? AND due_date < ?", from, cutoff.UTC()).
		Update("status", domain.InvoiceStatusOverdue)
	return result.RowsAffected, result.Error
}

func (r *InvoiceRepository) CountByStatus(ctx context.Context, landlordID uuid.UUID, status domain.InvoiceStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.RentInvoice{}).
		Scopes(ScopeLandlord(landlordID)).
		Where("status = ?", status).
		Count(&count).Error
	return count, err
}

// CountDueBetween counts PENDING invoices with due_date in [start, end]
func (r *InvoiceRepository) CountDueBetween(ctx context.Context, landlordID uuid.UUID, start, end time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.RentInvoice{}).
		Scopes(ScopeLandlord(landlordID)).
		Where("status = ? AND due_date >= ? AND due_date <= ?", domain.InvoiceStatusPending, start.UTC(), end.UTC()).
		Count(&count).Error
	return count, err
}

// CountPaidBetween counts PAID invoices with paid_at in [start, end]
func (r *InvoiceRepository) CountPaidBetween(ctx context.Context, landlordID uuid.UUID, start, end time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.RentInvoice{}).
		Scopes(ScopeLandlord(landlordID)).
		Where("status = ? AND paid_at >= ? AND paid_at <= ?", domain.InvoiceStatusPaid, start.UTC(), end.UTC()).
		Count(&count).Error
	return count, err
}

// ListUpcoming returns the next PENDING invoices by due date
func (r *InvoiceRepository) ListUpcoming(ctx context.Context, landlordID uuid.UUID, limit int) ([]domain.RentInvoice, error) {
	var invoices []domain.RentInvoice
	err := r.db.WithContext(ctx).
		Preload("Lease.Tenant").
		Preload("Lease.Unit").
		Scopes(ScopeLandlord(landlordID)).
		Where("status = ?", domain.InvoiceStatusPending).
		Order("due_date ASC").
		Limit(limit).
		Find(&invoices).Error
	return invoices, err
}
