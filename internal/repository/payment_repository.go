package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/miniforvaltaren/api/internal/domain"
	"gorm.io/gorm"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, tx *gorm.DB, payment *domain.Payment) error {
	payment.PaidDate = payment.PaidDate.UTC()
	return conn(r.db, tx).WithContext(ctx).Omit("RentInvoice").Create(payment).Error
}

func (r *PaymentRepository) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]domain.Payment, error) {
	var payments []domain.Payment
	err := r.db.WithContext(ctx).
		Where("rent_invoice_id = ?", invoiceID).
		Order("paid_date ASC").
		Find(&payments).Error
	return payments, err
}

// ListRecent returns the landlord's latest payments with invoice, lease and tenant
func (r *PaymentRepository) ListRecent(ctx context.Context, landlordID uuid.UUID, limit int) ([]domain.Payment, error) {
	var payments []domain.Payment
	err := r.db.WithContext(ctx).
		Joins("JOIN rent_invoices ON rent_invoices.id = payments.rent_invoice_id").
		Where("rent_invoices.landlord_id = ?", landlordID).
		Preload("RentInvoice.Lease.Tenant").
		Order("payments.paid_date DESC").
		Limit(limit).
		Find(&payments).Error
	return payments, err
}
