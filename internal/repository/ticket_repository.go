package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/miniforvaltaren/api/internal/domain"
	"gorm.io/gorm"
)

// TicketFilter narrows a ticket listing
type TicketFilter struct {
	Status     *domain.TicketStatus
	PropertyID *uuid.UUID
	// Query matches title or description case-insensitively
	Query string
}

type TicketRepository struct {
	db *gorm.DB
}

func NewTicketRepository(db *gorm.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

func (r *TicketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	return r.db.WithContext(ctx).Omit("Property", "Unit", "Tenant").Create(ticket).Error
}

func (r *TicketRepository) GetByID(ctx context.Context, landlordID, id uuid.UUID) (*domain.Ticket, error) {
	var ticket domain.Ticket
	err := r.db.WithContext(ctx).
		Preload("Property").
		Preload("Unit").
		Preload("Tenant").
		Scopes(ScopeLandlord(landlordID)).
		First(&ticket, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// List returns tickets newest first, capped at TicketListCap
func (r *TicketRepository) List(ctx context.Context, landlordID uuid.UUID, filter TicketFilter) ([]domain.Ticket, error) {
	var tickets []domain.Ticket
	query := r.db.WithContext(ctx).
		Preload("Property").
		Preload("Unit").
		Preload("Tenant").
		Scopes(ScopeLandlord(landlordID))

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.PropertyID != nil {
		query = query.Where("property_id = ?", *filter.PropertyID)
	}
	if filter.Query != "" {
		pattern := likePattern(filter.Query)
		query = query.Where("(LOWER(title) LIKE ? ESCAPE '\\' OR LOWER(description) LIKE ? ESCAPE '\\')", pattern, pattern)
	}

	err := query.Order("created_at DESC").Limit(TicketListCap).Find(&tickets).Error
	return tickets, err
}

// UpdateDetails writes title, description and the optional unit/tenant references
func (r *TicketRepository) UpdateDetails(ctx context.Context, ticket *domain.Ticket) error {
	result := r.db.WithContext(ctx).Model(&domain.Ticket{}).
		Scopes(ScopeLandlord(ticket.LandlordID)).
		Where("id = ?", ticket.ID).
		Updates(map[string]interface{}{
			"title":       ticket.Title,
			"description": ticket.Description,
			"unit_id":     ticket.UnitID,
			"tenant_id":   ticket.TenantID,
		})
	return requireAffected(result)
}

// UpdateStatus moves a ticket from one status to another. It affects nothing
// when the stored status is no longer from.
func (r *TicketRepository) UpdateStatus(ctx context.Context, landlordID, id uuid.UUID, from, status domain.TicketStatus, closedAt *time.Time) error {
	result := r.db.WithContext(ctx).Model(&domain.Ticket{}).
		Scopes(ScopeLandlord(landlordID)).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":    status,
			"closed_at": utcPtr(closedAt),
		})
	return requireAffected(result)
}

func (r *TicketRepository) Delete(ctx context.Context, landlordID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Scopes(ScopeLandlord(landlordID)).
		Where("id = ?", id).
		Delete(&domain.Ticket{})
	return requireAffected(result)
}

// CountOpen counts OPEN and IN_PROGRESS tickets
func (r *TicketRepository) CountOpen(ctx context.Context, landlordID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Ticket{}).
		Scopes(ScopeLandlord(landlordID)).
		Where("status IN ?", domain.OpenTicketStatuses()).
		Count(&count).Error
	return count, err
}
