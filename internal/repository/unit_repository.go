package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/miniforvaltaren/api/internal/domain"
	"gorm.io/gorm"
)

// UnitFilter narrows a unit listing
type UnitFilter struct {
	PropertyID *uuid.UUID
	// Query matches labels case-insensitively
	Query string
}

type UnitRepository struct {
	db *gorm.DB
}

func NewUnitRepository(db *gorm.DB) *UnitRepository {
	return &UnitRepository{db: db}
}

func (r *UnitRepository) Create(ctx context.Context, tx *gorm.DB, unit *domain.Unit) error {
	return conn(r.db, tx).WithContext(ctx).Omit("Property", "Leases").Create(unit).Error
}

// GetByID returns a unit whose property belongs to landlordID
func (r *UnitRepository) GetByID(ctx context.Context, tx *gorm.DB, landlordID, id uuid.UUID) (*domain.Unit, error) {
	var unit domain.Unit
	err := conn(r.db, tx).WithContext(ctx).
		Scopes(ScopeUnitsOfLandlord(landlordID)).
		Preload("Property").
		First(&unit, "units.id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &unit, nil
}

// ListLabels returns the labels already used in a property
func (r *UnitRepository) ListLabels(ctx context.Context, tx *gorm.DB, propertyID uuid.UUID) ([]string, error) {
	var labels []string
	err := conn(r.db, tx).WithContext(ctx).Model(&domain.Unit{}).
		Where("property_id = ?", propertyID).
		Pluck("label", &labels).Error
	return labels, err
}

// LabelExists checks for a case-insensitive label clash within a property
func (r *UnitRepository) LabelExists(ctx context.Context, propertyID uuid.UUID, label string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Unit{}).
		Where("property_id = ? AND LOWER(label) = LOWER(?)", propertyID, label).
		Count(&count).Error
	return count > 0, err
}

// List returns units with their property and leases (with tenants) for active-lease lookup
func (r *UnitRepository) List(ctx context.Context, landlordID uuid.UUID, filter UnitFilter) ([]domain.Unit, error) {
	var units []domain.Unit
	query := r.db.WithContext(ctx).
		Scopes(ScopeUnitsOfLandlord(landlordID)).
		Preload("Property").
		Preload("Leases", func(db *gorm.DB) *gorm.DB { return db.Order("leases.start_date DESC") }).
		Preload("Leases.Tenant")

	if filter.PropertyID != nil {
		query = query.Where("units.property_id = ?", *filter.PropertyID)
	}
	if filter.Query != "" {
		query = query.Where("LOWER(units.label) LIKE ? ESCAPE '\\'", likePattern(filter.Query))
	}

	err := query.Order("properties.name ASC").Order("units.label ASC").Find(&units).Error
	return units, err
}

// CountByLandlord counts units across all of a landlord's properties
func (r *UnitRepository) CountByLandlord(ctx context.Context, tx *gorm.DB, landlordID uuid.UUID) (int64, error) {
	var count int64
	err := conn(r.db, tx).WithContext(ctx).Model(&domain.Unit{}).
		Scopes(ScopeUnitsOfLandlord(landlordID)).
		Count(&count).Error
	return count, err
}

type propertyUnitCount struct {
	PropertyID uuid.UUID
	Count      int
}

// CountByProperty returns unit counts keyed by property id
func (r *UnitRepository) CountByProperty(ctx context.Context, propertyIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	counts := make(map[uuid.UUID]int, len(propertyIDs))
	if len(propertyIDs) == 0 {
		return counts, nil
	}
	var rows []propertyUnitCount
	err := r.db.WithContext(ctx).Model(&domain.Unit{}).
		Select("property_id, COUNT(*) AS count").
		Where("property_id IN ?", propertyIDs).
		Group("property_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.PropertyID] = row.Count
	}
	return counts, nil
}
