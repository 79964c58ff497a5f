package repository

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaxPageSize is the maximum allowed page size for paginated queries
const MaxPageSize = 200

// List caps for unpaginated listings
const (
	TenantListCap  = 200
	LeaseListCap   = 50
	InvoiceListCap = 100
	TicketListCap  = 100
)

// ScopeLandlord filters a query on the landlord_id column of its model
func ScopeLandlord(landlordID uuid.UUID) func(*gorm.DB) *gorm.DB {
	return ScopeLandlordColumn("landlord_id", landlordID)
}

// ScopeLandlordColumn filters on a qualified landlord column, for joined queries
func ScopeLandlordColumn(column string, landlordID uuid.UUID) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(column+" = ?", landlordID)
	}
}

// ScopeUnitsOfLandlord restricts units to properties owned by landlordID
func ScopeUnitsOfLandlord(landlordID uuid.UUID) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Joins("JOIN properties ON properties.id = units.property_id").
			Where("properties.landlord_id = ?", landlordID)
	}
}

// NormalizePage clamps page to >= 1 and pageSize to 1..MaxPageSize
func NormalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

// likePattern builds a lower-case LIKE pattern with wildcards escaped
func likePattern(q string) string {
	escaped := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(strings.ToLower(strings.TrimSpace(q)))
	return "%" + escaped + "%"
}

// conn returns tx when the caller is inside a transaction, else the root handle
func conn(db, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return db
}

// requireAffected turns a zero-row update into gorm.ErrRecordNotFound
func requireAffected(result *gorm.DB) error {
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
