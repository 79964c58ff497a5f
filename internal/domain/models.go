package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// BeforeCreate assigns an id when the caller has not set one
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// User mirrors the principal supplied by the authentication provider.
// Rows are upserted by the auth middleware on every authenticated request.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email     string    `gorm:"type:varchar(320);not null;uniqueIndex"`
	Name      string    `gorm:"type:varchar(200)"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// Landlord is the tenant-scope root: one per owning user
type Landlord struct {
	BaseModel
	UserID            uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	OrgName           string    `gorm:"type:varchar(200)"`
	Plan              Plan      `gorm:"type:varchar(20);not null;default:'FREE'"`
	BillingCustomerID *string   `gorm:"type:varchar(100);column:billing_customer_id"`
}

// LandlordMember carries a user's role within a landlord scope
type LandlordMember struct {
	BaseModel
	LandlordID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_landlord_members_scope_user"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_landlord_members_scope_user"`
	Role       Role      `gorm:"type:varchar(20);not null"`
	User       *User     `gorm:"foreignKey:UserID"`
}

// Organization is a collaborative scope separate from the single-owner landlord
type Organization struct {
	BaseModel
	Name        string       `gorm:"type:varchar(200);not null"`
	CreatedByID uuid.UUID    `gorm:"type:uuid;not null"`
	Memberships []Membership `gorm:"foreignKey:OrganizationID"`
}

// Membership carries a user's role within an organization
type Membership struct {
	BaseModel
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_memberships_org_user"`
	UserID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_memberships_org_user"`
	Role           OrgRole   `gorm:"type:varchar(20);not null"`
	User           *User     `gorm:"foreignKey:UserID"`
}

// Property belongs to exactly one landlord
type Property struct {
	BaseModel
	LandlordID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Name        string    `gorm:"type:varchar(200);not null"`
	Address     string    `gorm:"type:varchar(500);not null"`
	IntakeToken string    `gorm:"type:varchar(64);not null;uniqueIndex;<-:create"`
	Units       []Unit    `gorm:"foreignKey:PropertyID"`
}

// Unit belongs to exactly one property
type Unit struct {
	BaseModel
	PropertyID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_units_property_label"`
	Label      string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_units_property_label"`
	Property   *Property `gorm:"foreignKey:PropertyID"`
	Leases     []Lease   `gorm:"foreignKey:UnitID"`
}

// Tenant is an occupant record, distinct from the landlord tenant-scope
type Tenant struct {
	BaseModel
	LandlordID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name       string    `gorm:"type:varchar(200);not null"`
	Email      *string   `gorm:"type:varchar(320)"`
	Phone      *string   `gorm:"type:varchar(50)"`
	Leases     []Lease   `gorm:"foreignKey:TenantID"`
}

// Lease links one tenant to one unit at a fixed monthly rent
type Lease struct {
	BaseModel
	LandlordID uuid.UUID     `gorm:"type:uuid;not null;index"`
	UnitID     uuid.UUID     `gorm:"type:uuid;not null;index"`
	TenantID   uuid.UUID     `gorm:"type:uuid;not null;index"`
	RentAmount int64         `gorm:"not null"`
	DueDay     int           `gorm:"not null"`
	StartDate  time.Time     `gorm:"not null"`
	EndDate    *time.Time
	Unit       *Unit         `gorm:"foreignKey:UnitID"`
	Tenant     *Tenant       `gorm:"foreignKey:TenantID"`
	Invoices   []RentInvoice `gorm:"foreignKey:LeaseID"`
}

// IsActive reports whether the lease is in force at now
func (l *Lease) IsActive(now time.Time) bool {
	if l.StartDate.After(now) {
		return false
	}
	return l.EndDate == nil || l.EndDate.After(now)
}

// RentInvoice bills one lease for one calendar period
type RentInvoice struct {
	BaseModel
	LandlordID  uuid.UUID     `gorm:"type:uuid;not null;index"`
	LeaseID     uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:idx_rent_invoices_lease_period"`
	Amount      int64         `gorm:"not null"`
	DueDate     time.Time     `gorm:"not null;index"`
	Status      InvoiceStatus `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	PeriodYear  int           `gorm:"not null;uniqueIndex:idx_rent_invoices_lease_period"`
	PeriodMonth int           `gorm:"not null;uniqueIndex:idx_rent_invoices_lease_period"`
	PaidAt      *time.Time
	Lease       *Lease        `gorm:"foreignKey:LeaseID"`
	Payments    []Payment     `gorm:"foreignKey:RentInvoiceID"`
}

// Payment records money received against an invoice
type Payment struct {
	BaseModel
	RentInvoiceID uuid.UUID    `gorm:"type:uuid;not null;index"`
	Amount        int64        `gorm:"not null"`
	PaidDate      time.Time    `gorm:"not null"`
	RentInvoice   *RentInvoice `gorm:"foreignKey:RentInvoiceID"`
}

// Ticket is a maintenance request
type Ticket struct {
	BaseModel
	LandlordID  uuid.UUID    `gorm:"type:uuid;not null;index"`
	PropertyID  uuid.UUID    `gorm:"type:uuid;not null;index"`
	UnitID      *uuid.UUID   `gorm:"type:uuid"`
	TenantID    *uuid.UUID   `gorm:"type:uuid"`
	Title       string       `gorm:"type:varchar(200);not null"`
	Description string       `gorm:"type:text"`
	Status      TicketStatus `gorm:"type:varchar(20);not null;default:'OPEN';index"`
	ClosedAt    *time.Time
	Property    *Property    `gorm:"foreignKey:PropertyID"`
	Unit        *Unit        `gorm:"foreignKey:UnitID"`
	Tenant      *Tenant      `gorm:"foreignKey:TenantID"`
}

// AllModels lists every persisted model in dependency order
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Landlord{},
		&LandlordMember{},
		&Organization{},
		&Membership{},
		&Property{},
		&Unit{},
		&Tenant{},
		&Lease{},
		&RentInvoice{},
		&Payment{},
		&Ticket{},
	}
}
