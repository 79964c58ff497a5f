package domain

import (
	"time"

	"github.com/google/uuid"
)

// DateLayout is the wire format for calendar dates
const DateLayout = "2006-01-02"

// ============================================================================
// Requests
// ============================================================================

type UpdateProfileRequest struct {
	OrgName string `json:"orgName" validate:"required,min=2,max=200"`
}

type CreatePropertyRequest struct {
	Name    string `json:"name" validate:"required,min=2,max=200"`
	Address string `json:"address" validate:"required,min=5,max=500"`
}

type UpdatePropertyRequest struct {
	Name    string `json:"name" validate:"required,min=2,max=200"`
	Address string `json:"address" validate:"required,min=5,max=500"`
}

type CreateUnitRequest struct {
	PropertyID uuid.UUID `json:"propertyId" validate:"required"`
	Label      string    `json:"label" validate:"required,min=1,max=100"`
}

// BulkCreateUnitsRequest carries newline-separated unit labels
type BulkCreateUnitsRequest struct {
	PropertyID uuid.UUID `json:"propertyId" validate:"required"`
	Labels     string    `json:"labels" validate:"required"`
}

type CreateTenantRequest struct {
	Name  string  `json:"name" validate:"required,min=2,max=200"`
	Email *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone *string `json:"phone,omitempty" validate:"omitempty,min=6,max=50"`
}

type UpdateTenantRequest struct {
	Name  string  `json:"name" validate:"required,min=2,max=200"`
	Email *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone *string `json:"phone,omitempty" validate:"omitempty,min=6,max=50"`
}

// CreateLeaseRequest takes rent in kronor; it is stored in öre
type CreateLeaseRequest struct {
	UnitID       uuid.UUID `json:"unitId" validate:"required"`
	TenantID     uuid.UUID `json:"tenantId" validate:"required"`
	RentAmountKr string    `json:"rentAmountKr" validate:"required"`
	DueDay       int       `json:"dueDay" validate:"required,gte=1,lte=28"`
	StartDate    string    `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate      *string   `json:"endDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

type UpdateLeaseRequest struct {
	UnitID       uuid.UUID `json:"unitId" validate:"required"`
	RentAmountKr string    `json:"rentAmountKr" validate:"required"`
	DueDay       int       `json:"dueDay" validate:"required,gte=1,lte=28"`
	StartDate    string    `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate      *string   `json:"endDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// CreateInvoiceRequest takes the amount in öre
type CreateInvoiceRequest struct {
	LeaseID uuid.UUID `json:"leaseId" validate:"required"`
	Amount  int64     `json:"amount" validate:"required,gt=0"`
	DueDate string    `json:"dueDate" validate:"required,datetime=2006-01-02"`
}

type CreateTicketRequest struct {
	PropertyID  uuid.UUID  `json:"propertyId" validate:"required"`
	UnitID      *uuid.UUID `json:"unitId,omitempty"`
	TenantID    *uuid.UUID `json:"tenantId,omitempty"`
	Title       string     `json:"title" validate:"required,min=3,max=200"`
	Description string     `json:"description" validate:"max=5000"`
}

type UpdateTicketRequest struct {
	Title       string     `json:"title" validate:"required,min=3,max=200"`
	Description string     `json:"description" validate:"max=5000"`
	UnitID      *uuid.UUID `json:"unitId,omitempty"`
	TenantID    *uuid.UUID `json:"tenantId,omitempty"`
}

type UpdateTicketStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// PublicTicketRequest is the anonymous intake form
type PublicTicketRequest struct {
	UnitID      *uuid.UUID `validate:"-"`
	Title       string     `validate:"required,min=3,max=200"`
	Description string     `validate:"required,min=5,max=5000"`
	Name        string     `validate:"max=200"`
	Email       string     `validate:"omitempty,email"`
	Phone       string     `validate:"max=50"`
}

type AddMemberRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required"`
}

type UpdateMemberRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

type CreateOrganizationRequest struct {
	Name string `json:"name" validate:"omitempty,min=2,max=200"`
}

// FirstTenantLeaseRequest creates a tenant and its first lease together
type FirstTenantLeaseRequest struct {
	TenantName   string    `json:"tenantName" validate:"required,min=2,max=200"`
	TenantEmail  *string   `json:"tenantEmail,omitempty" validate:"omitempty,email"`
	TenantPhone  *string   `json:"tenantPhone,omitempty" validate:"omitempty,min=6,max=50"`
	UnitID       uuid.UUID `json:"unitId" validate:"required"`
	RentAmountKr string    `json:"rentAmountKr" validate:"required"`
	DueDay       int       `json:"dueDay" validate:"required,gte=1,lte=28"`
	StartDate    string    `json:"startDate" validate:"required,datetime=2006-01-02"`
}

// ============================================================================
// Responses
// ============================================================================

type UserDTO struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  string    `json:"name"`
}

type LandlordDTO struct {
	ID      uuid.UUID `json:"id"`
	OrgName string    `json:"orgName"`
	Plan    Plan      `json:"plan"`
}

type MeDTO struct {
	User               UserDTO      `json:"user"`
	Landlord           *LandlordDTO `json:"landlord"`
	Role               *Role        `json:"role,omitempty"`
	Permissions        []Permission `json:"permissions,omitempty"`
	OnboardingRequired bool         `json:"onboardingRequired"`
}

type MemberDTO struct {
	UserID    uuid.UUID `json:"userId"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

type OrganizationDTO struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	CreatedAt time.Time       `json:"createdAt"`
	Members   []MembershipDTO `json:"members,omitempty"`
}

type MembershipDTO struct {
	UserID uuid.UUID `json:"userId"`
	Email  string    `json:"email"`
	Name   string    `json:"name"`
	Role   OrgRole   `json:"role"`
}

type PropertyDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	IntakeURL string    `json:"intakeUrl"`
	UnitCount int       `json:"unitCount"`
	CreatedAt time.Time `json:"createdAt"`
}

type PropertyDetailDTO struct {
	PropertyDTO
	Units  []UnitDTO  `json:"units"`
	Leases []LeaseDTO `json:"leases"`
}

type UnitDTO struct {
	ID           uuid.UUID `json:"id"`
	PropertyID   uuid.UUID `json:"propertyId"`
	PropertyName string    `json:"propertyName,omitempty"`
	Label        string    `json:"label"`
	ActiveLease  *LeaseDTO `json:"activeLease,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

type BulkUnitsResultDTO struct {
	Created []UnitDTO `json:"created"`
	Skipped []string  `json:"skipped"`
}

type TenantDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     *string   `json:"email,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type TenantDetailDTO struct {
	TenantDTO
	Leases []LeaseDTO `json:"leases"`
}

type LeaseDTO struct {
	ID           uuid.UUID  `json:"id"`
	UnitID       uuid.UUID  `json:"unitId"`
	UnitLabel    string     `json:"unitLabel,omitempty"`
	PropertyID   *uuid.UUID `json:"propertyId,omitempty"`
	PropertyName string     `json:"propertyName,omitempty"`
	TenantID     uuid.UUID  `json:"tenantId"`
	TenantName   string     `json:"tenantName,omitempty"`
	RentAmount   int64      `json:"rentAmount"`
	RentAmountKr string     `json:"rentAmountKr"`
	DueDay       int        `json:"dueDay"`
	StartDate    string     `json:"startDate"`
	EndDate      *string    `json:"endDate,omitempty"`
	Active       bool       `json:"active"`
}

type LeaseDetailDTO struct {
	LeaseDTO
	Invoices []InvoiceDTO `json:"invoices"`
}

type PaymentDTO struct {
	ID        uuid.UUID `json:"id"`
	InvoiceID uuid.UUID `json:"invoiceId"`
	Amount    int64     `json:"amount"`
	AmountKr  string    `json:"amountKr"`
	PaidDate  time.Time `json:"paidDate"`
}

type InvoiceDTO struct {
	ID          uuid.UUID     `json:"id"`
	LeaseID     uuid.UUID     `json:"leaseId"`
	TenantName  string        `json:"tenantName,omitempty"`
	UnitLabel   string        `json:"unitLabel,omitempty"`
	Amount      int64         `json:"amount"`
	AmountKr    string        `json:"amountKr"`
	DueDate     string        `json:"dueDate"`
	Status      InvoiceStatus `json:"status"`
	PeriodYear  int           `json:"periodYear"`
	PeriodMonth int           `json:"periodMonth"`
	PaidAt      *time.Time    `json:"paidAt,omitempty"`
	Payments    []PaymentDTO  `json:"payments,omitempty"`
}

type TicketDTO struct {
	ID           uuid.UUID    `json:"id"`
	PropertyID   uuid.UUID    `json:"propertyId"`
	PropertyName string       `json:"propertyName,omitempty"`
	UnitID       *uuid.UUID   `json:"unitId,omitempty"`
	UnitLabel    string       `json:"unitLabel,omitempty"`
	TenantID     *uuid.UUID   `json:"tenantId,omitempty"`
	TenantName   string       `json:"tenantName,omitempty"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Status       TicketStatus `json:"status"`
	CreatedAt    time.Time    `json:"createdAt"`
	ClosedAt     *time.Time   `json:"closedAt,omitempty"`
}

type DashboardCountsDTO struct {
	Properties    int64 `json:"properties"`
	Units         int64 `json:"units"`
	Tenants       int64 `json:"tenants"`
	ActiveLeases  int64 `json:"activeLeases"`
	OpenTickets   int64 `json:"openTickets"`
	Overdue       int64 `json:"overdue"`
	DueThisMonth  int64 `json:"dueThisMonth"`
	PaidThisMonth int64 `json:"paidThisMonth"`
}

type DashboardDTO struct {
	GeneratedAt    time.Time          `json:"generatedAt"`
	MonthStart     time.Time          `json:"monthStart"`
	MonthEnd       time.Time          `json:"monthEnd"`
	Counts         DashboardCountsDTO `json:"counts"`
	UpcomingDue    []InvoiceDTO       `json:"upcomingDue"`
	RecentPayments []PaymentDTO       `json:"recentPayments"`
}

type QuotaDTO struct {
	Used      int64 `json:"used"`
	Limit     int   `json:"limit"`
	Remaining int64 `json:"remaining"`
}

type UsageDTO struct {
	Plan       Plan     `json:"plan"`
	Properties QuotaDTO `json:"properties"`
	Units      QuotaDTO `json:"units"`
	Agents     QuotaDTO `json:"agents"`
}

type SubscriptionDTO struct {
	Plan             Plan       `json:"plan"`
	Status           string     `json:"status"`
	CurrentPeriodEnd *time.Time `json:"currentPeriodEnd,omitempty"`
	Managed          bool       `json:"managed"`
}

// IntakeFormDTO is what the public report form needs to render
type IntakeFormDTO struct {
	PropertyName string          `json:"propertyName"`
	Units        []IntakeUnitDTO `json:"units"`
}

type IntakeUnitDTO struct {
	ID    uuid.UUID `json:"id"`
	Label string    `json:"label"`
}

// PaginatedResponse wraps list results
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	TotalPages int         `json:"totalPages"`
}

// ListResponse wraps capped, unpaginated lists
type ListResponse struct {
	Data  interface{} `json:"data"`
	Count int         `json:"count"`
}
