package testutil

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/miniforvaltaren/api/internal/database"
	"github.com/miniforvaltaren/api/internal/domain"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewTestDB opens an isolated in-memory sqlite database with the full schema.
// Each call gets its own named database, so tests never share rows.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := database.Open(sqlite.Open(dsn), zap.NewNop())
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.AutoMigrate(db))

	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// Stockholm returns the reference location
func Stockholm(t *testing.T) *time.Location {
	t.Helper()
	loc, err := domain.LoadLocation(domain.DefaultTimezone)
	require.NoError(t, err)
	return loc
}

// CreateUser inserts a user with the given email
func CreateUser(t *testing.T, db *gorm.DB, email string) *domain.User {
	t.Helper()
	name := strings.Split(email, "@")[0]
	user := &domain.User{ID: uuid.New(), Email: email, Name: name}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateLandlord inserts a landlord owned by owner, with owner as OWNER member
func CreateLandlord(t *testing.T, db *gorm.DB, owner *domain.User, plan domain.Plan) *domain.Landlord {
	t.Helper()
	landlord := &domain.Landlord{UserID: owner.ID, OrgName: owner.Name + " Fastigheter", Plan: plan}
	require.NoError(t, db.Create(landlord).Error)
	AddMember(t, db, landlord, owner, domain.RoleOwner)
	return landlord
}

// AddMember grants user a role in landlord
func AddMember(t *testing.T, db *gorm.DB, landlord *domain.Landlord, user *domain.User, role domain.Role) *domain.LandlordMember {
	t.Helper()
	member := &domain.LandlordMember{LandlordID: landlord.ID, UserID: user.ID, Role: role}
	require.NoError(t, db.Create(member).Error)
	return member
}

// CreateProperty inserts a property with a random intake token
func CreateProperty(t *testing.T, db *gorm.DB, landlord *domain.Landlord, name string) *domain.Property {
	t.Helper()
	property := &domain.Property{
		LandlordID:  landlord.ID,
		Name:        name,
		Address:     name + ", 111 22 Stockholm",
		IntakeToken: strings.ReplaceAll(uuid.NewString(), "-", ""),
	}
	require.NoError(t, db.Create(property).Error)
	return property
}

// CreateUnit inserts a unit in property
func CreateUnit(t *testing.T, db *gorm.DB, property *domain.Property, label string) *domain.Unit {
	t.Helper()
	unit := &domain.Unit{PropertyID: property.ID, Label: label}
	require.NoError(t, db.Create(unit).Error)
	return unit
}

// CreateTenant inserts a tenant without contact details
func CreateTenant(t *testing.T, db *gorm.DB, landlord *domain.Landlord, name string) *domain.Tenant {
	t.Helper()
	tenant := &domain.Tenant{LandlordID: landlord.ID, Name: name}
	require.NoError(t, db.Create(tenant).Error)
	return tenant
}

// CreateLease inserts an open-ended lease starting at start
func CreateLease(t *testing.T, db *gorm.DB, landlord *domain.Landlord, unit *domain.Unit, tenant *domain.Tenant, rent int64, dueDay int, start time.Time) *domain.Lease {
	t.Helper()
	lease := &domain.Lease{
		LandlordID: landlord.ID,
		UnitID:     unit.ID,
		TenantID:   tenant.ID,
		RentAmount: rent,
		DueDay:     dueDay,
		StartDate:  start.UTC(),
	}
	require.NoError(t, db.Create(lease).Error)
	return lease
}

// CreateInvoice inserts a PENDING invoice for lease due at dueDate
func CreateInvoice(t *testing.T, db *gorm.DB, lease *domain.Lease, amount int64, dueDate time.Time, loc *time.Location) *domain.RentInvoice {
	t.Helper()
	year, month := domain.PeriodOf(dueDate, loc)
	invoice := &domain.RentInvoice{
		LandlordID:  lease.LandlordID,
		LeaseID:     lease.ID,
		Amount:      amount,
		DueDate:     dueDate.UTC(),
		Status:      domain.InvoiceStatusPending,
		PeriodYear:  year,
		PeriodMonth: month,
	}
	require.NoError(t, db.Create(invoice).Error)
	return invoice
}

// CreateTicket inserts an OPEN ticket on property
func CreateTicket(t *testing.T, db *gorm.DB, property *domain.Property, title string) *domain.Ticket {
	t.Helper()
	ticket := &domain.Ticket{
		LandlordID: property.LandlordID,
		PropertyID: property.ID,
		Title:      title,
		Status:     domain.TicketStatusOpen,
	}
	require.NoError(t, db.Create(ticket).Error)
	return ticket
}
