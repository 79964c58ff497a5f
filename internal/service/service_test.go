package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/miniforvaltaren/api/internal/auth"
	"github.com/miniforvaltaren/api/internal/billing"
	"github.com/miniforvaltaren/api/internal/config"
	"github.com/miniforvaltaren/api/internal/domain"
	"github.com/miniforvaltaren/api/internal/metrics"
	"github.com/miniforvaltaren/api/internal/repository"
	"github.com/miniforvaltaren/api/internal/service"
	"github.com/miniforvaltaren/api/internal/storage"
	"github.com/miniforvaltaren/api/internal/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testBaseURL = "https://app.example.se"

type testServices struct {
	db      *gorm.DB
	loc     *time.Location
	metrics *metrics.Metrics

	landlords     *service.LandlordService
	quota         *service.QuotaService
	members       *service.MemberService
	organizations *service.OrganizationService
	properties    *service.PropertyService
	units         *service.UnitService
	tenants       *service.TenantService
	leases        *service.LeaseService
	invoices      *service.InvoiceService
	tickets       *service.TicketService
	intake        *service.IntakeService
	dashboard     *service.DashboardService
	billing       *service.BillingService
	qr            *service.QRService
	onboarding    *service.OnboardingService
}

type testOptions struct {
	provider billing.Provider
	store    storage.Storage
	now      func() time.Time
}

func newTestServices(t *testing.T, opts ...func(*testOptions)) *testServices {
	t.Helper()
	var o testOptions
	for _, opt := range opts {
		opt(&o)
	}

	db := testutil.NewTestDB(t)
	loc := testutil.Stockholm(t)
	logger := zap.NewNop()
	m := metrics.NewForTest()

	landlordRepo := repository.NewLandlordRepository(db)
	memberRepo := repository.NewLandlordMemberRepository(db)
	orgRepo := repository.NewOrganizationRepository(db)
	userRepo := repository.NewUserRepository(db)
	propertyRepo := repository.NewPropertyRepository(db)
	unitRepo := repository.NewUnitRepository(db)
	tenantRepo := repository.NewTenantRepository(db)
	leaseRepo := repository.NewLeaseRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	ticketRepo := repository.NewTicketRepository(db)

	s := &testServices{db: db, loc: loc, metrics: m}
	s.landlords = service.NewLandlordService(db, landlordRepo, memberRepo, propertyRepo, logger)
	s.quota = service.NewQuotaService(propertyRepo, unitRepo, memberRepo, logger)
	s.members = service.NewMemberService(db, s.landlords, s.quota, landlordRepo, memberRepo, userRepo, logger)
	s.organizations = service.NewOrganizationService(db, orgRepo, userRepo, logger)
	s.properties = service.NewPropertyService(db, s.landlords, s.quota, propertyRepo, unitRepo, leaseRepo, testBaseURL+"/", loc, logger)
	s.units = service.NewUnitService(db, s.landlords, s.quota, propertyRepo, unitRepo, loc, logger)
	s.tenants = service.NewTenantService(db, s.landlords, tenantRepo, loc, logger)
	s.leases = service.NewLeaseService(s.landlords, leaseRepo, unitRepo, tenantRepo, loc, logger)
	s.invoices = service.NewInvoiceService(db, s.landlords, invoiceRepo, paymentRepo, leaseRepo, m, loc, logger)
	s.tickets = service.NewTicketService(s.landlords, ticketRepo, propertyRepo, unitRepo, tenantRepo, logger)
	s.intake = service.NewIntakeService(propertyRepo, leaseRepo, ticketRepo, m, logger)
	s.dashboard = service.NewDashboardService(s.landlords, propertyRepo, unitRepo, tenantRepo, leaseRepo, invoiceRepo, paymentRepo, ticketRepo, loc, logger)
	s.billing = service.NewBillingService(s.landlords, s.quota, landlordRepo, o.provider, &config.BillingConfig{
		SuccessURL:      testBaseURL + "/settings/billing?success=1",
		CancelURL:       testBaseURL + "/settings/billing",
		PortalReturnURL: testBaseURL + "/settings/billing",
	}, logger)
	s.qr = service.NewQRService(s.properties, o.store, logger)
	s.onboarding = service.NewOnboardingService(db, s.landlords, s.properties, s.units, s.leases, tenantRepo, loc, logger)

	if o.now != nil {
		s.setClock(o.now)
	}
	return s
}

func withProvider(p billing.Provider) func(*testOptions) {
	return func(o *testOptions) { o.provider = p }
}

func withStore(st storage.Storage) func(*testOptions) {
	return func(o *testOptions) { o.store = st }
}

func withNow(now time.Time) func(*testOptions) {
	return func(o *testOptions) { o.now = func() time.Time { return now } }
}

func (s *testServices) setClock(now func() time.Time) {
	s.properties.SetClock(now)
	s.units.SetClock(now)
	s.tenants.SetClock(now)
	s.leases.SetClock(now)
	s.invoices.SetClock(now)
	s.tickets.SetClock(now)
	s.intake.SetClock(now)
	s.dashboard.SetClock(now)
	s.onboarding.SetClock(now)
}

// asUser returns a fresh request context for user, with its own viewer memo
func asUser(user *domain.User) context.Context {
	ctx := auth.WithUserContext(context.Background(), &auth.UserContext{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
	})
	return auth.WithViewerCache(ctx)
}

// landlordFixture is an owner with a landlord on the given plan
type landlordFixture struct {
	owner    *domain.User
	landlord *domain.Landlord
	ctx      context.Context
}

func newLandlord(t *testing.T, db *gorm.DB, email string, plan domain.Plan) *landlordFixture {
	t.Helper()
	owner := testutil.CreateUser(t, db, email)
	landlord := testutil.CreateLandlord(t, db, owner, plan)
	return &landlordFixture{owner: owner, landlord: landlord, ctx: asUser(owner)}
}

func strPtr(s string) *string {
	return &s
}

func requireValidation(t *testing.T, err error, field string) {
	t.Helper()
	var verr *service.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, field, verr.Field)
}
