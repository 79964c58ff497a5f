package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/miniforvaltaren/api/internal/auth"
	"github.com/miniforvaltaren/api/internal/config"
	"github.com/miniforvaltaren/api/internal/domain"
	"github.com/miniforvaltaren/api/internal/http/handler"
	"github.com/miniforvaltaren/api/internal/metrics"
	"github.com/miniforvaltaren/api/internal/repository"
	"github.com/miniforvaltaren/api/internal/service"
	"github.com/miniforvaltaren/api/internal/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// testEnv serves the handlers over a chi mux backed by an in-memory database.
// Requests carry the acting user directly in their context.
type testEnv struct {
	db  *gorm.DB
	loc *time.Location
	mux chi.Router
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.NewTestDB(t)
	loc := testutil.Stockholm(t)
	logger := zap.NewNop()
	m := metrics.NewForTest()

	landlordRepo := repository.NewLandlordRepository(db)
	memberRepo := repository.NewLandlordMemberRepository(db)
	userRepo := repository.NewUserRepository(db)
	propertyRepo := repository.NewPropertyRepository(db)
	unitRepo := repository.NewUnitRepository(db)
	tenantRepo := repository.NewTenantRepository(db)
	leaseRepo := repository.NewLeaseRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	ticketRepo := repository.NewTicketRepository(db)

	landlords := service.NewLandlordService(db, landlordRepo, memberRepo, propertyRepo, logger)
	quota := service.NewQuotaService(propertyRepo, unitRepo, memberRepo, logger)
	members := service.NewMemberService(db, landlords, quota, landlordRepo, memberRepo, userRepo, logger)
	properties := service.NewPropertyService(db, landlords, quota, propertyRepo, unitRepo, leaseRepo, "https://app.example.se", loc, logger)
	units := service.NewUnitService(db, landlords, quota, propertyRepo, unitRepo, loc, logger)
	tenants := service.NewTenantService(db, landlords, tenantRepo, loc, logger)
	leases := service.NewLeaseService(landlords, leaseRepo, unitRepo, tenantRepo, loc, logger)
	invoices := service.NewInvoiceService(db, landlords, invoiceRepo, paymentRepo, leaseRepo, m, loc, logger)
	tickets := service.NewTicketService(landlords, ticketRepo, propertyRepo, unitRepo, tenantRepo, logger)
	intake := service.NewIntakeService(propertyRepo, leaseRepo, ticketRepo, m, logger)
	billingService := service.NewBillingService(landlords, quota, landlordRepo, nil, &config.BillingConfig{}, logger)
	qrService := service.NewQRService(properties, nil, logger)

	authHandler := handler.NewAuthHandler(landlords, billingService, logger)
	propertyHandler := handler.NewPropertyHandler(properties, qrService, logger)
	unitHandler := handler.NewUnitHandler(units, logger)
	tenantHandler := handler.NewTenantHandler(tenants, logger)
	leaseHandler := handler.NewLeaseHandler(leases, logger)
	invoiceHandler := handler.NewInvoiceHandler(invoices, logger)
	ticketHandler := handler.NewTicketHandler(tickets, logger)
	memberHandler := handler.NewMemberHandler(members, logger)
	billingHandler := handler.NewBillingHandler(billingService, logger)
	reportHandler := handler.NewReportHandler(intake, logger)

	r := chi.NewRouter()
	r.Get("/report/sent", reportHandler.Sent)
	r.Get("/report/invalid", reportHandler.Invalid)
	r.Get("/report/{token}", reportHandler.Form)
	r.Post("/report/{token}", reportHandler.Submit)

	r.Get("/me", authHandler.Me)
	r.Get("/usage", authHandler.Usage)
	r.Get("/properties", propertyHandler.List)
	r.Post("/properties", propertyHandler.Create)
	r.Get("/properties/{id}", propertyHandler.Get)
	r.Delete("/properties/{id}", propertyHandler.Delete)
	r.Get("/properties/{id}/qr", propertyHandler.QR)
	r.Post("/units", unitHandler.Create)
	r.Post("/units/bulk", unitHandler.BulkCreate)
	r.Post("/tenants", tenantHandler.Create)
	r.Post("/leases", leaseHandler.Create)
	r.Get("/invoices", invoiceHandler.List)
	r.Post("/invoices", invoiceHandler.Create)
	r.Post("/invoices/{id}/mark-paid", invoiceHandler.MarkPaid)
	r.Post("/tickets", ticketHandler.Create)
	r.Put("/tickets/{id}/status", ticketHandler.UpdateStatus)
	r.Delete("/members/{userId}", memberHandler.Remove)
	r.Post("/billing/checkout", billingHandler.Checkout)
	r.Get("/billing/subscription", billingHandler.Subscription)

	return &testEnv{db: db, loc: loc, mux: r}
}

// do sends a JSON request as user. A nil user sends it anonymously.
func (e *testEnv) do(t *testing.T, user *domain.User, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if user != nil {
		req = req.WithContext(asUser(req.Context(), user))
	}

	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

// postForm submits an urlencoded form anonymously
func (e *testEnv) postForm(t *testing.T, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

func asUser(ctx context.Context, user *domain.User) context.Context {
	ctx = auth.WithUserContext(ctx, &auth.UserContext{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
	})
	return auth.WithViewerCache(ctx)
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) domain.APIError {
	t.Helper()
	require.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	var problem domain.APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	return problem
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// fixture is a landlord with one let unit
type fixture struct {
	owner    *domain.User
	landlord *domain.Landlord
	property *domain.Property
	unit     *domain.Unit
	tenant   *domain.Tenant
	lease    *domain.Lease
}

func newFixture(t *testing.T, e *testEnv, email string, plan domain.Plan) *fixture {
	t.Helper()
	owner := testutil.CreateUser(t, e.db, email)
	landlord := testutil.CreateLandlord(t, e.db, owner, plan)
	property := testutil.CreateProperty(t, e.db, landlord, "Storgatan 1")
	unit := testutil.CreateUnit(t, e.db, property, "1001")
	tenant := testutil.CreateTenant(t, e.db, landlord, "Sven Svensson")
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, e.loc)
	lease := testutil.CreateLease(t, e.db, landlord, unit, tenant, 950000, 25, start)
	return &fixture{owner: owner, landlord: landlord, property: property, unit: unit, tenant: tenant, lease: lease}
}
