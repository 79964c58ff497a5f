package service_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/miniforvaltaren/api/internal/domain"
	"github.com/miniforvaltaren/api/internal/service"
	"github.com/miniforvaltaren/api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rentalFixture is Storgatan 12 with unit A-101 leased to Anna
type rentalFixture struct {
	*landlordFixture
	property *domain.Property
	unit     *domain.Unit
	tenant   *domain.Tenant
	lease    *domain.LeaseDTO
}

func newRental(t *testing.T, s *testServices) *rentalFixture {
	t.Helper()
	fx := newLandlord(t, s.db, "agare@example.se", domain.PlanBasic)
	property := testutil.CreateProperty(t, s.db, fx.landlord, "Storgatan 12")
	unit := testutil.CreateUnit(t, s.db, property, "A-101")
	tenant := testutil.CreateTenant(t, s.db, fx.landlord, "Anna")

	lease, err := s.leases.Create(fx.ctx, &domain.CreateLeaseRequest{
		UnitID:       unit.ID,
		TenantID:     tenant.ID,
		RentAmountKr: "8500",
		DueDay:       1,
		StartDate:    "2024-01-01",
	})
	require.NoError(t, err)
	return &rentalFixture{landlordFixture: fx, property: property, unit: unit, tenant: tenant, lease: lease}
}

func TestInvoiceService_CreateAndMarkPaid(t *testing.T) {
	now := time.Date(2024, 3, 10, 14, 30, 0, 0, time.UTC)
	s := newTestServices(t, withNow(now))
	fx := newRental(t, s)
	assert.Equal(t, int64(850000), fx.lease.RentAmount)

	invoice, err := s.invoices.Create(fx.ctx, &domain.CreateInvoiceRequest{
		LeaseID: fx.lease.ID,
		Amount:  850000,
		DueDate: "2024-03-01",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusPending, invoice.Status)
	assert.Equal(t, 2024, invoice.PeriodYear)
	assert.Equal(t, 3, invoice.PeriodMonth)
	assert.Equal(t, "2024-03-01", invoice.DueDate)
	assert.Equal(t, "8500.00", invoice.AmountKr)

	paid, err := s.invoices.MarkPaid(fx.ctx, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusPaid, paid.Status)
	require.NotNil(t, paid.PaidAt)
	assert.True(t, paid.PaidAt.Equal(now))
	require.Len(t, paid.Payments, 1)
	assert.Equal(t, int64(850000), paid.Payments[0].Amount)
	assert.True(t, paid.Payments[0].PaidDate.Equal(now))

	t.Run("second mark-paid writes nothing", func(t *testing.T) {
		_, err := s.invoices.MarkPaid(fx.ctx, invoice.ID)
		assert.ErrorIs(t, err, service.ErrInvoiceAlreadyPaid)

		var payments int64
		require.NoError(t, s.db.Model(&domain.Payment{}).Where("rent_invoice_id = ?", invoice.ID).Count(&payments).Error)
		assert.Equal(t, int64(1), payments)
	})

	t.Run("same period twice", func(t *testing.T) {
		_, err := s.invoices.Create(fx.ctx, &domain.CreateInvoiceRequest{
			LeaseID: fx.lease.ID,
			Amount:  850000,
			DueDate: "2024-03-25",
		})
		assert.ErrorIs(t, err, service.ErrDuplicatePeriod)
	})

	t.Run("reload shows the payment", func(t *testing.T) {
		got, err := s.invoices.Get(fx.ctx, invoice.ID)
		require.NoError(t, err)
		assert.Equal(t, "Anna", got.TenantName)
		assert.Equal(t, "A-101", got.UnitLabel)
		assert.Len(t, got.Payments, 1)
	})
}

func TestInvoiceService_Create_Rejections(t *testing.T) {
	s := newTestServices(t)
	fx := newRental(t, s)
	other := newLandlord(t, s.db, "granne@example.se", domain.PlanBasic)

	tests := []struct {
		name  string
		req   domain.CreateInvoiceRequest
		check func(t *testing.T, err error)
	}{
		{
			name: "zero amount",
			req:  domain.CreateInvoiceRequest{LeaseID: fx.lease.ID, Amount: 0, DueDate: "2024-03-01"},
			check: func(t *testing.T, err error) {
				requireValidation(t, err, "amount")
			},
		},
		{
			name: "malformed due date",
			req:  domain.CreateInvoiceRequest{LeaseID: fx.lease.ID, Amount: 100, DueDate: "2024-13-01"},
			check: func(t *testing.T, err error) {
				requireValidation(t, err, "dueDate")
			},
		},
		{
			name: "unknown lease",
			req:  domain.CreateInvoiceRequest{LeaseID: uuid.New(), Amount: 100, DueDate: "2024-03-01"},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, service.ErrLeaseNotAllowed)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, err := s.invoices.Create(fx.ctx, &req)
			tt.check(t, err)
		})
	}

	t.Run("lease of another landlord", func(t *testing.T) {
		_, err := s.invoices.Create(other.ctx, &domain.CreateInvoiceRequest{LeaseID: fx.lease.ID, Amount: 100, DueDate: "2024-03-01"})
		assert.ErrorIs(t, err, service.ErrLeaseNotAllowed)
	})

	t.Run("staff may not invoice", func(t *testing.T) {
		staff := testutil.CreateUser(t, s.db, "personal@example.se")
		testutil.AddMember(t, s.db, fx.landlord, staff, domain.RoleStaff)
		_, err := s.invoices.Create(asUser(staff), &domain.CreateInvoiceRequest{LeaseID: fx.lease.ID, Amount: 100, DueDate: "2024-03-01"})
		assert.ErrorIs(t, err, service.ErrForbidden)
	})
}

func TestInvoiceService_PeriodUsesStockholmTime(t *testing.T) {
	s := newTestServices(t)
	fx := newRental(t, s)

	// 2024-03-31 23:30 UTC is already April 1st in Stockholm
	due := time.Date(2024, 3, 31, 23, 30, 0, 0, time.UTC)
	invoice, err := s.invoices.CreateForLease(fx.ctx, fx.landlord.ID, fx.lease.ID, 850000, due)
	require.NoError(t, err)
	assert.Equal(t, 2024, invoice.PeriodYear)
	assert.Equal(t, 4, invoice.PeriodMonth)
}

func TestInvoiceService_MarkPaid_NotFound(t *testing.T) {
	s := newTestServices(t)
	fx := newRental(t, s)
	other := newLandlord(t, s.db, "granne@example.se", domain.PlanBasic)

	invoice, err := s.invoices.Create(fx.ctx, &domain.CreateInvoiceRequest{LeaseID: fx.lease.ID, Amount: 850000, DueDate: "2024-03-01"})
	require.NoError(t, err)

	_, err = s.invoices.MarkPaid(other.ctx, invoice.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)

	_, err = s.invoices.MarkPaid(fx.ctx, uuid.New())
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestInvoiceService_MarkPaid_FromOverdue(t *testing.T) {
	s := newTestServices(t)
	fx := newRental(t, s)

	invoice, err := s.invoices.Create(fx.ctx, &domain.CreateInvoiceRequest{LeaseID: fx.lease.ID, Amount: 850000, DueDate: "2024-03-01"})
	require.NoError(t, err)
	require.NoError(t, s.db.Model(&domain.RentInvoice{}).Where("id = ?", invoice.ID).
		Update("status", domain.InvoiceStatusOverdue).Error)

	paid, err := s.invoices.MarkPaid(fx.ctx, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusPaid, paid.Status)
	assert.Len(t, paid.Payments, 1)
}

func TestInvoiceService_SweepOverdue(t *testing.T) {
	s := newTestServices(t, withNow(time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)))
	fx := newRental(t, s)
	loc := s.loc

	var model domain.Lease
	require.NoError(t, s.db.First(&model, "id = ?", fx.lease.ID).Error)

	past := testutil.CreateInvoice(t, s.db, &model, 850000, time.Date(2024, 2, 1, 0, 0, 0, 0, loc), loc)
	today := testutil.CreateInvoice(t, s.db, &model, 850000, time.Date(2024, 3, 10, 0, 0, 0, 0, loc), loc)

	n, err := s.invoices.SweepOverdue(fx.ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := s.invoices.Get(fx.ctx, past.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusOverdue, got.Status)

	got, err = s.invoices.Get(fx.ctx, today.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusPending, got.Status)

	t.Run("overdue invoices can still be paid", func(t *testing.T) {
		paid, err := s.invoices.MarkPaid(fx.ctx, past.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.InvoiceStatusPaid, paid.Status)
	})

	t.Run("sweep is idempotent", func(t *testing.T) {
		n, err := s.invoices.SweepOverdue(fx.ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

func TestInvoiceService_GenerateMonthly(t *testing.T) {
	s := newTestServices(t, withNow(time.Date(2024, 5, 2, 6, 0, 0, 0, time.UTC)))
	fx := newRental(t, s)

	ended := testutil.CreateUnit(t, s.db, fx.property, "A-102")
	_, err := s.leases.Create(fx.ctx, &domain.CreateLeaseRequest{
		UnitID:       ended.ID,
		TenantID:     fx.tenant.ID,
		RentAmountKr: "7000",
		DueDay:       25,
		StartDate:    "2023-01-01",
		EndDate:      strPtr("2024-01-01"),
	})
	require.NoError(t, err)

	result, err := s.invoices.GenerateMonthly(fx.ctx)
	require.NoError(t, err)
	assert.Equal(t, 2024, result.Year)
	assert.Equal(t, time.May, result.Month)
	assert.Equal(t, 1, result.Created)
	assert.Zero(t, result.Skipped)
	assert.Zero(t, result.Failed)

	invoices, err := s.invoices.List(fx.ctx, "", nil, &fx.lease.ID)
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	assert.Equal(t, "2024-05-01", invoices[0].DueDate)
	assert.Equal(t, int64(850000), invoices[0].Amount)

	rerun, err := s.invoices.GenerateMonthly(fx.ctx)
	require.NoError(t, err)
	assert.Zero(t, rerun.Created)
	assert.Equal(t, 1, rerun.Skipped)
}

func TestInvoiceService_List(t *testing.T) {
	s := newTestServices(t)
	fx := newRental(t, s)

	_, err := s.invoices.Create(fx.ctx, &domain.CreateInvoiceRequest{LeaseID: fx.lease.ID, Amount: 850000, DueDate: "2024-03-01"})
	require.NoError(t, err)
	second, err := s.invoices.Create(fx.ctx, &domain.CreateInvoiceRequest{LeaseID: fx.lease.ID, Amount: 850000, DueDate: "2024-04-01"})
	require.NoError(t, err)
	_, err = s.invoices.MarkPaid(fx.ctx, second.ID)
	require.NoError(t, err)

	all, err := s.invoices.List(fx.ctx, "", nil, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "2024-04-01", all[0].DueDate, "latest due first")

	paid, err := s.invoices.List(fx.ctx, "paid", &fx.property.ID, nil)
	require.NoError(t, err)
	require.Len(t, paid, 1)
	assert.Equal(t, second.ID, paid[0].ID)

	_, err = s.invoices.List(fx.ctx, "cancelled", nil, nil)
	requireValidation(t, err, "status")
}
