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

func TestLeaseService_Create_Validation(t *testing.T) {
	s := newTestServices(t)
	fx := newLandlord(t, s.db, "agare@example.se", domain.PlanBasic)
	property := testutil.CreateProperty(t, s.db, fx.landlord, "Storgatan 12")
	unit := testutil.CreateUnit(t, s.db, property, "A-101")
	tenant := testutil.CreateTenant(t, s.db, fx.landlord, "Anna")

	valid := func() domain.CreateLeaseRequest {
		return domain.CreateLeaseRequest{
			UnitID:       unit.ID,
			TenantID:     tenant.ID,
			RentAmountKr: "8 500,50",
			DueDay:       25,
			StartDate:    "2024-01-01",
		}
	}

	tests := []struct {
		name   string
		mutate func(*domain.CreateLeaseRequest)
		field  string
	}{
		{"zero rent", func(r *domain.CreateLeaseRequest) { r.RentAmountKr = "0" }, "rentAmountKr"},
		{"unparseable rent", func(r *domain.CreateLeaseRequest) { r.RentAmountKr = "åttatusen" }, "rentAmountKr"},
		{"due day 29", func(r *domain.CreateLeaseRequest) { r.DueDay = 29 }, "dueDay"},
		{"due day 0", func(r *domain.CreateLeaseRequest) { r.DueDay = 0 }, "dueDay"},
		{"bad start date", func(r *domain.CreateLeaseRequest) { r.StartDate = "01/01/2024" }, "startDate"},
		{"end before start", func(r *domain.CreateLeaseRequest) { r.EndDate = strPtr("2023-12-31") }, "endDate"},
		{"end equals start", func(r *domain.CreateLeaseRequest) { r.EndDate = strPtr("2024-01-01") }, "endDate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			tt.mutate(&req)
			_, err := s.leases.Create(fx.ctx, &req)
			requireValidation(t, err, tt.field)
		})
	}

	t.Run("valid", func(t *testing.T) {
		req := valid()
		lease, err := s.leases.Create(fx.ctx, &req)
		require.NoError(t, err)
		assert.Equal(t, int64(850050), lease.RentAmount)
		assert.Equal(t, "8500.50", lease.RentAmountKr)
		assert.Equal(t, "2024-01-01", lease.StartDate)
		assert.Nil(t, lease.EndDate)
		assert.Equal(t, "A-101", lease.UnitLabel)
		assert.Equal(t, "Anna", lease.TenantName)
	})
}

func TestLeaseService_Create_Scope(t *testing.T) {
	s := newTestServices(t)
	fx := newLandlord(t, s.db, "agare@example.se", domain.PlanBasic)
	other := newLandlord(t, s.db, "granne@example.se", domain.PlanBasic)
	theirProperty := testutil.CreateProperty(t, s.db, other.landlord, "Kungsgatan 3")
	theirUnit := testutil.CreateUnit(t, s.db, theirProperty, "B-201")
	myTenant := testutil.CreateTenant(t, s.db, fx.landlord, "Anna")

	_, err := s.leases.Create(fx.ctx, &domain.CreateLeaseRequest{
		UnitID:       theirUnit.ID,
		TenantID:     myTenant.ID,
		RentAmountKr: "8500",
		DueDay:       1,
		StartDate:    "2024-01-01",
	})
	assert.ErrorIs(t, err, service.ErrNotFound)

	var n int64
	require.NoError(t, s.db.Model(&domain.Lease{}).Count(&n).Error)
	assert.Zero(t, n)

	t.Run("accountant may not create leases", func(t *testing.T) {
		accountant := testutil.CreateUser(t, s.db, "ekonomi@example.se")
		testutil.AddMember(t, s.db, fx.landlord, accountant, domain.RoleAccountant)
		_, err := s.leases.Create(asUser(accountant), &domain.CreateLeaseRequest{
			UnitID:       uuid.New(),
			TenantID:     myTenant.ID,
			RentAmountKr: "8500",
			DueDay:       1,
			StartDate:    "2024-01-01",
		})
		assert.ErrorIs(t, err, service.ErrForbidden)
	})
}

func TestLeaseService_UpdateAndList(t *testing.T) {
	s := newTestServices(t, withNow(time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)))
	fx := newRental(t, s)
	spare := testutil.CreateUnit(t, s.db, fx.property, "A-102")

	updated, err := s.leases.Update(fx.ctx, fx.lease.ID, &domain.UpdateLeaseRequest{
		UnitID:       spare.ID,
		RentAmountKr: "9100",
		DueDay:       27,
		StartDate:    "2024-01-01",
		EndDate:      strPtr("2024-06-01"),
	})
	require.NoError(t, err)
	assert.Equal(t, spare.ID, updated.UnitID)
	assert.Equal(t, int64(910000), updated.RentAmount)
	assert.False(t, updated.Active)
	require.NotNil(t, updated.EndDate)
	assert.Equal(t, "2024-06-01", *updated.EndDate)

	ended, err := s.leases.List(fx.ctx, nil, nil, "ended")
	require.NoError(t, err)
	assert.Len(t, ended, 1)

	active, err := s.leases.List(fx.ctx, nil, nil, "active")
	require.NoError(t, err)
	assert.Empty(t, active)

	byUnit, err := s.leases.List(fx.ctx, nil, &spare.ID, "")
	require.NoError(t, err)
	assert.Len(t, byUnit, 1)

	_, err = s.leases.List(fx.ctx, nil, nil, "future")
	requireValidation(t, err, "state")

	detail, err := s.leases.Get(fx.ctx, fx.lease.ID)
	require.NoError(t, err)
	assert.Empty(t, detail.Invoices)
}
