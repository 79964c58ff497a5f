package service_test

import (
	"testing"
	"time"

	"github.com/miniforvaltaren/api/internal/domain"
	"github.com/miniforvaltaren/api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardService_Get(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	s := newTestServices(t, withNow(now))
	fx := newRental(t, s)
	loc := s.loc

	var lease domain.Lease
	require.NoError(t, s.db.First(&lease, "id = ?", fx.lease.ID).Error)

	// first local instant of March is still February in UTC
	marchFirst := testutil.CreateInvoice(t, s.db, &lease, 850000, time.Date(2024, 3, 1, 0, 0, 0, 0, loc), loc)
	testutil.CreateInvoice(t, s.db, &lease, 850000, time.Date(2024, 4, 1, 0, 0, 0, 0, loc), loc)
	february := testutil.CreateInvoice(t, s.db, &lease, 850000, time.Date(2024, 2, 1, 0, 0, 0, 0, loc), loc)
	require.NoError(t, s.db.Model(february).Update("status", domain.InvoiceStatusOverdue).Error)

	paid, err := s.invoices.MarkPaid(fx.ctx, marchFirst.ID)
	require.NoError(t, err)
	require.Equal(t, domain.InvoiceStatusPaid, paid.Status)

	testutil.CreateTicket(t, s.db, fx.property, "Droppande kran")
	closed := testutil.CreateTicket(t, s.db, fx.property, "Trasig lampa")
	_, err = s.tickets.UpdateStatus(fx.ctx, closed.ID, "closed")
	require.NoError(t, err)

	other := newLandlord(t, s.db, "granne@example.se", domain.PlanBasic)
	testutil.CreateProperty(t, s.db, other.landlord, "Kungsgatan 3")

	dash, err := s.dashboard.Get(fx.ctx)
	require.NoError(t, err)

	assert.Equal(t, domain.DashboardCountsDTO{
		Properties:    1,
		Units:         1,
		Tenants:       1,
		ActiveLeases:  1,
		OpenTickets:   1,
		Overdue:       1,
		DueThisMonth:  0,
		PaidThisMonth: 1,
	}, dash.Counts)

	assert.True(t, dash.MonthStart.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, loc)))
	assert.True(t, dash.MonthEnd.Equal(time.Date(2024, 4, 1, 0, 0, 0, 0, loc).Add(-time.Millisecond)))
	assert.True(t, dash.GeneratedAt.Equal(now))

	require.Len(t, dash.UpcomingDue, 1)
	assert.Equal(t, "2024-04-01", dash.UpcomingDue[0].DueDate)
	require.Len(t, dash.RecentPayments, 1)
	assert.Equal(t, marchFirst.ID, dash.RecentPayments[0].InvoiceID)

	t.Run("pending invoice due this month", func(t *testing.T) {
		unit := testutil.CreateUnit(t, s.db, fx.property, "A-102")
		second := testutil.CreateLease(t, s.db, fx.landlord, unit, fx.tenant, 700000, 28, time.Date(2024, 1, 1, 0, 0, 0, 0, loc))
		testutil.CreateInvoice(t, s.db, second, 700000, time.Date(2024, 3, 31, 23, 59, 0, 0, loc), loc)

		dash, err := s.dashboard.Get(fx.ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), dash.Counts.DueThisMonth)
		assert.Equal(t, int64(2), dash.Counts.ActiveLeases)
		assert.Len(t, dash.UpcomingDue, 2)
	})

	t.Run("a landlord with nothing", func(t *testing.T) {
		dash, err := s.dashboard.Get(other.ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), dash.Counts.Properties)
		assert.Zero(t, dash.Counts.Units)
		assert.Empty(t, dash.UpcomingDue)
		assert.NotNil(t, dash.RecentPayments)
	})
}
