package service_test

import (
	"testing"
	"time"

	"github.com/miniforvaltaren/api/internal/domain"
	"github.com/miniforvaltaren/api/internal/service"
	"github.com/miniforvaltaren/api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTenantService_CRUD(t *testing.T) {
	s := newTestServices(t)
	fx := newLandlord(t, s.db, "agare@example.se", domain.PlanBasic)

	created, err := s.tenants.Create(fx.ctx, &domain.CreateTenantRequest{
		Name:  " Anna Svensson ",
		Email: strPtr("anna@example.se"),
		Phone: strPtr("   "),
	})
	require.NoError(t, err)
	assert.Equal(t, "Anna Svensson", created.Name)
	require.NotNil(t, created.Email)
	assert.Equal(t, "anna@example.se", *created.Email)
	assert.Nil(t, created.Phone)

	updated, err := s.tenants.Update(fx.ctx, created.ID, &domain.UpdateTenantRequest{Name: "Anna Berg", Phone: strPtr("0701234567")})
	require.NoError(t, err)
	assert.Equal(t, "Anna Berg", updated.Name)
	assert.Nil(t, updated.Email)
	require.NotNil(t, updated.Phone)

	list, err := s.tenants.List(fx.ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	other := newLandlord(t, s.db, "granne@example.se", domain.PlanBasic)
	_, err = s.tenants.Get(other.ctx, created.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
	list, err = s.tenants.List(other.ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestTenantService_DeleteCascades(t *testing.T) {
	s := newTestServices(t)
	fx := newLandlord(t, s.db, "agare@example.se", domain.PlanBasic)
	property := testutil.CreateProperty(t, s.db, fx.landlord, "Storgatan 12")
	unit := testutil.CreateUnit(t, s.db, property, "A-101")
	tenant := testutil.CreateTenant(t, s.db, fx.landlord, "Anna")
	lease := testutil.CreateLease(t, s.db, fx.landlord, unit, tenant, 850000, 1, time.Date(2024, 1, 1, 0, 0, 0, 0, s.loc))
	testutil.CreateInvoice(t, s.db, lease, 850000, time.Date(2024, 3, 1, 0, 0, 0, 0, s.loc), s.loc)
	ticket := testutil.CreateTicket(t, s.db, property, "Trasig dörr")
	require.NoError(t, s.db.Model(ticket).Update("tenant_id", tenant.ID).Error)

	detail, err := s.tenants.Get(fx.ctx, tenant.ID)
	require.NoError(t, err)
	require.Len(t, detail.Leases, 1)
	assert.Equal(t, "Anna", detail.Leases[0].TenantName)

	t.Run("staff may not delete tenants", func(t *testing.T) {
		staff := testutil.CreateUser(t, s.db, "personal@example.se")
		testutil.AddMember(t, s.db, fx.landlord, staff, domain.RoleStaff)
		assert.ErrorIs(t, s.tenants.Delete(asUser(staff), tenant.ID), service.ErrForbidden)
	})

	require.NoError(t, s.tenants.Delete(fx.ctx, tenant.ID))

	var leases, invoices int64
	require.NoError(t, s.db.Model(&domain.Lease{}).Count(&leases).Error)
	require.NoError(t, s.db.Model(&domain.RentInvoice{}).Count(&invoices).Error)
	assert.Zero(t, leases)
	assert.Zero(t, invoices)

	var kept domain.Ticket
	require.NoError(t, s.db.First(&kept, "id = ?", ticket.ID).Error)
	assert.Nil(t, kept.TenantID, "tickets survive with the tenant detached")

	assert.ErrorIs(t, s.tenants.Delete(fx.ctx, tenant.ID), service.ErrNotFound)
}
