package service_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/miniforvaltaren/api/internal/domain"
	"github.com/miniforvaltaren/api/internal/service"
	"github.com/miniforvaltaren/api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOnboardingService_Flow(t *testing.T) {
	s := newTestServices(t)
	user := testutil.CreateUser(t, s.db, "ny@example.se")
	ctx := asUser(user)

	landlord, err := s.onboarding.SaveProfile(ctx, &domain.UpdateProfileRequest{OrgName: "Storgatan Fastigheter AB"})
	require.NoError(t, err)
	assert.Equal(t, domain.PlanFree, landlord.Plan)

	property, err := s.onboarding.CreateFirstProperty(ctx, &domain.CreatePropertyRequest{Name: "Storgatan 12", Address: "Storgatan 12, Stockholm"})
	require.NoError(t, err)

	units, err := s.onboarding.BulkCreateUnits(ctx, &domain.BulkCreateUnitsRequest{PropertyID: property.ID, Labels: "A-101\nA-102"})
	require.NoError(t, err)
	require.Len(t, units.Created, 2)

	result, err := s.onboarding.CreateFirstTenantAndLease(ctx, &domain.FirstTenantLeaseRequest{
		TenantName:   "Anna",
		TenantEmail:  strPtr("anna@example.se"),
		UnitID:       units.Created[0].ID,
		RentAmountKr: "8500",
		DueDay:       1,
		StartDate:    "2024-01-01",
	})
	require.NoError(t, err)
	assert.Equal(t, "Anna", result.Tenant.Name)
	assert.Equal(t, result.Tenant.ID, result.Lease.TenantID)
	assert.Equal(t, int64(850000), result.Lease.RentAmount)
	assert.Equal(t, "A-101", result.Lease.UnitLabel)

	me, err := s.landlords.Me(asUser(user))
	require.NoError(t, err)
	assert.False(t, me.OnboardingRequired)
}

func TestOnboardingService_RejectedLeaseLeavesNoTenant(t *testing.T) {
	s := newTestServices(t)
	fx := newLandlord(t, s.db, "agare@example.se", domain.PlanBasic)

	tests := []struct {
		name  string
		req   domain.FirstTenantLeaseRequest
		check func(t *testing.T, err error)
	}{
		{
			name: "unknown unit",
			req:  domain.FirstTenantLeaseRequest{TenantName: "Anna", UnitID: uuid.New(), RentAmountKr: "8500", DueDay: 1, StartDate: "2024-01-01"},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, service.ErrNotFound)
			},
		},
		{
			name: "due day out of range",
			req:  domain.FirstTenantLeaseRequest{TenantName: "Anna", UnitID: uuid.New(), RentAmountKr: "8500", DueDay: 31, StartDate: "2024-01-01"},
			check: func(t *testing.T, err error) {
				requireValidation(t, err, "dueDay")
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, err := s.onboarding.CreateFirstTenantAndLease(fx.ctx, &req)
			tt.check(t, err)

			var tenants int64
			require.NoError(t, s.db.Model(&domain.Tenant{}).Count(&tenants).Error)
			assert.Zero(t, tenants)
		})
	}

	t.Run("staff cannot onboard tenants", func(t *testing.T) {
		staff := testutil.CreateUser(t, s.db, "personal@example.se")
		testutil.AddMember(t, s.db, fx.landlord, staff, domain.RoleStaff)
		_, err := s.onboarding.CreateFirstTenantAndLease(asUser(staff), &domain.FirstTenantLeaseRequest{
			TenantName: "Anna", UnitID: uuid.New(), RentAmountKr: "8500", DueDay: 1, StartDate: "2024-01-01",
		})
		assert.ErrorIs(t, err, service.ErrForbidden)
	})
}
