package domain_test

import (
	"testing"

	"github.com/miniforvaltaren/api/internal/domain"
	"github.com/stretchr/testify/assert"
)

// =============================================================================
// Permission table
// =============================================================================

func TestHasPermission(t *testing.T) {
	tests := []struct {
		name       string
		role       domain.Role
		permission domain.Permission
		expected   bool
	}{
		{"owner creates tenant", domain.RoleOwner, domain.PermTenantCreate, true},
		{"manager creates tenant", domain.RoleManager, domain.PermTenantCreate, true},
		{"accountant cannot create tenant", domain.RoleAccountant, domain.PermTenantCreate, false},
		{"staff cannot create lease", domain.RoleStaff, domain.PermLeaseCreate, false},
		{"accountant marks paid", domain.RoleAccountant, domain.PermInvoiceMarkPaid, true},
		{"manager cannot mark paid", domain.RoleManager, domain.PermInvoiceMarkPaid, false},
		{"staff creates ticket", domain.RoleStaff, domain.PermTicketCreate, true},
		{"staff updates ticket", domain.RoleStaff, domain.PermTicketUpdate, true},
		{"staff cannot delete ticket", domain.RoleStaff, domain.PermTicketDelete, false},
		{"manager cannot delete ticket", domain.RoleManager, domain.PermTicketDelete, false},
		{"admin deletes ticket", domain.RoleAdmin, domain.PermTicketDelete, true},
		{"admin settings", domain.RoleAdmin, domain.PermSettings, true},
		{"manager no settings", domain.RoleManager, domain.PermSettings, false},
		{"unknown role", domain.Role("GUEST"), domain.PermTicketCreate, false},
		{"unknown permission", domain.RoleOwner, domain.Permission("NUKE"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, domain.HasPermission(tt.role, tt.permission))
		})
	}
}

func TestPermissionsFor(t *testing.T) {
	owner := domain.PermissionsFor(domain.RoleOwner)
	assert.Len(t, owner, 12)

	staff := domain.PermissionsFor(domain.RoleStaff)
	assert.ElementsMatch(t, []domain.Permission{domain.PermTicketCreate, domain.PermTicketUpdate}, staff)

	assert.Empty(t, domain.PermissionsFor(domain.Role("GUEST")))
}

func TestRole_IsValid(t *testing.T) {
	for _, r := range domain.AllRoles() {
		assert.True(t, r.IsValid(), string(r))
	}
	assert.False(t, domain.Role("owner").IsValid())
	assert.False(t, domain.Role("").IsValid())

	assert.True(t, domain.OrgRoleMember.IsValid())
	assert.False(t, domain.OrgRole("MANAGER").IsValid())
}

// =============================================================================
// Plans
// =============================================================================

func TestLimitsFor(t *testing.T) {
	tests := []struct {
		plan     domain.Plan
		expected domain.PlanLimits
	}{
		{domain.PlanFree, domain.PlanLimits{MaxProperties: 1, MaxUnits: 10, MaxAgents: 1}},
		{domain.PlanBasic, domain.PlanLimits{MaxProperties: 5, MaxUnits: 50, MaxAgents: 5}},
		{domain.PlanPro, domain.PlanLimits{MaxProperties: 50, MaxUnits: 500, MaxAgents: 25}},
		{domain.Plan("ENTERPRISE"), domain.PlanLimits{MaxProperties: 1, MaxUnits: 10, MaxAgents: 1}},
	}

	for _, tt := range tests {
		t.Run(string(tt.plan), func(t *testing.T) {
			assert.Equal(t, tt.expected, domain.LimitsFor(tt.plan))
		})
	}
}

func TestPlanLimits_Max(t *testing.T) {
	limits := domain.LimitsFor(domain.PlanBasic)
	assert.Equal(t, 5, limits.Max(domain.ResourceProperties))
	assert.Equal(t, 50, limits.Max(domain.ResourceUnits))
	assert.Equal(t, 5, limits.Max(domain.ResourceAgents))
	assert.Equal(t, 0, limits.Max(domain.ResourceKind("tickets")))
}

func TestPlanFromSlug(t *testing.T) {
	plan, ok := domain.PlanFromSlug("basic")
	assert.True(t, ok)
	assert.Equal(t, domain.PlanBasic, plan)

	plan, ok = domain.PlanFromSlug(" PRO ")
	assert.True(t, ok)
	assert.Equal(t, domain.PlanPro, plan)

	_, ok = domain.PlanFromSlug("free")
	assert.False(t, ok)

	assert.Equal(t, "pro", domain.PlanPro.Slug())
}
