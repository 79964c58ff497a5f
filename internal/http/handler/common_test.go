package handler_test

import (
	"net/http"
	"testing"

	"github.com/miniforvaltaren/api/internal/domain"
	"github.com/miniforvaltaren/api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthHandler(t *testing.T) {
	e := newTestEnv(t)

	t.Run("anonymous", func(t *testing.T) {
		rec := e.do(t, nil, http.MethodGet, "/me", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, domain.ErrorTypeUnauthorized, decodeProblem(t, rec).Type)
	})

	t.Run("first visit needs onboarding", func(t *testing.T) {
		user := testutil.CreateUser(t, e.db, "ny@example.se")
		rec := e.do(t, user, http.MethodGet, "/me", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		me := decode[domain.MeDTO](t, rec)
		assert.Equal(t, user.ID, me.User.ID)
		assert.True(t, me.OnboardingRequired)
	})

	t.Run("usage", func(t *testing.T) {
		f := newFixture(t, e, "anna@example.se", domain.PlanFree)
		rec := e.do(t, f.owner, http.MethodGet, "/usage", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		usage := decode[domain.UsageDTO](t, rec)
		assert.Equal(t, domain.PlanFree, usage.Plan)
		assert.Equal(t, int64(1), usage.Properties.Used)
		assert.Equal(t, 1, usage.Properties.Limit)
		assert.Equal(t, int64(0), usage.Properties.Remaining)
	})
}

func TestTicketHandler_UpdateStatus(t *testing.T) {
	e := newTestEnv(t)
	f := newFixture(t, e, "anna@example.se", domain.PlanFree)
	ticket := testutil.CreateTicket(t, e.db, f.property, "Trasig dörr")
	path := "/tickets/" + ticket.ID.String() + "/status"

	tests := []struct {
		name       string
		status     string
		wantStatus int
	}{
		{name: "open to closed", status: "CLOSED", wantStatus: http.StatusOK},
		{name: "closed to in progress", status: "IN_PROGRESS", wantStatus: http.StatusConflict},
		{name: "unknown status", status: "DONE", wantStatus: http.StatusBadRequest},
		{name: "reopen", status: "OPEN", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.do(t, f.owner, http.MethodPut, path, domain.UpdateTicketStatusRequest{Status: tt.status})
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}
}

func TestMemberHandler_RemoveLastOwner(t *testing.T) {
	e := newTestEnv(t)
	f := newFixture(t, e, "anna@example.se", domain.PlanBasic)

	rec := e.do(t, f.owner, http.MethodDelete, "/members/"+f.owner.ID.String(), nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, domain.ErrorTypeConflict, decodeProblem(t, rec).Type)
}

func TestBillingHandler_Disabled(t *testing.T) {
	e := newTestEnv(t)
	f := newFixture(t, e, "anna@example.se", domain.PlanFree)

	t.Run("checkout", func(t *testing.T) {
		rec := e.do(t, f.owner, http.MethodPost, "/billing/checkout?plan=pro", nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("unknown plan", func(t *testing.T) {
		rec := e.do(t, f.owner, http.MethodPost, "/billing/checkout?plan=gold", nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decodeProblem(t, rec).Errors, "plan")
	})

	t.Run("subscription falls back to the stored plan", func(t *testing.T) {
		rec := e.do(t, f.owner, http.MethodGet, "/billing/subscription", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		sub := decode[domain.SubscriptionDTO](t, rec)
		assert.Equal(t, domain.PlanFree, sub.Plan)
		assert.Equal(t, "none", sub.Status)
	})
}

func TestUnitHandler_BulkCreate(t *testing.T) {
	e := newTestEnv(t)
	f := newFixture(t, e, "anna@example.se", domain.PlanBasic)

	rec := e.do(t, f.owner, http.MethodPost, "/units/bulk", domain.BulkCreateUnitsRequest{
		PropertyID: f.property.ID,
		Labels:     "1001\n1002\n\n1003\n1002",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	result := decode[domain.BulkUnitsResultDTO](t, rec)
	assert.Len(t, result.Created, 2)
	assert.Contains(t, result.Skipped, "1001")
}

func TestMemberHandler_RemoveAccountHolder(t *testing.T) {
	e := newTestEnv(t)
	f := newFixture(t, e, "anna@example.se", domain.PlanBasic)
	coOwner := testutil.CreateUser(t, e.db, "delagare@example.se")
	testutil.AddMember(t, e.db, f.landlord, coOwner, domain.RoleOwner)

	rec := e.do(t, coOwner, http.MethodDelete, "/members/"+f.owner.ID.String(), nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, domain.ErrorTypeConflict, decodeProblem(t, rec).Type)

	rec = e.do(t, f.owner, http.MethodGet, "/usage", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
