package mapper_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/miniforvaltaren/api/internal/domain"
	"github.com/miniforvaltaren/api/internal/mapper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stockholm(t *testing.T) *time.Location {
	t.Helper()
	loc, err := domain.LoadLocation("")
	require.NoError(t, err)
	return loc
}

func TestToLeaseDTO(t *testing.T) {
	loc := stockholm(t)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, loc).UTC()
	end := time.Date(2024, 7, 1, 0, 0, 0, 0, loc).UTC()
	propertyID := uuid.New()
	lease := &domain.Lease{
		RentAmount: 850050,
		DueDay:     25,
		StartDate:  start,
		EndDate:    &end,
		Unit:       &domain.Unit{Label: "A-101", PropertyID: propertyID, Property: &domain.Property{Name: "Storgatan 12"}},
		Tenant:     &domain.Tenant{Name: "Anna"},
	}

	tests := []struct {
		name   string
		now    time.Time
		active bool
	}{
		{"before start", time.Date(2023, 12, 31, 12, 0, 0, 0, loc), false},
		{"first instant", time.Date(2024, 1, 1, 0, 0, 0, 0, loc), true},
		{"mid term", time.Date(2024, 4, 15, 12, 0, 0, 0, loc), true},
		{"end is exclusive", time.Date(2024, 7, 1, 0, 0, 0, 0, loc), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dto := mapper.ToLeaseDTO(lease, tt.now, loc)
			assert.Equal(t, tt.active, dto.Active)
		})
	}

	dto := mapper.ToLeaseDTO(lease, time.Date(2024, 4, 15, 0, 0, 0, 0, loc), loc)
	assert.Equal(t, "2024-01-01", dto.StartDate)
	require.NotNil(t, dto.EndDate)
	assert.Equal(t, "2024-07-01", *dto.EndDate)
	assert.Equal(t, "8500.50", dto.RentAmountKr)
	assert.Equal(t, "A-101", dto.UnitLabel)
	assert.Equal(t, "Storgatan 12", dto.PropertyName)
	require.NotNil(t, dto.PropertyID)
	assert.Equal(t, propertyID, *dto.PropertyID)
	assert.Equal(t, "Anna", dto.TenantName)
}

func TestToUnitDTO_PicksActiveLease(t *testing.T) {
	loc := stockholm(t)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, loc)
	oldEnd := time.Date(2023, 12, 31, 0, 0, 0, 0, loc)
	current := uuid.New()
	unit := &domain.Unit{
		Label: "A-101",
		Leases: []domain.Lease{
			{BaseModel: domain.BaseModel{ID: uuid.New()}, StartDate: time.Date(2022, 1, 1, 0, 0, 0, 0, loc), EndDate: &oldEnd},
			{BaseModel: domain.BaseModel{ID: current}, StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, loc)},
		},
	}

	dto := mapper.ToUnitDTO(unit, now, loc)
	require.NotNil(t, dto.ActiveLease)
	assert.Equal(t, current, dto.ActiveLease.ID)
	assert.Equal(t, "A-101", dto.ActiveLease.UnitLabel)

	unit.Leases = unit.Leases[:1]
	assert.Nil(t, mapper.ToUnitDTO(unit, now, loc).ActiveLease)
}

func TestToInvoiceDTO_DueDateIsLocal(t *testing.T) {
	loc := stockholm(t)
	invoice := &domain.RentInvoice{
		Amount:      850000,
		DueDate:     time.Date(2024, 2, 29, 23, 0, 0, 0, time.UTC),
		Status:      domain.InvoiceStatusPending,
		PeriodYear:  2024,
		PeriodMonth: 3,
		Payments:    []domain.Payment{{Amount: 850000}},
	}
	dto := mapper.ToInvoiceDTO(invoice, loc)
	assert.Equal(t, "2024-03-01", dto.DueDate)
	assert.Equal(t, "8500.00", dto.AmountKr)
	assert.Len(t, dto.Payments, 1)
}

func TestToQuotaDTO(t *testing.T) {
	assert.Equal(t, domain.QuotaDTO{Used: 3, Limit: 5, Remaining: 2}, mapper.ToQuotaDTO(3, 5))
	assert.Equal(t, domain.QuotaDTO{Used: 7, Limit: 5, Remaining: 0}, mapper.ToQuotaDTO(7, 5))
}

func TestIntakeURL(t *testing.T) {
	assert.Equal(t, "https://app.example.se/report/abc", mapper.IntakeURL("https://app.example.se", "abc"))
}
