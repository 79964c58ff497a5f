package domain_test

import (
	"testing"
	"time"

	"github.com/miniforvaltaren/api/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestInvoiceStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name     string
		from, to domain.InvoiceStatus
		expected bool
	}{
		{"pending to paid", domain.InvoiceStatusPending, domain.InvoiceStatusPaid, true},
		{"pending to overdue", domain.InvoiceStatusPending, domain.InvoiceStatusOverdue, true},
		{"overdue to paid", domain.InvoiceStatusOverdue, domain.InvoiceStatusPaid, true},
		{"paid is terminal", domain.InvoiceStatusPaid, domain.InvoiceStatusPending, false},
		{"paid to paid rejected", domain.InvoiceStatusPaid, domain.InvoiceStatusPaid, false},
		{"overdue back to pending rejected", domain.InvoiceStatusOverdue, domain.InvoiceStatusPending, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestInvoiceStatusesInto(t *testing.T) {
	assert.Equal(t,
		[]domain.InvoiceStatus{domain.InvoiceStatusPending, domain.InvoiceStatusOverdue},
		domain.InvoiceStatusesInto(domain.InvoiceStatusPaid))
	assert.Equal(t,
		[]domain.InvoiceStatus{domain.InvoiceStatusPending},
		domain.InvoiceStatusesInto(domain.InvoiceStatusOverdue))
	assert.Empty(t, domain.InvoiceStatusesInto(domain.InvoiceStatusPending))
}

func TestParseInvoiceStatus(t *testing.T) {
	st, ok := domain.ParseInvoiceStatus("paid")
	assert.True(t, ok)
	assert.Equal(t, domain.InvoiceStatusPaid, st)

	_, ok = domain.ParseInvoiceStatus("cancelled")
	assert.False(t, ok)
}

func TestTicketStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		name     string
		from, to domain.TicketStatus
		expected bool
	}{
		{"open to in progress", domain.TicketStatusOpen, domain.TicketStatusInProgress, true},
		{"open to closed", domain.TicketStatusOpen, domain.TicketStatusClosed, true},
		{"in progress to closed", domain.TicketStatusInProgress, domain.TicketStatusClosed, true},
		{"in progress back to open", domain.TicketStatusInProgress, domain.TicketStatusOpen, true},
		{"reopen closed", domain.TicketStatusClosed, domain.TicketStatusOpen, true},
		{"closed to in progress rejected", domain.TicketStatusClosed, domain.TicketStatusInProgress, false},
		{"same state allowed", domain.TicketStatusClosed, domain.TicketStatusClosed, true},
		{"unknown target rejected", domain.TicketStatusOpen, domain.TicketStatus("DONE"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestParseTicketStatus(t *testing.T) {
	tests := []struct {
		input    string
		expected domain.TicketStatus
		ok       bool
	}{
		{"open", domain.TicketStatusOpen, true},
		{"in_progress", domain.TicketStatusInProgress, true},
		{"in-progress", domain.TicketStatusInProgress, true},
		{"CLOSED", domain.TicketStatusClosed, true},
		{"done", domain.TicketStatus("DONE"), false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			st, ok := domain.ParseTicketStatus(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, st)
		})
	}
}

func TestLease_IsActive(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	past := now.AddDate(0, -1, 0)
	future := now.AddDate(0, 1, 0)

	tests := []struct {
		name     string
		lease    domain.Lease
		expected bool
	}{
		{"open ended started", domain.Lease{StartDate: past}, true},
		{"starts now", domain.Lease{StartDate: now}, true},
		{"not started", domain.Lease{StartDate: future}, false},
		{"ends in future", domain.Lease{StartDate: past, EndDate: &future}, true},
		{"ended", domain.Lease{StartDate: past, EndDate: &past}, false},
		{"ends exactly now", domain.Lease{StartDate: past, EndDate: &now}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.lease.IsActive(now))
		})
	}
}
