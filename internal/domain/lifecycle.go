package domain

import "strings"

// InvoiceStatus is the stored lifecycle state of a rent invoice
type InvoiceStatus string

const (
	InvoiceStatusPending InvoiceStatus = "PENDING"
	InvoiceStatusPaid    InvoiceStatus = "PAID"
	InvoiceStatusOverdue InvoiceStatus = "OVERDUE"
)

// invoiceTransitions lists the allowed moves. PAID is terminal.
var invoiceTransitions = map[InvoiceStatus][]InvoiceStatus{
	InvoiceStatusPending: {InvoiceStatusPaid, InvoiceStatusOverdue},
	InvoiceStatusOverdue: {InvoiceStatusPaid},
}

// CanTransitionTo reports whether the invoice may move from s to next
func (s InvoiceStatus) CanTransitionTo(next InvoiceStatus) bool {
	for _, allowed := range invoiceTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// InvoiceStatusesInto lists the statuses the table allows to move into next.
// Writers use it as the compare-and-swap guard.
func InvoiceStatusesInto(next InvoiceStatus) []InvoiceStatus {
	var from []InvoiceStatus
	for _, s := range []InvoiceStatus{InvoiceStatusPending, InvoiceStatusPaid, InvoiceStatusOverdue} {
		if s.CanTransitionTo(next) {
			from = append(from, s)
		}
	}
	return from
}

// IsValid checks if the status is known
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusPending, InvoiceStatusPaid, InvoiceStatusOverdue:
		return true
	}
	return false
}

// ParseInvoiceStatus accepts any casing ("paid", "PAID")
func ParseInvoiceStatus(s string) (InvoiceStatus, bool) {
	st := InvoiceStatus(strings.ToUpper(strings.TrimSpace(s)))
	return st, st.IsValid()
}

// TicketStatus is the lifecycle state of a maintenance ticket
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusClosed     TicketStatus = "CLOSED"
)

var ticketTransitions = map[TicketStatus][]TicketStatus{
	TicketStatusOpen:       {TicketStatusInProgress, TicketStatusClosed},
	TicketStatusInProgress: {TicketStatusClosed, TicketStatusOpen},
	TicketStatusClosed:     {TicketStatusOpen},
}

// CanTransitionTo reports whether a ticket may move from s to next.
// Staying in the same state is always allowed.
func (s TicketStatus) CanTransitionTo(next TicketStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range ticketTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsValid checks if the status is known
func (s TicketStatus) IsValid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusClosed:
		return true
	}
	return false
}

// ParseTicketStatus accepts "open", "in_progress", "IN_PROGRESS", "in-progress"
func ParseTicketStatus(s string) (TicketStatus, bool) {
	normalized := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_"))
	st := TicketStatus(normalized)
	return st, st.IsValid()
}

// OpenTicketStatuses are the states counted as open work
func OpenTicketStatuses() []TicketStatus {
	return []TicketStatus{TicketStatusOpen, TicketStatusInProgress}
}
