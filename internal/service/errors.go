package service

import (
	"errors"
	"fmt"

	"github.com/miniforvaltaren/api/internal/domain"
)

// Common service errors
var (
	// ErrUnauthorized is returned when there is no authenticated user
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when the user's role lacks the permission
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound is returned when a resource is missing or belongs to another landlord
	ErrNotFound = errors.New("resource not found")

	// ErrUserNotFound is returned when a member is added by an unknown email
	ErrUserNotFound = errors.New("user not found")

	// ErrLeaseNotAllowed is returned when an invoice names a lease outside the landlord
	ErrLeaseNotAllowed = errors.New("lease missing or not allowed")

	// ErrDuplicatePeriod is returned when the lease already has an invoice for the period
	ErrDuplicatePeriod = errors.New("invoice already exists for period")

	// ErrInvoiceAlreadyPaid is returned by a second mark-paid
	ErrInvoiceAlreadyPaid = errors.New("invoice already paid")

	// ErrCannotRemoveLastOwner is returned when a change would leave no OWNER
	ErrCannotRemoveLastOwner = errors.New("cannot remove the last owner")

	// ErrCannotRemoveAccountHolder is returned when removing the user the landlord belongs to
	ErrCannotRemoveAccountHolder = errors.New("cannot remove the account holder")

	// ErrQuotaExceeded is returned when a plan ceiling is reached
	ErrQuotaExceeded = errors.New("plan limit reached")

	// ErrInvalidTransition is returned for a lifecycle move outside the transition table
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrBillingDisabled is returned when no billing provider is configured
	ErrBillingDisabled = errors.New("billing is not enabled")

	// ErrNoBillingCustomer is returned when the portal is requested before any checkout
	ErrNoBillingCustomer = errors.New("no billing customer for landlord")
)

// ValidationError carries a user-facing message for one field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError creates a ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// QuotaError reports which ceiling was hit. It matches ErrQuotaExceeded.
type QuotaError struct {
	Kind  domain.ResourceKind
	Plan  domain.Plan
	Used  int64
	Limit int
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("plan limit reached: %s %d/%d on %s", e.Kind, e.Used, e.Limit, e.Plan)
}

func (e *QuotaError) Unwrap() error {
	return ErrQuotaExceeded
}
