package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/miniforvaltaren/api/internal/domain"
)

// Subscription is the provider's view of a landlord's plan
type Subscription struct {
	Plan             domain.Plan
	Status           string
	CurrentPeriodEnd *time.Time
}

// CheckoutParams starts a hosted checkout for a paid plan
type CheckoutParams struct {
	LandlordID uuid.UUID
	CustomerID string
	Plan       domain.Plan
	SuccessURL string
	CancelURL  string
}

// Provider is the billing collaborator
type Provider interface {
	// EnsureCustomer returns a customer id for the landlord, creating one when customerID is empty
	EnsureCustomer(ctx context.Context, customerID, email string, landlordID uuid.UUID) (string, error)
	// Subscription reads the current subscription; a customer without one is on FREE
	Subscription(ctx context.Context, customerID string) (*Subscription, error)
	// CheckoutURL creates a checkout session and returns its redirect URL
	CheckoutURL(ctx context.Context, params CheckoutParams) (string, error)
	// PortalURL creates a self-service portal session and returns its redirect URL
	PortalURL(ctx context.Context, customerID, returnURL string) (string, error)
}
