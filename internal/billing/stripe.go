package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/miniforvaltaren/api/internal/config"
	"github.com/miniforvaltaren/api/internal/domain"
	"github.com/stripe/stripe-go/v82"
	"go.uber.org/zap"
)

// ErrUnknownPlan is returned when a plan has no configured price
var ErrUnknownPlan = errors.New("no price configured for plan")

// StripeProvider implements Provider on Stripe Checkout and the billing portal
type StripeProvider struct {
	client *stripe.Client
	prices map[domain.Plan]string
	logger *zap.Logger
}

// NewStripeProvider creates a provider from the billing config
func NewStripeProvider(cfg *config.BillingConfig, logger *zap.Logger) *StripeProvider {
	return &StripeProvider{
		client: stripe.NewClient(cfg.SecretKey),
		prices: map[domain.Plan]string{
			domain.PlanBasic: cfg.PriceBasic,
			domain.PlanPro:   cfg.PricePro,
		},
		logger: logger.Named("stripe"),
	}
}

func (p *StripeProvider) EnsureCustomer(ctx context.Context, customerID, email string, landlordID uuid.UUID) (string, error) {
	if customerID != "" {
		return customerID, nil
	}
	params := &stripe.CustomerCreateParams{
		Email: stripe.String(email),
	}
	params.AddMetadata("landlord_id", landlordID.String())

	customer, err := p.client.V1Customers.Create(ctx, params)
	if err != nil {
		return "", fmt.Errorf("failed to create stripe customer: %w", err)
	}
	p.logger.Info("stripe customer created",
		zap.String("landlord_id", landlordID.String()),
		zap.String("customer_id", customer.ID))
	return customer.ID, nil
}

func (p *StripeProvider) Subscription(ctx context.Context, customerID string) (*Subscription, error) {
	params := &stripe.SubscriptionListParams{
		Customer: stripe.String(customerID),
		Status:   stripe.String("all"),
	}
	params.Limit = stripe.Int64(10)

	for sub, err := range p.client.V1Subscriptions.List(ctx, params) {
		if err != nil {
			return nil, fmt.Errorf("failed to list stripe subscriptions: %w", err)
		}
		if !isLive(sub.Status) {
			continue
		}
		return p.toSubscription(sub), nil
	}
	return &Subscription{Plan: domain.PlanFree, Status: "none"}, nil
}

func (p *StripeProvider) CheckoutURL(ctx context.Context, params CheckoutParams) (string, error) {
	price, ok := p.prices[params.Plan]
	if !ok || price == "" {
		return "", fmt.Errorf("%w: %s", ErrUnknownPlan, params.Plan)
	}

	sessionParams := &stripe.CheckoutSessionCreateParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer:          stripe.String(params.CustomerID),
		ClientReferenceID: stripe.String(params.LandlordID.String()),
		SuccessURL:        stripe.String(params.SuccessURL),
		CancelURL:         stripe.String(params.CancelURL),
		LineItems: []*stripe.CheckoutSessionCreateLineItemParams{
			{Price: stripe.String(price), Quantity: stripe.Int64(1)},
		},
	}
	sessionParams.AddMetadata("landlord_id", params.LandlordID.String())
	sessionParams.AddMetadata("plan", string(params.Plan))

	session, err := p.client.V1CheckoutSessions.Create(ctx, sessionParams)
	if err != nil {
		return "", fmt.Errorf("failed to create checkout session: %w", err)
	}
	return session.URL, nil
}

func (p *StripeProvider) PortalURL(ctx context.Context, customerID, returnURL string) (string, error) {
	session, err := p.client.V1BillingPortalSessions.Create(ctx, &stripe.BillingPortalSessionCreateParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create portal session: %w", err)
	}
	return session.URL, nil
}

func (p *StripeProvider) toSubscription(sub *stripe.Subscription) *Subscription {
	out := &Subscription{Plan: domain.PlanFree, Status: string(sub.Status)}
	if sub.Items == nil {
		return out
	}
	for _, item := range sub.Items.Data {
		if item.Price != nil {
			if plan, ok := p.planForPrice(item.Price.ID); ok {
				out.Plan = plan
			}
		}
		if item.CurrentPeriodEnd > 0 {
			end := time.Unix(item.CurrentPeriodEnd, 0).UTC()
			out.CurrentPeriodEnd = &end
		}
	}
	return out
}

func (p *StripeProvider) planForPrice(priceID string) (domain.Plan, bool) {
	for plan, id := range p.prices {
		if id != "" && id == priceID {
			return plan, true
		}
	}
	return "", false
}

func isLive(status stripe.SubscriptionStatus) bool {
	switch status {
	case stripe.SubscriptionStatusActive, stripe.SubscriptionStatusTrialing, stripe.SubscriptionStatusPastDue:
		return true
	}
	return false
}
