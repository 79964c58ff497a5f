package billing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/miniforvaltaren/api/internal/config"
	"github.com/miniforvaltaren/api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"
	"go.uber.org/zap"
)

func testProvider() *StripeProvider {
	return NewStripeProvider(&config.BillingConfig{
		SecretKey:  "sk_test_123",
		PriceBasic: "price_basic",
		PricePro:   "price_pro",
	}, zap.NewNop())
}

func TestStripeProvider_toSubscription(t *testing.T) {
	p := testProvider()
	periodEnd := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		sub      *stripe.Subscription
		wantPlan domain.Plan
		wantEnd  *time.Time
	}{
		{
			name: "pro price",
			sub: &stripe.Subscription{
				Status: stripe.SubscriptionStatusActive,
				Items: &stripe.SubscriptionItemList{Data: []*stripe.SubscriptionItem{
					{Price: &stripe.Price{ID: "price_pro"}, CurrentPeriodEnd: periodEnd.Unix()},
				}},
			},
			wantPlan: domain.PlanPro,
			wantEnd:  &periodEnd,
		},
		{
			name: "unknown price stays free",
			sub: &stripe.Subscription{
				Status: stripe.SubscriptionStatusActive,
				Items: &stripe.SubscriptionItemList{Data: []*stripe.SubscriptionItem{
					{Price: &stripe.Price{ID: "price_legacy"}},
				}},
			},
			wantPlan: domain.PlanFree,
		},
		{
			name:     "no items",
			sub:      &stripe.Subscription{Status: stripe.SubscriptionStatusTrialing},
			wantPlan: domain.PlanFree,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.toSubscription(tt.sub)
			assert.Equal(t, tt.wantPlan, got.Plan)
			assert.Equal(t, string(tt.sub.Status), got.Status)
			if tt.wantEnd == nil {
				assert.Nil(t, got.CurrentPeriodEnd)
			} else {
				require.NotNil(t, got.CurrentPeriodEnd)
				assert.True(t, tt.wantEnd.Equal(*got.CurrentPeriodEnd))
			}
		})
	}
}

func TestIsLive(t *testing.T) {
	assert.True(t, isLive(stripe.SubscriptionStatusActive))
	assert.True(t, isLive(stripe.SubscriptionStatusPastDue))
	assert.False(t, isLive(stripe.SubscriptionStatusCanceled))
	assert.False(t, isLive(stripe.SubscriptionStatusIncomplete))
}

func TestStripeProvider_CheckoutURL_UnknownPlan(t *testing.T) {
	p := NewStripeProvider(&config.BillingConfig{SecretKey: "sk_test_123"}, zap.NewNop())
	_, err := p.CheckoutURL(context.Background(), CheckoutParams{LandlordID: uuid.New(), Plan: domain.PlanBasic})
	assert.ErrorIs(t, err, ErrUnknownPlan)
}

func TestStripeProvider_EnsureCustomer_Existing(t *testing.T) {
	id, err := testProvider().EnsureCustomer(context.Background(), "cus_123", "anna@example.se", uuid.New())
	require.NoError(t, err)
	assert.Equal(t, "cus_123", id)
}
