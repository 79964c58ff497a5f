package handler

import (
	"net/http"

	"github.com/miniforvaltaren/api/internal/service"
	"go.uber.org/zap"
)

// BillingHandler exposes the subscription state and the hosted checkout and portal redirects
type BillingHandler struct {
	billingService *service.BillingService
	logger         *zap.Logger
}

func NewBillingHandler(billingService *service.BillingService, logger *zap.Logger) *BillingHandler {
	return &BillingHandler{
		billingService: billingService,
		logger:         logger,
	}
}

// Subscription godoc
// @Summary Get subscription
// @Description Provider state when billing is enabled, otherwise the stored plan
// @Tags Billing
// @Produce json
// @Success 200 {object} domain.SubscriptionDTO
// @Security BearerAuth
// @Router /billing/subscription [get]
func (h *BillingHandler) Subscription(w http.ResponseWriter, r *http.Request) {
	sub, err := h.billingService.Subscription(r.Context())
	if err != nil {
		handleServiceError(w, h.logger, err, "get subscription")
		return
	}
	respondJSON(w, http.StatusOK, sub)
}

// Checkout godoc
// @Summary Start checkout
// @Description Redirects to the hosted checkout page for the plan
// @Tags Billing
// @Param plan query string true "Plan slug" Enums(basic, pro)
// @Success 303
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Failure 503 {object} domain.APIError "Billing not enabled"
// @Security BearerAuth
// @Router /billing/checkout [post]
func (h *BillingHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	url, err := h.billingService.Checkout(r.Context(), r.URL.Query().Get("plan"))
	if err != nil {
		handleServiceError(w, h.logger, err, "start checkout")
		return
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// Portal godoc
// @Summary Open billing portal
// @Description Redirects to the self-service billing portal
// @Tags Billing
// @Success 303
// @Failure 403 {object} domain.APIError
// @Failure 409 {object} domain.APIError "No billing customer yet"
// @Failure 503 {object} domain.APIError "Billing not enabled"
// @Security BearerAuth
// @Router /billing/portal [post]
func (h *BillingHandler) Portal(w http.ResponseWriter, r *http.Request) {
	url, err := h.billingService.Portal(r.Context())
	if err != nil {
		handleServiceError(w, h.logger, err, "open billing portal")
		return
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}
