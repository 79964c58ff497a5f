package handler

import (
	"net/http"

	"github.com/miniforvaltaren/api/internal/domain"
	"github.com/miniforvaltaren/api/internal/service"
	"go.uber.org/zap"
)

// AuthHandler serves the caller's identity, landlord profile and plan usage
type AuthHandler struct {
	landlordService *service.LandlordService
	billingService  *service.BillingService
	logger          *zap.Logger
}

func NewAuthHandler(landlordService *service.LandlordService, billingService *service.BillingService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		landlordService: landlordService,
		billingService:  billingService,
		logger:          logger,
	}
}

// Me godoc
// @Summary Get current user
// @Description The signed-in user, their landlord and role when one exists, and whether onboarding is still needed. Nothing is provisioned.
// @Tags Auth
// @Produce json
// @Success 200 {object} domain.MeDTO
// @Failure 401 {object} domain.APIError
// @Security BearerAuth
// @Router /me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	me, err := h.landlordService.Me(r.Context())
	if err != nil {
		handleServiceError(w, h.logger, err, "resolve current user")
		return
	}
	respondJSON(w, http.StatusOK, me)
}

// UpdateProfile godoc
// @Summary Update organization name
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body domain.UpdateProfileRequest true "Profile"
// @Success 200 {object} domain.LandlordDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Router /me/profile [put]
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	landlord, err := h.landlordService.UpdateProfile(r.Context(), req.OrgName)
	if err != nil {
		handleServiceError(w, h.logger, err, "update profile")
		return
	}
	respondJSON(w, http.StatusOK, landlord)
}

// Usage godoc
// @Summary Plan usage
// @Description Used, limit and remaining for properties, units and agents on the current plan
// @Tags Billing
// @Produce json
// @Success 200 {object} domain.UsageDTO
// @Security BearerAuth
// @Router /usage [get]
func (h *AuthHandler) Usage(w http.ResponseWriter, r *http.Request) {
	usage, err := h.billingService.Usage(r.Context())
	if err != nil {
		handleServiceError(w, h.logger, err, "get usage")
		return
	}
	respondJSON(w, http.StatusOK, usage)
}
