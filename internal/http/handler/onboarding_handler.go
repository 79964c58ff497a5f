package handler

import (
	"net/http"

	"github.com/miniforvaltaren/api/internal/domain"
	"github.com/miniforvaltaren/api/internal/service"
	"go.uber.org/zap"
)

// OnboardingHandler runs the first-time setup steps. Each step provisions
// the landlord on first use.
type OnboardingHandler struct {
	onboardingService *service.OnboardingService
	logger            *zap.Logger
}

func NewOnboardingHandler(onboardingService *service.OnboardingService, logger *zap.Logger) *OnboardingHandler {
	return &OnboardingHandler{
		onboardingService: onboardingService,
		logger:            logger,
	}
}

// SaveProfile godoc
// @Summary Onboarding: save profile
// @Tags Onboarding
// @Accept json
// @Produce json
// @Param request body domain.UpdateProfileRequest true "Profile"
// @Success 200 {object} domain.LandlordDTO
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Router /onboarding/profile [post]
func (h *OnboardingHandler) SaveProfile(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	landlord, err := h.onboardingService.SaveProfile(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "save profile")
		return
	}
	respondJSON(w, http.StatusOK, landlord)
}

// CreateProperty godoc
// @Summary Onboarding: first property
// @Tags Onboarding
// @Accept json
// @Produce json
// @Param request body domain.CreatePropertyRequest true "Property data"
// @Success 201 {object} domain.PropertyDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError "quota_exceeded"
// @Security BearerAuth
// @Router /onboarding/property [post]
func (h *OnboardingHandler) CreateProperty(w http.ResponseWriter, r *http.Request) {
	var req domain.CreatePropertyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	property, err := h.onboardingService.CreateFirstProperty(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "create first property")
		return
	}
	respondJSON(w, http.StatusCreated, property)
}

// CreateUnits godoc
// @Summary Onboarding: units
// @Tags Onboarding
// @Accept json
// @Produce json
// @Param request body domain.BulkCreateUnitsRequest true "Newline separated labels"
// @Success 201 {object} domain.BulkUnitsResultDTO
// @Failure 403 {object} domain.APIError "quota_exceeded"
// @Security BearerAuth
// @Router /onboarding/units [post]
func (h *OnboardingHandler) CreateUnits(w http.ResponseWriter, r *http.Request) {
	var req domain.BulkCreateUnitsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.onboardingService.BulkCreateUnits(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "create onboarding units")
		return
	}
	respondJSON(w, http.StatusCreated, result)
}

// CreateTenantAndLease godoc
// @Summary Onboarding: first tenant and lease
// @Description Both are created in one transaction; a rejected lease leaves no tenant behind.
// @Tags Onboarding
// @Accept json
// @Produce json
// @Param request body domain.FirstTenantLeaseRequest true "Tenant and lease"
// @Success 201 {object} service.FirstTenantLeaseResult
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /onboarding/tenant-lease [post]
func (h *OnboardingHandler) CreateTenantAndLease(w http.ResponseWriter, r *http.Request) {
	var req domain.FirstTenantLeaseRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.onboardingService.CreateFirstTenantAndLease(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "create first tenant and lease")
		return
	}
	respondJSON(w, http.StatusCreated, result)
}
