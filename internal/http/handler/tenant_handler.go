package handler

import (
	"net/http"

	"github.com/miniforvaltaren/api/internal/domain"
	"github.com/miniforvaltaren/api/internal/service"
	"go.uber.org/zap"
)

// TenantHandler handles HTTP requests for tenants (the people renting units)
type TenantHandler struct {
	tenantService *service.TenantService
	logger        *zap.Logger
}

func NewTenantHandler(tenantService *service.TenantService, logger *zap.Logger) *TenantHandler {
	return &TenantHandler{
		tenantService: tenantService,
		logger:        logger,
	}
}

// List godoc
// @Summary List tenants
// @Description Ordered by name, at most 200
// @Tags Tenants
// @Produce json
// @Success 200 {object} domain.ListResponse{data=[]domain.TenantDTO}
// @Security BearerAuth
// @Router /tenants [get]
func (h *TenantHandler) List(w http.ResponseWriter, r *http.Request) {
	tenants, err := h.tenantService.List(r.Context())
	if err != nil {
		handleServiceError(w, h.logger, err, "list tenants")
		return
	}
	respondJSON(w, http.StatusOK, domain.ListResponse{Data: tenants, Count: len(tenants)})
}

// Create godoc
// @Summary Create tenant
// @Tags Tenants
// @Accept json
// @Produce json
// @Param request body domain.CreateTenantRequest true "Tenant data"
// @Success 201 {object} domain.TenantDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError
// @Security BearerAuth
// @Router /tenants [post]
func (h *TenantHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateTenantRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	tenant, err := h.tenantService.Create(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "create tenant")
		return
	}
	w.Header().Set("Location", "/api/v1/tenants/"+tenant.ID.String())
	respondJSON(w, http.StatusCreated, tenant)
}

// Get godoc
// @Summary Get tenant
// @Description Tenant with leases, units and properties
// @Tags Tenants
// @Produce json
// @Param id path string true "Tenant ID" format(uuid)
// @Success 200 {object} domain.TenantDetailDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /tenants/{id} [get]
func (h *TenantHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	tenant, err := h.tenantService.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "get tenant")
		return
	}
	respondJSON(w, http.StatusOK, tenant)
}

// Update godoc
// @Summary Update tenant
// @Tags Tenants
// @Accept json
// @Produce json
// @Param id path string true "Tenant ID" format(uuid)
// @Param request body domain.UpdateTenantRequest true "Tenant data"
// @Success 200 {object} domain.TenantDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /tenants/{id} [put]
func (h *TenantHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req domain.UpdateTenantRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	tenant, err := h.tenantService.Update(r.Context(), id, &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "update tenant")
		return
	}
	respondJSON(w, http.StatusOK, tenant)
}

// Delete godoc
// @Summary Delete tenant
// @Description Deletes the tenant's leases, their invoices and payments in one transaction
// @Tags Tenants
// @Param id path string true "Tenant ID" format(uuid)
// @Success 204
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /tenants/{id} [delete]
func (h *TenantHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.tenantService.Delete(r.Context(), id); err != nil {
		handleServiceError(w, h.logger, err, "delete tenant")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
