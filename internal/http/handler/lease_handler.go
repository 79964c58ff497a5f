package handler

import (
	"net/http"

	"github.com/miniforvaltaren/api/internal/domain"
	"github.com/miniforvaltaren/api/internal/service"
	"go.uber.org/zap"
)

type LeaseHandler struct {
	leaseService *service.LeaseService
	logger       *zap.Logger
}

func NewLeaseHandler(leaseService *service.LeaseService, logger *zap.Logger) *LeaseHandler {
	return &LeaseHandler{
		leaseService: leaseService,
		logger:       logger,
	}
}

// List godoc
// @Summary List leases
// @Description Newest start date first, at most 50
// @Tags Leases
// @Produce json
// @Param propertyId query string false "Filter by property" format(uuid)
// @Param unitId query string false "Filter by unit" format(uuid)
// @Param status query string false "Lease state" Enums(active, ended)
// @Success 200 {object} domain.ListResponse{data=[]domain.LeaseDTO}
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Router /leases [get]
func (h *LeaseHandler) List(w http.ResponseWriter, r *http.Request) {
	propertyID, ok := queryID(w, r, "propertyId")
	if !ok {
		return
	}
	unitID, ok := queryID(w, r, "unitId")
	if !ok {
		return
	}

	leases, err := h.leaseService.List(r.Context(), propertyID, unitID, r.URL.Query().Get("status"))
	if err != nil {
		handleServiceError(w, h.logger, err, "list leases")
		return
	}
	respondJSON(w, http.StatusOK, domain.ListResponse{Data: leases, Count: len(leases)})
}

// Create godoc
// @Summary Create lease
// @Description Rent is given in kronor and stored in öre
// @Tags Leases
// @Accept json
// @Produce json
// @Param request body domain.CreateLeaseRequest true "Lease data"
// @Success 201 {object} domain.LeaseDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError "Unit or tenant not found"
// @Security BearerAuth
// @Router /leases [post]
func (h *LeaseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateLeaseRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	lease, err := h.leaseService.Create(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "create lease")
		return
	}
	w.Header().Set("Location", "/api/v1/leases/"+lease.ID.String())
	respondJSON(w, http.StatusCreated, lease)
}

// Get godoc
// @Summary Get lease
// @Description Lease with its invoices
// @Tags Leases
// @Produce json
// @Param id path string true "Lease ID" format(uuid)
// @Success 200 {object} domain.LeaseDetailDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /leases/{id} [get]
func (h *LeaseHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	lease, err := h.leaseService.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "get lease")
		return
	}
	respondJSON(w, http.StatusOK, lease)
}

// Update godoc
// @Summary Update lease
// @Tags Leases
// @Accept json
// @Produce json
// @Param id path string true "Lease ID" format(uuid)
// @Param request body domain.UpdateLeaseRequest true "Lease data"
// @Success 200 {object} domain.LeaseDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /leases/{id} [put]
func (h *LeaseHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req domain.UpdateLeaseRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	lease, err := h.leaseService.Update(r.Context(), id, &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "update lease")
		return
	}
	respondJSON(w, http.StatusOK, lease)
}
