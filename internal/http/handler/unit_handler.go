package handler

import (
	"net/http"
	"strings"

	"github.com/miniforvaltaren/api/internal/domain"
	"github.com/miniforvaltaren/api/internal/service"
	"go.uber.org/zap"
)

type UnitHandler struct {
	unitService *service.UnitService
	logger      *zap.Logger
}

func NewUnitHandler(unitService *service.UnitService, logger *zap.Logger) *UnitHandler {
	return &UnitHandler{
		unitService: unitService,
		logger:      logger,
	}
}

// List godoc
// @Summary List units
// @Description Units with their active lease and tenant
// @Tags Units
// @Produce json
// @Param propertyId query string false "Filter by property" format(uuid)
// @Param q query string false "Case-insensitive label search"
// @Success 200 {object} domain.ListResponse{data=[]domain.UnitDTO}
// @Security BearerAuth
// @Router /units [get]
func (h *UnitHandler) List(w http.ResponseWriter, r *http.Request) {
	propertyID, ok := queryID(w, r, "propertyId")
	if !ok {
		return
	}

	units, err := h.unitService.List(r.Context(), propertyID, strings.TrimSpace(r.URL.Query().Get("q")))
	if err != nil {
		handleServiceError(w, h.logger, err, "list units")
		return
	}
	respondJSON(w, http.StatusOK, domain.ListResponse{Data: units, Count: len(units)})
}

// Create godoc
// @Summary Create unit
// @Tags Units
// @Accept json
// @Produce json
// @Param request body domain.CreateUnitRequest true "Unit data"
// @Success 201 {object} domain.UnitDTO
// @Failure 400 {object} domain.APIError "Invalid or duplicate label"
// @Failure 403 {object} domain.APIError "Forbidden or quota_exceeded"
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /units [post]
func (h *UnitHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateUnitRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	unit, err := h.unitService.Create(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "create unit")
		return
	}
	respondJSON(w, http.StatusCreated, unit)
}

// BulkCreate godoc
// @Summary Create units from a list of labels
// @Description Labels are newline separated. Blank lines, repeats and existing labels are skipped.
// @Tags Units
// @Accept json
// @Produce json
// @Param request body domain.BulkCreateUnitsRequest true "Labels"
// @Success 201 {object} domain.BulkUnitsResultDTO
// @Failure 403 {object} domain.APIError "Forbidden or quota_exceeded"
// @Security BearerAuth
// @Router /units/bulk [post]
func (h *UnitHandler) BulkCreate(w http.ResponseWriter, r *http.Request) {
	var req domain.BulkCreateUnitsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.unitService.BulkCreate(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "bulk create units")
		return
	}
	respondJSON(w, http.StatusCreated, result)
}
