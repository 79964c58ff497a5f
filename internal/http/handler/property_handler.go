package handler

import (
	"net/http"
	"strconv"

	"github.com/miniforvaltaren/api/internal/domain"
	"github.com/miniforvaltaren/api/internal/service"
	"go.uber.org/zap"
)

// PropertyHandler handles HTTP requests for properties and their QR assets
type PropertyHandler struct {
	propertyService *service.PropertyService
	qrService       *service.QRService
	logger          *zap.Logger
}

// NewPropertyHandler creates a new property handler instance
func NewPropertyHandler(propertyService *service.PropertyService, qrService *service.QRService, logger *zap.Logger) *PropertyHandler {
	return &PropertyHandler{
		propertyService: propertyService,
		qrService:       qrService,
		logger:          logger,
	}
}

// List godoc
// @Summary List properties
// @Description Paginated, newest first. Each item carries its unit count.
// @Tags Properties
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page (max 100)" default(20)
// @Success 200 {object} domain.PaginatedResponse{data=[]domain.PropertyDTO}
// @Failure 401 {object} domain.APIError
// @Security BearerAuth
// @Router /properties [get]
func (h *PropertyHandler) List(w http.ResponseWriter, r *http.Request) {
	result, err := h.propertyService.List(r.Context(), queryInt(r, "page", 1), queryInt(r, "pageSize", 20))
	if err != nil {
		handleServiceError(w, h.logger, err, "list properties")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Create godoc
// @Summary Create property
// @Description Issues the public intake token. Counts against the plan's property limit.
// @Tags Properties
// @Accept json
// @Produce json
// @Param request body domain.CreatePropertyRequest true "Property data"
// @Success 201 {object} domain.PropertyDTO
// @Failure 400 {object} domain.APIError
// @Failure 403 {object} domain.APIError "Forbidden or quota_exceeded"
// @Security BearerAuth
// @Router /properties [post]
func (h *PropertyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreatePropertyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	property, err := h.propertyService.Create(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "create property")
		return
	}

	w.Header().Set("Location", "/api/v1/properties/"+property.ID.String())
	respondJSON(w, http.StatusCreated, property)
}

// Get godoc
// @Summary Get property
// @Description Property with its units and leases
// @Tags Properties
// @Produce json
// @Param id path string true "Property ID" format(uuid)
// @Success 200 {object} domain.PropertyDetailDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /properties/{id} [get]
func (h *PropertyHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	property, err := h.propertyService.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "get property")
		return
	}
	respondJSON(w, http.StatusOK, property)
}

// Update godoc
// @Summary Update property
// @Tags Properties
// @Accept json
// @Produce json
// @Param id path string true "Property ID" format(uuid)
// @Param request body domain.UpdatePropertyRequest true "Property data"
// @Success 200 {object} domain.PropertyDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /properties/{id} [put]
func (h *PropertyHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req domain.UpdatePropertyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	property, err := h.propertyService.Update(r.Context(), id, &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "update property")
		return
	}
	respondJSON(w, http.StatusOK, property)
}

// Delete godoc
// @Summary Delete property
// @Description Removes the property with its units, leases, invoices and tickets
// @Tags Properties
// @Param id path string true "Property ID" format(uuid)
// @Success 204
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /properties/{id} [delete]
func (h *PropertyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.propertyService.Delete(r.Context(), id); err != nil {
		handleServiceError(w, h.logger, err, "delete property")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// QR godoc
// @Summary Intake QR code
// @Description QR code for the property's public report link
// @Tags Properties
// @Produce image/svg+xml
// @Produce image/png
// @Param id path string true "Property ID" format(uuid)
// @Param format query string false "Image format" Enums(svg, png) default(svg)
// @Param size query int false "Edge length in pixels, clamped to 128-1024" default(512)
// @Success 200 {file} binary
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /properties/{id}/qr [get]
func (h *PropertyHandler) QR(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	code, err := h.qrService.Render(r.Context(), id, r.URL.Query().Get("format"), queryInt(r, "size", 0))
	if err != nil {
		handleServiceError(w, h.logger, err, "render qr code")
		return
	}

	w.Header().Set("Content-Type", code.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(code.Data)))
	w.Header().Set("Cache-Control", "private, max-age=86400")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(code.Data)
}
