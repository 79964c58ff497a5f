package handler

import (
	"net/http"

	"github.com/miniforvaltaren/api/internal/domain"
	"github.com/miniforvaltaren/api/internal/service"
	"go.uber.org/zap"
)

// InvoiceHandler handles rent invoices and their payment
type InvoiceHandler struct {
	invoiceService *service.InvoiceService
	logger         *zap.Logger
}

func NewInvoiceHandler(invoiceService *service.InvoiceService, logger *zap.Logger) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
		logger:         logger,
	}
}

// List godoc
// @Summary List invoices
// @Description Latest due date first, at most 100
// @Tags Invoices
// @Produce json
// @Param status query string false "Invoice status" Enums(PENDING, PAID, OVERDUE)
// @Param propertyId query string false "Filter by property" format(uuid)
// @Param leaseId query string false "Filter by lease" format(uuid)
// @Success 200 {object} domain.ListResponse{data=[]domain.InvoiceDTO}
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Router /invoices [get]
func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	propertyID, ok := queryID(w, r, "propertyId")
	if !ok {
		return
	}
	leaseID, ok := queryID(w, r, "leaseId")
	if !ok {
		return
	}

	invoices, err := h.invoiceService.List(r.Context(), r.URL.Query().Get("status"), propertyID, leaseID)
	if err != nil {
		handleServiceError(w, h.logger, err, "list invoices")
		return
	}
	respondJSON(w, http.StatusOK, domain.ListResponse{Data: invoices, Count: len(invoices)})
}

// Create godoc
// @Summary Create invoice
// @Description Creates a PENDING invoice. The billing period is the due date's month in Europe/Stockholm.
// @Tags Invoices
// @Accept json
// @Produce json
// @Param request body domain.CreateInvoiceRequest true "Invoice data, amount in öre"
// @Success 201 {object} domain.InvoiceDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError "Avtal saknas eller otillåtet"
// @Failure 409 {object} domain.APIError "Avi finns redan för den valda månaden"
// @Security BearerAuth
// @Router /invoices [post]
func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateInvoiceRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	invoice, err := h.invoiceService.Create(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "create invoice")
		return
	}
	w.Header().Set("Location", "/api/v1/invoices/"+invoice.ID.String())
	respondJSON(w, http.StatusCreated, invoice)
}

// Get godoc
// @Summary Get invoice
// @Description Invoice with its payments
// @Tags Invoices
// @Produce json
// @Param id path string true "Invoice ID" format(uuid)
// @Success 200 {object} domain.InvoiceDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /invoices/{id} [get]
func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	invoice, err := h.invoiceService.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "get invoice")
		return
	}
	respondJSON(w, http.StatusOK, invoice)
}

// MarkPaid godoc
// @Summary Mark invoice paid
// @Description Records one full-amount payment dated now. A second call is rejected.
// @Tags Invoices
// @Produce json
// @Param id path string true "Invoice ID" format(uuid)
// @Success 200 {object} domain.InvoiceDTO
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError "invoice already paid"
// @Security BearerAuth
// @Router /invoices/{id}/mark-paid [post]
func (h *InvoiceHandler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	invoice, err := h.invoiceService.MarkPaid(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "mark invoice paid")
		return
	}
	respondJSON(w, http.StatusOK, invoice)
}
