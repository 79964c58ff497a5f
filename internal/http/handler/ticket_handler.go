package handler

import (
	"net/http"
	"strings"

	"github.com/miniforvaltaren/api/internal/domain"
	"github.com/miniforvaltaren/api/internal/service"
	"go.uber.org/zap"
)

// TicketHandler handles maintenance tickets for signed-in landlord staff
type TicketHandler struct {
	ticketService *service.TicketService
	logger        *zap.Logger
}

func NewTicketHandler(ticketService *service.TicketService, logger *zap.Logger) *TicketHandler {
	return &TicketHandler{
		ticketService: ticketService,
		logger:        logger,
	}
}

// List godoc
// @Summary List tickets
// @Description Newest first, at most 100
// @Tags Tickets
// @Produce json
// @Param status query string false "Ticket status" Enums(open, in_progress, closed)
// @Param propertyId query string false "Filter by property" format(uuid)
// @Param q query string false "Search title and description"
// @Success 200 {object} domain.ListResponse{data=[]domain.TicketDTO}
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Router /tickets [get]
func (h *TicketHandler) List(w http.ResponseWriter, r *http.Request) {
	propertyID, ok := queryID(w, r, "propertyId")
	if !ok {
		return
	}

	q := r.URL.Query()
	tickets, err := h.ticketService.List(r.Context(), q.Get("status"), propertyID, strings.TrimSpace(q.Get("q")))
	if err != nil {
		handleServiceError(w, h.logger, err, "list tickets")
		return
	}
	respondJSON(w, http.StatusOK, domain.ListResponse{Data: tickets, Count: len(tickets)})
}

// Create godoc
// @Summary Create ticket
// @Tags Tickets
// @Accept json
// @Produce json
// @Param request body domain.CreateTicketRequest true "Ticket data"
// @Success 201 {object} domain.TicketDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /tickets [post]
func (h *TicketHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateTicketRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ticket, err := h.ticketService.Create(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "create ticket")
		return
	}
	w.Header().Set("Location", "/api/v1/tickets/"+ticket.ID.String())
	respondJSON(w, http.StatusCreated, ticket)
}

// Get godoc
// @Summary Get ticket
// @Tags Tickets
// @Produce json
// @Param id path string true "Ticket ID" format(uuid)
// @Success 200 {object} domain.TicketDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /tickets/{id} [get]
func (h *TicketHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	ticket, err := h.ticketService.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, h.logger, err, "get ticket")
		return
	}
	respondJSON(w, http.StatusOK, ticket)
}

// Update godoc
// @Summary Update ticket details
// @Tags Tickets
// @Accept json
// @Produce json
// @Param id path string true "Ticket ID" format(uuid)
// @Param request body domain.UpdateTicketRequest true "Ticket data"
// @Success 200 {object} domain.TicketDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /tickets/{id} [put]
func (h *TicketHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req domain.UpdateTicketRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ticket, err := h.ticketService.Update(r.Context(), id, &req)
	if err != nil {
		handleServiceError(w, h.logger, err, "update ticket")
		return
	}
	respondJSON(w, http.StatusOK, ticket)
}

// UpdateStatus godoc
// @Summary Change ticket status
// @Description CLOSED sets closedAt; any other status clears it. A closed ticket must be reopened before work resumes.
// @Tags Tickets
// @Accept json
// @Produce json
// @Param id path string true "Ticket ID" format(uuid)
// @Param request body domain.UpdateTicketStatusRequest true "New status"
// @Success 200 {object} domain.TicketDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError "Transition not allowed"
// @Security BearerAuth
// @Router /tickets/{id}/status [put]
func (h *TicketHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req domain.UpdateTicketStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ticket, err := h.ticketService.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		handleServiceError(w, h.logger, err, "update ticket status")
		return
	}
	respondJSON(w, http.StatusOK, ticket)
}

// Delete godoc
// @Summary Delete ticket
// @Tags Tickets
// @Param id path string true "Ticket ID" format(uuid)
// @Success 204
// @Failure 403 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /tickets/{id} [delete]
func (h *TicketHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.ticketService.Delete(r.Context(), id); err != nil {
		handleServiceError(w, h.logger, err, "delete ticket")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
