package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/miniforvaltaren/api/internal/domain"
	"github.com/miniforvaltaren/api/internal/mapper"
	"github.com/miniforvaltaren/api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type TicketService struct {
	clock
	viewers      *LandlordService
	ticketRepo   *repository.TicketRepository
	propertyRepo *repository.PropertyRepository
	unitRepo     *repository.UnitRepository
	tenantRepo   *repository.TenantRepository
	logger       *zap.Logger
}

func NewTicketService(
	viewers *LandlordService,
	ticketRepo *repository.TicketRepository,
	propertyRepo *repository.PropertyRepository,
	unitRepo *repository.UnitRepository,
	tenantRepo *repository.TenantRepository,
	logger *zap.Logger,
) *TicketService {
	return &TicketService{
		viewers:      viewers,
		ticketRepo:   ticketRepo,
		propertyRepo: propertyRepo,
		unitRepo:     unitRepo,
		tenantRepo:   tenantRepo,
		logger:       logger,
	}
}

// Create opens a ticket. A unit must sit in the named property; a tenant must
// belong to the same landlord.
func (s *TicketService) Create(ctx context.Context, req *domain.CreateTicketRequest) (*domain.TicketDTO, error) {
	viewer, err := s.viewers.Authorize(ctx, domain.PermTicketCreate)
	if err != nil {
		return nil, err
	}
	landlordID := viewer.LandlordID()

	property, err := s.propertyRepo.GetByID(ctx, landlordID, req.PropertyID)
	if err != nil {
		return nil, notFoundOr(err, "get property")
	}
	if err := s.checkRefs(ctx, landlordID, property.ID, req.UnitID, req.TenantID); err != nil {
		return nil, err
	}

	ticket := &domain.Ticket{
		LandlordID:  landlordID,
		PropertyID:  property.ID,
		UnitID:      req.UnitID,
		TenantID:    req.TenantID,
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Status:      domain.TicketStatusOpen,
	}
	if err := s.ticketRepo.Create(ctx, ticket); err != nil {
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}

	return s.reload(ctx, landlordID, ticket.ID)
}

func (s *TicketService) Get(ctx context.Context, id uuid.UUID) (*domain.TicketDTO, error) {
	viewer, err := s.viewers.Require(ctx)
	if err != nil {
		return nil, err
	}
	return s.reload(ctx, viewer.LandlordID(), id)
}

// List filters by status, property and a free-text query over title and description
func (s *TicketService) List(ctx context.Context, status string, propertyID *uuid.UUID, query string) ([]domain.TicketDTO, error) {
	viewer, err := s.viewers.Require(ctx)
	if err != nil {
		return nil, err
	}
	filter := repository.TicketFilter{PropertyID: propertyID, Query: query}
	if status != "" {
		st, ok := domain.ParseTicketStatus(status)
		if !ok {
			return nil, NewValidationError("status", "Ogiltig status")
		}
		filter.Status = &st
	}

	tickets, err := s.ticketRepo.List(ctx, viewer.LandlordID(), filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	dtos := make([]domain.TicketDTO, len(tickets))
	for i := range tickets {
		dtos[i] = mapper.ToTicketDTO(&tickets[i])
	}
	return dtos, nil
}

// Update rewrites title, description and the optional unit and tenant
func (s *TicketService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateTicketRequest) (*domain.TicketDTO, error) {
	viewer, err := s.viewers.Authorize(ctx, domain.PermTicketUpdate)
	if err != nil {
		return nil, err
	}
	landlordID := viewer.LandlordID()

	ticket, err := s.ticketRepo.GetByID(ctx, landlordID, id)
	if err != nil {
		return nil, notFoundOr(err, "get ticket")
	}
	if err := s.checkRefs(ctx, landlordID, ticket.PropertyID, req.UnitID, req.TenantID); err != nil {
		return nil, err
	}

	ticket.Title = strings.TrimSpace(req.Title)
	ticket.Description = strings.TrimSpace(req.Description)
	ticket.UnitID = req.UnitID
	ticket.TenantID = req.TenantID
	if err := s.ticketRepo.UpdateDetails(ctx, ticket); err != nil {
		return nil, notFoundOr(err, "update ticket")
	}

	return s.reload(ctx, landlordID, id)
}

// UpdateStatus moves the ticket along its lifecycle. Entering CLOSED stamps
// closedAt; leaving it clears the stamp. Repeating the current state is a no-op.
func (s *TicketService) UpdateStatus(ctx context.Context, id uuid.UUID, statusName string) (*domain.TicketDTO, error) {
	next, ok := domain.ParseTicketStatus(statusName)
	if !ok {
		return nil, NewValidationError("status", "Ogiltig status")
	}
	viewer, err := s.viewers.Authorize(ctx, domain.PermTicketUpdate)
	if err != nil {
		return nil, err
	}
	landlordID := viewer.LandlordID()

	ticket, err := s.ticketRepo.GetByID(ctx, landlordID, id)
	if err != nil {
		return nil, notFoundOr(err, "get ticket")
	}
	if ticket.Status == next {
		dto := mapper.ToTicketDTO(ticket)
		return &dto, nil
	}
	if !ticket.Status.CanTransitionTo(next) {
		return nil, ErrInvalidTransition
	}

	closedAt := ticket.ClosedAt
	switch {
	case next == domain.TicketStatusClosed:
		now := s.current()
		closedAt = &now
	case ticket.Status == domain.TicketStatusClosed:
		closedAt = nil
	}
	if err := s.ticketRepo.UpdateStatus(ctx, landlordID, id, ticket.Status, next, closedAt); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if _, getErr := s.ticketRepo.GetByID(ctx, landlordID, id); getErr != nil {
				return nil, notFoundOr(getErr, "get ticket")
			}
			return nil, ErrInvalidTransition
		}
		return nil, fmt.Errorf("failed to update ticket status: %w", err)
	}

	s.logger.Info("ticket status changed",
		zap.String("ticket_id", id.String()),
		zap.String("from", string(ticket.Status)),
		zap.String("to", string(next)))

	return s.reload(ctx, landlordID, id)
}

func (s *TicketService) Delete(ctx context.Context, id uuid.UUID) error {
	viewer, err := s.viewers.Authorize(ctx, domain.PermTicketDelete)
	if err != nil {
		return err
	}
	if err := s.ticketRepo.Delete(ctx, viewer.LandlordID(), id); err != nil {
		return notFoundOr(err, "delete ticket")
	}
	return nil
}

func (s *TicketService) checkRefs(ctx context.Context, landlordID, propertyID uuid.UUID, unitID, tenantID *uuid.UUID) error {
	if unitID != nil {
		unit, err := s.unitRepo.GetByID(ctx, nil, landlordID, *unitID)
		if err != nil {
			return notFoundOr(err, "get unit")
		}
		if unit.PropertyID != propertyID {
			return NewValidationError("unitId", "Ogiltig enhet")
		}
	}
	if tenantID != nil {
		if _, err := s.tenantRepo.GetByID(ctx, nil, landlordID, *tenantID); err != nil {
			return notFoundOr(err, "get tenant")
		}
	}
	return nil
}

func (s *TicketService) reload(ctx context.Context, landlordID, id uuid.UUID) (*domain.TicketDTO, error) {
	ticket, err := s.ticketRepo.GetByID(ctx, landlordID, id)
	if err != nil {
		return nil, notFoundOr(err, "get ticket")
	}
	dto := mapper.ToTicketDTO(ticket)
	return &dto, nil
}
