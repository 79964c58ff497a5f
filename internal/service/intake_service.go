package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/miniforvaltaren/api/internal/domain"
	"github.com/miniforvaltaren/api/internal/metrics"
	"github.com/miniforvaltaren/api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// IntakeService serves the anonymous report form reached through a property's
// QR code. The intake token is the only credential.
type IntakeService struct {
	clock
	propertyRepo *repository.PropertyRepository
	leaseRepo    *repository.LeaseRepository
	ticketRepo   *repository.TicketRepository
	metrics      *metrics.Metrics
	logger       *zap.Logger
}

func NewIntakeService(
	propertyRepo *repository.PropertyRepository,
	leaseRepo *repository.LeaseRepository,
	ticketRepo *repository.TicketRepository,
	m *metrics.Metrics,
	logger *zap.Logger,
) *IntakeService {
	return &IntakeService{
		propertyRepo: propertyRepo,
		leaseRepo:    leaseRepo,
		ticketRepo:   ticketRepo,
		metrics:      m,
		logger:       logger,
	}
}

// Form returns the property name and unit choices for a token
func (s *IntakeService) Form(ctx context.Context, token string) (*domain.IntakeFormDTO, error) {
	property, err := s.lookup(ctx, token)
	if err != nil {
		return nil, err
	}
	form := &domain.IntakeFormDTO{
		PropertyName: property.Name,
		Units:        make([]domain.IntakeUnitDTO, len(property.Units)),
	}
	for i, u := range property.Units {
		form.Units[i] = domain.IntakeUnitDTO{ID: u.ID, Label: u.Label}
	}
	return form, nil
}

// Submit files an OPEN ticket against the token's property. A unit outside the
// property is ignored. When the unit has an active lease its tenant is linked.
func (s *IntakeService) Submit(ctx context.Context, token string, req *domain.PublicTicketRequest) (uuid.UUID, error) {
	property, err := s.lookup(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.metrics.IntakeTicket(metrics.IntakeInvalidToken)
		}
		return uuid.Nil, err
	}

	ticket := &domain.Ticket{
		LandlordID:  property.LandlordID,
		PropertyID:  property.ID,
		Title:       strings.TrimSpace(req.Title),
		Description: ReportDescription(req),
		Status:      domain.TicketStatusOpen,
	}

	if req.UnitID != nil && hasUnit(property, *req.UnitID) {
		unitID := *req.UnitID
		ticket.UnitID = &unitID
		lease, err := s.leaseRepo.FindActiveForUnit(ctx, property.LandlordID, unitID, s.current())
		switch {
		case err == nil:
			tenantID := lease.TenantID
			ticket.TenantID = &tenantID
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return uuid.Nil, fmt.Errorf("failed to find active lease: %w", err)
		}
	}

	if err := s.ticketRepo.Create(ctx, ticket); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create ticket: %w", err)
	}

	s.metrics.IntakeTicket(metrics.IntakeCreated)
	s.logger.Info("public report received",
		zap.String("landlord_id", property.LandlordID.String()),
		zap.String("property_id", property.ID.String()),
		zap.String("ticket_id", ticket.ID.String()),
		zap.Bool("tenant_matched", ticket.TenantID != nil))
	return ticket.ID, nil
}

// RecordInvalidForm counts a submission rejected by validation
func (s *IntakeService) RecordInvalidForm() {
	s.metrics.IntakeTicket(metrics.IntakeInvalidForm)
}

func (s *IntakeService) lookup(ctx context.Context, token string) (*domain.Property, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrNotFound
	}
	property, err := s.propertyRepo.GetByIntakeToken(ctx, token)
	if err != nil {
		return nil, notFoundOr(err, "get property by token")
	}
	return property, nil
}

func hasUnit(property *domain.Property, unitID uuid.UUID) bool {
	for _, u := range property.Units {
		if u.ID == unitID {
			return true
		}
	}
	return false
}

// ReportDescription appends the reporter's contact details, when given,
// under a "Kontaktuppgifter:" heading
func ReportDescription(req *domain.PublicTicketRequest) string {
	var contact []string
	if name := strings.TrimSpace(req.Name); name != "" {
		contact = append(contact, "Namn: "+name)
	}
	if email := strings.TrimSpace(req.Email); email != "" {
		contact = append(contact, "E-post: "+email)
	}
	if phone := strings.TrimSpace(req.Phone); phone != "" {
		contact = append(contact, "Telefon: "+phone)
	}

	description := strings.TrimSpace(req.Description)
	if len(contact) == 0 {
		return description
	}
	return description + "\n\nKontaktuppgifter:\n" + strings.Join(contact, "\n")
}
