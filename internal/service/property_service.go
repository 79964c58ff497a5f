package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/miniforvaltaren/api/internal/domain"
	"github.com/miniforvaltaren/api/internal/mapper"
	"github.com/miniforvaltaren/api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type PropertyService struct {
	clock
	db           *gorm.DB
	viewers      *LandlordService
	quota        *QuotaService
	propertyRepo *repository.PropertyRepository
	unitRepo     *repository.UnitRepository
	leaseRepo    *repository.LeaseRepository
	baseURL      string
	loc          *time.Location
	logger       *zap.Logger
}

func NewPropertyService(
	db *gorm.DB,
	viewers *LandlordService,
	quota *QuotaService,
	propertyRepo *repository.PropertyRepository,
	unitRepo *repository.UnitRepository,
	leaseRepo *repository.LeaseRepository,
	baseURL string,
	loc *time.Location,
	logger *zap.Logger,
) *PropertyService {
	return &PropertyService{
		db:           db,
		viewers:      viewers,
		quota:        quota,
		propertyRepo: propertyRepo,
		unitRepo:     unitRepo,
		leaseRepo:    leaseRepo,
		baseURL:      strings.TrimRight(baseURL, "/"),
		loc:          loc,
		logger:       logger,
	}
}

// Create adds a property with a fresh intake token
func (s *PropertyService) Create(ctx context.Context, req *domain.CreatePropertyRequest) (*domain.PropertyDTO, error) {
	viewer, err := s.viewers.Authorize(ctx, domain.PermPropertyManage)
	if err != nil {
		return nil, err
	}
	if err := s.quota.Guard(ctx, viewer.Landlord, domain.ResourceProperties, 1); err != nil {
		return nil, err
	}

	token, err := newIntakeToken()
	if err != nil {
		return nil, err
	}
	property := &domain.Property{
		LandlordID:  viewer.LandlordID(),
		Name:        strings.TrimSpace(req.Name),
		Address:     strings.TrimSpace(req.Address),
		IntakeToken: token,
	}
	if err := s.propertyRepo.Create(ctx, property); err != nil {
		return nil, fmt.Errorf("failed to create property: %w", err)
	}

	s.logger.Info("property created",
		zap.String("landlord_id", property.LandlordID.String()),
		zap.String("property_id", property.ID.String()))

	dto := mapper.ToPropertyDTO(property, 0, s.baseURL)
	return &dto, nil
}

// Get returns the property with its units and their leases
func (s *PropertyService) Get(ctx context.Context, id uuid.UUID) (*domain.PropertyDetailDTO, error) {
	viewer, err := s.viewers.Require(ctx)
	if err != nil {
		return nil, err
	}
	landlordID := viewer.LandlordID()

	property, err := s.propertyRepo.GetByID(ctx, landlordID, id)
	if err != nil {
		return nil, notFoundOr(err, "get property")
	}
	units, err := s.unitRepo.List(ctx, landlordID, repository.UnitFilter{PropertyID: &id})
	if err != nil {
		return nil, fmt.Errorf("failed to list units: %w", err)
	}
	now := s.current()
	leases, err := s.leaseRepo.List(ctx, landlordID, repository.LeaseFilter{PropertyID: &id, Now: now})
	if err != nil {
		return nil, fmt.Errorf("failed to list leases: %w", err)
	}

	detail := &domain.PropertyDetailDTO{
		PropertyDTO: mapper.ToPropertyDTO(property, len(units), s.baseURL),
		Units:       make([]domain.UnitDTO, len(units)),
		Leases:      make([]domain.LeaseDTO, len(leases)),
	}
	for i := range units {
		detail.Units[i] = mapper.ToUnitDTO(&units[i], now, s.loc)
	}
	for i := range leases {
		detail.Leases[i] = mapper.ToLeaseDTO(&leases[i], now, s.loc)
	}
	return detail, nil
}

// List returns a page of properties with unit counts
func (s *PropertyService) List(ctx context.Context, page, pageSize int) (*domain.PaginatedResponse, error) {
	viewer, err := s.viewers.Require(ctx)
	if err != nil {
		return nil, err
	}
	page, pageSize = repository.NormalizePage(page, pageSize)

	properties, total, err := s.propertyRepo.List(ctx, viewer.LandlordID(), page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}

	ids := make([]uuid.UUID, len(properties))
	for i := range properties {
		ids[i] = properties[i].ID
	}
	counts, err := s.unitRepo.CountByProperty(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to count units: %w", err)
	}

	dtos := make([]domain.PropertyDTO, len(properties))
	for i := range properties {
		dtos[i] = mapper.ToPropertyDTO(&properties[i], counts[properties[i].ID], s.baseURL)
	}

	return &domain.PaginatedResponse{
		Data:       dtos,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: int(math.Ceil(float64(total) / float64(pageSize))),
	}, nil
}

func (s *PropertyService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdatePropertyRequest) (*domain.PropertyDTO, error) {
	viewer, err := s.viewers.Authorize(ctx, domain.PermPropertyManage)
	if err != nil {
		return nil, err
	}
	landlordID := viewer.LandlordID()

	err = s.propertyRepo.Update(ctx, landlordID, id, strings.TrimSpace(req.Name), strings.TrimSpace(req.Address))
	if err != nil {
		return nil, notFoundOr(err, "update property")
	}
	property, err := s.propertyRepo.GetByID(ctx, landlordID, id)
	if err != nil {
		return nil, notFoundOr(err, "get property")
	}
	counts, err := s.unitRepo.CountByProperty(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, fmt.Errorf("failed to count units: %w", err)
	}

	dto := mapper.ToPropertyDTO(property, counts[id], s.baseURL)
	return &dto, nil
}

// Delete removes the property with its units, leases, invoices, payments and tickets
func (s *PropertyService) Delete(ctx context.Context, id uuid.UUID) error {
	viewer, err := s.viewers.Authorize(ctx, domain.PermPropertyManage)
	if err != nil {
		return err
	}
	landlordID := viewer.LandlordID()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.propertyRepo.Delete(ctx, tx, landlordID, id)
	})
	if err != nil {
		return notFoundOr(err, "delete property")
	}

	s.logger.Info("property deleted",
		zap.String("landlord_id", landlordID.String()),
		zap.String("property_id", id.String()))
	return nil
}

// IntakeLink returns the public report URL of a scoped property
func (s *PropertyService) IntakeLink(ctx context.Context, id uuid.UUID) (*domain.Property, string, error) {
	viewer, err := s.viewers.Require(ctx)
	if err != nil {
		return nil, "", err
	}
	property, err := s.propertyRepo.GetByID(ctx, viewer.LandlordID(), id)
	if err != nil {
		return nil, "", notFoundOr(err, "get property")
	}
	return property, mapper.IntakeURL(s.baseURL, property.IntakeToken), nil
}
