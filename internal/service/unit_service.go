package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/miniforvaltaren/api/internal/domain"
	"github.com/miniforvaltaren/api/internal/mapper"
	"github.com/miniforvaltaren/api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const msgDuplicateLabel = "Enheten finns redan i fastigheten"

type UnitService struct {
	clock
	db           *gorm.DB
	viewers      *LandlordService
	quota        *QuotaService
	propertyRepo *repository.PropertyRepository
	unitRepo     *repository.UnitRepository
	loc          *time.Location
	logger       *zap.Logger
}

func NewUnitService(
	db *gorm.DB,
	viewers *LandlordService,
	quota *QuotaService,
	propertyRepo *repository.PropertyRepository,
	unitRepo *repository.UnitRepository,
	loc *time.Location,
	logger *zap.Logger,
) *UnitService {
	return &UnitService{
		db:           db,
		viewers:      viewers,
		quota:        quota,
		propertyRepo: propertyRepo,
		unitRepo:     unitRepo,
		loc:          loc,
		logger:       logger,
	}
}

// Create adds one unit to a property the caller's landlord owns
func (s *UnitService) Create(ctx context.Context, req *domain.CreateUnitRequest) (*domain.UnitDTO, error) {
	label := strings.TrimSpace(req.Label)
	if label == "" {
		return nil, NewValidationError("label", "Ange en label, t.ex. A-101")
	}
	viewer, err := s.viewers.Authorize(ctx, domain.PermPropertyManage)
	if err != nil {
		return nil, err
	}

	property, err := s.propertyRepo.GetByID(ctx, viewer.LandlordID(), req.PropertyID)
	if err != nil {
		return nil, notFoundOr(err, "get property")
	}
	exists, err := s.unitRepo.LabelExists(ctx, property.ID, label)
	if err != nil {
		return nil, fmt.Errorf("failed to check label: %w", err)
	}
	if exists {
		return nil, NewValidationError("label", msgDuplicateLabel)
	}
	if err := s.quota.Guard(ctx, viewer.Landlord, domain.ResourceUnits, 1); err != nil {
		return nil, err
	}

	unit := &domain.Unit{PropertyID: property.ID, Label: label}
	if err := s.unitRepo.Create(ctx, nil, unit); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, NewValidationError("label", msgDuplicateLabel)
		}
		return nil, fmt.Errorf("failed to create unit: %w", err)
	}
	unit.Property = property

	dto := mapper.ToUnitDTO(unit, s.current(), s.loc)
	return &dto, nil
}

// BulkCreate adds one unit per non-blank line. Labels already present in the
// property, or repeated in the input, are skipped case-insensitively.
func (s *UnitService) BulkCreate(ctx context.Context, req *domain.BulkCreateUnitsRequest) (*domain.BulkUnitsResultDTO, error) {
	viewer, err := s.viewers.Authorize(ctx, domain.PermPropertyManage)
	if err != nil {
		return nil, err
	}
	labels := SplitLabels(req.Labels)
	if len(labels) == 0 {
		return nil, NewValidationError("labels", "Ange minst en label")
	}

	property, err := s.propertyRepo.GetByID(ctx, viewer.LandlordID(), req.PropertyID)
	if err != nil {
		return nil, notFoundOr(err, "get property")
	}
	existing, err := s.unitRepo.ListLabels(ctx, nil, property.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list labels: %w", err)
	}

	seen := make(map[string]bool, len(existing)+len(labels))
	for _, l := range existing {
		seen[strings.ToLower(l)] = true
	}
	result := &domain.BulkUnitsResultDTO{Created: []domain.UnitDTO{}, Skipped: []string{}}
	var toCreate []string
	for _, l := range labels {
		key := strings.ToLower(l)
		if seen[key] {
			result.Skipped = append(result.Skipped, l)
			continue
		}
		seen[key] = true
		toCreate = append(toCreate, l)
	}
	if len(toCreate) == 0 {
		return result, nil
	}

	if err := s.quota.Guard(ctx, viewer.Landlord, domain.ResourceUnits, len(toCreate)); err != nil {
		return nil, err
	}

	units := make([]domain.Unit, len(toCreate))
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, label := range toCreate {
			units[i] = domain.Unit{PropertyID: property.ID, Label: label}
			if err := s.unitRepo.Create(ctx, tx, &units[i]); err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return NewValidationError("labels", msgDuplicateLabel)
				}
				return fmt.Errorf("failed to create unit %q: %w", label, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	now := s.current()
	for i := range units {
		units[i].Property = property
		result.Created = append(result.Created, mapper.ToUnitDTO(&units[i], now, s.loc))
	}

	s.logger.Info("units created",
		zap.String("property_id", property.ID.String()),
		zap.Int("created", len(result.Created)),
		zap.Int("skipped", len(result.Skipped)))
	return result, nil
}

// List returns units across the landlord's properties with their active lease
func (s *UnitService) List(ctx context.Context, propertyID *uuid.UUID, query string) ([]domain.UnitDTO, error) {
	viewer, err := s.viewers.Require(ctx)
	if err != nil {
		return nil, err
	}
	units, err := s.unitRepo.List(ctx, viewer.LandlordID(), repository.UnitFilter{PropertyID: propertyID, Query: query})
	if err != nil {
		return nil, fmt.Errorf("failed to list units: %w", err)
	}

	now := s.current()
	dtos := make([]domain.UnitDTO, len(units))
	for i := range units {
		dtos[i] = mapper.ToUnitDTO(&units[i], now, s.loc)
	}
	return dtos, nil
}

// SplitLabels splits newline-separated input into trimmed, non-empty labels
func SplitLabels(raw string) []string {
	var labels []string
	for _, line := range strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n") {
		if l := strings.TrimSpace(line); l != "" {
			labels = append(labels, l)
		}
	}
	return labels
}
