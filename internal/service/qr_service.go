package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/miniforvaltaren/api/internal/qr"
	"github.com/miniforvaltaren/api/internal/storage"
	"go.uber.org/zap"
)

// QRCode is a rendered intake QR asset
type QRCode struct {
	Data        []byte
	ContentType string
	Format      qr.Format
	PropertyID  uuid.UUID
}

// QRService renders the QR code pointing at a property's public report form.
// PNGs are cached in storage; the intake token never changes, so entries never go stale.
type QRService struct {
	properties *PropertyService
	store      storage.Storage
	logger     *zap.Logger
}

func NewQRService(properties *PropertyService, store storage.Storage, logger *zap.Logger) *QRService {
	return &QRService{
		properties: properties,
		store:      store,
		logger:     logger,
	}
}

func (s *QRService) Render(ctx context.Context, propertyID uuid.UUID, formatName string, size int) (*QRCode, error) {
	format, err := qr.ParseFormat(formatName)
	if err != nil {
		return nil, NewValidationError("format", "Ogiltigt format")
	}
	size = qr.ClampSize(size)

	property, link, err := s.properties.IntakeLink(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	code := &QRCode{ContentType: format.ContentType(), Format: format, PropertyID: property.ID}

	if format != qr.FormatPNG || s.store == nil {
		code.Data, err = qr.Render(link, format, size)
		if err != nil {
			return nil, fmt.Errorf("failed to render qr: %w", err)
		}
		return code, nil
	}

	key := fmt.Sprintf("qr/%s-%d.png", property.ID, size)
	data, err := s.store.Get(ctx, key)
	if err == nil {
		code.Data = data
		return code, nil
	}
	if !errors.Is(err, storage.ErrObjectNotFound) {
		s.logger.Warn("qr cache read failed", zap.String("key", key), zap.Error(err))
	}

	data, err = qr.Render(link, format, size)
	if err != nil {
		return nil, fmt.Errorf("failed to render qr: %w", err)
	}
	if err := s.store.Put(ctx, key, code.ContentType, data); err != nil {
		s.logger.Warn("qr cache write failed", zap.String("key", key), zap.Error(err))
	}
	code.Data = data
	return code, nil
}
