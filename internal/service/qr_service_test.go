package service_test

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/miniforvaltaren/api/internal/domain"
	"github.com/miniforvaltaren/api/internal/qr"
	"github.com/miniforvaltaren/api/internal/service"
	"github.com/miniforvaltaren/api/internal/storage"
	"github.com/miniforvaltaren/api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func TestQRService_Render(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)

	s := newTestServices(t, withStore(store))
	fx := newLandlord(t, s.db, "agare@example.se", domain.PlanBasic)
	property := testutil.CreateProperty(t, s.db, fx.landlord, "Storgatan 12")

	t.Run("svg by default", func(t *testing.T) {
		code, err := s.qr.Render(fx.ctx, property.ID, "", 0)
		require.NoError(t, err)
		assert.Equal(t, qr.FormatSVG, code.Format)
		assert.Equal(t, "image/svg+xml", code.ContentType)
		assert.Contains(t, string(code.Data), "<svg")
	})

	t.Run("png is cached in storage", func(t *testing.T) {
		code, err := s.qr.Render(fx.ctx, property.ID, "PNG", 5000)
		require.NoError(t, err)
		assert.Equal(t, "image/png", code.ContentType)
		assert.True(t, bytes.HasPrefix(code.Data, pngMagic))

		cached := filepath.Join(dir, "qr", fmt.Sprintf("%s-%d.png", property.ID, qr.MaxSize))
		onDisk, err := os.ReadFile(cached)
		require.NoError(t, err)
		assert.Equal(t, code.Data, onDisk)

		again, err := s.qr.Render(fx.ctx, property.ID, "png", qr.MaxSize)
		require.NoError(t, err)
		assert.Equal(t, code.Data, again.Data)
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := s.qr.Render(fx.ctx, property.ID, "gif", 0)
		requireValidation(t, err, "format")
	})

	t.Run("property of another landlord", func(t *testing.T) {
		other := newLandlord(t, s.db, "granne@example.se", domain.PlanBasic)
		_, err := s.qr.Render(other.ctx, property.ID, "svg", 0)
		assert.ErrorIs(t, err, service.ErrNotFound)
	})
}

func TestQRService_RenderWithoutStore(t *testing.T) {
	s := newTestServices(t)
	fx := newLandlord(t, s.db, "agare@example.se", domain.PlanBasic)
	property := testutil.CreateProperty(t, s.db, fx.landlord, "Storgatan 12")

	code, err := s.qr.Render(fx.ctx, property.ID, "png", 256)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(code.Data, pngMagic))
}
