package qr

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"
	"strings"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
)

// Format is the rendered asset type
type Format string

const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

const (
	MinSize     = 128
	MaxSize     = 1024
	DefaultSize = 512

	quietZone = 4
)

// ErrUnknownFormat is returned for formats other than svg and png
var ErrUnknownFormat = errors.New("unknown qr format")

// ParseFormat accepts "svg" and "png" in any case; empty means svg
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "svg":
		return FormatSVG, nil
	case "png":
		return FormatPNG, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// ContentType returns the MIME type of the format
func (f Format) ContentType() string {
	if f == FormatPNG {
		return "image/png"
	}
	return "image/svg+xml"
}

// ClampSize keeps size within MinSize..MaxSize; zero means DefaultSize
func ClampSize(size int) int {
	switch {
	case size == 0:
		return DefaultSize
	case size < MinSize:
		return MinSize
	case size > MaxSize:
		return MaxSize
	}
	return size
}

// Render encodes content as a QR code in the requested format and pixel size
func Render(content string, format Format, size int) ([]byte, error) {
	code, err := qr.Encode(content, qr.M, qr.Auto)
	if err != nil {
		return nil, fmt.Errorf("failed to encode qr: %w", err)
	}
	size = ClampSize(size)

	switch format {
	case FormatPNG:
		return renderPNG(code, size)
	case FormatSVG:
		return renderSVG(code, size), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

func renderPNG(code barcode.Barcode, size int) ([]byte, error) {
	scaled, err := barcode.Scale(code, size, size)
	if err != nil {
		return nil, fmt.Errorf("failed to scale qr: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// renderSVG draws one rect per dark module on a viewBox in module units
func renderSVG(code barcode.Barcode, size int) []byte {
	bounds := code.Bounds()
	modules := bounds.Dx()
	total := modules + 2*quietZone

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" shape-rendering="crispEdges">`, size, size, total, total)
	fmt.Fprintf(&b, `<rect width="%d" height="%d" fill="#ffffff"/>`, total, total)
	b.WriteString(`<path fill="#000000" d="`)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if r, _, _, _ := code.At(x, y).RGBA(); r == 0 {
				fmt.Fprintf(&b, "M%d %dh1v1h-1z", x-bounds.Min.X+quietZone, y-bounds.Min.Y+quietZone)
			}
		}
	}
	b.WriteString(`"/></svg>`)
	return []byte(b.String())
}
