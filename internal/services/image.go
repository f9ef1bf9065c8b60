package services

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"os"
	"strings"

	_ "image/jpeg"
	_ "image/png"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"

	"storefront/internal/logger"
)

// ImageService resizes uploaded product images and renders placeholder
// images for products without one.
type ImageService interface {
	ResizeImage(raw []byte, width, height int) ([]byte, error)
	GeneratePlaceholder(label string, width, height int) ([]byte, error)
}

type imageService struct {
	log      *logger.Logger
	fontFace font.Face
}

// NewImageService loads the placeholder font from fontPath. An empty
// path is allowed; placeholders then render without a label.
func NewImageService(log *logger.Logger, fontPath string) (ImageService, error) {
	serviceLog := log.With("service", "ImageService")

	var face font.Face
	if strings.TrimSpace(fontPath) != "" {
		loaded, err := loadFontFace(fontPath, 36)
		if err != nil {
			return nil, fmt.Errorf("could not load placeholder font: %w", err)
		}
		face = loaded
	} else {
		serviceLog.Warn("PLACEHOLDER_FONT not set, placeholders will have no label")
	}

	return &imageService{log: serviceLog, fontFace: face}, nil
}

func (is *imageService) ResizeImage(raw []byte, width, height int) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("width and height must be positive")
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)

	var out bytes.Buffer
	dc := gg.NewContextForRGBA(dst)
	if err := dc.EncodePNG(&out); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return out.Bytes(), nil
}

func (is *imageService) GeneratePlaceholder(label string, width, height int) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("width and height must be positive")
	}
	dc := gg.NewContext(width, height)

	dc.SetColor(color.NRGBA{R: 0xE5, G: 0xE7, B: 0xEB, A: 0xFF})
	dc.DrawRectangle(0, 0, float64(width), float64(height))
	dc.Fill()

	if is.fontFace != nil && strings.TrimSpace(label) != "" {
		dc.SetFontFace(is.fontFace)
		tw, th := dc.MeasureString(label)
		cx, cy := float64(width)/2, float64(height)/2
		dc.SetColor(color.NRGBA{R: 0x6B, G: 0x72, B: 0x80, A: 0xFF})
		dc.DrawString(label, cx-(tw/2), cy+(th/2))
	}

	var out bytes.Buffer
	if err := dc.EncodePNG(&out); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return out.Bytes(), nil
}

func loadFontFace(fontPath string, size float64) (font.Face, error) {
	fontBytes, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read font file: %w", err)
	}
	parsedFont, err := truetype.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TTF: %w", err)
	}
	return truetype.NewFace(parsedFont, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	}), nil
}
