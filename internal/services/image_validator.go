package services

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"regexp"
	"strings"

	_ "golang.org/x/image/webp"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/codyseavey/calculator/backend/internal/metrics"
	"github.com/codyseavey/calculator/backend/internal/models"
)

// ExpectedImageShape describes the accepted data URI format in error messages.
const ExpectedImageShape = "Invalid image format. Expected data:image/(png|jpeg);base64,..."

var dataURIPattern = regexp.MustCompile(`^data:image/(png|jpeg);base64,([A-Za-z0-9+/=]+)$`)

var numberPrinter = message.NewPrinter(language.English)

// ParseDataURI checks the data URI shape and decodes its base64 payload.
// Nothing is interpreted as an image here.
func ParseDataURI(uri string) ([]byte, error) {
	m := dataURIPattern.FindStringSubmatch(uri)
	if m == nil {
		infoLog("Invalid image data URI: %s", preview(uri, 50))
		return nil, newError(KindInvalidInputShape, ExpectedImageShape, nil)
	}
	data, err := base64.StdEncoding.DecodeString(m[2])
	if err != nil {
		infoLog("Failed to decode base64 image: %v", err)
		return nil, newError(KindInvalidInputShape, "Failed to decode base64 image", err)
	}
	return data, nil
}

// ImageValidator decodes images and enforces the format allow-list and pixel budget.
type ImageValidator struct {
	maxPixels      int
	allowedFormats []string
	allowed        map[string]bool
}

// NewImageValidator creates a validator. Formats are matched case-insensitively;
// "JPG" is treated as "JPEG".
func NewImageValidator(maxPixels int, allowedFormats []string) *ImageValidator {
	v := &ImageValidator{
		maxPixels: maxPixels,
		allowed:   make(map[string]bool, len(allowedFormats)),
	}
	for _, f := range allowedFormats {
		f = canonicalFormat(f)
		if !v.allowed[f] {
			v.allowed[f] = true
			v.allowedFormats = append(v.allowedFormats, f)
		}
	}
	return v
}

// AllowedFormats returns the configured formats in upper case.
func (v *ImageValidator) AllowedFormats() []string {
	return append([]string(nil), v.allowedFormats...)
}

// MaxPixels returns the configured pixel ceiling.
func (v *ImageValidator) MaxPixels() int {
	return v.maxPixels
}

// Validate identifies, checks and decodes image bytes. The header is inspected
// first so oversized or disallowed images are rejected before pixels are allocated.
func (v *ImageValidator) Validate(data []byte) (*models.DecodedImage, error) {
	debugLog("Validating image of size %d bytes", len(data))

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		metrics.ImageValidationsTotal.WithLabelValues(string(KindInvalidImage)).Inc()
		infoLog("Invalid image data: unable to identify image format (%v)", err)
		return nil, newError(KindInvalidImage, "Invalid image: Unable to identify image format", err)
	}

	name := canonicalFormat(format)
	if !v.allowed[name] {
		metrics.ImageValidationsTotal.WithLabelValues(string(KindUnsupportedFormat)).Inc()
		infoLog("Unsupported image format: %s", name)
		return nil, newError(KindUnsupportedFormat,
			fmt.Sprintf("Unsupported image format: %s. Allowed formats: %s", name, strings.Join(v.allowedFormats, ", ")), nil)
	}

	if cfg.Width*cfg.Height > v.maxPixels {
		metrics.ImageValidationsTotal.WithLabelValues(string(KindImageTooLarge)).Inc()
		infoLog("Image too large: %dx%d pixels", cfg.Width, cfg.Height)
		return nil, newError(KindImageTooLarge,
			fmt.Sprintf("Image is too large: %dx%d pixels exceeds %s pixel limit",
				cfg.Width, cfg.Height, numberPrinter.Sprintf("%d", v.maxPixels)), nil)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		metrics.ImageValidationsTotal.WithLabelValues(string(KindInvalidImage)).Inc()
		infoLog("Unexpected error decoding image: %v", err)
		return nil, newError(KindInvalidImage, fmt.Sprintf("Invalid image: %v", err), err)
	}

	b := img.Bounds()
	metrics.ImageValidationsTotal.WithLabelValues("ok").Inc()
	infoLog("Image validated successfully: %dx%d, format: %s", b.Dx(), b.Dy(), name)

	return &models.DecodedImage{
		Image:  img,
		Format: format,
		Width:  b.Dx(),
		Height: b.Dy(),
	}, nil
}

func canonicalFormat(f string) string {
	f = strings.ToUpper(strings.TrimSpace(f))
	if f == "JPG" {
		return "JPEG"
	}
	return f
}
