package services

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"
)

// testImage returns a w x h image with a diagonal stroke so it is not uniform.
func testImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.White)
		}
	}
	for i := 0; i < w && i < h; i++ {
		img.Set(i, i, color.Black)
	}
	return img
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, testImage(w, h)); err != nil {
		t.Fatalf("Failed to encode png: %v", err)
	}
	return buf.Bytes()
}

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, testImage(w, h), nil); err != nil {
		t.Fatalf("Failed to encode jpeg: %v", err)
	}
	return buf.Bytes()
}

func encodeGIF(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := gif.Encode(&buf, testImage(w, h), nil); err != nil {
		t.Fatalf("Failed to encode gif: %v", err)
	}
	return buf.Bytes()
}

func TestParseDataURI(t *testing.T) {
	payload := []byte("hello image")
	encoded := base64.StdEncoding.EncodeToString(payload)

	tests := []struct {
		name    string
		uri     string
		wantErr string
	}{
		{name: "png data uri", uri: "data:image/png;base64," + encoded},
		{name: "jpeg data uri", uri: "data:image/jpeg;base64," + encoded},
		{name: "gif media type rejected", uri: "data:image/gif;base64," + encoded, wantErr: ExpectedImageShape},
		{name: "jpg media type rejected", uri: "data:image/jpg;base64," + encoded, wantErr: ExpectedImageShape},
		{name: "missing prefix", uri: encoded, wantErr: ExpectedImageShape},
		{name: "empty payload", uri: "data:image/png;base64,", wantErr: ExpectedImageShape},
		{name: "url-safe alphabet rejected", uri: "data:image/png;base64,ab-_", wantErr: ExpectedImageShape},
		{name: "whitespace rejected", uri: "data:image/png;base64,aGVs bG8=", wantErr: ExpectedImageShape},
		{name: "bad padding", uri: "data:image/png;base64,abc", wantErr: "Failed to decode base64 image"},
		{name: "empty string", uri: "", wantErr: ExpectedImageShape},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := ParseDataURI(tt.uri)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("expected error %q, got nil", tt.wantErr)
				}
				if err.Error() != tt.wantErr {
					t.Errorf("expected error %q, got %q", tt.wantErr, err.Error())
				}
				if !IsKind(err, KindInvalidInputShape) {
					t.Errorf("expected invalid input shape kind, got %s", KindOf(err))
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !bytes.Equal(data, payload) {
				t.Errorf("decoded payload mismatch: %q", data)
			}
		})
	}
}

func TestImageValidatorAcceptsAllowedFormats(t *testing.T) {
	v := NewImageValidator(10_000_000, []string{"png", "jpg"})

	if got := strings.Join(v.AllowedFormats(), ","); got != "PNG,JPEG" {
		t.Errorf("expected canonical formats PNG,JPEG, got %s", got)
	}

	tests := []struct {
		name   string
		data   []byte
		format string
	}{
		{name: "png", data: encodePNG(t, 40, 20), format: "png"},
		{name: "jpeg", data: encodeJPEG(t, 40, 20), format: "jpeg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := v.Validate(tt.data)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if img.Format != tt.format {
				t.Errorf("expected format %s, got %s", tt.format, img.Format)
			}
			if img.Width != 40 || img.Height != 20 || img.Pixels() != 800 {
				t.Errorf("unexpected dimensions %dx%d", img.Width, img.Height)
			}
			if img.MIMEType() != "image/"+tt.format {
				t.Errorf("unexpected mime type %s", img.MIMEType())
			}
		})
	}
}

func TestImageValidatorRejects(t *testing.T) {
	validPNG := encodePNG(t, 50, 50)

	tests := []struct {
		name      string
		maxPixels int
		data      []byte
		kind      ErrorKind
		message   string
	}{
		{
			name:      "unidentifiable bytes",
			maxPixels: 10_000_000,
			data:      []byte("definitely not an image"),
			kind:      KindInvalidImage,
			message:   "Invalid image: Unable to identify image format",
		},
		{
			name:      "gif is not allowed",
			maxPixels: 10_000_000,
			data:      encodeGIF(t, 10, 10),
			kind:      KindUnsupportedFormat,
			message:   "Unsupported image format: GIF. Allowed formats: PNG, JPEG",
		},
		{
			name:      "too many pixels",
			maxPixels: 1000,
			data:      validPNG,
			kind:      KindImageTooLarge,
			message:   "Image is too large: 50x50 pixels exceeds 1,000 pixel limit",
		},
		{
			name:      "truncated pixel data",
			maxPixels: 10_000_000,
			data:      validPNG[:len(validPNG)/2],
			kind:      KindInvalidImage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewImageValidator(tt.maxPixels, []string{"PNG", "JPEG"})
			img, err := v.Validate(tt.data)
			if err == nil {
				t.Fatalf("expected error, got image %+v", img)
			}
			if !IsKind(err, tt.kind) {
				t.Errorf("expected kind %s, got %s (%v)", tt.kind, KindOf(err), err)
			}
			if tt.message != "" && err.Error() != tt.message {
				t.Errorf("expected message %q, got %q", tt.message, err.Error())
			}
			if tt.message == "" && !strings.HasPrefix(err.Error(), "Invalid image: ") {
				t.Errorf("expected Invalid image prefix, got %q", err.Error())
			}
		})
	}
}

func TestImageValidatorPixelLimitIsInclusive(t *testing.T) {
	v := NewImageValidator(2500, []string{"PNG"})
	if _, err := v.Validate(encodePNG(t, 50, 50)); err != nil {
		t.Errorf("image exactly at the limit should pass, got %v", err)
	}
	if _, err := v.Validate(encodePNG(t, 51, 50)); !IsKind(err, KindImageTooLarge) {
		t.Errorf("image one column over the limit should fail, got %v", err)
	}
}

func TestImageValidatorAllowsGIFWhenConfigured(t *testing.T) {
	v := NewImageValidator(10_000_000, []string{"PNG", "GIF"})
	img, err := v.Validate(encodeGIF(t, 8, 8))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if img.Format != "gif" {
		t.Errorf("expected gif, got %s", img.Format)
	}
}
