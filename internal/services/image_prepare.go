package services

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"

	"github.com/codyseavey/calculator/backend/internal/models"
)

// PreparedImage is the downscaled, re-encoded image sent to the model.
type PreparedImage struct {
	Data     []byte
	MIMEType string
	Format   string
	Width    int
	Height   int
}

// DataURI returns the image as a base64 data URI.
func (p PreparedImage) DataURI() string {
	return "data:" + p.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(p.Data)
}

// PrepareImage shrinks img so neither side exceeds maxDimension and re-encodes it
// in its original format. Images already within bounds are not upscaled.
// quality applies to JPEG only.
func PrepareImage(img *models.DecodedImage, maxDimension, quality int) (PreparedImage, error) {
	if img.Released() {
		return PreparedImage{}, newError(KindAnalysisFailed, "Failed to analyze image: image already released", nil)
	}

	src := img.Image
	w, h := fitWithin(img.Width, img.Height, maxDimension)
	if w != img.Width || h != img.Height {
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
		src = dst
		debugLog("Resized image from %dx%d to %dx%d", img.Width, img.Height, w, h)
	}

	var buf bytes.Buffer
	var err error
	switch img.Format {
	case "jpeg":
		err = jpeg.Encode(&buf, src, &jpeg.Options{Quality: quality})
	case "png":
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		err = enc.Encode(&buf, src)
	case "gif":
		err = gif.Encode(&buf, src, nil)
	default:
		return PreparedImage{}, newError(KindAnalysisFailed, fmt.Sprintf("Failed to analyze image: cannot encode format %q", img.Format), nil)
	}
	if err != nil {
		return PreparedImage{}, newError(KindAnalysisFailed, fmt.Sprintf("Failed to analyze image: %v", err), err)
	}

	return PreparedImage{
		Data:     buf.Bytes(),
		MIMEType: img.MIMEType(),
		Format:   img.Format,
		Width:    w,
		Height:   h,
	}, nil
}

// fitWithin scales (w, h) down so both sides are <= max, keeping the aspect ratio.
func fitWithin(w, h, max int) (int, int) {
	if max <= 0 || (w <= max && h <= max) {
		return w, h
	}
	if w >= h {
		nh := int(float64(h)*float64(max)/float64(w) + 0.5)
		if nh < 1 {
			nh = 1
		}
		return max, nh
	}
	nw := int(float64(w)*float64(max)/float64(h) + 0.5)
	if nw < 1 {
		nw = 1
	}
	return nw, max
}
