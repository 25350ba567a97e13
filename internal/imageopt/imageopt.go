// Package imageopt downscales raster images for EPUB packaging. Images keep
// their format so manifest media types and file extensions stay valid.
package imageopt

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"strings"

	"github.com/disintegration/imaging"
)

const (
	defaultJPEGQuality = 90
	defaultMaxPixels   = 100 * 1000 * 1000 // 100 megapixels
)

// Optimizer downscales images wider than MaxWidth.
type Optimizer struct {
	MaxWidth    int
	JPEGQuality int
	MaxPixels   int // total pixel count limit for decode (width * height)
}

// Image holds the result of FitWidth.
// Warning is set when the input was returned unchanged because it could not
// be processed; Data is usable either way.
type Image struct {
	Data    []byte
	Width   int
	Height  int
	Format  string
	Resized bool
	Warning string
}

// New creates an optimizer for maxWidth. A non-positive width disables
// resizing.
func New(maxWidth int) *Optimizer {
	if maxWidth < 0 {
		maxWidth = 0
	}
	return &Optimizer{
		MaxWidth:    maxWidth,
		JPEGQuality: defaultJPEGQuality,
		MaxPixels:   defaultMaxPixels,
	}
}

// FitWidth scales input down to MaxWidth, preserving the aspect ratio.
// Only JPEG and PNG are re-encoded; other formats, narrow images and
// undecodable data pass through. Only encoding failures return an error.
func (o *Optimizer) FitWidth(mediaType string, input []byte) (Image, error) {
	out := Image{Data: input, Format: mediaTypeToFormat(mediaType)}
	if out.Format == "" {
		return out, nil
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(input))
	if err != nil {
		out.Warning = fmt.Sprintf("image decode failed: %v", err)
		return out, nil
	}
	out.Width, out.Height = cfg.Width, cfg.Height
	if o.MaxWidth <= 0 || cfg.Width <= o.MaxWidth {
		return out, nil
	}
	pixels := uint64(cfg.Width) * uint64(cfg.Height)
	if o.MaxPixels > 0 && pixels > uint64(o.MaxPixels) {
		out.Warning = fmt.Sprintf("image too large to decode: %dx%d (%d pixels)", cfg.Width, cfg.Height, pixels)
		return out, nil
	}

	src, err := imaging.Decode(bytes.NewReader(input), imaging.AutoOrientation(true))
	if err != nil {
		out.Warning = fmt.Sprintf("image decode failed: %v", err)
		return out, nil
	}
	resized := imaging.Resize(src, o.MaxWidth, 0, imaging.Lanczos)

	var data []byte
	switch out.Format {
	case "jpeg":
		data, err = encodeJPEG(resized, o.JPEGQuality)
		if err != nil {
			return out, fmt.Errorf("jpeg encode failed: %w", err)
		}
	case "png":
		data, err = encodePNG(resized)
		if err != nil {
			return out, fmt.Errorf("png encode failed: %w", err)
		}
	}

	out.Data = data
	out.Width = resized.Bounds().Dx()
	out.Height = resized.Bounds().Dy()
	out.Resized = true
	return out, nil
}

func mediaTypeToFormat(mediaType string) string {
	switch strings.ToLower(mediaType) {
	case "image/jpeg", "image/jpg":
		return "jpeg"
	case "image/png":
		return "png"
	default:
		return ""
	}
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	encoder := png.Encoder{CompressionLevel: png.BestCompression}
	if err := encoder.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
