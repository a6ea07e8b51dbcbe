package medias

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/draw"
)

// Quality of JPEG exports (0.92 on a 0-1 scale).
const JPEGQuality = 92

// Surfaces above this number of pixels are refused (~ 8K x 8K).
const DefaultMaxPixels = 8192 * 8192

// Rasterizer draws SVG markup in memory using oksvg.
type Rasterizer struct {
	maxPixels int
	listeners []func(cmd string, args ...string)
}

func NewRasterizer() *Rasterizer {
	return &Rasterizer{
		maxPixels: DefaultMaxPixels,
	}
}

// WithMaxPixels overrides the largest surface accepted.
func (r *Rasterizer) WithMaxPixels(maxPixels int) *Rasterizer {
	r.maxPixels = maxPixels
	return r
}

func (r *Rasterizer) OnPreGeneration(fn func(cmd string, args ...string)) {
	r.listeners = append(r.listeners, fn)
}

func (r *Rasterizer) notifyListeners(cmd string, args ...string) {
	for _, fn := range r.listeners {
		fn(cmd, args...)
	}
}

// ToPNG converts the markup to a lossless PNG.
func (r *Rasterizer) ToPNG(markup string, scale float64) ([]byte, error) {
	img, err := r.draw("png", markup, scale)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// ToJPEG converts the markup to a JPEG.
// JPEG has no alpha channel: transparent areas become white.
func (r *Rasterizer) ToJPEG(markup string, scale float64) ([]byte, error) {
	img, err := r.draw("jpeg", markup, scale)
	if err != nil {
		return nil, err
	}
	flattened := image.NewRGBA(img.Bounds())
	draw.Draw(flattened, flattened.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(flattened, flattened.Bounds(), img, img.Bounds().Min, draw.Over)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, flattened, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Rasterizer) draw(format, markup string, scale float64) (*image.RGBA, error) {
	dimensions := ReadDimensions(markup).Scale(scale)
	r.notifyListeners("rasterize", format, dimensions.String())

	width, height := dimensions.Width, dimensions.Height
	if width <= 0 || height <= 0 || width*height > r.maxPixels {
		return nil, fmt.Errorf("%w: %s", ErrSurfaceUnavailable, dimensions)
	}

	// Go through a data reference like a browser would to load the image
	data, err := DecodeDataURI(DataURI(markup))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageLoad, err)
	}
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data), oksvg.IgnoreErrorMode)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageLoad, err)
	}

	icon.SetTarget(0, 0, float64(width), float64(height))
	rgba := image.NewRGBA(image.Rect(0, 0, width, height))
	icon.Draw(rasterx.NewDasher(width, height, rasterx.NewScannerGV(width, height, rgba, rgba.Bounds())), 1)
	return rgba, nil
}
