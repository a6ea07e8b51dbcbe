package medias

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Format is an output format of an exported diagram.
type Format string

const (
	FormatSVG  Format = "svg"
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
)

var Formats = []Format{FormatSVG, FormatPNG, FormatJPEG}

// ParseFormat accepts the usual spellings of the supported formats.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "svg":
		return FormatSVG, nil
	case "png":
		return FormatPNG, nil
	case "jpeg", "jpg":
		return FormatJPEG, nil
	}
	return "", fmt.Errorf("unsupported format %q", s)
}

// Extension returns the file extension including the leading dot.
func (f Format) Extension() string {
	switch f {
	case FormatPNG:
		return ".png"
	case FormatJPEG:
		return ".jpg"
	}
	return ".svg"
}

// Raster reports whether the format requires rasterization.
func (f Format) Raster() bool {
	return f == FormatPNG || f == FormatJPEG
}

func (f Format) MimeType() string {
	return MimeType(f.Extension())
}

// Dimensions regroups the width and height of an image.
type Dimensions struct {
	Width  int
	Height int
}

// Zero returns if the dimensions are not available.
func (d Dimensions) Zero() bool {
	return d.Height == 0 && d.Width == 0
}

func (d Dimensions) String() string {
	return fmt.Sprintf("%dx%d", d.Width, d.Height)
}

// Size is the intrinsic size of a vector image in user units.
type Size struct {
	Width  float64
	Height float64
}

// DefaultSize is used when a SVG declares neither a viewBox nor a size.
var DefaultSize = Size{Width: 800, Height: 600}

// Scale returns the pixel dimensions of the size multiplied by factor.
func (s Size) Scale(factor float64) Dimensions {
	return Dimensions{
		Width:  int(math.Round(s.Width * factor)),
		Height: int(math.Round(s.Height * factor)),
	}
}

var (
	// ErrImageLoad is returned when the vector markup cannot be decoded as an image.
	ErrImageLoad = errors.New("unable to load image")
	// ErrSurfaceUnavailable is returned when no drawing surface can be allocated.
	ErrSurfaceUnavailable = errors.New("drawing surface unavailable")
)

// Converter turns SVG markup into raster images.
type Converter interface {
	OnPreGeneration(func(cmd string, args ...string))
	ToPNG(markup string, scale float64) ([]byte, error)
	ToJPEG(markup string, scale float64) ([]byte, error)
}

// Convert dispatches to the converter method matching the raster format.
func Convert(c Converter, markup string, format Format, scale float64) ([]byte, error) {
	switch format {
	case FormatPNG:
		return c.ToPNG(markup, scale)
	case FormatJPEG:
		return c.ToJPEG(markup, scale)
	}
	return nil, fmt.Errorf("format %q is not a raster format", format)
}
