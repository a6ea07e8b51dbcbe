package medias

import (
	"github.com/julien-sobczak/mermaid-export/internal/helpers"
)

// RandomConverter generates files containing fake data.
// Useful in tests to avoid waiting for a real rasterization.
type RandomConverter struct {
	listeners []func(cmd string, args ...string)
	Err       error
}

func NewRandomConverter() *RandomConverter {
	return &RandomConverter{}
}

func (c *RandomConverter) OnPreGeneration(fn func(cmd string, args ...string)) {
	c.listeners = append(c.listeners, fn)
}

func (c *RandomConverter) notifyListeners(cmd string, args ...string) {
	for _, fn := range c.listeners {
		fn(cmd, args...)
	}
}

func (c *RandomConverter) ToPNG(markup string, scale float64) ([]byte, error) {
	return c.toFakeImage("png", markup, scale)
}

func (c *RandomConverter) ToJPEG(markup string, scale float64) ([]byte, error) {
	return c.toFakeImage("jpeg", markup, scale)
}

func (c *RandomConverter) toFakeImage(format, markup string, scale float64) ([]byte, error) {
	dimensions := ReadDimensions(markup).Scale(scale)
	c.notifyListeners("convert", format, dimensions.String())
	if c.Err != nil {
		return nil, c.Err
	}
	return []byte(helpers.Hash([]byte(markup))), nil
}
