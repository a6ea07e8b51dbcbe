package medias

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMimeType(t *testing.T) {
	tests := []struct {
		extension string // input
		mimeType  string // output
	}{
		{".svg", "image/svg+xml"},
		{".PNG", "image/png"},
		{".jpg", "image/jpeg"},
		{".mp9999", "application/octet-stream"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.mimeType, MimeType(tt.extension))
	}
}
