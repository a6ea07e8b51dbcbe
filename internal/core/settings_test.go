package core

import (
	"testing"

	"github.com/julien-sobczak/mermaid-export/internal/medias"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuality(t *testing.T) {
	var tests = []struct {
		input    string
		expected Quality
		scale    float64
	}{
		{"low", QualityLow, 1.0},
		{"Medium", QualityMedium, 1.5},
		{" high ", QualityHigh, 2.0},
		{"maximum", QualityMaximum, 3.0},
		{"", QualityHigh, 2.0},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			quality, err := ParseQuality(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, quality)
			assert.Equal(t, tt.scale, quality.Scale())
		})
	}

	_, err := ParseQuality("ultra")
	assert.Error(t, err)
}

func TestExportSettingsSnapshot(t *testing.T) {
	settings := ExportSettings{
		Quality:  QualityMaximum,
		Format:   medias.FormatPNG,
		Folder:   "Attachments",
		Filename: "{noteName}",
	}
	snapshot := settings.Snapshot()
	assert.Equal(t, settings, snapshot)

	settings.Folder = "Elsewhere"
	assert.Equal(t, "Attachments", snapshot.Folder)
}

func TestNewExportSettings(t *testing.T) {
	var tests = []struct {
		name     string
		section  ConfigExport
		expected ExportSettings
	}{
		{
			name:    "Blank section",
			section: ConfigExport{},
			expected: ExportSettings{
				Quality:  QualityHigh,
				Format:   medias.FormatSVG,
				Filename: DefaultFilename,
			},
		},
		{
			name: "Raw values",
			section: ConfigExport{
				Quality:  "Maximum",
				Format:   "JPG",
				Folder:   "  Attachments/Diagrams ",
				Filename: " {noteSlug}-{date} ",
			},
			expected: ExportSettings{
				Quality:  QualityMaximum,
				Format:   medias.FormatJPEG,
				Folder:   "Attachments/Diagrams",
				Filename: "{noteSlug}-{date}",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings, err := NewExportSettings(tt.section)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, settings)
		})
	}

	_, err := NewExportSettings(ConfigExport{Quality: "ultra"})
	assert.ErrorContains(t, err, "unsupported quality")
	_, err = NewExportSettings(ConfigExport{Format: "gif"})
	assert.ErrorContains(t, err, "unsupported format")
}
