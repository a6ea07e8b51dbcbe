package core

import (
	"fmt"
	"strings"

	"github.com/jinzhu/copier"
	"github.com/julien-sobczak/mermaid-export/internal/medias"
)

// Quality is the resolution tier used when rasterizing.
type Quality string

const (
	QualityLow     Quality = "low"
	QualityMedium  Quality = "medium"
	QualityHigh    Quality = "high"
	QualityMaximum Quality = "maximum"
)

var Qualities = []Quality{QualityLow, QualityMedium, QualityHigh, QualityMaximum}

var qualityScales = map[Quality]float64{
	QualityLow:     1.0,
	QualityMedium:  1.5,
	QualityHigh:    2.0,
	QualityMaximum: 3.0,
}

func ParseQuality(s string) (Quality, error) {
	q := Quality(strings.ToLower(strings.TrimSpace(s)))
	if q == "" {
		return QualityHigh, nil
	}
	if _, ok := qualityScales[q]; !ok {
		return "", fmt.Errorf("unsupported quality %q", s)
	}
	return q, nil
}

// Scale returns the multiplier applied to the intrinsic size of a diagram.
func (q Quality) Scale() float64 {
	if scale, ok := qualityScales[q]; ok {
		return scale
	}
	return qualityScales[QualityHigh]
}

// ExportSettings are the user preferences applied to an export.
type ExportSettings struct {
	Quality Quality
	Format  medias.Format
	// Folder inside the vault. Empty means direct download.
	Folder string
	// Filename supports {noteName}, {noteSlug}, {timestamp}, {date}, {time}.
	Filename string
}

// DefaultFilename is used when the template is blank.
const DefaultFilename = "{noteName}-{timestamp}"

func DefaultExportSettings() ExportSettings {
	return ExportSettings{
		Quality:  QualityHigh,
		Format:   medias.FormatSVG,
		Filename: DefaultFilename,
	}
}

// Snapshot returns a copy isolated from later changes.
// All fields are values.
func (s ExportSettings) Snapshot() ExportSettings {
	return s
}

// settingsConverters parse the raw strings of the configuration file.
var settingsConverters = []copier.TypeConverter{
	{
		SrcType: "",
		DstType: Quality(""),
		Fn: func(src interface{}) (interface{}, error) {
			return ParseQuality(src.(string))
		},
	},
	{
		SrcType: "",
		DstType: medias.Format(""),
		Fn: func(src interface{}) (interface{}, error) {
			return medias.ParseFormat(src.(string))
		},
	},
}

// NewExportSettings maps the [export] section of the configuration file.
func NewExportSettings(section ConfigExport) (ExportSettings, error) {
	var settings ExportSettings
	if err := copier.CopyWithOption(&settings, &section, copier.Option{Converters: settingsConverters}); err != nil {
		return ExportSettings{}, err
	}
	settings.Folder = strings.TrimSpace(settings.Folder)
	settings.Filename = strings.TrimSpace(settings.Filename)
	if settings.Filename == "" {
		settings.Filename = DefaultFilename
	}
	return settings, nil
}
