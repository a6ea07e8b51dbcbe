package medias

import (
	"encoding/base64"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	svgNamespace   = "http://www.w3.org/2000/svg"
	xlinkNamespace = "http://www.w3.org/1999/xlink"
)

// ErrNotSVG is returned when the markup has no <svg> root element.
var ErrNotSVG = errors.New("no svg root element")

// rootTag locates the <svg> start tag inside markup.
type rootTag struct {
	start, end  int // byte offsets of the tag in the markup
	attrs       []xml.Attr
	selfClosing bool
}

func (r *rootTag) attr(prefix, local string) (string, bool) {
	for _, a := range r.attrs {
		if a.Name.Space == prefix && a.Name.Local == local {
			return a.Value, true
		}
	}
	return "", false
}

// findRootTag tokenizes the whole markup and returns the first <svg> start tag.
// The decoder is lenient about HTML entities because engines embed HTML
// labels (&nbsp;, <br>) inside foreignObject elements.
func findRootTag(markup string) (*rootTag, error) {
	decoder := xml.NewDecoder(strings.NewReader(markup))
	decoder.Strict = false
	decoder.AutoClose = xml.HTMLAutoClose
	decoder.Entity = xml.HTMLEntity

	var root *rootTag
	for {
		offset := decoder.InputOffset()
		token, err := decoder.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		start, ok := token.(xml.StartElement)
		if !ok || root != nil {
			continue
		}
		if start.Name.Local != "svg" {
			return nil, fmt.Errorf("%w: found <%s>", ErrNotSVG, start.Name.Local)
		}
		end := int(decoder.InputOffset())
		raw := markup[offset:end]
		root = &rootTag{
			start:       int(offset),
			end:         end,
			attrs:       start.Attr,
			selfClosing: strings.HasSuffix(strings.TrimSpace(raw), "/>"),
		}
	}
	if root == nil {
		return nil, ErrNotSVG
	}
	return root, nil
}

// Normalize makes a SVG self-contained and resizable.
//
// A viewBox is synthesized from width/height when missing and the SVG
// namespaces are declared. Only the root tag is rewritten. When the markup
// cannot be parsed, the original markup is returned along with the error
// so that callers can carry on with a warning.
func Normalize(markup string) (string, error) {
	root, err := findRootTag(markup)
	if err != nil {
		return markup, err
	}

	attrs := append([]xml.Attr{}, root.attrs...)

	if viewBox, ok := root.attr("", "viewBox"); !ok || strings.TrimSpace(viewBox) == "" {
		width, okWidth := parseLength(root.attr("", "width"))
		height, okHeight := parseLength(root.attr("", "height"))
		if okWidth && okHeight {
			attrs = setAttr(attrs, xml.Name{Local: "viewBox"}, fmt.Sprintf("0 0 %s %s", formatNumber(width), formatNumber(height)))
		}
	}

	if _, ok := root.attr("", "xmlns"); !ok {
		attrs = setAttr(attrs, xml.Name{Local: "xmlns"}, svgNamespace)
	}
	if strings.Contains(markup, "xlink:") {
		if _, ok := root.attr("xmlns", "xlink"); !ok {
			attrs = setAttr(attrs, xml.Name{Space: "xmlns", Local: "xlink"}, xlinkNamespace)
		}
	}

	return markup[:root.start] + formatRootTag(attrs, root.selfClosing) + markup[root.end:], nil
}

func setAttr(attrs []xml.Attr, name xml.Name, value string) []xml.Attr {
	for i, a := range attrs {
		if a.Name == name {
			attrs[i].Value = value
			return attrs
		}
	}
	return append(attrs, xml.Attr{Name: name, Value: value})
}

func formatRootTag(attrs []xml.Attr, selfClosing bool) string {
	var sb strings.Builder
	sb.WriteString("<svg")
	for _, a := range attrs {
		sb.WriteByte(' ')
		if a.Name.Space != "" {
			sb.WriteString(a.Name.Space)
			sb.WriteByte(':')
		}
		sb.WriteString(a.Name.Local)
		sb.WriteString(`="`)
		_ = xml.EscapeText(&sb, []byte(a.Value))
		sb.WriteByte('"')
	}
	if selfClosing {
		sb.WriteString("/>")
	} else {
		sb.WriteString(">")
	}
	return sb.String()
}

// parseLength reads an absolute SVG length ("120", "120.5px").
// Relative lengths like "100%" are rejected.
func parseLength(value string, ok bool) (float64, bool) {
	if !ok {
		return 0, false
	}
	value = strings.TrimSuffix(strings.TrimSpace(value), "px")
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f <= 0 {
		return 0, false
	}
	return f, true
}

func parseViewBox(value string) (Size, bool) {
	fields := strings.FieldsFunc(value, func(r rune) bool {
		return r == ' ' || r == ',' || r == '\t' || r == '\n'
	})
	if len(fields) != 4 {
		return Size{}, false
	}
	width, errWidth := strconv.ParseFloat(fields[2], 64)
	height, errHeight := strconv.ParseFloat(fields[3], 64)
	if errWidth != nil || errHeight != nil || width <= 0 || height <= 0 {
		return Size{}, false
	}
	return Size{Width: width, Height: height}, true
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ReadDimensions returns the intrinsic size of a SVG:
// the viewBox first, then width/height, then DefaultSize.
func ReadDimensions(markup string) Size {
	root, err := findRootTag(markup)
	if err != nil {
		return DefaultSize
	}
	if viewBox, ok := root.attr("", "viewBox"); ok {
		if size, ok := parseViewBox(viewBox); ok {
			return size
		}
	}
	width, okWidth := parseLength(root.attr("", "width"))
	height, okHeight := parseLength(root.attr("", "height"))
	if okWidth && okHeight {
		return Size{Width: width, Height: height}
	}
	return DefaultSize
}

// DataURI encodes SVG markup as a self-contained data reference.
func DataURI(markup string) string {
	return "data:" + FormatSVG.MimeType() + ";base64," + base64.StdEncoding.EncodeToString([]byte(markup))
}

// DecodeDataURI returns the bytes of a base64 data reference.
func DecodeDataURI(uri string) ([]byte, error) {
	header, payload, found := strings.Cut(uri, ",")
	if !found || !strings.HasPrefix(header, "data:") || !strings.HasSuffix(header, ";base64") {
		return nil, fmt.Errorf("unsupported data reference %.32q", uri)
	}
	return base64.StdEncoding.DecodeString(payload)
}

// Artifact is a normalized diagram ready to be converted or persisted.
type Artifact struct {
	Markup     string
	Dimensions Size
}

// NewArtifact normalizes the markup returned by an engine.
// The error is a warning: the artifact is still usable.
func NewArtifact(markup string) (Artifact, error) {
	normalized, err := Normalize(markup)
	return Artifact{
		Markup:     normalized,
		Dimensions: ReadDimensions(normalized),
	}, err
}
