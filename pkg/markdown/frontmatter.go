package markdown

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// FrontMatter represents the YAML Front Matter of a note.
type FrontMatter string

// SplitFrontMatter separates the Front Matter from the body.
// The Front Matter is empty when the note doesn't start with a "---" line.
func SplitFrontMatter(md string) (FrontMatter, string) {
	md = strings.TrimPrefix(md, "\ufeff")
	lines := strings.SplitAfter(md, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "---" {
		return "", md
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			return FrontMatter(strings.Join(lines[1:i], "")), strings.Join(lines[i+1:], "")
		}
	}
	// Unterminated Front Matter = plain text
	return "", md
}

func (f FrontMatter) AsMap() (map[string]any, error) {
	var attributes = make(map[string]any)
	if err := yaml.Unmarshal([]byte(f), attributes); err != nil {
		return nil, err
	}
	return attributes, nil
}

// Title returns the "title" attribute if defined as a string.
func (f FrontMatter) Title() string {
	if f == "" {
		return ""
	}
	attributes, err := f.AsMap()
	if err != nil {
		return ""
	}
	title, ok := attributes["title"].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(title)
}
