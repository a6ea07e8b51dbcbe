package mermaid

import "strings"

// Keywords opening each diagram family, lower-cased.
// Order matters for DiagramType: longer keywords before their prefixes.
var keywords = []string{
	"flowchart",
	"graph",
	"sequencediagram",
	"classdiagram",
	"statediagram-v2",
	"statediagram",
	"erdiagram",
	"timeline",
	"pie",
	"journey",
	"requirementdiagram",
	"c4context",
	"c4container",
	"c4component",
	"c4dynamic",
	"c4deployment",
	"mindmap",
	"quadrantchart",
	"gantt",
	"gitgraph",
}

// IsValid sniffs text for a diagram keyword.
// It does not parse the diagram.
func IsValid(text string) bool {
	return DiagramType(text) != ""
}

// DiagramType returns the first diagram keyword found in text or "".
func DiagramType(text string) string {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return ""
	}
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return keyword
		}
	}
	return ""
}

// StartsWithKeyword reports whether the first word of text is a diagram keyword.
// Stricter than IsValid, used to recognize generic code containers.
func StartsWithKeyword(text string) bool {
	text = strings.ToLower(strings.TrimSpace(text))
	for _, keyword := range keywords {
		if strings.HasPrefix(text, keyword) {
			return true
		}
	}
	return false
}
