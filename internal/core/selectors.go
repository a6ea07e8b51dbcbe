package core

import (
	"strings"

	"github.com/julien-sobczak/mermaid-export/internal/dom"
	"golang.org/x/net/html"
)

// Class names and attributes added to the host tree
const (
	ControlClass   = "mermaid-export-button"
	AnchorClass    = "mermaid-export-anchor"
	StagingClass   = "mermaid-export-staging"
	ControlIDAttr  = "data-mermaid-export-id"
	SourceDataAttr = "data-source"
)

// Matchers describing the markup of the host.
var (
	// Raw source blocks tagged for Mermaid
	isTaggedCode = dom.Or(
		dom.And(dom.Tag("code"), dom.Class("language-mermaid")),
		dom.And(dom.Tag("pre"), dom.Class("language-mermaid")),
	)

	// Wrappers around a rendered diagram
	isPreviewWrapper = dom.Or(
		dom.Class("block-language-mermaid"),
		dom.Class("cm-preview-code-block", "cm-lang-mermaid"),
		dom.Class("cm-embed-block", "cm-lang-mermaid"),
	)

	// Structural container around one source block and its rendered output
	isBlockWrapper = dom.Or(
		isPreviewWrapper,
		dom.Class("el-pre"),
		dom.Class("cm-embed-block"),
		dom.HasAttribute("data-block-container"),
		dom.Class("block-container"),
	)

	isBlockContainer = dom.Or(
		dom.HasAttribute("data-block-container"),
		dom.Class("block-container"),
	)

	isEditControl = dom.Class("edit-block-button")

	isActionBar = dom.Or(
		dom.Class("block-actions"),
		dom.Class("code-block-flair"),
		dom.Class("embed-actions"),
	)

	isEditorContainer = dom.Or(
		dom.Class("markdown-source-view"),
		dom.Class("markdown-preview-view"),
		dom.Class("cm-editor"),
	)

	isControl = dom.And(dom.Tag("button"), dom.Class(ControlClass))

	isAnchor = dom.Class(AnchorClass)

	// Nodes created by this program
	isOwned = dom.Or(
		dom.Class(ControlClass),
		dom.Class(AnchorClass),
		dom.Class(StagingClass),
	)
)

// isRenderedVector matches the SVG produced by Mermaid.
func isRenderedVector(n *html.Node) bool {
	if !dom.Tag("svg")(n) {
		return false
	}
	if id, ok := dom.Attr(n, "id"); ok && strings.HasPrefix(id, "mermaid") {
		return true
	}
	return n.Parent != nil && dom.HasClass(n.Parent, "mermaid")
}

// BlockWrapper returns the nearest block wrapper around the node (inclusive).
func BlockWrapper(n *html.Node) *html.Node {
	return dom.Closest(n, isBlockWrapper)
}

// IsOwned reports whether the node was created by this program
// or belongs to a subtree created by it.
func IsOwned(n *html.Node) bool {
	return dom.Closest(n, isOwned) != nil
}

func codeText(n *html.Node) string {
	return strings.TrimSpace(dom.TextContent(n))
}
