package core

import (
	"github.com/julien-sobczak/mermaid-export/internal/dom"
	"golang.org/x/net/html"
)

// How many ancestors to inspect when looking for a block container
const maxAncestorDepth = 10

// anchorStrategy returns an existing element next to which the control can be placed.
type anchorStrategy struct {
	name string
	fn   func(root, node, wrapper *html.Node) *html.Node
}

// First success wins.
var anchorStrategies = []anchorStrategy{
	{"edit control in wrapper", editControlInWrapper},
	{"ancestor container", ancestorContainer},
	{"edit control in document", editControlInDocument},
}

// editControlInWrapper uses the container of the host edit control.
func editControlInWrapper(root, node, wrapper *html.Node) *html.Node {
	if button := dom.Find(wrapper, isEditControl); button != nil {
		return button.Parent
	}
	return nil
}

// ancestorContainer walks up the tree looking for the edit control
// or a generic block container.
func ancestorContainer(root, node, wrapper *html.Node) *html.Node {
	c := node
	for depth := 0; c != nil && c != root && depth <= maxAncestorDepth; depth++ {
		if button := dom.Find(c, isEditControl); button != nil && belongsTo(button, wrapper) {
			return button.Parent
		}
		if isBlockContainer(c) {
			if bar := dom.ChildMatching(c, isActionBar); bar != nil {
				return bar
			}
			return c
		}
		c = c.Parent
	}
	return nil
}

// belongsTo accepts an edit control outside of any other diagram block.
func belongsTo(button, wrapper *html.Node) bool {
	buttonWrapper := BlockWrapper(button)
	return buttonWrapper == nil || dom.Contains(buttonWrapper, wrapper)
}

// editControlInDocument accepts an edit control anywhere in the document
// as long as it shares the block wrapper of the diagram.
func editControlInDocument(root, node, wrapper *html.Node) *html.Node {
	for _, button := range dom.FindAll(root, isEditControl) {
		if BlockWrapper(button) == wrapper {
			return button.Parent
		}
	}
	return nil
}

// ResolveAnchor returns the element receiving the control of the diagram.
// A container is synthesized in the block wrapper when the host offers none.
// It returns nil when the diagram is outside of any block wrapper.
func ResolveAnchor(tx *dom.Tx, node *html.Node) *html.Node {
	wrapper := BlockWrapper(node)
	if wrapper == nil {
		CurrentLogger().Debugf("No block wrapper found around <%s>, diagram ignored", node.Data)
		return nil
	}
	for _, strategy := range anchorStrategies {
		if anchor := strategy.fn(tx.Root(), node, wrapper); anchor != nil {
			CurrentLogger().Tracef("Anchor found using strategy %q", strategy.name)
			return anchor
		}
	}
	return SynthesizeAnchor(tx, wrapper)
}

// SynthesizeAnchor returns the anchor owned by this program in the wrapper,
// creating it on first use.
func SynthesizeAnchor(tx *dom.Tx, wrapper *html.Node) *html.Node {
	if anchor := dom.ChildMatching(wrapper, isAnchor); anchor != nil {
		return anchor
	}
	anchor := dom.NewElement("div",
		html.Attribute{Key: "class", Val: AnchorClass},
		html.Attribute{Key: "style", Val: "position:absolute;top:4px;right:4px;z-index:10"},
	)
	tx.AppendChild(wrapper, anchor)
	return anchor
}

// NewControl creates a detached export control.
func NewControl() *html.Node {
	control := dom.NewElement("button",
		html.Attribute{Key: "class", Val: ControlClass},
		html.Attribute{Key: "aria-label", Val: "Export diagram"},
		html.Attribute{Key: "title", Val: "Export diagram"},
	)
	control.AppendChild(dom.NewText("Export"))
	return control
}

// PlaceControl attaches a control in the anchor, right after the host edit
// control if present, else as first child. It returns the control present
// in the anchor and whether it was just created.
func PlaceControl(tx *dom.Tx, anchor *html.Node) (*html.Node, bool) {
	if existing := dom.ChildMatching(anchor, isControl); existing != nil {
		return existing, false
	}
	control := NewControl()
	if button := dom.ChildMatching(anchor, isEditControl); button != nil {
		tx.InsertAfter(anchor, control, button)
	} else {
		tx.Prepend(anchor, control)
	}
	return control, true
}
