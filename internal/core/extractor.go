package core

import (
	"strings"

	"github.com/julien-sobczak/mermaid-export/internal/dom"
	"github.com/julien-sobczak/mermaid-export/internal/mermaid"
	"github.com/julien-sobczak/mermaid-export/pkg/markdown"
	"golang.org/x/net/html"
)

// Editor gives access to the note currently displayed by the host.
type Editor interface {
	// RawText returns the full Markdown text of the note.
	RawText() (string, error)
	// NoteName returns the display name of the note.
	NoteName() string
}

// Source is the diagram text recovered for a node.
type Source struct {
	Text string
	// Index of the strategy in the extraction chain.
	// Lower means more confident.
	Strategy int
	// Name of the strategy, for logging.
	StrategyName string
}

type extraction struct {
	root   *html.Node
	node   *html.Node
	editor Editor
}

type extractStrategy struct {
	name string
	fn   func(x extraction) string
}

// Ordered from the most to the least reliable.
var extractStrategies = []extractStrategy{
	{"preview block", extractFromPreviewBlock},
	{"tagged code", extractFromTaggedCode},
	{"raw block ancestor", extractFromRawBlock},
	{"node itself", extractFromNode},
	{"rendered vector", extractFromRenderedVector},
	{"editor text", extractFromEditor},
	{"whole document", extractFromDocument},
}

// firstValid returns the text of the first node whose content is a diagram.
func firstValid(nodes []*html.Node) string {
	for _, n := range nodes {
		if text := codeText(n); mermaid.IsValid(text) {
			return text
		}
	}
	return ""
}

// extractFromPreviewBlock reads the source kept by the host around a rendered block.
func extractFromPreviewBlock(x extraction) string {
	preview := dom.Closest(x.node, isPreviewWrapper)
	if preview == nil {
		preview = dom.Find(x.node, isPreviewWrapper)
	}
	if preview == nil {
		return ""
	}
	if code := dom.Find(preview, isTaggedCode); code != nil {
		if text := codeText(code); text != "" {
			return text
		}
	}
	if container := dom.Closest(preview, isEditorContainer); container != nil {
		if text := firstValid(dom.FindAll(container, isTaggedCode)); text != "" {
			return text
		}
	}
	for _, n := range []*html.Node{preview, x.node} {
		if source, ok := dom.Attr(n, SourceDataAttr); ok {
			return source
		}
	}
	return ""
}

func extractFromTaggedCode(x extraction) string {
	if isTaggedCode(x.node) {
		return codeText(x.node)
	}
	return codeText(dom.Find(x.node, isTaggedCode))
}

// extractFromRawBlock reads the code of the nearest <pre> when it contains a keyword.
func extractFromRawBlock(x extraction) string {
	block := dom.Closest(x.node, dom.Or(dom.Tag("pre"), dom.Class("el-pre")))
	if block == nil {
		return ""
	}
	code := dom.Find(block, dom.Tag("code"))
	if text := codeText(code); mermaid.IsValid(text) {
		return text
	}
	return ""
}

func extractFromNode(x extraction) string {
	if dom.And(dom.Tag("code"), isTaggedCode)(x.node) {
		return codeText(x.node)
	}
	return ""
}

// extractFromRenderedVector searches around the rendered SVG.
func extractFromRenderedVector(x extraction) string {
	vector := x.node
	if !isRenderedVector(vector) {
		vector = dom.Find(x.node, isRenderedVector)
	}
	if vector == nil {
		return ""
	}
	container := BlockWrapper(vector.Parent)
	if container == nil {
		return ""
	}
	if text := firstValid(dom.FindAll(container, dom.Tag("pre", "code"))); text != "" {
		return text
	}
	view := dom.Closest(container, isEditorContainer)
	if view == nil {
		return ""
	}
	return firstValid(dom.FindAll(view, isTaggedCode))
}

// extractFromEditor scans the raw note for fenced Mermaid blocks.
// It returns the first diagram of the note, which is only correct for
// notes containing a single diagram.
func extractFromEditor(x extraction) string {
	if x.editor == nil {
		return ""
	}
	text, err := x.editor.RawText()
	if err != nil {
		CurrentLogger().Debugf("Unable to read editor content: %v", err)
		return ""
	}
	for _, block := range markdown.FencedBlocks(text, "mermaid") {
		if mermaid.IsValid(block) {
			return block
		}
	}
	return ""
}

// extractFromDocument accepts any tagged code sharing the block wrapper of the node.
func extractFromDocument(x extraction) string {
	wrapper := BlockWrapper(x.node)
	if wrapper == nil {
		return ""
	}
	for _, code := range dom.FindAll(x.root, isTaggedCode) {
		codeWrapper := BlockWrapper(code)
		if codeWrapper == nil {
			continue
		}
		if dom.Contains(wrapper, codeWrapper) || dom.Contains(codeWrapper, wrapper) {
			if text := codeText(code); text != "" {
				return text
			}
		}
	}
	return ""
}

// ExtractSource recovers the diagram text of the node.
// The tree is only read. It returns ErrExtraction when all strategies fail.
func ExtractSource(doc *dom.Document, node *html.Node, editor Editor) (Source, error) {
	var result Source
	err := doc.View(func(root *html.Node) error {
		x := extraction{root: root, node: node, editor: editor}
		for i, strategy := range extractStrategies {
			text := strings.TrimSpace(strategy.fn(x))
			if text == "" {
				continue
			}
			result = Source{Text: text, Strategy: i, StrategyName: strategy.name}
			return nil
		}
		return ErrExtraction
	})
	if err != nil {
		return Source{}, err
	}
	CurrentLogger().Debugf("Source found using strategy %q", result.StrategyName)
	return result, nil
}
