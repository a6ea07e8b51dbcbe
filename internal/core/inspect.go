package core

import (
	"strings"

	"github.com/julien-sobczak/mermaid-export/internal/dom"
	"github.com/julien-sobczak/mermaid-export/internal/mermaid"
	"golang.org/x/net/html"
)

// DiagramInfo describes a diagram attached to a control.
type DiagramInfo struct {
	Index    int // 1-based, in registration order
	Node     *html.Node
	Wrapper  string // ex: div.el-pre
	Type     string // ex: flowchart
	Strategy string
	Source   string
	Err      error
}

// Describe recovers the source of every registered diagram without exporting it.
func (e *Exporter) Describe() []DiagramInfo {
	var result []DiagramInfo
	for i, node := range e.registry.Nodes() {
		info := DiagramInfo{Index: i + 1, Node: node}
		_ = e.doc.View(func(root *html.Node) error {
			info.Wrapper = describeNode(node)
			return nil
		})

		source, err := ExtractSource(e.doc, node, e.editor)
		switch {
		case err != nil:
			info.Err = err
		case !mermaid.IsValid(source.Text):
			info.Err = ErrValidation
			info.Source = source.Text
		default:
			info.Type = mermaid.DiagramType(source.Text)
			info.Strategy = source.StrategyName
			info.Source = source.Text
		}
		result = append(result, info)
	}
	return result
}

// describeNode returns a CSS-like description (ex: div.el-pre).
func describeNode(n *html.Node) string {
	var sb strings.Builder
	sb.WriteString(n.Data)
	for _, class := range dom.Classes(n) {
		sb.WriteString(".")
		sb.WriteString(class)
	}
	return sb.String()
}
