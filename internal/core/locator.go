package core

import (
	"github.com/julien-sobczak/mermaid-export/internal/dom"
	"github.com/julien-sobczak/mermaid-export/internal/mermaid"
	"golang.org/x/exp/slices"
	"golang.org/x/net/html"
)

// locateStrategy returns candidate diagram nodes found under root.
type locateStrategy struct {
	name string
	fn   func(root *html.Node) []*html.Node
}

// Strategies are independent. A diagram matched by several is processed once.
var locateStrategies = []locateStrategy{
	{"raw source blocks", func(root *html.Node) []*html.Node {
		return dom.FindAll(root, isTaggedCode)
	}},
	{"rendered vectors", func(root *html.Node) []*html.Node {
		return dom.FindAll(root, isRenderedVector)
	}},
	{"preview wrappers", func(root *html.Node) []*html.Node {
		return dom.FindAll(root, isPreviewWrapper)
	}},
	{"keyword containers", func(root *html.Node) []*html.Node {
		return dom.FindAll(root, func(n *html.Node) bool {
			if !dom.Tag("pre", "code")(n) && !dom.And(dom.Tag("div"), dom.Class("mermaid"))(n) {
				return false
			}
			return mermaid.StartsWithKeyword(dom.TextContent(n))
		})
	}},
}

// Locate returns the diagrams present under root and not registered yet,
// in document order of their first match.
//
// Every match is canonicalized to its nearest block wrapper. Rendered
// vectors are replaced by the host at any time, the wrapper is stable.
// Matches outside of any block wrapper (ex: inline code in prose) are ignored.
func Locate(root *html.Node, registry *Registry) []*html.Node {
	var result []*html.Node
	for _, strategy := range locateStrategies {
		for _, match := range strategy.fn(root) {
			if IsOwned(match) {
				continue
			}
			node := BlockWrapper(match)
			if node == nil || slices.Contains(result, node) {
				continue
			}
			if registry != nil && registry.Covers(node) {
				continue
			}
			result = append(result, node)
		}
	}
	return removeNested(result)
}

// removeNested drops candidates contained in another candidate
// (ex: a <code> inside a <pre> both starting with a keyword).
func removeNested(nodes []*html.Node) []*html.Node {
	var result []*html.Node
	for _, n := range nodes {
		nested := slices.ContainsFunc(nodes, func(other *html.Node) bool {
			return other != n && dom.Contains(other, n)
		})
		if !nested {
			result = append(result, n)
		}
	}
	return result
}
