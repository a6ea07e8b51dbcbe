// Package dom wraps a golang.org/x/net/html tree owned by a host application.
//
// Nodes are plain identity handles. Nothing here keeps a node alive or
// assumes it is still attached: callers check reachability on demand with
// IsReachable before relying on a node found during a previous pass.
package dom

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Matcher is a predicate over nodes.
type Matcher func(n *html.Node) bool

// Tag matches elements with one of the given tag names.
func Tag(names ...string) Matcher {
	return func(n *html.Node) bool {
		if n == nil || n.Type != html.ElementNode {
			return false
		}
		for _, name := range names {
			if n.Data == name {
				return true
			}
		}
		return false
	}
}

// Class matches elements carrying every given class.
func Class(classes ...string) Matcher {
	return func(n *html.Node) bool {
		for _, class := range classes {
			if !HasClass(n, class) {
				return false
			}
		}
		return len(classes) > 0
	}
}

// HasAttribute matches elements declaring the attribute, whatever its value.
func HasAttribute(key string) Matcher {
	return func(n *html.Node) bool {
		_, ok := Attr(n, key)
		return ok
	}
}

// And matches when all matchers match.
func And(matchers ...Matcher) Matcher {
	return func(n *html.Node) bool {
		for _, m := range matchers {
			if !m(n) {
				return false
			}
		}
		return true
	}
}

// Or matches when at least one matcher matches.
func Or(matchers ...Matcher) Matcher {
	return func(n *html.Node) bool {
		for _, m := range matchers {
			if m(n) {
				return true
			}
		}
		return false
	}
}

// Attr returns the value of an attribute.
func Attr(n *html.Node, key string) (string, bool) {
	if n == nil || n.Type != html.ElementNode {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr adds or overrides an attribute.
// Attribute changes are not reported as mutations.
func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// Classes returns the class list of an element.
func Classes(n *html.Node) []string {
	class, _ := Attr(n, "class")
	return strings.Fields(class)
}

// HasClass reports whether the element has the class.
func HasClass(n *html.Node, class string) bool {
	for _, c := range Classes(n) {
		if c == class {
			return true
		}
	}
	return false
}

// NewElement creates a detached element.
func NewElement(tag string, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
		Attr:     attrs,
	}
}

// NewText creates a detached text node.
func NewText(data string) *html.Node {
	return &html.Node{
		Type: html.TextNode,
		Data: data,
	}
}

// TextContent concatenates the text of all descendants.
func TextContent(n *html.Node) string {
	if n == nil {
		return ""
	}
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		for ; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				sb.WriteString(c.Data)
			}
			walk(c.FirstChild)
		}
	}
	walk(n.FirstChild)
	return sb.String()
}

// Closest returns the first node matching among n and its ancestors.
func Closest(n *html.Node, m Matcher) *html.Node {
	for c := n; c != nil; c = c.Parent {
		if m(c) {
			return c
		}
	}
	return nil
}

// ClosestWithin is Closest bounded to maxDepth ancestors (n itself excluded).
func ClosestWithin(n *html.Node, m Matcher, maxDepth int) *html.Node {
	c := n
	for depth := 0; depth < maxDepth && c != nil; depth++ {
		c = c.Parent
		if c != nil && m(c) {
			return c
		}
	}
	return nil
}

// Find returns the first descendant of root matching, in document order.
// root itself is not tested.
func Find(root *html.Node, m Matcher) *html.Node {
	if root == nil {
		return nil
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if m(c) {
			return c
		}
		if found := Find(c, m); found != nil {
			return found
		}
	}
	return nil
}

// FindAll returns all descendants of root matching, in document order.
// root itself is not tested.
func FindAll(root *html.Node, m Matcher) []*html.Node {
	var result []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if m(c) {
				result = append(result, c)
			}
			walk(c)
		}
	}
	if root != nil {
		walk(root)
	}
	return result
}

// ChildMatching returns the first direct element child matching.
func ChildMatching(n *html.Node, m Matcher) *html.Node {
	if n == nil {
		return nil
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && m(c) {
			return c
		}
	}
	return nil
}

// Contains reports whether b is a inclusive descendant of a.
func Contains(a, b *html.Node) bool {
	if a == nil || b == nil {
		return false
	}
	for c := b; c != nil; c = c.Parent {
		if c == a {
			return true
		}
	}
	return false
}

// IsReachable reports whether the node is still attached under root.
func IsReachable(root, n *html.Node) bool {
	return Contains(root, n)
}
