package markdown

import (
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// ToHTML converts a Markdown document to HTML.
// Fenced code blocks are rendered as <pre><code class="language-xxx">.
func ToHTML(md string) string {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags,
	})
	result := markdown.ToHTML([]byte(md), p, renderer)
	return strings.TrimSpace(string(result))
}
