package core

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/julien-sobczak/mermaid-export/internal/dom"
	"github.com/julien-sobczak/mermaid-export/pkg/markdown"
	"github.com/julien-sobczak/mermaid-export/pkg/text"
	"golang.org/x/net/html"
)

// Note is a Markdown file displayed like the reading view of a note application.
// It implements Editor.
type Note struct {
	path string

	mu      sync.RWMutex
	content string
}

// ReadNote loads a note from disk.
func ReadNote(path string) (*Note, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return NewNote(path, string(content)), nil
}

// NewNote creates a note from its content. The path is only used to name it.
func NewNote(path, content string) *Note {
	return &Note{
		path:    path,
		content: content,
	}
}

// Reload rereads the file and returns the new content.
func (n *Note) Reload() (string, error) {
	content, err := os.ReadFile(n.path)
	if err != nil {
		return "", err
	}
	n.mu.Lock()
	n.content = string(content)
	n.mu.Unlock()
	return string(content), nil
}

func (n *Note) Path() string {
	return n.path
}

func (n *Note) RawText() (string, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.content, nil
}

// NoteName returns the title declared in the Front Matter or the file name.
func (n *Note) NoteName() string {
	n.mu.RLock()
	frontMatter, _ := markdown.SplitFrontMatter(n.content)
	n.mu.RUnlock()
	if title := frontMatter.Title(); title != "" {
		return title
	}
	return text.TrimExtension(filepath.Base(n.path))
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head><title>{{.Title}}</title></head>
<body>
<div class="workspace-leaf">
<div class="markdown-reading-view">
<div class="markdown-preview-view markdown-rendered">
<div class="markdown-preview-sizer"></div>
</div>
</div>
</div>
</body>
</html>`))

// Document renders the note into a new live document.
func (n *Note) Document() (*dom.Document, error) {
	var sb strings.Builder
	if err := pageTemplate.Execute(&sb, struct{ Title string }{n.NoteName()}); err != nil {
		return nil, err
	}
	doc, err := dom.ParseString(sb.String())
	if err != nil {
		return nil, err
	}
	if err := n.Refresh(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Refresh replaces the rendered content of the document by the current content,
// as a host does when the file changes. Observers receive a single batch.
func (n *Note) Refresh(doc *dom.Document) error {
	content, _ := n.RawText()
	_, body := markdown.SplitFrontMatter(content)
	return doc.Update(func(tx *dom.Tx) error {
		sizer := dom.Find(tx.Root(), dom.Class("markdown-preview-sizer"))
		if sizer == nil {
			return fmt.Errorf("not a note document")
		}
		blocks, err := renderBlocks(body, sizer)
		if err != nil {
			return err
		}
		tx.ReplaceChildren(sizer, blocks...)
		return nil
	})
}

// renderBlocks converts Markdown into top-level blocks, each one wrapped
// in a div like "el-p", "el-pre", "el-h1".
func renderBlocks(md string, context *html.Node) ([]*html.Node, error) {
	nodes, err := dom.ParseFragment(markdown.ToHTML(md), context)
	if err != nil {
		return nil, err
	}
	var blocks []*html.Node
	for _, node := range nodes {
		if node.Type != html.ElementNode {
			continue
		}
		wrapper := dom.NewElement("div", html.Attribute{Key: "class", Val: "el-" + node.Data})
		wrapper.AppendChild(node)
		blocks = append(blocks, wrapper)
	}
	return blocks, nil
}
