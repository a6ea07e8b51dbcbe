package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/julien-sobczak/mermaid-export/internal/core"
	"github.com/julien-sobczak/mermaid-export/internal/dom"
	"github.com/julien-sobczak/mermaid-export/pkg/filesystem"
	"golang.org/x/net/html"
)

// argsToNotePaths expands directories into the Markdown files they contain.
// The current directory is used when no argument is passed.
func argsToNotePaths(args []string) ([]string, error) {
	if len(args) == 0 {
		args = []string{"."}
	}
	var paths []string
	for _, arg := range args {
		stat, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !stat.IsDir() {
			paths = append(paths, arg)
			continue
		}
		files, err := filesystem.ListFiles(arg, ".md", ".markdown")
		if err != nil {
			return nil, err
		}
		paths = append(paths, files...)
	}
	return paths, nil
}

// openNote renders the note in a new document.
func openNote(path string) (*core.Note, *dom.Document, error) {
	note, err := core.ReadNote(path)
	if err != nil {
		return nil, nil, err
	}
	doc, err := note.Document()
	if err != nil {
		return nil, nil, fmt.Errorf("unable to render note %s: %w", path, err)
	}
	return note, doc, nil
}

// controls returns the export controls in document order.
func controls(doc *dom.Document) []*html.Node {
	var result []*html.Node
	_ = doc.View(func(root *html.Node) error {
		result = dom.FindAll(root, dom.And(dom.Tag("button"), dom.Class(core.ControlClass)))
		return nil
	})
	return result
}

// formatScan lists the diagrams of a note.
func formatScan(path string, diagrams []core.DiagramInfo) string {
	var sb strings.Builder
	switch len(diagrams) {
	case 0:
		fmt.Fprintf(&sb, "%s (no diagram)\n", path)
		return sb.String()
	case 1:
		fmt.Fprintf(&sb, "%s (1 diagram)\n", path)
	default:
		fmt.Fprintf(&sb, "%s (%d diagrams)\n", path, len(diagrams))
	}
	for _, diagram := range diagrams {
		if diagram.Err != nil {
			fmt.Fprintf(&sb, "  #%d %-16s %s\n", diagram.Index, "✘", core.FailureMessage(diagram.Err))
			continue
		}
		fmt.Fprintf(&sb, "  #%d %-16s %s (%s)\n", diagram.Index, diagram.Type, diagram.Wrapper, diagram.Strategy)
	}
	return sb.String()
}
