package core

import (
	"testing"

	"github.com/julien-sobczak/mermaid-export/internal/dom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func TestRegistry(t *testing.T) {
	doc := MustParseDocument(t, readingView)
	registry := NewRegistry()

	var raw, rendered, rawControl, renderedControl *html.Node
	_ = doc.Update(func(tx *dom.Tx) error {
		raw = byID(t, tx.Root(), "raw")
		rendered = byID(t, tx.Root(), "rendered")
		rawControl, _ = PlaceControl(tx, SynthesizeAnchor(tx, raw))
		renderedControl, _ = PlaceControl(tx, SynthesizeAnchor(tx, rendered))
		registry.Register(raw, rawControl)
		registry.Register(rendered, renderedControl)
		// Ignored
		registry.Register(raw, NewControl())
		return nil
	})

	assert.Equal(t, 2, registry.Len())
	assert.Equal(t, []*html.Node{raw, rendered}, registry.Nodes())
	assert.True(t, registry.IsRegistered(raw))
	assert.Same(t, rawControl, registry.Control(raw))
	assert.Same(t, raw, registry.Owner(rawControl))
	assert.Same(t, rendered, registry.Owner(renderedControl))
	assert.Nil(t, registry.Owner(NewControl()))
	assert.True(t, registry.Covers(raw.FirstChild))
	assert.False(t, registry.Covers(raw.Parent))

	id, ok := dom.Attr(rawControl, ControlIDAttr)
	require.True(t, ok)
	assert.Equal(t, "1", id)

	// Nothing to clean while all diagrams are attached
	_ = doc.Update(func(tx *dom.Tx) error {
		assert.Equal(t, 0, registry.Cleanup(tx))
		return nil
	})

	// The host removes one diagram
	_ = doc.Update(func(tx *dom.Tx) error {
		tx.Remove(raw)
		return nil
	})
	_ = doc.Update(func(tx *dom.Tx) error {
		assert.Equal(t, 1, registry.Cleanup(tx))
		return nil
	})
	assert.Equal(t, 1, registry.Len())
	assert.False(t, registry.IsRegistered(raw))
	assert.Nil(t, registry.Owner(rawControl))
	assert.Nil(t, rawControl.Parent)
	assert.Same(t, rendered, registry.Owner(renderedControl))
}

func TestRegistryCleanupWhenControlIsDetached(t *testing.T) {
	doc := MustParseDocument(t, readingView)
	registry := NewRegistry()

	var rendered, control *html.Node
	_ = doc.Update(func(tx *dom.Tx) error {
		rendered = byID(t, tx.Root(), "rendered")
		control, _ = PlaceControl(tx, SynthesizeAnchor(tx, rendered))
		registry.Register(rendered, control)
		return nil
	})

	// The host replaces the content of the wrapper, control included
	_ = doc.Update(func(tx *dom.Tx) error {
		tx.ReplaceChildren(rendered, dom.NewElement("svg"))
		return nil
	})
	_ = doc.Update(func(tx *dom.Tx) error {
		assert.Equal(t, 1, registry.Cleanup(tx))
		return nil
	})
	assert.False(t, registry.IsRegistered(rendered))
	assert.False(t, registry.Covers(rendered))
	assert.Nil(t, registry.Owner(control))
}

func TestRegistryCleanupRemovesOrphanControls(t *testing.T) {
	doc := MustParseDocument(t, readingView)
	registry := NewRegistry()

	var control *html.Node
	_ = doc.Update(func(tx *dom.Tx) error {
		raw := byID(t, tx.Root(), "raw")
		anchor := SynthesizeAnchor(tx, raw)
		control, _ = PlaceControl(tx, anchor)
		registry.Register(raw, control)
		// Left by a previous registry
		stale := NewControl()
		dom.SetAttr(stale, ControlIDAttr, "42")
		tx.AppendChild(anchor, stale)
		return nil
	})
	require.Equal(t, 2, countControls(doc))

	_ = doc.Update(func(tx *dom.Tx) error {
		assert.Equal(t, 0, registry.Cleanup(tx))
		return nil
	})

	_ = doc.View(func(root *html.Node) error {
		assert.Equal(t, []*html.Node{control}, dom.FindAll(root, isControl))
		return nil
	})

	// The synthesized anchor is removed with its last control
	_ = doc.Update(func(tx *dom.Tx) error {
		tx.Remove(byID(t, tx.Root(), "raw"))
		return nil
	})
	_ = doc.Update(func(tx *dom.Tx) error {
		assert.Equal(t, 1, registry.Cleanup(tx))
		return nil
	})
	assert.Nil(t, control.Parent)
}
