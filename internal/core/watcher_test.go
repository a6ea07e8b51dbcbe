package core

import (
	"context"
	"testing"
	"time"

	"github.com/julien-sobczak/mermaid-export/internal/dom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

const (
	waitFor = time.Second
	tick    = 5 * time.Millisecond
)

func startWatcher(t *testing.T, doc *dom.Document) (*TestExporter, *ManualScheduler, *Watcher) {
	exporter := NewTestExporter(t, doc, sampleMarkup)
	scheduler := &ManualScheduler{}
	watcher := NewWatcher(exporter.Exporter).WithScheduler(scheduler)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- watcher.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		assert.ErrorIs(t, <-done, context.Canceled)
	})
	return exporter, scheduler, watcher
}

func appendBlock(t *testing.T, doc *dom.Document, markup string) {
	err := doc.Update(func(tx *dom.Tx) error {
		container := dom.Find(tx.Root(), dom.Class("markdown-preview-view"))
		nodes, err := dom.ParseFragment(markup, container)
		if err != nil {
			return err
		}
		for _, node := range nodes {
			tx.AppendChild(container, node)
		}
		return nil
	})
	require.NoError(t, err)
}

func TestWatcher(t *testing.T) {
	doc := MustParseDocument(t, readingView)
	exporter, scheduler, _ := startWatcher(t, doc)

	// Initial scan
	assert.Eventually(t, func() bool { return countControls(doc) == 2 }, waitFor, tick)

	// New diagrams are processed after a delay
	appendBlock(t, doc, `<div class="el-pre" id="third"><pre><code class="language-mermaid">pie title Pets</code></pre></div>`)
	assert.Eventually(t, func() bool { return scheduler.Pending() == 1 }, waitFor, tick)
	assert.Equal(t, 2, countControls(doc))

	// Requests are coalesced while a rescan is pending
	appendBlock(t, doc, `<div class="el-pre" id="fourth"><pre><code class="language-mermaid">gantt</code></pre></div>`)
	assert.Never(t, func() bool { return scheduler.Pending() > 1 }, 50*time.Millisecond, tick)

	assert.Equal(t, 1, scheduler.Fire())
	assert.Eventually(t, func() bool { return countControls(doc) == 4 }, waitFor, tick)
	assert.Equal(t, []time.Duration{DefaultRescanDelay}, scheduler.Delays())

	// Our own controls do not trigger new rescans
	assert.Never(t, func() bool { return scheduler.Pending() > 0 }, 50*time.Millisecond, tick)

	// Removed diagrams are cleaned up immediately
	err := doc.Update(func(tx *dom.Tx) error {
		tx.Remove(byID(t, tx.Root(), "third"))
		return nil
	})
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return countControls(doc) == 3 }, waitFor, tick)

	// Clicking a control exports its diagram
	var label *html.Node
	_ = doc.View(func(root *html.Node) error {
		label = byID(t, root, "fourth").FirstChild
		return nil
	})
	var control *html.Node
	_ = doc.View(func(root *html.Node) error {
		control = dom.Find(byID(t, root, "fourth"), isControl)
		return nil
	})
	require.NotNil(t, control)
	doc.Dispatch(dom.Event{Type: dom.EventClick, Target: control.FirstChild})
	assert.Eventually(t, func() bool {
		levels := exporter.Notifier.Levels()
		return len(levels) == 2 && levels[1] == "succeeded"
	}, waitFor, tick)
	calls := exporter.Engine.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "gantt", calls[0].Source)

	// Clicking elsewhere does nothing
	doc.Dispatch(dom.Event{Type: dom.EventClick, Target: label})
	assert.Never(t, func() bool { return len(exporter.Engine.Calls()) > 1 }, 50*time.Millisecond, tick)

	// Hovering a diagram requests a rescan
	doc.Dispatch(dom.Event{Type: dom.EventHover, Target: label})
	assert.Eventually(t, func() bool { return scheduler.Pending() == 1 }, waitFor, tick)
}

func TestWatcherNearDiagram(t *testing.T) {
	doc := MustParseDocument(t, readingView)
	exporter := NewTestExporter(t, doc, sampleMarkup)
	watcher := NewWatcher(exporter.Exporter)
	exporter.Scan()

	var tests = []struct {
		name     string
		target   func(root *html.Node) *html.Node
		expected bool
	}{
		{"inside a wrapper", func(root *html.Node) *html.Node { return byID(t, root, "raw").FirstChild }, true},
		{"containing wrappers", func(root *html.Node) *html.Node { return dom.Find(root, dom.Class("markdown-preview-view")) }, true},
		{"unrelated block", func(root *html.Node) *html.Node { return dom.Find(root, dom.Class("el-p")) }, false},
		{"own control", func(root *html.Node) *html.Node { return dom.Find(root, isControl) }, false},
		{"nothing", func(root *html.Node) *html.Node { return nil }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var target *html.Node
			_ = doc.View(func(root *html.Node) error {
				target = tt.target(root)
				return nil
			})
			assert.Equal(t, tt.expected, watcher.nearDiagram(target))
		})
	}
}

func TestHasForeignNode(t *testing.T) {
	control := NewControl()
	staging := dom.NewElement("div", html.Attribute{Key: "class", Val: StagingClass})
	paragraph := dom.NewElement("p")

	assert.False(t, hasForeignNode(nil))
	assert.False(t, hasForeignNode([]*html.Node{control, staging}))
	assert.False(t, hasForeignNode([]*html.Node{control.FirstChild}))
	assert.True(t, hasForeignNode([]*html.Node{control, paragraph}))
	assert.True(t, hasForeignNode([]*html.Node{dom.NewText("orphan")}))
}
