package core

import (
	"context"
	"time"

	"github.com/julien-sobczak/mermaid-export/internal/dom"
	"golang.org/x/net/html"
)

// DefaultRescanDelay leaves time to the host to finish its own rendering.
const DefaultRescanDelay = 100 * time.Millisecond

// Scheduler runs a function after a delay.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func())
}

// TimeScheduler relies on the standard timers.
type TimeScheduler struct{}

func (TimeScheduler) AfterFunc(d time.Duration, fn func()) {
	time.AfterFunc(d, fn)
}

// Watcher keeps the export controls in sync with a live document.
//
// A single goroutine (Run) consumes mutation batches and pointer events:
// additions and hovers schedule a delayed rescan, removals trigger a
// cleanup pass immediately, clicks on a control start an export.
// Timers only signal the loop. All registry accesses happen on it.
type Watcher struct {
	exporter  *Exporter
	scheduler Scheduler
	delay     time.Duration

	mutations *dom.Queue[dom.Batch]
	events    *dom.Queue[dom.Event]
	rescan    chan struct{}
	pending   bool // owned by the loop
}

// NewWatcher subscribes to the document immediately so that no mutation
// happening before Run is missed.
func NewWatcher(exporter *Exporter) *Watcher {
	doc := exporter.Document()
	return &Watcher{
		exporter:  exporter,
		scheduler: TimeScheduler{},
		delay:     DefaultRescanDelay,
		mutations: doc.Observe(),
		events:    doc.Listen(),
		rescan:    make(chan struct{}, 1),
	}
}

func (w *Watcher) WithScheduler(scheduler Scheduler) *Watcher {
	w.scheduler = scheduler
	return w
}

func (w *Watcher) WithDelay(d time.Duration) *Watcher {
	w.delay = d
	return w
}

// Run processes events until the context is cancelled.
// Exports still running are awaited before returning.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.exporter.Wait()

	w.exporter.Scan()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.mutations.Ready():
			w.handleMutations(w.mutations.Take())
		case <-w.events.Ready():
			w.handleEvents(ctx, w.events.Take())
		case <-w.rescan:
			w.pending = false
			w.exporter.Scan()
		}
	}
}

func (w *Watcher) handleMutations(batches []dom.Batch) {
	var added, removed bool
	_ = w.exporter.Document().View(func(root *html.Node) error {
		for _, batch := range batches {
			added = added || hasForeignNode(batch.Added)
			removed = removed || hasForeignNode(batch.Removed)
		}
		return nil
	})
	if removed {
		w.exporter.Cleanup()
	}
	if added {
		w.scheduleRescan()
	}
}

// hasForeignNode ignores nodes created by this program (controls, staging).
func hasForeignNode(nodes []*html.Node) bool {
	for _, n := range nodes {
		if n.Type != html.ElementNode {
			if n.Parent == nil || !IsOwned(n.Parent) {
				return true
			}
			continue
		}
		if !IsOwned(n) {
			return true
		}
	}
	return false
}

func (w *Watcher) handleEvents(ctx context.Context, events []dom.Event) {
	for _, event := range events {
		switch event.Type {
		case dom.EventClick:
			w.exporter.HandleClick(ctx, event.Target)
		case dom.EventHover:
			if w.nearDiagram(event.Target) {
				w.scheduleRescan()
			}
		}
	}
}

// nearDiagram reports whether the node is inside or next to a block wrapper.
// Some hosts only create their controls on hover.
func (w *Watcher) nearDiagram(target *html.Node) bool {
	near := false
	_ = w.exporter.Document().View(func(root *html.Node) error {
		if target == nil || IsOwned(target) {
			return nil
		}
		if BlockWrapper(target) != nil || dom.Find(target, isBlockWrapper) != nil {
			near = true
			return nil
		}
		for _, sibling := range []*html.Node{target.PrevSibling, target.NextSibling} {
			if sibling != nil && isBlockWrapper(sibling) {
				near = true
			}
		}
		return nil
	})
	return near
}

// scheduleRescan coalesces rescan requests while one is pending.
func (w *Watcher) scheduleRescan() {
	if w.pending {
		return
	}
	w.pending = true
	w.scheduler.AfterFunc(w.delay, func() {
		select {
		case w.rescan <- struct{}{}:
		default:
		}
	})
}
