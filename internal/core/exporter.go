package core

import (
	"context"
	"fmt"
	"sync"

	"github.com/davecgh/go-spew/spew"
	"github.com/julien-sobczak/mermaid-export/internal/dom"
	"github.com/julien-sobczak/mermaid-export/internal/helpers"
	"github.com/julien-sobczak/mermaid-export/internal/medias"
	"github.com/julien-sobczak/mermaid-export/internal/mermaid"
	"github.com/julien-sobczak/mermaid-export/pkg/clock"
	"github.com/julien-sobczak/mermaid-export/pkg/filesystem"
	"golang.org/x/net/html"
)

// DefaultNoteName is used when no editor is available.
const DefaultNoteName = "diagram"

// Exporter attaches export controls to the diagrams of a document
// and runs the export pipeline when a control is clicked:
//
//	extract → validate → render → normalize → convert → persist
//
// Scan, Cleanup and HandleClick must be called from a single goroutine
// (see Watcher). Exports run on their own goroutines.
type Exporter struct {
	doc       *dom.Document
	registry  *Registry
	renderer  *Renderer
	converter medias.Converter
	persister *Persister
	editor    Editor
	notifier  Notifier

	settingsMu sync.RWMutex
	settings   ExportSettings

	inFlightMu sync.Mutex
	inFlight   map[*html.Node]bool

	wg sync.WaitGroup
}

func NewExporter(doc *dom.Document, renderer *Renderer, persister *Persister) *Exporter {
	return &Exporter{
		doc:       doc,
		registry:  NewRegistry(),
		renderer:  renderer,
		converter: medias.NewRasterizer(),
		persister: persister,
		notifier:  nopNotifier{},
		settings:  DefaultExportSettings(),
		inFlight:  make(map[*html.Node]bool),
	}
}

func (e *Exporter) WithConverter(converter medias.Converter) *Exporter {
	e.converter = converter
	return e
}

func (e *Exporter) WithEditor(editor Editor) *Exporter {
	e.editor = editor
	return e
}

func (e *Exporter) WithNotifier(notifier Notifier) *Exporter {
	e.notifier = notifier
	return e
}

func (e *Exporter) WithSettings(settings ExportSettings) *Exporter {
	e.SetSettings(settings)
	return e
}

// SetSettings replaces the preferences. Running exports keep their snapshot.
func (e *Exporter) SetSettings(settings ExportSettings) {
	e.settingsMu.Lock()
	defer e.settingsMu.Unlock()
	e.settings = settings.Snapshot()
}

// Settings returns a snapshot of the current preferences.
func (e *Exporter) Settings() ExportSettings {
	e.settingsMu.RLock()
	defer e.settingsMu.RUnlock()
	return e.settings.Snapshot()
}

func (e *Exporter) Document() *dom.Document {
	return e.doc
}

func (e *Exporter) Registry() *Registry {
	return e.registry
}

// Scan attaches a control to every new diagram and returns how many were attached.
func (e *Exporter) Scan() int {
	count := 0
	_ = e.doc.Update(func(tx *dom.Tx) error {
		for _, node := range Locate(tx.Root(), e.registry) {
			anchor := ResolveAnchor(tx, node)
			if anchor == nil {
				continue
			}
			control, _ := PlaceControl(tx, anchor)
			if owner := e.registry.Owner(control); owner != nil && owner != node {
				// The anchor is already used by another diagram
				control, _ = PlaceControl(tx, SynthesizeAnchor(tx, BlockWrapper(node)))
			}
			e.registry.Register(node, control)
			count++
		}
		return nil
	})
	if count > 0 {
		CurrentLogger().Debugf("%d export control(s) attached", count)
	}
	return count
}

// Cleanup forgets the detached diagrams and removes their controls.
func (e *Exporter) Cleanup() int {
	count := 0
	_ = e.doc.Update(func(tx *dom.Tx) error {
		count = e.registry.Cleanup(tx)
		return nil
	})
	if count > 0 {
		CurrentLogger().Debugf("%d detached diagram(s) cleaned up", count)
	}
	return count
}

// HandleClick starts the export of the diagram owning the clicked control.
// It returns false when the target is not a known control.
func (e *Exporter) HandleClick(ctx context.Context, target *html.Node) bool {
	var node *html.Node
	_ = e.doc.View(func(root *html.Node) error {
		if control := dom.Closest(target, isControl); control != nil {
			node = e.registry.Owner(control)
		}
		return nil
	})
	if node == nil {
		return false
	}
	e.Start(ctx, node)
	return true
}

// Start runs the export of the diagram in background.
func (e *Exporter) Start(ctx context.Context, node *html.Node) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		_, _ = e.Export(ctx, node)
	}()
}

// Wait blocks until all background exports are completed.
func (e *Exporter) Wait() {
	e.wg.Wait()
}

// Export runs the pipeline for one diagram and returns where the file was saved.
// Failures are reported to the notifier and the log. Panics are recovered.
func (e *Exporter) Export(ctx context.Context, node *html.Node) (location string, err error) {
	if !e.acquire(node) {
		e.notifier.Fail(ErrExportInFlight)
		return "", ErrExportInFlight
	}
	defer e.release(node)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unexpected failure: %v", r)
		}
		if err != nil {
			CurrentLogger().Warnf("Export failed: %v", err)
			e.notifier.Fail(err)
		}
	}()

	op := &exportOperation{
		exporter: e,
		node:     node,
		settings: e.Settings(),
		noteName: e.noteName(),
	}
	return op.run(ctx)
}

func (e *Exporter) acquire(node *html.Node) bool {
	e.inFlightMu.Lock()
	defer e.inFlightMu.Unlock()
	if e.inFlight[node] {
		return false
	}
	e.inFlight[node] = true
	return true
}

func (e *Exporter) release(node *html.Node) {
	e.inFlightMu.Lock()
	defer e.inFlightMu.Unlock()
	delete(e.inFlight, node)
}

func (e *Exporter) noteName() string {
	if e.editor == nil {
		return DefaultNoteName
	}
	if name := e.editor.NoteName(); name != "" {
		return name
	}
	return DefaultNoteName
}

// exportOperation ties one click to one diagram and one file.
type exportOperation struct {
	exporter *Exporter
	node     *html.Node
	settings ExportSettings
	noteName string

	source   Source
	artifact medias.Artifact
}

func (op *exportOperation) run(ctx context.Context) (string, error) {
	e := op.exporter
	e.notifier.Started(op.noteName)
	if CurrentLogger().Enabled(VerboseTrace) {
		CurrentLogger().Tracef("Export settings:\n%s", spew.Sdump(op.settings))
	}

	source, err := ExtractSource(e.doc, op.node, e.editor)
	if err != nil {
		return "", err
	}
	op.source = source
	if !mermaid.IsValid(source.Text) {
		return "", fmt.Errorf("%w: %q", ErrValidation, firstChars(source.Text, 40))
	}
	CurrentLogger().Infof("Exporting %s diagram %s", mermaid.DiagramType(source.Text), helpers.ShortHash(source.Text))

	markup, err := e.renderer.Render(ctx, source.Text)
	if err != nil {
		return "", err
	}

	artifact, warning := medias.NewArtifact(markup)
	if warning != nil {
		CurrentLogger().Warnf("Diagram kept as rendered: %v", warning)
	}
	op.artifact = artifact

	data := []byte(artifact.Markup)
	if op.settings.Format.Raster() {
		data, err = medias.Convert(e.converter, artifact.Markup, op.settings.Format, op.settings.Quality.Scale())
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrConversion, err)
		}
	}

	name := FileName(op.settings.Filename, op.noteName, op.settings.Format, clock.Now())
	location, err := e.persister.Save(op.settings.Folder, name, data)
	if err != nil {
		return "", err
	}
	CurrentLogger().Infof("Diagram saved to %s (%s)", location, filesystem.FormatSize(int64(len(data))))
	e.notifier.Succeeded(location)
	return location, nil
}

func firstChars(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}

type nopNotifier struct{}

func (nopNotifier) Started(string)   {}
func (nopNotifier) Succeeded(string) {}
func (nopNotifier) Warn(string)      {}
func (nopNotifier) Fail(error)       {}
