package core

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/julien-sobczak/mermaid-export/internal/dom"
	"github.com/julien-sobczak/mermaid-export/internal/medias"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func countControls(doc *dom.Document) int {
	count := 0
	_ = doc.View(func(root *html.Node) error {
		count = len(dom.FindAll(root, isControl))
		return nil
	})
	return count
}

func findNode(t *testing.T, doc *dom.Document, id string) *html.Node {
	var node *html.Node
	_ = doc.View(func(root *html.Node) error {
		node = byID(t, root, id)
		return nil
	})
	return node
}

func TestExporterScan(t *testing.T) {
	var tests = []struct {
		name     string
		markup   string
		expected int
	}{
		{"reading view", readingView, 2},
		{"live preview", livePreview, 1},
		{"block editor", blockEditor, 1},
		{"no diagram", `<html><body><p>Hello</p></body></html>`, 0},
		// Diagrams outside of any block wrapper are ignored
		{"no wrapper", `<html><body><div class="mermaid">flowchart LR</div></body></html>`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := MustParseDocument(t, tt.markup)
			exporter := NewTestExporter(t, doc, sampleMarkup)

			assert.Equal(t, tt.expected, exporter.Scan())
			assert.Equal(t, tt.expected, countControls(doc))
			assert.Equal(t, tt.expected, exporter.Registry().Len())

			// Rescanning never duplicates controls
			assert.Equal(t, 0, exporter.Scan())
			assert.Equal(t, tt.expected, countControls(doc))

			// Each control lives in the block of its diagram
			for _, node := range exporter.Registry().Nodes() {
				control := exporter.Registry().Control(node)
				assert.True(t, dom.Contains(node, control))
				assert.Same(t, node, exporter.Registry().Owner(control))
			}
		})
	}
}

func TestExporterScanSharedAnchor(t *testing.T) {
	// Two diagrams in the same block container
	doc := MustParseDocument(t, `<html><body><div data-block-container="true">
<div class="el-pre" id="first"><pre><code class="language-mermaid">graph TD</code></pre></div>
<div class="el-pre" id="second"><pre><code class="language-mermaid">pie title Pets</code></pre></div>
</div></body></html>`)
	exporter := NewTestExporter(t, doc, sampleMarkup)

	assert.Equal(t, 2, exporter.Scan())
	assert.Equal(t, 2, countControls(doc))
	first := exporter.Registry().Control(findNode(t, doc, "first"))
	second := exporter.Registry().Control(findNode(t, doc, "second"))
	assert.NotSame(t, first, second)
}

func TestExporterCleanup(t *testing.T) {
	doc := MustParseDocument(t, readingView)
	exporter := NewTestExporter(t, doc, sampleMarkup)
	require.Equal(t, 2, exporter.Scan())

	raw := findNode(t, doc, "raw")
	parent := raw.Parent
	next := raw.NextSibling
	_ = doc.Update(func(tx *dom.Tx) error {
		tx.Remove(raw)
		return nil
	})

	assert.Equal(t, 1, exporter.Cleanup())
	assert.Equal(t, 1, exporter.Registry().Len())
	assert.Equal(t, 1, countControls(doc))

	// The host renders the block again
	_ = doc.Update(func(tx *dom.Tx) error {
		nodes, err := dom.ParseFragment(`<div class="el-pre"><pre><code class="language-mermaid">graph TD
A--&gt;B</code></pre></div>`, parent)
		require.NoError(t, err)
		tx.InsertBefore(parent, nodes[0], next)
		return nil
	})
	assert.Equal(t, 1, exporter.Scan())
	assert.Equal(t, 2, countControls(doc))
}

func TestExporterCleanupAfterRerender(t *testing.T) {
	doc := MustParseDocument(t, readingView)
	exporter := NewTestExporter(t, doc, sampleMarkup)
	require.Equal(t, 2, exporter.Scan())

	// The host renders the diagram again inside the same wrapper
	rendered := findNode(t, doc, "rendered")
	_ = doc.Update(func(tx *dom.Tx) error {
		nodes, err := dom.ParseFragment(`<svg id="mermaid-7" width="100" height="50"></svg>`, rendered)
		require.NoError(t, err)
		tx.ReplaceChildren(rendered, nodes...)
		return nil
	})
	require.Equal(t, 1, countControls(doc))

	assert.Equal(t, 1, exporter.Cleanup())
	assert.False(t, exporter.Registry().IsRegistered(rendered))
	assert.Equal(t, 1, exporter.Scan())
	assert.True(t, exporter.Registry().IsRegistered(rendered))
	assert.Equal(t, 2, countControls(doc))
	assert.Equal(t, 2, exporter.Registry().Len())
}

func TestExport(t *testing.T) {
	FreezeAt(t, time.Date(2024, time.March, 1, 9, 30, 0, 0, time.UTC))

	t.Run("SVG in vault", func(t *testing.T) {
		doc := MustParseDocument(t, readingView)
		exporter := NewTestExporter(t, doc, `<svg width="400" height="300"><rect width="400" height="300"/></svg>`)
		exporter.WithEditor(StaticEditor{Name: "Design"})
		exporter.SetSettings(ExportSettings{
			Quality:  QualityHigh,
			Format:   medias.FormatSVG,
			Folder:   "Attachments/Diagrams",
			Filename: "{noteName}-{date}",
		})

		location, err := exporter.Export(context.Background(), findNode(t, doc, "raw"))
		require.NoError(t, err)
		assert.Equal(t, "Attachments/Diagrams/Design-2024-03-01.svg", location)

		data, ok := exporter.Vault.File(location)
		require.True(t, ok)
		assert.Contains(t, string(data), `viewBox="0 0 400 300"`)
		assert.Contains(t, string(data), `xmlns="http://www.w3.org/2000/svg"`)
		assert.Equal(t, []string{"Attachments", "Attachments/Diagrams"}, exporter.Vault.CreatedFolders())

		calls := exporter.Engine.Calls()
		require.Len(t, calls, 1)
		assert.Equal(t, "graph TD\nA-->B", calls[0].Source)

		assert.Equal(t, []string{"started", "succeeded"}, exporter.Notifier.Levels())
		assert.Equal(t, "Design", exporter.Notifier.Notices()[0].Message)
		assert.Nil(t, findStaging(doc))
	})

	t.Run("PNG at maximum quality", func(t *testing.T) {
		doc := MustParseDocument(t, readingView)
		exporter := NewTestExporter(t, doc, sampleMarkup)
		var generations [][]string
		exporter.Converter.OnPreGeneration(func(cmd string, args ...string) {
			generations = append(generations, append([]string{cmd}, args...))
		})
		exporter.SetSettings(ExportSettings{
			Quality:  QualityMaximum,
			Format:   medias.FormatPNG,
			Folder:   "",
			Filename: "{noteName}",
		})

		location, err := exporter.Export(context.Background(), findNode(t, doc, "rendered"))
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(exporter.Downloads, DefaultNoteName+".png"), location)
		assert.FileExists(t, location)
		assert.Equal(t, [][]string{{"convert", "png", "1200x900"}}, generations)
	})

	t.Run("Not a diagram", func(t *testing.T) {
		doc := MustParseDocument(t, `<html><body><div class="el-pre" id="node"><pre><code class="language-mermaid">not a diagram</code></pre></div></body></html>`)
		exporter := NewTestExporter(t, doc, sampleMarkup)

		_, err := exporter.Export(context.Background(), findNode(t, doc, "node"))
		assert.ErrorIs(t, err, ErrValidation)
		assert.Empty(t, exporter.Engine.Calls())
		assert.Equal(t, []string{"started", "failure"}, exporter.Notifier.Levels())
		assert.Equal(t, "This block does not look like a Mermaid diagram", exporter.Notifier.Notices()[1].Message)
	})

	t.Run("Render failure", func(t *testing.T) {
		doc := MustParseDocument(t, readingView)
		exporter := NewTestExporter(t, doc, sampleMarkup)
		exporter.Engine.Err = errors.New("syntax error")

		_, err := exporter.Export(context.Background(), findNode(t, doc, "raw"))
		assert.ErrorIs(t, err, ErrRender)
		assert.Nil(t, findStaging(doc))
		assert.Equal(t, []string{"started", "failure"}, exporter.Notifier.Levels())
	})

	t.Run("Conversion failure", func(t *testing.T) {
		doc := MustParseDocument(t, readingView)
		exporter := NewTestExporter(t, doc, sampleMarkup)
		exporter.Converter.Err = errors.New("out of memory")
		exporter.SetSettings(ExportSettings{Quality: QualityLow, Format: medias.FormatJPEG})

		_, err := exporter.Export(context.Background(), findNode(t, doc, "raw"))
		assert.ErrorIs(t, err, ErrConversion)
		assert.Empty(t, exporter.Vault.CreatedFolders())
	})

	t.Run("Fallback to download", func(t *testing.T) {
		doc := MustParseDocument(t, readingView)
		exporter := NewTestExporter(t, doc, sampleMarkup)
		exporter.Vault.FailWrite = true
		exporter.SetSettings(ExportSettings{Format: medias.FormatSVG, Folder: "Attachments", Filename: "{noteName}-{date}"})

		location, err := exporter.Export(context.Background(), findNode(t, doc, "raw"))
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(exporter.Downloads, "diagram-2024-03-01.svg"), location)
		assert.Equal(t, []string{"started", "warning", "succeeded"}, exporter.Notifier.Levels())
	})

	t.Run("Panic", func(t *testing.T) {
		doc := MustParseDocument(t, readingView)
		exporter := NewTestExporter(t, doc, sampleMarkup)
		exporter.WithConverter(panicConverter{})
		exporter.SetSettings(ExportSettings{Format: medias.FormatPNG})

		var err error
		assert.NotPanics(t, func() {
			_, err = exporter.Export(context.Background(), findNode(t, doc, "raw"))
		})
		assert.ErrorContains(t, err, "unexpected failure")
		assert.Equal(t, []string{"started", "failure"}, exporter.Notifier.Levels())

		// The diagram can be exported again
		exporter.WithConverter(exporter.Converter)
		_, err = exporter.Export(context.Background(), findNode(t, doc, "raw"))
		assert.NoError(t, err)
	})
}

func TestExportInFlight(t *testing.T) {
	doc := MustParseDocument(t, readingView)
	engine := newBlockingEngine(sampleMarkup)
	notifier := &RecordingNotifier{}
	renderer := NewRenderer(doc, engine).WithFrames(NoFrames{}).WithSettleDelay(0)
	persister := NewPersister(NewMemoryVault(), NewDirDownloader(t.TempDir(), t.TempDir()), notifier)
	exporter := NewExporter(doc, renderer, persister).WithNotifier(notifier)

	raw := findNode(t, doc, "raw")
	exporter.Start(context.Background(), raw)
	<-engine.started

	_, err := exporter.Export(context.Background(), raw)
	assert.ErrorIs(t, err, ErrExportInFlight)

	// Other diagrams are not blocked
	exporter.Start(context.Background(), findNode(t, doc, "rendered"))
	<-engine.started

	close(engine.release)
	exporter.Wait()

	levels := notifier.Levels()
	assert.Len(t, levels, 5)
	assert.ElementsMatch(t, []string{"started", "failure", "started", "succeeded", "succeeded"}, levels)

	// Released once completed
	_, err = exporter.Export(context.Background(), raw)
	assert.NoError(t, err)
}

func TestExporterSettingsSnapshot(t *testing.T) {
	doc := MustParseDocument(t, readingView)
	exporter := NewTestExporter(t, doc, sampleMarkup)

	settings := DefaultExportSettings()
	settings.Folder = "Attachments"
	exporter.SetSettings(settings)
	settings.Folder = "Changed"
	assert.Equal(t, "Attachments", exporter.Settings().Folder)
}

// panicConverter simulates a bug in a converter.
type panicConverter struct{}

func (panicConverter) OnPreGeneration(func(cmd string, args ...string)) {}

func (panicConverter) ToPNG(markup string, scale float64) ([]byte, error) {
	panic("nil surface")
}

func (panicConverter) ToJPEG(markup string, scale float64) ([]byte, error) {
	panic("nil surface")
}
