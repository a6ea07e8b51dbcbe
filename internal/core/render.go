package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/julien-sobczak/mermaid-export/internal/dom"
	"github.com/julien-sobczak/mermaid-export/internal/medias"
	"github.com/julien-sobczak/mermaid-export/internal/mermaid"
	"golang.org/x/net/html"
)

// DefaultSettleDelay is waited after the frames before calling the engine.
const DefaultSettleDelay = 50 * time.Millisecond

// Off-screen but still laid out. Hiding the container breaks the
// measurements done by the engine.
const stagingStyle = "position:absolute;left:-99999px;top:-99999px;pointer-events:none;visibility:visible"

// Frames waits for the host to paint.
type Frames interface {
	NextFrame(ctx context.Context) error
}

// IntervalFrames emulates a display refreshing at a fixed interval.
type IntervalFrames time.Duration

// DefaultFrames refreshes at 60 Hz.
const DefaultFrames = IntervalFrames(time.Second / 60)

func (f IntervalFrames) NextFrame(ctx context.Context) error {
	return sleep(ctx, time.Duration(f))
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Renderer drives the engine inside a staging container of the document.
type Renderer struct {
	doc     *dom.Document
	engine  mermaid.Engine
	frames  Frames
	settle  time.Duration
	timeout time.Duration
}

func NewRenderer(doc *dom.Document, engine mermaid.Engine) *Renderer {
	return &Renderer{
		doc:    doc,
		engine: engine,
		frames: DefaultFrames,
		settle: DefaultSettleDelay,
	}
}

func (r *Renderer) WithFrames(frames Frames) *Renderer {
	r.frames = frames
	return r
}

func (r *Renderer) WithSettleDelay(d time.Duration) *Renderer {
	r.settle = d
	return r
}

// WithTimeout bounds the engine call. Zero means no timeout.
func (r *Renderer) WithTimeout(d time.Duration) *Renderer {
	r.timeout = d
	return r
}

// Render returns the markup produced by the engine for the source.
// The staging container is removed on every path.
func (r *Renderer) Render(ctx context.Context, source string) (string, error) {
	id := "mermaid-export-" + uuid.NewString()

	staging, err := r.attachStaging(id)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRender, err)
	}
	defer r.detachStaging(staging)

	// Let the host lay out the staging container
	for i := 0; i < 2; i++ {
		if err := r.frames.NextFrame(ctx); err != nil {
			return "", fmt.Errorf("%w: %v", ErrRender, err)
		}
	}
	if err := sleep(ctx, r.settle); err != nil {
		return "", fmt.Errorf("%w: %v", ErrRender, err)
	}

	renderCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		renderCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	markup, err := r.engine.Render(renderCtx, id, source)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRender, err)
	}
	if markup == "" {
		return "", fmt.Errorf("%w: %v", ErrRender, mermaid.ErrEmptyOutput)
	}

	size, err := r.layout(staging, markup)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRender, err)
	}
	CurrentLogger().Debugf("Diagram %s rendered (%gx%g)", id, size.Width, size.Height)
	return markup, nil
}

func (r *Renderer) attachStaging(id string) (*html.Node, error) {
	staging := dom.NewElement("div",
		html.Attribute{Key: "id", Val: id},
		html.Attribute{Key: "class", Val: StagingClass},
		html.Attribute{Key: "style", Val: stagingStyle},
		html.Attribute{Key: "aria-hidden", Val: "true"},
	)
	err := r.doc.Update(func(tx *dom.Tx) error {
		body := tx.Body()
		if body == nil {
			return dom.ErrNoBody
		}
		tx.AppendChild(body, staging)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return staging, nil
}

func (r *Renderer) detachStaging(staging *html.Node) {
	_ = r.doc.Update(func(tx *dom.Tx) error {
		tx.Remove(staging)
		return nil
	})
}

// layout inserts the markup in the staging container and reads its size back.
func (r *Renderer) layout(staging *html.Node, markup string) (medias.Size, error) {
	nodes, err := dom.ParseFragment(markup, staging)
	if err != nil {
		return medias.Size{}, err
	}
	err = r.doc.Update(func(tx *dom.Tx) error {
		tx.ReplaceChildren(staging, nodes...)
		return nil
	})
	if err != nil {
		return medias.Size{}, err
	}

	var size medias.Size
	err = r.doc.View(func(root *html.Node) error {
		svg := dom.Find(staging, dom.Tag("svg"))
		if svg == nil {
			return fmt.Errorf("no <svg> in engine output")
		}
		size = medias.ReadDimensions(markup)
		return nil
	})
	return size, err
}
