// Package mermaid talks to the external engines able to turn Mermaid source
// into SVG markup, and sniffs text to recognize Mermaid source.
package mermaid

import (
	"context"
	"errors"
	"sync"
)

// Engine renders diagram source into SVG markup.
//
// The id is unique per call so that concurrent renders never collide
// (engines use it to name elements and temporary files).
type Engine interface {
	Render(ctx context.Context, id string, source string) (string, error)
}

// ErrEmptyOutput is returned when an engine succeeded without producing markup.
var ErrEmptyOutput = errors.New("engine returned an empty output")

// StaticEngine returns the same markup for every call.
// Useful in tests to avoid depending on mmdc or the network.
type StaticEngine struct {
	Markup string
	Err    error

	mu    sync.Mutex
	calls []Call
}

// Call records the arguments of one Render.
type Call struct {
	ID     string
	Source string
}

func NewStaticEngine(markup string) *StaticEngine {
	return &StaticEngine{Markup: markup}
}

func (e *StaticEngine) Render(ctx context.Context, id string, source string) (string, error) {
	e.mu.Lock()
	e.calls = append(e.calls, Call{ID: id, Source: source})
	e.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if e.Err != nil {
		return "", e.Err
	}
	return e.Markup, nil
}

// Calls returns the recorded calls.
func (e *StaticEngine) Calls() []Call {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Call{}, e.calls...)
}
