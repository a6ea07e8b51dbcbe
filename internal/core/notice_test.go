package core

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestFailureMessage(t *testing.T) {
	var tests = []struct {
		err      error
		expected string
	}{
		{ErrExportInFlight, "An export of this diagram is already in progress"},
		{fmt.Errorf("%w: nothing", ErrExtraction), "Could not find the source of this diagram"},
		{fmt.Errorf("%w: %q", ErrValidation, "hello"), "This block does not look like a Mermaid diagram"},
		{fmt.Errorf("%w: timeout", ErrRender), "Mermaid failed to render this diagram"},
		{fmt.Errorf("%w: surface", ErrConversion), "Failed to convert the diagram image"},
		{fmt.Errorf("%w: disk full", ErrPersistence), "Failed to save the exported diagram"},
		{errors.New("unexpected failure: boom"), "Unexpected error while exporting the diagram"},
	}
	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, FailureMessage(tt.err))
		})
	}
}

func TestConsoleNotifier(t *testing.T) {
	noColor := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = noColor })

	var sb strings.Builder
	notifier := NewConsoleNotifier(&sb)
	notifier.Started("Design")
	notifier.Warn(`Could not save to "Attachments", downloading instead`)
	notifier.Succeeded("/home/user/Downloads/Design.svg")
	notifier.Fail(ErrExportInFlight)

	assert.Equal(t, `⧗ Exporting diagram from "Design"...
! Could not save to "Attachments", downloading instead
✔ Diagram exported to /home/user/Downloads/Design.svg
✘ An export of this diagram is already in progress
`, sb.String())
}
