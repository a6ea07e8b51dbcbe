package core

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Notifier displays transient messages to the user.
type Notifier interface {
	Started(noteName string)
	Succeeded(location string)
	Warn(message string)
	Fail(err error)
}

// FailureMessage returns the user-facing message for an export failure.
// There is one message per failure category.
func FailureMessage(err error) string {
	switch {
	case errors.Is(err, ErrExportInFlight):
		return "An export of this diagram is already in progress"
	case errors.Is(err, ErrExtraction):
		return "Could not find the source of this diagram"
	case errors.Is(err, ErrValidation):
		return "This block does not look like a Mermaid diagram"
	case errors.Is(err, ErrRender):
		return "Mermaid failed to render this diagram"
	case errors.Is(err, ErrConversion):
		return "Failed to convert the diagram image"
	case errors.Is(err, ErrPersistence):
		return "Failed to save the exported diagram"
	}
	return "Unexpected error while exporting the diagram"
}

// ConsoleNotifier prints notices on a terminal.
type ConsoleNotifier struct {
	out io.Writer
}

func NewConsoleNotifier(out io.Writer) *ConsoleNotifier {
	return &ConsoleNotifier{out: out}
}

func (n *ConsoleNotifier) Started(noteName string) {
	fmt.Fprintf(n.out, "%s %s\n", color.CyanString("⧗"), fmt.Sprintf("Exporting diagram from %q...", noteName))
}

func (n *ConsoleNotifier) Succeeded(location string) {
	fmt.Fprintf(n.out, "%s Diagram exported to %s\n", color.GreenString("✔"), color.New(color.Bold).Sprint(location))
}

func (n *ConsoleNotifier) Warn(message string) {
	fmt.Fprintf(n.out, "%s %s\n", color.YellowString("!"), message)
}

func (n *ConsoleNotifier) Fail(err error) {
	fmt.Fprintf(n.out, "%s %s\n", color.RedString("✘"), FailureMessage(err))
}
