package core

import "errors"

// Failure categories of an export.
// Each one is reported to the user with its own notice.
var (
	ErrExtraction     = errors.New("no diagram source found")
	ErrValidation     = errors.New("not a Mermaid diagram")
	ErrRender         = errors.New("failed to render diagram")
	ErrConversion     = errors.New("failed to convert diagram")
	ErrPersistence    = errors.New("failed to save diagram")
	ErrExportInFlight = errors.New("export already in progress")
)
