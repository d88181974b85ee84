// Package tui provides an interactive terminal chat over the indexed documents.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces used by the TUI.
type Ports struct {
	// Query answers questions. Required.
	Query driving.QueryService

	// Timeline enables the timeline browser when set.
	Timeline driving.TimelineService

	// Index reports index status in the status bar when set.
	Index driving.IndexService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Query == nil {
		return ErrMissingQueryService
	}
	return nil
}
