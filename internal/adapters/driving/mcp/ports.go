package mcp

import (
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Query answers questions over the indexed documents.
	Query driving.QueryService

	// Timeline reads extracted milestones, spans and status cards.
	Timeline driving.TimelineService

	// Index reports the state of the active index.
	Index driving.IndexService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Query == nil {
		return ErrMissingQueryService
	}
	// Timeline and Index are optional
	return nil
}
