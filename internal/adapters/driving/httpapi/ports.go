package httpapi

import (
	"errors"

	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// ErrMissingQueryService is returned when the query service is not provided.
var ErrMissingQueryService = errors.New("httpapi: query service is required")

// Ports aggregates the driving ports the HTTP API serves.
type Ports struct {
	// Query answers questions. Required.
	Query driving.QueryService

	// Timeline serves the timeline routes when set.
	Timeline driving.TimelineService

	// Index serves the status and reindex routes when set.
	Index driving.IndexService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Query == nil {
		return ErrMissingQueryService
	}
	return nil
}
