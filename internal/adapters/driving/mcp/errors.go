// Package mcp provides an MCP (Model Context Protocol) server adapter for docqa.
// It lets AI assistants ask grounded questions and read extracted timelines.
package mcp

import "errors"

// ErrMissingQueryService is returned when the query service is not provided.
var ErrMissingQueryService = errors.New("mcp: query service is required")

// ErrUnknownTimelineKind is returned for a timeline kind other than
// milestones, spans or statuses.
var ErrUnknownTimelineKind = errors.New("mcp: unknown timeline kind")
