package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for docqa resources.
	uriScheme = "docqa://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	if s.ports.Index != nil {
		s.server.AddResource(&mcp.Resource{
			URI:         uriScheme + "index/status",
			Name:        "index-status",
			Description: "State of the active retrieval index",
			MIMEType:    "application/json",
		}, s.handleIndexStatusResource)
	}

	if s.ports.Timeline != nil {
		s.server.AddResourceTemplate(&mcp.ResourceTemplate{
			URITemplate: uriScheme + "timeline/{kind}",
			Name:        "timeline",
			Description: "Every extracted milestone, span or status card",
			MIMEType:    "application/json",
		}, s.handleTimelineResource)
	}
}

// handleIndexStatusResource describes the active index.
func (s *Server) handleIndexStatusResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	status := s.ports.Index.Status()

	type statusInfo struct {
		Ready          bool   `json:"ready"`
		Chunks         int    `json:"chunks"`
		EmbeddingModel string `json:"embedding_model,omitempty"`
		BuiltAt        string `json:"built_at,omitempty"`
	}
	info := statusInfo{Ready: status.Ready, Chunks: status.Chunks, EmbeddingModel: status.EmbeddingModel}
	if !status.BuiltAt.IsZero() {
		info.BuiltAt = status.BuiltAt.UTC().Format(time.RFC3339)
	}

	return jsonResult(req.Params.URI, info)
}

// handleTimelineResource returns every record of one kind.
func (s *Server) handleTimelineResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	kind := extractTimelineKind(req.Params.URI)
	if kind == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	records, err := s.timelineRecords(ctx, kind, domain.TimelineFilter{})
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", kind, err)
	}

	return jsonResult(req.Params.URI, records)
}

func jsonResult(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractTimelineKind extracts the kind from a URI like docqa://timeline/{kind}.
// Unknown kinds yield "".
func extractTimelineKind(uri string) string {
	const prefix = uriScheme + "timeline/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	switch kind := strings.TrimPrefix(uri, prefix); kind {
	case kindMilestones, kindSpans, kindStatuses:
		return kind
	default:
		return ""
	}
}

// dateText prefers the normalized date and falls back to the authored text.
func dateText(t *time.Time, raw string) string {
	if t != nil {
		return t.Format(domain.DateLayout)
	}
	return raw
}
