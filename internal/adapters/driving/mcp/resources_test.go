package mcp

import (
	"context"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

func TestExtractTimelineKind(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{name: "milestones", uri: "docqa://timeline/milestones", expected: "milestones"},
		{name: "statuses", uri: "docqa://timeline/statuses", expected: "statuses"},
		{name: "unknown kind", uri: "docqa://timeline/tasks", expected: ""},
		{name: "invalid prefix", uri: "file://timeline/spans", expected: ""},
		{name: "empty URI", uri: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractTimelineKind(tt.uri))
		})
	}
}

func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestServer_handleIndexStatusResource(t *testing.T) {
	built := time.Date(2025, 7, 1, 9, 30, 0, 0, time.UTC)
	ports := &Ports{
		Query: &mockQueryService{},
		Index: &mockIndexService{status: driving.IndexStatus{Ready: true, Chunks: 42, EmbeddingModel: "hashing-256", BuiltAt: built}},
	}
	server, err := NewServer(ports)
	require.NoError(t, err)

	result, err := server.handleIndexStatusResource(context.Background(), makeReadResourceRequest("docqa://index/status"))

	require.NoError(t, err)
	require.Len(t, result.Contents, 1)
	text := result.Contents[0].Text
	assert.Contains(t, text, `"ready": true`)
	assert.Contains(t, text, `"chunks": 42`)
	assert.Contains(t, text, `"built_at": "2025-07-01T09:30:00Z"`)
}

func TestServer_handleTimelineResource(t *testing.T) {
	ctx := context.Background()
	timeline := &mockTimelineService{
		statuses: []domain.StatusRecord{{Area: "Search", Status: "Blocked", SourceFile: "status.pptx", Slide: 7}},
	}
	server, err := NewServer(&Ports{Query: &mockQueryService{}, Timeline: timeline})
	require.NoError(t, err)

	t.Run("returns records", func(t *testing.T) {
		result, err := server.handleTimelineResource(ctx, makeReadResourceRequest("docqa://timeline/statuses"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)
		assert.Contains(t, result.Contents[0].Text, `"status": "Blocked"`)
		assert.Equal(t, domain.TimelineFilter{}, timeline.filter)
	})

	t.Run("unknown kind is not found", func(t *testing.T) {
		_, err := server.handleTimelineResource(ctx, makeReadResourceRequest("docqa://timeline/people"))
		assert.Error(t, err)
	})
}
