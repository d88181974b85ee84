package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// Timeline kinds accepted by the timeline tool and resource.
const (
	kindMilestones = "milestones"
	kindSpans      = "spans"
	kindStatuses   = "statuses"
)

// TurnInput is one prior message of a conversation.
type TurnInput struct {
	Role    string `json:"role" jsonschema:"user or assistant"`
	Content string `json:"content" jsonschema:"the message text"`
}

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string      `json:"question" jsonschema:"the question to answer from the indexed documents"`
	History  []TurnInput `json:"history,omitempty" jsonschema:"earlier turns of the conversation, oldest first"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer     string         `json:"answer"`
	Sources    []SourceOutput `json:"sources"`
	Structured bool           `json:"structured"`
	NoSources  bool           `json:"no_sources"`
}

// SourceOutput is one citation.
type SourceOutput struct {
	File string `json:"file"`
	Page int    `json:"page,omitempty"`
}

// TimelineInput is the input schema for the timeline tool.
type TimelineInput struct {
	Kind   string `json:"kind" jsonschema:"milestones, spans or statuses"`
	Area   string `json:"area,omitempty" jsonschema:"substring of the workstream or area tag"`
	Title  string `json:"title,omitempty" jsonschema:"substring of the milestone or span title"`
	From   string `json:"from,omitempty" jsonschema:"earliest date, YYYY-MM-DD"`
	To     string `json:"to,omitempty" jsonschema:"latest date, YYYY-MM-DD"`
	Status string `json:"status,omitempty" jsonschema:"status card value such as At Risk"`
}

// TimelineOutput is the output schema for the timeline tool.
type TimelineOutput struct {
	Kind    string         `json:"kind"`
	Records []RecordOutput `json:"records"`
	Count   int            `json:"count"`
}

// RecordOutput is one milestone, span or status card.
type RecordOutput struct {
	Title  string `json:"title,omitempty"`
	Date   string `json:"date,omitempty"`
	Start  string `json:"start,omitempty"`
	End    string `json:"end,omitempty"`
	Status string `json:"status,omitempty"`
	Area   string `json:"area,omitempty"`
	File   string `json:"file"`
	Slide  int    `json:"slide"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question from the indexed documents, with source citations",
	}, s.handleAsk)

	if s.ports.Timeline != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "timeline",
			Description: "List milestones, spans or status cards extracted from slide decks",
		}, s.handleTimeline)
	}
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	history := make([]domain.Turn, 0, len(input.History))
	for _, t := range input.History {
		history = append(history, domain.Turn{Role: strings.ToLower(t.Role), Content: t.Content})
	}

	answer, err := s.ports.Query.Answer(ctx, input.Question, history)
	if err != nil {
		return nil, AskOutput{}, err
	}

	output := AskOutput{
		Answer:     answer.Text,
		Sources:    make([]SourceOutput, len(answer.Sources)),
		Structured: answer.Structured,
		NoSources:  answer.NoSources,
	}
	for i, src := range answer.Sources {
		output.Sources[i] = SourceOutput{File: src.File, Page: src.Page}
	}

	return nil, output, nil
}

// handleTimeline handles the timeline tool invocation.
func (s *Server) handleTimeline(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input TimelineInput,
) (*mcp.CallToolResult, TimelineOutput, error) {
	filter, err := domain.TimelineQuery{
		Area:   input.Area,
		Title:  input.Title,
		From:   input.From,
		To:     input.To,
		Status: input.Status,
	}.Filter()
	if err != nil {
		return nil, TimelineOutput{}, err
	}

	kind := strings.ToLower(strings.TrimSpace(input.Kind))
	if kind == "" {
		kind = kindMilestones
	}
	records, err := s.timelineRecords(ctx, kind, filter)
	if err != nil {
		return nil, TimelineOutput{}, err
	}

	return nil, TimelineOutput{Kind: kind, Records: records, Count: len(records)}, nil
}

// timelineRecords queries one kind of record and flattens it for output.
func (s *Server) timelineRecords(ctx context.Context, kind string, filter domain.TimelineFilter) ([]RecordOutput, error) {
	var out []RecordOutput
	switch kind {
	case kindMilestones:
		rows, err := s.ports.Timeline.Milestones(ctx, filter)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			out = append(out, RecordOutput{
				Title: r.Title, Date: dateText(r.NormalizedDate, r.RawDate),
				Area: r.Area, File: r.SourceFile, Slide: r.Slide,
			})
		}
	case kindSpans:
		rows, err := s.ports.Timeline.Spans(ctx, filter)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			out = append(out, RecordOutput{
				Title: r.Title, Start: dateText(r.StartNormalized, r.StartRaw), End: dateText(r.EndNormalized, r.EndRaw),
				Area: r.Area, File: r.SourceFile, Slide: r.Slide,
			})
		}
	case kindStatuses:
		rows, err := s.ports.Timeline.Statuses(ctx, filter)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			out = append(out, RecordOutput{Status: r.Status, Area: r.Area, File: r.SourceFile, Slide: r.Slide})
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTimelineKind, kind)
	}
	if out == nil {
		out = []RecordOutput{}
	}
	return out, nil
}
