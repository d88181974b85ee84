package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "docqa",
		"version": Version,
	})
}

func (s *Server) handleStatus(c *gin.Context) {
	st := s.ports.Index.Status()
	resp := IndexStatusResponse{Ready: st.Ready, Chunks: st.Chunks, EmbeddingModel: st.EmbeddingModel}
	if !st.BuiltAt.IsZero() {
		resp.BuiltAt = st.BuiltAt.UTC().Format(time.RFC3339)
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleQuery(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	sessionID, history := s.sessions.history(req.SessionID)
	answer, err := s.ports.Query.Answer(c.Request.Context(), req.Question, history)
	if err != nil {
		writeError(c, err)
		return
	}
	s.sessions.record(sessionID, req.Question, answer.Format())

	resp := QueryResponse{
		Answer:     answer.Text,
		Sources:    make([]SourceResponse, len(answer.Sources)),
		Structured: answer.Structured,
		NoSources:  answer.NoSources,
		SessionID:  sessionID,
	}
	for i, src := range answer.Sources {
		resp.Sources[i] = SourceResponse{File: src.File, Page: src.Page}
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleReindex(c *gin.Context) {
	report, err := s.ports.Index.Rebuild(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, reindexResponse(report))
}

func (s *Server) handleMilestones(c *gin.Context) {
	filter, ok := bindFilter(c)
	if !ok {
		return
	}
	rows, err := s.ports.Timeline.Milestones(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]MilestoneResponse, len(rows))
	for i, r := range rows {
		out[i] = MilestoneResponse{
			Title: r.Title, RawDate: r.RawDate, Date: formatDate(r.NormalizedDate),
			Area: r.Area, SourceFile: r.SourceFile, Slide: r.Slide, Confidence: r.Confidence,
		}
	}
	c.JSON(http.StatusOK, gin.H{"milestones": out, "count": len(out)})
}

func (s *Server) handleSpans(c *gin.Context) {
	filter, ok := bindFilter(c)
	if !ok {
		return
	}
	rows, err := s.ports.Timeline.Spans(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]SpanResponse, len(rows))
	for i, r := range rows {
		out[i] = SpanResponse{
			Title: r.Title, StartRaw: r.StartRaw, EndRaw: r.EndRaw,
			Start: formatDate(r.StartNormalized), End: formatDate(r.EndNormalized), Inverted: r.Inverted(),
			Area: r.Area, SourceFile: r.SourceFile, Slide: r.Slide,
		}
	}
	c.JSON(http.StatusOK, gin.H{"spans": out, "count": len(out)})
}

func (s *Server) handleStatuses(c *gin.Context) {
	filter, ok := bindFilter(c)
	if !ok {
		return
	}
	rows, err := s.ports.Timeline.Statuses(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]StatusResponse, len(rows))
	for i, r := range rows {
		out[i] = StatusResponse{Area: r.Area, Status: r.Status, Color: r.ColorHex, SourceFile: r.SourceFile, Slide: r.Slide}
	}
	c.JSON(http.StatusOK, gin.H{"statuses": out, "count": len(out)})
}

// bindFilter parses timeline query parameters, replying 400 on failure.
func bindFilter(c *gin.Context) (domain.TimelineFilter, bool) {
	var q domain.TimelineQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return domain.TimelineFilter{}, false
	}
	filter, err := q.Filter()
	if err != nil {
		writeError(c, err)
		return domain.TimelineFilter{}, false
	}
	return filter, true
}

// writeError maps domain errors onto HTTP status codes.
func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Warn("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, ErrorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrRebuildInProgress):
		return http.StatusConflict
	case errors.Is(err, domain.ErrIndexNotFound), errors.Is(err, domain.ErrIndexStale):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrGenerationTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, domain.ErrRetrievalFailed), errors.Is(err, domain.ErrGenerationFailed),
		errors.Is(err, domain.ErrEmbeddingFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(domain.DateLayout)
}

func reindexResponse(r driving.IndexReport) ReindexResponse {
	resp := ReindexResponse{
		Files: r.Files, Skipped: r.Skipped, Failed: r.Failed, Chunks: r.Chunks,
		Milestones: r.Milestones, Spans: r.Spans, Statuses: r.Statuses, Warnings: r.Warnings,
		Duration: r.Duration.Round(time.Millisecond).String(),
	}
	for _, err := range r.Errors {
		resp.Errors = append(resp.Errors, err.Error())
	}
	return resp
}
