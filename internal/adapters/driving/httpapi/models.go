package httpapi

// QueryRequest is the body of POST /api/v1/query.
type QueryRequest struct {
	Question string `json:"question" binding:"required"`

	// SessionID continues an earlier conversation. Empty starts a new one.
	SessionID string `json:"session_id,omitempty"`
}

// QueryResponse is the reply to POST /api/v1/query.
type QueryResponse struct {
	Answer     string           `json:"answer"`
	Sources    []SourceResponse `json:"sources"`
	Structured bool             `json:"structured"`
	NoSources  bool             `json:"no_sources"`
	SessionID  string           `json:"session_id"`
}

// SourceResponse is one citation.
type SourceResponse struct {
	File string `json:"file"`
	Page int    `json:"page,omitempty"`
}

// MilestoneResponse is one milestone record.
type MilestoneResponse struct {
	Title      string  `json:"title"`
	RawDate    string  `json:"raw_date,omitempty"`
	Date       string  `json:"date,omitempty"`
	Area       string  `json:"area,omitempty"`
	SourceFile string  `json:"source_file"`
	Slide      int     `json:"slide"`
	Confidence float64 `json:"confidence"`
}

// SpanResponse is one span record.
type SpanResponse struct {
	Title      string `json:"title"`
	StartRaw   string `json:"start_raw,omitempty"`
	EndRaw     string `json:"end_raw,omitempty"`
	Start      string `json:"start,omitempty"`
	End        string `json:"end,omitempty"`
	Inverted   bool   `json:"inverted,omitempty"`
	Area       string `json:"area,omitempty"`
	SourceFile string `json:"source_file"`
	Slide      int    `json:"slide"`
}

// StatusResponse is one status card.
type StatusResponse struct {
	Area       string `json:"area"`
	Status     string `json:"status"`
	Color      string `json:"color,omitempty"`
	SourceFile string `json:"source_file"`
	Slide      int    `json:"slide"`
}

// IndexStatusResponse is the reply to GET /api/v1/status.
type IndexStatusResponse struct {
	Ready          bool   `json:"ready"`
	Chunks         int    `json:"chunks"`
	EmbeddingModel string `json:"embedding_model,omitempty"`
	BuiltAt        string `json:"built_at,omitempty"`
}

// ReindexResponse is the reply to POST /api/v1/reindex.
type ReindexResponse struct {
	Files      int      `json:"files"`
	Skipped    int      `json:"skipped"`
	Failed     int      `json:"failed"`
	Chunks     int      `json:"chunks"`
	Milestones int      `json:"milestones"`
	Spans      int      `json:"spans"`
	Statuses   int      `json:"statuses"`
	Warnings   int      `json:"warnings"`
	Duration   string   `json:"duration"`
	Errors     []string `json:"errors,omitempty"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}
