package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure QueryService implements the interface.
var _ driving.QueryService = (*QueryService)(nil)

const (
	// historyTurns is how many trailing turns of chat history reach the prompt.
	historyTurns = 6

	contextSeparator = "\n\n---\n\n"

	// sourcesMarker starts the citation block renderers append to answers.
	// It is cut from history so old citations do not pose as context.
	sourcesMarker = "\nSources:"

	defaultRetryDelay = time.Second
)

// NoSourcesText is the reply when retrieval finds nothing and no prompt
// template overrides it.
const NoSourcesText = "I couldn't find anything relevant to that question in the indexed documents."

// fallbackGroundedPrompt is used when the prompt store has no usable template.
const fallbackGroundedPrompt = `You are a grounded assistant. Use ONLY the provided context. If the answer is not present in the context, say you don't know.

Conversation so far:
%s

Context:
%s

Latest question:
%s

Answer (concise, cite facts from the context when possible):
`

// QueryService answers questions: structured timeline lookups first,
// then retrieval-augmented generation over the active index.
type QueryService struct {
	index     *IndexService
	embedder  driven.EmbeddingService
	llm       driven.LLMService
	prompts   driven.PromptStore
	planner   *Planner
	retrieval domain.RetrievalSettings
	gen       domain.LLMSettings

	retryDelay time.Duration
}

// QueryOption configures a QueryService.
type QueryOption func(*QueryService)

// WithPlanner enables structured-first answers.
func WithPlanner(p *Planner) QueryOption {
	return func(s *QueryService) {
		s.planner = p
	}
}

// WithPromptStore sets where prompt templates are loaded from.
func WithPromptStore(p driven.PromptStore) QueryOption {
	return func(s *QueryService) {
		s.prompts = p
	}
}

// WithRetryDelay sets the first backoff after a rate-limited generation.
func WithRetryDelay(d time.Duration) QueryOption {
	return func(s *QueryService) {
		if d >= 0 {
			s.retryDelay = d
		}
	}
}

// NewQueryService creates a query service.
func NewQueryService(
	index *IndexService,
	embedder driven.EmbeddingService,
	llm driven.LLMService,
	retrieval domain.RetrievalSettings,
	gen domain.LLMSettings,
	opts ...QueryOption,
) *QueryService {
	s := &QueryService{
		index:      index,
		embedder:   embedder,
		llm:        llm,
		retrieval:  retrieval,
		gen:        gen,
		retryDelay: defaultRetryDelay,
	}
	if s.retrieval.K <= 0 {
		s.retrieval.K = domain.DefaultAppSettings().Retrieval.K
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Answer answers question in the context of history. The whole call runs
// against the index generation that was active when it started.
func (s *QueryService) Answer(ctx context.Context, question string, history []domain.Turn) (domain.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return domain.Answer{}, fmt.Errorf("%w: empty question", domain.ErrInvalidInput)
	}

	var answer domain.Answer
	err := s.index.withGeneration(func(g *generation) error {
		var err error
		answer, err = s.answer(ctx, g, question, history)
		return err
	})
	return answer, err
}

func (s *QueryService) answer(ctx context.Context, g *generation, question string, history []domain.Turn) (domain.Answer, error) {
	logger.Section("Query")

	if s.planner != nil {
		ans, ok, err := s.planner.Answer(ctx, g.timeline, question)
		switch {
		case err != nil:
			logger.Warn("Structured lookup failed, falling back to retrieval: %v", err)
		case ok:
			logger.Debug("Answered from structured store")
			return ans, nil
		}
	}

	hits, err := s.retrieve(ctx, g.snapshot, question)
	if err != nil {
		return domain.Answer{}, err
	}
	if len(hits) == 0 {
		return domain.Answer{Text: s.noSourcesText(), NoSources: true}, nil
	}

	prompt := s.buildPrompt(question, history, hits)
	text, err := s.generate(ctx, prompt)
	if err != nil {
		return domain.Answer{}, err
	}

	var sources sourceSet
	for _, h := range hits {
		sources.add(h.Chunk.SourceFile, h.Chunk.Page)
	}
	return domain.Answer{Text: strings.TrimSpace(text), Sources: sources.list}, nil
}

// retrieve embeds the question and searches the snapshot. With adaptive
// retrieval k grows one step at a time while the hits cover fewer than K
// distinct sources and the index can still return more.
func (s *QueryService) retrieve(ctx context.Context, snap driven.IndexSnapshot, question string) ([]domain.ScoredChunk, error) {
	vector, err := s.embedder.Embed(ctx, question)
	if err != nil {
		if !errors.Is(err, domain.ErrEmbeddingFailed) {
			err = fmt.Errorf("%w: %w", domain.ErrEmbeddingFailed, err)
		}
		return nil, fmt.Errorf("%w: embed question: %w", domain.ErrRetrievalFailed, err)
	}

	k := s.retrieval.K
	hits, err := snap.Search(ctx, vector, k)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRetrievalFailed, err)
	}

	for s.retrieval.Adaptive && k < s.retrieval.MaxK && len(hits) == k && distinctSources(hits) < s.retrieval.K {
		k++
		if hits, err = snap.Search(ctx, vector, k); err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrRetrievalFailed, err)
		}
	}
	logger.Debug("Retrieved %d chunks (k=%d)", len(hits), k)
	return hits, nil
}

func distinctSources(hits []domain.ScoredChunk) int {
	var set sourceSet
	for _, h := range hits {
		set.add(h.Chunk.SourceFile, h.Chunk.Page)
	}
	return len(set.list)
}

// generate calls the language model under the configured timeout,
// retrying rate-limited calls with exponential backoff.
func (s *QueryService) generate(ctx context.Context, prompt string) (string, error) {
	opts := driven.GenerateOptions{
		MaxTokens:   s.gen.MaxTokens,
		Temperature: s.gen.Temperature,
	}
	delay := s.retryDelay

	for attempt := 0; ; attempt++ {
		text, err := s.generateOnce(ctx, prompt, opts)
		if err == nil {
			return text, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if errors.Is(err, domain.ErrGenerationTimeout) {
			return "", err
		}
		if !errors.Is(err, domain.ErrRateLimited) || attempt >= s.gen.MaxRetries {
			if errors.Is(err, domain.ErrGenerationFailed) {
				return "", err
			}
			return "", fmt.Errorf("%w: %w", domain.ErrGenerationFailed, err)
		}

		logger.Warn("Language model rate limited, retrying in %s", delay)
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
}

func (s *QueryService) generateOnce(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	timeout := s.gen.Timeout
	if timeout <= 0 {
		timeout = domain.DefaultAppSettings().LLM.Timeout
	}
	gctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	text, err := s.llm.Generate(gctx, prompt, opts)
	if err != nil && ctx.Err() == nil && (errors.Is(err, context.DeadlineExceeded) || gctx.Err() != nil) {
		return "", fmt.Errorf("%w after %s", domain.ErrGenerationTimeout, timeout)
	}
	return text, err
}

// buildPrompt fills the grounded template with history, context and question.
func (s *QueryService) buildPrompt(question string, history []domain.Turn, hits []domain.ScoredChunk) string {
	tpl := s.template()
	parts := strings.SplitN(tpl, "%s", 4)
	return parts[0] + formatHistory(history) + parts[1] + formatContext(hits) + parts[2] + question + parts[3]
}

func (s *QueryService) template() string {
	if s.prompts == nil {
		return fallbackGroundedPrompt
	}
	tpl, err := s.prompts.Load(driven.PromptGroundedAnswer)
	if err != nil || strings.Count(tpl, "%s") != 3 {
		if err == nil {
			logger.Warn("Prompt %q needs exactly three %%s placeholders, using the built-in one", driven.PromptGroundedAnswer)
		}
		return fallbackGroundedPrompt
	}
	return tpl
}

func (s *QueryService) noSourcesText() string {
	if s.prompts != nil {
		if text, err := s.prompts.Load(driven.PromptNoSources); err == nil && strings.TrimSpace(text) != "" {
			return strings.TrimSpace(text)
		}
	}
	return NoSourcesText
}

// formatHistory renders the trailing turns as "Role: content" lines.
func formatHistory(history []domain.Turn) string {
	if len(history) > historyTurns {
		history = history[len(history)-historyTurns:]
	}
	lines := make([]string, 0, len(history))
	for _, t := range history {
		role := t.Role
		if role == "" {
			role = domain.TurnUser
		}
		content := t.Content
		if i := strings.Index(content, sourcesMarker); i >= 0 {
			content = content[:i]
		}
		lines = append(lines, roleLabel(role)+": "+strings.TrimSpace(content))
	}
	return strings.Join(lines, "\n")
}

// roleLabel title-cases the first rune of a turn role.
func roleLabel(role string) string {
	r, size := utf8.DecodeRuneInString(role)
	return string(unicode.ToTitle(r)) + role[size:]
}

// formatContext renders each hit under a "[Source: file, page N]" header.
func formatContext(hits []domain.ScoredChunk) string {
	blocks := make([]string, 0, len(hits))
	for _, h := range hits {
		header := "[Source: " + filepath.Base(h.Chunk.SourceFile)
		if h.Chunk.Page > 0 {
			header += fmt.Sprintf(", page %d", h.Chunk.Page)
		}
		blocks = append(blocks, header+"]\n"+h.Chunk.Content)
	}
	return strings.Join(blocks, contextSeparator)
}
