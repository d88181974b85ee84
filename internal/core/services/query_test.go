package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

var testLLMSettings = domain.LLMSettings{Timeout: time.Second, MaxRetries: 2, MaxTokens: 256}

func newQuery(t *testing.T, h *harness, llm *fakeLLM, retrieval domain.RetrievalSettings, opts ...QueryOption) *QueryService {
	t.Helper()
	_, err := h.index.EnsureReady(context.Background(), false)
	require.NoError(t, err)
	opts = append([]QueryOption{WithRetryDelay(0)}, opts...)
	return NewQueryService(h.index, h.embedder, llm, retrieval, testLLMSettings, opts...)
}

func TestQueryService_Answer_GroundedPrompt(t *testing.T) {
	h := newHarness(t,
		textDoc("/docs/budget.txt", "The budget for 2025 is four million dollars."),
		textDoc("/docs/hiring.txt", "Hiring plans add twelve engineers in 2025."),
	)
	llm := &fakeLLM{}
	q := newQuery(t, h, llm, domain.RetrievalSettings{K: 2})

	var history []domain.Turn
	for i := range 8 {
		role := domain.TurnUser
		if i%2 == 1 {
			role = domain.TurnAssistant
		}
		history = append(history, domain.Turn{Role: role, Content: fmt.Sprintf("turn %d", i)})
	}
	history[7].Content = "turn 7\nSources:\n- budget.txt"

	ans, err := q.Answer(context.Background(), "What is the budget?", history)

	require.NoError(t, err)
	assert.Equal(t, "grounded reply", ans.Text)
	assert.False(t, ans.Structured)
	assert.False(t, ans.NoSources)
	assert.ElementsMatch(t, []domain.Source{{File: "budget.txt"}, {File: "hiring.txt"}}, ans.Sources)

	prompt := llm.lastPrompt()
	assert.True(t, strings.HasPrefix(prompt, "You are a grounded assistant."))
	assert.NotContains(t, prompt, "turn 1\n")
	assert.Contains(t, prompt, "User: turn 2\nAssistant: turn 3")
	assert.Contains(t, prompt, "Assistant: turn 7\n")
	assert.NotContains(t, prompt, "- budget.txt")
	assert.Contains(t, prompt, "[Source: budget.txt]\nThe budget for 2025 is four million dollars.")
	assert.Contains(t, prompt, "[Source: hiring.txt]\n")
	assert.Contains(t, prompt, "\n\n---\n\n")
	assert.Contains(t, prompt, "Latest question:\nWhat is the budget?")
}

func TestQueryService_Answer_EmptyQuestion(t *testing.T) {
	h := newHarness(t, textDoc("/docs/a.txt", "Alpha."))
	q := newQuery(t, h, &fakeLLM{}, domain.RetrievalSettings{K: 2})

	_, err := q.Answer(context.Background(), "   ", nil)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestQueryService_Answer_NotIndexed(t *testing.T) {
	h := newHarness(t, textDoc("/docs/a.txt", "Alpha."))
	q := NewQueryService(h.index, h.embedder, &fakeLLM{}, domain.RetrievalSettings{K: 2}, testLLMSettings)

	_, err := q.Answer(context.Background(), "anything", nil)

	assert.ErrorIs(t, err, domain.ErrIndexNotFound)
}

func TestQueryService_Answer_NoSourcesSkipsModel(t *testing.T) {
	h := newHarness(t)
	llm := &fakeLLM{}
	q := newQuery(t, h, llm, domain.RetrievalSettings{K: 3})

	ans, err := q.Answer(context.Background(), "What is the budget?", nil)

	require.NoError(t, err)
	assert.True(t, ans.NoSources)
	assert.Equal(t, NoSourcesText, ans.Text)
	assert.Empty(t, ans.Sources)
	assert.Zero(t, llm.calls())
}

func TestQueryService_Answer_NoSourcesTextFromPrompts(t *testing.T) {
	h := newHarness(t)
	prompts := fakePrompts{driven.PromptNoSources: "Nothing found.\n"}
	q := newQuery(t, h, &fakeLLM{}, domain.RetrievalSettings{K: 3}, WithPromptStore(prompts))

	ans, err := q.Answer(context.Background(), "What is the budget?", nil)

	require.NoError(t, err)
	assert.Equal(t, "Nothing found.", ans.Text)
}

func TestQueryService_Answer_StructuredFirst(t *testing.T) {
	h := newHarness(t, slidesDoc("/docs/roadmap.pptx", "Intro slide", "MS Beta launch", "Wrap up"))
	llm := &fakeLLM{}
	q := newQuery(t, h, llm, domain.RetrievalSettings{K: 3}, WithPlanner(NewPlanner(2025, nil)))

	ans, err := q.Answer(context.Background(), "When is the Beta launch?", nil)

	require.NoError(t, err)
	assert.True(t, ans.Structured)
	assert.Equal(t, "**Milestones:**\n- Slide 2: **Beta launch** (May 1)", ans.Text)
	assert.Equal(t, []domain.Source{{File: "roadmap.pptx", Page: 2}}, ans.Sources)
	assert.Zero(t, llm.calls())
}

func TestQueryService_Answer_StructuredMissFallsBackToRetrieval(t *testing.T) {
	h := newHarness(t, slidesDoc("/docs/roadmap.pptx", "Intro slide", "MS Beta launch", "Wrap up"))
	llm := &fakeLLM{}
	q := newQuery(t, h, llm, domain.RetrievalSettings{K: 3}, WithPlanner(NewPlanner(2025, nil)))

	ans, err := q.Answer(context.Background(), "When is the offsite?", nil)

	require.NoError(t, err)
	assert.False(t, ans.Structured)
	assert.Equal(t, 1, llm.calls())
}

func TestQueryService_Answer_CustomTemplate(t *testing.T) {
	h := newHarness(t, textDoc("/docs/a.txt", "Alpha facts."))
	llm := &fakeLLM{}
	prompts := fakePrompts{driven.PromptGroundedAnswer: "H[%s] C[%s] Q[%s]"}
	q := newQuery(t, h, llm, domain.RetrievalSettings{K: 1}, WithPromptStore(prompts))

	_, err := q.Answer(context.Background(), "alpha?", []domain.Turn{{Role: domain.TurnUser, Content: "hi"}})

	require.NoError(t, err)
	assert.Equal(t, "H[User: hi] C[[Source: a.txt]\nAlpha facts.] Q[alpha?]", llm.lastPrompt())
}

func TestQueryService_Answer_MalformedTemplateFallsBack(t *testing.T) {
	h := newHarness(t, textDoc("/docs/a.txt", "Alpha facts."))
	llm := &fakeLLM{}
	prompts := fakePrompts{driven.PromptGroundedAnswer: "Only %s here"}
	q := newQuery(t, h, llm, domain.RetrievalSettings{K: 1}, WithPromptStore(prompts))

	_, err := q.Answer(context.Background(), "alpha?", nil)

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(llm.lastPrompt(), "You are a grounded assistant."))
}

func TestQueryService_Answer_EmbeddingFailure(t *testing.T) {
	h := newHarness(t, textDoc("/docs/a.txt", "Alpha facts."))
	llm := &fakeLLM{}
	q := newQuery(t, h, llm, domain.RetrievalSettings{K: 1})
	h.embedder.failAll = errors.New("connection refused")

	_, err := q.Answer(context.Background(), "alpha?", nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRetrievalFailed)
	assert.ErrorIs(t, err, domain.ErrEmbeddingFailed)
	assert.Zero(t, llm.calls())
}

func TestQueryService_Answer_GenerationErrors(t *testing.T) {
	block := func(ctx context.Context) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}
	rateLimited := func(context.Context) (string, error) {
		return "", fmt.Errorf("429: %w", domain.ErrRateLimited)
	}
	ok := func(context.Context) (string, error) { return "  late reply \n", nil }
	boom := func(context.Context) (string, error) { return "", errors.New("boom") }

	tests := []struct {
		name      string
		replies   []func(context.Context) (string, error)
		timeout   time.Duration
		wantErr   []error
		wantText  string
		wantCalls int
	}{
		{name: "timeout", replies: []func(context.Context) (string, error){block}, timeout: 20 * time.Millisecond, wantErr: []error{domain.ErrGenerationTimeout}, wantCalls: 1},
		{name: "rate limited then ok", replies: []func(context.Context) (string, error){rateLimited, ok}, wantText: "late reply", wantCalls: 2},
		{name: "rate limited exhausted", replies: []func(context.Context) (string, error){rateLimited}, wantErr: []error{domain.ErrGenerationFailed, domain.ErrRateLimited}, wantCalls: 3},
		{name: "other failure", replies: []func(context.Context) (string, error){boom}, wantErr: []error{domain.ErrGenerationFailed}, wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, textDoc("/docs/a.txt", "Alpha facts."))
			llm := &fakeLLM{replies: tt.replies}
			q := newQuery(t, h, llm, domain.RetrievalSettings{K: 1})
			if tt.timeout > 0 {
				q.gen.Timeout = tt.timeout
			}

			ans, err := q.Answer(context.Background(), "alpha?", nil)

			assert.Equal(t, tt.wantCalls, llm.calls())
			if len(tt.wantErr) == 0 {
				require.NoError(t, err)
				assert.Equal(t, tt.wantText, ans.Text)
				return
			}
			for _, want := range tt.wantErr {
				assert.ErrorIs(t, err, want)
			}
		})
	}
}

// fixedSnapshot returns the first k of a fixed ranking and records each k.
type fixedSnapshot struct {
	ranking []domain.ScoredChunk
	ks      []int
}

func (s *fixedSnapshot) Search(_ context.Context, _ []float32, k int) ([]domain.ScoredChunk, error) {
	s.ks = append(s.ks, k)
	return s.ranking[:min(k, len(s.ranking))], nil
}

func (s *fixedSnapshot) Meta() driven.IndexMeta { return driven.IndexMeta{ChunkCount: len(s.ranking)} }

func (s *fixedSnapshot) Close() error { return nil }

func ranked(files ...string) []domain.ScoredChunk {
	out := make([]domain.ScoredChunk, len(files))
	for i, f := range files {
		out[i] = domain.ScoredChunk{Chunk: domain.Chunk{ID: fmt.Sprint(i), SourceFile: f}}
	}
	return out
}

func TestQueryService_Retrieve_Adaptive(t *testing.T) {
	tests := []struct {
		name      string
		retrieval domain.RetrievalSettings
		ranking   []domain.ScoredChunk
		wantKs    []int
		wantHits  int
	}{
		{
			name:      "fixed k",
			retrieval: domain.RetrievalSettings{K: 2, MaxK: 6},
			ranking:   ranked("a", "a", "a", "b"),
			wantKs:    []int{2},
			wantHits:  2,
		},
		{
			name:      "grows until enough sources",
			retrieval: domain.RetrievalSettings{K: 2, MaxK: 6, Adaptive: true},
			ranking:   ranked("a", "a", "a", "b", "c"),
			wantKs:    []int{2, 3, 4},
			wantHits:  4,
		},
		{
			name:      "capped at max k",
			retrieval: domain.RetrievalSettings{K: 2, MaxK: 4, Adaptive: true},
			ranking:   ranked("a", "a", "a", "a", "a", "a"),
			wantKs:    []int{2, 3, 4},
			wantHits:  4,
		},
		{
			name:      "index exhausted",
			retrieval: domain.RetrievalSettings{K: 2, MaxK: 10, Adaptive: true},
			ranking:   ranked("a", "a", "a"),
			wantKs:    []int{2, 3, 4},
			wantHits:  3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			q := NewQueryService(h.index, h.embedder, &fakeLLM{}, tt.retrieval, testLLMSettings)
			snap := &fixedSnapshot{ranking: tt.ranking}

			hits, err := q.retrieve(context.Background(), snap, "question")

			require.NoError(t, err)
			assert.Equal(t, tt.wantKs, snap.ks)
			assert.Len(t, hits, tt.wantHits)
		})
	}
}

func TestFormatHistory(t *testing.T) {
	got := formatHistory([]domain.Turn{
		{Content: "no role"},
		{Role: domain.TurnAssistant, Content: "answer text\nSources:\n- a.txt, page 2"},
	})

	assert.Equal(t, "User: no role\nAssistant: answer text", got)
	assert.Empty(t, formatHistory(nil))

	assert.Equal(t, "Ébauche: draft", formatHistory([]domain.Turn{{Role: "ébauche", Content: "draft"}}))
}

func TestFormatContext(t *testing.T) {
	got := formatContext([]domain.ScoredChunk{
		{Chunk: domain.Chunk{SourceFile: "/docs/deck.pptx", Page: 4, Content: "Slide text"}},
		{Chunk: domain.Chunk{SourceFile: "/docs/notes.txt", Content: "Notes"}},
	})

	assert.Equal(t, "[Source: deck.pptx, page 4]\nSlide text\n\n---\n\n[Source: notes.txt]\nNotes", got)
}
