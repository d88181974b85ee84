package services

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/adapters/driven/embedding/hashing"
	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docqa/internal/adapters/driven/vectorstore/local"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/postprocessors"
)

// --- Document source ---

type fakeSource struct {
	docs        []domain.RawDocument
	readErrs    []error
	validateErr error
	changes     chan domain.RawDocumentChange
}

func (s *fakeSource) Root() string { return "/docs" }

func (s *fakeSource) Validate(context.Context) error { return s.validateErr }

func (s *fakeSource) FullSync(ctx context.Context) (<-chan domain.RawDocument, <-chan error) {
	docs := make(chan domain.RawDocument)
	errs := make(chan error)
	go func() {
		defer close(docs)
		defer close(errs)
		for _, d := range s.docs {
			select {
			case docs <- d:
			case <-ctx.Done():
				return
			}
		}
		for _, e := range s.readErrs {
			select {
			case errs <- e:
			case <-ctx.Done():
				return
			}
		}
	}()
	return docs, errs
}

func (s *fakeSource) Watch(context.Context) (<-chan domain.RawDocumentChange, error) {
	if s.changes == nil {
		return nil, errors.New("watch not supported")
	}
	return s.changes, nil
}

func (s *fakeSource) Close() error { return nil }

func textDoc(uri, content string) domain.RawDocument {
	return domain.RawDocument{SourceID: "docs", URI: uri, MIMEType: "text/plain", Content: []byte(content)}
}

// --- Normaliser registry ---

// fakeRegistry turns text/plain into one unpaged section and
// application/x-slides into one section per line, each line a slide.
type fakeRegistry struct {
	fail map[string]error
}

func (r *fakeRegistry) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if err := r.fail[raw.URI]; err != nil {
		return nil, err
	}
	doc := domain.Document{ID: raw.URI, URI: raw.URI, Title: raw.URI, Metadata: map[string]any{}}
	switch raw.MIMEType {
	case "text/plain":
		doc.Sections = []domain.Section{{Text: string(raw.Content)}}
	case "application/x-slides":
		for i, line := range strings.Split(string(raw.Content), "\n") {
			doc.Sections = append(doc.Sections, domain.Section{Text: line, Page: i + 1})
			doc.Slides = append(doc.Slides, domain.Slide{Number: i + 1, Shapes: []domain.Shape{{ID: "s", Slide: i + 1, Text: line}}})
		}
	default:
		return nil, domain.ErrUnsupportedFormat
	}
	doc.Content = domain.JoinSections(doc.Sections)
	return &driven.NormaliseResult{Document: doc}, nil
}

func (r *fakeRegistry) Register(driven.Normaliser) {}

func (r *fakeRegistry) SupportedMIMETypes() []string {
	return []string{"text/plain", "application/x-slides"}
}

// --- Deck extractor ---

// fakeExtractor emits one milestone per slide whose text starts with "MS ".
type fakeExtractor struct{}

func (fakeExtractor) ExtractDeck(deck domain.Deck) domain.DeckResult {
	out := domain.DeckResult{SourceFile: deck.SourceFile}
	for _, s := range deck.Slides {
		res := domain.SlideResult{Slide: s.Number}
		for _, sh := range s.Shapes {
			if title, ok := strings.CutPrefix(sh.Text, "MS "); ok {
				res.Milestones = append(res.Milestones, domain.MilestoneRecord{
					ID: deck.SourceFile + title, Title: title, RawDate: "May 1",
					SourceFile: deck.SourceFile, Slide: s.Number,
				})
				res.Caption = "Slide " + strconv.Itoa(s.Number) + ": " + title + " (May 1)"
			}
		}
		out.Slides = append(out.Slides, res)
	}
	return out
}

// --- Embedding ---

type countingEmbedder struct {
	*hashing.EmbeddingService
	batches atomic.Int32
	failAll error
	model   string
}

func newEmbedder() *countingEmbedder {
	return &countingEmbedder{EmbeddingService: hashing.New(64)}
}

func (e *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.failAll != nil {
		return nil, e.failAll
	}
	return e.EmbeddingService.Embed(ctx, text)
}

func (e *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.batches.Add(1)
	if e.failAll != nil {
		return nil, e.failAll
	}
	return e.EmbeddingService.EmbedBatch(ctx, texts)
}

func (e *countingEmbedder) ModelName() string {
	if e.model != "" {
		return e.model
	}
	return e.EmbeddingService.ModelName()
}

// --- LLM ---

type fakeLLM struct {
	mu      sync.Mutex
	prompts []string
	replies []func(ctx context.Context) (string, error)
}

func (l *fakeLLM) Generate(ctx context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	l.mu.Lock()
	n := len(l.prompts)
	l.prompts = append(l.prompts, prompt)
	l.mu.Unlock()

	if len(l.replies) == 0 {
		return "grounded reply", nil
	}
	if n >= len(l.replies) {
		n = len(l.replies) - 1
	}
	return l.replies[n](ctx)
}

func (l *fakeLLM) calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.prompts)
}

func (l *fakeLLM) lastPrompt() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.prompts[len(l.prompts)-1]
}

func (l *fakeLLM) ModelName() string { return "fake" }

func (l *fakeLLM) Ping(context.Context) error { return nil }

func (l *fakeLLM) Close() error { return nil }

// --- Prompts ---

type fakePrompts map[string]string

func (p fakePrompts) Load(name string) (string, error) {
	if v, ok := p[name]; ok {
		return v, nil
	}
	return "", domain.ErrNotFound
}

func (p fakePrompts) Reload() {}

// --- Wiring ---

type harness struct {
	source    *fakeSource
	registry  *fakeRegistry
	embedder  *countingEmbedder
	vectors   *local.Store
	timelines *memory.TimelineStores
	index     *IndexService
}

func newHarness(t *testing.T, docs ...domain.RawDocument) *harness {
	t.Helper()

	reg := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(reg)
	pipeline, err := postprocessors.FromConfig(reg, domain.DefaultPipelineConfig())
	require.NoError(t, err)

	h := &harness{
		source:    &fakeSource{docs: docs},
		registry:  &fakeRegistry{fail: map[string]error{}},
		embedder:  newEmbedder(),
		vectors:   local.New(t.TempDir()),
		timelines: memory.NewTimelineStores(),
	}
	indexer := NewIndexer(h.source, h.registry, pipeline, fakeExtractor{}, h.embedder, WithWorkers(3), WithBatchSize(2))
	h.index = NewIndexService(indexer, h.vectors, h.timelines, h.embedder)
	t.Cleanup(func() { _ = h.index.Close() })
	return h
}
