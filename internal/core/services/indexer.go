package services

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// DefaultBatchSize is the number of chunks embedded per request.
const DefaultBatchSize = 32

// DeckExtractor turns positioned slide shapes into timeline records.
type DeckExtractor interface {
	ExtractDeck(deck domain.Deck) domain.DeckResult
}

// Indexer runs every document through normalisation, timeline extraction,
// chunking and embedding. Files are processed in parallel; results are
// merged in path order so identical folders produce identical indexes.
type Indexer struct {
	source    driven.DocumentSource
	registry  driven.NormaliserRegistry
	pipeline  driven.PostProcessorPipeline
	extractor DeckExtractor
	embedder  driven.EmbeddingService
	workers   int
	batchSize int
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithWorkers bounds per-file parallelism. Zero or less means NumCPU.
func WithWorkers(n int) IndexerOption {
	return func(ix *Indexer) {
		if n > 0 {
			ix.workers = n
		}
	}
}

// WithBatchSize sets how many chunks are embedded per request.
func WithBatchSize(n int) IndexerOption {
	return func(ix *Indexer) {
		if n > 0 {
			ix.batchSize = n
		}
	}
}

// NewIndexer creates an indexer. extractor may be nil to skip timeline extraction.
func NewIndexer(
	source driven.DocumentSource,
	registry driven.NormaliserRegistry,
	pipeline driven.PostProcessorPipeline,
	extractor DeckExtractor,
	embedder driven.EmbeddingService,
	opts ...IndexerOption,
) *Indexer {
	ix := &Indexer{
		source:    source,
		registry:  registry,
		pipeline:  pipeline,
		extractor: extractor,
		embedder:  embedder,
		workers:   runtime.NumCPU(),
		batchSize: DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// fileResult is the outcome of processing one document.
type fileResult struct {
	uri     string
	chunks  []domain.Chunk
	deck    *domain.DeckResult
	skipped bool
	err     error
}

// IndexRun is everything one pass over the folder produced.
type IndexRun struct {
	Chunks []domain.Chunk
	Report driving.IndexReport
}

// Run processes every document, writes timeline records to timeline and
// returns the embedded chunks. A failing file is recorded in the report and
// never aborts the run; embedding and store failures do.
func (ix *Indexer) Run(ctx context.Context, timeline driven.TimelineStore) (*IndexRun, error) {
	if err := ix.source.Validate(ctx); err != nil {
		return nil, fmt.Errorf("document folder: %w", err)
	}

	logger.Section("Indexing " + ix.source.Root())
	results, readErrs, err := ix.processAll(ctx)
	if err != nil {
		return nil, err
	}

	run := &IndexRun{}
	report := &run.Report
	report.Files = len(results) + len(readErrs)
	report.Failed = len(readErrs)
	report.Errors = append(report.Errors, readErrs...)

	for _, r := range results {
		switch {
		case r.skipped:
			report.Skipped++
			logger.Debug("Skipping %s: %v", r.uri, r.err)
		case r.err != nil:
			report.Failed++
			report.Errors = append(report.Errors, fmt.Errorf("%s: %w", r.uri, r.err))
			logger.Warn("Failed to index %s: %v", r.uri, r.err)
		default:
			run.Chunks = append(run.Chunks, r.chunks...)
			if r.deck != nil {
				if err := storeDeck(ctx, timeline, r.deck, report); err != nil {
					return nil, err
				}
			}
		}
	}
	report.Chunks = len(run.Chunks)

	if err := ix.embed(ctx, run.Chunks); err != nil {
		return nil, err
	}

	logger.Info("Indexed %d files: %d chunks, %d milestones, %d spans, %d statuses (%d skipped, %d failed)",
		report.Files-report.Skipped-report.Failed, report.Chunks,
		report.Milestones, report.Spans, report.Statuses, report.Skipped, report.Failed)
	return run, nil
}

// processAll fans documents out to the worker pool and collects the results
// sorted by path. Read failures reported by the source come back separately.
//
//nolint:gocognit // Fan-out/fan-in over two source channels
func (ix *Indexer) processAll(ctx context.Context) ([]fileResult, []error, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	docsCh, errsCh := ix.source.FullSync(ctx)

	jobs := make(chan domain.RawDocument)
	out := make(chan fileResult)

	var wg sync.WaitGroup
	for range ix.workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for raw := range jobs {
				res := ix.processOne(ctx, &raw)
				select {
				case out <- res:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	var readErrs []error
	go func() {
		defer close(jobs)
		for docsCh != nil || errsCh != nil {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-errsCh:
				if !ok {
					errsCh = nil
					continue
				}
				// Only this goroutine appends; it is read after wg.Wait.
				readErrs = append(readErrs, err)
				logger.Warn("Failed to read: %v", err)
			case raw, ok := <-docsCh:
				if !ok {
					docsCh = nil
					continue
				}
				select {
				case jobs <- raw:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	var results []fileResult
	for {
		select {
		case res := <-out:
			results = append(results, res)
		case <-done:
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
			sort.Slice(results, func(i, j int) bool { return results[i].uri < results[j].uri })
			return results, readErrs, nil
		}
	}
}

// processOne normalises, extracts and chunks a single document.
func (ix *Indexer) processOne(ctx context.Context, raw *domain.RawDocument) fileResult {
	res := fileResult{uri: raw.URI}
	logger.Debug("Processing: %s", raw.URI)

	normalised, err := ix.registry.Normalise(ctx, raw)
	if err != nil {
		res.err = fmt.Errorf("normalise: %w", err)
		res.skipped = errors.Is(err, domain.ErrUnsupportedFormat)
		return res
	}
	doc := normalised.Document

	if len(doc.Slides) > 0 && ix.extractor != nil {
		deck := ix.extractor.ExtractDeck(domain.Deck{SourceFile: raw.URI, Slides: doc.Slides})
		res.deck = &deck
		appendCaptions(&doc, deck)
	}

	chunks, err := ix.pipeline.Process(ctx, &doc)
	if err != nil {
		res.err = fmt.Errorf("post-process: %w", err)
		return res
	}
	res.chunks = chunks
	return res
}

// appendCaptions adds each slide's timeline caption to that slide's section
// so retrieval sees the extracted records, then rebuilds Content.
func appendCaptions(doc *domain.Document, deck domain.DeckResult) {
	changed := false
	for _, slide := range deck.Slides {
		if slide.Caption == "" {
			continue
		}
		i := sort.Search(len(doc.Sections), func(i int) bool { return doc.Sections[i].Page >= slide.Slide })
		if i < len(doc.Sections) && doc.Sections[i].Page == slide.Slide {
			doc.Sections[i].Text = strings.TrimRight(doc.Sections[i].Text, "\n") + "\n" + slide.Caption
		} else {
			doc.Sections = append(doc.Sections, domain.Section{})
			copy(doc.Sections[i+1:], doc.Sections[i:])
			doc.Sections[i] = domain.Section{Text: slide.Caption, Page: slide.Slide}
		}
		changed = true
	}
	if changed {
		doc.Content = domain.JoinSections(doc.Sections)
	}
}

func storeDeck(ctx context.Context, store driven.TimelineStore, deck *domain.DeckResult, report *driving.IndexReport) error {
	milestones, spans, statuses := deck.Milestones(), deck.Spans(), deck.Statuses()
	if err := store.AddMilestones(ctx, milestones); err != nil {
		return fmt.Errorf("store milestones for %s: %w", deck.SourceFile, err)
	}
	if err := store.AddSpans(ctx, spans); err != nil {
		return fmt.Errorf("store spans for %s: %w", deck.SourceFile, err)
	}
	if err := store.AddStatuses(ctx, statuses); err != nil {
		return fmt.Errorf("store statuses for %s: %w", deck.SourceFile, err)
	}
	report.Milestones += len(milestones)
	report.Spans += len(spans)
	report.Statuses += len(statuses)
	report.Warnings += len(deck.Warnings())
	return nil
}

// embed fills chunk embeddings in batches.
func (ix *Indexer) embed(ctx context.Context, chunks []domain.Chunk) error {
	for start := 0; start < len(chunks); start += ix.batchSize {
		end := min(start+ix.batchSize, len(chunks))

		texts := make([]string, end-start)
		for i := range texts {
			texts[i] = chunks[start+i].Content
		}

		vectors, err := ix.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("%w: batch at chunk %d: %w", domain.ErrEmbeddingFailed, start, err)
		}
		if len(vectors) != len(texts) {
			return fmt.Errorf("%w: got %d vectors for %d chunks", domain.ErrEmbeddingFailed, len(vectors), len(texts))
		}
		for i, v := range vectors {
			chunks[start+i].Embedding = v
		}
		logger.Debug("Embedded %d/%d chunks", end, len(chunks))
	}
	return nil
}
