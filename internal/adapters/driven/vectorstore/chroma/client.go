package chroma

import (
	"context"
	"encoding/json"
	"fmt"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// backend is the slice of the Chroma API the store needs.
type backend interface {
	create(ctx context.Context, name string) error
	add(ctx context.Context, name string, chunks []domain.Chunk) error
	query(ctx context.Context, name string, vector []float32, k int) ([]domain.ScoredChunk, error)
	drop(ctx context.Context, name string) error
	close() error
}

// chunkMeta is the metadata stored beside each chunk document.
type chunkMeta struct {
	DocumentID string `json:"document_id"`
	SourceFile string `json:"source_file"`
	Offset     int    `json:"char_offset"`
	Page       int    `json:"page"`
	Position   int    `json:"position"`
}

type httpBackend struct {
	client chromago.Client
}

func newHTTPBackend(baseURL string) (*httpBackend, error) {
	var opts []chromago.ClientOption
	if baseURL != "" {
		opts = append(opts, chromago.WithBaseURL(baseURL))
	}
	client, err := chromago.NewHTTPClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating chroma client: %w", err)
	}
	return &httpBackend{client: client}, nil
}

func (b *httpBackend) create(ctx context.Context, name string) error {
	_, err := b.client.GetOrCreateCollection(ctx, name,
		chromago.WithCollectionMetadataCreate(
			chromago.NewMetadata(
				chromago.NewStringAttribute("description", "docqa retrieval index"),
				chromago.NewStringAttribute("hnsw:space", "cosine"),
			),
		),
	)
	return err
}

func (b *httpBackend) add(ctx context.Context, name string, chunks []domain.Chunk) error {
	col, err := b.client.GetCollection(ctx, name)
	if err != nil {
		return fmt.Errorf("getting collection %s: %w", name, err)
	}

	ids := make([]chromago.DocumentID, len(chunks))
	texts := make([]string, len(chunks))
	vecs := make([]embeddings.Embedding, len(chunks))
	metas := make([]chromago.DocumentMetadata, len(chunks))
	for i, c := range chunks {
		ids[i] = chromago.DocumentID(c.ID)
		texts[i] = c.Content
		vecs[i] = embeddings.NewEmbeddingFromFloat32(c.Embedding)
		metas[i] = chromago.NewDocumentMetadata(
			chromago.NewStringAttribute("document_id", c.DocumentID),
			chromago.NewStringAttribute("source_file", c.SourceFile),
			chromago.NewIntAttribute("char_offset", int64(c.Offset)),
			chromago.NewIntAttribute("page", int64(c.Page)),
			chromago.NewIntAttribute("position", int64(c.Position)),
		)
	}

	return col.Add(ctx,
		chromago.WithIDs(ids...),
		chromago.WithTexts(texts...),
		chromago.WithEmbeddings(vecs...),
		chromago.WithMetadatas(metas...),
	)
}

func (b *httpBackend) query(ctx context.Context, name string, vector []float32, k int) ([]domain.ScoredChunk, error) {
	col, err := b.client.GetCollection(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("getting collection %s: %w", name, err)
	}

	results, err := col.Query(ctx,
		chromago.WithQueryEmbeddings(embeddings.NewEmbeddingFromFloat32(vector)),
		chromago.WithNResults(k),
	)
	if err != nil {
		return nil, err
	}

	idGroups := results.GetIDGroups()
	docGroups := results.GetDocumentsGroups()
	metaGroups := results.GetMetadatasGroups()
	distGroups := results.GetDistancesGroups()
	if len(idGroups) == 0 {
		return nil, nil
	}

	hits := make([]domain.ScoredChunk, 0, len(idGroups[0]))
	for i, id := range idGroups[0] {
		c := domain.Chunk{ID: string(id)}
		if len(docGroups) > 0 && i < len(docGroups[0]) && docGroups[0][i] != nil {
			c.Content = docGroups[0][i].ContentString()
		}
		if len(metaGroups) > 0 && i < len(metaGroups[0]) && metaGroups[0][i] != nil {
			// DocumentMetadata has no typed export; round-trip through JSON.
			raw, err := json.Marshal(metaGroups[0][i])
			if err != nil {
				return nil, fmt.Errorf("%w: chunk metadata: %v", domain.ErrMalformedResponse, err)
			}
			var m chunkMeta
			if err := json.Unmarshal(raw, &m); err != nil {
				return nil, fmt.Errorf("%w: chunk metadata: %v", domain.ErrMalformedResponse, err)
			}
			c.DocumentID, c.SourceFile, c.Offset, c.Page, c.Position = m.DocumentID, m.SourceFile, m.Offset, m.Page, m.Position
		}
		score := 0.0
		if len(distGroups) > 0 && i < len(distGroups[0]) {
			// Cosine distance to similarity.
			score = 1 - float64(distGroups[0][i])
		}
		hits = append(hits, domain.ScoredChunk{Chunk: c, Score: score})
	}
	return hits, nil
}

func (b *httpBackend) drop(ctx context.Context, name string) error {
	return b.client.DeleteCollection(ctx, name)
}

func (b *httpBackend) close() error {
	return b.client.Close()
}
