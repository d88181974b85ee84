package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

const (
	metaEmbeddingModel = "embedding_model"
	metaDimensions     = "dimensions"
	metaChunkCount     = "chunk_count"
	metaBuiltAt        = "built_at"
)

func indexMigrations() fs.FS {
	sub, err := fs.Sub(migrations.IndexFS, "index")
	if err != nil {
		panic(err)
	}
	return sub
}

// WriteIndex persists chunks and their embeddings to path. The file is
// built beside path and renamed into place once complete, so readers of
// the previous file never see a partial index.
func WriteIndex(ctx context.Context, path string, chunks []domain.Chunk, meta driven.IndexMeta) error {
	tmp, err := freshPath(path)
	if err != nil {
		return err
	}
	s, err := open(tmp, indexMigrations())
	if err != nil {
		return err
	}

	if err := s.writeChunks(ctx, chunks, meta); err != nil {
		s.Close()
		os.Remove(tmp)
		return err
	}
	if err := s.Close(); err != nil {
		return fmt.Errorf("closing index: %w", err)
	}
	return replaceFile(tmp, path)
}

func (s *Store) writeChunks(ctx context.Context, chunks []domain.Chunk, meta driven.IndexMeta) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, document_id, source_file, char_offset, page, position, content, embedding, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		var metadataJSON []byte
		if len(c.Metadata) > 0 {
			if metadataJSON, err = json.Marshal(c.Metadata); err != nil {
				return fmt.Errorf("marshalling chunk metadata: %w", err)
			}
		}
		_, err := stmt.ExecContext(ctx, c.ID, c.DocumentID, c.SourceFile, c.Offset, c.Page, c.Position,
			c.Content, float32SliceToBytes(c.Embedding), string(metadataJSON))
		if err != nil {
			return fmt.Errorf("inserting chunk %s: %w", c.ID, err)
		}
	}

	values := map[string]string{
		metaEmbeddingModel: meta.EmbeddingModel,
		metaDimensions:     strconv.Itoa(meta.Dimensions),
		metaChunkCount:     strconv.Itoa(len(chunks)),
		metaBuiltAt:        meta.BuiltAt.UTC().Format(time.RFC3339),
	}
	for k, v := range values {
		if _, err := tx.ExecContext(ctx, "INSERT INTO index_meta (key, value) VALUES (?, ?)", k, v); err != nil {
			return fmt.Errorf("writing index metadata: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ReadIndex loads every chunk from the index at path in source order.
// Returns domain.ErrIndexNotFound when the file does not exist.
func ReadIndex(ctx context.Context, path string) ([]domain.Chunk, driven.IndexMeta, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, driven.IndexMeta{}, domain.ErrIndexNotFound
		}
		return nil, driven.IndexMeta{}, fmt.Errorf("checking index: %w", err)
	}

	s, err := open(path, indexMigrations())
	if err != nil {
		return nil, driven.IndexMeta{}, err
	}
	defer s.Close()

	meta, err := s.readMeta(ctx)
	if err != nil {
		return nil, driven.IndexMeta{}, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, source_file, char_offset, page, position, content, embedding, metadata
		FROM chunks
		ORDER BY source_file, char_offset
	`)
	if err != nil {
		return nil, driven.IndexMeta{}, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk
	for rows.Next() {
		var c domain.Chunk
		var embedding []byte
		var metadataJSON string
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.SourceFile, &c.Offset, &c.Page, &c.Position,
			&c.Content, &embedding, &metadataJSON); err != nil {
			return nil, driven.IndexMeta{}, fmt.Errorf("scanning chunk: %w", err)
		}
		c.Embedding = bytesToFloat32Slice(embedding)
		if metadataJSON != "" {
			if err := json.Unmarshal([]byte(metadataJSON), &c.Metadata); err != nil {
				return nil, driven.IndexMeta{}, fmt.Errorf("unmarshalling chunk metadata: %w", err)
			}
		}
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, driven.IndexMeta{}, err
	}
	return chunks, meta, nil
}

func (s *Store) readMeta(ctx context.Context) (driven.IndexMeta, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM index_meta")
	if err != nil {
		return driven.IndexMeta{}, fmt.Errorf("querying index metadata: %w", err)
	}
	defer rows.Close()

	var meta driven.IndexMeta
	found := false
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return driven.IndexMeta{}, fmt.Errorf("scanning index metadata: %w", err)
		}
		found = true
		switch k {
		case metaEmbeddingModel:
			meta.EmbeddingModel = v
		case metaDimensions:
			meta.Dimensions, _ = strconv.Atoi(v)
		case metaChunkCount:
			meta.ChunkCount, _ = strconv.Atoi(v)
		case metaBuiltAt:
			meta.BuiltAt, _ = time.Parse(time.RFC3339, v)
		}
	}
	if err := rows.Err(); err != nil {
		return driven.IndexMeta{}, err
	}
	if !found {
		return driven.IndexMeta{}, domain.ErrIndexNotFound
	}
	return meta, nil
}
