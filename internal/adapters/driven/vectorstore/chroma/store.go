// Package chroma provides a retrieval index stored in a Chroma server.
//
// Every build writes a new collection. A small state file in the index
// directory names the active collection, so a failed build leaves the
// previous one in service.
package chroma

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// StateFile records the active collection inside the index directory.
const StateFile = "chroma.json"

const addBatchSize = 256

// Ensure interfaces are implemented.
var (
	_ driven.VectorStore   = (*Store)(nil)
	_ driven.IndexSnapshot = (*Snapshot)(nil)
)

type state struct {
	Active   string           `json:"active"`
	Previous string           `json:"previous,omitempty"`
	Meta     driven.IndexMeta `json:"meta"`
}

// Store manages index generations as Chroma collections.
type Store struct {
	backend backend
	prefix  string
	path    string
}

// New connects to the Chroma server at baseURL. Collections are named
// after prefix; state is kept in dir.
func New(baseURL, prefix, dir string) (*Store, error) {
	b, err := newHTTPBackend(baseURL)
	if err != nil {
		return nil, err
	}
	return newStore(b, prefix, dir), nil
}

func newStore(b backend, prefix, dir string) *Store {
	if prefix == "" {
		prefix = "docqa"
	}
	return &Store{backend: b, prefix: prefix, path: filepath.Join(dir, StateFile)}
}

// Build loads chunks into a new collection and makes it active. The
// collection from two builds ago is dropped; the previous one is kept for
// searches still running against it.
func (s *Store) Build(ctx context.Context, chunks []domain.Chunk, meta driven.IndexMeta) (driven.IndexSnapshot, error) {
	old, err := s.readState()
	if err != nil && !errors.Is(err, domain.ErrIndexNotFound) {
		return nil, err
	}

	name := fmt.Sprintf("%s-%d", s.prefix, meta.BuiltAt.UnixNano())
	if err := s.backend.create(ctx, name); err != nil {
		return nil, fmt.Errorf("creating collection %s: %w", name, err)
	}
	for start := 0; start < len(chunks); start += addBatchSize {
		end := min(start+addBatchSize, len(chunks))
		if err := s.backend.add(ctx, name, chunks[start:end]); err != nil {
			s.dropQuietly(ctx, name)
			return nil, fmt.Errorf("adding chunks to %s: %w", name, err)
		}
	}

	meta.ChunkCount = len(chunks)
	next := state{Active: name, Previous: old.Active, Meta: meta}
	if err := s.writeState(next); err != nil {
		s.dropQuietly(ctx, name)
		return nil, err
	}
	if old.Previous != "" {
		s.dropQuietly(ctx, old.Previous)
	}

	logger.Debug("chroma: activated collection %s (%d chunks)", name, len(chunks))
	return &Snapshot{backend: s.backend, name: name, meta: meta}, nil
}

// Load opens the active collection.
func (s *Store) Load(_ context.Context) (driven.IndexSnapshot, error) {
	st, err := s.readState()
	if err != nil {
		return nil, err
	}
	return &Snapshot{backend: s.backend, name: st.Active, meta: st.Meta}, nil
}

// Close closes the Chroma client.
func (s *Store) Close() error {
	return s.backend.close()
}

func (s *Store) dropQuietly(ctx context.Context, name string) {
	if err := s.backend.drop(ctx, name); err != nil {
		logger.Warn("chroma: dropping collection %s: %v", name, err)
	}
}

func (s *Store) readState() (state, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return state{}, domain.ErrIndexNotFound
		}
		return state{}, fmt.Errorf("reading chroma state: %w", err)
	}
	var st state
	if err := json.Unmarshal(data, &st); err != nil {
		return state{}, fmt.Errorf("parsing chroma state: %w", err)
	}
	if strings.TrimSpace(st.Active) == "" {
		return state{}, domain.ErrIndexNotFound
	}
	return st, nil
}

func (s *Store) writeState(st state) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding chroma state: %w", err)
	}
	tmp := s.path + ".new"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing chroma state: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("publishing chroma state: %w", err)
	}
	return nil
}

// Snapshot searches one collection.
type Snapshot struct {
	backend backend
	name    string
	meta    driven.IndexMeta
}

// Search queries the collection for the k nearest chunks.
func (s *Snapshot) Search(ctx context.Context, vector []float32, k int) ([]domain.ScoredChunk, error) {
	if k <= 0 {
		return nil, nil
	}
	hits, err := s.backend.query(ctx, s.name, vector, k)
	if err != nil {
		return nil, fmt.Errorf("querying collection %s: %w", s.name, err)
	}
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Meta describes how the snapshot was built.
func (s *Snapshot) Meta() driven.IndexMeta {
	return s.meta
}

// Collection returns the collection name.
func (s *Snapshot) Collection() string {
	return s.name
}

// Close is a no-op; the collection outlives the snapshot.
func (s *Snapshot) Close() error {
	return nil
}
