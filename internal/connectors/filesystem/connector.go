// Package filesystem reads documents from a local folder and watches it
// for changes.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure Connector implements the interface.
var _ driven.DocumentSource = (*Connector)(nil)

// Connector reads supported files below a root folder.
type Connector struct {
	sourceID   string
	rootPath   string
	extensions map[string]bool

	mu       sync.Mutex
	watchers []*fsnotify.Watcher
}

// New creates a connector for rootPath. Only files whose extension is in
// extensions are read; an empty list accepts every file.
func New(sourceID, rootPath string, extensions []string) *Connector {
	exts := make(map[string]bool, len(extensions))
	for _, e := range extensions {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" && !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		if e != "" {
			exts[e] = true
		}
	}
	return &Connector{sourceID: sourceID, rootPath: rootPath, extensions: exts}
}

// Root returns the folder being read.
func (c *Connector) Root() string {
	return c.rootPath
}

// Validate checks the folder exists and is a directory.
func (c *Connector) Validate(_ context.Context) error {
	info, err := os.Stat(c.rootPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("document folder %s: %w", c.rootPath, domain.ErrNotFound)
		}
		return fmt.Errorf("document folder %s: %w", c.rootPath, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("document folder %s is not a directory: %w", c.rootPath, domain.ErrInvalidInput)
	}
	return nil
}

// FullSync reads every supported file in sorted path order. Hidden files
// and directories are skipped.
func (c *Connector) FullSync(ctx context.Context) (<-chan domain.RawDocument, <-chan error) {
	docs := make(chan domain.RawDocument)
	errs := make(chan error, 16)

	go func() {
		defer close(docs)
		defer close(errs)

		paths, err := c.List()
		if err != nil {
			errs <- err
			return
		}
		for _, path := range paths {
			doc, err := c.read(path)
			if err != nil {
				select {
				case errs <- err:
				case <-ctx.Done():
					return
				}
				continue
			}
			select {
			case docs <- doc:
			case <-ctx.Done():
				return
			}
		}
	}()

	return docs, errs
}

// List returns the supported file paths in sorted order.
func (c *Connector) List() ([]string, error) {
	var paths []string
	err := filepath.WalkDir(c.rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("filesystem: %s: %v", path, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if path != c.rootPath && isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		if c.supported(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", c.rootPath, err)
	}
	sort.Strings(paths)
	return paths, nil
}

func (c *Connector) supported(path string) bool {
	if len(c.extensions) == 0 {
		return true
	}
	return c.extensions[strings.ToLower(filepath.Ext(path))]
}

func (c *Connector) read(path string) (domain.RawDocument, error) {
	info, err := os.Stat(path)
	if err != nil {
		return domain.RawDocument{}, fmt.Errorf("stat %s: %w", path, err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return domain.RawDocument{}, fmt.Errorf("reading %s: %w", path, err)
	}
	rel, err := filepath.Rel(c.rootPath, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	return domain.RawDocument{
		SourceID: c.sourceID,
		URI:      path,
		MIMEType: detectMIMEType(path),
		Content:  content,
		ModTime:  info.ModTime(),
		Metadata: map[string]any{
			"filename": filepath.Base(path),
			"relpath":  filepath.ToSlash(rel),
			"size":     info.Size(),
		},
	}, nil
}

// Watch reports created, updated and deleted supported files until ctx is
// cancelled. New subdirectories are watched as they appear.
func (c *Connector) Watch(ctx context.Context) (<-chan domain.RawDocumentChange, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := c.addTree(w, c.rootPath); err != nil {
		w.Close()
		return nil, err
	}

	c.mu.Lock()
	c.watchers = append(c.watchers, w)
	c.mu.Unlock()

	changes := make(chan domain.RawDocumentChange)
	go func() {
		defer close(changes)
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if event.Has(fsnotify.Create) {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !isHidden(filepath.Base(event.Name)) {
						if err := c.addTree(w, event.Name); err != nil {
							logger.Warn("filesystem: watching %s: %v", event.Name, err)
						}
						continue
					}
				}
				change, ok := c.handleFsEvent(event)
				if !ok {
					continue
				}
				select {
				case changes <- change:
				case <-ctx.Done():
					return
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Warn("filesystem: watcher: %v", err)
			}
		}
	}()

	return changes, nil
}

func (c *Connector) addTree(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != c.rootPath && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

// handleFsEvent maps a watcher event to a document change.
func (c *Connector) handleFsEvent(event fsnotify.Event) (domain.RawDocumentChange, bool) {
	rel, err := filepath.Rel(c.rootPath, event.Name)
	if err != nil || isHidden(rel) || !c.supported(event.Name) {
		return domain.RawDocumentChange{}, false
	}

	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return domain.RawDocumentChange{
			Type:     domain.ChangeDeleted,
			Document: domain.RawDocument{SourceID: c.sourceID, URI: event.Name, MIMEType: detectMIMEType(event.Name)},
		}, true
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		doc, err := c.read(event.Name)
		if err != nil {
			return domain.RawDocumentChange{}, false
		}
		kind := domain.ChangeUpdated
		if event.Has(fsnotify.Create) {
			kind = domain.ChangeCreated
		}
		return domain.RawDocumentChange{Type: kind, Document: doc}, true
	default:
		return domain.RawDocumentChange{}, false
	}
}

// Close stops every watcher.
func (c *Connector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var errs []error
	for _, w := range c.watchers {
		if err := w.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	c.watchers = nil
	return errors.Join(errs...)
}

// isHidden reports whether any element of path starts with a dot.
// "." and ".." are not hidden.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if len(part) > 1 && strings.HasPrefix(part, ".") && part != ".." {
			return true
		}
	}
	return false
}

var mimeByExt = map[string]string{
	".pdf":      "application/pdf",
	".docx":     "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xlsx":     "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".pptx":     "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".txt":      "text/plain",
	".text":     "text/plain",
	".log":      "text/plain",
	".csv":      "text/csv",
	".md":       "text/markdown",
	".markdown": "text/markdown",
}

// detectMIMEType maps a file extension to a MIME type, falling back to the
// system table and then to application/octet-stream.
func detectMIMEType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return "text/plain"
	}
	if m, ok := mimeByExt[ext]; ok {
		return m
	}
	if m := mime.TypeByExtension(ext); m != "" {
		if i := strings.IndexByte(m, ';'); i >= 0 {
			m = m[:i]
		}
		return strings.TrimSpace(m)
	}
	return "application/octet-stream"
}
