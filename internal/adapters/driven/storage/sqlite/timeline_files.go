package sqlite

import (
	"errors"
	"fmt"
	"os"

	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

var (
	_ driven.TimelineStores = (*TimelineFiles)(nil)
	_ driven.TimelineBuild  = (*timelineBuild)(nil)
)

// TimelineFiles manages the structured store file at one path.
// Rebuilds write a sibling file and rename it into place.
type TimelineFiles struct {
	path string
}

// NewTimelineFiles returns a manager for the store at path.
func NewTimelineFiles(path string) *TimelineFiles {
	return &TimelineFiles{path: path}
}

// Open opens the live store.
func (f *TimelineFiles) Open() (driven.TimelineStore, error) {
	s, err := OpenTimeline(f.path)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// NewBuild opens an empty build store beside the live one.
func (f *TimelineFiles) NewBuild() (driven.TimelineBuild, error) {
	s, err := NewTimelineBuild(f.path)
	if err != nil {
		return nil, err
	}
	return &timelineBuild{TimelineStore: s, target: f.path}, nil
}

type timelineBuild struct {
	*TimelineStore
	target string
}

func (b *timelineBuild) Publish() (driven.TimelineStore, error) {
	s, err := b.TimelineStore.Publish(b.target)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (b *timelineBuild) Discard() error {
	closeErr := b.Close()
	if err := os.Remove(b.path); err != nil && !os.IsNotExist(err) {
		return errors.Join(closeErr, fmt.Errorf("removing build store: %w", err))
	}
	return closeErr
}
