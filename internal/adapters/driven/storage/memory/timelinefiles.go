package memory

import (
	"sync"

	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

var (
	_ driven.TimelineStores = (*TimelineStores)(nil)
	_ driven.TimelineBuild  = (*timelineBuild)(nil)
)

// TimelineStores keeps the live structured store in memory.
// Nothing survives the process.
type TimelineStores struct {
	mu   sync.Mutex
	live *TimelineStore
}

// NewTimelineStores creates an empty manager.
func NewTimelineStores() *TimelineStores {
	return &TimelineStores{}
}

// Open returns the live store.
func (m *TimelineStores) Open() (driven.TimelineStore, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.live == nil {
		m.live = NewTimelineStore()
	}
	return m.live, nil
}

// NewBuild starts an empty build.
func (m *TimelineStores) NewBuild() (driven.TimelineBuild, error) {
	return &timelineBuild{TimelineStore: NewTimelineStore(), owner: m}, nil
}

type timelineBuild struct {
	*TimelineStore
	owner *TimelineStores
}

func (b *timelineBuild) Publish() (driven.TimelineStore, error) {
	b.owner.mu.Lock()
	defer b.owner.mu.Unlock()
	b.owner.live = b.TimelineStore
	return b.TimelineStore, nil
}

func (b *timelineBuild) Discard() error {
	return nil
}
