package coordinator

import (
	"sync"

	"github.com/jgesser/mobilecloud-15/internal/database/videos"
	"github.com/jgesser/mobilecloud-15/internal/entities"
)

// Op names the operation a View callback reports on.
type Op string

const (
	OpRefresh Op = "refresh"
	OpLoad    Op = "load"
	OpRate    Op = "rate"
)

// View receives the results of the Request* methods. Callbacks run on the
// goroutine that did the work.
type View interface {
	VideosLoaded(snap *videos.Snapshot)
	VideoLoaded(video entities.Video)
	RatingUpdated(video entities.Video)
	Failed(op Op, err error)
}

// Binding is the coordinator's non-owning link to a View. After Detach,
// results of work still in flight are dropped.
type Binding struct {
	c *Coordinator

	mu   sync.Mutex
	view View
}

// Detach releases the view. It is safe to call more than once.
func (b *Binding) Detach() {
	b.mu.Lock()
	b.view = nil
	b.mu.Unlock()
	b.c.binding.CompareAndSwap(b, nil)
}

func (b *Binding) load() View {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.view
}
