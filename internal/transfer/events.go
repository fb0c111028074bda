package transfer

import (
	"sync"
)

// Finished is the completion signal. It carries nothing: listeners re-query
// the cache or refresh instead of relying on event data.
type Finished struct{}

// Broadcaster fans the completion signal out to subscribers. A subscriber
// that has not drained its previous signal does not block Publish; pending
// signals coalesce into one.
type Broadcaster struct {
	mu   sync.Mutex
	subs map[chan Finished]struct{}
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[chan Finished]struct{})}
}

// Subscribe returns a channel receiving completion signals and a function
// that unsubscribes and closes it.
func (b *Broadcaster) Subscribe() (<-chan Finished, func()) {
	ch := make(chan Finished, 1)

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			b.mu.Unlock()
			close(ch)
		})
	}
}

func (b *Broadcaster) Publish() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.subs {
		select {
		case ch <- Finished{}:
		default:
		}
	}
}

// Subscribers returns the number of active subscriptions.
func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
