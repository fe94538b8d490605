package storage

import (
	"sync"

	"github.com/julianstephens/dtracker/internal/models"
)

// Broker fans change notifications out to subscribers. Handlers run on the
// publishing goroutine and must not block.
type Broker struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]subscription
	closed bool
}

type subscription struct {
	collection string
	fn         func(models.Change)
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[int]subscription)}
}

// Subscribe registers fn for changes to collection, or to every collection
// when collection is empty. The returned func is safe to call more than once.
func (b *Broker) Subscribe(collection string, fn func(models.Change)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return func() {}
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = subscription{collection: collection, fn: fn}

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

// Publish delivers c to every matching subscriber.
func (b *Broker) Publish(c models.Change) {
	b.mu.RLock()
	fns := make([]func(models.Change), 0, len(b.subs))
	for _, s := range b.subs {
		if s.collection == "" || s.collection == c.Collection {
			fns = append(fns, s.fn)
		}
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		fn(c)
	}
}

// Len returns the number of active subscriptions.
func (b *Broker) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close drops every subscription; later Subscribe calls are no-ops.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.subs = make(map[int]subscription)
}
