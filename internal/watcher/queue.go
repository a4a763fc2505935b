package watcher

import (
	"sync"

	"github.com/roach88/edc/internal/journal"
)

// ItemType distinguishes the two things a watcher hands over.
type ItemType int

const (
	// ItemRecord carries one decoded journal record.
	ItemRecord ItemType = iota + 1
	// ItemStatus carries a watcher status or error notice.
	ItemStatus
)

// Item is one entry in the hand-off queue.
type Item struct {
	Type   ItemType
	Record journal.Record
	Status string
	// Path is the journal file the item came from, if any.
	Path string
}

// Queue is a thread-safe FIFO between the watcher goroutine and the
// consumer that folds records.
//
// The queue is unbounded: the watcher never blocks on a slow consumer, and
// bootstrap may push a whole window at once.
//
// A buffered signal channel of size 1 lets the consumer wait in a select
// alongside ctx.Done(). Close closes the channel, waking every waiter.
type Queue struct {
	mu     sync.Mutex
	items  []Item
	closed bool
	signal chan struct{}
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{
		items:  make([]Item, 0, 64),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue appends an item. Returns false if the queue is closed.
func (q *Queue) Enqueue(it Item) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.items = append(q.items, it)

	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// TryDequeue removes and returns the front item without blocking.
func (q *Queue) TryDequeue() (Item, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return Item{}, false
	}
	it := q.items[0]
	// Clear the slot so the record's map can be collected.
	q.items[0] = Item{}
	if len(q.items) == 1 {
		q.items = q.items[:0]
	} else {
		q.items = q.items[1:]
	}
	return it, true
}

// Wait returns a channel that fires when items may be available:
//
//	select {
//	case <-ctx.Done():
//	    return ctx.Err()
//	case <-q.Wait():
//	    // drain with TryDequeue
//	}
func (q *Queue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the number of queued items.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Closed reports whether Close has been called.
func (q *Queue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Close stops further enqueues. Items already queued stay available.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
