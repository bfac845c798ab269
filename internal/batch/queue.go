package batch

import (
	"sync"

	"github.com/gammazero/deque"

	"github.com/idelchi/gocryptor/internal/engine"
)

// Kind tells what an Item carries.
type Kind int

const (
	// KindOutcome items carry the outcome of one file.
	KindOutcome Kind = iota + 1
	// KindEnd is the last item of a batch.
	KindEnd
)

func (k Kind) String() string {
	switch k {
	case KindOutcome:
		return "outcome"
	case KindEnd:
		return "end"
	default:
		return "unknown"
	}
}

// Item is one entry of the handoff queue.
// Outcome is only meaningful for KindOutcome.
type Item struct {
	Kind    Kind
	Outcome engine.Outcome
}

// queue is an unbounded FIFO safe for one producer and one consumer.
type queue struct {
	mu    sync.Mutex
	items deque.Deque[Item]
}

func (q *queue) push(item Item) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.items.PushBack(item)
}

// pop returns the oldest item without waiting.
func (q *queue) pop() (Item, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.items.Len() == 0 {
		return Item{}, false
	}

	return q.items.PopFront(), true
}
