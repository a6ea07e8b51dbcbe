package dom

import "sync"

// Queue is an unbounded FIFO whose readiness is signalled on a channel.
//
// Producers never block. Consumers wait on Ready() then drain with Take(),
// the same way a mutation observer hands over its pending records.
type Queue[T any] struct {
	mu     sync.Mutex
	items  []T
	signal chan struct{}
}

func NewQueue[T any]() *Queue[T] {
	return &Queue[T]{
		signal: make(chan struct{}, 1),
	}
}

// Push appends an item and wakes up the consumer.
func (q *Queue[T]) Push(item T) {
	q.mu.Lock()
	q.items = append(q.items, item)
	q.mu.Unlock()
	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// Ready receives a value when items may be pending.
func (q *Queue[T]) Ready() <-chan struct{} {
	return q.signal
}

// Take removes and returns all pending items.
func (q *Queue[T]) Take() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items
	q.items = nil
	return items
}
