package queue

import (
	"errors"
	"sync"
)

// ErrClosed is returned by Send after the queue has been closed.
var ErrClosed = errors.New("queue: closed")

// Queue is an unbounded multi-producer single-consumer queue. Send never
// blocks; the consumer drains through the channel returned by C, so it can
// sit in a select alongside other channels. Per-producer FIFO order is
// preserved end to end.
type Queue[T any] struct {
	mu     sync.Mutex
	buf    []T
	closed bool
	wake   chan struct{}
	out    chan T
}

// New creates an open queue and starts its delivery goroutine.
func New[T any]() *Queue[T] {
	q := &Queue[T]{
		wake: make(chan struct{}, 1),
		out:  make(chan T),
	}
	go q.pump()
	return q
}

// Send enqueues v. It fails only if the queue has been closed.
func (q *Queue[T]) Send(v T) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrClosed
	}
	q.buf = append(q.buf, v)
	q.mu.Unlock()
	q.signal()
	return nil
}

// C is the consumer side. It is closed once Close has been called and every
// buffered item has been delivered.
func (q *Queue[T]) C() <-chan T {
	return q.out
}

// Close rejects further sends. Items already buffered are still delivered.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.signal()
}

func (q *Queue[T]) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *Queue[T]) pump() {
	for range q.wake {
		for {
			q.mu.Lock()
			if len(q.buf) == 0 {
				done := q.closed
				q.mu.Unlock()
				if done {
					close(q.out)
					return
				}
				break
			}
			v := q.buf[0]
			q.buf = q.buf[1:]
			q.mu.Unlock()
			q.out <- v
		}
	}
}
