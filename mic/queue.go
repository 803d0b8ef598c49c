package mic

import "sync"

// Queue is the handoff between the audio callback and the session's chunk
// generator. It is an unbounded FIFO shared by exactly one producer and one
// consumer: the capture contract forbids dropping frames, so a bounded
// channel would not do. Close acts as the end-of-stream sentinel; chunks
// enqueued before Close remain readable, chunks enqueued after are discarded.
type Queue struct {
	mu     sync.Mutex
	ready  *sync.Cond
	items  [][]byte
	closed bool
}

func NewQueue() *Queue {
	q := &Queue{}
	q.ready = sync.NewCond(&q.mu)
	return q
}

// Put appends a chunk. It never blocks beyond an uncontended lock, which
// keeps it safe to call from the real-time audio callback.
func (q *Queue) Put(chunk []byte) {
	q.mu.Lock()
	if !q.closed {
		q.items = append(q.items, chunk)
		q.ready.Signal()
	}
	q.mu.Unlock()
}

// Get blocks until a chunk is available. The second return is false once the
// queue is closed and drained.
func (q *Queue) Get() ([]byte, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.closed {
		q.ready.Wait()
	}
	return q.pop()
}

// TryGet returns the next chunk without blocking.
func (q *Queue) TryGet() ([]byte, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pop()
}

func (q *Queue) pop() ([]byte, bool) {
	if len(q.items) == 0 {
		return nil, false
	}
	chunk := q.items[0]
	q.items = q.items[1:]
	return chunk, true
}

// Close marks the end of the stream and wakes any blocked consumer.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.ready.Broadcast()
	q.mu.Unlock()
}
