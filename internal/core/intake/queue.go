package intake

import "sync"

// Queue is a multi-producer, single-consumer mailbox. Loader goroutines Post
// completions; the game loop drains them with Drain. Post never blocks, so a
// loader may also complete synchronously from inside the loop.
type Queue struct {
	mu      sync.Mutex
	pending []func()
	spare   []func()
}

func NewQueue() *Queue {
	return &Queue{
		pending: make([]func(), 0, 64),
		spare:   make([]func(), 0, 64),
	}
}

// Post enqueues fn for execution on the draining goroutine.
func (q *Queue) Post(fn func()) {
	if fn == nil {
		return
	}
	q.mu.Lock()
	q.pending = append(q.pending, fn)
	q.mu.Unlock()
}

// Len 回傳佇列中的項目數。
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Drain runs queued items in post order until the queue is empty, including
// items posted by the items themselves. Returns the number executed.
func (q *Queue) Drain() int {
	n := 0
	for {
		q.mu.Lock()
		batch := q.pending
		q.pending = q.spare[:0]
		q.mu.Unlock()

		if len(batch) == 0 {
			q.spare = batch
			return n
		}
		for i, fn := range batch {
			fn()
			batch[i] = nil
		}
		n += len(batch)

		q.mu.Lock()
		q.spare = batch[:0]
		q.mu.Unlock()
	}
}
