package wbu

import "sync"

// PendingQueue is the in-memory ordered collection of object names awaiting
// upload. Duplicates are the caller's responsibility; insertion order is the
// upload-order preference but never a contract.
type PendingQueue struct {
	mu       sync.Mutex
	cond     *sync.Cond
	pending  []ObjName
}

// NewPendingQueue builds an empty queue.
func NewPendingQueue() *PendingQueue {
	q := &PendingQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Enqueue appends name under lock.
func (q *PendingQueue) Enqueue(name ObjName) {
	q.mu.Lock()
	q.pending = append(q.pending, name)
	q.mu.Unlock()
}

// Drain removes and returns either the whole queue (inodeFilter == "") or
// the subset belonging to inodeFilter, leaving the rest queued. No I/O or
// blocking call runs under the lock.
func (q *PendingQueue) Drain(inodeFilter string, prefixDepth uint32) []ObjName {
	q.mu.Lock()
	defer func() {
		if len(q.pending) == 0 {
			q.cond.Broadcast()
		}
		q.mu.Unlock()
	}()

	if len(q.pending) == 0 {
		return nil
	}

	if inodeFilter == "" {
		out := q.pending
		q.pending = nil
		return out
	}

	remaining := q.pending[:0:0]
	var out []ObjName
	for _, name := range q.pending {
		if BelongsToInode(name, inodeFilter, prefixDepth) {
			out = append(out, name)
		} else {
			remaining = append(remaining, name)
		}
	}
	q.pending = remaining
	return out
}

// WaitEmpty blocks until the queue has been drained to empty. Used by
// shutdown, which means "finish pending, then stop accepting" rather than
// "abort now".
func (q *PendingQueue) WaitEmpty() {
	q.mu.Lock()
	for len(q.pending) != 0 {
		q.cond.Wait()
	}
	q.mu.Unlock()
}

// Len reports the current queue size, for diagnostics/metrics only.
func (q *PendingQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
