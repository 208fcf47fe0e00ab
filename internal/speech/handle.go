package speech

import (
	"context"
	"sync"
	"sync/atomic"
)

// Stats is a snapshot of dispatch counters.
type Stats struct {
	Enqueued uint64 // utterances admitted to the queue
	Dropped  uint64 // utterances rejected with ErrFull
	Rejected uint64 // utterances rejected with ErrClosed
	Spoken   uint64 // utterances the backend spoke successfully
	Failed   uint64 // utterances the backend failed to speak
	Queued   int    // utterances currently waiting
	State    WorkerState
}

// queue is the state shared by every handle on one dispatch queue.
type queue struct {
	ch chan Utterance

	// mu guards sends against the channel being closed. Senders hold the
	// read lock; shutdown holds the write lock.
	mu      sync.RWMutex
	closed  bool
	closing chan struct{}

	refMu sync.Mutex
	refs  int

	done  chan struct{}
	state atomic.Int32

	enqueued atomic.Uint64
	dropped  atomic.Uint64
	rejected atomic.Uint64
	spoken   atomic.Uint64
	failed   atomic.Uint64

	backendName string
}

func newQueue(capacity int) *queue {
	q := &queue{
		ch:      make(chan Utterance, capacity),
		closing: make(chan struct{}),
		done:    make(chan struct{}),
		refs:    1,
	}
	q.state.Store(int32(StateStarting))
	return q
}

func (q *queue) acquire() bool {
	q.refMu.Lock()
	defer q.refMu.Unlock()

	if q.refs == 0 {
		return false
	}
	q.refs++
	return true
}

func (q *queue) release() {
	q.refMu.Lock()
	q.refs--
	last := q.refs == 0
	q.refMu.Unlock()

	if last {
		q.shutdown()
	}
}

// shutdown closes the channel once every handle is released. Blocked
// EnqueueWait callers are woken through closing before the write lock is
// taken so they drop their read locks.
func (q *queue) shutdown() {
	close(q.closing)

	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	close(q.ch)
}

// Handle is a producer handle on the dispatch queue. It is safe for
// concurrent use. Every handle, including each one returned by Clone, must
// be released with Close; the queue closes when the last one is.
//
// A nil *Handle, as returned by Init when speech is unavailable, rejects
// every utterance with ErrClosed and closes without error.
type Handle struct {
	q        *queue
	released atomic.Bool
}

// Enqueue adds u to the queue without blocking. It returns ErrFull when the
// queue is at capacity and ErrClosed when the handle or queue is closed.
func (h *Handle) Enqueue(u Utterance) error {
	if h == nil {
		return ErrClosed
	}
	q := h.q

	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed || h.released.Load() {
		q.rejected.Add(1)
		return ErrClosed
	}

	select {
	case q.ch <- u:
		q.enqueued.Add(1)
		return nil
	default:
		q.dropped.Add(1)
		return ErrFull
	}
}

// Say enqueues text. See Enqueue.
func (h *Handle) Say(text string) error {
	return h.Enqueue(NewUtterance(text))
}

// EnqueueWait adds u to the queue, waiting for space until ctx is done or
// the queue closes.
func (h *Handle) EnqueueWait(ctx context.Context, u Utterance) error {
	if h == nil {
		return ErrClosed
	}
	q := h.q

	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed || h.released.Load() {
		q.rejected.Add(1)
		return ErrClosed
	}

	select {
	case q.ch <- u:
		q.enqueued.Add(1)
		return nil
	case <-q.closing:
		q.rejected.Add(1)
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Clone returns a new handle on the same queue. Cloning a closed handle
// returns a closed handle.
func (h *Handle) Clone() *Handle {
	c := &Handle{q: h.q}
	if h.released.Load() || !h.q.acquire() {
		c.released.Store(true)
	}
	return c
}

// Close releases the handle. Closing the last open handle closes the queue;
// the worker speaks whatever is still queued and then exits. Close is
// idempotent.
func (h *Handle) Close() error {
	if h == nil {
		return nil
	}
	if !h.released.CompareAndSwap(false, true) {
		return nil
	}
	h.q.release()
	return nil
}

// Done returns a channel that is closed when the worker has exited.
func (h *Handle) Done() <-chan struct{} {
	return h.q.done
}

// Wait blocks until the worker has exited or ctx is done.
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-h.q.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// State returns the worker's current state.
func (h *Handle) State() WorkerState {
	return WorkerState(h.q.state.Load())
}

// BackendName returns the name reported by the backend, if any.
func (h *Handle) BackendName() string {
	return h.q.backendName
}

// Stats returns a snapshot of the dispatch counters.
func (h *Handle) Stats() Stats {
	q := h.q
	return Stats{
		Enqueued: q.enqueued.Load(),
		Dropped:  q.dropped.Load(),
		Rejected: q.rejected.Load(),
		Spoken:   q.spoken.Load(),
		Failed:   q.failed.Load(),
		Queued:   len(q.ch),
		State:    WorkerState(q.state.Load()),
	}
}
