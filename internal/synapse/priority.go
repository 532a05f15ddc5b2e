package synapse

import (
	"container/heap"
	"context"
	"sync"
)

type gateWaiter struct {
	priority float64
	seq      uint64
	ready    chan struct{}
	index    int
}

type waitQueue []*gateWaiter

var _ heap.Interface = (*waitQueue)(nil)

func (q waitQueue) Len() int { return len(q) }

// Less orders higher priority first; equal priorities are admitted in arrival order.
func (q waitQueue) Less(i, j int) bool {
	if q[i].priority != q[j].priority {
		return q[i].priority > q[j].priority
	}
	return q[i].seq < q[j].seq
}

func (q waitQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *waitQueue) Push(x any) {
	w := x.(*gateWaiter)
	w.index = len(*q)
	*q = append(*q, w)
}

func (q *waitQueue) Pop() any {
	old := *q
	n := len(old)
	w := old[n-1]
	old[n-1] = nil
	w.index = -1
	*q = old[:n-1]
	return w
}

// PriorityGate bounds the number of requests handled at once. When full,
// waiting requests are admitted highest priority first.
type PriorityGate struct {
	mu       sync.Mutex
	capacity int
	active   int
	seq      uint64
	waiters  waitQueue
}

func NewPriorityGate(capacity int) *PriorityGate {
	if capacity < 1 {
		capacity = 1
	}
	return &PriorityGate{capacity: capacity}
}

// Acquire blocks until a slot is free or ctx is done. Every successful
// Acquire must be paired with a Release.
func (g *PriorityGate) Acquire(ctx context.Context, priority float64) error {
	g.mu.Lock()
	if g.active < g.capacity && len(g.waiters) == 0 {
		g.active++
		g.mu.Unlock()
		return nil
	}
	g.seq++
	w := &gateWaiter{priority: priority, seq: g.seq, ready: make(chan struct{})}
	heap.Push(&g.waiters, w)
	g.mu.Unlock()

	select {
	case <-w.ready:
		return nil
	case <-ctx.Done():
		g.mu.Lock()
		if w.index >= 0 {
			heap.Remove(&g.waiters, w.index)
			g.mu.Unlock()
			return ctx.Err()
		}
		g.mu.Unlock()
		// the slot was handed over while we were giving up
		g.Release()
		return ctx.Err()
	}
}

// Release frees a slot, handing it straight to the best waiter if any.
func (g *PriorityGate) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.waiters) > 0 {
		w := heap.Pop(&g.waiters).(*gateWaiter)
		close(w.ready)
		return
	}
	if g.active > 0 {
		g.active--
	}
}

func (g *PriorityGate) Active() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.active
}

func (g *PriorityGate) Waiting() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.waiters)
}
