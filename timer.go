package rnet

import "container/heap"

// defaultTimerJitterMS is the tolerance band absorbing epoll wake-up
// jitter; near-coincident timers within this band of the heap's head fire
// together rather than each re-triggering its own short wait.
const defaultTimerJitterMS = 3

type timerEntry struct {
	relativeMS  int64
	scheduledMS int64
	cb          TimerCallback
}

// timerHeap is a min-heap on relativeMS.
type timerHeap []*timerEntry

func (h timerHeap) Len() int            { return len(h) }
func (h timerHeap) Less(i, j int) bool  { return h[i].relativeMS < h[j].relativeMS }
func (h timerHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *timerHeap) Push(x interface{}) { *h = append(*h, x.(*timerEntry)) }
func (h *timerHeap) Pop() interface{} {
	old := *h
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return it
}

// timerQueue is the Reactor's timer heap: entries store relative
// millisecond durations so each post-dispatch scan only needs to subtract
// elapsed time once across the whole heap, rather than compare every
// entry against an absolute deadline and a monotonic clock read.
type timerQueue struct {
	h        timerHeap
	jitterMS int64
}

// Schedule arms a one-shot timer cb to fire after relativeMS. Timers never
// re-arm themselves; a repeating timer is the caller re-scheduling from
// within cb.
func (q *timerQueue) Schedule(relativeMS int64, cb TimerCallback) {
	heap.Push(&q.h, &timerEntry{relativeMS: relativeMS, scheduledMS: relativeMS, cb: cb})
}

// Empty reports whether any timers remain.
func (q *timerQueue) Empty() bool { return q.h.Len() == 0 }

// HeadRelativeMS returns the earliest entry's relative time; the caller
// must check Empty first.
func (q *timerQueue) HeadRelativeMS() int64 { return q.h[0].relativeMS }

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// Update implements the post-dispatch timer rule: when the batch was
// empty (the wait timed out), every entry within the jitter band of the
// head fires, in heap order, and the baseline resets to now. When the
// batch was non-empty, every entry's relative time is debited by the
// elapsed wall-clock interval and the new baseline is returned. An empty
// heap returns baseline unchanged, since nothing downstream reads a
// baseline established against zero pending timers.
func (q *timerQueue) Update(batchSize int, baseline int64, now int64) int64 {
	if q.Empty() {
		return baseline
	}
	if batchSize == 0 {
		jitter := q.jitterMS
		if jitter == 0 {
			jitter = defaultTimerJitterMS
		}
		diff := q.h[0].relativeMS
		for !q.Empty() && abs64(q.h[0].relativeMS-diff) < jitter {
			e := heap.Pop(&q.h).(*timerEntry)
			e.cb(e.scheduledMS)
		}
		return now
	}
	elapsed := now - baseline
	for _, e := range q.h {
		e.relativeMS -= elapsed
	}
	return now
}
