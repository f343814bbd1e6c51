// Package scheduler implements the device-cycle event queue shared by both
// CPU cores. Everything in the emulator that needs to happen "later" (a
// GXFIFO command executing, an IRQ line settling) goes through here instead
// of being modeled as a goroutine.
package scheduler

import "container/heap"

// Callback is invoked when its event fires. It receives the timestamp at
// which it actually fired (equal to the timestamp it was scheduled for).
type Callback func(timestamp uint64)

// Handle lets a caller cancel an event before it fires.
type Handle struct {
	event *event
}

type event struct {
	timestamp uint64
	seq       uint64
	fn        Callback
	index     int
	cancelled bool
}

type eventHeap []*event

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].timestamp != h[j].timestamp {
		return h[i].timestamp < h[j].timestamp
	}
	return h[i].seq < h[j].seq
}

func (h eventHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *eventHeap) Push(x any) {
	e := x.(*event)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

// Scheduler is a min-heap of (timestamp, callback) events driving a
// monotonic device clock.
type Scheduler struct {
	heap    eventHeap
	now     uint64
	nextSeq uint64
}

// New returns a Scheduler reset to time zero.
func New() *Scheduler {
	s := &Scheduler{}
	s.Reset()
	return s
}

// Reset empties the heap and resets the clock to zero.
func (s *Scheduler) Reset() {
	s.heap = s.heap[:0]
	s.now = 0
	s.nextSeq = 0
}

// GetTimestampNow returns the current device clock.
func (s *Scheduler) GetTimestampNow() uint64 {
	return s.now
}

// GetTimestampTarget returns the earliest unfired event's timestamp, or
// horizon if that is smaller (or there is no pending event).
func (s *Scheduler) GetTimestampTarget(horizon uint64) uint64 {
	if len(s.heap) == 0 {
		return horizon
	}
	if s.heap[0].timestamp < horizon {
		return s.heap[0].timestamp
	}
	return horizon
}

// Add schedules fn to run at now+delta. delta must be >= 0. Equal
// timestamps fire in insertion order. The returned Handle may be passed to
// Cancel to remove the event before it fires.
func (s *Scheduler) Add(delta uint64, fn Callback) Handle {
	e := &event{
		timestamp: s.now + delta,
		seq:       s.nextSeq,
		fn:        fn,
	}
	s.nextSeq++
	heap.Push(&s.heap, e)
	return Handle{event: e}
}

// Cancel removes a previously scheduled event. It is a no-op if the event
// already fired or was already cancelled.
func (s *Scheduler) Cancel(h Handle) {
	if h.event == nil || h.event.cancelled || h.event.index < 0 {
		return
	}
	h.event.cancelled = true
	heap.Remove(&s.heap, h.event.index)
}

// Run pops and fires every event whose timestamp is <= until, advancing the
// device clock to each event's timestamp as it fires. Callbacks may
// schedule further events (including for a timestamp <= until); those are
// picked up within the same Run call.
func (s *Scheduler) Run(until uint64) {
	for len(s.heap) > 0 && s.heap[0].timestamp <= until {
		e := heap.Pop(&s.heap).(*event)
		if e.cancelled {
			continue
		}
		s.now = e.timestamp
		e.fn(e.timestamp)
	}
	if s.now < until {
		s.now = until
	}
}
