package scheduler_test

import (
	"testing"

	"github.com/dual-emu/dsgo/internal/scheduler"
)

func TestRunFiresInTimestampThenInsertionOrder(t *testing.T) {
	s := scheduler.New()

	var order []string
	s.Add(10, func(uint64) { order = append(order, "A") })
	s.Add(10, func(uint64) { order = append(order, "B") })
	s.Add(5, func(uint64) { order = append(order, "C") })

	s.Run(20)

	want := []string{"C", "A", "B"}
	if len(order) != len(want) {
		t.Fatalf("got %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("got %v, want %v", order, want)
		}
	}
}

func TestRunAdvancesClockToLastFiredTimestamp(t *testing.T) {
	s := scheduler.New()
	s.Add(3, func(uint64) {})
	s.Run(3)
	if got := s.GetTimestampNow(); got != 3 {
		t.Fatalf("GetTimestampNow() = %d, want 3", got)
	}
}

func TestRunAdvancesClockToHorizonWhenNoEventsFire(t *testing.T) {
	s := scheduler.New()
	s.Add(100, func(uint64) {})
	s.Run(10)
	if got := s.GetTimestampNow(); got != 10 {
		t.Fatalf("GetTimestampNow() = %d, want 10", got)
	}
}

func TestReentrantSchedulingDuringRun(t *testing.T) {
	s := scheduler.New()
	count := 0
	var recurse scheduler.Callback
	recurse = func(uint64) {
		count++
		if count < 5 {
			s.Add(1, recurse)
		}
	}
	s.Add(1, recurse)
	s.Run(100)
	if count != 5 {
		t.Fatalf("count = %d, want 5", count)
	}
}

func TestGetTimestampTarget(t *testing.T) {
	s := scheduler.New()
	if got := s.GetTimestampTarget(50); got != 50 {
		t.Fatalf("empty heap: got %d, want 50", got)
	}
	s.Add(10, func(uint64) {})
	if got := s.GetTimestampTarget(50); got != 10 {
		t.Fatalf("got %d, want 10", got)
	}
	if got := s.GetTimestampTarget(5); got != 5 {
		t.Fatalf("got %d, want 5", got)
	}
}

func TestCancelPreventsCallback(t *testing.T) {
	s := scheduler.New()
	fired := false
	h := s.Add(5, func(uint64) { fired = true })
	s.Cancel(h)
	s.Run(10)
	if fired {
		t.Fatal("cancelled event fired")
	}
}

func TestResetEmptiesHeapAndClock(t *testing.T) {
	s := scheduler.New()
	s.Add(5, func(uint64) {})
	s.Run(5)
	s.Reset()
	if got := s.GetTimestampNow(); got != 0 {
		t.Fatalf("GetTimestampNow() after Reset = %d, want 0", got)
	}
	if got := s.GetTimestampTarget(99); got != 99 {
		t.Fatalf("GetTimestampTarget after Reset = %d, want 99", got)
	}
}
