package sched

import "testing"

func TestAfterFiresInOrder(t *testing.T) {
	s := New()
	var fired []int

	s.After(10, 1, func(cycle uint64, arg int) { fired = append(fired, arg) })
	s.After(5, 2, func(cycle uint64, arg int) { fired = append(fired, arg) })
	s.After(5, 3, func(cycle uint64, arg int) { fired = append(fired, arg) })

	s.Advance(5)
	if got, want := fired, []int{2, 3}; !equalInts(got, want) {
		t.Fatalf("after advance(5): got %v, want %v", got, want)
	}

	s.Advance(5)
	if got, want := fired, []int{2, 3, 1}; !equalInts(got, want) {
		t.Fatalf("after advance(10): got %v, want %v", got, want)
	}
}

func TestAfterZeroFiresInline(t *testing.T) {
	s := New()
	fired := false
	s.After(0, 0, func(cycle uint64, arg int) { fired = true })
	if !fired {
		t.Fatal("zero-delay event did not fire inline")
	}
	if s.Pending() != 0 {
		t.Fatalf("pending = %d, want 0", s.Pending())
	}
}

func TestCancel(t *testing.T) {
	s := New()
	fired := false
	tok := s.After(10, 0, func(cycle uint64, arg int) { fired = true })
	s.Cancel(tok)
	s.Advance(20)
	if fired {
		t.Fatal("cancelled event fired")
	}
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
