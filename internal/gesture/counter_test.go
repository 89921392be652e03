package gesture

import "testing"

func TestRepetitionCounter_CompletesOnce(t *testing.T) {
	c := NewRepetitionCounter(50)

	if c.State() != CounterIdle {
		t.Fatalf("initial state = %v, want idle", c.State())
	}

	signals := 0
	for i := 0; i < 50; i++ {
		if c.Observe(true) {
			signals++
		}
		if i == 0 && c.State() != CounterAccumulating {
			t.Errorf("state after first pass = %v, want accumulating", c.State())
		}
	}

	if signals != 1 {
		t.Errorf("completion signals = %d, want 1", signals)
	}
	if c.Count() != 50 || !c.Completed() || c.State() != CounterCompleted {
		t.Errorf("after 50 passes: count=%v completed=%v state=%v", c.Count(), c.Completed(), c.State())
	}

	if c.Observe(true) {
		t.Error("pass after completion should not signal again")
	}
	if c.Count() != 50 {
		t.Errorf("count after extra pass = %v, want 50", c.Count())
	}

	c.Reset()
	if c.Count() != 0 || c.Completed() || c.State() != CounterIdle {
		t.Errorf("after reset: count=%v completed=%v state=%v", c.Count(), c.Completed(), c.State())
	}

	signals = 0
	for i := 0; i < 60; i++ {
		if c.Observe(true) {
			signals++
		}
	}
	if signals != 1 {
		t.Errorf("completion signals after reset = %d, want 1", signals)
	}
}

func TestRepetitionCounter_FailuresDoNotCount(t *testing.T) {
	c := NewRepetitionCounter(3)

	c.Observe(true)
	c.Observe(false)
	c.Observe(false)

	if c.Count() != 1 {
		t.Errorf("count = %v, want 1", c.Count())
	}
	if c.State() != CounterAccumulating {
		t.Errorf("state = %v, want accumulating", c.State())
	}
	if !floatEqual(c.Progress(), 1.0/3) {
		t.Errorf("Progress() = %f, want %f", c.Progress(), 1.0/3)
	}
}

func TestRepetitionCounter_DefaultMax(t *testing.T) {
	tests := []int{0, -1}
	for _, max := range tests {
		if got := NewRepetitionCounter(max).Max(); got != DefaultMaxRepetitions {
			t.Errorf("NewRepetitionCounter(%d).Max() = %v, want %d", max, got, DefaultMaxRepetitions)
		}
	}
}

func TestCounterState_String(t *testing.T) {
	tests := map[CounterState]string{
		CounterIdle:         "idle",
		CounterAccumulating: "accumulating",
		CounterCompleted:    "completed",
		CounterState(9):     "unknown",
	}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int(s), got, want)
		}
	}
}
