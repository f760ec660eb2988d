package clock

import (
	"testing"
	"time"
)

func TestFake_AdvanceFiresInOrder(t *testing.T) {
	f := NewFake(time.Unix(0, 0))

	var got []string
	f.AfterFunc(300*time.Millisecond, func() { got = append(got, "c") })
	f.AfterFunc(100*time.Millisecond, func() { got = append(got, "a") })
	f.AfterFunc(100*time.Millisecond, func() { got = append(got, "b") })

	f.Advance(200 * time.Millisecond)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("after 200ms got %v, want [a b]", got)
	}

	f.Advance(100 * time.Millisecond)
	if len(got) != 3 || got[2] != "c" {
		t.Fatalf("after 300ms got %v, want [a b c]", got)
	}
	if f.Pending() != 0 {
		t.Fatalf("pending = %d, want 0", f.Pending())
	}
}

func TestFake_NestedScheduleInsideWindow(t *testing.T) {
	f := NewFake(time.Unix(0, 0))

	var at []time.Duration
	start := f.Now()
	f.AfterFunc(time.Second, func() {
		at = append(at, f.Now().Sub(start))
		f.AfterFunc(time.Second, func() { at = append(at, f.Now().Sub(start)) })
	})

	f.Advance(5 * time.Second)
	if len(at) != 2 || at[0] != time.Second || at[1] != 2*time.Second {
		t.Fatalf("fire times = %v, want [1s 2s]", at)
	}
	if f.Now().Sub(start) != 5*time.Second {
		t.Fatalf("now = %v, want +5s", f.Now().Sub(start))
	}
}

func TestFake_Stop(t *testing.T) {
	f := NewFake(time.Unix(0, 0))

	fired := false
	tm := f.AfterFunc(time.Second, func() { fired = true })
	if !tm.Stop() {
		t.Fatal("first Stop = false, want true")
	}
	if tm.Stop() {
		t.Fatal("second Stop = true, want false")
	}
	f.Advance(2 * time.Second)
	if fired {
		t.Fatal("stopped timer fired")
	}
}
