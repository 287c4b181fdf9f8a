package timer

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
)

func TestOneShotFiresOnce(t *testing.T) {
	mock := clock.NewMock()
	e := New(mock)

	fired := 0
	e.ScheduleOnce("once", 5*time.Second, nil, func(*Timer) { fired++ })

	e.AdvanceTo(mock.Now().Add(4 * time.Second))
	if fired != 0 {
		t.Fatalf("timer fired %d times before its deadline", fired)
	}

	e.AdvanceTo(mock.Now().Add(5 * time.Second))
	if fired != 1 {
		t.Fatalf("fired = %d, want 1", fired)
	}

	// Long past the deadline a one-shot must not fire again.
	e.AdvanceTo(mock.Now().Add(time.Hour))
	if fired != 1 {
		t.Fatalf("fired = %d after extra advance, want 1", fired)
	}
}

func TestPeriodicFiresEveryInterval(t *testing.T) {
	mock := clock.NewMock()
	e := New(mock)

	fired := 0
	e.SchedulePeriodic("rate", time.Second, nil, func(*Timer) { fired++ })

	// Advancing across three whole intervals in one call must yield
	// three firings: the re-armed deadline is checked within AdvanceTo.
	e.AdvanceTo(mock.Now().Add(3 * time.Second))
	if fired != 3 {
		t.Fatalf("fired = %d, want 3", fired)
	}
}

func TestPeriodicReArmsWithoutDrift(t *testing.T) {
	mock := clock.NewMock()
	e := New(mock)
	start := mock.Now()

	var at []time.Duration
	e.SchedulePeriodic("tick", 10*time.Second, nil, func(*Timer) {
		next, _ := e.Next()
		at = append(at, next.Sub(start))
	})

	// Fire the first deadline late; the second deadline must still be
	// 20s after start, not 25s.
	e.AdvanceTo(start.Add(15 * time.Second))
	if len(at) != 1 {
		t.Fatalf("fired %d times, want 1", len(at))
	}
	if at[0] != 20*time.Second {
		t.Fatalf("re-armed deadline at %v after start, want 20s", at[0])
	}
}

func TestCoincidentDeadlinesFireInScheduleOrder(t *testing.T) {
	mock := clock.NewMock()
	e := New(mock)

	var order []string
	for _, name := range []string{"a", "b", "c"} {
		name := name
		e.ScheduleOnce(name, time.Second, nil, func(*Timer) {
			order = append(order, name)
		})
	}

	e.AdvanceTo(mock.Now().Add(time.Second))
	if len(order) != 3 || order[0] != "a" || order[1] != "b" || order[2] != "c" {
		t.Fatalf("firing order = %v, want [a b c]", order)
	}
}

func TestStoppedTimerDoesNotFire(t *testing.T) {
	mock := clock.NewMock()
	e := New(mock)

	fired := false
	tm := e.SchedulePeriodic("stopped", time.Second, nil, func(*Timer) { fired = true })
	tm.Stop()

	e.AdvanceTo(mock.Now().Add(10 * time.Second))
	if fired {
		t.Fatal("stopped timer fired")
	}
	if e.Len() != 0 {
		t.Fatalf("queue length = %d after sweep, want 0", e.Len())
	}
}

func TestCallbackReceivesData(t *testing.T) {
	mock := clock.NewMock()
	e := New(mock)

	type payload struct{ n int }
	want := &payload{n: 7}

	var got any
	e.ScheduleOnce("data", time.Second, want, func(tm *Timer) { got = tm.Data })
	e.AdvanceTo(mock.Now().Add(time.Second))

	if got != want {
		t.Fatalf("callback data = %v, want %v", got, want)
	}
}

func TestCallbackMayScheduleFurtherTimers(t *testing.T) {
	mock := clock.NewMock()
	e := New(mock)

	fired := []string{}
	e.ScheduleOnce("outer", time.Second, nil, func(*Timer) {
		fired = append(fired, "outer")
		e.ScheduleOnce("inner", 0, nil, func(*Timer) {
			fired = append(fired, "inner")
		})
	})

	e.AdvanceTo(mock.Now().Add(time.Second))
	if len(fired) != 2 || fired[1] != "inner" {
		t.Fatalf("fired = %v, want [outer inner]", fired)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	e := New(nil)

	fired := make(chan struct{}, 1)
	e.ScheduleOnce("real", 5*time.Millisecond, nil, func(*Timer) {
		fired <- struct{}{}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		e.Run(ctx)
		close(done)
	}()

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not fire under Run")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}
