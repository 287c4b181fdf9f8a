// Package timer provides the deadline-ordered scheduling engine that
// drives every periodic job in the blaster: interface rate computation,
// protocol hello generation, and hold-time supervision. All callbacks
// run on a single goroutine, so components scheduled here never need
// their own locking for state that only timers touch.
package timer

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Kind distinguishes timers that fire once from timers that re-arm
// themselves after every firing.
type Kind int

const (
	OneShot Kind = iota
	Periodic
)

// Callback is invoked when a timer fires. It receives the firing timer
// so it can recover the opaque Data attached at schedule time. Callbacks
// must be quick, non-blocking state updates: a slow callback delays every
// other timer on the shared loop.
type Callback func(*Timer)

// Timer is a scheduled job. The engine retains ownership; callers only
// keep the handle to Stop it or to read Name/Data inside a callback.
type Timer struct {
	Name string
	Data any

	kind     Kind
	interval time.Duration
	deadline time.Time
	seq      uint64
	fn       Callback

	mu      sync.Mutex
	stopped bool

	index int // heap bookkeeping
}

// Stop cancels the timer. Cancellation is lazy: the entry stays queued
// until its deadline comes up and is then discarded without firing.
// Stopping an already fired one-shot timer is a no-op.
func (t *Timer) Stop() {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
}

func (t *Timer) isStopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

// Engine is a time-ordered scheduler for one-shot and periodic timers.
// Timers with coincident deadlines fire in schedule order; a periodic
// timer that re-arms joins the back of the coincident set.
type Engine struct {
	clk clock.Clock

	mu    sync.Mutex
	queue timerQueue
	seq   uint64

	wake chan struct{}
}

// New constructs an engine on the given clock. A nil clock selects the
// wall clock; tests pass clock.NewMock() and drive time explicitly.
func New(clk clock.Clock) *Engine {
	if clk == nil {
		clk = clock.New()
	}
	return &Engine{
		clk:  clk,
		wake: make(chan struct{}, 1),
	}
}

// Now exposes the engine's clock.
func (e *Engine) Now() time.Time {
	return e.clk.Now()
}

// ScheduleOnce arms a timer that fires once after delay.
func (e *Engine) ScheduleOnce(name string, delay time.Duration, data any, fn Callback) *Timer {
	return e.schedule(name, OneShot, delay, data, fn)
}

// SchedulePeriodic arms a timer that first fires after interval and then
// re-arms itself every interval. The interval must be positive.
func (e *Engine) SchedulePeriodic(name string, interval time.Duration, data any, fn Callback) *Timer {
	if interval <= 0 {
		panic("timer: non-positive periodic interval")
	}
	return e.schedule(name, Periodic, interval, data, fn)
}

func (e *Engine) schedule(name string, kind Kind, delay time.Duration, data any, fn Callback) *Timer {
	e.mu.Lock()
	e.seq++
	t := &Timer{
		Name:     name,
		Data:     data,
		kind:     kind,
		interval: delay,
		deadline: e.clk.Now().Add(delay),
		seq:      e.seq,
		fn:       fn,
	}
	heap.Push(&e.queue, t)
	e.mu.Unlock()

	// Nudge a running loop so it re-evaluates the next deadline.
	select {
	case e.wake <- struct{}{}:
	default:
	}
	return t
}

// Next reports the earliest pending deadline. The second return value is
// false when no timers are queued.
func (e *Engine) Next() (time.Time, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for len(e.queue) > 0 {
		if e.queue[0].isStopped() {
			heap.Pop(&e.queue)
			continue
		}
		return e.queue[0].deadline, true
	}
	return time.Time{}, false
}

// Len reports the number of queued timers, including lazily cancelled
// entries that have not been swept yet.
func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.queue)
}

// AdvanceTo fires, in deadline order, every timer due at or before now.
// A periodic timer whose re-armed deadline is still not after now fires
// again within the same call, so advancing across three intervals yields
// three firings. Callbacks run outside the engine lock and may schedule
// or stop timers freely.
func (e *Engine) AdvanceTo(now time.Time) {
	for {
		e.mu.Lock()
		if len(e.queue) == 0 {
			e.mu.Unlock()
			return
		}
		t := e.queue[0]
		if t.isStopped() {
			heap.Pop(&e.queue)
			e.mu.Unlock()
			continue
		}
		if t.deadline.After(now) {
			e.mu.Unlock()
			return
		}
		heap.Pop(&e.queue)
		if t.kind == Periodic {
			// Re-arm from the previous deadline, not from now, so
			// periodic timers do not drift under a slow loop.
			t.deadline = t.deadline.Add(t.interval)
			e.seq++
			t.seq = e.seq
			heap.Push(&e.queue, t)
		}
		e.mu.Unlock()

		t.fn(t)
	}
}

// Run drives the engine until ctx is cancelled: sleep until the next
// deadline, fire everything due, repeat. This is the process's single
// event loop; packet servicing and all protocol state mutation hang off
// the callbacks dispatched here.
func (e *Engine) Run(ctx context.Context) {
	for {
		var (
			fire <-chan time.Time
			tm   *clock.Timer
		)
		if next, ok := e.Next(); ok {
			d := next.Sub(e.clk.Now())
			if d < 0 {
				d = 0
			}
			tm = e.clk.Timer(d)
			fire = tm.C
		}

		select {
		case <-ctx.Done():
			if tm != nil {
				tm.Stop()
			}
			return
		case <-e.wake:
			if tm != nil {
				tm.Stop()
			}
		case <-fire:
		}

		e.AdvanceTo(e.clk.Now())
	}
}

// timerQueue is a min-heap ordered by (deadline, seq). The seq component
// makes the coincident-deadline tie-break deterministic: schedule order.
type timerQueue []*Timer

func (q timerQueue) Len() int { return len(q) }

func (q timerQueue) Less(i, j int) bool {
	if q[i].deadline.Equal(q[j].deadline) {
		return q[i].seq < q[j].seq
	}
	return q[i].deadline.Before(q[j].deadline)
}

func (q timerQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *timerQueue) Push(x any) {
	t := x.(*Timer)
	t.index = len(*q)
	*q = append(*q, t)
}

func (q *timerQueue) Pop() any {
	old := *q
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*q = old[:n-1]
	return t
}
