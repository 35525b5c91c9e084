// Package effect schedules work onto a single loop goroutine. Templates and
// cells are not safe for concurrent use, so timers never call back directly:
// they post their callback to the loop, which runs it on the goroutine that
// called Run.
package effect

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Loop is a single-threaded task queue. The queue is unbounded so Post
// never blocks, whether it is called by a task running on the loop or by a
// timer after Run has returned. Intervals keep at most one tick queued.
type Loop struct {
	wake chan struct{}

	mu     sync.Mutex
	tasks  []func()
	timers map[*Timer]struct{}
}

// NewLoop creates an idle loop.
func NewLoop() *Loop {
	return &Loop{
		wake:   make(chan struct{}, 1),
		timers: make(map[*Timer]struct{}),
	}
}

// Post enqueues fn. It is safe to call from any goroutine.
func (l *Loop) Post(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.tasks = append(l.tasks, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *Loop) next() func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.tasks) == 0 {
		return nil
	}
	fn := l.tasks[0]
	l.tasks[0] = nil
	l.tasks = l.tasks[1:]
	return fn
}

// Run executes posted tasks on the calling goroutine until ctx is done. On
// return every timer created on the loop is stopped.
func (l *Loop) Run(ctx context.Context) error {
	defer l.stopAll()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if fn := l.next(); fn != nil {
			fn()
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

// Drain runs queued tasks without waiting for new ones and reports how many
// ran. Tasks posted by a drained task run in the same call.
func (l *Loop) Drain() int {
	n := 0
	for fn := l.next(); fn != nil; fn = l.next() {
		fn()
		n++
	}
	return n
}

// Pending returns the number of queued tasks.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tasks)
}

// Timer is a scheduled timeout or interval.
type Timer struct {
	loop    *Loop
	stopped atomic.Bool
	stop    func()
}

// Stop cancels the timer. A callback already queued for the loop is skipped.
// Stop is idempotent.
func (t *Timer) Stop() {
	if t.stopped.Swap(true) {
		return
	}
	t.stop()
	t.loop.forget(t)
}

// Stopped reports whether Stop was called or a timeout has fired.
func (t *Timer) Stopped() bool {
	return t.stopped.Load()
}

// Timeout runs fn on the loop once, after d.
func (l *Loop) Timeout(d time.Duration, fn func()) *Timer {
	t := &Timer{loop: l}
	l.track(t)
	at := time.AfterFunc(d, func() {
		l.Post(func() {
			if t.stopped.Swap(true) {
				return
			}
			l.forget(t)
			fn()
		})
	})
	t.stop = func() { at.Stop() }
	return t
}

// Interval runs fn on the loop every d until the timer is stopped. Ticks
// that arrive while the previous callback is still queued are dropped.
func (l *Loop) Interval(d time.Duration, fn func()) *Timer {
	t := &Timer{loop: l}
	l.track(t)
	ticker := time.NewTicker(d)
	done := make(chan struct{})
	var queued atomic.Bool

	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if queued.Swap(true) {
					continue
				}
				l.Post(func() {
					queued.Store(false)
					if !t.stopped.Load() {
						fn()
					}
				})
			}
		}
	}()

	t.stop = func() {
		ticker.Stop()
		close(done)
	}
	return t
}

func (l *Loop) track(t *Timer) {
	l.mu.Lock()
	l.timers[t] = struct{}{}
	l.mu.Unlock()
}

func (l *Loop) forget(t *Timer) {
	l.mu.Lock()
	delete(l.timers, t)
	l.mu.Unlock()
}

func (l *Loop) stopAll() {
	l.mu.Lock()
	timers := make([]*Timer, 0, len(l.timers))
	for t := range l.timers {
		timers = append(timers, t)
	}
	l.mu.Unlock()

	for _, t := range timers {
		t.Stop()
	}
}
