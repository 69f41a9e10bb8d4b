// Package strand serializes all game-state mutations onto a single goroutine.
// Everything posted to a Strand runs in order, one task at a time, so the
// game model itself needs no locks.
package strand

import (
	"errors"
	"sync/atomic"
)

// ErrStopped is returned by Do when the strand has shut down.
var ErrStopped = errors.New("strand stopped")

type Strand struct {
	tasks   chan func()
	quit    chan struct{}
	done    chan struct{}
	stopped atomic.Bool
}

func New() *Strand {
	return &Strand{
		tasks: make(chan func(), 128),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
}

// Run executes posted tasks until Stop. Tasks already queued at shutdown are
// drained before Run returns.
func (s *Strand) Run() {
	defer close(s.done)
	for {
		select {
		case task := <-s.tasks:
			task()
		case <-s.quit:
			for {
				select {
				case task := <-s.tasks:
					task()
				default:
					return
				}
			}
		}
	}
}

// Post queues fn for execution on the strand. Posts after Stop are dropped.
func (s *Strand) Post(fn func()) {
	if s.stopped.Load() {
		return
	}
	select {
	case s.tasks <- fn:
	case <-s.quit:
	}
}

// Do runs fn on the strand and waits for it to finish.
func (s *Strand) Do(fn func()) error {
	if s.stopped.Load() {
		return ErrStopped
	}
	finished := make(chan struct{})
	select {
	case s.tasks <- func() {
		fn()
		close(finished)
	}:
	case <-s.quit:
		return ErrStopped
	}
	select {
	case <-finished:
		return nil
	case <-s.done:
		// The strand drains its queue on shutdown, so a task accepted
		// above has run by the time done closes.
		return nil
	}
}

// Stop shuts the strand down and waits for queued tasks to drain.
func (s *Strand) Stop() {
	if s.stopped.Swap(true) {
		return
	}
	close(s.quit)
	<-s.done
}
