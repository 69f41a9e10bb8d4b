package strand

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Ticker invokes a handler on the strand at a fixed period, passing the
// wall-clock time elapsed since the previous invocation. The next firing is
// armed only after the handler returns, so a slow tick delays the next one
// instead of piling up behind it.
type Ticker struct {
	strand  *Strand
	period  time.Duration
	handler func(delta time.Duration)
	log     *zap.Logger

	timer   *time.Timer
	last    time.Time
	stopped atomic.Bool
}

func NewTicker(s *Strand, period time.Duration, handler func(delta time.Duration), log *zap.Logger) *Ticker {
	return &Ticker{strand: s, period: period, handler: handler, log: log}
}

func (t *Ticker) Start() {
	t.last = time.Now()
	t.arm()
}

func (t *Ticker) arm() {
	if t.stopped.Load() {
		return
	}
	t.timer = time.AfterFunc(t.period, func() {
		t.strand.Post(t.onTick)
	})
}

func (t *Ticker) onTick() {
	if t.stopped.Load() {
		return
	}
	now := time.Now()
	delta := now.Sub(t.last)
	t.last = now

	t.invoke(delta)
	t.arm()
}

// invoke shields the tick loop from a panicking handler; the tick is lost but
// the ticker keeps running.
func (t *Ticker) invoke(delta time.Duration) {
	defer func() {
		if r := recover(); r != nil {
			t.log.Error("tick handler panicked", zap.Any("panic", r))
		}
	}()
	t.handler(delta)
}

func (t *Ticker) Stop() {
	if t.stopped.Swap(true) {
		return
	}
	if t.timer != nil {
		t.timer.Stop()
	}
}
