// Package timer implements the application timer wheel (spec.md section
// 4.4): a single 1s-tick facility shared by every armed per-client timer
// (QuietWhile, ReauthWhen, MethodNoResp).
package timer

import (
	"sync"
	"time"

	"github.com/sonic-net/sonic-pacd/internal/core/domain"
	"github.com/sonic-net/sonic-pacd/internal/core/ports"
)

type entry struct {
	key       domain.LogicalPortKey
	timerType domain.TimerType
	remaining time.Duration
	fn        ports.TimerFunc
	cancelled bool
}

// Wheel is the AppTimer implementation: entries decrement once per tick
// and fire their callback when they reach zero.
type Wheel struct {
	mu      sync.Mutex
	nextH   uint64
	entries map[uint64]*entry
	tick    time.Duration
}

var _ ports.AppTimer = (*Wheel)(nil)

// New returns a Wheel ticking at domain.AppTimerTick resolution.
func New() *Wheel {
	return &Wheel{
		entries: make(map[uint64]*entry),
		tick:    domain.AppTimerTick,
	}
}

// Start implements ports.AppTimer.
func (w *Wheel) Start(key domain.LogicalPortKey, timerType domain.TimerType, duration time.Duration, fn ports.TimerFunc) domain.ArmedTimer {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.removeForKeyLocked(key, timerType)

	w.nextH++
	handle := w.nextH
	w.entries[handle] = &entry{
		key:       key,
		timerType: timerType,
		remaining: duration,
		fn:        fn,
	}
	return domain.ArmedTimer{Type: timerType, Handle: handle, Armed: true}
}

// Stop implements ports.AppTimer.
func (w *Wheel) Stop(timer domain.ArmedTimer) {
	if !timer.Armed {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if e, ok := w.entries[timer.Handle]; ok {
		e.cancelled = true
		delete(w.entries, timer.Handle)
	}
}

// Run implements ports.AppTimer; it blocks until done is closed.
func (w *Wheel) Run(done <-chan struct{}) {
	ticker := time.NewTicker(w.tick)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			w.advance()
		}
	}
}

func (w *Wheel) advance() {
	var fired []*entry
	w.mu.Lock()
	for handle, e := range w.entries {
		e.remaining -= w.tick
		if e.remaining <= 0 {
			fired = append(fired, e)
			delete(w.entries, handle)
		}
	}
	w.mu.Unlock()

	for _, e := range fired {
		if e.cancelled || e.fn == nil {
			continue
		}
		e.fn(e.key, e.timerType)
	}
}

// removeForKeyLocked drops any existing timer of the same type for key,
// matching the "Start replaces an existing armed timer" contract.
func (w *Wheel) removeForKeyLocked(key domain.LogicalPortKey, timerType domain.TimerType) {
	for handle, e := range w.entries {
		if e.key == key && e.timerType == timerType {
			delete(w.entries, handle)
		}
	}
}
