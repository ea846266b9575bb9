package ports

import (
	"time"

	"github.com/sonic-net/sonic-pacd/internal/core/domain"
)

// TimerFunc is invoked on expiry of a timer scheduled through AppTimer.
type TimerFunc func(key domain.LogicalPortKey, timerType domain.TimerType)

// AppTimer is the application timer-wheel collaborator (spec.md section
// 4.4): a single 1s-tick facility shared by every armed per-client timer.
type AppTimer interface {
	// Start arms a timer of timerType for key, firing fn after duration.
	// It replaces any existing timer of the same type for the same key.
	Start(key domain.LogicalPortKey, timerType domain.TimerType, duration time.Duration, fn TimerFunc) domain.ArmedTimer

	// Stop disarms a previously-started timer; it is a no-op if the
	// timer already fired or was never armed.
	Stop(timer domain.ArmedTimer)

	// Run ticks the wheel at AppTimerTick resolution until done is
	// closed.
	Run(done <-chan struct{})
}
