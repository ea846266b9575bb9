package timer

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/sonic-net/sonic-pacd/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func TestWheel_FiresAfterDuration(t *testing.T) {
	w := New()
	w.tick = 5 * time.Millisecond
	done := make(chan struct{})
	go w.Run(done)
	defer close(done)

	var fired int32
	w.Start(domain.MakeLogicalPortKey(1, 1, domain.KindLogical), domain.TimerQuietWhile, 15*time.Millisecond, func(domain.LogicalPortKey, domain.TimerType) {
		atomic.AddInt32(&fired, 1)
	})

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&fired))
}

func TestWheel_StopPreventsFire(t *testing.T) {
	w := New()
	w.tick = 5 * time.Millisecond
	done := make(chan struct{})
	go w.Run(done)
	defer close(done)

	var fired int32
	h := w.Start(domain.MakeLogicalPortKey(1, 1, domain.KindLogical), domain.TimerQuietWhile, 15*time.Millisecond, func(domain.LogicalPortKey, domain.TimerType) {
		atomic.AddInt32(&fired, 1)
	})
	w.Stop(h)

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&fired))
}

func TestWheel_StartReplacesSameKeyAndType(t *testing.T) {
	w := New()
	w.tick = 5 * time.Millisecond
	done := make(chan struct{})
	go w.Run(done)
	defer close(done)

	key := domain.MakeLogicalPortKey(1, 1, domain.KindLogical)
	var fired int32
	w.Start(key, domain.TimerQuietWhile, 200*time.Millisecond, func(domain.LogicalPortKey, domain.TimerType) {
		atomic.AddInt32(&fired, 1)
	})
	w.Start(key, domain.TimerQuietWhile, 15*time.Millisecond, func(domain.LogicalPortKey, domain.TimerType) {
		atomic.AddInt32(&fired, 10)
	})

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(10), atomic.LoadInt32(&fired))
}
