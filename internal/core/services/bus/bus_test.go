package bus

import (
	"sync"
	"testing"
	"time"

	"github.com/sonic-net/sonic-pacd/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_PriorityDrainOrder(t *testing.T) {
	b := New(16)
	require.Equal(t, domain.Success, b.Post(domain.BusEvent{Type: domain.EvtClientTimeoutTick, Queue: domain.QueueBulk}))
	require.Equal(t, domain.Success, b.Post(domain.BusEvent{Type: domain.EvtAdminModeSet, Queue: domain.QueueNormal}))
	require.Equal(t, domain.Success, b.Post(domain.BusEvent{Type: domain.EvtVlanAdd, Queue: domain.QueueVlan}))

	var mu sync.Mutex
	var order []domain.BusEventType
	b.Subscribe(func(evt domain.BusEvent) {
		mu.Lock()
		order = append(order, evt.Type)
		mu.Unlock()
	})

	done := make(chan struct{})
	go b.Run(done)
	defer close(done)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) == 3
	}, time.Second, time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []domain.BusEventType{domain.EvtVlanAdd, domain.EvtAdminModeSet, domain.EvtClientTimeoutTick}, order)
}

func TestBus_MultipleSubscribersAllNotified(t *testing.T) {
	b := New(4)
	var count int32
	var mu sync.Mutex
	fn := func(domain.BusEvent) {
		mu.Lock()
		count++
		mu.Unlock()
	}
	b.Subscribe(fn)
	b.Subscribe(fn)

	done := make(chan struct{})
	go b.Run(done)
	defer close(done)

	require.Equal(t, domain.Success, b.Post(domain.BusEvent{Type: domain.EvtAdminModeSet, Queue: domain.QueueNormal}))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return count == 2
	}, time.Second, time.Millisecond)
}
