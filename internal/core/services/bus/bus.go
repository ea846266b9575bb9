// Package bus implements the priority message bus (spec.md section 4.6):
// three typed queues drained by a single worker in strict priority order
// Vlan > Normal > Bulk, one message per wake, gated by a counting
// semaphore so the worker never busy-polls.
package bus

import (
	"sync"

	"github.com/sonic-net/sonic-pacd/internal/core/domain"
	"github.com/sonic-net/sonic-pacd/internal/core/ports"
	"github.com/sonic-net/sonic-pacd/internal/telemetry"
)

// Bus implements ports.MessageBus.
type Bus struct {
	mu     sync.Mutex
	vlan   []domain.BusEvent
	normal []domain.BusEvent
	bulk   []domain.BusEvent

	sem chan struct{}

	subMu sync.RWMutex
	subs  []func(domain.BusEvent)
}

var _ ports.MessageBus = (*Bus)(nil)

// New returns an empty Bus. capacity bounds the counting semaphore,
// i.e. the total number of not-yet-drained events across all three
// queues; Post blocks once it is reached.
func New(capacity int) *Bus {
	return &Bus{sem: make(chan struct{}, capacity)}
}

// Post implements ports.MessageBus.
func (b *Bus) Post(evt domain.BusEvent) domain.Result {
	b.mu.Lock()
	switch evt.Queue {
	case domain.QueueVlan:
		b.vlan = append(b.vlan, evt)
	case domain.QueueBulk:
		b.bulk = append(b.bulk, evt)
	default:
		b.normal = append(b.normal, evt)
	}
	b.reportDepthLocked()
	b.mu.Unlock()

	b.sem <- struct{}{}
	return domain.Success
}

// reportDepthLocked publishes the per-queue backlog gauge; callers must
// hold b.mu.
func (b *Bus) reportDepthLocked() {
	telemetry.BusQueueDepth.WithLabelValues("vlan").Set(float64(len(b.vlan)))
	telemetry.BusQueueDepth.WithLabelValues("normal").Set(float64(len(b.normal)))
	telemetry.BusQueueDepth.WithLabelValues("bulk").Set(float64(len(b.bulk)))
}

// Subscribe implements ports.MessageBus.
func (b *Bus) Subscribe(fn func(domain.BusEvent)) {
	b.subMu.Lock()
	defer b.subMu.Unlock()
	b.subs = append(b.subs, fn)
}

// Run implements ports.MessageBus: it blocks on the semaphore and, on
// each wake, drains exactly one event in priority order Vlan > Normal >
// Bulk, until done is closed.
func (b *Bus) Run(done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case <-b.sem:
			evt, ok := b.dequeueOne()
			if !ok {
				continue
			}
			b.dispatch(evt)
		}
	}
}

func (b *Bus) dequeueOne() (domain.BusEvent, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.vlan) > 0 {
		evt := b.vlan[0]
		b.vlan = b.vlan[1:]
		b.reportDepthLocked()
		return evt, true
	}
	if len(b.normal) > 0 {
		evt := b.normal[0]
		b.normal = b.normal[1:]
		b.reportDepthLocked()
		return evt, true
	}
	if len(b.bulk) > 0 {
		evt := b.bulk[0]
		b.bulk = b.bulk[1:]
		b.reportDepthLocked()
		return evt, true
	}
	return domain.BusEvent{}, false
}

func (b *Bus) dispatch(evt domain.BusEvent) {
	b.subMu.RLock()
	subs := b.subs
	b.subMu.RUnlock()
	for _, fn := range subs {
		fn(evt)
	}
}
