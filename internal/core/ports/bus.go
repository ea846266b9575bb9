package ports

import "github.com/sonic-net/sonic-pacd/internal/core/domain"

// MessageBus is the priority message bus collaborator (spec.md section
// 4.6): three typed queues (Vlan, Normal, Bulk) drained in strict
// priority order by a single worker.
type MessageBus interface {
	// Post enqueues evt onto the queue named in evt.Queue. Blocks if the
	// bus's backlog semaphore is exhausted.
	Post(evt domain.BusEvent) domain.Result

	// Subscribe registers fn as a consumer invoked for every drained
	// event, in priority order (Vlan before Normal before Bulk).
	Subscribe(fn func(domain.BusEvent))

	// Run drains the queues until done is closed.
	Run(done <-chan struct{})
}
