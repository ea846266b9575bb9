// Package registry implements the logical-port registry and MAC reverse
// index (spec.md sections 4.2 and 4.3). Unlike the sharded, hash-bucketed
// device store this package is adapted from, a PAC logical-port registry
// needs stable per-port slot ordering (FirstPort/NextPort iterate slots
// in allocation order for a single physical port) rather than global
// hash-bucket concurrency, so it is built around one RWMutex per physical
// port instead of a fixed shard count keyed by MAC hash.
package registry

import (
	"sort"
	"sync"

	"github.com/sonic-net/sonic-pacd/internal/core/domain"
	"github.com/sonic-net/sonic-pacd/internal/core/ports"
)

type portSlots struct {
	mu      sync.RWMutex
	order   []domain.LogicalPortKey
	clients map[domain.LogicalPortKey]*domain.LogicalPort
	maxUsers int
}

// Registry implements ports.LogicalPortRegistry.
type Registry struct {
	mu    sync.RWMutex
	ports map[uint32]*portSlots

	nextSlot map[uint32]uint32
}

var _ ports.LogicalPortRegistry = (*Registry)(nil)

// New returns an empty Registry.
func New() *Registry {
	return &Registry{
		ports:    make(map[uint32]*portSlots),
		nextSlot: make(map[uint32]uint32),
	}
}

// SetMaxUsers sets the logical-port slot cap for physPort (spec.md section
// 4.1, "port.max_users"), used to enforce CapacityExceeded on Create.
func (r *Registry) SetMaxUsers(physPort uint32, maxUsers int) {
	r.mu.Lock()
	ps := r.getOrCreatePortLocked(physPort)
	r.mu.Unlock()

	ps.mu.Lock()
	ps.maxUsers = maxUsers
	ps.mu.Unlock()
}

func (r *Registry) getOrCreatePortLocked(physPort uint32) *portSlots {
	ps, ok := r.ports[physPort]
	if !ok {
		ps = &portSlots{
			clients:  make(map[domain.LogicalPortKey]*domain.LogicalPort),
			maxUsers: domain.MaxUsersPerPort,
		}
		r.ports[physPort] = ps
	}
	return ps
}

func (r *Registry) getPort(physPort uint32) *portSlots {
	r.mu.RLock()
	ps := r.ports[physPort]
	r.mu.RUnlock()
	return ps
}

// Create implements ports.LogicalPortRegistry.
func (r *Registry) Create(physPort uint32, mac domain.MACAddr) (domain.LogicalPortKey, domain.Result) {
	return r.create(physPort, mac, false)
}

// CreateSynthetic implements ports.LogicalPortRegistry.
func (r *Registry) CreateSynthetic(physPort uint32) (domain.LogicalPortKey, domain.Result) {
	return r.create(physPort, domain.MACAddr{}, true)
}

func (r *Registry) create(physPort uint32, mac domain.MACAddr, synthetic bool) (domain.LogicalPortKey, domain.Result) {
	r.mu.Lock()
	ps := r.getOrCreatePortLocked(physPort)
	slot := r.nextSlot[physPort] + 1
	r.mu.Unlock()

	ps.mu.Lock()
	defer ps.mu.Unlock()

	if len(ps.order) >= ps.maxUsers {
		return 0, domain.CapacityExceeded
	}

	key := domain.MakeLogicalPortKey(physPort, slot, domain.KindLogical)
	lp := domain.NewLogicalPort(key)
	lp.Client.MAC = mac
	lp.Synthetic = synthetic

	ps.order = append(ps.order, key)
	ps.clients[key] = lp

	r.mu.Lock()
	r.nextSlot[physPort] = slot
	r.mu.Unlock()

	return key, domain.Success
}

// Delete implements ports.LogicalPortRegistry.
func (r *Registry) Delete(key domain.LogicalPortKey) domain.Result {
	ps := r.getPort(key.PhysPort())
	if ps == nil {
		return domain.NotExist
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()

	if _, ok := ps.clients[key]; !ok {
		return domain.NotExist
	}
	delete(ps.clients, key)
	for i, k := range ps.order {
		if k == key {
			ps.order = append(ps.order[:i], ps.order[i+1:]...)
			break
		}
	}
	return domain.Success
}

// Get implements ports.LogicalPortRegistry.
func (r *Registry) Get(key domain.LogicalPortKey) (*domain.LogicalPort, domain.Result) {
	ps := r.getPort(key.PhysPort())
	if ps == nil {
		return nil, domain.NotExist
	}
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	lp, ok := ps.clients[key]
	if !ok {
		return nil, domain.NotExist
	}
	return lp, domain.Success
}

// FirstPort implements ports.LogicalPortRegistry. The returned cursor
// seed carries physPort (slot 0, "before the first slot") so NextPort
// knows which physical port's slot list to walk.
func (r *Registry) FirstPort(physPort uint32) (domain.LogicalPortKey, domain.Result) {
	return r.NextPort(domain.MakeLogicalPortKey(physPort, 0, domain.KindLogical))
}

// NextPort implements ports.LogicalPortRegistry. cursor's physical port
// identifies which port's slot list to walk; slot 0 (as produced by
// FirstPort) means "before the first slot".
func (r *Registry) NextPort(cursor domain.LogicalPortKey) (domain.LogicalPortKey, domain.Result) {
	physPort := cursor.PhysPort()
	ps := r.getPort(physPort)
	if ps == nil {
		return 0, domain.NotExist
	}

	ps.mu.RLock()
	defer ps.mu.RUnlock()

	order := ps.order
	if cursor.Slot() == 0 {
		if len(order) == 0 {
			return 0, domain.NotExist
		}
		return order[0], domain.Success
	}

	idx := sort.Search(len(order), func(i int) bool { return order[i] >= cursor })
	if idx < len(order) && order[idx] == cursor {
		idx++
	}
	if idx >= len(order) {
		return 0, domain.NotExist
	}
	return order[idx], domain.Success
}

// Count implements ports.LogicalPortRegistry.
func (r *Registry) Count(physPort uint32) int {
	ps := r.getPort(physPort)
	if ps == nil {
		return 0
	}
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	return len(ps.order)
}
