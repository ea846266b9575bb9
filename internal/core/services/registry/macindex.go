package registry

import (
	"sync"

	"github.com/sonic-net/sonic-pacd/internal/core/domain"
	"github.com/sonic-net/sonic-pacd/internal/core/ports"
)

// MacIndex implements ports.MacIndex: a single-lock reverse index from
// MAC address to the logical port that currently owns it, used to detect
// a station roaming to a new physical port (spec.md section 4.3).
type MacIndex struct {
	mu    sync.RWMutex
	byMAC map[domain.MACAddr]domain.LogicalPortKey
}

var _ ports.MacIndex = (*MacIndex)(nil)

// NewMacIndex returns an empty MacIndex.
func NewMacIndex() *MacIndex {
	return &MacIndex{byMAC: make(map[domain.MACAddr]domain.LogicalPortKey)}
}

// Bind implements ports.MacIndex.
func (idx *MacIndex) Bind(mac domain.MACAddr, key domain.LogicalPortKey) (domain.LogicalPortKey, bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	previous, hadPrevious := idx.byMAC[mac]
	idx.byMAC[mac] = key
	return previous, hadPrevious
}

// Unbind implements ports.MacIndex.
func (idx *MacIndex) Unbind(mac domain.MACAddr) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	delete(idx.byMAC, mac)
}

// Lookup implements ports.MacIndex.
func (idx *MacIndex) Lookup(mac domain.MACAddr) (domain.LogicalPortKey, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	key, ok := idx.byMAC[mac]
	return key, ok
}
