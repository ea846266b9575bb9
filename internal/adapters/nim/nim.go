// Package nim implements ports.NIM over the standard library's net
// package. The real Network Interface Manager is a SONiC sibling process
// reached over a redis/zmq channel and is out of scope by spec (spec.md
// section 1, "NIM interaction is a contract this spec consumes, not a
// concern it owns"); net.Interfaces() is the idiomatic stand-in since
// this adapter's only job is enumerating/polling host link state, not a
// concern the dependency pack reaches for a library over.
package nim

import (
	"net"
	"sort"
	"sync"
	"time"

	"github.com/sonic-net/sonic-pacd/internal/core/domain"
	"github.com/sonic-net/sonic-pacd/internal/core/ports"
)

// Adapter implements ports.NIM by polling net.Interfaces() on an interval
// and diffing against its last-seen snapshot to synthesize
// ports.IntfChangeEvent notifications (spec.md section 6).
type Adapter struct {
	mu       sync.RWMutex
	byPort   map[uint32]net.Interface
	order    []uint32
	nextPort uint32
	byName   map[string]uint32

	cb     ports.IntfChangeFunc
	admin  map[uint32]ports.AdminState
}

var _ ports.NIM = (*Adapter)(nil)

// New returns an Adapter with no interfaces loaded yet; call Refresh (or
// Run, for continuous polling) to populate it.
func New() *Adapter {
	return &Adapter{
		byPort: make(map[uint32]net.Interface),
		byName: make(map[string]uint32),
		admin:  make(map[uint32]ports.AdminState),
	}
}

// Refresh re-enumerates host interfaces, assigning stable physical-port
// numbers the first time each interface name is seen, and fires
// IntfChangeEvent for everything that changed since the last Refresh.
func (a *Adapter) Refresh() error {
	ifaces, err := net.Interfaces()
	if err != nil {
		return err
	}

	a.mu.Lock()
	var events []ports.IntfChangeEvent
	seen := make(map[uint32]bool, len(ifaces))

	for _, iface := range ifaces {
		physPort, ok := a.byName[iface.Name]
		if !ok {
			a.nextPort++
			physPort = a.nextPort
			a.byName[iface.Name] = physPort
			a.order = append(a.order, physPort)
			sort.Slice(a.order, func(i, j int) bool { return a.order[i] < a.order[j] })
			a.admin[physPort] = ports.AdminEnabled
			events = append(events, ports.IntfChangeEvent{PhysPort: physPort, Kind: ports.IntfCreated})
		}
		seen[physPort] = true

		prev, existed := a.byPort[physPort]
		a.byPort[physPort] = iface
		if !existed {
			continue
		}
		prevUp := prev.Flags&net.FlagUp != 0
		nowUp := iface.Flags&net.FlagUp != 0
		if prevUp != nowUp {
			events = append(events, ports.IntfChangeEvent{
				PhysPort: physPort,
				Kind:     ports.IntfLinkStateChanged,
				Link:     linkState(iface),
			})
		}
	}

	for physPort := range a.byPort {
		if !seen[physPort] {
			delete(a.byPort, physPort)
			events = append(events, ports.IntfChangeEvent{PhysPort: physPort, Kind: ports.IntfDeleted})
		}
	}

	cb := a.cb
	a.mu.Unlock()

	if cb != nil {
		for _, evt := range events {
			cb(evt)
		}
	}
	return nil
}

// Run polls Refresh every interval until done is closed, mirroring the
// teacher's ticker-driven background-loop shape
// (internal/core/services/network.StartCleanupLoop).
func (a *Adapter) Run(done <-chan struct{}, interval time.Duration) {
	_ = a.Refresh()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			_ = a.Refresh()
		}
	}
}

func linkState(iface net.Interface) ports.LinkState {
	if iface.Flags&net.FlagUp != 0 {
		return ports.LinkUp
	}
	return ports.LinkDown
}

// FirstValidIntfNumber implements ports.NIM.
func (a *Adapter) FirstValidIntfNumber() (uint32, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if len(a.order) == 0 {
		return 0, false
	}
	return a.order[0], true
}

// NextValidIntf implements ports.NIM.
func (a *Adapter) NextValidIntf(physPort uint32) (uint32, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	idx := sort.Search(len(a.order), func(i int) bool { return a.order[i] > physPort })
	if idx >= len(a.order) {
		return 0, false
	}
	return a.order[idx], true
}

// IntfType implements ports.NIM. Host polling cannot distinguish a LAG or
// VLAN sub-interface from a physical NIC without netlink, so everything
// this adapter enumerates reports as physical.
func (a *Adapter) IntfType(physPort uint32) (ports.IntfType, domain.Result) {
	if _, res := a.lookup(physPort); !res.OK() {
		return 0, res
	}
	return ports.IntfPhysical, domain.Success
}

// IntfName implements ports.NIM.
func (a *Adapter) IntfName(physPort uint32) (string, domain.Result) {
	iface, res := a.lookup(physPort)
	if !res.OK() {
		return "", res
	}
	return iface.Name, domain.Success
}

// IntfLinkState implements ports.NIM.
func (a *Adapter) IntfLinkState(physPort uint32) (ports.LinkState, domain.Result) {
	iface, res := a.lookup(physPort)
	if !res.OK() {
		return ports.LinkDown, res
	}
	return linkState(iface), domain.Success
}

// IntfAdminState implements ports.NIM.
func (a *Adapter) IntfAdminState(physPort uint32) (ports.AdminState, domain.Result) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	state, ok := a.admin[physPort]
	if !ok {
		return ports.AdminDisabled, domain.NotExist
	}
	return state, domain.Success
}

// IntfAddress implements ports.NIM.
func (a *Adapter) IntfAddress(physPort uint32) (domain.MACAddr, domain.Result) {
	iface, res := a.lookup(physPort)
	if !res.OK() {
		return domain.MACAddr{}, res
	}
	mac, err := domain.ParseMAC(iface.HardwareAddr.String())
	if err != nil {
		return domain.MACAddr{}, domain.Failure
	}
	return mac, domain.Success
}

// RegisterIntfChangeCallback implements ports.NIM.
func (a *Adapter) RegisterIntfChangeCallback(fn ports.IntfChangeFunc) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cb = fn
}

func (a *Adapter) lookup(physPort uint32) (net.Interface, domain.Result) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	iface, ok := a.byPort[physPort]
	if !ok {
		return net.Interface{}, domain.NotExist
	}
	return iface, domain.Success
}
