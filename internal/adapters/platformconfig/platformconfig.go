// Package platformconfig implements ports.PlatformConfig. The real
// pac_cfg_* backend (redis ConfigDB / SAI) is out of scope by spec (spec.md
// section 1); this adapter is the teacher's "wrap a backend behind
// structured logging" shape (internal/adapters/storage) applied to a
// no-op in-memory backend, so the rest of the daemon can be exercised
// end-to-end without real switch hardware.
package platformconfig

import (
	"log/slog"
	"sync"

	"github.com/sonic-net/sonic-pacd/internal/core/domain"
	"github.com/sonic-net/sonic-pacd/internal/core/ports"
)

// Adapter is an in-memory ports.PlatformConfig that logs every callout it
// receives at debug level, mirroring how a real SAI/ConfigDB write would
// be traced.
type Adapter struct {
	mu  sync.Mutex
	log *slog.Logger

	clients       map[clientKey]struct{}
	blocked       map[clientKey]struct{}
	pvid          map[string]int
	vlanMembers   map[int]map[string]domain.TagMode
	vlans         map[int]struct{}
	learningMode  map[string]ports.LearningMode
	violationMode map[string]bool
	acquired      map[string]bool
}

type clientKey struct {
	ifname string
	mac    domain.MACAddr
	vlan   int
}

var _ ports.PlatformConfig = (*Adapter)(nil)

// New returns an Adapter backed by in-memory state.
func New(log *slog.Logger) *Adapter {
	if log == nil {
		log = slog.Default()
	}
	return &Adapter{
		log:           log,
		clients:       make(map[clientKey]struct{}),
		blocked:       make(map[clientKey]struct{}),
		pvid:          make(map[string]int),
		vlanMembers:   make(map[int]map[string]domain.TagMode),
		vlans:         make(map[int]struct{}),
		learningMode:  make(map[string]ports.LearningMode),
		violationMode: make(map[string]bool),
		acquired:      make(map[string]bool),
	}
}

// ClientAdd implements ports.PlatformConfig.
func (a *Adapter) ClientAdd(ifname string, mac domain.MACAddr, vlan int) domain.Result {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.log.Debug("client add", "ifname", ifname, "mac", mac.String(), "vlan", vlan)
	a.clients[clientKey{ifname, mac, vlan}] = struct{}{}
	return domain.Success
}

// ClientRemove implements ports.PlatformConfig.
func (a *Adapter) ClientRemove(ifname string, mac domain.MACAddr, vlan int) domain.Result {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.log.Debug("client remove", "ifname", ifname, "mac", mac.String(), "vlan", vlan)
	delete(a.clients, clientKey{ifname, mac, vlan})
	return domain.Success
}

// ClientBlock implements ports.PlatformConfig.
func (a *Adapter) ClientBlock(ifname string, mac domain.MACAddr, vlan int) domain.Result {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.log.Debug("client block", "ifname", ifname, "mac", mac.String(), "vlan", vlan)
	a.blocked[clientKey{ifname, mac, vlan}] = struct{}{}
	return domain.Success
}

// ClientUnblock implements ports.PlatformConfig.
func (a *Adapter) ClientUnblock(ifname string, mac domain.MACAddr, vlan int) domain.Result {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.log.Debug("client unblock", "ifname", ifname, "mac", mac.String(), "vlan", vlan)
	delete(a.blocked, clientKey{ifname, mac, vlan})
	return domain.Success
}

// PortPVIDSet implements ports.PlatformConfig.
func (a *Adapter) PortPVIDSet(ifname string, pvid int) domain.Result {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.log.Debug("port pvid set", "ifname", ifname, "pvid", pvid)
	a.pvid[ifname] = pvid
	return domain.Success
}

// PortPVIDGet implements ports.PlatformConfig.
func (a *Adapter) PortPVIDGet(ifname string) (int, domain.Result) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pvid[ifname], domain.Success
}

// VlanMemberAdd implements ports.PlatformConfig.
func (a *Adapter) VlanMemberAdd(vlan int, ifname string, tagging domain.TagMode) domain.Result {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.log.Debug("vlan member add", "vlan", vlan, "ifname", ifname, "tagging", tagging)
	members, ok := a.vlanMembers[vlan]
	if !ok {
		members = make(map[string]domain.TagMode)
		a.vlanMembers[vlan] = members
	}
	members[ifname] = tagging
	return domain.Success
}

// VlanMemberRemove implements ports.PlatformConfig.
func (a *Adapter) VlanMemberRemove(vlan int, ifname string) domain.Result {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.log.Debug("vlan member remove", "vlan", vlan, "ifname", ifname)
	delete(a.vlanMembers[vlan], ifname)
	return domain.Success
}

// VlanAdd implements ports.PlatformConfig.
func (a *Adapter) VlanAdd(vlan int) domain.Result {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.log.Debug("vlan add", "vlan", vlan)
	a.vlans[vlan] = struct{}{}
	return domain.Success
}

// VlanRemove implements ports.PlatformConfig.
func (a *Adapter) VlanRemove(vlan int) domain.Result {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.log.Debug("vlan remove", "vlan", vlan)
	delete(a.vlans, vlan)
	delete(a.vlanMembers, vlan)
	return domain.Success
}

// InterfaceLearningModeSet implements ports.PlatformConfig.
func (a *Adapter) InterfaceLearningModeSet(ifname string, mode ports.LearningMode) domain.Result {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.log.Debug("interface learning mode set", "ifname", ifname, "mode", mode)
	a.learningMode[ifname] = mode
	return domain.Success
}

// InterfaceViolationPolicySet implements ports.PlatformConfig.
func (a *Adapter) InterfaceViolationPolicySet(ifname string, enabled bool) domain.Result {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.log.Debug("interface violation policy set", "ifname", ifname, "enabled", enabled)
	a.violationMode[ifname] = enabled
	return domain.Success
}

// InterfaceAcquireSet implements ports.PlatformConfig.
func (a *Adapter) InterfaceAcquireSet(ifname string, acquired bool) domain.Result {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.log.Debug("interface acquire set", "ifname", ifname, "acquired", acquired)
	a.acquired[ifname] = acquired
	return domain.Success
}

// VlanSendCfgNotification implements ports.PlatformConfig. A Revert
// notification replays snapshot's per-VLAN membership on ifname; a Remove
// notification is logged only, the caller having already cleared state.
func (a *Adapter) VlanSendCfgNotification(kind ports.NotificationKind, ifname string, snapshot []ports.PortVlanSnapshot) domain.Result {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.log.Debug("vlan cfg notification", "kind", kind, "ifname", ifname, "entries", len(snapshot))
	if kind != ports.NotifyRevert {
		return domain.Success
	}
	for _, entry := range snapshot {
		members, ok := a.vlanMembers[entry.Vlan]
		if !ok {
			members = make(map[string]domain.TagMode)
			a.vlanMembers[entry.Vlan] = members
		}
		members[ifname] = entry.Tagging
	}
	return domain.Success
}
