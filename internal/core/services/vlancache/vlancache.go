// Package vlancache implements the two-bitset VLAN tracking service
// (spec.md section 4.5): an operational DB mirroring actual per-port
// membership and a configured DB mirroring the switch-wide VLAN table,
// each stored as Go maps keyed by VLAN ID and interface name.
package vlancache

import (
	"sort"
	"sync"

	"github.com/sonic-net/sonic-pacd/internal/core/domain"
	"github.com/sonic-net/sonic-pacd/internal/core/ports"
)

type portMembership struct {
	tagging domain.TagMode
}

// Cache implements ports.VlanCache.
type Cache struct {
	mu       sync.RWMutex
	platform ports.PlatformConfig

	// configured is the switch-wide VLAN table: vlan -> exists.
	configured map[int]struct{}

	// confMembers / operMembers: vlan -> ifname -> membership.
	confMembers map[int]map[string]portMembership
	operMembers map[int]map[string]portMembership

	// acquired tracks, per ifname, the per-VLAN snapshot saved at
	// AcquirePort time so ReleasePort can replay it back.
	acquired map[string][]ports.PortVlanSnapshot
}

var _ ports.VlanCache = (*Cache)(nil)

// New returns an empty Cache bound to platform for acquire/release
// notifications.
func New(platform ports.PlatformConfig) *Cache {
	return &Cache{
		platform:    platform,
		configured:  make(map[int]struct{}),
		confMembers: make(map[int]map[string]portMembership),
		operMembers: make(map[int]map[string]portMembership),
		acquired:    make(map[string][]ports.PortVlanSnapshot),
	}
}

// VlanAdd implements ports.VlanCache.
func (c *Cache) VlanAdd(vlan int) domain.Result {
	if !domain.ValidVlanID(vlan) {
		return domain.InvalidParameter
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.configured[vlan] = struct{}{}
	return domain.Success
}

// VlanDelete implements ports.VlanCache.
func (c *Cache) VlanDelete(vlan int) domain.Result {
	if !domain.ValidVlanID(vlan) {
		return domain.InvalidParameter
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.configured, vlan)
	delete(c.confMembers, vlan)
	delete(c.operMembers, vlan)
	return domain.Success
}

// PortVlanAdd implements ports.VlanCache.
func (c *Cache) PortVlanAdd(vlan int, ifname string, tagging domain.TagMode) domain.Result {
	if !domain.ValidVlanID(vlan) {
		return domain.InvalidParameter
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.confMembers[vlan]; !ok {
		c.confMembers[vlan] = make(map[string]portMembership)
	}
	c.confMembers[vlan][ifname] = portMembership{tagging: tagging}

	if _, ok := c.operMembers[vlan]; !ok {
		c.operMembers[vlan] = make(map[string]portMembership)
	}
	c.operMembers[vlan][ifname] = portMembership{tagging: tagging}
	return domain.Success
}

// PortVlanDelete implements ports.VlanCache.
func (c *Cache) PortVlanDelete(vlan int, ifname string) domain.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	if members, ok := c.confMembers[vlan]; ok {
		delete(members, ifname)
	}
	if members, ok := c.operMembers[vlan]; ok {
		delete(members, ifname)
	}
	return domain.Success
}

// Valid implements ports.VlanCache.
func (c *Cache) Valid(vlan int) domain.VlanValidity {
	if !domain.ValidVlanID(vlan) {
		return domain.VlanInvalid
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if _, ok := c.configured[vlan]; ok {
		return domain.VlanPresent
	}
	return domain.VlanNotExist
}

// IsPortMember implements ports.VlanCache.
func (c *Cache) IsPortMember(vlan int, ifname string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	members, ok := c.operMembers[vlan]
	if !ok {
		return false
	}
	_, ok = members[ifname]
	return ok
}

// PortDefaultVlan implements ports.VlanCache.
func (c *Cache) PortDefaultVlan(ifname string) (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var candidates []int
	for vlan, members := range c.confMembers {
		m, ok := members[ifname]
		if !ok || m.tagging != domain.Untagged {
			continue
		}
		if _, exists := c.configured[vlan]; !exists {
			continue
		}
		candidates = append(candidates, vlan)
	}
	if len(candidates) == 0 {
		return 0, false
	}
	sort.Ints(candidates)
	return candidates[0], true
}

// AcquirePort implements ports.VlanCache.
func (c *Cache) AcquirePort(ifname string) domain.Result {
	c.mu.Lock()
	if _, already := c.acquired[ifname]; already {
		c.mu.Unlock()
		return domain.Success
	}

	var snapshot []ports.PortVlanSnapshot
	for vlan, members := range c.operMembers {
		if m, ok := members[ifname]; ok {
			snapshot = append(snapshot, ports.PortVlanSnapshot{Vlan: vlan, Tagging: m.tagging})
		}
	}
	c.acquired[ifname] = snapshot
	for vlan := range c.operMembers {
		delete(c.operMembers[vlan], ifname)
	}
	c.mu.Unlock()

	if c.platform == nil {
		return domain.Success
	}
	return c.platform.VlanSendCfgNotification(ports.NotifyRemove, ifname, snapshot)
}

// ReleasePort implements ports.VlanCache.
func (c *Cache) ReleasePort(ifname string) domain.Result {
	c.mu.Lock()
	snapshot, ok := c.acquired[ifname]
	if !ok {
		c.mu.Unlock()
		return domain.Success
	}
	delete(c.acquired, ifname)
	for _, snap := range snapshot {
		if _, exists := c.operMembers[snap.Vlan]; !exists {
			c.operMembers[snap.Vlan] = make(map[string]portMembership)
		}
		c.operMembers[snap.Vlan][ifname] = portMembership{tagging: snap.Tagging}
	}
	c.mu.Unlock()

	if c.platform == nil {
		return domain.Success
	}
	return c.platform.VlanSendCfgNotification(ports.NotifyRevert, ifname, snapshot)
}
