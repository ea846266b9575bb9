package ports

import "github.com/sonic-net/sonic-pacd/internal/core/domain"

// VlanCache is the two-bitset-per-port VLAN tracking collaborator
// (spec.md section 4.5): an operational DB mirroring each port's actual
// VLAN membership and a configured DB mirroring the switch-wide VLAN
// table, both keyed (vlan, port, tagging).
type VlanCache interface {
	// VlanAdd/VlanDelete maintain the configured VLAN DB; vlan must be
	// in [1, 4094] or InvalidParameter is returned.
	VlanAdd(vlan int) domain.Result
	VlanDelete(vlan int) domain.Result

	// PortVlanAdd/PortVlanDelete maintain per-port membership bits in
	// both the operational and configured DBs.
	PortVlanAdd(vlan int, ifname string, tagging domain.TagMode) domain.Result
	PortVlanDelete(vlan int, ifname string) domain.Result

	// Valid classifies vlan against the configured DB (vlan_valid).
	Valid(vlan int) domain.VlanValidity

	// IsPortMember reports whether ifname is already an operational
	// member of vlan, so client-add fan-out (spec.md section 4.10 step 3)
	// can skip a redundant VlanMemberAdd call.
	IsPortMember(vlan int, ifname string) bool

	// PortDefaultVlan returns the numerically lowest VLAN in ifname's
	// configured, untagged set that also exists in the configured VLAN
	// DB; ok is false if none qualifies (used when RADIUS supplies no
	// VLAN).
	PortDefaultVlan(ifname string) (vlan int, ok bool)

	// AcquirePort tells PlatformConfig to strip all user VLAN config
	// from ifname, then marks it acquired in the operational DB. It is a
	// no-op if ifname is already acquired.
	AcquirePort(ifname string) domain.Result

	// ReleasePort replays the per-port config saved at AcquirePort time
	// back to PlatformConfig and marks ifname released. It is a no-op if
	// ifname is not acquired.
	ReleasePort(ifname string) domain.Result
}
