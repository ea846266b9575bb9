package ports

import "github.com/sonic-net/sonic-pacd/internal/core/domain"

// LearningMode is the dataplane MAC-learning mode for an interface.
type LearningMode int

const (
	LearningDisable LearningMode = iota
	LearningEnable
	LearningCPUControlled
)

// NotificationKind distinguishes the two shapes of VLAN acquire/release
// notification the VLAN cache sends to Platform Configuration.
type NotificationKind int

const (
	NotifyRemove NotificationKind = iota
	NotifyRevert
)

// PortVlanSnapshot is the per-port VLAN membership replayed back to the
// switch when a port is released from VLAN-cache acquisition.
type PortVlanSnapshot struct {
	Vlan    int
	Tagging domain.TagMode
}

// PlatformConfig is the switch Configuration Agent collaborator
// (pac_cfg_* operations, spec.md section 6). It is implemented outside
// this module's core; the core only consumes the contract below.
type PlatformConfig interface {
	// ClientAdd installs the static FDB entry for an authorized station.
	ClientAdd(ifname string, mac domain.MACAddr, vlan int) domain.Result
	// ClientRemove removes a previously installed static FDB entry.
	ClientRemove(ifname string, mac domain.MACAddr, vlan int) domain.Result

	// ClientBlock installs a dataplane drop rule while authenticating.
	ClientBlock(ifname string, mac domain.MACAddr, vlan int) domain.Result
	// ClientUnblock reverses ClientBlock on authentication success.
	ClientUnblock(ifname string, mac domain.MACAddr, vlan int) domain.Result

	PortPVIDSet(ifname string, pvid int) domain.Result
	PortPVIDGet(ifname string) (pvid int, result domain.Result)

	VlanMemberAdd(vlan int, ifname string, tagging domain.TagMode) domain.Result
	VlanMemberRemove(vlan int, ifname string) domain.Result

	VlanAdd(vlan int) domain.Result
	VlanRemove(vlan int) domain.Result

	InterfaceLearningModeSet(ifname string, mode LearningMode) domain.Result
	InterfaceViolationPolicySet(ifname string, enabled bool) domain.Result

	// VlanSendCfgNotification is used by the VLAN cache for acquire/release
	// (spec.md section 4.5); snapshot is the saved per-port config to
	// replay on a Revert notification.
	VlanSendCfgNotification(kind NotificationKind, ifname string, snapshot []PortVlanSnapshot) domain.Result

	InterfaceAcquireSet(ifname string, acquired bool) domain.Result
}
