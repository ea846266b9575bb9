package ports

import "github.com/sonic-net/sonic-pacd/internal/core/domain"

// IntfType distinguishes the physical/logical interface types NIM reports.
type IntfType int

const (
	IntfPhysical IntfType = iota
	IntfLAG
	IntfVLAN
)

// LinkState mirrors the operational state NIM tracks per interface.
type LinkState int

const (
	LinkDown LinkState = iota
	LinkUp
)

// AdminState mirrors the administrative state NIM tracks per interface.
type AdminState int

const (
	AdminDisabled AdminState = iota
	AdminEnabled
)

// IntfChangeKind enumerates the NIM interface-change callback reasons
// (spec.md section 6).
type IntfChangeKind int

const (
	IntfCreated IntfChangeKind = iota
	IntfDeleted
	IntfLinkStateChanged
	IntfAdminStateChanged
)

// IntfChangeEvent is delivered to a registered IntfChangeFunc.
type IntfChangeEvent struct {
	PhysPort uint32
	Kind     IntfChangeKind
	Link     LinkState
	Admin    AdminState
}

// IntfChangeFunc is the callback signature for NIM interface-change
// notifications.
type IntfChangeFunc func(evt IntfChangeEvent)

// NIM is the Network Interface Manager collaborator contract (spec.md
// section 6): enumerate physical ports and subscribe to their lifecycle.
type NIM interface {
	// FirstValidIntfNumber returns the lowest valid physical port number,
	// or ok=false if none exist.
	FirstValidIntfNumber() (physPort uint32, ok bool)
	// NextValidIntf returns the next valid physical port number after
	// physPort, or ok=false at the end of the range.
	NextValidIntf(physPort uint32) (next uint32, ok bool)

	IntfType(physPort uint32) (IntfType, domain.Result)
	IntfName(physPort uint32) (string, domain.Result)
	IntfLinkState(physPort uint32) (LinkState, domain.Result)
	IntfAdminState(physPort uint32) (AdminState, domain.Result)
	IntfAddress(physPort uint32) (mac domain.MACAddr, result domain.Result)

	// RegisterIntfChangeCallback subscribes fn to interface lifecycle
	// events; it must be called once during startup.
	RegisterIntfChangeCallback(fn IntfChangeFunc)
}
