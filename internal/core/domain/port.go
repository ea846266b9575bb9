package domain

// PortControlMode is the administrative control mode of a physical port.
type PortControlMode int

const (
	PortControlInvalid PortControlMode = iota
	PortControlForceUnauth
	PortControlForceAuth
	PortControlAuto
)

func (m PortControlMode) String() string {
	switch m {
	case PortControlForceUnauth:
		return "force-unauthorized"
	case PortControlForceAuth:
		return "force-authorized"
	case PortControlAuto:
		return "auto"
	default:
		return "invalid"
	}
}

// HostMode governs how many MACs may be learned/authenticated on a port.
type HostMode int

const (
	HostModeInvalid HostMode = iota
	// HostModeSingleAuth allows exactly one authenticated client.
	HostModeSingleAuth
	// HostModeMultiHost allows one client to authenticate and all MACs to
	// forward once it does.
	HostModeMultiHost
	// HostModeMultiAuth requires each MAC to authenticate independently.
	HostModeMultiAuth
)

func (m HostMode) String() string {
	switch m {
	case HostModeSingleAuth:
		return "single-auth"
	case HostModeMultiHost:
		return "multi-host"
	case HostModeMultiAuth:
		return "multi-auth"
	default:
		return "invalid"
	}
}

// PaeCapability is the Port Access Entity role of a physical port.
type PaeCapability int

const (
	PaeNone PaeCapability = iota
	PaeAuthCapable
)

// ViolationMode governs what happens when host-mode capacity is exceeded
// by an unauthorized MAC (mirrors the original's violation-mode concept;
// enforcement of the dataplane action is the Platform Configuration
// collaborator's concern, this just records the policy).
type ViolationMode int

const (
	ViolationProtect ViolationMode = iota
	ViolationRestrict
	ViolationShutdown
)

// UnlearnMacPolicy governs whether a MAC is removed from the FDB/MAC
// index immediately on auth failure or left to age out normally.
type UnlearnMacPolicy int

const (
	UnlearnImmediate UnlearnMacPolicy = iota
	UnlearnOnAging
)

// Port holds the per-physical-interface configuration and counters from
// spec.md section 3.
type Port struct {
	PhysPort uint32

	MaxUsers int
	NumUsers int
	// AuthCount is the number of clients on this port currently Authorized.
	AuthCount int

	PortControlMode PortControlMode
	HostMode        HostMode
	PortEnabled     bool
	PaeCapability   PaeCapability

	QuietPeriod            int
	ReauthPeriod            int
	ReauthPeriodFromServer bool
	ReauthEnabled          bool

	// ConfiguredMethods is the administrator-configured, ordered method
	// list. EnabledMethods is the subset currently operationally enabled
	// (filtered by each method's enable_get callback). EnabledPriority is
	// the ordered list used to compare an incoming method's priority
	// against the authenticated method; a lower index is higher priority.
	ConfiguredMethods []AuthMethod
	EnabledMethods    []AuthMethod
	EnabledPriority    []AuthMethod

	ViolationMode    ViolationMode
	UnlearnMacPolicy UnlearnMacPolicy

	// PVID is the operational snapshot of the port's untagged VLAN.
	PVID int
	// AuthVlan is the last VLAN installed via authentication (0 if none).
	AuthVlan int

	// Acquired mirrors the VLAN cache's view of whether this port's user
	// VLAN configuration has been pulled out for exclusive auth use
	// (spec.md section 4.5).
	Acquired bool

	Ifname  string
	IfIndex uint32
}

// NewPort returns a Port with auth defaults but no link/config state,
// ready for admin_mode_set/port_init to populate.
func NewPort(physPort uint32) *Port {
	return &Port{
		PhysPort:        physPort,
		PortControlMode: PortControlForceUnauth,
		HostMode:        HostModeInvalid,
		PaeCapability:   PaeAuthCapable,
		QuietPeriod:     DefaultQuietPeriod,
		ReauthPeriod:    DefaultReauthPeriod,
		MaxUsers:        MaxUsersPerPort,
	}
}

// AllowsDynamicAllocation reports whether the port's current host mode
// permits allocating additional logical ports beyond any synthetic one.
func (p *Port) AllowsDynamicAllocation() bool {
	if p.PortControlMode != PortControlAuto {
		return false
	}
	switch p.HostMode {
	case HostModeSingleAuth, HostModeMultiHost, HostModeMultiAuth:
		return true
	default:
		return false
	}
}

// MethodIndex returns the index of method within EnabledPriority, or -1
// if method is not currently enabled-with-priority on this port.
func (p *Port) MethodIndex(method AuthMethod) int {
	for i, m := range p.EnabledPriority {
		if m == method {
			return i
		}
	}
	return -1
}

// MethodEnabled reports whether method is in the port's operationally
// enabled method set.
func (p *Port) MethodEnabled(method AuthMethod) bool {
	for _, m := range p.EnabledMethods {
		if m == method {
			return true
		}
	}
	return false
}
