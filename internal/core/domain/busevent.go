package domain

// AuthResult is the outcome a method plugin reports back to the
// orchestrator for a client authentication attempt (spec.md section 4.6).
type AuthResult int

const (
	AuthResultSuccess AuthResult = iota
	AuthResultFail
	AuthResultTimeout
	AuthResultDisconnected
	AuthResultServerCommFailure
)

// BusEventType tags the payload carried by a BusEvent, per the full event
// set enumerated in spec.md section 4.6.
type BusEventType int

const (
	EvtMethodEnableDisable BusEventType = iota
	EvtAdminModeSet
	EvtPortControlModeSet
	EvtHostModeSet
	EvtQuietPeriodSet
	EvtReauthPeriodSet
	EvtReauthEnabledSet
	EvtMaxUsersSet
	EvtPaeCapabilitySet
	EvtViolationModeSet
	EvtClientAuthResult
	EvtClientTimeoutTick
	EvtAAAInfoReceived
	EvtInterfaceChange
	EvtInterfaceStartup
	EvtVlanAdd
	EvtVlanDelete
	EvtVlanPortAdd
	EvtVlanPortDelete
	EvtVlanPVIDChange
	EvtMABAuthStart
	EvtMABReauth
	EvtMABDisconnect
	EvtClientCleanup
	EvtFsmRedispatch
)

// BusQueue names one of the three queues the message bus drains in
// priority order VLAN -> Normal -> Bulk (spec.md section 4.6).
type BusQueue int

const (
	QueueNormal BusQueue = iota
	QueueBulk
	QueueVlan
)

// BusEvent is the typed union the message bus carries. PhysPort is
// always populated; the remaining fields are a tagged payload consistent
// with Type.
type BusEvent struct {
	Type     BusEventType
	PhysPort uint32
	Queue    BusQueue

	// Key identifies the logical port a per-client event (EvtFsmRedispatch,
	// EvtClientAuthResult, EvtClientCleanup) targets.
	Key LogicalPortKey
	// SmEvent carries an explicit FSM event for EvtFsmRedispatch when the
	// originating timer already names one (QuietWhile, ReauthWhen).
	SmEvent SmEvent
	// TimerType names which armed timer expired, for EvtFsmRedispatch
	// events the FSM itself must translate into a Protocol boolean
	// (MethodNoResp: there is no dedicated SmEvent for "timed out", only
	// the auth_timeout boolean the event generator inspects).
	TimerType TimerType

	MAC        MACAddr
	Method     AuthMethod
	AuthResult AuthResult

	PortControlMode PortControlMode
	HostMode        HostMode
	PaeCapability   PaeCapability
	ViolationMode   ViolationMode

	IntValue  int
	BoolValue bool
	VlanID    int

	Tagged bool // for VLAN port add: true if tagged membership
}
