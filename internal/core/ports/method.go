package ports

import "github.com/sonic-net/sonic-pacd/internal/core/domain"

// MethodPlugin is the capability contract each authentication method
// (802.1X, MAB) must implement so the FSM/authmgr layer can drive it
// uniformly (spec.md section 4.8/section 9).
type MethodPlugin interface {
	Method() domain.AuthMethod

	// EnableGet reports whether the method is currently enabled on the
	// given physical port.
	EnableGet(physPort uint32) (enabled bool, result domain.Result)

	// PortCtrl applies a port-control-mode change (ForceAuth/ForceUnauth/
	// Auto) to the method's own bookkeeping.
	PortCtrl(physPort uint32, mode domain.PortControlMode) domain.Result

	// HostCtrl applies a host-mode change to the method's own bookkeeping.
	HostCtrl(physPort uint32, mode domain.HostMode) domain.Result

	// EventNotify delivers a method-level event for a given client to
	// the method so it can start/stop its own protocol exchange.
	EventNotify(key domain.LogicalPortKey, mac domain.MACAddr, event domain.MethodEvent) domain.Result
}
