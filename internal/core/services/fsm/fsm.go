// Package fsm implements the per-client authentication state machine and
// its event generator (spec.md section 4.8): state actions run on entry
// to each of the five states, and the event generator inspects the
// resulting booleans to decide what event (if any) to feed back in.
package fsm

import (
	"time"

	"github.com/sonic-net/sonic-pacd/internal/core/domain"
	"github.com/sonic-net/sonic-pacd/internal/core/ports"
	"github.com/sonic-net/sonic-pacd/internal/telemetry"
)

// serverAwhile bounds how long a method plugin may run without a
// response before the FSM is told AuthTimeout (spec.md section 4.9).
const serverAwhile = 30 * time.Second

// transitions is the state transition table from spec.md section 4.8.
// A missing (state, event) pair means the event is ignored in that state.
var transitions = map[domain.State]map[domain.SmEvent]domain.State{
	domain.StateInitialize: {
		domain.EvInitialize:        domain.StateInitialize,
		domain.EvStartAuthenticate: domain.StateUnauthenticated,
	},
	domain.StateAuthenticating: {
		domain.EvInitialize:             domain.StateInitialize,
		domain.EvNotSuccessNoNextMethod: domain.StateHeld,
		domain.EvNotSuccessNextMethod:   domain.StateAuthenticating,
		domain.EvStopAuthenticate:       domain.StateUnauthenticated,
		domain.EvAuthSuccess:            domain.StateAuthenticated,
	},
	domain.StateAuthenticated: {
		domain.EvInitialize:           domain.StateInitialize,
		domain.EvAuthSuccess:          domain.StateAuthenticated,
		domain.EvStopAuthenticate:     domain.StateUnauthenticated,
		domain.EvHigherMethodAdded:    domain.StateAuthenticating,
		domain.EvReauthenticate:       domain.StateAuthenticating,
		domain.EvAuthenticatedRxStart: domain.StateAuthenticating,
		domain.EvAuthFail:             domain.StateAuthenticating,
		domain.EvAbortAndRestart:      domain.StateAuthenticating,
	},
	domain.StateHeld: {
		domain.EvInitialize:       domain.StateInitialize,
		domain.EvHeldTimerExpired: domain.StateUnauthenticated,
	},
	domain.StateUnauthenticated: {
		domain.EvInitialize:           domain.StateInitialize,
		domain.EvStartAuthenticate:    domain.StateUnauthenticated,
		domain.EvAuthSuccess:          domain.StateAuthenticated,
		domain.EvNotSuccessNextMethod: domain.StateAuthenticating,
	},
}

// Deps bundles the FSM's external collaborators.
type Deps struct {
	Platform ports.PlatformConfig
	Timer    ports.AppTimer
	// Methods maps an AuthMethod to the plugin driving its protocol.
	Methods map[domain.AuthMethod]ports.MethodPlugin
	// Authorize runs the client-add dataplane fan-out (spec.md section
	// 4.10: static FDB entry, unblock, VLAN membership, PVID) on entry to
	// Authenticated. It is called before LogicalPortStatus flips to
	// Authorized, so it can still observe the pre-authorization state.
	Authorize func(port *domain.Port, lp *domain.LogicalPort)
	// Disconnect tears down a fully-expired held client (held_expired:
	// free the logical port, stop accounting); may be nil.
	Disconnect func(port *domain.Port, lp *domain.LogicalPort)
	// Redispatch is called by timer-fired callbacks on expiry. It must
	// not mutate the logical port itself (spec.md section 9,
	// "timer-wheel callbacks post, not mutate") — it posts the
	// (key, timerType) pair so the caller can look the logical port up
	// under the write lock, set the Protocol boolean the timer type
	// implies, and re-enter Dispatch with domain.NoEvent.
	Redispatch func(key domain.LogicalPortKey, timerType domain.TimerType)
	// OnTransition, if set, is called after every state change with the
	// old and new state. It runs under the caller's write lock, so it
	// must not block or re-enter the machine; may be nil.
	OnTransition func(domain.TransitionEvent)
}

// Machine runs state actions and the event generator over a LogicalPort.
type Machine struct {
	deps Deps
}

// New returns a Machine bound to deps.
func New(deps Deps) *Machine {
	return &Machine{deps: deps}
}

// Dispatch applies event to lp in the context of its owning port: looks
// up the transition, runs the target state's action, then runs the event
// generator and feeds whatever event it yields back through the same
// classify-act-generate cycle, until the generator yields domain.NoEvent.
// Passing domain.NoEvent as event skips straight to the generator, which
// is how a caller re-enters the machine after flipping a Protocol flag
// outside of an explicit external event (e.g. a timer callback).
func (m *Machine) Dispatch(port *domain.Port, lp *domain.LogicalPort, event domain.SmEvent) {
	for {
		if event == domain.NoEvent {
			event = m.generateEvent(port, lp)
			if event == domain.NoEvent {
				return
			}
			continue
		}
		next, ok := transitions[lp.Protocol.State][event]
		if !ok {
			return
		}
		prev := lp.Protocol.State
		lp.Protocol.State = next
		m.runStateAction(port, lp)
		if m.deps.OnTransition != nil && prev != next {
			m.deps.OnTransition(domain.TransitionEvent{
				Key:      lp.Key,
				PhysPort: lp.PhysPort,
				MAC:      lp.Client.MAC,
				From:     prev,
				To:       next,
			})
		}
		event = domain.NoEvent
	}
}

func (m *Machine) runStateAction(port *domain.Port, lp *domain.LogicalPort) {
	switch lp.Protocol.State {
	case domain.StateInitialize:
		m.actionInitialize(lp)
	case domain.StateAuthenticating:
		m.actionAuthenticating(port, lp)
	case domain.StateAuthenticated:
		m.actionAuthenticated(port, lp)
	case domain.StateHeld:
		m.actionHeld(port, lp)
	case domain.StateUnauthenticated:
		m.actionUnauthenticated(port, lp)
	}
}

func (m *Machine) actionInitialize(lp *domain.LogicalPort) {
	lp.Client.ExecutedMethods = nil
}

func (m *Machine) actionAuthenticating(port *domain.Port, lp *domain.LogicalPort) {
	lp.Protocol.AuthFail = false
	lp.Protocol.AuthTimeout = false
	lp.Protocol.AuthSuccess = false

	if lp.Protocol.AuthenticatedRcvdStart {
		lp.Protocol.AuthenticatedRcvdStart = false
		lp.Client.CurrentMethod = lp.Client.AuthenticatedMethod
		return
	}

	plugin, ok := m.deps.Methods[lp.Client.CurrentMethod]
	if !ok || plugin == nil {
		return
	}
	if res := plugin.EventNotify(lp.Key, lp.Client.MAC, domain.MethodEvAuthStart); res == domain.Success {
		m.armMethodNoResp(lp)
	}
}

func (m *Machine) actionAuthenticated(port *domain.Port, lp *domain.LogicalPort) {
	wasAuthorized := lp.Client.LogicalPortStatus == domain.StatusAuthorized

	if m.deps.Authorize != nil {
		m.deps.Authorize(port, lp)
	}

	lp.Client.LogicalPortStatus = domain.StatusAuthorized
	lp.Client.LastAuthTime = time.Now()
	if !wasAuthorized {
		lp.Client.SessionStartTime = lp.Client.LastAuthTime
		port.AuthCount++
		telemetry.ClientsAuthenticated.WithLabelValues(port.Ifname, lp.Client.CurrentMethod.String()).Inc()
		telemetry.ClientsActive.WithLabelValues(port.Ifname).Inc()
	}

	if port.ReauthEnabled {
		period := port.ReauthPeriod
		if port.ReauthPeriodFromServer && lp.Client.SessionTimeout > 0 {
			period = lp.Client.SessionTimeout
		}
		if period > 0 {
			lp.Timer = m.startTimer(lp.Key, domain.TimerReauthWhen, time.Duration(period)*time.Second)
		}
	}

	lp.Protocol.Reauth = false
	lp.Protocol.AuthFail = false
	lp.Protocol.AuthTimeout = false
	lp.Protocol.AuthSuccess = false
}

func (m *Machine) actionHeld(port *domain.Port, lp *domain.LogicalPort) {
	plugin, ok := m.deps.Methods[lp.Client.CurrentMethod]
	if ok && plugin != nil {
		_ = plugin.EventNotify(lp.Key, lp.Client.MAC, domain.MethodEvAbortAndRestart)
	}
	telemetry.ClientsRejected.WithLabelValues(port.Ifname, lp.Client.CurrentMethod.String()).Inc()
	lp.Timer = m.startTimer(lp.Key, domain.TimerQuietWhile, time.Duration(port.QuietPeriod)*time.Second)
}

func (m *Machine) actionUnauthenticated(port *domain.Port, lp *domain.LogicalPort) {
	if lp.Protocol.Reauth && lp.Protocol.AuthFail {
		lp.Protocol.Reauth = false
	}

	alreadyAuthorized := lp.Client.LogicalPortStatus == domain.StatusAuthorized
	reauthInProgress := lp.Protocol.Reauth && alreadyAuthorized
	if (alreadyAuthorized && !reauthInProgress) || lp.Protocol.HeldExpired {
		_ = m.deps.Platform.ClientRemove(port.Ifname, lp.Client.MAC, lp.Client.VlanID)
		if alreadyAuthorized {
			port.AuthCount--
			telemetry.ClientsActive.WithLabelValues(port.Ifname).Dec()
		}
		lp.Client.LogicalPortStatus = domain.StatusUnauthorized
	}
}

// generateEvent implements the spec.md section 4.8 event generator.
func (m *Machine) generateEvent(port *domain.Port, lp *domain.LogicalPort) domain.SmEvent {
	switch lp.Protocol.State {
	case domain.StateInitialize:
		if port.PortEnabled {
			return domain.EvStartAuthenticate
		}
		return domain.NoEvent

	case domain.StateUnauthenticated:
		switch {
		case lp.Protocol.AuthSuccess:
			return domain.EvAuthSuccess
		case lp.Protocol.HeldExpired:
			if m.deps.Disconnect != nil {
				m.deps.Disconnect(port, lp)
			}
			lp.Client.CurrentMethod = domain.MethodNone
			return domain.NoEvent
		case lp.Protocol.Authenticate:
			if next, ok := nextEnabledMethod(port, lp); ok {
				lp.Client.CurrentMethod = next
				return domain.EvNotSuccessNextMethod
			}
			return domain.NoEvent
		}
		return domain.NoEvent

	case domain.StateAuthenticating:
		// On a reauth cycle, a method that hasn't reported anything yet
		// just waits, and a failure against an already-authenticated
		// method short-circuits straight to held without trying other
		// methods. Neither check applies to a first-time authentication.
		if lp.Protocol.Reauth {
			switch {
			case allResultBooleansClear(lp):
				return domain.NoEvent
			case lp.Protocol.AuthFail && lp.Client.AuthenticatedMethod != domain.MethodNone:
				return domain.EvNotSuccessNoNextMethod
			}
		}
		switch {
		case lp.Protocol.Unauthenticate:
			return domain.EvStopAuthenticate
		case lp.Protocol.AuthSuccess:
			return domain.EvAuthSuccess
		case lp.Protocol.AuthFail || lp.Protocol.AuthTimeout:
			lp.Client.AddExecutedMethod(lp.Client.CurrentMethod)
			if next, ok := nextEnabledMethod(port, lp); ok {
				lp.Client.CurrentMethod = next
				return domain.EvNotSuccessNextMethod
			}
			return domain.EvNotSuccessNoNextMethod
		}
		return domain.NoEvent

	case domain.StateHeld:
		if lp.Protocol.HeldExpired {
			return domain.EvHeldTimerExpired
		}
		return domain.NoEvent

	case domain.StateAuthenticated:
		switch {
		case lp.Protocol.AuthSuccess:
			return domain.EvAuthSuccess
		case lp.Protocol.Unauthenticate:
			return domain.EvStopAuthenticate
		case lp.Protocol.AuthenticatedRcvdStart:
			lp.Protocol.AuthenticatedRcvdStart = false
			lp.Protocol.Reauth = true
			return domain.NoEvent
		case lp.Protocol.Reauth:
			return domain.EvReauthenticate
		}
		return domain.NoEvent
	}
	return domain.NoEvent
}

// ApplyTimerExpiry sets the Protocol boolean implied by an expired timer
// of timerType, for a caller that received one through Deps.Redispatch.
// The caller must follow this with Dispatch(port, lp, domain.NoEvent) so
// the event generator can act on the boolean under the write lock.
func ApplyTimerExpiry(lp *domain.LogicalPort, timerType domain.TimerType) {
	switch timerType {
	case domain.TimerQuietWhile:
		lp.Protocol.HeldExpired = true
	case domain.TimerReauthWhen:
		lp.Protocol.Reauth = true
	case domain.TimerMethodNoResp:
		lp.Protocol.AuthTimeout = true
	}
}

func allResultBooleansClear(lp *domain.LogicalPort) bool {
	return !lp.Protocol.AuthFail && !lp.Protocol.AuthTimeout && !lp.Protocol.AuthSuccess &&
		!lp.Protocol.Unauthenticate
}

func (m *Machine) armMethodNoResp(lp *domain.LogicalPort) {
	key := lp.Key
	lp.MethodNoResp = m.deps.Timer.Start(key, domain.TimerMethodNoResp, serverAwhile, func(domain.LogicalPortKey, domain.TimerType) {
		if m.deps.Redispatch != nil {
			m.deps.Redispatch(key, domain.TimerMethodNoResp)
		}
	})
}

func (m *Machine) startTimer(key domain.LogicalPortKey, timerType domain.TimerType, d time.Duration) domain.ArmedTimer {
	return m.deps.Timer.Start(key, timerType, d, func(domain.LogicalPortKey, domain.TimerType) {
		if m.deps.Redispatch != nil {
			m.deps.Redispatch(key, timerType)
		}
	})
}

// nextEnabledMethod picks the highest-priority enabled method not yet
// attempted for this authentication cycle (spec.md section 4.8).
func nextEnabledMethod(port *domain.Port, lp *domain.LogicalPort) (domain.AuthMethod, bool) {
	for _, method := range port.EnabledPriority {
		executed := false
		for _, e := range lp.Client.ExecutedMethods {
			if e == method {
				executed = true
				break
			}
		}
		if !executed {
			return method, true
		}
	}
	return domain.MethodNone, false
}
