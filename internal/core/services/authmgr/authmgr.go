// Package authmgr implements the orchestrator (spec.md section 4.10): it
// owns the physical-port table, wires the FSM's Platform/VLAN/timer
// collaborators together, and exposes the admin/operational control
// surface described in spec.md section 6. Every mutating operation takes
// the single writer-preferring lock before touching port or logical-port
// state, matching the "AuthMgr worker... under its single RW-lock write
// guard" scheduling model in spec.md section 5.
package authmgr

import (
	"log/slog"
	"time"

	"github.com/sonic-net/sonic-pacd/internal/core/domain"
	"github.com/sonic-net/sonic-pacd/internal/core/ports"
	"github.com/sonic-net/sonic-pacd/internal/core/services/fsm"
	"github.com/sonic-net/sonic-pacd/internal/core/services/lock"
)

// Deps bundles AuthMgr's collaborators.
type Deps struct {
	Registry  ports.LogicalPortRegistry
	MacIndex  ports.MacIndex
	VlanCache ports.VlanCache
	Platform  ports.PlatformConfig
	Timer     ports.AppTimer
	Bus       ports.MessageBus
	Methods   map[domain.AuthMethod]ports.MethodPlugin
	Logger    *slog.Logger
	// OnTransition, if set, is notified of every client FSM state change;
	// wired to the live WebSocket feed and telemetry. May be nil.
	OnTransition func(domain.TransitionEvent)
}

// AuthMgr is the orchestrator. It is safe for concurrent use; every
// exported method that mutates port or logical-port state acquires the
// write lock internally.
type AuthMgr struct {
	deps Deps
	fsm  *fsm.Machine
	lock *lock.RWLock
	log  *slog.Logger

	ports map[uint32]*domain.Port
	admin bool
}

// New returns an AuthMgr wired to deps, with admin mode initially disabled.
func New(deps Deps) *AuthMgr {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	a := &AuthMgr{
		deps:  deps,
		lock:  lock.New(),
		log:   deps.Logger,
		ports: make(map[uint32]*domain.Port),
	}
	a.fsm = fsm.New(fsm.Deps{
		Platform:     deps.Platform,
		Timer:        deps.Timer,
		Methods:      deps.Methods,
		Authorize:    a.authorize,
		Disconnect:   a.disconnect,
		Redispatch:   a.Redispatch,
		OnTransition: deps.OnTransition,
	})
	return a
}

// RegisterPort seeds the port table for physPort with defaults, ready for
// subsequent admin-surface setters. Called once per physical interface
// during NIM enumeration/startup, under the write lock (waiting for it
// without a timeout).
func (a *AuthMgr) RegisterPort(physPort uint32, ifname string, ifIndex uint32) {
	a.lock.WriteLock(0)
	defer a.lock.WriteUnlock()
	port := domain.NewPort(physPort)
	port.Ifname = ifname
	port.IfIndex = ifIndex
	a.ports[physPort] = port
	a.deps.Registry.SetMaxUsers(physPort, port.MaxUsers)
}

func (a *AuthMgr) port(physPort uint32) (*domain.Port, domain.Result) {
	port, ok := a.ports[physPort]
	if !ok {
		return nil, domain.NotExist
	}
	return port, domain.Success
}

// AdminModeSet toggles the orchestrator on/off (spec.md section 4.10).
// Disabling tears down every client on every configured port.
func (a *AuthMgr) AdminModeSet(enabled bool) domain.Result {
	if !a.lock.WriteLock(domain.WriteLockTimeout) {
		return domain.Busy
	}
	defer a.lock.WriteUnlock()

	if a.admin == enabled {
		return domain.Success
	}
	a.admin = enabled
	if !enabled {
		for _, port := range a.ports {
			a.dropPortClients(port)
		}
	}
	return domain.Success
}

// LinkStateChange applies a physical link transition reported by the
// interface manager (spec.md section 6, EvtInterfaceChange/
// EvtInterfaceStartup): bringing a port up lets its event generator start
// authenticating any Initialize-stuck client; bringing it down drops
// every client on it.
func (a *AuthMgr) LinkStateChange(physPort uint32, up bool) domain.Result {
	if !a.lock.WriteLock(domain.WriteLockTimeout) {
		return domain.Busy
	}
	defer a.lock.WriteUnlock()

	port, res := a.port(physPort)
	if !res.OK() {
		return res
	}
	if port.PortEnabled == up {
		return domain.Success
	}
	port.PortEnabled = up
	if !up {
		a.dropPortClients(port)
		return domain.Success
	}
	a.forEachClient(port, func(lp *domain.LogicalPort) {
		a.fsm.Dispatch(port, lp, domain.NoEvent)
	})
	return domain.Success
}

// PortInit drops all clients on physPort and reapplies its configuration
// (spec.md section 4.10).
func (a *AuthMgr) PortInit(physPort uint32) domain.Result {
	if !a.lock.WriteLock(domain.WriteLockTimeout) {
		return domain.Busy
	}
	defer a.lock.WriteUnlock()

	port, res := a.port(physPort)
	if !res.OK() {
		return res
	}
	a.dropPortClients(port)
	return domain.Success
}

// PortReauthenticate sets reauth on every Authorized client of physPort
// and lets the FSM's event generator emit Reauthenticate for each (spec.md
// section 4.10).
func (a *AuthMgr) PortReauthenticate(physPort uint32) domain.Result {
	if !a.lock.WriteLock(domain.WriteLockTimeout) {
		return domain.Busy
	}
	defer a.lock.WriteUnlock()

	port, res := a.port(physPort)
	if !res.OK() {
		return res
	}
	a.forEachClient(port, func(lp *domain.LogicalPort) {
		if lp.Client.LogicalPortStatus == domain.StatusAuthorized {
			lp.Protocol.Reauth = true
			a.fsm.Dispatch(port, lp, domain.NoEvent)
		}
	})
	return domain.Success
}

// PortControlModeSet implements spec.md section 4.10's mode transition:
// cleaning existing client state on any change, then arming the mode's
// steady-state policy (Auto: normal dynamic allocation; ForceAuth: release
// the port to the VLAN cache and install one synthetic Authorized client;
// ForceUnauth: acquire the port and install one synthetic Unauthorized
// client).
func (a *AuthMgr) PortControlModeSet(physPort uint32, mode domain.PortControlMode) domain.Result {
	if !a.lock.WriteLock(domain.WriteLockTimeout) {
		return domain.Busy
	}
	defer a.lock.WriteUnlock()

	port, res := a.port(physPort)
	if !res.OK() {
		return res
	}
	if port.PaeCapability != domain.PaeAuthCapable {
		return domain.RequestDenied
	}
	if port.PortControlMode == mode {
		return domain.Success
	}

	a.dropPortClients(port)
	port.PortControlMode = mode

	switch mode {
	case domain.PortControlAuto:
		port.HostMode = domain.HostModeInvalid
	case domain.PortControlForceAuth:
		port.HostMode = domain.HostModeInvalid
		if a.deps.VlanCache != nil {
			_ = a.deps.VlanCache.ReleasePort(port.Ifname)
		}
		_ = a.deps.Platform.PortPVIDSet(port.Ifname, 0)
		port.PVID = 0
		key, cres := a.deps.Registry.CreateSynthetic(physPort)
		if cres.OK() {
			lp, _ := a.deps.Registry.Get(key)
			lp.Client.LogicalPortStatus = domain.StatusAuthorized
			port.AuthCount = 1
			port.NumUsers = 1
		}
	case domain.PortControlForceUnauth:
		port.HostMode = domain.HostModeInvalid
		if a.deps.VlanCache != nil {
			_ = a.deps.VlanCache.AcquirePort(port.Ifname)
		}
		if _, cres := a.deps.Registry.CreateSynthetic(physPort); cres.OK() {
			port.NumUsers = 1
		}
	}
	return domain.Success
}

// HostModeSet is only valid under Auto control mode (spec.md section
// 4.10): it rebuilds the enabled-method arrays, resets existing clients,
// and installs the new host-mode policy.
func (a *AuthMgr) HostModeSet(physPort uint32, mode domain.HostMode) domain.Result {
	if !a.lock.WriteLock(domain.WriteLockTimeout) {
		return domain.Busy
	}
	defer a.lock.WriteUnlock()

	port, res := a.port(physPort)
	if !res.OK() {
		return res
	}
	if port.PortControlMode != domain.PortControlAuto {
		return domain.RequestDenied
	}
	if port.HostMode == mode {
		return domain.Success
	}
	a.dropPortClients(port)
	port.HostMode = mode
	a.rebuildEnabledMethods(port)
	return domain.Success
}

// MaxUsersSet applies under MultiAuth only; shrinking below the current
// client count cleans the port and reapplies (spec.md section 4.10).
func (a *AuthMgr) MaxUsersSet(physPort uint32, n int) domain.Result {
	if !a.lock.WriteLock(domain.WriteLockTimeout) {
		return domain.Busy
	}
	defer a.lock.WriteUnlock()

	port, res := a.port(physPort)
	if !res.OK() {
		return res
	}
	if port.HostMode != domain.HostModeMultiAuth {
		return domain.RequestDenied
	}
	if n <= 0 || n > domain.MaxUsersPerPort {
		return domain.InvalidParameter
	}
	if n < port.NumUsers {
		a.dropPortClients(port)
	}
	port.MaxUsers = n
	a.deps.Registry.SetMaxUsers(physPort, n)
	return domain.Success
}

// QuietPeriodSet updates the quiet-period configuration; a Held client's
// already-armed QuietWhile timer keeps its original duration, matching
// the original's "value only applies to future holds" behaviour.
func (a *AuthMgr) QuietPeriodSet(physPort uint32, seconds int) domain.Result {
	if !a.lock.WriteLock(domain.WriteLockTimeout) {
		return domain.Busy
	}
	defer a.lock.WriteUnlock()

	port, res := a.port(physPort)
	if !res.OK() {
		return res
	}
	if seconds < 0 {
		return domain.InvalidParameter
	}
	port.QuietPeriod = seconds
	return domain.Success
}

// ReauthPeriodSet updates the reauthentication interval and restarts the
// ReauthWhen timer on every currently Authorized client (spec.md section
// 4.10).
func (a *AuthMgr) ReauthPeriodSet(physPort uint32, seconds int) domain.Result {
	if !a.lock.WriteLock(domain.WriteLockTimeout) {
		return domain.Busy
	}
	defer a.lock.WriteUnlock()

	port, res := a.port(physPort)
	if !res.OK() {
		return res
	}
	if seconds < 0 {
		return domain.InvalidParameter
	}
	port.ReauthPeriod = seconds
	a.restartReauthTimers(port)
	return domain.Success
}

// ReauthEnabledSet toggles whether Authenticated clients get a ReauthWhen
// timer at all (spec.md section 4.10).
func (a *AuthMgr) ReauthEnabledSet(physPort uint32, enabled bool) domain.Result {
	if !a.lock.WriteLock(domain.WriteLockTimeout) {
		return domain.Busy
	}
	defer a.lock.WriteUnlock()

	port, res := a.port(physPort)
	if !res.OK() {
		return res
	}
	port.ReauthEnabled = enabled
	a.restartReauthTimers(port)
	return domain.Success
}

func (a *AuthMgr) restartReauthTimers(port *domain.Port) {
	a.forEachClient(port, func(lp *domain.LogicalPort) {
		if lp.Client.LogicalPortStatus != domain.StatusAuthorized {
			return
		}
		a.deps.Timer.Stop(lp.Timer)
		if !port.ReauthEnabled || port.ReauthPeriod <= 0 {
			lp.Timer = domain.ArmedTimer{}
			return
		}
		period := port.ReauthPeriod
		if port.ReauthPeriodFromServer && lp.Client.SessionTimeout > 0 {
			period = lp.Client.SessionTimeout
		}
		key := lp.Key
		lp.Timer = a.deps.Timer.Start(key, domain.TimerReauthWhen, time.Duration(period)*time.Second,
			func(domain.LogicalPortKey, domain.TimerType) {
				a.Redispatch(key, domain.TimerReauthWhen)
			})
	})
}

// PaeCapabilitiesSet toggles whether physPort participates in PAC at all;
// AuthCapable -> None cleans all clients, the reverse reapplies (spec.md
// section 4.10).
func (a *AuthMgr) PaeCapabilitiesSet(physPort uint32, cap domain.PaeCapability) domain.Result {
	if !a.lock.WriteLock(domain.WriteLockTimeout) {
		return domain.Busy
	}
	defer a.lock.WriteUnlock()

	port, res := a.port(physPort)
	if !res.OK() {
		return res
	}
	if port.PaeCapability == cap {
		return domain.Success
	}
	if port.PaeCapability == domain.PaeAuthCapable && cap == domain.PaeNone {
		a.dropPortClients(port)
	}
	port.PaeCapability = cap
	return domain.Success
}

// MethodOrderModify recomputes the enabled-method array from
// configuredMethods, filtered by each plugin's EnableGet; methods dropped
// from the enabled set have their clients torn down (spec.md section
// 4.10).
func (a *AuthMgr) MethodOrderModify(physPort uint32, configuredMethods []domain.AuthMethod) domain.Result {
	if !a.lock.WriteLock(domain.WriteLockTimeout) {
		return domain.Busy
	}
	defer a.lock.WriteUnlock()

	port, res := a.port(physPort)
	if !res.OK() {
		return res
	}
	port.ConfiguredMethods = append([]domain.AuthMethod(nil), configuredMethods...)
	return a.applyMethodChange(port)
}

// MethodPriorityModify replaces enabled_priority[] with priority as given
// (spec.md section 4.10). Unlike MethodOrderModify it does not filter the
// list through each plugin's EnableGet and tears down no clients.
func (a *AuthMgr) MethodPriorityModify(physPort uint32, priority []domain.AuthMethod) domain.Result {
	if !a.lock.WriteLock(domain.WriteLockTimeout) {
		return domain.Busy
	}
	defer a.lock.WriteUnlock()

	port, res := a.port(physPort)
	if !res.OK() {
		return res
	}
	port.EnabledPriority = append([]domain.AuthMethod(nil), priority...)
	return domain.Success
}

func (a *AuthMgr) applyMethodChange(port *domain.Port) domain.Result {
	previouslyEnabled := make(map[domain.AuthMethod]bool, len(port.EnabledMethods))
	for _, m := range port.EnabledMethods {
		previouslyEnabled[m] = true
	}

	a.rebuildEnabledMethods(port)

	stillEnabled := make(map[domain.AuthMethod]bool, len(port.EnabledMethods))
	for _, m := range port.EnabledMethods {
		stillEnabled[m] = true
	}

	dropped := make(map[domain.AuthMethod]bool)
	for m := range previouslyEnabled {
		if !stillEnabled[m] {
			dropped[m] = true
		}
	}
	if len(dropped) == 0 {
		return domain.Success
	}

	a.forEachClient(port, func(lp *domain.LogicalPort) {
		if dropped[lp.Client.AuthenticatedMethod] {
			_ = a.teardownClient(port, lp.Key)
		}
	})
	return domain.Success
}

// rebuildEnabledMethods filters port.ConfiguredMethods through each
// plugin's EnableGet (spec.md section 4.8, "method arbitration"). The
// write lock is released around the EnableGet callout per spec.md
// section 9, "release lock around callouts".
func (a *AuthMgr) rebuildEnabledMethods(port *domain.Port) {
	configured := append([]domain.AuthMethod(nil), port.ConfiguredMethods...)
	physPort := port.PhysPort
	methods := a.deps.Methods

	a.lock.WriteUnlock()
	var enabled []domain.AuthMethod
	for _, m := range configured {
		plugin, ok := methods[m]
		if !ok || plugin == nil {
			continue
		}
		if on, _ := plugin.EnableGet(physPort); on {
			enabled = append(enabled, m)
		}
	}
	a.lock.WriteLock(0)

	port.EnabledMethods = enabled
	if len(port.EnabledPriority) == 0 {
		port.EnabledPriority = enabled
	}
}

// forEachClient visits every logical port currently allocated on port.
func (a *AuthMgr) forEachClient(port *domain.Port, fn func(lp *domain.LogicalPort)) {
	cursor, res := a.deps.Registry.FirstPort(port.PhysPort)
	for res.OK() {
		next, nres := a.deps.Registry.NextPort(cursor)
		if lp, gres := a.deps.Registry.Get(cursor); gres.OK() {
			fn(lp)
		}
		cursor, res = next, nres
	}
}

// dropPortClients tears down every logical port on port, releasing each
// one's VLAN membership if it was the last authorized reference (spec.md
// section 4.10, "drop all clients on port").
func (a *AuthMgr) dropPortClients(port *domain.Port) {
	var keys []domain.LogicalPortKey
	a.forEachClient(port, func(lp *domain.LogicalPort) { keys = append(keys, lp.Key) })

	for _, key := range keys {
		lp, res := a.deps.Registry.Get(key)
		if !res.OK() {
			continue
		}
		vlan := lp.Client.VlanID
		wasAuthorized := lp.Client.LogicalPortStatus == domain.StatusAuthorized
		canReleaseVlan := wasAuthorized && domain.ValidVlanID(vlan) &&
			a.validateVlanPortDeletion(port, lp, vlan).OK()
		// validateVlanPortDeletion leaves VlanID cleared on success; teardown
		// removes the FDB entry against the VLAN it was installed in.
		lp.Client.VlanID = vlan

		_ = a.teardownClient(port, key)

		if canReleaseVlan {
			_ = a.deps.Platform.VlanMemberRemove(vlan, port.Ifname)
			if a.deps.VlanCache != nil {
				_ = a.deps.VlanCache.PortVlanDelete(vlan, port.Ifname)
			}
		}
	}
	port.NumUsers = 0
	port.AuthCount = 0
}

// teardownClient unconditionally removes a logical port's dataplane
// installation and frees it from the registry/MAC index. Callers that
// would otherwise replace a client's VLAN assignment in place (rather
// than disconnect it outright) should consult clientInfoCleanupCheck
// first and skip calling this at all when it reports no cleanup is
// needed (spec.md section 9) — teardownClient itself always tears down.
func (a *AuthMgr) teardownClient(port *domain.Port, key domain.LogicalPortKey) domain.Result {
	lp, res := a.deps.Registry.Get(key)
	if !res.OK() {
		return res
	}

	if lp.Client.LogicalPortStatus == domain.StatusAuthorized {
		_ = a.deps.Platform.ClientRemove(port.Ifname, lp.Client.MAC, lp.Client.VlanID)
		port.AuthCount--
	}
	if lp.Client.AttrCreateMask != 0 {
		a.cleanupAttrs(port, lp, lp.Client.AttrCreateMask, port.PVID)
	}
	if plugin, ok := a.deps.Methods[lp.Client.CurrentMethod]; ok && plugin != nil {
		_ = plugin.EventNotify(lp.Key, lp.Client.MAC, domain.MethodEvDisconnect)
	}

	a.deps.MacIndex.Unbind(lp.Client.MAC)
	_ = a.deps.Registry.Delete(key)
	port.NumUsers = a.deps.Registry.Count(port.PhysPort)
	return domain.Success
}

// disconnect implements fsm.Deps.Disconnect: a client whose Held/quiet
// period has fully expired is freed from the registry (spec.md section
// 4.8, event generator's Unauthenticated/held_expired branch).
func (a *AuthMgr) disconnect(port *domain.Port, lp *domain.LogicalPort) {
	a.deps.MacIndex.Unbind(lp.Client.MAC)
	_ = a.deps.Registry.Delete(lp.Key)
	port.NumUsers = a.deps.Registry.Count(port.PhysPort)
}

// MacSeen is the client-learn entry point (spec.md section 3
// "Lifecycle"): a MAC address observed on physPort via method drives
// logical-port allocation, roaming teardown (section 8 scenario 4), or
// method-priority preemption (section 8 scenario 6).
func (a *AuthMgr) MacSeen(physPort uint32, mac domain.MACAddr, method domain.AuthMethod) domain.Result {
	if mac.IsZero() {
		return domain.InvalidParameter
	}
	if !a.lock.WriteLock(domain.WriteLockTimeout) {
		return domain.Busy
	}
	defer a.lock.WriteUnlock()

	if !a.admin {
		return domain.RequestDenied
	}
	port, res := a.port(physPort)
	if !res.OK() {
		return res
	}
	if !port.AllowsDynamicAllocation() {
		return domain.RequestDenied
	}

	if prevKey, had := a.deps.MacIndex.Lookup(mac); had {
		if prevKey.PhysPort() == physPort {
			return a.macSeenSamePort(port, prevKey, method)
		}
		a.teardownRoamed(prevKey)
	}

	key, res := a.deps.Registry.Create(physPort, mac)
	if !res.OK() {
		return res
	}
	a.deps.MacIndex.Bind(mac, key)

	lp, _ := a.deps.Registry.Get(key)
	lp.Client.CurrentMethod = method
	lp.Protocol.Authenticate = true
	port.NumUsers = a.deps.Registry.Count(physPort)

	a.fsm.Dispatch(port, lp, domain.EvInitialize)
	return domain.Success
}

func (a *AuthMgr) teardownRoamed(prevKey domain.LogicalPortKey) {
	prevPort, ok := a.ports[prevKey.PhysPort()]
	if !ok {
		return
	}
	_ = a.teardownClient(prevPort, prevKey)
}

// macSeenSamePort handles a MAC re-seen on the physical port it already
// owns a logical port on (spec.md section 8 scenario 3: "during held, no
// new access-request issued"; scenario 6: reauth preemption).
func (a *AuthMgr) macSeenSamePort(port *domain.Port, key domain.LogicalPortKey, method domain.AuthMethod) domain.Result {
	lp, res := a.deps.Registry.Get(key)
	if !res.OK() {
		return res
	}
	if lp.Client.LogicalPortStatus != domain.StatusAuthorized {
		// Authenticating, Held, or mid-reauth: the existing cycle owns
		// this client, nothing to kick off.
		return domain.Success
	}
	if method == lp.Client.AuthenticatedMethod {
		return domain.Success
	}

	curIdx := port.MethodIndex(lp.Client.AuthenticatedMethod)
	newIdx := port.MethodIndex(method)
	if newIdx < 0 || (curIdx >= 0 && newIdx >= curIdx) {
		// Equal or lower priority than the authenticated method is
		// ignored while already Authorized (spec.md section 4.8).
		return domain.Success
	}

	lp.Client.CurrentMethod = method
	a.fsm.Dispatch(port, lp, domain.EvHigherMethodAdded)
	return domain.Success
}

// HandleMethodResult implements mab.AuthResultFunc (and is the shape any
// 802.1X plugin's result callback must match too): a method plugin hands
// back the outcome of its protocol round for a logical port.
func (a *AuthMgr) HandleMethodResult(key domain.LogicalPortKey, event domain.SmEvent, attrs ports.RadiusAttrs) {
	if event == domain.NoEvent {
		// Access-Challenge: multi-round EAP continues, no FSM transition.
		return
	}
	if !a.lock.WriteLock(domain.WriteLockTimeout) {
		return
	}
	defer a.lock.WriteUnlock()

	port, ok := a.ports[key.PhysPort()]
	if !ok {
		return
	}
	lp, res := a.deps.Registry.Get(key)
	if !res.OK() {
		return
	}

	applyRadiusAttrs(lp, event, attrs)

	if lp.Protocol.State == domain.StateAuthenticating {
		// transitions[StateAuthenticating] has no entry for a raw
		// EvAuthFail (only the generator's inferred NotSuccess*
		// events), so first-time authentication sets the Protocol
		// boolean and lets the event generator pick the right one.
		switch event {
		case domain.EvAuthSuccess:
			lp.Protocol.AuthSuccess = true
			lp.Client.AuthenticatedMethod = lp.Client.CurrentMethod
		default:
			lp.Protocol.AuthFail = true
			lp.Client.AddExecutedMethod(lp.Client.CurrentMethod)
		}
		a.fsm.Dispatch(port, lp, domain.NoEvent)
		return
	}

	// Authenticated (a reauth cycle): transitions[StateAuthenticated]
	// has direct entries for both EvAuthSuccess and EvAuthFail, so the
	// raw event can be dispatched straight through.
	a.fsm.Dispatch(port, lp, event)
}

func applyRadiusAttrs(lp *domain.LogicalPort, event domain.SmEvent, attrs ports.RadiusAttrs) {
	if event != domain.EvAuthSuccess {
		return
	}
	client := &lp.Client
	client.ServerState = attrs.State
	client.ServerClass = attrs.Class
	if attrs.HaveSessionTimeout {
		client.SessionTimeout = attrs.SessionTimeout
		client.TerminationAction = attrs.TerminationAction
	}
	if attrs.HaveTunnelVlan && domain.ValidVlanID(attrs.TunnelVlanID) {
		client.VlanID = attrs.TunnelVlanID
		client.VlanType = domain.VlanTypeRadius
	} else {
		client.VlanType = domain.VlanTypeDefault
	}
}

// Redispatch implements fsm.Deps.Redispatch. Timer callbacks run on the
// timer wheel's own goroutine and must not touch the registry directly
// (spec.md section 9, "timer-wheel callbacks post, not mutate"), so this
// only posts the (key, timerType) pair; the mutation happens in
// handleRedispatch under the write lock, invoked from the bus worker (or
// synchronously if no bus is configured, e.g. in tests).
func (a *AuthMgr) Redispatch(key domain.LogicalPortKey, timerType domain.TimerType) {
	if a.deps.Bus == nil {
		a.handleRedispatch(key, timerType)
		return
	}
	a.deps.Bus.Post(domain.BusEvent{
		Type:      domain.EvtFsmRedispatch,
		PhysPort:  key.PhysPort(),
		Key:       key,
		TimerType: timerType,
		Queue:     domain.QueueNormal,
	})
}

func (a *AuthMgr) handleRedispatch(key domain.LogicalPortKey, timerType domain.TimerType) {
	if !a.lock.WriteLock(domain.WriteLockTimeout) {
		return
	}
	defer a.lock.WriteUnlock()

	port, ok := a.ports[key.PhysPort()]
	if !ok {
		return
	}
	lp, res := a.deps.Registry.Get(key)
	if !res.OK() {
		return
	}
	fsm.ApplyTimerExpiry(lp, timerType)
	a.fsm.Dispatch(port, lp, domain.NoEvent)
}

// Run subscribes to the message bus and drains EvtFsmRedispatch and
// EvtClientTimeoutTick events until done is closed, mirroring the AuthMgr
// worker's "blocks on task_sync, drains in priority order" loop (spec.md
// section 5). It also runs the timer wheel's tick until done is closed. A
// background ticker posts EvtClientTimeoutTick every
// ClientTimeoutSweepPeriod, carrying forward the original's
// AUTHMGR_CLIENT_TIMEOUT sweep as a safety net independent of the
// per-client MethodNoResp timer.
func (a *AuthMgr) Run(done <-chan struct{}) {
	if a.deps.Bus == nil {
		return
	}
	go a.deps.Timer.Run(done)
	a.deps.Bus.Subscribe(func(evt domain.BusEvent) {
		switch evt.Type {
		case domain.EvtFsmRedispatch:
			a.handleRedispatch(evt.Key, evt.TimerType)
		case domain.EvtClientTimeoutTick:
			a.sweepClientTimeouts()
		}
	})
	go a.runTimeoutSweepTicker(done)
	a.deps.Bus.Run(done)
}

func (a *AuthMgr) runTimeoutSweepTicker(done <-chan struct{}) {
	ticker := time.NewTicker(domain.ClientTimeoutSweepPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			a.deps.Bus.Post(domain.BusEvent{Type: domain.EvtClientTimeoutTick, Queue: domain.QueueBulk})
		}
	}
}

// sweepClientTimeouts catches logical ports stuck in Authenticating whose
// MethodNoResp timer never got (re)armed — the periodic fallback the
// original authmgr_control.c runs independent of per-client timers
// (spec.md section 9 supplement, AUTHMGR_CLIENT_TIMEOUT).
func (a *AuthMgr) sweepClientTimeouts() {
	if !a.lock.WriteLock(domain.WriteLockTimeout) {
		return
	}
	defer a.lock.WriteUnlock()

	for _, port := range a.ports {
		a.forEachClient(port, func(lp *domain.LogicalPort) {
			if lp.Protocol.State == domain.StateAuthenticating && !lp.MethodNoResp.Armed {
				lp.Protocol.AuthTimeout = true
				a.fsm.Dispatch(port, lp, domain.NoEvent)
			}
		})
	}
}
