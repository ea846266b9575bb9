package authmgr

import (
	"testing"
	"time"

	"github.com/sonic-net/sonic-pacd/internal/core/domain"
	"github.com/sonic-net/sonic-pacd/internal/core/ports"
	"github.com/sonic-net/sonic-pacd/internal/core/services/registry"
	"github.com/sonic-net/sonic-pacd/internal/core/services/vlancache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePlatform struct {
	vlans map[int]bool
	pvid  map[string]int
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{vlans: make(map[int]bool), pvid: make(map[string]int)}
}

func (f *fakePlatform) ClientAdd(string, domain.MACAddr, int) domain.Result    { return domain.Success }
func (f *fakePlatform) ClientRemove(string, domain.MACAddr, int) domain.Result { return domain.Success }
func (f *fakePlatform) ClientBlock(string, domain.MACAddr, int) domain.Result  { return domain.Success }
func (f *fakePlatform) ClientUnblock(string, domain.MACAddr, int) domain.Result {
	return domain.Success
}
func (f *fakePlatform) PortPVIDSet(ifname string, pvid int) domain.Result {
	f.pvid[ifname] = pvid
	return domain.Success
}
func (f *fakePlatform) PortPVIDGet(ifname string) (int, domain.Result) {
	return f.pvid[ifname], domain.Success
}
func (f *fakePlatform) VlanMemberAdd(int, string, domain.TagMode) domain.Result { return domain.Success }
func (f *fakePlatform) VlanMemberRemove(int, string) domain.Result             { return domain.Success }
func (f *fakePlatform) VlanAdd(vlan int) domain.Result                         { f.vlans[vlan] = true; return domain.Success }
func (f *fakePlatform) VlanRemove(vlan int) domain.Result                      { delete(f.vlans, vlan); return domain.Success }
func (f *fakePlatform) InterfaceLearningModeSet(string, ports.LearningMode) domain.Result {
	return domain.Success
}
func (f *fakePlatform) InterfaceViolationPolicySet(string, bool) domain.Result { return domain.Success }
func (f *fakePlatform) InterfaceAcquireSet(string, bool) domain.Result         { return domain.Success }
func (f *fakePlatform) VlanSendCfgNotification(ports.NotificationKind, string, []ports.PortVlanSnapshot) domain.Result {
	return domain.Success
}

// fakeTimer runs synchronously: Start invokes nothing until Fire is called
// by the test, letting scenarios deterministically simulate expiry.
type fakeTimer struct {
	armed map[domain.LogicalPortKey]func()
}

func newFakeTimer() *fakeTimer { return &fakeTimer{armed: make(map[domain.LogicalPortKey]func())} }

func (t *fakeTimer) Start(key domain.LogicalPortKey, timerType domain.TimerType, d time.Duration, fn ports.TimerFunc) domain.ArmedTimer {
	t.armed[key] = func() { fn(key, timerType) }
	return domain.ArmedTimer{Type: timerType, Armed: true}
}
func (t *fakeTimer) Stop(domain.ArmedTimer)   {}
func (t *fakeTimer) Run(<-chan struct{})      {}
func (t *fakeTimer) Fire(key domain.LogicalPortKey) {
	if fn, ok := t.armed[key]; ok {
		fn()
	}
}

// fakeMethod is a directly-driven method plugin: tests call result
// callbacks themselves rather than running a real MAB/802.1X exchange.
type fakeMethod struct {
	method  domain.AuthMethod
	enabled bool
}

func (f *fakeMethod) Method() domain.AuthMethod { return f.method }
func (f *fakeMethod) EnableGet(uint32) (bool, domain.Result) {
	return f.enabled, domain.Success
}
func (f *fakeMethod) PortCtrl(uint32, domain.PortControlMode) domain.Result { return domain.Success }
func (f *fakeMethod) HostCtrl(uint32, domain.HostMode) domain.Result        { return domain.Success }
func (f *fakeMethod) EventNotify(domain.LogicalPortKey, domain.MACAddr, domain.MethodEvent) domain.Result {
	return domain.Success
}

func newTestMgr(t *testing.T) (*AuthMgr, *fakePlatform, *fakeTimer) {
	t.Helper()
	platform := newFakePlatform()
	timer := newFakeTimer()
	mgr := New(Deps{
		Registry:  registry.New(),
		MacIndex:  registry.NewMacIndex(),
		VlanCache: vlancache.New(platform),
		Platform:  platform,
		Timer:     timer,
		Methods: map[domain.AuthMethod]ports.MethodPlugin{
			domain.MethodMAB: &fakeMethod{method: domain.MethodMAB, enabled: true},
		},
	})
	require.Equal(t, domain.Success, mgr.AdminModeSet(true))
	mgr.RegisterPort(1, "Ethernet0", 1001)
	require.Equal(t, domain.Success, mgr.PortControlModeSet(1, domain.PortControlAuto))
	require.Equal(t, domain.Success, mgr.HostModeSet(1, domain.HostModeMultiAuth))
	require.Equal(t, domain.Success, mgr.MethodOrderModify(1, []domain.AuthMethod{domain.MethodMAB}))
	require.Equal(t, domain.Success, mgr.MethodPriorityModify(1, []domain.AuthMethod{domain.MethodMAB}))
	require.Equal(t, domain.Success, mgr.LinkStateChange(1, true))
	return mgr, platform, timer
}

func mustMAC(t *testing.T, s string) domain.MACAddr {
	t.Helper()
	mac, err := domain.ParseMAC(s)
	require.NoError(t, err)
	return mac
}

// scenario 1: MAB happy path with no RADIUS VLAN falls back to the port's
// configured default VLAN fallback chain; with neither, it keeps PVID.
func TestAuthMgr_MabHappyPathNoVlan(t *testing.T) {
	mgr, platform, _ := newTestMgr(t)
	mac := mustMAC(t, "00:11:22:33:44:55")

	require.Equal(t, domain.Success, mgr.MacSeen(1, mac, domain.MethodMAB))

	key, ok := mgr.deps.MacIndex.Lookup(mac)
	require.True(t, ok)
	lp, res := mgr.deps.Registry.Get(key)
	require.True(t, res.OK())
	assert.Equal(t, domain.StateAuthenticating, lp.Protocol.State)

	mgr.HandleMethodResult(key, domain.EvAuthSuccess, ports.RadiusAttrs{})

	lp, _ = mgr.deps.Registry.Get(key)
	assert.Equal(t, domain.StateAuthenticated, lp.Protocol.State)
	assert.Equal(t, domain.StatusAuthorized, lp.Client.LogicalPortStatus)
	assert.True(t, lp.Client.AttrCreateMask.Has(domain.AttrStaticFdb))
	assert.Equal(t, 0, platform.pvid["Ethernet0"])
}

// scenario 2: a RADIUS-assigned VLAN not yet known to the switch gets
// dynamically created and installed, and the first Authorized client on
// the port also gets the PVID set.
func TestAuthMgr_RadiusVlanAssignmentCreatesVlan(t *testing.T) {
	mgr, platform, _ := newTestMgr(t)
	mac := mustMAC(t, "aa:bb:cc:dd:ee:01")

	require.Equal(t, domain.Success, mgr.MacSeen(1, mac, domain.MethodMAB))
	key, _ := mgr.deps.MacIndex.Lookup(mac)

	mgr.HandleMethodResult(key, domain.EvAuthSuccess, ports.RadiusAttrs{
		HaveTunnelVlan: true,
		TunnelVlanID:   200,
	})

	lp, res := mgr.deps.Registry.Get(key)
	require.True(t, res.OK())
	assert.Equal(t, domain.StatusAuthorized, lp.Client.LogicalPortStatus)
	assert.Equal(t, 200, lp.Client.VlanID)
	assert.True(t, platform.vlans[200])
	assert.True(t, mgr.deps.VlanCache.IsPortMember(200, "Ethernet0"))
	assert.Equal(t, 200, platform.pvid["Ethernet0"])
	assert.True(t, lp.Client.AttrCreateMask.Has(domain.AttrPvid))
}

// scenario 3: a rejected client goes to Held, and only unblocks once the
// quiet-period timer fires.
func TestAuthMgr_RejectGoesHeldThenReleases(t *testing.T) {
	mgr, platform, timer := newTestMgr(t)
	mac := mustMAC(t, "00:11:22:33:44:56")

	require.Equal(t, domain.Success, mgr.MacSeen(1, mac, domain.MethodMAB))
	key, _ := mgr.deps.MacIndex.Lookup(mac)

	mgr.HandleMethodResult(key, domain.EvAuthFail, ports.RadiusAttrs{})

	lp, _ := mgr.deps.Registry.Get(key)
	assert.Equal(t, domain.StateHeld, lp.Protocol.State)

	// Re-seeing the same MAC while Held must not issue a new attempt; the
	// client stays parked until the quiet period elapses.
	require.Equal(t, domain.Success, mgr.MacSeen(1, mac, domain.MethodMAB))
	lp, _ = mgr.deps.Registry.Get(key)
	assert.Equal(t, domain.StateHeld, lp.Protocol.State)

	timer.Fire(key)
	_, res := mgr.deps.Registry.Get(key)
	assert.Equal(t, domain.NotExist, res, "quiet period expiry fully disconnects the client")
	_, stillBound := mgr.deps.MacIndex.Lookup(mac)
	assert.False(t, stillBound)
	_ = platform
}

// scenario 4: a MAC reappearing on a different physical port tears down
// its old logical port before allocating a new one.
func TestAuthMgr_RoamingTearsDownPreviousPort(t *testing.T) {
	mgr, _, _ := newTestMgr(t)
	mgr.RegisterPort(2, "Ethernet1", 1002)
	require.Equal(t, domain.Success, mgr.PortControlModeSet(2, domain.PortControlAuto))
	require.Equal(t, domain.Success, mgr.HostModeSet(2, domain.HostModeMultiAuth))
	require.Equal(t, domain.Success, mgr.MethodOrderModify(2, []domain.AuthMethod{domain.MethodMAB}))
	require.Equal(t, domain.Success, mgr.MethodPriorityModify(2, []domain.AuthMethod{domain.MethodMAB}))
	require.Equal(t, domain.Success, mgr.LinkStateChange(2, true))

	mac := mustMAC(t, "00:11:22:33:44:57")
	require.Equal(t, domain.Success, mgr.MacSeen(1, mac, domain.MethodMAB))
	oldKey, _ := mgr.deps.MacIndex.Lookup(mac)
	mgr.HandleMethodResult(oldKey, domain.EvAuthSuccess, ports.RadiusAttrs{})

	require.Equal(t, domain.Success, mgr.MacSeen(2, mac, domain.MethodMAB))

	_, stillThere := mgr.deps.Registry.Get(oldKey)
	assert.Equal(t, domain.NotExist, stillThere)

	newKey, ok := mgr.deps.MacIndex.Lookup(mac)
	require.True(t, ok)
	assert.Equal(t, uint32(2), newKey.PhysPort())
}

// scenario 5: MaxUsers enforcement rejects a Create past capacity.
func TestAuthMgr_MaxUsersEnforced(t *testing.T) {
	mgr, _, _ := newTestMgr(t)
	require.Equal(t, domain.Success, mgr.MaxUsersSet(1, 1))

	mac1 := mustMAC(t, "00:00:00:00:00:01")
	mac2 := mustMAC(t, "00:00:00:00:00:02")

	require.Equal(t, domain.Success, mgr.MacSeen(1, mac1, domain.MethodMAB))
	assert.Equal(t, domain.CapacityExceeded, mgr.MacSeen(1, mac2, domain.MethodMAB))
}

// scenario 6: a higher-priority method seen on an already-Authorized
// client preempts and re-enters Authenticating.
func TestAuthMgr_HigherPriorityMethodPreemptsAuthorized(t *testing.T) {
	platform := newFakePlatform()
	mgr := New(Deps{
		Registry:  registry.New(),
		MacIndex:  registry.NewMacIndex(),
		VlanCache: vlancache.New(platform),
		Platform:  platform,
		Timer:     newFakeTimer(),
		Methods: map[domain.AuthMethod]ports.MethodPlugin{
			domain.MethodMAB:    &fakeMethod{method: domain.MethodMAB, enabled: true},
			domain.Method8021X: &fakeMethod{method: domain.Method8021X, enabled: true},
		},
	})
	require.Equal(t, domain.Success, mgr.AdminModeSet(true))
	mgr.RegisterPort(1, "Ethernet0", 1001)
	require.Equal(t, domain.Success, mgr.PortControlModeSet(1, domain.PortControlAuto))
	require.Equal(t, domain.Success, mgr.HostModeSet(1, domain.HostModeMultiAuth))
	require.Equal(t, domain.Success, mgr.MethodOrderModify(1, []domain.AuthMethod{domain.Method8021X, domain.MethodMAB}))
	require.Equal(t, domain.Success, mgr.MethodPriorityModify(1, []domain.AuthMethod{domain.Method8021X, domain.MethodMAB}))
	require.Equal(t, domain.Success, mgr.LinkStateChange(1, true))

	mac := mustMAC(t, "00:11:22:33:44:58")
	require.Equal(t, domain.Success, mgr.MacSeen(1, mac, domain.MethodMAB))
	key, _ := mgr.deps.MacIndex.Lookup(mac)
	mgr.HandleMethodResult(key, domain.EvAuthSuccess, ports.RadiusAttrs{})

	lp, _ := mgr.deps.Registry.Get(key)
	require.Equal(t, domain.StatusAuthorized, lp.Client.LogicalPortStatus)
	require.Equal(t, domain.MethodMAB, lp.Client.AuthenticatedMethod)

	require.Equal(t, domain.Success, mgr.MacSeen(1, mac, domain.Method8021X))
	lp, _ = mgr.deps.Registry.Get(key)
	assert.Equal(t, domain.StateAuthenticating, lp.Protocol.State)
	assert.Equal(t, domain.Method8021X, lp.Client.CurrentMethod)
}

// Open Question #2: re-seeing a client already Authorized on the same
// VLAN a reauth would reassign is a documented no-op via
// clientInfoCleanupCheck, not a full teardown.
func TestClientInfoCleanupCheck_Inversion(t *testing.T) {
	lp := domain.NewLogicalPort(domain.MakeLogicalPortKey(1, 1, domain.KindLogical))
	lp.Client.LogicalPortStatus = domain.StatusAuthorized
	lp.Client.VlanID = 10

	assert.True(t, clientInfoCleanupCheck(lp, 10).OK(), "same VLAN, still Authorized: no cleanup needed")
	assert.False(t, clientInfoCleanupCheck(lp, 20).OK(), "different VLAN: cleanup required")

	lp.Client.LogicalPortStatus = domain.StatusUnauthorized
	assert.False(t, clientInfoCleanupCheck(lp, 10).OK(), "not Authorized: cleanup required")
}

// The AUTHMGR_CLIENT_TIMEOUT sweep force-times-out a client stuck in
// Authenticating whose MethodNoResp timer never got armed.
func TestAuthMgr_SweepClientTimeoutsForcesStuckAuthenticating(t *testing.T) {
	mgr, platform, _ := newTestMgr(t)
	mac := mustMAC(t, "00:22:22:33:44:59")

	require.Equal(t, domain.Success, mgr.MacSeen(1, mac, domain.MethodMAB))
	key, _ := mgr.deps.MacIndex.Lookup(mac)

	lp, _ := mgr.deps.Registry.Get(key)
	require.Equal(t, domain.StateAuthenticating, lp.Protocol.State)
	lp.MethodNoResp.Armed = false

	mgr.sweepClientTimeouts()

	lp, _ = mgr.deps.Registry.Get(key)
	assert.Equal(t, domain.StateHeld, lp.Protocol.State)
	_ = platform
}

// Open Question #1: validateVlanPortDeletion restores the backed-up VLAN
// ID only on the failure path (a sibling logical port still references
// the VLAN).
func TestValidateVlanPortDeletion_RestoresOnFailure(t *testing.T) {
	mgr, _, _ := newTestMgr(t)

	macA := mustMAC(t, "00:00:00:00:aa:01")
	macB := mustMAC(t, "00:00:00:00:aa:02")
	require.Equal(t, domain.Success, mgr.MacSeen(1, macA, domain.MethodMAB))
	require.Equal(t, domain.Success, mgr.MacSeen(1, macB, domain.MethodMAB))

	keyA, _ := mgr.deps.MacIndex.Lookup(macA)
	keyB, _ := mgr.deps.MacIndex.Lookup(macB)
	mgr.HandleMethodResult(keyA, domain.EvAuthSuccess, ports.RadiusAttrs{HaveTunnelVlan: true, TunnelVlanID: 50})
	mgr.HandleMethodResult(keyB, domain.EvAuthSuccess, ports.RadiusAttrs{HaveTunnelVlan: true, TunnelVlanID: 50})

	lpA, _ := mgr.deps.Registry.Get(keyA)
	port, _ := mgr.port(1)

	res := mgr.validateVlanPortDeletion(port, lpA, 50)
	assert.False(t, res.OK(), "sibling still authorized on vlan 50, deletion must be refused")
	assert.Equal(t, 50, lpA.Client.VlanID, "backup restored on failure")
}
