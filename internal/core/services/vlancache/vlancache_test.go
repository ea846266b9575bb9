package vlancache

import (
	"testing"

	"github.com/sonic-net/sonic-pacd/internal/core/domain"
	"github.com/sonic-net/sonic-pacd/internal/core/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakePlatform struct {
	mock.Mock
}

func (f *fakePlatform) ClientAdd(ifname string, mac domain.MACAddr, vlan int) domain.Result {
	return domain.Success
}
func (f *fakePlatform) ClientRemove(ifname string, mac domain.MACAddr, vlan int) domain.Result {
	return domain.Success
}
func (f *fakePlatform) ClientBlock(ifname string, mac domain.MACAddr, vlan int) domain.Result {
	return domain.Success
}
func (f *fakePlatform) ClientUnblock(ifname string, mac domain.MACAddr, vlan int) domain.Result {
	return domain.Success
}
func (f *fakePlatform) PortPVIDSet(ifname string, pvid int) domain.Result { return domain.Success }
func (f *fakePlatform) PortPVIDGet(ifname string) (int, domain.Result)    { return 0, domain.Success }
func (f *fakePlatform) VlanMemberAdd(vlan int, ifname string, tagging domain.TagMode) domain.Result {
	return domain.Success
}
func (f *fakePlatform) VlanMemberRemove(vlan int, ifname string) domain.Result { return domain.Success }
func (f *fakePlatform) VlanAdd(vlan int) domain.Result                        { return domain.Success }
func (f *fakePlatform) VlanRemove(vlan int) domain.Result                     { return domain.Success }
func (f *fakePlatform) InterfaceLearningModeSet(ifname string, mode ports.LearningMode) domain.Result {
	return domain.Success
}
func (f *fakePlatform) InterfaceViolationPolicySet(ifname string, enabled bool) domain.Result {
	return domain.Success
}
func (f *fakePlatform) InterfaceAcquireSet(ifname string, acquired bool) domain.Result {
	return domain.Success
}
func (f *fakePlatform) VlanSendCfgNotification(kind ports.NotificationKind, ifname string, snapshot []ports.PortVlanSnapshot) domain.Result {
	args := f.Called(kind, ifname, snapshot)
	return args.Get(0).(domain.Result)
}

func TestCache_VlanValidity(t *testing.T) {
	c := New(nil)
	assert.Equal(t, domain.VlanInvalid, c.Valid(0))
	assert.Equal(t, domain.VlanNotExist, c.Valid(10))
	require.Equal(t, domain.Success, c.VlanAdd(10))
	assert.Equal(t, domain.VlanPresent, c.Valid(10))
	require.Equal(t, domain.Success, c.VlanDelete(10))
	assert.Equal(t, domain.VlanNotExist, c.Valid(10))
}

func TestCache_PortDefaultVlan(t *testing.T) {
	c := New(nil)
	require.Equal(t, domain.Success, c.VlanAdd(20))
	require.Equal(t, domain.Success, c.VlanAdd(10))
	require.Equal(t, domain.Success, c.PortVlanAdd(20, "Ethernet0", domain.Untagged))
	require.Equal(t, domain.Success, c.PortVlanAdd(10, "Ethernet0", domain.Untagged))
	require.Equal(t, domain.Success, c.PortVlanAdd(5, "Ethernet0", domain.Tagged))

	vlan, ok := c.PortDefaultVlan("Ethernet0")
	require.True(t, ok)
	assert.Equal(t, 10, vlan)
}

func TestCache_IsPortMember(t *testing.T) {
	c := New(nil)
	require.Equal(t, domain.Success, c.VlanAdd(10))
	assert.False(t, c.IsPortMember(10, "Ethernet0"))
	require.Equal(t, domain.Success, c.PortVlanAdd(10, "Ethernet0", domain.Untagged))
	assert.True(t, c.IsPortMember(10, "Ethernet0"))
	assert.False(t, c.IsPortMember(10, "Ethernet1"))
}

func TestCache_AcquireReleaseRoundtrip(t *testing.T) {
	fp := new(fakePlatform)
	c := New(fp)
	require.Equal(t, domain.Success, c.VlanAdd(10))
	require.Equal(t, domain.Success, c.PortVlanAdd(10, "Ethernet0", domain.Untagged))

	fp.On("VlanSendCfgNotification", ports.NotifyRemove, "Ethernet0", mock.Anything).Return(domain.Success)
	require.Equal(t, domain.Success, c.AcquirePort("Ethernet0"))

	// Acquiring again is a no-op and shouldn't re-notify.
	require.Equal(t, domain.Success, c.AcquirePort("Ethernet0"))

	fp.On("VlanSendCfgNotification", ports.NotifyRevert, "Ethernet0", mock.Anything).Return(domain.Success)
	require.Equal(t, domain.Success, c.ReleasePort("Ethernet0"))

	fp.AssertNumberOfCalls(t, "VlanSendCfgNotification", 2)
}
