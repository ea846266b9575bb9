package registry

import (
	"testing"

	"github.com/sonic-net/sonic-pacd/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_CreateAndGet(t *testing.T) {
	r := New()
	mac, _ := domain.ParseMAC("00:11:22:33:44:55")
	key, res := r.Create(1, mac)
	require.Equal(t, domain.Success, res)

	lp, res := r.Get(key)
	require.Equal(t, domain.Success, res)
	assert.Equal(t, uint32(1), lp.PhysPort)
	assert.False(t, lp.Synthetic)
}

func TestRegistry_CapacityExceeded(t *testing.T) {
	r := New()
	r.SetMaxUsers(1, 2)
	mac, _ := domain.ParseMAC("00:11:22:33:44:55")

	_, res := r.Create(1, mac)
	require.Equal(t, domain.Success, res)
	_, res = r.Create(1, mac)
	require.Equal(t, domain.Success, res)

	_, res = r.Create(1, mac)
	assert.Equal(t, domain.CapacityExceeded, res)
}

func TestRegistry_DeleteAndCount(t *testing.T) {
	r := New()
	mac, _ := domain.ParseMAC("00:11:22:33:44:55")
	key, _ := r.Create(1, mac)
	assert.Equal(t, 1, r.Count(1))

	res := r.Delete(key)
	require.Equal(t, domain.Success, res)
	assert.Equal(t, 0, r.Count(1))

	_, res = r.Get(key)
	assert.Equal(t, domain.NotExist, res)
}

func TestRegistry_IterationOrder(t *testing.T) {
	r := New()
	mac, _ := domain.ParseMAC("00:11:22:33:44:55")
	k1, _ := r.Create(1, mac)
	k2, _ := r.Create(1, mac)
	k3, _ := r.Create(1, mac)

	first, res := r.FirstPort(1)
	require.Equal(t, domain.Success, res)
	assert.Equal(t, k1, first)

	second, res := r.NextPort(first)
	require.Equal(t, domain.Success, res)
	assert.Equal(t, k2, second)

	third, res := r.NextPort(second)
	require.Equal(t, domain.Success, res)
	assert.Equal(t, k3, third)

	_, res = r.NextPort(third)
	assert.Equal(t, domain.NotExist, res)
}

func TestRegistry_CreateSynthetic(t *testing.T) {
	r := New()
	key, res := r.CreateSynthetic(1)
	require.Equal(t, domain.Success, res)
	lp, _ := r.Get(key)
	assert.True(t, lp.Synthetic)
}

func TestMacIndex_BindReportsPrevious(t *testing.T) {
	idx := NewMacIndex()
	mac, _ := domain.ParseMAC("00:11:22:33:44:55")
	k1 := domain.MakeLogicalPortKey(1, 1, domain.KindLogical)
	k2 := domain.MakeLogicalPortKey(2, 1, domain.KindLogical)

	_, had := idx.Bind(mac, k1)
	assert.False(t, had)

	prev, had := idx.Bind(mac, k2)
	assert.True(t, had)
	assert.Equal(t, k1, prev)

	got, ok := idx.Lookup(mac)
	assert.True(t, ok)
	assert.Equal(t, k2, got)

	idx.Unbind(mac)
	_, ok = idx.Lookup(mac)
	assert.False(t, ok)
}
