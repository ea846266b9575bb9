package nim

import (
	"testing"

	"github.com/sonic-net/sonic-pacd/internal/core/domain"
	"github.com/sonic-net/sonic-pacd/internal/core/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdapter_RefreshEnumeratesHostInterfaces(t *testing.T) {
	a := New()
	require.NoError(t, a.Refresh())

	physPort, ok := a.FirstValidIntfNumber()
	if !ok {
		t.Skip("no host interfaces available in this environment")
	}

	name, res := a.IntfName(physPort)
	assert.Equal(t, domain.Success, res)
	assert.NotEmpty(t, name)

	typ, res := a.IntfType(physPort)
	assert.Equal(t, domain.Success, res)
	assert.Equal(t, ports.IntfPhysical, typ)
}

func TestAdapter_UnknownPortReturnsNotExist(t *testing.T) {
	a := New()
	_, res := a.IntfName(9999)
	assert.Equal(t, domain.NotExist, res)
}

func TestAdapter_RefreshFiresCreatedOnFirstSight(t *testing.T) {
	a := New()
	var events []ports.IntfChangeEvent
	a.RegisterIntfChangeCallback(func(evt ports.IntfChangeEvent) {
		events = append(events, evt)
	})
	require.NoError(t, a.Refresh())

	if len(events) == 0 {
		t.Skip("no host interfaces available in this environment")
	}
	assert.Equal(t, ports.IntfCreated, events[0].Kind)

	// A second refresh with unchanged host state fires nothing further.
	events = nil
	require.NoError(t, a.Refresh())
	assert.Empty(t, events)
}
