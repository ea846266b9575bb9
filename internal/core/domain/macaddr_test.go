package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMAC_Variants(t *testing.T) {
	for _, s := range []string{"00:11:22:33:44:55", "00-11-22-33-44-55", "0011.2233.4455", "001122334455"} {
		mac, err := ParseMAC(s)
		require.NoError(t, err, s)
		assert.Equal(t, "00:11:22:33:44:55", mac.String())
	}
}

func TestParseMAC_Invalid(t *testing.T) {
	_, err := ParseMAC("not-a-mac")
	assert.ErrorIs(t, err, ErrInvalidMAC)
}

func TestMACAddr_Renderings(t *testing.T) {
	mac, err := ParseMAC("aa:bb:cc:00:00:01")
	require.NoError(t, err)
	assert.Equal(t, "AA-BB-CC-00-00-01", mac.DashUpper())
	assert.Equal(t, "AA:BB:CC:00:00:01", mac.ColonUpper())
	assert.Equal(t, "AABBCC000001", mac.Username())
	assert.False(t, mac.IsZero())
	assert.True(t, (MACAddr{}).IsZero())
}
