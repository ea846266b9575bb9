package domain

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidMAC is returned when a string cannot be parsed as a MAC
// address.
var ErrInvalidMAC = errors.New("domain: invalid MAC address")

// MACAddr is a 6-octet hardware address. The zero value (all zero
// octets) is never a valid client identity (spec.md section 4.3:
// "allowed only when mac != 0").
type MACAddr [6]byte

// IsZero reports whether the MAC is the all-zero sentinel.
func (m MACAddr) IsZero() bool { return m == MACAddr{} }

// ParseMAC accepts colon- or dash-separated hex, or bare 12-hex-digit
// strings, case-insensitively.
func ParseMAC(s string) (MACAddr, error) {
	cleaned := strings.NewReplacer(":", "", "-", "", ".", "").Replace(s)
	if len(cleaned) != 12 {
		return MACAddr{}, fmt.Errorf("%w: %q", ErrInvalidMAC, s)
	}
	raw, err := hex.DecodeString(cleaned)
	if err != nil {
		return MACAddr{}, fmt.Errorf("%w: %q", ErrInvalidMAC, s)
	}
	var mac MACAddr
	copy(mac[:], raw)
	return mac, nil
}

// String renders the canonical colon-separated lower-case form.
func (m MACAddr) String() string {
	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x", m[0], m[1], m[2], m[3], m[4], m[5])
}

// DashUpper renders dash-separated upper-case hex, the Calling-Station-Id
// convention used by the MAB authenticator (spec.md section 4.9).
func (m MACAddr) DashUpper() string {
	return strings.ToUpper(fmt.Sprintf("%02x-%02x-%02x-%02x-%02x-%02x", m[0], m[1], m[2], m[3], m[4], m[5]))
}

// ColonUpper renders colon-separated upper-case hex, the Called-Station-Id
// convention for the switch's own MAC.
func (m MACAddr) ColonUpper() string {
	return strings.ToUpper(m.String())
}

// Username renders the twelve-uppercase-hex-digit form the MAB
// authenticator synthesises as RADIUS User-Name (spec.md section 4.9).
func (m MACAddr) Username() string {
	return strings.ToUpper(hex.EncodeToString(m[:]))
}
