package domain

import "time"

// LogicalPortStatus is the dataplane authorization status of a client.
type LogicalPortStatus int

const (
	StatusUnauthorized LogicalPortStatus = iota
	StatusAuthorized
)

// VlanType records where a client's VLAN assignment came from.
type VlanType int

const (
	VlanTypeDefault VlanType = iota
	VlanTypeRadius
	VlanTypeGuest
	VlanTypeUnauth
	VlanTypeBlocked
)

// AttrCreateMask records which dataplane installation steps succeeded
// during client-add fan-out (spec.md section 4.10), so a partial failure
// can be rolled back in reverse order by a cleanup dispatch table indexed
// by bit position (spec.md section 9).
type AttrCreateMask uint8

const (
	AttrStaticFdb AttrCreateMask = 1 << iota
	AttrBlockFdb
	AttrPvid
)

func (m AttrCreateMask) Has(bit AttrCreateMask) bool { return m&bit != 0 }

// Client is the per-MAC authentication state carried by a LogicalPort,
// per spec.md section 3.
type Client struct {
	MAC MACAddr

	CurrentMethod       AuthMethod
	AuthenticatedMethod AuthMethod
	ExecutedMethods     []AuthMethod

	LogicalPortStatus LogicalPortStatus
	VlanID            int
	VlanType          VlanType
	BlockVlanID       int
	DataBlocked       bool

	Username         string
	SessionTimeout   int
	TerminationAction string
	ServerState      []byte
	ServerClass      []byte

	ReauthCount     int
	LastAuthTime    time.Time
	SessionStartTime time.Time

	AttrCreateMask AttrCreateMask
}

// AddExecutedMethod appends method to ExecutedMethods if not already
// present, preserving the ordering of attempts.
func (c *Client) AddExecutedMethod(method AuthMethod) {
	for _, m := range c.ExecutedMethods {
		if m == method {
			return
		}
	}
	c.ExecutedMethods = append(c.ExecutedMethods, method)
}

// Reset clears per-authentication-attempt client state without touching
// the identifying MAC.
func (c *Client) Reset() {
	mac := c.MAC
	*c = Client{MAC: mac}
}
