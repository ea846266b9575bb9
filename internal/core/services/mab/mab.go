// Package mab implements the MAC Authentication Bypass authenticator
// (spec.md section 4.9): on AuthStart it synthesises a MAC-derived
// username, builds a RADIUS Access-Request through the RadiusClient
// collaborator, and translates the eventual response back into an FSM
// event delivered through the onResult callback given to New.
package mab

import (
	"context"
	"crypto/md5"
	"crypto/rand"
	"sync"

	"github.com/sonic-net/sonic-pacd/internal/core/domain"
	"github.com/sonic-net/sonic-pacd/internal/core/ports"
)

// PasswordScheme selects which RADIUS credential exchange MAB uses to
// authenticate the synthesised username (spec.md section 4.9).
type PasswordScheme int

const (
	SchemeEAPMD5 PasswordScheme = iota
	SchemeCHAP
	SchemePAP
)

// AuthResultFunc delivers the FSM event MAB derived from a RADIUS
// response for a given logical port.
type AuthResultFunc func(key domain.LogicalPortKey, event domain.SmEvent, attrs ports.RadiusAttrs)

// Config is the static, administrator-controlled MAB configuration.
type Config struct {
	Scheme        PasswordScheme
	NASIP         string
	NASIPv6       string
	NASIdentifier string
	SwitchMAC     domain.MACAddr
}

// pending is the bookkeeping kept for a logical port between AuthStart
// and the RADIUS response arriving.
type pending struct {
	physPort uint32
	ifname   string
	ifIndex  uint32
}

// Authenticator implements ports.MethodPlugin for domain.MethodMAB.
type Authenticator struct {
	cfg    Config
	client ports.RadiusClient
	onResult AuthResultFunc

	mu      sync.Mutex
	enabled map[uint32]bool
	pending map[domain.LogicalPortKey]pending
}

var _ ports.MethodPlugin = (*Authenticator)(nil)

// New returns an Authenticator bound to client, delivering results
// through onResult.
func New(cfg Config, client ports.RadiusClient, onResult AuthResultFunc) *Authenticator {
	a := &Authenticator{
		cfg:      cfg,
		client:   client,
		onResult: onResult,
		enabled:  make(map[uint32]bool),
		pending:  make(map[domain.LogicalPortKey]pending),
	}
	client.SetCallback(a.handleResponse)
	return a
}

// Method implements ports.MethodPlugin.
func (a *Authenticator) Method() domain.AuthMethod { return domain.MethodMAB }

// SetEnabled administratively enables/disables MAB on a physical port.
func (a *Authenticator) SetEnabled(physPort uint32, enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled[physPort] = enabled
}

// EnableGet implements ports.MethodPlugin.
func (a *Authenticator) EnableGet(physPort uint32) (bool, domain.Result) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.enabled[physPort], domain.Success
}

// PortCtrl implements ports.MethodPlugin. MAB has no port-mode-specific
// bookkeeping of its own; the orchestrator owns that transition.
func (a *Authenticator) PortCtrl(physPort uint32, mode domain.PortControlMode) domain.Result {
	return domain.Success
}

// HostCtrl implements ports.MethodPlugin.
func (a *Authenticator) HostCtrl(physPort uint32, mode domain.HostMode) domain.Result {
	return domain.Success
}

// RegisterPort tells MAB which ifname/ifIndex correspond to a physical
// port, for attributes it must send (NAS-Port, NAS-Port-Id).
func (a *Authenticator) RegisterPort(physPort uint32, ifname string, ifIndex uint32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for key, p := range a.pending {
		if p.physPort == physPort {
			p.ifname = ifname
			p.ifIndex = ifIndex
			a.pending[key] = p
		}
	}
}

// EventNotify implements ports.MethodPlugin.
func (a *Authenticator) EventNotify(key domain.LogicalPortKey, mac domain.MACAddr, event domain.MethodEvent) domain.Result {
	switch event {
	case domain.MethodEvAuthStart, domain.MethodEvReauthenticate:
		return a.startAuth(key, mac)
	case domain.MethodEvDisconnect, domain.MethodEvAbortAndRestart:
		a.mu.Lock()
		delete(a.pending, key)
		a.mu.Unlock()
		return domain.Success
	}
	return domain.Success
}

func (a *Authenticator) startAuth(key domain.LogicalPortKey, mac domain.MACAddr) domain.Result {
	a.mu.Lock()
	p := a.pending[key]
	p.physPort = key.PhysPort()
	a.pending[key] = p
	a.mu.Unlock()

	req := ports.RadiusRequest{
		Correlator:       key,
		UserName:         mac.Username(),
		NASIP:            a.cfg.NASIP,
		NASIPv6:          a.cfg.NASIPv6,
		NASPort:          p.ifIndex,
		NASPortID:        p.ifname,
		NASIdentifier:    a.cfg.NASIdentifier,
		CalledStationID:  a.cfg.SwitchMAC.ColonUpper(),
		CallingStationID: mac.DashUpper(),
	}

	switch a.cfg.Scheme {
	case SchemeCHAP:
		challenge := make([]byte, 16)
		_, _ = rand.Read(challenge)
		id := challenge[0]
		h := md5.New()
		h.Write([]byte{id})
		h.Write([]byte(mac.Username()))
		h.Write(challenge)
		digest := h.Sum(nil)
		req.CHAPPassword = append([]byte{id}, digest...)
		req.CHAPChallenge = challenge
	case SchemePAP:
		req.UserPassword = mac.Username()
	default: // SchemeEAPMD5
		req.EAPMessage = buildEAPResponseIdentity(mac.Username())
	}

	return a.client.AccessRequestSend(context.Background(), req)
}

func (a *Authenticator) handleResponse(resp ports.RadiusResponse) {
	a.mu.Lock()
	delete(a.pending, resp.Correlator)
	a.mu.Unlock()

	var event domain.SmEvent
	switch resp.Code {
	case ports.RadiusAccept:
		event = domain.EvAuthSuccess
	case ports.RadiusReject:
		event = domain.EvAuthFail
	case ports.RadiusChallenge:
		// Multi-round EAP: onResult gets NoEvent, so the client stays in
		// Authenticating with no FSM transition. resp.Attrs (including any
		// EAP-Message) is passed along but not sent back to the supplicant,
		// and no follow-up Access-Request is built.
		if a.onResult != nil {
			a.onResult(resp.Correlator, domain.NoEvent, resp.Attrs)
		}
		return
	default: // Timeout, CommFailure
		event = domain.EvAuthFail
	}

	if a.onResult != nil {
		a.onResult(resp.Correlator, event, resp.Attrs)
	}
}

// buildEAPResponseIdentity constructs a minimal EAP-Response/Identity
// message carrying identity (spec.md section 4.9 step 2, EAP-MD5 case).
func buildEAPResponseIdentity(identity string) []byte {
	const (
		eapCodeResponse = 2
		eapTypeIdentity = 1
	)
	length := 5 + len(identity)
	msg := make([]byte, length)
	msg[0] = eapCodeResponse
	msg[1] = 1 // identifier
	msg[2] = byte(length >> 8)
	msg[3] = byte(length)
	msg[4] = eapTypeIdentity
	copy(msg[5:], identity)
	return msg
}
