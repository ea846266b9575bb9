// Package radiusclient implements ports.RadiusClient over layeh.com/radius,
// the RADIUS client/attribute library this module's dependency pack
// converges on (see other_examples radius executor and server samples).
package radiusclient

import (
	"context"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/sonic-net/sonic-pacd/internal/core/domain"
	"github.com/sonic-net/sonic-pacd/internal/core/ports"
	"github.com/sonic-net/sonic-pacd/internal/telemetry"
	"layeh.com/radius"
	"layeh.com/radius/rfc2865"
	"layeh.com/radius/rfc2868"
)

// Client implements ports.RadiusClient against a single upstream RADIUS
// server reachable over UDP.
type Client struct {
	server string
	secret []byte
	log    *slog.Logger

	cb ports.RadiusResponseFunc

	nasIP string
	nasID string
}

var _ ports.RadiusClient = (*Client)(nil)

// New returns a Client that sends Access-Requests to server using secret.
func New(server, secret string, log *slog.Logger) *Client {
	return &Client{server: server, secret: []byte(secret), log: log}
}

// SetCallback implements ports.RadiusClient.
func (c *Client) SetCallback(fn ports.RadiusResponseFunc) { c.cb = fn }

// SetNASInfo implements ports.RadiusClient.
func (c *Client) SetNASInfo(nasIP, nasID string) {
	c.nasIP = nasIP
	c.nasID = nasID
}

// RADIUS attribute types not covered by a named rfc2865 setter.
const (
	attrCHAPPassword  radius.Type = 3
	attrCHAPChallenge radius.Type = 60
	attrEAPMessage    radius.Type = 79
)

// buildPacket renders req into an Access-Request packet, falling back to
// the client's default NAS-IP-Address/NAS-Identifier when req leaves them
// unset.
func buildPacket(secret []byte, defaultNASIP, defaultNASID string, req ports.RadiusRequest) *radius.Packet {
	packet := radius.New(radius.CodeAccessRequest, secret)

	_ = rfc2865.UserName_SetString(packet, req.UserName)
	_ = rfc2865.NASPort_Set(packet, rfc2865.NASPort(req.NASPort))
	if req.NASPortID != "" {
		_ = rfc2865.NASPortID_SetString(packet, req.NASPortID)
	}
	if req.CalledStationID != "" {
		_ = rfc2865.CalledStationID_SetString(packet, req.CalledStationID)
	}
	if req.CallingStationID != "" {
		_ = rfc2865.CallingStationID_SetString(packet, req.CallingStationID)
	}
	nasID := req.NASIdentifier
	if nasID == "" {
		nasID = defaultNASID
	}
	if nasID != "" {
		_ = rfc2865.NASIdentifier_SetString(packet, nasID)
	}
	nasIP := req.NASIP
	if nasIP == "" {
		nasIP = defaultNASIP
	}
	if nasIP != "" {
		if ip := net.ParseIP(nasIP).To4(); ip != nil {
			_ = rfc2865.NASIPAddress_Set(packet, ip)
		}
	}

	switch {
	case len(req.CHAPPassword) > 0:
		_ = packet.Add(attrCHAPPassword, req.CHAPPassword)
		_ = packet.Add(attrCHAPChallenge, req.CHAPChallenge)
	case req.UserPassword != "":
		_ = rfc2865.UserPassword_SetString(packet, req.UserPassword)
	case len(req.EAPMessage) > 0:
		_ = packet.Add(attrEAPMessage, req.EAPMessage)
	}

	return packet
}

// AccessRequestSend implements ports.RadiusClient. The exchange happens
// on its own goroutine so RADIUS I/O never blocks the caller (spec.md
// section 4.9: "fronted by an event queue distinct from the orchestrator").
func (c *Client) AccessRequestSend(ctx context.Context, req ports.RadiusRequest) domain.Result {
	packet := buildPacket(c.secret, c.nasIP, c.nasID, req)
	go c.exchange(ctx, packet, req.Correlator)
	return domain.Success
}

func (c *Client) exchange(ctx context.Context, packet *radius.Packet, correlator domain.LogicalPortKey) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	start := time.Now()
	resp, err := radius.Exchange(ctx, packet, c.server)
	telemetry.RadiusRequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		if c.log != nil {
			c.log.Debug("radius exchange failed", slog.Any("error", err))
		}
		telemetry.RadiusRequestsTotal.WithLabelValues("timeout").Inc()
		c.deliver(ports.RadiusResponse{Code: ports.RadiusTimeout, Correlator: correlator})
		return
	}

	switch resp.Code {
	case radius.CodeAccessAccept:
		telemetry.RadiusRequestsTotal.WithLabelValues("accept").Inc()
		c.deliver(ports.RadiusResponse{Code: ports.RadiusAccept, Correlator: correlator, Attrs: parseAttrs(resp)})
	case radius.CodeAccessChallenge:
		telemetry.RadiusRequestsTotal.WithLabelValues("challenge").Inc()
		c.deliver(ports.RadiusResponse{Code: ports.RadiusChallenge, Correlator: correlator, Attrs: parseAttrs(resp)})
	default:
		telemetry.RadiusRequestsTotal.WithLabelValues("reject").Inc()
		c.deliver(ports.RadiusResponse{Code: ports.RadiusReject, Correlator: correlator, Attrs: parseAttrs(resp)})
	}
}

func (c *Client) deliver(resp ports.RadiusResponse) {
	if c.cb != nil {
		c.cb(resp)
	}
}

func parseAttrs(p *radius.Packet) ports.RadiusAttrs {
	var attrs ports.RadiusAttrs
	if timeout := rfc2865.SessionTimeout_Get(p); timeout != 0 {
		attrs.SessionTimeout = int(timeout)
		attrs.HaveSessionTimeout = true
	}
	attrs.State = []byte(rfc2865.State_GetString(p))
	attrs.Class = []byte(rfc2865.Class_GetString(p))
	attrs.FilterID = rfc2865.FilterID_GetString(p)

	if vlan, err := rfc2868.TunnelPrivateGroupID_GetString(p, 0); err == nil && vlan != "" {
		if id, perr := strconv.Atoi(vlan); perr == nil {
			attrs.TunnelVlanID = id
			attrs.HaveTunnelVlan = true
		}
	}
	return attrs
}
