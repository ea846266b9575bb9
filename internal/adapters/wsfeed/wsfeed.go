// Package wsfeed implements a live WebSocket feed of client FSM
// transitions and VLAN notifications, the operational analogue of the
// teacher's device-update broadcast (internal/adapters/web/websocket).
package wsfeed

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sonic-net/sonic-pacd/internal/core/domain"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Message is the envelope every feed event is wrapped in.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// TransitionPayload is the wire shape of a client FSM transition.
type TransitionPayload struct {
	PhysPort uint32 `json:"physPort"`
	MAC      string `json:"mac"`
	From     string `json:"from"`
	To       string `json:"to"`
}

// VlanPayload is the wire shape of a VLAN membership/PVID notification.
type VlanPayload struct {
	Ifname string `json:"ifname"`
	VlanID int    `json:"vlanId"`
	Action string `json:"action"`
}

// Feed fans client FSM transitions and VLAN notifications out to every
// connected WebSocket client. Safe for concurrent use.
type Feed struct {
	log     *slog.Logger
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// New returns an empty Feed.
func New(log *slog.Logger) *Feed {
	if log == nil {
		log = slog.Default()
	}
	return &Feed{log: log, clients: make(map[*websocket.Conn]struct{})}
}

// HandleWebSocket upgrades the connection and registers it as a feed
// subscriber until a read on it fails (this feed is read-only; inbound
// frames are read and discarded, and only a read error ends the
// connection).
func (f *Feed) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.log.Warn("wsfeed upgrade failed", "error", err)
		return
	}

	f.mu.Lock()
	f.clients[conn] = struct{}{}
	f.mu.Unlock()

	go func() {
		defer conn.Close()
		defer func() {
			f.mu.Lock()
			delete(f.clients, conn)
			f.mu.Unlock()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// OnTransition is an authmgr.Deps.OnTransition-shaped callback: it
// broadcasts every client FSM state change to connected subscribers.
func (f *Feed) OnTransition(evt domain.TransitionEvent) {
	f.broadcast(Message{
		Type: "transition",
		Payload: TransitionPayload{
			PhysPort: evt.PhysPort,
			MAC:      evt.MAC.String(),
			From:     evt.From.String(),
			To:       evt.To.String(),
		},
	})
}

// NotifyVlan broadcasts a VLAN membership/PVID change (spec.md section
// 4.5) to connected subscribers.
func (f *Feed) NotifyVlan(ifname string, vlanID int, action string) {
	f.broadcast(Message{
		Type:    "vlan",
		Payload: VlanPayload{Ifname: ifname, VlanID: vlanID, Action: action},
	})
}

func (f *Feed) broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		f.log.Error("wsfeed marshal failed", "error", err)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for conn := range f.clients {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			conn.Close()
			delete(f.clients, conn)
		}
	}
}
