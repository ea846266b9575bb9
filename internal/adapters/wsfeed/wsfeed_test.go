package wsfeed

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sonic-net/sonic-pacd/internal/core/domain"
	"github.com/stretchr/testify/require"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func TestFeed_OnTransitionBroadcastsToSubscriber(t *testing.T) {
	f := New(nil)
	srv := httptest.NewServer(http.HandlerFunc(f.HandleWebSocket))
	defer srv.Close()

	conn := dial(t, srv)
	defer conn.Close()

	time.Sleep(20 * time.Millisecond) // let the server register the client

	mac, err := domain.ParseMAC("00:11:22:33:44:55")
	require.NoError(t, err)
	f.OnTransition(domain.TransitionEvent{
		PhysPort: 1,
		MAC:      mac,
		From:     domain.StateAuthenticating,
		To:       domain.StateAuthenticated,
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	require.Equal(t, "transition", msg.Type)
}

func TestFeed_NotifyVlanBroadcasts(t *testing.T) {
	f := New(nil)
	srv := httptest.NewServer(http.HandlerFunc(f.HandleWebSocket))
	defer srv.Close()

	conn := dial(t, srv)
	defer conn.Close()

	time.Sleep(20 * time.Millisecond)

	f.NotifyVlan("Ethernet0", 50, "add")

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	require.Equal(t, "vlan", msg.Type)
}
