package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// connPair returns the server and client halves of a live websocket.
func connPair(t *testing.T) (*websocket.Conn, *websocket.Conn) {
	t.Helper()

	serverConns := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		serverConns <- conn
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	select {
	case server := <-serverConns:
		return server, client
	case <-time.After(2 * time.Second):
		t.Fatal("server connection never arrived")
		return nil, nil
	}
}

func TestSendToUserDeliversMessage(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	server, client := connPair(t)

	conn := NewConnection(server, zerolog.Nop())
	hub.RegisterConnection(1, conn)
	go conn.WritePump()

	require.NoError(t, hub.SendToUser(1, NewMessage(TypeInfo, InfoPayload{Message: "hello"})))

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	require.NoError(t, client.ReadJSON(&msg))
	assert.Equal(t, TypeInfo, msg.Type)
}

func TestSendToUnknownUser(t *testing.T) {
	hub := NewHub(zerolog.Nop())

	err := hub.SendToUser(99, NewMessage(TypeInfo, nil))
	assert.ErrorIs(t, err, ErrConnectionNotFound)
}

func TestRegisterReplacesStaleConnection(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	serverA, _ := connPair(t)
	serverB, clientB := connPair(t)

	connA := NewConnection(serverA, zerolog.Nop())
	connB := NewConnection(serverB, zerolog.Nop())

	hub.RegisterConnection(1, connA)
	hub.RegisterConnection(1, connB)
	go connB.WritePump()

	// The stale connection is closed and no longer addressable.
	assert.ErrorIs(t, connA.Send(NewMessage(TypeInfo, nil)), ErrConnectionClosed)

	require.NoError(t, hub.SendToUser(1, NewMessage(TypeInfo, InfoPayload{Message: "to b"})))
	clientB.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	require.NoError(t, clientB.ReadJSON(&msg))
	assert.Equal(t, TypeInfo, msg.Type)
}

func TestUnregisterIgnoresReplacedConnection(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	serverA, _ := connPair(t)
	serverB, _ := connPair(t)

	connA := NewConnection(serverA, zerolog.Nop())
	connB := NewConnection(serverB, zerolog.Nop())

	hub.RegisterConnection(1, connA)
	hub.RegisterConnection(1, connB)

	// The old goroutine cleaning up after itself must not evict the
	// replacement.
	hub.UnregisterConnection(1, connA)
	_, ok := hub.GetConnection(1)
	assert.True(t, ok)

	hub.UnregisterConnection(1, connB)
	_, ok = hub.GetConnection(1)
	assert.False(t, ok)
}

func TestSendAfterClose(t *testing.T) {
	server, _ := connPair(t)
	conn := NewConnection(server, zerolog.Nop())

	conn.Close()
	assert.ErrorIs(t, conn.Send(NewMessage(TypeInfo, nil)), ErrConnectionClosed)
	conn.Close() // idempotent
}
