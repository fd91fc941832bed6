package websocket

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"github.com/thereayou/presence-relay/internal/relay"
)

func TestEncode(t *testing.T) {
	req := require.New(t)

	data, err := encode(TypeAck, "42", relay.Ack{OK: true, ConnectionID: "c1"})
	req.NoError(err)

	var env Envelope
	req.NoError(json.Unmarshal(data, &env))
	req.Equal(TypeAck, env.Type)
	req.Equal("42", env.AckID)
	req.False(env.Timestamp.IsZero())
	req.JSONEq(`{"ok":true,"connection_id":"c1"}`, string(env.Data))

	data, err = encode(relay.TypeRoster, "", nil)
	req.NoError(err)
	req.NotContains(string(data), `"data"`)
	req.NotContains(string(data), `"ack_id"`)
}

func TestCloseReason(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "normal", err: &websocket.CloseError{Code: websocket.CloseNormalClosure}, want: "client disconnect"},
		{name: "going away", err: &websocket.CloseError{Code: websocket.CloseGoingAway}, want: "going away"},
		{name: "with text", err: &websocket.CloseError{Code: websocket.CloseNormalClosure, Text: "bye"}, want: "bye"},
		{name: "abnormal", err: &websocket.CloseError{Code: websocket.CloseAbnormalClosure}, want: "transport close"},
		{name: "io", err: errors.New("read: connection reset"), want: "transport error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, closeReason(tt.err))
		})
	}
}

func TestClient_QueueFull(t *testing.T) {
	req := require.New(t)
	c := &Client{id: "c1", Send: make(chan []byte, 1)}

	req.NoError(c.Deliver(relay.Outbound{Type: relay.TypeRoster}))
	err := c.Deliver(relay.Outbound{Type: relay.TypeRoster})
	req.ErrorIs(err, ErrClientQueueFull)
	req.ErrorIs(err, relay.ErrPeerQueueFull)
}

type stubHandler struct {
	ack     *relay.Ack
	reasons chan string
}

func (h *stubHandler) HandleMessage(*Client, *Envelope) *relay.Ack { return h.ack }

func (h *stubHandler) Disconnect(_ *Client, reason string) { h.reasons <- reason }

func TestClient_AckOverflowClosesSlowConsumer(t *testing.T) {
	req := require.New(t)
	handler := &stubHandler{ack: &relay.Ack{OK: true}, reasons: make(chan string, 1)}
	upgrader := websocket.Upgrader{}

	// Given a client whose send queue is already full and not drained
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		c := NewClient(conn, 1, logs.GetLoggerFromLevel(slog.LevelDebug))
		_ = c.Deliver(relay.Outbound{Type: relay.TypeRoster})
		go c.ReadPump(handler)
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	req.NoError(err)
	defer conn.Close()

	// When it sends an ack-bearing event
	req.NoError(conn.WriteJSON(map[string]string{"type": "send_message", "ack_id": "a1"}))

	// Then the server closes the socket instead of dropping the ack
	req.NoError(conn.SetReadDeadline(time.Now().Add(2 * time.Second)))
	_, _, err = conn.ReadMessage()
	req.True(websocket.IsCloseError(err, websocket.ClosePolicyViolation), "got %v", err)

	// And the connection is disconnected from the dispatcher
	select {
	case reason := <-handler.reasons:
		req.Equal("slow consumer", reason)
	case <-time.After(2 * time.Second):
		req.Fail("client was not disconnected")
	}
}
