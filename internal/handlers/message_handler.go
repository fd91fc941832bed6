package handlers

import (
	"encoding/json"
	"log/slog"

	"github.com/thereayou/presence-relay/internal/relay"
	"github.com/thereayou/presence-relay/internal/websocket"
)

// MessageHandler decodes websocket envelopes into relay commands.
type MessageHandler struct {
	dispatcher *relay.Dispatcher
	log        *slog.Logger
}

func NewMessageHandler(dispatcher *relay.Dispatcher, log *slog.Logger) *MessageHandler {
	return &MessageHandler{
		dispatcher: dispatcher,
		log:        log,
	}
}

func (h *MessageHandler) HandleMessage(client *websocket.Client, env *websocket.Envelope) *relay.Ack {
	cmd, err := decodeCommand(env)
	if err != nil {
		if !ackBearing(env.Type) {
			// Malformed fire-and-forget events are dropped without a reply
			return nil
		}
		if !knownType(env.Type) {
			h.log.Debug("Unknown message type", "type", env.Type, "connection_id", client.ID())
		}
		return &relay.Ack{Error: err.Error()}
	}

	ack, acked := h.dispatcher.Handle(client.ID(), cmd)
	if !acked {
		return nil
	}
	return &ack
}

func (h *MessageHandler) Disconnect(client *websocket.Client, reason string) {
	h.dispatcher.Disconnect(client.ID(), reason)
}

func decodeCommand(env *websocket.Envelope) (relay.Command, error) {
	switch env.Type {
	case relay.TypeEstablishIdentity:
		var c relay.EstablishIdentity
		if err := decode(env.Data, &c); err != nil {
			return nil, relay.ErrInvalidIdentity
		}
		return c, nil

	case relay.TypeJoinRoom:
		var c relay.JoinRoom
		if err := decode(env.Data, &c); err != nil {
			return nil, relay.ErrInvalidRoom
		}
		return c, nil

	case relay.TypeLeaveRoom:
		var c relay.LeaveRoom
		if err := decode(env.Data, &c); err != nil {
			return nil, relay.ErrInvalidRoom
		}
		return c, nil

	case relay.TypeSendMessage:
		var c relay.SendMessage
		if err := decode(env.Data, &c); err != nil {
			return nil, relay.ErrInvalidPayload
		}
		return c, nil

	case relay.TypeSendPrivateMessage:
		var c relay.SendPrivateMessage
		if err := decode(env.Data, &c); err != nil {
			return nil, relay.ErrInvalidPayload
		}
		return c, nil

	case relay.TypeSetTyping:
		var c relay.SetTyping
		if err := decode(env.Data, &c); err != nil {
			return nil, relay.ErrInvalidPayload
		}
		return c, nil

	case relay.TypeReadReceipt:
		var c relay.ReadReceipt
		if err := decode(env.Data, &c); err != nil {
			return nil, relay.ErrInvalidPayload
		}
		return c, nil
	}
	return nil, relay.ErrInvalidPayload
}

func decode(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return websocket.ErrInvalidMessage
	}
	return json.Unmarshal(data, v)
}

func ackBearing(t relay.EventType) bool {
	return t != relay.TypeSetTyping && t != relay.TypeReadReceipt
}

func knownType(t relay.EventType) bool {
	switch t {
	case relay.TypeEstablishIdentity, relay.TypeJoinRoom, relay.TypeLeaveRoom,
		relay.TypeSendMessage, relay.TypeSendPrivateMessage, relay.TypeSetTyping, relay.TypeReadReceipt:
		return true
	}
	return false
}
