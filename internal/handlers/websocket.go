package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/thereayou/presence-relay/internal/relay"
	ws "github.com/thereayou/presence-relay/internal/websocket"
)

// WebSocketHandler upgrades HTTP requests and wires each socket into the dispatcher.
type WebSocketHandler struct {
	dispatcher     *relay.Dispatcher
	messageHandler *MessageHandler
	upgrader       websocket.Upgrader
	bufferSize     int
	log            *slog.Logger
}

func NewWebSocketHandler(dispatcher *relay.Dispatcher, messageHandler *MessageHandler, bufferSize int, checkOrigin bool, log *slog.Logger) *WebSocketHandler {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
	if !checkOrigin {
		upgrader.CheckOrigin = func(r *http.Request) bool { return true }
	}
	return &WebSocketHandler{
		dispatcher:     dispatcher,
		messageHandler: messageHandler,
		upgrader:       upgrader,
		bufferSize:     bufferSize,
		log:            log,
	}
}

func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Debug("WebSocket upgrade failed", "error", err)
		return
	}

	client := ws.NewClient(conn, h.bufferSize, h.log)
	if err := h.dispatcher.Connect(client); err != nil {
		h.log.Error("Failed to register connection", "connection_id", client.ID(), "error", err)
		_ = conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump(h.messageHandler)
}
