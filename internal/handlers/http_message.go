package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"github.com/thereayou/presence-relay/internal/handlers/dto"
	"github.com/thereayou/presence-relay/internal/relay"
)

// HTTPMessageHandler serves read-only snapshots for clients hydrating state.
type HTTPMessageHandler struct {
	dispatcher *relay.Dispatcher
}

func NewHTTPMessageHandler(dispatcher *relay.Dispatcher) *HTTPMessageHandler {
	return &HTTPMessageHandler{dispatcher: dispatcher}
}

// GetMessages returns the public part of the message log, oldest first.
// Private messages are never served over HTTP.
func (h *HTTPMessageHandler) GetMessages(c *gin.Context) {
	room := c.Query("room")

	messages := lo.Filter(h.dispatcher.RecentMessages(), func(m relay.Message, _ int) bool {
		if m.IsPrivate {
			return false
		}
		return room == "" || (m.Room != nil && *m.Room == room)
	})

	if l := c.Query("limit"); l != "" {
		limit, err := strconv.Atoi(l)
		if err != nil || limit <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		if limit < len(messages) {
			messages = messages[len(messages)-limit:]
		}
	}

	c.JSON(http.StatusOK, dto.MessagesResponse{
		Messages: lo.Map(messages, func(m relay.Message, _ int) dto.MessageResponse {
			return formatMessageResponse(m)
		}),
	})
}

func formatMessageResponse(msg relay.Message) dto.MessageResponse {
	return dto.MessageResponse{
		ID:                 msg.ID,
		Text:               msg.Text,
		Sender:             msg.Sender,
		SenderConnectionID: msg.SenderConnectionID,
		Room:               msg.Room,
		Timestamp:          msg.Timestamp,
	}
}
