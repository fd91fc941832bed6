package handlers

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"github.com/thereayou/presence-relay/internal/handlers/dto"
)

// GetRooms lists rooms that currently have members.
func (h *HTTPMessageHandler) GetRooms(c *gin.Context) {
	rooms := lo.MapToSlice(h.dispatcher.Rooms(), func(name string, members int) dto.RoomInfo {
		return dto.RoomInfo{Name: name, Members: members}
	})
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].Name < rooms[j].Name })

	c.JSON(http.StatusOK, dto.RoomsResponse{Rooms: rooms})
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
