package handlers

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"github.com/thereayou/presence-relay/internal/handlers/dto"
	"github.com/thereayou/presence-relay/internal/relay"
)

// GetUsers returns the roster of identified connections sorted by name.
func (h *HTTPMessageHandler) GetUsers(c *gin.Context) {
	users := lo.Map(h.dispatcher.ConnectedIdentities(), func(i relay.Identity, _ int) dto.UserInfo {
		return dto.UserInfo{ConnectionID: i.ConnectionID, DisplayName: i.DisplayName}
	})
	sort.Slice(users, func(i, j int) bool {
		if users[i].DisplayName == users[j].DisplayName {
			return users[i].ConnectionID < users[j].ConnectionID
		}
		return users[i].DisplayName < users[j].DisplayName
	})

	c.JSON(http.StatusOK, dto.UsersResponse{Users: users})
}
