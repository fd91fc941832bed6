package main

import (
	"github.com/gin-gonic/gin"
	"github.com/thereayou/presence-relay/internal/handlers"
)

func APIEndpoints(r *gin.Engine, wsH *handlers.WebSocketHandler, msgH *handlers.HTTPMessageHandler) {
	r.GET("/health", handlers.Health)
	r.GET("/ws", wsH.HandleWebSocket)

	api := r.Group("/api/v1")
	{
		api.GET("/messages", msgH.GetMessages)
		api.GET("/users", msgH.GetUsers)
		api.GET("/rooms", msgH.GetRooms)
	}
}
