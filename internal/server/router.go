package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/acadmate/livechat/internal/handlers"
)

func APIEndpoints(r *gin.Engine, wsH *handlers.WebSocketHandler) {
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "livechat gateway", "status": "running"})
	})

	// Duplex event transport
	r.GET("/ws", wsH.HandleWebSocket)
}
