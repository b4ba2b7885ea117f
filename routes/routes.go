package routes

import (
	"log"
	"net/http"

	"kingofdiamonds/handlers"
	"kingofdiamonds/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // origin policy is enforced by the CORS middleware
	},
}

func SetupRoutes(router *gin.Engine, roomHandler *handlers.RoomHandler, hub *services.Hub) {
	api := router.Group("/api")
	{
		api.POST("/create-room", roomHandler.CreateRoom)
		api.POST("/join-room", roomHandler.JoinRoom)
		api.GET("/room/:roomId", roomHandler.RoomInfo)
		api.GET("/room/:roomId/qr", roomHandler.RoomQR)
		api.GET("/stats", roomHandler.Stats)
	}

	// WebSocket endpoint for all game traffic. Players identify themselves
	// with a joinRoom event after connecting, so the URL carries nothing.
	router.GET("/ws", func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("WebSocket upgrade failed: %v", err)
			return
		}
		hub.RegisterClient(conn)
	})

	router.GET("/health", roomHandler.Health)
}
