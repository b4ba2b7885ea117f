package handlers

import (
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"time"

	"kingofdiamonds/config"
	"kingofdiamonds/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"
)

var startTime = time.Now()

type RoomHandler struct {
	registry *services.Registry
	hub      *services.Hub
	cfg      *config.Config
}

func NewRoomHandler(registry *services.Registry, hub *services.Hub, cfg *config.Config) *RoomHandler {
	return &RoomHandler{
		registry: registry,
		hub:      hub,
		cfg:      cfg,
	}
}

type createRoomRequest struct {
	PlayerName string `json:"playerName" binding:"required"`
}

// CreateRoom makes a new room with the caller as host. The returned
// playerId is the credential the client presents over the websocket.
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Player name is required"})
		return
	}
	name, err := services.ValidatePlayerName(req.PlayerName)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	roomID := h.registry.GenerateRoomID()
	playerID := uuid.NewString()

	room := h.registry.CreateRoom(roomID, playerID)
	room.AddPlayer(playerID, name, false)

	c.JSON(http.StatusOK, gin.H{"roomId": roomID, "playerId": playerID})
}

type joinRoomRequest struct {
	RoomID     string `json:"roomId" binding:"required"`
	PlayerName string `json:"playerName" binding:"required"`
}

// JoinRoom adds a player to an existing waiting room and hands back the
// playerId for the websocket attach.
func (h *RoomHandler) JoinRoom(c *gin.Context) {
	var req joinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Room ID and player name are required"})
		return
	}
	roomID := strings.ToUpper(req.RoomID)
	if !services.ValidRoomID(roomID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid room ID format"})
		return
	}
	name, err := services.ValidatePlayerName(req.PlayerName)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	room, exists := h.registry.Room(roomID)
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
		return
	}
	if room.State() != services.StateWaiting {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Game already in progress"})
		return
	}

	playerID := uuid.NewString()
	if !room.AddPlayer(playerID, name, false) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Room is full"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"playerId": playerID})
}

// RoomInfo returns a public view of one room.
func (h *RoomHandler) RoomInfo(c *gin.Context) {
	roomID := c.Param("roomId")
	room, exists := h.registry.Room(roomID)
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
		return
	}

	chosen, total := room.ChoiceProgress()
	info := gin.H{
		"roomId":               room.ID,
		"gameState":            room.State(),
		"currentRound":         room.CurrentRound(),
		"players":              room.PlayersInfo(false),
		"activeRules":          room.ActiveRules(),
		"botAssignmentEnabled": room.BotAssignmentEnabled(),
		"choiceProgress":       gin.H{"chosen": chosen, "total": total},
	}
	if h.hub != nil {
		info["connectedPlayers"] = len(h.hub.ConnectedPlayers(room.ID))
	}
	c.JSON(http.StatusOK, info)
}

// RoomQR renders a PNG QR code pointing at the room's join URL, for
// sharing a lobby across devices.
func (h *RoomHandler) RoomQR(c *gin.Context) {
	roomID := c.Param("roomId")
	if !services.ValidRoomID(roomID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid room ID format"})
		return
	}

	joinURL := fmt.Sprintf("%s/join/%s", h.cfg.PublicURL, roomID)
	png, err := qrcode.Encode(joinURL, qrcode.Medium, 256)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate QR code"})
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}

// Stats exposes registry counters for monitoring.
func (h *RoomHandler) Stats(c *gin.Context) {
	stats := h.registry.Stats()
	stats["timestamp"] = time.Now().UnixMilli()
	c.JSON(http.StatusOK, stats)
}

// Health is the liveness probe.
func (h *RoomHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"uptime":     time.Since(startTime).String(),
		"rooms":      h.registry.RoomCount(),
		"goroutines": runtime.NumGoroutine(),
	})
}
