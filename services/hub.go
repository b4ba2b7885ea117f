package services

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Hub owns the websocket connections and routes game events between
// clients and their rooms. It is the only Broadcaster implementation in
// production; the registry and rooms never touch sockets directly.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
	registry   *Registry
}

// Client is one websocket connection. Until a joinRoom event attaches it
// to a room, the connection carries only its transport-level connID.
type Client struct {
	hub      *Hub
	connID   string
	playerID string
	socket   *websocket.Conn
	send     chan []byte
	roomID   string
}

// Message is the wire envelope for every event in both directions.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type outMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

type joinRoomPayload struct {
	RoomID   string `json:"roomId"`
	PlayerID string `json:"playerId"`
}

type togglePayload struct {
	Enabled bool `json:"enabled"`
}

type choicePayload struct {
	Choice float64 `json:"choice"`
}

func NewHub(registry *Registry) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		registry:   registry,
	}
}

// SetRegistry wires the registry in after construction. The hub and the
// registry reference each other, so one of them has to be attached late.
func (h *Hub) SetRegistry(registry *Registry) {
	h.registry = registry
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mutex.Unlock()
			log.Printf("Client connected: %s - Total clients: %d", client.connID, total)

		case client := <-h.unregister:
			h.mutex.Lock()
			_, ok := h.clients[client]
			if ok {
				delete(h.clients, client)
				close(client.send)
			}
			total := len(h.clients)
			h.mutex.Unlock()
			if ok {
				log.Printf("Client disconnected: %s - Total clients: %d", client.connID, total)
				h.handleDisconnect(client)
			}
		}
	}
}

// handleDisconnect runs the departure flow: the room decides whether the
// player is deleted, proxied, or ends the game, and the hub relays the
// roster change.
func (h *Hub) handleDisconnect(client *Client) {
	if client.playerID == "" {
		return
	}
	room, ok := h.registry.RoomFor(client.playerID)
	if !ok {
		return
	}

	roomEmpty := room.RemovePlayer(client.playerID)
	h.registry.UnbindPlayer(client.playerID)

	if roomEmpty {
		h.registry.RemoveRoom(room.ID)
		return
	}

	h.BroadcastToRoom(room.ID, "playerLeft", map[string]interface{}{
		"playerId": client.playerID,
		"players":  room.PlayersInfo(false),
	})
}

// BroadcastToRoom sends one event to every client in a room.
func (h *Hub) BroadcastToRoom(roomID, event string, payload interface{}) {
	data, err := json.Marshal(outMessage{Type: event, Payload: payload})
	if err != nil {
		log.Printf("Error marshaling %s broadcast: %v", event, err)
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()
	for client := range h.clients {
		if client.roomID != roomID {
			continue
		}
		select {
		case client.send <- data:
		default:
			log.Printf("Client %s send buffer full, dropping connection", client.playerID)
			close(client.send)
			delete(h.clients, client)
		}
	}
}

// SendToPlayer sends one event to a single client.
func (h *Hub) SendToPlayer(playerID, event string, payload interface{}) {
	data, err := json.Marshal(outMessage{Type: event, Payload: payload})
	if err != nil {
		log.Printf("Error marshaling %s message: %v", event, err)
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()
	for client := range h.clients {
		if client.playerID != playerID {
			continue
		}
		select {
		case client.send <- data:
		default:
			close(client.send)
			delete(h.clients, client)
		}
		return
	}
}

// ConnectedPlayers lists the player IDs with a live socket in the room.
func (h *Hub) ConnectedPlayers(roomID string) []string {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	var ids []string
	for client := range h.clients {
		if client.roomID == roomID {
			ids = append(ids, client.playerID)
		}
	}
	return ids
}

// RegisterClient attaches a new connection and starts its pumps.
func (h *Hub) RegisterClient(conn *websocket.Conn) *Client {
	client := &Client{
		hub:    h,
		connID: uuid.NewString(),
		socket: conn,
		send:   make(chan []byte, 256),
	}

	h.register <- client

	go client.writePump()
	go client.readPump()

	return client
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.socket.Close()
	}()

	for {
		_, raw, err := c.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Printf("Error unmarshaling message from %s: %v", c.connID, err)
			continue
		}

		c.dispatch(msg)
	}
}

// dispatch isolates message handling so a panic in one event cannot take
// down the connection's read loop.
func (c *Client) dispatch(msg Message) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic handling %q from %s: %v", msg.Type, c.connID, r)
		}
	}()
	c.handleMessage(msg)
}

func (c *Client) writePump() {
	defer c.socket.Close()

	for message := range c.send {
		w, err := c.socket.NextWriter(websocket.TextMessage)
		if err != nil {
			return
		}
		w.Write(message)
		if err := w.Close(); err != nil {
			return
		}
	}
	c.socket.WriteMessage(websocket.CloseMessage, []byte{})
}

func (c *Client) handleMessage(msg Message) {
	switch msg.Type {
	case "ping":
		c.sendEvent("pong", nil)

	case "joinRoom":
		var p joinRoomPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			c.sendError("Invalid join payload")
			return
		}
		c.handleJoinRoom(p)

	case "startGame":
		c.handleStartGame()

	case "toggleBotAssignment":
		var p togglePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			c.sendError("Invalid toggle payload")
			return
		}
		c.handleToggleBotAssignment(p.Enabled)

	case "makeChoice":
		var p choicePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			c.sendError("Invalid choice payload")
			return
		}
		c.handleMakeChoice(p.Choice)

	case "playerReady":
		c.handlePlayerReady()

	case "getRoomInfo":
		c.handleGetRoomInfo()

	default:
		log.Printf("Unknown message type %q from %s", msg.Type, c.playerID)
	}
}

// handleJoinRoom attaches the socket to a membership minted by the HTTP
// create/join endpoints: the room must exist and already know the player.
func (c *Client) handleJoinRoom(p joinRoomPayload) {
	if c.roomID != "" {
		c.sendError("Already in a room")
		return
	}

	room, exists := c.hub.registry.Room(p.RoomID)
	if !exists || !room.HasPlayer(p.PlayerID) {
		c.sendError("Room not found")
		return
	}

	c.playerID = p.PlayerID
	c.roomID = room.ID
	c.hub.registry.BindPlayer(c.playerID, room.ID)
	log.Printf("Player %s joined room %s", c.playerID, room.ID)

	snapshot := room.Snapshot(c.playerID)
	snapshot["playerId"] = c.playerID
	c.sendEvent("roomJoined", snapshot)

	c.hub.BroadcastToRoom(room.ID, "playerJoined", map[string]interface{}{
		"playerId": c.playerID,
		"players":  room.PlayersInfo(false),
	})
}

func (c *Client) handleStartGame() {
	room, ok := c.currentRoom()
	if !ok {
		return
	}
	if room.HostID != c.playerID {
		c.sendError("Only the room creator can start the game")
		return
	}

	if !room.StartGame() {
		c.sendError("Cannot start game")
		return
	}
	c.hub.BroadcastToRoom(room.ID, "gameStarting", map[string]interface{}{
		"players": room.PlayersInfo(false),
	})
}

func (c *Client) handleToggleBotAssignment(enabled bool) {
	room, ok := c.currentRoom()
	if !ok {
		return
	}
	if room.HostID != c.playerID {
		c.sendError("Only the room creator can change this setting")
		return
	}
	if err := room.SetBotAssignmentEnabled(enabled); err != nil {
		c.sendError(err.Error())
		return
	}
	c.hub.BroadcastToRoom(room.ID, "botAssignmentChanged", map[string]interface{}{
		"enabled": enabled,
	})
}

func (c *Client) handleMakeChoice(raw float64) {
	room, ok := c.currentRoom()
	if !ok {
		return
	}
	choice, err := ValidateChoice(raw)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	if !room.MakeChoice(c.playerID, choice) {
		c.sendError("Cannot make a choice right now")
		return
	}
	c.sendEvent("choiceConfirmed", map[string]interface{}{
		"choice": choice,
	})
}

func (c *Client) handlePlayerReady() {
	room, ok := c.currentRoom()
	if !ok {
		return
	}
	room.PlayerReady(c.playerID)
}

func (c *Client) handleGetRoomInfo() {
	room, ok := c.currentRoom()
	if !ok {
		return
	}
	c.sendEvent("roomInfo", room.Snapshot(c.playerID))
}

func (c *Client) currentRoom() (*Room, bool) {
	if c.roomID == "" {
		c.sendError("Not in a room")
		return nil, false
	}
	room, ok := c.hub.registry.Room(c.roomID)
	if !ok {
		c.sendError("Room not found")
		return nil, false
	}
	return room, ok
}

func (c *Client) sendEvent(event string, payload interface{}) {
	data, err := json.Marshal(outMessage{Type: event, Payload: payload})
	if err != nil {
		log.Printf("Error marshaling %s message: %v", event, err)
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func (c *Client) sendError(message string) {
	c.sendEvent("error", map[string]interface{}{"message": message})
}
