package services

import (
	"log"
	"math/rand"
	"strings"
	"sync"
	"time"
)

const roomIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateRoomID produces a six-character room code, retrying on the
// (unlikely) collision with an existing room.
func (reg *Registry) GenerateRoomID() string {
	for {
		var b strings.Builder
		for i := 0; i < 6; i++ {
			b.WriteByte(roomIDAlphabet[rand.Intn(len(roomIDAlphabet))])
		}
		id := b.String()
		if _, exists := reg.Room(id); !exists {
			return id
		}
	}
}

// Registry is the in-memory directory of rooms and the player-to-room
// index. Everything lives here for the lifetime of the process; there is
// no persistence behind it.
type Registry struct {
	mu          sync.RWMutex
	rooms       map[string]*Room
	playerRooms map[string]string // playerID -> roomID
	config      RoomConfig
	broadcaster Broadcaster
	stopSweep   chan struct{}
	sweepOnce   sync.Once
}

func NewRegistry(cfg RoomConfig, broadcaster Broadcaster) *Registry {
	return &Registry{
		rooms:       make(map[string]*Room),
		playerRooms: make(map[string]string),
		config:      cfg,
		broadcaster: broadcaster,
		stopSweep:   make(chan struct{}),
	}
}

// CreateRoom registers a new room with the given host. The caller supplies
// the room ID so HTTP room creation and first-join can share the code path.
func (reg *Registry) CreateRoom(roomID, hostID string) *Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	room := NewRoom(roomID, hostID, reg.config, reg.broadcaster)
	reg.rooms[roomID] = room
	log.Printf("[Registry] Created room %s (host %s)", roomID, hostID)
	return room
}

// Room looks a room up by ID.
func (reg *Registry) Room(roomID string) (*Room, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	room, ok := reg.rooms[roomID]
	return room, ok
}

// RoomFor resolves the room a player currently belongs to.
func (reg *Registry) RoomFor(playerID string) (*Room, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	roomID, ok := reg.playerRooms[playerID]
	if !ok {
		return nil, false
	}
	room, ok := reg.rooms[roomID]
	return room, ok
}

// BindPlayer records which room a player belongs to.
func (reg *Registry) BindPlayer(playerID, roomID string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.playerRooms[playerID] = roomID
}

// UnbindPlayer drops the player's room association.
func (reg *Registry) UnbindPlayer(playerID string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	delete(reg.playerRooms, playerID)
}

// RemoveRoom closes the room's timers and deletes it along with every
// player binding pointing at it.
func (reg *Registry) RemoveRoom(roomID string) {
	reg.mu.Lock()
	room, ok := reg.rooms[roomID]
	if ok {
		delete(reg.rooms, roomID)
		for playerID, id := range reg.playerRooms {
			if id == roomID {
				delete(reg.playerRooms, playerID)
			}
		}
	}
	reg.mu.Unlock()

	if ok {
		room.Close()
		log.Printf("[Registry] Removed room %s", roomID)
	}
}

// RoomCount reports the number of live rooms.
func (reg *Registry) RoomCount() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.rooms)
}

// Stats summarizes the registry for the monitoring endpoint.
func (reg *Registry) Stats() map[string]interface{} {
	reg.mu.RLock()
	rooms := make([]*Room, 0, len(reg.rooms))
	for _, room := range reg.rooms {
		rooms = append(rooms, room)
	}
	boundPlayers := len(reg.playerRooms)
	reg.mu.RUnlock()

	totalPlayers := 0
	activeGames := 0
	for _, room := range rooms {
		totalPlayers += room.PlayerCount()
		if room.State() == StatePlaying || room.State() == StateCountdown {
			activeGames++
		}
	}

	return map[string]interface{}{
		"totalRooms":   len(rooms),
		"totalPlayers": totalPlayers,
		"activeGames":  activeGames,
		"boundPlayers": boundPlayers,
	}
}

// StartSweeper launches the periodic cleanup of abandoned rooms: any room
// with no human players left (original humans included, proxied or not)
// is closed and deleted.
func (reg *Registry) StartSweeper(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-reg.stopSweep:
				return
			case <-ticker.C:
				reg.sweep()
			}
		}
	}()
}

// StopSweeper halts the cleanup goroutine.
func (reg *Registry) StopSweeper() {
	reg.sweepOnce.Do(func() { close(reg.stopSweep) })
}

func (reg *Registry) sweep() {
	reg.mu.RLock()
	candidates := make([]string, 0)
	for id, room := range reg.rooms {
		if room.PlayerCount() > 0 && room.HumanCount() == 0 {
			candidates = append(candidates, id)
		}
	}
	reg.mu.RUnlock()

	for _, id := range candidates {
		log.Printf("[Registry] Sweeping bot-only room %s", id)
		reg.RemoveRoom(id)
	}
}
