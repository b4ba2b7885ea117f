package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry() (*Registry, *fakeBroadcaster) {
	fb := &fakeBroadcaster{}
	return NewRegistry(DefaultRoomConfig(), fb), fb
}

func TestGenerateRoomIDFormat(t *testing.T) {
	reg, _ := newTestRegistry()
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := reg.GenerateRoomID()
		assert.True(t, ValidRoomID(id), "generated ID %q", id)
		seen[id] = true
	}
	assert.Greater(t, len(seen), 90, "IDs should be effectively unique")
}

func TestCreateAndLookupRoom(t *testing.T) {
	reg, _ := newTestRegistry()

	room := reg.CreateRoom("ABC123", "host1")
	require.NotNil(t, room)
	assert.Equal(t, "ABC123", room.ID)
	assert.Equal(t, "host1", room.HostID)

	found, ok := reg.Room("ABC123")
	require.True(t, ok)
	assert.Same(t, room, found)

	_, ok = reg.Room("ZZZ999")
	assert.False(t, ok)
}

func TestPlayerBindings(t *testing.T) {
	reg, _ := newTestRegistry()
	room := reg.CreateRoom("ABC123", "host1")
	room.AddPlayer("host1", "Alice", false)
	reg.BindPlayer("host1", "ABC123")

	found, ok := reg.RoomFor("host1")
	require.True(t, ok)
	assert.Same(t, room, found)

	reg.UnbindPlayer("host1")
	_, ok = reg.RoomFor("host1")
	assert.False(t, ok)
}

func TestRemoveRoomDropsBindings(t *testing.T) {
	reg, _ := newTestRegistry()
	reg.CreateRoom("ABC123", "host1")
	reg.BindPlayer("host1", "ABC123")
	reg.BindPlayer("p2", "ABC123")

	reg.RemoveRoom("ABC123")

	assert.Equal(t, 0, reg.RoomCount())
	_, ok := reg.RoomFor("host1")
	assert.False(t, ok)
	_, ok = reg.RoomFor("p2")
	assert.False(t, ok)
}

func TestSweepRemovesBotOnlyRooms(t *testing.T) {
	reg, _ := newTestRegistry()

	abandoned := reg.CreateRoom("BOTS01", "host1")
	abandoned.AddPlayer("b1", BotNames[0], true)
	abandoned.AddPlayer("b2", BotNames[1], true)

	occupied := reg.CreateRoom("HUMAN1", "host2")
	occupied.AddPlayer("host2", "Alice", false)

	empty := reg.CreateRoom("EMPTY1", "host3")

	reg.sweep()

	_, ok := reg.Room("BOTS01")
	assert.False(t, ok, "bot-only room should be swept")
	_, ok = reg.Room("HUMAN1")
	assert.True(t, ok, "room with a human survives")
	_, ok = reg.Room("EMPTY1")
	assert.True(t, ok, "empty room is left for the join flow")
	_ = empty
}

func TestStats(t *testing.T) {
	reg, _ := newTestRegistry()

	r1 := reg.CreateRoom("ABC123", "host1")
	r1.AddPlayer("host1", "Alice", false)
	r1.AddPlayer("p2", "Carol", false)
	reg.BindPlayer("host1", "ABC123")

	r2 := reg.CreateRoom("DEF456", "host2")
	r2.AddPlayer("host2", "Dave", false)

	stats := reg.Stats()
	assert.Equal(t, 2, stats["totalRooms"])
	assert.Equal(t, 3, stats["totalPlayers"])
	assert.Equal(t, 0, stats["activeGames"])
	assert.Equal(t, 1, stats["boundPlayers"])
}
