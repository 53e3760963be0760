package main

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateRoomIssuesUniqueCodes(t *testing.T) {
	reg := newTestRegistry(t)

	codePattern := regexp.MustCompile(`^[A-Z]{4}$`)
	seen := make(map[string]bool)

	for i := 0; i < 50; i++ {
		c := newTestClient()
		reg.CreateRoom(c, "host", "token")

		code := c.currentRoom()
		require.Regexp(t, codePattern, code)
		require.False(t, seen[code], "room code %s issued twice", code)
		seen[code] = true

		msg, ok := lastOfType[RoomJoinedMessage](drain(c))
		require.True(t, ok)
		assert.Equal(t, "roomCreated", msg.Type)
		assert.Equal(t, code, msg.RoomCode)
		assert.Equal(t, c.id, msg.PlayerID)
		assert.True(t, msg.IsHost)
	}
}

func TestJoinRoomNotFound(t *testing.T) {
	reg := newTestRegistry(t)

	c := newTestClient()
	reg.JoinRoom(c, "ZZZZ", "bob", "token-bob")

	msg, ok := lastOfType[SimpleMessage](drain(c))
	require.True(t, ok)
	assert.Equal(t, "error", msg.Type)
	assert.Equal(t, ErrRoomNotFound.Error(), msg.Message)
	assert.Empty(t, c.currentRoom())
}

func TestJoinRoomNameTaken(t *testing.T) {
	reg := newTestRegistry(t)
	room, clients := setupRoom(t, reg, "alice")

	dup := newTestClient()
	reg.JoinRoom(dup, room.code, "alice", "token-dup")

	msg, ok := lastOfType[SimpleMessage](drain(dup))
	require.True(t, ok)
	assert.Equal(t, ErrNameTaken.Error(), msg.Message)
	assert.Len(t, roomPlayers(room), 1)

	// The rejection is reported only to the offending connection.
	_, sawError := lastOfType[SimpleMessage](drain(clients[0]))
	assert.False(t, sawError)
}

func TestJoinRoomAfterStartRejected(t *testing.T) {
	reg := newTestRegistry(t)
	room, clients := setupRoom(t, reg, "alice", "bob", "carol")

	room.Start(clients[0], 1)
	require.Equal(t, PhasePlaying, roomPhase(room))

	late := newTestClient()
	reg.JoinRoom(late, room.code, "dave", "token-dave")

	msg, ok := lastOfType[SimpleMessage](drain(late))
	require.True(t, ok)
	assert.Equal(t, ErrGameAlreadyStarted.Error(), msg.Message)
	assert.Len(t, roomPlayers(room), 3)
}

func TestRoomDeletedWhenLastPlayerLeaves(t *testing.T) {
	reg := newTestRegistry(t)
	room, clients := setupRoom(t, reg, "alice")

	room.Leave(clients[0])

	assert.Nil(t, reg.Get(room.code))
	assert.Empty(t, clients[0].currentRoom())
}

func TestJoinRejectedAfterRoomDeleted(t *testing.T) {
	reg := newTestRegistry(t)
	room, clients := setupRoom(t, reg, "alice")

	room.Leave(clients[0])
	require.Nil(t, reg.Get(room.code))

	// A join racing the final leave may still hold the old room value;
	// it must be turned away rather than admitted into a zombie room.
	late := newTestClient()
	err := room.addPlayer(late, "bob", "token-bob")
	assert.ErrorIs(t, err, ErrRoomNotFound)
	assert.Empty(t, roomPlayers(room))
}

func TestJoinBroadcastsRoster(t *testing.T) {
	reg := newTestRegistry(t)
	room, clients := setupRoom(t, reg, "alice", "bob")

	roster, ok := lastOfType[PlayerListMessage](drain(clients[0]))
	require.True(t, ok)
	require.Len(t, roster.Players, 2)
	assert.Equal(t, "alice", roster.Players[0].Name)
	assert.True(t, roster.Players[0].IsHost)
	assert.Equal(t, "bob", roster.Players[1].Name)
	assert.False(t, roster.Players[1].IsHost)

	// A joiner is also synced with the room's current settings.
	settings, ok := lastOfType[SettingsMessage](drain(clients[1]))
	require.True(t, ok)
	assert.Equal(t, room.settings, settings.Settings)
}

func TestReaperEndsIdleRooms(t *testing.T) {
	cfg := testConfig()
	cfg.roomTimeout = 20 * time.Millisecond

	bank, err := parseWordBank(embeddedWords)
	require.NoError(t, err)
	reg := newRegistry(cfg, bank)

	room, _ := setupRoom(t, reg, "alice")

	assert.Eventually(t, func() bool {
		return reg.Get(room.code) == nil
	}, time.Second, 10*time.Millisecond)
}

func TestReaperSurvivesTinyTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.roomTimeout = time.Nanosecond

	bank, err := parseWordBank(embeddedWords)
	require.NoError(t, err)
	reg := newRegistry(cfg, bank)

	room, _ := setupRoom(t, reg, "alice")

	assert.Eventually(t, func() bool {
		return reg.Get(room.code) == nil
	}, time.Second, 5*time.Millisecond)
}
