package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartRequiresHost(t *testing.T) {
	reg := newTestRegistry(t)
	room, clients := setupRoom(t, reg, "alice", "bob", "carol")

	room.Start(clients[1], 1)

	msg, ok := lastOfType[SimpleMessage](drain(clients[1]))
	require.True(t, ok)
	assert.Equal(t, ErrUnauthorized.Error(), msg.Message)
	assert.Equal(t, PhaseLobby, roomPhase(room))
}

func TestStartRequiresThreePlayers(t *testing.T) {
	reg := newTestRegistry(t)
	room, clients := setupRoom(t, reg, "alice", "bob")

	room.Start(clients[0], 1)

	msg, ok := lastOfType[SimpleMessage](drain(clients[0]))
	require.True(t, ok)
	assert.Equal(t, ErrInsufficientPlayers.Error(), msg.Message)
	assert.Equal(t, PhaseLobby, roomPhase(room))

	// The rejection stays with the originating connection.
	_, sawError := lastOfType[SimpleMessage](drain(clients[1]))
	assert.False(t, sawError)
}

func TestStartRequiresEveryPlayerReady(t *testing.T) {
	reg := newTestRegistry(t)
	room, clients := setupRoom(t, reg, "alice", "bob", "carol")

	room.mu.Lock()
	room.players[2].Ready = false
	room.mu.Unlock()

	room.Start(clients[0], 1)

	msg, ok := lastOfType[SimpleMessage](drain(clients[0]))
	require.True(t, ok)
	assert.Equal(t, ErrPlayersNotReady.Error(), msg.Message)
	assert.Equal(t, PhaseLobby, roomPhase(room))

	room.MarkReady(clients[2])
	room.Start(clients[0], 1)
	assert.Equal(t, PhasePlaying, roomPhase(room))
}

func TestStartAssignsImpostorsAndPayloads(t *testing.T) {
	reg := newTestRegistry(t)
	room, clients := setupRoom(t, reg, "a", "b", "c", "d", "e")

	room.Start(clients[0], 2)
	require.Equal(t, PhasePlaying, roomPhase(room))

	impostors := impostorSet(room)
	require.Len(t, impostors, 2)

	ids := make(map[string]bool)
	for _, p := range roomPlayers(room) {
		ids[p.ID] = true
		assert.False(t, p.Ready, "ready flags are cleared on start")
	}
	for id := range impostors {
		assert.True(t, ids[id], "impostor %s is not a current player", id)
	}

	payloads := startedGame(t, clients)
	for id, payload := range payloads {
		if impostors[id] {
			assert.Equal(t, RoleImpostor, payload.Role)
			assert.Empty(t, payload.Word, "impostors never see the word")
			assert.NotEmpty(t, payload.Hint, "hints are on by default")
		} else {
			assert.Equal(t, RoleCivilian, payload.Role)
			assert.NotEmpty(t, payload.Word)
			assert.NotEmpty(t, payload.Category)
			assert.Empty(t, payload.Hint, "civilians never get a hint")
		}
	}
}

func TestStartClampsRequestedImpostorCount(t *testing.T) {
	reg := newTestRegistry(t)
	room, clients := setupRoom(t, reg, "alice", "bob", "carol")

	room.Start(clients[0], 10)

	assert.Len(t, impostorSet(room), 2)
}

func TestStartWithHintsDisabled(t *testing.T) {
	reg := newTestRegistry(t)
	room, clients := setupRoom(t, reg, "alice", "bob", "carol")

	off := false
	room.UpdateSettings(clients[0], 0, &off)
	room.Start(clients[0], 1)

	impostors := impostorSet(room)
	for id, payload := range startedGame(t, clients) {
		if impostors[id] {
			assert.Empty(t, payload.Hint)
		}
	}
}

func TestThreePlayerRound(t *testing.T) {
	reg := newTestRegistry(t)
	room, clients := setupRoom(t, reg, "A", "B", "C")

	room.Start(clients[0], 1)

	impostors := impostorSet(room)
	require.Len(t, impostors, 1)

	var civilianWord, civilianCategory string
	civilians := 0
	for id, payload := range startedGame(t, clients) {
		if impostors[id] {
			continue
		}
		civilians++
		if civilianWord == "" {
			civilianWord = payload.Word
			civilianCategory = payload.Category
			continue
		}
		assert.Equal(t, civilianWord, payload.Word, "civilians share one word")
		assert.Equal(t, civilianCategory, payload.Category)
	}
	assert.Equal(t, 2, civilians)
	assert.NotEmpty(t, civilianWord)
}

func TestStartVotingIsExplicit(t *testing.T) {
	reg := newTestRegistry(t)
	room, clients := setupRoom(t, reg, "alice", "bob", "carol")

	room.Start(clients[0], 1)
	require.Equal(t, PhasePlaying, roomPhase(room))

	// Any room member may trigger the transition, but outsiders may not.
	stranger := newTestClient()
	room.StartVoting(stranger)
	assert.Equal(t, PhasePlaying, roomPhase(room))

	room.StartVoting(clients[1])
	assert.Equal(t, PhaseVoting, roomPhase(room))

	phase, ok := lastOfType[PhaseMessage](drain(clients[2]))
	require.True(t, ok)
	assert.Equal(t, PhaseVoting, phase.Phase)
}

func TestStartRejectedOutsideLobby(t *testing.T) {
	reg := newTestRegistry(t)
	room, clients := setupRoom(t, reg, "alice", "bob", "carol")

	room.Start(clients[0], 1)
	drain(clients[0])

	room.Start(clients[0], 1)

	msg, ok := lastOfType[SimpleMessage](drain(clients[0]))
	require.True(t, ok)
	assert.Equal(t, ErrGameAlreadyStarted.Error(), msg.Message)
}
