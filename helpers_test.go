package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testConfig() *Config {
	return &Config{
		gracePeriod: 25 * time.Millisecond,
	}
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()

	bank, err := parseWordBank(embeddedWords)
	require.NoError(t, err)

	return newRegistry(testConfig(), bank)
}

// newTestClient builds a connection-less client; tests read outbound
// events straight off the send channel instead of running the pumps.
func newTestClient() *Client {
	return &Client{
		send: make(chan any, 64),
		id:   newConnID(),
	}
}

// drain empties the client's queue, returning everything received so far.
func drain(c *Client) []any {
	var msgs []any
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return msgs
			}
			msgs = append(msgs, msg)
		default:
			return msgs
		}
	}
}

func lastOfType[T any](msgs []any) (T, bool) {
	var found T
	ok := false
	for _, m := range msgs {
		if v, isT := m.(T); isT {
			found = v
			ok = true
		}
	}
	return found, ok
}

// setupRoom creates a room with the first name as host and joins the
// rest, returning the room and one client per name.
func setupRoom(t *testing.T, reg *Registry, names ...string) (*Room, []*Client) {
	t.Helper()

	require.NotEmpty(t, names)

	clients := make([]*Client, len(names))
	clients[0] = newTestClient()
	reg.CreateRoom(clients[0], names[0], "token-"+names[0])

	code := clients[0].currentRoom()
	require.NotEmpty(t, code)

	for i := 1; i < len(names); i++ {
		clients[i] = newTestClient()
		reg.JoinRoom(clients[i], code, names[i], "token-"+names[i])
		require.Equal(t, code, clients[i].currentRoom())
	}

	room := reg.Get(code)
	require.NotNil(t, room)

	return room, clients
}

// startedGame drains each client's queue and returns its gameStarted
// payload, keyed by connection id.
func startedGame(t *testing.T, clients []*Client) map[string]GameStartedMessage {
	t.Helper()

	payloads := make(map[string]GameStartedMessage, len(clients))
	for _, c := range clients {
		msg, ok := lastOfType[GameStartedMessage](drain(c))
		require.True(t, ok, "client %s never received a gameStarted payload", c.id)
		payloads[c.id] = msg
	}
	return payloads
}

// impostorSet returns a copy of the room's current impostor ids.
func impostorSet(r *Room) map[string]bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := make(map[string]bool, len(r.impostors))
	for id := range r.impostors {
		set[id] = true
	}
	return set
}

func roomPhase(r *Room) Phase {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.phase
}

func roomPlayers(r *Room) []Player {
	r.mu.RLock()
	defer r.mu.RUnlock()

	players := make([]Player, 0, len(r.players))
	for _, p := range r.players {
		players = append(players, *p)
	}
	return players
}
