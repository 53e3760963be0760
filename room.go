package main

import (
	"sync"
	"time"
)

// Phase is the room's current stage in the round lifecycle. Results is
// a broadcast event plus a cached payload, not a phase: finishing a
// round rewinds the room straight to the lobby.
type Phase string

const (
	PhaseLobby      Phase = "lobby"
	PhasePlaying    Phase = "playing"
	PhaseVoting     Phase = "voting"
	PhaseLastChance Phase = "lastChance"
)

const (
	RoleImpostor = "impostor"
	RoleCivilian = "civilian"

	WinnerImpostor  = "impostor"
	WinnerCivilians = "civilians"
)

// Player holds the data we store server-side. ID is the current
// connection id and changes when the player reconnects; SessionToken is
// the durable client-held identifier that survives the swap.
type Player struct {
	ID           string
	Name         string
	SessionToken string
	IsHost       bool
	Ready        bool
	Score        int
}

// Room is an isolated game session. Every mutating handler and timer
// callback runs with mu held for its whole duration, so the aggregate
// is never observed half-updated.
type Room struct {
	code     string
	registry *Registry

	mu      sync.RWMutex
	players []*Player          // insertion order = display/host-assignment order
	clients map[string]*Client // connection id -> client

	phase    Phase
	settings Settings

	category      string
	secretWord    string
	hint          string
	impostors     map[string]bool // connection id -> is impostor
	impostorNames []string        // captured at start, shown in results even if an impostor left
	votes         map[string]string // voter id -> target id, first vote is final

	impostorGuess    *string
	caughtImpostorID string
	lastResults      *GameResults

	creatorToken string
	pending      map[string]*time.Timer // connection id -> grace timer
	defunct      bool                   // emptied or reaped; rejects joins that raced the removal

	createdAt  time.Time
	lastActive time.Time
}

func newRoom(code, creatorToken string, registry *Registry) *Room {
	now := time.Now()
	return &Room{
		code:         code,
		registry:     registry,
		clients:      make(map[string]*Client),
		phase:        PhaseLobby,
		settings:     Settings{ImpostorCount: 1, UseHint: true},
		impostors:    make(map[string]bool),
		votes:        make(map[string]string),
		creatorToken: creatorToken,
		pending:      make(map[string]*time.Timer),
		createdAt:    now,
		lastActive:   now,
	}
}

func (r *Room) touchLocked() {
	r.lastActive = time.Now()
}

// sendLocked delivers msg to one connected client, dropping the client
// if its send buffer is full. Connections already dropped from
// r.clients are skipped, so a reply to one can never hit its closed
// channel.
func (r *Room) sendLocked(c *Client, msg any) {
	if r.clients[c.id] != c {
		return
	}
	select {
	case c.send <- msg:
	default:
		delete(r.clients, c.id)
		close(c.send)
	}
}

func (r *Room) broadcastLocked(msg any) {
	for id, client := range r.clients {
		select {
		case client.send <- msg:
		default:
			delete(r.clients, id)
			close(client.send)
		}
	}
}

func (r *Room) sendToLocked(playerID string, msg any) {
	if client, ok := r.clients[playerID]; ok {
		r.sendLocked(client, msg)
	}
}

func (r *Room) rosterLocked() []PlayerInfo {
	roster := make([]PlayerInfo, 0, len(r.players))
	for _, p := range r.players {
		roster = append(roster, PlayerInfo{
			ID:     p.ID,
			Name:   p.Name,
			IsHost: p.IsHost,
			Ready:  p.Ready,
			Score:  p.Score,
		})
	}
	return roster
}

func (r *Room) broadcastRosterLocked() {
	r.broadcastLocked(PlayerListMessage{
		Type:    "updatePlayerList",
		Players: r.rosterLocked(),
	})
}

func (r *Room) broadcastSettingsLocked() {
	r.broadcastLocked(SettingsMessage{
		Type:     "settingsUpdated",
		Settings: r.settings,
	})
}

func (r *Room) playerByIDLocked(id string) *Player {
	for _, p := range r.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (r *Room) playerByTokenLocked(token string) *Player {
	if token == "" {
		return nil
	}
	for _, p := range r.players {
		if p.SessionToken == token {
			return p
		}
	}
	return nil
}

func (r *Room) hostLocked() *Player {
	for _, p := range r.players {
		if p.IsHost {
			return p
		}
	}
	return nil
}

// clampImpostorsLocked re-clamps the configured impostor count to
// 1 <= count <= max(1, players-1). Returns true if the value changed.
func (r *Room) clampImpostorsLocked() bool {
	maxCount := len(r.players) - 1
	if maxCount < 1 {
		maxCount = 1
	}

	clamped := r.settings.ImpostorCount
	if clamped > maxCount {
		clamped = maxCount
	}
	if clamped < 1 {
		clamped = 1
	}

	if clamped == r.settings.ImpostorCount {
		return false
	}
	r.settings.ImpostorCount = clamped
	return true
}

// addPlayer admits a new player while the room is in the lobby.
func (r *Room) addPlayer(c *Client, name string, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.touchLocked()

	if r.defunct {
		return ErrRoomNotFound
	}
	if r.phase != PhaseLobby {
		return ErrGameAlreadyStarted
	}
	for _, p := range r.players {
		if p.Name == name {
			return ErrNameTaken
		}
	}

	r.players = append(r.players, &Player{
		ID:           c.id,
		Name:         name,
		SessionToken: token,
		IsHost:       len(r.players) == 0,
		Ready:        true,
	})
	r.clients[c.id] = c

	r.sendLocked(c, RoomJoinedMessage{
		Type:     "roomJoined",
		RoomCode: r.code,
		PlayerID: c.id,
		IsHost:   len(r.players) == 1,
	})
	r.sendLocked(c, SettingsMessage{
		Type:     "settingsUpdated",
		Settings: r.settings,
	})
	r.broadcastRosterLocked()

	return nil
}

// UpdateSettings mutates the room options. Host-only, lobby-only; the
// impostor count is re-clamped before broadcasting.
func (r *Room) UpdateSettings(c *Client, impostorCount int, useHint *bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.touchLocked()

	host := r.hostLocked()
	if host == nil || host.ID != c.id {
		r.sendLocked(c, errorMessage(ErrUnauthorized))
		return
	}
	if r.phase != PhaseLobby {
		r.sendLocked(c, errorMessage(ErrGameAlreadyStarted))
		return
	}

	if impostorCount > 0 {
		r.settings.ImpostorCount = impostorCount
	}
	if useHint != nil {
		r.settings.UseHint = *useHint
	}
	r.clampImpostorsLocked()

	r.broadcastSettingsLocked()
}

// MarkReady restores the player's ready flag, re-arming the start gate
// after a finished round.
func (r *Room) MarkReady(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.touchLocked()

	p := r.playerByIDLocked(c.id)
	if p == nil {
		return
	}

	p.Ready = true
	r.broadcastRosterLocked()
}

// Kick forcibly removes a player. Host-only.
func (r *Room) Kick(c *Client, targetID string) {
	r.mu.Lock()
	empty := false
	defer func() {
		r.mu.Unlock()
		if empty {
			r.registry.remove(r.code)
		}
	}()

	r.touchLocked()

	host := r.hostLocked()
	if host == nil || host.ID != c.id {
		r.sendLocked(c, errorMessage(ErrUnauthorized))
		return
	}

	target := r.playerByIDLocked(targetID)
	if target == nil || target.ID == c.id {
		return
	}

	if client, ok := r.clients[targetID]; ok {
		r.sendLocked(client, SimpleMessage{
			Type:    "kicked",
			Message: "You have been removed by the host.",
		})
		if r.clients[targetID] == client {
			delete(r.clients, targetID)
			close(client.send)
		}
		client.setRoom("")
	}

	r.removePlayerLocked(targetID)
	if len(r.players) == 0 {
		r.defunct = true
		empty = true
	}
}

// Leave removes the player immediately, bypassing the grace period.
func (r *Room) Leave(c *Client) {
	r.mu.Lock()
	empty := false
	defer func() {
		r.mu.Unlock()
		if empty {
			r.registry.remove(r.code)
		}
	}()

	r.touchLocked()

	if r.clients[c.id] == c {
		delete(r.clients, c.id)
		close(c.send)
	}
	c.setRoom("")

	r.removePlayerLocked(c.id)
	if len(r.players) == 0 {
		r.defunct = true
		empty = true
	}
}

// removePlayerLocked erases every trace of a player: roster entry, vote
// ledger rows in both directions, impostor membership, and any pending
// grace timer. Host status passes to the oldest remaining player. The
// caller deletes the room from the registry if it ends up empty.
func (r *Room) removePlayerLocked(id string) {
	if timer, ok := r.pending[id]; ok {
		timer.Stop()
		delete(r.pending, id)
	}

	idx := -1
	for i, p := range r.players {
		if p.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return
	}

	wasHost := r.players[idx].IsHost
	r.players = append(r.players[:idx], r.players[idx+1:]...)

	delete(r.impostors, id)
	delete(r.votes, id)
	for voter, target := range r.votes {
		if target == id {
			delete(r.votes, voter)
		}
	}

	if wasHost && len(r.players) > 0 {
		r.players[0].IsHost = true
	}

	if len(r.players) == 0 {
		return
	}

	if r.clampImpostorsLocked() {
		r.broadcastSettingsLocked()
	}
	r.broadcastRosterLocked()

	switch {
	case r.phase == PhaseLastChance && r.caughtImpostorID == id:
		// The player who had to guess is gone for good.
		r.finishRoundLocked(WinnerCivilians, "The caught impostor fled without guessing. The civilians win.")
	case r.phase == PhaseVoting:
		r.broadcastLocked(VoteUpdateMessage{
			Type:  "voteUpdate",
			Voted: len(r.votes),
			Total: len(r.players),
		})
		r.maybeResolveVotesLocked()
	}
}

// closeAll disconnects every client of this room (used by the reaper).
func (r *Room) closeAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.defunct = true
	for id, c := range r.clients {
		close(c.send)
		if c.conn != nil {
			_ = c.conn.Close()
		}
		delete(r.clients, id)
	}
	for id, timer := range r.pending {
		timer.Stop()
		delete(r.pending, id)
	}
}
