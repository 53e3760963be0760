package main

import (
	"crypto/rand"
	"sync"
	"time"
)

// Registry owns the mapping from room code to live room. Rooms are
// created here, looked up here, and destroyed here (explicitly when the
// last player leaves, or by the idle reaper).
type Registry struct {
	cfg  *Config
	bank *WordBank

	mu    sync.Mutex
	rooms map[string]*Room
}

func newRegistry(cfg *Config, bank *WordBank) *Registry {
	reg := &Registry{
		cfg:   cfg,
		bank:  bank,
		rooms: make(map[string]*Room),
	}
	if cfg.roomTimeout > 0 {
		go reg.reaperLoop()
	}
	return reg
}

// newRoomCodeLocked generates a crypto-random 4-letter room code, resampling
// until it doesn't collide with a live room. Callers must hold reg.mu.
func (reg *Registry) newRoomCodeLocked() string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	for {
		buf := make([]byte, 4)
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}
		out := make([]byte, 4)
		for i := range out {
			out[i] = letters[int(buf[i])%len(letters)]
		}
		code := string(out)

		if _, exists := reg.rooms[code]; !exists {
			return code
		}
	}
}

// CreateRoom makes a new room with the caller as sole player and host.
func (reg *Registry) CreateRoom(c *Client, name, token string) {
	reg.mu.Lock()
	code := reg.newRoomCodeLocked()
	room := newRoom(code, token, reg)
	reg.rooms[code] = room
	reg.mu.Unlock()

	room.mu.Lock()
	room.players = append(room.players, &Player{
		ID:           c.id,
		Name:         name,
		SessionToken: token,
		IsHost:       true,
		Ready:        true,
	})
	room.clients[c.id] = c

	room.sendLocked(c, RoomJoinedMessage{
		Type:     "roomCreated",
		RoomCode: code,
		PlayerID: c.id,
		IsHost:   true,
	})
	room.sendLocked(c, SettingsMessage{
		Type:     "settingsUpdated",
		Settings: room.settings,
	})
	room.broadcastRosterLocked()
	room.mu.Unlock()

	c.setRoom(code)

	logf(reg.cfg, "ROOMS: Player %q created room %s", name, code)
}

// JoinRoom admits a player into an existing lobby.
func (reg *Registry) JoinRoom(c *Client, code, name, token string) {
	room := reg.Get(code)
	if room == nil {
		c.trySend(errorMessage(ErrRoomNotFound))
		return
	}

	if err := room.addPlayer(c, name, token); err != nil {
		c.trySend(errorMessage(err))
		return
	}

	c.setRoom(code)

	logf(reg.cfg, "ROOMS: Player %q joined room %s", name, code)
}

// Reconnect rebinds a dropped player to a fresh connection, identified
// by their durable session token.
func (reg *Registry) Reconnect(c *Client, code, token string) {
	room := reg.Get(code)
	if room == nil {
		c.trySend(errorMessage(ErrSessionNotRestorable))
		return
	}

	if err := room.reconnect(c, token); err != nil {
		c.trySend(errorMessage(err))
		return
	}

	c.setRoom(code)
}

// Get returns the live room for code, or nil.
func (reg *Registry) Get(code string) *Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	return reg.rooms[code]
}

func (reg *Registry) remove(code string) {
	reg.mu.Lock()
	_, existed := reg.rooms[code]
	delete(reg.rooms, code)
	reg.mu.Unlock()

	if existed {
		logf(reg.cfg, "ROOMS: Removed empty room %s", code)
	}
}

// reaperLoop periodically destroys rooms that have been idle longer
// than the configured room timeout.
func (reg *Registry) reaperLoop() {
	interval := reg.cfg.roomTimeout / 2
	if interval < time.Millisecond {
		interval = time.Millisecond
	}
	ticker := time.NewTicker(interval)
	for range ticker.C {
		cutoff := time.Now().Add(-reg.cfg.roomTimeout)

		reg.mu.Lock()
		candidates := make([]*Room, 0, len(reg.rooms))
		for _, room := range reg.rooms {
			candidates = append(candidates, room)
		}
		reg.mu.Unlock()

		for _, room := range candidates {
			room.mu.RLock()
			idle := room.lastActive.Before(cutoff)
			room.mu.RUnlock()

			if idle {
				reg.remove(room.code)
				room.closeAll()
				logf(reg.cfg, "ROOMS: Reaped idle room %s", room.code)
			}
		}
	}
}
