package main

import (
	"time"
)

// handleDisconnect starts the bounded grace timer for a connection that
// dropped without an explicit leave. The player's slot is preserved
// until the timer fires; a reconnect with the same session token
// cancels it.
func (r *Room) handleDisconnect(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.touchLocked()

	if r.clients[c.id] == c {
		delete(r.clients, c.id)
		close(c.send)
	}

	p := r.playerByIDLocked(c.id)
	if p == nil {
		return
	}

	id := c.id
	grace := r.registry.cfg.gracePeriod

	if timer, ok := r.pending[id]; ok {
		timer.Stop()
	}
	r.pending[id] = time.AfterFunc(grace, func() {
		r.expireGrace(id)
	})

	logf(r.registry.cfg, "ROOMS: Player %q lost its connection to %s, holding slot for %s", p.Name, r.code, grace)
}

// expireGrace fires when the grace window elapses without a reconnect.
// The pending-table check makes the removal happen exactly once even if
// an explicit leave or a reconnect raced with the timer.
func (r *Room) expireGrace(id string) {
	r.mu.Lock()
	empty := false
	defer func() {
		r.mu.Unlock()
		if empty {
			r.registry.remove(r.code)
		}
	}()

	if _, ok := r.pending[id]; !ok {
		return
	}
	delete(r.pending, id)

	if p := r.playerByIDLocked(id); p != nil {
		logf(r.registry.cfg, "ROOMS: Player %q timed out of %s", p.Name, r.code)
	}

	r.removePlayerLocked(id)
	if len(r.players) == 0 {
		r.defunct = true
		empty = true
	}
}

// reconnect rebinds an existing player record to a fresh connection and
// replays the game context the player is entitled to see.
func (r *Room) reconnect(c *Client, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.touchLocked()

	if r.defunct {
		return ErrSessionNotRestorable
	}

	p := r.playerByTokenLocked(token)
	if p == nil {
		return ErrSessionNotRestorable
	}

	oldID := p.ID

	if timer, ok := r.pending[oldID]; ok {
		timer.Stop()
		delete(r.pending, oldID)
	}

	// A stale connection may still be registered under the old id.
	if stale, ok := r.clients[oldID]; ok && stale != c {
		delete(r.clients, oldID)
		close(stale.send)
	}

	// Rewrite every in-flight reference to the old connection id.
	p.ID = c.id
	if r.impostors[oldID] {
		delete(r.impostors, oldID)
		r.impostors[c.id] = true
	}
	if target, ok := r.votes[oldID]; ok {
		delete(r.votes, oldID)
		r.votes[c.id] = target
	}
	for voter, target := range r.votes {
		if target == oldID {
			r.votes[voter] = c.id
		}
	}
	if r.caughtImpostorID == oldID {
		r.caughtImpostorID = c.id
	}

	// The room creator reclaims host status on reconnection.
	if token == r.creatorToken && !p.IsHost {
		for _, other := range r.players {
			other.IsHost = false
		}
		p.IsHost = true
	}

	r.clients[c.id] = c

	msg := ReconnectMessage{
		Type:     "reconnectSuccess",
		RoomCode: r.code,
		PlayerID: c.id,
		IsHost:   p.IsHost,
		Phase:    r.phase,
		Players:  r.rosterLocked(),
		Settings: r.settings,
	}

	if r.phase != PhaseLobby {
		if r.impostors[c.id] {
			msg.Role = RoleImpostor
			if r.settings.UseHint {
				msg.Hint = r.hint
			}
		} else {
			msg.Role = RoleCivilian
			msg.Word = r.secretWord
			msg.Category = r.category
		}
		_, msg.HasVoted = r.votes[c.id]
	}

	if r.phase == PhaseLastChance {
		caughtName := ""
		if caught := r.playerByIDLocked(r.caughtImpostorID); caught != nil {
			caughtName = caught.Name
		}
		msg.LastChance = &LastChanceMessage{
			Type:       "startLastChance",
			CaughtID:   r.caughtImpostorID,
			CaughtName: caughtName,
			IsYou:      r.caughtImpostorID == c.id,
		}
	}

	if r.phase == PhaseLobby && r.lastResults != nil {
		msg.LastResults = r.lastResults
	}

	r.sendLocked(c, msg)
	r.broadcastRosterLocked()

	logf(r.registry.cfg, "ROOMS: Player %q reconnected to %s", p.Name, r.code)

	return nil
}
