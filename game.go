package main

import (
	"fmt"
	"math/rand"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Start moves the room from Lobby to Playing: picks the secret word,
// assigns the impostor set, and deals each player their individualized
// role payload. Host-only.
func (r *Room) Start(c *Client, impostorCount int) {
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
	if len(r.players) < 3 {
		r.sendLocked(c, errorMessage(ErrInsufficientPlayers))
		return
	}
	for _, p := range r.players {
		if !p.Ready {
			r.sendLocked(c, errorMessage(ErrPlayersNotReady))
			return
		}
	}

	if impostorCount > 0 {
		r.settings.ImpostorCount = impostorCount
	}
	if r.clampImpostorsLocked() {
		r.broadcastSettingsLocked()
	}

	bank := r.registry.bank
	category, entry := bank.Pick(r.registry.cfg.category)

	r.phase = PhasePlaying
	r.category = category
	r.secretWord = entry.Word
	r.hint = bank.HintFor(category, entry)
	r.impostors = make(map[string]bool)
	r.votes = make(map[string]string)
	r.impostorGuess = nil
	r.caughtImpostorID = ""

	// Draw random player indexes until the set is full. Redrawing an
	// index that is already in the set is expected and harmless.
	for len(r.impostors) < r.settings.ImpostorCount {
		r.impostors[r.players[rand.Intn(len(r.players))].ID] = true
	}

	r.impostorNames = make([]string, 0, len(r.impostors))
	for _, p := range r.players {
		if r.impostors[p.ID] {
			r.impostorNames = append(r.impostorNames, p.Name)
		}
	}

	for _, p := range r.players {
		p.Ready = false

		msg := GameStartedMessage{Type: "gameStarted"}
		if r.impostors[p.ID] {
			msg.Role = RoleImpostor
			if r.settings.UseHint {
				msg.Hint = r.hint
			}
		} else {
			msg.Role = RoleCivilian
			msg.Word = r.secretWord
			msg.Category = r.category
		}
		r.sendToLocked(p.ID, msg)
	}

	r.broadcastRosterLocked()
	r.broadcastLocked(PhaseMessage{Type: "phaseChanged", Phase: PhasePlaying})
}

// StartVoting moves the room from Playing to Voting. The transition is
// explicit, never automatic.
func (r *Room) StartVoting(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.touchLocked()

	if r.phase != PhasePlaying {
		return
	}
	if r.playerByIDLocked(c.id) == nil {
		return
	}

	r.phase = PhaseVoting
	r.votes = make(map[string]string)

	r.broadcastLocked(PhaseMessage{Type: "phaseChanged", Phase: PhaseVoting})
	r.broadcastLocked(VoteUpdateMessage{
		Type:  "voteUpdate",
		Voted: 0,
		Total: len(r.players),
	})
}

// SubmitVote records one vote per voter. The first vote is final;
// resubmissions are ignored. The phase resolves the instant every
// current player has voted.
func (r *Room) SubmitVote(c *Client, targetID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.touchLocked()

	if r.phase != PhaseVoting {
		return
	}
	voter := r.playerByIDLocked(c.id)
	if voter == nil {
		return
	}
	if targetID == c.id {
		r.sendLocked(c, SimpleMessage{
			Type:    "error",
			Message: "You cannot vote for yourself.",
		})
		return
	}
	if r.playerByIDLocked(targetID) == nil {
		return
	}
	if _, voted := r.votes[c.id]; voted {
		return
	}

	r.votes[c.id] = targetID

	r.broadcastLocked(VoteUpdateMessage{
		Type:  "voteUpdate",
		Voted: len(r.votes),
		Total: len(r.players),
	})

	r.maybeResolveVotesLocked()
}

func (r *Room) maybeResolveVotesLocked() {
	if r.phase != PhaseVoting || len(r.players) == 0 {
		return
	}
	if len(r.votes) < len(r.players) {
		return
	}

	counts := make(map[string]int)
	for _, target := range r.votes {
		counts[target]++
	}

	maxVotes := 0
	var leaders []string
	for id, count := range counts {
		switch {
		case count > maxVotes:
			maxVotes = count
			leaders = []string{id}
		case count == maxVotes:
			leaders = append(leaders, id)
		}
	}

	if len(leaders) != 1 {
		// Nobody is caught on a tie.
		r.finishRoundLocked(WinnerImpostor, "The players could not agree on a suspect. The impostor walks free.")
		return
	}

	caught := leaders[0]
	if !r.impostors[caught] {
		r.finishRoundLocked(WinnerImpostor, "The civilians expelled an innocent. The impostor wins.")
		return
	}

	r.phase = PhaseLastChance
	r.caughtImpostorID = caught

	caughtName := ""
	if p := r.playerByIDLocked(caught); p != nil {
		caughtName = p.Name
	}

	for id, client := range r.clients {
		r.sendLocked(client, LastChanceMessage{
			Type:       "startLastChance",
			CaughtID:   caught,
			CaughtName: caughtName,
			IsYou:      id == caught,
		})
	}
}

// Guess resolves LastChance. Only the caught impostor's submission is
// accepted; comparison ignores case, surrounding space, and diacritics.
func (r *Room) Guess(c *Client, word string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.touchLocked()

	if r.phase != PhaseLastChance {
		return
	}
	if c.id != r.caughtImpostorID {
		r.sendLocked(c, errorMessage(ErrUnauthorized))
		return
	}

	guess := word
	r.impostorGuess = &guess

	if normalizeWord(guess) == normalizeWord(r.secretWord) {
		r.finishRoundLocked(WinnerImpostor, fmt.Sprintf("The impostor guessed %q and wins.", r.secretWord))
	} else {
		r.finishRoundLocked(WinnerCivilians, "The impostor guessed wrong. The civilians win.")
	}
}

// finishRoundLocked broadcasts the results, caches them for players who
// reconnect later, and rewinds the room to the lobby.
func (r *Room) finishRoundLocked(winner, message string) {
	results := GameResults{
		Winner:    winner,
		Message:   message,
		Impostors: r.impostorNames,
		Word:      r.secretWord,
		Guess:     r.impostorGuess,
	}
	r.lastResults = &results

	r.broadcastLocked(GameEndedMessage{
		Type:    "gameEnded",
		Results: results,
	})

	r.phase = PhaseLobby
	r.category = ""
	r.secretWord = ""
	r.hint = ""
	r.impostors = make(map[string]bool)
	r.impostorNames = nil
	r.votes = make(map[string]string)
	r.impostorGuess = nil
	r.caughtImpostorID = ""
	for _, p := range r.players {
		p.Ready = false
	}

	r.broadcastRosterLocked()
}

// normalizeWord lowercases, trims, and strips combining marks so that
// "cafe" matches "Café". The transformer chain is stateful, so each
// call builds its own.
func normalizeWord(s string) string {
	chain := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(chain, s)
	if err != nil {
		stripped = s
	}
	return strings.ToLower(strings.TrimSpace(stripped))
}
