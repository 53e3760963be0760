package main

// Messages coming from clients. A single tagged structure covers every
// inbound event; unused fields stay empty.
type ClientMessage struct {
	Type          string `json:"type"`                    // "createRoom", "joinRoom", "attemptReconnect", "updateSettings", "startGame", "submitVote", "impostorGuess", "markReady", "kickPlayer", "leaveRoom"
	Name          string `json:"name,omitempty"`          // createRoom / joinRoom
	RoomCode      string `json:"roomCode,omitempty"`      // joinRoom / attemptReconnect
	SessionToken  string `json:"sessionToken,omitempty"`  // createRoom / joinRoom / attemptReconnect
	ImpostorCount int    `json:"impostorCount,omitempty"` // updateSettings / startGame
	UseHint       *bool  `json:"useHint,omitempty"`       // updateSettings
	TargetID      string `json:"targetId,omitempty"`      // submitVote / kickPlayer
	Word          string `json:"word,omitempty"`          // impostorGuess
}

// PlayerInfo is the roster entry broadcast to every room member.
type PlayerInfo struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	IsHost bool   `json:"isHost"`
	Ready  bool   `json:"ready"`
	Score  int    `json:"score"`
}

// Settings holds the room options the host can change in the lobby.
type Settings struct {
	ImpostorCount int  `json:"impostorCount"`
	UseHint       bool `json:"useHint"`
}

// RoomJoinedMessage acknowledges createRoom ("roomCreated") and
// joinRoom ("roomJoined") to the acting connection only.
type RoomJoinedMessage struct {
	Type     string `json:"type"` // "roomCreated" or "roomJoined"
	RoomCode string `json:"roomCode"`
	PlayerID string `json:"playerId"`
	IsHost   bool   `json:"isHost"`
}

// PlayerListMessage is the full roster snapshot, broadcast after every
// roster mutation.
type PlayerListMessage struct {
	Type    string       `json:"type"` // "updatePlayerList"
	Players []PlayerInfo `json:"players"`
}

// SettingsMessage is broadcast whenever the room settings change,
// including implicit clamping.
type SettingsMessage struct {
	Type     string   `json:"type"` // "settingsUpdated"
	Settings Settings `json:"settings"`
}

// GameStartedMessage carries a player's individualized role payload.
// Civilians get the word and category; impostors get neither, only a
// hint when hinting is enabled.
type GameStartedMessage struct {
	Type     string `json:"type"` // "gameStarted"
	Role     string `json:"role"` // "impostor" or "civilian"
	Word     string `json:"word,omitempty"`
	Category string `json:"category,omitempty"`
	Hint     string `json:"hint,omitempty"`
}

// PhaseMessage announces room-wide phase changes.
type PhaseMessage struct {
	Type  string `json:"type"` // "phaseChanged"
	Phase Phase  `json:"phase"`
}

// VoteUpdateMessage reports tally progress after each accepted vote.
type VoteUpdateMessage struct {
	Type  string `json:"type"` // "voteUpdate"
	Voted int    `json:"voted"`
	Total int    `json:"total"`
}

// LastChanceMessage tells everyone which player was caught; IsYou marks
// the one connection allowed to submit a final guess.
type LastChanceMessage struct {
	Type       string `json:"type"` // "startLastChance"
	CaughtID   string `json:"caughtId"`
	CaughtName string `json:"caughtName"`
	IsYou      bool   `json:"isYou"`
}

// GameResults is the Results payload, also cached on the room for
// players who reconnect after the live broadcast.
type GameResults struct {
	Winner    string   `json:"winner"` // "civilians" or "impostor"
	Message   string   `json:"message"`
	Impostors []string `json:"impostors"` // display names
	Word      string   `json:"word"`
	Guess     *string  `json:"guess"`
}

// GameEndedMessage broadcasts the round outcome.
type GameEndedMessage struct {
	Type    string      `json:"type"` // "gameEnded"
	Results GameResults `json:"results"`
}

// ReconnectMessage rehydrates a reconnecting player's full view of the
// room: identity, roster, settings, and whatever round context their
// role entitles them to see in the current phase.
type ReconnectMessage struct {
	Type        string             `json:"type"` // "reconnectSuccess"
	RoomCode    string             `json:"roomCode"`
	PlayerID    string             `json:"playerId"`
	IsHost      bool               `json:"isHost"`
	Phase       Phase              `json:"phase"`
	Players     []PlayerInfo       `json:"players"`
	Settings    Settings           `json:"settings"`
	Role        string             `json:"role,omitempty"`
	Word        string             `json:"word,omitempty"`
	Category    string             `json:"category,omitempty"`
	Hint        string             `json:"hint,omitempty"`
	HasVoted    bool               `json:"hasVoted"`
	LastChance  *LastChanceMessage `json:"lastChance,omitempty"`
	LastResults *GameResults       `json:"lastResults,omitempty"`
}

// SimpleMessage is for generic notifications ("error", "kicked").
type SimpleMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func errorMessage(err error) SimpleMessage {
	return SimpleMessage{
		Type:    "error",
		Message: err.Error(),
	}
}
