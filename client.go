package main

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is one websocket connection. Its id doubles as the player's
// connection identifier inside whatever room it is bound to.
type Client struct {
	conn *websocket.Conn
	send chan any
	id   string

	mu       sync.Mutex
	roomCode string
}

func newConnID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		panic("crypto/rand failure: " + err.Error())
	}
	return hex.EncodeToString(buf)
}

func (c *Client) setRoom(code string) {
	c.mu.Lock()
	c.roomCode = code
	c.mu.Unlock()
}

func (c *Client) currentRoom() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roomCode
}

// trySend queues msg without blocking; used before the client is bound
// to a room. Delivery failures are dropped on the floor.
func (c *Client) trySend(msg any) bool {
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// serveWS upgrades the connection and runs the pumps.
func serveWS(cfg *Config, reg *Registry) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logf(cfg, "WS: Upgrade error from %s: %v", realIP(r), err)
			return
		}

		client := &Client{
			conn: conn,
			send: make(chan any, 16),
			id:   newConnID(),
		}

		logf(cfg, "WS: Connection %s from %s", client.id, realIP(r))

		go client.writePump()
		client.readPump(cfg, reg)
	}
}

// readPump reads inbound events in arrival order and dispatches each
// one synchronously, so a single connection's actions never interleave.
func (c *Client) readPump(cfg *Config, reg *Registry) {
	defer func() {
		if code := c.currentRoom(); code != "" {
			if room := reg.Get(code); room != nil {
				room.handleDisconnect(c)
			}
		}
		_ = c.conn.Close()
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		c.dispatch(reg, msg)
	}
}

func (c *Client) dispatch(reg *Registry, msg ClientMessage) {
	switch msg.Type {
	case "createRoom":
		name := strings.TrimSpace(msg.Name)
		if name == "" || msg.SessionToken == "" {
			c.trySend(SimpleMessage{Type: "error", Message: "A name and session token are required."})
			return
		}
		if c.currentRoom() != "" {
			c.trySend(SimpleMessage{Type: "error", Message: "You are already in a room."})
			return
		}
		reg.CreateRoom(c, name, msg.SessionToken)
		return

	case "joinRoom":
		name := strings.TrimSpace(msg.Name)
		code := strings.ToUpper(strings.TrimSpace(msg.RoomCode))
		if name == "" || code == "" || msg.SessionToken == "" {
			c.trySend(SimpleMessage{Type: "error", Message: "A name, room code, and session token are required."})
			return
		}
		if c.currentRoom() != "" {
			c.trySend(SimpleMessage{Type: "error", Message: "You are already in a room."})
			return
		}
		reg.JoinRoom(c, code, name, msg.SessionToken)
		return

	case "attemptReconnect":
		code := strings.ToUpper(strings.TrimSpace(msg.RoomCode))
		if code == "" || msg.SessionToken == "" {
			c.trySend(errorMessage(ErrSessionNotRestorable))
			return
		}
		reg.Reconnect(c, code, msg.SessionToken)
		return
	}

	// Everything else is room-scoped and requires a bound room.
	room := reg.Get(c.currentRoom())
	if room == nil {
		c.trySend(errorMessage(ErrRoomNotFound))
		return
	}

	switch msg.Type {
	case "updateSettings":
		room.UpdateSettings(c, msg.ImpostorCount, msg.UseHint)
	case "startGame":
		room.Start(c, msg.ImpostorCount)
	case "startVoting":
		room.StartVoting(c)
	case "submitVote":
		if msg.TargetID == "" {
			return
		}
		room.SubmitVote(c, msg.TargetID)
	case "impostorGuess", "impostorFinalGuess":
		room.Guess(c, msg.Word)
	case "markReady":
		room.MarkReady(c)
	case "kickPlayer":
		if msg.TargetID == "" {
			return
		}
		room.Kick(c, msg.TargetID)
	case "leaveRoom":
		room.Leave(c)
	default:
		// ignore unknown types
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}
