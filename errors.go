/*
Copyright © 2026 ajimenez2821
*/

package main

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
)

// Rejections reported to the originating connection only. None of these
// mutate room state.
var (
	ErrRoomNotFound         = errors.New("room not found")
	ErrGameAlreadyStarted   = errors.New("the game has already started")
	ErrNameTaken            = errors.New("that name is already in use in this room")
	ErrInsufficientPlayers  = errors.New("at least 3 players are required to start")
	ErrPlayersNotReady      = errors.New("not every player is ready")
	ErrSessionNotRestorable = errors.New("session could not be restored")
	ErrUnauthorized         = errors.New("you are not allowed to do that")
)

func logf(cfg *Config, format string, args ...any) {
	if !cfg.verbose {
		return
	}

	log.Printf("%s | "+format, append([]any{time.Now().Format(logDate)}, args...)...)
}

func newPage(title, body string) string {
	var htmlBody strings.Builder

	htmlBody.WriteString(`<!DOCTYPE html><html lang="en"><head>`)
	htmlBody.WriteString(`<style>`)
	htmlBody.WriteString(`html,body,a{display:block;height:100%;width:100%;text-decoration:none;color:inherit;cursor:auto;}</style>`)
	htmlBody.WriteString(fmt.Sprintf("<title>%s</title></head>", title))
	htmlBody.WriteString(fmt.Sprintf("<body><a href=\"/\">%s</a></body></html>", body))

	return htmlBody.String()
}
