package session

import (
	"crypto/rand"
	"fmt"
	"strings"
)

// Key locates one session document in the store.
type Key string

// DefaultSessionID is the session slot used when the player doesn't name one.
const DefaultSessionID = "mainGameSession"

// SingleKey derives the deterministic key for a player's private session.
func SingleKey(userID, sessionID string) Key {
	if sessionID == "" {
		sessionID = DefaultSessionID
	}
	return Key(fmt.Sprintf("users.%s.sessions.%s", userID, sessionID))
}

// GameKey derives the shared key for a multiplayer session from its code.
func GameKey(code string) Key {
	return Key("games." + NormalizeGameCode(code))
}

// gameCodeAlphabet holds the characters valid in a game code. Short and
// unambiguous enough to read over voice chat.
const gameCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const gameCodeLength = 6

// NewGameCode generates a short human-typable code for sharing a multiplayer
// session.
func NewGameCode() string {
	buf := make([]byte, gameCodeLength)
	if _, err := rand.Read(buf); err != nil {
		// rand.Read does not fail on supported platforms
		panic(err)
	}
	for i, b := range buf {
		buf[i] = gameCodeAlphabet[int(b)%len(gameCodeAlphabet)]
	}
	return string(buf)
}

// NormalizeGameCode uppercases and trims a human-entered code.
func NormalizeGameCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
