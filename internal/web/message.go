package web

import (
	"encoding/json"

	"github.com/dungeonworks/storyteller/internal/game"
)

// Envelope is the JSON frame for every message in either direction.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Sender  string          `json:"sender,omitempty"`
}

// Client commands.
const (
	TypeStartGame        = "start_game"
	TypeAction           = "action"
	TypeMultiplayerSetup = "multiplayer_setup"
	TypeCreateGame       = "create_game"
	TypeJoinGame         = "join_game"
	TypeLeaveGame        = "leave_game"
	TypeWorldBuilder     = "world_builder"
	TypeCreativeStory    = "creative_story"
)

// Server pushes.
const (
	TypeSession     = "session"
	TypeState       = "state"
	TypeNotice      = "notice"
	TypeGameCreated = "game_created"
	TypeGenerated   = "generated"
	TypeError       = "error"
)

type startGamePayload struct {
	game.WorldSetting
	SessionID string `json:"sessionId,omitempty"`
}

type joinGamePayload struct {
	game.WorldSetting
	Code string `json:"code"`
}

type textPayload struct {
	Text string `json:"text"`
}

func envelope(typ string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: typ, Payload: raw, Sender: "system"})
}
