// Package session defines the canonical session document and the merge rules
// that fold one completed turn into it.
package session

import (
	"time"

	"github.com/dungeonworks/storyteller/internal/game"
)

// Document is the persisted value for one session. Single-player sessions
// carry a bare stats/setting pair; multiplayer sessions carry the shared
// player map instead.
type Document struct {
	ChatHistory    []game.ChatEntry `json:"chatHistory"`
	CurrentOptions []string         `json:"currentOptions"`

	CharacterStats *game.CharacterStats `json:"characterStats,omitempty"`
	WorldSetting   *game.WorldSetting   `json:"worldSetting,omitempty"`

	PlayerCharacters game.PlayerCharacterMap `json:"playerCharacters,omitempty"`

	LastUpdated time.Time `json:"lastUpdated"`
}

// Multiplayer reports whether this document carries a shared player map.
func (d Document) Multiplayer() bool {
	return d.PlayerCharacters != nil
}

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	out := d

	out.ChatHistory = make([]game.ChatEntry, len(d.ChatHistory))
	copy(out.ChatHistory, d.ChatHistory)

	out.CurrentOptions = make([]string, len(d.CurrentOptions))
	copy(out.CurrentOptions, d.CurrentOptions)

	if d.CharacterStats != nil {
		stats := d.CharacterStats.Clone()
		out.CharacterStats = &stats
	}
	if d.WorldSetting != nil {
		setting := *d.WorldSetting
		out.WorldSetting = &setting
	}
	if d.PlayerCharacters != nil {
		out.PlayerCharacters = d.PlayerCharacters.Clone()
	}

	return out
}

// NewSinglePlayer builds the initial document for a solo session.
func NewSinglePlayer(stats game.CharacterStats, setting game.WorldSetting) Document {
	return Document{
		ChatHistory:    []game.ChatEntry{},
		CurrentOptions: []string{},
		CharacterStats: &stats,
		WorldSetting:   &setting,
	}
}

// NewMultiplayer builds the initial document for a shared session with the
// creator as its first participant.
func NewMultiplayer(creatorID string, stats game.CharacterStats, setting game.WorldSetting) Document {
	return Document{
		ChatHistory:    []game.ChatEntry{},
		CurrentOptions: []string{},
		PlayerCharacters: game.PlayerCharacterMap{
			creatorID: {Stats: stats, Setting: setting},
		},
	}
}
