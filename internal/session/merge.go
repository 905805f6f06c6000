package session

import (
	"time"

	"github.com/dungeonworks/storyteller/internal/game"
)

// Turn is the outcome of one accepted action, ready to fold into a document.
type Turn struct {
	// Entries are appended to the chat history in order, normally the user's
	// action followed by the model's reply.
	Entries []game.ChatEntry

	// Options replaces the current options wholesale. A turn with no options
	// clears them; there is no incremental merge.
	Options []string

	// Stats carries the reconciled single-player stats, nil when unchanged.
	Stats *game.CharacterStats

	// Setting carries a changed world setting, nil when unchanged.
	Setting *game.WorldSetting

	// Players carries the full reconciled multiplayer map, nil outside
	// multiplayer.
	Players game.PlayerCharacterMap
}

// Merge folds a turn into the document and returns the new canonical value.
// Chat history is always appended, never replaced; options are always
// replaced, never appended. The input document is left untouched.
func Merge(doc Document, turn Turn, now time.Time) Document {
	out := doc.Clone()

	out.ChatHistory = append(out.ChatHistory, turn.Entries...)

	out.CurrentOptions = make([]string, len(turn.Options))
	copy(out.CurrentOptions, turn.Options)

	if turn.Stats != nil {
		stats := turn.Stats.Clone()
		out.CharacterStats = &stats
	}
	if turn.Setting != nil {
		setting := *turn.Setting
		out.WorldSetting = &setting
	}
	if turn.Players != nil {
		out.PlayerCharacters = turn.Players.Clone()
	}

	out.LastUpdated = now
	return out
}
