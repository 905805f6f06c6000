package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/dungeonworks/storyteller/internal/game"
)

// TurnEvent is the immutable record of one accepted action: who acted, what
// they did, what the narrator replied, and which stat deltas were accepted.
// The event log is append-only; the current document is always reproducible
// as the fold of the log over the session's initial document.
type TurnEvent struct {
	ID         string           `json:"id"`
	UserID     string           `json:"userId"`
	PlayerName string           `json:"playerName,omitempty"`
	Action     string           `json:"action"`
	Narrative  string           `json:"narrative"`
	Update     game.StatsUpdate `json:"statsUpdate,omitempty"`
	Options    []string         `json:"options"`
	At         time.Time        `json:"at"`
}

// NewTurnEvent stamps a turn outcome with identity and time.
func NewTurnEvent(userID, playerName, action, narrative string, upd game.StatsUpdate, options []string, at time.Time) TurnEvent {
	return TurnEvent{
		ID:         uuid.NewString(),
		UserID:     userID,
		PlayerName: playerName,
		Action:     action,
		Narrative:  narrative,
		Update:     upd,
		Options:    options,
		At:         at,
	}
}

// Fold replays events over an initial document and returns the resulting
// state. Reconciliation diagnostics are discarded here; they were already
// surfaced when the events were first accepted.
func Fold(initial Document, events []TurnEvent) Document {
	doc := initial
	for _, ev := range events {
		turn := Turn{
			Entries: []game.ChatEntry{
				game.UserEntry(ev.UserID, ev.PlayerName, ev.Action),
				game.ModelEntry(ev.Narrative),
			},
			Options: ev.Options,
		}

		if doc.Multiplayer() {
			players, _ := game.ApplyUpdate(doc.PlayerCharacters, ev.Update)
			turn.Players = players
		} else if doc.CharacterStats != nil {
			if patch, ok := ev.Update[ev.UserID]; ok {
				stats, _ := game.ApplyPatch(ev.UserID, *doc.CharacterStats, patch)
				turn.Stats = &stats
			}
		}

		doc = Merge(doc, turn, ev.At)
	}
	return doc
}
