// Package archive mirrors finished turns into a Supabase table for long-term
// storage and offline analysis. It sits outside the live request path: every
// call is best-effort and the engine never waits on it.
package archive

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	supa "github.com/supabase-community/supabase-go"

	"github.com/dungeonworks/storyteller/internal/session"
)

const DefaultTable = "turns"

// turnRow matches the turns table.
type turnRow struct {
	EventID    string    `json:"event_id"`
	SessionKey string    `json:"session_key"`
	UserID     string    `json:"user_id"`
	PlayerName string    `json:"player_name"`
	Action     string    `json:"action"`
	Narrative  string    `json:"narrative"`
	At         time.Time `json:"at"`
}

// Archiver writes turn events to Supabase.
type Archiver struct {
	client *supa.Client
	table  string
	logger *slog.Logger
}

type Opt func(*Archiver)

func WithTable(table string) Opt {
	return func(a *Archiver) { a.table = table }
}

func WithLogger(logger *slog.Logger) Opt {
	return func(a *Archiver) { a.logger = logger }
}

func New(url, key string, opts ...Opt) (*Archiver, error) {
	client, err := supa.NewClient(url, key, nil)
	if err != nil {
		return nil, fmt.Errorf("connecting to supabase: %w", err)
	}

	a := &Archiver{
		client: client,
		table:  DefaultTable,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Append implements the engine's event sink against Supabase.
func (a *Archiver) Append(ctx context.Context, key session.Key, ev session.TurnEvent) error {
	row := turnRow{
		EventID:    ev.ID,
		SessionKey: string(key),
		UserID:     ev.UserID,
		PlayerName: ev.PlayerName,
		Action:     ev.Action,
		Narrative:  ev.Narrative,
		At:         ev.At,
	}

	var inserted []turnRow
	_, err := a.client.From(a.table).Insert(row, false, "", "", "").ExecuteTo(&inserted)
	if err != nil {
		return fmt.Errorf("archiving turn %s: %w", ev.ID, err)
	}
	return nil
}

// Recent returns the latest archived turns for a session, newest first.
func (a *Archiver) Recent(ctx context.Context, key session.Key, limit int) ([]session.TurnEvent, error) {
	var rows []turnRow
	_, err := a.client.From(a.table).
		Select("*", "exact", false).
		Eq("session_key", string(key)).
		Limit(limit, "").
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("reading archive for %s: %w", key, err)
	}

	events := make([]session.TurnEvent, len(rows))
	for i, row := range rows {
		events[i] = session.TurnEvent{
			ID:         row.EventID,
			UserID:     row.UserID,
			PlayerName: row.PlayerName,
			Action:     row.Action,
			Narrative:  row.Narrative,
			At:         row.At,
		}
	}
	return events, nil
}
