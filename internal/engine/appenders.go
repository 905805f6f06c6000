package engine

import (
	"context"

	"github.com/pixil98/go-errors"

	"github.com/dungeonworks/storyteller/internal/session"
)

// Appenders fans a turn event out to several sinks. Every sink sees the
// event even when an earlier one fails.
type Appenders []EventAppender

func (a Appenders) Append(ctx context.Context, key session.Key, ev session.TurnEvent) error {
	el := errors.NewErrorList()
	for _, sink := range a {
		if err := sink.Append(ctx, key, ev); err != nil {
			el.Add(err)
		}
	}
	return el.Err()
}
