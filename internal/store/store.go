// Package store is the boundary to the shared session document store. The
// engine only ever sees this contract: keyed reads, whole-document writes,
// and a watch that delivers the current value plus every later change.
//
// Concurrent writers are resolved last-write-wins at this boundary. The engine
// always writes the complete recomputed document, so the losing write costs a
// turn of another player's deltas at worst, never a corrupt document.
package store

import (
	"context"
	"errors"

	"github.com/dungeonworks/storyteller/internal/session"
)

// ErrNotFound reports a key with no document behind it.
var ErrNotFound = errors.New("session not found")

// SessionStore reads, writes, and watches session documents.
type SessionStore interface {
	// Get returns the current document for key, or ErrNotFound.
	Get(ctx context.Context, key session.Key) (session.Document, error)

	// Put writes the complete document for key.
	Put(ctx context.Context, key session.Key, doc session.Document) error

	// Watch delivers the current document (when one exists) followed by every
	// subsequent write, until stop is called or ctx ends. The channel closes
	// when the watch ends.
	Watch(ctx context.Context, key session.Key) (updates <-chan session.Document, stop func(), err error)
}
