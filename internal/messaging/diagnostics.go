package messaging

import (
	"encoding/json"
	"fmt"

	"github.com/dungeonworks/storyteller/internal/game"
	"github.com/dungeonworks/storyteller/internal/session"
)

// Publisher provides the ability to publish messages to subjects
type Publisher interface {
	Publish(subject string, data []byte) error
}

// DiagnosticsPublisher fans reconciliation diagnostics out on a per-session
// subject so operators can watch for patterns of dropped patches without
// digging through logs.
type DiagnosticsPublisher struct {
	pub Publisher
}

func NewDiagnosticsPublisher(pub Publisher) *DiagnosticsPublisher {
	return &DiagnosticsPublisher{pub: pub}
}

// Report publishes each diagnostic for the session. Failures are returned,
// but callers treat reporting as best-effort: a lost diagnostic must never
// fail the player's turn.
func (p *DiagnosticsPublisher) Report(key session.Key, diags []game.Diagnostic) error {
	var firstErr error
	for _, d := range diags {
		data, err := json.Marshal(d)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if err := p.pub.Publish(DiagnosticsSubject(key), data); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// DiagnosticsSubject names the diagnostics subject for a session.
func DiagnosticsSubject(key session.Key) string {
	return fmt.Sprintf("session.%s.diagnostics", key)
}
