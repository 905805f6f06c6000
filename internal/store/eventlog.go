package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/dungeonworks/storyteller/internal/session"
)

const (
	eventStreamName  = "SESSION_TURNS"
	eventSubjectRoot = "turns"
	eventReplayBatch = 64
)

// EventLog is the append-only record of accepted turns, one JetStream subject
// per session. The key-value document remains the canonical read model; the
// log exists so any session can be audited or rebuilt as a fold of its turns.
type EventLog struct {
	js nats.JetStreamContext
}

// NewEventLog binds to the turn stream, creating it when absent.
func NewEventLog(js nats.JetStreamContext) (*EventLog, error) {
	_, err := js.StreamInfo(eventStreamName)
	if errors.Is(err, nats.ErrStreamNotFound) {
		_, err = js.AddStream(&nats.StreamConfig{
			Name:     eventStreamName,
			Subjects: []string{eventSubjectRoot + ".>"},
			Storage:  nats.FileStorage,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("binding turn stream: %w", err)
	}

	return &EventLog{js: js}, nil
}

// Append records one accepted turn for the session.
func (l *EventLog) Append(ctx context.Context, key session.Key, ev session.TurnEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encoding turn event: %w", err)
	}

	if _, err := l.js.Publish(eventSubject(key), data, nats.Context(ctx)); err != nil {
		return fmt.Errorf("appending turn event for %q: %w", key, err)
	}

	return nil
}

// Replay returns every recorded turn for the session in order.
func (l *EventLog) Replay(ctx context.Context, key session.Key) ([]session.TurnEvent, error) {
	sub, err := l.js.PullSubscribe(eventSubject(key), "", nats.DeliverAll())
	if err != nil {
		return nil, fmt.Errorf("subscribing to turn events for %q: %w", key, err)
	}
	defer func() { _ = sub.Unsubscribe() }()

	var events []session.TurnEvent
	for {
		msgs, err := sub.Fetch(eventReplayBatch, nats.Context(ctx))
		if errors.Is(err, nats.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("fetching turn events for %q: %w", key, err)
		}
		if len(msgs) == 0 {
			break
		}

		for _, msg := range msgs {
			var ev session.TurnEvent
			if err := json.Unmarshal(msg.Data, &ev); err != nil {
				return nil, fmt.Errorf("decoding turn event for %q: %w", key, err)
			}
			events = append(events, ev)
			_ = msg.Ack()
		}

		if len(msgs) < eventReplayBatch {
			break
		}
	}

	return events, nil
}

func eventSubject(key session.Key) string {
	return fmt.Sprintf("%s.%s", eventSubjectRoot, key)
}
