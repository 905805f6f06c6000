package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/dungeonworks/storyteller/internal/session"
)

// DefaultBucket is the key-value bucket holding session documents.
const DefaultBucket = "sessions"

// KVStore keeps session documents in a JetStream key-value bucket. Watches
// ride on the bucket's native change feed, so every participant of a shared
// session sees each write, including its own.
type KVStore struct {
	kv nats.KeyValue
}

// NewKVStore binds to the bucket, creating it when absent.
func NewKVStore(js nats.JetStreamContext, bucket string) (*KVStore, error) {
	if bucket == "" {
		bucket = DefaultBucket
	}

	kv, err := js.KeyValue(bucket)
	if errors.Is(err, nats.ErrBucketNotFound) {
		kv, err = js.CreateKeyValue(&nats.KeyValueConfig{
			Bucket:  bucket,
			History: 1,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("binding session bucket %q: %w", bucket, err)
	}

	return &KVStore{kv: kv}, nil
}

func (s *KVStore) Get(ctx context.Context, key session.Key) (session.Document, error) {
	entry, err := s.kv.Get(string(key))
	if errors.Is(err, nats.ErrKeyNotFound) {
		return session.Document{}, ErrNotFound
	}
	if err != nil {
		return session.Document{}, fmt.Errorf("reading session %q: %w", key, err)
	}

	var doc session.Document
	if err := json.Unmarshal(entry.Value(), &doc); err != nil {
		return session.Document{}, fmt.Errorf("decoding session %q: %w", key, err)
	}

	return doc, nil
}

func (s *KVStore) Put(ctx context.Context, key session.Key, doc session.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding session %q: %w", key, err)
	}

	if _, err := s.kv.Put(string(key), data); err != nil {
		return fmt.Errorf("writing session %q: %w", key, err)
	}

	return nil
}

func (s *KVStore) Watch(ctx context.Context, key session.Key) (<-chan session.Document, func(), error) {
	watcher, err := s.kv.Watch(string(key), nats.Context(ctx))
	if err != nil {
		return nil, nil, fmt.Errorf("watching session %q: %w", key, err)
	}

	ch := make(chan session.Document, 8)
	stop := func() {
		// Stopping the watcher closes its update channel, which ends the
		// forwarding goroutine below.
		_ = watcher.Stop()
	}

	go func() {
		defer close(ch)
		for entry := range watcher.Updates() {
			// A nil entry marks the end of the initial replay.
			if entry == nil || entry.Operation() != nats.KeyValuePut {
				continue
			}

			var doc session.Document
			if err := json.Unmarshal(entry.Value(), &doc); err != nil {
				continue
			}

			select {
			case ch <- doc:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch, stop, nil
}
