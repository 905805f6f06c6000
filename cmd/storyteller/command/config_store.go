package command

import (
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/pixil98/go-errors"

	"github.com/dungeonworks/storyteller/internal/store"
)

const (
	storeBackendNats   = "nats"
	storeBackendFile   = "file"
	storeBackendMemory = "memory"
)

type StoreConfig struct {
	// Backend selects where session documents live: "nats" (default) keeps
	// them in a JetStream bucket, "file" on disk, "memory" for development.
	Backend string `json:"backend"`
	Path    string `json:"path"`
	Bucket  string `json:"bucket"`
}

func (c *StoreConfig) validate() error {
	el := errors.NewErrorList()

	switch c.backend() {
	case storeBackendNats, storeBackendMemory:
	case storeBackendFile:
		if c.Path == "" {
			el.Add(fmt.Errorf("store: path is required for the file backend"))
		}
	default:
		el.Add(fmt.Errorf("store: unknown backend %q", c.Backend))
	}

	return el.Err()
}

func (c *StoreConfig) backend() string {
	if c.Backend == "" {
		return storeBackendNats
	}
	return c.Backend
}

func (c *StoreConfig) bucket() string {
	if c.Bucket == "" {
		return store.DefaultBucket
	}
	return c.Bucket
}

// buildStore creates the configured session store. js may be nil for
// non-NATS backends.
func (c *StoreConfig) buildStore(js nats.JetStreamContext) (store.SessionStore, error) {
	switch c.backend() {
	case storeBackendNats:
		return store.NewKVStore(js, c.bucket())
	case storeBackendFile:
		return store.NewFileStore(c.Path)
	case storeBackendMemory:
		return store.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", c.Backend)
	}
}
