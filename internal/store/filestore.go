package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/dungeonworks/storyteller/internal/session"
)

// record is the on-disk envelope around a session document.
type record struct {
	Version  int              `json:"version"`
	Key      session.Key      `json:"key"`
	Document session.Document `json:"document"`
}

// FileStore persists session documents as one JSON file per key, loading the
// whole directory on startup. Watches are in-process only; it suits a single
// server instance that should survive restarts without running JetStream
// persistence.
type FileStore struct {
	path string

	mu       sync.RWMutex
	docs     map[session.Key]session.Document
	watchers map[session.Key]map[int]chan session.Document
	nextID   int
}

func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{
		path:     path,
		docs:     map[session.Key]session.Document{},
		watchers: map[session.Key]map[int]chan session.Document{},
	}

	if err := s.load(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *FileStore) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.docs = map[session.Key]session.Document{}

	return filepath.Walk(s.path, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if info.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}

		rec, err := s.loadRecord(path)
		if err != nil {
			return err
		}

		if _, ok := s.docs[rec.Key]; ok {
			return fmt.Errorf("duplicate session key detected: %s", rec.Key)
		}
		s.docs[rec.Key] = rec.Document

		return nil
	})
}

func (s *FileStore) loadRecord(path string) (*record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshalling session %s: %w", filepath.Base(path), err)
	}
	if rec.Key == "" {
		return nil, fmt.Errorf("session file %s has no key", filepath.Base(path))
	}

	return &rec, nil
}

func (s *FileStore) Get(ctx context.Context, key session.Key) (session.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[key]
	if !ok {
		return session.Document{}, ErrNotFound
	}
	return doc.Clone(), nil
}

func (s *FileStore) Put(ctx context.Context, key session.Key, doc session.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.docs[key] = doc.Clone()

	data, err := json.Marshal(&record{
		Version:  1,
		Key:      key,
		Document: doc,
	})
	if err != nil {
		return fmt.Errorf("marshalling session: %w", err)
	}

	if err := atomicWrite(s.filePath(key), data, 0644); err != nil {
		return err
	}

	for _, ch := range s.watchers[key] {
		select {
		case ch <- doc.Clone():
		default:
		}
	}

	return nil
}

func (s *FileStore) Watch(ctx context.Context, key session.Key) (<-chan session.Document, func(), error) {
	s.mu.Lock()

	ch := make(chan session.Document, 8)
	if doc, ok := s.docs[key]; ok {
		ch <- doc.Clone()
	}

	id := s.nextID
	s.nextID++
	if s.watchers[key] == nil {
		s.watchers[key] = map[int]chan session.Document{}
	}
	s.watchers[key][id] = ch
	s.mu.Unlock()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.watchers[key], id)
			s.mu.Unlock()
			close(ch)
		})
	}

	go func() {
		<-ctx.Done()
		stop()
	}()

	return ch, stop, nil
}

func (s *FileStore) filePath(key session.Key) string {
	return filepath.Join(s.path, fmt.Sprintf("%s.json", key))
}

// atomicWrite writes data to a temp file then renames it to the target path.
// This prevents partial or empty files if the process is interrupted.
func atomicWrite(path string, data []byte, perm os.FileMode) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, perm); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		if removeErr := os.Remove(tmp); removeErr != nil {
			slog.Warn("failed to remove temp file after rename failure", "path", tmp, "error", removeErr)
		}
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
