package store

import (
	"context"
	"sync"

	"github.com/dungeonworks/storyteller/internal/session"
)

// MemoryStore keeps documents in process memory. It backs tests and the
// single-binary setup where no external store is configured.
type MemoryStore struct {
	mu       sync.RWMutex
	docs     map[session.Key]session.Document
	watchers map[session.Key]map[int]chan session.Document
	nextID   int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:     map[session.Key]session.Document{},
		watchers: map[session.Key]map[int]chan session.Document{},
	}
}

func (s *MemoryStore) Get(ctx context.Context, key session.Key) (session.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[key]
	if !ok {
		return session.Document{}, ErrNotFound
	}
	return doc.Clone(), nil
}

func (s *MemoryStore) Put(ctx context.Context, key session.Key, doc session.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.docs[key] = doc.Clone()

	for _, ch := range s.watchers[key] {
		// Drop the notification rather than block a slow watcher; they will
		// catch up on the next write.
		select {
		case ch <- doc.Clone():
		default:
		}
	}

	return nil
}

func (s *MemoryStore) Watch(ctx context.Context, key session.Key) (<-chan session.Document, func(), error) {
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
