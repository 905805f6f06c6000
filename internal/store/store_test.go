package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pixil98/go-testutil"

	"github.com/dungeonworks/storyteller/internal/game"
	"github.com/dungeonworks/storyteller/internal/session"
)

func testDoc(gold int) session.Document {
	stats := game.NewCharacterStats()
	stats.Gold = gold
	return session.NewSinglePlayer(stats, game.WorldSetting{
		PlayerName:    "Alice",
		CharacterType: "Rogue",
		WorldType:     "fantasy",
	})
}

// storeUnderTest exercises the SessionStore contract against any
// implementation.
func storeUnderTest(t *testing.T, s SessionStore) {
	t.Helper()
	ctx := context.Background()
	key := session.SingleKey("u1", "slot1")

	t.Run("get missing key", func(t *testing.T) {
		_, err := s.Get(ctx, session.SingleKey("nobody", ""))
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("err = %v, expected ErrNotFound", err)
		}
	})

	t.Run("put then get", func(t *testing.T) {
		if err := s.Put(ctx, key, testDoc(5)); err != nil {
			t.Fatalf("put: %v", err)
		}

		got, err := s.Get(ctx, key)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		testutil.AssertEqual(t, "gold", got.CharacterStats.Gold, 5)
	})

	t.Run("watch delivers current value then changes", func(t *testing.T) {
		updates, stop, err := s.Watch(ctx, key)
		if err != nil {
			t.Fatalf("watch: %v", err)
		}
		defer stop()

		select {
		case doc := <-updates:
			testutil.AssertEqual(t, "initial gold", doc.CharacterStats.Gold, 5)
		case <-time.After(time.Second):
			t.Fatal("no initial value delivered")
		}

		if err := s.Put(ctx, key, testDoc(7)); err != nil {
			t.Fatalf("put: %v", err)
		}

		select {
		case doc := <-updates:
			testutil.AssertEqual(t, "updated gold", doc.CharacterStats.Gold, 7)
		case <-time.After(time.Second):
			t.Fatal("no change notification delivered")
		}
	})

	t.Run("stored document does not alias caller's copy", func(t *testing.T) {
		doc := testDoc(11)
		if err := s.Put(ctx, key, doc); err != nil {
			t.Fatalf("put: %v", err)
		}
		doc.CharacterStats.Gold = 999

		got, err := s.Get(ctx, key)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		testutil.AssertEqual(t, "gold", got.CharacterStats.Gold, 11)
	})
}

func TestMemoryStore(t *testing.T) {
	storeUnderTest(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	storeUnderTest(t, s)
}

func TestNewFileStore_NonExistentDirectory(t *testing.T) {
	_, err := NewFileStore("/nonexistent/path/that/does/not/exist")
	if err == nil {
		t.Error("expected error for non-existent directory")
	}
}

func TestFileStore_ReloadsPersistedSessions(t *testing.T) {
	tmpDir := t.TempDir()
	ctx := context.Background()
	key := session.GameKey("AB12CD")

	first, err := NewFileStore(tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := first.Put(ctx, key, testDoc(42)); err != nil {
		t.Fatalf("put: %v", err)
	}

	second, err := NewFileStore(tmpDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := second.Get(ctx, key)
	if err != nil {
		t.Fatalf("get after reload: %v", err)
	}
	testutil.AssertEqual(t, "gold", got.CharacterStats.Gold, 42)
}

func TestFileStore_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()

	err := os.WriteFile(filepath.Join(tmpDir, "bad.json"), []byte(`{invalid json`), 0644)
	if err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	_, err = NewFileStore(tmpDir)
	if err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestFileStore_MissingKey(t *testing.T) {
	tmpDir := t.TempDir()

	data, err := json.Marshal(&record{Version: 1, Document: testDoc(1)})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, "nokey.json"), data, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, err = NewFileStore(tmpDir)
	if err == nil {
		t.Error("expected error for record without key")
	}
}
