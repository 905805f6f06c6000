package session

import (
	"reflect"
	"testing"
	"time"

	"github.com/pixil98/go-testutil"

	"github.com/dungeonworks/storyteller/internal/game"
)

func intPtr(i int) *int { return &i }

func testDoc() Document {
	doc := NewSinglePlayer(game.NewCharacterStats(), game.WorldSetting{
		PlayerName:    "Alice",
		CharacterType: "Rogue",
		WorldType:     "fantasy",
	})
	doc.ChatHistory = []game.ChatEntry{
		game.UserEntry("u1", "Alice", "I look around."),
		game.ModelEntry("You see a door."),
	}
	doc.CurrentOptions = []string{"Open the door", "Leave"}
	return doc
}

func TestMerge(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	t.Run("appends chat history in order", func(t *testing.T) {
		doc := testDoc()

		got := Merge(doc, Turn{
			Entries: []game.ChatEntry{
				game.UserEntry("u1", "Alice", "I open the door."),
				game.ModelEntry("It creaks open."),
			},
		}, now)

		testutil.AssertEqual(t, "history length", len(got.ChatHistory), 4)
		testutil.AssertEqual(t, "third entry", got.ChatHistory[2].Text, "I open the door.")
		testutil.AssertEqual(t, "fourth entry", got.ChatHistory[3].Text, "It creaks open.")
		testutil.AssertEqual(t, "input history length", len(doc.ChatHistory), 2)
	})

	t.Run("replaces options wholesale", func(t *testing.T) {
		got := Merge(testDoc(), Turn{Options: []string{"Run"}}, now)
		if !reflect.DeepEqual(got.CurrentOptions, []string{"Run"}) {
			t.Errorf("options = %v, expected [Run]", got.CurrentOptions)
		}
	})

	t.Run("turn without options clears them", func(t *testing.T) {
		got := Merge(testDoc(), Turn{}, now)
		testutil.AssertEqual(t, "options length", len(got.CurrentOptions), 0)
	})

	t.Run("swaps in reconciled stats", func(t *testing.T) {
		stats := game.NewCharacterStats()
		stats.Gold = 99

		got := Merge(testDoc(), Turn{Stats: &stats}, now)
		testutil.AssertEqual(t, "gold", got.CharacterStats.Gold, 99)
	})

	t.Run("nil stats leaves existing stats in place", func(t *testing.T) {
		got := Merge(testDoc(), Turn{}, now)
		testutil.AssertEqual(t, "health", got.CharacterStats.Health, 100)
	})

	t.Run("swaps in reconciled player map", func(t *testing.T) {
		doc := NewMultiplayer("u1", game.NewCharacterStats(), game.WorldSetting{PlayerName: "Alice"})

		players := doc.PlayerCharacters.Clone()
		pc := players["u1"]
		pc.Stats.Health = 42
		players["u1"] = pc

		got := Merge(doc, Turn{Players: players}, now)
		testutil.AssertEqual(t, "health", got.PlayerCharacters["u1"].Stats.Health, 42)
		testutil.AssertEqual(t, "input health", doc.PlayerCharacters["u1"].Stats.Health, 100)
	})

	t.Run("stamps lastUpdated", func(t *testing.T) {
		got := Merge(testDoc(), Turn{}, now)
		testutil.AssertEqual(t, "lastUpdated", got.LastUpdated, now)
	})

	t.Run("does not alias the input document", func(t *testing.T) {
		doc := testDoc()
		got := Merge(doc, Turn{Entries: []game.ChatEntry{game.ModelEntry("x")}}, now)

		got.ChatHistory[0].Text = "mutated"
		got.CharacterStats.Gold = 1000

		testutil.AssertEqual(t, "original entry", doc.ChatHistory[0].Text, "I look around.")
		testutil.AssertEqual(t, "original gold", doc.CharacterStats.Gold, 0)
	})
}

func TestFold(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	t.Run("single player", func(t *testing.T) {
		initial := NewSinglePlayer(game.NewCharacterStats(), game.WorldSetting{PlayerName: "Alice"})

		events := []TurnEvent{
			NewTurnEvent("u1", "Alice", "I search the chest.", "You find a potion.",
				game.StatsUpdate{"u1": {InventoryAdd: []string{"Potion"}}},
				[]string{"Drink it", "Pocket it"}, now),
			NewTurnEvent("u1", "Alice", "I drink it.", "You feel stronger.",
				game.StatsUpdate{"u1": {Health: intPtr(120), InventoryRemove: []string{"Potion"}}},
				nil, now.Add(time.Minute)),
		}

		got := Fold(initial, events)

		testutil.AssertEqual(t, "history length", len(got.ChatHistory), 4)
		testutil.AssertEqual(t, "health", got.CharacterStats.Health, 120)
		testutil.AssertEqual(t, "inventory length", len(got.CharacterStats.Inventory), 0)
		testutil.AssertEqual(t, "options length", len(got.CurrentOptions), 0)
		testutil.AssertEqual(t, "lastUpdated", got.LastUpdated, now.Add(time.Minute))
	})

	t.Run("multiplayer fold matches incremental merge", func(t *testing.T) {
		initial := NewMultiplayer("u1", game.NewCharacterStats(), game.WorldSetting{PlayerName: "Alice"})

		ev := NewTurnEvent("u1", "Alice", "I scout ahead.", "An ambush!",
			game.StatsUpdate{"u1": {Health: intPtr(70)}}, []string{"Fight", "Flee"}, now)

		folded := Fold(initial, []TurnEvent{ev})

		players, _ := game.ApplyUpdate(initial.PlayerCharacters, ev.Update)
		merged := Merge(initial, Turn{
			Entries: []game.ChatEntry{
				game.UserEntry("u1", "Alice", "I scout ahead."),
				game.ModelEntry("An ambush!"),
			},
			Options: []string{"Fight", "Flee"},
			Players: players,
		}, now)

		if !reflect.DeepEqual(folded, merged) {
			t.Errorf("fold = %+v, merge = %+v", folded, merged)
		}
	})
}

func TestKeys(t *testing.T) {
	testutil.AssertEqual(t, "single key",
		SingleKey("u1", "slot2"), Key("users.u1.sessions.slot2"))
	testutil.AssertEqual(t, "default session id",
		SingleKey("u1", ""), Key("users.u1.sessions.mainGameSession"))
	testutil.AssertEqual(t, "game key normalized",
		GameKey(" ab12cd "), Key("games.AB12CD"))
}

func TestNewGameCode(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		code := NewGameCode()
		testutil.AssertEqual(t, "length", len(code), 6)
		for _, c := range code {
			if !((c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')) {
				t.Fatalf("unexpected character %q in code %q", c, code)
			}
		}
		seen[code] = true
	}
	if len(seen) < 90 {
		t.Errorf("expected mostly unique codes, got %d unique of 100", len(seen))
	}
}
