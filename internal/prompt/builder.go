// Package prompt turns session state into the outbound request for the
// narrative model. Building is a pure transformation; nothing here talks to
// the network.
package prompt

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/generative-ai-go/genai"

	"github.com/dungeonworks/storyteller/internal/game"
)

// Mode selects which of the three prompt/response shapes a request uses.
type Mode string

const (
	// ModeGame is the stateful role-play loop: full history plus a stat
	// summary for every known player, expecting narrative, stat patches, and
	// next-action options back.
	ModeGame Mode = "game"

	// ModeWorldBuilder is a stateless single-shot request for a world
	// element description. Narrative only.
	ModeWorldBuilder Mode = "worldBuilder"

	// ModeCreativeWriter is a stateless single-shot request for story
	// continuation. Narrative only.
	ModeCreativeWriter Mode = "creativeWriter"
)

// Request carries everything the builder needs for one outbound call.
type Request struct {
	Mode Mode

	// UserID is the requesting player. Their entry in Players (or Setting in
	// single-player) is marked as YOU in the game context.
	UserID  string
	Setting game.WorldSetting
	Stats   game.CharacterStats

	// History is the full conversation, resent on every game-mode call.
	History []game.ChatEntry

	// Players is the shared character map. Empty outside multiplayer.
	Players game.PlayerCharacterMap

	// FreeText is the request body for the single-shot modes.
	FreeText string
}

// Build produces the role-tagged turns for the model: a context message,
// followed in game mode by the whole history.
func Build(req Request) ([]*genai.Content, error) {
	switch req.Mode {
	case ModeWorldBuilder:
		return singleShot(worldBuilderTemplate, req.FreeText)
	case ModeCreativeWriter:
		return singleShot(creativeWriterTemplate, req.FreeText)
	case ModeGame:
		return gamePrompt(req)
	default:
		return nil, fmt.Errorf("unknown prompt mode %q", req.Mode)
	}
}

func singleShot(tmpl, freeText string) ([]*genai.Content, error) {
	text, err := expand(tmpl, struct{ Request string }{Request: freeText})
	if err != nil {
		return nil, err
	}
	return []*genai.Content{userTurn(text)}, nil
}

func gamePrompt(req Request) ([]*genai.Content, error) {
	players := req.Players
	if len(players) == 0 {
		// Single-player: summarize just the requesting player.
		players = game.PlayerCharacterMap{
			req.UserID: {Stats: req.Stats, Setting: req.Setting},
		}
	}

	context, err := expand(gameContextTemplate, struct {
		Players       []string
		PlayerName    string
		CharacterType string
	}{
		Players:       playerSummaries(players, req.UserID),
		PlayerName:    req.Setting.PlayerName,
		CharacterType: req.Setting.CharacterType,
	})
	if err != nil {
		return nil, err
	}

	turns := make([]*genai.Content, 0, len(req.History)+1)
	turns = append(turns, userTurn(context))
	for _, entry := range req.History {
		turns = append(turns, historyTurn(entry))
	}

	return turns, nil
}

// playerSummaries renders one stat line per player, sorted by id for a stable
// prompt, with the requesting player flagged.
func playerSummaries(players game.PlayerCharacterMap, userID string) []string {
	ids := make([]string, 0, len(players))
	for id := range players {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	lines := make([]string, 0, len(ids))
	for _, id := range ids {
		lines = append(lines, summarize(players[id], id == userID))
	}
	return lines
}

func summarize(pc game.PlayerCharacter, isRequester bool) string {
	location := pc.Stats.Location
	if location == "" {
		location = "Unknown"
	}

	equipped, err := json.Marshal(pc.Stats.Equipped)
	if err != nil {
		equipped = []byte("{}")
	}

	line := fmt.Sprintf("Player %s (%s): Health: %d, Gold: %d, Inventory: %s. Equipped: %s. Location: %s.",
		pc.Setting.PlayerName,
		pc.Setting.CharacterType,
		pc.Stats.Health,
		pc.Stats.Gold,
		strings.Join(pc.Stats.Inventory, ", "),
		equipped,
		location,
	)
	if isRequester {
		line = "YOU (" + line + ")"
	}
	return line
}

func userTurn(text string) *genai.Content {
	return &genai.Content{
		Role:  "user",
		Parts: []genai.Part{genai.Text(text)},
	}
}

// historyTurn maps a chat entry onto a model turn. The model API only knows
// user and model roles, so system entries ride along as user turns.
func historyTurn(entry game.ChatEntry) *genai.Content {
	role := "user"
	if entry.Role == game.RoleModel {
		role = "model"
	}
	return &genai.Content{
		Role:  role,
		Parts: []genai.Part{genai.Text(entry.Text)},
	}
}
