package narrative

import (
	"encoding/json"
	"strings"

	"github.com/dungeonworks/storyteller/internal/game"
)

// DefaultNarrative fills in when a structured reply carries no narrative text.
const DefaultNarrative = "The story continues..."

// Reply is the structured form of a model response. Every field is always
// populated: StatsUpdate and Options are empty rather than nil-for-error.
type Reply struct {
	Narrative   string           `json:"narrative"`
	StatsUpdate game.StatsUpdate `json:"stats_update"`
	Options     []string         `json:"options"`
}

// Parse extracts a Reply from raw model output. The model is asked for a JSON
// object but frequently wraps it in prose or markdown fencing, so Parse scans
// for the first balanced top-level object and decodes that. Anything that
// fails to scan or decode degrades to a reply whose narrative is the raw text.
// Parse never fails.
func Parse(raw string) Reply {
	reply := Reply{
		Narrative:   raw,
		StatsUpdate: game.StatsUpdate{},
		Options:     []string{},
	}

	candidate, ok := extractObject(raw)
	if !ok {
		return reply
	}

	var decoded struct {
		Narrative   string           `json:"narrative"`
		StatsUpdate game.StatsUpdate `json:"stats_update"`
		Options     []string         `json:"options"`
	}
	if err := json.Unmarshal([]byte(candidate), &decoded); err != nil {
		return reply
	}

	reply.Narrative = decoded.Narrative
	if reply.Narrative == "" {
		reply.Narrative = DefaultNarrative
	}
	if decoded.StatsUpdate != nil {
		reply.StatsUpdate = decoded.StatsUpdate
	}
	if decoded.Options != nil {
		reply.Options = decoded.Options
	}

	return reply
}

// extractObject returns the substring from the first '{' through its balanced
// closing '}'. Braces inside JSON strings don't count toward the balance, and
// escaped quotes don't end a string. Truncated output, or text with no object
// at all, reports false.
func extractObject(raw string) (string, bool) {
	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return raw[start : i+1], true
			}
		}
	}

	return "", false
}
