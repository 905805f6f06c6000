package game

// Role identifies who authored a chat entry.
type Role string

const (
	RoleUser   Role = "user"
	RoleModel  Role = "model"
	RoleSystem Role = "system"
)

// ChatEntry is one turn in a session's conversation. The history is
// append-only; entries are never edited or removed.
type ChatEntry struct {
	Role Role `json:"role"`

	// UserID identifies the author when Role is RoleUser.
	UserID string `json:"userId,omitempty"`

	// PlayerName is the display name recorded at the time of the entry.
	PlayerName string `json:"playerName,omitempty"`

	Text string `json:"text"`
}

// UserEntry builds a player-authored chat entry.
func UserEntry(userID, playerName, text string) ChatEntry {
	return ChatEntry{Role: RoleUser, UserID: userID, PlayerName: playerName, Text: text}
}

// ModelEntry builds a narrator-authored chat entry.
func ModelEntry(text string) ChatEntry {
	return ChatEntry{Role: RoleModel, Text: text}
}

// SystemEntry builds an out-of-band entry, such as a join announcement.
func SystemEntry(text string) ChatEntry {
	return ChatEntry{Role: RoleSystem, Text: text}
}
