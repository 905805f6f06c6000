package game

// CharacterStats holds the mutable state of one player's character.
//
// Inventory keeps acquisition order and Equipped maps slot name to the single
// item occupying it. An item is either in the inventory or equipped, never
// both.
type CharacterStats struct {
	Health     int               `json:"health"`
	Gold       int               `json:"gold"`
	Experience int               `json:"experience"`
	Inventory  []string          `json:"inventory"`
	Equipped   map[string]string `json:"equipped_items"`
	Location   string            `json:"location"`
}

// NewCharacterStats returns the starting stats for a fresh character.
func NewCharacterStats() CharacterStats {
	return CharacterStats{
		Health:    100,
		Inventory: []string{},
		Equipped:  map[string]string{},
	}
}

// Clone returns a deep copy. Mutating the copy never touches the original.
func (s CharacterStats) Clone() CharacterStats {
	out := s
	out.Inventory = make([]string, len(s.Inventory))
	copy(out.Inventory, s.Inventory)
	out.Equipped = make(map[string]string, len(s.Equipped))
	for slot, item := range s.Equipped {
		out.Equipped[slot] = item
	}
	return out
}

// HasItem reports whether item is currently in the inventory.
func (s CharacterStats) HasItem(item string) bool {
	for _, i := range s.Inventory {
		if i == item {
			return true
		}
	}
	return false
}

// WorldSetting is the narrative frame for a session. It is fixed once a game
// has started.
type WorldSetting struct {
	PlayerName    string `json:"playerName"`
	CharacterType string `json:"characterType"`
	WorldType     string `json:"worldType"`
}

// Complete reports whether every field needed to start a game is filled in.
func (w WorldSetting) Complete() bool {
	return w.PlayerName != "" && w.CharacterType != "" && w.WorldType != ""
}

// PlayerCharacter pairs a player's stats with their world setting.
type PlayerCharacter struct {
	Stats   CharacterStats `json:"stats"`
	Setting WorldSetting   `json:"setting"`
}

// PlayerCharacterMap maps player id to character data. It exists only in
// multiplayer sessions; single-player sessions keep one bare
// CharacterStats/WorldSetting pair instead.
type PlayerCharacterMap map[string]PlayerCharacter

// Clone returns a deep copy of the map and every record in it.
func (m PlayerCharacterMap) Clone() PlayerCharacterMap {
	out := make(PlayerCharacterMap, len(m))
	for id, pc := range m {
		out[id] = PlayerCharacter{
			Stats:   pc.Stats.Clone(),
			Setting: pc.Setting,
		}
	}
	return out
}
