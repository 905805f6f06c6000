package game

import "fmt"

// DiagnosticKind classifies a patch operation that was dropped during
// reconciliation.
type DiagnosticKind string

const (
	// DiagUnknownPlayer means the patch named a player id that is not in the
	// session. The model invents ids sometimes.
	DiagUnknownPlayer DiagnosticKind = "unknown_player"

	// DiagEquipMissingItem means the patch tried to equip an item the player
	// does not carry.
	DiagEquipMissingItem DiagnosticKind = "equip_missing_item"

	// DiagUnequipNotEquipped means the patch tried to unequip an item no slot
	// holds.
	DiagUnequipNotEquipped DiagnosticKind = "unequip_not_equipped"
)

// Diagnostic records one dropped patch operation. Dropping is deliberate
// tolerance of model hallucination, but each drop is still observable so a
// real data-sync problem doesn't hide behind it.
type Diagnostic struct {
	Kind     DiagnosticKind `json:"kind"`
	PlayerID string         `json:"playerId"`
	Item     string         `json:"item,omitempty"`
	Slot     string         `json:"slot,omitempty"`
}

func (d Diagnostic) String() string {
	switch d.Kind {
	case DiagUnknownPlayer:
		return fmt.Sprintf("dropped patch for unknown player %q", d.PlayerID)
	case DiagEquipMissingItem:
		return fmt.Sprintf("player %q cannot equip %q to %q: not in inventory", d.PlayerID, d.Item, d.Slot)
	case DiagUnequipNotEquipped:
		return fmt.Sprintf("player %q cannot unequip %q: not equipped", d.PlayerID, d.Item)
	default:
		return fmt.Sprintf("dropped patch operation for player %q", d.PlayerID)
	}
}
