package game

// EquipDirective names an item to move from inventory into a slot.
type EquipDirective struct {
	Item string `json:"item"`
	Slot string `json:"slot"`
}

// StatsPatch is the model's proposed mutation to one character. Scalar fields
// are pointers so that an absent field leaves the current value alone rather
// than resetting it.
type StatsPatch struct {
	Health     *int    `json:"health,omitempty"`
	Gold       *int    `json:"gold,omitempty"`
	Experience *int    `json:"experience,omitempty"`
	Location   *string `json:"location,omitempty"`

	InventoryAdd     []string        `json:"inventory_add,omitempty"`
	InventoryRemove  []string        `json:"inventory_remove,omitempty"`
	InventoryEquip   *EquipDirective `json:"inventory_equip,omitempty"`
	InventoryUnequip string          `json:"inventory_unequip,omitempty"`
}

// StatsUpdate maps player id to that player's patch. It is transient: parsed
// out of a model reply, applied once, and discarded.
type StatsUpdate map[string]StatsPatch
