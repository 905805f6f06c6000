package game

import (
	"reflect"
	"testing"

	"github.com/pixil98/go-testutil"
)

func intPtr(i int) *int       { return &i }
func strPtr(s string) *string { return &s }

func statsWith(inv []string, eq map[string]string) CharacterStats {
	s := NewCharacterStats()
	s.Inventory = append(s.Inventory, inv...)
	for slot, item := range eq {
		s.Equipped[slot] = item
	}
	return s
}

func TestApplyPatch(t *testing.T) {
	tests := map[string]struct {
		stats    CharacterStats
		patch    StatsPatch
		exp      CharacterStats
		expDiags []Diagnostic
	}{
		"empty patch leaves stats unchanged": {
			stats: statsWith([]string{"Torch"}, nil),
			patch: StatsPatch{},
			exp:   statsWith([]string{"Torch"}, nil),
		},
		"scalar overwrite with remove": {
			stats: statsWith([]string{"Torch", "Sword"}, nil),
			patch: StatsPatch{
				Health:          intPtr(80),
				InventoryRemove: []string{"Torch"},
			},
			exp: func() CharacterStats {
				s := statsWith([]string{"Sword"}, nil)
				s.Health = 80
				return s
			}(),
		},
		"absent scalars are not reset": {
			stats: func() CharacterStats {
				s := NewCharacterStats()
				s.Gold = 50
				s.Experience = 120
				s.Location = "The Mire"
				return s
			}(),
			patch: StatsPatch{Health: intPtr(10)},
			exp: func() CharacterStats {
				s := NewCharacterStats()
				s.Health = 10
				s.Gold = 50
				s.Experience = 120
				s.Location = "The Mire"
				return s
			}(),
		},
		"location overwrite": {
			stats: statsWith(nil, nil),
			patch: StatsPatch{Location: strPtr("Sunken Crypt")},
			exp: func() CharacterStats {
				s := NewCharacterStats()
				s.Location = "Sunken Crypt"
				return s
			}(),
		},
		"add collapses duplicates preserving first appearance": {
			stats: statsWith([]string{"Torch"}, nil),
			patch: StatsPatch{InventoryAdd: []string{"Potion", "Torch", "Potion"}},
			exp:   statsWith([]string{"Torch", "Potion"}, nil),
		},
		"remove drops every occurrence": {
			stats: statsWith([]string{"Rat Tail", "Sword", "Rat Tail"}, nil),
			patch: StatsPatch{InventoryRemove: []string{"Rat Tail"}},
			exp:   statsWith([]string{"Sword"}, nil),
		},
		"equip moves item from inventory to slot": {
			stats: statsWith([]string{"Torch", "Sword"}, nil),
			patch: StatsPatch{InventoryEquip: &EquipDirective{Item: "Sword", Slot: "main_hand"}},
			exp:   statsWith([]string{"Torch"}, map[string]string{"main_hand": "Sword"}),
		},
		"equip displaces previous slot occupant back to inventory": {
			stats: statsWith([]string{"Axe"}, map[string]string{"main_hand": "Sword"}),
			patch: StatsPatch{InventoryEquip: &EquipDirective{Item: "Axe", Slot: "main_hand"}},
			exp:   statsWith([]string{"Sword"}, map[string]string{"main_hand": "Axe"}),
		},
		"equip absent item is a no-op with diagnostic": {
			stats: statsWith([]string{"Sword"}, nil),
			patch: StatsPatch{InventoryEquip: &EquipDirective{Item: "Shield", Slot: "off_hand"}},
			exp:   statsWith([]string{"Sword"}, nil),
			expDiags: []Diagnostic{
				{Kind: DiagEquipMissingItem, PlayerID: "p1", Item: "Shield", Slot: "off_hand"},
			},
		},
		"unequip returns item to inventory": {
			stats: statsWith([]string{"Torch"}, map[string]string{"main_hand": "Sword"}),
			patch: StatsPatch{InventoryUnequip: "Sword"},
			exp:   statsWith([]string{"Torch", "Sword"}, nil),
		},
		"unequip item not equipped is a no-op with diagnostic": {
			stats: statsWith([]string{"Torch"}, map[string]string{"main_hand": "Sword"}),
			patch: StatsPatch{InventoryUnequip: "Axe"},
			exp:   statsWith([]string{"Torch"}, map[string]string{"main_hand": "Sword"}),
			expDiags: []Diagnostic{
				{Kind: DiagUnequipNotEquipped, PlayerID: "p1", Item: "Axe"},
			},
		},
		"equip sees inventory after add": {
			stats: statsWith(nil, nil),
			patch: StatsPatch{
				InventoryAdd:   []string{"Lantern"},
				InventoryEquip: &EquipDirective{Item: "Lantern", Slot: "off_hand"},
			},
			exp: statsWith(nil, map[string]string{"off_hand": "Lantern"}),
		},
		"equip loses to a remove in the same patch": {
			stats: statsWith([]string{"Dagger"}, nil),
			patch: StatsPatch{
				InventoryRemove: []string{"Dagger"},
				InventoryEquip:  &EquipDirective{Item: "Dagger", Slot: "main_hand"},
			},
			exp: statsWith(nil, nil),
			expDiags: []Diagnostic{
				{Kind: DiagEquipMissingItem, PlayerID: "p1", Item: "Dagger", Slot: "main_hand"},
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, diags := ApplyPatch("p1", tt.stats, tt.patch)

			if !reflect.DeepEqual(got, tt.exp) {
				t.Errorf("stats = %+v, expected %+v", got, tt.exp)
			}
			if !reflect.DeepEqual(diags, tt.expDiags) {
				t.Errorf("diagnostics = %+v, expected %+v", diags, tt.expDiags)
			}
		})
	}
}

func TestApplyPatch_EquipUnequipRoundTrip(t *testing.T) {
	before := statsWith([]string{"Torch", "Sword"}, map[string]string{"head": "Helm"})

	equipped, diags := ApplyPatch("p1", before, StatsPatch{
		InventoryEquip: &EquipDirective{Item: "Sword", Slot: "main_hand"},
	})
	testutil.AssertEqual(t, "equip diagnostics", len(diags), 0)

	after, diags := ApplyPatch("p1", equipped, StatsPatch{InventoryUnequip: "Sword"})
	testutil.AssertEqual(t, "unequip diagnostics", len(diags), 0)

	if !reflect.DeepEqual(after, before) {
		t.Errorf("round trip changed stats: before %+v, after %+v", before, after)
	}
}

func TestApplyPatch_AddIsIdempotent(t *testing.T) {
	stats := statsWith(nil, nil)
	patch := StatsPatch{InventoryAdd: []string{"Potion", "Potion"}}

	once, _ := ApplyPatch("p1", stats, patch)
	twice, _ := ApplyPatch("p1", once, patch)

	if !reflect.DeepEqual(twice.Inventory, []string{"Potion"}) {
		t.Errorf("inventory = %v, expected exactly one Potion", twice.Inventory)
	}
}

func TestApplyPatch_DoesNotMutateInput(t *testing.T) {
	stats := statsWith([]string{"Torch", "Sword"}, map[string]string{"head": "Helm"})

	_, _ = ApplyPatch("p1", stats, StatsPatch{
		Health:          intPtr(1),
		InventoryAdd:    []string{"Potion"},
		InventoryRemove: []string{"Torch"},
		InventoryEquip:  &EquipDirective{Item: "Sword", Slot: "main_hand"},
	})

	exp := statsWith([]string{"Torch", "Sword"}, map[string]string{"head": "Helm"})
	if !reflect.DeepEqual(stats, exp) {
		t.Errorf("input stats mutated: %+v", stats)
	}
}

func TestApplyUpdate(t *testing.T) {
	base := PlayerCharacterMap{
		"alice": {
			Stats:   statsWith([]string{"Torch"}, nil),
			Setting: WorldSetting{PlayerName: "Alice", CharacterType: "Rogue", WorldType: "fantasy"},
		},
		"bob": {
			Stats:   statsWith([]string{"Hammer"}, nil),
			Setting: WorldSetting{PlayerName: "Bob", CharacterType: "Cleric", WorldType: "fantasy"},
		},
	}

	t.Run("patches only named players", func(t *testing.T) {
		got, diags := ApplyUpdate(base, StatsUpdate{
			"alice": {Gold: intPtr(25)},
		})

		testutil.AssertEqual(t, "diagnostics", len(diags), 0)
		testutil.AssertEqual(t, "alice gold", got["alice"].Stats.Gold, 25)
		if !reflect.DeepEqual(got["bob"], base["bob"]) {
			t.Errorf("bob changed: %+v", got["bob"])
		}
	})

	t.Run("unknown player leaves map unchanged", func(t *testing.T) {
		got, diags := ApplyUpdate(base, StatsUpdate{
			"charlie": {Health: intPtr(1)},
		})

		if !reflect.DeepEqual(got, base) {
			t.Errorf("map changed for unknown player: %+v", got)
		}
		if len(diags) != 1 || diags[0].Kind != DiagUnknownPlayer || diags[0].PlayerID != "charlie" {
			t.Errorf("diagnostics = %+v, expected one unknown_player for charlie", diags)
		}
	})

	t.Run("setting passes through untouched", func(t *testing.T) {
		got, _ := ApplyUpdate(base, StatsUpdate{"alice": {Health: intPtr(7)}})
		testutil.AssertEqual(t, "alice name", got["alice"].Setting.PlayerName, "Alice")
	})

	t.Run("empty update returns input", func(t *testing.T) {
		got, diags := ApplyUpdate(base, StatsUpdate{})
		testutil.AssertEqual(t, "diagnostics", len(diags), 0)
		if !reflect.DeepEqual(got, base) {
			t.Errorf("map changed on empty update")
		}
	})
}
