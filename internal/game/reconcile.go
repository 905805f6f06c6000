package game

// ApplyUpdate folds a StatsUpdate into a player map. Players named in the
// update but absent from the map are skipped with a diagnostic. Untouched
// records pass through unchanged; changed records are fresh copies, so callers
// can compare old and new without aliasing surprises.
func ApplyUpdate(players PlayerCharacterMap, upd StatsUpdate) (PlayerCharacterMap, []Diagnostic) {
	if len(upd) == 0 {
		return players, nil
	}

	out := make(PlayerCharacterMap, len(players))
	for id, pc := range players {
		out[id] = pc
	}

	var diags []Diagnostic
	for id, patch := range upd {
		pc, ok := out[id]
		if !ok {
			diags = append(diags, Diagnostic{Kind: DiagUnknownPlayer, PlayerID: id})
			continue
		}

		stats, d := applyPatch(id, pc.Stats, patch)
		diags = append(diags, d...)
		out[id] = PlayerCharacter{Stats: stats, Setting: pc.Setting}
	}

	return out, diags
}

// ApplyPatch applies one patch to a bare CharacterStats, the single-player
// form of ApplyUpdate. The playerID labels diagnostics only.
func ApplyPatch(playerID string, stats CharacterStats, patch StatsPatch) (CharacterStats, []Diagnostic) {
	return applyPatch(playerID, stats, patch)
}

// applyPatch applies the patch in a fixed order: scalar overwrites, inventory
// add, inventory remove, equip, unequip. Equip and unequip see the inventory
// as it stands after add and remove.
func applyPatch(playerID string, stats CharacterStats, patch StatsPatch) (CharacterStats, []Diagnostic) {
	s := stats.Clone()
	var diags []Diagnostic

	if patch.Health != nil {
		s.Health = *patch.Health
	}
	if patch.Gold != nil {
		s.Gold = *patch.Gold
	}
	if patch.Experience != nil {
		s.Experience = *patch.Experience
	}
	if patch.Location != nil {
		s.Location = *patch.Location
	}

	if len(patch.InventoryAdd) > 0 {
		s.Inventory = unionInventory(s.Inventory, patch.InventoryAdd)
	}

	if len(patch.InventoryRemove) > 0 {
		drop := make(map[string]bool, len(patch.InventoryRemove))
		for _, item := range patch.InventoryRemove {
			drop[item] = true
		}
		kept := s.Inventory[:0]
		for _, item := range s.Inventory {
			if !drop[item] {
				kept = append(kept, item)
			}
		}
		s.Inventory = kept
	}

	if eq := patch.InventoryEquip; eq != nil && eq.Item != "" && eq.Slot != "" {
		if s.HasItem(eq.Item) {
			// A displaced item goes back to the inventory before the new one
			// takes the slot.
			if prev, occupied := s.Equipped[eq.Slot]; occupied {
				s.Inventory = append(s.Inventory, prev)
			}
			s.Equipped[eq.Slot] = eq.Item
			kept := s.Inventory[:0]
			for _, item := range s.Inventory {
				if item != eq.Item {
					kept = append(kept, item)
				}
			}
			s.Inventory = kept
		} else {
			diags = append(diags, Diagnostic{
				Kind:     DiagEquipMissingItem,
				PlayerID: playerID,
				Item:     eq.Item,
				Slot:     eq.Slot,
			})
		}
	}

	if item := patch.InventoryUnequip; item != "" {
		slot := ""
		for sl, it := range s.Equipped {
			if it == item {
				slot = sl
				break
			}
		}
		if slot != "" {
			s.Inventory = append(s.Inventory, item)
			delete(s.Equipped, slot)
		} else {
			diags = append(diags, Diagnostic{
				Kind:     DiagUnequipNotEquipped,
				PlayerID: playerID,
				Item:     item,
			})
		}
	}

	return s, diags
}

// unionInventory merges added items into the inventory with set semantics:
// each item name appears once, in order of first appearance.
func unionInventory(current, added []string) []string {
	seen := make(map[string]bool, len(current)+len(added))
	out := make([]string, 0, len(current)+len(added))
	for _, item := range current {
		if !seen[item] {
			seen[item] = true
			out = append(out, item)
		}
	}
	for _, item := range added {
		if !seen[item] {
			seen[item] = true
			out = append(out, item)
		}
	}
	return out
}
