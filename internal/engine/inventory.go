package engine

import (
	"netrunner/internal/catalog"
)

func installItem(g *Gear, it catalog.Item) {
	switch it.Type {
	case catalog.ItemDeck:
		g.Deck = it.ID
	case catalog.ItemConsole:
		g.Console = it.ID
	case catalog.ItemImplant:
		g.Implant = it.ID
	case catalog.ItemMod:
		g.Mods = append(g.Mods, it.ID)
	case catalog.ItemTool:
		g.Tools = append(g.Tools, it.ID)
	}
}

// ProgramSlots is how many programs can be active at once.
func ProgramSlots(st *PlayerState, cat *catalog.Catalog) int {
	slots := 0
	for _, id := range []string{st.Installed.Deck, st.Installed.Console} {
		if it, ok := cat.Item(id); ok {
			slots += it.Slots
		}
	}
	return slots + int(UpgradeModifiers(st, cat).Num(ModSlotAdd))
}

// CPUCapacity is the CPU budget of the installed deck and console.
func CPUCapacity(st *PlayerState, cat *catalog.Catalog) int {
	cpu := 0
	for _, id := range []string{st.Installed.Deck, st.Installed.Console} {
		if it, ok := cat.Item(id); ok {
			cpu += it.CPU
		}
	}
	return cpu + int(UpgradeModifiers(st, cat).Num(ModCPUAdd))
}

// CPUUsed is the CPU the active programs consume.
func CPUUsed(st *PlayerState, cat *catalog.Catalog) int {
	used := 0
	for _, id := range st.ActivePrograms {
		if p, ok := cat.Program(id); ok {
			used += p.CPU
		}
	}
	return used
}

func buyItem(st *PlayerState, cat *catalog.Catalog, id string) (catalog.Item, error) {
	it, ok := cat.Item(id)
	if !ok {
		return catalog.Item{}, ErrNotFound
	}
	if st.OwnedGear[id] {
		return it, ErrAlreadyDone
	}
	for _, req := range it.Requires {
		if !st.OwnedGear[req] {
			return it, ErrMissingPrerequisite
		}
	}
	if st.Credits < it.Cost {
		return it, ErrInsufficientFunds
	}
	st.Credits -= it.Cost
	st.OwnedGear[id] = true
	installItem(&st.Installed, it)
	return it, nil
}

func learnProgram(st *PlayerState, cat *catalog.Catalog, id string) (catalog.Program, error) {
	p, ok := cat.Program(id)
	if !ok {
		return catalog.Program{}, ErrNotFound
	}
	if st.OwnedPrograms[id] {
		return p, ErrAlreadyDone
	}
	if st.Credits < p.Cost {
		return p, ErrInsufficientFunds
	}
	st.Credits -= p.Cost
	st.OwnedPrograms[id] = true
	return p, nil
}

func isActive(st *PlayerState, id string) bool {
	for _, a := range st.ActivePrograms {
		if a == id {
			return true
		}
	}
	return false
}

func equipProgram(st *PlayerState, cat *catalog.Catalog, id string) (catalog.Program, error) {
	p, ok := cat.Program(id)
	if !ok {
		return catalog.Program{}, ErrNotFound
	}
	if !st.OwnedPrograms[id] {
		return p, ErrMissingPrerequisite
	}
	if isActive(st, id) {
		return p, ErrAlreadyDone
	}
	if len(st.ActivePrograms) >= ProgramSlots(st, cat) {
		return p, ErrCapacityExceeded
	}
	if CPUUsed(st, cat)+p.CPU > CPUCapacity(st, cat) {
		return p, ErrCapacityExceeded
	}
	st.ActivePrograms = append(st.ActivePrograms, id)
	return p, nil
}

func unequipProgram(st *PlayerState, id string) error {
	for i, a := range st.ActivePrograms {
		if a == id {
			st.ActivePrograms = append(st.ActivePrograms[:i], st.ActivePrograms[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}
