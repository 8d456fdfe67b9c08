package engine

import (
	"sort"

	"netrunner/internal/catalog"
)

// LootDrop is one rolled loot entry.
type LootDrop struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	UnitBase float64 `json:"unitBase"`
	Quantity int     `json:"quantity"`
}

// Sale is the result of selling loot.
type Sale struct {
	Items   map[string]int `json:"items"`
	Credits float64        `json:"credits"`
}

func rollLoot(rng Rand, server catalog.Server) []LootDrop {
	var out []LootDrop
	for _, e := range server.Reward.Loot {
		if rng.Float64() >= e.Chance() {
			continue
		}
		lo, hi := e.QuantityRange()
		qty := lo
		if hi > lo {
			qty = lo + rng.Intn(hi-lo+1)
		}
		out = append(out, LootDrop{ID: e.ID, Name: e.Name, UnitBase: e.UnitBase(), Quantity: qty})
	}
	return out
}

func addLoot(st *PlayerState, drops []LootDrop) {
	for _, d := range drops {
		if d.Quantity <= 0 {
			continue
		}
		cur, ok := st.Loot[d.ID]
		if !ok {
			cur = LootStack{Name: d.Name, UnitBase: d.UnitBase}
		}
		cur.Quantity += d.Quantity
		st.Loot[d.ID] = cur
	}
}

// sellLoot sells qty units of id; qty <= 0 sells the whole stack.
func sellLoot(st *PlayerState, t catalog.Tuning, id string, qty int) (Sale, error) {
	stack, ok := st.Loot[id]
	if !ok || stack.Quantity <= 0 {
		return Sale{}, ErrNotFound
	}
	n := stack.Quantity
	if qty > 0 && qty < n {
		n = qty
	}
	gain := round2(LootUnitPrice(st, t, stack.UnitBase) * float64(n))
	st.Credits = round2(st.Credits + gain)
	stack.Quantity -= n
	if stack.Quantity <= 0 {
		delete(st.Loot, id)
	} else {
		st.Loot[id] = stack
	}
	return Sale{Items: map[string]int{id: n}, Credits: gain}, nil
}

func sellAllLoot(st *PlayerState, t catalog.Tuning) (Sale, error) {
	ids := make([]string, 0, len(st.Loot))
	for id := range st.Loot {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	sale := Sale{Items: map[string]int{}}
	var gain float64
	for _, id := range ids {
		stack := st.Loot[id]
		gain += LootUnitPrice(st, t, stack.UnitBase) * float64(stack.Quantity)
		sale.Items[id] = stack.Quantity
	}
	gain = round2(gain)
	if gain <= 0 {
		return Sale{}, ErrNotFound
	}
	st.Credits = round2(st.Credits + gain)
	st.Loot = map[string]LootStack{}
	sale.Credits = gain
	return sale, nil
}
