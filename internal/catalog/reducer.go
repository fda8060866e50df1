package catalog

import (
	"slices"

	"foodcourt/internal/domain"
)

// State is an ordered, id-unique list of catalog items. Values are never mutated in place;
// Reduce always returns a fresh slice.
type State struct {
	items []domain.CatalogItem
}

func NewState(items []domain.CatalogItem) State {
	var s State
	for _, it := range items {
		s = Reduce(s, domain.ItemUpserted{Item: it})
	}
	return s
}

func (s State) Items() []domain.CatalogItem { return slices.Clone(s.items) }

func (s State) Len() int { return len(s.items) }

func (s State) Get(id string) (domain.CatalogItem, bool) {
	if i := s.index(id); i >= 0 {
		return s.items[i], true
	}
	return domain.CatalogItem{}, false
}

func (s State) index(id string) int {
	return slices.IndexFunc(s.items, func(it domain.CatalogItem) bool { return it.ID == id })
}

// Reduce applies one event. Every event is an idempotent, last-write-wins update keyed by item id.
func Reduce(s State, ev domain.Event) State {
	switch e := ev.(type) {
	case domain.ItemUpserted:
		items := slices.Clone(s.items)
		if i := s.index(e.Item.ID); i >= 0 {
			items[i] = e.Item
		} else {
			items = append(items, e.Item)
		}
		return State{items: items}
	case domain.ItemRemoved:
		i := s.index(e.ItemID)
		if i < 0 {
			return s
		}
		return State{items: slices.Delete(slices.Clone(s.items), i, i+1)}
	case domain.StockChanged:
		i := s.index(e.ItemID)
		if i < 0 {
			return s
		}
		items := slices.Clone(s.items)
		items[i].Stock = max(e.Stock, 0)
		return State{items: items}
	case domain.StockReset:
		items := slices.Clone(s.items)
		for i := range items {
			items[i].Stock = 0
		}
		return State{items: items}
	}
	return s
}
