package cart

import (
	"slices"
	"sync"

	"github.com/shopspring/decimal"

	"foodcourt/internal/common/logger"
	"foodcourt/internal/domain"
	"foodcourt/internal/storage"
)

type Snapshot struct {
	Lines       []domain.CartLine
	TotalItems  int
	TotalAmount decimal.Decimal
}

type StoreInterface interface {
	AddItem(item domain.CatalogItem, mode domain.FulfillmentMode)
	RemoveItem(itemID string)
	SetQuantity(itemID string, qty int)
	SetFulfillmentMode(itemID string, mode domain.FulfillmentMode)
	Clear()
	RemoveOrdered(lines []domain.CartLine)
	Snapshot() Snapshot
	ReadyForCheckout() error
}

// Store holds the cart lines in insertion order. Every mutation persists the whole cart
// and notifies subscribers; persistence failures are logged, not returned.
type Store struct {
	mu     sync.Mutex
	lines  []domain.CartLine
	st     storage.Store
	lg     *logger.Logger
	subs   map[int]func(Snapshot)
	nextID int
}

// NewStore rehydrates the cart from st. A corrupt snapshot starts an empty cart.
func NewStore(st storage.Store, lg *logger.Logger) *Store {
	if lg == nil {
		lg = logger.Nop()
	}
	s := &Store{st: st, lg: lg, subs: make(map[int]func(Snapshot))}

	var saved []domain.CartLine
	ok, err := storage.LoadJSON(st, storage.KeyCart, &saved)
	switch {
	case err != nil:
		lg.Error("cart_rehydrate_failed", err, nil)
	case ok:
		s.lines = sanitize(saved)
		lg.Debug("cart_rehydrated", map[string]any{"lines": len(s.lines)})
	}
	return s
}

// sanitize drops lines that would break the cart invariants.
func sanitize(lines []domain.CartLine) []domain.CartLine {
	out := make([]domain.CartLine, 0, len(lines))
	seen := make(map[string]bool, len(lines))
	for _, l := range lines {
		if l.ItemID == "" || l.Quantity < 1 || seen[l.ItemID] {
			continue
		}
		seen[l.ItemID] = true
		out = append(out, l)
	}
	return out
}

func (s *Store) index(itemID string) int {
	return slices.IndexFunc(s.lines, func(l domain.CartLine) bool { return l.ItemID == itemID })
}

// AddItem appends a new line with quantity 1, or adds one unit to an existing line
// without touching its fulfillment mode.
func (s *Store) AddItem(item domain.CatalogItem, mode domain.FulfillmentMode) {
	s.mutate("item_added", map[string]any{"item_id": item.ID}, func() bool {
		if i := s.index(item.ID); i >= 0 {
			s.lines[i].Quantity++
			return true
		}
		if !mode.Valid() {
			mode = domain.ModeUnset
		}
		s.lines = append(s.lines, domain.CartLine{
			ItemID:    item.ID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  1,
			Mode:      mode,
		})
		return true
	})
}

func (s *Store) RemoveItem(itemID string) {
	s.mutate("item_removed", map[string]any{"item_id": itemID}, func() bool {
		return s.remove(itemID)
	})
}

func (s *Store) remove(itemID string) bool {
	i := s.index(itemID)
	if i < 0 {
		return false
	}
	s.lines = slices.Delete(s.lines, i, i+1)
	return true
}

// SetQuantity removes the line when qty <= 0.
func (s *Store) SetQuantity(itemID string, qty int) {
	s.mutate("quantity_set", map[string]any{"item_id": itemID, "quantity": qty}, func() bool {
		if qty <= 0 {
			return s.remove(itemID)
		}
		i := s.index(itemID)
		if i < 0 {
			return false
		}
		s.lines[i].Quantity = qty
		return true
	})
}

func (s *Store) SetFulfillmentMode(itemID string, mode domain.FulfillmentMode) {
	s.mutate("mode_set", map[string]any{"item_id": itemID, "mode": string(mode)}, func() bool {
		if !mode.Valid() {
			return false
		}
		i := s.index(itemID)
		if i < 0 {
			return false
		}
		s.lines[i].Mode = mode
		return true
	})
}

func (s *Store) Clear() {
	s.mutate("cart_cleared", nil, func() bool {
		s.lines = nil
		return true
	})
}

// RemoveOrdered takes the ordered quantities off the cart. Lines added or topped up
// after the order snapshot was taken stay in the cart with the remainder.
func (s *Store) RemoveOrdered(lines []domain.CartLine) {
	s.mutate("ordered_removed", map[string]any{"lines": len(lines)}, func() bool {
		changed := false
		for _, l := range lines {
			i := s.index(l.ItemID)
			if i < 0 {
				continue
			}
			changed = true
			if s.lines[i].Quantity <= l.Quantity {
				s.lines = slices.Delete(s.lines, i, i+1)
				continue
			}
			s.lines[i].Quantity -= l.Quantity
		}
		return changed
	})
}

// mutate runs fn under the lock; when fn reports a change the full cart is persisted and subscribers see the new snapshot.
func (s *Store) mutate(action string, fields map[string]any, fn func() bool) {
	s.mu.Lock()
	if !fn() {
		s.mu.Unlock()
		s.lg.Debug(action+"_noop", fields)
		return
	}
	snap := s.snapshotLocked()
	if err := storage.SaveJSON(s.st, storage.KeyCart, snap.Lines); err != nil {
		s.lg.Error("cart_persist_failed", err, fields)
	}
	subs := make([]func(Snapshot), 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	s.lg.Debug(action, fields)
	for _, sub := range subs {
		sub(snap)
	}
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{Lines: slices.Clone(s.lines), TotalAmount: decimal.Zero}
	if snap.Lines == nil {
		snap.Lines = []domain.CartLine{}
	}
	for _, l := range s.lines {
		snap.TotalItems += l.Quantity
		snap.TotalAmount = snap.TotalAmount.Add(l.Subtotal())
	}
	return snap
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) Lines() []domain.CartLine { return s.Snapshot().Lines }

func (s *Store) TotalItems() int { return s.Snapshot().TotalItems }

func (s *Store) TotalAmount() decimal.Decimal { return s.Snapshot().TotalAmount }

func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// ReadyForCheckout fails while the cart is empty or any line lacks a fulfillment mode.
func (s *Store) ReadyForCheckout() error {
	snap := s.Snapshot()
	if len(snap.Lines) == 0 {
		return domain.Invalid("cart", "cart is empty")
	}
	for _, l := range snap.Lines {
		if !l.Mode.Valid() {
			return domain.Invalid("cart", "please select service type (dine-in/takeaway) for all items")
		}
	}
	return nil
}
