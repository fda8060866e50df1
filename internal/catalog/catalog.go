package catalog

import (
	"sync"
	"time"

	"foodcourt/internal/common/logger"
	"foodcourt/internal/domain"
)

// Catalog is the client's cached menu. It is fed by the initial fetch and by realtime events.
type Catalog struct {
	mu     sync.Mutex
	state  State
	loaded bool
	subs   map[int]func(State)
	nextID int
	lg     *logger.Logger
}

func New(lg *logger.Logger) *Catalog {
	if lg == nil {
		lg = logger.Nop()
	}
	return &Catalog{subs: make(map[int]func(State)), lg: lg}
}

// Apply runs one realtime event through the reducer.
func (c *Catalog) Apply(ev domain.Event) {
	c.mu.Lock()
	c.state = Reduce(c.state, ev)
	snap := c.state
	subs := c.subscribers()
	c.mu.Unlock()

	c.lg.Debug("catalog_event_applied", map[string]any{"event": domain.EventName(ev), "items": snap.Len()})
	for _, fn := range subs {
		fn(snap)
	}
}

// Replace swaps in a full fetch.
func (c *Catalog) Replace(items []domain.CatalogItem) {
	c.mu.Lock()
	c.state = NewState(items)
	c.loaded = true
	snap := c.state
	subs := c.subscribers()
	c.mu.Unlock()

	c.lg.Info("catalog_replaced", map[string]any{"items": snap.Len()})
	for _, fn := range subs {
		fn(snap)
	}
}

func (c *Catalog) subscribers() []func(State) {
	out := make([]func(State), 0, len(c.subs))
	for _, fn := range c.subs {
		out = append(out, fn)
	}
	return out
}

// Subscribe registers fn for every change; the returned func unregisters it.
func (c *Catalog) Subscribe(fn func(State)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

func (c *Catalog) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Loaded reports whether a full fetch has happened.
func (c *Catalog) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

func (c *Catalog) Items() []domain.CatalogItem { return c.Snapshot().Items() }

func (c *Catalog) Get(id string) (domain.CatalogItem, bool) { return c.Snapshot().Get(id) }

// Section lists the items shown under a menu heading; items available in both windows appear in each.
func (c *Catalog) Section(w domain.Window) []domain.CatalogItem {
	var out []domain.CatalogItem
	for _, it := range c.Items() {
		if it.Window == w || it.Window == domain.WindowBoth {
			out = append(out, it)
		}
	}
	return out
}

func (c *Catalog) Orderable(now time.Time) []domain.CatalogItem {
	var out []domain.CatalogItem
	for _, it := range c.Items() {
		if IsOrderable(it, now) {
			out = append(out, it)
		}
	}
	return out
}
