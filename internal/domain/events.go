package domain

// Event is the closed set of catalog changes pushed by the backend.
// Only the types in this file implement it.
type Event interface {
	eventName() string
}

type ItemUpserted struct {
	Item CatalogItem
}

type ItemRemoved struct {
	ItemID string
}

type StockChanged struct {
	ItemID string
	Stock  int
}

// StockReset is the end-of-window sweep that zeroes every item.
type StockReset struct{}

// Wire names used by the push channel.
const (
	EventMenuItemUpdated  = "menuItemUpdated"
	EventMenuItemDeleted  = "menuItemDeleted"
	EventInventoryUpdated = "inventoryUpdated"
	EventInventoryReset   = "inventoryReset"
)

func (ItemUpserted) eventName() string { return EventMenuItemUpdated }
func (ItemRemoved) eventName() string  { return EventMenuItemDeleted }
func (StockChanged) eventName() string { return EventInventoryUpdated }
func (StockReset) eventName() string   { return EventInventoryReset }

func EventName(ev Event) string { return ev.eventName() }
