package realtime

import (
	"encoding/json"
	"errors"
	"fmt"

	"foodcourt/internal/domain"
)

var ErrUnknownEvent = errors.New("unknown event")

// Frame is one raw push message before decoding.
type Frame struct {
	Name    string          `json:"event"`
	Payload json.RawMessage `json:"data,omitempty"`
}

// Decode turns a wire frame into a catalog event.
func Decode(f Frame) (domain.Event, error) {
	switch f.Name {
	case domain.EventMenuItemUpdated:
		var dto domain.MenuItemDTO
		if err := json.Unmarshal(f.Payload, &dto); err != nil {
			return nil, fmt.Errorf("%s: %w", f.Name, err)
		}
		if dto.ID == "" {
			return nil, fmt.Errorf("%s: missing _id", f.Name)
		}
		return domain.ItemUpserted{Item: dto.ToCatalogItem()}, nil

	case domain.EventMenuItemDeleted:
		var id string
		if err := json.Unmarshal(f.Payload, &id); err != nil {
			return nil, fmt.Errorf("%s: %w", f.Name, err)
		}
		if id == "" {
			return nil, fmt.Errorf("%s: empty item id", f.Name)
		}
		return domain.ItemRemoved{ItemID: id}, nil

	case domain.EventInventoryUpdated:
		var upd domain.InventoryUpdate
		if err := json.Unmarshal(f.Payload, &upd); err != nil {
			return nil, fmt.Errorf("%s: %w", f.Name, err)
		}
		if upd.MenuItemID == "" {
			return nil, fmt.Errorf("%s: missing menuItemId", f.Name)
		}
		return domain.StockChanged{ItemID: upd.MenuItemID, Stock: upd.Quantity}, nil

	case domain.EventInventoryReset:
		return domain.StockReset{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, f.Name)
}

// Encode is the inverse of Decode, used by publishers and tests.
func Encode(ev domain.Event) (Frame, error) {
	f := Frame{Name: domain.EventName(ev)}
	var (
		payload any
		err     error
	)
	switch e := ev.(type) {
	case domain.ItemUpserted:
		payload = domain.MenuItemDTO{
			ID:            e.Item.ID,
			Name:          e.Item.Name,
			Description:   e.Item.Description,
			Price:         e.Item.UnitPrice,
			Category:      e.Item.Category,
			Image:         e.Item.ImageRef,
			AvailableTime: string(e.Item.Window),
			IsActive:      e.Item.IsActive,
			Quantity:      e.Item.Stock,
		}
	case domain.ItemRemoved:
		payload = e.ItemID
	case domain.StockChanged:
		payload = domain.InventoryUpdate{MenuItemID: e.ItemID, Quantity: e.Stock}
	case domain.StockReset:
		return f, nil
	}
	f.Payload, err = json.Marshal(payload)
	return f, err
}
