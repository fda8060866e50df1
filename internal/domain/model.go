package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

func (r Role) Valid() bool { return r == RoleCustomer || r == RoleAdmin }

// FulfillmentMode is empty until the customer picks one; it is stored as JSON null in that case.
type FulfillmentMode string

const (
	ModeUnset    FulfillmentMode = ""
	ModeDineIn   FulfillmentMode = "dine-in"
	ModeTakeaway FulfillmentMode = "takeaway"
)

func (m FulfillmentMode) Valid() bool { return m == ModeDineIn || m == ModeTakeaway }

func (m FulfillmentMode) MarshalJSON() ([]byte, error) {
	if m == ModeUnset {
		return []byte("null"), nil
	}
	return json.Marshal(string(m))
}

func (m *FulfillmentMode) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*m = ModeUnset
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	mode := FulfillmentMode(s)
	if mode != ModeUnset && !mode.Valid() {
		return fmt.Errorf("unknown fulfillment mode %q", s)
	}
	*m = mode
	return nil
}

type Window string

const (
	WindowMorning   Window = "morning"
	WindowAfternoon Window = "afternoon"
	WindowBoth      Window = "both"
)

type Tier string

const (
	TierRegular Tier = "regular"
	TierPremium Tier = "premium"
	TierDeluxe  Tier = "deluxe"
)

// CatalogItem is the client's read-only projection of a backend menu item.
type CatalogItem struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Category    string          `json:"category"`
	ImageRef    string          `json:"image_ref,omitempty"`
	Window      Window          `json:"window"`
	IsActive    bool            `json:"is_active"`
	Stock       int             `json:"stock"`
}

type CartLine struct {
	ItemID    string          `json:"itemId"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
	Mode      FulfillmentMode `json:"fulfillmentMode"`
}

func (l CartLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Session is either absent or fully populated; callers hold it by value.
type Session struct {
	Identity    string `json:"phone"`
	DisplayName string `json:"name,omitempty"`
	Role        Role   `json:"role"`
}

type PaymentMethod string

const (
	PaymentCash PaymentMethod = "cash"
	PaymentCard PaymentMethod = "card"
	PaymentUPI  PaymentMethod = "upi"
)

func (p PaymentMethod) Valid() bool {
	return p == PaymentCash || p == PaymentCard || p == PaymentUPI
}

// WireName is the spelling the verify-payment endpoint expects.
func (p PaymentMethod) WireName() string {
	switch p {
	case PaymentCard:
		return "Card"
	case PaymentUPI:
		return "UPI"
	default:
		return string(p)
	}
}

type OrderItem struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	ServiceType FulfillmentMode `json:"serviceType"`
}

type Order struct {
	OrderID       string          `json:"orderId"`
	Items         []OrderItem     `json:"items"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	PaymentMethod string          `json:"paymentMethod"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// Cancellable mirrors the statuses for which the kitchen has already taken the money or the food.
func (o Order) Cancellable() bool {
	switch strings.ToLower(o.Status) {
	case "paid", "completed":
		return false
	}
	return true
}

type CurrentOrder struct {
	OrderID  string    `json:"orderId"`
	PlacedAt time.Time `json:"placedAt"`
}

type Feedback struct {
	OrderID string    `json:"orderId"`
	Rating  int       `json:"rating"`
	Comment string    `json:"comment"`
	Date    time.Time `json:"date"`
}

func FormatCurrency(amount decimal.Decimal) string {
	return "₹" + amount.StringFixed(2)
}
