package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Response statuses used across the backend contract.
const StatusSuccess = "success"

// MenuItemDTO is the backend's menu item as it appears in GET /menu-items and in menuItemUpdated events.
type MenuItemDTO struct {
	ID            string          `json:"_id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	Category      string          `json:"category"`
	Image         string          `json:"image,omitempty"`
	AvailableTime string          `json:"availableTime"`
	IsActive      bool            `json:"isActive"`
	Quantity      int             `json:"quantity"`
}

func (d MenuItemDTO) ToCatalogItem() CatalogItem {
	stock := d.Quantity
	if stock < 0 {
		stock = 0
	}
	return CatalogItem{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		UnitPrice:   d.Price,
		Category:    d.Category,
		ImageRef:    d.Image,
		Window:      Window(d.AvailableTime),
		IsActive:    d.IsActive,
		Stock:       stock,
	}
}

type MenuItemsResponse struct {
	MenuItems []MenuItemDTO `json:"menuItems"`
}

type InventoryUpdate struct {
	MenuItemID string `json:"menuItemId"`
	Quantity   int    `json:"quantity"`
}

type StatusResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func (r StatusResponse) OK() bool { return r.Status == StatusSuccess }

type SendOTPRequest struct {
	Phone string `json:"phone"`
	Role  Role   `json:"role"`
}

type VerifyOTPRequest struct {
	Phone string `json:"phone"`
	OTP   string `json:"otp"`
	Name  string `json:"name,omitempty"`
	Role  Role   `json:"role"`
}

type AccountDTO struct {
	Phone string `json:"phone"`
	Name  string `json:"name,omitempty"`
}

type VerifyOTPResponse struct {
	StatusResponse
	User  *AccountDTO `json:"user,omitempty"`
	Admin *AccountDTO `json:"admin,omitempty"`
}

type CheckUserRequest struct {
	Phone string `json:"phone"`
}

type CheckUserResponse struct {
	StatusResponse
	Exists bool   `json:"exists"`
	Name   string `json:"name,omitempty"`
}

type OrdersResponse struct {
	StatusResponse
	Orders []Order `json:"orders"`
}

type CancelOrderRequest struct {
	OrderID string `json:"orderId"`
}

type GenerateQRRequest struct {
	OrderID string `json:"orderId"`
	Phone   string `json:"phone"`
}

type GenerateQRResponse struct {
	StatusResponse
	QRCode string `json:"qrCode"`
}

type CreatePaymentOrderRequest struct {
	Amount float64 `json:"amount"`
}

// PaymentOrderRef is what the payment provider returns for a created order.
type PaymentOrderRef struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type VerifyPaymentRequest struct {
	ProviderOrderID   string      `json:"razorpay_order_id"`
	ProviderPaymentID string      `json:"razorpay_payment_id"`
	ProviderSignature string      `json:"razorpay_signature"`
	CustomerName      string      `json:"studentName"`
	CustomerEmail     string      `json:"studentEmail"`
	CustomerPhone     string      `json:"studentPhone"`
	Items             []OrderItem `json:"items"`
	TotalAmount       float64     `json:"totalAmount"`
	OrderID           string      `json:"orderId"`
	PaymentMethod     string      `json:"paymentMethod"`
}

// OrderItemsFromCart converts cart lines into the order lines the backend records.
func OrderItemsFromCart(lines []CartLine) []OrderItem {
	out := make([]OrderItem, 0, len(lines))
	for _, l := range lines {
		out = append(out, OrderItem{
			ID:          l.ItemID,
			Name:        l.Name,
			Price:       l.UnitPrice,
			Quantity:    l.Quantity,
			ServiceType: l.Mode,
		})
	}
	return out
}

// MarshalJSON writes price as a JSON number; decimal quotes it by default.
func (it OrderItem) MarshalJSON() ([]byte, error) {
	type plain OrderItem
	return json.Marshal(struct {
		plain
		Price json.Number `json:"price"`
	}{plain(it), json.Number(it.Price.String())})
}
