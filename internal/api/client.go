// Package api is the client for the food court backend's REST contract.
package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"

	"foodcourt/internal/common/httpx"
	"foodcourt/internal/domain"
)

type Client struct {
	http *httpx.Client
}

func New(h *httpx.Client) *Client { return &Client{http: h} }

func rejected(op string, r domain.StatusResponse, fallback string) error {
	msg := r.Error
	if msg == "" {
		msg = fallback
	}
	return &domain.RejectedError{Op: op, Message: msg}
}

func (c *Client) SendOTP(ctx context.Context, phone string, role domain.Role) error {
	var resp domain.StatusResponse
	if err := c.http.Do(ctx, "send_otp", http.MethodPost, "/send-otp", nil,
		domain.SendOTPRequest{Phone: phone, Role: role}, &resp); err != nil {
		return err
	}
	if !resp.OK() {
		return rejected("send_otp", resp, "Failed to send OTP")
	}
	return nil
}

// VerifyOTP returns the account object the backend attached for the role.
func (c *Client) VerifyOTP(ctx context.Context, req domain.VerifyOTPRequest) (domain.AccountDTO, error) {
	var resp domain.VerifyOTPResponse
	if err := c.http.Do(ctx, "verify_otp", http.MethodPost, "/verify-otp", nil, req, &resp); err != nil {
		return domain.AccountDTO{}, err
	}
	if !resp.OK() {
		return domain.AccountDTO{}, rejected("verify_otp", resp.StatusResponse, "Invalid OTP")
	}
	acct := resp.User
	if req.Role == domain.RoleAdmin {
		acct = resp.Admin
	}
	if acct == nil {
		return domain.AccountDTO{}, &domain.RejectedError{Op: "verify_otp", Message: "User data not found in response"}
	}
	return *acct, nil
}

type CheckResult struct {
	Exists bool
	Name   string
}

func (c *Client) CheckUser(ctx context.Context, phone string, role domain.Role) (CheckResult, error) {
	path := "/check-user"
	if role == domain.RoleAdmin {
		path = "/admin/check"
	}
	var resp domain.CheckUserResponse
	if err := c.http.Do(ctx, "check_user", http.MethodPost, path, nil, domain.CheckUserRequest{Phone: phone}, &resp); err != nil {
		return CheckResult{}, err
	}
	if !resp.OK() {
		return CheckResult{}, rejected("check_user", resp.StatusResponse, "Failed to check user")
	}
	return CheckResult{Exists: resp.Exists, Name: resp.Name}, nil
}

// MenuItems fetches the full catalog.
func (c *Client) MenuItems(ctx context.Context) ([]domain.CatalogItem, error) {
	var resp domain.MenuItemsResponse
	if err := c.http.Do(ctx, "menu_items", http.MethodGet, "/menu-items", nil, nil, &resp); err != nil {
		return nil, err
	}
	items := make([]domain.CatalogItem, 0, len(resp.MenuItems))
	for _, d := range resp.MenuItems {
		items = append(items, d.ToCatalogItem())
	}
	return items, nil
}

func (c *Client) Orders(ctx context.Context, phone string) ([]domain.Order, error) {
	var resp domain.OrdersResponse
	if err := c.http.Do(ctx, "orders", http.MethodGet, "/orders", url.Values{"phone": {phone}}, nil, &resp); err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, rejected("orders", resp.StatusResponse, "Failed to fetch orders")
	}
	return resp.Orders, nil
}

func (c *Client) CancelOrder(ctx context.Context, orderID string) error {
	var resp domain.StatusResponse
	if err := c.http.Do(ctx, "cancel_order", http.MethodDelete, "/cancel-order", nil,
		domain.CancelOrderRequest{OrderID: orderID}, &resp); err != nil {
		return err
	}
	if !resp.OK() {
		return rejected("cancel_order", resp, "Failed to cancel order")
	}
	return nil
}

// GenerateQR returns the pickup QR code as a data URL.
func (c *Client) GenerateQR(ctx context.Context, orderID, phone string) (string, error) {
	var resp domain.GenerateQRResponse
	if err := c.http.Do(ctx, "generate_qr", http.MethodPost, "/customer/generate-qr", nil,
		domain.GenerateQRRequest{OrderID: orderID, Phone: phone}, &resp); err != nil {
		return "", err
	}
	if !resp.OK() {
		return "", rejected("generate_qr", resp.StatusResponse, "Failed to generate QR code")
	}
	return resp.QRCode, nil
}

// CreateOrder asks the payment provider, through the backend, for an order reference.
func (c *Client) CreateOrder(ctx context.Context, amount decimal.Decimal) (domain.PaymentOrderRef, error) {
	var ref domain.PaymentOrderRef
	if err := c.http.Do(ctx, "create_order", http.MethodPost, "/create-order", nil,
		domain.CreatePaymentOrderRequest{Amount: amount.InexactFloat64()}, &ref); err != nil {
		return domain.PaymentOrderRef{}, err
	}
	if ref.ID == "" {
		return domain.PaymentOrderRef{}, &domain.RejectedError{Op: "create_order", Message: "Failed to create order."}
	}
	return ref, nil
}

func (c *Client) VerifyPayment(ctx context.Context, req domain.VerifyPaymentRequest) error {
	var resp domain.StatusResponse
	if err := c.http.Do(ctx, "verify_payment", http.MethodPost, "/verify-payment", nil, req, &resp); err != nil {
		return err
	}
	if !resp.OK() {
		return rejected("verify_payment", resp, "Payment verification failed.")
	}
	return nil
}
