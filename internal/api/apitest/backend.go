// Package apitest runs an in-process fake of the food court backend for tests.
package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"foodcourt/internal/common/httpx"
	"foodcourt/internal/domain"
)

type Backend struct {
	*httptest.Server

	mu        sync.Mutex
	Codes     map[string]string // phone -> expected OTP
	Accounts  map[string]string // phone -> name (customers)
	Admins    map[string]string // phone -> name
	Menu      []domain.MenuItemDTO
	Orders    map[string][]domain.Order // phone -> orders
	Verified  []domain.VerifyPaymentRequest
	Cancelled []string
	Calls     map[string]int

	// VerifiedBodies holds the raw verify-payment bodies in arrival order.
	VerifiedBodies []json.RawMessage

	// FailNext makes the next call to the named path fail with the status code.
	FailNext map[string]int

	// RejectPayments makes verify-payment answer with an error status.
	RejectPayments bool
}

func New(t *testing.T) *Backend {
	t.Helper()
	b := &Backend{
		Codes:    map[string]string{},
		Accounts: map[string]string{},
		Admins:   map[string]string{},
		Orders:   map[string][]domain.Order{},
		Calls:    map[string]int{},
		FailNext: map[string]int{},
	}
	b.Server = httptest.NewServer(b.routes())
	t.Cleanup(b.Close)
	return b
}

// HTTP returns a JSON client pointed at the fake.
func (b *Backend) HTTP(t *testing.T) *httpx.Client {
	t.Helper()
	c, err := httpx.New(b.URL, 2*time.Second, nil)
	if err != nil {
		t.Fatalf("httpx.New: %v", err)
	}
	return c
}

func (b *Backend) CallCount(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.Calls[path]
}

func (b *Backend) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(b.track)
	r.Post("/send-otp", b.sendOTP)
	r.Post("/verify-otp", b.verifyOTP)
	r.Post("/check-user", b.checkUser(false))
	r.Post("/admin/check", b.checkUser(true))
	r.Get("/menu-items", b.menuItems)
	r.Get("/orders", b.orders)
	r.Delete("/cancel-order", b.cancelOrder)
	r.Post("/customer/generate-qr", b.generateQR)
	r.Post("/create-order", b.createOrder)
	r.Post("/verify-payment", b.verifyPayment)
	return r
}

func (b *Backend) track(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.Calls[r.URL.Path]++
		code, inject := b.FailNext[r.URL.Path]
		delete(b.FailNext, r.URL.Path)
		b.mu.Unlock()
		if inject {
			writeJSON(w, code, map[string]any{"status": "error", "error": "injected failure"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func fail(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"status": "error", "error": msg})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		fail(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}
	return true
}

func (b *Backend) sendOTP(w http.ResponseWriter, r *http.Request) {
	var req domain.SendOTPRequest
	if !decode(w, r, &req) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.Codes[req.Phone]; !ok {
		b.Codes[req.Phone] = "123456"
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "success"})
}

func (b *Backend) verifyOTP(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifyOTPRequest
	if !decode(w, r, &req) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.Codes[req.Phone] == "" || b.Codes[req.Phone] != req.OTP {
		fail(w, http.StatusBadRequest, "Invalid OTP")
		return
	}
	delete(b.Codes, req.Phone)

	accounts := b.Accounts
	key := "user"
	if req.Role == domain.RoleAdmin {
		accounts, key = b.Admins, "admin"
	}
	name, ok := accounts[req.Phone]
	if !ok || req.Name != "" {
		name = req.Name
		accounts[req.Phone] = name
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		key:      domain.AccountDTO{Phone: req.Phone, Name: name},
	})
}

func (b *Backend) checkUser(admin bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req domain.CheckUserRequest
		if !decode(w, r, &req) {
			return
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		accounts := b.Accounts
		if admin {
			accounts = b.Admins
		}
		name, ok := accounts[req.Phone]
		writeJSON(w, http.StatusOK, map[string]any{"status": "success", "exists": ok, "name": name})
	}
}

func (b *Backend) menuItems(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, domain.MenuItemsResponse{MenuItems: b.Menu})
}

func (b *Backend) orders(w http.ResponseWriter, r *http.Request) {
	phone := r.URL.Query().Get("phone")
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "orders": b.Orders[phone]})
}

func (b *Backend) cancelOrder(w http.ResponseWriter, r *http.Request) {
	var req domain.CancelOrderRequest
	if !decode(w, r, &req) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for phone, list := range b.Orders {
		for i, o := range list {
			if o.OrderID == req.OrderID {
				b.Orders[phone] = append(list[:i:i], list[i+1:]...)
				b.Cancelled = append(b.Cancelled, req.OrderID)
				writeJSON(w, http.StatusOK, map[string]any{"status": "success"})
				return
			}
		}
	}
	fail(w, http.StatusNotFound, "Order not found")
}

// QRPayload is the data URL the fake hands out: a 1x1 transparent PNG.
const QRPayload = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

func (b *Backend) generateQR(w http.ResponseWriter, r *http.Request) {
	var req domain.GenerateQRRequest
	if !decode(w, r, &req) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, o := range b.Orders[req.Phone] {
		if o.OrderID == req.OrderID {
			writeJSON(w, http.StatusOK, map[string]any{"status": "success", "qrCode": QRPayload})
			return
		}
	}
	fail(w, http.StatusNotFound, "Order not found for this phone")
}

func (b *Backend) createOrder(w http.ResponseWriter, r *http.Request) {
	var req domain.CreatePaymentOrderRequest
	if !decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, domain.PaymentOrderRef{ID: "order_test_1", Amount: int64(req.Amount * 100), Currency: "INR"})
}

func (b *Backend) verifyPayment(w http.ResponseWriter, r *http.Request) {
	var raw json.RawMessage
	if !decode(w, r, &raw) {
		return
	}
	var req domain.VerifyPaymentRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		fail(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.VerifiedBodies = append(b.VerifiedBodies, raw)
	if b.RejectPayments {
		fail(w, http.StatusBadRequest, "Payment verification failed")
		return
	}
	b.Verified = append(b.Verified, req)
	b.Orders[req.CustomerPhone] = append(b.Orders[req.CustomerPhone], domain.Order{
		OrderID:       req.OrderID,
		Items:         req.Items,
		TotalAmount:   decimal.NewFromFloat(req.TotalAmount),
		PaymentMethod: req.PaymentMethod,
		Status:        "Placed",
		CreatedAt:     time.Now().UTC(),
	})
	writeJSON(w, http.StatusOK, map[string]any{"status": "success"})
}
