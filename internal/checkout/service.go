// Package checkout turns a ready cart into a placed order.
package checkout

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"foodcourt/internal/cart"
	"foodcourt/internal/common/logger"
	"foodcourt/internal/domain"
	"foodcourt/internal/session"
)

// Placeholders sent to verify-payment for cash orders, which never touch the provider.
const (
	cashOrderRef  = "cash_order"
	cashPaymentID = "cash_payment"
	cashSignature = "cash_signature"
)

type Gateway interface {
	CreateOrder(ctx context.Context, amount decimal.Decimal) (domain.PaymentOrderRef, error)
	VerifyPayment(ctx context.Context, req domain.VerifyPaymentRequest) error
}

// Payer collects a card or UPI payment against a provider order reference.
type Payer interface {
	Collect(ctx context.Context, ref domain.PaymentOrderRef, method domain.PaymentMethod, c Customer) (Receipt, error)
}

// Receipt is the provider's proof of payment.
type Receipt struct {
	OrderRef  string
	PaymentID string
	Signature string
}

type Cart interface {
	Snapshot() cart.Snapshot
	ReadyForCheckout() error
	RemoveOrdered(lines []domain.CartLine)
}

type Sessions interface {
	Current() (domain.Session, bool)
}

type CurrentOrders interface {
	SetCurrentOrder(orderID string, now time.Time)
}

type Customer struct {
	Name  string
	Email string
	Phone string
}

type Request struct {
	Customer Customer
	Method   domain.PaymentMethod
}

type Result struct {
	OrderID string
	Total   decimal.Decimal
	Method  domain.PaymentMethod
}

type ServiceInterface interface {
	Place(ctx context.Context, req Request, now time.Time) (Result, error)
}

type Service struct {
	gw     Gateway
	payer  Payer
	cart   Cart
	sess   Sessions
	orders CurrentOrders
	cc     string
	lg     *logger.Logger
}

// NewService wires checkout. payer may be nil, in which case only cash is accepted.
func NewService(gw Gateway, payer Payer, c Cart, sess Sessions, orders CurrentOrders, countryCode string, lg *logger.Logger) *Service {
	if lg == nil {
		lg = logger.Nop()
	}
	return &Service{gw: gw, payer: payer, cart: c, sess: sess, orders: orders, cc: countryCode, lg: lg}
}

// OrderID derives the client-side order id from the last six digits of the millisecond clock.
func OrderID(now time.Time) string {
	return fmt.Sprintf("ORDER-%06d", now.UnixMilli()%1_000_000)
}

func (s *Service) validate(req *Request) error {
	sess, ok := s.sess.Current()
	if !ok {
		return domain.ErrNotAuthenticated
	}
	if err := s.cart.ReadyForCheckout(); err != nil {
		return err
	}
	if !req.Method.Valid() {
		return domain.Invalid("paymentMethod", "unsupported payment method %q", req.Method)
	}
	if req.Method != domain.PaymentCash && s.payer == nil {
		return domain.Invalid("paymentMethod", "%s payments are not available", req.Method)
	}

	c := &req.Customer
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		c.Name = sess.DisplayName
	}
	if c.Name == "" {
		return domain.Invalid("name", "please fill in all required fields")
	}
	c.Email = strings.TrimSpace(c.Email)
	if c.Email == "" {
		return domain.Invalid("email", "please fill in all required fields")
	}
	if _, err := mail.ParseAddress(c.Email); err != nil {
		return domain.Invalid("email", "invalid email address")
	}
	if strings.TrimSpace(c.Phone) == "" {
		c.Phone = sess.Identity
	}
	c.Phone = session.NormalizePhone(c.Phone, s.cc)
	return session.ValidatePhone(c.Phone)
}

// Place runs the whole checkout. The ordered lines leave the cart and the current order is
// recorded only after the backend has accepted the payment.
func (s *Service) Place(ctx context.Context, req Request, now time.Time) (Result, error) {
	// 1. Preconditions
	if err := s.validate(&req); err != nil {
		return Result{}, err
	}
	snap := s.cart.Snapshot()
	orderID := OrderID(now)

	verify := domain.VerifyPaymentRequest{
		CustomerName:  req.Customer.Name,
		CustomerEmail: req.Customer.Email,
		CustomerPhone: req.Customer.Phone,
		Items:         domain.OrderItemsFromCart(snap.Lines),
		TotalAmount:   snap.TotalAmount.InexactFloat64(),
		OrderID:       orderID,
		PaymentMethod: req.Method.WireName(),
	}

	// 2. Collect payment
	if req.Method == domain.PaymentCash {
		verify.ProviderOrderID, verify.ProviderPaymentID, verify.ProviderSignature = cashOrderRef, cashPaymentID, cashSignature
	} else {
		ref, err := s.gw.CreateOrder(ctx, snap.TotalAmount)
		if err != nil {
			s.lg.Error("payment_order_failed", err, map[string]any{"order_id": orderID})
			return Result{}, fmt.Errorf("create payment order: %w", err)
		}
		rcpt, err := s.payer.Collect(ctx, ref, req.Method, req.Customer)
		if err != nil {
			s.lg.Error("payment_collect_failed", err, map[string]any{"order_id": orderID, "method": req.Method})
			return Result{}, fmt.Errorf("collect payment: %w", err)
		}
		verify.ProviderOrderID, verify.ProviderPaymentID, verify.ProviderSignature = rcpt.OrderRef, rcpt.PaymentID, rcpt.Signature
	}

	// 3. Let the backend verify and record the order
	if err := s.gw.VerifyPayment(ctx, verify); err != nil {
		s.lg.Error("payment_verify_failed", err, map[string]any{"order_id": orderID, "method": req.Method})
		return Result{}, err
	}

	// 4. Clear local state
	s.cart.RemoveOrdered(snap.Lines)
	s.orders.SetCurrentOrder(orderID, now)
	s.lg.Info("order_placed", map[string]any{
		"order_id": orderID,
		"method":   req.Method,
		"total":    snap.TotalAmount.StringFixed(2),
		"items":    snap.TotalItems,
	})
	return Result{OrderID: orderID, Total: snap.TotalAmount, Method: req.Method}, nil
}
