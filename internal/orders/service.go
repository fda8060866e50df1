// Package orders covers everything after checkout: history, cancellation, pickup QR and feedback.
package orders

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"foodcourt/internal/common/logger"
	"foodcourt/internal/domain"
	"foodcourt/internal/storage"
)

// CurrentOrderTTL is how long a placed order stays eligible for feedback.
const CurrentOrderTTL = 5 * time.Minute

type Gateway interface {
	Orders(ctx context.Context, phone string) ([]domain.Order, error)
	CancelOrder(ctx context.Context, orderID string) error
	GenerateQR(ctx context.Context, orderID, phone string) (string, error)
}

type Sessions interface {
	Current() (domain.Session, bool)
}

type ServiceInterface interface {
	History(ctx context.Context) ([]domain.Order, error)
	Cancel(ctx context.Context, orderID string) error
	PickupQR(ctx context.Context, orderID string) (QRCode, error)
	SetCurrentOrder(orderID string, now time.Time)
	CurrentOrder(now time.Time) (domain.CurrentOrder, bool)
	SubmitFeedback(rating int, comment string, now time.Time) (domain.Feedback, error)
	Feedbacks() ([]domain.Feedback, error)
}

type Service struct {
	api  Gateway
	sess Sessions
	st   storage.Store
	lg   *logger.Logger

	mu     sync.Mutex
	cache  []domain.Order
	loaded bool
}

func NewService(api Gateway, sess Sessions, st storage.Store, lg *logger.Logger) *Service {
	if lg == nil {
		lg = logger.Nop()
	}
	return &Service{api: api, sess: sess, st: st, lg: lg}
}

func (s *Service) identity() (string, error) {
	sess, ok := s.sess.Current()
	if !ok {
		return "", domain.ErrNotAuthenticated
	}
	return sess.Identity, nil
}

// History fetches the signed-in customer's orders and caches them for Cancel.
func (s *Service) History(ctx context.Context) ([]domain.Order, error) {
	phone, err := s.identity()
	if err != nil {
		return nil, err
	}
	list, err := s.api.Orders(ctx, phone)
	if err != nil {
		return nil, fmt.Errorf("load order history: %w", err)
	}

	s.mu.Lock()
	s.cache = slices.Clone(list)
	s.loaded = true
	s.mu.Unlock()

	s.lg.Debug("orders_loaded", map[string]any{"count": len(list)})
	return list, nil
}

func (s *Service) cached(orderID string) (domain.Order, bool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.cache, func(o domain.Order) bool { return o.OrderID == orderID })
	if i < 0 {
		return domain.Order{}, false, s.loaded
	}
	return s.cache[i], true, s.loaded
}

// Cancel refuses orders that are unknown to the last loaded history or already paid/completed.
func (s *Service) Cancel(ctx context.Context, orderID string) error {
	if _, err := s.identity(); err != nil {
		return err
	}
	order, found, loaded := s.cached(orderID)
	if !found && !loaded {
		if _, err := s.History(ctx); err != nil {
			return err
		}
		order, found, _ = s.cached(orderID)
	}
	if !found {
		return &domain.StaleStateError{Kind: "order", ID: orderID}
	}
	if !order.Cancellable() {
		return domain.Invalid("order", "order %s is %s and cannot be cancelled", orderID, order.Status)
	}

	if err := s.api.CancelOrder(ctx, orderID); err != nil {
		s.lg.Error("order_cancel_failed", err, map[string]any{"order_id": orderID})
		return err
	}

	s.mu.Lock()
	s.cache = slices.DeleteFunc(s.cache, func(o domain.Order) bool { return o.OrderID == orderID })
	s.mu.Unlock()
	s.lg.Info("order_cancelled", map[string]any{"order_id": orderID})
	return nil
}

// QRCode is a pickup code as returned by the backend plus its decoded image.
type QRCode struct {
	DataURL   string
	MediaType string
	Image     []byte
}

func (s *Service) PickupQR(ctx context.Context, orderID string) (QRCode, error) {
	phone, err := s.identity()
	if err != nil {
		return QRCode{}, err
	}
	if strings.TrimSpace(orderID) == "" {
		return QRCode{}, domain.Invalid("orderId", "order id is required")
	}
	raw, err := s.api.GenerateQR(ctx, orderID, phone)
	if err != nil {
		return QRCode{}, err
	}
	mediaType, img, err := DecodeDataURL(raw)
	if err != nil {
		return QRCode{}, &domain.RejectedError{Op: "generate_qr", Message: err.Error()}
	}
	return QRCode{DataURL: raw, MediaType: mediaType, Image: img}, nil
}

// DecodeDataURL parses an RFC 2397 data URL.
func DecodeDataURL(s string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return "", nil, fmt.Errorf("not a data url")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("data url has no payload")
	}
	mediaType, isBase64 := strings.CutSuffix(meta, ";base64")
	if mediaType == "" {
		mediaType = "text/plain;charset=US-ASCII"
	}
	if isBase64 {
		b, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return "", nil, fmt.Errorf("decode data url: %w", err)
		}
		return mediaType, b, nil
	}
	b, err := url.PathUnescape(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decode data url: %w", err)
	}
	return mediaType, []byte(b), nil
}

func (s *Service) SetCurrentOrder(orderID string, now time.Time) {
	cur := domain.CurrentOrder{OrderID: orderID, PlacedAt: now.UTC()}
	if err := storage.SaveJSON(s.st, storage.KeyCurrentOrder, cur); err != nil {
		s.lg.Error("current_order_persist_failed", err, map[string]any{"order_id": orderID})
	}
}

// CurrentOrder returns the last placed order while it is younger than CurrentOrderTTL.
// Expired or unreadable entries are removed.
func (s *Service) CurrentOrder(now time.Time) (domain.CurrentOrder, bool) {
	var cur domain.CurrentOrder
	ok, err := storage.LoadJSON(s.st, storage.KeyCurrentOrder, &cur)
	if !ok && err == nil {
		return domain.CurrentOrder{}, false
	}
	if err == nil && cur.OrderID != "" && now.Sub(cur.PlacedAt) <= CurrentOrderTTL {
		return cur, true
	}
	if err != nil {
		s.lg.Warn("current_order_discarded", map[string]any{"error": err.Error()})
	}
	s.clearCurrentOrder()
	return domain.CurrentOrder{}, false
}

func (s *Service) clearCurrentOrder() {
	if err := s.st.Remove(storage.KeyCurrentOrder); err != nil {
		s.lg.Error("current_order_remove_failed", err, nil)
	}
}

// SubmitFeedback appends a rating for the current order and retires it.
func (s *Service) SubmitFeedback(rating int, comment string, now time.Time) (domain.Feedback, error) {
	if rating < 1 || rating > 5 {
		return domain.Feedback{}, domain.Invalid("rating", "please provide a rating between 1 and 5")
	}
	cur, ok := s.CurrentOrder(now)
	if !ok {
		return domain.Feedback{}, domain.Invalid("orderId", "no recent order to rate")
	}

	fb := domain.Feedback{OrderID: cur.OrderID, Rating: rating, Comment: strings.TrimSpace(comment), Date: now.UTC()}
	all, err := s.Feedbacks()
	if err != nil {
		if merr := s.moveFeedbacksAside(); merr != nil {
			return domain.Feedback{}, fmt.Errorf("feedbacks unreadable and could not be preserved: %w", merr)
		}
		s.lg.Warn("feedbacks_moved_aside", map[string]any{"error": err.Error(), "key": storage.KeyFeedbacksCorrupt})
		all = nil
	}
	all = append(all, fb)
	if err := storage.SaveJSON(s.st, storage.KeyFeedbacks, all); err != nil {
		s.lg.Error("feedback_persist_failed", err, map[string]any{"order_id": fb.OrderID})
	}
	s.clearCurrentOrder()
	s.lg.Info("feedback_submitted", map[string]any{"order_id": fb.OrderID, "rating": rating})
	return fb, nil
}

// moveFeedbacksAside copies the raw feedbacks value to KeyFeedbacksCorrupt so a fresh list
// never overwrites the only copy.
func (s *Service) moveFeedbacksAside() error {
	raw, ok, err := s.st.Get(storage.KeyFeedbacks)
	if err != nil || !ok {
		return err
	}
	return s.st.Set(storage.KeyFeedbacksCorrupt, raw)
}

func (s *Service) Feedbacks() ([]domain.Feedback, error) {
	var all []domain.Feedback
	if _, err := storage.LoadJSON(s.st, storage.KeyFeedbacks, &all); err != nil {
		return nil, err
	}
	return all, nil
}
