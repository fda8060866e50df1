package orders_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodcourt/internal/api"
	"foodcourt/internal/api/apitest"
	"foodcourt/internal/domain"
	"foodcourt/internal/orders"
	"foodcourt/internal/storage"
)

type signedIn struct{ phone string }

func (s signedIn) Current() (domain.Session, bool) {
	if s.phone == "" {
		return domain.Session{}, false
	}
	return domain.Session{Identity: s.phone, Role: domain.RoleCustomer}, true
}

const phone = "+919876543210"

func setup(t *testing.T) (*orders.Service, *apitest.Backend, *storage.MemoryStore) {
	b := apitest.New(t)
	b.Orders[phone] = []domain.Order{
		{OrderID: "ORDER-000001", Status: "Placed"},
		{OrderID: "ORDER-000002", Status: "Paid"},
		{OrderID: "ORDER-000003", Status: "completed"},
	}
	st := storage.NewMemoryStore()
	return orders.NewService(api.New(b.HTTP(t)), signedIn{phone}, st, nil), b, st
}

func TestHistory(t *testing.T) {
	svc, _, _ := setup(t)
	list, err := svc.History(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 3)

	anon := orders.NewService(nil, signedIn{}, storage.NewMemoryStore(), nil)
	_, err = anon.History(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
}

func TestCancel(t *testing.T) {
	svc, b, _ := setup(t)
	ctx := context.Background()

	err := svc.Cancel(ctx, "ORDER-999999")
	assert.ErrorIs(t, err, domain.ErrStale)
	assert.Equal(t, 1, b.CallCount("/orders"), "unknown id triggers one history load")

	assert.ErrorIs(t, svc.Cancel(ctx, "ORDER-000002"), domain.ErrValidation)
	assert.ErrorIs(t, svc.Cancel(ctx, "ORDER-000003"), domain.ErrValidation)
	assert.Zero(t, b.CallCount("/cancel-order"))

	require.NoError(t, svc.Cancel(ctx, "ORDER-000001"))
	assert.Equal(t, []string{"ORDER-000001"}, b.Cancelled)

	assert.ErrorIs(t, svc.Cancel(ctx, "ORDER-000001"), domain.ErrStale)
}

func TestPickupQR(t *testing.T) {
	svc, _, _ := setup(t)
	qr, err := svc.PickupQR(context.Background(), "ORDER-000001")
	require.NoError(t, err)
	assert.Equal(t, "image/png", qr.MediaType)
	assert.Equal(t, []byte("\x89PNG"), qr.Image[:4])

	_, err = svc.PickupQR(context.Background(), "ORDER-424242")
	assert.ErrorIs(t, err, domain.ErrRejected)

	_, err = svc.PickupQR(context.Background(), " ")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestDecodeDataURL(t *testing.T) {
	mt, b, err := orders.DecodeDataURL("data:,hello%20world")
	require.NoError(t, err)
	assert.Equal(t, "text/plain;charset=US-ASCII", mt)
	assert.Equal(t, "hello world", string(b))

	_, _, err = orders.DecodeDataURL("https://example.com/qr.png")
	assert.Error(t, err)
	_, _, err = orders.DecodeDataURL("data:image/png;base64")
	assert.Error(t, err)
	_, _, err = orders.DecodeDataURL("data:image/png;base64,@@@")
	assert.Error(t, err)
}

func TestCurrentOrderExpiry(t *testing.T) {
	svc, _, st := setup(t)
	placed := time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC)
	svc.SetCurrentOrder("ORDER-123456", placed)

	cur, ok := svc.CurrentOrder(placed.Add(4 * time.Minute))
	require.True(t, ok)
	assert.Equal(t, "ORDER-123456", cur.OrderID)

	_, ok = svc.CurrentOrder(placed.Add(5*time.Minute + time.Second))
	assert.False(t, ok)
	_, present, err := st.Get(storage.KeyCurrentOrder)
	require.NoError(t, err)
	assert.False(t, present, "expired entry is removed")
}

func TestSubmitFeedback(t *testing.T) {
	svc, _, st := setup(t)
	now := time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC)

	_, err := svc.SubmitFeedback(5, "great", now)
	assert.ErrorIs(t, err, domain.ErrValidation, "no current order")

	svc.SetCurrentOrder("ORDER-111111", now)
	_, err = svc.SubmitFeedback(0, "", now)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = svc.SubmitFeedback(6, "", now)
	assert.ErrorIs(t, err, domain.ErrValidation)

	fb, err := svc.SubmitFeedback(4, "  crispy dosa ", now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "crispy dosa", fb.Comment)

	svc.SetCurrentOrder("ORDER-222222", now)
	_, err = svc.SubmitFeedback(2, "", now)
	require.NoError(t, err)

	all, err := svc.Feedbacks()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "ORDER-111111", all[0].OrderID)
	assert.Equal(t, 2, all[1].Rating)

	_, present, _ := st.Get(storage.KeyCurrentOrder)
	assert.False(t, present)
}

func TestSubmitFeedback_UnreadableListIsPreserved(t *testing.T) {
	svc, _, st := setup(t)
	now := time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC)
	corrupt := []byte(`[{"orderId":"ORDER-000009","rating":5},`)
	require.NoError(t, st.Set(storage.KeyFeedbacks, corrupt))

	t.Run("write failure keeps everything", func(t *testing.T) {
		svc.SetCurrentOrder("ORDER-333333", now)
		st.FailWrites = errors.New("quota exceeded")
		_, err := svc.SubmitFeedback(3, "", now)
		st.FailWrites = nil
		require.Error(t, err)

		raw, _, _ := st.Get(storage.KeyFeedbacks)
		assert.Equal(t, corrupt, raw)
		_, ok := svc.CurrentOrder(now)
		assert.True(t, ok, "current order is still rateable")
	})

	t.Run("moved aside", func(t *testing.T) {
		_, err := svc.SubmitFeedback(4, "", now)
		require.NoError(t, err)

		aside, ok, err := st.Get(storage.KeyFeedbacksCorrupt)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, corrupt, aside)

		all, err := svc.Feedbacks()
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, "ORDER-333333", all[0].OrderID)
	})
}
