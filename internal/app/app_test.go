package app_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodcourt/internal/api/apitest"
	"foodcourt/internal/app"
	"foodcourt/internal/common/config"
	"foodcourt/internal/common/logger"
	"foodcourt/internal/domain"
	"foodcourt/internal/realtime"
	"foodcourt/internal/storage"
)

type refusing struct{ dials int }

func (r *refusing) Dial(context.Context) (realtime.Stream, error) {
	r.dials++
	return nil, errors.New("connection refused")
}

func testConfig(b *apitest.Backend) config.App {
	cfg := config.DefaultConfig()
	cfg.API.BaseURL = b.URL
	cfg.API.Timeout = 2 * time.Second
	cfg.Storage.Driver = "memory"
	cfg.Realtime.Transport = "none"
	cfg.Realtime.MaxAttempts = 1
	cfg.Realtime.Delay = time.Millisecond
	return cfg
}

// 09:00 IST
var morning = time.Date(2026, 3, 2, 3, 30, 0, 0, time.UTC)

func menu() []domain.MenuItemDTO {
	return []domain.MenuItemDTO{
		{ID: "idli", Name: "Idli", Price: decimal.NewFromInt(30), Category: "snacks", AvailableTime: "morning", IsActive: true, Quantity: 5},
		{ID: "thali", Name: "Thali", Price: decimal.NewFromInt(120), Category: "deals", AvailableTime: "afternoon", IsActive: true, Quantity: 5},
		{ID: "juice", Name: "Juice", Price: decimal.NewFromInt(40), Category: "juices", AvailableTime: "both", IsActive: true, Quantity: 0},
	}
}

func TestNew_MemoryAndNoRealtime(t *testing.T) {
	b := apitest.New(t)
	a, err := app.New(context.Background(), testConfig(b), app.WithLogger(logger.Nop()))
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.Realtime)
	assert.IsType(t, &storage.MemoryStore{}, a.Store)
	assert.False(t, a.Session.IsAuthenticated())
}

func TestNew_SQLiteStorageSurvivesRestart(t *testing.T) {
	b := apitest.New(t)
	b.Menu = menu()
	cfg := testConfig(b)
	cfg.Storage.Driver = "sqlite"
	cfg.Storage.Path = filepath.Join(t.TempDir(), "court.db")
	ctx := context.Background()

	a, err := app.New(ctx, cfg, app.WithLogger(logger.Nop()))
	require.NoError(t, err)
	require.NoError(t, a.RefreshCatalog(ctx))
	require.NoError(t, a.AddToCart("idli", domain.ModeTakeaway, morning))
	require.NoError(t, a.Close())

	again, err := app.New(ctx, cfg, app.WithLogger(logger.Nop()))
	require.NoError(t, err)
	defer again.Close()
	lines := again.Cart.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "idli", lines[0].ItemID)
	assert.Equal(t, domain.ModeTakeaway, lines[0].Mode)
}

func TestAddToCart(t *testing.T) {
	b := apitest.New(t)
	b.Menu = menu()
	a, err := app.New(context.Background(), testConfig(b), app.WithLogger(logger.Nop()))
	require.NoError(t, err)
	defer a.Close()
	require.NoError(t, a.RefreshCatalog(context.Background()))

	assert.ErrorIs(t, a.AddToCart("dosa", domain.ModeDineIn, morning), domain.ErrStale)
	assert.ErrorIs(t, a.AddToCart("thali", domain.ModeDineIn, morning), domain.ErrValidation, "afternoon item in the morning")
	assert.ErrorIs(t, a.AddToCart("juice", domain.ModeDineIn, morning), domain.ErrValidation, "out of stock")
	require.NoError(t, a.AddToCart("idli", domain.ModeDineIn, morning))
	assert.Equal(t, 1, a.Cart.TotalItems())
}

func TestRun_FetchesThenSyncsUntilExhausted(t *testing.T) {
	b := apitest.New(t)
	b.Menu = menu()
	tr := &refusing{}
	a, err := app.New(context.Background(), testConfig(b), app.WithLogger(logger.Nop()), app.WithTransport(tr))
	require.NoError(t, err)
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, a.Run(ctx))

	assert.True(t, a.Catalog.Loaded())
	assert.Len(t, a.Catalog.Items(), 3)
	assert.Equal(t, 2, tr.dials)
	assert.Equal(t, realtime.Disconnected, a.Realtime.State())
}

func TestRun_FetchFailureDoesNotStopSync(t *testing.T) {
	b := apitest.New(t)
	b.FailNext["/menu-items"] = 503
	tr := &refusing{}
	a, err := app.New(context.Background(), testConfig(b), app.WithLogger(logger.Nop()), app.WithTransport(tr))
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.Run(context.Background()))
	assert.False(t, a.Catalog.Loaded())
	assert.Equal(t, 2, tr.dials)
}

func TestNew_BadStorage(t *testing.T) {
	b := apitest.New(t)
	cfg := testConfig(b)
	cfg.Storage.Driver = "etcd"
	_, err := app.New(context.Background(), cfg, app.WithLogger(logger.Nop()))
	assert.Error(t, err)
}
