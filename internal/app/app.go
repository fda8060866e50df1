// Package app builds every store and service exactly once and hands them to the CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"foodcourt/internal/api"
	"foodcourt/internal/cart"
	"foodcourt/internal/catalog"
	"foodcourt/internal/checkout"
	"foodcourt/internal/common/config"
	"foodcourt/internal/common/httpx"
	"foodcourt/internal/common/logger"
	"foodcourt/internal/connections/database"
	"foodcourt/internal/domain"
	"foodcourt/internal/orders"
	"foodcourt/internal/realtime"
	"foodcourt/internal/session"
	"foodcourt/internal/storage"
)

type App struct {
	Config   config.App
	Log      *logger.Logger
	Store    storage.Store
	API      *api.Client
	Session  *session.Store
	Cart     *cart.Store
	Catalog  *catalog.Catalog
	Realtime *realtime.Client // nil when realtime.transport is none
	Checkout *checkout.Service
	Orders   *orders.Service

	closers []func() error
}

type options struct {
	store     storage.Store
	payer     checkout.Payer
	transport realtime.Transport
	lg        *logger.Logger
}

type Option func(*options)

// WithStore replaces the configured storage driver.
func WithStore(st storage.Store) Option { return func(o *options) { o.store = st } }

// WithPayer enables card and UPI checkout.
func WithPayer(p checkout.Payer) Option { return func(o *options) { o.payer = p } }

// WithTransport replaces the configured realtime transport.
func WithTransport(t realtime.Transport) Option { return func(o *options) { o.transport = t } }

func WithLogger(lg *logger.Logger) Option { return func(o *options) { o.lg = lg } }

func New(ctx context.Context, cfg config.App, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	lg := o.lg
	if lg == nil {
		logger.SetLevel(cfg.Logging.Level)
		lg = logger.New("foodcourt")
	}
	a := &App{Config: cfg, Log: lg}

	// 1. Storage
	a.Store = o.store
	if a.Store == nil {
		st, err := a.openStorage(ctx)
		if err != nil {
			return nil, err
		}
		a.Store = st
	}

	// 2. Backend client
	hc, err := httpx.New(cfg.API.BaseURL, cfg.API.Timeout, lg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.API = api.New(hc)

	// 3. Stores and services
	a.Session = session.NewStore(a.API, a.Store, lg, cfg.Checkout.DefaultCountryCode)
	a.Cart = cart.NewStore(a.Store, lg)
	a.Catalog = catalog.New(lg)
	a.Orders = orders.NewService(a.API, a.Session, a.Store, lg)
	a.Checkout = checkout.NewService(a.API, o.payer, a.Cart, a.Session, a.Orders, cfg.Checkout.DefaultCountryCode, lg)

	// 4. Realtime
	transport := o.transport
	if transport == nil {
		transport = a.transport()
	}
	if transport != nil {
		a.Realtime = realtime.NewClient(transport, a.Catalog, realtime.Options{
			MaxAttempts: cfg.Realtime.MaxAttempts,
			Delay:       cfg.Realtime.Delay,
		}, lg)
	}
	return a, nil
}

func (a *App) openStorage(ctx context.Context) (storage.Store, error) {
	switch a.Config.Storage.Driver {
	case "memory":
		return storage.NewMemoryStore(), nil
	case database.DriverSQLite, database.DriverPgx:
		db, err := database.Open(ctx, a.Config.Storage, a.Config.Database)
		if err != nil {
			return nil, fmt.Errorf("open storage: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		st, err := storage.NewSQLStore(ctx, db, a.Config.Storage.Driver)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Log.Info("storage_opened", map[string]any{"driver": a.Config.Storage.Driver})
		return st, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", a.Config.Storage.Driver)
}

func (a *App) transport() realtime.Transport {
	switch a.Config.Realtime.Transport {
	case "websocket":
		return realtime.NewWebSocketTransport(a.Config.Realtime.URL, a.Log)
	case "amqp":
		return realtime.NewAMQPTransport(a.Config.Rabbit, a.Config.Realtime.Exchange, "foodcourt-"+uuid.NewString()[:8])
	}
	return nil
}

func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	a.Log.Sync()
	return errors.Join(errs...)
}

// RefreshCatalog replaces the catalog with a full fetch. It is the only way to recover
// events missed while the realtime client was disconnected.
func (a *App) RefreshCatalog(ctx context.Context) error {
	items, err := a.API.MenuItems(ctx)
	if err != nil {
		a.Log.Error("catalog_fetch_failed", err, nil)
		return err
	}
	a.Catalog.Replace(items)
	return nil
}

// Run fetches the catalog and then keeps it in sync until ctx is done or the realtime
// client gives up. A failed initial fetch is logged and does not stop the sync.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	fetched := make(chan struct{})

	g.Go(func() error {
		defer close(fetched)
		_ = a.RefreshCatalog(gctx)
		return nil
	})
	if a.Realtime != nil {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return nil
			case <-fetched:
			}
			return a.Realtime.Run(gctx)
		})
	}
	return g.Wait()
}

// AddToCart adds one unit of a catalog item, refusing items that disappeared or are not orderable now.
func (a *App) AddToCart(itemID string, mode domain.FulfillmentMode, now time.Time) error {
	item, ok := a.Catalog.Get(itemID)
	if !ok {
		return &domain.StaleStateError{Kind: "menu item", ID: itemID}
	}
	if !catalog.IsOrderable(item, now) {
		return domain.Invalid("item", "%s is not available right now", item.Name)
	}
	a.Cart.AddItem(item, mode)
	return nil
}
