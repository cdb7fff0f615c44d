// internal/app/app.go
package app

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"kalakriti-client/internal/cart"
	"kalakriti-client/internal/config"
	"kalakriti-client/internal/gateway"
	"kalakriti-client/internal/pkg/events"
	catalogService "kalakriti-client/internal/service/catalog"
	ordersService "kalakriti-client/internal/service/orders"
	usersService "kalakriti-client/internal/service/users"
	"kalakriti-client/internal/session"
	"kalakriti-client/internal/store"
)

// App is the assembled storefront client: one gateway, one session manager,
// one cart, and the services the pages call.
type App struct {
	Cfg     config.AppConfig
	Logger  *zap.Logger
	Bus     *events.Bus
	API     *gateway.Client
	Session *session.Manager
	Cart    *cart.Store
	Catalog *catalogService.Service
	Orders  *ordersService.Service
	Users   *usersService.Service

	state store.StateStore
}

// New wires the client from configuration. The state backend is selected by
// config; the session manager is registered on the gateway so every request
// gets credential attachment and the 401 refresh-and-retry path.
func New(cfg config.AppConfig) (*App, error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	state, err := newStateStore(cfg)
	if err != nil {
		return nil, err
	}

	bus := events.NewBus()
	api := gateway.New(cfg.APIBaseURL, cfg.HTTPTimeout, logger)

	sess := session.NewManager(api, state, bus, logger)
	api.SetAuthenticator(sess)

	a := &App{
		Cfg:     cfg,
		Logger:  logger,
		Bus:     bus,
		API:     api,
		Session: sess,
		Cart:    cart.NewStore(state, logger),
		Catalog: catalogService.NewService(api, cfg.CatalogCacheTTL, logger),
		Orders:  ordersService.NewService(api, logger),
		Users:   usersService.NewService(api, logger),
		state:   state,
	}
	return a, nil
}

func newStateStore(cfg config.AppConfig) (store.StateStore, error) {
	switch cfg.StateBackend {
	case config.BackendFile:
		return store.NewFileStore(cfg.StatePath, cfg.StateSecret)
	case config.BackendSQLite:
		return store.NewSQLiteStore(cfg.StatePath)
	case config.BackendRedis:
		return store.NewRedisStore(store.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPass,
			DB:       cfg.RedisDB,
		})
	default:
		return nil, fmt.Errorf("unknown state backend %q", cfg.StateBackend)
	}
}

// Close flushes the logger and releases the state backend.
func (a *App) Close() error {
	_ = a.Logger.Sync()
	if closer, ok := a.state.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
