// Package app wires configuration into the store, session, tip and
// engagement services shared by the server and orallyctl.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/AnshRaj112/orally-backend/internal/config"
	"github.com/AnshRaj112/orally-backend/internal/database"
	"github.com/AnshRaj112/orally-backend/internal/handlers"
	"github.com/AnshRaj112/orally-backend/internal/middleware"
	"github.com/AnshRaj112/orally-backend/internal/routes"
	"github.com/AnshRaj112/orally-backend/internal/services"
	"github.com/AnshRaj112/orally-backend/internal/store"
	"github.com/AnshRaj112/orally-backend/pkg/clientip"
)

// App holds the long-lived dependencies of a process.
type App struct {
	Config     *config.Config
	Logger     *slog.Logger
	Store      store.DocumentStore
	Redis      *redis.Client // nil when REDIS_URI is empty
	Sessions   *services.SessionStore
	Tips       *services.TipPool
	Engagement *services.EngagementController

	cancel context.CancelFunc
	stop   chan struct{}
}

// NewLogger returns a text logger in development and a JSON logger in
// production.
func NewLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Open connects the configured backends. The returned App must be closed.
func Open(ctx context.Context, cfg *config.Config) (*App, error) {
	ctx, cancel := context.WithCancel(ctx)
	a := &App{
		Config: cfg,
		Logger: NewLogger(cfg, os.Stderr),
		cancel: cancel,
		stop:   make(chan struct{}),
	}

	st, err := openStore(ctx, cfg, a.Logger)
	if err != nil {
		cancel()
		return nil, err
	}
	a.Store = st

	if cfg.RedisURI != "" {
		log.Printf("Connecting to Redis...")
		rdb, err := database.ConnectRedis(cfg.RedisURI)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		a.Redis = rdb
		a.Sessions = services.NewSessionStore(rdb)
	}

	tips, err := openTips(ctx, cfg, a.Logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Tips = tips

	selector := services.NewTipSelector(tips, cfg.TipFallback, nil)
	a.Engagement = services.NewEngagementController(st, selector, services.WithLogger(a.Logger))
	return a, nil
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.DocumentStore, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory, "":
		log.Println("⚠️  WARNING: using in-memory store, data is lost on restart")
		return store.NewMemoryStore(), nil

	case config.DriverMongo:
		log.Printf("Connecting to MongoDB...")
		log.Printf("MongoDB URI: %s", database.MaskURI(cfg.MongoURI))
		client, db, err := database.ConnectMongo(cfg.MongoURI)
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		st := store.NewMongoStore(client, db, logger)
		if err := st.EnsureIndexes(ctx); err != nil {
			log.Printf("⚠️  WARNING: failed to ensure MongoDB indexes: %v", err)
		} else {
			log.Println("✅ MongoDB note indexes ensured")
		}
		return st, nil

	case config.DriverPostgres:
		log.Printf("Connecting to PostgreSQL...")
		db, err := database.ConnectPostgres(cfg.PostgresURI)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		return store.NewPostgresStore(db, cfg.PostgresURI, logger), nil
	}
	return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
}

func openTips(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*services.TipPool, error) {
	if cfg.TipsFile == "" {
		return services.NewTipPool(services.DefaultTips), nil
	}
	pool, err := services.LoadTipPool(cfg.TipsFile)
	if err != nil {
		return nil, fmt.Errorf("load tips: %w", err)
	}
	if err := pool.Watch(ctx, logger); err != nil {
		log.Printf("⚠️  WARNING: tips file will not be reloaded: %v", err)
	} else {
		log.Printf("✅ Watching tips file %s", cfg.TipsFile)
	}
	return pool, nil
}

// Authenticator picks session tokens when Redis is configured. Without
// Redis, development servers trust the X-User-ID header and production
// refuses to start.
func (a *App) Authenticator() (handlers.Authenticator, error) {
	if a.Sessions != nil {
		return handlers.SessionAuthenticator{Sessions: a.Sessions, Logger: a.Logger}, nil
	}
	if a.Config.IsProduction() {
		return nil, errors.New("REDIS_URI is required in production")
	}
	log.Println("⚠️  WARNING: no session store, trusting X-User-ID headers")
	return handlers.HeaderAuthenticator{}, nil
}

// Router builds the HTTP handler with the middleware stack for the
// environment.
func (a *App) Router() (http.Handler, error) {
	auth, err := a.Authenticator()
	if err != nil {
		return nil, err
	}

	ips, err := clientip.New(a.Config.TrustedProxies)
	if err != nil {
		return nil, fmt.Errorf("TRUSTED_PROXIES: %w", err)
	}

	r := chi.NewRouter()
	r.Use(middleware.CORS(a.Config.AllowedOrigins))

	if a.Config.IsProduction() {
		for _, mw := range middleware.ProductionSecurity(a.Config.AllowedHost, ips, a.stop) {
			r.Use(mw)
		}
		log.Println("✅ Production security enabled (security headers, host check, per-IP rate limiting)")
	}
	if a.Redis != nil {
		r.Use(middleware.NewRedisLimiter(a.Redis, middleware.RateLimitWindow, middleware.RateLimitMaxRequests, ips, a.Logger).Middleware)
	}

	h := handlers.New(a.Store, a.Engagement, auth, a.Logger, a.Config.RequestTimeout)
	routes.SetupRoutes(r, h)
	return r, nil
}

// Close stops background work and releases every connection.
func (a *App) Close() error {
	a.cancel()
	select {
	case <-a.stop:
	default:
		close(a.stop)
	}

	var errs []error
	if a.Store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), handlers.DefaultRequestTimeout)
		errs = append(errs, a.Store.Close(ctx))
		cancel()
	}
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	return errors.Join(errs...)
}
