package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pelyams/inventory_items_service/internal/adapters/cache"
	"github.com/pelyams/inventory_items_service/internal/adapters/notifier"
	"github.com/pelyams/inventory_items_service/internal/adapters/repository"
	"github.com/pelyams/inventory_items_service/internal/config"
	"github.com/pelyams/inventory_items_service/internal/observability"
	"github.com/pelyams/inventory_items_service/internal/ports"
	"github.com/pelyams/inventory_items_service/internal/routing"
	"github.com/pelyams/inventory_items_service/internal/service"
)

const (
	startupTimeout     = 30 * time.Second
	storeSelectTimeout = 5 * time.Second
	readHeaderTimeout  = 10 * time.Second
)

type closer struct {
	name string
	fn   func(context.Context) error
}

type App struct {
	config   *config.Config
	log      *zap.Logger
	closeLog func() error
	server   *http.Server
	closers  []closer
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, closeLog, err := observability.NewLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return nil, err
	}
	a := &App{
		config:   cfg,
		log:      logger,
		closeLog: closeLog,
	}

	if err := a.init(); err != nil {
		a.close(context.Background())
		return nil, err
	}
	return a, nil
}

func (a *App) init() error {
	cfg := a.config
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.OtelEndpoint)
	if err != nil {
		return err
	}
	a.onClose("tracing", shutdownTracing)

	repo, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if err := repo.Ping(ctx); err != nil {
		return fmt.Errorf("store is unreachable: %w", err)
	}
	a.log.Info("connected to store", zap.String("driver", cfg.StoreDriver))

	var itemCache ports.Cache
	var redisClient *redis.Client
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.RedisPassword,
		DB:       0,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		a.log.Warn("redis is unavailable, running without cache", zap.String("addr", cfg.RedisAddr()), zap.Error(err))
		_ = client.Close()
	} else {
		redisClient = client
		itemCache = cache.NewRedisCache(redisClient)
		a.onClose("redis", func(context.Context) error { return redisClient.Close() })
		a.log.Info("connected to redis", zap.String("addr", cfg.RedisAddr()))
	}

	var events ports.Notifier
	switch cfg.EventsDriver {
	case config.EventsRedis:
		if redisClient != nil {
			events = notifier.NewRedisNotifier(redisClient, cfg.EventsChannel)
		}
	case config.EventsKafka:
		kafkaNotifier := notifier.NewKafkaNotifier(cfg.KafkaBrokers, cfg.EventsChannel)
		events = kafkaNotifier
		a.onClose("kafka", func(context.Context) error { return kafkaNotifier.Close() })
	}
	if events == nil {
		a.log.Info("change events are disabled")
	}

	svc := service.NewInventoryService(repo, itemCache, events, cfg.CacheTTL, a.log)
	handler := routing.NewItemHandler(svc)
	router := routing.NewRouter(handler, cfg.StaticDir, a.log).SetupRoutes()

	a.server = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	return nil
}

func (a *App) openStore(ctx context.Context) (ports.Repository, error) {
	cfg := a.config
	switch cfg.StoreDriver {
	case config.StorePostgres:
		db, err := sql.Open("postgres", cfg.PostgresDSN())
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres: %w", err)
		}
		a.onClose("postgres", func(context.Context) error { return db.Close() })
		repo := repository.NewPostgresRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return repo, nil
	default:
		client, err := repository.ConnectMongo(ctx, cfg.MongoURI, storeSelectTimeout)
		if err != nil {
			return nil, err
		}
		a.onClose("mongo", client.Disconnect)
		return repository.NewMongoRepository(client.Database(cfg.MongoDatabase).Collection(cfg.MongoCollection)), nil
	}
}

func (a *App) onClose(name string, fn func(context.Context) error) {
	a.closers = append(a.closers, closer{name: name, fn: fn})
}

// close releases resources in reverse order of acquisition, the logger last.
func (a *App) close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.fn(ctx); err != nil {
			a.log.Error("failed to close resource", zap.String("resource", c.name), zap.Error(err))
		}
	}
	a.closers = nil
	_ = a.closeLog()
}

// Run serves until SIGINT or SIGTERM, then shuts the server down and
// releases every resource.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		a.log.Info("starting http server", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Info("shutting down application")
	case err := <-serveErr:
		runErr = fmt.Errorf("http server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.ShutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.log.Error("http server shutdown failed", zap.Error(err))
	}
	a.log.Info("application stopped")
	a.close(shutdownCtx)
	return runErr
}
