package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/storefront/internal/config"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/httpserver"
	"github.com/Skotchmaster/storefront/internal/inventory"
	"github.com/Skotchmaster/storefront/internal/lockout"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/search"
	"github.com/Skotchmaster/storefront/internal/service"
	pkgdb "github.com/Skotchmaster/storefront/pkg/db"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/middleware/csrf"
	loggingmw "github.com/Skotchmaster/storefront/pkg/middleware/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LogLevel).With("service", "storefront")
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := pkgdb.Open(ctx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		log.Fatalf("db migrate: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("db handle: %v", err)
	}

	var (
		attempts lockout.AttemptStore = lockout.NewMemoryStore(time.Now)
		rdb      *redis.Client
	)
	if cfg.RedisAddr != "" {
		rdb = lockout.NewRedisClient(cfg.RedisAddr)
		attempts = lockout.NewRedisStore(rdb)
	} else {
		logger.Warn("redis_disabled", "reason", "REDIS_ADDR not set, lockout counters are per process")
	}

	var (
		emitter events.Emitter = events.Nop{}
		async   *events.Async
	)
	if len(cfg.KafkaBrokers) > 0 {
		async = events.NewAsync(events.NewKafkaPublisher(cfg.KafkaBrokers), cfg.EventBuffer, logger)
		emitter = async
	}

	dbSearch := &search.DBSearcher{DB: db}
	var (
		searcher search.Searcher = dbSearch
		indexer  search.Indexer  = search.NopIndexer{}
	)
	if cfg.ESURL != "" {
		es, err := search.NewClient(search.ESConfig{
			URL:      cfg.ESURL,
			User:     cfg.ESUser,
			Password: cfg.ESPassword,
			Index:    cfg.ESIndex,
		})
		if err != nil {
			logger.Error("elasticsearch_unavailable", "error", err)
		} else {
			esSearch := &search.ESSearcher{Client: es, Index: cfg.ESIndex}
			searcher = &search.Fallback{
				Primary:   esSearch,
				Secondary: dbSearch,
				OnError: func(err error) {
					logger.Warn("search_fallback", "reason", "elasticsearch query failed", "error", err)
				},
			}
			indexer = esSearch
		}
	}

	r := repo.New(db)
	ledger := inventory.New(db)

	authSvc := &service.AuthService{
		Repo:          r,
		Guard:         lockout.NewGuard(attempts, cfg.LockoutMaxAttempts, cfg.LockoutWindow),
		JWTSecret:     cfg.JWTSecret,
		RefreshSecret: cfg.RefreshSecret,
	}

	e := echo.New()
	e.HideBanner = true
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORS())
	if cfg.CSRFEnabled {
		e.Use(csrf.Middleware(csrf.Config{
			Secure:            cfg.CookieSecure,
			EnforceSameOrigin: true,
			SkipPaths:         []string{"/health/live", "/health/ready", "/auth/login", "/auth/register"},
		}))
	}

	httpserver.Register(e, &httpserver.Deps{
		Auth:   &httpserver.AuthHTTP{Svc: authSvc},
		Cart:   &httpserver.CartHTTP{Svc: &service.CartService{Repo: r, Ledger: ledger, Events: emitter}},
		Orders: &httpserver.OrderHTTP{Svc: &service.OrderService{Repo: r, Ledger: ledger, Events: emitter}},
		Catalog: &httpserver.CatalogHTTP{Svc: &service.CatalogService{
			Repo:     r,
			Ledger:   ledger,
			Searcher: searcher,
			Indexer:  indexer,
			Events:   emitter,
		}},
		Users:     &httpserver.UserHTTP{Svc: &service.UserService{Repo: r}},
		JWTSecret: cfg.JWTSecret,
		Refresher: authSvc,
		Ready: func(ctx context.Context) error {
			if err := sqlDB.PingContext(ctx); err != nil {
				return err
			}
			if rdb != nil {
				return rdb.Ping(ctx).Err()
			}
			return nil
		},
	})

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("storefront_listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server_shutdown_error", "error", err)
	}
	if async != nil {
		if err := async.Close(); err != nil {
			logger.Error("kafka_close_error", "error", err)
		}
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	if err := sqlDB.Close(); err != nil {
		logger.Error("db_close_error", "error", err)
	}

	logger.Info("storefront_stopped")
}
