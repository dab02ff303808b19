package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Skotchmaster/storefront/internal/httpserver"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/search"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/pkg/config"
	pkgdb "github.com/Skotchmaster/storefront/pkg/db"
	"github.com/Skotchmaster/storefront/pkg/events"
	"github.com/Skotchmaster/storefront/pkg/idempotency"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := pkgdb.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if err := repo.Migrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	var (
		publisher events.Publisher = events.Nop{}
		producer  *events.Producer
		async     *events.AsyncPublisher
	)
	if len(cfg.KafkaBrokers) > 0 {
		producer = events.NewProducer(cfg.KafkaBrokers)
		async = events.NewAsyncPublisher(producer, 1024, logger)
		publisher = async
	} else {
		logger.Warn("kafka_disabled", "reason", "KAFKA_BROKERS is empty")
	}

	var (
		keys  idempotency.Store
		redis *idempotency.RedisStore
	)
	if cfg.RedisURL != "" {
		redis, err = idempotency.NewRedisStore(cfg.RedisURL, cfg.IdempotencyTTL)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		keys = redis
	} else {
		logger.Warn("redis_disabled", "reason", "REDIS_URL is empty, idempotency keys kept in memory")
		keys = idempotency.NewMemoryStore(cfg.IdempotencyTTL)
	}

	r := repo.New(db)
	catalog := &service.CatalogService{Repo: r, Events: publisher}
	if cfg.ESURL != "" {
		es, err := search.NewClient(cfg.ESURL, cfg.ESUser, cfg.ESPassword)
		if err != nil {
			log.Fatalf("elasticsearch: %v", err)
		}
		index := search.New(es, cfg.ESIndex)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := index.EnsureIndex(ctx); err != nil {
			logger.Warn("search_index_unavailable", "index", cfg.ESIndex, "error", err)
		}
		cancel()
		catalog.Index = index
	}

	authSvc := &service.AuthService{Repo: r, JWTSecret: cfg.JWTSecret, TokenTTL: cfg.TokenTTL}
	coupons := &service.CouponService{Repo: r}
	reviews := &service.ReviewService{Repo: r}
	orders := &service.OrderService{
		Repo:        r,
		Coupons:     coupons,
		Events:      publisher,
		Idempotency: keys,
		ShippingFee: cfg.ShippingFee,
	}

	e := httpserver.NewEcho(logger)
	httpserver.Register(e, &httpserver.Deps{
		AuthHandler:    &httpserver.AuthHTTP{Svc: authSvc},
		CatalogHandler: &httpserver.CatalogHTTP{Svc: catalog},
		CartHandler:    &httpserver.CartHTTP{Svc: &service.CartService{Repo: r, Events: publisher}},
		OrderHandler:   &httpserver.OrderHTTP{Svc: orders, Reviews: reviews},
		CouponHandler:  &httpserver.CouponHTTP{Svc: coupons},
		AdminHandler:   &httpserver.AdminHTTP{Svc: &service.AdminService{Repo: r}, Reviews: reviews},
		JWTSecret:      cfg.JWTSecret,
		Lookup:         authSvc.LookupRole,
		Ready: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("http_listen", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting_down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server_shutdown_error", "error", err)
	}

	if async != nil {
		async.Close()
	}
	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Error("kafka_close_error", "error", err)
		}
	}
	if redis != nil {
		if err := redis.Close(); err != nil {
			logger.Error("redis_close_error", "error", err)
		}
	}
	if err := pkgdb.Close(db); err != nil {
		logger.Error("db_close_error", "error", err)
	}

	logger.Info("shutdown_complete")
}
