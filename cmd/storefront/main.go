package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fjod/go_cart/storefront-cart/internal/cart"
	"github.com/fjod/go_cart/storefront-cart/internal/catalog"
	"github.com/fjod/go_cart/storefront-cart/internal/config"
	"github.com/fjod/go_cart/storefront-cart/internal/events"
	h "github.com/fjod/go_cart/storefront-cart/internal/http"
	"github.com/fjod/go_cart/storefront-cart/internal/logger"
	"github.com/fjod/go_cart/storefront-cart/internal/notify"
	"github.com/fjod/go_cart/storefront-cart/internal/storage"
	"github.com/fjod/go_cart/storefront-cart/internal/tracing"
)

const version = "v1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	log := logger.New(logger.Options{
		Service: cfg.ServiceName,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, cfg.ServiceName, version, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("Failed to init tracing: %v", err)
	}

	st, closeStorage, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer closeStorage()

	client := catalog.NewClient(cfg.APIBaseURL, cfg.RequestTimeout,
		catalog.WithLogger(log),
		catalog.WithHTTPClient(&http.Client{
			Timeout:   cfg.RequestTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}),
	)

	feed := notify.NewRecorder(0)
	store := cart.NewStore(ctx, st, client, notify.Multi{notify.NewLogNotifier(log), feed},
		cart.WithStorageKey(cfg.StorageKey),
		cart.WithLogger(log),
	)
	log.WithField("items", len(store.Cart())).Info("Cart loaded")

	// the publisher outlives the HTTP server so commits made during shutdown
	// are still flushed
	pubCtx, stopPublisher := context.WithCancel(context.Background())
	publisherDone := make(chan struct{})
	if len(cfg.KafkaBrokers) > 0 {
		publisher := events.NewPublisher(uuid.NewString(), cfg.KafkaTopic, log, cfg.KafkaBrokers...)
		defer publisher.Close()
		unsubscribe := store.Subscribe(publisher.Handle)
		defer unsubscribe()
		go func() {
			publisher.Run(pubCtx)
			close(publisherDone)
		}()
		log.Printf("Publishing cart updates to %s", cfg.KafkaTopic)
	} else {
		close(publisherDone)
	}

	cartHandler := h.NewCartHandler(store, feed, cfg.RequestTimeout, log)
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      h.NewRouter(cartHandler, cfg.RequestTimeout, log),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Storefront cart listening on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()

	log.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server forced to shutdown")
	}
	stopPublisher()
	<-publisherDone
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.WithError(err).Error("failed to flush traces")
	}
	log.Info("server exited")
}

func openStorage(ctx context.Context, cfg *config.Config, log *logrus.Logger) (storage.Storage, func(), error) {
	switch cfg.StorageDriver {
	case config.StorageMemory:
		log.Warn("Using in-memory storage, the cart will not survive a restart")
		return storage.NewMemoryStorage(), func() {}, nil

	case config.StorageRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("redis ping failed: %w", err)
		}
		log.Printf("Connected to Redis at %s", cfg.RedisAddr)
		st := storage.NewRedisStorage(client, storage.WithTTL(cfg.StorageTTL, cfg.StorageTTL/10))
		return st, func() { _ = client.Close() }, nil

	case config.StorageMongo:
		db, err := storage.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			return nil, nil, err
		}
		st := storage.NewMongoStorage(db)
		if cfg.StorageTTL > 0 {
			if err := st.CreateIndexes(ctx, cfg.StorageTTL); err != nil {
				log.WithError(err).Warn("Failed to create storage indexes")
			}
		}
		log.Printf("Connected to MongoDB at %s", cfg.MongoURI)
		return st, func() { _ = db.Client().Disconnect(context.Background()) }, nil

	default:
		st, err := storage.NewSQLiteStorage(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		if err := st.RunMigrations(); err != nil {
			_ = st.Close()
			return nil, nil, err
		}
		log.Printf("Using SQLite storage at %s", cfg.SQLitePath)
		return st, func() {
			if err := st.Close(); err != nil {
				log.WithError(err).Error("Failed to close SQLite")
			}
		}, nil
	}
}
