package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fjod/go_cart/storefront-cart/internal/config"
	"github.com/fjod/go_cart/storefront-cart/internal/logger"
	"github.com/fjod/go_cart/storefront-cart/internal/mockapi"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	log := logger.New(logger.Options{
		Service: "storefront-mockapi",
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
	})

	seed, err := mockapi.LoadSeed(cfg.MockAPISeed)
	if err != nil {
		log.Fatalf("Failed to load seed: %v", err)
	}
	inventory := mockapi.NewInventory()
	inventory.Apply(seed)
	log.WithField("products", len(seed.Products)).Info("Inventory seeded")

	srv := &http.Server{
		Addr:         ":" + cfg.MockAPIPort,
		Handler:      mockapi.NewServer(inventory, log).Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("Mock API listening on :%s", cfg.MockAPIPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server forced to shutdown")
	}
	log.Info("Mock API stopped")
}
