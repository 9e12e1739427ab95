package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	httpapi "boutique/internal/http"
	"boutique/internal/repository"
	"boutique/internal/service"
	"boutique/pkg/config"
	"boutique/pkg/logger"
	"boutique/pkg/shutdown"

	_ "boutique/docs"
)

func main() {
	cfg := config.Load()
	log := logger.New(logger.Options{
		Service:   "boutique",
		Env:       cfg.AppEnv,
		Level:     cfg.LogLevel,
		AddSource: false,
	})

	root := context.Background()
	ctx, cancel := shutdown.WithSignals(root)
	defer cancel()

	products, categories, err := repository.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		log.Error("catalog load failed", slog.Any("err", err))
		os.Exit(1)
	}

	store := repository.NewMemoryStore(products, categories)
	users := repository.NewMemoryUsers(store)
	orders := repository.NewMemoryOrders(store)
	tx := repository.NewMemoryTx(store)

	var kv repository.KVStore = repository.NewMemoryKV()
	if cfg.StatePath != "" {
		kv = repository.NewFileKV(cfg.StatePath, log)
	}

	policy := service.CheckoutPolicy{
		FreeShippingOver: cfg.FreeShippingOver,
		FlatShipping:     cfg.FlatShipping,
		TaxRate:          cfg.TaxRate,
	}

	catalogSvc := service.NewCatalogService(store)
	cartSvc := service.NewCartService(store, kv, policy, log)
	favoritesSvc := service.NewFavoritesService(kv, log)
	authSvc := service.NewAuthService(users, []byte(cfg.JWTSecret), log)
	ordersSvc := service.NewOrderService(store, orders, cartSvc, tx)

	if err := authSvc.SeedDemoUser(ctx); err != nil {
		log.Warn("demo user seed failed", slog.Any("err", err))
	}

	srv := httpapi.NewServer(catalogSvc, cartSvc, favoritesSvc, authSvc, ordersSvc, log)

	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           srv.Engine(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("http server listening", slog.String("addr", addr), slog.Int("products", len(products)))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", slog.Any("err", err))
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info("shutdown requested")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown error", slog.Any("err", err))
	}
	log.Info("bye")
}
