package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"ProductCatalog/internal/catalog"
	"ProductCatalog/internal/config"
	"ProductCatalog/internal/slot"
	"ProductCatalog/pkg/kit"
)

const service = "catalog"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}

	log, err := kit.NewLogger(service, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(2)
	}
	defer func() { _ = log.Sync() }()

	if err := run(context.Background(), cfg, log); err != nil {
		log.Fatal("catalog stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	sl, err := slot.Open(openCtx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("open %s slot: %w", cfg.Storage.Driver, err)
	}
	defer func() {
		if err := sl.Close(); err != nil {
			log.Warn("close slot", zap.Error(err))
		}
	}()
	log.Info("storage ready", zap.String("driver", cfg.Storage.Driver), zap.String("key", cfg.StorageKey))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	store := catalog.NewStore(catalog.StoreOptions{
		Slot:    sl,
		Key:     cfg.StorageKey,
		Log:     log,
		Metrics: catalog.NewMetrics(reg),
	})
	if err := store.Hydrate(openCtx); err != nil {
		return err
	}

	s := &catalog.Server{
		Store: store,
		Desk:  catalog.NewDesk(catalog.DeskOptions{Store: store, TTL: cfg.NotificationTTL, Log: log}),
		Log:   log,
	}

	h := catalog.NewHandler(s, catalog.HTTPDeps{
		Log:              log,
		Service:          service,
		Registry:         reg,
		MetricsEnabled:   cfg.MetricsEnabled,
		MetricsToken:     cfg.MetricsToken,
		WriteLimitPerMin: cfg.WriteLimitPerMin,
	})

	return kit.RunHTTPServer(ctx, cfg.Addr(), h, log, cfg.ShutdownTimeout)
}
