package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"DivTracker/internal/cache"
	"DivTracker/internal/config"
	"DivTracker/internal/marketdata"
	"DivTracker/internal/model"
	"DivTracker/internal/portfolio"
	"DivTracker/internal/ratelimit"
	"DivTracker/internal/scheduler"
	"DivTracker/internal/server"
	"DivTracker/internal/storage"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] DivTracker starting...")

	// Load config
	_ = godotenv.Load()
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Open SQLite; cache and portfolio stores migrate their own tables.
	db, err := storage.Open(cfg.Database.SQLitePath)
	if err != nil {
		log.Fatalf("[FATAL] open database: %v", err)
	}
	defer db.Close()

	cacheStore, err := cache.NewSQLiteStore(db)
	if err != nil {
		log.Fatalf("[FATAL] init cache store: %v", err)
	}
	portfolioStore, err := portfolio.NewStore(db)
	if err != nil {
		log.Fatalf("[FATAL] init portfolio store: %v", err)
	}

	// Provider clients in fallback priority order behind one limiter.
	limiter := ratelimit.New(map[model.Provider]ratelimit.Window{
		model.ProviderAlphaVantage: {Quota: cfg.Providers.AlphaVantage.Quota, Length: cfg.Providers.AlphaVantage.Window.Std()},
		model.ProviderFinnhub:      {Quota: cfg.Providers.Finnhub.Quota, Length: cfg.Providers.Finnhub.Window.Std()},
	})
	var clients []marketdata.Client
	if cfg.Providers.AlphaVantage.APIKey != "" {
		clients = append(clients, marketdata.NewAlphaVantageClient(cfg.Providers.AlphaVantage.APIKey, limiter, cfg.Proxy))
	}
	if cfg.Providers.Finnhub.APIKey != "" {
		clients = append(clients, marketdata.NewFinnhubClient(cfg.Providers.Finnhub.APIKey, limiter, cfg.Proxy))
	}
	log.Printf("[INFO] %d provider(s) configured", len(clients))

	market := marketdata.NewService(clients...)
	cacheSvc := cache.NewService(cacheStore, market, cfg.Cache.Freshness.Std())
	portfolioSvc := portfolio.NewService(portfolioStore, cacheSvc)

	// Cache retention sweep
	sched := scheduler.NewScheduler(cacheSvc, cfg.Cache.Retention.Std())
	if err := sched.RegisterAll(cfg.Cache.CleanupCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// HTTP API
	srv := server.New(cfg.Server.ListenAddr, cacheSvc, limiter, portfolioSvc, cfg.Cache.Freshness.Std(), cfg.Cache.Retention.Std())
	go func() {
		log.Printf("[INFO] listening on %s", cfg.Server.ListenAddr)
		if err := srv.Start(); err != nil {
			log.Fatalf("[FATAL] %v", err)
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("[ERROR] %v", err)
	}
	log.Println("[INFO] DivTracker stopped")
}
