package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bankcore/internal/cache"
	"bankcore/internal/config"
	"bankcore/internal/db"
	"bankcore/internal/handlers"
	"bankcore/internal/metrics"
	"bankcore/internal/services"
	"bankcore/internal/store"
	"bankcore/internal/validator"
	"bankcore/internal/websocket"

	"github.com/go-redis/redis/v8"
)

func main() {
	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	accounts := store.NewAccountStore(database)
	transactions := store.NewTransactionStore(database)
	ledgerEntries := store.NewLedgerStore(database)
	holds := store.NewHoldStore(database)
	staff := store.NewStaffStore(database)
	audit := store.NewAuditStore(database)
	txRunner := db.NewTxRunner(database)
	hub := websocket.NewHub()
	m := metrics.New()

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	}
	balanceCache := cache.New(redisClient, cfg.BalanceCacheTTL)
	if err := balanceCache.Start(context.Background()); err != nil {
		logger.Warn("balance cache unavailable, serving uncached", "error", err)
		balanceCache = cache.New(nil, 0)
	}
	defer balanceCache.Stop()

	ledger := services.NewLedgerService(accounts, ledgerEntries, holds, balanceCache, m)
	txService := services.NewTransactionService(txRunner, ledger, accounts, transactions, holds, audit, hub, balanceCache, m)
	approvals := services.NewApprovalService(txRunner, ledger, transactions, holds, audit, hub, balanceCache, m)
	reversals := services.NewReversalService(txRunner, ledger, transactions, audit, hub, balanceCache, m)

	handler := handlers.New(cfg, validator.New(), accounts, staff, txService, approvals, reversals, ledger, hub, m.Handler())
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("transaction engine listening", "addr", server.Addr, "env", cfg.AppEnv)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
