// Command tradedesk runs the trading desk: the Bybit V5 API client, the
// per-user trade journal, the market ticker stream and the web dashboard.
//
// Usage:
//
//	tradedesk --config config.yaml
//	tradedesk --setup          (first-run configuration wizard)
//	tradedesk (uses CLI arguments)
//
// Required environment variables: BYBIT_API_KEY, BYBIT_API_SECRET.
// Optional: BYBIT_TESTNET=true to target the testnet.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"tradedesk/config"
	"tradedesk/dashboard"
	"tradedesk/internal/desk"
	"tradedesk/internal/exchange/bybit"
	"tradedesk/internal/journal"
	"tradedesk/internal/market"
	"tradedesk/internal/setup"
)

func main() {
	for _, arg := range os.Args[1:] {
		if arg == "--setup" || arg == "-setup" {
			if err := setup.RunTUI(); err != nil {
				log.Fatal(err)
			}
			return
		}
	}

	cfg, err := config.Get()
	if err != nil {
		log.Fatal(err)
	}
	creds, err := config.CredentialsFromEnv()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := bybit.NewClient(creds.APIKey, creds.APISecret, creds.Testnet)
	if err != nil {
		logger.Fatal("init api client", zap.Error(err))
	}

	store, err := journal.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("connect trade journal", zap.Error(err))
	}
	defer store.Close()
	if err := store.Migrate(ctx); err != nil {
		logger.Fatal("migrate trade journal", zap.Error(err))
	}

	outbox, err := journal.NewOutbox(cfg.OutboxDir)
	if err != nil {
		logger.Fatal("open journal outbox", zap.Error(err))
	}
	defer outbox.Close()

	trader := desk.New(client, store, outbox, cfg.Category, logger)
	go trader.RunFlusher(ctx, cfg.FlushInterval)

	streamURL := market.MainnetStreamURL
	if creds.Testnet {
		streamURL = market.TestnetStreamURL
	}
	tickers := market.NewStream(streamURL, cfg.Symbols, logger).Run(ctx)

	server := dashboard.NewServer(cfg.DashboardAddr, trader, store, cfg.ExportDir, logger)
	go server.PublishTickers(tickers)

	logger.Info("trading desk up",
		zap.Strings("symbols", cfg.Symbols),
		zap.String("category", cfg.Category),
		zap.String("dashboard", cfg.DashboardAddr),
		zap.Bool("testnet", creds.Testnet))

	if cfg.TLSDomain != "" {
		err = server.StartWithAutoTLS(ctx, cfg.TLSDomain, cfg.CertCacheDir)
	} else {
		err = server.Start(ctx)
	}
	if err != nil {
		logger.Fatal("dashboard server", zap.Error(err))
	}

	logger.Info("shutdown complete")
}
