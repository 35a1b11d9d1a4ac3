package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"finledger/internal/config"
	"finledger/internal/httpx"
	"finledger/internal/ledger"
	"finledger/internal/market"
	"finledger/internal/market/alphavantage"
	"finledger/internal/market/brandfetch"
	"finledger/internal/market/finnhub"
	"finledger/internal/market/mockdata"
	"finledger/internal/market/ratelimit"
	"finledger/internal/portfolio"
	"finledger/internal/scheduler"
	"finledger/internal/server"
	"finledger/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info"})
		fallbackLog.Fatal().Err(err).Msg("invalid configuration")
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})

	db, err := ledger.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	repo := ledger.NewRepository(db, log)
	if err := repo.Init(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize schema")
	}

	httpClient := httpx.New(cfg.RequestTimeout)
	defer httpClient.Close()

	if cfg.FinnhubAPIKey == "" {
		log.Warn().Msg("FINNHUB_API_KEY not set, primary provider disabled")
	}
	if cfg.AlphaVantageAPIKey == "" {
		log.Warn().Msg("ALPHA_VANTAGE_API_KEY not set, secondary provider disabled")
	}

	// Strict priority order: Finnhub, then Alpha Vantage, then the mock
	// terminal fallback. The mock runs ungated so a quote always resolves.
	chain := []market.ChainEntry{
		{
			Provider:   finnhub.New(finnhub.Config{APIKey: cfg.FinnhubAPIKey}, httpClient, log),
			Limiter:    ratelimit.NewSlidingWindow(cfg.FinnhubMaxPerMinute, time.Minute),
			Configured: cfg.FinnhubAPIKey != "",
		},
		{
			Provider:   alphavantage.New(alphavantage.Config{APIKey: cfg.AlphaVantageAPIKey}, httpClient, log),
			Limiter:    ratelimit.NewSlidingWindow(cfg.AlphaVantageMaxPerDay, 24*time.Hour),
			Configured: cfg.AlphaVantageAPIKey != "",
		},
		{
			Provider:   mockdata.New(),
			Configured: true,
		},
	}

	agg := market.NewAggregator(market.Config{
		Chain:    chain,
		Logos:    brandfetch.New(brandfetch.Config{ClientID: cfg.BrandfetchClientID}, httpClient, log),
		CacheTTL: cfg.QuoteCacheTTL,
		CacheMax: cfg.QuoteCacheMax,
		Log:      log,
	})

	svc := portfolio.NewService(repo, agg, log)

	refresher := scheduler.NewRefresher(svc, agg, log)
	if err := refresher.Start(cfg.RefreshSpec); err != nil {
		log.Fatal().Err(err).Str("spec", cfg.RefreshSpec).Msg("invalid refresh cron spec")
	}

	srv := server.New(server.Config{
		Port:      cfg.Port,
		Log:       log,
		Market:    agg,
		Portfolio: svc,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	refresher.Stop()

	log.Info().Msg("bye")
}
