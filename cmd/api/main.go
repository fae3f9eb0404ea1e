package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"crypto-exchange-arbitrage-monitor/internal/arbitrage"
	"crypto-exchange-arbitrage-monitor/internal/database"
	"crypto-exchange-arbitrage-monitor/internal/domain"
	"crypto-exchange-arbitrage-monitor/internal/exchange/bitfinex"
	"crypto-exchange-arbitrage-monitor/internal/exchange/bybit"
	"crypto-exchange-arbitrage-monitor/internal/exchange/huobi"
	"crypto-exchange-arbitrage-monitor/internal/exchange/kraken"
	"crypto-exchange-arbitrage-monitor/internal/exchange/okx"
	"crypto-exchange-arbitrage-monitor/internal/platform/config"
	"crypto-exchange-arbitrage-monitor/internal/pump"
	"crypto-exchange-arbitrage-monitor/internal/repository"
	"crypto-exchange-arbitrage-monitor/internal/server"

	_ "github.com/joho/godotenv/autoload"
)

func gracefulShutdown(fiberServer *server.FiberServer, cancel context.CancelFunc, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	log.Println("shutting down gracefully, press Ctrl+C again to force")

	// Stop feeds, pumps and the watcher first so nothing writes during
	// server shutdown.
	cancel()

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := fiberServer.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown with error: %v", err)
	}

	log.Println("Server exiting")

	// Notify the main goroutine that the shutdown is complete
	done <- true
}

func buildFeeders(cfg *config.Config) []domain.Feeder {
	feeders := make([]domain.Feeder, 0, 5)

	enabled := func(name string) (string, bool) {
		exchange, ok := cfg.Exchange[name]
		if ok && !exchange.Enabled {
			return "", false
		}
		return exchange.WebsocketUrl, true
	}

	if url, ok := enabled(domain.Bitfinex.String()); ok {
		feeders = append(feeders, bitfinex.NewFeed(url))
	}
	if url, ok := enabled(domain.Bybit.String()); ok {
		feeders = append(feeders, bybit.NewFeed(url))
	}
	if url, ok := enabled(domain.Huobi.String()); ok {
		feeders = append(feeders, huobi.NewFeed(url))
	}
	if url, ok := enabled(domain.Kraken.String()); ok {
		feeders = append(feeders, kraken.NewFeed(url))
	}
	if url, ok := enabled(domain.Okx.String()); ok {
		feeders = append(feeders, okx.NewFeed(url))
	}

	return feeders
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.GetConfig()

	repo := repository.New()
	db := database.New(cfg.Database.Path)
	defer db.Close()

	pollInterval := time.Duration(cfg.Pump.PollIntervalMs) * time.Millisecond
	errorBackoff := time.Duration(cfg.Pump.ErrorBackoffSec) * time.Second

	for _, feeder := range buildFeeders(cfg) {
		feeder.Start(ctx)
		pump.New(feeder, repo, pollInterval, errorBackoff).Start(ctx)
	}

	scanInterval := 5 * time.Second
	if cfg.Arbitrage.ScanIntervalSec > 0 {
		scanInterval = time.Duration(cfg.Arbitrage.ScanIntervalSec) * time.Second
	}
	symbols := cfg.Arbitrage.Symbols
	if len(symbols) == 0 {
		symbols = []string{"BTC/USDT", "BTC/USD"}
	}

	watcher := arbitrage.NewScheduledWatcher(ctx, repo, symbols, scanInterval, cfg.Arbitrage.MinProfitPercent, cfg.Discord.WebhookUrl, db)
	go watcher.Start()

	fiberServer := server.New(repo, db)
	fiberServer.RegisterFiberRoutes()

	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)

	go func() {
		port := cfg.Server.Port
		if port == 0 {
			port, _ = strconv.Atoi(os.Getenv("PORT"))
		}
		if port == 0 {
			port = 8080
		}
		err := fiberServer.Listen(fmt.Sprintf(":%d", port))
		if err != nil {
			panic(fmt.Sprintf("http server error: %s", err))
		}
	}()

	// Run graceful shutdown in a separate goroutine
	go gracefulShutdown(fiberServer, cancel, done)

	// Wait for the graceful shutdown to complete
	<-done
	log.Println("Graceful shutdown complete.")
}
