package arbitrage

import (
	"context"
	"encoding/json"
	"time"

	"crypto-exchange-arbitrage-monitor/internal/database"
	"crypto-exchange-arbitrage-monitor/internal/repository"
)

// ScheduledWatcher periodically scans the repository for opportunities on the
// configured symbols, journals what it finds and alerts on the best one.
type ScheduledWatcher struct {
	Repo             *repository.Repository
	Symbols          []string
	Interval         time.Duration
	MinProfitPercent float64
	WebhookUrl       string
	DB               database.Service
	ticker           *time.Ticker
	ctx              context.Context
}

func NewScheduledWatcher(ctx context.Context, repo *repository.Repository, symbols []string, interval time.Duration, minProfitPercent float64, webhookUrl string, db database.Service) *ScheduledWatcher {
	return &ScheduledWatcher{
		ctx:              ctx,
		Repo:             repo,
		Symbols:          symbols,
		Interval:         interval,
		MinProfitPercent: minProfitPercent,
		WebhookUrl:       webhookUrl,
		DB:               db,
	}
}

func (watcher *ScheduledWatcher) Start() {
	watcher.ticker = time.NewTicker(watcher.Interval)
	defer watcher.ticker.Stop()

	// Run immediately first time
	for _, symbol := range watcher.Symbols {
		Logger.Info("Start watching " + symbol + " every " + watcher.Interval.String())
		watcher.scan(symbol)
	}

	// Then run on ticker
	for {
		select {
		case <-watcher.ctx.Done():
			Logger.Info("Stop watching")
			return
		case <-watcher.ticker.C:
			for _, symbol := range watcher.Symbols {
				watcher.scan(symbol)
			}
		}
	}
}

func (watcher *ScheduledWatcher) scan(symbol string) {
	opportunities := Detect(watcher.Repo, symbol, watcher.MinProfitPercent, time.Now())
	if len(opportunities) == 0 {
		return
	}

	jsonBytes, err := json.Marshal(opportunities)
	if err != nil {
		Logger.Error("Failed to marshal opportunities: " + err.Error())
	} else {
		ArbitrageLogger.Info(string(jsonBytes))
	}

	if watcher.DB != nil {
		for _, opportunity := range opportunities {
			if err := watcher.DB.SaveOpportunity(opportunity); err != nil {
				Logger.Error("Failed to journal opportunity: " + err.Error())
			}
		}
	}

	if watcher.WebhookUrl != "" {
		AlertDiscord(watcher.WebhookUrl, opportunities[0])
	}
}
