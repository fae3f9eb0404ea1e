package pump

import (
	"context"
	"fmt"
	"time"

	"crypto-exchange-arbitrage-monitor/internal/domain"
	"crypto-exchange-arbitrage-monitor/internal/platform/logger"
	"crypto-exchange-arbitrage-monitor/internal/repository"
)

const defaultPollInterval = 100 * time.Millisecond
const defaultErrorBackoff = 5 * time.Second

var Logger = logger.Get()

// Pump moves snapshots from one feed adapter into the repository at a fixed
// cadence. One pump per adapter; pumps never terminate on error, a failed
// cycle just logs and backs off.
type Pump struct {
	feeder       domain.Feeder
	repo         *repository.Repository
	pollInterval time.Duration
	errorBackoff time.Duration
}

func New(feeder domain.Feeder, repo *repository.Repository, pollInterval time.Duration, errorBackoff time.Duration) *Pump {
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	if errorBackoff <= 0 {
		errorBackoff = defaultErrorBackoff
	}
	return &Pump{feeder: feeder, repo: repo, pollInterval: pollInterval, errorBackoff: errorBackoff}
}

func (pump *Pump) Start(ctx context.Context) {
	go pump.run(ctx)
}

func (pump *Pump) run(ctx context.Context) {
	Logger.Info("Starting ingestion pump for " + pump.feeder.Name().String())

	for {
		wait := pump.pollInterval
		if err := pump.cycle(); err != nil {
			Logger.Error("Pump cycle failed for " + pump.feeder.Name().String() + ": " + err.Error())
			wait = pump.errorBackoff
		}

		select {
		case <-ctx.Done():
			Logger.Info("Stopping ingestion pump for " + pump.feeder.Name().String())
			return
		case <-time.After(wait):
		}
	}
}

// cycle runs one poll-validate-write pass. Panics from adapter or repository
// code are converted to errors so the loop survives anything a single
// exchange can throw at it.
func (pump *Pump) cycle() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pump cycle panic: %v", r)
		}
	}()

	ticker := pump.feeder.Latest()
	if ticker == nil {
		// Nothing parsed yet; skip this cycle.
		return nil
	}

	if !hasPriceSignal(ticker) {
		// A snapshot with no usable price would poison arbitrage comparisons
		// with a bogus zero, so the write is skipped, not escalated.
		return nil
	}

	pump.repo.Update(ticker.Symbol, pump.feeder.Name(), ticker)
	return nil
}

// hasPriceSignal reports whether at least one of mark, bid and ask carries a
// usable (non-nil, non-zero) price.
func hasPriceSignal(ticker *domain.Ticker) bool {
	for _, price := range []*float64{ticker.MarkPrice, ticker.BidPrice, ticker.AskPrice} {
		if price != nil && *price != 0 {
			return true
		}
	}
	return false
}
