package pump

import (
	"context"
	"sync"
	"testing"
	"time"

	"crypto-exchange-arbitrage-monitor/internal/domain"
	"crypto-exchange-arbitrage-monitor/internal/repository"
)

type fakeFeeder struct {
	mu     sync.Mutex
	name   domain.ExchangeEnum
	ticker *domain.Ticker
}

func (f *fakeFeeder) Start(ctx context.Context) {}

func (f *fakeFeeder) Latest() *domain.Ticker {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ticker.Clone()
}

func (f *fakeFeeder) Name() domain.ExchangeEnum { return f.name }

func (f *fakeFeeder) set(ticker *domain.Ticker) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ticker = ticker
}

func TestCycleWritesSnapshot(t *testing.T) {
	repo := repository.New()
	feeder := &fakeFeeder{name: domain.Okx}
	feeder.set(&domain.Ticker{
		Symbol:    "BTC-USDT",
		MarkPrice: domain.Float(50000),
		BidPrice:  domain.Float(49990),
		AskPrice:  domain.Float(50010),
		Volume24h: domain.Float(1200),
	})

	pump := New(feeder, repo, 0, 0)
	if err := pump.cycle(); err != nil {
		t.Fatalf("cycle failed: %v", err)
	}

	got := repo.Get("BTC/USDT", domain.Okx)
	if got == nil {
		t.Fatal("snapshot was not written")
	}
	if *got.MarkPrice != 50000 {
		t.Errorf("mark price = %v, want 50000", *got.MarkPrice)
	}
}

func TestCycleSkipsWhenNoData(t *testing.T) {
	repo := repository.New()
	feeder := &fakeFeeder{name: domain.Kraken}

	pump := New(feeder, repo, 0, 0)
	if err := pump.cycle(); err != nil {
		t.Fatalf("cycle failed: %v", err)
	}

	if got := repo.Get("BTC/USD", domain.Kraken); got != nil {
		t.Errorf("nothing should be written when the adapter has no data, got %+v", got)
	}
}

func TestCycleRejectsSnapshotWithoutPriceSignal(t *testing.T) {
	repo := repository.New()
	feeder := &fakeFeeder{name: domain.Bybit}
	feeder.set(&domain.Ticker{
		Symbol:    "BTCUSDT",
		BidPrice:  domain.Float(0),
		Volume24h: domain.Float(50),
	})

	pump := New(feeder, repo, 0, 0)
	if err := pump.cycle(); err != nil {
		t.Fatalf("cycle failed: %v", err)
	}

	if got := repo.Get("BTC/USDT", domain.Bybit); got != nil {
		t.Errorf("all-nil/zero price snapshot must not be written, got %+v", got)
	}
}

func TestCycleAcceptsSingleUsablePrice(t *testing.T) {
	repo := repository.New()
	feeder := &fakeFeeder{name: domain.Huobi}
	feeder.set(&domain.Ticker{
		Symbol:   "BTCUSDT",
		AskPrice: domain.Float(50010),
	})

	pump := New(feeder, repo, 0, 0)
	if err := pump.cycle(); err != nil {
		t.Fatalf("cycle failed: %v", err)
	}

	got := repo.Get("BTC/USDT", domain.Huobi)
	if got == nil {
		t.Fatal("one usable price is enough for a write")
	}
	if got.MarkPrice != nil {
		t.Errorf("absent fields must stay nil, got mark=%v", *got.MarkPrice)
	}
}

type panicFeeder struct{ fakeFeeder }

func (f *panicFeeder) Latest() *domain.Ticker { panic("adapter misbehaved") }

func TestRunSurvivesPanic(t *testing.T) {
	repo := repository.New()
	feeder := &panicFeeder{fakeFeeder{name: domain.Bitfinex}}

	pump := New(feeder, repo, time.Millisecond, time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pump.Start(ctx)

	// The loop must still be alive after several panicking cycles.
	time.Sleep(20 * time.Millisecond)
	if err := pump.cycle(); err == nil {
		t.Error("cycle should report the recovered panic as an error")
	}
}
