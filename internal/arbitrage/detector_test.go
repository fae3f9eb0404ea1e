package arbitrage

import (
	"math"
	"testing"
	"time"

	"crypto-exchange-arbitrage-monitor/internal/domain"
	"crypto-exchange-arbitrage-monitor/internal/repository"
)

func seedRepo(t *testing.T, quotes map[domain.ExchangeEnum][2]float64) *repository.Repository {
	t.Helper()
	repo := repository.New()
	for exchange, prices := range quotes {
		repo.Update("BTC/USDT", exchange, &domain.Ticker{
			AskPrice: domain.Float(prices[0]),
			BidPrice: domain.Float(prices[1]),
		})
	}
	return repo
}

func TestDetectScenario(t *testing.T) {
	// X: ask=100 bid=99, Y: ask=98 bid=97, Z: ask=102 bid=101
	repo := seedRepo(t, map[domain.ExchangeEnum][2]float64{
		domain.Bitfinex: {100, 99},
		domain.Bybit:    {98, 97},
		domain.Huobi:    {102, 101},
	})

	opportunities := Detect(repo, "BTC/USDT", 0.5, time.Now())
	if len(opportunities) == 0 {
		t.Fatal("expected opportunities")
	}

	// Best: buy Bybit ask 98, sell Huobi bid 101 -> ~3.06%.
	best := opportunities[0]
	if best.BuyExchange != domain.Bybit.String() || best.SellExchange != domain.Huobi.String() {
		t.Errorf("best pair = buy %s sell %s, want buy %s sell %s",
			best.BuyExchange, best.SellExchange, domain.Bybit, domain.Huobi)
	}
	if math.Abs(best.ProfitPercent-(101-98)/98.0*100) > 1e-9 {
		t.Errorf("best profit = %v, want %v", best.ProfitPercent, (101-98)/98.0*100)
	}

	for i, opportunity := range opportunities {
		if opportunity.ProfitPercent < 0.5 {
			t.Errorf("opportunity %d below threshold: %+v", i, opportunity)
		}
		// Negative directions (e.g. buy Bitfinex 100 / sell Bybit 97) must be gone.
		if opportunity.BuyExchange == domain.Bitfinex.String() && opportunity.SellExchange == domain.Bybit.String() {
			t.Errorf("losing direction included: %+v", opportunity)
		}
		if i > 0 && opportunities[i-1].ProfitPercent < opportunity.ProfitPercent {
			t.Errorf("result not sorted descending at %d: %v < %v", i, opportunities[i-1].ProfitPercent, opportunity.ProfitPercent)
		}
	}
}

func TestDetectZeroAndNilPriceGuard(t *testing.T) {
	repo := repository.New()
	// Zero ask and nil ask on two exchanges, one healthy counterparty.
	repo.Update("BTC/USDT", domain.Bitfinex, &domain.Ticker{
		AskPrice:  domain.Float(0),
		BidPrice:  domain.Float(99),
		MarkPrice: domain.Float(99),
	})
	repo.Update("BTC/USDT", domain.Bybit, &domain.Ticker{
		BidPrice:  domain.Float(200),
		MarkPrice: domain.Float(200),
	})
	repo.Update("BTC/USDT", domain.Huobi, &domain.Ticker{
		AskPrice: domain.Float(100),
		BidPrice: domain.Float(100),
	})

	opportunities := Detect(repo, "BTC/USDT", 0.1, time.Now())
	for _, opportunity := range opportunities {
		if opportunity.BuyExchange == domain.Bitfinex.String() {
			t.Errorf("zero ask must never be a buy side: %+v", opportunity)
		}
		if opportunity.BuyExchange == domain.Bybit.String() {
			t.Errorf("nil ask must never be a buy side: %+v", opportunity)
		}
		if opportunity.BuyPrice == 0 {
			t.Errorf("zero buy price leaked into %+v", opportunity)
		}
	}
}

func TestDetectEmptyWhenNoQualifyingPair(t *testing.T) {
	repo := seedRepo(t, map[domain.ExchangeEnum][2]float64{
		domain.Kraken: {100, 99.9},
		domain.Okx:    {100.1, 100},
	})

	if opportunities := Detect(repo, "BTC/USDT", 5, time.Now()); len(opportunities) != 0 {
		t.Errorf("expected no opportunities above 5%%, got %+v", opportunities)
	}
	if opportunities := Detect(repo, "ETH/USDT", 0, time.Now()); len(opportunities) != 0 {
		t.Errorf("unknown symbol must yield an empty result, got %+v", opportunities)
	}
}

func TestDetectConsidersBothDirectionsOnce(t *testing.T) {
	repo := seedRepo(t, map[domain.ExchangeEnum][2]float64{
		domain.Kraken: {100, 105}, // crossed both ways on purpose
		domain.Okx:    {100, 105},
	})

	opportunities := Detect(repo, "BTC/USDT", 1, time.Now())
	if len(opportunities) != 2 {
		t.Fatalf("expected each direction exactly once, got %d: %+v", len(opportunities), opportunities)
	}
	if opportunities[0].BuyExchange == opportunities[1].BuyExchange {
		t.Errorf("directions collapsed: %+v", opportunities)
	}
	// Equal profits keep encounter order (Kraken enumerated before Okx).
	if opportunities[0].BuyExchange != domain.Kraken.String() {
		t.Errorf("stable sort broke encounter order: %+v", opportunities)
	}
}
