package arbitrage

import (
	"sort"
	"time"

	"crypto-exchange-arbitrage-monitor/internal/domain"
	"crypto-exchange-arbitrage-monitor/internal/platform/logger"
	"crypto-exchange-arbitrage-monitor/internal/repository"
)

var Logger = logger.Get()
var ArbitrageLogger = logger.GetArbitrageLogger()

// Detect computes the cross-exchange opportunities for one symbol over the
// repository's active (non-stale) entries at the given instant. The active
// view is fetched once, so a scan observes a single consistent snapshot no
// matter how many writes land mid-computation.
//
// Every ordered (buy, sell) pair of distinct exchanges is considered once; a
// direction whose spread is negative simply fails the threshold, so reversed
// pairs need no special handling. The result is sorted by profit descending,
// ties keeping encounter order.
func Detect(repo *repository.Repository, symbol string, minProfitPercent float64, now time.Time) []domain.ArbitrageOpportunity {
	active := repo.Active(symbol, now, repository.StalenessThreshold)
	if len(active) == 0 {
		return nil
	}

	// Fix the encounter order; map iteration would make ties nondeterministic.
	exchanges := make([]domain.ExchangeEnum, 0, len(active))
	for exchange := range active {
		exchanges = append(exchanges, exchange)
	}
	sort.Slice(exchanges, func(i, j int) bool { return exchanges[i] < exchanges[j] })

	var opportunities []domain.ArbitrageOpportunity
	for _, buy := range exchanges {
		buyPrice := active[buy].AskPrice
		if buyPrice == nil || *buyPrice == 0 {
			// An absent or zero ask can never be bought into.
			continue
		}
		for _, sell := range exchanges {
			if sell == buy {
				continue
			}
			sellPrice := active[sell].BidPrice
			if sellPrice == nil || *sellPrice == 0 {
				continue
			}

			profitPercent := (*sellPrice - *buyPrice) / *buyPrice * 100
			if profitPercent < minProfitPercent {
				continue
			}

			opportunities = append(opportunities, domain.ArbitrageOpportunity{
				Symbol:        active[buy].Symbol,
				BuyExchange:   buy.String(),
				BuyPrice:      *buyPrice,
				SellExchange:  sell.String(),
				SellPrice:     *sellPrice,
				ProfitPercent: profitPercent,
			})
		}
	}

	sort.SliceStable(opportunities, func(i, j int) bool {
		return opportunities[i].ProfitPercent > opportunities[j].ProfitPercent
	})

	return opportunities
}
