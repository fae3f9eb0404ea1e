package repository

import (
	"sync"
	"time"

	"crypto-exchange-arbitrage-monitor/internal/domain"
	"crypto-exchange-arbitrage-monitor/internal/platform/logger"
	"crypto-exchange-arbitrage-monitor/internal/symbol"
)

// StalenessThreshold is how old a snapshot may be before it is excluded from
// arbitrage consideration. Stale entries stay in storage, they just stop
// counting.
const StalenessThreshold = 30 * time.Second

const eventBufferSize = 256

var Logger = logger.Get()

// UpdateCallback is invoked after an update whose mark price differs from the
// previous entry (or that created the entry). The ticker is a private copy.
type UpdateCallback func(symbol string, exchange domain.ExchangeEnum, ticker *domain.Ticker)

type entry struct {
	ticker     *domain.Ticker
	lastUpdate time.Time
}

type changeEvent struct {
	symbol   string
	exchange domain.ExchangeEnum
	ticker   *domain.Ticker
}

// Repository is the single source of truth for the latest per-exchange
// snapshot of every symbol. All feed pumps write into it concurrently; the
// detector and any display layer read from it. One mutex covers the whole
// store; every critical section is a map operation, never I/O.
//
// Change notifications are not delivered under the lock. Update enqueues onto
// a buffered channel drained by a single dispatcher goroutine, so a slow
// subscriber can never stall a producer.
type Repository struct {
	mu        sync.Mutex
	tickers   map[string]map[domain.ExchangeEnum]entry
	callbacks []UpdateCallback
	events    chan changeEvent
	now       func() time.Time
}

func New() *Repository {
	repo := &Repository{
		tickers: make(map[string]map[domain.ExchangeEnum]entry),
		events:  make(chan changeEvent, eventBufferSize),
		now:     time.Now,
	}
	go repo.dispatch()
	return repo
}

// Update stores a new snapshot for (symbol, exchange). The raw symbol is
// standardized first, the ticker is copied, and the write is last-write-wins
// for its key. Registered callbacks are notified only when the mark price
// changed or no prior entry existed.
func (repo *Repository) Update(rawSymbol string, exchange domain.ExchangeEnum, ticker *domain.Ticker) {
	if ticker == nil {
		return
	}
	std := symbol.Standardize(rawSymbol)

	stored := ticker.Clone()
	stored.Symbol = std

	repo.mu.Lock()
	byExchange := repo.tickers[std]
	if byExchange == nil {
		byExchange = make(map[domain.ExchangeEnum]entry)
		repo.tickers[std] = byExchange
	}
	prev, existed := byExchange[exchange]
	byExchange[exchange] = entry{ticker: stored, lastUpdate: repo.now()}
	changed := !existed || !sameFloat(prev.ticker.MarkPrice, stored.MarkPrice)
	repo.mu.Unlock()

	if !changed {
		return
	}

	select {
	case repo.events <- changeEvent{symbol: std, exchange: exchange, ticker: stored.Clone()}:
	default:
		Logger.Warn("Dropping change notification for " + std + " on " + exchange.String() + ": subscriber queue full")
	}
}

// Get returns a copy of the latest snapshot for a symbol on one exchange, or
// nil if that key has never been written.
func (repo *Repository) Get(rawSymbol string, exchange domain.ExchangeEnum) *domain.Ticker {
	std := symbol.Standardize(rawSymbol)

	repo.mu.Lock()
	defer repo.mu.Unlock()

	byExchange, ok := repo.tickers[std]
	if !ok {
		return nil
	}
	e, ok := byExchange[exchange]
	if !ok {
		return nil
	}
	return e.ticker.Clone()
}

// GetBySymbol returns copies of the latest snapshots for a symbol across all
// exchanges that have reported it, or nil if none has.
func (repo *Repository) GetBySymbol(rawSymbol string) map[domain.ExchangeEnum]*domain.Ticker {
	std := symbol.Standardize(rawSymbol)

	repo.mu.Lock()
	defer repo.mu.Unlock()

	byExchange, ok := repo.tickers[std]
	if !ok {
		return nil
	}
	out := make(map[domain.ExchangeEnum]*domain.Ticker, len(byExchange))
	for exchange, e := range byExchange {
		out[exchange] = e.ticker.Clone()
	}
	return out
}

// GetAll returns a copy of the whole store.
func (repo *Repository) GetAll() map[string]map[domain.ExchangeEnum]*domain.Ticker {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	out := make(map[string]map[domain.ExchangeEnum]*domain.Ticker, len(repo.tickers))
	for std, byExchange := range repo.tickers {
		copies := make(map[domain.ExchangeEnum]*domain.Ticker, len(byExchange))
		for exchange, e := range byExchange {
			copies[exchange] = e.ticker.Clone()
		}
		out[std] = copies
	}
	return out
}

// Active returns copies of the snapshots for a symbol whose last update is
// younger than threshold at the given instant. This is the only view the
// arbitrage detector reads; stale quotes never reach the profit math.
func (repo *Repository) Active(rawSymbol string, now time.Time, threshold time.Duration) map[domain.ExchangeEnum]*domain.Ticker {
	std := symbol.Standardize(rawSymbol)

	repo.mu.Lock()
	defer repo.mu.Unlock()

	byExchange, ok := repo.tickers[std]
	if !ok {
		return nil
	}
	out := make(map[domain.ExchangeEnum]*domain.Ticker)
	for exchange, e := range byExchange {
		if now.Sub(e.lastUpdate) < threshold {
			out[exchange] = e.ticker.Clone()
		}
	}
	return out
}

// RegisterUpdateCallback adds a process-lifetime change subscriber. Callbacks
// run on the dispatcher goroutine, in enqueue order.
func (repo *Repository) RegisterUpdateCallback(callback UpdateCallback) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.callbacks = append(repo.callbacks, callback)
}

func (repo *Repository) dispatch() {
	for event := range repo.events {
		repo.mu.Lock()
		callbacks := make([]UpdateCallback, len(repo.callbacks))
		copy(callbacks, repo.callbacks)
		repo.mu.Unlock()

		for _, callback := range callbacks {
			callback(event.symbol, event.exchange, event.ticker.Clone())
		}
	}
}

func sameFloat(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
