package server

import (
	"strconv"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"crypto-exchange-arbitrage-monitor/internal/arbitrage"
	"crypto-exchange-arbitrage-monitor/internal/domain"
)

func (s *FiberServer) RegisterFiberRoutes() {
	s.App.Get("/health", s.healthHandler)
	s.App.Get("/api/tickers", s.allTickersHandler)
	s.App.Get("/api/tickers/:pair", s.tickerHandler)
	s.App.Get("/api/arbitrage/:pair", s.arbitrageHandler)
	s.App.Get("/api/opportunities", s.opportunitiesHandler)

	s.App.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	s.App.Get("/ws", websocket.New(s.priceStreamHandler))
}

func (s *FiberServer) healthHandler(c *fiber.Ctx) error {
	return c.JSON(s.db.Health())
}

// Path segments cannot carry "/", so pairs arrive in the dash spelling
// ("BTC-USDT") and go through the standardizer inside the repository.

func (s *FiberServer) allTickersHandler(c *fiber.Ctx) error {
	all := s.repo.GetAll()
	out := make(map[string]map[string]*domain.Ticker, len(all))
	for symbol, byExchange := range all {
		out[symbol] = exchangeKeys(byExchange)
	}
	return c.JSON(out)
}

func (s *FiberServer) tickerHandler(c *fiber.Ctx) error {
	pair := c.Params("pair")

	if name := c.Query("exchange"); name != "" {
		exchange, ok := exchangeByName(name)
		if !ok {
			return fiber.NewError(fiber.StatusBadRequest, "unknown exchange: "+name)
		}
		ticker := s.repo.Get(pair, exchange)
		if ticker == nil {
			return fiber.ErrNotFound
		}
		return c.JSON(ticker)
	}

	byExchange := s.repo.GetBySymbol(pair)
	if byExchange == nil {
		return fiber.ErrNotFound
	}
	return c.JSON(exchangeKeys(byExchange))
}

func (s *FiberServer) arbitrageHandler(c *fiber.Ctx) error {
	pair := c.Params("pair")

	minProfitPercent := 0.5
	if raw := c.Query("min"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid min: "+raw)
		}
		minProfitPercent = parsed
	}

	opportunities := arbitrage.Detect(s.repo, pair, minProfitPercent, time.Now())
	if opportunities == nil {
		opportunities = []domain.ArbitrageOpportunity{}
	}
	return c.JSON(opportunities)
}

func (s *FiberServer) opportunitiesHandler(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	opportunities, err := s.db.RecentOpportunities(limit)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	if opportunities == nil {
		opportunities = []domain.ArbitrageOpportunity{}
	}
	return c.JSON(opportunities)
}

func (s *FiberServer) priceStreamHandler(conn *websocket.Conn) {
	stream := s.addStream(conn)
	defer s.removeStream(conn)

	Logger.Info("Price stream client connected")
	for update := range stream {
		if err := conn.WriteJSON(update); err != nil {
			Logger.Info("Price stream client gone: " + err.Error())
			return
		}
	}
}

func exchangeKeys(byExchange map[domain.ExchangeEnum]*domain.Ticker) map[string]*domain.Ticker {
	out := make(map[string]*domain.Ticker, len(byExchange))
	for exchange, ticker := range byExchange {
		out[exchange.String()] = ticker
	}
	return out
}

func exchangeByName(name string) (domain.ExchangeEnum, bool) {
	for _, exchange := range []domain.ExchangeEnum{domain.Bitfinex, domain.Bybit, domain.Huobi, domain.Kraken, domain.Okx} {
		if exchange.String() == name {
			return exchange, true
		}
	}
	return 0, false
}
