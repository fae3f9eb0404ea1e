package server

import (
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"crypto-exchange-arbitrage-monitor/internal/database"
	"crypto-exchange-arbitrage-monitor/internal/domain"
	"crypto-exchange-arbitrage-monitor/internal/platform/logger"
	"crypto-exchange-arbitrage-monitor/internal/repository"
)

var Logger = logger.Get()

type priceUpdate struct {
	Symbol   string         `json:"symbol"`
	Exchange string         `json:"exchange"`
	Ticker   *domain.Ticker `json:"ticker"`
}

// FiberServer is the read-only collaborator surface: polled JSON endpoints
// over the repository plus a websocket push of mark-price changes, fed from
// the repository's update callback.
type FiberServer struct {
	*fiber.App

	repo *repository.Repository
	db   database.Service

	mu      sync.Mutex
	streams map[*websocket.Conn]chan priceUpdate
}

func New(repo *repository.Repository, db database.Service) *FiberServer {
	server := &FiberServer{
		App: fiber.New(fiber.Config{
			ServerHeader: "crypto-exchange-arbitrage-monitor",
			AppName:      "crypto-exchange-arbitrage-monitor",
		}),

		repo:    repo,
		db:      db,
		streams: make(map[*websocket.Conn]chan priceUpdate),
	}

	// One process-lifetime subscriber fans out to however many websocket
	// clients are connected.
	repo.RegisterUpdateCallback(server.broadcast)

	return server
}

func (s *FiberServer) broadcast(symbol string, exchange domain.ExchangeEnum, ticker *domain.Ticker) {
	update := priceUpdate{Symbol: symbol, Exchange: exchange.String(), Ticker: ticker}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, stream := range s.streams {
		select {
		case stream <- update:
		default:
			// A client that cannot keep up loses updates, not the producer.
		}
	}
}

func (s *FiberServer) addStream(conn *websocket.Conn) chan priceUpdate {
	stream := make(chan priceUpdate, 64)
	s.mu.Lock()
	s.streams[conn] = stream
	s.mu.Unlock()
	return stream
}

func (s *FiberServer) removeStream(conn *websocket.Conn) {
	s.mu.Lock()
	stream, ok := s.streams[conn]
	if ok {
		delete(s.streams, conn)
	}
	s.mu.Unlock()
	if ok {
		close(stream)
	}
}
