package database

import (
	"database/sql"
	"log"
	"time"

	"crypto-exchange-arbitrage-monitor/internal/domain"

	_ "github.com/mattn/go-sqlite3"
)

// Service journals detected arbitrage opportunities. Live ticks are never
// persisted; the repository is the only holder of price state.
type Service interface {
	Health() map[string]string
	SaveOpportunity(opportunity domain.ArbitrageOpportunity) error
	RecentOpportunities(limit int) ([]domain.ArbitrageOpportunity, error)
	Close() error
}

type service struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS opportunities (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	symbol TEXT NOT NULL,
	buy_exchange TEXT NOT NULL,
	buy_price REAL NOT NULL,
	sell_exchange TEXT NOT NULL,
	sell_price REAL NOT NULL,
	profit_percent REAL NOT NULL,
	detected_at TIMESTAMP NOT NULL
);`

func New(path string) Service {
	if path == "" {
		path = "arbitrage.db"
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	if _, err := db.Exec(schema); err != nil {
		log.Fatalf("failed to create schema: %v", err)
	}
	return &service{db: db}
}

func (s *service) Health() map[string]string {
	if err := s.db.Ping(); err != nil {
		return map[string]string{
			"status":  "down",
			"message": err.Error(),
		}
	}
	return map[string]string{
		"status":  "up",
		"message": "It's healthy",
	}
}

func (s *service) SaveOpportunity(opportunity domain.ArbitrageOpportunity) error {
	_, err := s.db.Exec(
		`INSERT INTO opportunities (symbol, buy_exchange, buy_price, sell_exchange, sell_price, profit_percent, detected_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		opportunity.Symbol,
		opportunity.BuyExchange,
		opportunity.BuyPrice,
		opportunity.SellExchange,
		opportunity.SellPrice,
		opportunity.ProfitPercent,
		time.Now().UTC(),
	)
	return err
}

func (s *service) RecentOpportunities(limit int) ([]domain.ArbitrageOpportunity, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT symbol, buy_exchange, buy_price, sell_exchange, sell_price, profit_percent
		 FROM opportunities ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ArbitrageOpportunity
	for rows.Next() {
		var opportunity domain.ArbitrageOpportunity
		if err := rows.Scan(
			&opportunity.Symbol,
			&opportunity.BuyExchange,
			&opportunity.BuyPrice,
			&opportunity.SellExchange,
			&opportunity.SellPrice,
			&opportunity.ProfitPercent,
		); err != nil {
			return nil, err
		}
		out = append(out, opportunity)
	}
	return out, rows.Err()
}

func (s *service) Close() error {
	return s.db.Close()
}
