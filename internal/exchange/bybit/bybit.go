package bybit

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"crypto-exchange-arbitrage-monitor/internal/domain"
	"crypto-exchange-arbitrage-monitor/internal/platform/logger"

	"github.com/coder/websocket"
)

const bybitWebsocketUrl = "wss://stream.bybit.com/v5/public/spot"
const reconnectBackoff = 5 * time.Second

var Logger = logger.Get()
var FeedLogger = logger.GetFeedLogger()

// BybitFeed subscribes to two channels for BTCUSDT: the ticker stream carries
// last price and 24h volume, the depth-50 orderbook stream carries best bid
// and ask. The two halves merge into one snapshot, each update keeping the
// other half's previous values.
type BybitFeed struct {
	websocketUrl string
	started      atomic.Bool
	mu           sync.Mutex
	latest       *domain.Ticker
}

type bybitTickerData struct {
	LastPrice *float64 `json:"lastPrice,string"`
	Volume24h *float64 `json:"volume24h,string"`
}

type bybitOrderbookData struct {
	Bids [][2]string `json:"b"`
	Asks [][2]string `json:"a"`
}

type bybitMessage struct {
	Topic string          `json:"topic"`
	Data  json.RawMessage `json:"data"`
}

func NewFeed(websocketUrl string) *BybitFeed {
	if websocketUrl == "" {
		websocketUrl = bybitWebsocketUrl
	}
	return &BybitFeed{websocketUrl: websocketUrl}
}

func (feed *BybitFeed) Name() domain.ExchangeEnum {
	return domain.Bybit
}

func (feed *BybitFeed) Latest() *domain.Ticker {
	feed.mu.Lock()
	defer feed.mu.Unlock()
	return feed.latest.Clone()
}

func (feed *BybitFeed) Start(ctx context.Context) {
	if !feed.started.CompareAndSwap(false, true) {
		return
	}
	go feed.run(ctx)
}

func (feed *BybitFeed) run(ctx context.Context) {
	for {
		if err := feed.stream(ctx); err != nil {
			Logger.Error("Bybit stream ended: " + err.Error())
		}
		select {
		case <-ctx.Done():
			Logger.Info("Closing Bybit feed")
			return
		case <-time.After(reconnectBackoff):
		}
	}
}

func (feed *BybitFeed) stream(ctx context.Context) error {
	c, _, err := websocket.Dial(ctx, feed.websocketUrl, nil)
	if err != nil {
		return err
	}
	defer c.Close(websocket.StatusNormalClosure, "")
	c.SetReadLimit(-1)

	subscribeMessage := map[string]any{
		"op":   "subscribe",
		"args": []string{"tickers.BTCUSDT", "orderbook.50.BTCUSDT"},
	}
	subscribeBytes, err := json.Marshal(subscribeMessage)
	if err != nil {
		return err
	}
	if err := c.Write(ctx, websocket.MessageText, subscribeBytes); err != nil {
		return err
	}
	Logger.Info("Subscribed to Bybit BTCUSDT ticker and orderbook streams")

	for {
		_, message, err := c.Read(ctx)
		if err != nil {
			return err
		}
		FeedLogger.Info("bybit: " + string(message))
		if err := feed.handleMessage(message); err != nil {
			Logger.Error("Dropping Bybit message: " + err.Error())
		}
	}
}

func (feed *BybitFeed) handleMessage(message []byte) error {
	var envelope bybitMessage
	if err := json.Unmarshal(message, &envelope); err != nil {
		return err
	}
	if envelope.Topic == "" || envelope.Data == nil {
		// Subscription ack or pong.
		return nil
	}

	switch {
	case strings.HasPrefix(envelope.Topic, "tickers."):
		return feed.handleTicker(envelope.Data)
	case strings.HasPrefix(envelope.Topic, "orderbook."):
		return feed.handleOrderbook(envelope.Data)
	}
	return nil
}

func (feed *BybitFeed) handleTicker(data json.RawMessage) error {
	var ticker bybitTickerData
	if err := json.Unmarshal(data, &ticker); err != nil {
		return err
	}

	feed.mu.Lock()
	defer feed.mu.Unlock()

	next := feed.latest.Clone()
	if next == nil {
		next = &domain.Ticker{Symbol: "BTCUSDT"}
	}
	if ticker.LastPrice != nil {
		next.MarkPrice = ticker.LastPrice
	}
	if ticker.Volume24h != nil {
		next.Volume24h = ticker.Volume24h
	}
	feed.latest = next
	return nil
}

func (feed *BybitFeed) handleOrderbook(data json.RawMessage) error {
	var orderbook bybitOrderbookData
	if err := json.Unmarshal(data, &orderbook); err != nil {
		return err
	}
	// Delta frames may carry only one side; empty sides keep their previous
	// best price.
	var bestBid, bestAsk *float64
	if len(orderbook.Bids) > 0 {
		price, err := strconv.ParseFloat(orderbook.Bids[0][0], 64)
		if err != nil {
			return err
		}
		bestBid = &price
	}
	if len(orderbook.Asks) > 0 {
		price, err := strconv.ParseFloat(orderbook.Asks[0][0], 64)
		if err != nil {
			return err
		}
		bestAsk = &price
	}
	if bestBid == nil && bestAsk == nil {
		return nil
	}

	feed.mu.Lock()
	defer feed.mu.Unlock()

	next := feed.latest.Clone()
	if next == nil {
		next = &domain.Ticker{Symbol: "BTCUSDT"}
	}
	if bestBid != nil {
		next.BidPrice = bestBid
	}
	if bestAsk != nil {
		next.AskPrice = bestAsk
	}
	feed.latest = next
	return nil
}
