package bitfinex

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"crypto-exchange-arbitrage-monitor/internal/domain"
	"crypto-exchange-arbitrage-monitor/internal/platform/logger"

	"github.com/coder/websocket"
)

const bitfinexWebsocketUrl = "wss://api-pub.bitfinex.com/ws/2"
const reconnectBackoff = 5 * time.Second

var Logger = logger.Get()
var FeedLogger = logger.GetFeedLogger()

// BitfinexFeed streams the combined BTC/USD ticker. Bitfinex frames are JSON
// arrays: [channelId, [bid, bidSize, ask, askSize, dailyChange, dailyChangePct,
// lastPrice, volume, high, low]]. Subscription events and heartbeats arrive as
// objects or ["..", "hb"] frames and are ignored.
type BitfinexFeed struct {
	websocketUrl string
	started      atomic.Bool
	mu           sync.Mutex
	latest       *domain.Ticker
}

func NewFeed(websocketUrl string) *BitfinexFeed {
	if websocketUrl == "" {
		websocketUrl = bitfinexWebsocketUrl
	}
	return &BitfinexFeed{websocketUrl: websocketUrl}
}

func (feed *BitfinexFeed) Name() domain.ExchangeEnum {
	return domain.Bitfinex
}

func (feed *BitfinexFeed) Latest() *domain.Ticker {
	feed.mu.Lock()
	defer feed.mu.Unlock()
	return feed.latest.Clone()
}

func (feed *BitfinexFeed) Start(ctx context.Context) {
	if !feed.started.CompareAndSwap(false, true) {
		return
	}
	go feed.run(ctx)
}

func (feed *BitfinexFeed) run(ctx context.Context) {
	for {
		if err := feed.stream(ctx); err != nil {
			Logger.Error("Bitfinex stream ended: " + err.Error())
		}
		select {
		case <-ctx.Done():
			Logger.Info("Closing Bitfinex feed")
			return
		case <-time.After(reconnectBackoff):
		}
	}
}

func (feed *BitfinexFeed) stream(ctx context.Context) error {
	c, _, err := websocket.Dial(ctx, feed.websocketUrl, nil)
	if err != nil {
		return err
	}
	defer c.Close(websocket.StatusNormalClosure, "")
	c.SetReadLimit(-1)

	subscribeMessage := map[string]string{
		"event":   "subscribe",
		"channel": "ticker",
		"symbol":  "tBTCUSD",
	}
	subscribeBytes, err := json.Marshal(subscribeMessage)
	if err != nil {
		return err
	}
	if err := c.Write(ctx, websocket.MessageText, subscribeBytes); err != nil {
		return err
	}
	Logger.Info("Subscribed to Bitfinex BTC/USD ticker")

	for {
		_, message, err := c.Read(ctx)
		if err != nil {
			return err
		}
		FeedLogger.Info("bitfinex: " + string(message))
		if err := feed.handleMessage(message); err != nil {
			Logger.Error("Dropping Bitfinex message: " + err.Error())
		}
	}
}

func (feed *BitfinexFeed) handleMessage(message []byte) error {
	var frame []json.RawMessage
	if err := json.Unmarshal(message, &frame); err != nil {
		// Event object (subscribed, info, error notice); not ticker data.
		return nil
	}
	if len(frame) < 2 {
		return nil
	}

	var values []float64
	if err := json.Unmarshal(frame[1], &values); err != nil {
		// Heartbeat frames carry "hb" in the payload slot.
		return nil
	}
	if len(values) < 8 {
		return nil
	}

	feed.mu.Lock()
	defer feed.mu.Unlock()

	next := feed.latest.Clone()
	if next == nil {
		next = &domain.Ticker{Symbol: "BTC/USD"}
	}
	next.BidPrice = domain.Float(values[0])
	next.AskPrice = domain.Float(values[2])
	next.MarkPrice = domain.Float(values[6])
	next.Volume24h = domain.Float(values[7])
	feed.latest = next
	return nil
}
