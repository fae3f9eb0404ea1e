package kraken

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

const krakenWebsocketUrl = "wss://ws.kraken.com/v2"
const reconnectBackoff = 5 * time.Second

var Logger = logger.Get()
var FeedLogger = logger.GetFeedLogger()

// KrakenFeed streams the v2 BTC/USD ticker channel. Ticker payloads are plain
// JSON objects inside a data array; status and heartbeat messages share the
// same envelope and are skipped by channel name.
type KrakenFeed struct {
	websocketUrl string
	started      atomic.Bool
	mu           sync.Mutex
	latest       *domain.Ticker
}

type krakenTickerData struct {
	Bid    *float64 `json:"bid"`
	Ask    *float64 `json:"ask"`
	Last   *float64 `json:"last"`
	Volume *float64 `json:"volume"`
}

type krakenMessage struct {
	Channel string             `json:"channel"`
	Data    []krakenTickerData `json:"data"`
}

func NewFeed(websocketUrl string) *KrakenFeed {
	if websocketUrl == "" {
		websocketUrl = krakenWebsocketUrl
	}
	return &KrakenFeed{websocketUrl: websocketUrl}
}

func (feed *KrakenFeed) Name() domain.ExchangeEnum {
	return domain.Kraken
}

func (feed *KrakenFeed) Latest() *domain.Ticker {
	feed.mu.Lock()
	defer feed.mu.Unlock()
	return feed.latest.Clone()
}

func (feed *KrakenFeed) Start(ctx context.Context) {
	if !feed.started.CompareAndSwap(false, true) {
		return
	}
	go feed.run(ctx)
}

func (feed *KrakenFeed) run(ctx context.Context) {
	for {
		if err := feed.stream(ctx); err != nil {
			Logger.Error("Kraken stream ended: " + err.Error())
		}
		select {
		case <-ctx.Done():
			Logger.Info("Closing Kraken feed")
			return
		case <-time.After(reconnectBackoff):
		}
	}
}

func (feed *KrakenFeed) stream(ctx context.Context) error {
	c, _, err := websocket.Dial(ctx, feed.websocketUrl, nil)
	if err != nil {
		return err
	}
	defer c.Close(websocket.StatusNormalClosure, "")
	c.SetReadLimit(-1)

	subscribeMessage := map[string]any{
		"method": "subscribe",
		"params": map[string]any{
			"channel": "ticker",
			"symbol":  []string{"BTC/USD"},
		},
	}
	subscribeBytes, err := json.Marshal(subscribeMessage)
	if err != nil {
		return err
	}
	if err := c.Write(ctx, websocket.MessageText, subscribeBytes); err != nil {
		return err
	}
	Logger.Info("Subscribed to Kraken BTC/USD ticker")

	for {
		_, message, err := c.Read(ctx)
		if err != nil {
			return err
		}
		FeedLogger.Info("kraken: " + string(message))
		if err := feed.handleMessage(message); err != nil {
			Logger.Error("Dropping Kraken message: " + err.Error())
		}
	}
}

func (feed *KrakenFeed) handleMessage(message []byte) error {
	var envelope krakenMessage
	if err := json.Unmarshal(message, &envelope); err != nil {
		return err
	}
	if envelope.Channel != "ticker" || len(envelope.Data) == 0 {
		// Subscription ack, status or heartbeat.
		return nil
	}
	data := envelope.Data[0]

	feed.mu.Lock()
	defer feed.mu.Unlock()

	next := feed.latest.Clone()
	if next == nil {
		next = &domain.Ticker{Symbol: "BTC/USD"}
	}
	if data.Last != nil {
		next.MarkPrice = data.Last
	}
	if data.Bid != nil {
		next.BidPrice = data.Bid
	}
	if data.Ask != nil {
		next.AskPrice = data.Ask
	}
	if data.Volume != nil {
		next.Volume24h = data.Volume
	}
	feed.latest = next
	return nil
}
