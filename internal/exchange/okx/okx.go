package okx

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

const okxWebsocketUrl = "wss://ws.okx.com:8443/ws/v5/public"
const reconnectBackoff = 5 * time.Second

var Logger = logger.Get()
var FeedLogger = logger.GetFeedLogger()

// OkxFeed streams the public v5 BTC-USDT spot ticker. Prices arrive as
// decimal strings inside a data array; event messages (subscribe acks,
// errors) carry no data and are skipped.
type OkxFeed struct {
	websocketUrl string
	started      atomic.Bool
	mu           sync.Mutex
	latest       *domain.Ticker
}

type okxTickerData struct {
	Last   *float64 `json:"last,string"`
	BidPx  *float64 `json:"bidPx,string"`
	AskPx  *float64 `json:"askPx,string"`
	Vol24h *float64 `json:"vol24h,string"`
}

type okxMessage struct {
	Event string          `json:"event"`
	Data  []okxTickerData `json:"data"`
}

func NewFeed(websocketUrl string) *OkxFeed {
	if websocketUrl == "" {
		websocketUrl = okxWebsocketUrl
	}
	return &OkxFeed{websocketUrl: websocketUrl}
}

func (feed *OkxFeed) Name() domain.ExchangeEnum {
	return domain.Okx
}

func (feed *OkxFeed) Latest() *domain.Ticker {
	feed.mu.Lock()
	defer feed.mu.Unlock()
	return feed.latest.Clone()
}

func (feed *OkxFeed) Start(ctx context.Context) {
	if !feed.started.CompareAndSwap(false, true) {
		return
	}
	go feed.run(ctx)
}

func (feed *OkxFeed) run(ctx context.Context) {
	for {
		if err := feed.stream(ctx); err != nil {
			Logger.Error("OKX stream ended: " + err.Error())
		}
		select {
		case <-ctx.Done():
			Logger.Info("Closing OKX feed")
			return
		case <-time.After(reconnectBackoff):
		}
	}
}

func (feed *OkxFeed) stream(ctx context.Context) error {
	c, _, err := websocket.Dial(ctx, feed.websocketUrl, nil)
	if err != nil {
		return err
	}
	defer c.Close(websocket.StatusNormalClosure, "")
	c.SetReadLimit(-1)

	subscribeMessage := map[string]any{
		"op": "subscribe",
		"args": []map[string]string{{
			"channel":  "tickers",
			"instType": "SPOT",
			"instId":   "BTC-USDT",
		}},
	}
	subscribeBytes, err := json.Marshal(subscribeMessage)
	if err != nil {
		return err
	}
	if err := c.Write(ctx, websocket.MessageText, subscribeBytes); err != nil {
		return err
	}
	Logger.Info("Subscribed to OKX BTC-USDT ticker")

	for {
		_, message, err := c.Read(ctx)
		if err != nil {
			return err
		}
		FeedLogger.Info("okx: " + string(message))
		if err := feed.handleMessage(message); err != nil {
			Logger.Error("Dropping OKX message: " + err.Error())
		}
	}
}

func (feed *OkxFeed) handleMessage(message []byte) error {
	var envelope okxMessage
	if err := json.Unmarshal(message, &envelope); err != nil {
		return err
	}
	if envelope.Event != "" || len(envelope.Data) == 0 {
		return nil
	}
	data := envelope.Data[0]

	feed.mu.Lock()
	defer feed.mu.Unlock()

	next := feed.latest.Clone()
	if next == nil {
		next = &domain.Ticker{Symbol: "BTC-USDT"}
	}
	if data.Last != nil {
		next.MarkPrice = data.Last
	}
	if data.BidPx != nil {
		next.BidPrice = data.BidPx
	}
	if data.AskPx != nil {
		next.AskPrice = data.AskPx
	}
	if data.Vol24h != nil {
		next.Volume24h = data.Vol24h
	}
	feed.latest = next
	return nil
}
