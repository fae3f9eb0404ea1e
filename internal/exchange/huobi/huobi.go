package huobi

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"crypto-exchange-arbitrage-monitor/internal/domain"
	"crypto-exchange-arbitrage-monitor/internal/platform/logger"

	"github.com/coder/websocket"
)

const huobiWebsocketUrl = "wss://api.huobi.pro/ws"
const reconnectBackoff = 5 * time.Second

var Logger = logger.Get()
var FeedLogger = logger.GetFeedLogger()

// HuobiFeed streams the BTCUSDT ticker. Every frame arrives gzip-compressed;
// the server interleaves {"ping": n} control messages that must be answered
// with {"pong": n} or the connection is dropped.
type HuobiFeed struct {
	websocketUrl string
	started      atomic.Bool
	mu           sync.Mutex
	latest       *domain.Ticker
}

type huobiTick struct {
	Close  *float64 `json:"close"`
	Bid    *float64 `json:"bid"`
	Ask    *float64 `json:"ask"`
	Amount *float64 `json:"amount"`
}

type huobiMessage struct {
	Ping int64      `json:"ping"`
	Tick *huobiTick `json:"tick"`
}

func NewFeed(websocketUrl string) *HuobiFeed {
	if websocketUrl == "" {
		websocketUrl = huobiWebsocketUrl
	}
	return &HuobiFeed{websocketUrl: websocketUrl}
}

func (feed *HuobiFeed) Name() domain.ExchangeEnum {
	return domain.Huobi
}

func (feed *HuobiFeed) Latest() *domain.Ticker {
	feed.mu.Lock()
	defer feed.mu.Unlock()
	return feed.latest.Clone()
}

func (feed *HuobiFeed) Start(ctx context.Context) {
	if !feed.started.CompareAndSwap(false, true) {
		return
	}
	go feed.run(ctx)
}

func (feed *HuobiFeed) run(ctx context.Context) {
	for {
		if err := feed.stream(ctx); err != nil {
			Logger.Error("Huobi stream ended: " + err.Error())
		}
		select {
		case <-ctx.Done():
			Logger.Info("Closing Huobi feed")
			return
		case <-time.After(reconnectBackoff):
		}
	}
}

func (feed *HuobiFeed) stream(ctx context.Context) error {
	c, _, err := websocket.Dial(ctx, feed.websocketUrl, nil)
	if err != nil {
		return err
	}
	defer c.Close(websocket.StatusNormalClosure, "")
	c.SetReadLimit(-1)

	subscribeMessage := map[string]string{
		"sub": "market.btcusdt.ticker",
		"id":  "id1",
	}
	subscribeBytes, err := json.Marshal(subscribeMessage)
	if err != nil {
		return err
	}
	if err := c.Write(ctx, websocket.MessageText, subscribeBytes); err != nil {
		return err
	}
	Logger.Info("Subscribed to Huobi BTCUSDT ticker")

	for {
		messageType, payload, err := c.Read(ctx)
		if err != nil {
			return err
		}
		if messageType == websocket.MessageBinary {
			payload, err = decompress(payload)
			if err != nil {
				Logger.Error("Failed to decompress Huobi frame: " + err.Error())
				continue
			}
		}
		FeedLogger.Info("huobi: " + string(payload))

		var message huobiMessage
		if err := json.Unmarshal(payload, &message); err != nil {
			Logger.Error("Dropping Huobi message: " + err.Error())
			continue
		}

		if message.Ping != 0 {
			pong := []byte(`{"pong":` + strconv.FormatInt(message.Ping, 10) + `}`)
			if err := c.Write(ctx, websocket.MessageText, pong); err != nil {
				return err
			}
			continue
		}

		if message.Tick != nil {
			feed.applyTick(message.Tick)
		}
	}
}

func (feed *HuobiFeed) applyTick(tick *huobiTick) {
	feed.mu.Lock()
	defer feed.mu.Unlock()

	next := feed.latest.Clone()
	if next == nil {
		next = &domain.Ticker{Symbol: "BTCUSDT"}
	}
	if tick.Close != nil {
		next.MarkPrice = tick.Close
	}
	if tick.Bid != nil {
		next.BidPrice = tick.Bid
	}
	if tick.Ask != nil {
		next.AskPrice = tick.Ask
	}
	if tick.Amount != nil {
		next.Volume24h = tick.Amount
	}
	feed.latest = next
}

func decompress(payload []byte) ([]byte, error) {
	reader, err := gzip.NewReader(bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return io.ReadAll(reader)
}
