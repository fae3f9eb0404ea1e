package bybit

import "testing"

func TestTickerAndOrderbookMerge(t *testing.T) {
	feed := NewFeed("")

	ticker := []byte(`{"topic":"tickers.BTCUSDT","type":"snapshot","data":{"symbol":"BTCUSDT","lastPrice":"66200.1","volume24h":"5123.4"}}`)
	if err := feed.handleMessage(ticker); err != nil {
		t.Fatalf("ticker message failed: %v", err)
	}

	got := feed.Latest()
	if *got.MarkPrice != 66200.1 || *got.Volume24h != 5123.4 {
		t.Errorf("ticker half = mark %v vol %v, want 66200.1/5123.4", *got.MarkPrice, *got.Volume24h)
	}
	if got.BidPrice != nil || got.AskPrice != nil {
		t.Errorf("bid/ask should be unknown before an orderbook frame, got %+v", got)
	}

	orderbook := []byte(`{"topic":"orderbook.50.BTCUSDT","type":"snapshot","data":{"s":"BTCUSDT","b":[["66199.9","0.5"],["66199.0","1.1"]],"a":[["66200.5","0.2"]]}}`)
	if err := feed.handleMessage(orderbook); err != nil {
		t.Fatalf("orderbook message failed: %v", err)
	}

	got = feed.Latest()
	if *got.BidPrice != 66199.9 || *got.AskPrice != 66200.5 {
		t.Errorf("best bid/ask = %v/%v, want 66199.9/66200.5", *got.BidPrice, *got.AskPrice)
	}
	// The ticker half must survive the orderbook update.
	if *got.MarkPrice != 66200.1 || *got.Volume24h != 5123.4 {
		t.Errorf("ticker half lost in merge: %+v", got)
	}
}

func TestDeltaWithOneSideKeepsOtherSide(t *testing.T) {
	feed := NewFeed("")
	snapshot := []byte(`{"topic":"orderbook.50.BTCUSDT","type":"snapshot","data":{"b":[["100","1"]],"a":[["101","1"]]}}`)
	if err := feed.handleMessage(snapshot); err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}

	delta := []byte(`{"topic":"orderbook.50.BTCUSDT","type":"delta","data":{"b":[["100.5","2"]],"a":[]}}`)
	if err := feed.handleMessage(delta); err != nil {
		t.Fatalf("delta failed: %v", err)
	}

	got := feed.Latest()
	if *got.BidPrice != 100.5 {
		t.Errorf("bid = %v, want 100.5", *got.BidPrice)
	}
	if *got.AskPrice != 101 {
		t.Errorf("empty ask side must keep previous value, got %v", *got.AskPrice)
	}
}

func TestControlMessagesIgnored(t *testing.T) {
	feed := NewFeed("")
	frames := [][]byte{
		[]byte(`{"success":true,"ret_msg":"subscribe","op":"subscribe"}`),
		[]byte(`{"op":"pong"}`),
	}
	for _, frame := range frames {
		if err := feed.handleMessage(frame); err != nil {
			t.Errorf("control frame should be ignored, got %v", err)
		}
	}
	if got := feed.Latest(); got != nil {
		t.Errorf("no snapshot expected, got %+v", got)
	}
}

func TestMalformedPriceDropsMessage(t *testing.T) {
	feed := NewFeed("")
	good := []byte(`{"topic":"orderbook.50.BTCUSDT","data":{"b":[["100","1"]],"a":[["101","1"]]}}`)
	if err := feed.handleMessage(good); err != nil {
		t.Fatalf("good message failed: %v", err)
	}

	bad := []byte(`{"topic":"orderbook.50.BTCUSDT","data":{"b":[["not-a-price","1"]],"a":[]}}`)
	if err := feed.handleMessage(bad); err == nil {
		t.Error("unparsable price should surface as a drop error")
	}

	// Previous snapshot must be untouched.
	if got := feed.Latest(); *got.BidPrice != 100 {
		t.Errorf("previous snapshot corrupted by malformed message: %+v", got)
	}
}
