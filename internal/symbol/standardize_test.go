package symbol

import "testing"

func TestStandardize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"BTC/USDT", "BTC/USDT"},
		{"BTC-USD", "BTC/USD"},
		{"BTC-USDT", "BTC/USDT"},
		{"BTCUSDT", "BTC/USDT"},
		{"BTCUSD", "BTC/USD"},
		{"btcusd", "BTC/USD"},
		{"btc/usdt", "BTC/USDT"},
		{"tBTCUSD", "BTC/USD"}, // bitfinex prefix form
		{"ETHUSDT", "ETHUSDT"}, // unknown format passes through
		{"", "BTC/USDT"},       // empty defaults
	}

	for _, c := range cases {
		if got := Standardize(c.in); got != c.want {
			t.Errorf("Standardize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestStandardizeIdempotent(t *testing.T) {
	inputs := []string{"BTC-USD", "BTCUSDT", "btcusd", "BTC/USDT", "ETHUSDT", ""}
	for _, in := range inputs {
		once := Standardize(in)
		if twice := Standardize(once); twice != once {
			t.Errorf("Standardize not idempotent for %q: %q -> %q", in, once, twice)
		}
	}
}
