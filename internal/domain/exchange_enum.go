package domain

type ExchangeEnum int

const (
	Bitfinex ExchangeEnum = iota
	Bybit
	Huobi
	Kraken
	Okx
)

func (e ExchangeEnum) String() string {
	return []string{"BITFINEX-spot", "BYBIT-spot", "HUOBI-spot", "KRAKEN-spot", "OKX-spot"}[e]
}
