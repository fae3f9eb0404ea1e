package domain

// ArbitrageOpportunity is one buy/sell exchange pair whose spread clears the
// configured minimum. Computed fresh on every detection pass, never stored
// back into the repository.
type ArbitrageOpportunity struct {
	Symbol        string  `json:"symbol"`
	BuyExchange   string  `json:"buy_exchange"`
	BuyPrice      float64 `json:"buy_price"`
	SellExchange  string  `json:"sell_exchange"`
	SellPrice     float64 `json:"sell_price"`
	ProfitPercent float64 `json:"profit_percent"`
}
