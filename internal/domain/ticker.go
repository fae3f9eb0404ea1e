package domain

// Ticker is the canonical snapshot of one exchange's view of one pair.
// A nil price means the feed has not reported that field yet, which is
// different from a reported value of 0.
type Ticker struct {
	Symbol    string   `json:"symbol"`
	MarkPrice *float64 `json:"mark_price"`
	BidPrice  *float64 `json:"bid_price"`
	AskPrice  *float64 `json:"ask_price"`
	Volume24h *float64 `json:"volume_24h"`
}

// Clone returns an independent copy. Snapshots are replaced, never mutated,
// so every handoff between adapter, pump and repository goes through Clone.
func (t *Ticker) Clone() *Ticker {
	if t == nil {
		return nil
	}
	clone := &Ticker{Symbol: t.Symbol}
	clone.MarkPrice = cloneFloat(t.MarkPrice)
	clone.BidPrice = cloneFloat(t.BidPrice)
	clone.AskPrice = cloneFloat(t.AskPrice)
	clone.Volume24h = cloneFloat(t.Volume24h)
	return clone
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// Float is a convenience for building optional price fields.
func Float(v float64) *float64 {
	return &v
}
