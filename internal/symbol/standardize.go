package symbol

import "strings"

const defaultSymbol = "BTC/USDT"

// Standardize maps an exchange-local symbol spelling to the canonical
// "BASE/QUOTE" form used as the repository key. Unknown formats pass through
// unchanged so a new exchange cannot silently collide with an existing key.
func Standardize(raw string) string {
	if raw == "" {
		return defaultSymbol
	}

	s := strings.ToUpper(raw)

	if strings.Contains(s, "/") {
		return s
	}
	if strings.Contains(s, "-") {
		base, quote, _ := strings.Cut(s, "-")
		return base + "/" + quote
	}

	switch s {
	case "BTCUSDT":
		return "BTC/USDT"
	case "BTCUSD":
		return "BTC/USD"
	}

	if strings.Contains(s, "BTC") {
		if strings.Contains(s, "USDT") {
			return "BTC/USDT"
		}
		if strings.Contains(s, "USD") {
			return "BTC/USD"
		}
	}

	return s
}
