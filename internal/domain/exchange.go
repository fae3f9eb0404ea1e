package domain

import (
	"context"
)

// Feeder is the contract every exchange feed adapter implements. An adapter
// owns one streaming connection to one exchange's public ticker channel and
// is always ready to report the most recent snapshot it has parsed.
type Feeder interface {
	// Start is idempotent. It launches the connection loop in the background
	// and returns immediately. Connection loss is handled internally with a
	// fixed backoff; callers never see reconnects.
	Start(ctx context.Context)
	// Latest returns a copy of the most recent snapshot, or nil if no message
	// has ever been parsed. Safe to call concurrently with the feed loop.
	Latest() *Ticker
	Name() ExchangeEnum
}
