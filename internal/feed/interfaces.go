package feed

import (
	"context"
	"time"
)

// Fetcher retrieves the raw document behind a feed URL. Implementations own
// every transport concern: proxying, caching, timeouts.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// IDGenerator produces engine identifiers for sources and items.
type IDGenerator interface {
	NewID() (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
