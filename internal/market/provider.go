package market

import (
	"context"
	"errors"
)

// ErrThrottled is returned by a provider when the upstream answered with a
// rate-limit marker instead of data (for example Alpha Vantage's "Note"
// payload inside an HTTP 200 response).
var ErrThrottled = errors.New("provider throttled")

// Provider is the capability shared by every quote source.
//
// Quote returns (nil, nil) when the provider answered well-formed data that
// simply has nothing for the symbol. Any error, ErrThrottled included, means
// the attempt failed and the caller should move on to the next provider in
// the chain; provider-specific response shapes never cross this boundary.
type Provider interface {
	Name() string
	Search(ctx context.Context, keywords string) ([]SearchResult, error)
	Quote(ctx context.Context, symbol string) (*Quote, error)
}
