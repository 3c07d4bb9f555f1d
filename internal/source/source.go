// Package source defines the contract shared by the price-history adapters.
package source

import (
	"context"

	"github.com/wonny/stockscope/internal/marketdata"
)

// Source fetches a daily price history for one symbol over a lookback window
// of whole years. Implementations fail soft: network, parse, and empty-result
// conditions come back as errors for the orchestrator to absorb, never as
// panics.
type Source interface {
	// Name identifies the source in logs and progress messages.
	Name() string

	// Fetch returns the normalized daily series for the symbol.
	Fetch(ctx context.Context, symbol string, years int) (marketdata.Series, error)
}
