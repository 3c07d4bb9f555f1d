package portfolio

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/stockscope/pkg/logger"
)

func tempLedger(t *testing.T) *Ledger {
	t.Helper()
	return NewLedger(filepath.Join(t.TempDir(), "portfolio.json"), logger.NewNop())
}

// fixedConverter multiplies by a fixed USD→KRW rate.
type fixedConverter struct{ rate float64 }

func (c fixedConverter) ToKRW(usd float64) float64 { return usd * c.rate }

func TestBuyAveragesCost(t *testing.T) {
	l := tempLedger(t)

	require.NoError(t, l.Buy("005930", 10, 70000, time.Now()))
	require.NoError(t, l.Buy("005930", 10, 80000, time.Now()))

	h := l.Holdings()["005930"]
	assert.Equal(t, 20.0, h.Quantity)
	assert.Equal(t, 75000.0, h.AvgPrice)
	assert.Equal(t, 1500000.0, h.TotalCost)

	assert.Len(t, l.Transactions(), 2)
}

func TestBuyRejectsNonPositive(t *testing.T) {
	l := tempLedger(t)

	assert.Error(t, l.Buy("005930", 0, 70000, time.Now()))
	assert.Error(t, l.Buy("005930", 10, -1, time.Now()))
	assert.Empty(t, l.Holdings())
}

func TestSellReducesAtAverageCost(t *testing.T) {
	l := tempLedger(t)
	require.NoError(t, l.Buy("005930", 10, 70000, time.Now()))

	require.NoError(t, l.Sell("005930", 4, 75000, time.Now()))

	h := l.Holdings()["005930"]
	assert.Equal(t, 6.0, h.Quantity)
	assert.Equal(t, 70000.0, h.AvgPrice) // selling never moves the average
	assert.Equal(t, 420000.0, h.TotalCost)
}

func TestSellInsufficientHoldings(t *testing.T) {
	l := tempLedger(t)
	require.NoError(t, l.Buy("005930", 5, 70000, time.Now()))

	assert.Error(t, l.Sell("005930", 10, 75000, time.Now()))
	assert.Error(t, l.Sell("035720", 1, 1000, time.Now()))
}

func TestSellAllRemovesHolding(t *testing.T) {
	l := tempLedger(t)
	require.NoError(t, l.Buy("005930", 5, 70000, time.Now()))
	require.NoError(t, l.Sell("005930", 5, 75000, time.Now()))

	assert.Empty(t, l.Holdings())
	assert.Empty(t, l.Symbols())
}

func TestSymbolsSorted(t *testing.T) {
	l := tempLedger(t)
	l.Buy("035720", 1, 1000, time.Now())
	l.Buy("005930", 1, 1000, time.Now())
	l.Buy("AAPL", 1, 100, time.Now())

	assert.Equal(t, []string{"005930", "035720", "AAPL"}, l.Symbols())
}

func TestPersistenceAcrossReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portfolio.json")

	l := NewLedger(path, logger.NewNop())
	require.NoError(t, l.Buy("005930", 10, 70000, time.Now()))

	reloaded := NewLedger(path, logger.NewNop())
	h := reloaded.Holdings()["005930"]
	assert.Equal(t, 10.0, h.Quantity)
	assert.Len(t, reloaded.Transactions(), 1)
}

func TestReturns(t *testing.T) {
	l := tempLedger(t)
	require.NoError(t, l.Buy("005930", 10, 70000, time.Now())) // domestic
	require.NoError(t, l.Buy("AAPL", 10, 200, time.Now()))     // US

	prices := map[string]float64{
		"005930": 77000, // +10%
		"AAPL":   220,   // +10%
	}
	positions, summary := l.Returns(prices, fixedConverter{rate: 1350})

	krw := positions["005930"]
	assert.False(t, krw.IsUSStock)
	assert.InDelta(t, 10.0, krw.ProfitRate, 1e-9)
	assert.Equal(t, 770000.0, krw.CurrentValueKRW) // already KRW

	us := positions["AAPL"]
	assert.True(t, us.IsUSStock)
	assert.InDelta(t, 10.0, us.ProfitRate, 1e-9)
	assert.Equal(t, 220*10*1350.0, us.CurrentValueKRW)

	// Totals in KRW: 700000+770000 domestic, 2000*1350 + 2200*1350 US.
	assert.InDelta(t, 700000+2000*1350.0, summary.TotalCostKRW, 1e-6)
	assert.InDelta(t, 770000+2200*1350.0, summary.TotalValueKRW, 1e-6)
	assert.InDelta(t, 10.0, summary.TotalProfitRate, 1e-9)
}

func TestReturnsSkipsSymbolsWithoutPrice(t *testing.T) {
	l := tempLedger(t)
	require.NoError(t, l.Buy("005930", 10, 70000, time.Now()))
	require.NoError(t, l.Buy("035720", 5, 40000, time.Now()))

	positions, summary := l.Returns(map[string]float64{"005930": 70000}, nil)

	assert.Len(t, positions, 1)
	assert.Contains(t, positions, "005930")
	assert.Equal(t, 700000.0, summary.TotalValueKRW)
}
