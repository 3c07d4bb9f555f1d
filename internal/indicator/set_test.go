package indicator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/stockscope/internal/marketdata"
)

func testBars(n int) marketdata.Series {
	bars := make(marketdata.Series, n)
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		base := 100 + float64(i%11)
		bars[i] = marketdata.Bar{
			Date:   day,
			Open:   base,
			High:   base + 3,
			Low:    base - 3,
			Close:  base + 1,
			Volume: 1000,
		}
		day = day.AddDate(0, 0, 1)
	}
	return bars
}

func TestCompute(t *testing.T) {
	bars := testBars(252)
	set := Compute(bars)

	// Every derived column is aligned with the source bars.
	columns := map[string]Series{
		"ma9":             set.MA9,
		"ma22":            set.MA22,
		"rsi":             set.RSI,
		"macd":            set.MACD,
		"macd_signal":     set.MACDSignal,
		"macd_histogram":  set.MACDHistogram,
		"bollinger_upper": set.BollingerUpper,
		"bollinger_mid":   set.BollingerMiddle,
		"bollinger_lower": set.BollingerLower,
		"stochastic_k":    set.StochasticK,
		"stochastic_d":    set.StochasticD,
	}
	for name, col := range columns {
		assert.Len(t, col, len(bars), "column %s", name)
	}

	assert.Equal(t, 244, set.MA9.DefinedCount())
	assert.Equal(t, 231, set.MA22.DefinedCount())
	assert.Equal(t, 238, set.RSI.DefinedCount())
}

func TestComputeEmptySeries(t *testing.T) {
	set := Compute(nil)
	assert.Empty(t, set.MA9)
	assert.Empty(t, set.RSI)
	assert.Empty(t, set.StochasticK)
}

func TestDetectCross(t *testing.T) {
	tests := []struct {
		name string
		fast Series
		slow Series
		want Cross
	}{
		{
			name: "golden cross",
			fast: Series{valid(9), valid(11)},
			slow: Series{valid(10), valid(10)},
			want: GoldenCross,
		},
		{
			name: "dead cross",
			fast: Series{valid(11), valid(9)},
			slow: Series{valid(10), valid(10)},
			want: DeadCross,
		},
		{
			name: "no cross when fast stays above",
			fast: Series{valid(12), valid(13)},
			slow: Series{valid(10), valid(10)},
			want: NoCross,
		},
		{
			name: "warm-up positions are skipped",
			fast: Series{{}, valid(9), valid(11)},
			slow: Series{{}, valid(10), valid(10)},
			want: GoldenCross,
		},
		{
			name: "single defined point",
			fast: Series{{}, valid(11)},
			slow: Series{{}, valid(10)},
			want: NoCross,
		},
		{
			name: "length mismatch",
			fast: Series{valid(9), valid(11)},
			slow: Series{valid(10)},
			want: NoCross,
		},
		{
			name: "touch without crossing",
			fast: Series{valid(9), valid(10)},
			slow: Series{valid(10), valid(10)},
			want: NoCross,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectCross(tt.fast, tt.slow); got != tt.want {
				t.Errorf("DetectCross() = %v, want %v", got, tt.want)
			}
		})
	}
}
