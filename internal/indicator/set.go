package indicator

import "github.com/wonny/stockscope/internal/marketdata"

// Set is the full read-only indicator overlay for one price series. It is
// recomputed in full whenever the source series changes, never patched.
type Set struct {
	MA9  Series `json:"ma9"`
	MA22 Series `json:"ma22"`

	RSI Series `json:"rsi"`

	MACD          Series `json:"macd"`
	MACDSignal    Series `json:"macd_signal"`
	MACDHistogram Series `json:"macd_histogram"`

	BollingerUpper  Series `json:"bollinger_upper"`
	BollingerMiddle Series `json:"bollinger_middle"`
	BollingerLower  Series `json:"bollinger_lower"`

	StochasticK Series `json:"stochastic_k"`
	StochasticD Series `json:"stochastic_d"`
}

// Compute derives the full indicator set from a bar series using the default
// parameters.
func Compute(bars marketdata.Series) *Set {
	closes := bars.Closes()
	highs := bars.Highs()
	lows := bars.Lows()

	set := &Set{
		MA9:  MovingAverage(closes, DefaultShortMAWindow),
		MA22: MovingAverage(closes, DefaultLongMAWindow),
		RSI:  RSI(closes, DefaultRSIPeriod),
	}

	set.MACD, set.MACDSignal, set.MACDHistogram = MACD(
		closes, DefaultMACDFast, DefaultMACDSlow, DefaultMACDSignal)

	set.BollingerUpper, set.BollingerMiddle, set.BollingerLower = BollingerBands(
		closes, DefaultBollingerPeriod, DefaultBollingerWidth)

	set.StochasticK, set.StochasticD = Stochastic(
		highs, lows, closes,
		DefaultStochasticPeriod, DefaultStochasticSmoothK, DefaultStochasticSmoothD)

	return set
}

// Cross is a moving-average crossover signal.
type Cross int

const (
	NoCross Cross = iota
	GoldenCross
	DeadCross
)

// DetectCross compares the last two positions where both averages are
// defined. A golden cross is the fast average crossing above the slow one; a
// dead cross is the reverse.
func DetectCross(fast, slow Series) Cross {
	if len(fast) != len(slow) || len(fast) < 2 {
		return NoCross
	}

	type pair struct{ fast, slow float64 }
	var last, prev *pair
	for i := len(fast) - 1; i >= 0; i-- {
		if !fast[i].Valid || !slow[i].Valid {
			continue
		}
		p := &pair{fast: fast[i].Value, slow: slow[i].Value}
		if last == nil {
			last = p
			continue
		}
		prev = p
		break
	}
	if last == nil || prev == nil {
		return NoCross
	}

	prevDiff := prev.fast - prev.slow
	currDiff := last.fast - last.slow
	switch {
	case prevDiff < 0 && currDiff > 0:
		return GoldenCross
	case prevDiff > 0 && currDiff < 0:
		return DeadCross
	default:
		return NoCross
	}
}
