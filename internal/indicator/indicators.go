package indicator

// Default indicator parameters. These mirror the parameters the chart overlay
// and alert modules consume.
const (
	DefaultShortMAWindow = 9
	DefaultLongMAWindow  = 22

	DefaultRSIPeriod = 14

	DefaultMACDFast   = 12
	DefaultMACDSlow   = 26
	DefaultMACDSignal = 9

	DefaultBollingerPeriod = 20
	DefaultBollingerWidth  = 2.0

	DefaultStochasticPeriod  = 14
	DefaultStochasticSmoothK = 3
	DefaultStochasticSmoothD = 3
)

// MovingAverage computes the trailing simple moving average of closes.
// The first window-1 positions are invalid.
func MovingAverage(closes []float64, window int) Series {
	return rollingMean(closes, window)
}

// RSI computes the Relative Strength Index over a simple rolling mean of
// gains and losses (not Wilder smoothing). The first delta exists at index 1,
// so RSI is defined from index period onward.
//
// Zero-division convention: a gains-only window (avgLoss == 0) reports 100;
// a completely flat window (avgGain == 0 as well) reports the neutral 50.
func RSI(closes []float64, period int) Series {
	out := make(Series, len(closes))
	if period <= 0 || len(closes) <= period {
		return out
	}

	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains[i] = delta
		} else {
			losses[i] = -delta
		}
	}

	var gainSum, lossSum float64
	for i := 1; i < len(closes); i++ {
		gainSum += gains[i]
		lossSum += losses[i]
		if i > period {
			gainSum -= gains[i-period]
			lossSum -= losses[i-period]
		}
		if i < period {
			continue
		}

		avgGain := gainSum / float64(period)
		avgLoss := lossSum / float64(period)

		switch {
		case avgLoss == 0 && avgGain == 0:
			out[i] = valid(50)
		case avgLoss == 0:
			out[i] = valid(100)
		default:
			rs := avgGain / avgLoss
			out[i] = valid(100 - 100/(1+rs))
		}
	}
	return out
}

// EMA computes the exponential moving average with α = 2/(span+1), seeded
// from the first observation. Every position is defined.
func EMA(values []float64, span int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 || span <= 0 {
		return out
	}

	alpha := 2.0 / (float64(span) + 1.0)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// MACD computes the MACD line (EMA fast − EMA slow), its signal line
// (EMA of the MACD line), and the histogram (line − signal).
func MACD(closes []float64, fast, slow, signal int) (line, signalLine, histogram Series) {
	line = make(Series, len(closes))
	signalLine = make(Series, len(closes))
	histogram = make(Series, len(closes))
	if len(closes) == 0 {
		return line, signalLine, histogram
	}

	emaFast := EMA(closes, fast)
	emaSlow := EMA(closes, slow)

	macd := make([]float64, len(closes))
	for i := range closes {
		macd[i] = emaFast[i] - emaSlow[i]
	}
	sig := EMA(macd, signal)

	for i := range closes {
		line[i] = valid(macd[i])
		signalLine[i] = valid(sig[i])
		histogram[i] = valid(macd[i] - sig[i])
	}
	return line, signalLine, histogram
}

// BollingerBands computes the middle band (rolling mean) and upper/lower
// bands at ±width sample standard deviations.
func BollingerBands(closes []float64, period int, width float64) (upper, middle, lower Series) {
	middle = rollingMean(closes, period)
	std := rollingStdDev(closes, period)

	upper = make(Series, len(closes))
	lower = make(Series, len(closes))
	for i := range closes {
		if !middle[i].Valid || !std[i].Valid {
			continue
		}
		half := width * std[i].Value
		upper[i] = valid(middle[i].Value + half)
		lower[i] = valid(middle[i].Value - half)
	}
	return upper, middle, lower
}

// Stochastic computes the %K and %D oscillator. Raw %K is undefined at
// positions where the rolling high-low range is zero (flat market);
// smoothing windows that include an undefined raw value stay undefined.
func Stochastic(highs, lows, closes []float64, period, smoothK, smoothD int) (k, d Series) {
	raw := make(Series, len(closes))
	lowest := rollingMin(lows, period)
	highest := rollingMax(highs, period)

	for i := range closes {
		if !lowest[i].Valid || !highest[i].Valid {
			continue
		}
		rng := highest[i].Value - lowest[i].Value
		if rng == 0 {
			continue
		}
		raw[i] = valid(100 * (closes[i] - lowest[i].Value) / rng)
	}

	k = rollingMeanPoints(raw, smoothK)
	d = rollingMeanPoints(k, smoothD)
	return k, d
}
