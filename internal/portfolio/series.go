package portfolio

import "math"

// SyntheticWeekSeries reconstructs an 8-point daily price path from the
// current price and the 7-day percent change, assuming a constant daily
// compounding rate r with (1+r)^7 = 1 + pct/100. The result is ordered
// oldest first with the current price last.
//
// This is a smooth proxy for the true week, not a recovery of actual
// volatility; identical inputs always yield the identical series.
func SyntheticWeekSeries(currentPrice, percentChange7d float64) []float64 {
	dailyRate := math.Pow(1+percentChange7d/100, 1.0/7) - 1

	prices := make([]float64, 8)
	prices[7] = currentPrice
	for i := 7; i > 0; i-- {
		prices[i-1] = prices[i] / (1 + dailyRate)
	}
	return prices
}

// periodReturns yields the percentage change between consecutive points.
// The first point has no predecessor and is dropped; a zero predecessor
// cannot produce a finite return and is skipped.
func periodReturns(series []float64) []float64 {
	if len(series) < 2 {
		return nil
	}
	out := make([]float64, 0, len(series)-1)
	for i := 1; i < len(series); i++ {
		prev := series[i-1]
		if prev == 0 {
			continue
		}
		out = append(out, (series[i]-prev)/prev)
	}
	return out
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stddev is the sample standard deviation (n-1 denominator); 0 when fewer
// than two values exist.
func stddev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	var sum float64
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)-1))
}
