package pricing

import "math"

// tradingDaysPerYear annualizes daily close-to-close returns.
const tradingDaysPerYear = 252.0

// AnnualizedVolatility estimates historical volatility from a series of
// daily closes, ordered oldest to newest, as the sample standard
// deviation of log returns scaled to one year. With fewer than two
// closes there is nothing to estimate and a 30% placeholder is returned.
func AnnualizedVolatility(closes []float64) float64 {
	if len(closes) < 2 {
		return 0.30
	}
	rets := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		rets = append(rets, math.Log(closes[i]/closes[i-1]))
	}
	mean := 0.0
	for _, v := range rets {
		mean += v
	}
	mean /= float64(len(rets))
	if len(rets) < 2 {
		return 0.30
	}
	sd := 0.0
	for _, v := range rets {
		sd += (v - mean) * (v - mean)
	}
	sd = math.Sqrt(sd / float64(len(rets)-1))
	return sd * math.Sqrt(tradingDaysPerYear)
}
