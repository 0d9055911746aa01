package pricing

import "gonum.org/v1/gonum/stat/distuv"

// stdNormal is the standard normal distribution used for Φ and φ.
// The pricing formulas treat it as an opaque numeric primitive; nothing
// in this package evaluates the Gaussian itself.
var stdNormal = distuv.UnitNormal

// normCDF returns Φ(x), the standard normal cumulative distribution.
func normCDF(x float64) float64 {
	return stdNormal.CDF(x)
}

// normPDF returns φ(x), the standard normal density. Used by the vega
// term in the implied-volatility search and by the greeks.
func normPDF(x float64) float64 {
	return stdNormal.Prob(x)
}
