package pricing

import "math"

// Greeks are the price sensitivities of a European option. Theta is per
// calendar day; Vega and Rho are quoted per one percentage point move in
// volatility and rate respectively, following market convention.
type Greeks struct {
	Delta float64
	Gamma float64
	Vega  float64
	Theta float64
	Rho   float64
}

// CallGreeks computes the sensitivities of a call, with the same
// validation taxonomy and short-position transform as CallPrice. In the
// degenerate regime (zero volatility, term, or market, or non-positive
// strike) all greeks are zero rather than NaN.
func CallGreeks(p Params) (Greeks, []Diagnostic, error) {
	if p.Market < 0 {
		return PutGreeks(shortTransform(p))
	}
	vol, diags, err := validate(p)
	if err != nil {
		return Greeks{}, diags, err
	}
	return greeks(true, p, vol), diags, nil
}

// PutGreeks is the put-side counterpart of CallGreeks.
func PutGreeks(p Params) (Greeks, []Diagnostic, error) {
	if p.Market < 0 {
		return CallGreeks(shortTransform(p))
	}
	vol, diags, err := validate(p)
	if err != nil {
		return Greeks{}, diags, err
	}
	return greeks(false, p, vol), diags, nil
}

func greeks(isCall bool, p Params, vol float64) Greeks {
	d1, d2, ok := dValues(p, vol)
	if !ok {
		return Greeks{}
	}
	var (
		g        Greeks
		sqrtTerm = math.Sqrt(p.Term)
		spotDisc = math.Exp(-p.Yield * p.Term)
		strkDisc = math.Exp(-p.Rate * p.Term)
		pdfD1    = normPDF(d1)
	)

	if isCall {
		g.Delta = spotDisc * normCDF(d1)
		g.Rho = p.Strike * p.Term * strkDisc * normCDF(d2) / 100
	} else {
		g.Delta = spotDisc * (normCDF(d1) - 1)
		g.Rho = -p.Strike * p.Term * strkDisc * normCDF(-d2) / 100
	}

	g.Gamma = spotDisc * pdfD1 / (p.Market * vol * sqrtTerm)
	g.Vega = p.Market * spotDisc * pdfD1 * sqrtTerm / 100

	// Theta per calendar day.
	decay := -p.Market * vol * spotDisc * pdfD1 / (2 * sqrtTerm)
	if isCall {
		g.Theta = (decay - p.Rate*p.Strike*strkDisc*normCDF(d2) + p.Yield*p.Market*spotDisc*normCDF(d1)) / 365
	} else {
		g.Theta = (decay + p.Rate*p.Strike*strkDisc*normCDF(-d2) - p.Yield*p.Market*spotDisc*normCDF(-d1)) / 365
	}
	return g
}
