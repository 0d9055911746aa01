package pricing

import "math"

// Terms are the four intermediate values shared by the call and put
// formulas. One Precompute invocation fully determines both prices.
type Terms struct {
	DiscountedSpot   float64 // market * exp(-yield*term)
	ND1              float64 // Φ(d1), in [0,1]
	DiscountedStrike float64 // strike * exp(-rate*term)
	ND2              float64 // Φ(d2), in [0,1]
}

// Precompute validates p and derives the intermediate terms of the
// Black-Scholes formula. The market value must be non-negative here;
// short positions are transformed away by the price entry points before
// validation.
//
// When volatility, term, or market is zero, or the strike is not
// positive, the Gaussian terms are undefined (log or sqrt of a
// non-positive quantity, or all probability mass at a point). In that
// regime both Φ terms collapse to the indicator of the discounted spot
// exceeding the discounted strike, which preserves the intrinsic-value
// limit without evaluating the singular formula.
func Precompute(p Params) (Terms, []Diagnostic, error) {
	vol, diags, err := validate(p)
	if err != nil {
		return Terms{}, diags, err
	}
	return terms(p, vol), diags, nil
}

// terms is the unchecked computation behind Precompute. The
// implied-volatility solver iterates on it directly so repeated calls do
// not re-emit diagnostics.
func terms(p Params, vol float64) Terms {
	t := Terms{
		DiscountedSpot:   p.Market * math.Exp(-p.Yield*p.Term),
		DiscountedStrike: p.Strike * math.Exp(-p.Rate*p.Term),
	}
	d1, d2, ok := dValues(p, vol)
	if !ok {
		// Degenerate regime: point mass at the forward.
		if t.DiscountedSpot > t.DiscountedStrike {
			t.ND1, t.ND2 = 1, 1
		}
		return t
	}
	t.ND1 = normCDF(d1)
	t.ND2 = normCDF(d2)
	return t
}

// dValues returns d1 and d2 of the standard formula, or ok=false in the
// degenerate regime where they are undefined.
func dValues(p Params, vol float64) (d1, d2 float64, ok bool) {
	if vol == 0 || p.Term == 0 || p.Market == 0 || p.Strike <= 0 {
		return 0, 0, false
	}
	scaledVol := vol * math.Sqrt(p.Term)
	d1 = (math.Log(p.Market/p.Strike) + (p.Rate-p.Yield+0.5*vol*vol)*p.Term) / scaledVol
	d2 = d1 - scaledVol
	return d1, d2, true
}
