package pricing

import "math"

// CallPrice returns the theoretical fair value of a European call.
//
// A negative market value denotes a short underlying: a call on a short
// equals a put on the corresponding long, so the parameters are
// transformed (market and strike negated) before any validation and the
// put formula is invoked instead. The transformed market value is
// non-negative, so the dispatch is exactly one level deep.
func CallPrice(p Params) (float64, []Diagnostic, error) {
	if p.Market < 0 {
		return PutPrice(shortTransform(p))
	}
	t, diags, err := Precompute(p)
	if err != nil {
		return 0, diags, err
	}
	return math.Max(t.DiscountedSpot*t.ND1-t.DiscountedStrike*t.ND2, 0), diags, nil
}

// PutPrice returns the theoretical fair value of a European put, with the
// same short-position handling as CallPrice.
func PutPrice(p Params) (float64, []Diagnostic, error) {
	if p.Market < 0 {
		return CallPrice(shortTransform(p))
	}
	t, diags, err := Precompute(p)
	if err != nil {
		return 0, diags, err
	}
	return math.Max(t.DiscountedSpot*(t.ND1-1)-t.DiscountedStrike*(t.ND2-1), 0), diags, nil
}

// CallPutPrices returns both prices from a single Precompute invocation.
// The put is derived from the call by put-call parity
// (put = call - discountedSpot + discountedStrike), saving the second
// Gaussian evaluation. For a short underlying the transformed pair is
// computed and swapped on return.
func CallPutPrices(p Params) (call, put float64, diags []Diagnostic, err error) {
	if p.Market < 0 {
		put, call, diags, err = CallPutPrices(shortTransform(p))
		return
	}
	t, diags, err := Precompute(p)
	if err != nil {
		return 0, 0, diags, err
	}
	call = math.Max(t.DiscountedSpot*t.ND1-t.DiscountedStrike*t.ND2, 0)
	put = math.Max(call-t.DiscountedSpot+t.DiscountedStrike, 0)
	return call, put, diags, nil
}

// shortTransform maps a position on a short underlying to the equivalent
// position on the corresponding long: market and strike are negated, all
// other parameters kept. Callers swap which formula they invoke.
func shortTransform(p Params) Params {
	p.Market = -p.Market
	p.Strike = -p.Strike
	return p
}
