package pricing

import (
	"math"
	"testing"
)

func approx(t *testing.T, got, want, tol float64, msg string) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Fatalf("%s: got %v want %v (tol %v)", msg, got, want, tol)
	}
}

// Reference vector: market=10 sigma=0.4 strike=10 term=1 rate=0.03 yield=0.01.
func TestReferencePrices(t *testing.T) {
	p := Params{Market: 10, Vol: 0.4, Strike: 10, Term: 1, Rate: 0.03, Yield: 0.01}

	call, diags, err := CallPrice(p)
	if err != nil {
		t.Fatalf("call price: %v", err)
	}
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	approx(t, call, 1.65382, 1e-4, "call")

	put, _, err := PutPrice(p)
	if err != nil {
		t.Fatalf("put price: %v", err)
	}
	approx(t, put, 1.45777, 1e-4, "put")
}

func TestCallPutPricesConsistent(t *testing.T) {
	cases := []Params{
		{Market: 10, Vol: 0.4, Strike: 10, Term: 1, Rate: 0.03, Yield: 0.01},
		{Market: 100, Vol: 0.2, Strike: 90, Term: 0.5, Rate: 0.05},
		{Market: 50, Vol: 0.8, Strike: 80, Term: 2, Rate: 0.01, Yield: 0.02},
		{Market: 10, Vol: 0.4, Strike: 10, Term: 0, Rate: 0.03},
		{Market: 10, Vol: 0, Strike: 8, Term: 1, Rate: 0.03},
	}
	for _, p := range cases {
		call, _, err := CallPrice(p)
		if err != nil {
			t.Fatalf("call: %v", err)
		}
		put, _, err := PutPrice(p)
		if err != nil {
			t.Fatalf("put: %v", err)
		}
		bothCall, bothPut, _, err := CallPutPrices(p)
		if err != nil {
			t.Fatalf("both: %v", err)
		}
		approx(t, bothCall, call, 1e-9, "combined call")
		approx(t, bothPut, put, 1e-9, "combined put")
		if call < 0 || put < 0 {
			t.Fatalf("negative price: call=%v put=%v for %+v", call, put, p)
		}
	}
}

func TestPutCallParity(t *testing.T) {
	p := Params{Market: 120, Vol: 0.35, Strike: 100, Term: 0.75, Rate: 0.04, Yield: 0.015}
	call, _, _ := CallPrice(p)
	put, _, _ := PutPrice(p)
	terms, _, err := Precompute(p)
	if err != nil {
		t.Fatalf("precompute: %v", err)
	}
	approx(t, call-put, terms.DiscountedSpot-terms.DiscountedStrike, 1e-9, "parity")
}

func TestPositiveHomogeneity(t *testing.T) {
	p := Params{Market: 10, Vol: 0.4, Strike: 12, Term: 1, Rate: 0.03, Yield: 0.01}
	base, _, _ := CallPrice(p)
	for _, k := range []float64{2, 7.5, 1000} {
		scaled := p
		scaled.Market *= k
		scaled.Strike *= k
		got, _, _ := CallPrice(scaled)
		approx(t, got, k*base, 1e-9*k, "homogeneity")
	}
}

// Volatility and term trade off as sigma^2*term; rate and yield scale
// inversely with term.
func TestTimeScalingInvariance(t *testing.T) {
	p := Params{Market: 10, Vol: 0.4, Strike: 11, Term: 1, Rate: 0.03, Yield: 0.01}
	put, _, _ := PutPrice(p)
	scaled := Params{
		Market: p.Market,
		Vol:    p.Vol / math.Sqrt(10),
		Strike: p.Strike,
		Term:   10 * p.Term,
		Rate:   p.Rate / 10,
		Yield:  p.Yield / 10,
	}
	scaledPut, _, _ := PutPrice(scaled)
	approx(t, scaledPut, put, 1e-9, "time scaling")
}

func TestShortSymmetry(t *testing.T) {
	p := Params{Market: 10, Vol: 0.4, Strike: 10, Term: 1, Rate: 0.03, Yield: 0.01}
	short := Params{Market: -10, Vol: 0.4, Strike: -10, Term: 1, Rate: 0.03, Yield: 0.01}

	call, _, _ := CallPrice(p)
	put, _, _ := PutPrice(p)

	shortCall, _, err := CallPrice(short)
	if err != nil {
		t.Fatalf("short call: %v", err)
	}
	approx(t, shortCall, put, 1e-12, "call(-m,-k) == put(m,k)")

	shortPut, _, err := PutPrice(short)
	if err != nil {
		t.Fatalf("short put: %v", err)
	}
	approx(t, shortPut, call, 1e-12, "put(-m,-k) == call(m,k)")

	bc, bp, _, err := CallPutPrices(short)
	if err != nil {
		t.Fatalf("short both: %v", err)
	}
	approx(t, bc, put, 1e-12, "combined short call")
	approx(t, bp, call, 1e-12, "combined short put")
}

func TestNegativeTermFatal(t *testing.T) {
	p := Params{Market: 10, Vol: 0.4, Strike: 10, Term: -0.1, Rate: 0.03}
	if _, _, err := CallPrice(p); err != ErrNegativeTerm {
		t.Fatalf("call: want ErrNegativeTerm, got %v", err)
	}
	if _, _, err := PutPrice(p); err != ErrNegativeTerm {
		t.Fatalf("put: want ErrNegativeTerm, got %v", err)
	}
	if _, _, _, err := CallPutPrices(p); err != ErrNegativeTerm {
		t.Fatalf("both: want ErrNegativeTerm, got %v", err)
	}
}

func TestNegativeMarketFatalInPrecompute(t *testing.T) {
	// The price entry points transform shorts away, but a direct
	// Precompute call must refuse a negative market value.
	if _, _, err := Precompute(Params{Market: -1, Vol: 0.2, Strike: 10, Term: 1}); err != ErrNegativeMarket {
		t.Fatalf("want ErrNegativeMarket, got %v", err)
	}
}

func TestDiagnosticsOnSuspiciousInput(t *testing.T) {
	hasDiag := func(ds []Diagnostic, want Diagnostic) bool {
		for _, d := range ds {
			if d == want {
				return true
			}
		}
		return false
	}

	// Negative volatility is sign-corrected: same price as positive vol.
	p := Params{Market: 10, Vol: -0.4, Strike: 10, Term: 1, Rate: 0.03}
	got, diags, err := CallPrice(p)
	if err != nil {
		t.Fatalf("negative vol: %v", err)
	}
	if !hasDiag(diags, DiagVolSignCorrected) {
		t.Fatalf("missing vol diagnostic, got %v", diags)
	}
	p.Vol = 0.4
	want, _, _ := CallPrice(p)
	approx(t, got, want, 0, "sign-corrected vol price")

	// Negative strike, rate, and yield proceed with a diagnostic each.
	p = Params{Market: 10, Vol: 0.4, Strike: -10, Term: 1, Rate: -0.03, Yield: -0.01}
	_, diags, err = PutPrice(p)
	if err != nil {
		t.Fatalf("suspicious inputs: %v", err)
	}
	for _, want := range []Diagnostic{DiagNegativeStrike, DiagNegativeRate, DiagNegativeYield} {
		if !hasDiag(diags, want) {
			t.Fatalf("missing diagnostic %v, got %v", want, diags)
		}
	}
}

func TestDegenerateCasesReturnIntrinsic(t *testing.T) {
	// Zero volatility: forward intrinsic value.
	p := Params{Market: 10, Vol: 0, Strike: 8, Term: 1, Rate: 0.05}
	call, _, _ := CallPrice(p)
	discStrike := 8 * math.Exp(-0.05)
	approx(t, call, 10-discStrike, 1e-12, "zero vol call")

	// Zero term: immediate exercise value.
	p = Params{Market: 7, Vol: 0.4, Strike: 10, Term: 0, Rate: 0.05}
	call, _, _ = CallPrice(p)
	approx(t, call, 0, 0, "zero term OTM call")
	put, _, _ := PutPrice(p)
	approx(t, put, 3, 1e-12, "zero term ITM put")

	// Zero market: call worthless, put worth the discounted strike.
	p = Params{Market: 0, Vol: 0.4, Strike: 10, Term: 1, Rate: 0.05}
	call, _, _ = CallPrice(p)
	approx(t, call, 0, 0, "zero market call")
	put, _, _ = PutPrice(p)
	approx(t, put, 10*math.Exp(-0.05), 1e-12, "zero market put")
}

func TestPrecomputedTermsRanges(t *testing.T) {
	p := Params{Market: 10, Vol: 0.4, Strike: 10, Term: 1, Rate: 0.03, Yield: 0.01}
	terms, _, err := Precompute(p)
	if err != nil {
		t.Fatalf("precompute: %v", err)
	}
	if terms.DiscountedSpot < 0 {
		t.Fatalf("negative discounted spot %v", terms.DiscountedSpot)
	}
	if terms.ND1 < 0 || terms.ND1 > 1 || terms.ND2 < 0 || terms.ND2 > 1 {
		t.Fatalf("Phi terms outside [0,1]: %v %v", terms.ND1, terms.ND2)
	}
	approx(t, terms.DiscountedSpot, 10*math.Exp(-0.01), 1e-12, "discounted spot")
	approx(t, terms.DiscountedStrike, 10*math.Exp(-0.03), 1e-12, "discounted strike")
}
