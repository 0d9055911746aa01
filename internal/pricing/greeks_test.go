package pricing

import (
	"math"
	"testing"
)

func TestGreeksSanity(t *testing.T) {
	p := Params{Market: 10, Vol: 0.4, Strike: 10, Term: 1, Rate: 0.03, Yield: 0.01}

	cg, _, err := CallGreeks(p)
	if err != nil {
		t.Fatalf("call greeks: %v", err)
	}
	if cg.Delta <= 0 || cg.Delta >= 1 {
		t.Fatalf("call delta %v outside (0,1)", cg.Delta)
	}
	if cg.Gamma <= 0 || cg.Vega <= 0 {
		t.Fatalf("gamma %v / vega %v should be positive", cg.Gamma, cg.Vega)
	}
	if cg.Theta >= 0 {
		t.Fatalf("ATM call theta %v should be negative", cg.Theta)
	}
	if cg.Rho <= 0 {
		t.Fatalf("call rho %v should be positive", cg.Rho)
	}

	pg, _, err := PutGreeks(p)
	if err != nil {
		t.Fatalf("put greeks: %v", err)
	}
	if pg.Delta >= 0 || pg.Delta <= -1 {
		t.Fatalf("put delta %v outside (-1,0)", pg.Delta)
	}
	if pg.Rho >= 0 {
		t.Fatalf("put rho %v should be negative", pg.Rho)
	}

	// Gamma and vega are identical for calls and puts.
	approx(t, cg.Gamma, pg.Gamma, 1e-12, "gamma parity")
	approx(t, cg.Vega, pg.Vega, 1e-12, "vega parity")
}

func TestDeltaMatchesFiniteDifference(t *testing.T) {
	p := Params{Market: 10, Vol: 0.4, Strike: 9, Term: 0.5, Rate: 0.03, Yield: 0.01}
	h := 1e-6
	up, _, _ := CallPrice(Params{Market: p.Market + h, Vol: p.Vol, Strike: p.Strike, Term: p.Term, Rate: p.Rate, Yield: p.Yield})
	dn, _, _ := CallPrice(Params{Market: p.Market - h, Vol: p.Vol, Strike: p.Strike, Term: p.Term, Rate: p.Rate, Yield: p.Yield})
	fd := (up - dn) / (2 * h)
	g, _, _ := CallGreeks(p)
	if math.Abs(g.Delta-fd) > 1e-6 {
		t.Fatalf("delta %v vs finite difference %v", g.Delta, fd)
	}
}

func TestGreeksDegenerateInputs(t *testing.T) {
	for _, p := range []Params{
		{Market: 10, Vol: 0, Strike: 10, Term: 1},
		{Market: 10, Vol: 0.4, Strike: 10, Term: 0},
		{Market: 0, Vol: 0.4, Strike: 10, Term: 1},
	} {
		g, _, err := CallGreeks(p)
		if err != nil {
			t.Fatalf("degenerate greeks: %v", err)
		}
		if g != (Greeks{}) {
			t.Fatalf("want zero greeks for %+v, got %+v", p, g)
		}
	}
}

func TestGreeksNegativeTermFatal(t *testing.T) {
	if _, _, err := CallGreeks(Params{Market: 10, Vol: 0.4, Strike: 10, Term: -1}); err != ErrNegativeTerm {
		t.Fatalf("want ErrNegativeTerm, got %v", err)
	}
}

func TestAnnualizedVolatility(t *testing.T) {
	if v := AnnualizedVolatility(nil); v != 0.30 {
		t.Fatalf("fallback vol: %v", v)
	}
	if v := AnnualizedVolatility([]float64{100}); v != 0.30 {
		t.Fatalf("single close fallback: %v", v)
	}
	// Constant series has zero realized volatility.
	if v := AnnualizedVolatility([]float64{100, 100, 100, 100}); v != 0 {
		t.Fatalf("constant series vol: %v", v)
	}
	// Alternating +1%/-1% daily moves land near 10*sqrt(252)% annualized.
	closes := []float64{100}
	for i := 0; i < 40; i++ {
		if i%2 == 0 {
			closes = append(closes, closes[len(closes)-1]*1.01)
		} else {
			closes = append(closes, closes[len(closes)-1]*0.99)
		}
	}
	v := AnnualizedVolatility(closes)
	if v <= 0.10 || v >= 0.20 {
		t.Fatalf("alternating series vol %v out of expected range", v)
	}
}
