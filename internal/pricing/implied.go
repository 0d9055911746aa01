package pricing

import (
	"math"

	"github.com/contactkeval/option-pricer/internal/logger"
)

const (
	defaultMaxIterations = 100
	defaultAccuracy      = 1e-6

	// vegaFloor is the smallest derivative a Newton step may divide by.
	// Below it (deep in/out of the money, tiny term) the update is
	// numerically unstable and the solver bisects instead.
	vegaFloor = 1e-8

)

// MaxVolatility is returned when the observed price sits above the
// theoretical upper bound, where no finite volatility reproduces it.
const MaxVolatility = 1e9

// Solver performs bounded implied-volatility searches. The iteration
// budget and tolerance are carried explicitly rather than in process-wide
// state, so independently configured solvers can run concurrently.
type Solver struct {
	MaxIterations int
	Accuracy      float64
}

// NewSolver returns a Solver with the default iteration budget and
// convergence tolerance.
func NewSolver() Solver {
	return Solver{MaxIterations: defaultMaxIterations, Accuracy: defaultAccuracy}
}

// IVResult is the outcome of an implied-volatility search. A search that
// exhausts its iteration budget still returns normally; callers judge the
// fit by Residual.
type IVResult struct {
	Vol        float64 // volatility estimate
	Residual   float64 // model price at Vol minus the observed price
	Iterations int     // solver steps consumed
}

// ImpliedCall recovers the volatility at which the call formula
// reproduces the observed price, holding the other parameters of p fixed.
// p.Vol is ignored.
func (s Solver) ImpliedCall(p Params, observed float64) (IVResult, error) {
	return s.solve(true, p, observed)
}

// ImpliedPut is the put-side counterpart of ImpliedCall.
func (s Solver) ImpliedPut(p Params, observed float64) (IVResult, error) {
	return s.solve(false, p, observed)
}

// solve runs a Newton-Raphson search on the option's vega, maintained
// inside a bisection bracket so it converges even where the Newton update
// is unstable. The observed price is first clamped against the analytic
// price bounds: below the intrinsic value the answer is zero volatility,
// above the discounted spot (or strike, for puts) no finite volatility
// exists.
func (s Solver) solve(isCall bool, p Params, observed float64) (IVResult, error) {
	if p.Market < 0 && p.Strike < 0 {
		// Short underlying: solve the mirrored long with the opposite formula.
		p = shortTransform(p)
		isCall = !isCall
	}
	if p.Market <= 0 || p.Strike <= 0 || p.Term <= 0 {
		return IVResult{}, ErrBadSolverInput
	}
	maxIter := s.MaxIterations
	if maxIter <= 0 {
		maxIter = 1
	}
	acc := s.Accuracy
	if acc <= 0 {
		acc = defaultAccuracy
	}

	discSpot := p.Market * math.Exp(-p.Yield*p.Term)
	discStrike := p.Strike * math.Exp(-p.Rate*p.Term)
	lower, upper := math.Max(discSpot-discStrike, 0), discSpot
	if !isCall {
		lower, upper = math.Max(discStrike-discSpot, 0), discStrike
	}

	if observed < lower+acc {
		return IVResult{Vol: 0, Residual: lower - observed}, nil
	}
	if observed > upper-acc {
		return IVResult{Vol: MaxVolatility, Residual: upper - observed}, nil
	}

	price := func(vol float64) float64 {
		t := terms(p, vol)
		if isCall {
			return t.DiscountedSpot*t.ND1 - t.DiscountedStrike*t.ND2
		}
		return t.DiscountedSpot*(t.ND1-1) - t.DiscountedStrike*(t.ND2-1)
	}

	// Expand the upper end of the volatility bracket until it prices
	// above the observed value. The expansion shares the iteration
	// budget so the search stays bounded.
	loVol, hiVol := 0.0, math.Max(2*s.estimateStart(p, acc), 1)
	iters := 0
	for price(hiVol) < observed && iters < maxIter {
		hiVol *= 2
		iters++
	}

	sigma := s.estimateStart(p, acc)
	if sigma <= loVol || sigma >= hiVol {
		sigma = 0.5 * (loVol + hiVol)
	}
	var resid float64
	for ; iters < maxIter; iters++ {
		resid = price(sigma) - observed
		if math.Abs(resid) <= acc {
			return IVResult{Vol: sigma, Residual: resid, Iterations: iters}, nil
		}
		if resid < 0 {
			loVol = sigma
		} else {
			hiVol = sigma
		}
		next := 0.5 * (loVol + hiVol)
		if vega := formulaVega(p, sigma); vega > vegaFloor {
			if n := sigma - resid/vega; n > loVol && n < hiVol {
				next = n
			}
		}
		sigma = next
	}
	resid = price(sigma) - observed
	logger.Debugf("implied vol search exhausted %d iterations, residual %v", iters, resid)
	return IVResult{Vol: sigma, Residual: resid, Iterations: iters}, nil
}

// estimateStart seeds the search near 0.5*sqrt(2*|ln(F/K)|/T), which
// keeps the first Newton step away from the flat tails of the price
// curve. At the money the seed degrades to 0.5.
func (s Solver) estimateStart(p Params, acc float64) float64 {
	forward := p.Market * math.Exp((p.Rate-p.Yield)*p.Term)
	q := 2 * math.Abs(math.Log(forward/p.Strike)) / p.Term
	if q < acc {
		q = 1
	}
	return 0.5 * math.Sqrt(q)
}

// formulaVega is the analytic derivative of the option price with respect
// to volatility: discountedSpot * φ(d1) * sqrt(term). Identical for calls
// and puts; zero in the degenerate regime.
func formulaVega(p Params, vol float64) float64 {
	d1, _, ok := dValues(p, vol)
	if !ok {
		return 0
	}
	return p.Market * math.Exp(-p.Yield*p.Term) * normPDF(d1) * math.Sqrt(p.Term)
}

// ImpliedVolatilityCall inverts the call formula with the default solver,
// returning the volatility estimate, the remaining pricing error, and the
// iterations used.
func ImpliedVolatilityCall(market, observed, strike, term, rate, yield float64) (vol, residual float64, iterations int, err error) {
	res, err := NewSolver().ImpliedCall(Params{Market: market, Strike: strike, Term: term, Rate: rate, Yield: yield}, observed)
	return res.Vol, res.Residual, res.Iterations, err
}

// ImpliedVolatilityPut is the put-side counterpart of ImpliedVolatilityCall.
func ImpliedVolatilityPut(market, observed, strike, term, rate, yield float64) (vol, residual float64, iterations int, err error) {
	res, err := NewSolver().ImpliedPut(Params{Market: market, Strike: strike, Term: term, Rate: rate, Yield: yield}, observed)
	return res.Vol, res.Residual, res.Iterations, err
}
