// Package surface turns option-chain quotes into an implied-volatility
// surface by inverting the pricing model quote by quote.
package surface

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/contactkeval/option-pricer/internal/data"
	"github.com/contactkeval/option-pricer/internal/logger"
	"github.com/contactkeval/option-pricer/internal/pricing"
)

type Builder struct {
	cfg    *Config
	prov   data.Provider
	solver pricing.Solver
}

// Config struct
type Config struct {
	Underlying    string  `json:"underlying"`               // e.g. "AAPL"
	ExpiryMonths  int     `json:"expiry_months,omitempty"`  // how far out to collect expiries, default 6
	Rate          float64 `json:"rate,omitempty"`           // continuously compounded risk-free rate
	Yield         float64 `json:"yield,omitempty"`          // continuous dividend yield
	MaxIterations int     `json:"max_iterations,omitempty"` // solver iteration budget, 0 = default
	Accuracy      float64 `json:"accuracy,omitempty"`       // solver price tolerance, 0 = default
	LookbackDays  int     `json:"lookback_days,omitempty"`  // bars used for the historical-vol fallback, default 60
	OutputDir     string  `json:"output_dir,omitempty"`     // output directory
	Verbosity     int     `json:"verbosity,omitempty"`      // 0=errors,1=warn,2=info,3=debug,4=trace
}

// Point is one solved quote on the surface.
type Point struct {
	Expiry     time.Time `json:"expiry"`
	Strike     float64   `json:"strike"`
	Type       string    `json:"type"` // "call" or "put"
	Mid        float64   `json:"mid"`
	Vol        float64   `json:"vol"`
	Residual   float64   `json:"residual"`
	Iterations int       `json:"iterations"`
	Converged  bool      `json:"converged"`
}

// Surface is the full build output for one underlying as of one moment.
type Surface struct {
	Underlying string    `json:"underlying"`
	AsOf       time.Time `json:"as_of"`
	Spot       float64   `json:"spot"`
	HistVol    float64   `json:"hist_vol"`
	Points     []Point   `json:"points"`
}

func NewBuilder(cfg *Config, prov data.Provider) *Builder {
	solver := pricing.NewSolver()
	if cfg.MaxIterations > 0 {
		solver.MaxIterations = cfg.MaxIterations
	}
	if cfg.Accuracy > 0 {
		solver.Accuracy = cfg.Accuracy
	}
	return &Builder{cfg: cfg, prov: prov, solver: solver}
}

// Build fetches recent bars and the listed chains, then inverts every
// usable quote. Quotes outside the arbitrage bounds keep their slot but
// carry the historical-vol fallback and Converged=false, so downstream
// consumers can see what was skipped and why.
func (b *Builder) Build(asOf time.Time) (*Surface, error) {
	cfg := b.cfg
	if cfg.ExpiryMonths <= 0 {
		cfg.ExpiryMonths = 6
	}
	if cfg.LookbackDays <= 0 {
		cfg.LookbackDays = 60
	}
	if cfg.Verbosity < 0 || cfg.Verbosity > 4 {
		cfg.Verbosity = 2
	}
	logger.SetVerbosity(cfg.Verbosity)

	bars, err := b.prov.GetDailyBars(cfg.Underlying, asOf.AddDate(0, 0, -cfg.LookbackDays), asOf)
	if err != nil {
		return nil, fmt.Errorf("surface builder: get daily bars error, %w", err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("surface builder: no bars for %s", cfg.Underlying)
	}
	spot := bars[len(bars)-1].Close

	closes := make([]float64, len(bars))
	for i, bar := range bars {
		closes[i] = bar.Close
	}
	hv := pricing.AnnualizedVolatility(closes)
	logger.Infof("spot %.2f, hist vol = %.2f%%", spot, hv*100)

	expiries, err := b.prov.GetExpiries(cfg.Underlying, asOf, asOf.AddDate(0, cfg.ExpiryMonths, 0))
	if err != nil {
		return nil, fmt.Errorf("surface builder: get expiries error, %w", err)
	}
	if len(expiries) == 0 {
		return nil, fmt.Errorf("surface builder: no expiries for %s", cfg.Underlying)
	}

	surf := &Surface{Underlying: cfg.Underlying, AsOf: asOf, Spot: spot, HistVol: hv}
	for _, expiry := range expiries {
		quotes, err := b.prov.GetChain(cfg.Underlying, expiry)
		if err != nil {
			logger.Warnf("chain %s %s: %v", cfg.Underlying, expiry.Format("2006-01-02"), err)
			continue
		}
		term := expiry.Sub(asOf).Hours() / 24 / 365
		if term <= 0 {
			continue
		}
		for _, q := range quotes {
			if q.Mid <= 0 {
				continue
			}
			surf.Points = append(surf.Points, b.solveQuote(q, spot, term, hv))
		}
	}

	sort.Slice(surf.Points, func(i, j int) bool {
		a, c := surf.Points[i], surf.Points[j]
		if !a.Expiry.Equal(c.Expiry) {
			return a.Expiry.Before(c.Expiry)
		}
		if a.Strike != c.Strike {
			return a.Strike < c.Strike
		}
		return a.Type < c.Type
	})

	logger.Infof("%d surface points across %d expiries", len(surf.Points), len(expiries))
	return surf, nil
}

// solveQuote inverts one quote. Non-convergence is not an error: the
// point records the fallback vol and the residual the solver left.
func (b *Builder) solveQuote(q data.Quote, spot, term, hv float64) Point {
	p := pricing.Params{Market: spot, Strike: q.Contract.Strike, Term: term, Rate: b.cfg.Rate, Yield: b.cfg.Yield}

	var res pricing.IVResult
	var err error
	if strings.ToLower(q.Contract.Type) == "put" {
		res, err = b.solver.ImpliedPut(p, q.Mid)
	} else {
		res, err = b.solver.ImpliedCall(p, q.Mid)
	}

	pt := Point{
		Expiry: q.Contract.ExpiryDate,
		Strike: q.Contract.Strike,
		Type:   strings.ToLower(q.Contract.Type),
		Mid:    q.Mid,
	}
	if err != nil {
		logger.Debugf("quote %s %.2f: %v", pt.Type, pt.Strike, err)
		pt.Vol = hv
		return pt
	}

	acc := b.solver.Accuracy
	pt.Vol, pt.Residual, pt.Iterations = res.Vol, res.Residual, res.Iterations
	pt.Converged = math.Abs(res.Residual) <= acc && res.Vol > 0 && res.Vol < pricing.MaxVolatility
	if !pt.Converged {
		logger.Debugf("quote %s %.2f outside bounds or unconverged (vol %v, residual %v), using hist vol",
			pt.Type, pt.Strike, res.Vol, res.Residual)
		pt.Vol = hv
	}
	return pt
}
