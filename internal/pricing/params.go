// Package pricing implements closed-form Black-Scholes valuation of
// European options and the inverse problem of recovering implied
// volatility from an observed market price.
//
// All entry points are pure functions of their inputs: there is no shared
// mutable state, so concurrent use needs no locking. Fatal input errors
// (negative remaining term, negative market value after the short
// transform) abort the single call; merely suspicious inputs (negative
// strike, rate, or yield, sign-flipped volatility) are reported as
// Diagnostic codes alongside the result and mirrored to the logger's Warn
// channel.
package pricing

import (
	"errors"

	"github.com/contactkeval/option-pricer/internal/logger"
)

// Params holds the six Black-Scholes model inputs for one valuation.
// Values are plain annualized decimals (0.25 = 25%), term in years.
type Params struct {
	Market float64 // underlying market value; negative denotes a short position
	Vol    float64 // annualized volatility of the log-price
	Strike float64 // strike price
	Term   float64 // remaining term in years, must be >= 0
	Rate   float64 // annualized continuously-compounded risk-free rate
	Yield  float64 // annualized continuous dividend yield
}

// Diagnostic identifies a suspicious input that the computation tolerated.
type Diagnostic string

const (
	// DiagVolSignCorrected: volatility was negative and its absolute
	// value was used instead. The model has no notion of negative
	// volatility; a sign typo is the likely cause.
	DiagVolSignCorrected Diagnostic = "volatility_sign_corrected"
	// DiagNegativeStrike: strike was negative and used as given.
	DiagNegativeStrike Diagnostic = "negative_strike"
	// DiagNegativeRate: interest rate was negative and used as given.
	DiagNegativeRate Diagnostic = "negative_rate"
	// DiagNegativeYield: dividend yield was negative and used as given.
	DiagNegativeYield Diagnostic = "negative_yield"
)

var (
	// ErrNegativeMarket reports a negative market value reaching the
	// precompute stage. Entry points remove short positions before
	// validation, so seeing this means Precompute was called directly
	// with a short.
	ErrNegativeMarket = errors.New("pricing: negative market value")

	// ErrNegativeTerm reports a negative remaining term. There is no
	// meaningful option with negative time to expiry.
	ErrNegativeTerm = errors.New("pricing: negative remaining term")

	// ErrBadSolverInput reports implied-volatility preconditions not met:
	// the search needs market*strike > 0 and term > 0 for the price to be
	// smooth and monotonic in volatility.
	ErrBadSolverInput = errors.New("pricing: implied volatility requires positive market*strike and positive term")
)

// validate applies the input taxonomy to p and returns the sign-corrected
// volatility together with any diagnostics. Fatal conditions short-circuit.
func validate(p Params) (vol float64, diags []Diagnostic, err error) {
	if p.Market < 0 {
		return 0, nil, ErrNegativeMarket
	}
	if p.Term < 0 {
		return 0, nil, ErrNegativeTerm
	}
	vol = p.Vol
	if vol < 0 {
		vol = -vol
		diags = append(diags, DiagVolSignCorrected)
		logger.Warnf("negative volatility %v corrected to %v", p.Vol, vol)
	}
	if p.Strike < 0 {
		diags = append(diags, DiagNegativeStrike)
		logger.Warnf("negative strike %v used as given", p.Strike)
	}
	if p.Rate < 0 {
		diags = append(diags, DiagNegativeRate)
		logger.Warnf("negative interest rate %v used as given", p.Rate)
	}
	if p.Yield < 0 {
		diags = append(diags, DiagNegativeYield)
		logger.Warnf("negative dividend yield %v used as given", p.Yield)
	}
	return vol, diags, nil
}
