package data

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// Provider supplies the market data the pricing tools consume: daily
// bars for the underlying, listed option expiries, and option quotes.
// Implementations may chain to a secondary provider as a fallback.
type Provider interface {
	Secondary() Provider
	GetDailyBars(underlying string, from, to time.Time) ([]Bar, error)
	GetExpiries(underlying string, from, to time.Time) ([]time.Time, error)
	GetChain(underlying string, expiry time.Time) ([]Quote, error)
	GetOptionMidPrice(underlying string, strike float64, expiry time.Time, optType string) (float64, error)
}

// Bar simplified OHLC
type Bar struct {
	Date  time.Time
	Open  float64
	High  float64
	Low   float64
	Close float64
	Vol   float64
}

// OptionContract identifies one listed option.
type OptionContract struct {
	Underlying string
	ExpiryDate time.Time
	Strike     float64
	Type       string // "call" or "put"
}

// Quote is a contract with its current market.
type Quote struct {
	Contract OptionContract
	Bid      float64
	Ask      float64
	Mid      float64
}

// DateMatchType selects how a requested date is matched against the
// available ones.
type DateMatchType string

const (
	MatchExact   DateMatchType = "exact"   // must match exactly
	MatchHigher  DateMatchType = "higher"  // next available date after target
	MatchLower   DateMatchType = "lower"   // last available date before target
	MatchNearest DateMatchType = "nearest" // closest available date (default)
)

// OptionSymbolFromParts formats an OCC-style option ticker:
// O:<root><YYMMDD><C|P><strike*1000 padded to 8 digits>.
func OptionSymbolFromParts(underlying string, expiryDate time.Time, optionType string, strike float64) string {
	expDt := expiryDate.UTC().Format("060102")
	optType := "C"
	if strings.ToLower(optionType) == "put" || strings.ToLower(optionType) == "p" {
		optType = "P"
	}
	strikeInt := int(math.Round(strike * 1000))
	return fmt.Sprintf("O:%s%s%s%s", strings.ToUpper(underlying), expDt, optType, fmt.Sprintf("%08d", strikeInt))
}

// MatchDate resolves d against dates according to mode. A zero return
// means no date qualified; callers skip those.
func MatchDate(d time.Time, dates []time.Time, mode DateMatchType) time.Time {
	var exact, lower, higher time.Time

	switch mode {
	case MatchExact, MatchHigher, MatchLower, MatchNearest:
	default:
		mode = MatchNearest
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	for _, dt := range dates {
		if dt.Equal(d) {
			exact = dt
		}
		if dt.Before(d) {
			lower = dt // keeps last date <= d
		}
		if dt.After(d) && higher.IsZero() {
			higher = dt
		}
	}

	switch mode {
	case MatchExact:
		return exact
	case MatchLower:
		return lower
	case MatchHigher:
		return higher
	case MatchNearest:
		if !exact.IsZero() {
			return exact
		}
		switch {
		case !lower.IsZero() && !higher.IsZero():
			if d.Sub(lower) <= higher.Sub(d) {
				return lower
			}
			return higher
		case !lower.IsZero():
			return lower
		case !higher.IsZero():
			return higher
		}
	}

	return time.Time{}
}

// ClosestStrike finds the strike in a sorted slice closest to target
// using binary search.
func ClosestStrike(strikes []float64, target float64) float64 {
	n := len(strikes)
	if n == 0 {
		return 0
	}

	i := sort.Search(n, func(i int) bool { return strikes[i] >= target })
	if i == 0 {
		return strikes[0]
	}
	if i == n {
		return strikes[n-1]
	}

	before, after := strikes[i-1], strikes[i]
	if math.Abs(before-target) < math.Abs(after-target) {
		return before
	}
	return after
}
