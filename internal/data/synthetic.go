package data

import (
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/contactkeval/option-pricer/internal/pricing"
)

// synthDataProvider implements Provider with generated data: a random
// walk for the underlying and Black-Scholes-consistent option quotes
// around it, with a mild volatility smile. Useful for offline runs and
// tests; a fixed seed keeps runs reproducible.
type synthDataProvider struct {
	rng       *rand.Rand
	baseVol   float64
	rate      float64
	secondary Provider
}

// NewSyntheticProvider returns a synthetic provider seeded for
// reproducibility.
func NewSyntheticProvider(seed int64) Provider {
	return &synthDataProvider{
		rng:     rand.New(rand.NewSource(seed)),
		baseVol: 0.25,
		rate:    0.03,
	}
}

func (synthDataProv *synthDataProvider) Secondary() Provider {
	return synthDataProv.secondary
}

// spotFor derives a stable pseudo-spot per underlying so repeated calls
// agree with each other.
func (synthDataProv *synthDataProvider) spotFor(underlying string) float64 {
	h := 0
	for _, c := range underlying {
		h = h*31 + int(c)
	}
	return 50 + float64(h%200)
}

func (synthDataProv *synthDataProvider) GetDailyBars(underlying string, from, to time.Time) ([]Bar, error) {
	price := synthDataProv.spotFor(underlying)
	var out []Bar
	for cur := from; !cur.After(to); cur = cur.AddDate(0, 0, 1) {
		if cur.Weekday() == time.Saturday || cur.Weekday() == time.Sunday {
			continue
		}
		delta := synthDataProv.rng.NormFloat64() * synthDataProv.baseVol / math.Sqrt(252) * price
		open := price
		close := price + delta
		high := math.Max(open, close) + math.Abs(synthDataProv.rng.NormFloat64()*0.3)
		low := math.Min(open, close) - math.Abs(synthDataProv.rng.NormFloat64()*0.3)
		out = append(out, Bar{Date: cur, Open: open, High: high, Low: low, Close: close, Vol: float64(1000 + synthDataProv.rng.Intn(5000))})
		price = close
	}

	// Rescale so the series ends on the pseudo-spot; chains priced off
	// that spot then agree with the latest bar.
	if len(out) > 0 && out[len(out)-1].Close > 0 {
		scale := synthDataProv.spotFor(underlying) / out[len(out)-1].Close
		for i := range out {
			out[i].Open *= scale
			out[i].High *= scale
			out[i].Low *= scale
			out[i].Close *= scale
		}
		out[len(out)-1].Close = synthDataProv.spotFor(underlying)
	}
	return out, nil
}

// GetExpiries lists the third Friday of each month inside the range, the
// usual monthly listing cycle.
func (synthDataProv *synthDataProvider) GetExpiries(underlying string, from, to time.Time) ([]time.Time, error) {
	var out []time.Time
	cur := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC)
	for !cur.After(to) {
		exp := thirdFriday(cur.Year(), cur.Month())
		if !exp.Before(from) && !exp.After(to) {
			out = append(out, exp)
		}
		cur = cur.AddDate(0, 1, 0)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out, nil
}

// GetChain builds a chain of calls and puts on a 5%-spaced strike grid
// within ±30% of spot, priced by the model under a smile: implied vol
// rises quadratically away from the money.
func (synthDataProv *synthDataProvider) GetChain(underlying string, expiry time.Time) ([]Quote, error) {
	spot := synthDataProv.spotFor(underlying)
	term := time.Until(expiry).Hours() / 24 / 365
	if term <= 0 {
		term = 1.0 / 365
	}

	var out []Quote
	for pct := -30; pct <= 30; pct += 5 {
		strike := math.Round(spot*(1+float64(pct)/100)*100) / 100
		vol := synthDataProv.smileVol(spot, strike)
		p := pricing.Params{Market: spot, Vol: vol, Strike: strike, Term: term, Rate: synthDataProv.rate}
		call, put, _, err := pricing.CallPutPrices(p)
		if err != nil {
			return nil, err
		}
		for _, q := range []struct {
			typ string
			px  float64
		}{{"call", call}, {"put", put}} {
			spread := math.Max(q.px*0.02, 0.01)
			out = append(out, Quote{
				Contract: OptionContract{Underlying: underlying, ExpiryDate: expiry, Strike: strike, Type: q.typ},
				Bid:      math.Max(q.px-spread/2, 0),
				Ask:      q.px + spread/2,
				Mid:      q.px,
			})
		}
	}
	return out, nil
}

func (synthDataProv *synthDataProvider) GetOptionMidPrice(underlying string, strike float64, expiry time.Time, optType string) (float64, error) {
	spot := synthDataProv.spotFor(underlying)
	term := time.Until(expiry).Hours() / 24 / 365
	if term <= 0 {
		term = 1.0 / 365
	}
	p := pricing.Params{Market: spot, Vol: synthDataProv.smileVol(spot, strike), Strike: strike, Term: term, Rate: synthDataProv.rate}
	if optType == "put" || optType == "p" {
		px, _, err := pricing.PutPrice(p)
		return px, err
	}
	px, _, err := pricing.CallPrice(p)
	return px, err
}

// smileVol bends the base volatility up away from the money.
func (synthDataProv *synthDataProvider) smileVol(spot, strike float64) float64 {
	m := math.Log(strike / spot)
	return synthDataProv.baseVol + 0.4*m*m
}

func thirdFriday(year int, month time.Month) time.Time {
	d := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	fridays := 0
	for {
		if d.Weekday() == time.Friday {
			fridays++
			if fridays == 3 {
				return d
			}
		}
		d = d.AddDate(0, 0, 1)
	}
}
