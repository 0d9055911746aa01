// Package data provides market data provider implementations.
//
// This file contains a Massive-backed Provider implementation that
// retrieves daily bars, option expiries, option chains, and option quotes
// via Massive HTTP APIs.
//
// Design notes:
//   - Raw HTTP calls with pagination and rate-limiting retries
//   - Responses follow the Massive/Polygon aggregate and snapshot models
//   - Logging is intentionally verbose at Debug/Trace levels
package data

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/contactkeval/option-pricer/internal/logger"
)

// massiveDataProvider implements the Provider interface using Massive APIs.
type massiveDataProvider struct {
	// APIKey used for authenticating requests with Massive.
	APIKey string

	// Client is the HTTP client used to make API requests.
	Client *http.Client

	// BaseURL is the root endpoint for Massive APIs
	// (e.g., https://api.massive.com).
	BaseURL string

	// secondary is an optional fallback provider.
	secondary Provider
}

// massiveContract represents a single option contract returned by
// Massive's contracts reference endpoint.
type massiveContract struct {
	ContractType     string  `json:"contract_type"`
	ExerciseStyle    string  `json:"exercise_style"`
	ExpiryDate       string  `json:"expiration_date"`
	StrikePrice      float64 `json:"strike_price"`
	Ticker           string  `json:"ticker"`
	UnderlyingTicker string  `json:"underlying_ticker"`
}

// massiveContractsResp models the paginated contracts response.
type massiveContractsResp struct {
	Results   []massiveContract `json:"results"`
	Status    string            `json:"status"`
	RequestID string            `json:"request_id"`
	NextURL   string            `json:"next_url"`
}

// massiveSnapshotResp models the option-chain snapshot response: contract
// details plus the latest quote per contract.
type massiveSnapshotResp struct {
	Results []struct {
		Details struct {
			ContractType string  `json:"contract_type"`
			ExpiryDate   string  `json:"expiration_date"`
			StrikePrice  float64 `json:"strike_price"`
			Ticker       string  `json:"ticker"`
		} `json:"details"`
		LastQuote struct {
			Bid      float64 `json:"bid"`
			Ask      float64 `json:"ask"`
			Midpoint float64 `json:"midpoint"`
		} `json:"last_quote"`
		Day struct {
			Close float64 `json:"close"`
		} `json:"day"`
	} `json:"results"`
	Status  string `json:"status"`
	NextURL string `json:"next_url"`
}

// NewMassiveDataProvider constructs a Massive-backed data provider with an
// HTTP client tuned for pooled, gzip-enabled HTTP/2 requests.
func NewMassiveDataProvider(apiKey string) *massiveDataProvider {
	logger.Infof("initializing Massive data provider")

	return &massiveDataProvider{
		APIKey: apiKey,
		Client: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 30 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
				DisableCompression:    false, // must be false to enable gzip auto-decompression
				ForceAttemptHTTP2:     true,
				MaxIdleConns:          100,
				IdleConnTimeout:       90 * time.Second,
			},
		},
		BaseURL: "https://api.massive.com",
	}
}

// Secondary returns the configured secondary Provider, if any.
func (massiveDataProv *massiveDataProvider) Secondary() Provider {
	return massiveDataProv.secondary
}

// GetDailyBars retrieves daily OHLCV bars for the given symbol and range.
func (massiveDataProv *massiveDataProvider) GetDailyBars(
	underlying string,
	from, to time.Time,
) ([]Bar, error) {

	maxLimit := 50000

	logger.Debugf(
		"fetching daily bars: %s from=%s to=%s",
		underlying,
		from.Format("2006-01-02"),
		to.Format("2006-01-02"),
	)

	reqURL := fmt.Sprintf(
		"%s/v2/aggs/ticker/%s/range/1/day/%s/%s?adjusted=true&sort=asc&limit=%d&apiKey=%s",
		massiveDataProv.BaseURL,
		underlying,
		from.Format("2006-01-02"),
		to.Format("2006-01-02"),
		maxLimit,
		massiveDataProv.APIKey,
	)

	req, err := http.NewRequest("GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("x-api-key", massiveDataProv.APIKey)

	resp, err := massiveDataProv.processGetRequest(req)
	if err != nil {
		logger.Errorf("bars request failed: %v", err)
		return nil, fmt.Errorf("massive api request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf(
			"massive daily bars status=%d body=%s",
			resp.StatusCode,
			string(bodyBytes),
		)
	}

	// Massive/Polygon style aggregate response model
	var body struct {
		Ticker  string `json:"ticker"`
		Results []struct {
			Open      float64 `json:"o"`
			Close     float64 `json:"c"`
			High      float64 `json:"h"`
			Low       float64 `json:"l"`
			Volume    float64 `json:"v"`
			Timestamp int64   `json:"t"` // epoch millis
		} `json:"results"`
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("parsing massive response: %w", err)
	}

	logger.Tracef("bars received: %d records", len(body.Results))

	out := make([]Bar, 0, len(body.Results))
	for _, r := range body.Results {
		out = append(out, Bar{
			Date:  time.UnixMilli(r.Timestamp).UTC(),
			Open:  r.Open,
			High:  r.High,
			Low:   r.Low,
			Close: r.Close,
			Vol:   r.Volume,
		})
	}
	return out, nil
}

// GetExpiries returns the sorted unique option expiration dates listed for
// the underlying within the date range, resolved from the contracts
// reference endpoint.
func (massiveDataProv *massiveDataProvider) GetExpiries(
	underlying string,
	from, to time.Time,
) ([]time.Time, error) {

	logger.Infof(
		"resolving expiries for %s [%s - %s]",
		underlying,
		from.Format("2006-01-02"),
		to.Format("2006-01-02"),
	)

	contracts, err := massiveDataProv.getContracts(underlying, time.Time{}, from, to)
	if err != nil {
		return nil, fmt.Errorf("fetch contracts: %w", err)
	}

	expiryMap := map[string]time.Time{}
	for _, c := range contracts {
		expiryMap[c.ExpiryDate.Format("2006-01-02")] = c.ExpiryDate
	}

	expiries := make([]time.Time, 0, len(expiryMap))
	for _, dt := range expiryMap {
		expiries = append(expiries, dt)
	}
	sort.Slice(expiries, func(i, j int) bool { return expiries[i].Before(expiries[j]) })

	logger.Infof("resolved %d unique expiries", len(expiries))
	return expiries, nil
}

// GetChain returns the quoted option chain for one expiry via the chain
// snapshot endpoint, paginating until exhausted. Contracts without a
// usable quote fall back to the day close as the mid.
func (massiveDataProv *massiveDataProvider) GetChain(
	underlying string,
	expiry time.Time,
) ([]Quote, error) {

	logger.Debugf(
		"fetching chain snapshot: %s expiry=%s",
		underlying,
		expiry.Format("2006-01-02"),
	)

	u, err := url.Parse(fmt.Sprintf("%s/v3/snapshot/options/%s", massiveDataProv.BaseURL, underlying))
	if err != nil {
		return nil, err
	}
	query := u.Query()
	query.Set("expiration_date", expiry.Format("2006-01-02"))
	query.Set("limit", "250")
	query.Set("apiKey", massiveDataProv.APIKey)
	u.RawQuery = query.Encode()
	reqURL := u.String()

	var out []Quote
	for reqURL != "" {
		logger.Tracef("chain request URL: %s", reqURL)

		body, err := massiveDataProv.getJSON(reqURL)
		if err != nil {
			return nil, err
		}

		var snap massiveSnapshotResp
		if err := json.Unmarshal(body, &snap); err != nil {
			return nil, fmt.Errorf("decode: %w", err)
		}

		for _, r := range snap.Results {
			expDt, err := time.Parse("2006-01-02", r.Details.ExpiryDate)
			if err != nil {
				continue // skip malformed expiry dates
			}
			mid := r.LastQuote.Midpoint
			if mid == 0 && r.LastQuote.Bid > 0 && r.LastQuote.Ask > 0 {
				mid = (r.LastQuote.Bid + r.LastQuote.Ask) / 2
			}
			if mid == 0 {
				mid = r.Day.Close
			}
			out = append(out, Quote{
				Contract: OptionContract{
					Underlying: underlying,
					ExpiryDate: expDt,
					Strike:     r.Details.StrikePrice,
					Type:       r.Details.ContractType,
				},
				Bid: r.LastQuote.Bid,
				Ask: r.LastQuote.Ask,
				Mid: mid,
			})
		}

		reqURL = snap.NextURL
	}

	logger.Debugf("chain snapshot: %d quoted contracts", len(out))
	return out, nil
}

// GetOptionMidPrice returns the current mid price for one contract,
// identified by its OCC-style symbol, using the most recent daily bar.
// Falls back to the secondary provider when no bar exists.
func (massiveDataProv *massiveDataProvider) GetOptionMidPrice(
	underlying string,
	strike float64,
	expiry time.Time,
	optType string,
) (float64, error) {

	symbol := OptionSymbolFromParts(underlying, expiry, optType, strike)
	logger.Debugf("option price lookup: %s", symbol)

	bars, err := massiveDataProv.GetDailyBars(symbol, time.Now().AddDate(0, 0, -7), time.Now())
	if err == nil && len(bars) > 0 {
		return bars[len(bars)-1].Close, nil
	}

	if massiveDataProv.secondary != nil {
		logger.Tracef("delegating option price to secondary provider")
		return massiveDataProv.secondary.GetOptionMidPrice(underlying, strike, expiry, optType)
	}
	if err != nil {
		return 0, fmt.Errorf("fetch option bars: %w", err)
	}
	return 0, fmt.Errorf("no option bars found for %s", symbol)
}

// getContracts retrieves option contracts for the underlying, following
// pagination. A zero expiry enables the range query.
func (massiveDataProv *massiveDataProvider) getContracts(
	underlying string,
	expiry, from, to time.Time,
) ([]OptionContract, error) {

	out := []OptionContract{}

	u, err := url.Parse(massiveDataProv.BaseURL + "/v3/reference/options/contracts")
	if err != nil {
		return nil, err
	}
	query := u.Query()
	query.Set("underlying_ticker", underlying)
	if expiry.IsZero() {
		query.Set("expiration_date.gte", from.Format("2006-01-02"))
		query.Set("expiration_date.lte", to.Format("2006-01-02"))
	} else {
		query.Set("expiration_date", expiry.Format("2006-01-02"))
	}
	query.Set("limit", "1000")
	query.Set("apiKey", massiveDataProv.APIKey)
	u.RawQuery = query.Encode()
	reqURL := u.String()

	for reqURL != "" {
		logger.Debugf("contracts request URL: %s", reqURL)

		body, err := massiveDataProv.getJSON(reqURL)
		if err != nil {
			return nil, err
		}

		var massiveResp massiveContractsResp
		if err := json.Unmarshal(body, &massiveResp); err != nil {
			return nil, fmt.Errorf("decode: %w", err)
		}

		logger.Tracef("received %d contracts", len(massiveResp.Results))

		for _, result := range massiveResp.Results {
			t, err := time.Parse("2006-01-02", result.ExpiryDate)
			if err != nil {
				continue // skip malformed expiry dates
			}
			out = append(out, OptionContract{
				Underlying: underlying,
				ExpiryDate: t,
				Strike:     result.StrikePrice,
				Type:       result.ContractType,
			})
		}

		reqURL = massiveResp.NextURL
	}

	return out, nil
}

// getJSON performs an authenticated GET and returns the response body,
// surfacing the API's message on non-200 statuses.
func (massiveDataProv *massiveDataProvider) getJSON(reqURL string) ([]byte, error) {
	req, err := http.NewRequest("GET", reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+massiveDataProv.APIKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "massive-client/1.0")

	resp, err := massiveDataProv.processGetRequest(req)
	if err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("empty response body")
	}

	if resp.StatusCode != http.StatusOK {
		var dbg struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(body, &dbg)
		logger.Errorf("massive API error status=%d message=%s", resp.StatusCode, dbg.Message)
		return nil, fmt.Errorf("massive returned status %d: %s", resp.StatusCode, dbg.Message)
	}

	return body, nil
}

// maxRateLimitRetries bounds how many per-minute windows a single request
// will wait through before giving up.
const maxRateLimitRetries = 3

// processGetRequest executes an HTTP GET with rate-limit handling: on
// HTTP 429 it sleeps until the next minute boundary and retries, up to
// maxRateLimitRetries times. Other statuses are returned to the caller
// for handling.
func (massiveDataProv *massiveDataProvider) processGetRequest(
	req *http.Request,
) (*http.Response, error) {

	for attempt := 0; ; attempt++ {
		resp, err := massiveDataProv.Client.Do(req)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode != http.StatusTooManyRequests || attempt >= maxRateLimitRetries {
			return resp, nil
		}
		resp.Body.Close()

		now := time.Now()
		sleepDuration := time.Until(now.Truncate(time.Minute).Add(time.Minute))
		logger.Infof("rate limit hit, sleeping for %s", sleepDuration)
		time.Sleep(sleepDuration)
	}
}
