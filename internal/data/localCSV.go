package data

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// localFileDataProvider serves daily bars from per-underlying CSV files
// on disk (<dir>/<UNDERLYING>.csv, columns date,open,high,low,close,volume).
// Option data is not kept locally; those calls fall through to the
// secondary provider.
type localFileDataProvider struct {
	dir       string
	secondary Provider
}

// NewLocalFileDataProvider convenience constructor.
func NewLocalFileDataProvider(dir string, secondary Provider) *localFileDataProvider {
	return &localFileDataProvider{dir: dir, secondary: secondary}
}

func (localFileDataProv *localFileDataProvider) Secondary() Provider {
	return localFileDataProv.secondary
}

func (localFileDataProv *localFileDataProvider) GetDailyBars(underlying string, from, to time.Time) ([]Bar, error) {
	bars, err := localFileDataProv.readBars(underlying)
	if err != nil {
		if localFileDataProv.secondary != nil {
			return localFileDataProv.secondary.GetDailyBars(underlying, from, to)
		}
		return nil, err
	}

	var out []Bar
	for _, b := range bars {
		if b.Date.Before(from) || b.Date.After(to) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (localFileDataProv *localFileDataProvider) GetExpiries(underlying string, from, to time.Time) ([]time.Time, error) {
	if localFileDataProv.secondary != nil {
		return localFileDataProv.secondary.GetExpiries(underlying, from, to)
	}
	return nil, fmt.Errorf("GetExpiries not implemented for localFileDataProvider")
}

func (localFileDataProv *localFileDataProvider) GetChain(underlying string, expiry time.Time) ([]Quote, error) {
	if localFileDataProv.secondary != nil {
		return localFileDataProv.secondary.GetChain(underlying, expiry)
	}
	return nil, fmt.Errorf("GetChain not implemented for localFileDataProvider")
}

func (localFileDataProv *localFileDataProvider) GetOptionMidPrice(underlying string, strike float64, expiry time.Time, optType string) (float64, error) {
	if localFileDataProv.secondary != nil {
		return localFileDataProv.secondary.GetOptionMidPrice(underlying, strike, expiry, optType)
	}
	return 0, fmt.Errorf("GetOptionMidPrice not implemented for localFileDataProvider")
}

// readBars loads the whole CSV for an underlying. A header row is
// skipped if the first cell does not parse as a date.
func (localFileDataProv *localFileDataProvider) readBars(underlying string) ([]Bar, error) {
	path := filepath.Join(localFileDataProv.dir, strings.ToUpper(underlying)+".csv")
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bars file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv %s: %w", path, err)
	}

	var out []Bar
	for i, row := range records {
		if len(row) < 6 {
			continue
		}
		date, err := time.Parse("2006-01-02", strings.TrimSpace(row[0]))
		if err != nil {
			if i == 0 {
				continue // header
			}
			return nil, fmt.Errorf("bad date %q in %s: %w", row[0], path, err)
		}

		vals := make([]float64, 5)
		for j := 0; j < 5; j++ {
			vals[j], err = strconv.ParseFloat(strings.TrimSpace(row[j+1]), 64)
			if err != nil {
				return nil, fmt.Errorf("bad number %q in %s: %w", row[j+1], path, err)
			}
		}
		out = append(out, Bar{Date: date, Open: vals[0], High: vals[1], Low: vals[2], Close: vals[3], Vol: vals[4]})
	}
	return out, nil
}
