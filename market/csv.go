package market

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// LoadBars reads one bar series from a CSV file with columns
// date,open,high,low,close,volume. A header row is optional. Rows may appear
// in any order; the returned series is sorted and validated.
func LoadBars(path string) ([]Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	symbol := symbolFromPath(path)

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var bars []Bar
	first := true
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if first {
			first = false
			if isHeader(row) {
				continue
			}
		}
		b, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		bars = append(bars, b)
	}

	SortBars(bars)
	if err := ValidateBars(symbol, bars); err != nil {
		return nil, err
	}
	return bars, nil
}

// LoadDir loads every *.csv file in dir as a bar series keyed by the
// upper-cased file name, e.g. aapl.csv -> "AAPL".
func LoadDir(dir string) (map[string][]Bar, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no CSV files in %s", dir)
	}

	out := make(map[string][]Bar, len(paths))
	for _, p := range paths {
		bars, err := LoadBars(p)
		if err != nil {
			return nil, err
		}
		out[symbolFromPath(p)] = bars
	}
	return out, nil
}

func symbolFromPath(path string) string {
	base := filepath.Base(path)
	return strings.ToUpper(strings.TrimSuffix(base, filepath.Ext(base)))
}

func isHeader(row []string) bool {
	return len(row) > 0 && strings.EqualFold(strings.TrimSpace(row[0]), "date")
}

func parseRow(row []string) (Bar, error) {
	if len(row) < 5 {
		return Bar{}, fmt.Errorf("bad row (need at least date,open,high,low,close): %v", row)
	}

	t, err := ParseDate(strings.TrimSpace(row[0]))
	if err != nil {
		return Bar{}, err
	}

	vals := make([]float64, 0, 5)
	for i := 1; i < len(row) && i < 6; i++ {
		v, err := strconv.ParseFloat(strings.TrimSpace(row[i]), 64)
		if err != nil {
			return Bar{}, fmt.Errorf("bad number %q: %w", row[i], err)
		}
		vals = append(vals, v)
	}

	b := Bar{Time: t, Open: vals[0], High: vals[1], Low: vals[2], Close: vals[3]}
	if len(vals) > 4 {
		b.Volume = vals[4]
	}
	return b, nil
}
