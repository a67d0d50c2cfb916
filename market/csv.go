package market

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

var timeLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// LoadCSV reads bars for symbol from a CSV file with rows
//
//	time,open,high,low,close[,volume]
//
// A single header row starting with "time" or "date" is allowed. Rows are
// filtered to [from, to) and returned in time order.
func LoadCSV(path, symbol string, from, to time.Time) ([]Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	bars, err := ReadCSV(f, symbol)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	bars = Between(bars, from, to)
	if len(bars) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoBars)
	}
	return bars, nil
}

// ReadCSV parses bars from r. Any malformed row is an error.
func ReadCSV(r io.Reader, symbol string) ([]Bar, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var bars []Bar
	line := 0
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		if len(row) == 0 || (len(row) == 1 && strings.TrimSpace(row[0]) == "") {
			continue
		}
		if line == 1 && isHeader(row[0]) {
			continue
		}

		b, err := parseBarRow(row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		b.Symbol = symbol
		bars = append(bars, b)
	}

	SortByTime(bars)
	return bars, nil
}

// WriteCSV writes bars in the format ReadCSV accepts.
func WriteCSV(w io.Writer, bars []Bar) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"time", "open", "high", "low", "close", "volume"}); err != nil {
		return err
	}
	for _, b := range bars {
		err := cw.Write([]string{
			b.Time.UTC().Format(time.RFC3339),
			f(b.Open), f(b.High), f(b.Low), f(b.Close), f(b.Volume),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func isHeader(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "time" || s == "date" || s == "timestamp"
}

func parseBarRow(row []string) (Bar, error) {
	if len(row) < 5 {
		return Bar{}, fmt.Errorf("need at least 5 cols time,open,high,low,close: %v", row)
	}

	t, err := parseTime(row[0])
	if err != nil {
		return Bar{}, err
	}

	var vals [5]float64
	n := 4
	if len(row) > 5 {
		n = 5
	}
	names := [5]string{"open", "high", "low", "close", "volume"}
	for i := 0; i < n; i++ {
		s := strings.TrimSpace(row[i+1])
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Bar{}, fmt.Errorf("bad %s %q: %w", names[i], s, err)
		}
		vals[i] = v
	}

	return Bar{
		Time:   t,
		Open:   vals[0],
		High:   vals[1],
		Low:    vals[2],
		Close:  vals[3],
		Volume: vals[4],
	}, nil
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("bad time %q", s)
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}
