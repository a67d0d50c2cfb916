package market

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"time"
)

// ErrNoBars is returned when a data source yields no usable bars.
var ErrNoBars = errors.New("no bars")

// ErrUnsorted is returned when bar timestamps go backwards.
var ErrUnsorted = errors.New("bars out of time order")

// SortByTime orders bars by timestamp, keeping the input order for ties.
func SortByTime(bars []Bar) {
	sort.SliceStable(bars, func(i, j int) bool {
		return bars[i].Time.Before(bars[j].Time)
	})
}

// Between keeps bars with from <= t < to. Zero bounds are open.
func Between(bars []Bar, from, to time.Time) []Bar {
	out := bars[:0:0]
	for _, b := range bars {
		if inRange(b.Time, from, to) {
			out = append(out, b)
		}
	}
	return out
}

// CheckSorted verifies that timestamps are nondecreasing.
func CheckSorted(bars []Bar) error {
	for i := 1; i < len(bars); i++ {
		if bars[i].Time.Before(bars[i-1].Time) {
			return fmt.Errorf("%w: row %d at %s is before %s", ErrUnsorted, i,
				bars[i].Time.Format(time.RFC3339), bars[i-1].Time.Format(time.RFC3339))
		}
	}
	return nil
}

// CheckSameShape verifies that augmented has the same row count and
// timestamps as orig.
func CheckSameShape(orig, augmented []Bar) error {
	if len(orig) != len(augmented) {
		return fmt.Errorf("row count changed: %d -> %d", len(orig), len(augmented))
	}
	for i := range orig {
		if !orig[i].Time.Equal(augmented[i].Time) {
			return fmt.Errorf("timestamp changed at row %d: %s -> %s", i,
				orig[i].Time.Format(time.RFC3339), augmented[i].Time.Format(time.RFC3339))
		}
	}
	return nil
}

// Resample draws len(bars) rows with replacement. The input is not modified.
func Resample(bars []Bar, rng *rand.Rand) []Bar {
	out := make([]Bar, len(bars))
	for i := range out {
		out[i] = bars[rng.Intn(len(bars))]
	}
	return out
}

func inRange(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && !t.Before(to) {
		return false
	}
	return true
}
