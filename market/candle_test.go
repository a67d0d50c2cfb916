package market

import (
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

func TestBar_Feature(t *testing.T) {
	t.Parallel()

	b := Bar{Features: Features{"atr": 1.5, "nan": math.NaN(), "inf": math.Inf(1)}}

	v, ok := b.Feature("atr")
	assert.True(t, ok)
	assert.Equal(t, 1.5, v)

	for _, name := range []string{"nan", "inf", "missing"} {
		_, ok := b.Feature(name)
		assert.False(t, ok, name)
	}
}

func TestBar_Vector(t *testing.T) {
	t.Parallel()

	b := Bar{Time: t0, Features: Features{"a": 1, "b": 2, "c": math.NaN()}}

	v, err := b.Vector([]string{"b", "a"})
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 1}, v)

	_, err = b.Vector([]string{"a", "c"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingFeature))
}

func TestBar_Valid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		bar  Bar
		want bool
	}{
		{"ok", Bar{Open: 1, High: 2, Low: 1, Close: 1.5}, true},
		{"zero", Bar{Open: 0, High: 2, Low: 1, Close: 1.5}, false},
		{"nan", Bar{Open: 1, High: math.NaN(), Low: 1, Close: 1.5}, false},
		{"inverted", Bar{Open: 1, High: 1, Low: 2, Close: 1.5}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.bar.Valid(), tt.name)
	}
}

func TestSortAndBetween(t *testing.T) {
	t.Parallel()

	bars := []Bar{
		{Time: t0.Add(2 * time.Hour), Close: 3},
		{Time: t0, Close: 1},
		{Time: t0.Add(time.Hour), Close: 2},
	}
	SortByTime(bars)
	assert.Equal(t, 1.0, bars[0].Close)
	assert.Equal(t, 3.0, bars[2].Close)

	got := Between(bars, t0.Add(time.Hour), t0.Add(2*time.Hour))
	require.Len(t, got, 1)
	assert.Equal(t, 2.0, got[0].Close)

	assert.Len(t, Between(bars, time.Time{}, time.Time{}), 3)
}

func TestCheckSameShape(t *testing.T) {
	t.Parallel()

	a := []Bar{{Time: t0}, {Time: t0.Add(time.Hour)}}
	assert.NoError(t, CheckSameShape(a, []Bar{{Time: t0}, {Time: t0.Add(time.Hour)}}))
	assert.Error(t, CheckSameShape(a, a[:1]))
	assert.Error(t, CheckSameShape(a, []Bar{{Time: t0}, {Time: t0}}))
}

func TestCheckSorted(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		bars []Bar
		ok   bool
	}{
		{"empty", nil, true},
		{"single", []Bar{{Time: t0}}, true},
		{"ascending", []Bar{{Time: t0}, {Time: t0.Add(time.Hour)}}, true},
		{"ties", []Bar{{Time: t0}, {Time: t0}, {Time: t0.Add(time.Hour)}}, true},
		{"backwards", []Bar{{Time: t0}, {Time: t0.Add(2 * time.Hour)}, {Time: t0.Add(time.Hour)}}, false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := CheckSorted(tt.bars)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUnsorted)
			assert.Contains(t, err.Error(), "row 2")
		})
	}
}

func TestResample(t *testing.T) {
	t.Parallel()

	bars := []Bar{{Close: 1}, {Close: 2}, {Close: 3}}
	a := Resample(bars, rand.New(rand.NewSource(7)))
	b := Resample(bars, rand.New(rand.NewSource(7)))

	require.Len(t, a, 3)
	assert.Equal(t, a, b)
	for _, x := range a {
		assert.Contains(t, []float64{1, 2, 3}, x.Close)
	}
	assert.Equal(t, 1.0, bars[0].Close)
}
