package backtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rustyeddy/barreplay/market"
)

func TestWindowEvictsOldest(t *testing.T) {
	t.Parallel()

	w := NewWindow(3)
	_, ok := w.Last()
	assert.False(t, ok)

	for i := 1; i <= 5; i++ {
		w.Push(market.Bar{Close: float64(i), Time: time.Unix(int64(i), 0)})
	}

	assert.True(t, w.Full())
	assert.Equal(t, 3, w.Len())
	var got []float64
	for _, b := range w.Bars() {
		got = append(got, b.Close)
	}
	assert.Equal(t, []float64{3, 4, 5}, got)

	last, ok := w.Last()
	assert.True(t, ok)
	assert.Equal(t, 5.0, last.Close)
}

func TestWindowDefaultCapacity(t *testing.T) {
	t.Parallel()

	w := NewWindow(0)
	assert.Equal(t, DefaultWindow, w.Cap())
	w.Push(market.Bar{})
	assert.False(t, w.Full())
}
