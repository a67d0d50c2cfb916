package backtest

import "github.com/rustyeddy/barreplay/market"

// DefaultWindow is the number of bars kept in the rolling window.
const DefaultWindow = 30

// Window keeps the most recent bars up to a fixed capacity, evicting the
// oldest.
type Window struct {
	bars []market.Bar
	head int
	size int
}

func NewWindow(capacity int) *Window {
	if capacity <= 0 {
		capacity = DefaultWindow
	}
	return &Window{bars: make([]market.Bar, capacity)}
}

func (w *Window) Push(b market.Bar) {
	w.bars[(w.head+w.size)%len(w.bars)] = b
	if w.size < len(w.bars) {
		w.size++
		return
	}
	w.head = (w.head + 1) % len(w.bars)
}

func (w *Window) Len() int { return w.size }

func (w *Window) Cap() int { return len(w.bars) }

func (w *Window) Full() bool { return w.size == len(w.bars) }

// Bars returns the window contents, oldest first.
func (w *Window) Bars() []market.Bar {
	out := make([]market.Bar, w.size)
	for i := range out {
		out[i] = w.bars[(w.head+i)%len(w.bars)]
	}
	return out
}

// Last returns the newest bar.
func (w *Window) Last() (market.Bar, bool) {
	if w.size == 0 {
		return market.Bar{}, false
	}
	return w.bars[(w.head+w.size-1)%len(w.bars)], true
}
