package indicators

import (
	"fmt"
	"math"

	"github.com/rustyeddy/barreplay/market"
)

// Feature columns written by Provider.
const (
	ColATR        = "atr"
	ColEMAFast    = "ema_fast"
	ColEMASlow    = "ema_slow"
	ColVolatility = "volatility"
	ColADX        = "adx"
)

// Columns lists the columns Provider always writes, in a stable order.
// ColADX follows them when Config.ADXPeriod is set.
var Columns = []string{ColATR, ColEMAFast, ColEMASlow, ColVolatility}

type Config struct {
	ATRPeriod        int `yaml:"atr_period" json:"atr_period"`
	EMAFast          int `yaml:"ema_fast" json:"ema_fast"`
	EMASlow          int `yaml:"ema_slow" json:"ema_slow"`
	VolatilityPeriod int `yaml:"volatility_period" json:"volatility_period"`
	ADXPeriod        int `yaml:"adx_period" json:"adx_period"` // 0 disables the adx column
}

func DefaultConfig() Config {
	return Config{
		ATRPeriod:        14,
		EMAFast:          12,
		EMASlow:          26,
		VolatilityPeriod: 20,
		ADXPeriod:        14,
	}
}

func (c Config) Validate() error {
	switch {
	case c.ATRPeriod <= 0:
		return fmt.Errorf("atr_period must be positive, got %d", c.ATRPeriod)
	case c.EMAFast <= 0 || c.EMASlow <= 0:
		return fmt.Errorf("ema periods must be positive, got %d/%d", c.EMAFast, c.EMASlow)
	case c.EMAFast >= c.EMASlow:
		return fmt.Errorf("ema_fast (%d) must be shorter than ema_slow (%d)", c.EMAFast, c.EMASlow)
	case c.VolatilityPeriod <= 1:
		return fmt.Errorf("volatility_period must be > 1, got %d", c.VolatilityPeriod)
	case c.ADXPeriod < 0:
		return fmt.Errorf("adx_period must not be negative, got %d", c.ADXPeriod)
	}
	return nil
}

// Provider augments a bar series with ATR, fast/slow EMA, rolling
// volatility and optionally ADX columns. Values are NaN until an indicator
// has warmed up.
type Provider struct {
	cfg Config
}

func NewProvider(cfg Config) (*Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("indicators: %w", err)
	}
	return &Provider{cfg: cfg}, nil
}

// Warmup is the number of bars before every column is defined.
func (p *Provider) Warmup() int {
	return max(p.cfg.ATRPeriod+1, p.cfg.EMASlow, p.cfg.VolatilityPeriod+1, 2*p.cfg.ADXPeriod)
}

// Columns is the list of columns Augment writes.
func (p *Provider) Columns() []string {
	if p.cfg.ADXPeriod == 0 {
		return Columns
	}
	return append(append([]string(nil), Columns...), ColADX)
}

// Augment returns copies of bars carrying the feature columns. Existing
// features are kept unless overwritten. Row count and order are unchanged.
func (p *Provider) Augment(bars []market.Bar) ([]market.Bar, error) {
	cols := map[string]Indicator{
		ColATR:        NewATR(p.cfg.ATRPeriod),
		ColEMAFast:    NewEMA(p.cfg.EMAFast),
		ColEMASlow:    NewEMA(p.cfg.EMASlow),
		ColVolatility: NewVolatility(p.cfg.VolatilityPeriod),
	}
	if p.cfg.ADXPeriod > 0 {
		cols[ColADX] = NewADX(p.cfg.ADXPeriod)
	}
	names := p.Columns()

	out := make([]market.Bar, len(bars))
	for i, b := range bars {
		f := make(market.Features, len(b.Features)+len(names))
		for k, v := range b.Features {
			f[k] = v
		}
		for _, name := range names {
			ind := cols[name]
			ind.Update(b)
			if ind.Ready() {
				f[name] = ind.Value()
			} else {
				f[name] = math.NaN()
			}
		}
		out[i] = b.WithFeatures(f)
	}
	return out, nil
}
