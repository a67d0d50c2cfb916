// Package strategy turns per-bar predictions into orders.
package strategy

import (
	"fmt"
	"math"
	"strings"

	"github.com/rustyeddy/barreplay/indicators"
)

// Class is a directional prediction.
type Class int

const (
	Short Class = -1
	Hold  Class = 0
	Long  Class = 1
)

func (c Class) String() string {
	switch c {
	case Long:
		return "LONG"
	case Short:
		return "SHORT"
	default:
		return "HOLD"
	}
}

// Predictor maps a feature vector to a Class. Implementations must be
// stateless so they can be shared across concurrent replays.
type Predictor interface {
	Name() string

	// Features lists the columns Predict expects, in order.
	Features() []string

	Predict(features []float64) (Class, error)
}

// Predictor names accepted by NewPredictor.
const (
	PredictorEMACross    = "ema-cross"
	PredictorEMACrossADX = "ema-cross-adx"
	PredictorLinear      = "linear"
	PredictorHold        = "hold"
)

// DefaultMinADX is the trend strength ema-cross-adx needs when MinADX is 0.
const DefaultMinADX = 20.0

type PredictorConfig struct {
	Name      string  `yaml:"name" json:"name"`
	Band      float64 `yaml:"band" json:"band"`                           // ema-cross: relative spread needed to call a trend
	MinADX    float64 `yaml:"min_adx,omitempty" json:"min_adx,omitempty"` // ema-cross-adx
	ModelPath string  `yaml:"model_path" json:"model_path"`               // linear: YAML snapshot
}

// NewPredictor selects a predictor by name.
func NewPredictor(cfg PredictorConfig) (Predictor, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Name)) {
	case PredictorEMACross, "emacross", "":
		return EMACross{Band: cfg.Band}, nil

	case PredictorEMACrossADX:
		minADX := cfg.MinADX
		if minADX == 0 {
			minADX = DefaultMinADX
		}
		return EMACrossADX{Band: cfg.Band, MinADX: minADX}, nil

	case PredictorLinear:
		if cfg.ModelPath == "" {
			return nil, fmt.Errorf("predictor %q needs a model path", PredictorLinear)
		}
		m, err := LoadModel(cfg.ModelPath)
		if err != nil {
			return nil, err
		}
		return m, nil

	case PredictorHold, "noop", "none":
		return HoldPredictor{}, nil

	default:
		return nil, fmt.Errorf("unknown predictor %q (supported: %s, %s, %s, %s)",
			cfg.Name, PredictorEMACross, PredictorEMACrossADX, PredictorLinear, PredictorHold)
	}
}

// EMACross calls Long when the fast EMA is above the slow one by more than
// Band (relative to the slow EMA), Short when below, Hold otherwise.
type EMACross struct {
	Band float64
}

func (EMACross) Name() string { return PredictorEMACross }

func (EMACross) Features() []string {
	return []string{indicators.ColEMAFast, indicators.ColEMASlow}
}

func (e EMACross) Predict(x []float64) (Class, error) {
	if len(x) != 2 {
		return Hold, fmt.Errorf("ema-cross: want 2 features, got %d", len(x))
	}
	fast, slow := x[0], x[1]
	if slow == 0 || math.IsNaN(fast) || math.IsNaN(slow) {
		return Hold, nil
	}
	spread := (fast - slow) / math.Abs(slow)
	switch {
	case spread > e.Band:
		return Long, nil
	case spread < -e.Band:
		return Short, nil
	}
	return Hold, nil
}

// EMACrossADX is EMACross that only trades when ADX shows a trend of at
// least MinADX.
type EMACrossADX struct {
	Band   float64
	MinADX float64
}

func (EMACrossADX) Name() string { return PredictorEMACrossADX }

func (EMACrossADX) Features() []string {
	return []string{indicators.ColEMAFast, indicators.ColEMASlow, indicators.ColADX}
}

func (e EMACrossADX) Predict(x []float64) (Class, error) {
	if len(x) != 3 {
		return Hold, fmt.Errorf("ema-cross-adx: want 3 features, got %d", len(x))
	}
	if adx := x[2]; math.IsNaN(adx) || adx < e.MinADX {
		return Hold, nil
	}
	return EMACross{Band: e.Band}.Predict(x[:2])
}

// HoldPredictor never trades.
type HoldPredictor struct{}

func (HoldPredictor) Name() string { return PredictorHold }

func (HoldPredictor) Features() []string { return nil }

func (HoldPredictor) Predict([]float64) (Class, error) { return Hold, nil }
