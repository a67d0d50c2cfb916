package strategy

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LinearModel scores a feature vector as bias + Σ w·x and calls Long above
// +Threshold and Short below -Threshold. It is loaded from a YAML snapshot.
type LinearModel struct {
	Columns   []string  `yaml:"columns"`
	Weights   []float64 `yaml:"weights"`
	Bias      float64   `yaml:"bias"`
	Threshold float64   `yaml:"threshold"`
}

func LoadModel(path string) (*LinearModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}

	var m LinearModel
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse model %s: %w", path, err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("model %s: %w", path, err)
	}
	return &m, nil
}

// Save writes the snapshot as YAML.
func (m *LinearModel) Save(path string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (m *LinearModel) Validate() error {
	if len(m.Columns) == 0 {
		return errors.New("no feature columns")
	}
	if len(m.Columns) != len(m.Weights) {
		return fmt.Errorf("%d columns but %d weights", len(m.Columns), len(m.Weights))
	}
	if m.Threshold < 0 {
		return fmt.Errorf("threshold must be >= 0, got %v", m.Threshold)
	}
	return nil
}

func (m *LinearModel) Name() string { return PredictorLinear }

func (m *LinearModel) Features() []string { return m.Columns }

func (m *LinearModel) Score(x []float64) (float64, error) {
	if len(x) != len(m.Weights) {
		return 0, fmt.Errorf("linear: want %d features, got %d", len(m.Weights), len(x))
	}
	s := m.Bias
	for i, w := range m.Weights {
		s += w * x[i]
	}
	return s, nil
}

func (m *LinearModel) Predict(x []float64) (Class, error) {
	s, err := m.Score(x)
	if err != nil {
		return Hold, err
	}
	switch {
	case s > m.Threshold:
		return Long, nil
	case s < -m.Threshold:
		return Short, nil
	}
	return Hold, nil
}
