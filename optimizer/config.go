package optimizer

import (
	"errors"
	"fmt"
	"math"
)

// Config Bootstrapper 配置
type Config struct {
	MaxLabeledDemos      int     `json:"max_labeled_demos" yaml:"max_labeled_demos"`
	MaxBootstrappedDemos int     `json:"max_bootstrapped_demos" yaml:"max_bootstrapped_demos"`
	MinScore             float64 `json:"min_score" yaml:"min_score"`
}

// DefaultConfig 默认配置
func DefaultConfig() Config {
	return Config{
		MaxLabeledDemos:      16,
		MaxBootstrappedDemos: 4,
		MinScore:             0.5,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	var errs []error
	if c.MaxLabeledDemos < 0 {
		errs = append(errs, fmt.Errorf("max_labeled_demos must be >= 0, got %d", c.MaxLabeledDemos))
	}
	if c.MaxBootstrappedDemos < 0 {
		errs = append(errs, fmt.Errorf("max_bootstrapped_demos must be >= 0, got %d", c.MaxBootstrappedDemos))
	}
	if math.IsNaN(c.MinScore) || math.IsInf(c.MinScore, 0) {
		errs = append(errs, fmt.Errorf("min_score must be a finite number"))
	}
	return errors.Join(errs...)
}
