package strategy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Params represents strategy parameters loaded from a yaml file.
type Params struct {
	FastPeriod          int     `yaml:"fast_period"`
	SlowPeriod          int     `yaml:"slow_period"`
	UseTrendFilter      bool    `yaml:"use_trend_filter"`
	MinVolumePercentile float64 `yaml:"min_volume_percentile"`
	MinATRPercentile    float64 `yaml:"min_atr_percentile"`
}

// paramsFile represents the on-disk shape of the strategy parameters file.
type paramsFile struct {
	Strategy Params `yaml:"strategy"`
}

// LoadParams loads strategy parameters from the provided yaml file path.
func LoadParams(path string) (*Params, error) {
	readb, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading strategy params from file with path '%s': %v", path, err)
	}

	var file paramsFile
	err = yaml.Unmarshal(readb, &file)
	if err != nil {
		return nil, fmt.Errorf("unmarshaling strategy params: %w", err)
	}

	return &file.Strategy, nil
}

// NewMovingAverageFromParams initializes a moving average strategy from the
// provided parameters.
func NewMovingAverageFromParams(params *Params) (*MovingAverage, error) {
	return NewMovingAverage(&MovingAverageConfig{
		FastPeriod:          params.FastPeriod,
		SlowPeriod:          params.SlowPeriod,
		UseTrendFilter:      params.UseTrendFilter,
		MinVolumePercentile: params.MinVolumePercentile,
		MinATRPercentile:    params.MinATRPercentile,
	})
}
