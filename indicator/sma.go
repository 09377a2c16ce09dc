package indicator

import (
	"fmt"

	"github.com/markcheno/go-talib"

	"github.com/raykavin/pricelens/chart"
	"github.com/raykavin/pricelens/core"
)

// SMA creates a new Simple Moving Average indicator
// period: the number of periods to use for calculations
// color: the color to use for the indicator line
func SMA(period int, color string) Indicator {
	return &sma{
		BaseIndicator: BaseIndicator{
			Period: period,
			Color:  color,
		},
	}
}

type sma struct {
	BaseIndicator
	values core.Series[float64]
	series []chart.Point
}

// Warmup returns the number of points needed to calculate the indicator
func (s sma) Warmup() int { return s.Period }

// Name returns the formatted name of the indicator
func (s sma) Name() string { return fmt.Sprintf("SMA(%d)", s.Period) }

// Load calculates the indicator values from the provided series
func (s *sma) Load(series []chart.Point) {
	if len(series) < s.Period {
		s.values, s.series = nil, nil
		return
	}

	s.values = talib.Sma(prices(series), s.Period)
	s.series = series
}

// Metrics returns the visual representation of the indicator
func (s sma) Metrics() []Metric {
	return []Metric{
		createMetric("line", s.Color, s.Name(), s.values, s.series, s.Period),
	}
}
