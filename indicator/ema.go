package indicator

import (
	"fmt"

	"github.com/markcheno/go-talib"

	"github.com/raykavin/pricelens/chart"
	"github.com/raykavin/pricelens/core"
)

// EMA creates a new Exponential Moving Average indicator
// period: the number of periods to use for calculations
// color: the color to use for the indicator line
func EMA(period int, color string) Indicator {
	return &ema{
		BaseIndicator: BaseIndicator{
			Period: period,
			Color:  color,
		},
	}
}

type ema struct {
	BaseIndicator
	values core.Series[float64]
	series []chart.Point
}

// Warmup returns the number of points needed to calculate the indicator
func (e ema) Warmup() int { return e.Period }

// Name returns the formatted name of the indicator
func (e ema) Name() string { return fmt.Sprintf("EMA(%d)", e.Period) }

// Load calculates the indicator values from the provided series
func (e *ema) Load(series []chart.Point) {
	if len(series) < e.Period {
		e.values, e.series = nil, nil
		return
	}

	e.values = talib.Ema(prices(series), e.Period)
	e.series = series
}

// Metrics returns the visual representation of the indicator
func (e ema) Metrics() []Metric {
	return []Metric{
		createMetric("line", e.Color, e.Name(), e.values, e.series, e.Period),
	}
}
