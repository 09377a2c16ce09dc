// Package indicator computes server-side chart indicators over the
// active price series. Each indicator loads from the series and exposes
// its values as metrics ready to be drawn by the web chart.
package indicator

import (
	"github.com/raykavin/pricelens/chart"
	"github.com/raykavin/pricelens/core"
)

// Indicator is a derived line computed from the price series.
type Indicator interface {
	// Name returns the display name, e.g. "SMA(20)".
	Name() string

	// Warmup returns the number of points needed before the indicator
	// produces values.
	Warmup() int

	// Load recalculates the indicator from the given series.
	Load(series []chart.Point)

	// Metrics returns the visual representation of the indicator.
	Metrics() []Metric
}

// Metric is one drawable line of an indicator.
type Metric struct {
	Name   string        `json:"name"`
	Style  string        `json:"style"`
	Color  string        `json:"color"`
	Points []chart.Point `json:"points"`
}

// BaseIndicator provides common functionality for all indicators
type BaseIndicator struct {
	Period int
	Color  string
}

// prices extracts the price column of a series.
func prices(series []chart.Point) core.Series[float64] {
	values := make(core.Series[float64], len(series))
	for i, p := range series {
		values[i] = p.Price
	}
	return values
}

// createMetric pairs indicator values with their source timestamps,
// skipping the warmup prefix where the indicator is undefined.
func createMetric(style, color, name string, values core.Series[float64], series []chart.Point, period int) Metric {
	metric := Metric{
		Name:  name,
		Style: style,
		Color: color,
	}

	if period < 0 || period >= len(series) {
		return metric
	}

	points := make([]chart.Point, 0, len(series)-period)
	for i := period; i < len(series); i++ {
		points = append(points, chart.Point{
			Timestamp: series[i].Timestamp,
			Price:     values[i],
		})
	}
	metric.Points = points

	return metric
}
