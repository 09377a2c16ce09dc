package indicator

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/raykavin/pricelens/chart"
)

func rampSeries() []chart.Point {
	series := make([]chart.Point, 5)
	for i := range series {
		series[i] = chart.Point{
			Timestamp: int64(1700000000000 + i*86400000),
			Price:     float64(i + 1),
		}
	}
	return series
}

func TestSMA_ValuesAndWarmup(t *testing.T) {
	ind := SMA(3, "#ff9800")
	require.Equal(t, "SMA(3)", ind.Name())
	require.Equal(t, 3, ind.Warmup())

	ind.Load(rampSeries())
	metrics := ind.Metrics()
	require.Len(t, metrics, 1)

	metric := metrics[0]
	require.Equal(t, "line", metric.Style)
	require.Equal(t, "#ff9800", metric.Color)

	// The warmup prefix is skipped; a linear ramp averages to the ramp
	// shifted by one.
	require.Len(t, metric.Points, 2)
	require.InDelta(t, 3, metric.Points[0].Price, 1e-9)
	require.InDelta(t, 4, metric.Points[1].Price, 1e-9)
	require.Equal(t, int64(1700000000000+3*86400000), metric.Points[0].Timestamp)
}

func TestEMA_ValuesOnLinearRamp(t *testing.T) {
	ind := EMA(3, "#9c27b0")
	ind.Load(rampSeries())

	metric := ind.Metrics()[0]
	require.Len(t, metric.Points, 2)
	require.InDelta(t, 3, metric.Points[0].Price, 1e-9)
	require.InDelta(t, 4, metric.Points[1].Price, 1e-9)
}

func TestIndicator_ShortSeriesProducesNoPoints(t *testing.T) {
	ind := SMA(10, "#ff9800")
	ind.Load(rampSeries())

	require.Empty(t, ind.Metrics()[0].Points)
}
