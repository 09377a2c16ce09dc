package overlay

import (
	"testing"

	"github.com/raykavin/pricelens/chart"
	"github.com/stretchr/testify/require"
)

func TestMiddleLine_HalfwayBetweenExtremes(t *testing.T) {
	_, _, registry := newTestChart(t)

	middle := NewMiddleLine("middle", Options{})
	require.NoError(t, registry.Add(middle))

	mid, ok := middle.MiddlePrice()
	require.True(t, ok)
	require.InDelta(t, 150, mid, 1e-9)

	registry.OnDataUpdate()
	require.Equal(t, "150.00", middle.line.label.Text)
}

func TestMiddleLine_RenderIsIdempotent(t *testing.T) {
	_, _, registry := newTestChart(t)

	middle := NewMiddleLine("middle", Options{ShowPercent: true})
	require.NoError(t, registry.Add(middle))

	registry.OnDataUpdate()
	first := middle.line.Price()
	detail := middle.Detail()

	for i := 0; i < 3; i++ {
		registry.OnDataUpdate()
	}
	require.Equal(t, first, middle.line.Price())
	require.Equal(t, detail, middle.Detail())
}

func TestMiddleLine_DetailShowsSpread(t *testing.T) {
	_, _, registry := newTestChart(t)

	middle := NewMiddleLine("middle", Options{ShowPercent: true})
	require.NoError(t, registry.Add(middle))
	registry.OnDataUpdate()

	// Spread 100 over a mid-price of 150 is a 66.67% swing.
	require.Equal(t, "100.00 (66.67%)", middle.Detail())
	require.True(t, middle.detail.Visible)
}

func TestMiddleLine_FollowsNewExtremes(t *testing.T) {
	state, _, registry := newTestChart(t)

	middle := NewMiddleLine("middle", Options{})
	require.NoError(t, registry.Add(middle))
	registry.OnDataUpdate()

	state.Append(chart.Point{Timestamp: 1700259200000, Price: 300})
	registry.OnDataUpdate()

	mid, ok := middle.MiddlePrice()
	require.True(t, ok)
	require.InDelta(t, 200, mid, 1e-9)
	require.Equal(t, "200.00", middle.line.label.Text)
}
