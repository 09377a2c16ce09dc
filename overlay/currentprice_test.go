package overlay

import (
	"testing"

	"github.com/raykavin/pricelens/chart"
	"github.com/stretchr/testify/require"
)

func TestCurrentPriceLine_TracksLatestPrice(t *testing.T) {
	state, _, registry := newTestChart(t)

	current := NewCurrentPriceLine("current", Options{})
	require.NoError(t, registry.Add(current))

	registry.OnDataUpdate()
	require.Equal(t, "200.00", current.line.label.Text)

	state.Append(chart.Point{Timestamp: 1700259200000, Price: 180})
	registry.OnDataUpdate()
	require.Equal(t, "180.00", current.line.label.Text)
	require.InDelta(t, 180, current.line.Price(), 1e-9)
}

func TestCurrentPriceLine_PercentAgainstPreviousRender(t *testing.T) {
	state := chart.NewState(testDimensions())
	state.SetSeries([]chart.Point{{Timestamp: 1700000000000, Price: 100}})
	registry := NewRegistry(state, NewDispatcher(), testLogger())

	current := NewCurrentPriceLine("current", Options{ShowPercent: true})
	require.NoError(t, registry.Add(current))

	// First render establishes the baseline; no percent yet.
	registry.OnDataUpdate()
	require.Equal(t, "", current.PercentText())

	state.Append(chart.Point{Timestamp: 1700086400000, Price: 110})
	registry.OnDataUpdate()
	require.Equal(t, "+10.00%", current.PercentText())
	require.Equal(t, colorUp, current.badge.Color)

	state.Append(chart.Point{Timestamp: 1700172800000, Price: 99})
	registry.OnDataUpdate()
	require.Equal(t, "-10.00%", current.PercentText())
	require.Equal(t, colorDown, current.badge.Color)
}

func TestCurrentPriceLine_UnchangedPriceKeepsBadge(t *testing.T) {
	state := chart.NewState(testDimensions())
	state.SetSeries([]chart.Point{{Timestamp: 1700000000000, Price: 100}})
	registry := NewRegistry(state, NewDispatcher(), testLogger())

	current := NewCurrentPriceLine("current", Options{ShowPercent: true})
	require.NoError(t, registry.Add(current))

	registry.OnDataUpdate()
	state.Append(chart.Point{Timestamp: 1700086400000, Price: 110})
	registry.OnDataUpdate()
	require.Equal(t, "+10.00%", current.PercentText())

	// Same price again: the badge keeps showing the last real change.
	state.Append(chart.Point{Timestamp: 1700172800000, Price: 110})
	registry.OnDataUpdate()
	require.Equal(t, "+10.00%", current.PercentText())
}

func TestCurrentPriceLine_DisableHidesEverything(t *testing.T) {
	_, _, registry := newTestChart(t)

	current := NewCurrentPriceLine("current", Options{ShowPercent: true})
	require.NoError(t, registry.Add(current))
	registry.OnDataUpdate()

	current.SetEnabled(false)
	for _, el := range current.Elements() {
		require.False(t, el.Visible, "element %s should be hidden", el.ID)
	}

	// A resize while disabled must not resurface the elements.
	registry.OnResize()
	for _, el := range current.Elements() {
		require.False(t, el.Visible, "element %s resurfaced on resize", el.ID)
	}
}
