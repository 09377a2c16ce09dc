package overlay

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// setupMeasure registers a price guide and a range measure together,
// the pairing whose coordination the tool depends on.
func setupMeasure(t *testing.T) (*Dispatcher, *PriceGuide, *RangeMeasure) {
	t.Helper()

	_, events, registry := newTestChart(t)
	guide := NewPriceGuide("guide", Options{})
	measure := NewRangeMeasure("measure", Options{})
	require.NoError(t, registry.Add(guide))
	require.NoError(t, registry.Add(measure))
	return events, guide, measure
}

func TestRangeMeasure_ShortDragClearsAsClick(t *testing.T) {
	events, guide, measure := setupMeasure(t)

	events.Dispatch(PointerEvent{Kind: PointerDown, X: 400, Y: 100, Primary: true})
	require.True(t, measure.Measuring())
	require.False(t, guide.Enabled())

	// Released within 5px of the start: treated as a click, not a band.
	events.Dispatch(PointerEvent{Kind: PointerMove, X: 400, Y: 103})
	events.Dispatch(PointerEvent{Kind: PointerUp, X: 400, Y: 103})

	require.False(t, measure.Measuring())
	require.False(t, measure.Held())
	require.False(t, measure.zone.Visible)
	require.True(t, guide.Enabled())
	require.False(t, events.Captured())
}

func TestRangeMeasure_TallDragHoldsBand(t *testing.T) {
	events, guide, measure := setupMeasure(t)

	events.Dispatch(PointerEvent{Kind: PointerDown, X: 400, Y: 100, Primary: true})
	events.Dispatch(PointerEvent{Kind: PointerMove, X: 400, Y: 200})
	events.Dispatch(PointerEvent{Kind: PointerUp, X: 400, Y: 200})

	require.True(t, measure.Held())
	require.False(t, guide.Enabled())
	require.False(t, events.Captured())

	require.True(t, measure.zone.Visible)
	require.InDelta(t, 100, measure.zone.Y, 1e-9)
	require.InDelta(t, 200, measure.zone.Y2, 1e-9)
	require.Equal(t, "177.14", measure.topLabel.Text)
	require.Equal(t, "148.57", measure.bottomLabel.Text)

	// 100px of band comfortably clears the percent-label threshold.
	require.True(t, measure.spanLabel.Visible)
	require.Equal(t, "19.23%", measure.spanLabel.Text)
}

func TestRangeMeasure_ClickClearsHeldBand(t *testing.T) {
	events, guide, measure := setupMeasure(t)

	events.Dispatch(PointerEvent{Kind: PointerDown, X: 400, Y: 100, Primary: true})
	events.Dispatch(PointerEvent{Kind: PointerMove, X: 400, Y: 200})
	events.Dispatch(PointerEvent{Kind: PointerUp, X: 400, Y: 200})
	require.True(t, measure.Held())

	events.Dispatch(PointerEvent{Kind: PointerClick, X: 50, Y: 50})

	require.False(t, measure.Held())
	require.False(t, measure.zone.Visible)
	require.True(t, guide.Enabled())
}

func TestRangeMeasure_NarrowBandSkipsPercentLabel(t *testing.T) {
	events, _, measure := setupMeasure(t)

	// 15px of band: enough to hold, not enough for the percent label.
	events.Dispatch(PointerEvent{Kind: PointerDown, X: 400, Y: 100, Primary: true})
	events.Dispatch(PointerEvent{Kind: PointerMove, X: 400, Y: 115})
	events.Dispatch(PointerEvent{Kind: PointerUp, X: 400, Y: 115})

	require.True(t, measure.Held())
	require.True(t, measure.topLabel.Visible)
	require.True(t, measure.bottomLabel.Visible)
	require.False(t, measure.spanLabel.Visible)
}

func TestRangeMeasure_LeavesIndependentlyDisabledGuideAlone(t *testing.T) {
	events, guide, measure := setupMeasure(t)

	guide.SetEnabled(false)

	events.Dispatch(PointerEvent{Kind: PointerDown, X: 400, Y: 100, Primary: true})
	events.Dispatch(PointerEvent{Kind: PointerMove, X: 400, Y: 200})
	events.Dispatch(PointerEvent{Kind: PointerUp, X: 400, Y: 200})
	events.Dispatch(PointerEvent{Kind: PointerClick, X: 50, Y: 50})

	// The guide was off before the measurement; clearing must not turn
	// it back on.
	require.False(t, guide.Enabled())
	require.False(t, measure.Held())
}

func TestRangeMeasure_DisableAbortsAndRestoresGuide(t *testing.T) {
	events, guide, measure := setupMeasure(t)

	events.Dispatch(PointerEvent{Kind: PointerDown, X: 400, Y: 100, Primary: true})
	events.Dispatch(PointerEvent{Kind: PointerMove, X: 400, Y: 200})
	require.True(t, measure.Measuring())

	measure.SetEnabled(false)

	require.False(t, measure.Measuring())
	require.False(t, measure.zone.Visible)
	require.True(t, guide.Enabled())
	require.False(t, events.Captured())
}

func TestRangeMeasure_IgnoresDownOutsidePlot(t *testing.T) {
	events, guide, measure := setupMeasure(t)

	events.Dispatch(PointerEvent{Kind: PointerDown, X: 400, Y: 5, Primary: true})
	require.False(t, measure.Measuring())
	require.True(t, guide.Enabled())
}

func TestRangeMeasure_IgnoresDownOnElement(t *testing.T) {
	events, _, measure := setupMeasure(t)

	events.Dispatch(PointerEvent{Kind: PointerDown, X: 400, Y: 100, Target: "guide/price", Primary: true})
	require.False(t, measure.Measuring())
}

func TestRangeMeasure_GuideStaysHiddenWhileDragging(t *testing.T) {
	events, guide, measure := setupMeasure(t)

	events.Dispatch(PointerEvent{Kind: PointerDown, X: 400, Y: 100, Primary: true})
	require.True(t, measure.Measuring())

	// Moves are captured by the measurement; the guide never shows.
	events.Dispatch(PointerEvent{Kind: PointerMove, X: 400, Y: 150})
	require.False(t, guide.Visible())
}
