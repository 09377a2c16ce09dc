package overlay

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Test geometry: plot area is 730x350 with a 20px top margin and a
// price domain of [100, 200], so price p sits at Y = 20 + (200-p)*3.5.

func TestMovableLine_DragRepricesAndFiresOnMoveOnce(t *testing.T) {
	_, events, registry := newTestChart(t)

	var moved []float64
	line := NewMovableLine("ml", Options{
		Price:  150,
		OnMove: func(price float64) { moved = append(moved, price) },
	})
	require.NoError(t, registry.Add(line))

	// Grab the label at the line's current position (price 150 -> Y 195).
	events.Dispatch(PointerEvent{Kind: PointerDown, X: 700, Y: 195, Target: "ml/label", Primary: true})
	require.True(t, line.Dragging())
	require.True(t, events.Captured())

	// 87.5px above the plot top is price 175.
	events.Dispatch(PointerEvent{Kind: PointerMove, X: 700, Y: 107.5})
	require.InDelta(t, 175, line.Price(), 1e-9)
	require.Empty(t, moved)

	events.Dispatch(PointerEvent{Kind: PointerUp, X: 700, Y: 107.5})
	require.False(t, line.Dragging())
	require.False(t, events.Captured())
	require.Equal(t, []float64{175}, moved)
}

func TestMovableLine_DragClampsToPlotBounds(t *testing.T) {
	_, events, registry := newTestChart(t)

	line := NewMovableLine("ml", Options{Price: 150})
	require.NoError(t, registry.Add(line))

	events.Dispatch(PointerEvent{Kind: PointerDown, X: 700, Y: 195, Target: "ml/label", Primary: true})

	// Far above the chart: clamps to the top edge, the domain maximum.
	events.Dispatch(PointerEvent{Kind: PointerMove, X: 700, Y: -300})
	require.InDelta(t, 200, line.Price(), 1e-9)

	// Far below: clamps to the bottom edge, the domain minimum.
	events.Dispatch(PointerEvent{Kind: PointerMove, X: 700, Y: 1000})
	require.InDelta(t, 100, line.Price(), 1e-9)
}

func TestMovableLine_IgnoresDownOffLabel(t *testing.T) {
	_, events, registry := newTestChart(t)

	line := NewMovableLine("ml", Options{Price: 150})
	require.NoError(t, registry.Add(line))

	events.Dispatch(PointerEvent{Kind: PointerDown, X: 400, Y: 195, Target: "", Primary: true})
	require.False(t, line.Dragging())

	events.Dispatch(PointerEvent{Kind: PointerDown, X: 700, Y: 195, Target: "ml/label", Primary: false})
	require.False(t, line.Dragging())
}

func TestMovableLine_DisableCancelsDrag(t *testing.T) {
	_, events, registry := newTestChart(t)

	var moved int
	line := NewMovableLine("ml", Options{
		Price:  150,
		OnMove: func(float64) { moved++ },
	})
	require.NoError(t, registry.Add(line))

	events.Dispatch(PointerEvent{Kind: PointerDown, X: 700, Y: 195, Target: "ml/label", Primary: true})
	events.Dispatch(PointerEvent{Kind: PointerMove, X: 700, Y: 107.5})
	require.True(t, line.Dragging())

	line.SetEnabled(false)
	require.False(t, line.Dragging())
	require.False(t, events.Captured())

	// Events after the cancel neither reprice nor complete the drag.
	priceBefore := line.Price()
	events.Dispatch(PointerEvent{Kind: PointerMove, X: 700, Y: 300})
	events.Dispatch(PointerEvent{Kind: PointerUp, X: 700, Y: 300})
	require.Equal(t, priceBefore, line.Price())
	require.Zero(t, moved)
}

func TestMovableLine_DisabledIgnoresPointerDown(t *testing.T) {
	_, events, registry := newTestChart(t)

	line := NewMovableLine("ml", Options{Price: 150})
	require.NoError(t, registry.Add(line))
	line.SetEnabled(false)

	events.Dispatch(PointerEvent{Kind: PointerDown, X: 700, Y: 195, Target: "ml/label", Primary: true})
	require.False(t, line.Dragging())
	require.False(t, events.Captured())
}
