package overlay

import (
	"testing"

	"github.com/raykavin/pricelens/chart"
	"github.com/raykavin/pricelens/core"
	zlogger "github.com/raykavin/pricelens/logger/zerolog"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func testLogger() core.Logger {
	l := zerolog.Nop()
	return zlogger.NewAdapter(&l)
}

func testDimensions() chart.Dimensions {
	return chart.Dimensions{
		Width:  800,
		Height: 400,
		Margin: chart.Margin{Top: 20, Right: 60, Bottom: 30, Left: 10},
	}
}

func testSeries() []chart.Point {
	return []chart.Point{
		{Timestamp: 1700000000000, Price: 100},
		{Timestamp: 1700086400000, Price: 150},
		{Timestamp: 1700172800000, Price: 200},
	}
}

// newTestChart builds a populated chart state, a dispatcher and a
// registry wired together the way the chart host does it.
func newTestChart(t *testing.T) (*chart.State, *Dispatcher, *Registry) {
	t.Helper()

	state := chart.NewState(testDimensions())
	state.SetSeries(testSeries())
	events := NewDispatcher()
	registry := NewRegistry(state, events, testLogger())
	return state, events, registry
}

// probeOverlay records its lifecycle notifications.
type probeOverlay struct {
	id          string
	enabled     bool
	element     *Element
	dataUpdates int
	resizes     int
	disposed    bool
}

func newProbe(id string) *probeOverlay {
	return &probeOverlay{id: id, enabled: true}
}

func (p *probeOverlay) ID() string              { return p.id }
func (p *probeOverlay) Kind() Kind              { return KindPriceLine }
func (p *probeOverlay) Initialize(_ *Registry)  { p.element = &Element{ID: p.id, Kind: ElementLine} }
func (p *probeOverlay) Render()                 {}
func (p *probeOverlay) Clear()                  { p.element.Hide() }
func (p *probeOverlay) SetEnabled(enabled bool) { p.enabled = enabled }
func (p *probeOverlay) Enabled() bool           { return p.enabled }
func (p *probeOverlay) OnResize()               { p.resizes++ }
func (p *probeOverlay) OnDataUpdate()           { p.dataUpdates++ }
func (p *probeOverlay) Elements() []*Element    { return []*Element{p.element} }
func (p *probeOverlay) Dispose()                { p.disposed = true }

func TestRegistry_AddRejectsDuplicateIDs(t *testing.T) {
	_, _, registry := newTestChart(t)

	require.NoError(t, registry.Add(newProbe("a")))
	require.Error(t, registry.Add(newProbe("a")))
}

func TestRegistry_GetByKind(t *testing.T) {
	_, _, registry := newTestChart(t)

	require.NoError(t, registry.Add(NewPriceGuide("guide", Options{})))
	require.NoError(t, registry.Add(NewRangeMeasure("measure", Options{})))

	found, ok := registry.GetByKind(KindPriceGuide)
	require.True(t, ok)
	require.Equal(t, "guide", found.ID())

	_, ok = registry.GetByKind(KindMiddleLine)
	require.False(t, ok)
}

func TestRegistry_DataUpdateSkipsDisabled(t *testing.T) {
	_, _, registry := newTestChart(t)

	first := newProbe("first")
	second := newProbe("second")
	require.NoError(t, registry.Add(first))
	require.NoError(t, registry.Add(second))

	second.SetEnabled(false)
	registry.OnDataUpdate()

	require.Equal(t, 1, first.dataUpdates)
	require.Equal(t, 0, second.dataUpdates)
}

func TestRegistry_ResizeReachesDisabled(t *testing.T) {
	_, _, registry := newTestChart(t)

	probe := newProbe("probe")
	require.NoError(t, registry.Add(probe))

	probe.SetEnabled(false)
	registry.OnResize()

	require.Equal(t, 1, probe.resizes)
}

func TestRegistry_OverlaysKeepInsertionOrder(t *testing.T) {
	_, _, registry := newTestChart(t)

	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, registry.Add(newProbe(id)))
	}

	var got []string
	for _, o := range registry.Overlays() {
		got = append(got, o.ID())
	}
	require.Equal(t, []string{"c", "a", "b"}, got)
}

func TestRegistry_RemoveDisposes(t *testing.T) {
	_, _, registry := newTestChart(t)

	probe := newProbe("probe")
	require.NoError(t, registry.Add(probe))
	require.NoError(t, registry.Add(newProbe("other")))

	registry.Remove("probe")

	require.True(t, probe.disposed)
	_, ok := registry.Get("probe")
	require.False(t, ok)
	require.Len(t, registry.Overlays(), 1)
}

func TestRegistry_BulkToggle(t *testing.T) {
	_, _, registry := newTestChart(t)

	first := newProbe("first")
	second := newProbe("second")
	require.NoError(t, registry.Add(first))
	require.NoError(t, registry.Add(second))

	registry.DisableAll()
	require.False(t, first.Enabled())
	require.False(t, second.Enabled())

	registry.EnableAll()
	require.True(t, first.Enabled())
	require.True(t, second.Enabled())
}
