// Package overlay implements the interactive chart overlays: horizontal
// price lines, the pointer-following price guide, the drag-to-measure
// range tool, and the registry that coordinates them. Overlays share one
// chart.State for geometry, own their visual elements exclusively, and
// reach each other only through the registry. Everything here runs on
// the chart host's event loop; there is no internal locking.
package overlay

// Kind identifies an overlay variant. RangeMeasure uses it to locate the
// price guide through the registry instead of holding a direct reference.
type Kind int8

const (
	KindPriceLine Kind = iota
	KindMovableLine
	KindCurrentPrice
	KindMiddleLine
	KindPriceGuide
	KindRangeMeasure
)

func (k Kind) String() string {
	switch k {
	case KindPriceLine:
		return "price_line"
	case KindMovableLine:
		return "movable_line"
	case KindCurrentPrice:
		return "current_price"
	case KindMiddleLine:
		return "middle_line"
	case KindPriceGuide:
		return "price_guide"
	case KindRangeMeasure:
		return "range_measure"
	default:
		return "unknown"
	}
}

// Overlay is a self-contained visual feature drawn on top of the chart.
// Render, OnResize and OnDataUpdate must never panic, whatever the chart
// state; an overlay that cannot draw clears itself instead.
type Overlay interface {
	// ID is the stable registry key of this overlay instance.
	ID() string

	// Kind reports the overlay variant for typed registry lookups.
	Kind() Kind

	// Initialize binds the overlay to its host and creates the owned
	// elements. It is called exactly once, by Registry.Add.
	Initialize(host *Registry)

	// Render recomputes geometry from current chart state and updates the
	// owned elements. A disabled overlay or an empty series clears instead.
	Render()

	// Clear hides the owned elements without destroying them.
	Clear()

	// SetEnabled toggles rendering and pointer reaction. Disabling cancels
	// any in-progress drag synchronously.
	SetEnabled(enabled bool)

	// Enabled reports whether the overlay is active.
	Enabled() bool

	// OnResize recomputes geometry unconditionally, even while disabled,
	// so a later re-enable never shows stale positions.
	OnResize()

	// OnDataUpdate is invoked by the registry after the series changed.
	OnDataUpdate()

	// Elements returns the visual elements owned by this overlay.
	Elements() []*Element

	// Dispose clears the overlay and releases its event subscriptions.
	Dispose()
}

// OnMoveFunc is invoked once at the end of a drag with the final price.
type OnMoveFunc func(price float64)

// Options is the configuration bag shared by the overlay variants. Each
// variant documents the keys it recognizes; unknown keys are ignored.
type Options struct {
	Price       float64
	Color       string
	Style       string // StyleSolid or StyleDashed
	Label       string
	Icon        string
	Position    string // PositionLeft or PositionRight
	ShowBullet  bool
	Movable     bool
	ShowPercent bool
	OnMove      OnMoveFunc
}

const (
	StyleSolid  = "solid"
	StyleDashed = "dashed"

	PositionLeft  = "left"
	PositionRight = "right"
)

// Label geometry: edge offsets and font sizes shrink below the narrow
// viewport breakpoint (chart.Dimensions.Narrow).
const (
	labelEdgeOffset       = 10.0
	labelEdgeOffsetNarrow = 6.0
	labelFontSize         = 12.0
	labelFontSizeNarrow   = 10.0
)

// percentChange returns the change from base to value as a percentage of
// the base. A zero base yields zero rather than an infinity.
func percentChange(base, value float64) float64 {
	if base == 0 {
		return 0
	}
	return (value - base) / base * 100
}
