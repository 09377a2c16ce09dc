package overlay

import (
	"fmt"
	"math"
)

const (
	// clickClearSpan: a release within this many pixels of the start is a
	// click, which clears the measurement instead of holding it.
	clickClearSpan = 5.0

	// percentVisibleSpan: the percent-span label only appears once the
	// band is tall enough to fit it.
	percentVisibleSpan = 30.0
)

type measureState int8

const (
	measureIdle measureState = iota
	measureDragging
	measureHeld
)

// RangeMeasure is the drag-to-measure tool: press inside the plot, drag
// vertically, and a shaded band shows the covered price interval with
// both edge prices and the percent span. A sufficiently tall band stays
// on release ("held") until a click anywhere clears it. The price guide
// is suspended while a measurement is active and restored when it
// clears, unless the guide was disabled independently.
//
// Recognized options: Color (band fill), Style.
type RangeMeasure struct {
	id      string
	opts    Options
	host    *Registry
	enabled bool

	zone        *Element
	topLabel    *Element
	bottomLabel *Element
	spanLabel   *Element

	state          measureState
	startY         float64 // plot-relative
	lastY          float64 // plot-relative
	capture        *Subscription
	sub            *Subscription
	guideSuspended bool
}

// NewRangeMeasure creates the range measurement overlay.
func NewRangeMeasure(id string, opts Options) *RangeMeasure {
	if opts.Color == "" {
		opts.Color = "#2962ff33"
	}
	return &RangeMeasure{
		id:      id,
		opts:    opts,
		enabled: true,
	}
}

func (r *RangeMeasure) ID() string { return r.id }

func (r *RangeMeasure) Kind() Kind { return KindRangeMeasure }

func (r *RangeMeasure) Initialize(host *Registry) {
	r.host = host

	r.zone = &Element{ID: r.id + "/zone", Kind: ElementZone, Color: r.opts.Color}
	r.topLabel = &Element{ID: r.id + "/top", Kind: ElementLabel}
	r.bottomLabel = &Element{ID: r.id + "/bottom", Kind: ElementLabel}
	r.spanLabel = &Element{ID: r.id + "/span", Kind: ElementBadge}

	r.sub = host.Events().Subscribe(r.onPointer)
}

// State accessors used by the chart host and tests.

// Measuring reports whether a drag is in progress.
func (r *RangeMeasure) Measuring() bool { return r.state == measureDragging }

// Held reports whether a finished measurement is pinned on screen.
func (r *RangeMeasure) Held() bool { return r.state == measureHeld }

func (r *RangeMeasure) onPointer(ev PointerEvent) {
	if !r.enabled {
		return
	}

	switch r.state {
	case measureIdle:
		if ev.Kind != PointerDown || !ev.Primary || ev.Target != "" {
			return
		}
		r.beginMeasure(ev)

	case measureHeld:
		if ev.Kind == PointerClick {
			r.clearMeasure()
		}
	}
}

func (r *RangeMeasure) beginMeasure(ev PointerEvent) {
	scales, ok := r.host.Chart().Scales()
	if !ok {
		return
	}

	dims := r.host.Chart().Dimensions()
	top := dims.Margin.Top
	if ev.Y < top || ev.Y > top+scales.PlotHeight() {
		return
	}

	capture := r.host.Events().Capture(r.onDrag)
	if capture == nil {
		return
	}

	r.capture = capture
	r.state = measureDragging
	r.startY = scales.ClampY(ev.Y - top)
	r.lastY = r.startY
	r.suspendGuide()
	r.renderBand()
}

// onDrag receives every pointer event while the measurement capture is
// held.
func (r *RangeMeasure) onDrag(ev PointerEvent) {
	switch ev.Kind {
	case PointerMove:
		scales, ok := r.host.Chart().Scales()
		if !ok {
			return
		}
		top := r.host.Chart().Dimensions().Margin.Top
		r.lastY = scales.ClampY(ev.Y - top)
		r.renderBand()

	case PointerUp:
		r.releaseCapture()
		if math.Abs(r.lastY-r.startY) < clickClearSpan {
			r.clearMeasure()
			return
		}
		r.state = measureHeld
	}
}

// renderBand lays the shaded zone and its labels over [startY, lastY].
func (r *RangeMeasure) renderBand() {
	scales, ok := r.host.Chart().Scales()
	if !ok {
		r.Clear()
		return
	}

	dims := r.host.Chart().Dimensions()
	top := dims.Margin.Top

	highY := math.Min(r.startY, r.lastY)
	lowY := math.Max(r.startY, r.lastY)
	topPrice := scales.YToPrice(highY)
	bottomPrice := scales.YToPrice(lowY)

	fontSize := labelFontSize
	if dims.Narrow() {
		fontSize = labelFontSizeNarrow
	}

	r.zone.X = dims.Margin.Left
	r.zone.X2 = dims.Margin.Left + dims.PlotWidth()
	r.zone.Y = top + highY
	r.zone.Y2 = top + lowY
	r.zone.Visible = true

	r.topLabel.X = dims.Width - dims.Margin.Right - labelEdgeOffset
	r.topLabel.Anchor = PositionRight
	r.topLabel.Y = top + highY
	r.topLabel.Text = formatPrice(topPrice)
	r.topLabel.FontSize = fontSize
	r.topLabel.Visible = true

	r.bottomLabel.X = r.topLabel.X
	r.bottomLabel.Anchor = PositionRight
	r.bottomLabel.Y = top + lowY
	r.bottomLabel.Text = formatPrice(bottomPrice)
	r.bottomLabel.FontSize = fontSize
	r.bottomLabel.Visible = true

	if lowY-highY >= percentVisibleSpan {
		r.spanLabel.Text = fmt.Sprintf("%.2f%%", percentSpan(topPrice, bottomPrice))
		r.spanLabel.X = dims.Margin.Left + dims.PlotWidth()/2
		r.spanLabel.Y = top + (highY+lowY)/2
		r.spanLabel.FontSize = fontSize
		r.spanLabel.Visible = true
	} else {
		r.spanLabel.Hide()
	}
}

// percentSpan is the band height as a percentage of its lower price.
func percentSpan(topPrice, bottomPrice float64) float64 {
	if bottomPrice == 0 {
		return 0
	}
	return math.Abs(topPrice-bottomPrice) / bottomPrice * 100
}

// suspendGuide disables the price guide for the duration of the
// measurement, remembering whether it was this overlay that did it.
func (r *RangeMeasure) suspendGuide() {
	guide, ok := r.host.GetByKind(KindPriceGuide)
	if !ok || !guide.Enabled() {
		return
	}
	guide.SetEnabled(false)
	r.guideSuspended = true
}

// restoreGuide re-enables the price guide if, and only if, this overlay
// suspended it.
func (r *RangeMeasure) restoreGuide() {
	if !r.guideSuspended {
		return
	}
	r.guideSuspended = false
	if guide, ok := r.host.GetByKind(KindPriceGuide); ok {
		guide.SetEnabled(true)
	}
}

func (r *RangeMeasure) releaseCapture() {
	if r.capture != nil {
		r.capture.Cancel()
		r.capture = nil
	}
}

// clearMeasure returns to idle: hides the band and restores the guide.
func (r *RangeMeasure) clearMeasure() {
	r.releaseCapture()
	r.state = measureIdle
	r.Clear()
	r.restoreGuide()
}

// Render only refreshes an already-held band; an idle tool draws
// nothing until the user drags.
func (r *RangeMeasure) Render() {
	if !r.enabled || r.state == measureIdle {
		return
	}
	r.renderBand()
}

func (r *RangeMeasure) Clear() {
	r.zone.Hide()
	r.topLabel.Hide()
	r.bottomLabel.Hide()
	r.spanLabel.Hide()
}

// SetEnabled(false) aborts any active measurement and re-enables the
// price guide as a side effect.
func (r *RangeMeasure) SetEnabled(enabled bool) {
	if r.enabled == enabled {
		return
	}
	r.enabled = enabled

	if !enabled && r.state != measureIdle {
		r.clearMeasure()
	}
}

func (r *RangeMeasure) Enabled() bool { return r.enabled }

// OnResize reprojects a held band into the new geometry; an in-flight
// drag keeps its plot-relative anchors and reprojects as well.
func (r *RangeMeasure) OnResize() {
	if r.state == measureIdle {
		return
	}
	r.renderBand()
}

func (r *RangeMeasure) OnDataUpdate() { r.Render() }

func (r *RangeMeasure) Elements() []*Element {
	return []*Element{r.zone, r.topLabel, r.bottomLabel, r.spanLabel}
}

func (r *RangeMeasure) Dispose() {
	if r.state != measureIdle {
		r.clearMeasure()
	}
	r.sub.Cancel()
	r.Clear()
}
