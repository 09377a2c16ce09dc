package overlay

import (
	"fmt"
	"time"
)

const (
	// tapHideDelay auto-hides a tap-shown guide on pure-touch surfaces
	// that have no hover to leave.
	tapHideDelay = 3000 * time.Millisecond

	percentLabelOffset       = 16.0
	percentLabelOffsetNarrow = 12.0
)

// PriceGuide follows the pointer with a horizontal guide line, a price
// label at the pointer's price, and a percent label showing the delta
// against the latest series price. It hides outside the vertical plot
// bounds and on pointer-leave. Touch taps show the guide and auto-hide
// it after three seconds. With the Movable option set, the price label
// becomes a drag handle mirroring MovableLine's protocol.
//
// Recognized options: Color, ShowPercent, Movable, OnMove.
type PriceGuide struct {
	id      string
	opts    Options
	host    *Registry
	enabled bool
	visible bool

	line    *Element
	price   *Element
	percent *Element

	sub      *Subscription
	drag     *dragControl
	tapTimer *time.Timer
}

// NewPriceGuide creates the pointer-follow overlay.
func NewPriceGuide(id string, opts Options) *PriceGuide {
	if opts.Color == "" {
		opts.Color = "#b2b5be"
	}
	return &PriceGuide{
		id:      id,
		opts:    opts,
		enabled: true,
	}
}

func (g *PriceGuide) ID() string { return g.id }

func (g *PriceGuide) Kind() Kind { return KindPriceGuide }

func (g *PriceGuide) Initialize(host *Registry) {
	g.host = host

	g.line = &Element{ID: g.id + "/line", Kind: ElementLine, Color: g.opts.Color, Style: StyleDashed}
	g.price = &Element{ID: g.id + "/price", Kind: ElementLabel, Color: g.opts.Color}
	g.percent = &Element{ID: g.id + "/percent", Kind: ElementBadge}

	if g.opts.Movable {
		g.drag = &dragControl{
			chart:  host.Chart(),
			events: host.Events(),
			update: func(price float64) { g.showAtPrice(price) },
			done: func(price float64) {
				if g.opts.OnMove != nil {
					g.opts.OnMove(price)
				}
			},
		}
	}

	g.sub = host.Events().Subscribe(g.onPointer)
}

// Visible reports whether the guide is currently shown.
func (g *PriceGuide) Visible() bool { return g.visible }

func (g *PriceGuide) onPointer(ev PointerEvent) {
	if !g.enabled {
		return
	}

	switch ev.Kind {
	case PointerMove:
		g.followPointer(ev)

	case PointerDown:
		if g.drag != nil && ev.Primary && ev.Target == g.price.ID && !g.drag.Active() {
			scales, ok := g.host.Chart().Scales()
			if !ok {
				return
			}
			top := g.host.Chart().Dimensions().Margin.Top
			g.drag.Start(ev, scales.ClampY(ev.Y-top))
			return
		}
		if ev.Source == SourceTouch && ev.Target == "" {
			g.followPointer(ev)
			g.armTapHide()
		}

	case PointerLeave:
		g.Clear()
	}
}

// followPointer shows the guide at the pointer's vertical position when
// it is inside the plot bounds, and hides it otherwise.
func (g *PriceGuide) followPointer(ev PointerEvent) {
	scales, ok := g.host.Chart().Scales()
	if !ok {
		g.Clear()
		return
	}

	dims := g.host.Chart().Dimensions()
	top := dims.Margin.Top
	if ev.Y < top || ev.Y > top+scales.PlotHeight() {
		g.Clear()
		return
	}

	g.showAtPrice(scales.YToPrice(ev.Y - top))
}

// showAtPrice positions the guide elements for a given price level.
func (g *PriceGuide) showAtPrice(price float64) {
	scales, ok := g.host.Chart().Scales()
	if !ok {
		g.Clear()
		return
	}

	dims := g.host.Chart().Dimensions()
	y := dims.Margin.Top + scales.PriceToY(price)

	edgeOffset := labelEdgeOffset
	fontSize := labelFontSize
	pctOffset := percentLabelOffset
	if dims.Narrow() {
		edgeOffset = labelEdgeOffsetNarrow
		fontSize = labelFontSizeNarrow
		pctOffset = percentLabelOffsetNarrow
	}

	g.line.X = dims.Margin.Left
	g.line.X2 = dims.Margin.Left + dims.PlotWidth()
	g.line.Y = y
	g.line.Y2 = y
	g.line.Visible = true

	g.price.X = dims.Width - dims.Margin.Right - edgeOffset
	g.price.Anchor = PositionRight
	g.price.Y = y
	g.price.Text = formatPrice(price)
	g.price.FontSize = fontSize
	g.price.Visible = true

	if g.opts.ShowPercent {
		if last, ok := g.host.Chart().Last(); ok {
			pct := percentChange(last.Price, price)
			g.percent.Text = fmt.Sprintf("%+.2f%%", pct)
			if pct >= 0 {
				g.percent.Color = colorUp
			} else {
				g.percent.Color = colorDown
			}
			g.percent.X = g.price.X
			g.percent.Anchor = g.price.Anchor
			g.percent.Y = y + pctOffset
			g.percent.FontSize = fontSize
			g.percent.Visible = true
		}
	}

	g.visible = true
}

// armTapHide (re)schedules the touch auto-hide. The callback is brought
// back onto the host loop through the registry runner.
func (g *PriceGuide) armTapHide() {
	if g.tapTimer != nil {
		g.tapTimer.Stop()
	}
	g.tapTimer = time.AfterFunc(tapHideDelay, func() {
		g.host.sync(func() { g.Clear() })
	})
}

// Render has nothing to draw until the pointer produces a position; a
// data update while visible reprojects the current elements.
func (g *PriceGuide) Render() {
	if !g.enabled || !g.visible {
		return
	}

	scales, ok := g.host.Chart().Scales()
	if !ok {
		g.Clear()
		return
	}

	top := g.host.Chart().Dimensions().Margin.Top
	g.showAtPrice(scales.YToPrice(g.line.Y - top))
}

func (g *PriceGuide) Clear() {
	g.visible = false
	g.line.Hide()
	g.price.Hide()
	g.percent.Hide()
}

func (g *PriceGuide) SetEnabled(enabled bool) {
	if g.enabled == enabled {
		return
	}
	g.enabled = enabled

	if !enabled {
		if g.drag != nil {
			g.drag.Cancel()
		}
		if g.tapTimer != nil {
			g.tapTimer.Stop()
			g.tapTimer = nil
		}
		g.Clear()
	}
}

func (g *PriceGuide) Enabled() bool { return g.enabled }

// OnResize drops the guide: the pointer position that produced it is
// meaningless in the new geometry, and the next move reshows it.
func (g *PriceGuide) OnResize() { g.Clear() }

func (g *PriceGuide) OnDataUpdate() { g.Render() }

func (g *PriceGuide) Elements() []*Element {
	return []*Element{g.line, g.price, g.percent}
}

func (g *PriceGuide) Dispose() {
	if g.drag != nil {
		g.drag.Cancel()
	}
	if g.tapTimer != nil {
		g.tapTimer.Stop()
		g.tapTimer = nil
	}
	g.sub.Cancel()
	g.Clear()
}
