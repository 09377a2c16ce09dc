package overlay

import "strconv"

// PriceLine draws a horizontal line at a fixed price with an edge label
// and an optional bullet marker.
//
// Recognized options: Price (required), Color, Style, Label, Icon,
// Position, ShowBullet.
type PriceLine struct {
	id      string
	opts    Options
	host    *Registry
	enabled bool

	line   *Element
	label  *Element
	bullet *Element
}

// NewPriceLine creates a price line overlay with the given registry key.
func NewPriceLine(id string, opts Options) *PriceLine {
	if opts.Color == "" {
		opts.Color = "#787b86"
	}
	if opts.Style == "" {
		opts.Style = StyleSolid
	}
	if opts.Position == "" {
		opts.Position = PositionRight
	}

	return &PriceLine{
		id:      id,
		opts:    opts,
		enabled: true,
	}
}

func (p *PriceLine) ID() string { return p.id }

func (p *PriceLine) Kind() Kind { return KindPriceLine }

// Initialize binds the host and creates the owned elements. A missing
// price level is logged and treated as zero; the chart keeps running
// with a visibly wrong line instead of failing.
func (p *PriceLine) Initialize(host *Registry) {
	p.host = host

	if p.opts.Price == 0 {
		host.Logger().Warnf("overlay %s: no price configured, defaulting to 0", p.id)
	}

	p.line = &Element{ID: p.id + "/line", Kind: ElementLine, Color: p.opts.Color, Style: p.opts.Style}
	p.label = &Element{ID: p.id + "/label", Kind: ElementLabel, Color: p.opts.Color}
	p.bullet = &Element{ID: p.id + "/bullet", Kind: ElementBullet, Color: p.opts.Color}
}

// Price returns the current price level of the line.
func (p *PriceLine) Price() float64 { return p.opts.Price }

// SetPrice moves the line to a new price level. The caller is expected
// to follow up with a render.
func (p *PriceLine) SetPrice(price float64) { p.opts.Price = price }

// SetLabelText overrides the label text for the next render.
func (p *PriceLine) SetLabelText(text string) { p.opts.Label = text }

func (p *PriceLine) Render() {
	if !p.enabled {
		return
	}
	p.reposition(true)
}

func (p *PriceLine) Clear() {
	p.line.Hide()
	p.label.Hide()
	p.bullet.Hide()
}

func (p *PriceLine) SetEnabled(enabled bool) {
	if p.enabled == enabled {
		return
	}
	p.enabled = enabled

	if enabled {
		p.Render()
	} else {
		p.Clear()
	}
}

func (p *PriceLine) Enabled() bool { return p.enabled }

// OnResize repositions even while disabled so the geometry is current
// the moment the line is re-enabled.
func (p *PriceLine) OnResize() { p.reposition(p.enabled) }

func (p *PriceLine) OnDataUpdate() { p.Render() }

func (p *PriceLine) Elements() []*Element {
	return []*Element{p.line, p.label, p.bullet}
}

func (p *PriceLine) Dispose() { p.Clear() }

// labelID is the hit target the drag handle of a movable line listens on.
func (p *PriceLine) labelID() string { return p.label.ID }

// lineY returns the plot-relative Y of the line for the current scales.
func (p *PriceLine) lineY() (float64, bool) {
	scales, ok := p.host.Chart().Scales()
	if !ok {
		return 0, false
	}
	return scales.PriceToY(p.opts.Price), true
}

// reposition recomputes all element geometry from the chart state. When
// show is false the elements are laid out but stay hidden.
func (p *PriceLine) reposition(show bool) {
	scales, ok := p.host.Chart().Scales()
	if !ok {
		p.Clear()
		return
	}

	dims := p.host.Chart().Dimensions()
	y := dims.Margin.Top + scales.PriceToY(p.opts.Price)

	edgeOffset := labelEdgeOffset
	fontSize := labelFontSize
	if dims.Narrow() {
		edgeOffset = labelEdgeOffsetNarrow
		fontSize = labelFontSizeNarrow
	}

	p.line.X = dims.Margin.Left
	p.line.X2 = dims.Margin.Left + dims.PlotWidth()
	p.line.Y = y
	p.line.Y2 = y
	p.line.Visible = show

	text := p.opts.Label
	if text == "" {
		text = formatPrice(p.opts.Price)
	}
	if p.opts.Icon != "" {
		text = p.opts.Icon + " " + text
	}

	if p.opts.Position == PositionLeft {
		p.label.X = dims.Margin.Left + edgeOffset
		p.label.Anchor = PositionLeft
		p.bullet.X = dims.Margin.Left
	} else {
		p.label.X = dims.Width - dims.Margin.Right - edgeOffset
		p.label.Anchor = PositionRight
		p.bullet.X = dims.Margin.Left + dims.PlotWidth()
	}

	p.label.Y = y
	p.label.Text = text
	p.label.FontSize = fontSize
	p.label.Visible = show

	p.bullet.Y = y
	p.bullet.Visible = show && p.opts.ShowBullet
}

func formatPrice(price float64) string {
	return strconv.FormatFloat(price, 'f', 2, 64)
}
