package overlay

import "fmt"

const (
	colorUp   = "#26a69a"
	colorDown = "#ef5350"

	badgeOffset       = 18.0
	badgeOffsetNarrow = 14.0
)

// CurrentPriceLine tracks the most recent point of the series with a
// price line and a percent badge. The badge shows the change against
// the previously rendered price, not against a fixed baseline, so it
// reflects tick-to-tick movement.
//
// Recognized options: Color, Position, ShowBullet, ShowPercent.
type CurrentPriceLine struct {
	id      string
	opts    Options
	host    *Registry
	enabled bool

	line  *PriceLine
	badge *Element

	prevPrice float64
	hasPrev   bool
}

// NewCurrentPriceLine creates the latest-price tracking overlay.
func NewCurrentPriceLine(id string, opts Options) *CurrentPriceLine {
	if opts.Color == "" {
		opts.Color = "#2962ff"
	}
	return &CurrentPriceLine{
		id:      id,
		opts:    opts,
		enabled: true,
	}
}

func (c *CurrentPriceLine) ID() string { return c.id }

func (c *CurrentPriceLine) Kind() Kind { return KindCurrentPrice }

func (c *CurrentPriceLine) Initialize(host *Registry) {
	c.host = host

	// Seed the inner line with the latest price when data is already
	// present; otherwise it starts at zero and clears until data arrives.
	price := 0.0
	if last, ok := host.Chart().Last(); ok {
		price = last.Price
	}

	c.line = NewPriceLine(c.id, Options{
		Price:      price,
		Color:      c.opts.Color,
		Style:      StyleDashed,
		Position:   c.opts.Position,
		ShowBullet: c.opts.ShowBullet,
	})
	c.line.Initialize(host)

	c.badge = &Element{ID: c.id + "/percent", Kind: ElementBadge}
}

// PercentText returns the currently displayed percent badge text, empty
// until a second distinct price has been rendered.
func (c *CurrentPriceLine) PercentText() string { return c.badge.Text }

func (c *CurrentPriceLine) Render() {
	if !c.enabled {
		return
	}

	last, ok := c.host.Chart().Last()
	if !ok {
		c.Clear()
		return
	}

	price := last.Price
	c.line.SetPrice(price)
	c.line.SetLabelText(formatPrice(price))
	c.line.Render()

	if c.hasPrev && price != c.prevPrice {
		pct := percentChange(c.prevPrice, price)
		c.badge.Text = fmt.Sprintf("%+.2f%%", pct)
		if pct >= 0 {
			c.badge.Color = colorUp
		} else {
			c.badge.Color = colorDown
		}
		c.prevPrice = price
	} else if !c.hasPrev {
		c.prevPrice = price
		c.hasPrev = true
	}

	c.positionBadge()
}

func (c *CurrentPriceLine) positionBadge() {
	scales, ok := c.host.Chart().Scales()
	if !ok || c.badge.Text == "" || !c.opts.ShowPercent {
		c.badge.Hide()
		return
	}

	dims := c.host.Chart().Dimensions()
	offset := badgeOffset
	fontSize := labelFontSize
	if dims.Narrow() {
		offset = badgeOffsetNarrow
		fontSize = labelFontSizeNarrow
	}

	c.badge.X = c.line.label.X
	c.badge.Anchor = c.line.label.Anchor
	c.badge.Y = dims.Margin.Top + scales.PriceToY(c.line.Price()) - offset
	c.badge.FontSize = fontSize
	c.badge.Visible = true
}

func (c *CurrentPriceLine) Clear() {
	c.line.Clear()
	c.badge.Hide()
}

func (c *CurrentPriceLine) SetEnabled(enabled bool) {
	if c.enabled == enabled {
		return
	}
	c.enabled = enabled
	c.line.SetEnabled(enabled)

	if enabled {
		c.Render()
	} else {
		c.badge.Hide()
	}
}

func (c *CurrentPriceLine) Enabled() bool { return c.enabled }

func (c *CurrentPriceLine) OnResize() {
	c.line.OnResize()
	if c.enabled {
		c.positionBadge()
	}
}

func (c *CurrentPriceLine) OnDataUpdate() { c.Render() }

func (c *CurrentPriceLine) Elements() []*Element {
	return append(c.line.Elements(), c.badge)
}

func (c *CurrentPriceLine) Dispose() {
	c.Clear()
	c.line.Dispose()
}
