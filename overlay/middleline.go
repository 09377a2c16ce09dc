package overlay

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// MiddleLine marks the arithmetic middle between the highest and lowest
// price of the whole visible series. The label shows the mid-price; a
// detail badge, visible only when ShowPercent is set, reports the
// high-low spread and the spread as a percentage of the mid-price.
//
// Recognized options: Color, Style, Position, ShowPercent.
type MiddleLine struct {
	id      string
	opts    Options
	host    *Registry
	enabled bool

	line   *PriceLine
	detail *Element
}

// NewMiddleLine creates the mid-price overlay.
func NewMiddleLine(id string, opts Options) *MiddleLine {
	if opts.Color == "" {
		opts.Color = "#9598a1"
	}
	if opts.Style == "" {
		opts.Style = StyleDashed
	}
	return &MiddleLine{
		id:      id,
		opts:    opts,
		enabled: true,
	}
}

func (m *MiddleLine) ID() string { return m.id }

func (m *MiddleLine) Kind() Kind { return KindMiddleLine }

func (m *MiddleLine) Initialize(host *Registry) {
	m.host = host

	m.line = NewPriceLine(m.id, Options{
		Price:    1, // repriced from data on every render
		Color:    m.opts.Color,
		Style:    m.opts.Style,
		Position: m.opts.Position,
	})
	m.line.Initialize(host)

	m.detail = &Element{ID: m.id + "/detail", Kind: ElementBadge, Color: m.opts.Color}
}

// MiddlePrice computes (max + min) / 2 over the entire visible series.
// It is a pure function of the series: rendering any number of times
// yields the same value.
func (m *MiddleLine) MiddlePrice() (float64, bool) {
	series := m.host.Chart().Series()
	if len(series) == 0 {
		return 0, false
	}

	prices := make([]float64, len(series))
	for i, p := range series {
		prices[i] = p.Price
	}
	return (floats.Max(prices) + floats.Min(prices)) / 2, true
}

// Detail returns the spread description shown by the detail badge.
func (m *MiddleLine) Detail() string { return m.detail.Text }

func (m *MiddleLine) Render() {
	if !m.enabled {
		return
	}

	mid, ok := m.MiddlePrice()
	if !ok {
		m.Clear()
		return
	}

	series := m.host.Chart().Series()
	prices := make([]float64, len(series))
	for i, p := range series {
		prices[i] = p.Price
	}
	spread := floats.Max(prices) - floats.Min(prices)

	m.line.SetPrice(mid)
	m.line.SetLabelText(formatPrice(mid))
	m.line.Render()

	m.detail.Text = fmt.Sprintf("%.2f (%.2f%%)", spread, percentChange(mid, mid+spread))
	m.positionDetail()
}

func (m *MiddleLine) positionDetail() {
	scales, ok := m.host.Chart().Scales()
	if !ok || !m.opts.ShowPercent {
		m.detail.Hide()
		return
	}

	dims := m.host.Chart().Dimensions()
	offset := badgeOffset
	fontSize := labelFontSize
	if dims.Narrow() {
		offset = badgeOffsetNarrow
		fontSize = labelFontSizeNarrow
	}

	m.detail.X = m.line.label.X
	m.detail.Anchor = m.line.label.Anchor
	m.detail.Y = dims.Margin.Top + scales.PriceToY(m.line.Price()) + offset
	m.detail.FontSize = fontSize
	m.detail.Visible = true
}

func (m *MiddleLine) Clear() {
	m.line.Clear()
	m.detail.Hide()
}

func (m *MiddleLine) SetEnabled(enabled bool) {
	if m.enabled == enabled {
		return
	}
	m.enabled = enabled
	m.line.SetEnabled(enabled)

	if enabled {
		m.Render()
	} else {
		m.detail.Hide()
	}
}

func (m *MiddleLine) Enabled() bool { return m.enabled }

func (m *MiddleLine) OnResize() {
	m.line.OnResize()
	if m.enabled {
		m.positionDetail()
	}
}

func (m *MiddleLine) OnDataUpdate() { m.Render() }

func (m *MiddleLine) Elements() []*Element {
	return append(m.line.Elements(), m.detail)
}

func (m *MiddleLine) Dispose() {
	m.Clear()
	m.line.Dispose()
}
