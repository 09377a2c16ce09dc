// Package chart holds the shared chart state: the active price series,
// the plot-area geometry, and the price/time coordinate scales derived
// from them. The state is owned by the chart host and is read-only to
// overlays; all access happens on the host's event loop, so there is no
// internal locking.
package chart

// Margin is the blank space around the plot area, in pixels.
type Margin struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// Dimensions is the outer pixel box of the chart with its margins.
type Dimensions struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Margin Margin  `json:"margin"`
}

// PlotWidth returns the width of the plot area inside the margins.
func (d Dimensions) PlotWidth() float64 {
	w := d.Width - d.Margin.Left - d.Margin.Right
	if w < 0 {
		return 0
	}
	return w
}

// PlotHeight returns the height of the plot area inside the margins.
func (d Dimensions) PlotHeight() float64 {
	h := d.Height - d.Margin.Top - d.Margin.Bottom
	if h < 0 {
		return 0
	}
	return h
}

// Narrow reports whether the chart is below the small-viewport breakpoint,
// where labels shrink and edge offsets tighten.
func (d Dimensions) Narrow() bool {
	return d.Width < narrowBreakpoint
}

const narrowBreakpoint = 600

// Point is one sample of the price series: a millisecond timestamp and
// the price at that time.
type Point struct {
	Timestamp int64   `json:"timestamp"`
	Price     float64 `json:"price"`
}

// State is the single source of chart geometry. Scales are rebuilt on
// every series or dimension change; consumers must re-read them at
// render time rather than caching them across updates.
type State struct {
	dims   Dimensions
	series []Point
	scales *Scales
}

// NewState creates a chart state with the given dimensions and no data.
func NewState(dims Dimensions) *State {
	return &State{dims: dims}
}

// SetSeries replaces the active series and rebuilds the scales.
// The series must be chronological, oldest first.
func (s *State) SetSeries(points []Point) {
	s.series = points
	s.rebuild()
}

// Append adds one point to the end of the series and rebuilds the scales.
// If the timestamp matches the current last point, the point is replaced
// in place (a partial candle update).
func (s *State) Append(p Point) {
	if n := len(s.series); n > 0 && s.series[n-1].Timestamp == p.Timestamp {
		s.series[n-1] = p
	} else {
		s.series = append(s.series, p)
	}
	s.rebuild()
}

// Resize updates the chart dimensions and rebuilds the scales.
func (s *State) Resize(dims Dimensions) {
	s.dims = dims
	s.rebuild()
}

// Series returns the active price series.
func (s *State) Series() []Point { return s.series }

// Empty reports whether there is no data to draw.
func (s *State) Empty() bool { return len(s.series) == 0 }

// Last returns the most recent point of the series, if any.
func (s *State) Last() (Point, bool) {
	if len(s.series) == 0 {
		return Point{}, false
	}
	return s.series[len(s.series)-1], true
}

// Dimensions returns the current chart dimensions.
func (s *State) Dimensions() Dimensions { return s.dims }

// Scales returns the current coordinate scales. The second return value
// is false while the series is empty; callers must clear instead of
// rendering in that case.
func (s *State) Scales() (*Scales, bool) {
	if s.scales == nil {
		return nil, false
	}
	return s.scales, true
}

func (s *State) rebuild() {
	if len(s.series) == 0 {
		s.scales = nil
		return
	}
	s.scales = newScales(s.series, s.dims)
}
