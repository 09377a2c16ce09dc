package overlay

import "github.com/raykavin/pricelens/chart"

// dragState exists only while a drag is in progress.
type dragState struct {
	offsetY   float64 // pointer Y minus handle center Y at drag start
	lastPrice float64
}

// dragControl turns captured pointer events into continuous price
// updates for one draggable overlay. At most one drag is active per
// control; Start while active is a no-op because pointer-down only
// arrives when no capture holds the dispatcher.
type dragControl struct {
	chart  *chart.State
	events *Dispatcher

	// update is called with the new price on every pointer move.
	update func(price float64)
	// done is called once with the final price after pointer-up.
	done func(price float64)

	capture *Subscription
	state   *dragState
}

// Active reports whether a drag is in progress.
func (d *dragControl) Active() bool { return d.state != nil }

// Start arms a drag begun by ev on a handle whose center currently sits
// at centerY inside the plot area.
func (d *dragControl) Start(ev PointerEvent, centerY float64) {
	if d.Active() {
		return
	}
	scales, ok := d.chart.Scales()
	if !ok {
		return
	}

	capture := d.events.Capture(d.handle)
	if capture == nil {
		return
	}

	top := d.chart.Dimensions().Margin.Top
	d.capture = capture
	d.state = &dragState{
		offsetY:   ev.Y - (top + centerY),
		lastPrice: scales.YToPrice(centerY),
	}
}

// handle receives every pointer event while the drag capture is held.
func (d *dragControl) handle(ev PointerEvent) {
	if d.state == nil {
		return
	}

	switch ev.Kind {
	case PointerMove:
		scales, ok := d.chart.Scales()
		if !ok {
			return
		}
		top := d.chart.Dimensions().Margin.Top
		y := scales.ClampY(ev.Y - top - d.state.offsetY)
		price := scales.YToPrice(y)
		d.state.lastPrice = price
		d.update(price)

	case PointerUp:
		price := d.state.lastPrice
		d.Cancel()
		if d.done != nil {
			d.done(price)
		}
	}
}

// Cancel releases the capture and discards the drag state. It is the
// single release path shared by pointer-up, SetEnabled(false) and
// Dispose, so no capture can outlive its overlay.
func (d *dragControl) Cancel() {
	if d.capture != nil {
		d.capture.Cancel()
		d.capture = nil
	}
	d.state = nil
}
