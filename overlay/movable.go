package overlay

// MovableLine is a PriceLine whose label doubles as a drag handle.
// Dragging reprices the line continuously and fires the OnMove callback
// once with the final price when the pointer is released.
//
// Recognized options: those of PriceLine plus OnMove.
type MovableLine struct {
	*PriceLine

	drag *dragControl
	sub  *Subscription
}

// NewMovableLine creates a draggable price line overlay.
func NewMovableLine(id string, opts Options) *MovableLine {
	opts.Movable = true
	return &MovableLine{PriceLine: NewPriceLine(id, opts)}
}

func (m *MovableLine) Kind() Kind { return KindMovableLine }

func (m *MovableLine) Initialize(host *Registry) {
	m.PriceLine.Initialize(host)

	m.drag = &dragControl{
		chart:  host.Chart(),
		events: host.Events(),
		update: func(price float64) {
			m.SetPrice(price)
			m.reposition(true)
		},
		done: func(price float64) {
			if m.opts.OnMove != nil {
				m.opts.OnMove(price)
			}
		},
	}
	m.sub = host.Events().Subscribe(m.onPointer)
}

// onPointer arms a drag on pointer-down over the label. Subsequent
// moves and the final up are delivered through the drag capture.
func (m *MovableLine) onPointer(ev PointerEvent) {
	if ev.Kind != PointerDown || !ev.Primary {
		return
	}
	if !m.enabled || m.drag.Active() || ev.Target != m.labelID() {
		return
	}

	centerY, ok := m.lineY()
	if !ok {
		return
	}
	m.drag.Start(ev, centerY)
}

// Dragging reports whether a drag is currently in progress.
func (m *MovableLine) Dragging() bool { return m.drag.Active() }

// SetEnabled cancels any in-progress drag before disabling, so no
// capture subscription survives a disabled overlay.
func (m *MovableLine) SetEnabled(enabled bool) {
	if !enabled {
		m.drag.Cancel()
	}
	m.PriceLine.SetEnabled(enabled)
}

func (m *MovableLine) Dispose() {
	m.drag.Cancel()
	m.sub.Cancel()
	m.PriceLine.Dispose()
}
