package overlay

// PointerKind classifies a pointer event from the chart surface.
type PointerKind int8

const (
	PointerDown PointerKind = iota
	PointerMove
	PointerUp
	PointerLeave
	PointerClick
)

// PointerSource tells mouse and touch interaction apart; touch gets the
// tap-to-show fallback on overlays that support it.
type PointerSource int8

const (
	SourceMouse PointerSource = iota
	SourceTouch
)

// PointerEvent is a pointer interaction in container coordinates. The
// rendering collaborator subtracts the container offset before sending,
// so X and Y are relative to the chart's top-left corner. Target carries
// the ID of the element under the pointer, or "" for the bare plot
// surface. Primary is true for the primary mouse button or a single
// touch.
type PointerEvent struct {
	Kind    PointerKind
	Source  PointerSource
	X       float64
	Y       float64
	Target  string
	Primary bool
}

// Handler consumes pointer events.
type Handler func(PointerEvent)

// Subscription is a scoped listener registration. Cancel releases it and
// is safe to call more than once; every acquisition site must release
// through Cancel and nothing else.
type Subscription struct {
	d  *Dispatcher
	id int64
}

// Cancel detaches the subscription from its dispatcher.
func (s *Subscription) Cancel() {
	if s == nil || s.d == nil {
		return
	}
	s.d.remove(s.id)
	s.d = nil
}

type handlerEntry struct {
	id      int64
	handler Handler
}

// Dispatcher fans pointer events out to subscribed handlers in
// subscription order. A capture subscription, used while dragging,
// receives every event exclusively until it is canceled, much like the
// document-level listeners a browser drag installs.
type Dispatcher struct {
	seq       int64
	entries   []handlerEntry
	captureID int64
	capture   Handler
}

// NewDispatcher creates an empty pointer-event dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Subscribe registers a handler for all pointer events.
func (d *Dispatcher) Subscribe(h Handler) *Subscription {
	d.seq++
	d.entries = append(d.entries, handlerEntry{id: d.seq, handler: h})
	return &Subscription{d: d, id: d.seq}
}

// Capture registers an exclusive handler: while active, it is the only
// receiver of dispatched events. Only one capture can be active at a
// time; a second call while captured returns nil.
func (d *Dispatcher) Capture(h Handler) *Subscription {
	if d.capture != nil {
		return nil
	}
	d.seq++
	d.captureID = d.seq
	d.capture = h
	return &Subscription{d: d, id: d.seq}
}

// Captured reports whether a capture subscription is active.
func (d *Dispatcher) Captured() bool { return d.capture != nil }

// Dispatch delivers an event to the capture handler if one is active,
// otherwise to every subscriber in order. Handlers may subscribe or
// cancel during delivery; changes take effect on the next dispatch.
func (d *Dispatcher) Dispatch(ev PointerEvent) {
	if d.capture != nil {
		d.capture(ev)
		return
	}

	entries := make([]handlerEntry, len(d.entries))
	copy(entries, d.entries)
	for _, entry := range entries {
		entry.handler(ev)
	}
}

func (d *Dispatcher) remove(id int64) {
	if d.capture != nil && d.captureID == id {
		d.capture = nil
		d.captureID = 0
		return
	}
	for i, entry := range d.entries {
		if entry.id == id {
			d.entries = append(d.entries[:i], d.entries[i+1:]...)
			return
		}
	}
}
