package webapp

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/raykavin/pricelens/chart"
	"github.com/raykavin/pricelens/core"
	"github.com/raykavin/pricelens/overlay"
)

// Overlay IDs used by every chart session.
const (
	overlayCurrent   = "current"
	overlayMiddle    = "middle"
	overlayThreshold = "threshold"
	overlayGuide     = "guide"
	overlayMeasure   = "measure"
)

// defaultDimensions is used until the browser reports its real size.
var defaultDimensions = chart.Dimensions{
	Width:  800,
	Height: 400,
	Margin: chart.Margin{Top: 20, Right: 60, Bottom: 30, Left: 10},
}

// pointerPayload is a pointer event as the browser reports it, in
// container coordinates.
type pointerPayload struct {
	Kind    string  `json:"kind"`
	Source  string  `json:"source"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Target  string  `json:"target"`
	Primary bool    `json:"primary"`
}

// chartSession is the server-side half of one connected browser chart.
// It owns a private chart state and overlay registry; all of its work
// runs on a single goroutine fed through the run channel, which is what
// makes the lock-free overlay code safe.
type chartSession struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	state    *chart.State
	events   *overlay.Dispatcher
	registry *overlay.Registry

	run    chan func()
	closed chan struct{}
	once   sync.Once

	app *App
	log core.Logger
}

func newChartSession(app *App, conn *websocket.Conn) *chartSession {
	state := chart.NewState(defaultDimensions)
	state.SetSeries(app.Series())
	events := overlay.NewDispatcher()

	s := &chartSession{
		conn:     conn,
		state:    state,
		events:   events,
		registry: overlay.NewRegistry(state, events, app.log),
		run:      make(chan func(), 64),
		closed:   make(chan struct{}),
		app:      app,
		log:      app.log,
	}
	s.registry.SetRunner(s.enqueue)
	s.buildOverlays()

	return s
}

// buildOverlays installs the standard overlay set for a session.
func (s *chartSession) buildOverlays() {
	add := func(o overlay.Overlay) {
		if err := s.registry.Add(o); err != nil {
			s.log.WithError(err).Error("failed to add overlay")
		}
	}

	add(overlay.NewCurrentPriceLine(overlayCurrent, overlay.Options{
		ShowPercent: true,
		ShowBullet:  true,
	}))
	add(overlay.NewMiddleLine(overlayMiddle, overlay.Options{
		ShowPercent: true,
	}))
	add(overlay.NewMovableLine(overlayThreshold, overlay.Options{
		Price:  s.app.Threshold(),
		Color:  "#f57c00",
		Label:  "Target",
		OnMove: s.onThresholdMoved,
	}))
	add(overlay.NewPriceGuide(overlayGuide, overlay.Options{
		ShowPercent: true,
	}))
	add(overlay.NewRangeMeasure(overlayMeasure, overlay.Options{}))
}

// onThresholdMoved is the drag callback of the threshold line.
func (s *chartSession) onThresholdMoved(price float64) {
	s.app.SetThreshold(price)
	s.send("targetMoved", map[string]any{"price": price})
}

// enqueue schedules fn on the session loop. It is the registry runner,
// so deferred overlay callbacks (e.g. the touch auto-hide timer) rejoin
// the loop instead of racing it.
func (s *chartSession) enqueue(fn func()) {
	select {
	case s.run <- fn:
	case <-s.closed:
	}
}

// loop runs the session: every queued mutation executes here, followed
// by a fresh element snapshot pushed to the browser. Overlay teardown
// also happens here, so disposal never runs concurrently with a queued
// callback.
func (s *chartSession) loop() {
	defer s.registry.Dispose()
	for {
		select {
		case fn := <-s.run:
			fn()
			s.pushElements()
		case <-s.closed:
			return
		}
	}
}

// close signals shutdown and closes the connection. The loop goroutine
// observes the signal and disposes the overlays itself.
func (s *chartSession) close() {
	s.once.Do(func() {
		close(s.closed)
		s.conn.Close()
	})
}

// sendInitial pushes the starting payload: series, indicator metrics,
// page state and the render geometry of all overlays.
func (s *chartSession) sendInitial() {
	s.enqueue(func() {
		defaults := s.app.Defaults()
		defaults.Threshold = s.app.Threshold()

		s.registry.OnDataUpdate()
		s.send("initialData", map[string]any{
			"series":     s.state.Series(),
			"indicators": s.app.IndicatorMetrics(),
			"state":      defaults,
		})
	})
}

// onPoint folds one live price point into the session's chart.
func (s *chartSession) onPoint(point core.PricePoint) {
	s.enqueue(func() {
		s.state.Append(chart.Point{Timestamp: point.Timestamp, Price: point.Price})
		s.registry.OnDataUpdate()
		s.send("point", point)
	})
}

// onPointer replays a browser pointer event into the dispatcher.
func (s *chartSession) onPointer(payload pointerPayload) {
	kind, ok := pointerKinds[payload.Kind]
	if !ok {
		return
	}

	source := overlay.SourceMouse
	if payload.Source == "touch" {
		source = overlay.SourceTouch
	}

	ev := overlay.PointerEvent{
		Kind:    kind,
		Source:  source,
		X:       payload.X,
		Y:       payload.Y,
		Target:  payload.Target,
		Primary: payload.Primary,
	}
	s.enqueue(func() { s.events.Dispatch(ev) })
}

var pointerKinds = map[string]overlay.PointerKind{
	"down":  overlay.PointerDown,
	"move":  overlay.PointerMove,
	"up":    overlay.PointerUp,
	"leave": overlay.PointerLeave,
	"click": overlay.PointerClick,
}

// onResize applies new chart dimensions reported by the browser.
func (s *chartSession) onResize(dims chart.Dimensions) {
	s.enqueue(func() {
		s.state.Resize(dims)
		s.registry.OnResize()
	})
}

// pushElements sends the current element snapshot. Elements are copied
// so the overlays can keep mutating their own structs.
func (s *chartSession) pushElements() {
	elements := s.registry.Elements()
	snapshot := make([]overlay.Element, 0, len(elements))
	for _, el := range elements {
		snapshot = append(snapshot, *el)
	}
	s.send("elements", snapshot)
}

// send writes one message to the browser. Writes are serialized; a
// failed write closes the session.
func (s *chartSession) send(msgType string, payload any) {
	msg := struct {
		Type    string `json:"type"`
		Payload any    `json:"payload"`
	}{Type: msgType, Payload: payload}

	s.writeMu.Lock()
	err := s.conn.WriteJSON(msg)
	s.writeMu.Unlock()
	if err != nil {
		s.log.Error("Error sending WebSocket message: ", err)
		s.close()
	}
}

// handleMessage routes one inbound browser message.
func (s *chartSession) handleMessage(raw []byte) {
	var msg struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(raw, &msg); err != nil {
		s.log.WithError(err).Error("invalid websocket message")
		return
	}

	switch msg.Type {
	case "pointer":
		var payload pointerPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			s.log.WithError(err).Error("invalid pointer payload")
			return
		}
		s.onPointer(payload)

	case "resize":
		var dims chart.Dimensions
		if err := json.Unmarshal(msg.Payload, &dims); err != nil {
			s.log.WithError(err).Error("invalid resize payload")
			return
		}
		s.onResize(dims)

	default:
		s.log.Warn("unknown websocket message type: ", msg.Type)
	}
}
