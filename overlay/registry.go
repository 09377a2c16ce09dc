package overlay

import (
	"fmt"

	"github.com/StudioSol/set"
	"github.com/raykavin/pricelens/chart"
	"github.com/raykavin/pricelens/core"
)

// Registry owns the active overlays. It keeps them in insertion order,
// fans out data and resize notifications, and provides the lookup path
// overlays use to coordinate with each other.
type Registry struct {
	chart  *chart.State
	events *Dispatcher
	log    core.Logger
	keys   *set.LinkedHashSetString
	byID   map[string]Overlay
	run    func(fn func())
}

// NewRegistry creates an empty registry bound to the given chart state
// and pointer-event dispatcher.
func NewRegistry(state *chart.State, events *Dispatcher, log core.Logger) *Registry {
	return &Registry{
		chart:  state,
		events: events,
		log:    log,
		keys:   set.NewLinkedHashSetString(),
		byID:   make(map[string]Overlay),
	}
}

// Chart returns the shared chart state.
func (r *Registry) Chart() *chart.State { return r.chart }

// Events returns the pointer-event dispatcher.
func (r *Registry) Events() *Dispatcher { return r.events }

// Logger returns the registry logger.
func (r *Registry) Logger() core.Logger { return r.log }

// SetRunner installs the function used to bring deferred callbacks
// (e.g. the touch auto-hide timer) back onto the host's event loop.
// Without a runner, callbacks execute inline.
func (r *Registry) SetRunner(run func(fn func())) { r.run = run }

func (r *Registry) sync(fn func()) {
	if r.run != nil {
		r.run(fn)
		return
	}
	fn()
}

// Add initializes the overlay and stores it under its ID. Adding two
// overlays with the same ID is an error.
func (r *Registry) Add(o Overlay) error {
	if _, exists := r.byID[o.ID()]; exists {
		return fmt.Errorf("overlay %q already registered", o.ID())
	}

	o.Initialize(r)
	r.keys.Add(o.ID())
	r.byID[o.ID()] = o

	return nil
}

// Remove disposes the overlay and drops it from the registry.
func (r *Registry) Remove(id string) {
	o, ok := r.byID[id]
	if !ok {
		return
	}

	o.Dispose()
	delete(r.byID, id)

	keys := set.NewLinkedHashSetString()
	for key := range r.keys.Iter() {
		if key != id {
			keys.Add(key)
		}
	}
	r.keys = keys
}

// Get returns the overlay registered under the given ID.
func (r *Registry) Get(id string) (Overlay, bool) {
	o, ok := r.byID[id]
	return o, ok
}

// GetByKind returns the first overlay of the given kind in insertion
// order. This is the coordination path between overlays: RangeMeasure
// suspends the price guide through it.
func (r *Registry) GetByKind(kind Kind) (Overlay, bool) {
	for key := range r.keys.Iter() {
		if o := r.byID[key]; o != nil && o.Kind() == kind {
			return o, true
		}
	}
	return nil, false
}

// Overlays returns all registered overlays in insertion order.
func (r *Registry) Overlays() []Overlay {
	overlays := make([]Overlay, 0, len(r.byID))
	for key := range r.keys.Iter() {
		if o := r.byID[key]; o != nil {
			overlays = append(overlays, o)
		}
	}
	return overlays
}

// OnDataUpdate notifies every enabled overlay that the series changed,
// in insertion order.
func (r *Registry) OnDataUpdate() {
	for _, o := range r.Overlays() {
		if o.Enabled() {
			o.OnDataUpdate()
		}
	}
}

// OnResize notifies every overlay, enabled or not, so disabled overlays
// never hold stale geometry when re-enabled.
func (r *Registry) OnResize() {
	for _, o := range r.Overlays() {
		o.OnResize()
	}
}

// EnableAll enables every overlay.
func (r *Registry) EnableAll() {
	for _, o := range r.Overlays() {
		o.SetEnabled(true)
	}
}

// DisableAll disables every overlay.
func (r *Registry) DisableAll() {
	for _, o := range r.Overlays() {
		o.SetEnabled(false)
	}
}

// Elements collects the visual elements of every overlay in insertion
// order, for the rendering collaborator to draw.
func (r *Registry) Elements() []*Element {
	var elements []*Element
	for _, o := range r.Overlays() {
		elements = append(elements, o.Elements()...)
	}
	return elements
}

// Dispose disposes every overlay and empties the registry.
func (r *Registry) Dispose() {
	for _, o := range r.Overlays() {
		o.Dispose()
	}
	r.keys = set.NewLinkedHashSetString()
	r.byID = make(map[string]Overlay)
}
