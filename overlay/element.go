package overlay

// ElementKind names the visual primitive an element maps to on the
// rendering surface.
type ElementKind string

const (
	ElementLine   ElementKind = "line"
	ElementLabel  ElementKind = "label"
	ElementBullet ElementKind = "bullet"
	ElementBadge  ElementKind = "badge"
	ElementZone   ElementKind = "zone"
)

// Element is one visual primitive owned by exactly one overlay. The
// overlay creates it at initialize, mutates it at every render and hides
// it on clear; the rendering collaborator draws whatever the element
// says without interpreting it. Coordinates are container pixels.
type Element struct {
	ID       string      `json:"id"`
	Kind     ElementKind `json:"kind"`
	Visible  bool        `json:"visible"`
	X        float64     `json:"x"`
	Y        float64     `json:"y"`
	X2       float64     `json:"x2,omitempty"`
	Y2       float64     `json:"y2,omitempty"`
	Text     string      `json:"text,omitempty"`
	Color    string      `json:"color,omitempty"`
	Style    string      `json:"style,omitempty"`
	Anchor   string      `json:"anchor,omitempty"`
	FontSize float64     `json:"fontSize,omitempty"`
}

// Hide makes the element invisible without resetting its geometry, so a
// subsequent render is cheap.
func (e *Element) Hide() { e.Visible = false }
