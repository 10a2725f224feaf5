package api

// Category classifies what an effect does to its target. The category decides
// which lifecycle hooks run around playback (unhiding, hiding, anchor
// bookkeeping, connector endpoint updates) and which configuration defaults
// apply.
type Category string

const (
	CategoryEntrance          Category = "Entrance"
	CategoryExit              Category = "Exit"
	CategoryEmphasis          Category = "Emphasis"
	CategoryMotion            Category = "Motion"
	CategoryTransition        Category = "Transition"
	CategoryScroller          Category = "Scroller"
	CategoryConnectorSetter   Category = "Connector Setter"
	CategoryConnectorEntrance Category = "Connector Entrance"
	CategoryConnectorExit     Category = "Connector Exit"
)

// Categories returns every recognized category in declaration order.
func Categories() []Category {
	return []Category{
		CategoryEntrance,
		CategoryExit,
		CategoryEmphasis,
		CategoryMotion,
		CategoryTransition,
		CategoryScroller,
		CategoryConnectorSetter,
		CategoryConnectorEntrance,
		CategoryConnectorExit,
	}
}

// Direction is the sense of a playback.
type Direction string

const (
	DirectionForward  Direction = "forward"
	DirectionBackward Direction = "backward"

	// DirectionNone is reported between playbacks.
	DirectionNone Direction = "none"
)

// Phase is a stage of the clip playback state machine. Forward playback runs
// idle -> delay -> active -> endDelay -> finished; backward playback runs the
// same stages mirrored, ending at idle.
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseDelay    Phase = "delay"
	PhaseActive   Phase = "active"
	PhaseEndDelay Phase = "endDelay"
	PhaseFinished Phase = "finished"
)

// Point is a 2D position.
type Point struct {
	X, Y float64
}

// Rect is an axis-aligned bounding box.
type Rect struct {
	X, Y, Width, Height float64
}

// Center returns the midpoint of the rect.
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}
