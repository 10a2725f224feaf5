package api

import (
	"sort"
	"sync"
	"sync/atomic"
)

// Target is the element a clip animates. Implementations adapt whatever the
// host renders (DOM nodes, canvas shapes, terminal cells) and must be safe
// for concurrent use.
type Target interface {
	// ID identifies the target in logs, journals, and errors.
	ID() string

	HasClass(name string) bool
	AddClass(name string)
	RemoveClass(name string)

	// GetStyle returns the current value of a style property, or "" when
	// unset.
	GetStyle(prop string) string
	SetStyle(prop, value string)

	BoundingBox() Rect
}

// Connector is a target that visually links two endpoints and can refresh
// them as the linked elements move. Connector-category clips require their
// target to implement this interface.
type Connector interface {
	Target

	Endpoints() (Point, Point)
	SetEndpoints(a, b Point)

	// UpdateEndpoints recomputes both endpoints once.
	UpdateEndpoints()

	// ContinuouslyUpdateEndpoints begins refreshing endpoints every frame
	// until cancelled. Idempotent.
	ContinuouslyUpdateEndpoints()

	// CancelContinuousUpdates stops a continuous refresh. Idempotent.
	CancelContinuousUpdates()
}

// StubTarget is an in-memory Target for tests, examples, and headless runs.
type StubTarget struct {
	id string

	mu      sync.Mutex
	classes map[string]struct{}
	styles  map[string]string
	box     Rect
}

var _ Target = (*StubTarget)(nil)

// NewStubTarget creates a visible stub target with a 100x100 bounding box.
func NewStubTarget(id string) *StubTarget {
	return &StubTarget{
		id:      id,
		classes: make(map[string]struct{}),
		styles:  make(map[string]string),
		box:     Rect{Width: 100, Height: 100},
	}
}

// NewHiddenStubTarget creates a stub target already carrying the hidden
// class, ready for an entrance clip.
func NewHiddenStubTarget(id string) *StubTarget {
	t := NewStubTarget(id)
	t.AddClass(HiddenClassName)
	return t
}

func (t *StubTarget) ID() string { return t.id }

func (t *StubTarget) HasClass(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.classes[name]
	return ok
}

func (t *StubTarget) AddClass(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.classes[name] = struct{}{}
}

func (t *StubTarget) RemoveClass(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.classes, name)
}

func (t *StubTarget) GetStyle(prop string) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.styles[prop]
}

func (t *StubTarget) SetStyle(prop, value string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if value == "" {
		delete(t.styles, prop)
		return
	}
	t.styles[prop] = value
}

func (t *StubTarget) BoundingBox() Rect {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.box
}

// SetBoundingBox repositions the stub target.
func (t *StubTarget) SetBoundingBox(box Rect) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.box = box
}

// Classes returns the target's classes, sorted.
func (t *StubTarget) Classes() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, 0, len(t.classes))
	for name := range t.classes {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// StubConnector is an in-memory Connector for tests and examples. It counts
// endpoint updates instead of rendering anything.
type StubConnector struct {
	StubTarget

	mu         sync.Mutex
	a, b       Point
	updates    atomic.Int64
	continuous atomic.Bool
}

var _ Connector = (*StubConnector)(nil)

// NewStubConnector creates a visible stub connector.
func NewStubConnector(id string) *StubConnector {
	return &StubConnector{StubTarget: *NewStubTarget(id)}
}

// NewHiddenStubConnector creates a stub connector already carrying the hidden
// class.
func NewHiddenStubConnector(id string) *StubConnector {
	c := NewStubConnector(id)
	c.AddClass(HiddenClassName)
	return c
}

func (c *StubConnector) Endpoints() (Point, Point) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.a, c.b
}

func (c *StubConnector) SetEndpoints(a, b Point) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.a, c.b = a, b
}

func (c *StubConnector) UpdateEndpoints() {
	c.updates.Add(1)
}

func (c *StubConnector) ContinuouslyUpdateEndpoints() {
	c.continuous.Store(true)
}

func (c *StubConnector) CancelContinuousUpdates() {
	c.continuous.Store(false)
}

// UpdateCount reports how many one-shot endpoint updates have run.
func (c *StubConnector) UpdateCount() int64 { return c.updates.Load() }

// ContinuousUpdatesActive reports whether a continuous refresh is engaged.
func (c *StubConnector) ContinuousUpdatesActive() bool { return c.continuous.Load() }
