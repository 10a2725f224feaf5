package api

// CompositionFrequency controls how often a generator's ComposeEffect runs
// across repeated playbacks of the same clip.
type CompositionFrequency string

const (
	// ComposeOnEveryPlay recomposes before every forward play, so the effect
	// can react to the target's current state. Rewinds always reuse the most
	// recent forward composition. This is the default.
	ComposeOnEveryPlay CompositionFrequency = "on-every-play"

	// ComposeOnFirstPlayOnly composes once, on the first forward play, and
	// reuses that composition forever after.
	ComposeOnFirstPlayOnly CompositionFrequency = "on-first-play-only"
)

// Keyframe is a discrete state change applied at a fraction of the active
// phase. A negative Offset requests automatic spacing: the phase's auto
// keyframes are distributed evenly from 0 to 1 in declaration order.
type Keyframe struct {
	Offset float64
	Apply  func() error
}

// FrameFunc mutates the target on each playback tick. It reads the current
// progress through the clip's ComposeContext.
type FrameFunc func() error

// KeyframesProducer builds the keyframe list for one playback.
type KeyframesProducer func() ([]Keyframe, error)

// MutatorProducer builds the per-frame mutator for one playback.
type MutatorProducer func() (FrameFunc, error)

// ComposedEffect is the output of one composition: up to four callables, any
// of which may be nil. When a backward callable is nil, its forward
// counterpart is replayed with time reversed.
type ComposedEffect struct {
	ForwardKeyframes  KeyframesProducer
	ForwardMutator    MutatorProducer
	BackwardKeyframes KeyframesProducer
	BackwardMutator   MutatorProducer
}

// Empty reports whether the composition produced no callables at all, which
// is a configuration error.
func (e ComposedEffect) Empty() bool {
	return e.ForwardKeyframes == nil && e.ForwardMutator == nil &&
		e.BackwardKeyframes == nil && e.BackwardMutator == nil
}

// ComposeContext is what a generator's ComposeEffect sees: the clip's target
// plus live playback progress, for mutators that interpolate.
type ComposeContext struct {
	target   Target
	progress func() float64
}

// NewComposeContext builds a ComposeContext around a target and a live
// progress source. progress must be safe for concurrent use.
func NewComposeContext(target Target, progress func() float64) *ComposeContext {
	return &ComposeContext{target: target, progress: progress}
}

// Target returns the clip's target.
func (c *ComposeContext) Target() Target { return c.target }

// Progress returns the current progress through the active phase, 0 through 1.
// Under reversed-time fallback it runs 1 down to 0 instead.
func (c *ComposeContext) Progress() float64 {
	if c.progress == nil {
		return 0
	}
	return c.progress()
}

// ComputeTween linearly interpolates between start and end at the current
// progress.
func (c *ComposeContext) ComputeTween(start, end float64) float64 {
	return start + (end-start)*c.Progress()
}

// ComposeFunc builds a ComposedEffect from the compose context and the
// clip's declarative options.
type ComposeFunc func(ctx *ComposeContext, options ...any) (ComposedEffect, error)

// EffectGenerator is a reusable effect recipe. Generators are registered in
// an EffectBank under a name and instantiated per clip.
type EffectGenerator struct {
	// DefaultConfig overrides category defaults and is overridden by
	// call-site configuration.
	DefaultConfig EffectConfig

	// ImmutableConfig overrides everything below it; call-site values for
	// immutable fields are discarded (or rejected, in strict mode).
	ImmutableConfig EffectConfig

	// CompositionFrequency defaults to ComposeOnEveryPlay when unset.
	CompositionFrequency CompositionFrequency

	ComposeEffect ComposeFunc
}

// EffectBank is a named catalog of effect generators. Registration freezes
// the generator's config layers.
type EffectBank interface {
	Register(name string, gen EffectGenerator) error
	Get(name string) (EffectGenerator, error)

	// Names returns every registered effect name, sorted.
	Names() []string
}
