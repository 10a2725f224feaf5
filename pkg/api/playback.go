package api

import (
	"context"
	"sync"
)

// Promise settles exactly once when an asynchronous playback finishes.
// Multiple goroutines may Await the same promise.
type Promise struct {
	done chan struct{}
	once sync.Once
	err  error
}

// NewPromise creates an unsettled promise.
func NewPromise() *Promise {
	return &Promise{done: make(chan struct{})}
}

// ResolvedPromise creates a promise already settled with err.
func ResolvedPromise(err error) *Promise {
	p := NewPromise()
	p.Resolve(err)
	return p
}

// Resolve settles the promise. Calls after the first are no-ops.
func (p *Promise) Resolve(err error) {
	p.once.Do(func() {
		p.err = err
		close(p.done)
	})
}

// Done returns a channel that closes when the promise settles.
func (p *Promise) Done() <-chan struct{} { return p.done }

// Err returns the settlement error. It is only meaningful after Done closes.
func (p *Promise) Err() error {
	select {
	case <-p.done:
		return p.err
	default:
		return nil
	}
}

// Await blocks until the promise settles or ctx is cancelled.
func (p *Promise) Await(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.done:
		return p.err
	}
}

// AwaitAll awaits every promise and returns the first error encountered.
func AwaitAll(ctx context.Context, promises ...*Promise) error {
	var firstErr error
	for _, p := range promises {
		if p == nil {
			continue
		}
		if err := p.Await(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// RoadblockFunc is an await point callback. The playback suspends until every
// roadblock registered at the point returns; a non-nil error fails the
// playback.
type RoadblockFunc func(ctx context.Context) error

// ClipStatus is a snapshot of a clip's playback state.
type ClipStatus struct {
	Direction Direction
	Phase     Phase
	Paused    bool

	// Progress is the effect-visible progress through the active phase,
	// 0 through 1.
	Progress float64

	InFlight bool
}

// Clip pairs one target with one composed effect and drives its reversible
// playback lifecycle.
type Clip interface {
	ID() string
	Category() Category
	EffectName() string
	Target() Target

	// EffectiveConfig is the fully resolved configuration, frozen at
	// construction.
	EffectiveConfig() ResolvedConfig

	Status() ClipStatus

	// Play runs the clip forward from idle to finished. The returned promise
	// settles when the playback reaches its terminal state or fails.
	// Synchronous failures (operation conflicts, composition errors,
	// precondition violations) return an error before any frame is applied,
	// leaving state unchanged.
	Play(ctx context.Context) (*Promise, error)

	// Rewind runs the clip backward from finished to idle. Only a finished
	// clip can rewind.
	Rewind(ctx context.Context) (*Promise, error)

	// Pause suspends progression within the current phase. Idempotent.
	Pause()

	// Unpause resumes progression. Idempotent.
	Unpause()

	// Finish fast-forwards the in-flight playback to its terminal state,
	// still firing lifecycle hooks in order. Roadblocks not yet reached are
	// bypassed. Without a playback in flight it is a no-op.
	Finish(ctx context.Context) error

	// AddRoadblock registers an await point at a fraction (0 through 1) of
	// the given phase for the given direction.
	AddRoadblock(dir Direction, phase Phase, fraction float64, fn RoadblockFunc) error
}

// Sequence owns an ordered list of clips and plays or rewinds them with
// deterministic relative timing derived from the clips' relative-timing
// flags.
type Sequence interface {
	Config() SequenceConfig
	Clips() []Clip

	// AddClips and RemoveClips edit membership. Both fail with an
	// OperationConflictError while a playback is in flight.
	AddClips(clips ...Clip) error
	RemoveClips(clips ...Clip) error

	// Play starts every member clip at its derived offset. The promise
	// settles once every member clip's own promise has settled. An empty
	// sequence resolves immediately.
	Play(ctx context.Context) (*Promise, error)

	// Rewind replays the clips in exact reverse order with mirrored
	// relative timing.
	Rewind(ctx context.Context) (*Promise, error)

	Pause()
	Unpause()

	// Finish fast-forwards the in-flight playback: launched clips jump to
	// their terminal states and remaining launches run instantly.
	Finish(ctx context.Context) error
}

// Timeline owns an ordered list of sequences and a cursor sitting between
// them: 0 is before the first sequence, len(sequences) is after the last.
type Timeline interface {
	Config() TimelineConfig
	Cursor() int
	Sequences() []Sequence

	// AddSequence and RemoveSequence edit membership. Both fail with an
	// OperationConflictError while a step is in flight.
	AddSequence(seq Sequence) error
	RemoveSequence(seq Sequence) error

	// Step plays (forward) or rewinds (backward) the sequence at the cursor
	// and moves the cursor on success, chaining into autoplay neighbours.
	// Stepping past either boundary resolves immediately as a no-op.
	Step(ctx context.Context, dir Direction) (*Promise, error)

	// JumpToSequenceTag steps repeatedly, without autoplay chaining, until
	// the cursor sits immediately before the first sequence carrying tag.
	// Returns ErrTagNotFound when no sequence carries the tag.
	JumpToSequenceTag(ctx context.Context, tag string) error

	// ToggleSkipping flips whether subsequent steps execute instantly
	// versus in real time. An optional force argument sets the state
	// explicitly. Returns the new state.
	ToggleSkipping(force ...bool) bool

	// AnchorDepth reports how many scroll anchors are currently recorded by
	// scroller clips.
	AnchorDepth() int
}
