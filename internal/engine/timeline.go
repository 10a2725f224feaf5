package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/NkemdiAnyiam/webchalk-animate-sub001/pkg/api"
)

// Timeline owns an ordered list of sequences and a cursor. The cursor is the
// sole position marker: it sits between sequences, with 0 meaning "before
// the first" and len(sequences) meaning "after the last".
type Timeline struct {
	cfg      api.TimelineConfig
	observer api.Observer
	clock    Clock
	anchors  anchorStack

	mu        sync.Mutex
	sequences []*Sequence
	cursor    int
	skip      bool
	inFlight  bool
}

var _ api.Timeline = (*Timeline)(nil)

// TimelineParams configures NewTimeline.
type TimelineParams struct {
	Config   api.TimelineConfig
	Observer api.Observer
	Clock    Clock
}

// NewTimeline creates an empty timeline; add sequences with AddSequence.
func NewTimeline(p TimelineParams) *Timeline {
	obs := p.Observer
	if obs == nil {
		obs = api.NoopObserver{}
	}
	clk := p.Clock
	if clk == nil {
		clk = RealClock()
	}
	return &Timeline{
		cfg:      p.Config,
		observer: obs,
		clock:    clk,
	}
}

func (t *Timeline) Config() api.TimelineConfig { return t.cfg }

func (t *Timeline) Cursor() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cursor
}

func (t *Timeline) Sequences() []api.Sequence {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]api.Sequence, len(t.sequences))
	for i, s := range t.sequences {
		out[i] = s
	}
	return out
}

// AddSequence appends a sequence. It fails with an OperationConflictError
// while a step is in flight.
func (t *Timeline) AddSequence(seq api.Sequence) error {
	es, ok := seq.(*Sequence)
	if !ok {
		return &api.ConfigurationError{Detail: "sequence was not created by this engine"}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.inFlight {
		return &api.OperationConflictError{Op: "add sequence", State: "timeline step is in flight"}
	}
	es.mu.Lock()
	es.timeline = t
	es.mu.Unlock()
	t.sequences = append(t.sequences, es)
	return nil
}

// RemoveSequence removes a sequence. It fails with an OperationConflictError
// while a step is in flight. Removing a sequence before the cursor retreats
// the cursor so it keeps addressing the same boundary.
func (t *Timeline) RemoveSequence(seq api.Sequence) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.inFlight {
		return &api.OperationConflictError{Op: "remove sequence", State: "timeline step is in flight"}
	}
	for i, existing := range t.sequences {
		if existing == seq {
			existing.mu.Lock()
			existing.timeline = nil
			existing.mu.Unlock()
			t.sequences = append(t.sequences[:i], t.sequences[i+1:]...)
			if t.cursor > i {
				t.cursor--
			}
			return nil
		}
	}
	return nil
}

// Step plays (forward) or rewinds (backward) the sequence at the cursor and
// moves the cursor on success, chaining automatically into autoplay
// neighbours. Stepping past either boundary resolves immediately as a no-op.
func (t *Timeline) Step(ctx context.Context, dir api.Direction) (*api.Promise, error) {
	return t.step(ctx, dir, stepOpts{chain: true})
}

type stepOpts struct {
	chain bool
}

func (t *Timeline) step(ctx context.Context, dir api.Direction, opts stepOpts) (*api.Promise, error) {
	switch dir {
	case api.DirectionForward, api.DirectionBackward:
	default:
		return nil, &api.RangeError{
			Field:    "direction",
			Value:    string(dir),
			Accepted: []string{string(api.DirectionForward), string(api.DirectionBackward)},
		}
	}

	t.mu.Lock()
	if t.inFlight {
		t.mu.Unlock()
		return nil, &api.OperationConflictError{Op: "step timeline", State: "a step is already in flight"}
	}
	if (dir == api.DirectionForward && t.cursor >= len(t.sequences)) ||
		(dir == api.DirectionBackward && t.cursor <= 0) {
		at := t.cursor
		t.mu.Unlock()
		t.observer.OnTimelineStep(ctx, t.info(), dir, at, at)
		return api.ResolvedPromise(nil), nil
	}
	t.inFlight = true
	t.mu.Unlock()

	promise := api.NewPromise()
	go t.runStep(ctx, dir, opts, promise)
	return promise, nil
}

func (t *Timeline) runStep(ctx context.Context, dir api.Direction, opts stepOpts, promise *api.Promise) {
	var err error
	for {
		t.mu.Lock()
		from := t.cursor
		var seq *Sequence
		if dir == api.DirectionForward && t.cursor < len(t.sequences) {
			seq = t.sequences[t.cursor]
		} else if dir == api.DirectionBackward && t.cursor > 0 {
			seq = t.sequences[t.cursor-1]
		}
		skip := t.skip
		t.mu.Unlock()

		if seq == nil {
			break
		}

		var p *api.Promise
		if dir == api.DirectionForward {
			p, err = seq.runPlayback(ctx, api.DirectionForward, runOpts{skip: skip})
		} else {
			p, err = seq.runPlayback(ctx, api.DirectionBackward, runOpts{skip: skip})
		}
		if err == nil {
			err = p.Await(ctx)
		}
		if err != nil {
			break
		}

		t.mu.Lock()
		if dir == api.DirectionForward {
			t.cursor++
		} else {
			t.cursor--
		}
		to := t.cursor
		t.mu.Unlock()
		t.observer.OnTimelineStep(ctx, t.info(), dir, from, to)

		if !opts.chain || !t.autoplayNext(dir) {
			break
		}
	}

	t.mu.Lock()
	t.inFlight = false
	t.mu.Unlock()
	promise.Resolve(err)
}

// autoplayNext reports whether the sequence the cursor now faces in dir is
// marked autoplay.
func (t *Timeline) autoplayNext(dir api.Direction) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if dir == api.DirectionForward {
		return t.cursor < len(t.sequences) && t.sequences[t.cursor].cfg.Autoplay
	}
	return t.cursor > 0 && t.sequences[t.cursor-1].cfg.Autoplay
}

// JumpToSequenceTag steps the minimal number of times to land immediately
// before the first sequence carrying tag. Steps pace per the current skip
// mode, so jumps are instant while skipping is engaged.
func (t *Timeline) JumpToSequenceTag(ctx context.Context, tag string) error {
	t.mu.Lock()
	targetIdx := -1
	for i, s := range t.sequences {
		if s.cfg.Tag == tag {
			targetIdx = i
			break
		}
	}
	t.mu.Unlock()
	if targetIdx < 0 {
		return fmt.Errorf("tag %q: %w", tag, api.ErrTagNotFound)
	}

	for {
		t.mu.Lock()
		cur := t.cursor
		t.mu.Unlock()

		var dir api.Direction
		switch {
		case cur < targetIdx:
			dir = api.DirectionForward
		case cur > targetIdx:
			dir = api.DirectionBackward
		default:
			return nil
		}

		p, err := t.step(ctx, dir, stepOpts{chain: false})
		if err != nil {
			return err
		}
		if err := p.Await(ctx); err != nil {
			return err
		}
	}
}

// ToggleSkipping flips whether subsequent steps execute instantly versus in
// real time. An optional force argument sets the state explicitly. Returns
// the new state.
func (t *Timeline) ToggleSkipping(force ...bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(force) > 0 {
		t.skip = force[0]
	} else {
		t.skip = !t.skip
	}
	return t.skip
}

// AnchorDepth reports how many scroll anchors are currently recorded.
func (t *Timeline) AnchorDepth() int { return t.anchors.depth() }

func (t *Timeline) info() api.TimelineInfo {
	return api.TimelineInfo{Name: t.cfg.Name}
}
