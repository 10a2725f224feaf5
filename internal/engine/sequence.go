package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/NkemdiAnyiam/webchalk-animate-sub001/pkg/api"
)

// launchMode records how a clip's start instant was derived.
type launchMode int

const (
	// launchNormal starts after the preceding launch group fully finishes.
	launchNormal launchMode = iota

	// launchWithPrevious starts exactly when the predecessor starts.
	launchWithPrevious

	// launchByTrigger starts exactly when the predecessor starts, pulled in
	// by the predecessor's startsNextClipToo flag.
	launchByTrigger
)

// clipTiming is the timing input of one clip to the launch plan.
type clipTiming struct {
	Delay, Duration, EndDelay time.Duration
	StartsWithPrevious        bool
	StartsNextClipToo         bool
}

func (t clipTiming) total() time.Duration { return t.Delay + t.Duration + t.EndDelay }

// launchPlan holds the derived relative start offsets of a sequence's clips.
type launchPlan struct {
	offsets []time.Duration
	modes   []launchMode
	span    time.Duration
}

// computeLaunchPlan derives each clip's start offset from the relative-timing
// flags:
//
//   - By default clip N starts when clip N-1 fully finishes (delay + active
//     + endDelay). When N-1 co-started with others, N waits for the whole
//     contiguous co-start group.
//   - startsWithPrevious on clip N starts it exactly when N-1 started.
//   - startsNextClipToo on clip N starts N+1 exactly when N starts; the flag
//     cascades, so a chain of flagged clips all start with their common
//     ancestor. The first unflagged clip after such a chain starts when its
//     triggered predecessor's delay elapses, not when it finishes.
func computeLaunchPlan(timings []clipTiming) launchPlan {
	n := len(timings)
	plan := launchPlan{
		offsets: make([]time.Duration, n),
		modes:   make([]launchMode, n),
	}

	for i := 1; i < n; i++ {
		prev := i - 1
		switch {
		case timings[i].StartsWithPrevious:
			plan.offsets[i] = plan.offsets[prev]
			plan.modes[i] = launchWithPrevious
		case timings[prev].StartsNextClipToo:
			plan.offsets[i] = plan.offsets[prev]
			plan.modes[i] = launchByTrigger
		default:
			plan.modes[i] = launchNormal
			switch plan.modes[prev] {
			case launchByTrigger:
				plan.offsets[i] = plan.offsets[prev] + timings[prev].Delay
			case launchWithPrevious:
				end := time.Duration(0)
				for j := prev; ; j-- {
					if e := plan.offsets[j] + timings[j].total(); e > end {
						end = e
					}
					if j == 0 || plan.modes[j] == launchNormal {
						break
					}
				}
				plan.offsets[i] = end
			default:
				plan.offsets[i] = plan.offsets[prev] + timings[prev].total()
			}
		}
	}

	for i := 0; i < n; i++ {
		if e := plan.offsets[i] + timings[i].total(); e > plan.span {
			plan.span = e
		}
	}
	return plan
}

// groupStart returns the index of the first clip in the contiguous co-start
// group ending at i.
func (p launchPlan) groupStart(i int) int {
	for i > 0 && p.modes[i] != launchNormal {
		i--
	}
	return i
}

// rewindOffsets mirrors the forward plan: the clip that started last forward
// rewinds first, and relative gaps are preserved.
func (p launchPlan) rewindOffsets(timings []clipTiming) []time.Duration {
	out := make([]time.Duration, len(p.offsets))
	for i := range p.offsets {
		out[i] = p.span - (p.offsets[i] + timings[i].total())
	}
	return out
}

// seqRun is the state of one in-flight sequence playback.
type seqRun struct {
	mu       sync.Mutex
	finish   bool
	launched []*Clip
	promise  *api.Promise
}

func (r *seqRun) markFinish() []*Clip {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finish = true
	return append([]*Clip(nil), r.launched...)
}

func (r *seqRun) addLaunched(c *Clip) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.launched = append(r.launched, c)
	return r.finish
}

func (r *seqRun) finishing() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finish
}

// Sequence owns an ordered list of clips and plays or rewinds them with
// deterministic relative timing.
type Sequence struct {
	id       string
	cfg      api.SequenceConfig
	observer api.Observer
	clock    Clock

	mu       sync.Mutex
	clips    []*Clip
	inFlight bool
	pauseCh  chan struct{}
	run      *seqRun
	timeline *Timeline
}

var _ api.Sequence = (*Sequence)(nil)

// SequenceParams configures NewSequence.
type SequenceParams struct {
	Config   api.SequenceConfig
	Observer api.Observer
	Clock    Clock
}

// NewSequence creates an empty sequence; add clips with AddClips.
func NewSequence(p SequenceParams) *Sequence {
	obs := p.Observer
	if obs == nil {
		obs = api.NoopObserver{}
	}
	clk := p.Clock
	if clk == nil {
		clk = RealClock()
	}
	return &Sequence{
		id:       uuid.NewString(),
		cfg:      p.Config,
		observer: obs,
		clock:    clk,
	}
}

func (s *Sequence) Config() api.SequenceConfig { return s.cfg }

func (s *Sequence) Clips() []api.Clip {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]api.Clip, len(s.clips))
	for i, c := range s.clips {
		out[i] = c
	}
	return out
}

// AddClips appends clips to the sequence and recomputes relative offsets.
// It fails with an OperationConflictError while a playback is in flight.
func (s *Sequence) AddClips(clips ...api.Clip) error {
	engineClips := make([]*Clip, len(clips))
	for i, c := range clips {
		ec, ok := c.(*Clip)
		if !ok {
			return &api.ConfigurationError{Detail: fmt.Sprintf("clip %d was not created by this engine", i)}
		}
		engineClips[i] = ec
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		return &api.OperationConflictError{Op: "add clips", State: "sequence playback is in flight"}
	}
	for _, ec := range engineClips {
		ec.seq = s
		s.clips = append(s.clips, ec)
	}
	return nil
}

// RemoveClips removes the given clips and recomputes relative offsets.
// It fails with an OperationConflictError while a playback is in flight.
func (s *Sequence) RemoveClips(clips ...api.Clip) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight {
		return &api.OperationConflictError{Op: "remove clips", State: "sequence playback is in flight"}
	}
	for _, c := range clips {
		for i, existing := range s.clips {
			if existing == c {
				existing.seq = nil
				s.clips = append(s.clips[:i], s.clips[i+1:]...)
				break
			}
		}
	}
	return nil
}

// Play starts every member clip at its derived offset. The returned promise
// resolves only once every member clip's own promise has resolved.
func (s *Sequence) Play(ctx context.Context) (*api.Promise, error) {
	return s.runPlayback(ctx, api.DirectionForward, runOpts{})
}

// Rewind replays the clips in exact reverse order with mirrored relative
// timing.
func (s *Sequence) Rewind(ctx context.Context) (*api.Promise, error) {
	return s.runPlayback(ctx, api.DirectionBackward, runOpts{})
}

// Pause suspends every in-flight member clip and defers pending launches.
// Idempotent.
func (s *Sequence) Pause() {
	s.mu.Lock()
	if s.pauseCh == nil {
		s.pauseCh = make(chan struct{})
	}
	clips := append([]*Clip(nil), s.clips...)
	s.mu.Unlock()
	for _, c := range clips {
		c.Pause()
	}
}

// Unpause resumes paused clips and pending launches. Idempotent.
func (s *Sequence) Unpause() {
	s.mu.Lock()
	if s.pauseCh != nil {
		close(s.pauseCh)
		s.pauseCh = nil
	}
	clips := append([]*Clip(nil), s.clips...)
	s.mu.Unlock()
	for _, c := range clips {
		c.Unpause()
	}
}

// Finish fast-forwards the in-flight playback: already-launched clips jump
// to their terminal states and remaining launches run instantly.
func (s *Sequence) Finish(ctx context.Context) error {
	s.mu.Lock()
	run := s.run
	s.mu.Unlock()
	if run == nil {
		return nil
	}

	launched := run.markFinish()
	s.Unpause()
	for _, c := range launched {
		if err := c.Finish(ctx); err != nil {
			return err
		}
	}
	return run.promise.Await(ctx)
}

// runOpts is how an owning timeline tunes a sequence playback.
type runOpts struct {
	skip bool
}

func (s *Sequence) runPlayback(ctx context.Context, dir api.Direction, opts runOpts) (*api.Promise, error) {
	s.mu.Lock()
	if s.inFlight {
		op := "play sequence"
		if dir == api.DirectionBackward {
			op = "rewind sequence"
		}
		s.mu.Unlock()
		return nil, &api.OperationConflictError{Op: op, State: "sequence playback is in flight"}
	}
	clips := append([]*Clip(nil), s.clips...)
	if len(clips) == 0 {
		s.mu.Unlock()
		return api.ResolvedPromise(nil), nil
	}
	run := &seqRun{promise: api.NewPromise()}
	s.inFlight = true
	s.run = run
	s.mu.Unlock()

	go s.drive(ctx, dir, clips, opts, run)
	return run.promise, nil
}

func (s *Sequence) drive(ctx context.Context, dir api.Direction, clips []*Clip, opts runOpts, run *seqRun) {
	startAt := s.clock.Now()
	info := api.SequenceInfo{
		PlaybackID:  uuid.NewString(),
		Description: s.cfg.Description,
		Tag:         s.cfg.Tag,
		ClipCount:   len(clips),
	}
	s.observer.OnSequenceStart(ctx, info, dir)

	var err error
	if dir == api.DirectionForward {
		err = s.driveForward(ctx, clips, opts, run)
	} else {
		err = s.driveBackward(ctx, clips, opts, run)
	}

	s.mu.Lock()
	s.inFlight = false
	s.run = nil
	s.mu.Unlock()

	s.observer.OnSequenceFinished(ctx, info, dir, err, s.clock.Now().Sub(startAt))
	run.promise.Resolve(err)
}

// driveForward launches clips in order, keying each launch on the events of
// its predecessors so that pausing a clip defers everything downstream of it.
func (s *Sequence) driveForward(ctx context.Context, clips []*Clip, opts runOpts, run *seqRun) error {
	plan := computeLaunchPlan(s.timings(clips))
	pbs := make([]*playback, len(clips))

	var firstErr error
	for i, clip := range clips {
		if err := s.waitIfPaused(ctx); err != nil {
			firstErr = err
			break
		}
		if i > 0 {
			if err := s.awaitLaunchPoint(ctx, plan, i, pbs); err != nil {
				firstErr = err
				break
			}
		}
		pb, err := clip.playWith(ctx, api.DirectionForward, playOpts{
			skip: opts.skip || run.finishing(),
			rate: s.rate(),
		})
		if err != nil {
			firstErr = err
			break
		}
		pbs[i] = pb
		run.addLaunched(clip)
	}

	if err := joinPlaybacks(ctx, pbs); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// awaitLaunchPoint blocks until clip i's launch condition holds.
func (s *Sequence) awaitLaunchPoint(ctx context.Context, plan launchPlan, i int, pbs []*playback) error {
	prev := pbs[i-1]
	switch plan.modes[i] {
	case launchWithPrevious, launchByTrigger:
		return awaitEvent(ctx, prev.started, prev.promise)
	default:
		if plan.modes[i-1] == launchByTrigger {
			return awaitEvent(ctx, prev.delayDone, prev.promise)
		}
		for j := plan.groupStart(i - 1); j < i; j++ {
			if err := pbs[j].promise.Await(ctx); err != nil {
				return err
			}
		}
		return nil
	}
}

// driveBackward launches rewinds at mirrored offsets: last started, first
// rewound.
func (s *Sequence) driveBackward(ctx context.Context, clips []*Clip, opts runOpts, run *seqRun) error {
	timings := s.timings(clips)
	plan := computeLaunchPlan(timings)
	offsets := plan.rewindOffsets(timings)

	order := make([]int, len(clips))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		if offsets[order[a]] != offsets[order[b]] {
			return offsets[order[a]] < offsets[order[b]]
		}
		return order[a] > order[b]
	})

	pbs := make([]*playback, len(clips))
	var firstErr error
	elapsed := time.Duration(0)
	for _, i := range order {
		if err := s.waitIfPaused(ctx); err != nil {
			firstErr = err
			break
		}
		if wait := offsets[i] - elapsed; wait > 0 && !opts.skip && !run.finishing() {
			if err := s.clock.Sleep(ctx, scaled(wait, s.rate())); err != nil {
				firstErr = err
				break
			}
		}
		elapsed = offsets[i]

		pb, err := clips[i].playWith(ctx, api.DirectionBackward, playOpts{
			skip: opts.skip || run.finishing(),
			rate: s.rate(),
		})
		if err != nil {
			firstErr = err
			break
		}
		pbs[i] = pb
		run.addLaunched(clips[i])
	}

	if err := joinPlaybacks(ctx, pbs); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

func (s *Sequence) timings(clips []*Clip) []clipTiming {
	out := make([]clipTiming, len(clips))
	for i, c := range clips {
		cfg := c.EffectiveConfig()
		out[i] = clipTiming{
			Delay:              cfg.Delay,
			Duration:           cfg.Duration,
			EndDelay:           cfg.EndDelay,
			StartsWithPrevious: cfg.StartsWithPrevious,
			StartsNextClipToo:  cfg.StartsNextClipToo,
		}
	}
	return out
}

func (s *Sequence) rate() float64 {
	if s.cfg.PlaybackRate > 0 {
		return s.cfg.PlaybackRate
	}
	return 1
}

func (s *Sequence) waitIfPaused(ctx context.Context) error {
	for {
		s.mu.Lock()
		ch := s.pauseCh
		s.mu.Unlock()
		if ch == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ch:
		}
	}
}

func (s *Sequence) ownerTimeline() *Timeline {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeline
}

// awaitEvent waits for ev, bailing out early if the playback it belongs to
// settles first (for example after a mid-phase failure).
func awaitEvent(ctx context.Context, ev <-chan struct{}, p *api.Promise) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-ev:
		return nil
	case <-p.Done():
		return p.Err()
	}
}

func joinPlaybacks(ctx context.Context, pbs []*playback) error {
	var firstErr error
	for _, pb := range pbs {
		if pb == nil {
			continue
		}
		if err := pb.promise.Await(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
