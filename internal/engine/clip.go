package engine

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/NkemdiAnyiam/webchalk-animate-sub001/pkg/api"
)

// defaultFrameInterval is the mutator tick period during real-time playback.
const defaultFrameInterval = 16 * time.Millisecond

// ClipParams configures NewClip. Category, EffectName, Generator, and Target
// are required.
type ClipParams struct {
	Category   api.Category
	EffectName string
	Generator  api.EffectGenerator
	Target     api.Target

	// CallSite is the call-site configuration layer.
	CallSite api.EffectConfig

	// Options are the declarative effect options forwarded to ComposeEffect.
	Options []any

	// Strict makes call-site overrides of immutable fields an error instead
	// of silently discarding them.
	Strict bool

	Observer      api.Observer
	Clock         Clock
	FrameInterval time.Duration
}

// roadblockKey addresses one await point.
type roadblockKey struct {
	dir      api.Direction
	phase    api.Phase
	fraction float64
}

// Clip owns one (target, effect) pair and drives its play/rewind/pause/finish
// lifecycle. Clips are reused across repeated play/rewind cycles.
type Clip struct {
	id         string
	category   api.Category
	effectName string
	target     api.Target
	cfg        api.ResolvedConfig
	hooks      hookSet
	observer   api.Observer
	clock      Clock
	composer   *composer
	frameEvery time.Duration

	mu         sync.Mutex
	phase      api.Phase
	direction  api.Direction
	inFlight   bool
	pauseCh    chan struct{} // non-nil while paused
	current    *playback
	roadblocks map[roadblockKey][]api.RoadblockFunc

	// hideMethod records how the target was hidden so the paired backward
	// play can restore exactly that method.
	hideMethod string

	// seq is the owning sequence, when any; it scopes the anchor stack.
	seq *Sequence

	progress atomic.Uint64 // float64 bits
}

var _ api.Clip = (*Clip)(nil)

// playback is the per-invocation state of one play or rewind.
type playback struct {
	id       string
	dir      api.Direction
	composed api.ComposedEffect
	promise  *api.Promise

	// started closes once the playback has passed the pause gate and
	// entered its first phase; delayDone closes when a forward delay phase
	// completes. Sequence schedulers key relative timing on these.
	started   chan struct{}
	delayDone chan struct{}

	finishCh   chan struct{}
	finishOnce sync.Once

	skip bool
	rate float64

	// reversedTime is set when a backward playback falls back to replaying
	// the forward mutator with reversed time direction.
	reversedTime bool
}

func (pb *playback) requestFinish() {
	pb.finishOnce.Do(func() { close(pb.finishCh) })
}

func (pb *playback) finishing() bool {
	select {
	case <-pb.finishCh:
		return true
	default:
		return false
	}
}

func (pb *playback) instant() bool { return pb.skip || pb.finishing() }

// playOpts is how an owning sequence tunes an individual launch.
type playOpts struct {
	skip bool
	rate float64
}

// NewClip builds a clip from a frozen generator. It resolves the effective
// configuration immediately, so configuration and range errors surface at
// construction rather than first play.
func NewClip(p ClipParams) (*Clip, error) {
	hooks, ok := hooksFor(p.Category)
	if !ok {
		return nil, &api.RangeError{
			Field:    "category",
			Value:    string(p.Category),
			Accepted: categoryNames(),
		}
	}
	if p.Target == nil {
		return nil, &api.ConfigurationError{Effect: p.EffectName, Detail: "clip has no target"}
	}
	if isConnectorCategory(p.Category) {
		if _, ok := p.Target.(api.Connector); !ok {
			return nil, &api.ConfigurationError{
				Effect: p.EffectName,
				Detail: fmt.Sprintf("%s clips require a connector target; %q is not one", p.Category, p.Target.ID()),
			}
		}
	}
	if p.Generator.ComposeEffect == nil {
		return nil, &api.ConfigurationError{Effect: p.EffectName, Detail: "generator has no ComposeEffect"}
	}

	cfg, err := resolveConfig(p.Category, p.EffectName, p.Generator, p.CallSite, p.Strict)
	if err != nil {
		return nil, err
	}

	obs := p.Observer
	if obs == nil {
		obs = api.NoopObserver{}
	}
	clk := p.Clock
	if clk == nil {
		clk = RealClock()
	}
	frameEvery := p.FrameInterval
	if frameEvery <= 0 {
		frameEvery = defaultFrameInterval
	}

	c := &Clip{
		id:         uuid.NewString(),
		category:   p.Category,
		effectName: p.EffectName,
		target:     p.Target,
		cfg:        cfg,
		hooks:      hooks,
		observer:   obs,
		clock:      clk,
		frameEvery: frameEvery,
		phase:      api.PhaseIdle,
		direction:  api.DirectionNone,
		roadblocks: make(map[roadblockKey][]api.RoadblockFunc),
	}
	c.composer = newComposer(p.EffectName, p.Generator, api.NewComposeContext(p.Target, c.currentProgress), p.Options)
	return c, nil
}

func (c *Clip) ID() string                          { return c.id }
func (c *Clip) Category() api.Category              { return c.category }
func (c *Clip) EffectName() string                  { return c.effectName }
func (c *Clip) Target() api.Target                  { return c.target }
func (c *Clip) EffectiveConfig() api.ResolvedConfig { return c.cfg }

func (c *Clip) Status() api.ClipStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return api.ClipStatus{
		Direction: c.direction,
		Phase:     c.phase,
		Paused:    c.pauseCh != nil,
		Progress:  c.currentProgress(),
		InFlight:  c.inFlight,
	}
}

// Play runs the clip forward from idle to finished.
func (c *Clip) Play(ctx context.Context) (*api.Promise, error) {
	pb, err := c.playWith(ctx, api.DirectionForward, playOpts{rate: 1})
	if err != nil {
		return nil, err
	}
	return pb.promise, nil
}

// Rewind runs the clip backward from finished to idle.
func (c *Clip) Rewind(ctx context.Context) (*api.Promise, error) {
	pb, err := c.playWith(ctx, api.DirectionBackward, playOpts{rate: 1})
	if err != nil {
		return nil, err
	}
	return pb.promise, nil
}

// playWith starts one playback. All synchronous failure modes (operation
// conflicts, composition errors, precondition violations) return before any
// frame is applied, leaving state unchanged and the call retryable.
func (c *Clip) playWith(ctx context.Context, dir api.Direction, opts playOpts) (*playback, error) {
	c.mu.Lock()
	if c.inFlight {
		op := "play clip"
		if dir == api.DirectionBackward {
			op = "rewind clip"
		}
		state := fmt.Sprintf("a %s playback is already in flight", c.direction)
		c.mu.Unlock()
		return nil, &api.OperationConflictError{Op: op, State: state}
	}
	if dir == api.DirectionForward && c.phase != api.PhaseIdle {
		state := fmt.Sprintf("clip is %s; rewind it before playing again", c.phase)
		c.mu.Unlock()
		return nil, &api.OperationConflictError{Op: "play clip", State: state}
	}
	if dir == api.DirectionBackward && c.phase != api.PhaseFinished {
		state := fmt.Sprintf("clip is %s; only a finished clip can rewind", c.phase)
		c.mu.Unlock()
		return nil, &api.OperationConflictError{Op: "rewind clip", State: state}
	}
	// Reserve the clip so a racing start sees the conflict.
	c.inFlight = true
	c.mu.Unlock()

	composed, err := c.composer.composeFor(dir)
	if err != nil {
		c.abortStart()
		return nil, err
	}
	if hook := c.hooks.start(dir); hook != nil {
		if err := hook(c); err != nil {
			c.abortStart()
			return nil, err
		}
	}

	rate := c.cfg.PlaybackRate
	if opts.rate > 0 {
		rate *= opts.rate
	}
	pb := &playback{
		id:        uuid.NewString(),
		dir:       dir,
		composed:  composed,
		promise:   api.NewPromise(),
		started:   make(chan struct{}),
		delayDone: make(chan struct{}),
		finishCh:  make(chan struct{}),
		skip:      opts.skip,
		rate:      rate,
	}

	c.mu.Lock()
	c.direction = dir
	c.current = pb
	c.mu.Unlock()

	go c.run(ctx, pb)
	return pb, nil
}

func (c *Clip) abortStart() {
	c.mu.Lock()
	c.inFlight = false
	c.mu.Unlock()
}

// Pause suspends progression within the current phase. Idempotent.
func (c *Clip) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pauseCh == nil {
		c.pauseCh = make(chan struct{})
	}
}

// Unpause resumes progression. Idempotent.
func (c *Clip) Unpause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pauseCh != nil {
		close(c.pauseCh)
		c.pauseCh = nil
	}
}

// Finish fast-forwards the current playback to its terminal state, still
// firing hooks in order. Roadblocks not yet reached are skipped. Without a
// playback in flight it is a no-op.
func (c *Clip) Finish(ctx context.Context) error {
	c.mu.Lock()
	pb := c.current
	if !c.inFlight || pb == nil {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	pb.requestFinish()
	c.Unpause()
	return pb.promise.Await(ctx)
}

// AddRoadblock registers an await point at a fraction of the given phase for
// the given direction. The clip suspends exactly there, runs every roadblock
// registered for that point concurrently, and resumes once all settle.
// Roadblocks still run under timeline skip mode; Finish bypasses the ones
// not yet reached.
func (c *Clip) AddRoadblock(dir api.Direction, phase api.Phase, fraction float64, fn api.RoadblockFunc) error {
	if fn == nil {
		return &api.ConfigurationError{Detail: "roadblock function must not be nil"}
	}
	switch dir {
	case api.DirectionForward, api.DirectionBackward:
	default:
		return &api.RangeError{
			Field:    "direction",
			Value:    string(dir),
			Accepted: []string{string(api.DirectionForward), string(api.DirectionBackward)},
		}
	}
	switch phase {
	case api.PhaseDelay, api.PhaseActive, api.PhaseEndDelay:
	default:
		return &api.RangeError{
			Field:    "phase",
			Value:    string(phase),
			Accepted: []string{string(api.PhaseDelay), string(api.PhaseActive), string(api.PhaseEndDelay)},
		}
	}
	if fraction < 0 || fraction > 1 || math.IsNaN(fraction) {
		return &api.RangeError{
			Field:    "fraction",
			Value:    fmt.Sprintf("%v", fraction),
			Accepted: []string{"0 through 1"},
		}
	}

	key := roadblockKey{dir: dir, phase: phase, fraction: fraction}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roadblocks[key] = append(c.roadblocks[key], fn)
	return nil
}

// run drives one playback through its phases and settles the promise.
func (c *Clip) run(ctx context.Context, pb *playback) {
	startAt := c.clock.Now()
	err := c.runPhases(ctx, pb)
	if err == nil {
		if hook := c.hooks.finish(pb.dir); hook != nil {
			err = hook(c)
		}
	}

	c.mu.Lock()
	if err == nil {
		if pb.dir == api.DirectionForward {
			c.phase = api.PhaseFinished
		} else {
			c.phase = api.PhaseIdle
		}
		c.direction = api.DirectionNone
	}
	c.inFlight = false
	c.current = nil
	c.mu.Unlock()

	c.observer.OnClipFinished(ctx, c.info(pb), pb.dir, err, c.clock.Now().Sub(startAt))
	pb.promise.Resolve(err)
}

func (c *Clip) runPhases(ctx context.Context, pb *playback) error {
	// The pause gate sits before the start notification, so a paused clip
	// does not count as started and does not trigger flagged successors
	// until unpaused.
	if err := c.waitIfPaused(ctx); err != nil {
		return err
	}
	close(pb.started)
	c.observer.OnClipStart(ctx, c.info(pb), pb.dir)

	phases := []api.Phase{api.PhaseDelay, api.PhaseActive, api.PhaseEndDelay}
	if pb.dir == api.DirectionBackward {
		phases = []api.Phase{api.PhaseEndDelay, api.PhaseActive, api.PhaseDelay}
	}

	for _, ph := range phases {
		c.setPhase(ph)
		c.observer.OnPhaseEntered(ctx, c.info(pb), pb.dir, ph)
		if err := c.runPhase(ctx, pb, ph); err != nil {
			return err
		}
		if ph == api.PhaseDelay && pb.dir == api.DirectionForward {
			close(pb.delayDone)
		}
	}
	return nil
}

func (c *Clip) runPhase(ctx context.Context, pb *playback, ph api.Phase) error {
	dur := c.phaseDuration(ph, pb)

	var schedule []scheduledFrame
	var mutator api.FrameFunc
	if ph == api.PhaseActive {
		var err error
		schedule, mutator, err = c.activeCallables(pb)
		if err != nil {
			return err
		}
	}

	stops := c.stopPoints(pb, ph, schedule)
	applied := 0
	prev := 0.0
	for _, stop := range stops {
		if err := c.traverse(ctx, pb, ph, prev, stop, dur, mutator); err != nil {
			return err
		}
		for applied < len(schedule) && schedule[applied].at <= stop+1e-9 {
			if err := schedule[applied].apply(); err != nil {
				return fmt.Errorf("keyframe at %.3f of %s phase: %w", schedule[applied].at, ph, err)
			}
			applied++
		}
		if err := c.runRoadblocks(ctx, pb, ph, stop); err != nil {
			return err
		}
		prev = stop
	}
	return nil
}

// traverse advances phase travel from fraction `from` to `to`, pacing against
// the clock and invoking the per-frame mutator, if any, on every tick.
func (c *Clip) traverse(ctx context.Context, pb *playback, ph api.Phase, from, to float64, dur time.Duration, mutator api.FrameFunc) error {
	span := to - from
	if span < 0 {
		span = 0
	}
	total := time.Duration(float64(dur) * span)

	if total > 0 && !pb.instant() {
		steps := int(total / c.frameEvery)
		if steps < 1 {
			steps = 1
		}
		slice := total / time.Duration(steps)
		for i := 1; i <= steps; i++ {
			if err := c.waitIfPaused(ctx); err != nil {
				return err
			}
			if pb.instant() {
				break
			}
			if err := c.sleep(ctx, pb, slice); err != nil {
				return err
			}
			c.commitProgress(pb, ph, from+span*float64(i)/float64(steps))
			if mutator != nil {
				if err := mutator(); err != nil {
					return fmt.Errorf("frame mutator in %s phase: %w", ph, err)
				}
			}
		}
	}

	c.commitProgress(pb, ph, to)
	if mutator != nil {
		if err := mutator(); err != nil {
			return fmt.Errorf("frame mutator in %s phase: %w", ph, err)
		}
	}
	return nil
}

// sleep waits on the clock but wakes early when the playback is finished.
func (c *Clip) sleep(ctx context.Context, pb *playback, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	sctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- c.clock.Sleep(sctx, d) }()

	select {
	case <-pb.finishCh:
		cancel()
		<-done
		return nil
	case err := <-done:
		if err != nil && ctx.Err() == nil {
			// Sleep was cut short by our own cancel.
			return nil
		}
		return err
	}
}

func (c *Clip) runRoadblocks(ctx context.Context, pb *playback, ph api.Phase, fraction float64) error {
	if pb.finishing() {
		return nil
	}
	fns := c.roadblocksFor(pb.dir, ph, fraction)
	if len(fns) == 0 {
		return nil
	}

	c.observer.OnRoadblockWait(ctx, c.info(pb), pb.dir, ph, fraction, len(fns))
	g, gctx := errgroup.WithContext(ctx)
	for _, fn := range fns {
		fn := fn
		g.Go(func() error { return fn(gctx) })
	}
	return g.Wait()
}

// activeCallables selects the keyframes and mutator for the playback
// direction, falling back per callable to the forward producer replayed with
// reversed time when the backward one is absent.
func (c *Clip) activeCallables(pb *playback) ([]scheduledFrame, api.FrameFunc, error) {
	kfp := pb.composed.ForwardKeyframes
	mp := pb.composed.ForwardMutator
	reversedKF := false
	if pb.dir == api.DirectionBackward {
		kfp, mp = pb.composed.BackwardKeyframes, pb.composed.BackwardMutator
		if kfp == nil && pb.composed.ForwardKeyframes != nil {
			kfp = pb.composed.ForwardKeyframes
			reversedKF = true
		}
		if mp == nil && pb.composed.ForwardMutator != nil {
			mp = pb.composed.ForwardMutator
			pb.reversedTime = true
		}
	}

	var schedule []scheduledFrame
	if kfp != nil {
		frames, err := kfp()
		if err != nil {
			return nil, nil, fmt.Errorf("producing keyframes for effect %q: %w", c.effectName, err)
		}
		schedule, err = buildFrameSchedule(frames, reversedKF)
		if err != nil {
			return nil, nil, err
		}
	}

	var mutator api.FrameFunc
	if mp != nil {
		var err error
		mutator, err = mp()
		if err != nil {
			return nil, nil, fmt.Errorf("producing frame mutator for effect %q: %w", c.effectName, err)
		}
	}
	return schedule, mutator, nil
}

// scheduledFrame is a keyframe resolved to an absolute travel fraction.
type scheduledFrame struct {
	at    float64
	apply func() error
}

func buildFrameSchedule(frames []api.Keyframe, reversed bool) ([]scheduledFrame, error) {
	n := len(frames)
	if n == 0 {
		return nil, nil
	}

	autoCount := 0
	for _, f := range frames {
		if f.Offset < 0 {
			autoCount++
			continue
		}
		if f.Offset > 1 {
			return nil, &api.RangeError{
				Field:    "keyframe offset",
				Value:    fmt.Sprintf("%v", f.Offset),
				Accepted: []string{"0 through 1, or negative for auto spacing"},
			}
		}
	}

	// Auto spacing distributes only the negative-offset frames; explicitly
	// positioned siblings keep their offsets.
	out := make([]scheduledFrame, 0, n)
	autoIdx := 0
	for i, f := range frames {
		if f.Apply == nil {
			return nil, &api.ConfigurationError{Detail: fmt.Sprintf("keyframe %d has no Apply", i)}
		}
		at := f.Offset
		if f.Offset < 0 {
			if autoCount == 1 {
				at = 1
			} else {
				at = float64(autoIdx) / float64(autoCount-1)
			}
			autoIdx++
		}
		if reversed {
			at = 1 - at
		}
		out = append(out, scheduledFrame{at: at, apply: f.Apply})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].at < out[j].at })
	return out, nil
}

// stopPoints returns the ordered travel fractions the phase must pause at:
// every roadblock point, every keyframe, and the phase end.
func (c *Clip) stopPoints(pb *playback, ph api.Phase, schedule []scheduledFrame) []float64 {
	set := map[float64]struct{}{1: {}}
	for _, f := range schedule {
		set[f.at] = struct{}{}
	}
	c.mu.Lock()
	for key := range c.roadblocks {
		if key.dir == pb.dir && key.phase == ph {
			set[key.fraction] = struct{}{}
		}
	}
	c.mu.Unlock()

	stops := make([]float64, 0, len(set))
	for f := range set {
		stops = append(stops, f)
	}
	sort.Float64s(stops)
	return stops
}

func (c *Clip) roadblocksFor(dir api.Direction, ph api.Phase, fraction float64) []api.RoadblockFunc {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roadblocks[roadblockKey{dir: dir, phase: ph, fraction: fraction}]
}

func (c *Clip) phaseDuration(ph api.Phase, pb *playback) time.Duration {
	var d time.Duration
	switch ph {
	case api.PhaseDelay:
		d = c.cfg.Delay
	case api.PhaseActive:
		d = c.cfg.Duration
	case api.PhaseEndDelay:
		d = c.cfg.EndDelay
	}
	return scaled(d, pb.rate)
}

// commitProgress records the effect-visible progress for the active phase.
// Travel runs 0 to 1 through every phase in the direction of playback; under
// reversed-time fallback the effect sees 1 down to 0 instead.
func (c *Clip) commitProgress(pb *playback, ph api.Phase, travel float64) {
	if ph != api.PhaseActive {
		return
	}
	p := travel
	if pb.reversedTime {
		p = 1 - travel
	}
	c.progress.Store(math.Float64bits(p))
}

func (c *Clip) currentProgress() float64 {
	return math.Float64frombits(c.progress.Load())
}

func (c *Clip) setPhase(ph api.Phase) {
	c.mu.Lock()
	c.phase = ph
	c.mu.Unlock()
}

func (c *Clip) waitIfPaused(ctx context.Context) error {
	for {
		c.mu.Lock()
		ch := c.pauseCh
		c.mu.Unlock()
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

func (c *Clip) info(pb *playback) api.ClipInfo {
	return api.ClipInfo{
		PlaybackID: pb.id,
		ClipID:     c.id,
		Category:   c.category,
		EffectName: c.effectName,
		TargetID:   c.target.ID(),
	}
}

// anchorStackFor resolves the scroll anchor stack in scope for this clip.
func (c *Clip) anchorStackFor() *anchorStack {
	if c.seq != nil {
		if tl := c.seq.ownerTimeline(); tl != nil {
			return &tl.anchors
		}
	}
	return &defaultAnchors
}

func categoryNames() []string {
	cats := api.Categories()
	names := make([]string, len(cats))
	for i, cat := range cats {
		names[i] = string(cat)
	}
	return names
}

func isConnectorCategory(cat api.Category) bool {
	switch cat {
	case api.CategoryConnectorSetter, api.CategoryConnectorEntrance, api.CategoryConnectorExit:
		return true
	}
	return false
}
