package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/NkemdiAnyiam/webchalk-animate-sub001/pkg/api"
)

// eventRecorder captures observer callbacks in arrival order, keyed by the
// clip's target so assertions stay readable.
type eventRecorder struct {
	api.NoopObserver

	mu     sync.Mutex
	events []string

	roadblockWait chan struct{}
}

func newEventRecorder() *eventRecorder {
	return &eventRecorder{roadblockWait: make(chan struct{}, 16)}
}

func (r *eventRecorder) record(ev string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *eventRecorder) OnClipStart(ctx context.Context, clip api.ClipInfo, dir api.Direction) {
	r.record(fmt.Sprintf("start:%s:%s", clip.TargetID, dir))
}

func (r *eventRecorder) OnClipFinished(ctx context.Context, clip api.ClipInfo, dir api.Direction, err error, d time.Duration) {
	if err != nil {
		r.record(fmt.Sprintf("fail:%s:%s", clip.TargetID, dir))
		return
	}
	r.record(fmt.Sprintf("finish:%s:%s", clip.TargetID, dir))
}

func (r *eventRecorder) OnRoadblockWait(ctx context.Context, clip api.ClipInfo, dir api.Direction, ph api.Phase, fraction float64, count int) {
	r.record(fmt.Sprintf("roadblock:%s:%s:%v", clip.TargetID, ph, fraction))
	select {
	case r.roadblockWait <- struct{}{}:
	default:
	}
}

func (r *eventRecorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

// instant is a call-site layer that zeroes every phase duration so playbacks
// settle without pacing.
func instant() api.EffectConfig {
	return api.EffectConfig{
		Duration: api.Dur(0),
		Delay:    api.Dur(0),
		EndDelay: api.Dur(0),
	}
}

func opacityGenerator() api.EffectGenerator {
	return api.EffectGenerator{
		ComposeEffect: func(ctx *api.ComposeContext, _ ...any) (api.ComposedEffect, error) {
			return api.ComposedEffect{
				ForwardMutator: func() (api.FrameFunc, error) {
					return func() error {
						ctx.Target().SetStyle("opacity", fmt.Sprintf("%.2f", ctx.ComputeTween(0, 1)))
						return nil
					}, nil
				},
			}, nil
		},
	}
}

func newTestClip(t *testing.T, p ClipParams) *Clip {
	t.Helper()
	if p.EffectName == "" {
		p.EffectName = "fx"
	}
	if p.Generator.ComposeEffect == nil {
		p.Generator = opacityGenerator()
	}
	if p.CallSite.Duration == nil && p.CallSite.Delay == nil && p.CallSite.EndDelay == nil {
		p.CallSite = instant()
	}
	c, err := NewClip(p)
	if err != nil {
		t.Fatalf("NewClip failed: %v", err)
	}
	return c
}

func awaitPromise(t *testing.T, p *api.Promise) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.Await(ctx); err != nil {
		t.Fatalf("playback failed: %v", err)
	}
}

func TestClipPlayRewindRoundTrip(t *testing.T) {
	ctx := context.Background()
	target := api.NewHiddenStubTarget("box")
	c := newTestClip(t, ClipParams{Category: api.CategoryEntrance, Target: target})

	p, err := c.Play(ctx)
	if err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	awaitPromise(t, p)

	if got := c.Status().Phase; got != api.PhaseFinished {
		t.Fatalf("expected phase finished after play, got %s", got)
	}
	if target.HasClass(api.HiddenClassName) {
		t.Fatalf("entrance play should have removed the hidden class")
	}

	p, err = c.Rewind(ctx)
	if err != nil {
		t.Fatalf("Rewind failed: %v", err)
	}
	awaitPromise(t, p)

	if got := c.Status().Phase; got != api.PhaseIdle {
		t.Fatalf("expected phase idle after rewind, got %s", got)
	}
	if !target.HasClass(api.HiddenClassName) {
		t.Fatalf("entrance rewind should have restored the hidden class")
	}
}

func TestClipOperationConflicts(t *testing.T) {
	ctx := context.Background()
	rec := newEventRecorder()
	c := newTestClip(t, ClipParams{
		Category: api.CategoryEmphasis,
		Target:   api.NewStubTarget("box"),
		Observer: rec,
	})

	// Rewinding an idle clip is invalid.
	if _, err := c.Rewind(ctx); !api.IsOperationConflict(err) {
		t.Fatalf("expected OperationConflictError rewinding idle clip, got %v", err)
	}

	// Hold the playback open at a roadblock, then try to play again.
	gate := make(chan struct{})
	if err := c.AddRoadblock(api.DirectionForward, api.PhaseActive, 0.5, func(ctx context.Context) error {
		<-gate
		return nil
	}); err != nil {
		t.Fatalf("AddRoadblock failed: %v", err)
	}

	p, err := c.Play(ctx)
	if err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	<-rec.roadblockWait

	if _, err := c.Play(ctx); !api.IsOperationConflict(err) {
		t.Fatalf("expected OperationConflictError playing in-flight clip, got %v", err)
	}

	close(gate)
	awaitPromise(t, p)

	// Playing a finished clip is invalid until it rewinds.
	if _, err := c.Play(ctx); !api.IsOperationConflict(err) {
		t.Fatalf("expected OperationConflictError playing finished clip, got %v", err)
	}
}

func TestClipEntrancePreconditionIsRetryable(t *testing.T) {
	ctx := context.Background()
	target := api.NewStubTarget("box") // visible: no hidden marker
	c := newTestClip(t, ClipParams{Category: api.CategoryEntrance, Target: target})

	_, err := c.Play(ctx)
	if !api.IsPreconditionError(err) {
		t.Fatalf("expected PreconditionError, got %v", err)
	}
	st := c.Status()
	if st.Phase != api.PhaseIdle || st.InFlight {
		t.Fatalf("failed start must leave state unchanged, got %+v", st)
	}

	target.AddClass(api.HiddenClassName)
	p, err := c.Play(ctx)
	if err != nil {
		t.Fatalf("retry after fixing the target failed: %v", err)
	}
	awaitPromise(t, p)
}

func TestClipExitHidesPerExitType(t *testing.T) {
	ctx := context.Background()

	t.Run("display-none", func(t *testing.T) {
		target := api.NewStubTarget("box")
		c := newTestClip(t, ClipParams{Category: api.CategoryExit, Target: target})

		p, err := c.Play(ctx)
		if err != nil {
			t.Fatalf("Play failed: %v", err)
		}
		awaitPromise(t, p)
		if !target.HasClass(api.HiddenClassName) {
			t.Fatalf("exit with display-none should add the hidden class")
		}

		p, err = c.Rewind(ctx)
		if err != nil {
			t.Fatalf("Rewind failed: %v", err)
		}
		awaitPromise(t, p)
		if target.HasClass(api.HiddenClassName) {
			t.Fatalf("exit rewind should remove the hidden class")
		}
	})

	t.Run("visibility-hidden", func(t *testing.T) {
		target := api.NewStubTarget("box")
		cfg := instant()
		cfg.ExitType = api.Str(api.ExitVisibilityHidden)
		c := newTestClip(t, ClipParams{Category: api.CategoryExit, Target: target, CallSite: cfg})

		p, err := c.Play(ctx)
		if err != nil {
			t.Fatalf("Play failed: %v", err)
		}
		awaitPromise(t, p)
		if got := target.GetStyle("visibility"); got != "hidden" {
			t.Fatalf("expected visibility hidden, got %q", got)
		}
		if target.HasClass(api.HiddenClassName) {
			t.Fatalf("visibility-hidden exit must not add the hidden class")
		}

		p, err = c.Rewind(ctx)
		if err != nil {
			t.Fatalf("Rewind failed: %v", err)
		}
		awaitPromise(t, p)
		if got := target.GetStyle("visibility"); got != "" {
			t.Fatalf("expected visibility restored, got %q", got)
		}
	})

	t.Run("immutable exit type overrides call site", func(t *testing.T) {
		target := api.NewStubTarget("box")
		gen := opacityGenerator()
		gen.ImmutableConfig = api.EffectConfig{ExitType: api.Str(api.ExitDisplayNone)}
		cfg := instant()
		cfg.ExitType = api.Str(api.ExitVisibilityHidden)
		c := newTestClip(t, ClipParams{Category: api.CategoryExit, Target: target, Generator: gen, CallSite: cfg})

		p, err := c.Play(ctx)
		if err != nil {
			t.Fatalf("Play failed: %v", err)
		}
		awaitPromise(t, p)
		if !target.HasClass(api.HiddenClassName) {
			t.Fatalf("immutable display-none exit should add the hidden class")
		}
		if got := target.GetStyle("visibility"); got != "" {
			t.Fatalf("call-site visibility-hidden must be discarded, got visibility %q", got)
		}
	})

	t.Run("exit on hidden target fails", func(t *testing.T) {
		c := newTestClip(t, ClipParams{Category: api.CategoryExit, Target: api.NewHiddenStubTarget("box")})
		_, err := c.Play(ctx)
		if !api.IsPreconditionError(err) {
			t.Fatalf("expected PreconditionError, got %v", err)
		}
	})
}

func TestClipFinishFastForwards(t *testing.T) {
	ctx := context.Background()
	clk := NewManualClock(time.Unix(0, 0))
	rec := newEventRecorder()
	c := newTestClip(t, ClipParams{
		Category: api.CategoryEmphasis,
		Target:   api.NewStubTarget("box"),
		CallSite: api.EffectConfig{Duration: api.Dur(time.Hour)},
		Observer: rec,
		Clock:    clk,
	})

	// An unreached roadblock must be bypassed by Finish.
	roadblockRan := false
	if err := c.AddRoadblock(api.DirectionForward, api.PhaseActive, 0.5, func(ctx context.Context) error {
		roadblockRan = true
		return nil
	}); err != nil {
		t.Fatalf("AddRoadblock failed: %v", err)
	}

	if _, err := c.Play(ctx); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	waitForSleepers(t, clk, 1)

	fctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := c.Finish(fctx); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}
	if got := c.Status().Phase; got != api.PhaseFinished {
		t.Fatalf("expected phase finished after Finish, got %s", got)
	}
	if roadblockRan {
		t.Fatalf("Finish must bypass roadblocks not yet reached")
	}

	// Finish with nothing in flight is a no-op.
	if err := c.Finish(ctx); err != nil {
		t.Fatalf("idle Finish failed: %v", err)
	}
}

func TestClipPauseGateDefersStart(t *testing.T) {
	ctx := context.Background()
	rec := newEventRecorder()
	c := newTestClip(t, ClipParams{
		Category: api.CategoryEmphasis,
		Target:   api.NewStubTarget("box"),
		Observer: rec,
	})

	c.Pause()
	c.Pause() // idempotent

	p, err := c.Play(ctx)
	if err != nil {
		t.Fatalf("Play failed: %v", err)
	}

	time.Sleep(20 * time.Millisecond)
	if evs := rec.list(); len(evs) != 0 {
		t.Fatalf("paused clip must not start, saw %v", evs)
	}
	if !c.Status().Paused {
		t.Fatalf("expected paused status")
	}

	c.Unpause()
	c.Unpause() // idempotent
	awaitPromise(t, p)
}

func TestClipRoadblockErrorFailsPlayback(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	c := newTestClip(t, ClipParams{Category: api.CategoryEmphasis, Target: api.NewStubTarget("box")})
	if err := c.AddRoadblock(api.DirectionForward, api.PhaseActive, 1, func(ctx context.Context) error {
		return boom
	}); err != nil {
		t.Fatalf("AddRoadblock failed: %v", err)
	}

	p, err := c.Play(ctx)
	if err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if err := p.Await(ctx); !errors.Is(err, boom) {
		t.Fatalf("expected roadblock error to fail the playback, got %v", err)
	}
}

func TestClipAddRoadblockValidation(t *testing.T) {
	c := newTestClip(t, ClipParams{Category: api.CategoryEmphasis, Target: api.NewStubTarget("box")})
	ok := func(ctx context.Context) error { return nil }

	if err := c.AddRoadblock("sideways", api.PhaseActive, 0.5, ok); !api.IsRangeError(err) {
		t.Fatalf("expected RangeError for bad direction, got %v", err)
	}
	if err := c.AddRoadblock(api.DirectionForward, api.PhaseIdle, 0.5, ok); !api.IsRangeError(err) {
		t.Fatalf("expected RangeError for bad phase, got %v", err)
	}
	if err := c.AddRoadblock(api.DirectionForward, api.PhaseActive, 1.5, ok); !api.IsRangeError(err) {
		t.Fatalf("expected RangeError for bad fraction, got %v", err)
	}
	if err := c.AddRoadblock(api.DirectionForward, api.PhaseActive, 0.5, nil); !api.IsConfigurationError(err) {
		t.Fatalf("expected ConfigurationError for nil roadblock, got %v", err)
	}
}

func TestClipCompositionFrequency(t *testing.T) {
	ctx := context.Background()
	roundTrip := func(t *testing.T, freq api.CompositionFrequency) int {
		t.Helper()
		composes := 0
		gen := api.EffectGenerator{
			CompositionFrequency: freq,
			ComposeEffect: func(cc *api.ComposeContext, _ ...any) (api.ComposedEffect, error) {
				composes++
				return api.ComposedEffect{
					ForwardKeyframes: func() ([]api.Keyframe, error) {
						return []api.Keyframe{{Offset: 1, Apply: func() error { return nil }}}, nil
					},
				}, nil
			},
		}
		c := newTestClip(t, ClipParams{Category: api.CategoryEmphasis, Target: api.NewStubTarget("box"), Generator: gen})

		for _, play := range []func(context.Context) (*api.Promise, error){c.Play, c.Rewind, c.Play} {
			p, err := play(ctx)
			if err != nil {
				t.Fatalf("playback failed: %v", err)
			}
			awaitPromise(t, p)
		}
		return composes
	}

	if got := roundTrip(t, api.ComposeOnEveryPlay); got != 2 {
		t.Fatalf("expected 2 compositions under on-every-play (rewind reuses), got %d", got)
	}
	if got := roundTrip(t, api.ComposeOnFirstPlayOnly); got != 1 {
		t.Fatalf("expected 1 composition under on-first-play-only, got %d", got)
	}
}

func TestClipRewindFallsBackToReversedTime(t *testing.T) {
	ctx := context.Background()
	c := newTestClip(t, ClipParams{Category: api.CategoryEmphasis, Target: api.NewStubTarget("box")})

	p, err := c.Play(ctx)
	if err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	awaitPromise(t, p)
	if got := c.Status().Progress; got != 1 {
		t.Fatalf("expected progress 1 after forward play, got %v", got)
	}

	// No backward mutator composed: the forward one replays with reversed
	// time, so progress lands back at 0.
	p, err = c.Rewind(ctx)
	if err != nil {
		t.Fatalf("Rewind failed: %v", err)
	}
	awaitPromise(t, p)
	if got := c.Status().Progress; got != 0 {
		t.Fatalf("expected progress 0 after reversed-time rewind, got %v", got)
	}
}

func TestClipKeyframesApplyInOrder(t *testing.T) {
	ctx := context.Background()
	target := api.NewStubTarget("box")
	var order []string
	gen := api.EffectGenerator{
		ComposeEffect: func(cc *api.ComposeContext, _ ...any) (api.ComposedEffect, error) {
			mk := func(label string) func() error {
				return func() error {
					order = append(order, label)
					return nil
				}
			}
			return api.ComposedEffect{
				ForwardKeyframes: func() ([]api.Keyframe, error) {
					return []api.Keyframe{
						{Offset: 1, Apply: mk("end")},
						{Offset: 0, Apply: mk("begin")},
						{Offset: 0.5, Apply: mk("middle")},
					}, nil
				},
			}, nil
		},
	}
	c := newTestClip(t, ClipParams{Category: api.CategoryEmphasis, Target: target, Generator: gen})

	p, err := c.Play(ctx)
	if err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	awaitPromise(t, p)

	want := []string{"begin", "middle", "end"}
	if len(order) != len(want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, order)
		}
	}
}

func TestBuildFrameSchedule(t *testing.T) {
	apply := func() error { return nil }

	t.Run("auto spacing", func(t *testing.T) {
		frames := []api.Keyframe{
			{Offset: -1, Apply: apply},
			{Offset: -1, Apply: apply},
			{Offset: -1, Apply: apply},
		}
		sched, err := buildFrameSchedule(frames, false)
		if err != nil {
			t.Fatalf("buildFrameSchedule failed: %v", err)
		}
		want := []float64{0, 0.5, 1}
		for i, f := range sched {
			if f.at != want[i] {
				t.Fatalf("expected offsets %v, got index %d at %v", want, i, f.at)
			}
		}
	})

	t.Run("mixed explicit and auto keeps explicit offsets", func(t *testing.T) {
		frames := []api.Keyframe{
			{Offset: 0.9, Apply: apply},
			{Offset: -1, Apply: apply},
		}
		sched, err := buildFrameSchedule(frames, false)
		if err != nil {
			t.Fatalf("buildFrameSchedule failed: %v", err)
		}
		if sched[0].at != 0.9 || sched[1].at != 1 {
			t.Fatalf("expected offsets [0.9 1], got [%v %v]", sched[0].at, sched[1].at)
		}
	})

	t.Run("auto spacing covers only the auto frames", func(t *testing.T) {
		frames := []api.Keyframe{
			{Offset: -1, Apply: apply},
			{Offset: 0.1, Apply: apply},
			{Offset: -1, Apply: apply},
			{Offset: -1, Apply: apply},
		}
		sched, err := buildFrameSchedule(frames, false)
		if err != nil {
			t.Fatalf("buildFrameSchedule failed: %v", err)
		}
		want := []float64{0, 0.1, 0.5, 1}
		for i, f := range sched {
			if f.at != want[i] {
				t.Fatalf("expected offsets %v, got index %d at %v", want, i, f.at)
			}
		}
	})

	t.Run("reversed", func(t *testing.T) {
		frames := []api.Keyframe{
			{Offset: 0.25, Apply: apply},
			{Offset: 1, Apply: apply},
		}
		sched, err := buildFrameSchedule(frames, true)
		if err != nil {
			t.Fatalf("buildFrameSchedule failed: %v", err)
		}
		if sched[0].at != 0 || sched[1].at != 0.75 {
			t.Fatalf("expected reversed offsets [0 0.75], got [%v %v]", sched[0].at, sched[1].at)
		}
	})

	t.Run("offset out of range", func(t *testing.T) {
		_, err := buildFrameSchedule([]api.Keyframe{{Offset: 1.2, Apply: apply}}, false)
		if !api.IsRangeError(err) {
			t.Fatalf("expected RangeError, got %v", err)
		}
	})

	t.Run("nil apply", func(t *testing.T) {
		_, err := buildFrameSchedule([]api.Keyframe{{Offset: 0}}, false)
		if !api.IsConfigurationError(err) {
			t.Fatalf("expected ConfigurationError, got %v", err)
		}
	})
}

func TestComposerRewindBeforeForwardComposition(t *testing.T) {
	gen := opacityGenerator()
	cp := newComposer("fx", gen, api.NewComposeContext(api.NewStubTarget("box"), func() float64 { return 0 }), nil)
	_, err := cp.composeFor(api.DirectionBackward)
	if !api.IsConfigurationError(err) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
}

func TestClipConnectorCategories(t *testing.T) {
	ctx := context.Background()

	// Connector categories demand a connector target.
	_, err := NewClip(ClipParams{
		Category:   api.CategoryConnectorSetter,
		EffectName: "fx",
		Generator:  opacityGenerator(),
		Target:     api.NewStubTarget("plain"),
		CallSite:   instant(),
	})
	if !api.IsConfigurationError(err) {
		t.Fatalf("expected ConfigurationError for non-connector target, got %v", err)
	}

	conn := api.NewStubConnector("arrow")
	c := newTestClip(t, ClipParams{Category: api.CategoryConnectorSetter, Target: conn})
	p, err := c.Play(ctx)
	if err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	awaitPromise(t, p)
	if got := conn.UpdateCount(); got != 1 {
		t.Fatalf("expected 1 endpoint update, got %d", got)
	}
	if got := c.EffectiveConfig().Duration; got != 0 {
		t.Fatalf("connector setter duration must resolve to 0, got %v", got)
	}
}

func TestClipConnectorEntranceLifecycle(t *testing.T) {
	ctx := context.Background()
	conn := api.NewStubConnector("arrow")
	conn.AddClass(api.HiddenClassName)
	c := newTestClip(t, ClipParams{Category: api.CategoryConnectorEntrance, Target: conn})

	p, err := c.Play(ctx)
	if err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	awaitPromise(t, p)
	if conn.HasClass(api.HiddenClassName) {
		t.Fatalf("connector entrance should unhide the connector")
	}
	if conn.UpdateCount() == 0 {
		t.Fatalf("connector entrance should refresh endpoints on start")
	}
	if conn.ContinuousUpdatesActive() {
		t.Fatalf("continuous updates should stop when the entrance completes")
	}

	p, err = c.Rewind(ctx)
	if err != nil {
		t.Fatalf("Rewind failed: %v", err)
	}
	awaitPromise(t, p)
	if !conn.HasClass(api.HiddenClassName) {
		t.Fatalf("connector entrance rewind should rehide the connector")
	}
}
