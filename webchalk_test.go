package webchalk_test

import (
	"bytes"
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	webchalk "github.com/NkemdiAnyiam/webchalk-animate-sub001"
)

// fadeGenerator flips an opacity style at the phase boundaries, with explicit
// backward keyframes so rewinds restore the starting state.
func fadeGenerator() webchalk.EffectGenerator {
	return webchalk.EffectGenerator{
		ComposeEffect: func(ctx *webchalk.ComposeContext, _ ...any) (webchalk.ComposedEffect, error) {
			target := ctx.Target()
			set := func(value string) func() error {
				return func() error {
					target.SetStyle("opacity", value)
					return nil
				}
			}
			return webchalk.ComposedEffect{
				ForwardKeyframes: func() ([]webchalk.Keyframe, error) {
					return []webchalk.Keyframe{
						{Offset: 0, Apply: set("0")},
						{Offset: 1, Apply: set("1")},
					}, nil
				},
				BackwardKeyframes: func() ([]webchalk.Keyframe, error) {
					return []webchalk.Keyframe{
						{Offset: 0, Apply: set("1")},
						{Offset: 1, Apply: set("")},
					}, nil
				},
			}, nil
		},
	}
}

// nudgeGenerator moves the target's bounding box on each play.
func nudgeGenerator() webchalk.EffectGenerator {
	return webchalk.EffectGenerator{
		ComposeEffect: func(ctx *webchalk.ComposeContext, _ ...any) (webchalk.ComposedEffect, error) {
			target := ctx.Target()
			move := func(dx float64) func() error {
				return func() error {
					if st, ok := target.(*webchalk.StubTarget); ok {
						box := st.BoundingBox()
						box.X += dx
						st.SetBoundingBox(box)
					}
					return nil
				}
			}
			return webchalk.ComposedEffect{
				ForwardKeyframes: func() ([]webchalk.Keyframe, error) {
					return []webchalk.Keyframe{{Offset: 1, Apply: move(10)}}, nil
				},
				BackwardKeyframes: func() ([]webchalk.Keyframe, error) {
					return []webchalk.Keyframe{{Offset: 1, Apply: move(-10)}}, nil
				},
			}, nil
		},
	}
}

func newTestBank(t *testing.T) webchalk.EffectBank {
	t.Helper()
	bank := webchalk.NewEffectBank()
	require.NoError(t, bank.Register("fade-in", fadeGenerator()))
	require.NoError(t, bank.Register("fade-out", fadeGenerator()))
	require.NoError(t, bank.Register("nudge", nudgeGenerator()))
	return bank
}

func instant() webchalk.EffectConfig {
	return webchalk.EffectConfig{Duration: webchalk.Dur(0)}
}

func await(t *testing.T, p *webchalk.Promise, err error) {
	t.Helper()
	require.NoError(t, err)
	require.NoError(t, p.Await(context.Background()))
}

func TestClipFactoriesRoundTrip(t *testing.T) {
	factories := webchalk.NewClipFactories(newTestBank(t))
	box := webchalk.NewHiddenStubTarget("box")

	clip, err := factories.Entrance(box, "fade-in", instant())
	require.NoError(t, err)
	require.Equal(t, webchalk.CategoryEntrance, clip.Category())
	require.Equal(t, "fade-in", clip.EffectName())

	p1, err1 := clip.Play(context.Background())
	await(t, p1, err1)
	require.False(t, box.HasClass(webchalk.HiddenClassName))
	require.Equal(t, "1", box.GetStyle("opacity"))
	require.Equal(t, webchalk.PhaseFinished, clip.Status().Phase)

	p2, err2 := clip.Rewind(context.Background())
	await(t, p2, err2)
	require.True(t, box.HasClass(webchalk.HiddenClassName))
	require.Equal(t, "", box.GetStyle("opacity"))
	require.Equal(t, webchalk.PhaseIdle, clip.Status().Phase)
}

func TestClipFactoriesUnknownEffect(t *testing.T) {
	factories := webchalk.NewClipFactories(newTestBank(t))
	_, err := factories.Emphasis(webchalk.NewStubTarget("box"), "no-such-effect", instant())
	require.ErrorIs(t, err, webchalk.ErrGeneratorNotFound)
}

func TestSequenceBuilderDefersErrors(t *testing.T) {
	factories := webchalk.NewClipFactories(newTestBank(t))
	box := webchalk.NewStubTarget("box")

	_, err := webchalk.NewSequenceBuilder(factories, webchalk.SequenceConfig{}).
		Emphasis(box, "nudge", instant()).
		Emphasis(box, "no-such-effect", instant()).
		Build()
	require.ErrorIs(t, err, webchalk.ErrGeneratorNotFound)
	require.Contains(t, err.Error(), "clip 1")
}

func TestTimelineScenario(t *testing.T) {
	metrics := &webchalk.BasicMetrics{}
	journal := webchalk.NewMemoryJournal()
	obs := webchalk.NewCompositeObserver(metrics, journal)

	factories := webchalk.NewClipFactories(newTestBank(t), webchalk.WithObserver(obs))
	box := webchalk.NewHiddenStubTarget("box")

	intro := webchalk.NewSequenceBuilder(factories, webchalk.SequenceConfig{Tag: "intro"}, webchalk.WithObserver(obs)).
		Entrance(box, "fade-in", instant()).
		Emphasis(box, "nudge", webchalk.EffectConfig{
			Duration:           webchalk.Dur(0),
			StartsWithPrevious: webchalk.Bool(true),
		})

	outro := webchalk.NewSequenceBuilder(factories, webchalk.SequenceConfig{Tag: "outro"}, webchalk.WithObserver(obs)).
		Exit(box, "fade-out", instant())

	tl, err := webchalk.NewTimelineBuilder(webchalk.TimelineConfig{Name: "demo"}, webchalk.WithObserver(obs)).
		SequenceFrom(intro).
		SequenceFrom(outro).
		Build()
	require.NoError(t, err)
	require.Len(t, tl.Sequences(), 2)
	require.Equal(t, 0, tl.Cursor())

	ctx := context.Background()
	p3, err3 := tl.Step(ctx, webchalk.DirectionForward)
	await(t, p3, err3)
	require.Equal(t, 1, tl.Cursor())
	require.False(t, box.HasClass(webchalk.HiddenClassName))
	require.Equal(t, 110.0, box.BoundingBox().X)

	p4, err4 := tl.Step(ctx, webchalk.DirectionForward)
	await(t, p4, err4)
	require.Equal(t, 2, tl.Cursor())
	require.True(t, box.HasClass(webchalk.HiddenClassName))

	// Past the end the cursor pins in place.
	p5, err5 := tl.Step(ctx, webchalk.DirectionForward)
	await(t, p5, err5)
	require.Equal(t, 2, tl.Cursor())

	p6, err6 := tl.Step(ctx, webchalk.DirectionBackward)
	await(t, p6, err6)
	require.Equal(t, 1, tl.Cursor())
	require.False(t, box.HasClass(webchalk.HiddenClassName))

	require.NoError(t, tl.JumpToSequenceTag(ctx, "intro"))
	require.Equal(t, 0, tl.Cursor())
	require.True(t, box.HasClass(webchalk.HiddenClassName))
	require.Equal(t, 100.0, box.BoundingBox().X)

	require.ErrorIs(t, tl.JumpToSequenceTag(ctx, "no-such-tag"), webchalk.ErrTagNotFound)

	snap := metrics.Snapshot()
	require.Greater(t, snap.ClipsPlayed, int64(0))
	require.Greater(t, snap.ClipsRewound, int64(0))
	require.Greater(t, snap.TimelineSteps, int64(0))

	events, err := journal.Events(webchalk.JournalFilter{})
	require.NoError(t, err)
	require.NotEmpty(t, events)
}

func TestJournalExportImport(t *testing.T) {
	journal := webchalk.NewMemoryJournal()
	factories := webchalk.NewClipFactories(newTestBank(t), webchalk.WithObserver(journal))
	box := webchalk.NewHiddenStubTarget("box")

	clip, err := factories.Entrance(box, "fade-in", instant())
	require.NoError(t, err)
	p7, err7 := clip.Play(context.Background())
	await(t, p7, err7)

	events, err := journal.Events(webchalk.JournalFilter{})
	require.NoError(t, err)
	require.NotEmpty(t, events)

	var buf bytes.Buffer
	require.NoError(t, webchalk.ExportJournal(journal, webchalk.JournalFilter{}, &buf))

	restored, err := webchalk.ImportJournalEvents(&buf)
	require.NoError(t, err)
	require.Len(t, restored, len(events))
	require.Equal(t, events[0].Type, restored[0].Type)
	require.Equal(t, events[0].Clip, restored[0].Clip)

	require.NoError(t, journal.Close())
	_, err = journal.Events(webchalk.JournalFilter{})
	require.ErrorIs(t, err, webchalk.ErrJournalClosed)
}

func TestSQLiteJournal(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	defer db.Close()

	journal, err := webchalk.NewSQLiteJournal(db)
	require.NoError(t, err)

	factories := webchalk.NewClipFactories(newTestBank(t), webchalk.WithObserver(journal))
	box := webchalk.NewHiddenStubTarget("box")

	clip, err := factories.Entrance(box, "fade-in", instant())
	require.NoError(t, err)
	p8, err8 := clip.Play(context.Background())
	await(t, p8, err8)

	events, err := journal.Events(webchalk.JournalFilter{Clip: clip.ID()})
	require.NoError(t, err)
	require.NotEmpty(t, events)
	require.Equal(t, "box", events[0].Target)

	require.NoError(t, journal.Close())
}

func TestBuildStoryboardFacade(t *testing.T) {
	const doc = `
name: facade-demo
sequences:
  - description: intro
    clips:
      - category: Entrance
        effect: fade-in
        target: box
        config:
          duration: 0s
`
	sb, err := webchalk.LoadStoryboard([]byte(doc))
	require.NoError(t, err)
	require.Equal(t, "facade-demo", sb.Name)

	box := webchalk.NewHiddenStubTarget("box")
	tl, err := webchalk.BuildStoryboard(sb, newTestBank(t), func(id string) (webchalk.Target, error) {
		require.Equal(t, "box", id)
		return box, nil
	})
	require.NoError(t, err)

	p9, err9 := tl.Step(context.Background(), webchalk.DirectionForward)
	await(t, p9, err9)
	require.Equal(t, 1, tl.Cursor())
	require.False(t, box.HasClass(webchalk.HiddenClassName))
}
