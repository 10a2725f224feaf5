// Package webchalk is an embeddable animation playback engine. It composes
// named effects onto targets, plays them as reversible clips, schedules clips
// inside sequences with declarative relative timing, and steps sequences on a
// timeline with tag jumps, autoplay chaining, and skip mode.
//
// The building blocks, smallest first:
//
//   - An EffectGenerator is a reusable effect recipe registered in an
//     EffectBank under a name. Its ComposeEffect produces up to four
//     callables (forward/backward keyframes and per-frame mutators).
//   - A Clip pairs one generator with one Target plus call-site
//     configuration. Play drives it idle -> delay -> active -> endDelay ->
//     finished; Rewind mirrors the trip back. Both return a Promise.
//   - A Sequence owns an ordered list of clips. Clips start after their
//     predecessor finishes by default; StartsWithPrevious and
//     StartsNextClipToo pull starts together.
//   - A Timeline owns an ordered list of sequences and a cursor, stepped
//     forward and backward one sequence at a time.
//
// A minimal forward play:
//
//	bank := webchalk.NewEffectBank()
//	bank.Register("fade-in", webchalk.EffectGenerator{
//	    ComposeEffect: func(ctx *webchalk.ComposeContext, _ ...any) (webchalk.ComposedEffect, error) {
//	        return webchalk.ComposedEffect{
//	            ForwardMutator: func() (webchalk.FrameFunc, error) {
//	                return func() error {
//	                    opacity := ctx.ComputeTween(0, 1)
//	                    ctx.Target().SetStyle("opacity", fmt.Sprintf("%.2f", opacity))
//	                    return nil
//	                }, nil
//	            },
//	        }, nil
//	    },
//	})
//
//	factories := webchalk.NewClipFactories(bank)
//	clip, err := factories.Entrance(target, "fade-in", webchalk.EffectConfig{})
//	if err != nil { ... }
//	promise, err := clip.Play(ctx)
//	if err != nil { ... }
//	err = promise.Await(ctx)
//
// Sequences and timelines are assembled directly or through SequenceBuilder
// and TimelineBuilder; declarative YAML storyboards load through
// LoadStoryboardFile and BuildStoryboard.
package webchalk
