package webchalk

import (
	"fmt"
)

// SequenceBuilder provides a fluent API for assembling sequences:
//
//	seq, err := webchalk.NewSequenceBuilder(factories, webchalk.SequenceConfig{Tag: "intro"}).
//	    Entrance(box, "fade-in", webchalk.EffectConfig{}).
//	    Motion(box, "slide-right", webchalk.EffectConfig{
//	        StartsWithPrevious: webchalk.Bool(true),
//	    }).
//	    Exit(box, "fade-out", webchalk.EffectConfig{}).
//	    Build()
//
// Clip construction errors are deferred to Build, so chains stay unbroken.
type SequenceBuilder struct {
	factories *ClipFactories
	cfg       SequenceConfig
	opts      []Option
	clips     []Clip
	err       error
}

// NewSequenceBuilder creates a builder that constructs clips through the
// given factories.
func NewSequenceBuilder(factories *ClipFactories, cfg SequenceConfig, opts ...Option) *SequenceBuilder {
	if factories == nil {
		panic("webchalk: sequence builder needs clip factories")
	}
	return &SequenceBuilder{factories: factories, cfg: cfg, opts: opts}
}

func (b *SequenceBuilder) add(clip Clip, err error) *SequenceBuilder {
	if b.err == nil && err != nil {
		b.err = fmt.Errorf("clip %d: %w", len(b.clips), err)
		return b
	}
	if err == nil {
		b.clips = append(b.clips, clip)
	}
	return b
}

// Entrance appends an entrance clip.
func (b *SequenceBuilder) Entrance(target Target, effectName string, cfg EffectConfig, effectOptions ...any) *SequenceBuilder {
	return b.add(b.factories.Entrance(target, effectName, cfg, effectOptions...))
}

// Exit appends an exit clip.
func (b *SequenceBuilder) Exit(target Target, effectName string, cfg EffectConfig, effectOptions ...any) *SequenceBuilder {
	return b.add(b.factories.Exit(target, effectName, cfg, effectOptions...))
}

// Emphasis appends an emphasis clip.
func (b *SequenceBuilder) Emphasis(target Target, effectName string, cfg EffectConfig, effectOptions ...any) *SequenceBuilder {
	return b.add(b.factories.Emphasis(target, effectName, cfg, effectOptions...))
}

// Motion appends a motion clip.
func (b *SequenceBuilder) Motion(target Target, effectName string, cfg EffectConfig, effectOptions ...any) *SequenceBuilder {
	return b.add(b.factories.Motion(target, effectName, cfg, effectOptions...))
}

// Transition appends a transition clip.
func (b *SequenceBuilder) Transition(target Target, effectName string, cfg EffectConfig, effectOptions ...any) *SequenceBuilder {
	return b.add(b.factories.Transition(target, effectName, cfg, effectOptions...))
}

// Scroller appends a scroller clip.
func (b *SequenceBuilder) Scroller(target Target, effectName string, cfg EffectConfig, effectOptions ...any) *SequenceBuilder {
	return b.add(b.factories.Scroller(target, effectName, cfg, effectOptions...))
}

// ConnectorSetter appends a connector setter clip.
func (b *SequenceBuilder) ConnectorSetter(target Target, effectName string, cfg EffectConfig, effectOptions ...any) *SequenceBuilder {
	return b.add(b.factories.ConnectorSetter(target, effectName, cfg, effectOptions...))
}

// ConnectorEntrance appends a connector entrance clip.
func (b *SequenceBuilder) ConnectorEntrance(target Target, effectName string, cfg EffectConfig, effectOptions ...any) *SequenceBuilder {
	return b.add(b.factories.ConnectorEntrance(target, effectName, cfg, effectOptions...))
}

// ConnectorExit appends a connector exit clip.
func (b *SequenceBuilder) ConnectorExit(target Target, effectName string, cfg EffectConfig, effectOptions ...any) *SequenceBuilder {
	return b.add(b.factories.ConnectorExit(target, effectName, cfg, effectOptions...))
}

// Clip appends an already-constructed clip.
func (b *SequenceBuilder) Clip(clip Clip) *SequenceBuilder {
	if clip == nil {
		panic("webchalk: cannot append a nil clip")
	}
	return b.add(clip, nil)
}

// Build assembles the sequence, returning the first clip construction error
// encountered along the chain.
func (b *SequenceBuilder) Build() (Sequence, error) {
	if b.err != nil {
		return nil, b.err
	}
	seq := NewSequence(b.cfg, b.opts...)
	if err := seq.AddClips(b.clips...); err != nil {
		return nil, err
	}
	return seq, nil
}

// TimelineBuilder provides a fluent API for assembling timelines out of
// sequences or sequence builders.
type TimelineBuilder struct {
	cfg       TimelineConfig
	opts      []Option
	sequences []Sequence
	err       error
}

// NewTimelineBuilder creates a timeline builder.
func NewTimelineBuilder(cfg TimelineConfig, opts ...Option) *TimelineBuilder {
	return &TimelineBuilder{cfg: cfg, opts: opts}
}

// Sequence appends an already-built sequence.
func (b *TimelineBuilder) Sequence(seq Sequence) *TimelineBuilder {
	if seq == nil {
		panic("webchalk: cannot append a nil sequence")
	}
	b.sequences = append(b.sequences, seq)
	return b
}

// SequenceFrom builds the given sequence builder and appends the result.
// Build errors are deferred to the timeline's own Build.
func (b *TimelineBuilder) SequenceFrom(sb *SequenceBuilder) *TimelineBuilder {
	if sb == nil {
		panic("webchalk: cannot append a nil sequence builder")
	}
	seq, err := sb.Build()
	if b.err == nil && err != nil {
		b.err = fmt.Errorf("sequence %d: %w", len(b.sequences), err)
		return b
	}
	if err == nil {
		b.sequences = append(b.sequences, seq)
	}
	return b
}

// Build assembles the timeline.
func (b *TimelineBuilder) Build() (Timeline, error) {
	if b.err != nil {
		return nil, b.err
	}
	tl := NewTimeline(b.cfg, b.opts...)
	for i, seq := range b.sequences {
		if err := tl.AddSequence(seq); err != nil {
			return nil, fmt.Errorf("sequence %d: %w", i, err)
		}
	}
	return tl, nil
}
