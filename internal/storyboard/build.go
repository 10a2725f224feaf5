package storyboard

import (
	"fmt"
	"time"

	"github.com/NkemdiAnyiam/webchalk-animate-sub001/internal/engine"
	"github.com/NkemdiAnyiam/webchalk-animate-sub001/pkg/api"
)

// BuildParams carries the runtime pieces a document is bound against.
type BuildParams struct {
	// Bank supplies the effect generators the document names.
	Bank api.EffectBank

	// ResolveTarget maps a document target identifier to a live target.
	ResolveTarget func(id string) (api.Target, error)

	// Strict makes call-site overrides of immutable config fields an error.
	Strict bool

	Observer      api.Observer
	Clock         engine.Clock
	FrameInterval time.Duration
}

// Build binds a validated document to a bank and target resolver, producing
// a runnable timeline.
func Build(doc Document, p BuildParams) (api.Timeline, error) {
	if p.Bank == nil {
		return nil, fmt.Errorf("storyboard %q: effect bank is required", doc.Name)
	}
	if p.ResolveTarget == nil {
		return nil, fmt.Errorf("storyboard %q: target resolver is required", doc.Name)
	}

	timeline := engine.NewTimeline(engine.TimelineParams{
		Config:   api.TimelineConfig{Name: doc.Name, DebugMode: doc.Debug},
		Observer: p.Observer,
		Clock:    p.Clock,
	})

	for si, seqDoc := range doc.Sequences {
		seq := engine.NewSequence(engine.SequenceParams{
			Config: api.SequenceConfig{
				Description:  seqDoc.Description,
				PlaybackRate: seqDoc.PlaybackRate,
				Tag:          seqDoc.Tag,
				Autoplay:     seqDoc.Autoplay,
			},
			Observer: p.Observer,
			Clock:    p.Clock,
		})

		for ci, clipDoc := range seqDoc.Clips {
			clip, err := buildClip(clipDoc, p)
			if err != nil {
				return nil, fmt.Errorf("storyboard %q: sequences[%d].clips[%d]: %w", doc.Name, si, ci, err)
			}
			if err := seq.AddClips(clip); err != nil {
				return nil, fmt.Errorf("storyboard %q: sequences[%d]: %w", doc.Name, si, err)
			}
		}
		if err := timeline.AddSequence(seq); err != nil {
			return nil, fmt.Errorf("storyboard %q: sequences[%d]: %w", doc.Name, si, err)
		}
	}
	return timeline, nil
}

func buildClip(doc ClipDoc, p BuildParams) (api.Clip, error) {
	gen, err := p.Bank.Get(doc.Effect)
	if err != nil {
		return nil, err
	}
	target, err := p.ResolveTarget(doc.Target)
	if err != nil {
		return nil, fmt.Errorf("resolving target %q: %w", doc.Target, err)
	}
	cfg, err := doc.Config.effectConfig()
	if err != nil {
		// Parsed once already during validation; reparse keeps Build usable
		// on documents constructed in code.
		return nil, err
	}
	return engine.NewClip(engine.ClipParams{
		Category:      api.Category(doc.Category),
		EffectName:    doc.Effect,
		Generator:     gen,
		Target:        target,
		CallSite:      cfg,
		Options:       doc.Options,
		Strict:        p.Strict,
		Observer:      p.Observer,
		Clock:         p.Clock,
		FrameInterval: p.FrameInterval,
	})
}
