package engine

import (
	"fmt"
	"sync"

	"github.com/NkemdiAnyiam/webchalk-animate-sub001/pkg/api"
)

// composer owns one clip's composition state and applies the generator's
// frequency policy across repeated playbacks.
type composer struct {
	effectName string
	gen        api.EffectGenerator
	ctx        *api.ComposeContext
	options    []any

	mu           sync.Mutex
	composed     api.ComposedEffect
	composedOnce bool
}

func newComposer(effectName string, gen api.EffectGenerator, ctx *api.ComposeContext, options []any) *composer {
	return &composer{
		effectName: effectName,
		gen:        gen,
		ctx:        ctx,
		options:    options,
	}
}

// composeFor returns the ComposedEffect to use for a playback in dir.
//
// Forward plays recompose under ComposeOnEveryPlay and reuse the cached
// composition under ComposeOnFirstPlayOnly. Rewinds never recompose: they
// reuse the most recent forward composition so that undo callables match
// exactly what the paired forward play produced.
func (cp *composer) composeFor(dir api.Direction) (api.ComposedEffect, error) {
	cp.mu.Lock()
	defer cp.mu.Unlock()

	if dir == api.DirectionBackward {
		if !cp.composedOnce {
			return api.ComposedEffect{}, &api.ConfigurationError{
				Effect: cp.effectName,
				Detail: "rewind requested before any forward composition",
			}
		}
		return cp.composed, nil
	}

	if cp.composedOnce && cp.gen.CompositionFrequency == api.ComposeOnFirstPlayOnly {
		return cp.composed, nil
	}

	composed, err := cp.gen.ComposeEffect(cp.ctx, cp.options...)
	if err != nil {
		return api.ComposedEffect{}, fmt.Errorf("composing effect %q: %w", cp.effectName, err)
	}
	if composed.Empty() {
		return api.ComposedEffect{}, &api.ConfigurationError{
			Effect: cp.effectName,
			Detail: "composed effect has no callables (all four forward/backward producers are nil)",
		}
	}

	cp.composed = composed
	cp.composedOnce = true
	return composed, nil
}
