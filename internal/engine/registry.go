package engine

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/NkemdiAnyiam/webchalk-animate-sub001/pkg/api"
)

// Bank is a frozen catalog of effect generators. Registration deep-copies
// the generator's config layers so later mutation of the caller's structs
// cannot leak in; one generator's immutable fields have no effect on
// siblings in the same bank.
type Bank struct {
	mu     sync.RWMutex
	byName map[string]api.EffectGenerator
}

var _ api.EffectBank = (*Bank)(nil)

// NewBank creates an empty effect bank.
func NewBank() *Bank {
	return &Bank{byName: make(map[string]api.EffectGenerator)}
}

func (b *Bank) Register(name string, gen api.EffectGenerator) error {
	if name == "" {
		return &api.ConfigurationError{Detail: "effect name must not be empty"}
	}
	if gen.ComposeEffect == nil {
		return &api.ConfigurationError{Effect: name, Detail: "generator has no ComposeEffect"}
	}
	if gen.CompositionFrequency == "" {
		gen.CompositionFrequency = api.ComposeOnEveryPlay
	}
	switch gen.CompositionFrequency {
	case api.ComposeOnEveryPlay, api.ComposeOnFirstPlayOnly:
	default:
		return &api.RangeError{
			Field:    "effectCompositionFrequency",
			Value:    string(gen.CompositionFrequency),
			Accepted: []string{string(api.ComposeOnFirstPlayOnly), string(api.ComposeOnEveryPlay)},
		}
	}

	gen.DefaultConfig = copyConfig(gen.DefaultConfig)
	gen.ImmutableConfig = copyConfig(gen.ImmutableConfig)

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.byName[name]; exists {
		return &api.ConfigurationError{
			Effect: name,
			Detail: "already registered in this bank",
		}
	}
	b.byName[name] = gen
	return nil
}

func (b *Bank) Get(name string) (api.EffectGenerator, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	gen, ok := b.byName[name]
	if !ok {
		return api.EffectGenerator{}, fmt.Errorf("effect %q: %w", name, api.ErrGeneratorNotFound)
	}
	return gen, nil
}

func (b *Bank) Names() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	names := make([]string, 0, len(b.byName))
	for name := range b.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// copyConfig clones an EffectConfig so the bank's frozen layers do not alias
// caller memory.
func copyConfig(c api.EffectConfig) api.EffectConfig {
	out := api.EffectConfig{}
	if c.Duration != nil {
		out.Duration = api.Dur(*c.Duration)
	}
	if c.Delay != nil {
		out.Delay = api.Dur(*c.Delay)
	}
	if c.EndDelay != nil {
		out.EndDelay = api.Dur(*c.EndDelay)
	}
	if c.Easing != nil {
		out.Easing = api.Str(*c.Easing)
	}
	if c.PlaybackRate != nil {
		out.PlaybackRate = api.Float(*c.PlaybackRate)
	}
	if c.ExitType != nil {
		out.ExitType = api.Str(*c.ExitType)
	}
	if c.StartsWithPrevious != nil {
		out.StartsWithPrevious = api.Bool(*c.StartsWithPrevious)
	}
	if c.StartsNextClipToo != nil {
		out.StartsNextClipToo = api.Bool(*c.StartsNextClipToo)
	}
	return out
}

// scaled applies a playback rate to a duration. Rates <= 0 are treated as 1.
func scaled(d time.Duration, rate float64) time.Duration {
	if rate <= 0 || rate == 1 {
		return d
	}
	return time.Duration(float64(d) / rate)
}
