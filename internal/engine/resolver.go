package engine

import (
	"fmt"
	"time"

	"github.com/NkemdiAnyiam/webchalk-animate-sub001/pkg/api"
)

// Built-in fallback values applied after all layers merge.
const (
	defaultDuration = 500 * time.Millisecond
	defaultEasing   = "linear"
)

// categoryDefaults is the lowest-priority configuration layer, keyed by
// category. Categories without an entry start from the zero layer.
var categoryDefaults = map[api.Category]api.EffectConfig{
	api.CategoryTransition: {
		Duration: api.Dur(1000 * time.Millisecond),
	},
	api.CategoryScroller: {
		Duration: api.Dur(1000 * time.Millisecond),
	},
	api.CategoryConnectorSetter: {
		// Setters reposition endpoints instantaneously.
		Duration: api.Dur(0),
	},
}

// categoryImmutables is reapplied after every other layer, including the
// generator's own immutable config.
var categoryImmutables = map[api.Category]api.EffectConfig{
	api.CategoryConnectorSetter: {
		Duration: api.Dur(0),
		Delay:    api.Dur(0),
		EndDelay: api.Dur(0),
	},
}

// resolveConfig merges the four configuration layers into one effective
// config:
//
//	categoryDefault -> generator DefaultConfig -> call-site config,
//	then generator ImmutableConfig, then category immutable layer.
//
// Reapplying the immutable layers last guarantees immutability cannot be
// shadowed by earlier overlays. A call-site value for an immutable field is
// silently discarded unless strict is set, in which case a
// ConfigurationError names the field.
func resolveConfig(category api.Category, effect string, gen api.EffectGenerator, callSite api.EffectConfig, strict bool) (api.ResolvedConfig, error) {
	if strict {
		if field := firstImmutableOverride(callSite, gen.ImmutableConfig, categoryImmutables[category]); field != "" {
			return api.ResolvedConfig{}, &api.ConfigurationError{
				Effect: effect,
				Detail: fmt.Sprintf("call-site config sets immutable field %q", field),
			}
		}
	}

	merged := categoryDefaults[category]
	merged = overlay(merged, gen.DefaultConfig)
	merged = overlay(merged, callSite)
	merged = overlay(merged, gen.ImmutableConfig)
	merged = overlay(merged, categoryImmutables[category])

	resolved := fillDefaults(merged)
	if err := validateResolved(resolved); err != nil {
		return api.ResolvedConfig{}, err
	}
	return resolved, nil
}

// overlay returns base with every set field of layer applied on top.
func overlay(base, layer api.EffectConfig) api.EffectConfig {
	if layer.Duration != nil {
		base.Duration = layer.Duration
	}
	if layer.Delay != nil {
		base.Delay = layer.Delay
	}
	if layer.EndDelay != nil {
		base.EndDelay = layer.EndDelay
	}
	if layer.Easing != nil {
		base.Easing = layer.Easing
	}
	if layer.PlaybackRate != nil {
		base.PlaybackRate = layer.PlaybackRate
	}
	if layer.ExitType != nil {
		base.ExitType = layer.ExitType
	}
	if layer.StartsWithPrevious != nil {
		base.StartsWithPrevious = layer.StartsWithPrevious
	}
	if layer.StartsNextClipToo != nil {
		base.StartsNextClipToo = layer.StartsNextClipToo
	}
	return base
}

func fillDefaults(c api.EffectConfig) api.ResolvedConfig {
	r := api.ResolvedConfig{
		Duration:     defaultDuration,
		Easing:       defaultEasing,
		PlaybackRate: 1,
		ExitType:     api.ExitDisplayNone,
	}
	if c.Duration != nil {
		r.Duration = *c.Duration
	}
	if c.Delay != nil {
		r.Delay = *c.Delay
	}
	if c.EndDelay != nil {
		r.EndDelay = *c.EndDelay
	}
	if c.Easing != nil {
		r.Easing = *c.Easing
	}
	if c.PlaybackRate != nil && *c.PlaybackRate > 0 {
		r.PlaybackRate = *c.PlaybackRate
	}
	if c.ExitType != nil {
		r.ExitType = *c.ExitType
	}
	if c.StartsWithPrevious != nil {
		r.StartsWithPrevious = *c.StartsWithPrevious
	}
	if c.StartsNextClipToo != nil {
		r.StartsNextClipToo = *c.StartsNextClipToo
	}
	return r
}

func validateResolved(r api.ResolvedConfig) error {
	switch r.ExitType {
	case api.ExitDisplayNone, api.ExitVisibilityHidden:
	default:
		return &api.RangeError{
			Field:    "exitType",
			Value:    r.ExitType,
			Accepted: api.ExitTypes(),
		}
	}
	if r.Duration < 0 {
		return &api.RangeError{Field: "duration", Value: r.Duration.String(), Accepted: []string{">= 0"}}
	}
	if r.Delay < 0 {
		return &api.RangeError{Field: "delay", Value: r.Delay.String(), Accepted: []string{">= 0"}}
	}
	if r.EndDelay < 0 {
		return &api.RangeError{Field: "endDelay", Value: r.EndDelay.String(), Accepted: []string{">= 0"}}
	}
	return nil
}

// firstImmutableOverride returns the name of the first call-site field that
// collides with an immutable layer, or "".
func firstImmutableOverride(callSite api.EffectConfig, immutables ...api.EffectConfig) string {
	for _, imm := range immutables {
		switch {
		case callSite.Duration != nil && imm.Duration != nil:
			return "duration"
		case callSite.Delay != nil && imm.Delay != nil:
			return "delay"
		case callSite.EndDelay != nil && imm.EndDelay != nil:
			return "endDelay"
		case callSite.Easing != nil && imm.Easing != nil:
			return "easing"
		case callSite.PlaybackRate != nil && imm.PlaybackRate != nil:
			return "playbackRate"
		case callSite.ExitType != nil && imm.ExitType != nil:
			return "exitType"
		case callSite.StartsWithPrevious != nil && imm.StartsWithPrevious != nil:
			return "startsWithPrevious"
		case callSite.StartsNextClipToo != nil && imm.StartsNextClipToo != nil:
			return "startsNextClipToo"
		}
	}
	return ""
}
