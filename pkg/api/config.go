package api

import "time"

// Exit types decide how an exiting target is hidden.
const (
	// ExitDisplayNone removes the target from layout via the hidden class.
	ExitDisplayNone = "display-none"

	// ExitVisibilityHidden hides the target while preserving its layout box.
	ExitVisibilityHidden = "visibility-hidden"
)

// HiddenClassName is the class marking a target as hidden-and-removed from
// layout. Entrance clips remove it; exit clips with ExitDisplayNone add it.
const HiddenClassName = "webchalk-hidden"

// ExitTypes returns every accepted exit type.
func ExitTypes() []string {
	return []string{ExitDisplayNone, ExitVisibilityHidden}
}

// EffectConfig is one layer of clip configuration. Nil fields are "unset" and
// let lower-priority layers show through; use the Dur, Str, Float, and Bool
// helpers to set fields inline.
type EffectConfig struct {
	Duration *time.Duration
	Delay    *time.Duration
	EndDelay *time.Duration

	// Easing names the pacing curve of the active phase.
	Easing *string

	// PlaybackRate scales every phase duration. Values <= 0 are ignored.
	PlaybackRate *float64

	// ExitType is how exit-category clips hide their target.
	ExitType *string

	// StartsWithPrevious starts this clip exactly when its predecessor in
	// the sequence starts, instead of after it finishes.
	StartsWithPrevious *bool

	// StartsNextClipToo starts the successor clip exactly when this clip
	// starts. The flag cascades along runs of flagged clips.
	StartsNextClipToo *bool
}

// ResolvedConfig is the effective configuration after every layer has been
// merged and defaults filled in.
type ResolvedConfig struct {
	Duration time.Duration
	Delay    time.Duration
	EndDelay time.Duration

	Easing       string
	PlaybackRate float64
	ExitType     string

	StartsWithPrevious bool
	StartsNextClipToo  bool
}

// TotalTime is the full span of one playback: delay + active + endDelay.
func (c ResolvedConfig) TotalTime() time.Duration {
	return c.Delay + c.Duration + c.EndDelay
}

// SequenceConfig configures a sequence of clips.
type SequenceConfig struct {
	// Description labels the sequence in logs and journals.
	Description string

	// PlaybackRate scales every member clip's phase durations on top of the
	// clips' own rates. Values <= 0 mean 1.
	PlaybackRate float64

	// Tag addresses the sequence in timeline tag jumps.
	Tag string

	// Autoplay chains this sequence onto the preceding timeline step.
	Autoplay bool
}

// TimelineConfig configures a timeline.
type TimelineConfig struct {
	// Name labels the timeline in logs and journals.
	Name string

	// DebugMode enables verbose playback logging.
	DebugMode bool
}

// Dur returns a pointer to d, for setting EffectConfig fields inline.
func Dur(d time.Duration) *time.Duration { return &d }

// Str returns a pointer to s, for setting EffectConfig fields inline.
func Str(s string) *string { return &s }

// Float returns a pointer to f, for setting EffectConfig fields inline.
func Float(f float64) *float64 { return &f }

// Bool returns a pointer to b, for setting EffectConfig fields inline.
func Bool(b bool) *bool { return &b }
