package webchalk

import (
	"time"

	"github.com/NkemdiAnyiam/webchalk-animate-sub001/internal/engine"
	"github.com/NkemdiAnyiam/webchalk-animate-sub001/pkg/api"
)

// Re-export key types so users don't need to dig into pkg/api.

type (
	Category             = api.Category
	Direction            = api.Direction
	Phase                = api.Phase
	Point                = api.Point
	Rect                 = api.Rect
	EffectConfig         = api.EffectConfig
	ResolvedConfig       = api.ResolvedConfig
	SequenceConfig       = api.SequenceConfig
	TimelineConfig       = api.TimelineConfig
	EffectGenerator      = api.EffectGenerator
	EffectBank           = api.EffectBank
	ComposedEffect       = api.ComposedEffect
	ComposeContext       = api.ComposeContext
	CompositionFrequency = api.CompositionFrequency
	Keyframe             = api.Keyframe
	FrameFunc            = api.FrameFunc
	Target               = api.Target
	Connector            = api.Connector
	StubTarget           = api.StubTarget
	StubConnector        = api.StubConnector
	Clip                 = api.Clip
	Sequence             = api.Sequence
	Timeline             = api.Timeline
	ClipStatus           = api.ClipStatus
	Promise              = api.Promise
	RoadblockFunc        = api.RoadblockFunc
	Observer             = api.Observer
	NoopObserver         = api.NoopObserver
	LoggingObserver      = api.LoggingObserver
	CompositeObserver    = api.CompositeObserver
	BasicMetrics         = api.BasicMetrics
	BasicMetricsSnapshot = api.BasicMetricsSnapshot
	Journal              = api.Journal
	JournalEvent         = api.JournalEvent
	JournalFilter        = api.JournalFilter

	// Clock paces playback; swap in NewManualClock for deterministic tests.
	Clock       = engine.Clock
	ManualClock = engine.ManualClock
)

// Re-export common helpers and constructors.

var (
	Categories           = api.Categories
	ExitTypes            = api.ExitTypes
	Dur                  = api.Dur
	Str                  = api.Str
	Float                = api.Float
	Bool                 = api.Bool
	NewPromise           = api.NewPromise
	ResolvedPromise      = api.ResolvedPromise
	AwaitAll             = api.AwaitAll
	NewStubTarget        = api.NewStubTarget
	NewHiddenStubTarget  = api.NewHiddenStubTarget
	NewStubConnector     = api.NewStubConnector
	NewLoggingObserver   = api.NewLoggingObserver
	NewCompositeObserver = api.NewCompositeObserver
	RealClock            = engine.RealClock
	NewManualClock       = engine.NewManualClock

	IsConfigurationError = api.IsConfigurationError
	IsPreconditionError  = api.IsPreconditionError
	IsOperationConflict  = api.IsOperationConflict
	IsRangeError         = api.IsRangeError
)

// Re-export sentinel errors and enum values for convenience.

var (
	ErrGeneratorNotFound = api.ErrGeneratorNotFound
	ErrTagNotFound       = api.ErrTagNotFound
	ErrJournalClosed     = api.ErrJournalClosed
)

const (
	DirectionForward  = api.DirectionForward
	DirectionBackward = api.DirectionBackward

	PhaseIdle     = api.PhaseIdle
	PhaseDelay    = api.PhaseDelay
	PhaseActive   = api.PhaseActive
	PhaseEndDelay = api.PhaseEndDelay
	PhaseFinished = api.PhaseFinished

	ComposeOnEveryPlay     = api.ComposeOnEveryPlay
	ComposeOnFirstPlayOnly = api.ComposeOnFirstPlayOnly

	ExitDisplayNone      = api.ExitDisplayNone
	ExitVisibilityHidden = api.ExitVisibilityHidden
	HiddenClassName      = api.HiddenClassName

	CategoryEntrance          = api.CategoryEntrance
	CategoryExit              = api.CategoryExit
	CategoryEmphasis          = api.CategoryEmphasis
	CategoryMotion            = api.CategoryMotion
	CategoryTransition        = api.CategoryTransition
	CategoryScroller          = api.CategoryScroller
	CategoryConnectorSetter   = api.CategoryConnectorSetter
	CategoryConnectorEntrance = api.CategoryConnectorEntrance
	CategoryConnectorExit     = api.CategoryConnectorExit
)

// NewEffectBank returns an empty effect bank. Banks freeze generator config
// layers at registration.
func NewEffectBank() EffectBank {
	return engine.NewBank()
}

// Option tunes clip factories, sequences, and timelines.
type Option func(*options)

type options struct {
	observer      Observer
	clock         Clock
	strict        bool
	frameInterval time.Duration
}

// WithObserver attaches an observer to everything built with the option.
func WithObserver(obs Observer) Option {
	return func(o *options) { o.observer = obs }
}

// WithClock substitutes the pacing clock; the default is wall time.
func WithClock(clk Clock) Option {
	return func(o *options) { o.clock = clk }
}

// WithStrictConfig makes call-site overrides of immutable config fields a
// ConfigurationError instead of silently discarding them.
func WithStrictConfig() Option {
	return func(o *options) { o.strict = true }
}

// WithFrameInterval sets the mutator tick period during real-time playback.
func WithFrameInterval(d time.Duration) Option {
	return func(o *options) { o.frameInterval = d }
}

func applyOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// ClipFactories creates clips against one effect bank, one factory method
// per category. Category-specific lifecycle behavior (unhiding on entrance,
// hiding on exit, anchor bookkeeping, connector endpoint updates) is wired
// by the category, not by the effect.
type ClipFactories struct {
	bank EffectBank
	opts options
}

// NewClipFactories binds a set of clip factories to a bank.
func NewClipFactories(bank EffectBank, opts ...Option) *ClipFactories {
	return &ClipFactories{bank: bank, opts: applyOptions(opts)}
}

func (f *ClipFactories) newClip(cat Category, target Target, effectName string, cfg EffectConfig, effectOptions []any) (Clip, error) {
	gen, err := f.bank.Get(effectName)
	if err != nil {
		return nil, err
	}
	return engine.NewClip(engine.ClipParams{
		Category:      cat,
		EffectName:    effectName,
		Generator:     gen,
		Target:        target,
		CallSite:      cfg,
		Options:       effectOptions,
		Strict:        f.opts.strict,
		Observer:      f.opts.observer,
		Clock:         f.opts.clock,
		FrameInterval: f.opts.frameInterval,
	})
}

// Entrance creates a clip that reveals a hidden target. The forward play
// fails with a PreconditionError unless the target carries a recognized
// hidden marker.
func (f *ClipFactories) Entrance(target Target, effectName string, cfg EffectConfig, effectOptions ...any) (Clip, error) {
	return f.newClip(CategoryEntrance, target, effectName, cfg, effectOptions)
}

// Exit creates a clip that hides a visible target per the resolved exit type.
func (f *ClipFactories) Exit(target Target, effectName string, cfg EffectConfig, effectOptions ...any) (Clip, error) {
	return f.newClip(CategoryExit, target, effectName, cfg, effectOptions)
}

// Emphasis creates a clip that draws attention to a target without changing
// its visibility.
func (f *ClipFactories) Emphasis(target Target, effectName string, cfg EffectConfig, effectOptions ...any) (Clip, error) {
	return f.newClip(CategoryEmphasis, target, effectName, cfg, effectOptions)
}

// Motion creates a clip that moves a target.
func (f *ClipFactories) Motion(target Target, effectName string, cfg EffectConfig, effectOptions ...any) (Clip, error) {
	return f.newClip(CategoryMotion, target, effectName, cfg, effectOptions)
}

// Transition creates a clip that morphs a target between styles.
func (f *ClipFactories) Transition(target Target, effectName string, cfg EffectConfig, effectOptions ...any) (Clip, error) {
	return f.newClip(CategoryTransition, target, effectName, cfg, effectOptions)
}

// Scroller creates a clip that scrolls to a target, recording the previous
// position on the owning timeline's anchor stack so rewinds restore it.
func (f *ClipFactories) Scroller(target Target, effectName string, cfg EffectConfig, effectOptions ...any) (Clip, error) {
	return f.newClip(CategoryScroller, target, effectName, cfg, effectOptions)
}

// ConnectorSetter creates a zero-duration clip that repositions a connector's
// endpoints. The target must implement Connector.
func (f *ClipFactories) ConnectorSetter(target Target, effectName string, cfg EffectConfig, effectOptions ...any) (Clip, error) {
	return f.newClip(CategoryConnectorSetter, target, effectName, cfg, effectOptions)
}

// ConnectorEntrance creates a clip that reveals a hidden connector and keeps
// its endpoints tracking while visible. The target must implement Connector.
func (f *ClipFactories) ConnectorEntrance(target Target, effectName string, cfg EffectConfig, effectOptions ...any) (Clip, error) {
	return f.newClip(CategoryConnectorEntrance, target, effectName, cfg, effectOptions)
}

// ConnectorExit creates a clip that hides a visible connector and stops its
// endpoint tracking. The target must implement Connector.
func (f *ClipFactories) ConnectorExit(target Target, effectName string, cfg EffectConfig, effectOptions ...any) (Clip, error) {
	return f.newClip(CategoryConnectorExit, target, effectName, cfg, effectOptions)
}

// NewSequence creates an empty sequence; add clips with AddClips.
func NewSequence(cfg SequenceConfig, opts ...Option) Sequence {
	o := applyOptions(opts)
	return engine.NewSequence(engine.SequenceParams{
		Config:   cfg,
		Observer: o.observer,
		Clock:    o.clock,
	})
}

// NewTimeline creates an empty timeline; add sequences with AddSequence.
func NewTimeline(cfg TimelineConfig, opts ...Option) Timeline {
	o := applyOptions(opts)
	return engine.NewTimeline(engine.TimelineParams{
		Config:   cfg,
		Observer: o.observer,
		Clock:    o.clock,
	})
}
