package api

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// ClipInfo identifies a clip playback in observer callbacks and journals.
type ClipInfo struct {
	// PlaybackID is unique per Play/Rewind invocation.
	PlaybackID string

	ClipID     string
	Category   Category
	EffectName string
	TargetID   string
}

// SequenceInfo identifies a sequence playback.
type SequenceInfo struct {
	PlaybackID  string
	Description string
	Tag         string
	ClipCount   int
}

// TimelineInfo identifies a timeline in observer callbacks.
type TimelineInfo struct {
	Name string
}

// Observer receives callbacks from the playback engine for logging, metrics,
// and journaling.
//
// Implementations should be fast and non-blocking; heavy work should be done
// asynchronously so as not to delay playback.
type Observer interface {
	// OnClipStart is called once per playback, after the start hook has run
	// and before the first phase begins.
	OnClipStart(ctx context.Context, clip ClipInfo, dir Direction)

	// OnPhaseEntered is called as the clip enters each phase.
	OnPhaseEntered(ctx context.Context, clip ClipInfo, dir Direction, phase Phase)

	// OnRoadblockWait is called when the clip suspends at a roadblock
	// point. count is the number of roadblocks joined there.
	OnRoadblockWait(ctx context.Context, clip ClipInfo, dir Direction, phase Phase, fraction float64, count int)

	// OnClipFinished is called when the playback reaches its terminal state
	// or fails; err is nil on success.
	OnClipFinished(ctx context.Context, clip ClipInfo, dir Direction, err error, duration time.Duration)

	// OnSequenceStart and OnSequenceFinished bracket a sequence playback.
	OnSequenceStart(ctx context.Context, seq SequenceInfo, dir Direction)
	OnSequenceFinished(ctx context.Context, seq SequenceInfo, dir Direction, err error, duration time.Duration)

	// OnTimelineStep is called after a timeline step settles. from and to
	// are the cursor positions around the step; equal values mean a
	// boundary no-op.
	OnTimelineStep(ctx context.Context, tl TimelineInfo, dir Direction, from, to int)
}

// NoopObserver is an Observer that does nothing. It is the default when no
// observer is configured.
type NoopObserver struct{}

func (NoopObserver) OnClipStart(ctx context.Context, clip ClipInfo, dir Direction)              {}
func (NoopObserver) OnPhaseEntered(ctx context.Context, clip ClipInfo, dir Direction, ph Phase) {}
func (NoopObserver) OnRoadblockWait(ctx context.Context, clip ClipInfo, dir Direction, ph Phase, fraction float64, count int) {
}
func (NoopObserver) OnClipFinished(ctx context.Context, clip ClipInfo, dir Direction, err error, d time.Duration) {
}
func (NoopObserver) OnSequenceStart(ctx context.Context, seq SequenceInfo, dir Direction) {}
func (NoopObserver) OnSequenceFinished(ctx context.Context, seq SequenceInfo, dir Direction, err error, d time.Duration) {
}
func (NoopObserver) OnTimelineStep(ctx context.Context, tl TimelineInfo, dir Direction, from, to int) {
}

// CompositeObserver fans out events to multiple observers.
type CompositeObserver struct {
	observers []Observer
}

// NewCompositeObserver creates an Observer that forwards events to each
// non-nil observer in obs.
func NewCompositeObserver(obs ...Observer) Observer {
	filtered := make([]Observer, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			filtered = append(filtered, o)
		}
	}
	if len(filtered) == 0 {
		return NoopObserver{}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &CompositeObserver{observers: filtered}
}

func (c *CompositeObserver) OnClipStart(ctx context.Context, clip ClipInfo, dir Direction) {
	for _, o := range c.observers {
		o.OnClipStart(ctx, clip, dir)
	}
}

func (c *CompositeObserver) OnPhaseEntered(ctx context.Context, clip ClipInfo, dir Direction, ph Phase) {
	for _, o := range c.observers {
		o.OnPhaseEntered(ctx, clip, dir, ph)
	}
}

func (c *CompositeObserver) OnRoadblockWait(ctx context.Context, clip ClipInfo, dir Direction, ph Phase, fraction float64, count int) {
	for _, o := range c.observers {
		o.OnRoadblockWait(ctx, clip, dir, ph, fraction, count)
	}
}

func (c *CompositeObserver) OnClipFinished(ctx context.Context, clip ClipInfo, dir Direction, err error, d time.Duration) {
	for _, o := range c.observers {
		o.OnClipFinished(ctx, clip, dir, err, d)
	}
}

func (c *CompositeObserver) OnSequenceStart(ctx context.Context, seq SequenceInfo, dir Direction) {
	for _, o := range c.observers {
		o.OnSequenceStart(ctx, seq, dir)
	}
}

func (c *CompositeObserver) OnSequenceFinished(ctx context.Context, seq SequenceInfo, dir Direction, err error, d time.Duration) {
	for _, o := range c.observers {
		o.OnSequenceFinished(ctx, seq, dir, err, d)
	}
}

func (c *CompositeObserver) OnTimelineStep(ctx context.Context, tl TimelineInfo, dir Direction, from, to int) {
	for _, o := range c.observers {
		o.OnTimelineStep(ctx, tl, dir, from, to)
	}
}

// LoggingObserver writes structured logs using log/slog.
type LoggingObserver struct {
	Logger *slog.Logger
}

// NewLoggingObserver creates an Observer that logs playback lifecycle events
// using the provided slog.Logger. If logger is nil, slog.Default() is used.
func NewLoggingObserver(logger *slog.Logger) Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{Logger: logger}
}

func (o *LoggingObserver) OnClipStart(ctx context.Context, clip ClipInfo, dir Direction) {
	o.Logger.InfoContext(ctx, "clip_start",
		slog.String("playback_id", clip.PlaybackID),
		slog.String("clip", clip.ClipID),
		slog.String("category", string(clip.Category)),
		slog.String("effect", clip.EffectName),
		slog.String("target", clip.TargetID),
		slog.String("direction", string(dir)),
	)
}

func (o *LoggingObserver) OnPhaseEntered(ctx context.Context, clip ClipInfo, dir Direction, ph Phase) {
	o.Logger.DebugContext(ctx, "phase_entered",
		slog.String("playback_id", clip.PlaybackID),
		slog.String("clip", clip.ClipID),
		slog.String("direction", string(dir)),
		slog.String("phase", string(ph)),
	)
}

func (o *LoggingObserver) OnRoadblockWait(ctx context.Context, clip ClipInfo, dir Direction, ph Phase, fraction float64, count int) {
	o.Logger.DebugContext(ctx, "roadblock_wait",
		slog.String("playback_id", clip.PlaybackID),
		slog.String("clip", clip.ClipID),
		slog.String("direction", string(dir)),
		slog.String("phase", string(ph)),
		slog.Float64("fraction", fraction),
		slog.Int("roadblocks", count),
	)
}

func (o *LoggingObserver) OnClipFinished(ctx context.Context, clip ClipInfo, dir Direction, err error, d time.Duration) {
	level := slog.LevelInfo
	if err != nil {
		level = slog.LevelError
	}
	o.Logger.Log(ctx, level, "clip_finished",
		slog.String("playback_id", clip.PlaybackID),
		slog.String("clip", clip.ClipID),
		slog.String("direction", string(dir)),
		slog.Duration("duration", d),
		slog.Any("error", err),
	)
}

func (o *LoggingObserver) OnSequenceStart(ctx context.Context, seq SequenceInfo, dir Direction) {
	o.Logger.InfoContext(ctx, "sequence_start",
		slog.String("playback_id", seq.PlaybackID),
		slog.String("description", seq.Description),
		slog.String("direction", string(dir)),
		slog.Int("clips", seq.ClipCount),
	)
}

func (o *LoggingObserver) OnSequenceFinished(ctx context.Context, seq SequenceInfo, dir Direction, err error, d time.Duration) {
	level := slog.LevelInfo
	if err != nil {
		level = slog.LevelError
	}
	o.Logger.Log(ctx, level, "sequence_finished",
		slog.String("playback_id", seq.PlaybackID),
		slog.String("description", seq.Description),
		slog.String("direction", string(dir)),
		slog.Duration("duration", d),
		slog.Any("error", err),
	)
}

func (o *LoggingObserver) OnTimelineStep(ctx context.Context, tl TimelineInfo, dir Direction, from, to int) {
	o.Logger.InfoContext(ctx, "timeline_step",
		slog.String("timeline", tl.Name),
		slog.String("direction", string(dir)),
		slog.Int("from", from),
		slog.Int("to", to),
	)
}

// BasicMetrics collects simple counters and aggregate playback durations.
// It implements Observer and can be combined with LoggingObserver via
// NewCompositeObserver.
type BasicMetrics struct {
	NoopObserver

	clipsPlayed        atomic.Int64
	clipsRewound       atomic.Int64
	clipsFailed        atomic.Int64
	roadblocksAwaited  atomic.Int64
	sequencesCompleted atomic.Int64
	timelineSteps      atomic.Int64
	totalClipDuration  atomic.Int64 // nanoseconds
}

// BasicMetricsSnapshot is an immutable snapshot of BasicMetrics.
type BasicMetricsSnapshot struct {
	ClipsPlayed        int64
	ClipsRewound       int64
	ClipsFailed        int64
	RoadblocksAwaited  int64
	SequencesCompleted int64
	TimelineSteps      int64
	AvgClipDuration    time.Duration
}

func (m *BasicMetrics) OnClipFinished(ctx context.Context, clip ClipInfo, dir Direction, err error, d time.Duration) {
	if err != nil {
		m.clipsFailed.Add(1)
		return
	}
	if dir == DirectionBackward {
		m.clipsRewound.Add(1)
	} else {
		m.clipsPlayed.Add(1)
	}
	m.totalClipDuration.Add(d.Nanoseconds())
}

func (m *BasicMetrics) OnRoadblockWait(ctx context.Context, clip ClipInfo, dir Direction, ph Phase, fraction float64, count int) {
	m.roadblocksAwaited.Add(int64(count))
}

func (m *BasicMetrics) OnSequenceFinished(ctx context.Context, seq SequenceInfo, dir Direction, err error, d time.Duration) {
	if err == nil {
		m.sequencesCompleted.Add(1)
	}
}

func (m *BasicMetrics) OnTimelineStep(ctx context.Context, tl TimelineInfo, dir Direction, from, to int) {
	m.timelineSteps.Add(1)
}

// Snapshot returns a snapshot of the current metrics.
func (m *BasicMetrics) Snapshot() BasicMetricsSnapshot {
	played := m.clipsPlayed.Load()
	rewound := m.clipsRewound.Load()
	totalNs := m.totalClipDuration.Load()

	var avg time.Duration
	if n := played + rewound; n > 0 {
		avg = time.Duration(totalNs / n)
	}

	return BasicMetricsSnapshot{
		ClipsPlayed:        played,
		ClipsRewound:       rewound,
		ClipsFailed:        m.clipsFailed.Load(),
		RoadblocksAwaited:  m.roadblocksAwaited.Load(),
		SequencesCompleted: m.sequencesCompleted.Load(),
		TimelineSteps:      m.timelineSteps.Load(),
		AvgClipDuration:    avg,
	}
}
