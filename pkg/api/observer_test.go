package api

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCompositeObserverCollapses(t *testing.T) {
	if _, ok := NewCompositeObserver().(NoopObserver); !ok {
		t.Fatalf("empty composite must collapse to the noop observer")
	}
	if _, ok := NewCompositeObserver(nil, nil).(NoopObserver); !ok {
		t.Fatalf("all-nil composite must collapse to the noop observer")
	}

	metrics := &BasicMetrics{}
	if got := NewCompositeObserver(nil, metrics); got != Observer(metrics) {
		t.Fatalf("single-observer composite must return the observer itself")
	}
}

func TestBasicMetricsCounts(t *testing.T) {
	m := &BasicMetrics{}
	ctx := context.Background()
	clip := ClipInfo{PlaybackID: "p1", ClipID: "c1", Category: CategoryEntrance, EffectName: "fade-in", TargetID: "box"}

	m.OnClipFinished(ctx, clip, DirectionForward, nil, 4*time.Millisecond)
	m.OnClipFinished(ctx, clip, DirectionBackward, nil, 2*time.Millisecond)
	m.OnClipFinished(ctx, clip, DirectionForward, errors.New("boom"), time.Millisecond)
	m.OnRoadblockWait(ctx, clip, DirectionForward, PhaseActive, 0.5, 2)
	m.OnSequenceFinished(ctx, SequenceInfo{PlaybackID: "p2"}, DirectionForward, nil, time.Millisecond)
	m.OnSequenceFinished(ctx, SequenceInfo{PlaybackID: "p3"}, DirectionForward, errors.New("boom"), time.Millisecond)
	m.OnTimelineStep(ctx, TimelineInfo{Name: "main"}, DirectionForward, 0, 1)

	snap := m.Snapshot()
	if snap.ClipsPlayed != 1 || snap.ClipsRewound != 1 || snap.ClipsFailed != 1 {
		t.Fatalf("clip counters wrong: %+v", snap)
	}
	if snap.RoadblocksAwaited != 2 || snap.SequencesCompleted != 1 || snap.TimelineSteps != 1 {
		t.Fatalf("aggregate counters wrong: %+v", snap)
	}
	if snap.AvgClipDuration != 3*time.Millisecond {
		t.Fatalf("want 3ms average, got %v", snap.AvgClipDuration)
	}
}
