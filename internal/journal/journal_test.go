package journal

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/NkemdiAnyiam/webchalk-animate-sub001/pkg/api"
)

func sampleClip() api.ClipInfo {
	return api.ClipInfo{
		PlaybackID: "pb-1",
		ClipID:     "clip-1",
		Category:   api.CategoryEntrance,
		EffectName: "fade-in",
		TargetID:   "box",
	}
}

func recordLifecycle(t *testing.T, rec *Recorder) {
	t.Helper()
	ctx := context.Background()
	clip := sampleClip()
	rec.OnClipStart(ctx, clip, api.DirectionForward)
	rec.OnPhaseEntered(ctx, clip, api.DirectionForward, api.PhaseActive)
	rec.OnRoadblockWait(ctx, clip, api.DirectionForward, api.PhaseActive, 0.5, 2)
	rec.OnClipFinished(ctx, clip, api.DirectionForward, nil, 10*time.Millisecond)
	rec.OnSequenceStart(ctx, api.SequenceInfo{PlaybackID: "pb-2", Description: "intro", ClipCount: 1}, api.DirectionForward)
	rec.OnSequenceFinished(ctx, api.SequenceInfo{PlaybackID: "pb-2", Description: "intro"}, api.DirectionForward, nil, time.Millisecond)
	rec.OnTimelineStep(ctx, api.TimelineInfo{Name: "main"}, api.DirectionForward, 0, 1)
}

func verifyLifecycle(t *testing.T, rec *Recorder) {
	t.Helper()

	events, err := rec.Events(api.JournalFilter{})
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}
	wantTypes := []api.JournalEventType{
		api.JournalClipStarted,
		api.JournalPhaseEntered,
		api.JournalRoadblockWait,
		api.JournalClipFinished,
		api.JournalSequenceStart,
		api.JournalSequenceDone,
		api.JournalTimelineStep,
	}
	if len(events) != len(wantTypes) {
		t.Fatalf("expected %d events, got %d: %+v", len(wantTypes), len(events), events)
	}
	for i, want := range wantTypes {
		if events[i].Type != want {
			t.Fatalf("event %d: expected type %s, got %s", i, want, events[i].Type)
		}
	}
	if events[0].Clip != "clip-1" || events[0].Effect != "fade-in" || events[0].Target != "box" {
		t.Fatalf("clip context not recorded: %+v", events[0])
	}
	if events[1].Phase != api.PhaseActive {
		t.Fatalf("expected active phase, got %s", events[1].Phase)
	}

	// Filter by playback.
	filtered, err := rec.Events(api.JournalFilter{PlaybackID: "pb-2"})
	if err != nil {
		t.Fatalf("filtered Events failed: %v", err)
	}
	if len(filtered) != 2 {
		t.Fatalf("expected 2 events for pb-2, got %d", len(filtered))
	}

	// Filter by type.
	filtered, err = rec.Events(api.JournalFilter{Type: api.JournalTimelineStep})
	if err != nil {
		t.Fatalf("filtered Events failed: %v", err)
	}
	if len(filtered) != 1 || filtered[0].Timeline != "main" {
		t.Fatalf("expected one timeline step for 'main', got %+v", filtered)
	}
}

func TestRecorderWithMemoryStore(t *testing.T) {
	rec := NewRecorder(NewMemoryStore())
	recordLifecycle(t, rec)
	verifyLifecycle(t, rec)

	if err := rec.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := rec.Events(api.JournalFilter{}); !errors.Is(err, api.ErrJournalClosed) {
		t.Fatalf("expected ErrJournalClosed after close, got %v", err)
	}
}

func TestRecorderWithSQLiteStore(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("opening sqlite: %v", err)
	}
	defer db.Close()

	store, err := NewSQLiteStore(db)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	rec := NewRecorder(store)
	recordLifecycle(t, rec)
	verifyLifecycle(t, rec)

	if err := rec.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := rec.Events(api.JournalFilter{}); !errors.Is(err, api.ErrJournalClosed) {
		t.Fatalf("expected ErrJournalClosed after close, got %v", err)
	}
}

func TestRecorderFailedClip(t *testing.T) {
	rec := NewRecorder(NewMemoryStore())
	rec.OnClipFinished(context.Background(), sampleClip(), api.DirectionForward, errors.New("target vanished"), time.Millisecond)

	events, err := rec.Events(api.JournalFilter{Type: api.JournalClipFailed})
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}
	if len(events) != 1 || events[0].Detail != "target vanished" {
		t.Fatalf("expected one failure event with the error text, got %+v", events)
	}
}

func TestEventCodecRoundTrip(t *testing.T) {
	in := []api.JournalEvent{
		{
			PlaybackID: "pb-1",
			At:         time.Unix(12, 34),
			Type:       api.JournalClipStarted,
			Clip:       "clip-1",
			Category:   api.CategoryExit,
			Direction:  api.DirectionBackward,
			Detail:     "took 3ms",
		},
	}

	var buf bytes.Buffer
	if err := EncodeEvents(&buf, in); err != nil {
		t.Fatalf("EncodeEvents failed: %v", err)
	}
	out, err := DecodeEvents(&buf)
	if err != nil {
		t.Fatalf("DecodeEvents failed: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 event, got %d", len(out))
	}
	if !out[0].At.Equal(in[0].At) {
		t.Fatalf("timestamp mismatch: %v vs %v", out[0].At, in[0].At)
	}
	out[0].At = in[0].At
	if out[0] != in[0] {
		t.Fatalf("round trip mismatch: %+v vs %+v", out[0], in[0])
	}
}
