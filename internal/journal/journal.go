// Package journal records playback events to pluggable append-only stores
// and exposes them back as an api.Journal observer.
package journal

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/NkemdiAnyiam/webchalk-animate-sub001/pkg/api"
)

// Store is an append-only event store.
type Store interface {
	Append(ev api.JournalEvent) error
	List(filter api.JournalFilter) ([]api.JournalEvent, error)
	Close() error
}

// Recorder adapts a Store into an api.Journal observer. Append failures are
// swallowed after the store reports closure; observers must never fail a
// playback.
type Recorder struct {
	api.NoopObserver
	store Store
}

var _ api.Journal = (*Recorder)(nil)

// NewRecorder wraps store in a Recorder.
func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store}
}

func (r *Recorder) OnClipStart(ctx context.Context, clip api.ClipInfo, dir api.Direction) {
	r.append(api.JournalEvent{
		PlaybackID: clip.PlaybackID,
		Type:       api.JournalClipStarted,
		Clip:       clip.ClipID,
		Category:   clip.Category,
		Effect:     clip.EffectName,
		Target:     clip.TargetID,
		Direction:  dir,
	})
}

func (r *Recorder) OnPhaseEntered(ctx context.Context, clip api.ClipInfo, dir api.Direction, ph api.Phase) {
	r.append(api.JournalEvent{
		PlaybackID: clip.PlaybackID,
		Type:       api.JournalPhaseEntered,
		Clip:       clip.ClipID,
		Category:   clip.Category,
		Effect:     clip.EffectName,
		Target:     clip.TargetID,
		Direction:  dir,
		Phase:      ph,
	})
}

func (r *Recorder) OnRoadblockWait(ctx context.Context, clip api.ClipInfo, dir api.Direction, ph api.Phase, fraction float64, count int) {
	r.append(api.JournalEvent{
		PlaybackID: clip.PlaybackID,
		Type:       api.JournalRoadblockWait,
		Clip:       clip.ClipID,
		Direction:  dir,
		Phase:      ph,
		Detail:     fmt.Sprintf("%d roadblock(s) at %.3f", count, fraction),
	})
}

func (r *Recorder) OnClipFinished(ctx context.Context, clip api.ClipInfo, dir api.Direction, err error, d time.Duration) {
	ev := api.JournalEvent{
		PlaybackID: clip.PlaybackID,
		Type:       api.JournalClipFinished,
		Clip:       clip.ClipID,
		Category:   clip.Category,
		Effect:     clip.EffectName,
		Target:     clip.TargetID,
		Direction:  dir,
		Detail:     "took " + d.String(),
	}
	if err != nil {
		ev.Type = api.JournalClipFailed
		ev.Detail = err.Error()
	}
	r.append(ev)
}

func (r *Recorder) OnSequenceStart(ctx context.Context, seq api.SequenceInfo, dir api.Direction) {
	r.append(api.JournalEvent{
		PlaybackID: seq.PlaybackID,
		Type:       api.JournalSequenceStart,
		Sequence:   seq.Description,
		Direction:  dir,
		Detail:     fmt.Sprintf("%d clip(s)", seq.ClipCount),
	})
}

func (r *Recorder) OnSequenceFinished(ctx context.Context, seq api.SequenceInfo, dir api.Direction, err error, d time.Duration) {
	ev := api.JournalEvent{
		PlaybackID: seq.PlaybackID,
		Type:       api.JournalSequenceDone,
		Sequence:   seq.Description,
		Direction:  dir,
		Detail:     "took " + d.String(),
	}
	if err != nil {
		ev.Detail = err.Error()
	}
	r.append(ev)
}

func (r *Recorder) OnTimelineStep(ctx context.Context, tl api.TimelineInfo, dir api.Direction, from, to int) {
	r.append(api.JournalEvent{
		Type:      api.JournalTimelineStep,
		Timeline:  tl.Name,
		Direction: dir,
		Detail:    fmt.Sprintf("cursor %d -> %d", from, to),
	})
}

// Events returns recorded events matching the filter, oldest first.
func (r *Recorder) Events(filter api.JournalFilter) ([]api.JournalEvent, error) {
	return r.store.List(filter)
}

// Close releases the underlying store.
func (r *Recorder) Close() error {
	return r.store.Close()
}

func (r *Recorder) append(ev api.JournalEvent) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	// Journaling must never fail a playback; a closed store drops events.
	_ = r.store.Append(ev)
}

// MemoryStore is a Store backed by a slice, for tests and short-lived runs.
type MemoryStore struct {
	mu     sync.Mutex
	events []api.JournalEvent
	closed bool
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(ev api.JournalEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return api.ErrJournalClosed
	}
	s.events = append(s.events, ev)
	return nil
}

func (s *MemoryStore) List(filter api.JournalFilter) ([]api.JournalEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, api.ErrJournalClosed
	}
	out := make([]api.JournalEvent, 0, len(s.events))
	for _, ev := range s.events {
		if matches(ev, filter) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func matches(ev api.JournalEvent, filter api.JournalFilter) bool {
	if filter.PlaybackID != "" && ev.PlaybackID != filter.PlaybackID {
		return false
	}
	if filter.Clip != "" && ev.Clip != filter.Clip {
		return false
	}
	if filter.Type != "" && ev.Type != filter.Type {
		return false
	}
	return true
}
