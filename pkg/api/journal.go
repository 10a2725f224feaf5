package api

import "time"

// JournalEventType identifies a playback journal record.
type JournalEventType string

const (
	JournalClipStarted    JournalEventType = "clip.started"
	JournalPhaseEntered   JournalEventType = "phase.entered"
	JournalRoadblockWait  JournalEventType = "roadblock.waiting"
	JournalClipFinished   JournalEventType = "clip.finished"
	JournalClipFailed     JournalEventType = "clip.failed"
	JournalSequenceStart  JournalEventType = "sequence.started"
	JournalSequenceDone   JournalEventType = "sequence.finished"
	JournalTimelineStep   JournalEventType = "timeline.stepped"
)

// JournalEvent is a minimal append-only playback record for audit and
// debugging. It is intentionally small and stable; richer history can be
// layered later.
type JournalEvent struct {
	PlaybackID string
	At         time.Time
	Type       JournalEventType

	// Optional context.
	Clip      string
	Category  Category
	Effect    string
	Target    string
	Sequence  string
	Timeline  string
	Direction Direction
	Phase     Phase

	// Small, human-oriented details (e.g. roadblock count, error string).
	// Keep this low-volume: do NOT dump large payloads here.
	Detail string
}

// JournalFilter controls which journal events are listed. Zero values mean
// "no filter" for that field.
type JournalFilter struct {
	PlaybackID string
	Clip       string
	Type       JournalEventType
}

// Journal is an Observer that records playback events to a store and can
// read them back in chronological order.
type Journal interface {
	Observer

	// Events returns recorded events matching the filter, oldest first.
	Events(filter JournalFilter) ([]JournalEvent, error)

	// Close releases the underlying store. Further appends and reads
	// return ErrJournalClosed.
	Close() error
}
