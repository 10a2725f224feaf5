package webchalk

import (
	"database/sql"
	"io"

	"github.com/NkemdiAnyiam/webchalk-animate-sub001/internal/journal"
)

// NewMemoryJournal returns a Journal backed by an in-memory store. Attach it
// with WithObserver to record playback events for later inspection.
func NewMemoryJournal() Journal {
	return journal.NewRecorder(journal.NewMemoryStore())
}

// NewSQLiteJournal returns a Journal that persists playback events in a
// SQLite database. The caller owns db and must import a SQLite driver:
//
//	import _ "modernc.org/sqlite"
func NewSQLiteJournal(db *sql.DB) (Journal, error) {
	store, err := journal.NewSQLiteStore(db)
	if err != nil {
		return nil, err
	}
	return journal.NewRecorder(store), nil
}

// ExportJournal writes every event matching the filter to w in a compact
// binary form readable by ImportJournalEvents.
func ExportJournal(j Journal, filter JournalFilter, w io.Writer) error {
	events, err := j.Events(filter)
	if err != nil {
		return err
	}
	return journal.EncodeEvents(w, events)
}

// ImportJournalEvents reads back events written by ExportJournal.
func ImportJournalEvents(r io.Reader) ([]JournalEvent, error) {
	return journal.DecodeEvents(r)
}
