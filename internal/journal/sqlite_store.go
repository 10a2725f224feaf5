package journal

import (
	"database/sql"
	"sync"
	"time"

	"github.com/NkemdiAnyiam/webchalk-animate-sub001/pkg/api"
)

// SQLiteStore is a Store backed by SQLite.
//
// It expects an *sql.DB that uses a SQLite driver (for example,
// "modernc.org/sqlite"). The caller is responsible for importing the driver:
//
//	import _ "modernc.org/sqlite"
type SQLiteStore struct {
	db *sql.DB

	mu     sync.Mutex
	closed bool
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore initializes the required schema in the given database and
// returns a new SQLiteStore. The caller retains ownership of db; Close
// releases only this store's claim on it.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS playback_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			playback_id TEXT NOT NULL DEFAULT '',
			at INTEGER NOT NULL,
			type TEXT NOT NULL,
			clip TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT '',
			effect TEXT NOT NULL DEFAULT '',
			target TEXT NOT NULL DEFAULT '',
			sequence_desc TEXT NOT NULL DEFAULT '',
			timeline TEXT NOT NULL DEFAULT '',
			direction TEXT NOT NULL DEFAULT '',
			phase TEXT NOT NULL DEFAULT '',
			detail TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_playback_events_playback_id ON playback_events(playback_id, id);
	`)
	return err
}

func (s *SQLiteStore) Append(ev api.JournalEvent) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return api.ErrJournalClosed
	}
	s.mu.Unlock()

	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := s.db.Exec(`
		INSERT INTO playback_events (playback_id, at, type, clip, category, effect, target, sequence_desc, timeline, direction, phase, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.PlaybackID,
		at.UnixNano(),
		string(ev.Type),
		ev.Clip,
		string(ev.Category),
		ev.Effect,
		ev.Target,
		ev.Sequence,
		ev.Timeline,
		string(ev.Direction),
		string(ev.Phase),
		ev.Detail,
	)
	return err
}

func (s *SQLiteStore) List(filter api.JournalFilter) ([]api.JournalEvent, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, api.ErrJournalClosed
	}
	s.mu.Unlock()

	query := `
		SELECT playback_id, at, type, clip, category, effect, target, sequence_desc, timeline, direction, phase, detail
		FROM playback_events`
	var (
		conds []string
		args  []any
	)
	if filter.PlaybackID != "" {
		conds = append(conds, "playback_id = ?")
		args = append(args, filter.PlaybackID)
	}
	if filter.Clip != "" {
		conds = append(conds, "clip = ?")
		args = append(args, filter.Clip)
	}
	if filter.Type != "" {
		conds = append(conds, "type = ?")
		args = append(args, string(filter.Type))
	}
	for i, cond := range conds {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY id ASC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []api.JournalEvent
	for rows.Next() {
		var (
			ev                              api.JournalEvent
			atN                             int64
			typ, category, direction, phase string
		)
		if err := rows.Scan(
			&ev.PlaybackID, &atN, &typ, &ev.Clip, &category, &ev.Effect,
			&ev.Target, &ev.Sequence, &ev.Timeline, &direction, &phase, &ev.Detail,
		); err != nil {
			return nil, err
		}
		ev.At = time.Unix(0, atN)
		ev.Type = api.JournalEventType(typ)
		ev.Category = api.Category(category)
		ev.Direction = api.Direction(direction)
		ev.Phase = api.Phase(phase)
		out = append(out, ev)
	}
	return out, rows.Err()
}

// Close marks the store closed. The underlying *sql.DB is left open for the
// caller to dispose of.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
