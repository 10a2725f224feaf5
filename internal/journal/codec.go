package journal

import (
	"encoding/gob"
	"io"

	"github.com/NkemdiAnyiam/webchalk-animate-sub001/pkg/api"
)

// EncodeEvents serializes a journal event slice with encoding/gob, for
// exports and archival dumps.
func EncodeEvents(w io.Writer, events []api.JournalEvent) error {
	return gob.NewEncoder(w).Encode(events)
}

// DecodeEvents reads back an event slice written by EncodeEvents.
func DecodeEvents(r io.Reader) ([]api.JournalEvent, error) {
	var out []api.JournalEvent
	if err := gob.NewDecoder(r).Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}
