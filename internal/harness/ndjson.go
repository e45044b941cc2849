package harness

import (
	"encoding/json"
	"io"
)

// WriteNDJSON emits the events one JSON object per line, in stream order.
// The format mirrors the wire events so results can be replayed or diffed.
func WriteNDJSON(w io.Writer, events []Event) error {
	enc := json.NewEncoder(w)
	for _, ev := range events {
		if err := enc.Encode(ev); err != nil {
			return err
		}
	}
	return nil
}
