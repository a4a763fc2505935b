package watcher

import (
	"bytes"
	"errors"
	"log/slog"

	"github.com/roach88/edc/internal/journal"
)

// Window is the outcome of reading a journal's tail on attach.
type Window struct {
	// Records are the records to forward, oldest first.
	Records []journal.Record
	// Boundary reports whether a system-boundary record anchors Records.
	Boundary bool
	// Skipped counts lines that failed to decode.
	Skipped int
	// Consumed is the length of buf up to and including its last newline.
	// Bytes after it belong to a line still being written.
	Consumed int
}

// SelectWindow decodes the tail window buf of a journal file.
//
// When clipped is true buf starts mid-file, so everything up to the first
// newline is a fragment and is dropped. At most maxEvents of the newest
// records are kept. Records are then trimmed to start at the last system
// boundary; with no boundary in the window the whole capped set is kept.
func SelectWindow(buf []byte, clipped bool, maxEvents int, log *slog.Logger) Window {
	var w Window

	end := bytes.LastIndexByte(buf, '\n')
	if end < 0 {
		return w
	}
	w.Consumed = end + 1
	body := buf[:end+1]

	if clipped {
		i := bytes.IndexByte(body, '\n')
		body = body[i+1:]
	}

	var recs []journal.Record
	for len(body) > 0 {
		i := bytes.IndexByte(body, '\n')
		line := body[:i]
		body = body[i+1:]

		rec, err := journal.Decode(line)
		if err != nil {
			if !errors.Is(err, journal.ErrBlankLine) {
				w.Skipped++
				if log != nil {
					log.Debug("bootstrap skipped line", "error", err)
				}
			}
			continue
		}
		recs = append(recs, rec)
	}

	if maxEvents > 0 && len(recs) > maxEvents {
		recs = recs[len(recs)-maxEvents:]
	}

	for i := len(recs) - 1; i >= 0; i-- {
		if journal.IsSystemBoundary(recs[i].Kind()) {
			recs = recs[i:]
			w.Boundary = true
			break
		}
	}
	w.Records = recs
	return w
}
