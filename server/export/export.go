// Package export writes the event log out as CSV, either to a stream or into a blob store.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/tracklog/pkg/blobstore"
	"github.com/cyclopcam/tracklog/server/eventstore"
)

// Header is the first row of every export
var Header = []string{
	"id", "video", "tracker", "model", "frame_idx", "timestamp_ms", "track_id", "class_id", "conf",
	"x1", "y1", "x2", "y2", "cx", "cy", "created_at",
}

// Reader is the part of the event store that export reads through
type Reader interface {
	ReadPage(afterID int64, limit int) ([]eventstore.Event, error)
}

// WriteCSV writes every event in id order. Absent optional fields are empty cells.
// The store is read one page at a time, so memory use does not grow with the size of the log.
// Returns the number of events written.
func WriteCSV(w io.Writer, store Reader, pageSize int) (int64, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return 0, err
	}

	n := int64(0)
	after := int64(0)
	row := make([]string, len(Header))
	for {
		page, err := store.ReadPage(after, pageSize)
		if err != nil {
			return n, fmt.Errorf("Failed to read events after id %v: %w", after, err)
		}
		if len(page) == 0 {
			break
		}
		for i := range page {
			formatRow(row, &page[i])
			if err := cw.Write(row); err != nil {
				return n, err
			}
			n++
		}
		after = page[len(page)-1].ID
		cw.Flush()
		if err := cw.Error(); err != nil {
			return n, err
		}
	}
	cw.Flush()
	return n, cw.Error()
}

func formatRow(row []string, ev *eventstore.Event) {
	row[0] = strconv.FormatInt(ev.ID, 10)
	row[1] = ev.Video
	row[2] = ev.Tracker
	row[3] = optString(ev.Model)
	row[4] = strconv.FormatInt(ev.FrameIdx, 10)
	row[5] = optFloat(ev.TimestampMs)
	row[6] = optInt(ev.TrackID)
	row[7] = optInt(ev.ClassID)
	row[8] = optFloat(ev.Conf)
	row[9] = formatFloat(ev.X1)
	row[10] = formatFloat(ev.Y1)
	row[11] = formatFloat(ev.X2)
	row[12] = formatFloat(ev.Y2)
	row[13] = formatFloat(ev.CX)
	row[14] = formatFloat(ev.CY)
	row[15] = ev.CreatedAt.UTC().Format(time.RFC3339)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func optFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func optInt(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func optString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

// ToStorage streams a CSV export of the whole store into the blob store as name.
// If the export fails part way, the upload is aborted and the object is not created.
func ToStorage(log logs.Log, store Reader, storage blobstore.Storage, name string) (int64, error) {
	start := time.Now()
	w, err := storage.WriteFile(name)
	if err != nil {
		return 0, fmt.Errorf("Failed to create %v: %w", name, err)
	}
	n, err := WriteCSV(w, store, eventstore.DefaultPageSize)
	if err != nil {
		abort(w)
		return n, err
	}
	if err := w.Close(); err != nil {
		return n, fmt.Errorf("Failed to finish %v: %w", name, err)
	}
	log.Infof("Exported %v events to %v in %.1f seconds", n, name, time.Since(start).Seconds())
	return n, nil
}

// DefaultName returns a timestamped object name for an export, eg "exports/events-20260102-150405.csv"
func DefaultName(now time.Time) string {
	return "exports/events-" + now.UTC().Format("20060102-150405") + ".csv"
}

// abort discards an unfinished upload, if the writer knows how to.
// Otherwise we close it, which leaves a truncated object behind.
func abort(w io.WriteCloser) {
	type aborter interface {
		Abort() error
	}
	if a, ok := w.(aborter); ok {
		a.Abort()
		return
	}
	w.Close()
}
