package ingest

import (
	"errors"
	"io"
)

// Detection is one tracked box that an external detector/tracker reported for a frame.
// Optional fields are nil when the tracker did not report them.
type Detection struct {
	X1, Y1, X2, Y2 float64
	TrackID        *int64   // Negative values mean "no identity" (ByteTrack convention)
	ClassID        *int64   // Takes precedence over ClassName
	ClassName      string   // Resolved to a class id when ClassID is nil
	Conf           *float64 // Detection confidence in [0,1]
}

// Frame is the set of detections for one video frame. A frame may have no detections.
type Frame struct {
	Index      int64
	Detections []Detection
}

// Source produces frames in the order that the tracker processed them.
// Next returns io.EOF after the last frame.
type Source interface {
	Next() (*Frame, error)
}

// readRowFunc reads one row of a line-oriented source. A nil detection is a frame marker,
// which makes a frame exist even when it has no detections.
type readRowFunc func() (frame int64, det *Detection, err error)

type pendingRow struct {
	frame int64
	det   *Detection
}

// frameGrouper turns a stream of rows into frames, by grouping consecutive rows that share a frame number
type frameGrouper struct {
	readRow readRowFunc
	pending *pendingRow
	eof     bool
}

func (g *frameGrouper) Next() (*Frame, error) {
	var frame *Frame
	if g.pending != nil {
		frame = &Frame{Index: g.pending.frame}
		if g.pending.det != nil {
			frame.Detections = append(frame.Detections, *g.pending.det)
		}
		g.pending = nil
	}
	for !g.eof {
		idx, det, err := g.readRow()
		if errors.Is(err, io.EOF) {
			g.eof = true
			break
		} else if err != nil {
			return nil, err
		}
		if frame == nil {
			frame = &Frame{Index: idx}
		} else if idx != frame.Index {
			g.pending = &pendingRow{frame: idx, det: det}
			return frame, nil
		}
		if det != nil {
			frame.Detections = append(frame.Detections, *det)
		}
	}
	if frame == nil {
		return nil, io.EOF
	}
	return frame, nil
}
