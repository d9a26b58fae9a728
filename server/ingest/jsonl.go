package ingest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Longest line we accept in a JSONL file
const maxJSONLLine = 1024 * 1024

// One line of a JSONL detection file. The box is either x1,y1,x2,y2 or a 4 element "box" array.
// A line with a frame number and no box is a frame marker.
//
//	{"frame": 12, "track_id": 3, "class": "car", "conf": 0.91, "x1": 10, "y1": 20, "x2": 50, "y2": 60}
//	{"frame": 13}
type jsonlLine struct {
	Frame   *int64    `json:"frame"`
	TrackID *int64    `json:"track_id"`
	ClassID *int64    `json:"class_id"`
	Class   string    `json:"class"`
	Conf    *float64  `json:"conf"`
	X1      *float64  `json:"x1"`
	Y1      *float64  `json:"y1"`
	X2      *float64  `json:"x2"`
	Y2      *float64  `json:"y2"`
	Box     []float64 `json:"box"`
}

// NewJSONLSource reads detections from a JSON-lines stream, one detection per line.
// Consecutive lines with the same frame number form one frame.
func NewJSONLSource(r io.Reader) Source {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxJSONLLine)
	lineNum := 0

	readRow := func() (int64, *Detection, error) {
		for scanner.Scan() {
			lineNum++
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}
			row := jsonlLine{}
			if err := json.Unmarshal(line, &row); err != nil {
				return 0, nil, fmt.Errorf("line %v: %w", lineNum, err)
			}
			frame, det, err := row.toDetection()
			if err != nil {
				return 0, nil, fmt.Errorf("line %v: %w", lineNum, err)
			}
			return frame, det, nil
		}
		if err := scanner.Err(); err != nil {
			return 0, nil, err
		}
		return 0, nil, io.EOF
	}

	return &frameGrouper{readRow: readRow}
}

func (l *jsonlLine) toDetection() (int64, *Detection, error) {
	if l.Frame == nil {
		return 0, nil, fmt.Errorf("missing 'frame'")
	}
	det := &Detection{
		TrackID:   l.TrackID,
		ClassID:   l.ClassID,
		ClassName: l.Class,
		Conf:      l.Conf,
	}
	corners := []*float64{l.X1, l.Y1, l.X2, l.Y2}
	nCorners := 0
	for _, c := range corners {
		if c != nil {
			nCorners++
		}
	}
	switch {
	case len(l.Box) == 4 && nCorners == 0:
		det.X1, det.Y1, det.X2, det.Y2 = l.Box[0], l.Box[1], l.Box[2], l.Box[3]
	case len(l.Box) != 0:
		return 0, nil, fmt.Errorf("'box' must have 4 elements, and may not be combined with x1,y1,x2,y2")
	case nCorners == 4:
		det.X1, det.Y1, det.X2, det.Y2 = *l.X1, *l.Y1, *l.X2, *l.Y2
	case nCorners == 0:
		// Frame marker
		return *l.Frame, nil, nil
	default:
		return 0, nil, fmt.Errorf("incomplete box: x1, y1, x2, y2 must all be present")
	}
	return *l.Frame, det, nil
}
