package ingest

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/cyclopcam/tracklog/pkg/nn"
)

// labelsSource replays a labels file, in which every frame's objects are listed in one JSON document
type labelsSource struct {
	labels *nn.VideoLabels
	next   int
}

// NewLabelsSource reads an nn.VideoLabels JSON document.
// Each object's class is stored as its class id. Without a class list in the document
// the ids are COCO ids; otherwise they index the document's own class list, and the
// name is carried along for logging only.
func NewLabelsSource(r io.Reader) (Source, error) {
	labels := &nn.VideoLabels{}
	if err := json.NewDecoder(r).Decode(labels); err != nil {
		return nil, fmt.Errorf("Failed to decode labels: %w", err)
	}
	return &labelsSource{labels: labels}, nil
}

func (s *labelsSource) Next() (*Frame, error) {
	for s.next < len(s.labels.Frames) {
		img := s.labels.Frames[s.next]
		s.next++
		if img == nil {
			continue
		}
		frame := &Frame{Index: int64(img.Frame)}
		for _, obj := range img.Objects {
			det := Detection{
				TrackID: obj.TrackID,
				Conf:    floatPtr(float64(obj.Confidence)),
			}
			det.X1, det.Y1, det.X2, det.Y2 = obj.Box.Corners()
			det.ClassID = int64Ptr(int64(obj.Class))
			det.ClassName = s.labels.ClassName(obj.Class)
			frame.Detections = append(frame.Detections, det)
		}
		return frame, nil
	}
	return nil, io.EOF
}

func floatPtr(v float64) *float64 {
	return &v
}

func int64Ptr(v int64) *int64 {
	return &v
}
