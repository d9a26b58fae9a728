package nn

// VideoLabels contains the tracked detections for each frame of a video
type VideoLabels struct {
	Classes []string       `json:"classes,omitempty"` // If empty, class ids are COCO ids
	Frames  []*ImageLabels `json:"frames"`
}

type ImageLabels struct {
	Frame   int               `json:"frame"` // For video, this is the frame number
	Objects []ObjectDetection `json:"objects"`
}

// ObjectDetection is an object that a neural network has found in an image, optionally
// with the identity that a tracker has assigned to it.
type ObjectDetection struct {
	Class      int     `json:"class"`
	Confidence float32 `json:"confidence"`
	Box        Rect    `json:"box"`
	TrackID    *int64  `json:"track_id,omitempty"`
}

// ClassName resolves a class id using the label's own class list, falling back to COCO
func (v *VideoLabels) ClassName(class int) string {
	if len(v.Classes) != 0 {
		if class < 0 || class >= len(v.Classes) {
			return ""
		}
		return v.Classes[class]
	}
	return COCOClassName(class)
}
