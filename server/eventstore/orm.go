package eventstore

import (
	"fmt"
	"time"
)

// Event is one observed bounding box, in one frame of one video, produced by one tracker.
// CX and CY are always the midpoint of the box.
type Event struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	Video       string    `json:"video"`
	Tracker     string    `json:"tracker"`
	Model       *string   `json:"model"`
	FrameIdx    int64     `json:"frame_idx"`
	TimestampMs *float64  `json:"timestamp_ms"`
	TrackID     *int64    `json:"track_id"`
	ClassID     *int64    `json:"class_id"`
	Conf        *float64  `json:"conf"`
	X1          float64   `json:"x1"`
	Y1          float64   `json:"y1"`
	X2          float64   `json:"x2"`
	Y2          float64   `json:"y2"`
	CX          float64   `gorm:"column:cx" json:"cx"`
	CY          float64   `gorm:"column:cy" json:"cy"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Event) TableName() string {
	return "events"
}

// Record is the input to Append and AppendBulk.
// The store assigns the id, the centroid, and the creation time.
type Record struct {
	Video       string   `json:"video"`
	Tracker     string   `json:"tracker"`
	Model       *string  `json:"model,omitempty"`
	FrameIdx    int64    `json:"frame_idx"`
	TimestampMs *float64 `json:"timestamp_ms,omitempty"`
	TrackID     *int64   `json:"track_id,omitempty"`
	ClassID     *int64   `json:"class_id,omitempty"`
	Conf        *float64 `json:"conf,omitempty"`
	X1          float64  `json:"x1"`
	Y1          float64  `json:"y1"`
	X2          float64  `json:"x2"`
	Y2          float64  `json:"y2"`
}

// Validate checks the fields that the store requires.
// Box geometry, confidence range, and per-frame uniqueness of a track are deliberately not checked,
// so that legacy data with inverted or out-of-range boxes can still be loaded.
func (r *Record) Validate() error {
	if r.Video == "" {
		return fmt.Errorf("%w: video is empty", ErrInvalidEvent)
	}
	if r.Tracker == "" {
		return fmt.Errorf("%w: tracker is empty", ErrInvalidEvent)
	}
	if r.FrameIdx < 0 {
		return fmt.Errorf("%w: negative frame_idx %v", ErrInvalidEvent, r.FrameIdx)
	}
	return nil
}

func (r *Record) toEvent(now time.Time) Event {
	cx, cy := Centroid(r.X1, r.Y1, r.X2, r.Y2)
	return Event{
		Video:       r.Video,
		Tracker:     r.Tracker,
		Model:       r.Model,
		FrameIdx:    r.FrameIdx,
		TimestampMs: r.TimestampMs,
		TrackID:     r.TrackID,
		ClassID:     r.ClassID,
		Conf:        r.Conf,
		X1:          r.X1,
		Y1:          r.Y1,
		X2:          r.X2,
		Y2:          r.Y2,
		CX:          cx,
		CY:          cy,
		CreatedAt:   now,
	}
}

// Centroid returns the midpoint of the box (x1,y1)-(x2,y2)
func Centroid(x1, y1, x2, y2 float64) (cx, cy float64) {
	return (x1 + x2) / 2, (y1 + y2) / 2
}

// NominalFrameMs is the frame duration assumed when the frame rate is unknown (30 fps)
const NominalFrameMs = 33.3333

// TimestampMs converts a frame index into milliseconds from the start of the video.
func TimestampMs(frameIdx int64, fps float64) float64 {
	if fps > 0 {
		return float64(frameIdx) / fps * 1000
	}
	return float64(frameIdx) * NominalFrameMs
}

// Helpers for building Records with optional fields

func Int64Ptr(v int64) *int64 {
	return &v
}

func Float64Ptr(v float64) *float64 {
	return &v
}

func StringPtr(v string) *string {
	return &v
}
