package analytics

import (
	"fmt"
	"time"
)

// Trajectory returns every observation of one track, ordered by frame.
// An unknown track produces an empty list, not an error.
func (q *Queries) Trajectory(video, tracker string, trackID int64) ([]TrackPoint, error) {
	start := time.Now()
	points, err := q.trajectory(video, tracker, trackID)
	q.observe("trajectory", start, err)
	if err != nil {
		return nil, queryError(err)
	}
	return points, nil
}

func (q *Queries) trajectory(video, tracker string, trackID int64) ([]TrackPoint, error) {
	// Served by idx_events_track
	rows, err := q.db.Raw(`
		SELECT id, frame_idx, timestamp_ms, class_id, conf, cx, cy, x1, y1, x2, y2
		FROM events
		WHERE video = ? AND tracker = ? AND track_id = ?
		ORDER BY frame_idx, id`, video, tracker, trackID).Rows()
	if err != nil {
		return nil, fmt.Errorf("error getting trajectory: %w", err)
	}
	defer rows.Close()

	points := []TrackPoint{}
	for rows.Next() {
		p := TrackPoint{}
		if err := rows.Scan(&p.ID, &p.FrameIdx, &p.TimestampMs, &p.ClassID, &p.Conf, &p.CX, &p.CY, &p.X1, &p.Y1, &p.X2, &p.Y2); err != nil {
			return nil, fmt.Errorf("error scanning trajectory: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trajectory: %w", err)
	}
	return points, nil
}
