package analytics

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/cyclopcam/dbh"
)

// Each track's first event is the one with the lowest frame_idx, and its last event is the
// one with the highest frame_idx. When several events share that frame, the lowest id wins.
const directionsQuery = `
	WITH ranked AS (
		SELECT video, track_id, cx, cy,
			ROW_NUMBER() OVER (PARTITION BY video, track_id ORDER BY frame_idx ASC, id ASC) AS first_rank,
			ROW_NUMBER() OVER (PARTITION BY video, track_id ORDER BY frame_idx DESC, id ASC) AS last_rank
		FROM events
		WHERE $FILTER
	)
	SELECT s.video, s.track_id, e.cx - s.cx AS dx, e.cy - s.cy AS dy
	FROM ranked s
	JOIN ranked e ON e.video = s.video AND e.track_id = s.track_id
	WHERE s.first_rank = 1 AND e.last_rank = 1
	ORDER BY s.video, s.track_id`

// Directions classifies the net movement of every track whose video contains videoFilter.
// Matching is a plain case-sensitive substring test, and an empty videoFilter matches every video.
// Events without a track_id are ignored.
// If tracker is not empty, only that tracker's events are considered. If it is empty, events from
// all trackers that share a (video, track_id) pair are treated as one track.
func (q *Queries) Directions(videoFilter, tracker string) ([]TrackDirection, error) {
	start := time.Now()
	tracks, err := q.directions(videoFilter, tracker)
	q.observe("directions", start, err)
	if err != nil {
		return nil, queryError(err)
	}
	return tracks, nil
}

func (q *Queries) directions(videoFilter, tracker string) ([]TrackDirection, error) {
	where := []string{"track_id IS NOT NULL"}
	args := []any{}
	if videoFilter != "" {
		where = append(where, q.substringMatch("video", "video"))
		args = append(args, sql.Named("video", videoFilter))
	}
	if tracker != "" {
		where = append(where, "tracker = @tracker")
		args = append(args, sql.Named("tracker", tracker))
	}
	query := strings.Replace(directionsQuery, "$FILTER", strings.Join(where, " AND "), 1)

	rows, err := q.db.Raw(query, args...).Rows()
	if err != nil {
		return nil, fmt.Errorf("error getting track directions: %w", err)
	}
	defer rows.Close()

	tracks := []TrackDirection{}
	for rows.Next() {
		t := TrackDirection{}
		if err := rows.Scan(&t.Video, &t.TrackID, &t.DX, &t.DY); err != nil {
			return nil, fmt.Errorf("error scanning track directions: %w", err)
		}
		t.Direction = Classify(t.DX, t.DY)
		tracks = append(tracks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating track directions: %w", err)
	}
	return tracks, nil
}

// substringMatch returns a WHERE clause that is true when column contains the named parameter.
// We avoid LIKE so that '%' and '_' in the filter are matched literally.
func (q *Queries) substringMatch(column, param string) string {
	if q.store.Driver == dbh.DriverPostgres {
		return fmt.Sprintf("strpos(%v, @%v) > 0", column, param)
	}
	return fmt.Sprintf("instr(%v, @%v) > 0", column, param)
}
