package analytics

import (
	"path/filepath"
	"testing"

	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/tracklog/server/eventstore"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func createTestQueries(t *testing.T) (*eventstore.EventStore, *Queries) {
	t.Helper()
	log := logs.NewTestingLog(t)
	store, err := eventstore.Open(log, filepath.Join(t.TempDir(), "test-analytics.sqlite3"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, New(log, store)
}

// Append a 2x2 box centered on (cx,cy)
func addPoint(t *testing.T, store *eventstore.EventStore, video, tracker string, trackID int64, frame int64, cx, cy float64) int64 {
	t.Helper()
	id, err := store.Append(eventstore.Record{
		Video:    video,
		Tracker:  tracker,
		FrameIdx: frame,
		TrackID:  eventstore.Int64Ptr(trackID),
		X1:       cx - 1,
		Y1:       cy - 1,
		X2:       cx + 1,
		Y2:       cy + 1,
	})
	require.NoError(t, err)
	return id
}

func addClasses(t *testing.T, store *eventstore.EventStore, tracker string, classID int64, n int) {
	t.Helper()
	recs := []eventstore.Record{}
	for i := 0; i < n; i++ {
		recs = append(recs, eventstore.Record{
			Video:    "counts.mp4",
			Tracker:  tracker,
			FrameIdx: int64(i),
			ClassID:  eventstore.Int64Ptr(classID),
			X2:       1,
			Y2:       1,
		})
	}
	_, err := store.AppendBulk(recs)
	require.NoError(t, err)
}

func TestClassify(t *testing.T) {
	cases := []struct {
		dx, dy float64
		want   Direction
	}{
		{10, 0, DirectionRight},
		{-5, 2, DirectionLeft},
		{3, 3, DirectionDown},
		{0, -7, DirectionUp},
		{-3, 3, DirectionDown},
		{3, -3, DirectionUp},
		{0, 0, DirectionUp},
		{0.5, -0.25, DirectionRight},
	}
	for _, c := range cases {
		require.Equal(t, c.want, Classify(c.dx, c.dy), "dx=%v dy=%v", c.dx, c.dy)
	}
}

func TestDirections(t *testing.T) {
	store, q := createTestQueries(t)

	// Appended out of frame order, to make sure we pick by frame_idx and not by id
	addPoint(t, store, "cam1/a.mp4", "bytetrack", 1, 5, 10, 0)
	addPoint(t, store, "cam1/a.mp4", "bytetrack", 1, 0, 0, 0)
	addPoint(t, store, "cam1/a.mp4", "bytetrack", 1, 2, 50, 50)

	addPoint(t, store, "cam1/a.mp4", "bytetrack", 2, 0, 0, 0)
	addPoint(t, store, "cam1/a.mp4", "bytetrack", 2, 9, -5, 2)

	addPoint(t, store, "cam1/a.mp4", "bytetrack", 3, 0, 0, 0)
	addPoint(t, store, "cam1/a.mp4", "bytetrack", 3, 1, 3, 3)

	addPoint(t, store, "cam2/b.mp4", "bytetrack", 1, 0, 0, 0)
	addPoint(t, store, "cam2/b.mp4", "bytetrack", 1, 4, 0, -7)

	// Untracked events never form a track
	_, err := store.Append(eventstore.Record{Video: "cam1/a.mp4", Tracker: "bytetrack", FrameIdx: 0, X2: 100, Y2: 100})
	require.NoError(t, err)

	tracks, err := q.Directions("", "")
	require.NoError(t, err)
	expect := []TrackDirection{
		{Video: "cam1/a.mp4", TrackID: 1, Direction: DirectionRight, DX: 10, DY: 0},
		{Video: "cam1/a.mp4", TrackID: 2, Direction: DirectionLeft, DX: -5, DY: 2},
		{Video: "cam1/a.mp4", TrackID: 3, Direction: DirectionDown, DX: 3, DY: 3},
		{Video: "cam2/b.mp4", TrackID: 1, Direction: DirectionUp, DX: 0, DY: -7},
	}
	if diff := cmp.Diff(expect, tracks); diff != "" {
		t.Fatalf("Directions mismatch (-want +got):\n%v", diff)
	}

	tracks, err = q.Directions("cam2", "")
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	require.Equal(t, "cam2/b.mp4", tracks[0].Video)

	tracks, err = q.Directions("cam3", "")
	require.NoError(t, err)
	require.Len(t, tracks, 0)
}

func TestDirectionsFilterIsLiteral(t *testing.T) {
	store, q := createTestQueries(t)
	addPoint(t, store, "cam_1.mp4", "bytetrack", 1, 0, 0, 0)
	addPoint(t, store, "cam_1.mp4", "bytetrack", 1, 1, 1, 0)
	addPoint(t, store, "camX1.mp4", "bytetrack", 1, 0, 0, 0)
	addPoint(t, store, "camX1.mp4", "bytetrack", 1, 1, 1, 0)
	addPoint(t, store, "CAM_1.mp4", "bytetrack", 1, 0, 0, 0)

	// '_' would be a wildcard under LIKE, and LIKE is case-insensitive in Sqlite
	tracks, err := q.Directions("cam_1", "")
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	require.Equal(t, "cam_1.mp4", tracks[0].Video)

	tracks, err = q.Directions("%", "")
	require.NoError(t, err)
	require.Len(t, tracks, 0)
}

func TestDirectionsTieBreak(t *testing.T) {
	store, q := createTestQueries(t)
	// Two events on the first frame, and two on the last frame.
	// The lowest id on each frame must be chosen.
	addPoint(t, store, "v.mp4", "deepsort", 7, 0, 0, 0)
	addPoint(t, store, "v.mp4", "deepsort", 7, 0, 100, 100)
	addPoint(t, store, "v.mp4", "deepsort", 7, 3, 20, 5)
	addPoint(t, store, "v.mp4", "deepsort", 7, 3, -100, -100)

	for i := 0; i < 3; i++ {
		tracks, err := q.Directions("", "")
		require.NoError(t, err)
		require.Len(t, tracks, 1)
		require.Equal(t, 20.0, tracks[0].DX)
		require.Equal(t, 5.0, tracks[0].DY)
		require.Equal(t, DirectionRight, tracks[0].Direction)
	}
}

func TestDirectionsTrackerFilter(t *testing.T) {
	store, q := createTestQueries(t)
	addPoint(t, store, "v.mp4", "bytetrack", 1, 0, 0, 0)
	addPoint(t, store, "v.mp4", "bytetrack", 1, 10, 0, 10)
	addPoint(t, store, "v.mp4", "deepsort", 1, 20, 30, 10)

	// Without a tracker, both trackers' events with the same (video, track_id) form one track
	tracks, err := q.Directions("", "")
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	require.Equal(t, DirectionRight, tracks[0].Direction)
	require.Equal(t, 30.0, tracks[0].DX)

	tracks, err = q.Directions("", "bytetrack")
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	require.Equal(t, DirectionDown, tracks[0].Direction)
	require.Equal(t, 0.0, tracks[0].DX)
	require.Equal(t, 10.0, tracks[0].DY)
}

func TestTopObjects(t *testing.T) {
	store, q := createTestQueries(t)
	addClasses(t, store, "bytetrack", 0, 5) // A
	addClasses(t, store, "bytetrack", 2, 3) // B
	addClasses(t, store, "deepsort", 7, 3)  // C
	addClasses(t, store, "deepsort", 16, 1) // D
	// Events without a class are not counted
	_, err := store.Append(eventstore.Record{Video: "x.mp4", Tracker: "deepsort", X2: 1, Y2: 1})
	require.NoError(t, err)

	top, err := q.TopObjects(2)
	require.NoError(t, err)
	require.Equal(t, []ClassCount{{0, 5}, {2, 3}}, top)

	for _, limit := range []int{0, -4} {
		top, err = q.TopObjects(limit)
		require.NoError(t, err)
		require.Equal(t, []ClassCount{{0, 5}, {2, 3}, {7, 3}, {16, 1}}, top)
	}
}

func TestSummary(t *testing.T) {
	store, q := createTestQueries(t)

	summary, err := q.Summary()
	require.NoError(t, err)
	require.Equal(t, int64(0), summary.TotalEvents)
	require.NotNil(t, summary.ByObject)
	require.NotNil(t, summary.ByTracker)

	// Twelve classes, so that the top-10 cutoff applies
	for c := int64(0); c < 12; c++ {
		addClasses(t, store, "bytetrack", c, int(c)+1)
	}
	addClasses(t, store, "deepsort", 3, 2)
	_, err = store.Append(eventstore.Record{Video: "x.mp4", Tracker: "deepsort", X2: 1, Y2: 1})
	require.NoError(t, err)

	total, err := store.Count()
	require.NoError(t, err)

	summary, err = q.Summary()
	require.NoError(t, err)
	require.Equal(t, total, summary.TotalEvents)

	sum := int64(0)
	for _, tc := range summary.ByTracker {
		sum += tc.Count
	}
	require.Equal(t, summary.TotalEvents, sum)
	require.Equal(t, []TrackerCount{{"bytetrack", 78}, {"deepsort", 3}}, summary.ByTracker)

	require.Len(t, summary.ByObject, 10)
	require.Equal(t, ClassCount{11, 12}, summary.ByObject[0])
	for i := 1; i < len(summary.ByObject); i++ {
		require.GreaterOrEqual(t, summary.ByObject[i-1].Count, summary.ByObject[i].Count)
	}
	// class 3 has 4 + 2 events, and ties with class 5 (6 events), but sorts first
	require.Contains(t, summary.ByObject, ClassCount{3, 6})
}

func TestTrajectory(t *testing.T) {
	store, q := createTestQueries(t)
	addPoint(t, store, "v.mp4", "bytetrack", 4, 2, 20, 20)
	addPoint(t, store, "v.mp4", "bytetrack", 4, 0, 0, 0)
	addPoint(t, store, "v.mp4", "bytetrack", 4, 1, 10, 5)
	addPoint(t, store, "v.mp4", "deepsort", 4, 1, 99, 99)
	addPoint(t, store, "v.mp4", "bytetrack", 5, 1, 99, 99)

	points, err := q.Trajectory("v.mp4", "bytetrack", 4)
	require.NoError(t, err)
	require.Len(t, points, 3)
	frames := []int64{}
	for _, p := range points {
		frames = append(frames, p.FrameIdx)
		require.Equal(t, (p.X1+p.X2)/2, p.CX)
		require.Equal(t, (p.Y1+p.Y2)/2, p.CY)
	}
	require.Equal(t, []int64{0, 1, 2}, frames)
	require.Equal(t, 10.0, points[1].CX)
	require.Equal(t, 5.0, points[1].CY)

	points, err = q.Trajectory("v.mp4", "bytetrack", 999)
	require.NoError(t, err)
	require.Len(t, points, 0)
}

func TestClampLimit(t *testing.T) {
	require.Equal(t, DefaultLimit, ClampLimit(0))
	require.Equal(t, DefaultLimit, ClampLimit(-1))
	require.Equal(t, 3, ClampLimit(3))
	require.Equal(t, MaxLimit, ClampLimit(MaxLimit+1))
}

func TestTopObjectsLimitIsCapped(t *testing.T) {
	store, q := createTestQueries(t)
	recs := []eventstore.Record{}
	for class := int64(0); class < MaxLimit+5; class++ {
		recs = append(recs, eventstore.Record{
			Video:   "many.mp4",
			Tracker: "bytetrack",
			ClassID: eventstore.Int64Ptr(class),
			X2:      1,
			Y2:      1,
		})
	}
	_, err := store.AppendBulk(recs)
	require.NoError(t, err)

	top, err := q.TopObjects(MaxLimit + 5)
	require.NoError(t, err)
	require.Len(t, top, MaxLimit)
	// Equal counts are ordered by class id
	require.Equal(t, ClassCount{ClassID: 0, Count: 1}, top[0])
	require.Equal(t, ClassCount{ClassID: MaxLimit - 1, Count: 1}, top[MaxLimit-1])
}
