// Package analytics derives aggregate facts from the event store with set-based queries.
// Every query reads the store as it is at call time, and none of them write.
package analytics

import (
	"database/sql"
	"time"

	"github.com/cyclopcam/dbh"
	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/tracklog/pkg/logx"
	"github.com/cyclopcam/tracklog/server/eventstore"
	"github.com/cyclopcam/tracklog/server/metrics"
	"gorm.io/gorm"
)

// DefaultLimit is used whenever a caller asks for zero or a negative number of results
const DefaultLimit = 10

// MaxLimit caps TopObjects, so that a silly query string can't produce a huge response
const MaxLimit = 1000

type ClassCount struct {
	ClassID int64 `json:"class_id"`
	Count   int64 `json:"count"`
}

type TrackerCount struct {
	Tracker string `json:"tracker"`
	Count   int64  `json:"count"`
}

type Summary struct {
	TotalEvents int64          `json:"total_events"`
	ByObject    []ClassCount   `json:"by_object"`
	ByTracker   []TrackerCount `json:"by_tracker"`
}

type TrackDirection struct {
	Video     string    `json:"video"`
	TrackID   int64     `json:"track_id"`
	Direction Direction `json:"direction"`
	DX        float64   `json:"dx"`
	DY        float64   `json:"dy"`
}

// TrackPoint is one observation along a track
type TrackPoint struct {
	ID          int64    `json:"id"`
	FrameIdx    int64    `json:"frame_idx"`
	TimestampMs *float64 `json:"timestamp_ms"`
	ClassID     *int64   `json:"class_id"`
	Conf        *float64 `json:"conf"`
	CX          float64  `json:"cx"`
	CY          float64  `json:"cy"`
	X1          float64  `json:"x1"`
	Y1          float64  `json:"y1"`
	X2          float64  `json:"x2"`
	Y2          float64  `json:"y2"`
}

// Queries runs read-only analytics against an EventStore
type Queries struct {
	log     logs.Log
	store   *eventstore.EventStore
	db      *gorm.DB
	metrics *metrics.Metrics
}

func New(log logs.Log, store *eventstore.EventStore) *Queries {
	return &Queries{
		log:     logx.NewPrefixLogger(log, "Analytics"),
		store:   store,
		db:      store.DB(),
		metrics: store.Metrics(),
	}
}

// ClampLimit turns a caller-supplied limit into one we're willing to run
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

func queryError(err error) error {
	if err == nil {
		return nil
	}
	return &eventstore.StorageError{Op: "query", Err: err}
}

// readTx runs f inside a read-only transaction, so that multi-statement queries see one snapshot.
// Sqlite gives us a snapshot for any transaction, but Postgres needs REPEATABLE READ.
func (q *Queries) readTx(f func(tx *gorm.DB) error) error {
	if q.store.Driver == dbh.DriverPostgres {
		return q.db.Transaction(f, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	}
	return q.db.Transaction(f)
}

func (q *Queries) observe(name string, start time.Time, err error) {
	q.metrics.RecordQuery(name, start, err)
	if err != nil {
		q.log.Warnf("Query %v failed: %v", name, err)
	}
}
