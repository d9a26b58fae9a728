package eventstore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cyclopcam/dbh"
	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/tracklog/pkg/logx"
	"github.com/cyclopcam/tracklog/server/metrics"
	"gorm.io/gorm"
)

// DefaultFilename is the name of the Sqlite database when no other location is configured
const DefaultFilename = "tracking.sqlite3"

// Number of rows per INSERT statement inside an AppendBulk transaction
const bulkInsertBatchSize = 200

// EventStore is the durable, append-only log of tracking events.
// There is no shared instance. Create one with Open, and Close it at shutdown.
// An EventStore is safe for use by multiple goroutines. Each append owns exactly one
// transaction, so several processes may also write to the same Sqlite file concurrently.
type EventStore struct {
	Driver string // dbh.DriverSqlite or dbh.DriverPostgres

	log     logs.Log
	db      *gorm.DB
	metrics *metrics.Metrics
	nowFunc func() time.Time
}

// Open or create a Sqlite event store at path.
// The containing directory is created if necessary. Opening an existing store
// leaves its data and schema unchanged.
func Open(log logs.Log, path string) (*EventStore, error) {
	if path == "" {
		path = DefaultFilename
	}
	return OpenConfig(log, dbh.MakeSqliteConfig(filepath.Clean(path)))
}

// OpenConfig opens or creates an event store from a database config (Sqlite or Postgres).
// For Sqlite, the directory containing the database file is created if necessary.
func OpenConfig(log logs.Log, cfg dbh.DBConfig) (*EventStore, error) {
	log = logx.NewPrefixLogger(log, "EventStore")
	if cfg.Driver == "" {
		cfg.Driver = dbh.DriverSqlite
	}
	if cfg.Driver != dbh.DriverSqlite && cfg.Driver != dbh.DriverPostgres {
		return nil, storageError("open", fmt.Errorf("%w: unsupported database driver '%v'", ErrStorageUnavailable, cfg.Driver))
	}
	if cfg.Driver == dbh.DriverSqlite {
		if cfg.Database == "" {
			cfg.Database = DefaultFilename
		}
		if err := ensureSqliteDir(cfg.Database); err != nil {
			return nil, storageError("open", err)
		}
	}

	log.Infof("Opening event database (%v)", cfg.LogSafeDescription())
	db, err := dbh.OpenDB(log, cfg, Migrations(log, cfg.Driver), 0)
	if err != nil {
		return nil, storageError("open", fmt.Errorf("%w: failed to open database %v: %w", ErrStorageUnavailable, cfg.Database, err))
	}

	return &EventStore{
		Driver:  cfg.Driver,
		log:     log,
		db:      db,
		nowFunc: func() time.Time { return time.Now().UTC() },
	}, nil
}

// ensureSqliteDir creates the directory that holds a Sqlite database file.
// In-memory and URI filenames are left alone.
func ensureSqliteDir(filename string) error {
	if filename == ":memory:" || strings.HasPrefix(filename, "file:") {
		return nil
	}
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0770); err != nil {
		return fmt.Errorf("%w: failed to create directory '%v': %w", ErrStorageUnavailable, dir, err)
	}
	return nil
}

// SetMetrics attaches Prometheus collectors. Pass nil to detach.
func (s *EventStore) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

// Metrics returns the collectors attached with SetMetrics, or nil
func (s *EventStore) Metrics() *metrics.Metrics {
	return s.metrics
}

// DB returns the underlying database handle.
// Readers use it for set-based queries. Writers must go through Append or AppendBulk.
func (s *EventStore) DB() *gorm.DB {
	return s.db
}

func (s *EventStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return storageError("close", err)
	}
	s.log.Infof("Closing")
	return storageError("close", sqlDB.Close())
}

// Count returns the number of events in the store
func (s *EventStore) Count() (int64, error) {
	n := int64(0)
	if err := s.db.Model(&Event{}).Count(&n).Error; err != nil {
		return 0, storageError("read", err)
	}
	return n, nil
}
