package eventstore

import (
	"strings"

	"github.com/BurntSushi/migration"
	"github.com/cyclopcam/dbh"
	"github.com/cyclopcam/logs"
)

// Column types that differ between Sqlite and Postgres
type dialectTypes struct {
	PrimaryKey string
	Real       string
	DateTime   string
}

var sqliteTypes = dialectTypes{
	PrimaryKey: "INTEGER PRIMARY KEY AUTOINCREMENT",
	Real:       "REAL",
	DateTime:   "DATETIME",
}

var postgresTypes = dialectTypes{
	PrimaryKey: "BIGSERIAL PRIMARY KEY",
	Real:       "DOUBLE PRECISION",
	DateTime:   "TIMESTAMP",
}

func (d dialectTypes) expand(sql string) string {
	return strings.NewReplacer(
		"$PK", d.PrimaryKey,
		"$REAL", d.Real,
		"$DATETIME", d.DateTime,
	).Replace(sql)
}

// Migrations returns the schema migrations for the given database driver.
// The DDL uses IF NOT EXISTS so that a database created by an older tool, which
// already has the events table but no migration history, opens without error.
func Migrations(log logs.Log, driver string) []migration.Migrator {
	types := sqliteTypes
	if driver == dbh.DriverPostgres {
		types = postgresTypes
	}

	migs := []migration.Migrator{}
	idx := 0

	migs = append(migs, dbh.MakeMigrationFromSQL(log, &idx, types.expand(
		`
		CREATE TABLE IF NOT EXISTS events(
			id $PK,
			video TEXT NOT NULL,
			tracker TEXT NOT NULL,
			model TEXT,
			frame_idx INT NOT NULL,
			timestamp_ms $REAL,
			track_id INT,
			class_id INT,
			conf $REAL,
			x1 $REAL NOT NULL,
			y1 $REAL NOT NULL,
			x2 $REAL NOT NULL,
			y2 $REAL NOT NULL,
			cx $REAL NOT NULL,
			cy $REAL NOT NULL,
			created_at $DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE INDEX IF NOT EXISTS idx_events_track ON events (video, tracker, track_id);
		CREATE INDEX IF NOT EXISTS idx_events_frame ON events (video, frame_idx);
	`)))

	return migs
}
