package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/tracklog/server/eventstore"
	"github.com/stretchr/testify/require"
)

func TestRunToDirectory(t *testing.T) {
	root := t.TempDir()
	dbPath := filepath.Join(root, "data", "tracking.sqlite3")
	store, err := eventstore.Open(logs.NewTestingLog(t), dbPath)
	require.NoError(t, err)
	_, err = store.AppendBulk([]eventstore.Record{
		{Video: "a.mp4", Tracker: "bytetrack", FrameIdx: 0, X2: 2, Y2: 2},
		{Video: "a.mp4", Tracker: "bytetrack", FrameIdx: 1, X2: 4, Y2: 4},
	})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	outDir := filepath.Join(root, "out")
	err = run(logs.NewTestingLog(t), options{dbPath: dbPath, dir: outDir, name: "exports/test.csv"})
	require.NoError(t, err)
	b, err := os.ReadFile(filepath.Join(outDir, "exports", "test.csv"))
	require.NoError(t, err)
	require.Contains(t, string(b), "a.mp4")
}

func TestRunErrors(t *testing.T) {
	root := t.TempDir()
	dbPath := filepath.Join(root, "tracking.sqlite3")

	err := run(logs.NewTestingLog(t), options{dbPath: dbPath})
	require.ErrorContains(t, err, "No destination")

	// A file where the database directory should be
	blocker := filepath.Join(root, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0600))
	err = run(logs.NewTestingLog(t), options{dbPath: filepath.Join(blocker, "tracking.sqlite3"), dir: filepath.Join(root, "out")})
	require.ErrorIs(t, err, eventstore.ErrStorageUnavailable)
}
