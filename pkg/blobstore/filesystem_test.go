package blobstore

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cyclopcam/logs"
	"github.com/stretchr/testify/require"
)

func TestStorageFS(t *testing.T) {
	root := filepath.Join(t.TempDir(), "blobs")
	s, err := Open(logs.NewTestingLog(t), Config{Filesystem: &ConfigFS{Root: root}})
	require.NoError(t, err)

	require.NoError(t, WriteFile(s, "exports/events.csv", strings.NewReader("id,video\n1,a.mp4\n")))
	b, err := ReadFile(s, "exports/events.csv")
	require.NoError(t, err)
	require.Equal(t, "id,video\n1,a.mp4\n", string(b))

	// No temp files left behind
	entries, err := os.ReadDir(filepath.Join(root, "exports"))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	_, err = s.URL("exports/events.csv")
	require.ErrorIs(t, err, ErrNoPublicUrl)

	require.NoError(t, s.DeleteFile("exports/events.csv"))
	_, err = s.ReadFile("exports/events.csv")
	require.True(t, errors.Is(err, os.ErrNotExist))
}

func TestStorageFSUnfinishedWriteIsInvisible(t *testing.T) {
	s, err := NewStorageFS(logs.NewTestingLog(t), t.TempDir())
	require.NoError(t, err)
	w, err := s.WriteFile("partial.csv")
	require.NoError(t, err)
	_, err = w.Write([]byte("half"))
	require.NoError(t, err)

	_, err = s.ReadFile("partial.csv")
	require.True(t, errors.Is(err, os.ErrNotExist))

	require.NoError(t, w.Close())
	b, err := ReadFile(s, "partial.csv")
	require.NoError(t, err)
	require.Equal(t, "half", string(b))
}

func TestStorageFSRejectsEscapes(t *testing.T) {
	s, err := NewStorageFS(logs.NewTestingLog(t), t.TempDir())
	require.NoError(t, err)
	_, err = s.WriteFile("../outside.csv")
	require.Error(t, err)
	_, err = s.WriteFile("/etc/passwd")
	require.Error(t, err)
	_, err = s.ReadFile("a/../../b")
	require.Error(t, err)
}

func TestOpenRequiresBackend(t *testing.T) {
	_, err := Open(logs.NewTestingLog(t), Config{})
	require.Error(t, err)
}
