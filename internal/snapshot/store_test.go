package snapshot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRecord(t *testing.T) {
	s := NewStore(nil)

	s.Record("bright", "50%")
	s.Record("setnorm", "PAL-I")
	s.Record("bright", "70%")

	assert.Equal(t, 2, s.Len())
	v, ok := s.Lookup("bright")
	assert.True(t, ok)
	assert.Equal(t, "70%", v)

	assert.Equal(t, []Entry{
		{Key: "bright", Value: "70%"},
		{Key: "setnorm", Value: "PAL-I"},
	}, s.Entries())
}

func TestLoadTolerant(t *testing.T) {
	dir := t.TempDir()

	broken := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("bright: [unterminated"), 0o644))

	unreadable := filepath.Join(dir, "subdir")
	require.NoError(t, os.Mkdir(unreadable, 0o755))

	tests := []struct {
		name string
		path string
	}{
		{"empty path", ""},
		{"missing file", filepath.Join(dir, "missing.yaml")},
		{"unparseable file", broken},
		{"directory", unreadable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore(nil)
			s.Record("stale", "1")

			s.Load(tt.path)

			assert.Zero(t, s.Len())
		})
	}
}

func TestFlushAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "snapshot.yaml")

	s := NewStore(nil)
	s.Record("bright", "70%")
	s.Record(`setattr_-UV_Ratio-`, "60%")
	require.NoError(t, s.Flush(path))

	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temporary file is renamed away")

	loaded := NewStore(nil)
	loaded.Load(path)
	assert.Equal(t, s.Entries(), loaded.Entries())
}

func TestFlushEmptyPath(t *testing.T) {
	s := NewStore(nil)
	s.Record("bright", "70%")

	assert.NoError(t, s.Flush(""))
}

func TestFlushFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	s := NewStore(nil)
	s.Record("bright", "70%")

	assert.Error(t, s.Flush(filepath.Join(blocker, "snapshot.yaml")))
}
