package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupIndex(t *testing.T) *FileIndex {
	t.Helper()
	fi, err := OpenFileIndex(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { fi.Close() })
	require.NoError(t, fi.Rebuild(defaultSnapshot(t)))
	return fi
}

func TestFileIndexSearch(t *testing.T) {
	fi := setupIndex(t)

	tests := []struct {
		query string
		want  []string
	}{
		{"/usr/bin/powertop", []string{"powertop"}},
		{"powertop", []string{"powertop"}},
		{"libglib-2.0.so.0", []string{"glib2"}},
		{"/usr/bin/nothing", nil},
		{"%", nil},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			owners, err := fi.Search(tt.query)
			require.NoError(t, err)
			var names []string
			for _, o := range owners {
				names = append(names, o.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestFileIndexFiles(t *testing.T) {
	fi := setupIndex(t)

	files, err := fi.Files(mustID(t, "evince;0.9.3-5.fc8;i386;installed"))
	require.NoError(t, err)
	assert.Equal(t, []string{"/usr/bin/evince", "/usr/share/applications/evince.desktop"}, files)

	n, err := fi.Count()
	require.NoError(t, err)
	assert.Greater(t, n, 10)
}

func TestFileIndexRebuildReplaces(t *testing.T) {
	fi := setupIndex(t)

	snap, err := newSnapshot(&Catalog{Packages: []Package{
		{Name: "tool", Version: "1", Arch: "i386", Repo: "main", Files: []string{"/usr/bin/tool"}},
	}})
	require.NoError(t, err)
	require.NoError(t, fi.Rebuild(snap))

	n, err := fi.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
