package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestListFilesFiltersAndSorts(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.hbs", "a.hbs", "notes.txt", ".hidden.hbs"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.hbs"), 0o755))

	files, err := ListFiles(dir, ".hbs")
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(dir, "a.hbs"), filepath.Join(dir, "b.hbs")}, files)
}

func TestListFilesMissingDirectory(t *testing.T) {
	files, err := ListFiles(filepath.Join(t.TempDir(), "missing"), ".hbs")
	require.NoError(t, err)
	require.Empty(t, files)
}

func TestBaseName(t *testing.T) {
	require.Equal(t, "default", BaseName("/ui/src/layouts/default.hbs"))
	require.Equal(t, "404", BaseName("404.adoc"))
}

func TestWriteFileAtomicReplacesContent(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "public", "index.html")
	require.NoError(t, WriteFileAtomic(target, []byte("old")))
	require.NoError(t, WriteFileAtomic(target, []byte("new")))

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	require.Equal(t, "new", string(data))

	entries, err := os.ReadDir(filepath.Dir(target))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	ok, err := IsFile(target)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = IsFile(filepath.Dir(target))
	require.NoError(t, err)
	require.False(t, ok)
}
