package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
}

func TestFindFilesByExtension_WalksDirectoryRecursively(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "ci.hcl"))
	writeFile(t, filepath.Join(dir, "nested", "deploy.hcl"))
	writeFile(t, filepath.Join(dir, "README.md"))

	files, err := FindFilesByExtension(dir, ".hcl")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "ci.hcl"),
		filepath.Join(dir, "nested", "deploy.hcl"),
	}, files)
}

func TestFindFilesByExtension_MultipleExtensions(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.yml"))
	writeFile(t, filepath.Join(dir, "b.yaml"))
	writeFile(t, filepath.Join(dir, "c.hcl"))

	files, err := FindFilesByExtension(dir, ".yml", ".yaml")
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestFindFilesByExtension_SingleFileMatching(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ci.hcl")
	writeFile(t, path)

	files, err := FindFilesByExtension(path, ".hcl")
	require.NoError(t, err)
	assert.Equal(t, []string{path}, files)
}

func TestFindFilesByExtension_SingleFileNonMatchingIsExcluded(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ci.yml")
	writeFile(t, path)

	files, err := FindFilesByExtension(path, ".hcl")
	require.NoError(t, err)
	assert.Empty(t, files, "a file must only be returned to callers asking for its extension")
}

func TestFindFilesByExtension_MissingPath(t *testing.T) {
	_, err := FindFilesByExtension(filepath.Join(t.TempDir(), "absent"), ".hcl")
	require.Error(t, err)
}
