package inputs_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idelchi/gocryptor/internal/inputs"
)

func TestLoadList(t *testing.T) {
	t.Parallel()

	paths, err := inputs.LoadList(filepath.Join("testdata", "list.jsonc"))
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join("testdata", "a.txt"),
		filepath.Join("testdata", "sub", "b.txt"),
		"/abs/c.txt",
		filepath.Join("testdata", "a.txt"),
	}, paths)
}

func TestLoadListErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	_, err := inputs.LoadList(filepath.Join(dir, "missing.jsonc"))
	require.ErrorIs(t, err, os.ErrNotExist)

	for name, content := range map[string]string{
		"object.jsonc": `{"a": 1}`,
		"empty.jsonc":  `["a.txt", ""]`,
	} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		_, err := inputs.LoadList(path)
		require.Error(t, err, name)
	}
}

func TestUnique(t *testing.T) {
	t.Parallel()

	got := inputs.Unique([]string{"a.txt", "b.txt", "./a.txt", "dir/../b.txt", "c.txt"})
	assert.Equal(t, []string{"a.txt", "b.txt", "c.txt"}, got)

	assert.Empty(t, inputs.Unique(nil))
}

func TestCollect(t *testing.T) {
	t.Parallel()

	got, err := inputs.Collect([]string{filepath.Join("testdata", "a.txt"), "x.txt"}, filepath.Join("testdata", "list.jsonc"))
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join("testdata", "a.txt"),
		"x.txt",
		filepath.Join("testdata", "sub", "b.txt"),
		"/abs/c.txt",
	}, got)
}
