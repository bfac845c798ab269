package fileutil_test

import (
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idelchi/gocryptor/internal/fileutil"
)

func writeFile(t *testing.T, path, content string, perm os.FileMode) {
	t.Helper()

	require.NoError(t, os.WriteFile(path, []byte(content), perm))
}

func TestPublish(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	out := filepath.Join(dir, "src.txt.out")

	writeFile(t, src, "source", 0o755)

	tc, err := fileutil.NewTempContext(src, out)
	require.NoError(t, err)

	defer tc.Cleanup()

	assert.True(t, tc.IsExec)

	_, err = tc.TmpFile.WriteString("payload")
	require.NoError(t, err)

	require.NoError(t, tc.Publish(out))
	tc.Cleanup()

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "temp file must not survive")
}

func TestPublishNeverReplaces(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	out := filepath.Join(dir, "taken.txt")

	writeFile(t, src, "source", 0o600)

	tc, err := fileutil.NewTempContext(src, out)
	require.NoError(t, err)

	defer tc.Cleanup()

	_, err = tc.TmpFile.WriteString("payload")
	require.NoError(t, err)

	// Appears while the temp file is being written.
	writeFile(t, out, "precious", 0o600)

	err = tc.Publish(out)
	require.ErrorIs(t, err, fs.ErrExist)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "precious", string(data))
}

func TestPublishWithoutHardLinks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		errno    syscall.Errno
		existing bool
		err      error
	}{
		{name: "links not permitted", errno: syscall.EPERM},
		{name: "links not supported", errno: syscall.ENOTSUP},
		{name: "cross device", errno: syscall.EXDEV},
		{name: "existing destination", errno: syscall.EPERM, existing: true, err: fs.ErrExist},
		{name: "access denied", errno: syscall.EACCES, err: fs.ErrPermission},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			src := filepath.Join(dir, "src.txt")
			out := filepath.Join(dir, "src.txt.out")

			writeFile(t, src, "source", 0o600)

			if tt.existing {
				writeFile(t, out, "precious", 0o600)
			}

			tc, err := fileutil.NewTempContext(src, out)
			require.NoError(t, err)

			defer tc.Cleanup()

			tc.SetLink(func(oldname, newname string) error {
				return &os.LinkError{Op: "link", Old: oldname, New: newname, Err: tt.errno}
			})

			_, err = tc.TmpFile.WriteString("payload")
			require.NoError(t, err)

			err = tc.Publish(out)

			switch {
			case tt.existing:
				require.ErrorIs(t, err, tt.err)

				data, err := os.ReadFile(out)
				require.NoError(t, err)
				assert.Equal(t, "precious", string(data))
			case tt.err != nil:
				require.ErrorIs(t, err, tt.err)
				assert.NoFileExists(t, out)
			default:
				require.NoError(t, err)

				data, err := os.ReadFile(out)
				require.NoError(t, err)
				assert.Equal(t, "payload", string(data))
				assert.NoFileExists(t, tc.TmpName)
			}
		})
	}
}

func TestNewTempContextRejectsDirectories(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	_, err := fileutil.NewTempContext(dir, filepath.Join(dir, "out"))
	require.ErrorIs(t, err, fileutil.ErrNotRegular)

	_, err = fileutil.NewTempContext(filepath.Join(dir, "missing"), filepath.Join(dir, "out"))
	require.ErrorIs(t, err, fs.ErrNotExist)
}

func TestExistsAndFinalize(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "file")

	ok, err := fileutil.Exists(path)
	require.NoError(t, err)
	assert.False(t, ok)

	writeFile(t, path, "12345", 0o600)

	ok, err = fileutil.Exists(path)
	require.NoError(t, err)
	assert.True(t, ok)

	stamp := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)

	size, err := fileutil.FinalizeOutput(path, true, stamp)
	require.NoError(t, err)
	assert.EqualValues(t, 5, size)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(stamp))
}
