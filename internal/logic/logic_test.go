package logic_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idelchi/gocryptor/internal/config"
	"github.com/idelchi/gocryptor/internal/logic"
)

func newConfig(files ...string) *config.Config {
	return &config.Config{
		Password:  "longenoughpwd",
		Extension: ".pyflk",
		Backend:   "stdlib",
		Mode:      "GCM",
		KeyLength: 32,
		Parallel:  2,
		Stats:     true,
		Files:     files,
	}
}

func TestRun(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	missing := filepath.Join(dir, "missing.txt")

	require.NoError(t, os.WriteFile(a, []byte("hello"), 0o600))

	var stdout, stderr bytes.Buffer

	err := logic.Run(context.Background(), newConfig(a, missing), &stdout, &stderr)
	require.ErrorIs(t, err, logic.ErrIncomplete)

	assert.Contains(t, stdout.String(), "SUCCESS")
	assert.Contains(t, stdout.String(), a+".pyflk")
	assert.Contains(t, stderr.String(), "FILE_NOT_FOUND")
	assert.Contains(t, stderr.String(), "Encryption results:")
	assert.Contains(t, stderr.String(), "Files encrypted: 1,")
	assert.Contains(t, stderr.String(), "Files not found: 1,")
	assert.Contains(t, stderr.String(), "Submitted: 2")

	cfg := newConfig(a + ".pyflk")
	cfg.Decrypt = true
	cfg.Delete = true
	cfg.Quiet = true
	cfg.Stats = false

	require.NoError(t, os.Remove(a))

	stdout.Reset()
	stderr.Reset()

	require.NoError(t, logic.Run(context.Background(), cfg, &stdout, &stderr))
	assert.Empty(t, stdout.String())
	assert.Empty(t, stderr.String())

	data, err := os.ReadFile(a)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
	assert.NoFileExists(t, a+".pyflk")
}

func TestRunRejectsShortPassword(t *testing.T) {
	t.Parallel()

	cfg := newConfig("a.txt")
	cfg.Password = "short"

	err := logic.Run(context.Background(), cfg, &bytes.Buffer{}, &bytes.Buffer{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, logic.ErrIncomplete)
}

func TestShow(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	require.NoError(t, logic.Show(newConfig("a.txt"), &out))
	assert.NotContains(t, out.String(), "longenoughpwd")
	assert.Contains(t, out.String(), "a.txt")
}

// answers returns a prompter replying with the given answers in order.
func answers(replies ...string) logic.Prompter {
	return func(string) ([]byte, error) {
		if len(replies) == 0 {
			return nil, errors.New("no more answers")
		}

		reply := replies[0]
		replies = replies[1:]

		return []byte(reply), nil
	}
}

func TestResolvePassword(t *testing.T) {
	t.Parallel()

	t.Run("given", func(t *testing.T) {
		t.Parallel()

		cfg := &config.Config{Password: "fromflag1"}
		require.NoError(t, logic.ResolvePassword(cfg, answers()))
		assert.Equal(t, "fromflag1", cfg.Password)
	})

	t.Run("file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "password")
		require.NoError(t, os.WriteFile(path, []byte("fromfile1\nignored\n"), 0o600))

		cfg := &config.Config{PasswordFile: path}
		require.NoError(t, logic.ResolvePassword(cfg, answers()))
		assert.Equal(t, "fromfile1", cfg.Password)
	})

	t.Run("empty file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "password")
		require.NoError(t, os.WriteFile(path, []byte("\n"), 0o600))

		require.Error(t, logic.ResolvePassword(&config.Config{PasswordFile: path}, answers()))
	})

	t.Run("prompt with confirmation", func(t *testing.T) {
		t.Parallel()

		cfg := &config.Config{}
		require.NoError(t, logic.ResolvePassword(cfg, answers("prompted1", "prompted1")))
		assert.Equal(t, "prompted1", cfg.Password)

		err := logic.ResolvePassword(&config.Config{}, answers("prompted1", "prompted2"))
		require.ErrorIs(t, err, logic.ErrPasswordMismatch)
	})

	t.Run("prompt without confirmation when decrypting", func(t *testing.T) {
		t.Parallel()

		cfg := &config.Config{Decrypt: true}
		require.NoError(t, logic.ResolvePassword(cfg, answers("prompted1")))
		assert.Equal(t, "prompted1", cfg.Password)
	})
}
