package batch_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/idelchi/gocryptor/internal/batch"
	"github.com/idelchi/gocryptor/internal/encryption"
	"github.com/idelchi/gocryptor/internal/engine"
	"github.com/idelchi/gocryptor/internal/logging"
)

func newJob() *engine.Job {
	return &engine.Job{
		Password:   []byte("longenoughpwd"),
		Encrypting: true,
		Extension:  ".pyflk",
		Backend:    encryption.BackendStdlib,
		Mode:       encryption.ModeCTR,
		KeyLength:  16,
		Parallel:   2,
	}
}

func files(t *testing.T, names ...string) []string {
	t.Helper()

	dir := t.TempDir()
	paths := make([]string, 0, len(names))

	for _, name := range names {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(name), 0o600))

		paths = append(paths, path)
	}

	return paths
}

// gate blocks every worker until it is opened.
type gate chan struct{}

func (g gate) hook(_ string, running bool) {
	if running {
		<-g
	}
}

func TestOutcomesThenEnd(t *testing.T) {
	t.Parallel()

	paths := files(t, "a.txt", "b.txt", "c.txt")
	paths = append(paths, filepath.Join(filepath.Dir(paths[0]), "missing.txt"))

	h, err := batch.NewCoordinator().Submit(context.Background(), paths, newJob())
	require.NoError(t, err)
	assert.Equal(t, 4, h.Len())
	assert.NotEqual(t, [16]byte{}, [16]byte(h.ID()))

	h.Wait()

	var items []batch.Item

	for {
		item, ok := h.Poll()
		if !ok {
			break
		}

		items = append(items, item)
	}

	require.Len(t, items, 5)

	seen := map[string]bool{}

	for _, item := range items[:4] {
		require.Equal(t, batch.KindOutcome, item.Kind)

		seen[item.Outcome.Path] = true
	}

	assert.Len(t, seen, 4)
	assert.Equal(t, batch.KindEnd, items[4].Kind)
	assert.True(t, h.Ended())

	_, ok := h.Poll()
	assert.False(t, ok, "nothing may follow the end item")
}

func TestConsume(t *testing.T) {
	t.Parallel()

	paths := files(t, "a.txt", "b.txt")
	paths = append(paths, filepath.Join(filepath.Dir(paths[0]), "missing.txt"))

	h, err := batch.NewCoordinator().Submit(context.Background(), paths, newJob())
	require.NoError(t, err)

	var got []engine.Outcome

	tally := batch.Consume(context.Background(), h, 5*time.Millisecond, func(o engine.Outcome) {
		got = append(got, o)
	})

	assert.Len(t, got, 3)
	assert.Equal(t, 3, tally.Total())
	assert.Equal(t, 2, tally.Count(engine.StatusSuccess))
	assert.Equal(t, 1, tally.Count(engine.StatusFileNotFound))
	assert.Equal(t, 1, tally.Failed())
	assert.True(t, h.Ended())
}

func TestPollDoesNotBlock(t *testing.T) {
	t.Parallel()

	open := make(gate)
	coordinator := batch.NewCoordinator(batch.WithEngineOptions(engine.WithHook(open.hook)))

	h, err := coordinator.Submit(context.Background(), files(t, "a.txt"), newJob())
	require.NoError(t, err)

	start := time.Now()
	_, ok := h.Poll()

	assert.False(t, ok)
	assert.False(t, h.Drain(func(batch.Item) { t.Error("unexpected item") }))
	assert.Less(t, time.Since(start), time.Second)

	close(open)

	tally := batch.Consume(context.Background(), h, time.Millisecond, nil)
	assert.Equal(t, 1, tally.Count(engine.StatusSuccess))
}

func TestSubmitWhileActive(t *testing.T) {
	t.Parallel()

	open := make(gate)
	coordinator := batch.NewCoordinator(batch.WithEngineOptions(engine.WithHook(open.hook)))

	first, err := coordinator.Submit(context.Background(), files(t, "a.txt"), newJob())
	require.NoError(t, err)

	_, err = coordinator.Submit(context.Background(), files(t, "b.txt"), newJob())
	require.ErrorIs(t, err, batch.ErrBatchActive)

	close(open)
	first.Wait()

	// Finished but the end item has not been consumed yet.
	_, err = coordinator.Submit(context.Background(), files(t, "b.txt"), newJob())
	require.ErrorIs(t, err, batch.ErrBatchActive)

	batch.Consume(context.Background(), first, time.Millisecond, nil)

	second, err := coordinator.Submit(context.Background(), files(t, "b.txt"), newJob())
	require.NoError(t, err)

	tally := batch.Consume(context.Background(), second, time.Millisecond, nil)
	assert.Equal(t, 1, tally.Count(engine.StatusSuccess))
}

func TestSubmitRejects(t *testing.T) {
	t.Parallel()

	coordinator := batch.NewCoordinator()
	paths := files(t, "a.txt")

	short := newJob()
	short.Password = []byte("1234567")

	h, err := coordinator.Submit(context.Background(), paths, short)
	require.ErrorIs(t, err, engine.ErrPasswordTooShort)
	assert.Nil(t, h)
	assert.NoFileExists(t, paths[0]+".pyflk")

	_, err = coordinator.Submit(context.Background(), nil, newJob())
	require.ErrorIs(t, err, batch.ErrNoPaths)

	unsupported := newJob()
	unsupported.Backend = encryption.BackendTink
	unsupported.Mode = encryption.ModeOFB

	_, err = coordinator.Submit(context.Background(), paths, unsupported)
	require.ErrorIs(t, err, encryption.ErrUnsupported)

	// Rejections do not occupy the coordinator.
	h, err = coordinator.Submit(context.Background(), paths, newJob())
	require.NoError(t, err)

	batch.Consume(context.Background(), h, time.Millisecond, nil)
}

func TestConsumeStopsOnContext(t *testing.T) {
	t.Parallel()

	open := make(gate)
	coordinator := batch.NewCoordinator(batch.WithEngineOptions(engine.WithHook(open.hook)))

	h, err := coordinator.Submit(context.Background(), files(t, "a.txt"), newJob())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	tally := batch.Consume(ctx, h, time.Millisecond, nil)
	assert.Zero(t, tally.Total())
	assert.False(t, h.Ended())

	close(open)
	h.Wait()
}

func TestTally(t *testing.T) {
	t.Parallel()

	var tally batch.Tally

	assert.Zero(t, tally.Total())
	assert.Zero(t, tally.Count(engine.StatusInvalid))

	tally.Add(engine.StatusInvalid)
	tally.Add(engine.StatusInvalid)
	tally.Add(engine.StatusSuccess)

	assert.Equal(t, 2, tally.Count(engine.StatusInvalid))
	assert.Equal(t, 3, tally.Total())
	assert.Equal(t, 2, tally.Failed())
}

func TestLoggerNames(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	ctx := logging.WithLogger(context.Background(), zap.New(core))

	h, err := batch.NewCoordinator().Submit(ctx, files(t, "a.txt", "b.txt"), newJob())
	require.NoError(t, err)

	h.Wait()

	started := logs.FilterMessage("batch started").All()
	require.Len(t, started, 1)
	assert.Equal(t, "batch", started[0].LoggerName)

	processed := logs.FilterMessage("processed").All()
	require.Len(t, processed, 2)

	for _, entry := range processed {
		assert.Equal(t, "batch.engine", entry.LoggerName)
		assert.Equal(t, h.ID().String(), entry.ContextMap()["batch"])
	}
}
