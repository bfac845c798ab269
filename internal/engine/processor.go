// Package engine processes batches of files: one classified outcome per path,
// produced lazily by a bounded pool of workers.
package engine

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/idelchi/gocryptor/internal/encryption"
	"github.com/idelchi/gocryptor/internal/fileutil"
	"github.com/idelchi/gocryptor/internal/logging"
)

// Processor encrypts or decrypts files according to a Job.
type Processor struct {
	job    Job
	locker encryption.Locker
	logger *zap.Logger
	hook   func(path string, running bool)
}

// Option configures a Processor.
type Option func(*Processor)

// WithLogger sets the logger used instead of the one carried by the context.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Processor) {
		p.logger = logger
	}
}

// WithHook registers fn to be called when a worker starts (running true)
// and finishes (running false) a file. fn is called concurrently.
func WithHook(fn func(path string, running bool)) Option {
	return func(p *Processor) {
		p.hook = fn
	}
}

// New validates job and returns a Processor for it.
// A zero Parallel defaults to the number of CPUs.
func New(job *Job, opts ...Option) (*Processor, error) {
	if job == nil {
		return nil, errors.New("nil job")
	}

	if err := job.Validate(); err != nil {
		return nil, err
	}

	p := &Processor{job: *job}

	p.job.Password = append([]byte(nil), job.Password...)

	if p.job.Parallel == 0 {
		p.job.Parallel = runtime.NumCPU()
	}

	p.locker = p.job.locker()

	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

// Job returns a copy of the processor's job.
func (p *Processor) Job() Job {
	return p.job
}

// Process returns a sequence yielding exactly one Outcome per path, in completion order.
// Files are processed concurrently, at most Job.Parallel at a time, and a failing file
// never stops the others. Stopping the iteration early skips files not yet started
// and waits for the ones in flight. A cancelled ctx turns files not yet started
// into failures carrying the context error.
func (p *Processor) Process(ctx context.Context, paths []string) iter.Seq[Outcome] {
	return func(yield func(Outcome) bool) {
		results := make(chan delivery)
		stop := make(chan struct{})

		group := errgroup.Group{}
		group.SetLimit(p.job.Parallel)

		go func() {
			defer close(results)

		feed:
			for _, path := range paths {
				select {
				case <-stop:
					break feed
				default:
				}

				group.Go(func() error {
					select {
					case <-stop:
						return nil
					default:
					}

					d := delivery{outcome: p.run(ctx, path), consumed: make(chan struct{})}

					select {
					case results <- d:
						// The slot is held until the consumer decided whether to go on.
						<-d.consumed
					case <-stop:
					}

					return nil
				})
			}

			group.Wait() //nolint:errcheck // workers never return errors
		}()

		for d := range results {
			if !yield(d.outcome) {
				close(stop)
				close(d.consumed)

				for d := range results {
					close(d.consumed)
				}

				return
			}

			close(d.consumed)
		}
	}
}

// delivery hands an outcome to the consumer, which closes consumed once it is done with it.
type delivery struct {
	outcome  Outcome
	consumed chan struct{}
}

func (p *Processor) run(ctx context.Context, path string) Outcome {
	if err := ctx.Err(); err != nil {
		return Outcome{Path: path, Status: StatusFailure, Err: err}
	}

	if p.hook != nil {
		p.hook(path, true)
		defer p.hook(path, false)
	}

	logger := p.logger
	if logger == nil {
		logger = logging.Named(ctx, "engine")
	}

	logger = logger.With(zap.String("path", path))

	output, size, err := p.processFile(path)

	outcome := Outcome{
		Path:   path,
		Status: Classify(err),
		Output: output,
		Size:   size,
		Err:    err,
	}

	if outcome.Status == StatusSuccess && p.job.Delete {
		if err := os.Remove(path); err != nil {
			outcome.RemoveErr = fmt.Errorf("deleting %q: %w", path, err)

			logger.Warn("source not deleted", zap.Error(err))
		}
	}

	logger.Debug("processed",
		zap.Stringer("status", outcome.Status),
		zap.String("output", outcome.Output),
		zap.Int64("size", outcome.Size),
		zap.Error(err),
	)

	return outcome
}

// processFile transforms path into its destination, which only appears once complete.
func (p *Processor) processFile(path string) (output string, size int64, err error) {
	in, err := os.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("opening source: %w", err)
	}

	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return "", 0, fmt.Errorf("stat source: %w", err)
	}

	if !info.Mode().IsRegular() {
		return "", 0, fmt.Errorf("%q: %w", path, fileutil.ErrNotRegular)
	}

	if !p.job.Encrypting {
		if err := p.locker.Inspect(in); err != nil {
			return "", 0, fmt.Errorf("reading header of %q: %w", path, err)
		}

		if _, err := in.Seek(0, io.SeekStart); err != nil {
			return "", 0, fmt.Errorf("rewinding source: %w", err)
		}
	}

	output, err = p.job.Destination(path)
	if err != nil {
		return "", 0, err
	}

	exists, err := fileutil.Exists(output)
	if err != nil {
		return output, 0, err
	}

	if exists {
		return output, 0, fmt.Errorf("destination %q: %w", output, os.ErrExist)
	}

	tc, err := fileutil.NewTempContext(path, output)
	if err != nil {
		return output, 0, fmt.Errorf("preparing output: %w", err)
	}

	defer tc.Cleanup()

	executable, err := p.transform(tc.TmpFile, in, tc.IsExec)
	if err != nil {
		return output, 0, err
	}

	const ownerReadWrite = 0o600

	perm := os.FileMode(ownerReadWrite)

	if executable {
		perm |= 0o111
	}

	if err := os.Chmod(tc.TmpName, perm); err != nil {
		return output, 0, fmt.Errorf("setting file permissions: %w", err)
	}

	if err := tc.Publish(output); err != nil {
		return output, 0, err
	}

	size, err = fileutil.FinalizeOutput(output, p.job.PreserveTimestamps, tc.SrcInfo.ModTime())
	if err != nil {
		return output, 0, fmt.Errorf("finalizing output: %w", err)
	}

	return output, size, nil
}

// transform runs the cipher from src into dst and reports whether the result is executable.
func (p *Processor) transform(dst io.Writer, src io.Reader, executable bool) (bool, error) {
	w := bufio.NewWriterSize(dst, 64*1024) //nolint:mnd

	if p.job.Encrypting {
		if err := p.locker.Lock(w, src, executable); err != nil {
			return false, fmt.Errorf("encrypting: %w", err)
		}
	} else {
		var err error

		executable, err = p.locker.Unlock(w, src)
		if err != nil {
			return false, fmt.Errorf("decrypting: %w", err)
		}
	}

	if err := w.Flush(); err != nil {
		return false, fmt.Errorf("writing output: %w", err)
	}

	return executable, nil
}
