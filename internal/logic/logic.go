// Package logic implements the command line consumer of a batch: it submits the files,
// renders every outcome as it arrives and reports the totals.
package logic

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/hashicorp/go-multierror"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/idelchi/gocryptor/internal/batch"
	"github.com/idelchi/gocryptor/internal/config"
	"github.com/idelchi/gocryptor/internal/engine"
	"github.com/idelchi/gocryptor/internal/logging"
)

// ErrIncomplete is returned when at least one file was not processed successfully.
var ErrIncomplete = errors.New("not all files were processed")

var statusColors = map[engine.Status]*color.Color{
	engine.StatusSuccess:         color.New(color.FgGreen),
	engine.StatusFailure:         color.New(color.FgRed, color.Bold),
	engine.StatusInvalid:         color.New(color.FgYellow, color.BgMagenta),
	engine.StatusFileNotFound:    color.New(color.FgYellow),
	engine.StatusFileExists:      color.New(color.FgHiBlack),
	engine.StatusPermissionError: color.New(color.FgMagenta),
}

const resultTemplate = `
{{.Operation}}ion results:

    Files {{lower .Operation}}ed: {{.Success}},
    Files failed: {{.Failure}},
    Files not found: {{.NotFound}},
    File to create after {{lower .Operation}}ion already exists: {{.Exists}},
    Invalid files: {{.Invalid}},
    Unaccessible: {{.Permission}}
`

var results = template.Must(template.New("results").
	Funcs(template.FuncMap{"lower": strings.ToLower}).
	Parse(resultTemplate))

// Run processes cfg.Files. Outcomes are printed to stdout, failures, progress and the summary to stderr.
func Run(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer) error {
	start := time.Now()

	job, err := cfg.Job()
	if err != nil {
		return fmt.Errorf("preparing job: %w", err)
	}

	coordinator := batch.NewCoordinator()

	handle, err := coordinator.Submit(ctx, cfg.Files, job)
	if err != nil {
		return fmt.Errorf("submitting files: %w", err)
	}

	logger := logging.Named(ctx, "run").With(zap.Stringer("batch", handle.ID()))
	logger.Info("submitted", zap.Int("files", handle.Len()))

	operation := "Encrypt"
	if cfg.Decrypt {
		operation = "Decrypt"
	}

	bar := progressbar.DefaultSilent(int64(handle.Len()))
	if !cfg.Quiet {
		bar = progressbar.NewOptions(handle.Len(),
			progressbar.OptionSetWriter(stderr),
			progressbar.OptionSetDescription(operation+"ing"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	var (
		totalSize int64
		removals  *multierror.Error
	)

	tally := batch.Consume(ctx, handle, batch.DefaultInterval, func(outcome engine.Outcome) {
		bar.Clear() //nolint:errcheck,gosec // redrawn on the next Add

		printOutcome(stdout, stderr, outcome, cfg.Quiet)

		totalSize += outcome.Size

		if outcome.RemoveErr != nil {
			removals = multierror.Append(removals, outcome.RemoveErr)
		}

		bar.Add(1) //nolint:errcheck,gosec // rendering only
	})

	bar.Finish() //nolint:errcheck,gosec // rendering only

	if !cfg.Quiet {
		if err := printResults(stderr, operation, &tally); err != nil {
			return err
		}
	}

	if cfg.Stats {
		printStats(stderr, handle.Len(), &tally, totalSize, time.Since(start))
	}

	logger.Info("done", zap.Int("failed", tally.Failed()), zap.Duration("took", time.Since(start)))

	var result *multierror.Error

	if tally.Total() < handle.Len() {
		result = multierror.Append(result, fmt.Errorf("interrupted after %d of %d files: %w",
			tally.Total(), handle.Len(), context.Cause(ctx)))
	}

	if failed := tally.Failed(); failed > 0 {
		result = multierror.Append(result, fmt.Errorf("%w: %d of %d failed", ErrIncomplete, failed, tally.Total()))
	}

	if removals != nil {
		result = multierror.Append(result, fmt.Errorf("deleting sources: %w", removals))
	}

	return result.ErrorOrNil()
}

// Show writes the resolved configuration with the password masked.
func Show(cfg *config.Config, w io.Writer) error {
	out, err := cfg.Display()
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(w, out)

	return err
}

func printOutcome(stdout, stderr io.Writer, outcome engine.Outcome, quiet bool) {
	status := statusColors[outcome.Status].Sprintf("%-16s", outcome.Status)

	if outcome.Status == engine.StatusSuccess {
		if !quiet {
			fmt.Fprintf(stdout, "%s %q -> %q\n", status, outcome.Path, outcome.Output)
		}

		return
	}

	fmt.Fprintf(stderr, "%s %q: %v\n", status, outcome.Path, outcome.Err)
}

func printResults(w io.Writer, operation string, tally *batch.Tally) error {
	data := struct {
		Operation  string
		Success    int
		Failure    int
		NotFound   int
		Exists     int
		Invalid    int
		Permission int
	}{
		Operation:  operation,
		Success:    tally.Count(engine.StatusSuccess),
		Failure:    tally.Count(engine.StatusFailure),
		NotFound:   tally.Count(engine.StatusFileNotFound),
		Exists:     tally.Count(engine.StatusFileExists),
		Invalid:    tally.Count(engine.StatusInvalid),
		Permission: tally.Count(engine.StatusPermissionError),
	}

	if err := results.Execute(w, data); err != nil {
		return fmt.Errorf("rendering results: %w", err)
	}

	return nil
}

func printStats(w io.Writer, submitted int, tally *batch.Tally, totalSize int64, duration time.Duration) {
	fmt.Fprintf(w, "\nStats\n")
	fmt.Fprintf(w, "  Submitted: %d\n", submitted)
	fmt.Fprintf(w, "  Processed: %d\n", tally.Count(engine.StatusSuccess))
	fmt.Fprintf(w, "  Errors:    %d\n", tally.Failed())
	//nolint:gosec // totalSize is always non-negative (sum of file sizes)
	fmt.Fprintf(w, "  Size:      %s\n", humanize.IBytes(uint64(max(0, totalSize))))
	fmt.Fprintf(w, "  Duration:  %s\n", duration.Round(time.Millisecond))
}
