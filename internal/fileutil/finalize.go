// Package fileutil provides shared file operation helpers.
package fileutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
	"time"
)

// ErrNotRegular is returned for sources that are directories, devices, sockets and the like.
var ErrNotRegular = errors.New("not a regular file")

// TempContext holds state for a write that becomes visible at its destination only on Publish.
type TempContext struct {
	SrcInfo os.FileInfo
	IsExec  bool
	TmpFile *os.File
	TmpName string

	link func(oldname, newname string) error
}

// NewTempContext stats the source file and creates a temp file next to outPath.
// Caller must defer Cleanup.
func NewTempContext(filename, outPath string) (*TempContext, error) {
	info, err := os.Stat(filename)
	if err != nil {
		return nil, fmt.Errorf("getting file info for %q: %w", filename, err)
	}

	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%q: %w", filename, ErrNotRegular)
	}

	const executableBits = 0o111

	tmpFile, err := os.CreateTemp(filepath.Dir(outPath), ".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("creating temporary file: %w", err)
	}

	return &TempContext{
		SrcInfo: info,
		IsExec:  info.Mode()&executableBits != 0,
		TmpFile: tmpFile,
		TmpName: tmpFile.Name(),
		link:    os.Link,
	}, nil
}

// Cleanup closes and removes the temp file.
// After a successful Publish only the temp name goes away, the destination stays.
func (tc *TempContext) Cleanup() {
	tc.TmpFile.Close() //nolint:errcheck,gosec // best-effort cleanup
	os.Remove(tc.TmpName) //nolint:errcheck,gosec // best-effort cleanup
}

// Publish makes the temp file visible as outPath without replacing an existing file.
// A hard link fails atomically if outPath exists, in which case the returned error matches fs.ErrExist.
// File systems without hard link support fall back to an exclusive-create check followed by a rename.
func (tc *TempContext) Publish(outPath string) error {
	if err := tc.TmpFile.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		return fmt.Errorf("closing temporary file: %w", err)
	}

	err := tc.link(tc.TmpName, outPath)
	if err == nil {
		return nil
	}

	if errors.Is(err, fs.ErrExist) || !linkUnsupported(err) {
		return fmt.Errorf("publishing %q: %w", outPath, err)
	}

	placeholder, err := os.OpenFile(outPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("publishing %q: %w", outPath, err)
	}

	placeholder.Close() //nolint:errcheck,gosec // empty placeholder, replaced below

	if err := os.Rename(tc.TmpName, outPath); err != nil {
		os.Remove(outPath) //nolint:errcheck,gosec // best-effort cleanup of the placeholder

		return fmt.Errorf("renaming output file: %w", err)
	}

	return nil
}

// linkUnsupported reports whether err means the file system cannot hard link outPath,
// as FAT and exFAT volumes answer with EPERM.
func linkUnsupported(err error) bool {
	return errors.Is(err, syscall.EPERM) ||
		errors.Is(err, syscall.ENOTSUP) ||
		errors.Is(err, syscall.EXDEV) ||
		errors.Is(err, errors.ErrUnsupported)
}

// Exists reports whether path is present. Errors other than non-existence are returned.
func Exists(path string) (bool, error) {
	_, err := os.Lstat(path)

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("checking %q: %w", path, err)
	}
}

// FinalizeOutput optionally preserves timestamps and returns the output file size.
func FinalizeOutput(outPath string, preserveTimestamps bool, modTime time.Time) (int64, error) {
	if preserveTimestamps {
		if err := os.Chtimes(outPath, modTime, modTime); err != nil {
			return 0, fmt.Errorf("preserving timestamps: %w", err)
		}
	}

	outInfo, err := os.Stat(outPath)
	if err != nil {
		return 0, fmt.Errorf("stat output %q: %w", outPath, err)
	}

	return outInfo.Size(), nil
}
