package engine

import (
	"errors"
	"io/fs"

	"github.com/idelchi/gocryptor/internal/encryption"
)

// Status is the classification of a single processed file.
type Status int

const (
	// StatusSuccess means the destination was written and published.
	StatusSuccess Status = iota
	// StatusFailure covers I/O and cipher errors that fit no other class.
	StatusFailure
	// StatusInvalid means the input is not something this operation can process,
	// such as a corrupted or foreign file on decryption or a missing extension.
	StatusInvalid
	// StatusFileNotFound means the source does not exist.
	StatusFileNotFound
	// StatusFileExists means the destination already exists and was left untouched.
	StatusFileExists
	// StatusPermissionError means the source or destination is not accessible.
	StatusPermissionError
)

var statusNames = [...]string{
	StatusSuccess:         "SUCCESS",
	StatusFailure:         "FAILURE",
	StatusInvalid:         "INVALID",
	StatusFileNotFound:    "FILE_NOT_FOUND",
	StatusFileExists:      "FILE_EXISTS",
	StatusPermissionError: "PERMISSION_ERROR",
}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return "UNKNOWN"
	}

	return statusNames[s]
}

// Statuses returns every status in display order.
func Statuses() []Status {
	return []Status{
		StatusSuccess,
		StatusFailure,
		StatusInvalid,
		StatusFileNotFound,
		StatusFileExists,
		StatusPermissionError,
	}
}

// Outcome is the result of processing one path.
type Outcome struct {
	// Path is the input path as submitted.
	Path string
	// Status classifies the result.
	Status Status
	// Output is the destination path, empty when it could not be determined.
	Output string
	// Size is the number of bytes written to Output on success.
	Size int64
	// Err is the underlying error, nil on success.
	Err error
	// RemoveErr is set when the source could not be deleted after a successful run.
	RemoveErr error
}

// Classify maps an error returned while processing a file onto a Status.
func Classify(err error) Status {
	switch {
	case err == nil:
		return StatusSuccess
	case errors.Is(err, fs.ErrNotExist):
		return StatusFileNotFound
	case errors.Is(err, fs.ErrExist):
		return StatusFileExists
	case errors.Is(err, fs.ErrPermission):
		return StatusPermissionError
	case errors.Is(err, encryption.ErrInvalidFile), errors.Is(err, ErrNoSuffix):
		return StatusInvalid
	default:
		return StatusFailure
	}
}
