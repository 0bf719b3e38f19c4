// Package errors provides error types and handling for chunked transfer operations.
package errors

import (
	"errors"
	"fmt"
)

// Error represents a transfer operation error with context about the file
// and part that failed.
type Error struct {
	// Op is the operation that failed (e.g., "download", "upload", "resume")
	Op string

	// FileID is the remote file identifier (if applicable)
	FileID string

	// Part is the part id that failed (if applicable)
	Part string

	// Path is the local path involved (if applicable)
	Path string

	// Err is the underlying error
	Err error
}

// Error implements the error interface by providing a formatted error message.
func (e *Error) Error() string {
	msg := "transfer." + e.Op
	if e.FileID != "" {
		msg += " " + e.FileID
	}
	if e.Part != "" {
		msg += " part " + e.Part
	}
	if e.Path != "" {
		msg += " (" + e.Path + ")"
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

// Unwrap returns the underlying error for error chaining support.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithFileID adds remote file context to an existing error.
func (e *Error) WithFileID(fileID string) *Error {
	e.FileID = fileID
	return e
}

// WithPart adds part context to an existing error.
func (e *Error) WithPart(part string) *Error {
	e.Part = part
	return e
}

// WithPath adds local path context to an existing error.
func (e *Error) WithPath(path string) *Error {
	e.Path = path
	return e
}

// WithMessage wraps the underlying error with a custom message.
func (e *Error) WithMessage(message string) *Error {
	e.Err = fmt.Errorf("%s: %w", message, e.Err)
	return e
}

// WithCause attaches the error that triggered this one. Both the original
// error and the cause remain visible to errors.Is and errors.As.
func (e *Error) WithCause(cause error) *Error {
	if cause == nil {
		return e
	}
	e.Err = fmt.Errorf("%w: %w", e.Err, cause)
	return e
}

// NewError creates a new Error with the given operation and underlying error.
func NewError(op string, err error) *Error {
	return &Error{
		Op:  op,
		Err: err,
	}
}

// NewFileError creates a new Error with remote file context.
func NewFileError(op, fileID string, err error) *Error {
	return &Error{
		Op:     op,
		FileID: fileID,
		Err:    err,
	}
}

// Sentinel errors for transfer failures.
// These can be used with errors.Is() for error checking.
var (
	// ErrManifest indicates a missing or malformed part manifest
	ErrManifest = errors.New("transfer: malformed manifest")

	// ErrPartIntegrity indicates the received part length differs from the declared size
	ErrPartIntegrity = errors.New("transfer: part size mismatch")

	// ErrChecksumMismatch indicates that a part digest does not match the manifest
	ErrChecksumMismatch = errors.New("transfer: checksum mismatch")

	// ErrLocalFileMismatch indicates the local file is longer than the remote object
	ErrLocalFileMismatch = errors.New("transfer: local file does not match remote object")

	// ErrConfiguration indicates part-size constraints that cannot be satisfied
	ErrConfiguration = errors.New("transfer: invalid configuration")

	// ErrTransfer indicates an I/O or collaborator failure during a transfer
	ErrTransfer = errors.New("transfer: transfer failed")

	// ErrInvalidInput indicates that the provided input is invalid
	ErrInvalidInput = errors.New("transfer: invalid input")

	// ErrFileNotFound indicates that the remote file does not exist
	ErrFileNotFound = errors.New("transfer: file not found")

	// ErrInvalidState indicates an operation not allowed in the remote file's current state
	ErrInvalidState = errors.New("transfer: invalid file state")
)

// IsManifest checks if an error indicates a malformed manifest.
func IsManifest(err error) bool {
	return errors.Is(err, ErrManifest)
}

// IsPartIntegrity checks if an error indicates a part size mismatch.
func IsPartIntegrity(err error) bool {
	return errors.Is(err, ErrPartIntegrity)
}

// IsChecksumMismatch checks if an error indicates a digest mismatch.
func IsChecksumMismatch(err error) bool {
	return errors.Is(err, ErrChecksumMismatch)
}

// IsLocalFileMismatch checks if an error indicates a stale local copy.
func IsLocalFileMismatch(err error) bool {
	return errors.Is(err, ErrLocalFileMismatch)
}

// IsConfiguration checks if an error indicates invalid part-size configuration.
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsTransfer checks if an error indicates a generic transfer failure.
func IsTransfer(err error) bool {
	return errors.Is(err, ErrTransfer)
}

// IsInvalidInput checks if an error indicates invalid input.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsFileNotFound checks if an error indicates a missing remote file.
func IsFileNotFound(err error) bool {
	return errors.Is(err, ErrFileNotFound)
}
