package errors

import (
	"errors"
	"fmt"
)

// Precondition errors are fatal for the whole invocation.
var (
	// ErrNotFound indicates the file to transform does not exist.
	ErrNotFound = errors.New("file not found")

	// ErrInvalidName indicates a ciphertext path violates the .<name>.encrypted convention.
	ErrInvalidName = errors.New("invalid encrypted file name")

	// ErrAgentUnavailable indicates no passphrase-caching session is running.
	ErrAgentUnavailable = errors.New("decryption agent is not available")

	// ErrDependencyMissing indicates a required external tool cannot be located.
	ErrDependencyMissing = errors.New("required dependency not found")
)

// Capability errors indicate an external transform failed.
var (
	// ErrCapabilityFailure indicates an encrypt or decrypt tool exited non-zero.
	ErrCapabilityFailure = errors.New("capability failed")

	// ErrNoFilesFound indicates no files matched the provided patterns.
	ErrNoFilesFound = errors.New("no matching files found")
)

// GenericExitCode is returned for every failure that does not carry its own status.
const GenericExitCode = 1

// CapabilityError records a failed encrypt or decrypt invocation.
type CapabilityError struct {
	Op         string // "encrypt" or "decrypt"
	Path       string // input file handed to the tool
	ExitStatus int    // the tool's own exit status
	Err        error  // underlying cause, may be nil
}

func (e *CapabilityError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: exit status %d: %v", e.Op, e.Path, e.ExitStatus, e.Err)
	}
	return fmt.Sprintf("%s %s: exit status %d", e.Op, e.Path, e.ExitStatus)
}

func (e *CapabilityError) Unwrap() error { return e.Err }

// Is reports ErrCapabilityFailure as a match so callers can test the kind.
func (e *CapabilityError) Is(target error) bool {
	return target == ErrCapabilityFailure
}

// ExitCode maps an error to the process exit status: 0 for nil, the tool's
// status for capability failures, GenericExitCode otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var capErr *CapabilityError
	if errors.As(err, &capErr) && capErr.ExitStatus > 0 {
		return capErr.ExitStatus
	}
	return GenericExitCode
}
