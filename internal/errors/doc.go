// Package errors provides typed error values for cloak.
//
// Using sentinel errors allows callers to handle specific error conditions
// programmatically with errors.Is() rather than string matching.
//
// # Error Categories
//
//   - Precondition errors: the invocation cannot proceed (ErrNotFound,
//     ErrInvalidName, ErrAgentUnavailable, ErrDependencyMissing)
//   - Capability errors: an external encrypt/decrypt tool exited non-zero
//     (ErrCapabilityFailure, carried by *CapabilityError)
//
// # Usage
//
// Return errors from internal packages:
//
//	if _, err := os.Stat(path); os.IsNotExist(err) {
//	    return nil, fmt.Errorf("%s: %w", path, errors.ErrNotFound)
//	}
//
// Handle errors in the CLI layer:
//
//	result, err := engine.Decrypt(ctx, path, force)
//	if errors.Is(err, kerrors.ErrAgentUnavailable) {
//	    // Show user-friendly message
//	}
//
// The process exit status for any error is given by ExitCode, which passes a
// capability's own exit status through unchanged.
package errors
