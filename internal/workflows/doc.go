// Package workflows provides high-level orchestration for cloak commands.
//
// Workflows coordinate the secrets engine, the history reconstructor and the
// configuration layer to implement complete user-facing features. Each
// workflow handles a single command's business logic, independent of CLI
// concerns like flag parsing, spinners, and output formatting.
//
// # Design Philosophy
//
// The cmd/ package should be a thin layer that:
//   - Parses command-line flags and arguments
//   - Calls the appropriate workflow function
//   - Formats the result for display
//
// Workflows handle everything else:
//   - Resolving the set of files to operate on
//   - Running each file through the engine in order
//   - Stopping the batch on the first failure
//
// # Available Workflows
//
//   - Encrypt: Encrypts plaintext files into their .<name>.encrypted siblings
//   - Decrypt: Decrypts .<name>.encrypted files back to plaintext
//   - Log: Reconstructs the plaintext diff of every commit to an encrypted file
//   - List: Lists every encrypted file in the repository
//   - Status: Reports which pairs are current, stale, or not yet decrypted
//   - Keygen: Creates an identity for the built-in box backend
//   - Doctor: Checks tools, agent, identity and ignore rules
//
// # Error Handling
//
// Workflows return typed errors from the internal/errors package, allowing
// the CLI layer to provide appropriate user-facing messages without string
// matching. Use errors.Is() to check for specific error conditions:
//
//	result, err := workflows.Decrypt(ctx, env, opts)
//	if errors.Is(err, kerrors.ErrAgentUnavailable) {
//	    // Tell the user to start their agent
//	}
//
// A batch that fails part way still returns the results of the files that
// completed, together with the error.
//
// # Context Usage
//
// All workflow functions accept a context.Context as their first parameter.
// This enables cancellation, timeouts, and passing request-scoped values.
package workflows
