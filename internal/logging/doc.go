// Package logger provides leveled logging for cloak commands.
//
// User-facing lines carry colored semantic prefixes from fatih/color.
// Debug records are structured and rendered by a zerolog console writer so
// fields such as the file path and staleness decision stay machine-greppable.
//
// # Verbosity Levels
//
//   - --verbose: shows info messages
//   - --debug: shows everything, including structured debug records
//
// Warnings and errors are always shown.
//
// # Usage
//
//	log := logger.New(verbose, debug)
//	log.Infof("Encrypting %d files", count)
//	log.Debugw("staleness", map[string]any{"path": p, "decision": d})
package logger
