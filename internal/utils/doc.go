// Package utils provides small filesystem and terminal helpers shared by
// the configuration layer and the CLI.
//
// # Filesystem Utilities
//
//   - FindUp: walks up from a directory to the nearest one holding a marker file
//
// # Terminal Utilities
//
//   - IsStdoutTerminal: reports whether output goes to an interactive terminal
package utils
