// Package ui provides semantic text formatting for cloak's terminal output.
//
// Formatters colorize when the terminal supports it. When NO_COLOR is set or
// color is unavailable, text decorations are used instead:
//
//	ui.Code.Sprint("cloak decrypt -f")   // `cloak decrypt -f`
//	ui.Path.Sprint("config/.db.yml.encrypted")
//	ui.Success.Sprint("✓")
//	ui.Error.Sprint("✗")
//	ui.Muted.Sprint("up to date")        // (up to date)
//
// DiffLine colors a single line of unified diff output, and Commit styles a
// commit header in history output.
package ui
