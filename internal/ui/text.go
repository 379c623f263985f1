package ui

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Formatter applies semantic formatting to text.
type Formatter struct {
	color  *color.Color
	prefix string
	suffix string
}

// Sprint formats the arguments and returns the resulting string.
func (f Formatter) Sprint(a ...interface{}) string {
	text := fmt.Sprint(a...)
	if noColor() {
		return f.prefix + text + f.suffix
	}
	return f.color.Sprint(text)
}

// Sprintf formats according to a format specifier and returns the resulting string.
func (f Formatter) Sprintf(format string, a ...interface{}) string {
	text := fmt.Sprintf(format, a...)
	if noColor() {
		return f.prefix + text + f.suffix
	}
	return f.color.Sprint(text)
}

// EnsureNewline ensures the string ends with a newline character.
func EnsureNewline(s string) string {
	if len(s) == 0 || s[len(s)-1] != '\n' {
		return s + "\n"
	}
	return s
}

// FormatPaths renders paths as an indented bullet list, one per line.
func FormatPaths(paths []string) string {
	var b strings.Builder
	for _, p := range paths {
		b.WriteString("    - ")
		b.WriteString(Path.Sprint(p))
		b.WriteString("\n")
	}
	return b.String()
}

// DiffLine colors one line of unified diff output by its leading marker.
// Lines are returned unchanged when color is disabled.
func DiffLine(line string) string {
	if noColor() {
		return line
	}
	switch {
	case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
		return diffHeader.Sprint(line)
	case strings.HasPrefix(line, "@@"):
		return diffHunk.Sprint(line)
	case strings.HasPrefix(line, "+"):
		return diffAdd.Sprint(line)
	case strings.HasPrefix(line, "-"):
		return diffDel.Sprint(line)
	default:
		return line
	}
}

func noColor() bool {
	// https://no-color.org/
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		return true
	}
	return color.NoColor
}

var (
	diffHeader = color.New(color.Bold)
	diffHunk   = color.New(color.FgCyan)
	diffAdd    = color.New(color.FgGreen)
	diffDel    = color.New(color.FgRed)
)

// Semantic formatters for different types of CLI output.
var (
	// Code formats runnable commands. `backticks` without color.
	Code = Formatter{color.New(color.FgYellow), "`", "`"}

	// Path formats file or directory paths.
	Path = Formatter{color.New(color.FgYellow), "", ""}

	Success = Formatter{color.New(color.FgGreen), "", ""}

	Error = Formatter{color.New(color.FgRed), "", ""}

	Warning = Formatter{color.New(color.FgYellow), "", ""}

	// Info formats hints and directional indicators.
	Info = Formatter{color.New(color.FgCyan), "", ""}

	// Commit formats commit identifiers in history output.
	Commit = Formatter{color.New(color.FgYellow, color.Bold), "commit ", ""}

	// Muted formats secondary text. (parentheses) without color.
	Muted = Formatter{color.New(color.FgHiBlack), "(", ")"}
)
