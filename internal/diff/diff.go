// Package diff provides the line-diff capability used to compare staged
// plaintext files.
package diff

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Differ produces a textual diff between two files.
type Differ interface {
	Diff(ctx context.Context, prePath, postPath, preLabel, postLabel string) (string, error)
}

// DefaultContext is the number of unchanged lines shown around each hunk.
const DefaultContext = 3

// Unified renders unified diffs in-process.
type Unified struct {
	Context int
}

func (u Unified) Diff(_ context.Context, prePath, postPath, preLabel, postLabel string) (string, error) {
	pre, err := os.ReadFile(prePath)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", prePath, err)
	}
	post, err := os.ReadFile(postPath)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", postPath, err)
	}

	n := u.Context
	if n <= 0 {
		n = DefaultContext
	}

	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        splitLines(string(pre)),
		B:        splitLines(string(post)),
		FromFile: preLabel,
		ToFile:   postLabel,
		Context:  n,
	})
}

// noNewline marks a final line that lacks a line terminator, as git does.
const noNewline = "\n\\ No newline at end of file\n"

// splitLines keeps each line's terminator. Empty content has no lines.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if last := len(lines) - 1; lines[last] == "" {
		lines = lines[:last]
	} else {
		lines[last] += noNewline
	}
	return lines
}
