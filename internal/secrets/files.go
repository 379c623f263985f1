package secrets

import (
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ciphertextGlob matches ciphertext basenames at any depth, hidden
// directories included.
const ciphertextGlob = "**/.*" + ciphertextSuffix

var errStopWalk = errors.New("stop walk")

// ListCiphertextFiles lazily enumerates every ciphertext file under root in
// filesystem order. Each range over the returned sequence walks the tree
// again.
func ListCiphertextFiles(root string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if info, err := os.Stat(root); err != nil || !info.IsDir() {
			if err == nil {
				err = fmt.Errorf("%s is not a directory", root)
			}
			yield("", fmt.Errorf("listing encrypted files under %s: %w", root, err))
			return
		}

		err := doublestar.GlobWalk(os.DirFS(root), ciphertextGlob, func(p string, d fs.DirEntry) error {
			if !d.Type().IsRegular() || !IsCiphertext(p) {
				return nil
			}
			if !yield(filepath.Join(root, filepath.FromSlash(p)), nil) {
				return errStopWalk
			}
			return nil
		}, doublestar.WithFilesOnly())

		if err != nil && !errors.Is(err, errStopWalk) {
			yield("", fmt.Errorf("listing encrypted files under %s: %w", root, err))
		}
	}
}

// CollectCiphertextFiles drains ListCiphertextFiles into a sorted slice.
func CollectCiphertextFiles(root string) ([]string, error) {
	var files []string
	for p, err := range ListCiphertextFiles(root) {
		if err != nil {
			return nil, err
		}
		files = append(files, p)
	}
	sort.Strings(files)
	return files, nil
}

// ResolvePaths expands user-provided paths, directories and globs relative to
// root. forEncryption selects plaintext targets; otherwise ciphertext files
// are returned. Literal file paths are passed through unvalidated so the
// engine can report NotFound or InvalidName for them.
func ResolvePaths(patterns []string, root string, forEncryption bool) ([]string, error) {
	if len(patterns) == 0 {
		return nil, nil
	}

	var files []string
	seen := make(map[string]bool)

	for _, pattern := range patterns {
		resolved, err := resolvePattern(pattern, root, forEncryption)
		if err != nil {
			return nil, err
		}
		for _, f := range resolved {
			if !seen[f] {
				seen[f] = true
				files = append(files, f)
			}
		}
	}

	return files, nil
}

func resolvePattern(pattern, root string, forEncryption bool) ([]string, error) {
	absPattern := pattern
	if !filepath.IsAbs(pattern) {
		absPattern = filepath.Join(root, pattern)
	}

	if info, err := os.Stat(absPattern); err == nil && info.IsDir() {
		ciphertexts, err := CollectCiphertextFiles(absPattern)
		if err != nil {
			return nil, err
		}
		if !forEncryption {
			return ciphertexts, nil
		}
		return existingPlaintexts(ciphertexts), nil
	}

	if strings.ContainsAny(pattern, "*?[{") {
		return expandGlob(pattern, absPattern, forEncryption)
	}

	return []string{absPattern}, nil
}

func expandGlob(pattern, absPattern string, forEncryption bool) ([]string, error) {
	matches, err := doublestar.FilepathGlob(absPattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
	}

	var filtered []string
	for _, m := range matches {
		if IsCiphertext(m) != forEncryption {
			filtered = append(filtered, m)
		}
	}
	return filtered, nil
}

// existingPlaintexts maps ciphertexts to plaintexts that exist on disk.
func existingPlaintexts(ciphertexts []string) []string {
	var out []string
	for _, c := range ciphertexts {
		p, err := ToPlaintext(c)
		if err != nil {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			out = append(out, p)
		}
	}
	return out
}
