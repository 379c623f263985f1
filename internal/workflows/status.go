package workflows

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/PolarWolf314/cloak/internal/secrets"
)

// FileStatus represents the state of a plaintext/ciphertext pair.
type FileStatus string

const (
	// StatusCurrent means the ciphertext is not older than the plaintext.
	StatusCurrent FileStatus = "current"
	// StatusStale means the plaintext was modified after encryption.
	StatusStale FileStatus = "stale"
	// StatusEncryptedOnly means the plaintext has not been decrypted yet.
	StatusEncryptedOnly FileStatus = "encrypted_only"
)

// FileStatusInfo holds information about one pair.
type FileStatusInfo struct {
	// Path is the plaintext path relative to the repository root.
	Path string

	Status FileStatus

	// PlaintextMtime and EncryptedMtime are RFC 3339 timestamps, empty when
	// the file does not exist.
	PlaintextMtime string
	EncryptedMtime string
}

// StatusSummary holds counts of files by status.
type StatusSummary struct {
	Current       int
	Stale         int
	EncryptedOnly int
}

// StatusResult contains the outcome of a status operation.
type StatusResult struct {
	ProjectPath string
	Files       []FileStatusInfo
	Summary     StatusSummary
}

// Status reports, for every encrypted file, whether its plaintext is
// current, modified since encryption, or absent. It applies the same
// modification-time rule as encrypt, so a "current" pair is exactly one
// encrypt would skip.
func Status(ctx context.Context, env Env) (*StatusResult, error) {
	root := env.Settings.RepoRoot
	ciphertexts, err := secrets.CollectCiphertextFiles(root)
	if err != nil {
		return nil, fmt.Errorf("finding encrypted files: %w", err)
	}

	var files []FileStatusInfo
	for _, c := range ciphertexts {
		info, err := determineFileStatus(c)
		if err != nil {
			return nil, err
		}
		if rel, err := filepath.Rel(root, info.Path); err == nil {
			info.Path = rel
		}
		files = append(files, info)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})

	return &StatusResult{
		ProjectPath: root,
		Files:       files,
		Summary:     calculateStatusSummary(files),
	}, nil
}

func determineFileStatus(ciphertextPath string) (FileStatusInfo, error) {
	plaintextPath, err := secrets.ToPlaintext(ciphertextPath)
	if err != nil {
		return FileStatusInfo{}, err
	}
	info := FileStatusInfo{Path: plaintextPath}

	encInfo, err := os.Stat(ciphertextPath)
	if err != nil {
		return info, fmt.Errorf("checking %s: %w", ciphertextPath, err)
	}
	info.EncryptedMtime = encInfo.ModTime().Format(time.RFC3339)

	plainInfo, err := os.Stat(plaintextPath)
	if os.IsNotExist(err) {
		info.Status = StatusEncryptedOnly
		return info, nil
	}
	if err != nil {
		return info, fmt.Errorf("checking %s: %w", plaintextPath, err)
	}
	info.PlaintextMtime = plainInfo.ModTime().Format(time.RFC3339)

	current, err := secrets.IsUpToDate(plaintextPath, ciphertextPath)
	if err != nil {
		return info, err
	}
	if current {
		info.Status = StatusCurrent
	} else {
		info.Status = StatusStale
	}
	return info, nil
}

func calculateStatusSummary(files []FileStatusInfo) StatusSummary {
	var summary StatusSummary
	for _, file := range files {
		switch file.Status {
		case StatusCurrent:
			summary.Current++
		case StatusStale:
			summary.Stale++
		case StatusEncryptedOnly:
			summary.EncryptedOnly++
		}
	}
	return summary
}
