package secrets

import (
	"fmt"
	"os"
)

// Decision is the outcome of a staleness check.
type Decision int

const (
	// Transform means the target must be (re)generated.
	Transform Decision = iota
	// Skip means the target is up to date.
	Skip
	// SkipRisky means the target is up to date but may hold local edits
	// that a forced transform would destroy.
	SkipRisky
)

func (d Decision) String() string {
	switch d {
	case Transform:
		return "transform"
	case Skip:
		return "up-to-date"
	case SkipRisky:
		return "risky-skip"
	default:
		return fmt.Sprintf("Decision(%d)", int(d))
	}
}

// Oracle compares modification times of a source and its derived target.
// UpToDate is the decision returned when the target is current; the encrypt
// and decrypt call sites differ only in this policy.
type Oracle struct {
	UpToDate Decision
}

var (
	encryptOracle = Oracle{UpToDate: Skip}
	decryptOracle = Oracle{UpToDate: SkipRisky}
)

// Decide returns Transform when force is set, when the target is missing,
// or when the target is older than the source.
func (o Oracle) Decide(source, target string, force bool) (Decision, error) {
	if force {
		return Transform, nil
	}
	current, err := IsUpToDate(source, target)
	if err != nil {
		return Transform, err
	}
	if current {
		return o.UpToDate, nil
	}
	return Transform, nil
}

// IsUpToDate reports whether target exists and mtime(target) >= mtime(source).
func IsUpToDate(source, target string) (bool, error) {
	targetInfo, err := os.Stat(target)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking %s: %w", target, err)
	}

	sourceInfo, err := os.Stat(source)
	if err != nil {
		return false, fmt.Errorf("checking %s: %w", source, err)
	}

	return !targetInfo.ModTime().Before(sourceInfo.ModTime()), nil
}

// PreviewEncrypt returns the decision Engine.Encrypt would make for
// plaintextPath without invoking the cipher.
func PreviewEncrypt(plaintextPath string, force bool) (Decision, error) {
	if err := requireFile(plaintextPath); err != nil {
		return Transform, err
	}
	return encryptOracle.Decide(plaintextPath, ToCiphertext(plaintextPath), force)
}

// PreviewDecrypt returns the decision Engine.Decrypt would make for
// ciphertextPath without invoking the cipher.
func PreviewDecrypt(ciphertextPath string, force bool) (Decision, error) {
	plaintextPath, err := ToPlaintext(ciphertextPath)
	if err != nil {
		return Transform, err
	}
	if err := requireFile(ciphertextPath); err != nil {
		return Transform, err
	}
	return decryptOracle.Decide(ciphertextPath, plaintextPath, force)
}
