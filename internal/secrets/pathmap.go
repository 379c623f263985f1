package secrets

import (
	"fmt"
	"path/filepath"
	"strings"

	kerrors "github.com/PolarWolf314/cloak/internal/errors"
)

// Extension is the fixed marker ending every ciphertext basename.
const Extension = "encrypted"

const ciphertextSuffix = "." + Extension

// ToCiphertext maps dir/name to dir/.name.encrypted. The directory part is
// preserved byte for byte.
func ToCiphertext(plaintextPath string) string {
	dir, base := filepath.Split(plaintextPath)
	return dir + "." + base + ciphertextSuffix
}

// ToPlaintext maps dir/.name.encrypted back to dir/name. It returns
// ErrInvalidName when the basename does not follow the convention.
func ToPlaintext(ciphertextPath string) (string, error) {
	dir, base := filepath.Split(ciphertextPath)
	if !isCiphertextBase(base) {
		return "", fmt.Errorf("%s: expected a name like .<file>%s: %w", ciphertextPath, ciphertextSuffix, kerrors.ErrInvalidName)
	}
	return dir + base[1:len(base)-len(ciphertextSuffix)], nil
}

// IsCiphertext reports whether path's basename follows the ciphertext convention.
func IsCiphertext(path string) bool {
	return isCiphertextBase(filepath.Base(path))
}

func isCiphertextBase(base string) bool {
	return len(base) > 1+len(ciphertextSuffix) &&
		strings.HasPrefix(base, ".") &&
		strings.HasSuffix(base, ciphertextSuffix)
}
