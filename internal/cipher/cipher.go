// Package cipher binds the encrypt and decrypt capabilities used by the
// transform engine. Backends are selected by name with New.
package cipher

import (
	"context"
	"fmt"
)

// Cipher encrypts and decrypts single files. Output is always written to a
// sibling path chosen by the caller; implementations never pick paths.
type Cipher interface {
	// Name identifies the backend ("gpg", "box").
	Name() string

	// Encrypt writes armored ciphertext of in to out for recipient. An empty
	// recipient selects the backend's own default identity.
	Encrypt(ctx context.Context, in, out, recipient string) error

	// Decrypt writes the plaintext of in to out.
	Decrypt(ctx context.Context, in, out string) error

	// AgentAvailable reports whether decryption can proceed without
	// interactive input.
	AgentAvailable(ctx context.Context) bool

	// CheckDependencies reports ErrDependencyMissing when a required tool
	// cannot be located.
	CheckDependencies() error
}

// Options configures backend construction.
type Options struct {
	Backend      string
	AgentHelper  string
	IdentityFile string
}

// New returns the backend named by opts.Backend.
func New(opts Options) (Cipher, error) {
	switch opts.Backend {
	case "", BackendGPG:
		return &GPG{Binary: "gpg", AgentHelper: opts.AgentHelper}, nil
	case BackendBox:
		return &Box{IdentityFile: opts.IdentityFile}, nil
	default:
		return nil, fmt.Errorf("unknown cipher backend %q", opts.Backend)
	}
}

const (
	BackendGPG = "gpg"
	BackendBox = "box"
)
