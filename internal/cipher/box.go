package cipher

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	kerrors "github.com/PolarWolf314/cloak/internal/errors"
	"golang.org/x/crypto/nacl/box"
)

const (
	identityBlock   = "CLOAK BOX IDENTITY"
	ciphertextBlock = "CLOAK ENCRYPTED FILE"

	// BoxFailureStatus is reported as the exit status of a failed box
	// transform, matching gpg's generic error status.
	BoxFailureStatus = 2
)

// Box encrypts with NaCl anonymous sealed boxes (X25519 + XSalsa20-Poly1305).
// Every seal uses a fresh ephemeral key, so output is non-deterministic like
// gpg's. Recipients are base64url X25519 public keys; the identity file holds
// the private key and doubles as the "agent": decryption is available exactly
// when it can be loaded.
type Box struct {
	IdentityFile string
}

func (b *Box) Name() string { return BackendBox }

// Identity is a box key pair.
type Identity struct {
	Public  *[32]byte
	Private *[32]byte
}

// Recipient returns the shareable recipient string for the identity.
func (id Identity) Recipient() string {
	return FormatRecipient(id.Public)
}

// FormatRecipient encodes a public key as a recipient string.
func FormatRecipient(pub *[32]byte) string {
	return base64.RawURLEncoding.EncodeToString(pub[:])
}

// ParseRecipient decodes a recipient string produced by FormatRecipient.
func ParseRecipient(s string) (*[32]byte, error) {
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", s, err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("invalid recipient %q: expected 32 bytes, got %d", s, len(raw))
	}
	var pub [32]byte
	copy(pub[:], raw)
	return &pub, nil
}

// GenerateIdentity creates a key pair and writes it to path with 0600
// permissions. An existing file is only replaced when force is set.
func GenerateIdentity(path string, force bool) (Identity, error) {
	if _, err := os.Stat(path); err == nil && !force {
		return Identity{}, fmt.Errorf("identity file %s: %w", path, os.ErrExist)
	}

	pub, priv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return Identity{}, fmt.Errorf("generating key pair: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return Identity{}, fmt.Errorf("creating identity directory: %w", err)
	}

	data := pem.EncodeToMemory(&pem.Block{
		Type:  identityBlock,
		Bytes: append(append([]byte{}, priv[:]...), pub[:]...),
	})
	if err := os.WriteFile(path, data, 0600); err != nil {
		return Identity{}, fmt.Errorf("writing identity file: %w", err)
	}

	return Identity{Public: pub, Private: priv}, nil
}

// LoadIdentity reads an identity written by GenerateIdentity.
func LoadIdentity(path string) (Identity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Identity{}, fmt.Errorf("reading identity file: %w", err)
	}

	block, _ := pem.Decode(data)
	if block == nil || block.Type != identityBlock || len(block.Bytes) != 64 {
		return Identity{}, fmt.Errorf("identity file %s is malformed", path)
	}

	var priv, pub [32]byte
	copy(priv[:], block.Bytes[:32])
	copy(pub[:], block.Bytes[32:])
	return Identity{Public: &pub, Private: &priv}, nil
}

func (b *Box) Encrypt(ctx context.Context, in, out, recipient string) error {
	var pub *[32]byte
	if recipient == "" {
		id, err := LoadIdentity(b.IdentityFile)
		if err != nil {
			return b.failure("encrypt", in, err)
		}
		pub = id.Public
	} else {
		var err error
		if pub, err = ParseRecipient(recipient); err != nil {
			return b.failure("encrypt", in, err)
		}
	}

	plaintext, err := os.ReadFile(in)
	if err != nil {
		return b.failure("encrypt", in, err)
	}

	sealed, err := box.SealAnonymous(nil, plaintext, pub, rand.Reader)
	if err != nil {
		return b.failure("encrypt", in, err)
	}

	armored := pem.EncodeToMemory(&pem.Block{Type: ciphertextBlock, Bytes: sealed})
	// #nosec G306 -- ciphertext is meant to be committed.
	if err := os.WriteFile(out, armored, 0644); err != nil {
		return b.failure("encrypt", in, err)
	}
	return nil
}

func (b *Box) Decrypt(ctx context.Context, in, out string) error {
	id, err := LoadIdentity(b.IdentityFile)
	if err != nil {
		return b.failure("decrypt", in, err)
	}

	data, err := os.ReadFile(in)
	if err != nil {
		return b.failure("decrypt", in, err)
	}

	block, rest := pem.Decode(data)
	if block == nil || block.Type != ciphertextBlock || len(bytes.TrimSpace(rest)) != 0 {
		return b.failure("decrypt", in, errors.New("not a cloak armored file"))
	}

	plaintext, ok := box.OpenAnonymous(nil, block.Bytes, id.Public, id.Private)
	if !ok {
		return b.failure("decrypt", in, errors.New("message not encrypted for this identity"))
	}

	if err := os.WriteFile(out, plaintext, 0600); err != nil {
		return b.failure("decrypt", in, err)
	}
	return nil
}

func (b *Box) failure(op, path string, err error) error {
	return &kerrors.CapabilityError{Op: op, Path: path, ExitStatus: BoxFailureStatus, Err: err}
}

func (b *Box) AgentAvailable(ctx context.Context) bool {
	_, err := LoadIdentity(b.IdentityFile)
	return err == nil
}

// CheckDependencies always succeeds; box runs in-process.
func (b *Box) CheckDependencies() error { return nil }
