package cipher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	kerrors "github.com/PolarWolf314/cloak/internal/errors"
)

// Fake implements Cipher without cryptography for tests. Each encryption
// embeds a call counter so repeated encryption of the same plaintext yields
// different bytes.
type Fake struct {
	mu sync.Mutex

	Available bool

	// FailEncrypt and FailDecrypt map an input path to the exit status the
	// fake reports for it.
	FailEncrypt map[string]int
	FailDecrypt map[string]int

	// MissingDependency, when set, names a tool CheckDependencies reports
	// as not installed.
	MissingDependency string

	EncryptCalls int
	DecryptCalls int
	Recipients   []string
}

// NewFake returns a Fake with the agent available.
func NewFake() *Fake {
	return &Fake{
		Available:   true,
		FailEncrypt: make(map[string]int),
		FailDecrypt: make(map[string]int),
	}
}

const fakeMagic = "fake-cipher:"

func (f *Fake) Name() string { return "fake" }

func (f *Fake) Encrypt(ctx context.Context, in, out, recipient string) error {
	f.mu.Lock()
	f.EncryptCalls++
	n := f.EncryptCalls
	f.Recipients = append(f.Recipients, recipient)
	status, fail := f.FailEncrypt[in]
	f.mu.Unlock()

	if fail {
		return &kerrors.CapabilityError{Op: "encrypt", Path: in, ExitStatus: status}
	}

	plaintext, err := os.ReadFile(in)
	if err != nil {
		return &kerrors.CapabilityError{Op: "encrypt", Path: in, ExitStatus: BoxFailureStatus, Err: err}
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s%d:%s\n", fakeMagic, n, recipient)
	buf.Write(plaintext)
	// #nosec G306 -- test double.
	return os.WriteFile(out, buf.Bytes(), 0644)
}

func (f *Fake) Decrypt(ctx context.Context, in, out string) error {
	f.mu.Lock()
	f.DecryptCalls++
	status, fail := f.FailDecrypt[in]
	f.mu.Unlock()

	if fail {
		return &kerrors.CapabilityError{Op: "decrypt", Path: in, ExitStatus: status}
	}

	data, err := os.ReadFile(in)
	if err != nil {
		return &kerrors.CapabilityError{Op: "decrypt", Path: in, ExitStatus: BoxFailureStatus, Err: err}
	}
	plaintext, err := FakeOpen(data)
	if err != nil {
		return &kerrors.CapabilityError{Op: "decrypt", Path: in, ExitStatus: BoxFailureStatus, Err: err}
	}
	return os.WriteFile(out, plaintext, 0600)
}

// FakeSeal produces bytes that Fake can decrypt, for seeding fixtures.
func FakeSeal(plaintext []byte) []byte {
	return append([]byte(fakeMagic+"0:\n"), plaintext...)
}

// FakeOpen reverses FakeSeal and Fake.Encrypt.
func FakeOpen(data []byte) ([]byte, error) {
	if !bytes.HasPrefix(data, []byte(fakeMagic)) {
		return nil, errors.New("not fake ciphertext")
	}
	_, body, ok := bytes.Cut(data, []byte("\n"))
	if !ok {
		return nil, errors.New("truncated fake ciphertext")
	}
	return body, nil
}

func (f *Fake) AgentAvailable(ctx context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Available
}

func (f *Fake) CheckDependencies() error {
	if f.MissingDependency != "" {
		return fmt.Errorf("%s: %w", f.MissingDependency, kerrors.ErrDependencyMissing)
	}
	return nil
}
