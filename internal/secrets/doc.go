// Package secrets decides when a plaintext file and its encrypted sibling
// need converting, and performs the conversion through an injected cipher.
//
// # Naming
//
// A plaintext file and its ciphertext live in the same directory:
//   - Plaintext: config/db.yml
//   - Ciphertext: config/.db.yml.encrypted
//
// Only the ciphertext is committed. The plaintext must be excluded by the
// repository's ignore rules; the engine warns when it is not.
//
// # Staleness
//
// Encryption is non-deterministic, so comparing ciphertext contents cannot
// tell whether re-encryption is needed. A target is up to date when it
// exists and its modification time is not older than its source's.
//
// After a decrypt the plaintext's modification time is set slightly before
// the ciphertext's. An encrypt run straight afterwards therefore sees the
// ciphertext as up to date and leaves it, and the commit history, alone.
//
// # Permissions
//
// Plaintext files are set to 0600 after every successful transform.
// Ciphertext permissions are left as the cipher produced them.
package secrets
