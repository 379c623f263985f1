// Package configs resolves cloak's process-wide settings once per run.
//
// Every setting is looked up in this order, first non-empty value wins:
//
//  1. environment variable (CLOAK_RECIPIENT, ...)
//  2. repository git config key (cloak.recipient, ...)
//  3. the repository's .cloak.toml file
//  4. built-in default
//
// The resolved Settings value is passed to each component at construction;
// nothing reads the environment afterwards.
//
// # Settings
//
//   - backend: "gpg" (default) or "box"
//   - recipient: identity ciphertext is encrypted to; empty means the
//     backend's own default identity
//   - agent helper: command querying the decryption agent
//     (default "gpg-connect-agent --no-autostart"); it must answer OK
//     to "GETINFO version"
//   - identity: key file for the box backend
//     (default $XDG_CONFIG_HOME/cloak/identity)
//   - backdate: how far decrypted plaintext is dated before its ciphertext
//     (default 1s)
package configs
