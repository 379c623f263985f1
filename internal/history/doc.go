// Package history rebuilds the plaintext changes recorded by each commit
// that touched an encrypted file.
//
// Every commit is staged through its own set of temporary files. Decrypted
// material never outlives the processing of the commit it belongs to, no
// matter how that processing ends.
package history
