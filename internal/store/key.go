package store

import (
	"encoding/hex"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters for DeriveKey.
const (
	keyTime    = 1
	keyMemory  = 64 * 1024
	keyThreads = 4
	keyLength  = 32
)

// DeriveKey stretches a passphrase into a 32-byte EncryptionKey with
// argon2id. The same passphrase and salt always give the same key.
func DeriveKey(passphrase, salt []byte) []byte {
	return argon2.IDKey(passphrase, salt, keyTime, keyMemory, keyThreads, keyLength)
}

// keyPragma renders the raw-key form of PRAGMA key.
func keyPragma(key []byte) string {
	return `PRAGMA key = "x'` + hex.EncodeToString(key) + `'"`
}
