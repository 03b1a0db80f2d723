package cryptox

import (
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"
)

// DeriveKey expands the server secret into a 32 byte subkey bound to label,
// so the session signer and the challenge binder never share key material.
func DeriveKey(secret []byte, label string) []byte {
	key := make([]byte, 32)
	r := hkdf.New(sha256.New, secret, nil, []byte(label))
	if _, err := io.ReadFull(r, key); err != nil {
		// hkdf only fails past 255*32 bytes of output
		panic("cryptox: hkdf: " + err.Error())
	}
	return key
}
