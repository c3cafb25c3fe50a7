// Package crypto implements the hash-chaining and key-derivation primitives
// shared across the pairing state machines and the per-stream ciphers:
// SHA-512 "two-step" chaining, HKDF-SHA512, and AES-128-CTR-BE key/IV
// derivation from hashed text constants.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha512"
	"io"

	"golang.org/x/crypto/hkdf"
)

// AES128Key is a 16-byte AES-128 key.
type AES128Key [16]byte

// AES128IV is a 16-byte AES block-size IV.
type AES128IV [16]byte

// TwoStep computes the first 16 bytes of SHA512(x || y). This chained hash
// shows up throughout the pairing handshakes as a cheap, stateless way to
// salt one secret with another.
func TwoStep(x, y []byte) [16]byte {
	h := sha512.New()
	h.Write(x)
	h.Write(y)
	sum := h.Sum(nil)

	var out [16]byte
	copy(out[:], sum[:16])
	return out
}

// HashAESKey salts an AES key unwrapped from FairPlay with the shared
// secret established during pair-verify, producing the final per-session
// key (spec.md §4.5).
func HashAESKey(aesKey AES128Key, sharedSecret []byte) AES128Key {
	return AES128Key(TwoStep(aesKey[:], sharedSecret))
}

// CipherWithHashedAESIV derives an AES-128-CTR-BE stream from text
// constants hashed together with a shared secret, as used by legacy
// pair-verify (spec.md §4.3 step 3).
func CipherWithHashedAESIV(keyText, ivText, secret []byte) (cipher.Stream, error) {
	key := TwoStep(keyText, secret)
	iv := TwoStep(ivText, secret)

	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	return cipher.NewCTR(block, iv[:]), nil
}

// HKDFSHA512 expands ikm with the given salt/info into n bytes, using
// HKDF-SHA512 as specified for the HomeKit pair-setup M5/M6 encryption and
// signature derivations (spec.md §4.4).
func HKDFSHA512(ikm, salt, info []byte, n int) ([]byte, error) {
	r := hkdf.New(sha512.New, ikm, salt, info)
	out := make([]byte, n)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, err
	}
	return out, nil
}
