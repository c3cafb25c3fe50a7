package streamcipher

import (
	"crypto/cipher"
	"errors"

	"golang.org/x/crypto/chacha20poly1305"
)

// Lengths of the buffered-audio AEAD trailer fields (spec.md §4.7).
const (
	AudioBufferedKeyLen   = chacha20poly1305.KeySize
	AudioBufferedTagLen   = chacha20poly1305.Overhead
	AudioBufferedNonceLen = chacha20poly1305.NonceSize
	AudioBufferedAADLen   = 8
)

// ErrTagMismatch is returned by OpenInPlace when the Poly1305 tag does not
// verify; per spec.md §7 this is a recoverable per-packet failure, not a
// connection-fatal one.
var ErrTagMismatch = errors.New("streamcipher: AEAD tag mismatch")

// AudioBufferedCipher verifies and decrypts TCP buffered-audio RTP
// payloads using ChaCha20-Poly1305 with a detached tag carried separately
// on the wire from the ciphertext.
type AudioBufferedCipher struct {
	aead cipher.AEAD
}

// NewAudioBufferedCipher constructs a cipher from the 32-byte session key.
func NewAudioBufferedCipher(key [AudioBufferedKeyLen]byte) (*AudioBufferedCipher, error) {
	aead, err := chacha20poly1305.New(key[:])
	if err != nil {
		return nil, err
	}
	return &AudioBufferedCipher{aead: aead}, nil
}

// OpenInPlace decrypts inout in place given the 8-byte nonce suffix read
// from the wire (the remaining leading bytes of the 12-byte ChaCha20
// nonce are always zero), the 8-byte AAD taken from RTP header bytes
// [4:12], and the detached 16-byte tag.
func (c *AudioBufferedCipher) OpenInPlace(nonceSuffix [8]byte, aad [AudioBufferedAADLen]byte, tag [AudioBufferedTagLen]byte, inout []byte) error {
	var nonce [AudioBufferedNonceLen]byte
	copy(nonce[AudioBufferedNonceLen-len(nonceSuffix):], nonceSuffix[:])

	sealed := make([]byte, len(inout)+AudioBufferedTagLen)
	copy(sealed, inout)
	copy(sealed[len(inout):], tag[:])

	plain, err := c.aead.Open(sealed[:0], nonce[:], sealed, aad[:])
	if err != nil {
		return ErrTagMismatch
	}
	copy(inout, plain)
	return nil
}
