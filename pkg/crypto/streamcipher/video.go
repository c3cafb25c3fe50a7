// Package streamcipher implements the three per-stream ciphers spec.md
// §4.7–4.8 describes: the stateful AES-128-CTR-BE video cipher, the
// per-datagram AES-CBC-128 realtime audio cipher, and the ChaCha20-Poly1305
// buffered audio AEAD.
package streamcipher

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha512"
	"fmt"
)

// VideoCipher is the stateful AES-128-CTR-BE cipher used for video
// payloads. AirPlay video packets are rarely a multiple of 16 bytes, so
// the CTR keystream position must be carried across Decrypt calls; og and
// next hold the keystream bytes already generated for a block that
// straddles two packets.
type VideoCipher struct {
	stream cipher.Stream
	og     [16]byte
	next   int
}

// NewVideoCipher derives the AES key and IV from the per-session key and a
// stream connection id, matching the "AirPlayStreamKey{id}"/
// "AirPlayStreamIV{id}" SHA-512 hash chaining used throughout the pairing
// handshakes. streamConnectionID is the wire value reinterpreted as u64
// (spec.md §4.6): senders routinely pick a connection id with the sign bit
// set, and formatting it as a signed int64 would hash a different decimal
// string than the sender's own unsigned interpretation.
func NewVideoCipher(key [16]byte, streamConnectionID uint64) (*VideoCipher, error) {
	keyHash := sha512.New()
	fmt.Fprintf(keyHash, "AirPlayStreamKey%d", streamConnectionID)
	keyHash.Write(key[:])
	aesKey := keyHash.Sum(nil)[:16]

	ivHash := sha512.New()
	fmt.Fprintf(ivHash, "AirPlayStreamIV%d", streamConnectionID)
	ivHash.Write(key[:])
	aesIV := ivHash.Sum(nil)[:16]

	block, err := aes.NewCipher(aesKey)
	if err != nil {
		return nil, err
	}
	return &VideoCipher{stream: cipher.NewCTR(block, aesIV)}, nil
}

// Decrypt decrypts inout in place, carrying any partial-block keystream
// across calls (spec.md §4.8). A packet shorter than the carried keystream
// consumes only part of it; og keeps the remainder for the next call.
func (c *VideoCipher) Decrypt(inout []byte) {
	n := c.next

	if n > 0 {
		k := n
		if len(inout) < k {
			k = len(inout)
		}
		for i := 0; i < k; i++ {
			inout[i] ^= c.og[16-n+i]
		}
		if k < n {
			c.next = n - k
			return
		}
	}

	body := ((len(inout) - n) / 16) * 16
	c.stream.XORKeyStream(inout[n:n+body], inout[n:n+body])

	rest := (len(inout) - n) % 16
	start := len(inout) - rest
	c.next = 0

	if rest > 0 {
		for i := range c.og {
			c.og[i] = 0
		}
		copy(c.og[:rest], inout[start:])
		c.stream.XORKeyStream(c.og[:], c.og[:])
		copy(inout[start:], c.og[:rest])
		c.next = 16 - rest
	}
}
