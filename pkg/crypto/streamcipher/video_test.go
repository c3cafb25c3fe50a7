package streamcipher

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestVideoCipherSplitPacketsMatchOneShot reproduces the split-vs-one-shot
// invariant: feeding the same ciphertext split into arbitrary packet sizes
// yields the same plaintext as decrypting the whole thing in one call with
// a fresh cipher (spec.md §8).
func TestVideoCipherSplitPacketsMatchOneShot(t *testing.T) {
	var key [16]byte
	_, err := rand.Read(key[:])
	require.NoError(t, err)

	ciphertext := make([]byte, 137)
	_, err = rand.Read(ciphertext)
	require.NoError(t, err)

	oneShotCipher, err := NewVideoCipher(key, 42)
	require.NoError(t, err)
	oneShot := append([]byte(nil), ciphertext...)
	oneShotCipher.Decrypt(oneShot)

	splitCipher, err := NewVideoCipher(key, 42)
	require.NoError(t, err)
	split := append([]byte(nil), ciphertext...)

	var out bytes.Buffer
	sizes := []int{1, 17, 15, 33, 16, 7, 48}
	pos := 0
	for _, size := range sizes {
		end := pos + size
		if end > len(split) {
			end = len(split)
		}
		chunk := split[pos:end]
		splitCipher.Decrypt(chunk)
		out.Write(chunk)
		pos = end
		if pos >= len(split) {
			break
		}
	}

	require.Equal(t, oneShot, out.Bytes())
}

func TestVideoCipherDifferentConnectionIDsDiffer(t *testing.T) {
	var key [16]byte
	for i := range key {
		key[i] = byte(i)
	}

	a, err := NewVideoCipher(key, 1)
	require.NoError(t, err)
	b, err := NewVideoCipher(key, 2)
	require.NoError(t, err)

	buf1 := make([]byte, 32)
	buf2 := make([]byte, 32)
	a.Decrypt(buf1)
	b.Decrypt(buf2)

	require.NotEqual(t, buf1, buf2)
}
