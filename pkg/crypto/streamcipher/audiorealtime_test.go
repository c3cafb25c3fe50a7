package streamcipher

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAudioRealtimeCipherDecryptsFullBlocksOnly(t *testing.T) {
	var key, iv [16]byte
	_, err := rand.Read(key[:])
	require.NoError(t, err)
	_, err = rand.Read(iv[:])
	require.NoError(t, err)

	plain := make([]byte, 48)
	_, err = rand.Read(plain)
	require.NoError(t, err)

	block, err := aes.NewCipher(key[:])
	require.NoError(t, err)
	ciphertext := make([]byte, 48+5)
	cipher.NewCBCEncrypter(block, iv[:]).CryptBlocks(ciphertext[:48], plain)
	trailing := []byte{1, 2, 3, 4, 5}
	copy(ciphertext[48:], trailing)

	c, err := NewAudioRealtimeCipher(key, iv)
	require.NoError(t, err)

	buf := append([]byte(nil), ciphertext...)
	c.Decrypt(buf)

	require.Equal(t, plain, buf[:48])
	require.Equal(t, trailing, buf[48:])
}

func TestAudioRealtimeCipherIsStatelessAcrossPackets(t *testing.T) {
	var key, iv [16]byte
	for i := range key {
		key[i] = byte(i)
		iv[i] = byte(i + 1)
	}

	block, err := aes.NewCipher(key[:])
	require.NoError(t, err)
	plain := make([]byte, 16)
	for i := range plain {
		plain[i] = byte(i * 3)
	}
	ciphertext := make([]byte, 16)
	cipher.NewCBCEncrypter(block, iv[:]).CryptBlocks(ciphertext, plain)

	c, err := NewAudioRealtimeCipher(key, iv)
	require.NoError(t, err)

	first := append([]byte(nil), ciphertext...)
	c.Decrypt(first)
	second := append([]byte(nil), ciphertext...)
	c.Decrypt(second)

	require.Equal(t, plain, first)
	require.Equal(t, plain, second)
}
