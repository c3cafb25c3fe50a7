package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAESKey(t *testing.T) {
	aesKey := AES128Key{17, 163, 62, 83, 175, 58, 156, 44, 127, 24, 45, 76, 218, 57, 48, 167}
	sharedSecret := []byte{
		82, 232, 92, 1, 109, 15, 74, 129, 146, 24, 94, 233, 48, 147, 185, 179,
		138, 47, 128, 131, 28, 37, 167, 104, 191, 46, 199, 34, 133, 50, 104, 7,
	}
	expected := AES128Key{207, 98, 45, 14, 107, 21, 73, 116, 51, 155, 84, 183, 136, 89, 31, 161}

	require.Equal(t, expected, HashAESKey(aesKey, sharedSecret))
}
