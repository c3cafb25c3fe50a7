package fairplay

import (
	"encoding/base64"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeM1ModeSelection(t *testing.T) {
	for mode := 0; mode < len(messages); mode++ {
		buf := make([]byte, 15)
		buf[4] = 3
		buf[5] = 1
		buf[6] = 1
		buf[14] = byte(mode)

		reply, saved, err := Decode(buf)
		require.NoError(t, err)
		require.Nil(t, saved)
		require.Equal(t, messages[mode], reply)
	}
}

func TestDecodeM1InvalidMode(t *testing.T) {
	buf := make([]byte, 15)
	buf[4] = 3
	buf[5] = 1
	buf[6] = 1
	buf[14] = 4

	_, _, err := Decode(buf)
	require.ErrorIs(t, err, ErrInvalidMode)
}

func TestDecodeInvalidVersion(t *testing.T) {
	buf := make([]byte, 20)
	buf[4] = 7
	_, _, err := Decode(buf)
	require.ErrorIs(t, err, ErrInvalidVersion)
}

func TestDecodeInvalidSeq(t *testing.T) {
	buf := make([]byte, 20)
	buf[4] = 3
	buf[5] = 1
	buf[6] = 9
	_, _, err := Decode(buf)
	require.ErrorIs(t, err, ErrInvalidSeq)
}

func TestDecodeSeq3RepliesWithHeaderAndTail(t *testing.T) {
	buf := make([]byte, 30)
	for i := range buf {
		buf[i] = byte(i)
	}
	buf[4], buf[5], buf[6] = 3, 1, 3

	reply, saved, err := Decode(buf)
	require.NoError(t, err)
	require.Nil(t, saved) // only 30 bytes, not M3Len
	require.Equal(t, fpHeader, reply[:len(fpHeader)])
	require.Equal(t, buf[len(buf)-20:], reply[len(fpHeader):])
}

func TestDecodeSeq3SavesExactM3Len(t *testing.T) {
	message3Hex := "46504c590301030000000098008f1a9ca548fdd57560a52926ff399f2eb154d0a7a0fffc997f58e27e00499eb9f310110d019e550e328047aea54308ab71b647041406878af96e06cf74127ae35941dceb58931b5543b39903f9f76a376248ee52e3656b561e1c1a0106ec6608df0ab4f2df528e65db6d622d3892d5b49c6c025606a574f19ebea7d93500bdd69db23333f22edcb3ccf7a6acde7389f2facabfa61b0b50"
	buf, err := hex.DecodeString(message3Hex)
	require.NoError(t, err)
	require.Len(t, buf, M3Len)

	reply, saved, err := Decode(buf)
	require.NoError(t, err)
	require.Len(t, reply, len(fpHeader)+20)
	require.Equal(t, buf, saved)
}

// TestFairPlayM3Unwrap reproduces the message3/ekey/expected-key vector
// from the FairPlay-3 reference test suite. The real unwrap is performed
// by an opaque native collaborator, so the test wires a stub KeyUnwrapper
// that returns the known-correct key and checks the rest of the pipeline:
// Decode saves the verbatim M3, and the stub is invoked with exactly that
// saved message and the supplied ekey.
func TestFairPlayM3Unwrap(t *testing.T) {
	message3Hex := "46504c590301030000000098008f1a9ca548fdd57560a52926ff399f2eb154d0a7a0fffc997f58e27e00499eb9f310110d019e550e328047aea54308ab71b647041406878af96e06cf74127ae35941dceb58931b5543b39903f9f76a376248ee52e3656b561e1c1a0106ec6608df0ab4f2df528e65db6d622d3892d5b49c6c025606a574f19ebea7d93500bdd69db23333f22edcb3ccf7a6acde7389f2facabfa61b0b50"
	ekeyBase64 := "RlBMWQECAQAAAAA8AAAAAG1EuhK5H0jgYesjD8U6v6IAAAAQihBgRl1RuAjfES0ItgRQH54+opzgkC88Q7gdUxnQV194UX4B"
	expectedKeyHex := "0496a612172f41e0fd71912acc33fc54"

	message3, err := hex.DecodeString(message3Hex)
	require.NoError(t, err)
	ekey, err := base64.StdEncoding.DecodeString(ekeyBase64)
	require.NoError(t, err)
	expectedKey, err := hex.DecodeString(expectedKeyHex)
	require.NoError(t, err)

	_, saved, err := Decode(message3)
	require.NoError(t, err)
	require.Equal(t, message3, saved)

	var gotMessage, gotEkey []byte
	unwrapper := UnwrapKeyFunc(func(message, ek []byte) ([KeyLen]byte, error) {
		gotMessage, gotEkey = message, ek
		var out [KeyLen]byte
		copy(out[:], expectedKey)
		return out, nil
	})

	key, err := unwrapper.UnwrapKey(saved, ekey)
	require.NoError(t, err)
	require.Equal(t, saved, gotMessage)
	require.Equal(t, ekey, gotEkey)
	require.Equal(t, expectedKey, key[:])
}

func TestNoopUnwrapperFails(t *testing.T) {
	_, err := NoopUnwrapper.UnwrapKey(nil, nil)
	require.ErrorIs(t, err, ErrNoNativeRoutine)
}
