package session

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blackbird-av/airplay2/config"
	"github.com/blackbird-av/airplay2/pkg/keychain"
)

func TestNewLegacyModeConstructsPairVerify(t *testing.T) {
	kc, err := keychain.NewDefault("dev", make([]byte, 32))
	require.NoError(t, err)

	s := New(config.Config{PairingMode: config.PairingLegacy, Keychain: kc})
	require.NotNil(t, s.PairVerify())
	require.Nil(t, s.PairSetup())
}

func TestNewHomeKitModeConstructsPairSetup(t *testing.T) {
	s := New(config.Config{PairingMode: config.PairingHomeKit})
	require.NotNil(t, s.PairSetup())
	require.Nil(t, s.PairVerify())
}

func TestNextStreamIDIsSequential(t *testing.T) {
	s := New(config.Config{})
	require.Equal(t, uint64(0), s.NextStreamID())
	require.Equal(t, uint64(1), s.NextStreamID())
	require.Equal(t, uint64(2), s.NextStreamID())
}

func TestAESKeyIVRoundTrip(t *testing.T) {
	s := New(config.Config{})
	_, _, ok := s.AESKeyIV()
	require.False(t, ok)

	var key, iv [16]byte
	key[0] = 1
	iv[0] = 2
	s.SetAESKeyIV(key, iv)

	gotKey, gotIV, ok := s.AESKeyIV()
	require.True(t, ok)
	require.Equal(t, key, gotKey)
	require.Equal(t, iv, gotIV)
}

func TestFPLastMsgRoundTrip(t *testing.T) {
	s := New(config.Config{})
	_, ok := s.FPLastMsg()
	require.False(t, ok)

	s.SetFPLastMsg([]byte("m3"))
	got, ok := s.FPLastMsg()
	require.True(t, ok)
	require.Equal(t, []byte("m3"), got)
}

func TestClaimEventChannelOnlyFirstCallerBinds(t *testing.T) {
	s := New(config.Config{})

	calls := 0
	bind := func() (uint16, error) {
		calls++
		return 7000, nil
	}

	port, claimed, err := s.ClaimEventChannel(bind)
	require.NoError(t, err)
	require.True(t, claimed)
	require.Equal(t, uint16(7000), port)

	port2, claimed2, err := s.ClaimEventChannel(bind)
	require.NoError(t, err)
	require.False(t, claimed2)
	require.Equal(t, uint16(7000), port2)
	require.Equal(t, 1, calls)
}
