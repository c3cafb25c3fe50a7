package server

import (
	"context"
	"net"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/blackbird-av/airplay2/config"
	"github.com/blackbird-av/airplay2/pkg/base"
	"github.com/blackbird-av/airplay2/pkg/crypto/fairplay"
	"github.com/blackbird-av/airplay2/pkg/crypto/pairsetup"
	"github.com/blackbird-av/airplay2/pkg/plist"
	"github.com/blackbird-av/airplay2/pkg/sink"
	"github.com/blackbird-av/airplay2/pkg/tlv8"
	"github.com/blackbird-av/airplay2/session"
)

func newTestConnState(t *testing.T, cfg config.Config) *connState {
	t.Helper()
	clientConn, serverConn := net.Pipe()
	t.Cleanup(func() { clientConn.Close(); serverConn.Close() })

	srv := New(cfg, fairplay.NoopUnwrapper, Sinks{
		AudioRealtime: sink.Adapt[sink.AudioParams, *sink.NullStream](sink.NullDevice[sink.AudioParams]{}),
		AudioBuffered: sink.Adapt[sink.AudioParams, *sink.NullStream](sink.NullDevice[sink.AudioParams]{}),
		Video:         sink.Adapt[sink.VideoParams, *sink.NullStream](sink.NullDevice[sink.VideoParams]{}),
	}, zerolog.Nop())

	return &connState{
		server: srv,
		conn:   serverConn,
		state:  session.New(cfg),
		ctx:    context.Background(),
		log:    zerolog.Nop(),
	}
}

func TestDispatchInfoReturnsDeviceDescriptor(t *testing.T) {
	c := newTestConnState(t, config.New(config.Config{}))
	res := c.dispatch(&base.Request{Method: base.MethodGet, Path: "/info", Header: base.Header{}})
	require.Equal(t, base.StatusOK, res.StatusCode)
	require.NotEmpty(t, res.Body)
}

func TestDispatchFeedbackAndCommandAreEmptyOK(t *testing.T) {
	c := newTestConnState(t, config.New(config.Config{}))
	for _, path := range []string{"/feedback", "/command"} {
		res := c.dispatch(&base.Request{Method: base.MethodPost, Path: path, Header: base.Header{}})
		require.Equal(t, base.StatusOK, res.StatusCode)
		require.Empty(t, res.Body)
	}
}

func TestDispatchUnknownMediaMethodRepliesEmptyOK(t *testing.T) {
	c := newTestConnState(t, config.New(config.Config{}))
	res := c.dispatch(&base.Request{Method: base.MethodPlay, Path: "/1", Header: base.Header{}})
	require.Equal(t, base.StatusOK, res.StatusCode)
}

func TestDispatchRecordFlushAreEmptyOK(t *testing.T) {
	c := newTestConnState(t, config.New(config.Config{}))
	for _, m := range []base.Method{base.MethodRecord, base.MethodFlush, base.MethodFlushBuffered, base.MethodSetRateAnchorTime} {
		res := c.dispatch(&base.Request{Method: m, Path: "/1", Header: base.Header{}})
		require.Equal(t, base.StatusOK, res.StatusCode)
	}
}

func TestHandlePairVerifyWithoutStateMachineIsForbidden(t *testing.T) {
	cfg := config.New(config.Config{PairingMode: config.PairingHomeKit})
	c := newTestConnState(t, cfg)
	res := c.dispatch(&base.Request{Method: base.MethodPost, Path: "/pair-verify", Content: []byte{1, 0, 0, 0}})
	require.Equal(t, base.StatusForbidden, res.StatusCode)
}

func TestHandlePairVerifyMalformedBody(t *testing.T) {
	c := newTestConnState(t, config.New(config.Config{}))
	res := c.dispatch(&base.Request{Method: base.MethodPost, Path: "/pair-verify", Content: []byte{1}})
	require.Equal(t, base.StatusBadRequest, res.StatusCode)
}

func TestHandleFairPlaySetupSeq1(t *testing.T) {
	c := newTestConnState(t, config.New(config.Config{}))
	body := make([]byte, 15)
	body[4] = 3
	body[5] = 1
	body[6] = 1
	body[14] = 0
	res := c.dispatch(&base.Request{Method: base.MethodPost, Path: "/fp-setup", Content: body})
	require.Equal(t, base.StatusOK, res.StatusCode)
	require.NotEmpty(t, res.Body)
}

func TestHandleGetParameterDefaultsToConfiguredVolume(t *testing.T) {
	cfg := config.New(config.Config{InitialVolume: -15})
	c := newTestConnState(t, cfg)
	res := c.dispatch(&base.Request{Method: base.MethodGetParameter, Path: "/1"})
	require.Equal(t, base.StatusOK, res.StatusCode)
	require.Contains(t, string(res.Body), "volume: -15")
}

func TestHandleSetupSenderInfoRequiresPairVerifyFirst(t *testing.T) {
	c := newTestConnState(t, config.New(config.Config{}))
	body, err := plistEncodeSenderInfoForTest()
	require.NoError(t, err)
	res := c.dispatch(&base.Request{Method: base.MethodSetup, Path: "/1", Content: body})
	require.Equal(t, base.StatusForbidden, res.StatusCode)
}

func plistEncodeSenderInfoForTest() ([]byte, error) {
	return plist.Encode(plist.SenderInfo{EIV: make([]byte, 16), EKey: make([]byte, 16)})
}

func TestHandlePairSetupM1RepliesWithM2(t *testing.T) {
	cfg := config.New(config.Config{PairingMode: config.PairingHomeKit})
	c := newTestConnState(t, cfg)

	body := tlv8.Encode(
		tlv8.Pair{Tag: tlv8.TagState, Value: []byte{byte(tlv8.StateM1)}},
		tlv8.Pair{Tag: tlv8.TagMethod, Value: []byte{byte(tlv8.MethodPairSetup)}},
		tlv8.Pair{Tag: tlv8.TagFlags, Value: []byte{0x10, 0, 0, 0}},
	)
	res := c.dispatch(&base.Request{Method: base.MethodPost, Path: "/pair-setup", Content: body})
	require.Equal(t, base.StatusOK, res.StatusCode)

	values, err := tlv8.Decode(res.Body)
	require.NoError(t, err)

	state, ok := values.GetByte(tlv8.TagState)
	require.True(t, ok)
	require.Equal(t, byte(tlv8.StateM2), state)

	pub, ok := values.Get(tlv8.TagPublicKey)
	require.True(t, ok)
	require.Len(t, pub, 384)

	salt, ok := values.Get(tlv8.TagSalt)
	require.True(t, ok)
	require.Len(t, salt, 16)

	flags, ok := values.Get(tlv8.TagFlags)
	require.True(t, ok)
	require.Equal(t, []byte{0x10, 0, 0, 0}, flags)
}

func TestHandlePairSetupRejectsMFiAuth(t *testing.T) {
	cfg := config.New(config.Config{PairingMode: config.PairingHomeKit})
	c := newTestConnState(t, cfg)

	body := tlv8.Encode(
		tlv8.Pair{Tag: tlv8.TagState, Value: []byte{byte(tlv8.StateM1)}},
		tlv8.Pair{Tag: tlv8.TagMethod, Value: []byte{byte(tlv8.MethodPairSetupAuth)}},
	)
	res := c.dispatch(&base.Request{Method: base.MethodPost, Path: "/pair-setup", Content: body})
	require.Equal(t, base.StatusInternalServerError, res.StatusCode)
}

func TestHandlePairSetupM5GatedOffByDefault(t *testing.T) {
	cfg := config.New(config.Config{PairingMode: config.PairingHomeKit})
	c := newTestConnState(t, cfg)

	body := tlv8.Encode(
		tlv8.Pair{Tag: tlv8.TagState, Value: []byte{byte(tlv8.StateM5)}},
		tlv8.Pair{Tag: tlv8.TagEncryptedData, Value: []byte{1, 2, 3}},
	)
	res := c.dispatch(&base.Request{Method: base.MethodPost, Path: "/pair-setup", Content: body})
	require.Equal(t, base.StatusOK, res.StatusCode)

	values, err := tlv8.Decode(res.Body)
	require.NoError(t, err)
	code, ok := values.GetByte(tlv8.TagError)
	require.True(t, ok)
	require.Equal(t, byte(pairsetup.ErrorUnavailable), code)
}

func TestHandleTeardownWithNoBodyCascades(t *testing.T) {
	c := newTestConnState(t, config.New(config.Config{}))
	cancel := session.NewCancellable(context.Background())
	c.state.Registry.Register(session.StreamKey{ID: 0, Type: plist.StreamTypeAudioRealtime}, cancel)

	res := c.dispatch(&base.Request{Method: base.MethodTeardown, Path: "/1"})
	require.Equal(t, base.StatusOK, res.StatusCode)

	select {
	case <-cancel.Done():
	default:
		t.Fatal("expected teardown with no body to cascade cancellation")
	}
}
