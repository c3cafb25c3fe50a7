package plist

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInfoResponseRoundTrip(t *testing.T) {
	in := InfoResponse{
		DeviceID:        "9F:D7:AF:1F:D3:CD",
		MACAddress:      "9F:D7:AF:1F:D3:CD",
		Features:        0x445f8a00,
		Manufacturer:    "blackbird",
		Model:           "airplay2",
		Name:            "Test Receiver",
		ProtocolVersion: "1.1",
		SourceVersion:   "1.0.0",
	}

	body, err := Encode(in)
	require.NoError(t, err)

	var out InfoResponse
	require.NoError(t, Decode(body, &out))
	require.Equal(t, in, out)
}

func TestDecodeSetupRequestSenderInfo(t *testing.T) {
	body, err := Encode(SenderInfo{
		Name:           "sender",
		Model:          "iPhone",
		DeviceID:       "AA:BB:CC:DD:EE:FF",
		MACAddress:     "AA:BB:CC:DD:EE:FF",
		EKey:           []byte{1, 2, 3},
		EIV:            make([]byte, 16),
		TimingProtocol: "PTP",
	})
	require.NoError(t, err)

	kind, info, streams, err := DecodeSetupRequest(body)
	require.NoError(t, err)
	require.Equal(t, SetupKindSenderInfo, kind)
	require.Nil(t, streams)
	require.Equal(t, "sender", info.Name)
	require.Len(t, info.EIV, 16)
}

func TestDecodeSetupRequestStreams(t *testing.T) {
	body, err := Encode(StreamsRequest{
		Streams: []RawStreamRequest{
			{Type: StreamTypeVideo, StreamConnectionID: 42, LatencyMs: 100},
		},
	})
	require.NoError(t, err)

	kind, info, streams, err := DecodeSetupRequest(body)
	require.NoError(t, err)
	require.Equal(t, SetupKindStreams, kind)
	require.Nil(t, info)
	require.Len(t, streams.Streams, 1)
	require.Equal(t, StreamTypeVideo, streams.Streams[0].Type)
	require.EqualValues(t, 42, streams.Streams[0].StreamConnectionID)
}

func TestStreamsResponseRoundTrip(t *testing.T) {
	in := StreamsResponse{Streams: []StreamResponse{
		{Type: StreamTypeAudioBuffered, StreamID: 1, DataPort: 7000, AudioBufferSize: 65536},
	}}
	body, err := Encode(in)
	require.NoError(t, err)

	var out StreamsResponse
	require.NoError(t, Decode(body, &out))
	require.Equal(t, in, out)
}
