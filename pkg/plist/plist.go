// Package plist wraps howett.net/plist with the binary-plist request and
// response shapes the RTSP handlers exchange: /info's device descriptor,
// SETUP's SenderInfo/Streams union, and TEARDOWN's stream list.
package plist

import (
	"bytes"
	"fmt"

	"howett.net/plist"
)

// Decode unmarshals a binary (or XML) plist body into v.
func Decode(body []byte, v any) error {
	_, err := plist.Unmarshal(body, v)
	if err != nil {
		return fmt.Errorf("plist: decode: %w", err)
	}
	return nil
}

// Encode marshals v as a binary plist.
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := plist.NewBinaryEncoder(&buf)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("plist: encode: %w", err)
	}
	return buf.Bytes(), nil
}

// StreamType is the wire value of a Streams request/response element's
// "type" field.
type StreamType uint32

const (
	StreamTypeAudioRealtime StreamType = 96
	StreamTypeAudioBuffered StreamType = 103
	StreamTypeVideo         StreamType = 110
)

// Display describes one attached output in the /info device descriptor.
// This core has no display of its own; InfoResponse.Displays is left
// empty in practice but the shape is kept for clients that inspect it.
type Display struct {
	WidthPixels  uint32 `plist:"widthPixels"`
	HeightPixels uint32 `plist:"heightPixels"`
	UUID         string `plist:"uuid"`
	MaxFPS       uint32 `plist:"maxFPS"`
	Features     uint32 `plist:"features"`
}

// InfoResponse is the /info device descriptor.
type InfoResponse struct {
	DeviceID        string    `plist:"deviceid"`
	MACAddress      string    `plist:"macAddress"`
	Features        uint64    `plist:"features"`
	Manufacturer    string    `plist:"manufacturer"`
	Model           string    `plist:"model"`
	Name            string    `plist:"name"`
	ProtocolVersion string    `plist:"protocolVersion"`
	SourceVersion   string    `plist:"sourceVersion"`
	Displays        []Display `plist:"displays,omitempty"`
}

// SenderInfo is the SETUP request shape sent before any Streams request
// establishes the session's shared AES key.
type SenderInfo struct {
	Name           string `plist:"name"`
	Model          string `plist:"model"`
	DeviceID       string `plist:"deviceID"`
	MACAddress     string `plist:"macAddress"`
	OSName         string `plist:"osName,omitempty"`
	OSVersion      string `plist:"osVersion,omitempty"`
	OSBuildVersion string `plist:"osBuildVersion,omitempty"`
	EKey           []byte `plist:"ekey"`
	EIV            []byte `plist:"eiv"`

	// TimingProtocol is "PTP" or "NTP"; TimingPort is only meaningful
	// for NTP and is the field name "timingPort" carries on the wire.
	TimingProtocol string `plist:"timingProtocol"`
	TimingPort     uint16 `plist:"timingPort,omitempty"`
}

// SenderInfoResponse answers a SenderInfo request with the accessory's
// event-channel port.
type SenderInfoResponse struct {
	EventPort  uint16 `plist:"eventPort"`
	TimingPort uint16 `plist:"timingPort"`
}

// StreamsRequest is the SETUP request shape carrying one or more stream
// descriptions to open.
type StreamsRequest struct {
	Streams []RawStreamRequest `plist:"streams"`
}

// RawStreamRequest is a single Streams-request element before its type-
// specific fields are decoded; Type discriminates which of the Audio*/
// Video fields below are populated. howett.net/plist has no untagged-union
// support, so all variant fields live on one struct and the caller reads
// only the ones matching Type.
type RawStreamRequest struct {
	Type StreamType `plist:"type"`

	// AudioRealtime / AudioBuffered
	ContentType         uint8  `plist:"ct,omitempty"`
	AudioFormat         uint32 `plist:"audioFormat,omitempty"`
	AudioFormatIndex    *uint8 `plist:"audioFormatIndex,omitempty"`
	SamplesPerFrame     uint32 `plist:"spf,omitempty"`
	SampleRate          uint32 `plist:"sr,omitempty"`
	MinLatencySamples   uint32 `plist:"latencyMin,omitempty"`
	MaxLatencySamples   uint32 `plist:"latencyMax,omitempty"`
	RemoteControlPort   uint16 `plist:"controlPort,omitempty"`
	SharedKey           []byte `plist:"shk,omitempty"`
	ClientID            string `plist:"clientID,omitempty"`

	// Video
	StreamConnectionID int64  `plist:"streamConnectionID,omitempty"`
	LatencyMs          uint32 `plist:"latencyMs,omitempty"`
}

// StreamResponse is one element of a Streams response.
type StreamResponse struct {
	Type              StreamType `plist:"type"`
	StreamID          uint64     `plist:"streamID"`
	DataPort          uint16     `plist:"dataPort"`
	ControlPort       uint16     `plist:"controlPort,omitempty"`
	AudioBufferSize   uint32     `plist:"audioBufferSize,omitempty"`
}

// StreamsResponse answers a Streams request.
type StreamsResponse struct {
	Streams []StreamResponse `plist:"streams"`
}

// SetupKind distinguishes the two SETUP request shapes.
type SetupKind int

const (
	SetupKindSenderInfo SetupKind = iota
	SetupKindStreams
)

// DecodeSetupRequest sniffs a SETUP request body to tell a SenderInfo
// request from a Streams request, the untagged union spec.md §4.6
// describes: probing for a top-level "streams" key, since the two shapes
// share no other field name.
func DecodeSetupRequest(body []byte) (SetupKind, *SenderInfo, *StreamsRequest, error) {
	var probe struct {
		Streams []RawStreamRequest `plist:"streams"`
	}
	if err := Decode(body, &probe); err != nil {
		return 0, nil, nil, err
	}
	if probe.Streams != nil {
		return SetupKindStreams, nil, &StreamsRequest{Streams: probe.Streams}, nil
	}

	var info SenderInfo
	if err := Decode(body, &info); err != nil {
		return 0, nil, nil, err
	}
	return SetupKindSenderInfo, &info, nil, nil
}

// TeardownRequest is the optional TEARDOWN body naming specific streams to
// close; an absent or empty list means "close the whole session."
type TeardownRequest struct {
	Streams []TeardownStream `plist:"streams,omitempty"`
}

// TeardownStream names one stream to close by id and/or type.
type TeardownStream struct {
	StreamID *uint64    `plist:"streamID,omitempty"`
	Type     StreamType `plist:"type"`
}
