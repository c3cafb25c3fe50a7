package server

import (
	"fmt"

	"github.com/blackbird-av/airplay2/config"
	aplcrypto "github.com/blackbird-av/airplay2/pkg/crypto"
	"github.com/blackbird-av/airplay2/pkg/crypto/streamcipher"
	"github.com/blackbird-av/airplay2/pkg/plist"
	"github.com/blackbird-av/airplay2/pkg/sink"
	"github.com/blackbird-av/airplay2/session"
	"github.com/blackbird-av/airplay2/streams"

	"github.com/blackbird-av/airplay2/internal/airerrors"
	"github.com/blackbird-av/airplay2/pkg/base"
)

// handleSetup implements the SETUP orchestrator (spec.md §4.6): a SETUP
// request is either a SenderInfo request, which establishes the session's
// shared AES key and opens the event channel, or a Streams request, which
// opens one or more audio/video channels using that key.
func (c *connState) handleSetup(req *base.Request) *base.Response {
	kind, info, streamsReq, err := plist.DecodeSetupRequest(req.Content)
	if err != nil {
		return errorResponse(fmt.Errorf("plist decode: %w", err))
	}

	if kind == plist.SetupKindSenderInfo {
		return c.handleSenderInfo(info)
	}
	return c.handleStreams(streamsReq)
}

func (c *connState) handleSenderInfo(info *plist.SenderInfo) *base.Response {
	if len(info.EIV) != 16 {
		return errorResponse(airerrors.ErrMalformedRequest{Reason: "eiv must be 16 bytes"})
	}

	sharedSecret, ok := c.state.SharedSecret()
	if !ok {
		return errorResponse(airerrors.ErrWrongState{Reason: "pair-verify must complete before SETUP"})
	}
	m3, ok := c.state.FPLastMsg()
	if !ok {
		return errorResponse(airerrors.ErrWrongState{Reason: "fairplay /fp-setup must complete before SETUP"})
	}

	unwrapped, err := c.server.unwrapper.UnwrapKey(m3, info.EKey)
	if err != nil {
		return errorResponse(fmt.Errorf("fairplay key unwrap: %w", err))
	}
	finalKey := aplcrypto.HashAESKey(unwrapped, sharedSecret[:])

	var iv [16]byte
	copy(iv[:], info.EIV)
	c.state.SetAESKeyIV(finalKey, iv)

	port, _, err := c.state.ClaimEventChannel(func() (uint16, error) {
		ln, port, err := c.listenTCP()
		if err != nil {
			return 0, err
		}
		go streams.RunEvent(ln, session.NewCancellable(c.ctx), c.log)
		return port, nil
	})
	if err != nil {
		return errorResponse(airerrors.ErrNetworkSetup{Err: err})
	}

	body, err := plist.Encode(plist.SenderInfoResponse{EventPort: port})
	if err != nil {
		return errorResponse(err)
	}
	return plistResponse(body)
}

func (c *connState) handleStreams(req *plist.StreamsRequest) *base.Response {
	out := make([]plist.StreamResponse, 0, len(req.Streams))
	for _, raw := range req.Streams {
		resp, err := c.setupOneStream(raw)
		if err != nil {
			return errorResponse(err)
		}
		out = append(out, resp)
	}

	body, err := plist.Encode(plist.StreamsResponse{Streams: out})
	if err != nil {
		return errorResponse(err)
	}
	return plistResponse(body)
}

func (c *connState) setupOneStream(raw plist.RawStreamRequest) (plist.StreamResponse, error) {
	key, iv, ok := c.state.AESKeyIV()
	if !ok {
		return plist.StreamResponse{}, airerrors.ErrWrongState{Reason: "a SenderInfo SETUP request must precede a Streams request"}
	}
	id := c.state.NextStreamID()

	switch raw.Type {
	case plist.StreamTypeAudioRealtime:
		return c.setupAudioRealtime(id, raw, iv, key)
	case plist.StreamTypeAudioBuffered:
		return c.setupAudioBuffered(id, raw)
	case plist.StreamTypeVideo:
		return c.setupVideo(id, raw, key)
	default:
		return plist.StreamResponse{}, airerrors.ErrMalformedRequest{Reason: fmt.Sprintf("unknown stream type %d", raw.Type)}
	}
}

// resolveCodec looks up raw's negotiated codec. Buffered-audio requests may
// carry an explicit audioFormatIndex that takes precedence; realtime
// requests resolve purely from the trailing-zero bit position of the
// audioFormat bitmask (spec.md §4.6).
func resolveCodec(raw plist.RawStreamRequest, allowExplicitIndex bool) (config.CodecEntry, bool) {
	idx := config.TrailingZeros64(uint64(raw.AudioFormat))
	if allowExplicitIndex && raw.AudioFormatIndex != nil {
		idx = int(*raw.AudioFormatIndex)
	}
	return config.LookupCodec(idx)
}

func (c *connState) setupAudioRealtime(id uint64, raw plist.RawStreamRequest, iv, key [16]byte) (plist.StreamResponse, error) {
	entry, ok := resolveCodec(raw, false)
	if !ok {
		return plist.StreamResponse{}, airerrors.ErrUnknownCodec{AudioFormat: uint64(raw.AudioFormat)}
	}

	cipher, err := streamcipher.NewAudioRealtimeCipher(key, iv)
	if err != nil {
		return plist.StreamResponse{}, airerrors.ErrNetworkSetup{Err: err}
	}

	dataConn, dataPort, err := c.listenUDP()
	if err != nil {
		return plist.StreamResponse{}, airerrors.ErrNetworkSetup{Err: err}
	}
	ctrlConn, ctrlPort, err := c.listenUDP()
	if err != nil {
		dataConn.Close() //nolint:errcheck
		return plist.StreamResponse{}, airerrors.ErrNetworkSetup{Err: err}
	}

	cancel := session.NewCancellable(c.ctx)
	params := sink.AudioParams{SampleRate: entry.SampleRate, BitDepth: entry.BitDepth, Channels: entry.Channels, Buffered: false}
	strm, err := c.server.sinks.AudioRealtime.Create(c.ctx, id, params, cancel)
	if err != nil {
		dataConn.Close() //nolint:errcheck
		ctrlConn.Close() //nolint:errcheck
		return plist.StreamResponse{}, airerrors.ErrNetworkSetup{Err: err}
	}
	c.setAudioStream(strm)

	key2 := session.StreamKey{ID: id, Type: plist.StreamTypeAudioRealtime}
	c.state.Registry.Register(key2, cancel)
	arena := session.NewBytesArena(c.server.cfg.AudioBufSize)

	go func() {
		defer c.state.Registry.Forget(key2)
		streams.RunAudioRealtime(dataConn, cipher, arena, strm, cancel, c.log)
	}()
	go streams.RunControl(ctrlConn, cancel, c.log)

	return plist.StreamResponse{Type: plist.StreamTypeAudioRealtime, StreamID: id, DataPort: dataPort, ControlPort: ctrlPort}, nil
}

func (c *connState) setupAudioBuffered(id uint64, raw plist.RawStreamRequest) (plist.StreamResponse, error) {
	entry, ok := resolveCodec(raw, true)
	if !ok {
		return plist.StreamResponse{}, airerrors.ErrUnknownCodec{AudioFormat: uint64(raw.AudioFormat)}
	}
	if len(raw.SharedKey) != streamcipher.AudioBufferedKeyLen {
		return plist.StreamResponse{}, airerrors.ErrMalformedRequest{Reason: "shk must be 32 bytes"}
	}

	var shared [32]byte
	copy(shared[:], raw.SharedKey)
	cipher, err := streamcipher.NewAudioBufferedCipher(shared)
	if err != nil {
		return plist.StreamResponse{}, airerrors.ErrNetworkSetup{Err: err}
	}

	ln, port, err := c.listenTCP()
	if err != nil {
		return plist.StreamResponse{}, airerrors.ErrNetworkSetup{Err: err}
	}

	cancel := session.NewCancellable(c.ctx)
	params := sink.AudioParams{SampleRate: entry.SampleRate, BitDepth: entry.BitDepth, Channels: entry.Channels, Buffered: true}
	strm, err := c.server.sinks.AudioBuffered.Create(c.ctx, id, params, cancel)
	if err != nil {
		ln.Close() //nolint:errcheck
		return plist.StreamResponse{}, airerrors.ErrNetworkSetup{Err: err}
	}
	c.setAudioStream(strm)

	key2 := session.StreamKey{ID: id, Type: plist.StreamTypeAudioBuffered}
	c.state.Registry.Register(key2, cancel)
	arena := session.NewBytesArena(c.server.cfg.AudioBufSize)

	go func() {
		defer ln.Close() //nolint:errcheck
		defer c.state.Registry.Forget(key2)

		conn, err := ln.Accept()
		if err != nil {
			if streams.IsRecoverable(err) {
				strm.OnOK()
			} else {
				strm.OnErr(err)
			}
			return
		}
		streams.RunAudioBuffered(conn, cipher, arena, strm, cancel, c.log)
	}()

	return plist.StreamResponse{
		Type:            plist.StreamTypeAudioBuffered,
		StreamID:        id,
		DataPort:        port,
		AudioBufferSize: uint32(c.server.cfg.AudioBufSize),
	}, nil
}

func (c *connState) setupVideo(id uint64, raw plist.RawStreamRequest, key [16]byte) (plist.StreamResponse, error) {
	cipher, err := streamcipher.NewVideoCipher(key, uint64(raw.StreamConnectionID))
	if err != nil {
		return plist.StreamResponse{}, airerrors.ErrNetworkSetup{Err: err}
	}

	ln, port, err := c.listenTCP()
	if err != nil {
		return plist.StreamResponse{}, airerrors.ErrNetworkSetup{Err: err}
	}

	cancel := session.NewCancellable(c.ctx)
	strm, err := c.server.sinks.Video.Create(c.ctx, id, sink.VideoParams{}, cancel)
	if err != nil {
		ln.Close() //nolint:errcheck
		return plist.StreamResponse{}, airerrors.ErrNetworkSetup{Err: err}
	}

	key2 := session.StreamKey{ID: id, Type: plist.StreamTypeVideo}
	c.state.Registry.Register(key2, cancel)
	arena := session.NewBytesArena(c.server.cfg.VideoBufSize)

	go func() {
		defer ln.Close() //nolint:errcheck
		defer c.state.Registry.Forget(key2)

		conn, err := ln.Accept()
		if err != nil {
			if streams.IsRecoverable(err) {
				strm.OnOK()
			} else {
				strm.OnErr(err)
			}
			return
		}
		streams.RunVideo(conn, cipher, arena, strm, cancel, c.log)
	}()

	return plist.StreamResponse{Type: plist.StreamTypeVideo, StreamID: id, DataPort: port}, nil
}
