package streams

import (
	"bufio"
	"encoding/binary"
	"io"
	"net"

	"github.com/rs/zerolog"

	"github.com/blackbird-av/airplay2/pkg/crypto/streamcipher"
	"github.com/blackbird-av/airplay2/pkg/sink"
	"github.com/blackbird-av/airplay2/session"
)

// videoHeaderLen is the fixed structured header preceding every video
// frame: payload_len(u32 LE), kind(u16 LE), unknown(u16 LE), timestamp(u64
// LE).
const videoHeaderLen = 16

// videoUnknownRegionLen is the trailing region of unexplained bytes after
// the structured header, skipped without interpretation (spec.md §9).
const videoUnknownRegionLen = 112

// RunVideo decrypts stateful AES-128-CTR-BE video payloads arriving on a
// TCP video connection until EOF or cancellation (spec.md §4.7 video_loop).
func RunVideo(
	conn net.Conn,
	cipher *streamcipher.VideoCipher,
	arena *session.BytesArena,
	strm sink.Stream,
	cancel *session.Cancellable,
	log zerolog.Logger,
) {
	defer conn.Close()
	watchCancel(cancel, conn)

	r := bufio.NewReader(conn)

	for {
		var hdrBuf [videoHeaderLen]byte
		if _, err := io.ReadFull(r, hdrBuf[:]); err != nil {
			reportExit(strm, cancel, err, log)
			return
		}

		payloadLen := binary.LittleEndian.Uint32(hdrBuf[0:4])
		kind := binary.LittleEndian.Uint16(hdrBuf[4:6])
		timestamp := binary.LittleEndian.Uint64(hdrBuf[8:16])

		if _, err := io.CopyN(io.Discard, r, videoUnknownRegionLen); err != nil {
			reportExit(strm, cancel, err, log)
			return
		}

		payload := arena.Allocate(int(payloadLen))
		if _, err := io.ReadFull(r, payload); err != nil {
			reportExit(strm, cancel, err, log)
			return
		}

		packetKind, rawKind := classifyVideoKind(kind)
		if packetKind == sink.PacketPayload {
			cipher.Decrypt(payload)
		}

		strm.OnData(sink.VideoPacket{Kind: packetKind, RawKind: rawKind, Timestamp: timestamp, Payload: payload})

		select {
		case <-cancel.Done():
			strm.OnOK()
			return
		default:
		}
	}
}

// classifyVideoKind maps the wire kind field to a sink.PacketKind,
// spec.md §4.7 step 2.
func classifyVideoKind(kind uint16) (sink.PacketKind, uint16) {
	switch kind {
	case 1:
		return sink.PacketAvcC, kind
	case 0, 4096:
		return sink.PacketPayload, kind
	default:
		return sink.PacketOther, kind
	}
}
