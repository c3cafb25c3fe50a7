package streams

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"net"

	"github.com/rs/zerolog"

	"github.com/blackbird-av/airplay2/internal/rtpwire"
	"github.com/blackbird-av/airplay2/pkg/crypto/streamcipher"
	"github.com/blackbird-av/airplay2/pkg/sink"
	"github.com/blackbird-av/airplay2/session"
)

// minBufferedPacketLen is the smallest legal wire pkt_len (after
// subtracting the length field itself): a 12-byte RTP header plus the
// 24-byte AEAD trailer, with zero bytes of ciphertext payload.
const minBufferedPacketLen = rtpwire.HeaderLen + rtpwire.TrailerLen

// RunAudioBuffered reads length-prefixed, ChaCha20-Poly1305-protected RTP
// packets off a TCP buffered-audio connection until EOF or cancellation
// (spec.md §4.7 audio_buffered_loop).
func RunAudioBuffered(
	conn net.Conn,
	cipher *streamcipher.AudioBufferedCipher,
	arena *session.BytesArena,
	strm sink.Stream,
	cancel *session.Cancellable,
	log zerolog.Logger,
) {
	defer conn.Close()
	watchCancel(cancel, conn)

	r := bufio.NewReader(conn)

	for {
		var lenBuf [2]byte
		if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
			reportExit(strm, cancel, err, log)
			return
		}
		pktLen := int(binary.BigEndian.Uint16(lenBuf[:])) - 2
		if pktLen < minBufferedPacketLen {
			strm.OnErr(fmt.Errorf("streams: buffered-audio packet too short: %d bytes", pktLen))
			return
		}

		rtpLen := pktLen - rtpwire.TrailerLen
		pkt := arena.Allocate(rtpLen)
		if _, err := io.ReadFull(r, pkt); err != nil {
			reportExit(strm, cancel, err, log)
			return
		}

		var trailerBuf [rtpwire.TrailerLen]byte
		if _, err := io.ReadFull(r, trailerBuf[:]); err != nil {
			reportExit(strm, cancel, err, log)
			return
		}
		trailer := rtpwire.ParseTrailer(trailerBuf[:])

		header := pkt[:rtpwire.HeaderLen]
		payload := pkt[rtpwire.HeaderLen:]
		aad := rtpwire.AAD(header)

		if err := cipher.OpenInPlace(trailer.NonceSuffix, aad, trailer.Tag, payload); err != nil {
			log.Warn().Err(err).Msg("buffered-audio AEAD tag mismatch, dropping packet")
			continue
		}

		timestamp := uint64(0)
		if hdr, err := rtpwire.ParseHeader(header); err == nil {
			timestamp = uint64(hdr.Timestamp)
		}
		strm.OnData(sink.AudioPacket{Timestamp: timestamp, Payload: payload})

		select {
		case <-cancel.Done():
			strm.OnOK()
			return
		default:
		}
	}
}

// reportExit maps a loop-ending read error to OnOK (recoverable closure or
// explicit cancellation) or OnErr (anything else), per spec.md §7.
func reportExit(strm sink.Stream, cancel *session.Cancellable, err error, log zerolog.Logger) {
	select {
	case <-cancel.Done():
		strm.OnOK()
		return
	default:
	}

	if isRecoverable(err) {
		strm.OnOK()
		return
	}
	log.Error().Err(err).Msg("stream channel ended with an error")
	strm.OnErr(err)
}
