package streams

import (
	"net"

	"github.com/rs/zerolog"

	"github.com/blackbird-av/airplay2/internal/rtpwire"
	"github.com/blackbird-av/airplay2/pkg/crypto/streamcipher"
	"github.com/blackbird-av/airplay2/pkg/sink"
	"github.com/blackbird-av/airplay2/session"
)

// maxRealtimeDatagram bounds a single UDP read; AirPlay realtime-audio
// datagrams are always well under this (spec.md §4.7 step 1).
const maxRealtimeDatagram = 16 * 1024

// RunAudioRealtime decrypts AES-CBC-128 realtime-audio datagrams arriving
// on pc until cancellation (spec.md §4.7 audio_realtime_loop). Unlike
// buffered audio, each datagram is decrypted independently starting from
// the fixed session IV.
func RunAudioRealtime(
	pc net.PacketConn,
	cipher *streamcipher.AudioRealtimeCipher,
	arena *session.BytesArena,
	strm sink.Stream,
	cancel *session.Cancellable,
	log zerolog.Logger,
) {
	defer pc.Close()
	watchCancel(cancel, pc)

	buf := make([]byte, maxRealtimeDatagram)

	for {
		n, _, err := pc.ReadFrom(buf)
		if err != nil {
			reportExit(strm, cancel, err, log)
			return
		}
		if n < rtpwire.HeaderLen {
			continue
		}

		pkt := arena.Allocate(n)
		copy(pkt, buf[:n])

		cipher.Decrypt(pkt[rtpwire.HeaderLen:])

		timestamp := uint64(0)
		if hdr, err := rtpwire.ParseHeader(pkt[:rtpwire.HeaderLen]); err == nil {
			timestamp = uint64(hdr.Timestamp)
		}
		strm.OnData(sink.AudioPacket{Timestamp: timestamp, Payload: pkt[rtpwire.HeaderLen:]})

		select {
		case <-cancel.Done():
			strm.OnOK()
			return
		default:
		}
	}
}
