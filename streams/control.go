package streams

import (
	"net"

	"github.com/pion/rtcp"
	"github.com/rs/zerolog"

	"github.com/blackbird-av/airplay2/session"
)

// maxControlDatagram bounds a single RTCP datagram read.
const maxControlDatagram = 2048

// RunControl drains RTCP feedback datagrams on pc, parsing each for
// trace-level logging. Spec.md §4.7 describes this loop as a placeholder
// for RTCP feedback; this module additionally decodes each packet with
// pion/rtcp rather than discarding raw bytes, so a caller watching logs at
// trace level can see what the sender is actually reporting.
func RunControl(pc net.PacketConn, cancel *session.Cancellable, log zerolog.Logger) {
	defer pc.Close()
	watchCancel(cancel, pc)

	buf := make([]byte, maxControlDatagram)

	for {
		n, _, err := pc.ReadFrom(buf)
		if err != nil {
			return
		}

		pkts, err := rtcp.Unmarshal(buf[:n])
		if err != nil {
			log.Trace().Err(err).Msg("control datagram was not valid RTCP")
			continue
		}
		for _, p := range pkts {
			log.Trace().Str("type", packetTypeName(p)).Msg("control feedback received")
		}

		select {
		case <-cancel.Done():
			return
		default:
		}
	}
}

func packetTypeName(p rtcp.Packet) string {
	switch p.(type) {
	case *rtcp.SenderReport:
		return "sender_report"
	case *rtcp.ReceiverReport:
		return "receiver_report"
	case *rtcp.ReceiverEstimatedMaximumBitrate:
		return "remb"
	case *rtcp.TransportLayerNack:
		return "nack"
	case *rtcp.PictureLossIndication:
		return "pli"
	default:
		return "other"
	}
}
