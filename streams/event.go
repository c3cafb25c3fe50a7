package streams

import (
	"net"

	"github.com/rs/zerolog"

	"github.com/blackbird-av/airplay2/session"
)

// eventReadBufSize bounds a single read in the event-channel trace loop.
const eventReadBufSize = 4096

// RunEvent accepts a single connection on ln and traces incoming bytes
// until EOF or cancellation, then closes the listener. Spec.md §4.6 step 1
// only says to "spawn a read-loop that traces incoming bytes"; this mirrors
// original_source's EventChannel::create, which is a minimal read-and-
// discard loop sharing the same cancellation-flag/recoverable-EOF shape as
// the other stream loops rather than a bespoke one-off.
func RunEvent(ln net.Listener, cancel *session.Cancellable, log zerolog.Logger) {
	defer ln.Close()
	watchCancel(cancel, ln)

	conn, err := ln.Accept()
	if err != nil {
		return
	}
	defer conn.Close()
	watchCancel(cancel, conn)

	buf := make([]byte, eventReadBufSize)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			log.Trace().Bytes("data", buf[:n]).Msg("event channel bytes")
		}
		if err != nil {
			if !isRecoverable(err) {
				log.Error().Err(err).Msg("event channel read failed")
			}
			return
		}

		select {
		case <-cancel.Done():
			return
		default:
		}
	}
}
