// Package streams implements the stream-channel lifecycle spec.md §4.7
// describes: per-stream TCP/UDP listeners, the four decryption loop kinds
// (buffered audio, realtime audio, control, video), the event trace loop,
// and the cancellation/teardown plumbing that ties them to a
// session.Registry.
package streams

import (
	"errors"
	"io"
	"net"
	"strings"

	"github.com/blackbird-av/airplay2/session"
)

// isRecoverable reports whether err is one of the socket-closure errors
// spec.md §7 maps to Stream.OnOK rather than Stream.OnErr: the remote end
// going away is an ordinary teardown, not a fault. Carried forward from
// original_source's remap_io_error_if_needed.
// IsRecoverable exports isRecoverable's classification for callers outside
// this package that need the same OnOK/OnErr split around a listener
// Accept (server's buffered/video stream-setup goroutines).
func IsRecoverable(err error) bool {
	return isRecoverable(err)
}

func isRecoverable(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, io.EOF) {
		return true
	}
	if errors.Is(err, net.ErrClosed) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "use of closed network connection") ||
		strings.Contains(msg, "broken pipe")
}

// watchCancel closes closer as soon as c's cancellation flag is raised,
// unblocking whatever blocking read the owning loop is doing. The goroutine
// returns only once c is cancelled, even when the loop has already ended
// on its own; closer is then closed a second time and the error ignored.
func watchCancel(c *session.Cancellable, closer io.Closer) {
	go func() {
		<-c.Done()
		closer.Close() //nolint:errcheck
	}()
}
