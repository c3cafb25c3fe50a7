package streams

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/pion/rtcp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/blackbird-av/airplay2/session"
)

func TestPacketTypeName(t *testing.T) {
	require.Equal(t, "sender_report", packetTypeName(&rtcp.SenderReport{}))
	require.Equal(t, "receiver_report", packetTypeName(&rtcp.ReceiverReport{}))
	require.Equal(t, "other", packetTypeName(&rtcp.RawPacket{}))
}

func TestRunControlExitsOnCancellation(t *testing.T) {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)

	cancel := session.NewCancellable(context.Background())
	done := make(chan struct{})
	go func() {
		RunControl(pc, cancel, zerolog.Nop())
		close(done)
	}()

	cancel.Cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("RunControl did not exit after cancellation")
	}
}
