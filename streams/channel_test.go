package streams

import (
	"errors"
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsRecoverableClassifiesClosures(t *testing.T) {
	require.True(t, isRecoverable(nil))
	require.True(t, isRecoverable(io.EOF))
	require.True(t, isRecoverable(net.ErrClosed))
	require.True(t, isRecoverable(errors.New("read tcp: use of closed network connection")))
	require.True(t, isRecoverable(errors.New("write: connection reset by peer")))
	require.True(t, isRecoverable(errors.New("write: broken pipe")))
	require.False(t, isRecoverable(errors.New("permission denied")))
}

func TestIsRecoverableExportedWrapper(t *testing.T) {
	require.True(t, IsRecoverable(io.EOF))
	require.False(t, IsRecoverable(errors.New("something else")))
}
